package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("create gbuffer: %w", &ConfigurationError{Target: "gbuffer", Attachment: "depth", Status: "incomplete attachment"})
	assert.True(t, errors.Is(err, ErrConfiguration))

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "gbuffer", cfgErr.Target)
	assert.Contains(t, err.Error(), "attachment depth")
}

func TestMissingAssetErrorUnwrap(t *testing.T) {
	cause := errors.New("no such file")
	err := &MissingAssetError{Path: "textures/wall.jpg", Err: cause}
	assert.True(t, errors.Is(err, ErrMissingAsset))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(&MissingAssetError{Path: "x"}, ErrMissingAsset))
}

func TestLogWarnOnce(t *testing.T) {
	assert.True(t, LogWarnOnce("test/once", "first %d", 1))
	assert.False(t, LogWarnOnce("test/once", "second %d", 2))
	assert.True(t, LogWarnOnce("test/other", "other"))
}

func TestParseLogLevel(t *testing.T) {
	l, err := ParseLogLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, LogLevelWarn, l)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestClock(t *testing.T) {
	base := time.Unix(100, 0)
	now := base
	c := &Clock{now: func() time.Time { return now }}

	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	now = base.Add(1500 * time.Millisecond)
	c.Update()
	assert.InDelta(t, 1.5, c.Elapsed(), 1e-9)

	c.Stop()
	now = base.Add(3 * time.Second)
	c.Update()
	assert.InDelta(t, 1.5, c.Elapsed(), 1e-9)
}

func TestMetricsFPS(t *testing.T) {
	m := NewMetrics()
	refreshed := false
	for i := 0; i < 61; i++ {
		if m.Update(1.0 / 60.0) {
			refreshed = true
		}
	}
	assert.True(t, refreshed)
	assert.InDelta(t, 60, m.FPS(), 1)
	assert.InDelta(t, 1000.0/60.0, m.FrameTime(), 1e-6)
}

func TestInputKeyPressedEdge(t *testing.T) {
	require.True(t, EventSystemInitialize())
	require.NoError(t, InputInitialize())

	var fired []EventCode
	EventRegister(EVENT_CODE_KEY_PRESSED, func(ctx EventContext) { fired = append(fired, ctx.Type) })

	InputProcessKey(KEY_B, true)
	assert.True(t, InputIsKeyPressed(KEY_B))
	assert.True(t, InputIsKeyDown(KEY_B))

	InputUpdate()
	assert.False(t, InputIsKeyPressed(KEY_B))
	assert.True(t, InputIsKeyDown(KEY_B))

	// repeated press without release does not fire again
	InputProcessKey(KEY_B, true)
	assert.Len(t, fired, 1)
	InputProcessKey(KEY_B, false)
}
