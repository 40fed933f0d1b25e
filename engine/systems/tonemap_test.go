package systems

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/software"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExposureClampNeverGoesNegative(t *testing.T) {
	e := NewExposureControl(1, 0.05, ExposureClamp)
	for i := 0; i < 100; i++ {
		assert.GreaterOrEqual(t, e.Decrease(), float32(0))
	}
	assert.Equal(t, float32(0), e.Value)

	e.Increase()
	assert.InDelta(t, 0.05, e.Value, 1e-6)
}

func TestExposureWrapResetsToDefault(t *testing.T) {
	e := NewExposureControl(0.5, 0.25, ExposureWrap)
	assert.Equal(t, float32(0.25), e.Decrease())
	assert.Equal(t, float32(0), e.Decrease())
	assert.Equal(t, float32(0.5), e.Decrease())
}

func TestExposureIncreaseIsBounded(t *testing.T) {
	e := NewExposureControl(15, 0.5, ExposureClamp)
	for i := 0; i < 10; i++ {
		e.Increase()
	}
	assert.Equal(t, MaxExposure, e.Value)
	e.Reset()
	assert.Equal(t, float32(15), e.Value)

	negative := NewExposureControl(-3, 0.5, ExposureClamp)
	assert.Equal(t, float32(0), negative.Value)
}

func TestExposureNeverBecomesNaN(t *testing.T) {
	nan := float32(math.NaN())

	e := NewExposureControl(nan, 0.5, ExposureClamp)
	assert.Equal(t, float32(0), e.Value)
	assert.Equal(t, float32(0), e.Default)

	for _, policy := range []ExposurePolicy{ExposureClamp, ExposureWrap} {
		e = NewExposureControl(1, nan, policy)
		assert.False(t, math.IsNaN(float64(e.Increase())))
		assert.False(t, math.IsNaN(float64(e.Decrease())))
		assert.GreaterOrEqual(t, e.Value, float32(0))
	}
}

func TestParseExposurePolicy(t *testing.T) {
	p, err := ParseExposurePolicy("wrap")
	require.NoError(t, err)
	assert.Equal(t, ExposureWrap, p)
	p, err = ParseExposurePolicy("clamp")
	require.NoError(t, err)
	assert.Equal(t, ExposureClamp, p)
	_, err = ParseExposurePolicy("bounce")
	assert.Error(t, err)
}

func newTonemapStage(r *rig, width, height uint32) *TonemapStage {
	stage := NewTonemapStage(r.shaders, NewFullScreenQuad(r.geometries, r.backend), r.backend)
	stage.Resize(width, height)
	return stage
}

func TestTonemapWithoutBloomIgnoresBrightBuffer(t *testing.T) {
	const size = 4
	const exposure = float32(1.5)
	r := newRig(t, size, size, false)
	stage := newTonemapStage(r, size, size)

	scene := r.solidTexture(t, size, size, [4]uint8{51, 102, 153, 255})
	white := r.solidTexture(t, size, size, [4]uint8{255, 255, 255, 255})
	black := r.solidTexture(t, size, size, [4]uint8{0, 0, 0, 255})

	require.NoError(t, stage.Tonemap(scene, white, false, exposure))
	withWhite := r.read(t, metadata.DefaultFramebuffer, 0, size, size)
	require.NoError(t, stage.Tonemap(scene, black, false, exposure))
	withBlack := r.read(t, metadata.DefaultFramebuffer, 0, size, size)
	assert.Equal(t, withWhite, withBlack)

	want := software.Tonemap(mgl32.Vec3{0.2, 0.4, 0.6}, exposure)
	for i := 0; i < len(withWhite); i += 4 {
		for c := 0; c < 3; c++ {
			assert.InDelta(t, want[c], withWhite[i+c], 1.0/255)
		}
	}

	draws := r.backend.Trace().DrawsWith(metadata.BUILTIN_SHADER_NAME_BLOOM)
	require.Len(t, draws, 2)
	last := draws[1]
	assert.Equal(t, false, last.Uniforms["bloom"])
	assert.Equal(t, exposure, last.Uniforms["exposure"])
	assert.Equal(t, scene, last.Units[0])
	assert.NotContains(t, last.Units, uint32(1))
	assert.Equal(t, metadata.DefaultTargetName, last.Target)
}

func TestTonemapWithBloomAddsBrightBuffer(t *testing.T) {
	const size = 4
	r := newRig(t, size, size, false)
	stage := newTonemapStage(r, size, size)

	scene := r.solidTexture(t, size, size, [4]uint8{51, 51, 51, 255})
	bright := r.solidTexture(t, size, size, [4]uint8{255, 255, 255, 255})

	require.NoError(t, stage.Tonemap(scene, bright, true, 1))
	out := r.read(t, metadata.DefaultFramebuffer, 0, size, size)
	want := software.Tonemap(mgl32.Vec3{1.2, 1.2, 1.2}, 1)
	assert.InDelta(t, want[0], out[0], 1.0/255)

	draws := r.backend.Trace().DrawsWith(metadata.BUILTIN_SHADER_NAME_BLOOM)
	require.Len(t, draws, 1)
	assert.Equal(t, true, draws[0].Uniforms["bloom"])
	assert.Equal(t, bright, draws[0].Units[1])
}
