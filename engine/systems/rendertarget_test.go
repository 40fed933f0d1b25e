package systems

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/software"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hdrSpec() RenderTargetSpec {
	return RenderTargetSpec{
		Name: "hdr_test",
		Color: []metadata.ColorAttachmentSpec{
			{Kind: metadata.AttachmentSceneColor, Format: metadata.FormatRGBA16F},
			{Kind: metadata.AttachmentBrightness, Format: metadata.FormatRGBA16F},
		},
		Depth: &metadata.DepthAttachmentSpec{Kind: metadata.AttachmentDepth, Renderbuffer: true},
	}
}

func TestCreateCompleteTarget(t *testing.T) {
	r := newRig(t, 8, 8, false)

	target, err := r.targets.Create(hdrSpec(), 64, 32)
	require.NoError(t, err)
	assert.True(t, target.Complete)
	assert.NotEmpty(t, target.ID)
	assert.Len(t, target.ColorAttachments, 2)
	require.NotNil(t, target.DepthAttachment)
	assert.NotZero(t, target.DepthAttachment.Renderbuffer)
	assert.Equal(t, metadata.FramebufferComplete, r.backend.FramebufferStatus(target.Framebuffer))

	binds := r.backend.Trace().Filter(software.OpBindFramebuffer)
	require.NotEmpty(t, binds)
	assert.Equal(t, metadata.DefaultFramebuffer, binds[len(binds)-1].Framebuffer)

	got, err := r.targets.Get("hdr_test")
	require.NoError(t, err)
	assert.Same(t, target, got)
}

func TestCreateRejectsInvalidSpecs(t *testing.T) {
	r := newRig(t, 8, 8, false)
	before := r.backend.MemoryUsed()

	tests := []struct {
		name   string
		spec   RenderTargetSpec
		width  uint32
		height uint32
	}{
		{
			name:   "zero size",
			spec:   hdrSpec(),
			width:  0,
			height: 32,
		},
		{
			name:   "no attachments",
			spec:   RenderTargetSpec{Name: "empty"},
			width:  8,
			height: 8,
		},
		{
			name: "depth format in a color slot",
			spec: RenderTargetSpec{
				Name: "bad_color",
				Color: []metadata.ColorAttachmentSpec{
					{Kind: metadata.AttachmentSceneColor, Format: metadata.FormatRGBA8},
					{Kind: metadata.AttachmentDepth, Format: metadata.FormatDepth24},
				},
			},
			width:  8,
			height: 8,
		},
		{
			name: "sample count mismatch",
			spec: RenderTargetSpec{
				Name:  "bad_samples",
				Color: []metadata.ColorAttachmentSpec{{Kind: metadata.AttachmentSceneColor, Format: metadata.FormatRGB8, Samples: 4}},
				Depth: &metadata.DepthAttachmentSpec{Kind: metadata.AttachmentDepthStencil, Renderbuffer: true},
			},
			width:  8,
			height: 8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.targets.Create(tt.spec, tt.width, tt.height)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfiguration)
			var cfgErr *core.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.spec.Name, cfgErr.Target)
			assert.Equal(t, before, r.backend.MemoryUsed())
			assert.NotContains(t, r.targets.Lookup, tt.spec.Name)
		})
	}
}

func TestCreateReportsExhaustionWithoutLeaking(t *testing.T) {
	r := newRig(t, 8, 8, false, software.WithMemoryLimit(64*1024))
	before := r.backend.MemoryUsed()

	_, err := r.targets.Create(hdrSpec(), 800, 600)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrResourceExhaustion)
	assert.Equal(t, before, r.backend.MemoryUsed())
	assert.Empty(t, r.targets.Lookup)
}

func TestDestroyIsGuarded(t *testing.T) {
	r := newRig(t, 8, 8, false)
	before := r.backend.MemoryUsed()

	target, err := r.targets.Create(hdrSpec(), 16, 16)
	require.NoError(t, err)
	require.NoError(t, r.targets.Destroy(target))
	assert.True(t, target.Destroyed())
	assert.Equal(t, before, r.backend.MemoryUsed())

	assert.ErrorIs(t, r.targets.Destroy(target), core.ErrTargetDestroyed)
	assert.ErrorIs(t, r.targets.Bind(target), core.ErrTargetDestroyed)

	_, err = r.targets.Get("hdr_test")
	assert.ErrorIs(t, err, core.ErrTargetNotFound)
}

func TestBindSetsViewport(t *testing.T) {
	r := newRig(t, 8, 8, false)
	target, err := r.targets.Create(hdrSpec(), 16, 4)
	require.NoError(t, err)

	r.backend.Trace().Reset()
	require.NoError(t, r.targets.Bind(target))
	cmds := r.backend.Trace().Commands
	require.Len(t, cmds, 2)
	assert.Equal(t, software.OpBindFramebuffer, cmds[0].Op)
	assert.Equal(t, target.Framebuffer, cmds[0].Framebuffer)
	assert.Equal(t, software.OpViewport, cmds[1].Op)
}

func TestResizeRecreatesTargets(t *testing.T) {
	r := newRig(t, 8, 8, false)
	old, err := r.targets.Create(hdrSpec(), 16, 16)
	require.NoError(t, err)

	require.NoError(t, r.targets.Resize(32, 8))
	assert.True(t, old.Destroyed())

	target, err := r.targets.Get("hdr_test")
	require.NoError(t, err)
	assert.Equal(t, uint32(32), target.Width)
	assert.Equal(t, uint32(8), target.Height)
	assert.True(t, target.Complete)
	assert.NotEqual(t, old.ID, target.ID)
}

func TestFailedResizeKeepsTargetSpec(t *testing.T) {
	r := newRig(t, 8, 8, false, software.WithMemoryLimit(64*1024))
	_, err := r.targets.Create(hdrSpec(), 16, 16)
	require.NoError(t, err)

	err = r.targets.Resize(800, 600)
	assert.ErrorIs(t, err, core.ErrResourceExhaustion)
	_, err = r.targets.Get("hdr_test")
	assert.ErrorIs(t, err, core.ErrTargetNotFound)

	require.NoError(t, r.targets.Resize(16, 8))
	target, err := r.targets.Get("hdr_test")
	require.NoError(t, err)
	assert.Equal(t, uint32(16), target.Width)
	assert.Equal(t, uint32(8), target.Height)
	assert.True(t, target.Complete)
}

func TestShutdownReleasesEverything(t *testing.T) {
	r := newRig(t, 8, 8, false)
	before := r.backend.MemoryUsed()
	_, err := r.targets.Create(hdrSpec(), 16, 16)
	require.NoError(t, err)
	_, err = r.targets.Create(PingPongSpec(0), 16, 16)
	require.NoError(t, err)

	require.NoError(t, r.targets.Shutdown())
	assert.Empty(t, r.targets.Lookup)
	assert.Equal(t, before, r.backend.MemoryUsed())
}
