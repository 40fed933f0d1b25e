package software

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	b := New(opts...)
	require.NoError(t, b.Initialize(&metadata.RendererBackendConfig{ApplicationName: "test", Width: 8, Height: 8}))
	return b
}

func colorTarget(t *testing.T, b *Backend, format metadata.TextureFormat, w, h, samples uint32) (metadata.FramebufferHandle, metadata.TextureHandle) {
	t.Helper()
	tex, err := b.TextureCreate(&metadata.TextureConfig{Name: "color", Width: w, Height: h, Format: format, Samples: samples}, nil)
	require.NoError(t, err)
	fb, err := b.FramebufferCreate("target")
	require.NoError(t, err)
	b.FramebufferAttachTexture(fb, metadata.SlotColor0, tex)
	return fb, tex
}

func solidShader(t *testing.T, b *Backend, color mgl32.Vec3) *metadata.Shader {
	t.Helper()
	shader := &metadata.Shader{}
	require.NoError(t, b.ShaderCreate(shader, &metadata.ShaderConfig{Name: metadata.BUILTIN_SHADER_NAME_LIGHTBOX}))
	require.NoError(t, b.ShaderUse(shader))
	require.NoError(t, b.SetUniform(shader, "lightColor", color))
	return shader
}

func quad(t *testing.T, b *Backend) *metadata.Geometry {
	t.Helper()
	g := &metadata.Geometry{Name: "quad"}
	require.NoError(t, b.GeometryCreate(g, metadata.LayoutScreenQuad, make([]float32, 16), []uint32{0, 1, 2, 0, 2, 3}))
	return g
}

func TestFramebufferStatus(t *testing.T) {
	b := newBackend(t)

	empty, err := b.FramebufferCreate("empty")
	require.NoError(t, err)
	assert.Equal(t, metadata.FramebufferMissingAttachment, b.FramebufferStatus(empty))

	fb, _ := colorTarget(t, b, metadata.FormatRGBA16F, 4, 4, 1)
	assert.Equal(t, metadata.FramebufferComplete, b.FramebufferStatus(fb))

	depth, err := b.RenderbufferCreate(metadata.FormatDepth24, 4, 4, 4)
	require.NoError(t, err)
	b.FramebufferAttachRenderbuffer(fb, metadata.SlotDepth, depth)
	assert.Equal(t, metadata.FramebufferIncompleteMultisample, b.FramebufferStatus(fb))

	wrong, _ := colorTarget(t, b, metadata.FormatDepth24, 4, 4, 1)
	assert.Equal(t, metadata.FramebufferIncompleteAttachment, b.FramebufferStatus(wrong))

	assert.Equal(t, metadata.FramebufferComplete, b.FramebufferStatus(metadata.DefaultFramebuffer))
}

func TestQuantizationFollowsFormat(t *testing.T) {
	b := newBackend(t)
	g := quad(t, b)
	hdrColor := mgl32.Vec3{4.5, 0.25, 1.5}

	for _, tc := range []struct {
		format metadata.TextureFormat
		want   mgl32.Vec3
	}{
		{metadata.FormatRGBA16F, hdrColor},
		{metadata.FormatRGBA8, mgl32.Vec3{1, float32(64) / 255, 1}},
	} {
		fb, _ := colorTarget(t, b, tc.format, 2, 2, 1)
		b.FramebufferBind(fb)
		b.Viewport(0, 0, 2, 2)
		solidShader(t, b, hdrColor)
		require.NoError(t, b.GeometryDraw(g))

		pixels, err := b.FramebufferRead(fb, 0, 2, 2)
		require.NoError(t, err)
		assert.InDelta(t, tc.want.X(), pixels[0], 1e-6, tc.format.String())
		assert.InDelta(t, tc.want.Y(), pixels[1], 1e-6, tc.format.String())
		assert.InDelta(t, tc.want.Z(), pixels[2], 1e-6, tc.format.String())
	}
}

func TestBlitResolvesSamples(t *testing.T) {
	b := newBackend(t)
	g := quad(t, b)
	msaa, _ := colorTarget(t, b, metadata.FormatRGB8, 4, 4, 4)
	resolved, _ := colorTarget(t, b, metadata.FormatRGB8, 4, 4, 1)

	b.FramebufferBind(msaa)
	b.Viewport(0, 0, 4, 4)
	solidShader(t, b, mgl32.Vec3{0.2, 0.4, 0.6})
	require.NoError(t, b.GeometryDraw(g))

	_, err := b.FramebufferRead(msaa, 0, 4, 4)
	assert.Error(t, err)

	require.NoError(t, b.FramebufferBlit(msaa, resolved, 4, 4, 4, 4, metadata.BlitColor))
	pixels, err := b.FramebufferRead(resolved, 0, 4, 4)
	require.NoError(t, err)
	for i := 0; i < len(pixels); i += 4 {
		assert.InDelta(t, 0.2, pixels[i], 1.0/255)
		assert.InDelta(t, 0.4, pixels[i+1], 1.0/255)
		assert.InDelta(t, 0.6, pixels[i+2], 1.0/255)
	}

	assert.Error(t, b.FramebufferBlit(msaa, resolved, 4, 4, 2, 2, metadata.BlitColor))
	assert.Error(t, b.FramebufferBlit(resolved, msaa, 4, 4, 4, 4, metadata.BlitColor))
}

func TestMemoryLimit(t *testing.T) {
	b := newBackend(t, WithMemoryLimit(1024))
	_, err := b.TextureCreate(&metadata.TextureConfig{Name: "small", Width: 8, Height: 8, Format: metadata.FormatRGBA8}, nil)
	require.NoError(t, err)

	_, err = b.TextureCreate(&metadata.TextureConfig{Name: "big", Width: 64, Height: 64, Format: metadata.FormatRGBA16F}, nil)
	assert.True(t, errors.Is(err, core.ErrResourceExhaustion))

	_, err = b.RenderbufferCreate(metadata.FormatDepth24, 64, 64, 1)
	assert.True(t, errors.Is(err, core.ErrResourceExhaustion))
}

func TestUniformErrors(t *testing.T) {
	b := newBackend(t)
	shader := solidShader(t, b, mgl32.Vec3{1, 1, 1})

	err := b.SetUniform(shader, "doesNotExist", float32(1))
	assert.True(t, errors.Is(err, core.ErrUniformNotFound))

	err = b.SetUniform(shader, "lightColor", float32(1))
	assert.True(t, errors.Is(err, core.ErrUniformType))

	err = b.ShaderCreate(&metadata.Shader{}, &metadata.ShaderConfig{Name: "Shader.Unknown"})
	assert.True(t, errors.Is(err, core.ErrShaderNotFound))
}

func TestDrawCoversViewportWhateverTheVertices(t *testing.T) {
	b := newBackend(t)
	g := quad(t, b)
	b.FramebufferBind(metadata.DefaultFramebuffer)
	b.Clear(mgl32.Vec4{0, 0, 0, 1}, metadata.ClearColor)
	b.Viewport(2, 2, 4, 4)
	solidShader(t, b, mgl32.Vec3{1, 0, 0})
	require.NoError(t, b.GeometryDraw(g))

	pixels, err := b.FramebufferRead(metadata.DefaultFramebuffer, 0, 8, 8)
	require.NoError(t, err)
	red := func(x, y int) float32 { return pixels[(y*8+x)*4] }
	assert.Equal(t, float32(0), red(1, 1))
	assert.Equal(t, float32(0), red(6, 6))
	assert.Equal(t, float32(1), red(2, 2))
	assert.Equal(t, float32(1), red(5, 5))
}

func TestDrawRequiresProgram(t *testing.T) {
	b := newBackend(t)
	g := quad(t, b)
	assert.Error(t, b.GeometryDraw(g))
}

func TestUnboundSamplerReadsBlack(t *testing.T) {
	b := newBackend(t)
	g := quad(t, b)
	shader := &metadata.Shader{}
	require.NoError(t, b.ShaderCreate(shader, &metadata.ShaderConfig{Name: metadata.BUILTIN_SHADER_NAME_SCREEN}))
	require.NoError(t, b.ShaderUse(shader))
	require.NoError(t, b.SetUniform(shader, "screenTexture", int32(3)))

	b.FramebufferBind(metadata.DefaultFramebuffer)
	b.Clear(mgl32.Vec4{1, 1, 1, 1}, metadata.ClearColor)
	require.NoError(t, b.GeometryDraw(g))

	pixels, err := b.FramebufferRead(metadata.DefaultFramebuffer, 0, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, float32(0), pixels[0])
}

func TestTonemap(t *testing.T) {
	out := Tonemap(mgl32.Vec3{0, 1, 100}, 1)
	assert.Equal(t, float32(0), out.X())
	assert.InDelta(t, 0.812, out.Y(), 1e-3)
	assert.InDelta(t, 1.0, out.Z(), 1e-6)
}
