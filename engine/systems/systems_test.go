package systems

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/software"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rig struct {
	backend    *software.Backend
	assets     *assets.AssetManager
	shaders    *ShaderSystem
	textures   *TextureSystem
	geometries *GeometrySystem
	targets    *RenderTargetSystem
	views      *RenderViewSystem
}

// newRig wires every system on top of the software backend. Render view
// targets are only created when initViews is set.
func newRig(t *testing.T, width, height uint32, initViews bool, opts ...software.Option) *rig {
	t.Helper()
	b := software.New(opts...)
	require.NoError(t, b.Initialize(&metadata.RendererBackendConfig{ApplicationName: "test", Width: width, Height: height}))

	am, err := assets.NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(t.TempDir()))

	ss, err := NewShaderSystem(&ShaderSystemConfig{MaxShaderCount: 16}, nil, b)
	require.NoError(t, err)
	require.NoError(t, ss.Initialize())
	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 64}, am, b)
	require.NoError(t, err)
	require.NoError(t, ts.Initialize())
	gs, err := NewGeometrySystem(&GeometrySystemConfig{MaxGeometryCount: 64}, b)
	require.NoError(t, err)
	rts, err := NewRenderTargetSystem(&RenderTargetSystemConfig{MaxTargetCount: 16}, b)
	require.NoError(t, err)
	rvs, err := NewRenderViewSystem(&RenderViewSystemConfig{
		Width:       width,
		Height:      height,
		BlurAmount:  4,
		MSAASamples: 4,
	}, b, rts, ss, ts, gs)
	require.NoError(t, err)
	if initViews {
		require.NoError(t, rvs.Initialize())
	}
	return &rig{
		backend:    b,
		assets:     am,
		shaders:    ss,
		textures:   ts,
		geometries: gs,
		targets:    rts,
		views:      rvs,
	}
}

func (r *rig) solidTexture(t *testing.T, width, height uint32, c [4]uint8) metadata.TextureHandle {
	t.Helper()
	pixels := make([]uint8, 0, width*height*4)
	for i := uint32(0); i < width*height; i++ {
		pixels = append(pixels, c[:]...)
	}
	h, err := r.backend.TextureCreate(&metadata.TextureConfig{
		Name:   "solid",
		Width:  width,
		Height: height,
		Format: metadata.FormatRGBA8,
		Filter: metadata.FilterNearest,
		Wrap:   metadata.WrapClampToEdge,
	}, pixels)
	require.NoError(t, err)
	return h
}

func (r *rig) read(t *testing.T, fb metadata.FramebufferHandle, index int, width, height uint32) []float32 {
	t.Helper()
	data, err := r.backend.FramebufferRead(fb, index, width, height)
	require.NoError(t, err)
	require.Len(t, data, int(width*height*4))
	return data
}

func TestShaderSystemCreatesBuiltins(t *testing.T) {
	r := newRig(t, 4, 4, false)
	for _, name := range metadata.BuiltinShaders {
		s, err := r.shaders.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name)
	}

	_, err := r.shaders.Use("Shader.Unknown")
	assert.ErrorIs(t, err, core.ErrShaderNotFound)

	_, err = r.shaders.Create(&metadata.ShaderConfig{Name: metadata.BUILTIN_SHADER_NAME_BLUR})
	assert.Error(t, err)
}

func TestShaderSystemBindingGapIsNotAnError(t *testing.T) {
	r := newRig(t, 4, 4, false)
	s, err := r.shaders.Use(metadata.BUILTIN_SHADER_NAME_BLUR)
	require.NoError(t, err)

	assert.NoError(t, r.shaders.SetUniform(s, "doesNotExist", float32(1)))
	assert.NoError(t, r.shaders.SetUniform(s, "horizontal", mgl32.Vec3{}))
	assert.NoError(t, r.shaders.SetUniform(s, "horizontal", true))
}

func TestBindSamplerUsesBindingTable(t *testing.T) {
	r := newRig(t, 4, 4, false)
	s, err := r.shaders.Use(metadata.BUILTIN_SHADER_NAME_BLOOM)
	require.NoError(t, err)
	tex := r.solidTexture(t, 2, 2, [4]uint8{255, 0, 0, 255})

	r.backend.Trace().Reset()
	require.NoError(t, r.shaders.BindSampler(s, metadata.RoleBloomBlur, tex))

	binds := r.backend.Trace().Filter(software.OpBindTexture)
	require.Len(t, binds, 1)
	assert.Equal(t, uint32(1), binds[0].Unit)
	assert.Equal(t, tex, binds[0].Texture)

	uniforms := r.backend.Trace().Filter(software.OpSetUniform)
	require.Len(t, uniforms, 1)
	assert.Equal(t, "bloomBlur", uniforms[0].Uniform)
	assert.Equal(t, int32(1), uniforms[0].Value)
}

func TestTextureSystemFallsBackOnMissingAsset(t *testing.T) {
	r := newRig(t, 4, 4, false)

	h, err := r.textures.Acquire("textures/missing.png")
	require.NoError(t, err)
	assert.Equal(t, r.textures.DefaultTexture, h)
	assert.Equal(t, r.textures.DefaultSpecular, r.textures.Default(metadata.RoleSpecular))
	assert.Equal(t, r.textures.DefaultCubemap, r.textures.Default(metadata.RoleSkybox))
}

func TestTextureSystemAcquireCachesByPath(t *testing.T) {
	r := newRig(t, 4, 4, false)
	dir := t.TempDir()
	require.NoError(t, r.assets.Initialize(dir))

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	f, err := os.Create(filepath.Join(dir, "floor.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	h, err := r.textures.Acquire("floor.png")
	require.NoError(t, err)
	assert.NotEqual(t, r.textures.DefaultTexture, h)

	again, err := r.textures.Acquire("floor.png")
	require.NoError(t, err)
	assert.Equal(t, h, again)

	r.textures.Release("floor.png")
	_, ok := r.textures.Lookup["floor.png"]
	assert.False(t, ok)
}

func TestGeometrySystemBuiltins(t *testing.T) {
	r := newRig(t, 4, 4, false)

	cube, err := r.geometries.Cube()
	require.NoError(t, err)
	assert.Equal(t, uint32(36), cube.VertexCount)

	pyramid, err := r.geometries.Pyramid()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), pyramid.VertexCount)
	assert.Equal(t, uint32(18), pyramid.IndexCount)

	quad, err := r.geometries.ScreenQuad()
	require.NoError(t, err)
	assert.Equal(t, uint32(6), quad.IndexCount)

	again, err := r.geometries.ScreenQuad()
	require.NoError(t, err)
	assert.Same(t, quad, again)

	_, err = r.geometries.CreateStatic(GeometryNameCube, metadata.LayoutPositionNormalUV, CubeMesh(), nil)
	assert.Error(t, err)
}

func TestComputeTangents(t *testing.T) {
	vertices := []float32{
		-1, 0, 1, 0, 1, 0, 0, 0,
		1, 0, 1, 0, 1, 0, 1, 0,
		1, 0, -1, 0, 1, 0, 1, 1,
	}
	out := ComputeTangents(vertices, nil)
	require.Len(t, out, 3*14)
	for i := 0; i < 3; i++ {
		tangent := mgl32.Vec3{out[i*14+8], out[i*14+9], out[i*14+10]}
		bitangent := mgl32.Vec3{out[i*14+11], out[i*14+12], out[i*14+13]}
		assert.InDelta(t, 1, tangent.X(), 1e-5)
		assert.InDelta(t, -1, bitangent.Z(), 1e-5)
	}

	plane, indices := PlaneMesh()
	assert.Len(t, plane, 4*14)
	assert.Len(t, indices, 6)
}

func TestCameraSystemReferenceCounting(t *testing.T) {
	cs, err := NewCameraSystem(&CameraSystemConfig{MaxCameraCount: 2})
	require.NoError(t, err)

	c1, err := cs.Acquire("world")
	require.NoError(t, err)
	c2, err := cs.Acquire("world")
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	_, err = cs.Acquire("ui")
	require.NoError(t, err)
	_, err = cs.Acquire("extra")
	assert.ErrorIs(t, err, core.ErrResourceExhaustion)

	cs.Release("world")
	assert.Contains(t, cs.Lookup, "world")
	cs.Release("world")
	assert.NotContains(t, cs.Lookup, "world")

	def, err := cs.Acquire("default")
	require.NoError(t, err)
	assert.Same(t, cs.GetDefault(), def)
}
