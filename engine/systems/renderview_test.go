package systems

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/software"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPacket(t *testing.T, r *rig, config metadata.FrameConfig) *metadata.RenderPacket {
	t.Helper()
	cube, err := r.geometries.Cube()
	require.NoError(t, err)
	sky, err := r.geometries.Skybox()
	require.NoError(t, err)

	return &metadata.RenderPacket{
		DeltaTime:  1.0 / 60.0,
		Projection: mgl32.Perspective(mgl32.DegToRad(45), 4.0/3.0, 0.1, 100),
		View:       mgl32.LookAtV(mgl32.Vec3{0, 2, 6}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		ViewPos:    mgl32.Vec3{0, 2, 6},
		Objects: []*metadata.RenderObject{
			{Name: "floor", Geometry: cube, Model: mgl32.Scale3D(5, 0.1, 5)},
			{Name: "lamp", Geometry: cube, Model: mgl32.Translate3D(0, 3, 0), Emissive: true, Color: mgl32.Vec3{4, 4, 4}},
		},
		Lights: metadata.Lights{
			Directional: metadata.DirectionalLight{
				Direction: mgl32.Vec3{-0.2, -1, -0.3},
				Ambient:   mgl32.Vec3{0.05, 0.05, 0.05},
				Diffuse:   mgl32.Vec3{0.4, 0.4, 0.4},
				Specular:  mgl32.Vec3{0.5, 0.5, 0.5},
			},
			Points: []metadata.PointLight{{
				Position:  mgl32.Vec3{0, 3, 0},
				Diffuse:   mgl32.Vec3{4, 4, 4},
				Constant:  1,
				Linear:    0.09,
				Quadratic: 0.032,
			}},
		},
		Skybox: &metadata.Skybox{Geometry: sky},
		Config: config,
	}
}

func TestGBufferFormats(t *testing.T) {
	r := newRig(t, 800, 600, true)

	gbuffer, err := r.targets.Get(TargetGBuffer)
	require.NoError(t, err)
	assert.True(t, gbuffer.Complete)
	assert.Equal(t, uint32(800), gbuffer.Width)
	assert.Equal(t, uint32(600), gbuffer.Height)

	want := []struct {
		kind   metadata.AttachmentKind
		format metadata.TextureFormat
	}{
		{metadata.AttachmentPosition, metadata.FormatRGBA16F},
		{metadata.AttachmentNormal, metadata.FormatRGBA16F},
		{metadata.AttachmentAlbedoSpec, metadata.FormatRGBA8},
	}
	require.Len(t, gbuffer.ColorAttachments, len(want))
	for i, w := range want {
		assert.Equal(t, w.kind, gbuffer.ColorAttachments[i].Kind)
		assert.Equal(t, w.format, gbuffer.ColorAttachments[i].Format)
	}
	require.NotNil(t, gbuffer.DepthAttachment)
	assert.Equal(t, metadata.FormatDepth24, gbuffer.DepthAttachment.Format)
	assert.NotZero(t, gbuffer.DepthAttachment.Renderbuffer)

	for _, name := range []string{TargetHDR, TargetMSAA, TargetResolved, TargetPingPong0, TargetPingPong1} {
		target, err := r.targets.Get(name)
		require.NoError(t, err, name)
		assert.True(t, target.Complete, name)
	}
	msaa, _ := r.targets.Get(TargetMSAA)
	assert.Equal(t, uint32(4), msaa.ColorAttachments[0].Samples)
}

func TestDeferredFrame(t *testing.T) {
	r := newRig(t, 16, 12, true)
	packet := testPacket(t, r, metadata.FrameConfig{Deferred: true, Bloom: true, Exposure: 1})

	r.backend.Trace().Reset()
	require.NoError(t, r.views.DrawFrame(packet))
	trace := r.backend.Trace()

	var shaders []string
	for _, d := range trace.Draws() {
		if len(shaders) == 0 || shaders[len(shaders)-1] != d.Shader {
			shaders = append(shaders, d.Shader)
		}
	}
	assert.Equal(t, []string{
		metadata.BUILTIN_SHADER_NAME_GBUFFER,
		metadata.BUILTIN_SHADER_NAME_DEFERRED,
		metadata.BUILTIN_SHADER_NAME_SKYBOX,
		metadata.BUILTIN_SHADER_NAME_LIGHTBOX,
		metadata.BUILTIN_SHADER_NAME_BLUR,
		metadata.BUILTIN_SHADER_NAME_BLOOM,
	}, shaders)
	assert.Len(t, trace.DrawsWith(metadata.BUILTIN_SHADER_NAME_BLUR), r.views.Config.BlurAmount)

	gbuffer, err := r.targets.Get(TargetGBuffer)
	require.NoError(t, err)
	lighting := trace.DrawsWith(metadata.BUILTIN_SHADER_NAME_DEFERRED)
	require.Len(t, lighting, 1)
	for i, a := range gbuffer.ColorAttachments {
		assert.Equal(t, a.Texture, lighting[0].Units[uint32(i)])
	}
	assert.Equal(t, int32(1), lighting[0].Uniforms["pointLightCount"])
	assert.Equal(t, packet.ViewPos, lighting[0].Uniforms["viewPos"])
	assert.True(t, strings.HasPrefix(lighting[0].Target, TargetHDR))

	blits := trace.Filter(software.OpBlit)
	require.Len(t, blits, 1)
	assert.Equal(t, gbuffer.Framebuffer, blits[0].Source)

	skybox := trace.DrawsWith(metadata.BUILTIN_SHADER_NAME_SKYBOX)
	require.Len(t, skybox, 1)
	assert.Equal(t, metadata.DepthSkybox, skybox[0].Depth)
	view := skybox[0].Uniforms["view"].(mgl32.Mat4)
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, view.Col(3))

	bloom := trace.DrawsWith(metadata.BUILTIN_SHADER_NAME_BLOOM)
	require.Len(t, bloom, 1)
	assert.Equal(t, metadata.DefaultTargetName, bloom[0].Target)
	assert.Equal(t, r.views.LastBlur().Texture, bloom[0].Units[1])

	assert.Len(t, trace.Filter(software.OpEndFrame), 1)
}

func TestForwardHDRWithoutBloomSkipsBlur(t *testing.T) {
	r := newRig(t, 8, 8, true)
	packet := testPacket(t, r, metadata.FrameConfig{HDR: true, Exposure: 1})

	r.backend.Trace().Reset()
	require.NoError(t, r.views.DrawFrame(packet))
	trace := r.backend.Trace()

	assert.Empty(t, trace.DrawsWith(metadata.BUILTIN_SHADER_NAME_BLUR))
	assert.Nil(t, r.views.LastBlur())
	bloom := trace.DrawsWith(metadata.BUILTIN_SHADER_NAME_BLOOM)
	require.Len(t, bloom, 1)
	assert.NotContains(t, bloom[0].Units, uint32(1))
	assert.Equal(t, false, bloom[0].Uniforms["bloom"])

	phong := trace.DrawsWith(metadata.BUILTIN_SHADER_NAME_PHONG)
	require.Len(t, phong, 1)
	for _, name := range []string{"projection", "view", "model", "viewPos", "material.shininess", "dirLight.direction", "pointLightCount", "flashlight"} {
		assert.Contains(t, phong[0].Uniforms, name)
	}
	assert.True(t, strings.HasPrefix(phong[0].Target, TargetHDR))
}

func TestMSAAResolveOfSolidColorIsExact(t *testing.T) {
	const width, height = 16, 16
	r := newRig(t, width, height, true)
	quad, err := r.geometries.ScreenQuad()
	require.NoError(t, err)
	color := mgl32.Vec3{0.2, 0.4, 0.6}
	packet := &metadata.RenderPacket{
		Projection: mgl32.Ident4(),
		View:       mgl32.Ident4(),
		Objects: []*metadata.RenderObject{
			{Name: "panel", Geometry: quad, Model: mgl32.Ident4(), Emissive: true, Color: color},
		},
		Config: metadata.FrameConfig{MSAA: true},
	}

	require.NoError(t, r.views.DrawFrame(packet))

	want := make([]float32, 3)
	for i := range want {
		want[i] = float32(math.Round(float64(color[i])*255)) / 255
	}
	resolved, err := r.targets.Get(TargetResolved)
	require.NoError(t, err)
	for _, fb := range []metadata.FramebufferHandle{resolved.Framebuffer, metadata.DefaultFramebuffer} {
		pixels := r.read(t, fb, 0, width, height)
		for i := 0; i < len(pixels); i += 4 {
			require.Equal(t, want, pixels[i:i+3], "pixel %d", i/4)
		}
	}
	assert.Len(t, r.backend.Trace().Filter(software.OpBlit), 1)
}

func TestFrameRejectsOutOfOrderPasses(t *testing.T) {
	r := newRig(t, 8, 8, true)
	packet := testPacket(t, r, metadata.FrameConfig{HDR: true, Bloom: true, Exposure: 1})

	frame, err := r.views.BeginFrame(packet)
	require.NoError(t, err)
	p := frame.Pipeline

	err = frame.Execute(p.Passes[p.Index("tonemap")])
	assert.ErrorIs(t, err, core.ErrPassOrder)

	for _, pass := range p.Passes {
		require.NoError(t, frame.Execute(pass))
	}
	assert.Equal(t, metadata.StagePostProcess, frame.Stage())
	assert.ErrorIs(t, frame.Execute(p.Passes[0]), core.ErrPassOrder)

	require.NoError(t, frame.Present())
	assert.Equal(t, metadata.StagePresented, frame.Stage())
	assert.ErrorIs(t, frame.Execute(p.Passes[len(p.Passes)-1]), core.ErrFramePresented)
	assert.ErrorIs(t, frame.Present(), core.ErrFramePresented)
}

func TestDestroyedTargetAbortsFrame(t *testing.T) {
	r := newRig(t, 8, 8, true)
	hdr, err := r.targets.Get(TargetHDR)
	require.NoError(t, err)
	require.NoError(t, r.targets.Destroy(hdr))

	r.backend.Trace().Reset()
	err = r.views.DrawFrame(testPacket(t, r, metadata.FrameConfig{HDR: true, Exposure: 1}))
	require.Error(t, err)
	assert.True(t, fatal(err))
	assert.Empty(t, r.backend.Trace().Filter(software.OpEndFrame))
}

func TestBindingGapsDoNotStopTheFrame(t *testing.T) {
	r := newRig(t, 8, 8, true)
	packet := testPacket(t, r, metadata.FrameConfig{})
	// the light box program has no material or light parameters
	packet.Objects[0].Shader = metadata.BUILTIN_SHADER_NAME_LIGHTBOX
	packet.Objects = append(packet.Objects, &metadata.RenderObject{Name: "broken", Geometry: packet.Objects[0].Geometry, Shader: "Shader.Missing"})

	r.backend.Trace().Reset()
	require.NoError(t, r.views.DrawFrame(packet))
	assert.Len(t, r.backend.Trace().DrawsWith(metadata.BUILTIN_SHADER_NAME_LIGHTBOX), 2)
	assert.Len(t, r.backend.Trace().Filter(software.OpEndFrame), 1)
}

func TestMissingProgramSkipsPassAndPresents(t *testing.T) {
	for _, tt := range []struct {
		name   string
		shader string
		config metadata.FrameConfig
	}{
		{name: "blur", shader: metadata.BUILTIN_SHADER_NAME_BLUR, config: metadata.FrameConfig{HDR: true, Bloom: true, Exposure: 1}},
		{name: "deferred_lighting", shader: metadata.BUILTIN_SHADER_NAME_DEFERRED, config: metadata.FrameConfig{Deferred: true, Exposure: 1}},
		{name: "screen", shader: metadata.BUILTIN_SHADER_NAME_SCREEN, config: metadata.FrameConfig{MSAA: true}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, 8, 8, true)
			delete(r.shaders.Lookup, tt.shader)

			r.backend.Trace().Reset()
			err := r.views.DrawFrame(testPacket(t, r, tt.config))
			require.NoError(t, err)
			trace := r.backend.Trace()
			assert.Empty(t, trace.DrawsWith(tt.shader))
			assert.Len(t, trace.Filter(software.OpEndFrame), 1)
		})
	}
}

func TestFailedBlurFallsBackToBrightBuffer(t *testing.T) {
	r := newRig(t, 8, 8, true)
	delete(r.shaders.Lookup, metadata.BUILTIN_SHADER_NAME_BLUR)
	hdr, err := r.targets.Get(TargetHDR)
	require.NoError(t, err)
	bright, ok := hdr.Attachment(metadata.AttachmentBrightness)
	require.True(t, ok)

	r.backend.Trace().Reset()
	require.NoError(t, r.views.DrawFrame(testPacket(t, r, metadata.FrameConfig{HDR: true, Bloom: true, Exposure: 1})))

	assert.Nil(t, r.views.LastBlur())
	bloom := r.backend.Trace().DrawsWith(metadata.BUILTIN_SHADER_NAME_BLOOM)
	require.Len(t, bloom, 1)
	assert.Equal(t, true, bloom[0].Uniforms["bloom"])
	assert.Equal(t, bright.Texture, bloom[0].Units[1])
}

func TestTransparentObjectsDrawBackToFront(t *testing.T) {
	viewPos := mgl32.Vec3{0, 0, 10}
	near := &metadata.RenderObject{Name: "near", Transparent: true, Model: mgl32.Translate3D(0, 0, 8)}
	far := &metadata.RenderObject{Name: "far", Transparent: true, Model: mgl32.Translate3D(0, 0, -8)}
	lamp := &metadata.RenderObject{Name: "lamp", Emissive: true, Model: mgl32.Ident4()}
	opaque := &metadata.RenderObject{Name: "floor", Model: mgl32.Ident4()}

	objects := []*metadata.RenderObject{near, opaque, far, nil, lamp}
	assert.Equal(t, []*metadata.RenderObject{lamp, far, near}, overlayObjects(objects, viewPos))
	assert.Equal(t, []*metadata.RenderObject{opaque}, opaqueObjects(objects))
}

func TestRenderViewResize(t *testing.T) {
	r := newRig(t, 8, 8, true)
	require.NoError(t, r.views.Resize(20, 10))
	for _, name := range []string{TargetHDR, TargetGBuffer, TargetPingPong0} {
		target, err := r.targets.Get(name)
		require.NoError(t, err)
		assert.Equal(t, uint32(20), target.Width, name)
		assert.Equal(t, uint32(10), target.Height, name)
	}

	require.NoError(t, r.views.Resize(0, 0))
	hdr, err := r.targets.Get(TargetHDR)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), hdr.Width)
}
