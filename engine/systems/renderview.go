package systems

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

/** @brief The configuration for the render view system. */
type RenderViewSystemConfig struct {
	Width  uint32
	Height uint32
	/** @brief Number of blur draws per frame when bloom is on. */
	BlurAmount int
	/** @brief Samples per pixel of the msaa target. */
	MSAASamples uint32
}

// RenderViewSystem owns the offscreen targets of every pipeline and runs
// the passes of a frame in order.
type RenderViewSystem struct {
	Config *RenderViewSystemConfig
	width  uint32
	height uint32
	// last blur of the running frame, kept for inspection
	lastBlur *BlurResult
	// sub systems
	backend    renderer.RendererBackend
	targets    *RenderTargetSystem
	shaders    *ShaderSystem
	textures   *TextureSystem
	geometries *GeometrySystem
	quad       *FullScreenQuad
	blur       *BlurStage
	tonemap    *TonemapStage
}

func NewRenderViewSystem(config *RenderViewSystemConfig, backend renderer.RendererBackend, rts *RenderTargetSystem, shaders *ShaderSystem, textures *TextureSystem, geometries *GeometrySystem) (*RenderViewSystem, error) {
	if config.BlurAmount < 0 {
		err := fmt.Errorf("func NewRenderViewSystem - config.BlurAmount must be >= 0")
		core.LogError(err.Error())
		return nil, err
	}
	if config.MSAASamples == 0 {
		config.MSAASamples = 4
	}
	quad := NewFullScreenQuad(geometries, backend)
	return &RenderViewSystem{
		Config:     config,
		width:      config.Width,
		height:     config.Height,
		backend:    backend,
		targets:    rts,
		shaders:    shaders,
		textures:   textures,
		geometries: geometries,
		quad:       quad,
		blur:       NewBlurStage(rts, shaders, quad, backend),
		tonemap:    NewTonemapStage(shaders, quad, backend),
	}, nil
}

// TargetSpecs lists the offscreen targets used by the pipelines.
func (rvs *RenderViewSystem) TargetSpecs() []RenderTargetSpec {
	return []RenderTargetSpec{
		{
			Name: TargetHDR,
			Color: []metadata.ColorAttachmentSpec{
				{Kind: metadata.AttachmentSceneColor, Format: metadata.FormatRGBA16F, Filter: metadata.FilterLinear, Wrap: metadata.WrapClampToEdge},
				{Kind: metadata.AttachmentBrightness, Format: metadata.FormatRGBA16F, Filter: metadata.FilterLinear, Wrap: metadata.WrapClampToEdge},
			},
			Depth: &metadata.DepthAttachmentSpec{Kind: metadata.AttachmentDepth, Renderbuffer: true},
		},
		{
			Name: TargetGBuffer,
			Color: []metadata.ColorAttachmentSpec{
				{Kind: metadata.AttachmentPosition, Format: metadata.FormatRGBA16F, Filter: metadata.FilterNearest, Wrap: metadata.WrapClampToEdge},
				{Kind: metadata.AttachmentNormal, Format: metadata.FormatRGBA16F, Filter: metadata.FilterNearest, Wrap: metadata.WrapClampToEdge},
				{Kind: metadata.AttachmentAlbedoSpec, Format: metadata.FormatRGBA8, Filter: metadata.FilterNearest, Wrap: metadata.WrapClampToEdge},
			},
			Depth: &metadata.DepthAttachmentSpec{Kind: metadata.AttachmentDepth, Renderbuffer: true},
		},
		{
			Name: TargetMSAA,
			Color: []metadata.ColorAttachmentSpec{
				{Kind: metadata.AttachmentSceneColor, Format: metadata.FormatRGB8, Samples: rvs.Config.MSAASamples},
			},
			Depth: &metadata.DepthAttachmentSpec{Kind: metadata.AttachmentDepthStencil, Samples: rvs.Config.MSAASamples, Renderbuffer: true},
		},
		{
			Name: TargetResolved,
			Color: []metadata.ColorAttachmentSpec{
				{Kind: metadata.AttachmentSceneColor, Format: metadata.FormatRGB8, Filter: metadata.FilterLinear, Wrap: metadata.WrapClampToEdge},
			},
		},
	}
}

// Initialize creates every offscreen target at the window size.
func (rvs *RenderViewSystem) Initialize() error {
	for _, spec := range rvs.TargetSpecs() {
		if _, err := rvs.targets.Create(spec, rvs.width, rvs.height); err != nil {
			core.LogError("failed to create render target %s: %s", spec.Name, err)
			return err
		}
	}
	if err := rvs.blur.Initialize(rvs.width, rvs.height); err != nil {
		core.LogError("failed to create the blur targets: %s", err)
		return err
	}
	rvs.tonemap.Resize(rvs.width, rvs.height)
	return nil
}

func (rvs *RenderViewSystem) Shutdown() error {
	rvs.lastBlur = nil
	return nil
}

// Resize re-creates the offscreen targets. A zero size is ignored, the
// application stops drawing while minimized.
func (rvs *RenderViewSystem) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	rvs.width, rvs.height = width, height
	rvs.tonemap.Resize(width, height)
	return rvs.targets.Resize(width, height)
}

// LastBlur returns the blur of the most recent frame, nil when bloom did not run.
func (rvs *RenderViewSystem) LastBlur() *BlurResult {
	return rvs.lastBlur
}

/** @brief A frame in flight. Passes are executed in stage order and the frame is presented once. */
type Frame struct {
	Pipeline *metadata.Pipeline
	packet   *metadata.RenderPacket
	stage    metadata.FrameStage
	written  map[string]bool
	blurred  metadata.TextureHandle
	rvs      *RenderViewSystem
}

func (f *Frame) Stage() metadata.FrameStage {
	return f.stage
}

// BeginFrame selects and validates the pipeline for packet and starts the backend frame.
func (rvs *RenderViewSystem) BeginFrame(packet *metadata.RenderPacket) (*Frame, error) {
	if packet == nil {
		return nil, fmt.Errorf("render packet is nil")
	}
	pipeline := BuildPipeline(SelectPipeline(packet.Config), packet.Config)
	if err := ValidatePipeline(pipeline); err != nil {
		return nil, err
	}
	if err := rvs.backend.BeginFrame(packet.DeltaTime); err != nil {
		return nil, err
	}
	rvs.lastBlur = nil
	return &Frame{
		Pipeline: pipeline,
		packet:   packet,
		stage:    metadata.StageIdle,
		written:  make(map[string]bool),
		rvs:      rvs,
	}, nil
}

// Execute runs pass. Passes from an earlier stage than the current one, passes
// reading resources nobody wrote and anything after Present are rejected.
func (f *Frame) Execute(pass *metadata.Pass) error {
	if f.stage == metadata.StagePresented {
		return fmt.Errorf("pass %s: %w", pass.Name, core.ErrFramePresented)
	}
	if pass.Stage < f.stage {
		return fmt.Errorf("pass %s runs in stage %s after stage %s: %w", pass.Name, pass.Stage, f.stage, core.ErrPassOrder)
	}
	for _, name := range passReads(pass) {
		if !f.written[name] {
			return fmt.Errorf("pass %s reads %s before it is written: %w", pass.Name, name, core.ErrPassOrder)
		}
	}
	f.stage = pass.Stage
	err := f.rvs.executePass(f, pass)
	if err != nil && fatal(err) {
		return fmt.Errorf("pass %s: %w", pass.Name, err)
	}
	// A skipped pass still leaves its outputs behind, stale or cleared.
	for _, name := range pass.Writes {
		f.written[name] = true
	}
	if err != nil {
		return fmt.Errorf("pass %s: %w", pass.Name, err)
	}
	return nil
}

// Present ends the frame. It can only be called once.
func (f *Frame) Present() error {
	if f.stage == metadata.StagePresented {
		return core.ErrFramePresented
	}
	f.stage = metadata.StagePresented
	return f.rvs.backend.EndFrame(f.packet.DeltaTime)
}

// fatal reports errors that leave the frame unusable.
func fatal(err error) bool {
	for _, target := range []error{
		core.ErrTargetDestroyed,
		core.ErrTargetIncomplete,
		core.ErrTargetNotFound,
		core.ErrPassOrder,
		core.ErrFramePresented,
		core.ErrResourceExhaustion,
		core.ErrConfiguration,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// DrawFrame runs every pass of the selected pipeline and presents the result.
// Failed draws are logged and skipped; errors about targets or ordering abort the frame.
func (rvs *RenderViewSystem) DrawFrame(packet *metadata.RenderPacket) error {
	frame, err := rvs.BeginFrame(packet)
	if err != nil {
		return err
	}
	for _, pass := range frame.Pipeline.Passes {
		if err := frame.Execute(pass); err != nil {
			if fatal(err) {
				core.LogError("frame aborted: %s", err)
				return err
			}
			core.LogError(err.Error())
		}
	}
	return frame.Present()
}

func (rvs *RenderViewSystem) executePass(f *Frame, pass *metadata.Pass) error {
	switch pass.Draw {
	case metadata.DrawBlit:
		return rvs.blit(pass)
	case metadata.DrawBlur:
		source, err := f.texture(pass.Inputs[0].Resource)
		if err != nil {
			return err
		}
		result, err := rvs.blur.Run(source, rvs.Config.BlurAmount)
		if err != nil {
			f.blurred = source
			return err
		}
		rvs.lastBlur = result
		f.blurred = result.Texture
		return nil
	case metadata.DrawTonemap:
		var scene, bright metadata.TextureHandle
		bloom := false
		for _, in := range pass.Inputs {
			tex, err := f.texture(in.Resource)
			if err != nil {
				return err
			}
			switch in.Role {
			case metadata.RoleSceneColor:
				scene = tex
			case metadata.RoleBloomBlur:
				bright, bloom = tex, true
			}
		}
		return rvs.tonemap.Tonemap(scene, bright, bloom, f.packet.Config.Exposure)
	}

	if err := rvs.bindTarget(pass.Target); err != nil {
		return err
	}
	rvs.backend.SetDepthState(pass.Depth)
	rvs.backend.SetBlend(pass.Blend)
	defer rvs.backend.SetBlend(false)
	if pass.Clear != metadata.ClearNone {
		rvs.backend.Clear(metadata.ClearColorDefault, pass.Clear)
	}

	switch pass.Draw {
	case metadata.DrawScene:
		return rvs.drawObjects(f, pass, opaqueObjects(f.packet.Objects))
	case metadata.DrawSceneOverlay:
		return rvs.drawObjects(f, pass, overlayObjects(f.packet.Objects, f.packet.ViewPos))
	case metadata.DrawSkybox:
		return rvs.drawSkybox(f, pass)
	case metadata.DrawFullScreenQuad:
		return rvs.drawQuad(f, pass)
	}
	return fmt.Errorf("unknown draw kind %s", pass.Draw)
}

// texture resolves a frame resource to the texture holding it.
func (f *Frame) texture(resource string) (metadata.TextureHandle, error) {
	if resource == ResourceBlurred {
		return f.blurred, nil
	}
	loc, ok := resourceLocations[resource]
	if !ok {
		return metadata.NoTexture, fmt.Errorf("resource %s is not sampleable", resource)
	}
	target, err := f.rvs.targets.Get(loc.target)
	if err != nil {
		return metadata.NoTexture, err
	}
	if target.Destroyed() {
		return metadata.NoTexture, fmt.Errorf("render target %s: %w", target.Name, core.ErrTargetDestroyed)
	}
	a, ok := target.Attachment(loc.kind)
	if !ok {
		return metadata.NoTexture, fmt.Errorf("render target %s has no %s attachment: %w", target.Name, loc.kind, core.ErrTargetIncomplete)
	}
	return a.Texture, nil
}

func (rvs *RenderViewSystem) bindTarget(name string) error {
	if name == metadata.DefaultTargetName {
		rvs.backend.FramebufferBind(metadata.DefaultFramebuffer)
		rvs.backend.Viewport(0, 0, rvs.width, rvs.height)
		return nil
	}
	target, err := rvs.targets.Get(name)
	if err != nil {
		return err
	}
	return rvs.targets.Bind(target)
}

func (rvs *RenderViewSystem) framebufferOf(name string) (metadata.FramebufferHandle, uint32, uint32, error) {
	if name == metadata.DefaultTargetName {
		return metadata.DefaultFramebuffer, rvs.width, rvs.height, nil
	}
	target, err := rvs.targets.Get(name)
	if err != nil {
		return 0, 0, 0, err
	}
	if target.Destroyed() {
		return 0, 0, 0, fmt.Errorf("render target %s: %w", target.Name, core.ErrTargetDestroyed)
	}
	return target.Framebuffer, target.Width, target.Height, nil
}

func (rvs *RenderViewSystem) blit(pass *metadata.Pass) error {
	src, sw, sh, err := rvs.framebufferOf(pass.Source)
	if err != nil {
		return err
	}
	dst, dw, dh, err := rvs.framebufferOf(pass.Target)
	if err != nil {
		return err
	}
	defer rvs.backend.FramebufferBind(metadata.DefaultFramebuffer)
	return rvs.backend.FramebufferBlit(src, dst, sw, sh, dw, dh, pass.BlitMask)
}

func opaqueObjects(objects []*metadata.RenderObject) []*metadata.RenderObject {
	out := make([]*metadata.RenderObject, 0, len(objects))
	for _, o := range objects {
		if o != nil && !o.Emissive && !o.Transparent {
			out = append(out, o)
		}
	}
	return out
}

// overlayObjects returns emissive objects followed by transparent ones sorted back to front.
func overlayObjects(objects []*metadata.RenderObject, viewPos mgl32.Vec3) []*metadata.RenderObject {
	var emissive, transparent []*metadata.RenderObject
	for _, o := range objects {
		switch {
		case o == nil:
		case o.Emissive:
			emissive = append(emissive, o)
		case o.Transparent:
			transparent = append(transparent, o)
		}
	}
	distance := func(o *metadata.RenderObject) float32 {
		return o.Model.Col(3).Vec3().Sub(viewPos).Len()
	}
	sort.SliceStable(transparent, func(i, j int) bool {
		return distance(transparent[i]) > distance(transparent[j])
	})
	return append(emissive, transparent...)
}

func (rvs *RenderViewSystem) drawObjects(f *Frame, pass *metadata.Pass, objects []*metadata.RenderObject) error {
	packet := f.packet
	for _, obj := range objects {
		if obj.Geometry == nil {
			continue
		}
		name := pass.Shader
		if name == "" {
			name = obj.Shader
		}
		if name == "" {
			name = metadata.BUILTIN_SHADER_NAME_PHONG
			if obj.Emissive {
				name = metadata.BUILTIN_SHADER_NAME_LIGHTBOX
			}
		}
		shader, err := rvs.shaders.Use(name)
		if err != nil {
			core.LogWarnOnce("object/"+obj.Name+"/"+name, "skipping %s: %s", obj.Name, err)
			continue
		}
		if err := rvs.setTransforms(shader, packet.Projection, packet.View, obj.Model); err != nil {
			return err
		}
		if obj.Emissive {
			if err := rvs.shaders.SetUniform(shader, "lightColor", obj.Color); err != nil {
				return err
			}
		} else {
			if err := rvs.bindMaterial(shader, obj, pass.Lighting); err != nil {
				return err
			}
			if pass.Lighting {
				if err := rvs.setLights(shader, packet); err != nil {
					return err
				}
			}
		}
		if err := rvs.backend.GeometryDraw(obj.Geometry); err != nil {
			core.LogWarnOnce("draw/"+obj.Name, "failed to draw %s: %s", obj.Name, err)
		}
	}
	return nil
}

func (rvs *RenderViewSystem) setTransforms(shader *metadata.Shader, projection, view, model mgl32.Mat4) error {
	for name, m := range map[string]mgl32.Mat4{"projection": projection, "view": view, "model": model} {
		if err := rvs.shaders.SetUniform(shader, name, m); err != nil {
			return err
		}
	}
	return nil
}

// bindMaterial binds the material textures of obj, falling back to the default texture of each role.
func (rvs *RenderViewSystem) bindMaterial(shader *metadata.Shader, obj *metadata.RenderObject, lit bool) error {
	roles := []metadata.TextureRole{metadata.RoleDiffuse, metadata.RoleSpecular}
	phong := shader.Name == metadata.BUILTIN_SHADER_NAME_PHONG
	if phong {
		roles = append(roles, metadata.RoleNormal, metadata.RoleHeight)
	}
	for _, role := range roles {
		tex, ok := obj.Textures[role]
		if !ok || tex == metadata.NoTexture {
			tex = rvs.textures.Default(role)
		}
		if err := rvs.shaders.BindSampler(shader, role, tex); err != nil {
			return err
		}
	}
	if !lit {
		return nil
	}
	shininess := obj.Shininess
	if shininess <= 0 {
		shininess = 32
	}
	if err := rvs.shaders.SetUniform(shader, "material.shininess", shininess); err != nil {
		return err
	}
	if phong {
		_, normalMapping := obj.Textures[metadata.RoleNormal]
		if err := rvs.shaders.SetUniform(shader, "normalMapping", normalMapping); err != nil {
			return err
		}
		if err := rvs.shaders.SetUniform(shader, "heightScale", obj.HeightScale); err != nil {
			return err
		}
	}
	return nil
}

func (rvs *RenderViewSystem) setLights(shader *metadata.Shader, packet *metadata.RenderPacket) error {
	lights := packet.Lights
	uniforms := map[string]interface{}{
		"viewPos":               packet.ViewPos,
		"dirLight.direction":    lights.Directional.Direction,
		"dirLight.ambient":      lights.Directional.Ambient,
		"dirLight.diffuse":      lights.Directional.Diffuse,
		"dirLight.specular":     lights.Directional.Specular,
		"flashlight":            packet.Config.Flashlight,
		"spotLight.position":    lights.Spot.Position,
		"spotLight.direction":   lights.Spot.Direction,
		"spotLight.ambient":     lights.Spot.Ambient,
		"spotLight.diffuse":     lights.Spot.Diffuse,
		"spotLight.specular":    lights.Spot.Specular,
		"spotLight.constant":    lights.Spot.Constant,
		"spotLight.linear":      lights.Spot.Linear,
		"spotLight.quadratic":   lights.Spot.Quadratic,
		"spotLight.cutOff":      lights.Spot.CutOff,
		"spotLight.outerCutOff": lights.Spot.OuterCutOff,
	}
	points := lights.Points
	if len(points) > metadata.MaxPointLights {
		core.LogWarnOnce("lights/points", "%d point lights given, only %d are used", len(points), metadata.MaxPointLights)
		points = points[:metadata.MaxPointLights]
	}
	uniforms["pointLightCount"] = int32(len(points))
	for i, p := range points {
		prefix := fmt.Sprintf("pointLights[%d].", i)
		uniforms[prefix+"position"] = p.Position
		uniforms[prefix+"ambient"] = p.Ambient
		uniforms[prefix+"diffuse"] = p.Diffuse
		uniforms[prefix+"specular"] = p.Specular
		uniforms[prefix+"constant"] = p.Constant
		uniforms[prefix+"linear"] = p.Linear
		uniforms[prefix+"quadratic"] = p.Quadratic
	}
	for name, value := range uniforms {
		if err := rvs.shaders.SetUniform(shader, name, value); err != nil {
			return err
		}
	}
	return nil
}

// drawSkybox draws the cubemap behind everything using the view without its translation.
func (rvs *RenderViewSystem) drawSkybox(f *Frame, pass *metadata.Pass) error {
	sky := f.packet.Skybox
	if sky == nil || sky.Geometry == nil {
		return nil
	}
	shader, err := rvs.shaders.Use(pass.Shader)
	if err != nil {
		return err
	}
	view := f.packet.View.Mat3().Mat4()
	if err := rvs.shaders.SetUniform(shader, "view", view); err != nil {
		return err
	}
	if err := rvs.shaders.SetUniform(shader, "projection", f.packet.Projection); err != nil {
		return err
	}
	cubemap := sky.Cubemap
	if cubemap == metadata.NoTexture {
		cubemap = rvs.textures.Default(metadata.RoleSkybox)
	}
	if err := rvs.shaders.BindSampler(shader, metadata.RoleSkybox, cubemap); err != nil {
		return err
	}
	return rvs.backend.GeometryDraw(sky.Geometry)
}

// drawQuad samples every input of pass through its role and covers the target with one quad.
func (rvs *RenderViewSystem) drawQuad(f *Frame, pass *metadata.Pass) error {
	shader, err := rvs.shaders.Use(pass.Shader)
	if err != nil {
		return err
	}
	for _, in := range pass.Inputs {
		tex, err := f.texture(in.Resource)
		if err != nil {
			return err
		}
		if err := rvs.shaders.BindSampler(shader, in.Role, tex); err != nil {
			return err
		}
	}
	if pass.Lighting {
		if err := rvs.setLights(shader, f.packet); err != nil {
			return err
		}
		if err := rvs.shaders.SetUniform(shader, "material.shininess", float32(32)); err != nil {
			return err
		}
	}
	return rvs.quad.DrawFullScreenQuad()
}
