package metadata

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type DrawKind uint8

const (
	DrawScene DrawKind = iota
	DrawSceneOverlay
	DrawSkybox
	DrawFullScreenQuad
	DrawBlit
	DrawBlur
	DrawTonemap
)

func (d DrawKind) String() string {
	switch d {
	case DrawScene:
		return "scene"
	case DrawSceneOverlay:
		return "scene_overlay"
	case DrawSkybox:
		return "skybox"
	case DrawFullScreenQuad:
		return "fullscreen_quad"
	case DrawBlit:
		return "blit"
	case DrawBlur:
		return "blur"
	case DrawTonemap:
		return "tonemap"
	}
	return fmt.Sprintf("draw(%d)", uint8(d))
}

// FrameStage orders the passes of a frame. A frame only moves forward.
type FrameStage uint8

const (
	StageIdle FrameStage = iota
	StageGeometry
	StageResolve
	StagePostProcess
	StagePresented
)

func (s FrameStage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageGeometry:
		return "geometry"
	case StageResolve:
		return "resolve"
	case StagePostProcess:
		return "post_process"
	case StagePresented:
		return "presented"
	}
	return "unknown"
}

// PassInput samples a named frame resource through a texture role.
type PassInput struct {
	Resource string
	Role     TextureRole
}

/** @brief One step of a frame: what to draw, where, and what it reads. */
type Pass struct {
	Name  string
	Stage FrameStage
	Draw  DrawKind
	// Render target name, DefaultTargetName for the screen.
	Target string
	// Source target for blits.
	Source   string
	BlitMask BlitMask
	Shader   string
	Inputs   []PassInput
	// Resources that must exist without being sampled, such as a blit source.
	Requires []string
	// Resources made available to later passes.
	Writes []string
	Clear  ClearFlag
	Depth  DepthState
	Blend  bool
	// Upload light uniforms before drawing.
	Lighting bool
}

type PipelineKind uint8

const (
	PipelineForward PipelineKind = iota
	PipelineForwardHDR
	PipelineDeferred
	PipelineMSAA
)

func (k PipelineKind) String() string {
	switch k {
	case PipelineForward:
		return "forward"
	case PipelineForwardHDR:
		return "forward_hdr"
	case PipelineDeferred:
		return "deferred"
	case PipelineMSAA:
		return "msaa"
	}
	return fmt.Sprintf("pipeline(%d)", uint8(k))
}

/** @brief An ordered list of passes that renders one frame. */
type Pipeline struct {
	Kind   PipelineKind
	Passes []*Pass
}

// Index returns the position of the named pass, -1 when absent.
func (p *Pipeline) Index(name string) int {
	for i, pass := range p.Passes {
		if pass.Name == name {
			return i
		}
	}
	return -1
}

/** @brief Per frame toggles, built by the application and passed explicitly. */
type FrameConfig struct {
	HDR        bool
	Bloom      bool
	Deferred   bool
	MSAA       bool
	Flashlight bool
	Exposure   float32
}

// PipelineKind selects the pipeline variant described by the toggles.
// Deferred wins over MSAA; MSAA only applies to the plain forward path.
func (c FrameConfig) PipelineKind() PipelineKind {
	switch {
	case c.Deferred:
		return PipelineDeferred
	case c.HDR:
		return PipelineForwardHDR
	case c.MSAA:
		return PipelineMSAA
	}
	return PipelineForward
}

type DirectionalLight struct {
	Direction mgl32.Vec3
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
}

type PointLight struct {
	Position  mgl32.Vec3
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Constant  float32
	Linear    float32
	Quadratic float32
}

type SpotLight struct {
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	Ambient     mgl32.Vec3
	Diffuse     mgl32.Vec3
	Specular    mgl32.Vec3
	Constant    float32
	Linear      float32
	Quadratic   float32
	CutOff      float32
	OuterCutOff float32
}

const MaxPointLights = 4

type Lights struct {
	Directional DirectionalLight
	Points      []PointLight
	Spot        SpotLight
}

/** @brief A drawable with its transform and material textures. */
type RenderObject struct {
	Name     string
	Geometry *Geometry
	Model    mgl32.Mat4
	Shader   string
	Textures map[TextureRole]TextureHandle
	// Emissive objects are drawn with their flat color after lighting.
	Emissive bool
	Color    mgl32.Vec3
	// Transparent objects are blended after the opaque geometry.
	Transparent bool
	Shininess   float32
	HeightScale float32
}

type Skybox struct {
	Geometry *Geometry
	Cubemap  TextureHandle
}

/** @brief Everything a frame needs from the application. */
type RenderPacket struct {
	DeltaTime  float64
	Projection mgl32.Mat4
	View       mgl32.Mat4
	ViewPos    mgl32.Vec3
	Objects    []*RenderObject
	Lights     Lights
	Skybox     *Skybox
	Config     FrameConfig
}
