package systems

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"golang.org/x/exp/constraints"
)

// TonemapStage maps the HDR scene to the default framebuffer, optionally adding bloom.
type TonemapStage struct {
	width   uint32
	height  uint32
	shaders *ShaderSystem
	quad    *FullScreenQuad
	backend renderer.RendererBackend
}

func NewTonemapStage(shaders *ShaderSystem, quad *FullScreenQuad, backend renderer.RendererBackend) *TonemapStage {
	return &TonemapStage{
		shaders: shaders,
		quad:    quad,
		backend: backend,
	}
}

func (t *TonemapStage) Resize(width, height uint32) {
	t.width, t.height = width, height
}

// Tonemap draws into the default framebuffer. bright is only bound when bloom is on,
// otherwise its unit is left empty.
func (t *TonemapStage) Tonemap(scene, bright metadata.TextureHandle, bloom bool, exposure float32) error {
	t.backend.FramebufferBind(metadata.DefaultFramebuffer)
	t.backend.Viewport(0, 0, t.width, t.height)
	t.backend.SetDepthState(metadata.DepthDisabled)
	t.backend.SetBlend(false)
	t.backend.Clear(metadata.ClearColorDefault, metadata.ClearColor|metadata.ClearDepth)

	shader, err := t.shaders.Use(metadata.BUILTIN_SHADER_NAME_BLOOM)
	if err != nil {
		return err
	}
	if err := t.shaders.BindSampler(shader, metadata.RoleSceneColor, scene); err != nil {
		return err
	}
	if bloom {
		if err := t.shaders.BindSampler(shader, metadata.RoleBloomBlur, bright); err != nil {
			return err
		}
	} else {
		t.shaders.UnbindSampler(metadata.RoleBloomBlur)
		binding := metadata.SamplerBindings[metadata.RoleBloomBlur]
		if err := t.shaders.SetUniform(shader, binding.Uniform, int32(binding.Unit)); err != nil {
			return err
		}
	}
	if err := t.shaders.SetUniform(shader, "bloom", bloom); err != nil {
		return err
	}
	if err := t.shaders.SetUniform(shader, "exposure", exposure); err != nil {
		return err
	}
	return t.quad.DrawFullScreenQuad()
}

type ExposurePolicy uint8

const (
	// Stop at zero.
	ExposureClamp ExposurePolicy = iota
	// Going below zero resets to the default value.
	ExposureWrap
)

func ParseExposurePolicy(name string) (ExposurePolicy, error) {
	switch name {
	case "clamp":
		return ExposureClamp, nil
	case "wrap":
		return ExposureWrap, nil
	}
	return ExposureClamp, fmt.Errorf("unknown exposure policy %q", name)
}

const MaxExposure float32 = 16

// clamp maps NaN to lo.
func clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ExposureControl adjusts the tone mapping exposure in fixed steps. Value is never negative.
type ExposureControl struct {
	Value   float32
	Step    float32
	Default float32
	Policy  ExposurePolicy
}

func NewExposureControl(defaultValue, step float32, policy ExposurePolicy) *ExposureControl {
	defaultValue = clamp(defaultValue, 0, MaxExposure)
	return &ExposureControl{
		Value:   defaultValue,
		Step:    step,
		Default: defaultValue,
		Policy:  policy,
	}
}

func (e *ExposureControl) Increase() float32 {
	e.Value = clamp(e.Value+e.Step, 0, MaxExposure)
	return e.Value
}

func (e *ExposureControl) Decrease() float32 {
	next := e.Value - e.Step
	if next < 0 && e.Policy == ExposureWrap {
		next = e.Default
	}
	e.Value = clamp(next, 0, MaxExposure)
	return e.Value
}

func (e *ExposureControl) Reset() {
	e.Value = e.Default
}
