package software

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// Program is the CPU counterpart of a linked shader program.
type Program struct {
	Name     string
	Uniforms map[string]metadata.UniformType
	// Fragment runs once per covered pixel and writes Out for every draw buffer.
	Fragment func(f *Fragment)
}

var (
	programsMu sync.RWMutex
	programs   = map[string]*Program{}
)

// RegisterProgram makes p available to ShaderCreate under p.Name.
func RegisterProgram(p *Program) {
	programsMu.Lock()
	defer programsMu.Unlock()
	programs[p.Name] = p
}

func lookupProgram(name string) (*Program, bool) {
	programsMu.RLock()
	defer programsMu.RUnlock()
	p, ok := programs[name]
	return p, ok
}

type programState struct {
	id      uint32
	name    string
	program *Program
	values  map[string]interface{}
}

func (p *programState) set(name string, value interface{}) error {
	t, ok := p.program.Uniforms[name]
	if !ok {
		return fmt.Errorf("%s: %q: %w", p.name, name, core.ErrUniformNotFound)
	}
	if !accepts(t, value) {
		return fmt.Errorf("%s: %q expects %s, got %T: %w", p.name, name, t, value, core.ErrUniformType)
	}
	p.values[name] = value
	return nil
}

func accepts(t metadata.UniformType, value interface{}) bool {
	switch value.(type) {
	case bool:
		return t == metadata.UniformBool
	case int32:
		return t == metadata.UniformInt || t == metadata.UniformSampler || t == metadata.UniformBool
	case float32:
		return t == metadata.UniformFloat
	case mgl32.Vec2:
		return t == metadata.UniformVec2
	case mgl32.Vec3:
		return t == metadata.UniformVec3
	case mgl32.Vec4:
		return t == metadata.UniformVec4
	case mgl32.Mat4:
		return t == metadata.UniformMat4
	}
	return false
}

// Fragment is the per pixel invocation handed to a Program.
type Fragment struct {
	X, Y int
	// Normalized coordinate of the pixel center inside the viewport.
	UV  mgl32.Vec2
	Out [metadata.MaxColorAttachments]mgl32.Vec4

	state   *programState
	backend *Backend
}

func (f *Fragment) Bool(name string) bool {
	switch v := f.state.values[name].(type) {
	case bool:
		return v
	case int32:
		return v != 0
	}
	return false
}

func (f *Fragment) Int(name string) int32 {
	v, _ := f.state.values[name].(int32)
	return v
}

func (f *Fragment) Float(name string) float32 {
	v, _ := f.state.values[name].(float32)
	return v
}

func (f *Fragment) Vec3(name string) mgl32.Vec3 {
	v, _ := f.state.values[name].(mgl32.Vec3)
	return v
}

func (f *Fragment) Vec4(name string) mgl32.Vec4 {
	v, _ := f.state.values[name].(mgl32.Vec4)
	return v
}

func (f *Fragment) Mat4(name string) mgl32.Mat4 {
	v, ok := f.state.values[name].(mgl32.Mat4)
	if !ok {
		return mgl32.Ident4()
	}
	return v
}

func (f *Fragment) surface(sampler string) *surface {
	unit := f.Int(sampler)
	if unit < 0 || int(unit) >= maxTextureUnits {
		return nil
	}
	return f.backend.textures[f.backend.units[unit]]
}

// Texture samples the texture bound to the unit named by the sampler parameter.
// An empty unit reads as transparent black.
func (f *Fragment) Texture(sampler string, uv mgl32.Vec2) mgl32.Vec4 {
	s := f.surface(sampler)
	if s == nil {
		return mgl32.Vec4{}
	}
	face := 0
	if s.cubemap() {
		// +Z face
		face = 4
	}
	return s.sample(face, uv)
}

// TexelFetch reads an exact texel, clamped to the edge.
func (f *Fragment) TexelFetch(sampler string, x, y int) mgl32.Vec4 {
	s := f.surface(sampler)
	if s == nil {
		return mgl32.Vec4{}
	}
	return s.fetch(0, x, y)
}

func (f *Fragment) TextureSize(sampler string) (int, int) {
	s := f.surface(sampler)
	if s == nil {
		return 0, 0
	}
	return s.width, s.height
}
