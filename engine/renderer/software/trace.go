package software

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

type Op uint8

const (
	OpBeginFrame Op = iota
	OpEndFrame
	OpBindFramebuffer
	OpViewport
	OpClear
	OpDepthState
	OpBlend
	OpUseShader
	OpSetUniform
	OpBindTexture
	OpDraw
	OpBlit
)

func (o Op) String() string {
	switch o {
	case OpBeginFrame:
		return "begin_frame"
	case OpEndFrame:
		return "end_frame"
	case OpBindFramebuffer:
		return "bind_framebuffer"
	case OpViewport:
		return "viewport"
	case OpClear:
		return "clear"
	case OpDepthState:
		return "depth_state"
	case OpBlend:
		return "blend"
	case OpUseShader:
		return "use_shader"
	case OpSetUniform:
		return "set_uniform"
	case OpBindTexture:
		return "bind_texture"
	case OpDraw:
		return "draw"
	case OpBlit:
		return "blit"
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Command is one recorded backend call.
type Command struct {
	Op          Op
	Frame       uint64
	Framebuffer metadata.FramebufferHandle
	// Label of the bound framebuffer, "default" for the screen.
	Target   string
	Shader   string
	Uniform  string
	Value    interface{}
	Unit     uint32
	Texture  metadata.TextureHandle
	Geometry string
	// Blit source
	Source metadata.FramebufferHandle
	Depth  metadata.DepthState
	Blend  bool
	// Snapshot of the program parameters and texture units at draw time.
	Uniforms map[string]interface{}
	Units    map[uint32]metadata.TextureHandle
}

// Trace records every state change and draw issued to the backend.
type Trace struct {
	Commands []Command
}

func (t *Trace) record(c Command) {
	t.Commands = append(t.Commands, c)
}

func (t *Trace) Reset() {
	t.Commands = t.Commands[:0]
}

func (t *Trace) Filter(op Op) []Command {
	out := []Command{}
	for _, c := range t.Commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (t *Trace) Draws() []Command {
	return t.Filter(OpDraw)
}

// DrawsWith returns the draws issued with the named program.
func (t *Trace) DrawsWith(shader string) []Command {
	out := []Command{}
	for _, c := range t.Commands {
		if c.Op == OpDraw && c.Shader == shader {
			out = append(out, c)
		}
	}
	return out
}
