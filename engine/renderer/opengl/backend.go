package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// Presenter swaps the window buffers at the end of a frame.
type Presenter interface {
	SwapBuffers()
}

type textureInfo struct {
	target uint32
	label  string
}

// Backend renders through an OpenGL 4.1 core context that must be current on the calling thread.
type Backend struct {
	presenter Presenter

	width  uint32
	height uint32

	textures     map[metadata.TextureHandle]textureInfo
	framebuffers map[metadata.FramebufferHandle]string
	bound        metadata.FramebufferHandle
	frameNumber  uint64
}

func New(presenter Presenter) *Backend {
	return &Backend{
		presenter:    presenter,
		textures:     make(map[metadata.TextureHandle]textureInfo),
		framebuffers: make(map[metadata.FramebufferHandle]string),
	}
}

func (b *Backend) Initialize(config *metadata.RendererBackendConfig) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	core.LogInfo("OpenGL %s (%s)", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))

	b.width, b.height = config.Width, config.Height
	b.framebuffers[metadata.DefaultFramebuffer] = metadata.DefaultTargetName

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	gl.Viewport(0, 0, int32(config.Width), int32(config.Height))

	core.LogInfo("OpenGL renderer initialized successfully.")
	return nil
}

func (b *Backend) Shutdown() error {
	for h := range b.textures {
		b.TextureDestroy(h)
	}
	for h := range b.framebuffers {
		b.FramebufferDestroy(h)
	}
	return nil
}

func (b *Backend) Resized(width, height uint32) {
	b.width, b.height = width, height
}

func (b *Backend) BeginFrame(deltaTime float64) error {
	b.frameNumber++
	return nil
}

func (b *Backend) EndFrame(deltaTime float64) error {
	if err := checkError("end frame"); err != nil {
		core.LogWarnOnce(err.Error(), "%s", err)
	}
	b.presenter.SwapBuffers()
	return nil
}

func (b *Backend) Viewport(x, y int32, width, height uint32) {
	gl.Viewport(x, y, int32(width), int32(height))
}

func (b *Backend) Clear(color mgl32.Vec4, flags metadata.ClearFlag) {
	var mask uint32
	if flags&metadata.ClearColor != 0 {
		gl.ClearColor(color[0], color[1], color[2], color[3])
		mask |= gl.COLOR_BUFFER_BIT
	}
	if flags&metadata.ClearDepth != 0 {
		// depth writes must be enabled for the clear to take effect
		gl.DepthMask(true)
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if flags&metadata.ClearStencil != 0 {
		mask |= gl.STENCIL_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
}

func (b *Backend) SetDepthState(state metadata.DepthState) {
	if state.Test {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(state.Write)
	switch state.Func {
	case metadata.DepthLessEqual:
		gl.DepthFunc(gl.LEQUAL)
	case metadata.DepthAlways:
		gl.DepthFunc(gl.ALWAYS)
	default:
		gl.DepthFunc(gl.LESS)
	}
}

func (b *Backend) SetBlend(enabled bool) {
	if enabled {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		return
	}
	gl.Disable(gl.BLEND)
}

func checkError(op string) error {
	switch code := gl.GetError(); code {
	case gl.NO_ERROR:
		return nil
	case gl.OUT_OF_MEMORY:
		return fmt.Errorf("%s: %w", op, core.ErrResourceExhaustion)
	default:
		return fmt.Errorf("%s: GL error 0x%x", op, code)
	}
}
