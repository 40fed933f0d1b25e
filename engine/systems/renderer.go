package systems

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// Frames to wait after the last resize event before the targets are re-created.
const resizeSettleFrames = 30

type RendererSystem struct {
	backend renderer.RendererBackend

	// application
	AppName string

	// The current window framebuffer width.
	FramebufferWidth uint32
	// The current window framebuffer height.
	FramebufferHeight uint32
	// Indicates if the window is currently being resized.
	Resizing bool
	// The current number of frames since the last resize operation.
	// Only set if resizing = true. Otherwise 0.
	FramesSinceResize uint8
	// Number of frames presented since startup.
	FrameNumber uint64
}

func NewRendererSystem(appName string, width, height uint32, backend renderer.RendererBackend) (*RendererSystem, error) {
	if backend == nil {
		err := fmt.Errorf("func NewRendererSystem - backend is nil")
		core.LogError(err.Error())
		return nil, err
	}
	return &RendererSystem{
		backend:           backend,
		AppName:           appName,
		FramebufferWidth:  width,
		FramebufferHeight: height,
	}, nil
}

func (r *RendererSystem) Initialize() error {
	r.Resizing = false
	r.FramesSinceResize = 0
	r.FrameNumber = 0
	return r.backend.Initialize(&metadata.RendererBackendConfig{
		ApplicationName: r.AppName,
		Width:           r.FramebufferWidth,
		Height:          r.FramebufferHeight,
	})
}

func (r *RendererSystem) Shutdown() error {
	return r.backend.Shutdown()
}

func (r *RendererSystem) Backend() renderer.RendererBackend {
	return r.backend
}

// OnResize flags the renderer as resizing and stores the new size, the
// regeneration waits for the window to settle.
func (r *RendererSystem) OnResize(width, height uint32) {
	r.Resizing = true
	r.FramebufferWidth = width
	r.FramebufferHeight = height
	r.FramesSinceResize = 0
}

// DrawFrame renders packet through the render view system. Frames are skipped
// while a resize is settling.
func (r *RendererSystem) DrawFrame(packet *metadata.RenderPacket, renderViewSystem *RenderViewSystem) error {
	if r.Resizing {
		r.FramesSinceResize++
		if r.FramesSinceResize < resizeSettleFrames {
			return nil
		}
		r.applyResize(renderViewSystem)
	}
	if r.FramebufferWidth == 0 || r.FramebufferHeight == 0 {
		return nil
	}

	if err := renderViewSystem.DrawFrame(packet); err != nil {
		core.LogError("failed to draw frame %d: %s", r.FrameNumber, err)
		return err
	}
	r.FrameNumber++
	return nil
}

// ResizeNow applies a pending size change without waiting.
func (r *RendererSystem) ResizeNow(width, height uint32, renderViewSystem *RenderViewSystem) {
	r.OnResize(width, height)
	r.applyResize(renderViewSystem)
}

func (r *RendererSystem) applyResize(renderViewSystem *RenderViewSystem) {
	width, height := r.FramebufferWidth, r.FramebufferHeight
	r.backend.Resized(width, height)
	if err := renderViewSystem.Resize(width, height); err != nil {
		core.LogError("failed to regenerate render targets: %s", err)
	}
	r.FramesSinceResize = 0
	r.Resizing = false
}
