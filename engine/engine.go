package engine

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"time"

	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/platform"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Time given back to the OS per loop iteration while minimized.
const suspendedSleep = 100 * time.Millisecond

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     bool
	isSuspended   bool
	platform      *platform.Platform
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	width         uint32
	height        uint32
	clock         *core.Clock
	metrics       *core.Metrics
	lastTime      float64
	frameCount    uint64
}

// New wires the systems for the backend named in the application config.
// The OpenGL backend gets a window, the software backend runs headless.
func New(cfg *config.Config, g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		ac, err := NewApplicationConfig(cfg)
		if err != nil {
			core.LogError(err.Error())
			return nil, err
		}
		g.ApplicationConfig = ac
	}
	ac := g.ApplicationConfig

	var p *platform.Platform
	var backend renderer.RendererBackend
	var err error
	if ac.Headless() {
		backend, err = renderer.NewBackend(ac.Renderer, nil)
	} else {
		p = platform.New()
		backend, err = renderer.NewBackend(ac.Renderer, p)
	}
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	sm, err := systems.NewSystemManager(cfg, backend, am)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	g.SystemManager = sm

	return &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		clock:         core.NewClock(),
		metrics:       core.NewMetrics(),
		platform:      p,
		assetManager:  am,
		systemManager: sm,
		isRunning:     true,
		isSuspended:   false,
		width:         ac.StartWidth,
		height:        ac.StartHeight,
		lastTime:      0,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	ac := e.gameInstance.ApplicationConfig

	// initialize input
	if err := core.InputInitialize(); err != nil {
		return err
	}

	// initialize events
	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}

	// register some events
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e.onKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, e.onResized)

	if e.platform != nil {
		if err := e.platform.Startup(ac.Name, ac.StartPosX, ac.StartPosY, ac.StartWidth, ac.StartHeight); err != nil {
			return err
		}
		e.platform.CaptureCursor(true)
	}

	// initialize subsystems
	if err := e.assetManager.Initialize(ac.AssetsPath); err != nil {
		return err
	}

	if err := e.systemManager.Initialize(); err != nil {
		return err
	}

	// HiDPI displays hand out a framebuffer bigger than the requested window.
	if e.platform != nil {
		w, h := e.platform.FramebufferSize()
		if w != e.width || h != e.height {
			e.width, e.height = w, h
			e.systemManager.RendererSystem.ResizeNow(w, h, e.systemManager.RenderViewSystem)
		}
	}

	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}

	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives the frame loop until the window closes, the frame limit is hit or ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.currentStage = EngineStageRunning
	ac := e.gameInstance.ApplicationConfig

	e.clock.Start()
	e.clock.Update()

	e.lastTime = e.clock.Elapsed()

	for e.isRunning {
		if ctx.Err() != nil {
			core.LogInfo("interrupted, shutting down.")
			break
		}
		if e.platform != nil && !e.platform.PumpMessages() {
			e.isRunning = false
			break
		}

		if e.isSuspended {
			time.Sleep(suspendedSleep)
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		var currentTime float64 = e.clock.Elapsed()
		var delta float64 = (currentTime - e.lastTime)

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("Game update failed, shutting down: %s", err)
			return err
		}

		packet := &metadata.RenderPacket{
			DeltaTime: delta,
		}
		// Call the game's render routine.
		if err := e.gameInstance.FnRender(packet, delta); err != nil {
			core.LogError("Game render failed, shutting down: %s", err)
			return err
		}

		if err := e.systemManager.DrawFrame(packet); err != nil {
			return err
		}

		// Figure out how long the frame took.
		e.clock.Update()
		if e.metrics.Update(e.clock.Elapsed() - currentTime) {
			core.LogDebug("FPS: %.0f, frame time: %.3fms", e.metrics.FPS(), e.metrics.FrameTime())
		}

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		// As a safety, input is the last thing to be updated before
		// this frame ends.
		core.InputUpdate()

		// Update last time
		e.lastTime = currentTime

		e.frameCount++
		if ac.MaxFrames > 0 && e.frameCount >= ac.MaxFrames {
			e.isRunning = false
		}
	}

	if ac.CapturePath != "" {
		if err := e.Capture(ac.CapturePath); err != nil {
			core.LogError("failed to capture the last frame: %s", err)
			return err
		}
		core.LogInfo("last frame written to %s", ac.CapturePath)
	}
	return nil
}

// Capture writes the color buffer of the default framebuffer as a PNG.
func (e *Engine) Capture(path string) error {
	width, height := e.GetFramebufferSize()
	pixels, err := e.systemManager.RendererSystem.Backend().FramebufferRead(metadata.DefaultFramebuffer, 0, width, height)
	if err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			i := (y*int(width) + x) * 4
			if i+3 >= len(pixels) {
				continue
			}
			// row 0 of the framebuffer is the bottom of the image
			img.SetRGBA(x, int(height)-1-y, color.RGBA{
				R: toByte(pixels[i]),
				G: toByte(pixels[i+1]),
				B: toByte(pixels[i+2]),
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError("game shutdown failed: %s", err)
		}
	}
	if err := core.EventSystemShutdown(); err != nil {
		return err
	}
	if err := core.InputShutdown(); err != nil {
		return err
	}
	if err := e.systemManager.Shutdown(); err != nil {
		return err
	}
	if err := e.assetManager.Shutdown(); err != nil {
		return err
	}
	if e.platform != nil {
		if err := e.platform.Shutdown(); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageUninitialized
	return nil
}

// ApplicationGetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		{
			core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
			e.isRunning = false
			if e.platform != nil {
				e.platform.Close()
			}
		}
	}
}

func (e *Engine) onKey(context core.EventContext) {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}

	if ke.KeyCode == core.KEY_ESCAPE || ke.KeyCode == core.KEY_Q {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		core.EventFire(core.EventContext{
			Type: core.EVENT_CODE_APPLICATION_QUIT,
		})
	}
}

func (e *Engine) onResized(context core.EventContext) {
	if context.Type != core.EVENT_CODE_RESIZED {
		return
	}
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}

	width := se.WindowWidth
	height := se.WindowHeight

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return
	}
	e.width = width
	e.height = height

	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if err := e.gameInstance.FnOnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
	e.systemManager.OnResize(width, height)
}
