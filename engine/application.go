package engine

import (
	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/systems"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32
	// Window starting position y axis, if applicable.
	StartPosY uint32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name     string
	LogLevel core.LogLevel
	Renderer renderer.RendererType
	// Frames rendered before Run returns, 0 runs until quit.
	MaxFrames uint64
	// PNG path written with the last frame, empty disables the capture.
	CapturePath string
	// Toggles the game starts with.
	FrameConfig    metadata.FrameConfig
	ExposureStep   float32
	ExposurePolicy systems.ExposurePolicy
	AssetsPath     string
}

// NewApplicationConfig resolves the string settings of a loaded configuration.
func NewApplicationConfig(cfg *config.Config) (*ApplicationConfig, error) {
	level, err := core.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	rt, err := renderer.ParseRendererType(cfg.Renderer.Backend)
	if err != nil {
		return nil, err
	}
	policy, err := systems.ParseExposurePolicy(cfg.Exposure.Policy)
	if err != nil {
		return nil, err
	}
	frames := cfg.Renderer.Frames
	if rt == renderer.Software && frames == 0 {
		// without a window nothing can stop the loop
		frames = 1
	}
	return &ApplicationConfig{
		StartPosX:   cfg.Window.X,
		StartPosY:   cfg.Window.Y,
		StartWidth:  cfg.Window.Width,
		StartHeight: cfg.Window.Height,
		Name:        cfg.Window.Title,
		LogLevel:    level,
		Renderer:    rt,
		MaxFrames:   frames,
		CapturePath: cfg.Renderer.Capture,
		FrameConfig: metadata.FrameConfig{
			HDR:        cfg.Pipeline.HDR,
			Bloom:      cfg.Pipeline.Bloom,
			Deferred:   cfg.Pipeline.Deferred,
			MSAA:       cfg.Pipeline.MSAA,
			Flashlight: cfg.Pipeline.Flashlight,
			Exposure:   cfg.Exposure.Default,
		},
		ExposureStep:   cfg.Exposure.Step,
		ExposurePolicy: policy,
		AssetsPath:     cfg.Assets.Path,
	}, nil
}

// Headless reports whether the application runs without a window.
func (ac *ApplicationConfig) Headless() bool {
	return ac.Renderer == renderer.Software
}
