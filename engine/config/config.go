package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultPath = "prism.toml"
	// Environment variable overriding DefaultPath.
	EnvPath = "PRISM_CONFIG"
)

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Log      LogConfig      `toml:"log"`
	Renderer RendererConfig `toml:"renderer"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Exposure ExposureConfig `toml:"exposure"`
	Assets   AssetsConfig   `toml:"assets"`
	Debug    DebugConfig    `toml:"debug"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	X      uint32 `toml:"x"`
	Y      uint32 `toml:"y"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type RendererConfig struct {
	// opengl or software. software is a headless trace backend, scene draws fill the viewport.
	Backend string `toml:"backend"`
	// Number of frames to render before exiting, 0 runs until quit.
	Frames uint64 `toml:"frames"`
	// PNG written with the last frame of a software run.
	Capture string `toml:"capture"`
}

type PipelineConfig struct {
	HDR         bool   `toml:"hdr"`
	Bloom       bool   `toml:"bloom"`
	Deferred    bool   `toml:"deferred"`
	MSAA        bool   `toml:"msaa"`
	Flashlight  bool   `toml:"flashlight"`
	BlurAmount  int    `toml:"blur_amount"`
	MSAASamples uint32 `toml:"msaa_samples"`
}

type ExposureConfig struct {
	Default float32 `toml:"default"`
	Step    float32 `toml:"step"`
	// clamp or wrap
	Policy string `toml:"policy"`
}

type AssetsConfig struct {
	Path string `toml:"path"`
}

type DebugConfig struct {
	// cpu, mem, block, mutex or trace; empty disables profiling.
	Profile string `toml:"profile"`
	// Directory the profile is written to, empty uses a temporary one.
	ProfilePath string `toml:"profile_path"`
}

const (
	BackendOpenGL   = "opengl"
	BackendSoftware = "software"

	PolicyClamp = "clamp"
	PolicyWrap  = "wrap"

	ProfileCPU   = "cpu"
	ProfileMem   = "mem"
	ProfileBlock = "block"
	ProfileMutex = "mutex"
	ProfileTrace = "trace"
)

func Defaults() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "Prism",
			X:      100,
			Y:      100,
			Width:  1720,
			Height: 1080,
		},
		Log: LogConfig{Level: "info"},
		Renderer: RendererConfig{
			Backend: BackendOpenGL,
		},
		Pipeline: PipelineConfig{
			HDR:         true,
			Bloom:       true,
			BlurAmount:  10,
			MSAASamples: 4,
		},
		Exposure: ExposureConfig{
			Default: 1.0,
			Step:    0.05,
			Policy:  PolicyClamp,
		},
		Assets: AssetsConfig{Path: "assets"},
	}
}

// Load reads the configuration file at path on top of the defaults.
// An empty path resolves to $PRISM_CONFIG, then DefaultPath. A missing default file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	explicit := path != ""
	if !explicit {
		if env, ok := os.LookupEnv(EnvPath); ok && env != "" {
			path, explicit = env, true
		} else {
			path = DefaultPath
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML into cfg and validates the result.
func Parse(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return err
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	switch c.Renderer.Backend {
	case BackendOpenGL, BackendSoftware:
	default:
		return fmt.Errorf("unknown renderer backend %q", c.Renderer.Backend)
	}
	if c.Pipeline.BlurAmount < 1 {
		return fmt.Errorf("blur_amount must be at least 1, got %d", c.Pipeline.BlurAmount)
	}
	if c.Pipeline.MSAASamples < 1 {
		return fmt.Errorf("msaa_samples must be at least 1, got %d", c.Pipeline.MSAASamples)
	}
	if !finite(c.Exposure.Default) || !finite(c.Exposure.Step) || c.Exposure.Default < 0 || c.Exposure.Step <= 0 {
		return fmt.Errorf("exposure default must be >= 0 and step > 0, got %g/%g", c.Exposure.Default, c.Exposure.Step)
	}
	switch c.Exposure.Policy {
	case PolicyClamp, PolicyWrap:
	default:
		return fmt.Errorf("unknown exposure policy %q", c.Exposure.Policy)
	}
	switch c.Debug.Profile {
	case "", ProfileCPU, ProfileMem, ProfileBlock, ProfileMutex, ProfileTrace:
	default:
		return fmt.Errorf("unknown profile mode %q", c.Debug.Profile)
	}
	return nil
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}
