package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv(EnvPath, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.toml")
	data := []byte(`
[window]
width = 800
height = 600

[renderer]
backend = "software"
frames = 3

[pipeline]
deferred = true
blur_amount = 4

[exposure]
policy = "wrap"
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv(EnvPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint32(800), cfg.Window.Width)
	assert.Equal(t, uint32(600), cfg.Window.Height)
	assert.Equal(t, "Prism", cfg.Window.Title)
	assert.Equal(t, BackendSoftware, cfg.Renderer.Backend)
	assert.Equal(t, uint64(3), cfg.Renderer.Frames)
	assert.True(t, cfg.Pipeline.Deferred)
	assert.True(t, cfg.Pipeline.HDR)
	assert.Equal(t, 4, cfg.Pipeline.BlurAmount)
	assert.Equal(t, PolicyWrap, cfg.Exposure.Policy)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(c *Config){
		"zero width":  func(c *Config) { c.Window.Width = 0 },
		"backend":     func(c *Config) { c.Renderer.Backend = "vulkan" },
		"blur amount": func(c *Config) { c.Pipeline.BlurAmount = 0 },
		"samples":     func(c *Config) { c.Pipeline.MSAASamples = 0 },
		"exposure":    func(c *Config) { c.Exposure.Default = -1 },
		"policy":      func(c *Config) { c.Exposure.Policy = "bounce" },
		"profile":     func(c *Config) { c.Debug.Profile = "heap" },
	} {
		cfg := Defaults()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestParseRejectsNonFiniteExposure(t *testing.T) {
	for _, data := range []string{
		"[exposure]\nstep = nan\n",
		"[exposure]\ndefault = nan\n",
		"[exposure]\nstep = inf\n",
		"[exposure]\ndefault = inf\n",
	} {
		assert.Error(t, Parse([]byte(data), Defaults()), data)
	}
}

func TestParseReportsPosition(t *testing.T) {
	err := Parse([]byte("[window]\nwidth = \"wide\"\n"), Defaults())
	assert.Error(t, err)
}
