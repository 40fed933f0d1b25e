package engine

import (
	"github.com/pkg/profile"

	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/engine/core"
)

type noopProfiler struct{}

func (noopProfiler) Stop() {}

// StartProfiler starts the profile named in the debug configuration. Stop must
// be called before the process exits for the profile to be written.
func StartProfiler(cfg config.DebugConfig) interface{ Stop() } {
	var mode func(*profile.Profile)
	switch cfg.Profile {
	case config.ProfileCPU:
		mode = profile.CPUProfile
	case config.ProfileMem:
		mode = profile.MemProfile
	case config.ProfileBlock:
		mode = profile.BlockProfile
	case config.ProfileMutex:
		mode = profile.MutexProfile
	case config.ProfileTrace:
		mode = profile.TraceProfile
	default:
		return noopProfiler{}
	}

	options := []func(*profile.Profile){mode, profile.Quiet, profile.NoShutdownHook}
	if cfg.ProfilePath != "" {
		options = append(options, profile.ProfilePath(cfg.ProfilePath))
	}
	core.LogInfo("%s profiling enabled", cfg.Profile)
	return profile.Start(options...)
}
