/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/prism/engine"
	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/testbed"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		core.LogFatal("failed to load the configuration: %s", err)
	}

	ac, err := engine.NewApplicationConfig(cfg)
	if err != nil {
		core.LogFatal("invalid configuration: %s", err)
	}
	core.SetLogLevel(ac.LogLevel)

	prof := engine.StartProfiler(cfg.Debug)

	tb := testbed.NewTestGame(ac)

	e, err := engine.New(cfg, tb.Game)
	if err != nil {
		core.LogFatal("failed to create the engine: %s", err)
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("failed to initialize the engine: %s", err)
	}

	// capture sigterm and other system call here
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	// run engine
	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown failed: %s", err)
	}
	prof.Stop()
	if runErr != nil {
		core.LogFatal("engine stopped: %s", runErr)
	}
}
