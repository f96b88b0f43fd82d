package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"lodterrain/internal/app"
	"lodterrain/internal/config"
	"lodterrain/internal/logger"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/xlab/closer"
	"go.uber.org/zap"
)

func init() {
	// GLFW and the GPU contexts are bound to the main thread.
	runtime.LockOSThread()
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "lodterrain:", err)
		os.Exit(2)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintln(os.Stderr, "lodterrain:", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		logger.Log.Error("exiting", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run(cfg *config.Config) error {
	ctx, shutdown := app.NewShutdown(context.Background())
	defer shutdown.Finish()

	// On SIGINT or SIGTERM closer runs this before exiting. It cancels
	// construction or stops the loop, then waits for teardown on the main
	// thread.
	closer.Bind(func() {
		shutdown.Trigger()
		logger.Sync()
	})

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initializing glfw: %w", err)
	}
	defer glfw.Terminate()

	viewer, err := app.New(ctx, cfg, logger.Named("app"))
	if err != nil {
		return err
	}
	shutdown.Attach(viewer)
	return viewer.Run()
}
