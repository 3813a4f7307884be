package app

import (
	"io"
	"log/slog"

	"github.com/vk/pointpipe/internal/factory"
	"github.com/vk/pointpipe/modules"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	factory *factory.Factory
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and driver
// registry. When no modules are given, the core driver set is used.
func NewApp(outW io.Writer, appConfig *Config, mods ...factory.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	if len(mods) == 0 {
		mods = modules.Core()
	}
	f := factory.New(mods...)
	logger.Debug("All driver modules registered.", "count", len(mods))

	return &App{
		outW:    outW,
		logger:  logger,
		factory: f,
	}
}

// Factory returns the application's driver registry. This is primarily
// for testing.
func (a *App) Factory() *factory.Factory {
	return a.factory
}
