package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/pointpipe/internal/ctxlog"
	"github.com/vk/pointpipe/internal/pipeline"
	"github.com/vk/pointpipe/internal/plugin"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if !appConfig.NoPlugins {
		var loader *plugin.Loader
		if appConfig.DriverPath != "" {
			paths := strings.Split(appConfig.DriverPath, ":")
			loader = plugin.NewLoaderWithPaths(plugin.GoBinder{}, paths)
		} else {
			loader = plugin.NewLoader(plugin.GoBinder{})
		}
		loader.LoadAll(ctx, a.factory)
		a.logger.Debug("Plugin discovery finished.", "paths", loader.SearchPaths())
	}

	a.logger.Debug("Loading pipeline document.", "path", appConfig.PipelinePath)
	terminal, err := pipeline.Load(ctx, a.factory, appConfig.PipelinePath)
	if err != nil {
		return fmt.Errorf("failed to load pipeline: %w", err)
	}

	table := point.NewTable()
	if err := stage.Prepare(ctx, terminal, table); err != nil {
		return fmt.Errorf("failed to prepare pipeline: %w", err)
	}
	a.logger.Debug("Pipeline prepared.")

	a.logger.Info("Starting execution.")
	views, err := stage.ExecuteWith(ctx, terminal, table, stage.ExecOptions{
		MaxConcurrent: appConfig.MaxConcurrent,
	})
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("Execution finished.",
		"views", len(views), "points", views.TotalPoints())

	a.logger.Debug("App.Run method finished.")
	return nil
}
