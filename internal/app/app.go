package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aqicli/internal/config"
	"aqicli/internal/files"
	"aqicli/internal/infrastructure"
	"aqicli/internal/operations"
	"aqicli/pkg/contracts/domain"
)

// Application holds everything a command run needs
type Application struct {
	Config    *config.Config
	Paths     *config.Paths
	Files     *files.Manager
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry
}

// NewApplication wires logging, paths and telemetry for cfg
func NewApplication(cfg *config.Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}

	// The log file lives under the base directory like every other output
	logCfg := cfg.Logging
	logCfg.FilePath = paths.LogFile
	logger, err := infrastructure.InitializeLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, paths.TraceFile, paths.MetricsFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	return &Application{
		Config:    cfg,
		Paths:     paths,
		Files:     files.NewManager(paths),
		Logger:    logger,
		Telemetry: tel,
	}, nil
}

// Dependencies returns the step dependencies of this application
func (a *Application) Dependencies() *operations.Dependencies {
	return &operations.Dependencies{
		Config:  a.Config,
		Paths:   a.Paths,
		Files:   a.Files,
		Metrics: a.Telemetry.Metrics,
		Logger:  a.Logger,
	}
}

// Run executes steps over the given month window
func (a *Application) Run(ctx context.Context, steps []operations.Step, months []domain.MonthKey) (*operations.State, error) {
	manager := operations.NewManager(a.Telemetry, a.Logger)
	if err := manager.RegisterStages(steps...); err != nil {
		return nil, err
	}

	ctx = infrastructure.WithTraceID(ctx, infrastructure.GenerateTraceID())
	state := operations.NewState(infrastructure.GetTraceID(ctx), months)
	return state, manager.Execute(ctx, state)
}

// Shutdown flushes metrics and traces
func (a *Application) Shutdown() {
	if err := a.Telemetry.WriteMetrics(); err != nil {
		a.Logger.Warn("Failed to write metrics", slog.String("error", err.Error()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Telemetry.Shutdown(ctx); err != nil {
		a.Logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.Warn("Failed to close log file", slog.String("error", err.Error()))
	}
}
