package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"aqicli/internal/app"
	"aqicli/internal/config"
	apperrors "aqicli/internal/errors"
	"aqicli/internal/operations"
	"aqicli/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	registry := fs.String("registry", "", "station registry (.xlsx or .csv)")
	stations := fs.String("stations", "", "directory holding <file_name>.csv station series")
	out := fs.String("out", "", "enriched registry output (.xlsx or .csv)")
	geojsonOut := fs.String("geojson", "", "also write point features and partition them by month")
	partitionDir := fs.String("partition-dir", "", "directory for monthly GeoJSON files")
	datePolicy := fs.String("date-policy", "", "strict | lenient handling of unparseable dates")
	from := fs.String("from", "", "first month of the window (YYYY-MM)")
	to := fs.String("to", "", "last month of the window (YYYY-MM)")
	version := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString("processor"))
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	applyFlag(&cfg.Processing.Registry, *registry)
	applyFlag(&cfg.Processing.StationDir, *stations)
	applyFlag(&cfg.Processing.Output, *out)
	applyFlag(&cfg.Processing.GeoJSONOutput, *geojsonOut)
	applyFlag(&cfg.Partition.OutputDir, *partitionDir)
	applyFlag(&cfg.Processing.DatePolicy, *datePolicy)
	applyFlag(&cfg.Processing.WindowStart, *from)
	applyFlag(&cfg.Processing.WindowEnd, *to)

	application, err := app.NewApplication(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "failed to start: %v\n", err)
		return 1
	}
	defer application.Shutdown()
	logger := application.Logger

	months, err := cfg.Processing.Months()
	if err != nil {
		logger.Error("Invalid month window", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("Starting registry aggregation",
		slog.String("registry", application.Paths.RegistryFile),
		slog.String("station_dir", application.Paths.StationDir),
		slog.String("output", application.Paths.EnrichedFile),
		slog.String("first_month", months[0].String()),
		slog.String("last_month", months[len(months)-1].String()),
		slog.String("date_policy", cfg.Processing.DatePolicy))

	state, err := application.Run(ctx, operations.RegistryPipeline(application.Dependencies()), months)
	if err != nil {
		if apperrors.IsStructural(err) {
			logger.Error("Structural error, no output written",
				slog.String("step", operations.FailedStep(err)),
				slog.String("error", err.Error()))
		}
		fmt.Fprintf(stderr, "processing failed: %v\n", err)
		return 1
	}

	completeness := state.Enriched.Completeness()
	logger.Info("Data completeness",
		slog.Float64("percent", completeness),
		slog.Int("stations", state.Summary.Stations),
		slog.Int("missing_files", state.Summary.MissingFiles),
		slog.Int("failed", state.Summary.Failed))
	fmt.Fprintf(stdout, "Data completeness: %.2f%%\n", completeness)
	for _, path := range state.Outputs {
		fmt.Fprintf(stdout, "Wrote %s\n", path)
	}
	return 0
}

func applyFlag(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
