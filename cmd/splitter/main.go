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
	"aqicli/internal/operations"
	"aqicli/internal/partition"
	"aqicli/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("splitter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "input feature collection")
	outDir := fs.String("out", "", "output directory for monthly files")
	workers := fs.Int("workers", 0, "parallel file writers")
	version := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString("splitter"))
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	if *in != "" {
		cfg.Partition.Input = *in
	}
	if *outDir != "" {
		cfg.Partition.OutputDir = *outDir
	}
	if *workers > 0 {
		cfg.Partition.Workers = *workers
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "failed to start: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	application.Logger.Info("Starting monthly split",
		slog.String("input", application.Paths.PartitionInput),
		slog.String("output_dir", application.Paths.PartitionOutputDir),
		slog.Int("workers", cfg.Partition.Workers))

	state, err := application.Run(ctx, operations.PartitionPipeline(application.Dependencies()), nil)
	if err != nil {
		if partition.IsEmptyInput(err) {
			application.Logger.Error("Nothing to partition", slog.String("error", err.Error()))
		}
		fmt.Fprintf(stderr, "split failed: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Wrote %d monthly collections to %s\n", len(state.Collections), application.Paths.PartitionOutputDir)
	return 0
}
