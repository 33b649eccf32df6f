package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"aqicli/pkg/contracts/domain"
)

// Paths contains all file locations used by a run. Relative configuration
// values are resolved against BaseDir.
type Paths struct {
	BaseDir            string
	RegistryFile       string
	StationDir         string
	EnrichedFile       string
	GeoJSONFile        string
	PartitionInput     string
	PartitionOutputDir string
	LogFile            string
	TraceFile          string
	MetricsFile        string

	fileSuffix string
}

// GetPaths resolves every configured path. An empty base directory means the
// current working directory.
func GetPaths(cfg *Config) (*Paths, error) {
	base := cfg.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	p := &Paths{BaseDir: base, fileSuffix: cfg.Partition.FileSuffix}
	p.RegistryFile = p.resolve(cfg.Processing.Registry)
	p.StationDir = p.resolve(cfg.Processing.StationDir)
	p.EnrichedFile = p.resolve(cfg.Processing.Output)
	p.GeoJSONFile = p.resolve(cfg.Processing.GeoJSONOutput)
	p.PartitionInput = p.resolve(cfg.Partition.Input)
	p.PartitionOutputDir = p.resolve(cfg.Partition.OutputDir)
	p.LogFile = p.resolve(cfg.Logging.FilePath)
	p.TraceFile = p.resolve(cfg.Telemetry.TraceFile)
	p.MetricsFile = p.resolve(cfg.Telemetry.MetricsFile)
	return p, nil
}

// resolve joins relative paths onto the base directory; "" stays ""
func (p *Paths) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// GetStationPath returns the time-series file for a registry file id
func (p *Paths) GetStationPath(fileName string) string {
	return filepath.Join(p.StationDir, fileName+StationFileExt)
}

// GetMonthlyPath returns the output file for one month
func (p *Paths) GetMonthlyPath(month domain.MonthKey) string {
	return filepath.Join(p.PartitionOutputDir, month.String()+p.fileSuffix+GeoJSONExt)
}

// EnsureDirectories creates every output directory
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.PartitionOutputDir}
	for _, f := range []string{p.EnrichedFile, p.GeoJSONFile, p.LogFile, p.TraceFile, p.MetricsFile} {
		if f != "" {
			dirs = append(dirs, filepath.Dir(f))
		}
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("Resolved paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("registry", p.RegistryFile),
		slog.String("station_dir", p.StationDir),
		slog.String("enriched", p.EnrichedFile),
		slog.String("geojson", p.GeoJSONFile),
		slog.String("partition_input", p.PartitionInput),
		slog.String("partition_output_dir", p.PartitionOutputDir))
}
