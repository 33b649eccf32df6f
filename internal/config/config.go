package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"aqicli/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Partition  PartitionConfig  `yaml:"partition" envconfig:"PARTITION"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
	Store      StoreConfig      `yaml:"store" envconfig:"STORE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir string `yaml:"base_dir" envconfig:"BASE_DIR"`
}

// ProcessingConfig drives the registry aggregation stage
type ProcessingConfig struct {
	Registry      string   `yaml:"registry" envconfig:"REGISTRY" validate:"required"`
	StationDir    string   `yaml:"station_dir" envconfig:"STATION_DIR"`
	Output        string   `yaml:"output" envconfig:"OUTPUT" validate:"required"`
	GeoJSONOutput string   `yaml:"geojson_output" envconfig:"GEOJSON_OUTPUT"`
	DateColumn    string   `yaml:"date_column" envconfig:"DATE_COLUMN" validate:"required"`
	Pollutant     string   `yaml:"pollutant" envconfig:"POLLUTANT" validate:"required"`
	DateLayouts   []string `yaml:"date_layouts" envconfig:"DATE_LAYOUTS" validate:"min=1,dive,required"`
	DatePolicy    string   `yaml:"date_policy" envconfig:"DATE_POLICY" validate:"oneof=strict lenient"`
	WindowStart   string   `yaml:"window_start" envconfig:"WINDOW_START" validate:"required"`
	WindowEnd     string   `yaml:"window_end" envconfig:"WINDOW_END" validate:"required"`
}

// PartitionConfig drives the monthly GeoJSON split
type PartitionConfig struct {
	Input       string `yaml:"input" envconfig:"INPUT" validate:"required"`
	OutputDir   string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	NamePrefix  string `yaml:"name_prefix" envconfig:"NAME_PREFIX"`
	LayerPrefix string `yaml:"layer_prefix" envconfig:"LAYER_PREFIX"`
	FileSuffix  string `yaml:"file_suffix" envconfig:"FILE_SUFFIX"`
	Workers     int    `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=64"`
}

// TelemetryConfig contains tracing and metrics output settings
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	TraceFile     string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// StoreConfig contains the optional Postgres sink settings
type StoreConfig struct {
	DSN   string `yaml:"dsn" envconfig:"DSN"`
	Table string `yaml:"table" envconfig:"TABLE" validate:"required"`
}

// Load builds the configuration from defaults, an optional config file and
// the environment. Environment variables take precedence over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	// Load from config file if exists
	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Only variables that are set override; there are no envconfig defaults
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values on cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and the month window
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, err := c.Processing.Months(); err != nil {
		return err
	}
	return nil
}

// Months returns the configured month window
func (p ProcessingConfig) Months() ([]domain.MonthKey, error) {
	start, err := domain.ParseYearMonth(p.WindowStart)
	if err != nil {
		return nil, fmt.Errorf("window start: %w", err)
	}
	end, err := domain.ParseYearMonth(p.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("window end: %w", err)
	}
	months := domain.MonthRange(start, end)
	if len(months) == 0 {
		return nil, fmt.Errorf("window end %s is before start %s", end, start)
	}
	return months, nil
}

// LenientDates reports whether bad dates drop rows instead of failing the station
func (p ProcessingConfig) LenientDates() bool {
	return strings.EqualFold(p.DatePolicy, DatePolicyLenient)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/aqicli.log",
		},
		Processing: ProcessingConfig{
			Registry:    DefaultRegistryFile,
			StationDir:  ".",
			Output:      DefaultEnrichedFile,
			DateColumn:  "date",
			Pollutant:   "pm25",
			DateLayouts: []string{"2006/1/2", "2006-1-2"},
			DatePolicy:  DatePolicyStrict,
			WindowStart: "2014-01",
			WindowEnd:   "2024-11",
		},
		Partition: PartitionConfig{
			Input:       DefaultPartitionInput,
			OutputDir:   DefaultPartitionDir,
			NamePrefix:  DefaultNamePrefix,
			LayerPrefix: DefaultLayerPrefix,
			FileSuffix:  DefaultFileSuffix,
			Workers:     4,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   AppName,
			TraceExporter: "none",
		},
		Store: StoreConfig{
			Table: DefaultStoreTable,
		},
	}
}
