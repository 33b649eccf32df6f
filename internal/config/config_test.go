package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqicli/pkg/contracts/domain"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	months, err := cfg.Processing.Months()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMonths(), months)
	assert.False(t, cfg.Processing.LenientDates())
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
processing:
  pollutant: pm10
  date_policy: lenient
partition:
  workers: 2
`)
	t.Setenv("AQ_CONFIG_FILE", path)
	t.Setenv("AQ_PARTITION_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	// File overrides defaults
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "pm10", cfg.Processing.Pollutant)
	assert.True(t, cfg.Processing.LenientDates())
	// Environment overrides file
	assert.Equal(t, 8, cfg.Partition.Workers)
	// Untouched values keep their defaults
	assert.Equal(t, DefaultRegistryFile, cfg.Processing.Registry)
	assert.Equal(t, []string{"2006/1/2", "2006-1-2"}, cfg.Processing.DateLayouts)
}

func TestLoadEnvironmentList(t *testing.T) {
	t.Setenv("AQ_CONFIG_FILE", writeConfigFile(t, "{}\n"))
	t.Setenv("AQ_PROCESSING_DATE_LAYOUTS", "2006.01.02,02/01/2006")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"2006.01.02", "02/01/2006"}, cfg.Processing.DateLayouts)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{
			name: "invalid yaml",
			file: "logging: [",
		},
		{
			name: "missing file",
			env:  map[string]string{"AQ_CONFIG_FILE": filepath.Join(os.TempDir(), "does-not-exist.yaml")},
		},
		{
			name: "bad env type",
			file: "{}\n",
			env:  map[string]string{"AQ_PARTITION_WORKERS": "many"},
		},
		{
			name: "invalid log level",
			file: "logging:\n  level: loud\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.file != "" {
				t.Setenv("AQ_CONFIG_FILE", writeConfigFile(t, tt.file))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "date policy", modify: func(c *Config) { c.Processing.DatePolicy = "fuzzy" }},
		{name: "no date layouts", modify: func(c *Config) { c.Processing.DateLayouts = nil }},
		{name: "empty date layout", modify: func(c *Config) { c.Processing.DateLayouts = []string{""} }},
		{name: "zero workers", modify: func(c *Config) { c.Partition.Workers = 0 }},
		{name: "trace exporter", modify: func(c *Config) { c.Telemetry.TraceExporter = "otlp" }},
		{name: "missing registry", modify: func(c *Config) { c.Processing.Registry = "" }},
		{name: "bad window start", modify: func(c *Config) { c.Processing.WindowStart = "Jan2014" }},
		{name: "reversed window", modify: func(c *Config) {
			c.Processing.WindowStart = "2020-01"
			c.Processing.WindowEnd = "2019-12"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestProcessingMonthsCustomWindow(t *testing.T) {
	p := Default().Processing
	p.WindowStart = "2014-11"
	p.WindowEnd = "2015-02"

	months, err := p.Months()
	require.NoError(t, err)
	require.Len(t, months, 4)
	assert.Equal(t, domain.MonthKey{Year: 2014, Month: time.November}, months[0])
	assert.Equal(t, domain.MonthKey{Year: 2015, Month: time.February}, months[3])
}
