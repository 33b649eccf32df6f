package operations

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqicli/internal/config"
	"aqicli/internal/files"
	"aqicli/internal/partition"
	"aqicli/pkg/contracts/domain"
)

type memoryStore struct {
	ensured bool
	saved   *domain.EnrichedRegistry
	closed  bool
}

func (s *memoryStore) EnsureSchema(context.Context) error {
	s.ensured = true
	return nil
}

func (s *memoryStore) SaveRegistry(_ context.Context, reg *domain.EnrichedRegistry) (int, error) {
	s.saved = reg
	return len(reg.Stations) * len(reg.Months), nil
}

func (s *memoryStore) Close() error {
	s.closed = true
	return nil
}

func setupPipeline(t *testing.T) (*Dependencies, []domain.MonthKey) {
	t.Helper()
	dir := t.TempDir()

	registry := "Name,file_name,Lat,Long,address,Current AQI\n" +
		"A,a,39.9,116.4,Dongcheng,55\n" +
		"B,b,31.2,121.5,Huangpu,40\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "registry.csv"), []byte(registry), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stations"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stations", "a.csv"),
		[]byte("date, pm25\n2014/1/1,10\n2014/1/2,20\n2014/1/3,bad\n2014/1/4,30\n2014/2/1,8\n"), 0644))

	cfg := config.Default()
	cfg.Paths.BaseDir = dir
	cfg.Processing.Registry = "registry.csv"
	cfg.Processing.StationDir = "stations"
	cfg.Processing.Output = "out/ChinaAQIPoints_Updated.xlsx"
	cfg.Processing.GeoJSONOutput = "out/china_aqi.geojson"
	cfg.Processing.WindowStart = "2014-01"
	cfg.Processing.WindowEnd = "2014-03"
	cfg.Store.DSN = "postgres://example"

	paths, err := config.GetPaths(cfg)
	require.NoError(t, err)
	months, err := cfg.Processing.Months()
	require.NoError(t, err)

	return &Dependencies{
		Config: cfg,
		Paths:  paths,
		Files:  files.NewManager(paths),
		Logger: slog.Default(),
	}, months
}

func TestRegistryPipeline_EndToEnd(t *testing.T) {
	deps, months := setupPipeline(t)
	mem := &memoryStore{}
	deps.OpenStore = func(_ context.Context, dsn, table string, _ *slog.Logger) (RegistryStore, error) {
		assert.Equal(t, "postgres://example", dsn)
		assert.Equal(t, config.DefaultStoreTable, table)
		return mem, nil
	}

	m := NewManager(nil, nil)
	require.NoError(t, m.RegisterStages(RegistryPipeline(deps)...))

	state := NewState("e2e", months)
	require.NoError(t, m.Execute(context.Background(), state))

	jan := domain.MonthKey{Year: 2014, Month: time.January}
	feb := domain.MonthKey{Year: 2014, Month: time.February}
	mar := domain.MonthKey{Year: 2014, Month: time.March}

	// Station A has data, station B's file is missing
	assert.Equal(t, domain.Some(20), state.Enriched.Value(0, jan))
	assert.Equal(t, domain.Some(8), state.Enriched.Value(0, feb))
	assert.False(t, state.Enriched.Value(0, mar).Valid)
	for _, month := range months {
		assert.False(t, state.Enriched.Value(1, month).Valid)
	}
	assert.Equal(t, 1, state.Summary.MissingFiles)

	assert.FileExists(t, deps.Paths.EnrichedFile)
	assert.FileExists(t, deps.Paths.GeoJSONFile)

	require.Len(t, state.Collections, len(months))
	for _, mc := range state.Collections {
		assert.Len(t, mc.Collection.Features, 2)
		assert.FileExists(t, filepath.Join(deps.Paths.PartitionOutputDir, partition.FileName(mc.Month, "_average")))
	}
	marFeatures := state.Collections[2].Collection.Features
	assert.Equal(t, 0.0, marFeatures[0].Properties[partition.AverageProperty])

	assert.True(t, mem.ensured)
	assert.True(t, mem.closed)
	assert.Same(t, state.Enriched, mem.saved)
	assert.Len(t, state.Outputs, 2+len(months))
}

func TestRegistryPipeline_OptionalStepsSkipped(t *testing.T) {
	deps, months := setupPipeline(t)
	deps.Config.Store.DSN = ""
	deps.Paths.GeoJSONFile = ""

	m := NewManager(nil, nil)
	require.NoError(t, m.RegisterStages(RegistryPipeline(deps)...))

	state := NewState("skip", months)
	require.NoError(t, m.Execute(context.Background(), state))

	for _, id := range []string{StepExportGeoJSON, StepStore, StepPartition} {
		assert.Equal(t, StepStatusSkipped, state.GetStep(id).GetStatus(), id)
	}
	assert.Equal(t, StepStatusCompleted, state.GetStep(StepExportRegistry).GetStatus())
	assert.Empty(t, state.Collections)
}

func TestPartitionPipeline(t *testing.T) {
	deps, months := setupPipeline(t)
	deps.Config.Store.DSN = ""

	// Produce the GeoJSON with the registry pipeline, then split it on its own
	m := NewManager(nil, nil)
	require.NoError(t, m.RegisterStages(RegistryPipeline(deps)[:5]...))
	require.NoError(t, m.Execute(context.Background(), NewState("build", months)))

	deps.Paths.PartitionInput = deps.Paths.GeoJSONFile
	deps.Paths.PartitionOutputDir = filepath.Join(deps.Paths.BaseDir, "split")

	splitter := NewManager(nil, nil)
	require.NoError(t, splitter.RegisterStages(PartitionPipeline(deps)...))
	state := NewState("split", nil)
	require.NoError(t, splitter.Execute(context.Background(), state))

	entries, err := os.ReadDir(deps.Paths.PartitionOutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, len(months))
	assert.Equal(t, "Jan2014_average.geojson", filepath.Base(state.Outputs[0]))
}

func TestLoadRegistryStep_Structural(t *testing.T) {
	deps, months := setupPipeline(t)
	deps.Paths.RegistryFile = filepath.Join(deps.Paths.BaseDir, "missing.xlsx")

	m := NewManager(nil, nil)
	require.NoError(t, m.RegisterStages(RegistryPipeline(deps)...))

	state := NewState("broken", months)
	err := m.Execute(context.Background(), state)
	require.Error(t, err)
	assert.Equal(t, StepLoadRegistry, FailedStep(err))
	assert.Empty(t, state.Outputs)
	assert.NoFileExists(t, deps.Paths.EnrichedFile)
}
