package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"aqicli/internal/config"
	"aqicli/internal/dataprocessing"
	"aqicli/internal/exporter"
	"aqicli/internal/files"
	"aqicli/internal/geojoin"
	"aqicli/internal/infrastructure"
	"aqicli/internal/partition"
	"aqicli/internal/store"
	"aqicli/internal/validation"
	"aqicli/pkg/contracts/domain"
)

// Step IDs
const (
	StepLoadRegistry   = "load_registry"
	StepAggregate      = "aggregate_stations"
	StepJoin           = "join_registry"
	StepExportRegistry = "export_registry"
	StepExportGeoJSON  = "export_geojson"
	StepStore          = "store_averages"
	StepLoadFeatures   = "load_features"
	StepPartition      = "partition_months"
)

// RegistryStore persists an enriched registry
type RegistryStore interface {
	EnsureSchema(ctx context.Context) error
	SaveRegistry(ctx context.Context, reg *domain.EnrichedRegistry) (int, error)
	Close() error
}

// StoreOpener connects a RegistryStore
type StoreOpener func(ctx context.Context, dsn, table string, logger *slog.Logger) (RegistryStore, error)

// OpenPostgres is the default StoreOpener
func OpenPostgres(ctx context.Context, dsn, table string, logger *slog.Logger) (RegistryStore, error) {
	return store.Open(ctx, dsn, table, logger)
}

// Dependencies are shared by every step of a pipeline
type Dependencies struct {
	Config    *config.Config
	Paths     *config.Paths
	Files     *files.Manager
	Metrics   *infrastructure.PipelineMetrics
	Logger    *slog.Logger
	OpenStore StoreOpener
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// LoadRegistryStep reads the station registry
type LoadRegistryStep struct {
	BaseStage
	deps *Dependencies
}

// NewLoadRegistryStep creates the registry loading step
func NewLoadRegistryStep(deps *Dependencies) *LoadRegistryStep {
	return &LoadRegistryStep{BaseStage: NewBaseStage(StepLoadRegistry, "Load Registry"), deps: deps}
}

// Execute parses the registry file
func (s *LoadRegistryStep) Execute(ctx context.Context, state *State) error {
	path := s.deps.Paths.RegistryFile
	if err := validation.NewFileValidator(s.deps.logger()).ValidateRegistryFile(path); err != nil {
		return err
	}
	reg, err := dataprocessing.ParseRegistry(path)
	if err != nil {
		return err
	}
	state.Registry = reg
	state.GetStep(s.ID()).SetMetadata("stations", len(reg.Stations))
	return nil
}

// AggregateStep reduces every station's series to monthly averages
type AggregateStep struct {
	BaseStage
	deps *Dependencies
}

// NewAggregateStep creates the aggregation step
func NewAggregateStep(deps *Dependencies) *AggregateStep {
	return &AggregateStep{BaseStage: NewBaseStage(StepAggregate, "Aggregate Stations"), deps: deps}
}

// Execute processes the stations one after another
func (s *AggregateStep) Execute(ctx context.Context, state *State) error {
	if state.Registry == nil {
		return NewInvalidStateError(s.ID(), "registry not loaded")
	}

	cfg := s.deps.Config.Processing
	opts := dataprocessing.StationFileOptions{
		DateColumn:   cfg.DateColumn,
		ValueColumn:  cfg.Pollutant,
		DateLayouts:  cfg.DateLayouts,
		LenientDates: cfg.LenientDates(),
	}
	logger := s.deps.logger()
	validation.NewFileValidator(logger).ValidateStationDirectory(s.deps.Paths.StationDir, config.StationFileExt)

	agg := dataprocessing.NewAggregator(s.deps.Files, opts, state.Months, logger)
	stepState := state.GetStep(s.ID())

	results, err := agg.AggregateAll(ctx, state.Registry, func(current, total int, station domain.Station) {
		logger.InfoContext(ctx, "Processing station",
			slog.Int("current", current),
			slog.Int("total", total),
			slog.String("station", station.Name))
		stepState.UpdateProgress(float64(current-1)/float64(total)*100, station.Name)
	})
	if err != nil {
		return err
	}

	for _, r := range results {
		s.deps.Metrics.RecordStation(ctx, outcomeOf(r))
		s.deps.Metrics.RecordReadings(ctx, r.Stats.Accepted, r.Stats.InvalidValue, r.Stats.InvalidDate)
	}

	state.Results = results
	state.Summary = dataprocessing.Summarize(results)
	stepState.SetMetadata("succeeded", state.Summary.Succeeded)
	stepState.SetMetadata("failed", state.Summary.Failed)
	stepState.SetMetadata("missing_files", state.Summary.MissingFiles)

	logger.InfoContext(ctx, "Stations aggregated",
		slog.Int("stations", state.Summary.Stations),
		slog.Int("succeeded", state.Summary.Succeeded),
		slog.Int("failed", state.Summary.Failed),
		slog.Int("missing_files", state.Summary.MissingFiles),
		slog.Int("readings_accepted", state.Summary.Readings.Accepted),
		slog.Int("readings_invalid_value", state.Summary.Readings.InvalidValue),
		slog.Int("readings_invalid_date", state.Summary.Readings.InvalidDate))
	return nil
}

func outcomeOf(r dataprocessing.StationResult) string {
	switch {
	case r.OK():
		return infrastructure.OutcomeOK
	case dataprocessing.IsMissingFile(r.Err):
		return infrastructure.OutcomeMissingFile
	default:
		return infrastructure.OutcomeFailed
	}
}

// JoinStep builds the enriched registry
type JoinStep struct {
	BaseStage
	deps *Dependencies
}

// NewJoinStep creates the join step
func NewJoinStep(deps *Dependencies) *JoinStep {
	return &JoinStep{BaseStage: NewBaseStage(StepJoin, "Join Registry"), deps: deps}
}

// Execute writes station averages into the month columns
func (s *JoinStep) Execute(ctx context.Context, state *State) error {
	if state.Registry == nil {
		return NewInvalidStateError(s.ID(), "registry not loaded")
	}
	state.Enriched = dataprocessing.Join(state.Registry, state.Months, state.Results)

	completeness := state.Enriched.Completeness()
	s.deps.Metrics.RecordCompleteness(ctx, completeness)
	state.GetStep(s.ID()).SetMetadata("completeness", completeness)

	s.deps.logger().InfoContext(ctx, "Registry joined",
		slog.Int("filled_cells", state.Enriched.FilledCells()),
		slog.Float64("completeness_percent", completeness))
	return nil
}

// ExportRegistryStep writes the enriched registry file
type ExportRegistryStep struct {
	BaseStage
	deps *Dependencies
}

// NewExportRegistryStep creates the registry export step
func NewExportRegistryStep(deps *Dependencies) *ExportRegistryStep {
	return &ExportRegistryStep{BaseStage: NewBaseStage(StepExportRegistry, "Export Registry"), deps: deps}
}

// Execute writes the workbook or CSV
func (s *ExportRegistryStep) Execute(ctx context.Context, state *State) error {
	if state.Enriched == nil {
		return NewInvalidStateError(s.ID(), "enriched registry not built")
	}
	path := s.deps.Paths.EnrichedFile
	if err := exporter.NewRegistryExporter(s.deps.Files).Export(path, state.Enriched); err != nil {
		return err
	}
	state.AddOutput(path)
	return nil
}

// ExportGeoJSONStep expresses the enriched registry as point features
type ExportGeoJSONStep struct {
	BaseStage
	deps *Dependencies
}

// NewExportGeoJSONStep creates the GeoJSON export step
func NewExportGeoJSONStep(deps *Dependencies) *ExportGeoJSONStep {
	return &ExportGeoJSONStep{BaseStage: NewBaseStage(StepExportGeoJSON, "Export GeoJSON"), deps: deps}
}

// ShouldRun requires a GeoJSON output path
func (s *ExportGeoJSONStep) ShouldRun(state *State) (bool, string) {
	if s.deps.Paths.GeoJSONFile == "" {
		return false, "no GeoJSON output configured"
	}
	return true, ""
}

// Execute builds and writes the feature collection
func (s *ExportGeoJSONStep) Execute(ctx context.Context, state *State) error {
	if state.Enriched == nil {
		return NewInvalidStateError(s.ID(), "enriched registry not built")
	}
	fc := geojoin.Build(state.Enriched, geojoin.Options{
		Name:        s.deps.Config.Partition.NamePrefix,
		LayerPrefix: s.deps.Config.Partition.LayerPrefix,
	})

	path := s.deps.Paths.GeoJSONFile
	if err := s.deps.Files.WriteAtomic(path, func(w io.Writer) error {
		return geojoin.Encode(w, fc)
	}); err != nil {
		return err
	}
	state.Features = fc
	state.AddOutput(path)
	return nil
}

// StoreStep upserts the enriched registry into PostgreSQL
type StoreStep struct {
	BaseStage
	deps *Dependencies
}

// NewStoreStep creates the storage step
func NewStoreStep(deps *Dependencies) *StoreStep {
	return &StoreStep{BaseStage: NewBaseStage(StepStore, "Store Averages"), deps: deps}
}

// ShouldRun requires a configured DSN
func (s *StoreStep) ShouldRun(state *State) (bool, string) {
	if s.deps.Config.Store.DSN == "" {
		return false, "no store DSN configured"
	}
	return true, ""
}

// Execute writes every station × month cell
func (s *StoreStep) Execute(ctx context.Context, state *State) error {
	if state.Enriched == nil {
		return NewInvalidStateError(s.ID(), "enriched registry not built")
	}
	open := s.deps.OpenStore
	if open == nil {
		open = OpenPostgres
	}

	st, err := open(ctx, s.deps.Config.Store.DSN, s.deps.Config.Store.Table, s.deps.logger())
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}
	n, err := st.SaveRegistry(ctx, state.Enriched)
	if err != nil {
		return err
	}
	state.GetStep(s.ID()).SetMetadata("rows", n)
	return nil
}

// LoadFeaturesStep reads the feature collection to partition
type LoadFeaturesStep struct {
	BaseStage
	deps *Dependencies
}

// NewLoadFeaturesStep creates the feature loading step
func NewLoadFeaturesStep(deps *Dependencies) *LoadFeaturesStep {
	return &LoadFeaturesStep{BaseStage: NewBaseStage(StepLoadFeatures, "Load Features"), deps: deps}
}

// Execute parses the input GeoJSON
func (s *LoadFeaturesStep) Execute(ctx context.Context, state *State) error {
	fc, err := partition.Load(s.deps.Paths.PartitionInput)
	if err != nil {
		return err
	}
	state.Features = fc
	state.GetStep(s.ID()).SetMetadata("features", len(fc.Features))
	return nil
}

// PartitionStep splits the feature collection into monthly files
type PartitionStep struct {
	BaseStage
	deps *Dependencies
}

// NewPartitionStep creates the partition step
func NewPartitionStep(deps *Dependencies) *PartitionStep {
	return &PartitionStep{BaseStage: NewBaseStage(StepPartition, "Partition Months"), deps: deps}
}

// ShouldRun requires a feature collection from an earlier step
func (s *PartitionStep) ShouldRun(state *State) (bool, string) {
	if state.Features == nil {
		return false, "no feature collection to partition"
	}
	return true, ""
}

// Execute partitions and writes one file per month
func (s *PartitionStep) Execute(ctx context.Context, state *State) error {
	cfg := s.deps.Config.Partition
	logger := s.deps.logger()

	p := partition.New(partition.Options{
		NamePrefix:  cfg.NamePrefix,
		LayerPrefix: cfg.LayerPrefix,
	}, logger)
	collections, err := p.Partition(state.Features)
	if err != nil {
		return err
	}
	state.Collections = collections

	if err := validation.NewFileValidator(logger).ValidateOutputDirectory(s.deps.Paths.PartitionOutputDir); err != nil {
		return err
	}
	w := partition.NewWriter(s.deps.Files, cfg.Workers, cfg.FileSuffix, s.deps.Metrics, logger)
	paths, err := w.WriteAll(ctx, s.deps.Paths.PartitionOutputDir, collections)
	if err != nil {
		return fmt.Errorf("writing monthly collections: %w", err)
	}
	state.AddOutput(paths...)
	state.GetStep(s.ID()).SetMetadata("collections", len(paths))
	return nil
}
