package partition

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"

	apperrors "aqicli/internal/errors"
	"aqicli/pkg/contracts/domain"
)

// AverageProperty is the derived per-month value on every output feature
const AverageProperty = "Monthly_average"

// ErrNoFeatures is returned when the input collection is empty
var ErrNoFeatures = apperrors.NewStructuralError("feature collection has no features", nil)

// ErrNoMonthColumns is returned when no property names a month
var ErrNoMonthColumns = apperrors.NewStructuralError("no monthly columns found", nil)

// Options configures naming of inputs and outputs
type Options struct {
	// NamePrefix prefixes the output collection name: <NamePrefix>_<column>
	NamePrefix string
	// LayerPrefix prefixes the registry properties of the input features
	LayerPrefix string
	// Months restricts accepted columns when non-empty
	Months []domain.MonthKey
}

// MonthColumn is a property holding one month's values
type MonthColumn struct {
	Month  domain.MonthKey
	Column string
}

// MonthlyCollection is the output for one month
type MonthlyCollection struct {
	MonthColumn
	Collection *geojson.FeatureCollection
}

// Partitioner splits collections by month
type Partitioner struct {
	opts   Options
	window domain.MonthSet
	logger *slog.Logger
}

// New creates a partitioner
func New(opts Options, logger *slog.Logger) *Partitioner {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Partitioner{opts: opts, logger: logger}
	if len(opts.Months) > 0 {
		p.window = domain.NewMonthSet(opts.Months)
	}
	return p
}

// BaseProperties lists the properties copied to every output feature
func (p *Partitioner) BaseProperties() []string {
	base := []string{"left", "bottom", "right", "top", "GEOJOIN"}
	for _, col := range []string{
		domain.ColumnName,
		domain.ColumnAddress,
		domain.ColumnFileName,
		domain.ColumnLat,
		domain.ColumnLong,
		domain.ColumnCurrentAQI,
	} {
		base = append(base, p.layerKey(col))
	}
	return base
}

func (p *Partitioner) layerKey(col string) string {
	if p.opts.LayerPrefix == "" {
		return col
	}
	return p.opts.LayerPrefix + "_" + col
}

// MonthColumns discovers month properties on the first feature, in
// chronological order
func (p *Partitioner) MonthColumns(fc *geojson.FeatureCollection) ([]MonthColumn, error) {
	if fc == nil || len(fc.Features) == 0 {
		return nil, ErrNoFeatures
	}

	seen := make(map[domain.MonthKey]string)
	for key := range fc.Features[0].Properties {
		month, ok := monthOfColumn(key)
		if !ok {
			continue
		}
		if p.window != nil && !p.window.Contains(month) {
			continue
		}
		// The lexically smallest key wins so the choice is stable
		if prev, dup := seen[month]; dup {
			kept, ignored := prev, key
			if key < prev {
				kept, ignored = key, prev
			}
			p.logger.Warn("Duplicate month column",
				slog.String("month", month.String()),
				slog.String("kept", kept),
				slog.String("ignored", ignored))
			seen[month] = kept
			continue
		}
		seen[month] = key
	}
	if len(seen) == 0 {
		return nil, ErrNoMonthColumns
	}

	columns := make([]MonthColumn, 0, len(seen))
	for month, column := range seen {
		columns = append(columns, MonthColumn{Month: month, Column: column})
	}
	sort.Slice(columns, func(i, j int) bool {
		return columns[i].Month.Before(columns[j].Month)
	})
	return columns, nil
}

func monthOfColumn(key string) (domain.MonthKey, bool) {
	segment := key
	if i := strings.LastIndex(key, "_"); i >= 0 {
		segment = key[i+1:]
	}
	month, err := domain.ParseMonthKey(segment)
	return month, err == nil
}

// Partition builds one collection per month column. Every output holds the
// same features in input order.
func (p *Partitioner) Partition(fc *geojson.FeatureCollection) ([]MonthlyCollection, error) {
	columns, err := p.MonthColumns(fc)
	if err != nil {
		return nil, err
	}

	base := p.BaseProperties()
	crs, hasCRS := fc.ExtraMembers["crs"]

	out := make([]MonthlyCollection, 0, len(columns))
	for _, mc := range columns {
		collection := geojson.NewFeatureCollection()
		collection.ExtraMembers = geojson.Properties{
			"name": p.CollectionName(mc.Column),
		}
		if hasCRS {
			collection.ExtraMembers["crs"] = crs
		}

		for _, feature := range fc.Features {
			collection.Append(p.monthlyFeature(feature, base, mc.Column))
		}
		out = append(out, MonthlyCollection{MonthColumn: mc, Collection: collection})
	}

	p.logger.Info("Partitioned feature collection",
		slog.Int("features", len(fc.Features)),
		slog.Int("months", len(out)))

	return out, nil
}

// CollectionName returns the name member of a month's collection
func (p *Partitioner) CollectionName(column string) string {
	if p.opts.NamePrefix == "" {
		return column
	}
	return p.opts.NamePrefix + "_" + column
}

func (p *Partitioner) monthlyFeature(src *geojson.Feature, base []string, column string) *geojson.Feature {
	f := geojson.NewFeature(src.Geometry)
	f.ID = src.ID
	f.BBox = src.BBox

	for _, key := range base {
		// Absent keys are written as null
		f.Properties[key] = src.Properties[key]
	}
	f.Properties[AverageProperty] = MonthlyAverage(src.Properties, column)
	return f
}

// MonthlyAverage reads a month property. Null and absent values become 0,
// numbers and numeric strings become float64, and any other value is kept
// as it is.
func MonthlyAverage(props geojson.Properties, column string) interface{} {
	raw := props[column]
	if v := propertyValue(raw); v.Valid {
		return v.Value
	}
	if isNull(raw) {
		return domain.Missing().OrZero()
	}
	return raw
}

func propertyValue(raw interface{}) domain.OptionalFloat {
	switch v := raw.(type) {
	case float64:
		return domain.Some(v)
	case *float64:
		if v != nil {
			return domain.Some(*v)
		}
	case int:
		return domain.Some(float64(v))
	case int64:
		return domain.Some(float64(v))
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return domain.Some(f)
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return domain.Some(f)
		}
	}
	return domain.Missing()
}

func isNull(raw interface{}) bool {
	if raw == nil {
		return true
	}
	p, ok := raw.(*float64)
	return ok && p == nil
}

// Load reads a feature collection from disk. Failures are structural.
func Load(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStructuralError("feature collection unreadable", err).
			WithContext("path", path)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, apperrors.NewStructuralError("invalid feature collection", err).
			WithContext("path", path)
	}
	return fc, nil
}

// IsEmptyInput reports whether err means there was nothing to partition
func IsEmptyInput(err error) bool {
	return errors.Is(err, ErrNoFeatures) || errors.Is(err, ErrNoMonthColumns)
}

// FileName returns the output file name for a month, e.g. Jan2014_average.geojson
func FileName(month domain.MonthKey, suffix string) string {
	return fmt.Sprintf("%s%s.geojson", month, suffix)
}
