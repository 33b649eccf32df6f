// Package geojoin expresses an enriched registry as a point feature
// collection in the layout the partitioner consumes.
package geojoin

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"aqicli/pkg/contracts/domain"
)

// CRS84 is the named CRS member written on every collection
var CRS84 = map[string]interface{}{
	"type": "name",
	"properties": map[string]interface{}{
		"name": "urn:ogc:def:crs:OGC:1.3:CRS84",
	},
}

// Options configures property naming
type Options struct {
	// Name is the collection's name member
	Name string
	// LayerPrefix prefixes every registry and month property
	LayerPrefix string
}

// Build converts every station into a point feature. Registry cells become
// prefixed properties, numeric cells as numbers; months without data are null.
func Build(reg *domain.EnrichedRegistry, opts Options) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{"crs": CRS84}
	if opts.Name != "" {
		fc.ExtraMembers["name"] = opts.Name
	}

	for i, station := range reg.Stations {
		point := orb.Point{station.Long, station.Lat}
		bound := point.Bound()

		f := geojson.NewFeature(point)
		f.Properties["left"] = bound.Left()
		f.Properties["bottom"] = bound.Bottom()
		f.Properties["right"] = bound.Right()
		f.Properties["top"] = bound.Top()
		f.Properties["GEOJOIN"] = station.FileName

		for j, col := range reg.Columns {
			raw := ""
			if j < len(station.Row) {
				raw = strings.TrimSpace(station.Row[j])
			}
			f.Properties[prefixed(opts.LayerPrefix, col)] = cellValue(raw)
		}
		for j, month := range reg.Months {
			f.Properties[prefixed(opts.LayerPrefix, month.String())] = reg.Cells[i][j].Ptr()
		}

		fc.Append(f)
	}
	return fc
}

// Encode writes the collection as JSON indented by two spaces
func Encode(w io.Writer, fc *geojson.FeatureCollection) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func prefixed(prefix, col string) string {
	if prefix == "" {
		return col
	}
	return prefix + "_" + col
}

func cellValue(raw string) interface{} {
	if raw == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil && strconv.FormatFloat(v, 'f', -1, 64) == raw {
		return v
	}
	return raw
}
