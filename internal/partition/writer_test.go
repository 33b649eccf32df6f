package partition

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqicli/internal/config"
	"aqicli/internal/files"
)

type countingRecorder struct {
	mu     sync.Mutex
	months []string
}

func (r *countingRecorder) RecordCollection(_ context.Context, month string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.months = append(r.months, month)
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	fm := files.NewManager(&config.Paths{BaseDir: dir})
	recorder := &countingRecorder{}
	w := NewWriter(fm, 2, "_average", recorder, nil)

	out, err := New(testOptions(), nil).Partition(testCollection())
	require.NoError(t, err)

	outDir := filepath.Join(dir, "output")
	paths, err := w.WriteAll(context.Background(), outDir, out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(outDir, "Jan2014_average.geojson"),
		filepath.Join(outDir, "Feb2014_average.geojson"),
	}, paths)
	assert.ElementsMatch(t, []string{"Jan2014", "Feb2014"}, recorder.months)

	first, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(first)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)
	assert.Equal(t, "ChinaAQI_"+layer+"_Jan2014", fc.ExtraMembers["name"])
	assert.Contains(t, string(first), "\n  \"")

	// Re-running produces identical files
	_, err = w.WriteAll(context.Background(), outDir, out)
	require.NoError(t, err)
	again, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, first, again)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestWriteAll_Cancelled(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(files.NewManager(&config.Paths{BaseDir: dir}), 1, "_average", nil, nil)

	out, err := New(testOptions(), nil).Partition(testCollection())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.WriteAll(ctx, dir, out)
	assert.ErrorIs(t, err, context.Canceled)
}
