package partition

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"aqicli/internal/files"
)

// CollectionRecorder receives one call per written collection
type CollectionRecorder interface {
	RecordCollection(ctx context.Context, month string)
}

// Writer stores monthly collections as indented GeoJSON files
type Writer struct {
	files    *files.Manager
	workers  int
	suffix   string
	recorder CollectionRecorder
	logger   *slog.Logger
}

// NewWriter creates a writer using at most workers goroutines
func NewWriter(fm *files.Manager, workers int, suffix string, recorder CollectionRecorder, logger *slog.Logger) *Writer {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{files: fm, workers: workers, suffix: suffix, recorder: recorder, logger: logger}
}

// WriteAll writes each collection to dir/<Month><suffix>.geojson and returns
// the paths in collection order. The first failure cancels pending writes.
func (w *Writer) WriteAll(ctx context.Context, dir string, collections []MonthlyCollection) ([]string, error) {
	if err := w.files.EnsureDirectory(dir); err != nil {
		return nil, err
	}

	paths := make([]string, len(collections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	for i, mc := range collections {
		path := filepath.Join(dir, FileName(mc.Month, w.suffix))
		paths[i] = path

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := w.files.WriteAtomic(path, func(out io.Writer) error {
				return Encode(out, mc)
			}); err != nil {
				return err
			}

			if w.recorder != nil {
				w.recorder.RecordCollection(gctx, mc.Month.String())
			}
			w.logger.Debug("Wrote monthly collection",
				slog.String("month", mc.Month.String()),
				slog.String("path", path),
				slog.Int("features", len(mc.Collection.Features)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	w.logger.Info("Monthly collections written",
		slog.Int("count", len(collections)),
		slog.String("dir", dir))
	return paths, nil
}

// Encode writes a collection as JSON indented by two spaces
func Encode(out io.Writer, mc MonthlyCollection) error {
	data, err := json.MarshalIndent(mc.Collection, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = out.Write(data)
	return err
}
