package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/hrv.report/internal/fsutil"
	"github.com/banshee-data/hrv.report/internal/monitoring"
)

// RunBatch analyses every path and tabulates the accepted recordings.
//
// Items run concurrently, bounded by the configured worker count. A load
// error, validation failure or panic in one item becomes a Warning and the
// item is left out of Rows; other items are unaffected. Rows and Warnings
// follow input order. The only returned error is ctx's.
func (a *Analyzer) RunBatch(ctx context.Context, fsys fsutil.FileSystem, paths []string) (*Table, error) {
	table := &Table{
		RunID:     uuid.New().String(),
		StartedAt: a.clock.Now(),
	}

	records := make([]*Record, len(paths))
	reasons := make([]string, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.GetWorkers())
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := a.analyzeItem(fsys, path)
			if err != nil {
				reasons[i] = err.Error()
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch %s cancelled: %w", table.RunID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch %s cancelled: %w", table.RunID, err)
	}

	for i, path := range paths {
		if rec := records[i]; rec != nil {
			table.Records = append(table.Records, rec)
			table.Rows = append(table.Rows, rowFromRecord(rec))
			continue
		}
		w := Warning{Name: filepath.Base(path), Reason: reasons[i]}
		monitoring.Logf("warning: pipeline: skipped %s: %s", w.Name, w.Reason)
		table.Warnings = append(table.Warnings, w)
	}

	table.Elapsed = a.clock.Since(table.StartedAt)
	monitoring.Logf("pipeline: run %s: %d analysed, %d skipped in %v",
		table.RunID, len(table.Rows), len(table.Warnings), table.Elapsed)
	return table, nil
}

func (a *Analyzer) analyzeItem(fsys fsutil.FileSystem, path string) (rec *Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("panic during analysis: %v", r)
		}
	}()
	return a.AnalyzeFile(fsys, path)
}
