/*
	Photark
	Copyright (c) 2026 The Photark Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options selects a run's mode.
type Options struct {
	// Import processes the staging directory instead of the archive
	// root, copying new files into the archive and preserving sources.
	Import bool

	// MoveDuplicates relocates duplicates into the duplicates area
	// instead of just logging them.
	MoveDuplicates bool

	// Force ignores directory watermarks and re-scans everything.
	Force bool

	// Workers overrides the configured pool size when positive.
	Workers int
}

// RunStats counts what a run did. Fields are updated atomically by
// concurrent workers.
type RunStats struct {
	Processed     int64
	Skipped       int64
	New           int64
	Duplicates    int64
	Relocated     int64
	Imported      int64
	Errors        int64
	DirsSeen      int64
	DirsUnchanged int64
}

// Run synchronizes the archive tree (or, in import mode, ingests the
// staging tree). Directory recursion is single-threaded; the files of
// one directory at a time fan out to a bounded worker pool, and the
// directory's watermark commits only after that whole batch joins.
func (a *Archive) Run(ctx context.Context, opts Options) (*RunStats, error) {
	root := a.cfg.ArchiveRoot
	if opts.Import {
		if a.cfg.StagingDir == "" {
			return nil, fmt.Errorf("no staging directory configured")
		}
		root = a.cfg.StagingDir
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = a.cfg.Workers
	}
	if workers <= 0 {
		workers = 1
	}

	// claims from a previous run are no longer in flight
	a.claimsMu.Lock()
	a.claims = make(map[Fingerprint]struct{})
	a.claimsMu.Unlock()

	logger := a.log.Named("sync").With(
		zap.String("root", root),
		zap.Bool("import", opts.Import),
		zap.Int("workers", workers))

	stats := new(RunStats)
	start := time.Now()

	jobs := make(chan func())
	var pool sync.WaitGroup
	for range workers {
		pool.Add(1)
		go func() {
			defer pool.Done()
			for job := range jobs {
				job()
			}
		}()
	}

	a.processDir(ctx, logger, root, root, opts, jobs, stats)

	close(jobs)
	pool.Wait()

	logger.Info("run complete",
		zap.Duration("duration", time.Since(start)),
		zap.Int64("processed", stats.Processed),
		zap.Int64("new", stats.New),
		zap.Int64("duplicates", stats.Duplicates),
		zap.Int64("relocated", stats.Relocated),
		zap.Int64("imported", stats.Imported),
		zap.Int64("skipped", stats.Skipped),
		zap.Int64("errors", stats.Errors),
		zap.Int64("dirs_seen", stats.DirsSeen),
		zap.Int64("dirs_unchanged", stats.DirsUnchanged))

	return stats, nil
}

// processDir enumerates one directory, recurses into subdirectories
// first (pre-order, completing all descendants), then dispatches the
// directory's own files to the pool, joins the batch, and commits the
// watermark. An interrupted run commits no watermark for the
// directory it was in, so the next pass retries it in full.
func (a *Archive) processDir(ctx context.Context, logger *zap.Logger, dir, root string, opts Options, jobs chan<- func(), stats *RunStats) {
	logger.Debug("processing directory", zap.String("directory", dir))
	stats.DirsSeen++

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Error("enumerating directory",
			zap.String("directory", dir),
			zap.String("operation", "readdir"),
			zap.Error(err))
		return
	}

	var files, dirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			dirs = append(dirs, path)
		case entry.Type().IsRegular():
			files = append(files, path)
		}
	}

	for _, sub := range dirs {
		if ctx.Err() != nil {
			return
		}
		a.processDir(ctx, logger, sub, root, opts, jobs, stats)
	}

	if ctx.Err() != nil {
		return
	}

	// the watermark is a directory-level heuristic: adding or removing
	// a file bumps the directory's own mtime, which is what triggers a
	// re-scan of its files; subdirectories were already visited above
	// on their own watermarks
	info, err := os.Stat(dir)
	if err != nil {
		logger.Error("statting directory",
			zap.String("directory", dir),
			zap.String("operation", "stat"),
			zap.Error(err))
		return
	}
	dirMtime := info.ModTime()

	if wm, ok := loadWatermark(a.index, dir); ok && !opts.Force && !dirMtime.After(wm.ModTime) {
		logger.Debug("directory unchanged since last run, skipping",
			zap.String("directory", dir),
			zap.Time("watermark", wm.ModTime))
		stats.DirsUnchanged++
		return
	}

	var batch sync.WaitGroup
	for _, file := range files {
		path := file
		batch.Add(1)
		jobs <- func() {
			defer batch.Done()
			a.processFile(ctx, path, root, opts, stats)
		}
	}
	batch.Wait()

	if ctx.Err() != nil {
		return
	}

	saveWatermark(a.index, dir, Watermark{ModTime: dirMtime})
	logger.Debug("completed directory", zap.String("directory", dir))
}
