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
	"errors"
	"path/filepath"
	"sync/atomic"

	"github.com/photark/photark/metadata"
	"go.uber.org/zap"
)

// processFile runs the whole per-file pipeline: metadata resolution,
// fingerprinting, the dedup decision, and placement. Every fault here
// is per-file recoverable; it is logged and the file is skipped so
// siblings in the batch continue. It reports whether the file reached
// a terminal good outcome (canonical, imported, or an accounted
// duplicate) rather than being skipped or failing.
func (a *Archive) processFile(ctx context.Context, path, root string, opts Options, stats *RunStats) bool {
	logger := a.log.With(zap.String("path", path))
	logger.Debug("processing file")

	filename := filepath.Base(path)
	if a.cfg.SkipFile(filename) {
		logger.Debug("skipping file in skip list", zap.String("filename", filename))
		atomic.AddInt64(&stats.Skipped, 1)
		return false
	}

	if metadata.IsHEIC(path) {
		return a.processHEIC(ctx, path, root, opts, stats)
	}

	media, err := a.resolveMetadata(ctx, path)
	if err != nil {
		if errors.Is(err, errNoTimestamp) {
			logger.Warn("unknown timestamp, skipping")
		} else {
			logger.Error("resolving metadata",
				zap.String("operation", "resolve"),
				zap.Error(err))
		}
		atomic.AddInt64(&stats.Skipped, 1)
		return false
	}

	fp, err := FingerprintFile(path)
	if err != nil {
		logger.Error("fingerprinting file",
			zap.String("operation", "fingerprint"),
			zap.Error(err))
		atomic.AddInt64(&stats.Errors, 1)
		return false
	}
	logger = logger.With(zap.String("fingerprint", fp.String()))

	// in import mode the canonical location is the computed
	// destination; in sync mode the file stays where it is
	canonical := path
	if opts.Import {
		canonical = destinationPath(a.cfg.ArchiveRoot, media.Year, media.Date, media.Location, filename)
	}

	rec := Record{
		Path:     a.relPath(canonical),
		Date:     media.Date,
		Location: media.Location,
		Coords:   media.Coords,
	}

	outcome := a.classify(fp, rec)
	if opts.Import && outcome == OutcomeArchived {
		// a staging file is never the canonical copy itself: an
		// identical file already archived at the computed destination
		// makes this one a duplicate
		outcome = OutcomeDuplicate
	}
	atomic.AddInt64(&stats.Processed, 1)

	switch outcome {
	case OutcomeDuplicate:
		atomic.AddInt64(&stats.Duplicates, 1)
		if opts.MoveDuplicates {
			if err := a.relocateDuplicate(path, root); err != nil {
				logger.Error("relocating duplicate",
					zap.String("operation", "relocate"),
					zap.Error(err))
				atomic.AddInt64(&stats.Errors, 1)
				return false
			}
			atomic.AddInt64(&stats.Relocated, 1)
		}

	case OutcomeNew:
		atomic.AddInt64(&stats.New, 1)
		if opts.Import {
			placed, err := moveFile(a.log.Named("placement"), path, canonical, true)
			if err != nil {
				// the copy failed; the record must not point at a
				// destination that does not exist
				logger.Error("importing file",
					zap.String("operation", "import"),
					zap.String("destination", canonical),
					zap.Error(err))
				a.index.Delete(fp.Key())
				atomic.AddInt64(&stats.Errors, 1)
				return false
			}
			if placed != canonical {
				// collision suffix changed the final name
				rec.Path = a.relPath(placed)
				saveRecord(a.index, fp, rec, true)
			}
			atomic.AddInt64(&stats.Imported, 1)
		}

	case OutcomeArchived:
		// nothing to do
	}

	return true
}

// processHEIC handles HEIC files, which our tag reader cannot decode.
// On import, the file is transcoded to a JPEG sibling, the JPEG is
// processed and imported, and the original is set aside in the
// duplicates area only once the JPEG actually made it in. Outside
// import mode HEIC files are left alone.
func (a *Archive) processHEIC(ctx context.Context, path, root string, opts Options, stats *RunStats) bool {
	logger := a.log.With(zap.String("path", path))

	if !opts.Import {
		logger.Debug("skipping HEIC outside import mode")
		atomic.AddInt64(&stats.Skipped, 1)
		return false
	}

	logger.Info("converting HEIC to JPEG")
	jpegPath, err := metadata.TranscodeHEIC(path)
	if err != nil {
		logger.Error("transcoding HEIC",
			zap.String("operation", "transcode"),
			zap.Error(err))
		atomic.AddInt64(&stats.Errors, 1)
		return false
	}

	if !a.processFile(ctx, jpegPath, root, opts, stats) {
		logger.Warn("transcoded JPEG was not archived; leaving original in place")
		return false
	}

	// the JPEG supersedes the original; set the HEIC aside
	if err := a.relocateDuplicate(path, root); err != nil {
		logger.Error("setting aside transcoded HEIC",
			zap.String("operation", "relocate"),
			zap.Error(err))
		atomic.AddInt64(&stats.Errors, 1)
		return false
	}

	return true
}
