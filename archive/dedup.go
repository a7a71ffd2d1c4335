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
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Outcome is the dedup engine's decision for one file.
type Outcome int

const (
	// OutcomeNew means no live record existed; this file now owns the
	// canonical slot for its fingerprint.
	OutcomeNew Outcome = iota

	// OutcomeArchived means the file already is the canonical copy.
	OutcomeArchived

	// OutcomeDuplicate means another path owns the canonical slot.
	OutcomeDuplicate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNew:
		return "new"
	case OutcomeArchived:
		return "already archived"
	case OutcomeDuplicate:
		return "duplicate"
	}
	return "unknown"
}

// classify decides what the file at relPath is, relative to the stored
// state for fp, and updates the store accordingly. rec carries the
// derived fields to persist if this file claims (or refreshes) the
// canonical slot.
//
// A stored record whose canonical path no longer exists on disk is
// stale: it is deleted and the file is evaluated as if no record
// existed. Staleness applies only to records that predate the run; a
// record claimed during this run may point at a copy that is still in
// flight and is never reaped. Two workers discovering the same
// fingerprint concurrently race to claim the slot; the conditional
// insert decides the winner and the loser is classified a duplicate
// against the record that beat it. The get/put pair is deliberately
// not atomic as a unit.
func (a *Archive) classify(fp Fingerprint, rec Record) Outcome {
	logger := a.log.Named("dedup").With(
		zap.String("fingerprint", fp.String()),
		zap.String("path", rec.Path))

	stored, ok := loadRecord(a.index, fp)
	if ok && !a.claimedThisRun(fp) && !isFile(a.fullPath(stored.Path)) {
		logger.Debug("stored canonical path no longer exists; deleting stale record",
			zap.String("stale_path", stored.Path))
		a.index.Delete(fp.Key())
		ok = false
	}

	if ok {
		if stored.Path == rec.Path {
			// refresh the record so derived fields stay current
			logger.Debug("updating record")
			saveRecord(a.index, fp, rec, true)
			return OutcomeArchived
		}
		logger.Warn("duplicate found",
			zap.String("canonical_path", stored.Path))
		return OutcomeDuplicate
	}

	logger.Debug("creating record")
	if saveRecord(a.index, fp, rec, false) {
		a.markClaimed(fp)
		return OutcomeNew
	}

	// lost the conditional insert: another worker claimed the slot
	// between our read and write
	if winner, ok := loadRecord(a.index, fp); ok {
		logger.Warn("duplicate found (lost claim race)",
			zap.String("canonical_path", winner.Path))
	}
	return OutcomeDuplicate
}

// markClaimed records that fp's canonical slot was claimed during the
// current run.
func (a *Archive) markClaimed(fp Fingerprint) {
	a.claimsMu.Lock()
	a.claims[fp] = struct{}{}
	a.claimsMu.Unlock()
}

func (a *Archive) claimedThisRun(fp Fingerprint) bool {
	a.claimsMu.Lock()
	_, ok := a.claims[fp]
	a.claimsMu.Unlock()
	return ok
}

// relocateDuplicate moves a duplicate into the duplicates area,
// preserving its path relative to the scanned root.
func (a *Archive) relocateDuplicate(path, root string) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	_, err = moveFile(a.log.Named("placement"), path, filepath.Join(a.cfg.DuplicatesDir, rel), false)
	return err
}

// fullPath resolves a store-relative canonical path against the
// archive root.
func (a *Archive) fullPath(rel string) string {
	return filepath.Join(a.cfg.ArchiveRoot, filepath.FromSlash(rel))
}

// relPath converts an absolute path to the store-relative form. Paths
// outside the archive root are kept as-is.
func (a *Archive) relPath(path string) string {
	rel, err := filepath.Rel(a.cfg.ArchiveRoot, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
