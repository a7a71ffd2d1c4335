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
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// Fingerprint is the fixed-width, non-cryptographic digest of a file's
// contents, used as the dedup key. Collision resistance beyond that of
// a good 64-bit hash is explicitly not a goal.
type Fingerprint [8]byte

// FingerprintFile hashes the contents of the file at path.
func FingerprintFile(path string) (Fingerprint, error) {
	var fp Fingerprint

	f, err := os.Open(path)
	if err != nil {
		return fp, fmt.Errorf("opening file for hashing: %w", err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return fp, fmt.Errorf("hashing %s: %w", path, err)
	}

	binary.BigEndian.PutUint64(fp[:], h.Sum64())
	return fp, nil
}

// Key returns the store key for the fingerprint.
func (fp Fingerprint) Key() []byte { return fp[:] }

func (fp Fingerprint) String() string { return hex.EncodeToString(fp[:]) }

// Record is the persisted state for one fingerprint: the single
// canonical path (relative to the archive root) recognized as the
// archived copy, plus the derived fields it was filed under. At most
// one live canonical path exists per fingerprint; a record whose path
// no longer exists on disk is stale and must be replaced, not trusted.
type Record struct {
	Path     string      `json:"path"`
	Date     string      `json:"date,omitempty"`
	Location string      `json:"location,omitempty"`
	Coords   *[2]float64 `json:"coords,omitempty"`
}

// loadRecord reads the record for fp from the store. Absent,
// unreadable, and undecodable records all report false.
func loadRecord(store *Store, fp Fingerprint) (Record, bool) {
	raw, ok := store.Get(fp.Key())
	if !ok {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		Log.Named("store").Error("decoding fingerprint record",
			zap.String("fingerprint", fp.String()),
			zap.Error(err))
		return Record{}, false
	}
	return rec, true
}

// saveRecord writes the record for fp. With overwrite false it is a
// conditional insert and reports whether this caller claimed the slot.
func saveRecord(store *Store, fp Fingerprint, rec Record, overwrite bool) bool {
	raw, err := json.Marshal(rec)
	if err != nil {
		Log.Named("store").Error("encoding fingerprint record",
			zap.String("fingerprint", fp.String()),
			zap.Error(err))
		return false
	}
	return store.Put(fp.Key(), raw, overwrite)
}

// Watermark is the last-processed modification time recorded per
// directory, used to skip unchanged subtrees on later runs. It is
// committed only after every file in the directory has finished
// processing, so an interrupted run is retried in full.
type Watermark struct {
	ModTime time.Time `json:"mod_time"`
}

// watermarkKey returns the store key for a directory's watermark.
// Watermarks share the fingerprint store; the prefix keeps them out
// of fingerprint key space (fingerprint keys are always 8 bytes).
func watermarkKey(dir string) []byte {
	return append([]byte("dir!"), dir...)
}

func loadWatermark(store *Store, dir string) (Watermark, bool) {
	raw, ok := store.Get(watermarkKey(dir))
	if !ok {
		return Watermark{}, false
	}
	var wm Watermark
	if err := json.Unmarshal(raw, &wm); err != nil {
		Log.Named("store").Error("decoding directory watermark",
			zap.String("directory", dir),
			zap.Error(err))
		return Watermark{}, false
	}
	return wm, true
}

func saveWatermark(store *Store, dir string, wm Watermark) bool {
	raw, err := json.Marshal(wm)
	if err != nil {
		Log.Named("store").Error("encoding directory watermark",
			zap.String("directory", dir),
			zap.Error(err))
		return false
	}
	return store.Put(watermarkKey(dir), raw, true)
}
