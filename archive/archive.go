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

// Package archive implements a content-addressed media archive: it
// fingerprints files, tracks one canonical location per fingerprint in
// a durable store, synchronizes directory trees incrementally using
// per-directory modification-time watermarks, and files media into a
// date/location folder layout.
package archive

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LocationResolver turns a coordinate into a human-readable display
// string. Implementations may block (e.g. on a rate-limited network
// lookup); an empty string means no location could be resolved.
type LocationResolver interface {
	ResolveLocation(ctx context.Context, lat, lon float64) string
}

// Archive ties together the fingerprint store, the dedup decision
// logic, metadata resolution, and file placement. One Archive is
// constructed at startup and shared by all workers; the store
// serializes its own access.
type Archive struct {
	cfg       *Config
	index     *Store
	locations LocationResolver
	log       *zap.Logger

	// fingerprints whose canonical slot was claimed during the
	// current run; their records may point at copies still in flight
	claimsMu sync.Mutex
	claims   map[Fingerprint]struct{}
}

// New returns an Archive using the given fingerprint store. locations
// may be nil, in which case files are filed without location names.
func New(cfg *Config, index *Store, locations LocationResolver) *Archive {
	return &Archive{
		cfg:       cfg,
		index:     index,
		locations: locations,
		log:       Log.Named("archive"),
		claims:    make(map[Fingerprint]struct{}),
	}
}
