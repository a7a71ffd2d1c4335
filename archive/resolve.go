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
	"time"

	"github.com/photark/photark/metadata"
	"go.uber.org/zap"
)

// errNoTimestamp means no source could resolve a timestamp for a
// file. This is terminal for that file: we never fabricate a date.
var errNoTimestamp = errors.New("no resolvable timestamp")

// MediaRecord is the per-file derived state for one processing pass.
// It is never persisted as-is; the parts worth keeping go into the
// fingerprint Record.
type MediaRecord struct {
	Timestamp time.Time
	Date      string
	Year      string
	Coords    *[2]float64
	Location  string
}

// resolveMetadata derives timestamp, date, year, coordinates, and
// location for a file. Timestamp sources, first match wins: embedded
// image timestamp; container creation date; the earlier of the
// filesystem's change and modification times. Coordinates come only
// from embedded image tags.
func (a *Archive) resolveMetadata(ctx context.Context, path string) (MediaRecord, error) {
	logger := a.log.Named("resolver")

	var rec MediaRecord

	img, err := metadata.ReadImage(logger, path)
	switch {
	case err == nil:
		rec.Timestamp = img.Timestamp
		rec.Coords = img.Coords
		if len(img.Tags) > 0 {
			logger.Debug("image tags",
				zap.String("path", path),
				zap.Any("tags", img.Tags))
		}
	case errors.Is(err, metadata.ErrNotImage):
		// fall through to container metadata
	default:
		return rec, err
	}

	if rec.Timestamp.IsZero() {
		cont, err := metadata.ReadContainer(logger, path)
		if err != nil {
			logger.Debug("reading container metadata",
				zap.String("path", path),
				zap.Error(err))
		} else {
			rec.Timestamp = cont.CreationTime
			if len(cont.Descriptors) > 0 {
				logger.Debug("container descriptors",
					zap.String("path", path),
					zap.Any("descriptors", cont.Descriptors))
			}
		}
	}

	if rec.Timestamp.IsZero() {
		ts, err := metadata.FileTimestamp(path)
		if err != nil {
			return rec, err
		}
		rec.Timestamp = ts
	}

	if rec.Timestamp.IsZero() {
		return rec, errNoTimestamp
	}

	rec.Date = rec.Timestamp.Format("2006-01-02")
	rec.Year = rec.Timestamp.Format("2006")

	if rec.Coords != nil && a.locations != nil {
		rec.Location = a.locations.ResolveLocation(ctx, rec.Coords[0], rec.Coords[1])
	}

	return rec, nil
}
