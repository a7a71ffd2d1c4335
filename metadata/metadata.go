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

// Package metadata reads timestamps, coordinates, and descriptive tags
// out of media files. Image tags come from EXIF; container metadata
// comes from MP4 boxes and audio tags; the filesystem supplies the
// last-resort timestamp.
package metadata

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cozy/goexif2/exif"
	"github.com/cozy/goexif2/mknote"
	"github.com/cozy/goexif2/tiff"
	"go.uber.org/zap"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// ErrNotImage is reported when a file has no decodable embedded image
// tags at all.
var ErrNotImage = errors.New("file is not a recognized image")

// ImageMeta is what we could learn from a file's embedded image tags.
type ImageMeta struct {
	// Timestamp is the embedded creation time, zero if absent.
	Timestamp time.Time

	// Coords is {latitude, longitude} in decimal degrees, nil if the
	// file carries no GPS data.
	Coords *[2]float64

	// Tags holds the remaining tag fields, for diagnosis only.
	Tags map[string]any
}

type exifWalkerFunc func(exif.FieldName, *tiff.Tag) error

func (w exifWalkerFunc) Walk(name exif.FieldName, tag *tiff.Tag) error {
	return w(name, tag)
}

// ReadImage extracts embedded tags from the image at path. It returns
// ErrNotImage if the file cannot be decoded as a tagged image.
func ReadImage(logger *zap.Logger, path string) (*ImageMeta, error) {
	logger = logger.With(zap.String("filepath", path))

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	ex, err := exif.Decode(file)
	if err != nil && exif.IsCriticalError(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, path)
	}

	meta := &ImageMeta{Tags: make(map[string]any)}

	if ts, err := ex.DateTime(); err == nil {
		meta.Timestamp = ts
	}
	meta.Coords = imageCoords(ex)

	// collect the remaining tags; they are only logged, so string
	// forms are enough
	err = ex.Walk(exifWalkerFunc(func(name exif.FieldName, tag *tiff.Tag) error {
		if tag.Format() == tiff.StringVal {
			if v, err := tag.StringVal(); err == nil {
				meta.Tags[string(name)] = v
			}
		}
		return nil
	}))
	if err != nil {
		logger.Warn("walking image tags", zap.Error(err))
	}

	return meta, nil
}

// imageCoords pulls the GPS degrees/minutes/seconds triples and
// hemisphere flags out of the tags and converts them to decimal
// degrees. Both axes must be present.
func imageCoords(ex *exif.Exif) *[2]float64 {
	latDMS, ok := dmsTriple(ex, exif.GPSLatitude)
	if !ok {
		return nil
	}
	lonDMS, ok := dmsTriple(ex, exif.GPSLongitude)
	if !ok {
		return nil
	}

	lat := DecimalCoord(latDMS, hemisphere(ex, exif.GPSLatitudeRef) == "S")
	lon := DecimalCoord(lonDMS, hemisphere(ex, exif.GPSLongitudeRef) == "W")

	return &[2]float64{lat, lon}
}

// DecimalCoord converts a degrees/minutes/seconds triple to decimal
// degrees. The southern and western hemispheres negate the value.
func DecimalCoord(dms [3]float64, negate bool) float64 {
	dec := ((dms[0]*60+dms[1])*60 + dms[2]) / 60 / 60
	if negate {
		dec = -dec
	}
	return dec
}

func dmsTriple(ex *exif.Exif, field exif.FieldName) ([3]float64, bool) {
	var dms [3]float64

	tag, err := ex.Get(field)
	if err != nil || tag.Count < 3 {
		return dms, false
	}
	for i := 0; i < 3; i++ {
		rat, err := tag.Rat(i)
		if err != nil {
			return dms, false
		}
		dms[i], _ = rat.Float64()
	}
	return dms, true
}

func hemisphere(ex *exif.Exif, field exif.FieldName) string {
	tag, err := ex.Get(field)
	if err != nil {
		return ""
	}
	ref, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return ref
}
