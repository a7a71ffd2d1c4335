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

package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abema/go-mp4"
	"github.com/dhowden/tag"
	"go.uber.org/zap"
)

// ContainerMeta is what we could learn from a media container
// (video/audio) without decoding any streams.
type ContainerMeta struct {
	// CreationTime is the container's embedded creation date, zero
	// if the container does not record one.
	CreationTime time.Time

	// Descriptors holds stream and tag details, for diagnosis only.
	Descriptors map[string]any
}

// ReadContainer extracts container-level metadata from the file at
// path. A file that is neither an MP4-family container nor a tagged
// audio file yields a ContainerMeta with only zero values, not an
// error.
func ReadContainer(logger *zap.Logger, path string) (*ContainerMeta, error) {
	logger = logger.With(zap.String("filepath", path))

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	meta := &ContainerMeta{Descriptors: make(map[string]any)}

	if err := readMP4Metadata(meta, file); err != nil {
		logger.Debug("no MP4 metadata", zap.Error(err))
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding file after MP4: %w", err)
	}

	if err := readAudioMetadata(meta, file); err != nil {
		logger.Debug("no audio tag metadata", zap.Error(err))
	}

	return meta, nil
}

// readMP4Metadata walks the box structure of an MP4-family file and
// records the creation time and basic stream descriptors.
func readMP4Metadata(meta *ContainerMeta, fileSeeker io.ReadSeeker) error {
	_, err := mp4.ReadBoxStructure(fileSeeker, func(h *mp4.ReadHandle) (any, error) {
		if !h.BoxInfo.IsSupportedType() || h.BoxInfo.Type.String() == "mdat" {
			return nil, nil
		}

		box, _, err := h.ReadPayload()
		if err != nil {
			return nil, fmt.Errorf("reading payload from handle: %w", err)
		}

		switch b := box.(type) {
		case *mp4.Ftyp: // file type
			meta.Descriptors["Major Brand"] = string(b.MajorBrand[:])

			brands := make([]string, 0, len(b.CompatibleBrands))
			for _, brand := range b.CompatibleBrands {
				brands = append(brands, string(brand.CompatibleBrand[:]))
			}
			if len(brands) > 0 {
				meta.Descriptors["Compatible Brands"] = strings.Join(brands, ", ")
			}

		case *mp4.Mvhd: // movie header (overall declarations)
			if meta.CreationTime.IsZero() {
				// (only difference between V0 and V1 is bit length of integer)
				if creationTime := b.GetCreationTime(); creationTime != 0 {
					meta.CreationTime = isoIEC14496Timestamp(creationTime)
				}
			}
			meta.Descriptors["Duration"] = float64(b.GetDuration()) / float64(b.Timescale)

		case *mp4.Tkhd: // track header
			// just in case (for some reason) the mvhd box didn't have this info
			if meta.CreationTime.IsZero() {
				if creationTime := b.GetCreationTime(); creationTime != 0 {
					meta.CreationTime = isoIEC14496Timestamp(creationTime)
				}
			}

			if width := b.GetWidthInt(); width > 0 {
				meta.Descriptors[fmt.Sprintf("Track %d Width", b.TrackID)] = width
			}
			if height := b.GetHeightInt(); height > 0 {
				meta.Descriptors[fmt.Sprintf("Track %d Height", b.TrackID)] = height
			}
		}

		// traverse child nodes
		return h.Expand()
	})
	return err
}

// readAudioMetadata folds ID3 and similar audio tags into the
// descriptors. These tags carry no creation timestamp we trust.
func readAudioMetadata(meta *ContainerMeta, fileSeeker io.ReadSeeker) error {
	m, err := tag.ReadFrom(fileSeeker)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return nil
		}
		return err
	}

	meta.Descriptors["Format"] = string(m.Format())
	if m.FileType() != "" {
		meta.Descriptors["File Type"] = string(m.FileType())
	}
	if m.Title() != "" {
		meta.Descriptors["Title"] = m.Title()
	}
	if m.Artist() != "" {
		meta.Descriptors["Artist"] = m.Artist()
	}
	if m.Album() != "" {
		meta.Descriptors["Album"] = m.Album()
	}
	if m.Year() != 0 {
		meta.Descriptors["Year"] = m.Year()
	}

	return nil
}

// isoIEC14496Timestamp converts the number of seconds since January 1, 1904 (as
// defined by ISO/IEC 14496-12 5th Edition [2015], page 23) to a normal time.Time
// value based on Unix epoch.
func isoIEC14496Timestamp(ts uint64) time.Time {
	if ts == isoIEC14496EpochToUnixEpochSeconds {
		return time.Time{}
	}
	unixSec := ts - isoIEC14496EpochToUnixEpochSeconds
	return time.Unix(int64(unixSec), 0)
}

// The difference between January 1, 1904 (the epoch used by MP4 file
// metadata) and January 1, 1970 (the Unix epoch) in seconds.
const isoIEC14496EpochToUnixEpochSeconds uint64 = 2082844800
