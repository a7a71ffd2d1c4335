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
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cshum/vipsgen/vips"
)

var vipsOnce sync.Once

func startVips() {
	vips.LoggingSettings(nil, vips.LogLevelError)
	vips.Startup(nil) // stays up for the life of the process
}

// IsHEIC reports whether the filename has a HEIC extension.
func IsHEIC(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".heic")
}

// TranscodeHEIC converts the HEIC file at path to a JPEG sibling
// (same directory, .jpg extension) and returns the new path. The
// source file is left in place.
func TranscodeHEIC(path string) (string, error) {
	vipsOnce.Do(startVips)

	jpegPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".jpg"

	img, err := vips.NewImageFromFile(path, nil)
	if err != nil {
		return "", fmt.Errorf("loading HEIC %s: %w", path, err)
	}
	defer img.Close()

	if err := img.Jpegsave(jpegPath, nil); err != nil {
		return "", fmt.Errorf("saving JPEG %s: %w", jpegPath, err)
	}

	return jpegPath, nil
}
