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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// destinationPath computes the archive location for a file:
// <root>/<year>/<date>[ - <location>]/<original filename>.
func destinationPath(root, year, date, location, filename string) string {
	folder := date
	if location != "" {
		folder += " - " + location
	}
	return filepath.Join(root, year, folder, filename)
}

// uniquePath returns path if nothing exists there, otherwise the first
// variant with a zero-padded numeric suffix before the extension
// ("name_001.ext", "name_002.ext", ...) that is free. The check is not
// atomic against concurrent external creators; this tool is the only
// writer of its archive.
func uniquePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	for i := 1; ; i++ {
		try := fmt.Sprintf("%s_%03d%s", base, i, ext)
		if _, err := os.Stat(try); err != nil {
			return try
		}
	}
}

// moveFile relocates a file, creating parent directories and avoiding
// collisions. If copyInstead is set (import mode), the source is
// preserved and its contents copied. The final path is returned.
func moveFile(logger *zap.Logger, path, newPath string, copyInstead bool) (string, error) {
	newPath = uniquePath(newPath)

	logger.Info("placing file",
		zap.String("path", path),
		zap.String("destination", newPath),
		zap.Bool("copy", copyInstead))

	if err := os.MkdirAll(filepath.Dir(newPath), 0700); err != nil {
		return "", fmt.Errorf("making destination directory: %w", err)
	}

	if copyInstead {
		if err := copyFileContents(path, newPath); err != nil {
			return "", err
		}
		return newPath, nil
	}

	if err := os.Rename(path, newPath); err != nil {
		// rename can fail across filesystems; fall back to copy+remove
		if err := copyFileContents(path, newPath); err != nil {
			return "", err
		}
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("removing source after copy: %w", err)
		}
	}

	return newPath, nil
}

func copyFileContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dst)
		return fmt.Errorf("copying contents: %w", err)
	}

	if err := out.Sync(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("syncing destination: %w", err)
	}

	return nil
}
