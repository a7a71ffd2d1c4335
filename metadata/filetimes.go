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
	"os"
	"time"
)

// FileTimestamp is the last-resort timestamp for a file: the earlier
// of its change time and its modification time.
func FileTimestamp(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("statting %s: %w", path, err)
	}

	ts := info.ModTime()
	if ctime, ok := statCreationTime(info); ok && ctime.Before(ts) {
		ts = ctime
	}
	return ts, nil
}
