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
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDecimalCoord(t *testing.T) {
	for i, tc := range []struct {
		dms    [3]float64
		negate bool
		expect float64
	}{
		{[3]float64{10, 30, 0}, false, 10.5},
		{[3]float64{20, 15, 0}, true, -20.25},
		{[3]float64{0, 0, 0}, false, 0},
		{[3]float64{45, 30, 36}, false, 45.51},
		{[3]float64{45, 30, 36}, true, -45.51},
	} {
		got := DecimalCoord(tc.dms, tc.negate)
		if diff := got - tc.expect; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Test %d: DecimalCoord(%v, %t) = %v, want %v", i, tc.dms, tc.negate, got, tc.expect)
		}
	}
}

func TestISOIEC14496Timestamp(t *testing.T) {
	// 1904-01-01 maps to the zero time, not the Unix epoch
	if ts := isoIEC14496Timestamp(isoIEC14496EpochToUnixEpochSeconds); !ts.IsZero() {
		t.Errorf("epoch value should map to zero time, got %v", ts)
	}

	got := isoIEC14496Timestamp(isoIEC14496EpochToUnixEpochSeconds + 86400)
	want := time.Unix(86400, 0)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestIsHEIC(t *testing.T) {
	for i, tc := range []struct {
		path   string
		expect bool
	}{
		{"/photos/IMG_0001.HEIC", true},
		{"/photos/img.heic", true},
		{"/photos/img.jpg", false},
		{"/photos/heic", false},
	} {
		if got := IsHEIC(tc.path); got != tc.expect {
			t.Errorf("Test %d: IsHEIC(%q) = %t, want %t", i, tc.path, got, tc.expect)
		}
	}
}

func TestFileTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	mtime := time.Date(2019, 3, 2, 8, 0, 0, 0, time.Local)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	ts, err := FileTimestamp(path)
	if err != nil {
		t.Fatal(err)
	}
	// ctime cannot be set from user space and is "now", so the
	// earlier of the two must be the mtime we pinned
	if !ts.Equal(mtime) {
		t.Errorf("timestamp = %v, want %v", ts, mtime)
	}
}

func TestReadImageRejectsNonImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an-image.txt")
	if err := os.WriteFile(path, []byte("plain text"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadImage(zap.NewNop(), path); err == nil {
		t.Error("expected an error for a non-image file")
	}
}
