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
	"testing"
)

func TestDestinationPath(t *testing.T) {
	for i, tc := range []struct {
		year, date, location, filename string
		expect                         string
	}{
		{
			year: "2021", date: "2021-07-04", location: "Main St, Columbus, OH", filename: "img.jpg",
			expect: filepath.Join("root", "2021", "2021-07-04 - Main St, Columbus, OH", "img.jpg"),
		},
		{
			year: "2021", date: "2021-07-04", location: "", filename: "img.jpg",
			expect: filepath.Join("root", "2021", "2021-07-04", "img.jpg"),
		},
	} {
		got := destinationPath("root", tc.year, tc.date, tc.location, tc.filename)
		if got != tc.expect {
			t.Errorf("Test %d: got %q, want %q", i, got, tc.expect)
		}
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")

	if got := uniquePath(path); got != path {
		t.Errorf("free path: got %q, want %q", got, path)
	}

	writeTestFile(t, path, "x")
	want := filepath.Join(dir, "photo_001.jpg")
	if got := uniquePath(path); got != want {
		t.Errorf("first collision: got %q, want %q", got, want)
	}

	writeTestFile(t, want, "x")
	want = filepath.Join(dir, "photo_002.jpg")
	if got := uniquePath(path); got != want {
		t.Errorf("second collision: got %q, want %q", got, want)
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	writeTestFile(t, src, "data")

	dst := filepath.Join(dir, "nested", "deep", "dst.jpg")
	placed, err := moveFile(Log, src, dst, false)
	if err != nil {
		t.Fatalf("moving: %v", err)
	}
	if placed != dst {
		t.Errorf("placed at %q, want %q", placed, dst)
	}
	if isFile(src) {
		t.Error("source should be gone after move")
	}
	if !isFile(dst) {
		t.Error("destination missing after move")
	}
}

func TestMoveFileCopyMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	writeTestFile(t, src, "data")

	dst := filepath.Join(dir, "out", "dst.jpg")
	if _, err := moveFile(Log, src, dst, true); err != nil {
		t.Fatalf("copying: %v", err)
	}
	if !isFile(src) {
		t.Error("source should be preserved in copy mode")
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("destination contents = %q, want data", got)
	}

	// colliding destination gets a suffixed name
	placed, err := moveFile(Log, src, dst, true)
	if err != nil {
		t.Fatalf("copying onto collision: %v", err)
	}
	if want := filepath.Join(dir, "out", "dst_001.jpg"); placed != want {
		t.Errorf("collision placed at %q, want %q", placed, want)
	}
}
