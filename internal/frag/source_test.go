// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package frag

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mlnoga/fovlight/internal/img"
)

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	f := img.NewImage(8, 6, nil)
	for i := range f.Data {
		f.Data[i] = float32(i * 100)
	}
	fileName := filepath.Join(dir, fmt.Sprintf("aligned_f%04d_c%02d_z%02d.tif", 2, 1, 0))
	if err := f.WriteTIFF16ToFile(fileName); err != nil {
		t.Fatalf("write: %s", err.Error())
	}

	src := NewDirSource(dir)
	loaded, err := src.AlignedImage(2, 1, 0, nil)
	if err != nil {
		t.Fatalf("aligned image: %s", err.Error())
	}
	if !img.EqualDims(f, loaded) {
		t.Fatalf("dimensions %s; want %s", loaded.DimensionsToString(), f.DimensionsToString())
	}
	for i := range f.Data {
		want := f.Data[i]
		if want > 65535 {
			want = 65535
		}
		if loaded.Data[i] != want {
			t.Errorf("pixel %d=%f; want %f", i, loaded.Data[i], want)
		}
	}
}

func TestDirSourceMissing(t *testing.T) {
	src := NewDirSource(t.TempDir())
	_, err := src.AlignedImage(0, 0, 0, nil)
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("error %v; want DependencyError", err)
	}
	if !os.IsNotExist(errors.Unwrap(depErr)) {
		t.Errorf("unwrapped error %v; want not-exist", errors.Unwrap(depErr))
	}
}

func TestWriteProcessedStack(t *testing.T) {
	dir := t.TempDir()
	p := newTestProcessor(t, &fakeSource{})

	if err := p.WriteProcessedStack(0, nil, dir); err != nil {
		t.Fatalf("write stack: %s", err.Error())
	}

	archive := filepath.Join(dir, "processed_f0000.tar.gz")
	if _, err := os.Stat(archive); err != nil {
		t.Fatalf("archive missing: %s", err.Error())
	}
	// the uncompressed intermediate directory must be gone
	if _, err := os.Stat(filepath.Join(dir, "processed_f0000")); !os.IsNotExist(err) {
		t.Errorf("uncompressed stack directory still present")
	}
}
