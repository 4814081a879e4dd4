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

package store

import (
	"errors"
	"testing"
)

func testRoundTrip(t *testing.T, s Store) {
	counts := []int64{0, 5, 0, 7, 42}
	if err := s.Save("pixel_histogram", "restore", 3, "histograms", counts); err != nil {
		t.Fatalf("save: %s", err.Error())
	}

	loaded, err := s.Load("pixel_histogram", "restore", 3, "histograms")
	if err != nil {
		t.Fatalf("load: %s", err.Error())
	}
	if len(loaded) != len(counts) {
		t.Fatalf("len=%d; want %d", len(loaded), len(counts))
	}
	for i := range counts {
		if loaded[i] != counts[i] {
			t.Errorf("loaded[%d]=%d; want %d", i, loaded[i], counts[i])
		}
	}

	// different fragment under the same kind/task must stay absent
	_, err = s.Load("pixel_histogram", "restore", 4, "histograms")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("load of absent fragment returned %v; want ErrNotFound", err)
	}
}

func TestMemStore(t *testing.T) {
	testRoundTrip(t, NewMemStore())
}

func TestDiskStore(t *testing.T) {
	testRoundTrip(t, NewDiskStore(t.TempDir()))
}

func TestMemStoreCopiesData(t *testing.T) {
	s := NewMemStore()
	counts := []int64{1, 2, 3}
	if err := s.Save("k", "t", 0, "s", counts); err != nil {
		t.Fatalf("save: %s", err.Error())
	}
	counts[0] = 99
	loaded, err := s.Load("k", "t", 0, "s")
	if err != nil {
		t.Fatalf("load: %s", err.Error())
	}
	if loaded[0] != 1 {
		t.Errorf("loaded[0]=%d; want 1, store must copy on save", loaded[0])
	}
}
