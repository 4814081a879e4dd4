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

package stats

import (
	"math"
	"testing"
)

func TestHistogram(t *testing.T) {
	data := []float32{0, 1, 1, 2, 3, 3, 3, -5, 99}
	bins := make([]int32, 4)
	Histogram(data, 0, 3, bins)
	expected := []int32{1, 2, 1, 3} // -5 and 99 out of range
	for i, e := range expected {
		if bins[i] != e {
			t.Errorf("bin %d count %d; want %d", i, bins[i], e)
		}
	}
}

func TestHistogramConstantData(t *testing.T) {
	data := []float32{7, 7, 7}
	bins := []int32{99, 99}
	Histogram(data, 7, 7, bins)
	for i, b := range bins {
		if b != 0 {
			t.Errorf("bin %d count %d; want 0 for degenerate range", i, b)
		}
	}
}

// A dark near-normal background with a few bright spots mixed in, as a
// restored plane would show. The fitted mode must land on the background
// peak, not on the spots or the overall mean
func TestBackgroundModeStdDev(t *testing.T) {
	var data []float32
	for x := 80; x <= 120; x++ {
		count := int(1000*math.Exp(-0.5*float64(x-100)*float64(x-100)/25) + 0.5)
		for i := 0; i < count; i++ {
			data = append(data, float32(x))
		}
	}
	for i := 0; i < 20; i++ {
		data = append(data, 8000)
	}

	s := NewStats(data)
	mode, stdDev, err := BackgroundModeStdDev(data, s)
	if err != nil {
		t.Fatalf("fit failed: %s", err.Error())
	}
	if mode < 97 || mode > 103 {
		t.Errorf("mode=%f; want near 100", mode)
	}
	if stdDev < 2 || stdDev > 10 {
		t.Errorf("stdDev=%f; want near 5", stdDev)
	}
	if s.Mean() < 105 {
		t.Errorf("mean=%f; synthetic outliers too weak to distinguish mode from mean", s.Mean())
	}
}

func TestBackgroundModeStdDevConstant(t *testing.T) {
	data := []float32{42, 42, 42, 42}
	if _, _, err := BackgroundModeStdDev(data, NewStats(data)); err == nil {
		t.Errorf("fit of constant data succeeded; want error")
	}
}
