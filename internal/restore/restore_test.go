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

package restore

import (
	"math"
	"testing"

	"github.com/mlnoga/fovlight/internal/img"
)

// deterministic pseudo-random image, 16-bit value range
func synthImage(width, height int32, seed uint32) *img.Image {
	f := img.NewImage(width, height, nil)
	state := seed
	for i := range f.Data {
		state = state*1664525 + 1013904223
		f.Data[i] = float32(state >> 16)
	}
	return f
}

func TestRemoveBackgroundNonNegative(t *testing.T) {
	f := synthImage(64, 48, 7)
	res := RemoveBackground(f, 3)
	if !img.EqualDims(f, res) {
		t.Fatalf("dimensions %s; want %s", res.DimensionsToString(), f.DimensionsToString())
	}
	for i, v := range res.Data {
		if v < 0 {
			t.Fatalf("res[%d]=%f; want >=0", i, v)
		}
	}
}

func TestRemoveBackgroundFlat(t *testing.T) {
	f := img.NewImage(32, 32, nil)
	for i := range f.Data {
		f.Data[i] = 1000
	}
	res := RemoveBackground(f, 3)

	// a constant field is pure background and must vanish
	for i, v := range res.Data {
		if v > 0.01 {
			t.Fatalf("res[%d]=%f; want ~0", i, v)
		}
	}
}

func TestRemoveBackgroundKeepsPeak(t *testing.T) {
	width, height := int32(33), int32(33)
	f := img.NewImage(width, height, nil)
	center := width*(height/2) + width/2
	f.Data[center] = 20000

	res := RemoveBackground(f, 3)
	if res.Data[center] <= 0 {
		t.Errorf("peak removed by background suppression, center=%f", res.Data[center])
	}
	// the smooth background estimate around an isolated peak is small, so
	// most of the peak must survive
	if res.Data[center] < 15000 {
		t.Errorf("center=%f; want >= 15000", res.Data[center])
	}
}

func TestDeconvolveRangeAndQuantization(t *testing.T) {
	f := synthImage(32, 32, 3)
	kernel := GaussianKernel1D(9, 2)
	res := Deconvolve(f, kernel, 5)

	for i, v := range res.Data {
		if v < 0 || v > 65535 {
			t.Fatalf("res[%d]=%f outside [0,65535]", i, v)
		}
		if v != float32(uint16(v)) {
			t.Fatalf("res[%d]=%f not an integral 16-bit value", i, v)
		}
	}
}

func TestRestoreDeterministic(t *testing.T) {
	pl, err := NewPipeline(Params{})
	if err != nil {
		t.Fatalf("pipeline: %s", err.Error())
	}
	f := synthImage(48, 48, 11)
	a := pl.Restore(f)
	b := pl.Restore(f)
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("restore not deterministic at pixel %d: %f vs %f", i, a.Data[i], b.Data[i])
		}
	}
}

func TestRestoreDoesNotMutateInput(t *testing.T) {
	pl, err := NewPipeline(Params{})
	if err != nil {
		t.Fatalf("pipeline: %s", err.Error())
	}
	f := synthImage(24, 24, 5)
	orig := append([]float32(nil), f.Data...)
	pl.Restore(f)
	for i := range f.Data {
		if f.Data[i] != orig[i] {
			t.Fatalf("input mutated at pixel %d", i)
		}
	}
}

// Blur a synthetic point source with the PSF, then check that restoration
// recovers a peak closer to the original intensity than the blurred input was
func TestRestoreSharpensBlurredPoint(t *testing.T) {
	width, height := int32(31), int32(31)
	peak := float32(20000)
	sigma := float32(2)

	point := img.NewImage(width, height, nil)
	center := width*(height/2) + width/2
	point.Data[center] = peak

	blurred := img.NewImageFromImage(point)
	tmp := make([]float32, point.Pixels)
	kernel := GaussianKernel1D(KernelSize(sigma), sigma)
	convolveSep2D(blurred.Data, tmp, point.Data, int(width), kernel)

	pl, err := NewPipeline(Params{DeconSigma: sigma})
	if err != nil {
		t.Fatalf("pipeline: %s", err.Error())
	}
	restored := pl.Restore(blurred)

	blurredErr := math.Abs(float64(blurred.Data[center] - peak))
	restoredErr := math.Abs(float64(restored.Data[center] - peak))
	if restoredErr >= blurredErr {
		t.Errorf("restored center %f no closer to %f than blurred center %f",
			restored.Data[center], peak, blurred.Data[center])
	}
	if restored.Data[center] <= blurred.Data[center] {
		t.Errorf("restored center %f; want sharper than blurred center %f",
			restored.Data[center], blurred.Data[center])
	}
}
