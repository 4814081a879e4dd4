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
	"github.com/mlnoga/fovlight/internal/img"
)

// RemoveBackground suppresses smooth low-frequency illumination in the given
// image: it subtracts a gaussian blur of the image from the image itself and
// clips negative differences to zero, preserving sharp local peaks. Border
// pixels are treated as replicated edge values. Returns a new image, the
// input is left untouched
func RemoveBackground(f *img.Image, sigma float32) *img.Image {
	kernel := GaussianKernel1D(KernelSize(sigma), sigma)
	return removeBackgroundKernel(f, kernel)
}

func removeBackgroundKernel(f *img.Image, kernel []float32) *img.Image {
	res := img.NewImageFromImage(f)
	tmp := make([]float32, f.Pixels)
	convolveSep2D(res.Data, tmp, f.Data, int(f.Width), kernel)
	for i, d := range f.Data {
		v := d - res.Data[i]
		if v < 0 {
			v = 0
		}
		res.Data[i] = v
	}
	return res
}
