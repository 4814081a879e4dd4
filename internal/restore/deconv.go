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

// Deconvolve partially inverts optical blur with Lucy-Richardson iterations,
// using the given separable 1D gaussian kernel as the point-spread function.
// Each iteration convolves the current estimate with the PSF, forms the ratio
// of the observed image to that prediction, back-projects the ratio through
// the (symmetric) PSF and multiplies it into the estimate. Pixels with a zero
// prediction contribute a ratio of zero. Exactly iterations rounds are run,
// in float32 throughout, then the result is truncated to integral values in
// [0,65535]. Fully deterministic for identical inputs. Returns a new image,
// the input is left untouched
func Deconvolve(f *img.Image, kernel []float32, iterations int) *img.Image {
	width := int(f.Width)
	estimate := append([]float32(nil), f.Data...)
	predicted := make([]float32, f.Pixels)
	ratio := make([]float32, f.Pixels)
	correction := make([]float32, f.Pixels)
	tmp := make([]float32, f.Pixels)

	for it := 0; it < iterations; it++ {
		convolveSep2D(predicted, tmp, estimate, width, kernel)
		for i, p := range predicted {
			if p == 0 {
				ratio[i] = 0
			} else {
				ratio[i] = f.Data[i] / p
			}
		}
		convolveSep2D(correction, tmp, ratio, width, kernel)
		for i := range estimate {
			estimate[i] *= correction[i]
		}
	}

	for i, v := range estimate {
		if v <= 0 {
			estimate[i] = 0
		} else if v >= 65535 {
			estimate[i] = 65535
		} else {
			estimate[i] = float32(uint16(v))
		}
	}
	res := img.NewImage(f.Width, f.Height, estimate)
	res.ID, res.FileName = f.ID, f.FileName
	return res
}
