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
)

// Clamp coordinate into [0, size-1], replicating edge values for out of
// bounds coordinates. Avoids darkening next to image borders
func clamp(size, x int) int {
	if x < 0 {
		return 0
	}
	if x >= size {
		return size - 1
	}
	return x
}

// Returns the definite integral of the gaussian function with midpoint mu and
// standard deviation sigma for input x
func gaussianDefiniteIntegral(mu, sigma, x float32) float32 {
	return 0.5 * (1 + float32(math.Erf(float64((x-mu)/(sqrt2*sigma)))))
}

const sqrt2 = float32(1.41421356237309504880)

// Generates a 1D gaussian kernel of the given odd size and standard
// deviation. Bin weights come from symbolic integration via the error
// function, the right half mirrors the left for numeric stability, and the
// sum is normalized to 1 to account for the truncated tails
func GaussianKernel1D(size int, sigma float32) []float32 {
	mu := float32(0)
	radius := size / 2
	kernel := make([]float32, size)

	sum := float32(0)
	lower := gaussianDefiniteIntegral(mu, sigma, float32(-0.5)-float32(radius))
	for i := 0; i <= radius; i++ {
		upper := gaussianDefiniteIntegral(mu, sigma, float32(-0.5)-float32(radius)+float32(i+1))
		delta := upper - lower
		kernel[i] = delta
		sum += delta
		lower = upper
	}
	for i := 1; i <= radius; i++ {
		value := kernel[radius-i]
		kernel[radius+i] = value
		sum += value
	}

	factor := 1.0 / sum
	for i := range kernel {
		kernel[i] *= factor
	}
	return kernel
}

// Convolve the 2D image given by data and width with the kernel along the x
// axis, replicating edge values, and store the result in res
func convolve1DX(res, data []float32, width int, kernel []float32) {
	height := len(data) / width
	k := len(kernel) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum := float32(0)
			for i := -k; i <= k; i++ {
				x1 := clamp(width, x+i)
				sum += data[y*width+x1] * kernel[i+k]
			}
			res[y*width+x] = sum
		}
	}
}

// Convolve the 2D image given by data and width with the kernel along the y
// axis, replicating edge values, and store the result in res
func convolve1DY(res, data []float32, width int, kernel []float32) {
	height := len(data) / width
	k := len(kernel) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum := float32(0)
			for i := -k; i <= k; i++ {
				y1 := clamp(height, y+i)
				sum += data[y1*width+x] * kernel[i+k]
			}
			res[y*width+x] = sum
		}
	}
}

// Applies the separable 2D convolution with the given 1D gaussian kernel to
// the image given by data and width. Overwrites tmp and returns the result
// in res
func convolveSep2D(res, tmp, data []float32, width int, kernel []float32) {
	convolve1DX(tmp, data, width, kernel)
	convolve1DY(res, tmp, width, kernel)
}
