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

package img

import (
	"fmt"
)

// A single monochrome imaging plane from one field of view. Pixel values are
// stored as float32 so restoration stages can work in floating point, but
// aligned input planes and final restored planes hold integral values in the
// 16-bit unsigned range [0,65535].
type Image struct {
	ID       int    // Sequential ID number, for log output
	FileName string // Original file name, if any, for log output

	Width  int32 // Image width in pixels
	Height int32 // Image height in pixels
	Pixels int32 // Number of pixels in the image, Width*Height

	Data []float32 // The image data, row-major
}

// Creates an image of the given dimensions. Data is not copied, allocated if nil
func NewImage(width, height int32, data []float32) *Image {
	if data == nil {
		data = make([]float32, width*height)
	}
	return &Image{
		Width:  width,
		Height: height,
		Pixels: width * height,
		Data:   data,
	}
}

// Creates an image with the dimensions and metadata of the given image.
// A new data array is allocated, pixel values are not copied
func NewImageFromImage(src *Image) *Image {
	return &Image{
		ID:       src.ID,
		FileName: src.FileName,
		Width:    src.Width,
		Height:   src.Height,
		Pixels:   src.Pixels,
		Data:     make([]float32, src.Pixels),
	}
}

func (f *Image) DimensionsToString() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

// EqualDims tells whether two images have identical dimensions
func EqualDims(a, b *Image) bool {
	return a.Width == b.Width && a.Height == b.Height
}
