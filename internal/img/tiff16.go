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
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"golang.org/x/image/tiff"
)

// Write an image to 16-bit grayscale TIFF. Values are truncated to [0,65535]
func (f *Image) WriteTIFF16ToFile(fileName string) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := f.WriteTIFF16(writer); err != nil {
		return err
	}
	return writer.Flush()
}

// Write an image to 16-bit grayscale TIFF. Values are truncated to [0,65535]
func (f *Image) WriteTIFF16(writer io.Writer) error {
	width, height := int(f.Width), int(f.Height)
	gray := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			v := f.Data[yoffset+x]
			if v < 0 {
				v = 0
			} else if v > 65535 {
				v = 65535
			}
			gray.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}
	return tiff.Encode(writer, gray, &tiff.Options{Compression: tiff.Deflate})
}

// Read a 16-bit grayscale TIFF into an image
func ReadTIFF16FromFile(fileName string) (*Image, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := ReadTIFF16(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %s", fileName, err.Error())
	}
	f.FileName = fileName
	return f, nil
}

// Read a 16-bit grayscale TIFF into an image
func ReadTIFF16(reader io.Reader) (*Image, error) {
	src, err := tiff.Decode(reader)
	if err != nil {
		return nil, err
	}
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	f := NewImage(int32(width), int32(height), nil)

	if gray, ok := src.(*image.Gray16); ok {
		for y := 0; y < height; y++ {
			yoffset := y * width
			for x := 0; x < width; x++ {
				f.Data[yoffset+x] = float32(gray.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
		return f, nil
	}

	// generic fallback for other pixel formats; luminance from 16-bit RGBA
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			c := color.Gray16Model.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			f.Data[yoffset+x] = float32(c.Y)
		}
	}
	return f, nil
}
