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

// Package frag runs the restoration pipeline over whole imaging fields
// (fragments), accumulating per-bit intensity histograms as it goes
package frag

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mlnoga/fovlight/internal/img"
)

// A fragment's pixel histogram was requested before the fragment finished
// processing. The caller must ensure completion ordering
var ErrHistogramNotFound = errors.New("pixel histogram not found")

// An upstream alignment result required for processing is missing.
// Propagated unmodified, never retried here; retry policy belongs to the
// surrounding scheduler
type DependencyError struct {
	Fragment int
	Channel  int
	Z        int
	Err      error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("fragment %d channel %d z %d: aligned image unavailable: %s",
		e.Fragment, e.Channel, e.Z, e.Err.Error())
}

func (e *DependencyError) Unwrap() error { return e.Err }

// Corrects per-channel optical offsets in an aligned image before
// restoration. Returns a new image, the input is left untouched
type ChromaticCorrector interface {
	Apply(f *img.Image, channel int) *img.Image
}

// Provides aligned, registered images for valid (fragment, channel, z)
// indices. Implementations may block on I/O
type ImageSource interface {
	AlignedImage(fragment, channel, z int, corrector ChromaticCorrector) (*img.Image, error)
}

// DirSource reads aligned images as 16-bit grayscale TIFFs from a directory
// produced by the upstream alignment step
type DirSource struct {
	Dir     string
	Pattern string // file name pattern with fragment, channel, z verbs; default alignedPattern
}

const alignedPattern = "aligned_f%04d_c%02d_z%02d.tif"

func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir, Pattern: alignedPattern}
}

func (s *DirSource) AlignedImage(fragment, channel, z int, corrector ChromaticCorrector) (*img.Image, error) {
	pattern := s.Pattern
	if pattern == "" {
		pattern = alignedPattern
	}
	fileName := filepath.Join(s.Dir, fmt.Sprintf(pattern, fragment, channel, z))
	f, err := img.ReadTIFF16FromFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &DependencyError{Fragment: fragment, Channel: channel, Z: z, Err: err}
		}
		return nil, err
	}
	f.ID = fragment
	if corrector != nil {
		f = corrector.Apply(f, channel)
	}
	return f, nil
}
