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

// Pipeline composes background suppression and deconvolution into the
// per-image restoration transform. It holds only resolved parameters and
// precomputed kernels, so a single pipeline is safe to use concurrently
// from multiple fragments
type Pipeline struct {
	Params Params

	highpassKernel []float32
	psfKernel      []float32
}

// NewPipeline resolves the given partial parameters and precomputes the
// highpass and PSF kernels. Returns a ConfigurationError for invalid
// parameters
func NewPipeline(p Params) (*Pipeline, error) {
	resolved, err := p.Resolve()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Params:         resolved,
		highpassKernel: GaussianKernel1D(KernelSize(resolved.HighpassSigma), resolved.HighpassSigma),
		psfKernel:      GaussianKernel1D(resolved.DeconFilterSize, resolved.DeconSigma),
	}, nil
}

// Restore applies background suppression followed by deconvolution.
// Returns a new image with integral values in [0,65535]
func (pl *Pipeline) Restore(f *img.Image) *img.Image {
	filtered := removeBackgroundKernel(f, pl.highpassKernel)
	return Deconvolve(filtered, pl.psfKernel, pl.Params.DeconIterations)
}
