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
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Restoration parameters. The zero value of a field means "not set"; Resolve
// fills unset fields with defaults and derives dependent values
type Params struct {
	HighpassSigma   float32 `json:"highpassSigma"`   // sigma for background suppression, default 3
	DeconSigma      float32 `json:"deconSigma"`      // sigma of the Gaussian PSF approximation, default 2
	DeconFilterSize int     `json:"deconFilterSize"` // odd PSF kernel size, derived 2*ceil(2*deconSigma)+1 if unset
	DeconIterations int     `json:"deconIterations"` // number of Lucy-Richardson iterations, default 20
	CodebookIndex   int     `json:"codebookIndex"`   // selects the active codebook, default 0
}

// An invalid or underivable restoration parameter. Fatal to starting the
// pipeline for the affected task
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s %s", e.Field, e.Reason)
}

// KernelSize returns the canonical odd Gaussian kernel size for a given sigma
func KernelSize(sigma float32) int {
	return 2*int(math.Ceil(2*float64(sigma))) + 1
}

// Resolve returns a fully specified copy of the parameters. Unset fields
// receive their defaults, the filter size is derived from the deconvolution
// sigma only if it was not given explicitly. Pure function of its receiver
func (p Params) Resolve() (Params, error) {
	if p.HighpassSigma < 0 {
		return p, &ConfigurationError{"highpassSigma", fmt.Sprintf("must be positive, have %g", p.HighpassSigma)}
	}
	if p.HighpassSigma == 0 {
		p.HighpassSigma = 3
	}
	if p.DeconSigma < 0 {
		return p, &ConfigurationError{"deconSigma", fmt.Sprintf("must be positive, have %g", p.DeconSigma)}
	}
	if p.DeconSigma == 0 {
		p.DeconSigma = 2
	}
	if p.DeconFilterSize < 0 {
		return p, &ConfigurationError{"deconFilterSize", fmt.Sprintf("must be positive, have %d", p.DeconFilterSize)}
	}
	if p.DeconFilterSize == 0 {
		p.DeconFilterSize = KernelSize(p.DeconSigma)
	} else if p.DeconFilterSize%2 == 0 {
		return p, &ConfigurationError{"deconFilterSize", fmt.Sprintf("must be odd, have %d", p.DeconFilterSize)}
	}
	if p.DeconIterations < 0 {
		return p, &ConfigurationError{"deconIterations", fmt.Sprintf("must be positive, have %d", p.DeconIterations)}
	}
	if p.DeconIterations == 0 {
		p.DeconIterations = 20
	}
	if p.CodebookIndex < 0 {
		return p, &ConfigurationError{"codebookIndex", fmt.Sprintf("must be non-negative, have %d", p.CodebookIndex)}
	}
	return p, nil
}

// LoadParams reads restoration parameters from a JSON file. Missing entries
// remain unset and are filled in by Resolve
func LoadParams(fileName string) (Params, error) {
	var p Params
	data, err := os.ReadFile(fileName)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%s: %s", fileName, err.Error())
	}
	return p, nil
}
