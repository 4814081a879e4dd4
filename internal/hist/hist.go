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

package hist

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Number of intensity bins per bit: unit-width bins spanning [0,65535).
// Restored pixel values are integral 16-bit intensities, so every value below
// the top bin edge falls into exactly one bin.
// TODO: make configurable if input bit depths other than 16 ever appear
const Bins = 65535

// Per-fragment pixel intensity histogram, one row of intensity bins per bit
// of the active codebook. Append-only while its fragment is processed,
// immutable thereafter
type PixelHistogram struct {
	bits   int
	counts []int64 // bits rows of Bins counts, row-major
}

// Creates an empty histogram with the given number of bit rows
func New(bits int) *PixelHistogram {
	return &PixelHistogram{
		bits:   bits,
		counts: make([]int64, bits*Bins),
	}
}

// Creates a histogram from previously persisted counts
func FromCounts(bits int, counts []int64) (*PixelHistogram, error) {
	if bits <= 0 || len(counts) != bits*Bins {
		return nil, fmt.Errorf("histogram shape %d does not match %d bits x %d bins", len(counts), bits, Bins)
	}
	return &PixelHistogram{bits: bits, counts: counts}, nil
}

func (h *PixelHistogram) Bits() int { return h.bits }

// Row returns the intensity bins for the given bit
func (h *PixelHistogram) Row(bit int) []int64 {
	return h.counts[bit*Bins : (bit+1)*Bins]
}

// Counts returns the full row-major count array, for persistence
func (h *PixelHistogram) Counts() []int64 {
	return h.counts
}

// Accumulate adds each pixel intensity into the given bit's bins.
// Values outside [0,65535) are dropped, matching the bin edges
func (h *PixelHistogram) Accumulate(bit int, data []float32) {
	row := h.Row(bit)
	for _, d := range data {
		index := int(d)
		if index >= 0 && index < Bins {
			row[index]++
		}
	}
}

// Add element-wise adds the other histogram into this one.
// Shapes must be identical
func (h *PixelHistogram) Add(other *PixelHistogram) error {
	if other.bits != h.bits {
		return fmt.Errorf("histogram shape mismatch: %d vs %d bits", h.bits, other.bits)
	}
	for i, c := range other.counts {
		h.counts[i] += c
	}
	return nil
}

// RowSum returns the total pixel count for the given bit
func (h *PixelHistogram) RowSum(bit int) int64 {
	sum := int64(0)
	for _, c := range h.Row(bit) {
		sum += c
	}
	return sum
}

// Aggregate reduces the histograms of the given fragments into their
// element-wise sum. The reduction is commutative, the fragment order does not
// matter. All fragments must have completed processing; a load failure for
// any fragment fails the aggregation, no zero rows are silently assumed
func Aggregate(fragments []int, load func(fragment int) (*PixelHistogram, error)) (*PixelHistogram, error) {
	if len(fragments) == 0 {
		return nil, fmt.Errorf("no fragments to aggregate")
	}
	first, err := load(fragments[0])
	if err != nil {
		return nil, err
	}
	sum := New(first.bits)
	if err := sum.Add(first); err != nil {
		return nil, err
	}
	for _, fragment := range fragments[1:] {
		h, err := load(fragment)
		if err != nil {
			return nil, err
		}
		if err := sum.Add(h); err != nil {
			return nil, fmt.Errorf("fragment %d: %s", fragment, err.Error())
		}
	}
	return sum, nil
}

// InitialScaleFactors estimates a characteristic intensity per bit as the
// given quantile of that bit's aggregated intensity distribution. Downstream
// decoding seeds its per-bit scale factors from these values. Bits with no
// counts yield 0
func InitialScaleFactors(h *PixelHistogram, quantile float64) []float64 {
	intensities := make([]float64, Bins)
	for i := range intensities {
		intensities[i] = float64(i)
	}
	weights := make([]float64, Bins)

	factors := make([]float64, h.bits)
	for bit := 0; bit < h.bits; bit++ {
		row := h.Row(bit)
		total := int64(0)
		for i, c := range row {
			weights[i] = float64(c)
			total += c
		}
		if total == 0 {
			factors[bit] = 0
			continue
		}
		factors[bit] = stat.Quantile(quantile, stat.Empirical, intensities, weights)
	}
	return factors
}
