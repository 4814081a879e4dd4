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

package stats

import (
	"fmt"

	"github.com/valyala/fastrand"
)

// Basic statistics of an image plane, for log output and sanity checks
type Stats struct {
	min  float32
	mean float32
	max  float32
}

// Calculates min, mean and max of the data in a single pass
func NewStats(data []float32) *Stats {
	if len(data) == 0 {
		return &Stats{}
	}
	min, max := data[0], data[0]
	sum := float64(0)
	for _, d := range data {
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
		sum += float64(d)
	}
	return &Stats{
		min:  min,
		mean: float32(sum / float64(len(data))),
		max:  max,
	}
}

func (s *Stats) Min() float32  { return s.min }
func (s *Stats) Mean() float32 { return s.mean }
func (s *Stats) Max() float32  { return s.max }

func (s *Stats) String() string {
	return fmt.Sprintf("min %.4g mean %.4g max %.4g", s.min, s.mean, s.max)
}

// Calculates fast approximate median of the (presumably large) data by
// subsampling numSamples values and taking the median of that
func FastApproxMedian(data []float32, numSamples int) float32 {
	if len(data) == 0 {
		return 0
	}
	if numSamples > len(data) {
		numSamples = len(data)
	}
	max := uint32(len(data))
	rng := fastrand.RNG{}
	samples := make([]float32, numSamples)
	for i := range samples {
		samples[i] = data[rng.Uint32n(max)]
	}
	return QSelectMedianFloat32(samples)
}

// Select median of an array of float32. Partially reorders the array
func QSelectMedianFloat32(a []float32) float32 {
	return QSelectFloat32(a, (len(a)>>1)+1)
}

// Select kth lowest element from an array of float32. Partially reorders the array.
// Array must not contain IEEE NaN
func QSelectFloat32(a []float32, k int) float32 {
	left, right := 0, len(a)-1
	for left < right {
		// partition
		mid := (left + right) >> 1
		pivot := a[mid]
		l, r := left-1, right+1
		for {
			for {
				l++
				if a[l] >= pivot {
					break
				}
			}
			for {
				r--
				if a[r] <= pivot {
					break
				}
			}
			if l >= r { // index in r
				break
			}
			a[l], a[r] = a[r], a[l]
		}
		index := r

		offset := index - left + 1
		if k <= offset {
			right = index
		} else {
			left = index + 1
			k = k - offset
		}
	}
	return a[left]
}
