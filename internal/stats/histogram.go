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
	"errors"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Number of bins used when fitting the background peak of a plane
const fitBins = 4096

// Calculate histogram of data between min and max into given bins.
// Values outside [min, max] are ignored
func Histogram(data []float32, min, max float32, bins []int32) {
	for i := range bins {
		bins[i] = 0
	}
	if !(max > min) {
		return
	}
	scale := float32(len(bins)-1) / (max - min)
	for _, d := range data {
		if d < min || d > max {
			continue
		}
		bins[int((d-min)*scale)]++
	}
}

// Returns the location and the value of the histogram peak
func histogramPeak(bins []int32, min, max float32) (x, y float32) {
	maxIndex, maxValue := 0, bins[0]
	for i, v := range bins {
		if v > maxValue {
			maxIndex, maxValue = i, v
		}
	}
	x = min + (float32(maxIndex)+0.5)*(max-min)/float32(len(bins)-1)
	y = float32(maxValue)
	return x, y
}

// BackgroundModeStdDev estimates the mode and standard deviation of the
// dominant background peak of an image plane. Restored planes are mostly
// dark background with sparse bright spots, so the histogram peak sits on
// the background; a normal distribution is fitted around it with
// Nelder-Mead to refine the location below bin resolution
func BackgroundModeStdDev(data []float32, s *Stats) (mode, stdDev float32, err error) {
	if len(data) == 0 || !(s.Max() > s.Min()) {
		return 0, 0, errors.New("cannot fit background peak of constant data")
	}
	min, max := s.Min(), s.Max()
	bins := make([]int32, fitBins)
	Histogram(data, min, max, bins)

	// Initial guess from the highest bin
	peak, peakVal := histogramPeak(bins, min, max)
	binWidth := (max - min) / float32(len(bins)-1)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			alpha, mu, sigma := float32(x[0]), float32(x[1]), float32(x[2])
			scaler := alpha / (sigma * float32(math.Sqrt(2*math.Pi)))
			sumSqDiff := float32(0)
			for i, y := range bins {
				x := min + (float32(i)+0.5)*(max-min)/float32(len(bins)-1)
				xmusig := (x - mu) / sigma
				yPredict := scaler * float32(math.Exp(float64(-0.5*xmusig*xmusig)))
				diff := float32(y) - yPredict
				sumSqDiff += diff * diff
			}
			return math.Sqrt(float64(sumSqDiff / float32(len(bins))))
		},
	}
	sigma0 := float64(binWidth) * 2
	x0 := []float64{float64(peakVal) * sigma0 * math.Sqrt(2*math.Pi), float64(peak), sigma0}
	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, 0, err
	}
	return float32(result.X[1]), float32(math.Abs(result.X[2])), nil
}
