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

package frag

import (
	"errors"
	"fmt"
	"io"

	"github.com/mlnoga/fovlight/internal/codebook"
	"github.com/mlnoga/fovlight/internal/hist"
	"github.com/mlnoga/fovlight/internal/img"
	"github.com/mlnoga/fovlight/internal/restore"
	"github.com/mlnoga/fovlight/internal/stats"
	"github.com/mlnoga/fovlight/internal/store"
)

const (
	histKind   = "pixel_histogram"
	histSubdir = "histograms"
)

// Processor restores the image set of one fragment at a time. It owns no
// mutable state across fragments: each ProcessFragment call builds its own
// histogram, so distinct fragments can be processed concurrently from a
// single Processor
type Processor struct {
	Pipe  *restore.Pipeline
	Org   *codebook.Organization
	Src   ImageSource
	Store store.Store
	Task  string
	Log   io.Writer

	cb *codebook.Codebook
}

// NewProcessor wires a processor from its collaborators. The active codebook
// is selected by the pipeline's codebook index; an out of range index is a
// configuration error
func NewProcessor(pipe *restore.Pipeline, org *codebook.Organization, src ImageSource, st store.Store, task string, log io.Writer) (*Processor, error) {
	cb, err := org.Codebook(pipe.Params.CodebookIndex)
	if err != nil {
		return nil, &restore.ConfigurationError{Field: "codebookIndex", Reason: err.Error()}
	}
	if task == "" {
		task = "restore"
	}
	if log == nil {
		log = io.Discard
	}
	return &Processor{
		Pipe:  pipe,
		Org:   org,
		Src:   src,
		Store: st,
		Task:  task,
		Log:   log,
		cb:    cb,
	}, nil
}

// WithLog returns a shallow copy of the processor writing to the given log
func (p *Processor) WithLog(log io.Writer) *Processor {
	q := *p
	q.Log = log
	return &q
}

// Codebook returns the active codebook
func (p *Processor) Codebook() *codebook.Codebook { return p.cb }

// ProcessFragment restores every (bit, z) image of the given fragment and
// persists the accumulated per-bit pixel histogram. On any error nothing is
// persisted for the fragment, so a missing histogram always means "not
// completed" rather than "partially filled"
func (p *Processor) ProcessFragment(fragment int) error {
	h := hist.New(p.cb.BitCount())
	zCount := p.Org.ZCount()

	for bi, name := range p.cb.BitNames() {
		channel, err := p.cb.ChannelForBit(name)
		if err != nil {
			return fmt.Errorf("fragment %d: %s", fragment, err.Error())
		}
		for z := 0; z < zCount; z++ {
			f, err := p.Src.AlignedImage(fragment, channel, z, nil)
			if err != nil {
				return fmt.Errorf("fragment %d bit %s: %w", fragment, name, err)
			}
			restored := p.Pipe.Restore(f)
			h.Accumulate(bi, restored.Data)
		}
		fmt.Fprintf(p.Log, "%d: bit %-8s channel %2d: %d slices, %d pixels binned\n",
			fragment, name, channel, zCount, h.RowSum(bi))
	}

	if err := p.Store.Save(histKind, p.Task, fragment, histSubdir, h.Counts()); err != nil {
		return fmt.Errorf("fragment %d: saving pixel histogram: %s", fragment, err.Error())
	}
	fmt.Fprintf(p.Log, "%d: pixel histogram saved (%d bits x %d bins)\n", fragment, h.Bits(), hist.Bins)
	return nil
}

// ProcessedImage restores a single (fragment, channel, z) image, applying
// the optional chromatic corrector before restoration
func (p *Processor) ProcessedImage(fragment, channel, z int, corrector ChromaticCorrector) (*img.Image, error) {
	f, err := p.Src.AlignedImage(fragment, channel, z, corrector)
	if err != nil {
		return nil, err
	}
	restored := p.Pipe.Restore(f)
	st := stats.NewStats(restored.Data)
	line := fmt.Sprintf("%d: channel %2d z %2d restored, %s, bg ~%.4g",
		fragment, channel, z, st.String(),
		stats.FastApproxMedian(restored.Data, 1023))
	if mode, stdDev, err := stats.BackgroundModeStdDev(restored.Data, st); err == nil {
		line += fmt.Sprintf(" mode %.4g sigma %.4g", mode, stdDev)
	}
	fmt.Fprintln(p.Log, line)
	return restored, nil
}

// ProcessedImageSet restores the fragment's images ordered by bit as
// declared in the codebook. For z >= 0 it returns one image per bit for that
// slice; for z < 0 it returns all configured slices stacked per bit, slices
// varying fastest
func (p *Processor) ProcessedImageSet(fragment, z int, corrector ChromaticCorrector) ([]*img.Image, error) {
	var set []*img.Image
	for _, name := range p.cb.BitNames() {
		channel, err := p.cb.ChannelForBit(name)
		if err != nil {
			return nil, fmt.Errorf("fragment %d: %s", fragment, err.Error())
		}
		if z >= 0 {
			f, err := p.ProcessedImage(fragment, channel, z, corrector)
			if err != nil {
				return nil, err
			}
			set = append(set, f)
			continue
		}
		for zi := 0; zi < p.Org.ZCount(); zi++ {
			f, err := p.ProcessedImage(fragment, channel, zi, corrector)
			if err != nil {
				return nil, err
			}
			set = append(set, f)
		}
	}
	return set, nil
}

// PixelHistogram returns the persisted histogram of a completed fragment.
// Returns ErrHistogramNotFound if the fragment has not finished processing
func (p *Processor) PixelHistogram(fragment int) (*hist.PixelHistogram, error) {
	counts, err := p.Store.Load(histKind, p.Task, fragment, histSubdir)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("fragment %d: %w", fragment, ErrHistogramNotFound)
		}
		return nil, err
	}
	return hist.FromCounts(p.cb.BitCount(), counts)
}

// AggregatePixelHistogram sums the histograms of the given fragments.
// All fragments must have completed; this is the caller's completion barrier
func (p *Processor) AggregatePixelHistogram(fragments []int) (*hist.PixelHistogram, error) {
	return hist.Aggregate(fragments, p.PixelHistogram)
}
