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
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/pbnjay/memory"
)

// SyncWriter serializes writes to a shared log destination, so fragment
// workers logging in parallel cannot interleave within a line
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewSyncWriter(w io.Writer) *SyncWriter { return &SyncWriter{w: w} }

func (s *SyncWriter) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// MaxFragmentThreads limits fragment parallelism to maxThreads (0 = number
// of CPUs), further capped so that concurrent fragments fit into 70% of
// physical memory given the estimated per-fragment footprint in MiB
func MaxFragmentThreads(maxThreads, fragmentMiB int) int {
	if maxThreads <= 0 {
		maxThreads = runtime.GOMAXPROCS(0)
	}
	if fragmentMiB <= 0 {
		return maxThreads
	}
	memoryMiB := int(memory.TotalMemory() / 1024 / 1024)
	byMemory := (memoryMiB * 7 / 10) / fragmentMiB
	if byMemory < 1 {
		byMemory = 1
	}
	if byMemory < maxThreads {
		return byMemory
	}
	return maxThreads
}

// RunFragments processes the given fragments as independent parallel units
// of work with the given concurrency limit. All fragments are attempted even
// if some fail; errors are joined into one
func RunFragments(fragments []int, maxThreads int, fn func(fragment int) error) (err error) {
	if len(fragments) == 0 {
		return nil
	}
	if maxThreads < 1 {
		maxThreads = 1
	}
	limiter := make(chan bool, maxThreads)
	errs := make(chan error, len(fragments))
	for _, fragment := range fragments {
		limiter <- true
		go func(fragment int) {
			defer func() { <-limiter }()
			errs <- fn(fragment)
		}(fragment)
	}
	for i := 0; i < cap(limiter); i++ { // wait for goroutines to finish
		limiter <- true
	}
	for i := 0; i < len(fragments); i++ { // collect errors
		e := <-errs
		if e == nil {
			continue
		}
		if err == nil {
			err = e
		} else {
			err = fmt.Errorf("%s; %s", err.Error(), e.Error())
		}
	}
	return err
}
