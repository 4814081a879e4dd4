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
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
)

func TestRunFragmentsJoinsErrors(t *testing.T) {
	err := RunFragments([]int{0, 1, 2}, 1, func(fragment int) error {
		if fragment != 1 {
			return fmt.Errorf("fragment %d failed", fragment)
		}
		return nil
	})
	if err == nil {
		t.Fatalf("run with two failing fragments succeeded; want error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "fragment 0 failed") || !strings.Contains(msg, "fragment 2 failed") {
		t.Errorf("joined error %q misses a fragment failure", msg)
	}
	if !strings.Contains(msg, "; ") {
		t.Errorf("joined error %q misses separator", msg)
	}
}

func TestSyncWriterSerializesConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	w := NewSyncWriter(&buf)

	const workers, lines = 8, 100
	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for line := 0; line < lines; line++ {
				fmt.Fprintf(w, "worker %d line %d\n", worker, line)
			}
		}(worker)
	}
	wg.Wait()

	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != workers*lines {
		t.Fatalf("got %d log lines; want %d", len(got), workers*lines)
	}
	valid := regexp.MustCompile(`^worker [0-7] line \d+$`)
	for _, line := range got {
		if !valid.MatchString(line) {
			t.Errorf("mangled log line %q", line)
		}
	}
}
