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

package store

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// No result has been persisted under the requested key
var ErrNotFound = errors.New("result not found")

// Durable array storage for per-fragment analysis results, keyed by
// (kind, task, fragment, subdirectory). At most one writer per key
type Store interface {
	Save(kind, task string, fragment int, subdir string, counts []int64) error
	Load(kind, task string, fragment int, subdir string) ([]int64, error)
}

// In-process store for tests and single-run pipelines
type MemStore struct {
	mutex sync.RWMutex
	m     map[string][]int64
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string][]int64{}}
}

func storeKey(kind, task string, fragment int, subdir string) string {
	return fmt.Sprintf("%s/%s/%s_f%04d", task, subdir, kind, fragment)
}

func (s *MemStore) Save(kind, task string, fragment int, subdir string, counts []int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.m[storeKey(kind, task, fragment, subdir)] = append([]int64(nil), counts...)
	return nil
}

func (s *MemStore) Load(kind, task string, fragment int, subdir string) ([]int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	counts, ok := s.m[storeKey(kind, task, fragment, subdir)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", storeKey(kind, task, fragment, subdir), ErrNotFound)
	}
	return append([]int64(nil), counts...), nil
}

// Disk-backed store. Arrays are written as gzipped JSON under
// root/task/subdir/kind_fNNNN.json.gz
type DiskStore struct {
	Root string
}

func NewDiskStore(root string) *DiskStore {
	return &DiskStore{Root: root}
}

func (s *DiskStore) fileName(kind, task string, fragment int, subdir string) string {
	return filepath.Join(s.Root, task, subdir, fmt.Sprintf("%s_f%04d.json.gz", kind, fragment))
}

func (s *DiskStore) Save(kind, task string, fragment int, subdir string, counts []int64) error {
	fileName := s.fileName(kind, task, fragment, subdir)
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	if err := json.NewEncoder(gz).Encode(counts); err != nil {
		gz.Close()
		return fmt.Errorf("%s: %s", fileName, err.Error())
	}
	return gz.Close()
}

func (s *DiskStore) Load(kind, task string, fragment int, subdir string) ([]int64, error) {
	fileName := s.fileName(kind, task, fragment, subdir)
	file, err := os.Open(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", fileName, ErrNotFound)
		}
		return nil, err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", fileName, err.Error())
	}
	defer gz.Close()

	var counts []int64
	if err := json.NewDecoder(gz).Decode(&counts); err != nil {
		return nil, fmt.Errorf("%s: %s", fileName, err.Error())
	}
	return counts, nil
}
