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
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mlnoga/fovlight/internal/img"
)

// WriteProcessedStack writes the full processed image stack of one fragment
// into dir: every data channel of every codebook plus the sequential
// channels, all configured z slices each, as 16-bit grayscale TIFF planes.
// Pass-through channels (structural and nuclear stains) are written as
// aligned but unrestored images. The per-fragment plane directory is then
// packed into a single .tar.gz archive and removed
func (p *Processor) WriteProcessedStack(fragment int, corrector ChromaticCorrector, dir string) error {
	stackDir := filepath.Join(dir, fmt.Sprintf("processed_f%04d", fragment))
	if err := os.MkdirAll(stackDir, 0755); err != nil {
		return err
	}

	zCount := p.Org.ZCount()
	for _, ch := range p.Org.DataChannels() {
		for z := 0; z < zCount; z++ {
			var f *img.Image
			var err error
			if p.Org.IsPassThrough(ch.Name) {
				f, err = p.Src.AlignedImage(fragment, ch.Index, z, nil)
			} else {
				f, err = p.ProcessedImage(fragment, ch.Index, z, corrector)
			}
			if err != nil {
				return fmt.Errorf("fragment %d channel %s: %w", fragment, ch.Name, err)
			}
			planeName := filepath.Join(stackDir, fmt.Sprintf("%s_z%02d.tif", ch.Name, z))
			if err := f.WriteTIFF16ToFile(planeName); err != nil {
				return fmt.Errorf("fragment %d: %s: %s", fragment, planeName, err.Error())
			}
		}
	}

	archiveName := stackDir + ".tar.gz"
	if err := tarGzDir(stackDir, archiveName); err != nil {
		return fmt.Errorf("fragment %d: %s", fragment, err.Error())
	}
	fmt.Fprintf(p.Log, "%d: processed stack archived to %s\n", fragment, archiveName)
	return os.RemoveAll(stackDir)
}

// Pack all regular files of a directory into a gzipped tar archive
func tarGzDir(dir, archiveName string) error {
	file, err := os.Create(archiveName)
	if err != nil {
		return err
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(filepath.Join(filepath.Base(dir), entry.Name()))
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		src, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		_, err = io.Copy(tw, src)
		src.Close()
		if err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}
