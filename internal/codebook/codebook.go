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

// Package codebook describes how logical barcode bits and auxiliary stains
// map onto the physical imaging channels and depth slices of a data set
package codebook

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// A named logical barcode channel and its physical imaging channel
type Bit struct {
	Name    string `yaml:"name"`
	Channel int    `yaml:"channel"`
}

// An ordered set of bits forming one barcode scheme
type Codebook struct {
	Name string `yaml:"name"`
	Bits []Bit  `yaml:"bits"`
}

// A non-multiplex data channel imaged in its own sequential round
type Channel struct {
	Name  string `yaml:"name"`
	Index int    `yaml:"index"`
}

// The data organization of an imaging run: codebooks, sequential channels,
// z positions, and the channel names that bypass restoration
type Organization struct {
	Codebooks   []Codebook `yaml:"codebooks"`
	Sequential  []Channel  `yaml:"sequential"`
	PassThrough []string   `yaml:"passThrough"`
	ZPositions  []float64  `yaml:"zPositions"`
}

// Load reads a data organization from a YAML file
func Load(fileName string) (*Organization, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	var org Organization
	if err := yaml.Unmarshal(data, &org); err != nil {
		return nil, fmt.Errorf("%s: %s", fileName, err.Error())
	}
	if err := org.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %s", fileName, err.Error())
	}
	return &org, nil
}

// Validate checks for at least one codebook with bits, at least one z
// position, and unique bit names per codebook
func (o *Organization) Validate() error {
	if len(o.Codebooks) == 0 {
		return fmt.Errorf("no codebooks defined")
	}
	for _, cb := range o.Codebooks {
		if len(cb.Bits) == 0 {
			return fmt.Errorf("codebook %s has no bits", cb.Name)
		}
		seen := map[string]bool{}
		for _, b := range cb.Bits {
			if seen[b.Name] {
				return fmt.Errorf("codebook %s: duplicate bit name %s", cb.Name, b.Name)
			}
			seen[b.Name] = true
		}
	}
	if len(o.ZPositions) == 0 {
		return fmt.Errorf("no z positions defined")
	}
	return nil
}

// Codebook returns the codebook with the given index
func (o *Organization) Codebook(index int) (*Codebook, error) {
	if index < 0 || index >= len(o.Codebooks) {
		return nil, fmt.Errorf("codebook index %d out of range, have %d codebooks", index, len(o.Codebooks))
	}
	return &o.Codebooks[index], nil
}

// ZCount returns the number of depth slices per channel
func (o *Organization) ZCount() int {
	return len(o.ZPositions)
}

// IsPassThrough reports whether a channel name bypasses restoration,
// e.g. structural or nuclear stains
func (o *Organization) IsPassThrough(name string) bool {
	for _, n := range o.PassThrough {
		if n == name {
			return true
		}
	}
	return false
}

// DataChannels returns the full ordered channel list: the multiplex channels
// of every codebook in bit order, then the sequential channels
func (o *Organization) DataChannels() []Channel {
	var channels []Channel
	for _, cb := range o.Codebooks {
		for _, b := range cb.Bits {
			channels = append(channels, Channel{Name: b.Name, Index: b.Channel})
		}
	}
	return append(channels, o.Sequential...)
}

func (cb *Codebook) BitCount() int {
	return len(cb.Bits)
}

// BitNames returns the bit names in their declared order
func (cb *Codebook) BitNames() []string {
	names := make([]string, len(cb.Bits))
	for i, b := range cb.Bits {
		names[i] = b.Name
	}
	return names
}

// ChannelForBit resolves a bit name to its physical imaging channel
func (cb *Codebook) ChannelForBit(name string) (int, error) {
	for _, b := range cb.Bits {
		if b.Name == name {
			return b.Channel, nil
		}
	}
	return 0, fmt.Errorf("codebook %s: unknown bit %s", cb.Name, name)
}
