/*
   SectorForge - floppy disk track & sector codec engine
   Copyright (c) 2024, The SectorForge Authors

   This file is part of SectorForge.

   SectorForge is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   SectorForge is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with SectorForge. If not, see <http://www.gnu.org/licenses/>.
*/

// Package track builds and dissects complete track images: the generator
// lays sectors out physically, the scanner recovers them, and a detector
// guesses the encoding of an unknown bit stream.
package track

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/encoding"
	"github.com/sectorforge/sectorforge/pkg/raw"
)

// Params describes one track to generate. Sectors are given in logical
// order; interleave and skew determine the physical write order.
type Params struct {
	SectorCount int
	Sectors     []*disk.Sector
	Interleave  int // logical step between physically adjacent sectors
	Skew        int // per-cylinder rotation of the starting sector
	Bitrate     int // raw bit cells per second
	RPM         int
	Encoding    disk.Encoding
	IndexGapLen int // fill bytes at the index position
	IndexGapPos int // physical slot before which the index gap sits
}

//
func (p *Params) validate() error {
	if p.SectorCount <= 0 {
		return fmt.Errorf("sector count must be positive, got %d",
			p.SectorCount)
	}
	if len(p.Sectors) != p.SectorCount {
		return fmt.Errorf("got %d sectors, count says %d",
			len(p.Sectors), p.SectorCount)
	}
	if p.Bitrate <= 0 || p.RPM <= 0 {
		return fmt.Errorf("bitrate %d and RPM %d must be positive",
			p.Bitrate, p.RPM)
	}
	if p.Interleave < 0 || p.Skew < 0 {
		return fmt.Errorf("interleave %d and skew %d must not be negative",
			p.Interleave, p.Skew)
	}
	return nil
}

// writeOrder steps through the logical ring by the interleave factor,
// skipping forward by one on collision, then rotates the result by the
// cylinder dependent skew.
func writeOrder(p *Params) []int {

	n := p.SectorCount
	order := make([]int, 0, n)
	taken := make([]bool, n)

	step := p.Interleave
	if step <= 0 {
		step = 1
	}

	idx := 0
	for len(order) < n {
		for taken[idx] {
			idx = (idx + 1) % n
		}
		order = append(order, idx)
		taken[idx] = true
		idx = (idx + step) % n
	}

	if p.Skew > 0 && n > 0 {
		rot := (p.Skew * p.Sectors[0].Cylinder) % n
		order = append(order[rot:], order[:rot]...)
	}
	return order
}

// Generate serializes the given sectors into a finished track of the
// nominal length implied by bitrate and RPM. The sectors' calculated and
// stored CRC fields are filled in as a side effect of emission.
func Generate(p *Params) (*disk.Track, error) {

	if err := p.validate(); err != nil {
		return nil, err
	}
	codec, err := encoding.Get(p.Encoding)
	if err != nil {
		return nil, err
	}

	bitLen := p.Bitrate * 60 / p.RPM
	w := raw.NewWriter(bitLen)

	order := writeOrder(p)
	log.WithFields(log.Fields{
		"encoding": p.Encoding, "sectors": p.SectorCount,
		"interleave": p.Interleave, "bits": bitLen}).Debug("generating track")

	var index []int
	hard := p.Encoding == disk.EncFMHardSector

	for slot, lx := range order {
		if slot == p.IndexGapPos%p.SectorCount {
			index = append(index, w.BitPos())
			if p.IndexGapLen > 0 {
				codec.EmitFill(w, p.IndexGapLen)
			}
		}
		if hard {
			// one hole per sector, plus the slot 0 index hole above
			index = append(index, w.BitPos())
		}
		sec := p.Sectors[lx]
		if err := codec.EmitSector(w, sec); err != nil {
			return nil, fmt.Errorf("sector %d: %v", sec.Number, err)
		}
		log.Tracef("sector %d in slot %d", sec.Number, slot)
	}

	if w.Full() {
		return nil, fmt.Errorf(
			"sectors overflow the track, %d bits do not suffice", bitLen)
	}
	for !w.Full() {
		codec.EmitFill(w, 1)
	}

	tr := &disk.Track{
		Bits:     w.Bits(),
		Index:    index,
		Bitrate:  p.Bitrate,
		Encoding: p.Encoding,
	}
	if err := tr.SetWeakMask(w.WeakMask()); err != nil {
		return nil, err
	}
	return tr, nil
}
