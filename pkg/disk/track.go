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

package disk

import (
	"fmt"

	"github.com/sectorforge/sectorforge/pkg/raw"
)

// Encoding tags the physical bit encoding of a track. Codec variants are
// registered under these tags.
type Encoding int

const (
	EncUnknown Encoding = iota
	EncFM
	EncMFM
	EncM2FM
	EncAmigaMFM
	EncGCRC64
	EncGCRVictor
	EncGCRAppleII
	EncGCRAppleMac
	EncFMHardSector
)

//
var encodingNames = map[Encoding]string{
	EncUnknown:      "unknown",
	EncFM:           "fm",
	EncMFM:          "mfm",
	EncM2FM:         "m2fm",
	EncAmigaMFM:     "amiga",
	EncGCRC64:       "gcr-c64",
	EncGCRVictor:    "gcr-victor",
	EncGCRAppleII:   "gcr-apple2",
	EncGCRAppleMac:  "gcr-mac",
	EncFMHardSector: "fm-hard",
}

//
func (e Encoding) String() string {
	if n, ok := encodingNames[e]; ok {
		return n
	}
	return fmt.Sprintf("encoding %d", int(e))
}

// ParseEncoding resolves an encoding name as used on the command line.
func ParseEncoding(name string) (Encoding, error) {
	for e, n := range encodingNames {
		if n == name && e != EncUnknown {
			return e, nil
		}
	}
	return EncUnknown, fmt.Errorf("unknown encoding: %s", name)
}

// NewTrack creates an empty track of bitLen bits.
func NewTrack(bitLen, bitrate int, enc Encoding) (*Track, error) {
	bits, err := raw.NewBuffer(bitLen)
	if err != nil {
		return nil, err
	}
	return &Track{
		Bits:     bits,
		Bitrate:  bitrate,
		Encoding: enc,
	}, nil
}

// Track is one physical revolution of one side: a bit-addressable buffer
// with optional weak-bit mask, index pulse positions and per-bit timing.
type Track struct {
	Bits     *raw.Buffer
	WeakMask *raw.Buffer // nil, or exactly Bits.BitLen() bits
	Index    []int       // index pulse bit positions
	Timing   []uint32    // ns per bit cell, optional
	Bitrate  int         // nominal raw bit cells per second
	Encoding Encoding
}

//
func (t *Track) BitLen() int {
	return t.Bits.BitLen()
}

// SetWeakMask attaches a weak-bit mask, which must match the track's bit
// length exactly.
func (t *Track) SetWeakMask(mask *raw.Buffer) error {
	if mask != nil && mask.BitLen() != t.BitLen() {
		return fmt.Errorf("weak mask bit length %d does not match track %d",
			mask.BitLen(), t.BitLen())
	}
	t.WeakMask = mask
	return nil
}

// SetTiming attaches a per-bit timing array, nanoseconds per bit cell.
func (t *Track) SetTiming(ns []uint32) error {
	if ns != nil && len(ns) != t.BitLen() {
		return fmt.Errorf("timing array length %d does not match track %d",
			len(ns), t.BitLen())
	}
	t.Timing = ns
	return nil
}

//
func (t *Track) Clone() *Track {
	c := &Track{
		Bits:     t.Bits.Clone(),
		Bitrate:  t.Bitrate,
		Encoding: t.Encoding,
	}
	if t.WeakMask != nil {
		c.WeakMask = t.WeakMask.Clone()
	}
	if t.Index != nil {
		c.Index = append([]int(nil), t.Index...)
	}
	if t.Timing != nil {
		c.Timing = append([]uint32(nil), t.Timing...)
	}
	return c
}

// Cylinder groups the tracks of one head position, together with the
// rotation speed shared by both heads.
type Cylinder struct {
	Tracks []*Track // by head, 1 or 2 entries
	RPM    float64
}

//
func (c *Cylinder) Track(head int) *Track {
	if head < 0 || head >= len(c.Tracks) {
		return nil
	}
	return c.Tracks[head]
}

//
func (c *Cylinder) Clone() *Cylinder {
	ret := &Cylinder{RPM: c.RPM}
	for _, t := range c.Tracks {
		if t != nil {
			ret.Tracks = append(ret.Tracks, t.Clone())
		} else {
			ret.Tracks = append(ret.Tracks, nil)
		}
	}
	return ret
}
