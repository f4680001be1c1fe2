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

	"github.com/sectorforge/sectorforge/pkg/util"
)

// common data address marks of the FM/MFM families
const (
	MarkData    = 0xFB
	MarkDeleted = 0xF8
)

// NewSector creates an empty sector descriptor. The size code must be one
// of 0..7 (sector size 128 << code).
func NewSector(cylinder, head, number, sizeCode int) (*Sector, error) {
	if sizeCode < 0 || sizeCode > 7 {
		return nil, fmt.Errorf("invalid sector size code: %d", sizeCode)
	}
	return &Sector{
		Cylinder: cylinder,
		Head:     head,
		Number:   number,
		SizeCode: sizeCode,
		Mark:     MarkData,
		IDBitPos: -1,
	}, nil
}

// Sector describes one physical sector, as written or as read. The CRC
// fields hold stored and calculated values side by side; the calculated
// value is always filled in by a generator or extractor pass, even when an
// alternate override is present.
type Sector struct {
	Cylinder int
	Head     int
	Number   int
	SizeCode int

	// payload; length equals Size() once populated
	Data []byte

	// bit-per-payload-bit mask, 1 = unstable; same bit length as Data
	WeakMask []byte

	// data address mark as written/read
	Mark byte

	HeaderCRC       uint32 // calculated
	HeaderCRCStored uint32 // as found on the track
	DataCRC         uint32
	DataCRCStored   uint32
	HeaderOK        bool
	DataOK          bool

	// protection authoring overrides; nil means "write the real value"
	AltHeaderCRC *uint32
	AltDataCRC   *uint32
	AltMark      *byte
	OmitDataMark bool // emit the ID field only, no data field at all

	// generation parameters
	Gap3Len  int
	Gap3Fill byte

	// bit offsets within the owning track, filled in by extraction;
	// IDBitPos is -1 for generated sectors
	IDBitPos   int
	DataBitPos int
	EndBitPos  int

	// set when the extractor repaired the payload via CRC correction
	Corrected bool

	validation util.Validation
}

// Size returns the payload size in bytes implied by the size code.
func (s *Sector) Size() int {
	return 128 << s.SizeCode
}

// SetData sets the payload, enforcing the declared size.
func (s *Sector) SetData(data []byte) error {
	if len(data) != s.Size() {
		return fmt.Errorf("payload length %d does not match size code %d (%d)",
			len(data), s.SizeCode, s.Size())
	}
	s.Data = data
	return nil
}

// SetWeakMask attaches a weak-bit mask, one mask byte per payload byte.
func (s *Sector) SetWeakMask(mask []byte) error {
	if len(mask) != s.Size() {
		return fmt.Errorf("weak mask length %d does not match sector size %d",
			len(mask), s.Size())
	}
	s.WeakMask = mask
	return nil
}

// EffectiveMark returns the mark byte to put on the track, honoring an
// alternate override.
func (s *Sector) EffectiveMark() byte {
	if s.AltMark != nil {
		return *s.AltMark
	}
	return s.Mark
}

// Deleted reports whether the sector carries a deleted data mark, either
// the IBM 0xF8 or the Intel M2FM 0x08.
func (s *Sector) Deleted() bool {
	return s.Mark == MarkDeleted || s.Mark == 0x08
}

// Invalidate records a decode anomaly without failing the pass.
func (s *Sector) Invalidate(msg string) {
	if s.validation.GetError() == nil {
		s.validation.SetError(fmt.Errorf(msg))
	}
}

//
func (s *Sector) ValidationError() error {
	return s.validation.GetError()
}

//
func (s *Sector) Clone() *Sector {
	c := *s
	c.validation = util.Validation{}
	if s.Data != nil {
		c.Data = append([]byte(nil), s.Data...)
	}
	if s.WeakMask != nil {
		c.WeakMask = append([]byte(nil), s.WeakMask...)
	}
	if s.AltHeaderCRC != nil {
		v := *s.AltHeaderCRC
		c.AltHeaderCRC = &v
	}
	if s.AltDataCRC != nil {
		v := *s.AltDataCRC
		c.AltDataCRC = &v
	}
	if s.AltMark != nil {
		v := *s.AltMark
		c.AltMark = &v
	}
	return &c
}
