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

package mfm

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sectorforge/sectorforge/pkg/crc"
	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/encoding"
	"github.com/sectorforge/sectorforge/pkg/raw"
)

//
func init() {
	encoding.Register(&MFM{})
	encoding.Register(&FM{})
	encoding.Register(&M2FM{})
}

const (
	syncRawMFM  = 0x4489 // A1 with missing clock between bits 4 and 5
	markID      = 0xFE
	gapFillMFM  = 0x4E
	preSyncLen  = 12
	gap2LenMFM  = 22
	gap3Default = 54

	// raw cells between end of ID field and latest acceptable start of
	// the data sync; anything further belongs to the next sector
	dataWindowMFM = 16 * (gap2LenMFM + preSyncLen + 24)
)

// MFM is the IBM System/34 style double density codec.
type MFM struct{}

//
func (c *MFM) Tag() disk.Encoding {
	return disk.EncMFM
}

//
func (c *MFM) EmitFill(w *raw.Writer, n int) {
	m := &mfmWriter{w: w}
	m.gap(n, gapFillMFM)
}

//
func (c *MFM) EmitSector(w *raw.Writer, sec *disk.Sector) error {

	if sec.Data == nil && !sec.OmitDataMark {
		return fmt.Errorf("sector %d has no payload", sec.Number)
	}
	if sec.Data != nil && len(sec.Data) != sec.Size() {
		return fmt.Errorf("sector %d payload length %d, size code wants %d",
			sec.Number, len(sec.Data), sec.Size())
	}

	m := &mfmWriter{w: w}

	// ID field
	m.gap(preSyncLen, 0x00)
	m.syncA1(3)
	m.byte(markID)
	id := []byte{
		byte(sec.Cylinder), byte(sec.Head), byte(sec.Number), byte(sec.SizeCode)}
	for _, b := range id {
		m.byte(b)
	}
	sec.HeaderCRC = uint32(crc.MFMSectorCRC(markID, id))
	stored := sec.HeaderCRC
	if sec.AltHeaderCRC != nil {
		stored = *sec.AltHeaderCRC
	}
	sec.HeaderCRCStored = stored
	m.byte(byte(stored >> 8))
	m.byte(byte(stored))

	m.gap(gap2LenMFM, gapFillMFM)

	// data field, unless the descriptor wants it missing
	if !sec.OmitDataMark {
		m.gap(preSyncLen, 0x00)
		m.syncA1(3)
		mark := sec.EffectiveMark()
		m.byte(mark)

		dataStart := w.BitPos()
		for _, b := range sec.Data {
			m.byte(b)
		}
		markWeakBits(w, sec, dataStart, 16)

		sec.DataCRC = uint32(crc.MFMSectorCRC(mark, sec.Data))
		stored = sec.DataCRC
		if sec.AltDataCRC != nil {
			stored = *sec.AltDataCRC
		}
		sec.DataCRCStored = stored
		m.byte(byte(stored >> 8))
		m.byte(byte(stored))
	}

	gap3, fill := sec.Gap3Len, sec.Gap3Fill
	if gap3 <= 0 {
		gap3 = gap3Default
	}
	if fill == 0 {
		fill = gapFillMFM
	}
	m.gap(gap3, fill)
	return nil
}

// markWeakBits transfers a sector's weak mask into the track's weak mask.
// Payload bit i occupies cellBits/8 raw bits starting at
// dataStart + i*cellBits/8.
func markWeakBits(w *raw.Writer, sec *disk.Sector, dataStart, cellBits int) {
	if sec.WeakMask == nil {
		return
	}
	per := cellBits / 8
	for i, mb := range sec.WeakMask {
		if mb == 0 {
			continue
		}
		for j := 0; j < 8; j++ {
			if mb&(0x80>>j) != 0 {
				w.MarkWeak(dataStart+(i*8+j)*per, per)
			}
		}
	}
}

//
func (c *MFM) NextSector(t *disk.Track, from int) (*disk.Sector, int, bool) {

	pos := from
	for {
		idPos, ok := t.Bits.FindPattern(syncRawMFM, 16, pos)
		if !ok {
			return nil, 0, false
		}

		p := idPos
		for t.Bits.ReadBits(p, 16) == syncRawMFM {
			p += 16
		}

		if decodeByte(t, p) != markID {
			pos = idPos + 1
			continue
		}

		sec, next, ok := c.decodeSector(t, idPos, p+16)
		if !ok {
			pos = idPos + 1
			continue
		}
		return sec, next, true
	}
}

// decodeSector decodes ID and data fields, id starting at field (just past
// the FE mark), sync having begun at idPos.
func (c *MFM) decodeSector(t *disk.Track, idPos, field int) (*disk.Sector, int, bool) {

	id := decodeBytes(t, field, 6)
	sizeCode := int(id[3]) & 0x07
	sec, err := disk.NewSector(int(id[0]), int(id[1]), int(id[2]), sizeCode)
	if err != nil {
		return nil, 0, false
	}
	if int(id[3]) != sizeCode {
		sec.Invalidate(fmt.Sprintf("implausible size code %#x", id[3]))
	}
	sec.IDBitPos = idPos
	sec.HeaderCRC = uint32(crc.MFMSectorCRC(markID, id[:4]))
	sec.HeaderCRCStored = uint32(id[4])<<8 | uint32(id[5])
	sec.HeaderOK = sec.HeaderCRC == sec.HeaderCRCStored
	if !sec.HeaderOK {
		sec.Invalidate("header CRC mismatch")
	}

	idEnd := field + 6*16

	dp, ok := t.Bits.FindPattern(syncRawMFM, 16, idEnd)
	if !ok || dp > idEnd+dataWindowMFM {
		log.WithFields(log.Fields{
			"cylinder": sec.Cylinder, "sector": sec.Number,
		}).Trace("no data address mark")
		sec.Invalidate("data address mark not found")
		return sec, idEnd, true
	}

	q := dp
	for t.Bits.ReadBits(q, 16) == syncRawMFM {
		q += 16
	}
	mark := decodeByte(t, q)
	if mark == markID {
		// ran into the next sector's ID field instead
		sec.Invalidate("data address mark not found")
		return sec, dp, true
	}

	sec.Mark = mark
	sec.DataBitPos = dp
	sec.Data = decodeBytes(t, q+16, sec.Size())
	dataEnd := q + 16 + 16*sec.Size()
	sec.DataCRC = uint32(crc.MFMSectorCRC(mark, sec.Data))
	sec.DataCRCStored = uint32(decodeByte(t, dataEnd))<<8 |
		uint32(decodeByte(t, dataEnd+16))
	sec.DataOK = sec.DataCRC == sec.DataCRCStored
	if !sec.DataOK {
		sec.Invalidate("data CRC mismatch")
	}
	sec.EndBitPos = dataEnd + 32

	if t.WeakMask != nil {
		sec.WeakMask = extractWeakMask(t, sec, q+16, 16)
	}

	return sec, sec.EndBitPos, true
}

// extractWeakMask projects the track's weak mask back onto payload bits.
func extractWeakMask(t *disk.Track, sec *disk.Sector, dataStart, cellBits int) []byte {
	per := cellBits / 8
	mask := make([]byte, sec.Size())
	any := false
	for i := range mask {
		for j := 0; j < 8; j++ {
			from := dataStart + (i*8+j)*per
			for k := 0; k < per; k++ {
				if t.WeakMask.Bit(from+k) != 0 {
					mask[i] |= 0x80 >> j
					any = true
					break
				}
			}
		}
	}
	if !any {
		return nil
	}
	return mask
}

// CorrectData attempts a one-bit repair of the data field against the
// stored CRC.
func (c *MFM) CorrectData(sec *disk.Sector) bool {
	return correctFMFamily(crc.CRC16MFM, sec)
}

//
func correctFMFamily(kind crc.Kind, sec *disk.Sector) bool {

	if sec.Data == nil {
		return false
	}

	buf := make([]byte, 1+len(sec.Data))
	buf[0] = sec.Mark
	copy(buf[1:], sec.Data)

	pos, ok, err := crc.CorrectOneBit(kind, buf, sec.DataCRCStored)
	if err != nil || !ok {
		return false
	}

	log.WithFields(log.Fields{
		"sector": sec.Number, "bit": pos}).Debug("corrected single bit error")

	sec.Mark = buf[0]
	copy(sec.Data, buf[1:])
	sec.DataCRC = sec.DataCRCStored
	sec.DataOK = true
	sec.Corrected = true
	return true
}
