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

	"github.com/sectorforge/sectorforge/pkg/crc"
	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/raw"
)

// Intel MDS address marks
const (
	markIDM2FM      = 0x0E
	markDataM2FM    = 0x0B
	markDeletedM2FM = 0x08

	gap2LenM2FM  = 18
	dataWindowM2 = 16 * (gap2LenM2FM + preSyncLen + 24)
)

// M2FM is the Intel MDS style modified-modified FM codec.
type M2FM struct{}

//
func (c *M2FM) Tag() disk.Encoding {
	return disk.EncM2FM
}

//
func (c *M2FM) EmitFill(w *raw.Writer, n int) {
	m := &m2fmWriter{w: w}
	m.gap(n, 0x00)
}

//
func (c *M2FM) EmitSector(w *raw.Writer, sec *disk.Sector) error {

	if sec.Data == nil && !sec.OmitDataMark {
		return fmt.Errorf("sector %d has no payload", sec.Number)
	}
	if sec.Data != nil && len(sec.Data) != sec.Size() {
		return fmt.Errorf("sector %d payload length %d, size code wants %d",
			sec.Number, len(sec.Data), sec.Size())
	}

	m := &m2fmWriter{w: w}

	m.gap(preSyncLen, 0x00)
	m.sync()
	m.byte(markIDM2FM)
	id := []byte{
		byte(sec.Cylinder), byte(sec.Head), byte(sec.Number), byte(sec.SizeCode)}
	for _, b := range id {
		m.byte(b)
	}
	sec.HeaderCRC = uint32(crc.FMSectorCRC(markIDM2FM, id))
	stored := sec.HeaderCRC
	if sec.AltHeaderCRC != nil {
		stored = *sec.AltHeaderCRC
	}
	sec.HeaderCRCStored = stored
	m.byte(byte(stored >> 8))
	m.byte(byte(stored))

	m.gap(gap2LenM2FM, 0x00)

	if !sec.OmitDataMark {
		m.sync()
		mark := sec.Mark
		if mark == disk.MarkData {
			mark = markDataM2FM
		} else if mark == disk.MarkDeleted {
			mark = markDeletedM2FM
		}
		if sec.AltMark != nil {
			mark = *sec.AltMark
		}
		m.byte(mark)

		dataStart := w.BitPos()
		for _, b := range sec.Data {
			m.byte(b)
		}
		markWeakBits(w, sec, dataStart, 16)

		sec.DataCRC = uint32(crc.FMSectorCRC(mark, sec.Data))
		stored = sec.DataCRC
		if sec.AltDataCRC != nil {
			stored = *sec.AltDataCRC
		}
		sec.DataCRCStored = stored
		m.byte(byte(stored >> 8))
		m.byte(byte(stored))
	}

	gap3 := sec.Gap3Len
	if gap3 <= 0 {
		gap3 = 32
	}
	m.gap(gap3, 0x00)
	return nil
}

//
func (c *M2FM) NextSector(t *disk.Track, from int) (*disk.Sector, int, bool) {

	pos := from
	for {
		idPos, ok := t.Bits.FindPattern(m2fmSyncRaw, 16, pos)
		if !ok {
			return nil, 0, false
		}

		if decodeByte(t, idPos+16) != markIDM2FM {
			pos = idPos + 1
			continue
		}

		sec, next, ok := c.decodeSector(t, idPos)
		if !ok {
			pos = idPos + 1
			continue
		}
		return sec, next, true
	}
}

//
func (c *M2FM) decodeSector(t *disk.Track, idPos int) (*disk.Sector, int, bool) {

	field := idPos + 32 // sync word + ID mark
	id := decodeBytes(t, field, 6)
	sizeCode := int(id[3]) & 0x07
	sec, err := disk.NewSector(int(id[0]), int(id[1]), int(id[2]), sizeCode)
	if err != nil {
		return nil, 0, false
	}
	sec.IDBitPos = idPos
	sec.HeaderCRC = uint32(crc.FMSectorCRC(markIDM2FM, id[:4]))
	sec.HeaderCRCStored = uint32(id[4])<<8 | uint32(id[5])
	sec.HeaderOK = sec.HeaderCRC == sec.HeaderCRCStored
	if !sec.HeaderOK {
		sec.Invalidate("header CRC mismatch")
	}

	idEnd := field + 6*16

	dp, ok := t.Bits.FindPattern(m2fmSyncRaw, 16, idEnd)
	if !ok || dp > idEnd+dataWindowM2 {
		sec.Invalidate("data address mark not found")
		return sec, idEnd, true
	}
	mark := decodeByte(t, dp+16)
	if mark == markIDM2FM {
		sec.Invalidate("data address mark not found")
		return sec, dp, true
	}

	sec.Mark = mark
	sec.DataBitPos = dp
	dataStart := dp + 32
	sec.Data = decodeBytes(t, dataStart, sec.Size())
	dataEnd := dataStart + 16*sec.Size()
	sec.DataCRC = uint32(crc.FMSectorCRC(mark, sec.Data))
	sec.DataCRCStored = uint32(decodeByte(t, dataEnd))<<8 |
		uint32(decodeByte(t, dataEnd+16))
	sec.DataOK = sec.DataCRC == sec.DataCRCStored
	if !sec.DataOK {
		sec.Invalidate("data CRC mismatch")
	}
	sec.EndBitPos = dataEnd + 32

	if t.WeakMask != nil {
		sec.WeakMask = extractWeakMask(t, sec, dataStart, 16)
	}

	return sec, sec.EndBitPos, true
}

//
func (c *M2FM) CorrectData(sec *disk.Sector) bool {
	return correctFMFamily(crc.CRC16CCITTFalse, sec)
}
