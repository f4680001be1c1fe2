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

const (
	// address marks carry clock 0xC7 instead of the normal 0xFF
	markClockFM = 0xC7
	gapFillFM   = 0xFF
	preSyncFM   = 6
	gap2LenFM   = 11

	dataWindowFM = 16 * (gap2LenFM + preSyncFM + 24)
)

// FM is the single density IBM 3740 style codec.
type FM struct{}

//
func (c *FM) Tag() disk.Encoding {
	return disk.EncFM
}

//
func (c *FM) EmitFill(w *raw.Writer, n int) {
	f := &fmWriter{w: w}
	f.gap(n, gapFillFM)
}

//
func (c *FM) EmitSector(w *raw.Writer, sec *disk.Sector) error {

	if sec.Data == nil && !sec.OmitDataMark {
		return fmt.Errorf("sector %d has no payload", sec.Number)
	}
	if sec.Data != nil && len(sec.Data) != sec.Size() {
		return fmt.Errorf("sector %d payload length %d, size code wants %d",
			sec.Number, len(sec.Data), sec.Size())
	}

	f := &fmWriter{w: w}

	f.gap(preSyncFM, 0x00)
	f.markRaw(markID, markClockFM)
	id := []byte{
		byte(sec.Cylinder), byte(sec.Head), byte(sec.Number), byte(sec.SizeCode)}
	for _, b := range id {
		f.byte(b)
	}
	sec.HeaderCRC = uint32(crc.FMSectorCRC(markID, id))
	stored := sec.HeaderCRC
	if sec.AltHeaderCRC != nil {
		stored = *sec.AltHeaderCRC
	}
	sec.HeaderCRCStored = stored
	f.byte(byte(stored >> 8))
	f.byte(byte(stored))

	f.gap(gap2LenFM, gapFillFM)

	if !sec.OmitDataMark {
		f.gap(preSyncFM, 0x00)
		mark := sec.EffectiveMark()
		f.markRaw(mark, markClockFM)

		dataStart := w.BitPos()
		for _, b := range sec.Data {
			f.byte(b)
		}
		markWeakBits(w, sec, dataStart, 16)

		sec.DataCRC = uint32(crc.FMSectorCRC(mark, sec.Data))
		stored = sec.DataCRC
		if sec.AltDataCRC != nil {
			stored = *sec.AltDataCRC
		}
		sec.DataCRCStored = stored
		f.byte(byte(stored >> 8))
		f.byte(byte(stored))
	}

	gap3, fill := sec.Gap3Len, sec.Gap3Fill
	if gap3 <= 0 {
		gap3 = 27
	}
	if fill == 0 {
		fill = gapFillFM
	}
	f.gap(gap3, fill)
	return nil
}

// findMark locates the next byte cell with the 0xC7 mark clock at or
// after from, requiring the preceding cell to be presync zeros so that a
// misaligned window cannot fake a mark.
func findMark(t *disk.Track, from, to int) (int, byte, bool) {
	for pos := from; pos+16 <= t.BitLen() && pos <= to; pos++ {
		if clockByte(t, pos) != markClockFM {
			continue
		}
		if pos >= 16 &&
			(clockByte(t, pos-16) != 0xFF || decodeByte(t, pos-16) != 0x00) {
			continue
		}
		return pos, decodeByte(t, pos), true
	}
	return 0, 0, false
}

//
func (c *FM) NextSector(t *disk.Track, from int) (*disk.Sector, int, bool) {

	pos := from
	for {
		idPos, mark, ok := findMark(t, pos, t.BitLen())
		if !ok {
			return nil, 0, false
		}
		if mark != markID {
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
func (c *FM) decodeSector(t *disk.Track, idPos int) (*disk.Sector, int, bool) {

	field := idPos + 16
	id := decodeBytes(t, field, 6)
	sizeCode := int(id[3]) & 0x07
	sec, err := disk.NewSector(int(id[0]), int(id[1]), int(id[2]), sizeCode)
	if err != nil {
		return nil, 0, false
	}
	sec.IDBitPos = idPos
	sec.HeaderCRC = uint32(crc.FMSectorCRC(markID, id[:4]))
	sec.HeaderCRCStored = uint32(id[4])<<8 | uint32(id[5])
	sec.HeaderOK = sec.HeaderCRC == sec.HeaderCRCStored
	if !sec.HeaderOK {
		sec.Invalidate("header CRC mismatch")
	}

	idEnd := field + 6*16

	dp, mark, ok := findMark(t, idEnd, idEnd+dataWindowFM)
	if !ok || mark == markID {
		sec.Invalidate("data address mark not found")
		if ok {
			return sec, dp, true
		}
		return sec, idEnd, true
	}

	sec.Mark = mark
	sec.DataBitPos = dp
	sec.Data = decodeBytes(t, dp+16, sec.Size())
	dataEnd := dp + 16 + 16*sec.Size()
	sec.DataCRC = uint32(crc.FMSectorCRC(mark, sec.Data))
	sec.DataCRCStored = uint32(decodeByte(t, dataEnd))<<8 |
		uint32(decodeByte(t, dataEnd+16))
	sec.DataOK = sec.DataCRC == sec.DataCRCStored
	if !sec.DataOK {
		sec.Invalidate("data CRC mismatch")
	}
	sec.EndBitPos = dataEnd + 32

	if t.WeakMask != nil {
		sec.WeakMask = extractWeakMask(t, sec, dp+16, 16)
	}

	return sec, sec.EndBitPos, true
}

//
func (c *FM) CorrectData(sec *disk.Sector) bool {
	return correctFMFamily(crc.CRC16CCITTFalse, sec)
}
