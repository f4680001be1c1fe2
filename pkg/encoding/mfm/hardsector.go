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
	"github.com/sectorforge/sectorforge/pkg/encoding"
	"github.com/sectorforge/sectorforge/pkg/raw"
)

//
func init() {
	encoding.Register(&HardSector{})
}

const (
	markSync  = 0xFB
	preSyncHS = 10
	gap3LenHS = 12
)

// HardSector is an FM codec for hard sectored media in the North Star
// style. The sector hole, not an ID field, locates each sector, so there
// is only a short sync prefix naming track and sector, and a single XOR
// checksum closing the payload. Header validation never fails, the drive
// hardware already guarantees the position.
type HardSector struct{}

//
func (c *HardSector) Tag() disk.Encoding {
	return disk.EncFMHardSector
}

//
func (c *HardSector) EmitFill(w *raw.Writer, n int) {
	f := &fmWriter{w: w}
	f.gap(n, 0x00)
}

//
func (c *HardSector) EmitSector(w *raw.Writer, sec *disk.Sector) error {

	if sec.SizeCode != 1 {
		return fmt.Errorf(
			"hard sectored payloads are always 256 bytes, got size code %d",
			sec.SizeCode)
	}
	if len(sec.Data) != sec.Size() {
		return fmt.Errorf("sector %d payload length %d, size code wants %d",
			sec.Number, len(sec.Data), sec.Size())
	}

	f := &fmWriter{w: w}

	f.gap(preSyncHS, 0x00)
	f.markRaw(markSync, markClockFM)

	prefix := []byte{byte(sec.Cylinder), byte(sec.Number)}
	for _, b := range prefix {
		f.byte(b)
	}
	sec.HeaderCRC = 0
	sec.HeaderCRCStored = 0

	dataStart := w.BitPos()
	for _, b := range sec.Data {
		f.byte(b)
	}
	markWeakBits(w, sec, dataStart, 16)

	sum, _ := crc.Calc(crc.XOR8, append(prefix, sec.Data...))
	sec.DataCRC = sum
	stored := sec.DataCRC
	if sec.AltDataCRC != nil {
		stored = *sec.AltDataCRC
	}
	sec.DataCRCStored = stored
	f.byte(byte(stored))

	gap3 := sec.Gap3Len
	if gap3 <= 0 {
		gap3 = gap3LenHS
	}
	f.gap(gap3, 0x00)
	return nil
}

//
func (c *HardSector) NextSector(t *disk.Track, from int) (*disk.Sector, int, bool) {

	pos := from
	for {
		sp, mark, ok := findMark(t, pos, t.BitLen())
		if !ok {
			return nil, 0, false
		}
		if mark != markSync {
			pos = sp + 1
			continue
		}

		sec, next, ok := c.decodeSector(t, sp)
		if !ok {
			pos = sp + 1
			continue
		}
		return sec, next, true
	}
}

//
func (c *HardSector) decodeSector(t *disk.Track, sp int) (*disk.Sector, int, bool) {

	field := sp + 16
	prefix := decodeBytes(t, field, 2)
	sec, err := disk.NewSector(int(prefix[0]), 0, int(prefix[1]), 1)
	if err != nil {
		return nil, 0, false
	}
	sec.IDBitPos = sp
	sec.HeaderOK = true
	sec.Mark = markSync
	sec.DataBitPos = sp

	dataStart := field + 2*16
	sec.Data = decodeBytes(t, dataStart, sec.Size())
	dataEnd := dataStart + 16*sec.Size()

	sum, _ := crc.Calc(crc.XOR8, append(prefix, sec.Data...))
	sec.DataCRC = sum
	sec.DataCRCStored = uint32(decodeByte(t, dataEnd))
	sec.DataOK = sec.DataCRC == sec.DataCRCStored
	if !sec.DataOK {
		sec.Invalidate("data checksum mismatch")
	}
	sec.EndBitPos = dataEnd + 16

	if t.WeakMask != nil {
		sec.WeakMask = extractWeakMask(t, sec, dataStart, 16)
	}

	return sec, sec.EndBitPos, true
}
