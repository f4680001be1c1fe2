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

package gcr

import (
	"fmt"

	"github.com/sectorforge/sectorforge/pkg/crc"
	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/encoding"
	"github.com/sectorforge/sectorforge/pkg/raw"
)

//
func init() {
	encoding.Register(&C64{})
}

const (
	c64BlockHeader = 0x08
	c64BlockData   = 0x07
	c64SyncLen     = 40 // five 0xFF bytes
	c64GapFill     = 0x55
	c64HeaderGap   = 9
	c64Gap3        = 8

	// disk id bytes, as formatted; loaders carrying a real id overwrite
	// these through the descriptor's cylinder/head only, the id is not
	// part of the unified model
	c64ID2 = 0x32
	c64ID1 = 0x30
)

// C64 is the Commodore 1541 codec: 4-to-5 GCR, XOR checksums, 256 byte
// sectors, track numbers starting at 1.
type C64 struct{}

//
func (c *C64) Tag() disk.Encoding {
	return disk.EncGCRC64
}

//
func (c *C64) EmitFill(w *raw.Writer, n int) {
	for i := 0; i < n; i++ {
		w.WriteBits(c64GapFill, 8)
	}
}

//
func (c *C64) EmitSector(w *raw.Writer, sec *disk.Sector) error {

	if sec.SizeCode != 1 {
		return fmt.Errorf(
			"1541 sectors are always 256 bytes, got size code %d", sec.SizeCode)
	}
	if len(sec.Data) != 256 {
		return fmt.Errorf("sector %d payload length %d, want 256",
			sec.Number, len(sec.Data))
	}

	track := byte(sec.Cylinder + 1)

	writeSync(w, c64SyncLen)
	sec.IDBitPos = -1

	chk := crc.C64Checksum([]byte{byte(sec.Number), track, c64ID2, c64ID1})
	sec.HeaderCRC = uint32(chk)
	stored := chk
	if sec.AltHeaderCRC != nil {
		stored = byte(*sec.AltHeaderCRC)
	}
	sec.HeaderCRCStored = uint32(stored)
	for _, b := range []byte{
		c64BlockHeader, stored, byte(sec.Number), track,
		c64ID2, c64ID1, 0x0F, 0x0F} {
		writeGCR5(w, b)
	}

	c.EmitFill(w, c64HeaderGap)

	if !sec.OmitDataMark {
		writeSync(w, c64SyncLen)
		mark := byte(c64BlockData)
		if sec.AltMark != nil {
			mark = *sec.AltMark
		}
		writeGCR5(w, mark)

		dataStart := w.BitPos()
		for _, b := range sec.Data {
			writeGCR5(w, b)
		}
		markWeakGroups(w, sec, dataStart, 10)

		sec.DataCRC = uint32(crc.C64Checksum(sec.Data))
		stored = byte(sec.DataCRC)
		if sec.AltDataCRC != nil {
			stored = byte(*sec.AltDataCRC)
		}
		sec.DataCRCStored = uint32(stored)
		writeGCR5(w, stored)
		writeGCR5(w, 0x00)
		writeGCR5(w, 0x00)
	}

	gap3 := sec.Gap3Len
	if gap3 <= 0 {
		gap3 = c64Gap3
	}
	fill := sec.Gap3Fill
	if fill == 0 {
		fill = c64GapFill
	}
	for i := 0; i < gap3; i++ {
		w.WriteBits(uint64(fill), 8)
	}
	return nil
}

//
func (c *C64) NextSector(t *disk.Track, from int) (*disk.Sector, int, bool) {

	pos := from
	for {
		hp, ok := t.Bits.FindRun(syncRunLen, pos)
		if !ok {
			return nil, 0, false
		}

		blk, okBlk := readGCR5(t, hp)
		if !okBlk || blk != c64BlockHeader {
			pos = hp + 1
			continue
		}

		sec, next, ok := c.decodeSector(t, hp)
		if !ok {
			pos = hp + 1
			continue
		}
		return sec, next, true
	}
}

//
func (c *C64) decodeSector(t *disk.Track, hp int) (*disk.Sector, int, bool) {

	hdr, bad := readGCR5Bytes(t, hp+10, 5) // chk, sector, track, id2, id1
	track := int(hdr[2])
	if track < 1 {
		track = 1
	}
	sec, err := disk.NewSector(track-1, 0, int(hdr[1]), 1)
	if err != nil {
		return nil, 0, false
	}
	sec.IDBitPos = hp
	if bad > 0 {
		sec.Invalidate("invalid GCR group in header")
	}

	sec.HeaderCRC = uint32(crc.C64Checksum(hdr[1:5]))
	sec.HeaderCRCStored = uint32(hdr[0])
	sec.HeaderOK = bad == 0 && sec.HeaderCRC == sec.HeaderCRCStored
	if sec.HeaderCRC != sec.HeaderCRCStored {
		sec.Invalidate("header checksum mismatch")
	}

	hdrEnd := hp + 10*8

	dp, ok := t.Bits.FindRun(syncRunLen, hdrEnd)
	if !ok {
		sec.Invalidate("data block not found")
		return sec, hdrEnd, true
	}
	mark, okMark := readGCR5(t, dp)
	if okMark && mark == c64BlockHeader {
		// next sector's header, the data block is missing
		sec.Invalidate("data block not found")
		return sec, dp - 1 - syncRunLen, true
	}
	sec.Mark = mark

	dataStart := dp + 10
	data, badData := readGCR5Bytes(t, dataStart, 256)
	sec.Data = data
	sec.DataBitPos = dp
	if badData > 0 {
		sec.Invalidate("invalid GCR group in data block")
	}

	chk, _ := readGCR5(t, dataStart+10*256)
	sec.DataCRC = uint32(crc.C64Checksum(data))
	sec.DataCRCStored = uint32(chk)
	sec.DataOK = badData == 0 && mark == c64BlockData &&
		sec.DataCRC == sec.DataCRCStored
	if sec.DataCRC != sec.DataCRCStored {
		sec.Invalidate("data checksum mismatch")
	}
	sec.EndBitPos = dataStart + 10*259

	sec.WeakMask = extractWeakGroups(t, 256, dataStart, 10)

	return sec, sec.EndBitPos, true
}
