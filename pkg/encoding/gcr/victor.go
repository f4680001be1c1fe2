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
	encoding.Register(&Victor{})
}

const (
	victorBlockHeader = 0x09
	victorBlockData   = 0x0A
	victorSyncLen     = 30
	victorHeaderGap   = 6
	victorGap3        = 10
)

// Victor is the Victor 9000 / Sirius 1 codec. It shares the 4-to-5 group
// code machinery with the 1541 but uses its own field layout, 512 byte
// sectors and zoned recording (the zone only affects the bitrate, which
// the track carries).
type Victor struct{}

//
func (c *Victor) Tag() disk.Encoding {
	return disk.EncGCRVictor
}

//
func (c *Victor) EmitFill(w *raw.Writer, n int) {
	for i := 0; i < n; i++ {
		w.WriteBits(c64GapFill, 8)
	}
}

//
func (c *Victor) EmitSector(w *raw.Writer, sec *disk.Sector) error {

	if sec.SizeCode != 2 {
		return fmt.Errorf(
			"victor sectors are always 512 bytes, got size code %d", sec.SizeCode)
	}
	if len(sec.Data) != 512 {
		return fmt.Errorf("sector %d payload length %d, want 512",
			sec.Number, len(sec.Data))
	}

	// head lives in the top bit of the track byte
	track := byte(sec.Cylinder&0x7F) | byte(sec.Head)<<7

	writeSync(w, victorSyncLen)

	chk := crc.C64Checksum([]byte{track, byte(sec.Number)})
	sec.HeaderCRC = uint32(chk)
	stored := chk
	if sec.AltHeaderCRC != nil {
		stored = byte(*sec.AltHeaderCRC)
	}
	sec.HeaderCRCStored = uint32(stored)
	for _, b := range []byte{
		victorBlockHeader, track, byte(sec.Number), stored} {
		writeGCR5(w, b)
	}

	c.EmitFill(w, victorHeaderGap)

	if !sec.OmitDataMark {
		writeSync(w, victorSyncLen)
		mark := byte(victorBlockData)
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
	}

	gap3 := sec.Gap3Len
	if gap3 <= 0 {
		gap3 = victorGap3
	}
	c.EmitFill(w, gap3)
	return nil
}

//
func (c *Victor) NextSector(t *disk.Track, from int) (*disk.Sector, int, bool) {

	pos := from
	for {
		hp, ok := t.Bits.FindRun(syncRunLen, pos)
		if !ok {
			return nil, 0, false
		}

		blk, okBlk := readGCR5(t, hp)
		if !okBlk || blk != victorBlockHeader {
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
func (c *Victor) decodeSector(t *disk.Track, hp int) (*disk.Sector, int, bool) {

	hdr, bad := readGCR5Bytes(t, hp+10, 3) // track, sector, chk
	sec, err := disk.NewSector(int(hdr[0]&0x7F), int(hdr[0]>>7), int(hdr[1]), 2)
	if err != nil {
		return nil, 0, false
	}
	sec.IDBitPos = hp
	if bad > 0 {
		sec.Invalidate("invalid GCR group in header")
	}

	sec.HeaderCRC = uint32(crc.C64Checksum(hdr[:2]))
	sec.HeaderCRCStored = uint32(hdr[2])
	sec.HeaderOK = bad == 0 && sec.HeaderCRC == sec.HeaderCRCStored
	if sec.HeaderCRC != sec.HeaderCRCStored {
		sec.Invalidate("header checksum mismatch")
	}

	hdrEnd := hp + 10*4

	dp, ok := t.Bits.FindRun(syncRunLen, hdrEnd)
	if !ok {
		sec.Invalidate("data block not found")
		return sec, hdrEnd, true
	}
	mark, okMark := readGCR5(t, dp)
	if okMark && mark == victorBlockHeader {
		sec.Invalidate("data block not found")
		return sec, dp - 1 - syncRunLen, true
	}
	sec.Mark = mark

	dataStart := dp + 10
	data, badData := readGCR5Bytes(t, dataStart, 512)
	sec.Data = data
	sec.DataBitPos = dp
	if badData > 0 {
		sec.Invalidate("invalid GCR group in data block")
	}

	chk, _ := readGCR5(t, dataStart+10*512)
	sec.DataCRC = uint32(crc.C64Checksum(data))
	sec.DataCRCStored = uint32(chk)
	sec.DataOK = badData == 0 && mark == victorBlockData &&
		sec.DataCRC == sec.DataCRCStored
	if sec.DataCRC != sec.DataCRCStored {
		sec.Invalidate("data checksum mismatch")
	}
	sec.EndBitPos = dataStart + 10*513

	sec.WeakMask = extractWeakGroups(t, 512, dataStart, 10)

	return sec, sec.EndBitPos, true
}
