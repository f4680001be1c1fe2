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
	encoding.Register(&Mac{})
}

const (
	macFormat = 0x22
	macGap2   = 5
	macGap3   = 16
)

// Mac is the Macintosh 400K/800K style codec: 512 byte sectors behind a
// 6-bit nibble address field, the data field packs three bytes into four
// disk nibbles and closes with a rotate-and-XOR checksum.
type Mac struct{}

//
func (c *Mac) Tag() disk.Encoding {
	return disk.EncGCRAppleMac
}

//
func (c *Mac) EmitFill(w *raw.Writer, n int) {
	for i := 0; i < n; i++ {
		w.WriteBits(appleGapFill, 8)
	}
}

// nib emits one 6-bit value through the write table.
func nib(w *raw.Writer, v byte) {
	w.WriteBits(uint64(apple62Enc[v&0x3F]), 8)
}

// readNib decodes one disk nibble. -1 when the byte is not in the table.
func readNib(t *disk.Track, pos int) int {
	return apple62Dec[t.Bits.ReadBits(pos, 8)]
}

//
func (c *Mac) EmitSector(w *raw.Writer, sec *disk.Sector) error {

	if sec.SizeCode != 2 {
		return fmt.Errorf(
			"mac sectors are always 512 bytes, got size code %d", sec.SizeCode)
	}
	if len(sec.Data) != 512 {
		return fmt.Errorf("sector %d payload length %d, want 512",
			sec.Number, len(sec.Data))
	}

	trk := byte(sec.Cylinder) & 0x3F
	side := byte(sec.Cylinder>>6)&0x01 | byte(sec.Head)<<5

	c.EmitFill(w, macGap2)
	w.WriteBits(appleIDProlog, 24)
	chk := (trk ^ byte(sec.Number) ^ side ^ macFormat) & 0x3F
	sec.HeaderCRC = uint32(chk)
	stored := chk
	if sec.AltHeaderCRC != nil {
		stored = byte(*sec.AltHeaderCRC) & 0x3F
	}
	sec.HeaderCRCStored = uint32(stored)
	for _, v := range []byte{trk, byte(sec.Number), side, macFormat, stored} {
		nib(w, v)
	}
	w.WriteBits(0xDEAA, 16)

	if !sec.OmitDataMark {
		c.EmitFill(w, macGap2)
		mark := byte(appleDataMark)
		if sec.AltMark != nil {
			mark = *sec.AltMark
		}
		w.WriteBits(appleDataProlog, 16)
		w.WriteBits(uint64(mark), 8)
		nib(w, byte(sec.Number))

		dataStart := w.BitPos()
		for i := 0; i < 512; i += 3 {
			a, b2, c2 := sec.Data[i], sec.Data[i+1], byte(0)
			last := i+2 >= 512
			if !last {
				c2 = sec.Data[i+2]
			}
			nib(w, a&0xC0>>2|b2&0xC0>>4|c2&0xC0>>6)
			nib(w, a)
			nib(w, b2)
			if !last {
				nib(w, c2)
			}
		}
		markWeakMacGroups(w, sec, dataStart)

		sec.DataCRC = uint32(crc.AppleChecksum(sec.Data))
		stored = byte(sec.DataCRC)
		if sec.AltDataCRC != nil {
			stored = byte(*sec.AltDataCRC)
		}
		sec.DataCRCStored = uint32(stored)
		nib(w, stored>>6)
		nib(w, stored)
		w.WriteBits(0xDEAA, 16)
	}

	gap3 := sec.Gap3Len
	if gap3 <= 0 {
		gap3 = macGap3
	}
	c.EmitFill(w, gap3)
	return nil
}

//
func (c *Mac) NextSector(t *disk.Track, from int) (*disk.Sector, int, bool) {

	pos := from
	for {
		hp, ok := t.Bits.FindPattern(appleIDProlog, 24, pos)
		if !ok {
			return nil, 0, false
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
func (c *Mac) decodeSector(t *disk.Track, hp int) (*disk.Sector, int, bool) {

	field := hp + 24
	nv := make([]int, 5)
	bad := 0
	for i := range nv {
		nv[i] = readNib(t, field+8*i)
		if nv[i] < 0 {
			bad++
			nv[i] = 0
		}
	}
	trk, num, side, format, chk := nv[0], nv[1], nv[2], nv[3], nv[4]

	cyl := trk | (side&0x01)<<6
	sec, err := disk.NewSector(cyl, side>>5&0x01, num, 2)
	if err != nil {
		return nil, 0, false
	}
	sec.IDBitPos = hp
	sec.HeaderCRC = uint32(byte(trk^num^side^format) & 0x3F)
	sec.HeaderCRCStored = uint32(chk)
	sec.HeaderOK = bad == 0 && sec.HeaderCRC == sec.HeaderCRCStored
	if sec.HeaderCRC != sec.HeaderCRCStored {
		sec.Invalidate("address checksum mismatch")
	}

	hdrEnd := field + 5*8 + 16

	dp, ok := t.Bits.FindPattern(appleDataProlog, 16, hdrEnd)
	if !ok {
		sec.Invalidate("data field not found")
		return sec, hdrEnd, true
	}
	mark := byte(t.Bits.ReadBits(dp+16, 8))
	if mark == 0x96 {
		sec.Invalidate("data field not found")
		return sec, dp - 1, true
	}
	sec.Mark = mark
	sec.DataBitPos = dp

	dataStart := dp + 32 // prologue, mark and sector nibble
	data := make([]byte, 512)
	badData := 0
	rd := func(pos int) byte {
		v := readNib(t, pos)
		if v < 0 {
			badData++
			v = 0
		}
		return byte(v)
	}
	pos := dataStart
	for i := 0; i < 512; i += 3 {
		last := i+2 >= 512
		hi := rd(pos)
		data[i] = rd(pos+8) | hi<<2&0xC0
		data[i+1] = rd(pos+16) | hi<<4&0xC0
		if !last {
			data[i+2] = rd(pos+24) | hi<<6&0xC0
			pos += 32
		} else {
			pos += 24
		}
	}
	sec.Data = data
	if badData > 0 {
		sec.Invalidate("invalid disk byte in data field")
	}

	stored := rd(pos)<<6 | rd(pos+8)
	sec.DataCRC = uint32(crc.AppleChecksum(data))
	sec.DataCRCStored = uint32(stored)
	sec.DataOK = badData == 0 && mark == appleDataMark &&
		sec.DataCRC == sec.DataCRCStored
	if sec.DataCRC != sec.DataCRCStored {
		sec.Invalidate("data checksum mismatch")
	}
	sec.EndBitPos = pos + 16 + 16

	sec.WeakMask = extractWeakMacGroups(t, dataStart)

	return sec, sec.EndBitPos, true
}

// markWeakMacGroups marks the whole four nibble group holding any weak
// payload byte.
func markWeakMacGroups(w *raw.Writer, sec *disk.Sector, dataStart int) {
	if sec.WeakMask == nil {
		return
	}
	for i, mb := range sec.WeakMask {
		if mb == 0 {
			continue
		}
		g := i / 3
		n := 32
		if g == 170 { // final group packs only two bytes
			n = 24
		}
		w.MarkWeak(dataStart+32*g, n)
	}
}

// extractWeakMacGroups projects track weak bits back onto whole payload
// bytes, by group.
func extractWeakMacGroups(t *disk.Track, dataStart int) []byte {
	if t.WeakMask == nil {
		return nil
	}
	mask := make([]byte, 512)
	any := false
	for g := 0; g*3 < 512; g++ {
		n := 32
		if g == 170 {
			n = 24
		}
		weak := false
		for k := 0; k < n; k++ {
			if t.WeakMask.Bit(dataStart+32*g+k) != 0 {
				weak = true
				break
			}
		}
		if !weak {
			continue
		}
		any = true
		for k := 0; k < 3 && g*3+k < 512; k++ {
			mask[g*3+k] = 0xFF
		}
	}
	if !any {
		return nil
	}
	return mask
}
