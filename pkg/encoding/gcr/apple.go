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

	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/encoding"
	"github.com/sectorforge/sectorforge/pkg/raw"
)

//
func init() {
	encoding.Register(&AppleII{})
}

// the 6-and-2 write table, 64 disk bytes with the high bit set, no more
// than one pair of adjacent zeros and never three in a row
var apple62Enc = [64]byte{
	0x96, 0x97, 0x9A, 0x9B, 0x9D, 0x9E, 0x9F, 0xA6,
	0xA7, 0xAB, 0xAC, 0xAD, 0xAE, 0xAF, 0xB2, 0xB3,
	0xB4, 0xB5, 0xB6, 0xB7, 0xB9, 0xBA, 0xBB, 0xBC,
	0xBD, 0xBE, 0xBF, 0xCB, 0xCD, 0xCE, 0xCF, 0xD3,
	0xD6, 0xD7, 0xD9, 0xDA, 0xDB, 0xDC, 0xDD, 0xDE,
	0xDF, 0xE5, 0xE6, 0xE7, 0xE9, 0xEA, 0xEB, 0xEC,
	0xED, 0xEE, 0xEF, 0xF2, 0xF3, 0xF4, 0xF5, 0xF6,
	0xF7, 0xF9, 0xFA, 0xFB, 0xFC, 0xFD, 0xFE, 0xFF,
}

//
var apple62Dec [256]int

//
func init() {
	for i := range apple62Dec {
		apple62Dec[i] = -1
	}
	for v, b := range apple62Enc {
		apple62Dec[b] = v
	}
}

const (
	appleVolume   = 0xFE
	appleDataMark = 0xAD
	appleGapFill  = 0xFF
	appleGap2     = 6
	appleGap3     = 20
	auxLen        = 86
)

// the D5 AA prologue bytes are reserved, excluded from the write table,
// so a pattern search cannot fire inside a data field
const (
	appleIDProlog   = 0xD5AA96
	appleDataProlog = 0xD5AA
)

var appleEpilog = []byte{0xDE, 0xAA, 0xEB}

// AppleII is the Apple DOS 3.3 style 6-and-2 codec: 256 byte sectors,
// 4-and-4 encoded address fields and a 342 nibble data field closed by
// an XOR checksum nibble.
type AppleII struct{}

//
func (c *AppleII) Tag() disk.Encoding {
	return disk.EncGCRAppleII
}

//
func (c *AppleII) EmitFill(w *raw.Writer, n int) {
	for i := 0; i < n; i++ {
		w.WriteBits(appleGapFill, 8)
	}
}

// write44 emits one byte as an odd/even pair.
func write44(w *raw.Writer, b byte) {
	w.WriteBits(uint64(b>>1|0xAA), 8)
	w.WriteBits(uint64(b|0xAA), 8)
}

// read44 reassembles a 4-and-4 pair starting at pos.
func read44(t *disk.Track, pos int) byte {
	odd := byte(t.Bits.ReadBits(pos, 8))
	even := byte(t.Bits.ReadBits(pos+8, 8))
	return (odd<<1 | 1) & even
}

// nibblize splits 256 bytes into the 86 auxiliary low-bit nibbles and
// 256 primary high-bit nibbles, in on-disk order: aux descending, then
// primary ascending.
func nibblize(data []byte) []byte {
	aux := make([]byte, auxLen)
	for i, b := range data {
		lo := b & 0x03
		lo = lo&1<<1 | lo>>1
		aux[i%auxLen] |= lo << (2 * uint(i/auxLen))
	}
	seq := make([]byte, 0, auxLen+256)
	for i := auxLen - 1; i >= 0; i-- {
		seq = append(seq, aux[i])
	}
	for _, b := range data {
		seq = append(seq, b>>2)
	}
	return seq
}

// denibblize reverses nibblize.
func denibblize(seq []byte) []byte {
	data := make([]byte, 256)
	for i := range data {
		lo := seq[auxLen-1-i%auxLen] >> (2 * uint(i/auxLen)) & 0x03
		lo = lo&1<<1 | lo>>1
		data[i] = seq[auxLen+i]<<2 | lo
	}
	return data
}

//
func (c *AppleII) EmitSector(w *raw.Writer, sec *disk.Sector) error {

	if sec.SizeCode != 1 {
		return fmt.Errorf(
			"6-and-2 sectors are always 256 bytes, got size code %d",
			sec.SizeCode)
	}
	if len(sec.Data) != 256 {
		return fmt.Errorf("sector %d payload length %d, want 256",
			sec.Number, len(sec.Data))
	}

	c.EmitFill(w, appleGap2)
	w.WriteBits(appleIDProlog, 24)
	chk := byte(appleVolume) ^ byte(sec.Cylinder) ^ byte(sec.Number)
	sec.HeaderCRC = uint32(chk)
	stored := chk
	if sec.AltHeaderCRC != nil {
		stored = byte(*sec.AltHeaderCRC)
	}
	sec.HeaderCRCStored = uint32(stored)
	write44(w, appleVolume)
	write44(w, byte(sec.Cylinder))
	write44(w, byte(sec.Number))
	write44(w, stored)
	for _, b := range appleEpilog {
		w.WriteBits(uint64(b), 8)
	}

	if !sec.OmitDataMark {
		c.EmitFill(w, appleGap2)
		mark := byte(appleDataMark)
		if sec.AltMark != nil {
			mark = *sec.AltMark
		}
		w.WriteBits(appleDataProlog, 16)
		w.WriteBits(uint64(mark), 8)

		seq := nibblize(sec.Data)
		prev := byte(0)
		dataStart := w.BitPos()
		for _, v := range seq {
			w.WriteBits(uint64(apple62Enc[v^prev]), 8)
			prev = v
		}
		markWeakGroups(w, sec, dataStart+auxLen*8, 8)

		sec.DataCRC = uint32(prev)
		stored = prev
		if sec.AltDataCRC != nil {
			stored = byte(*sec.AltDataCRC)
		}
		sec.DataCRCStored = uint32(stored)
		w.WriteBits(uint64(apple62Enc[stored]), 8)
		for _, b := range appleEpilog {
			w.WriteBits(uint64(b), 8)
		}
	}

	gap3 := sec.Gap3Len
	if gap3 <= 0 {
		gap3 = appleGap3
	}
	c.EmitFill(w, gap3)
	return nil
}

//
func (c *AppleII) NextSector(t *disk.Track, from int) (*disk.Sector, int, bool) {

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

// decodeSector decodes the sector whose address prologue starts at hp.
func (c *AppleII) decodeSector(t *disk.Track, hp int) (*disk.Sector, int, bool) {

	field := hp + 24
	vol := read44(t, field)
	trk := read44(t, field+16)
	num := read44(t, field+32)
	chk := read44(t, field+48)

	sec, err := disk.NewSector(int(trk), 0, int(num), 1)
	if err != nil {
		return nil, 0, false
	}
	sec.IDBitPos = hp
	sec.HeaderCRC = uint32(vol ^ trk ^ num)
	sec.HeaderCRCStored = uint32(chk)
	sec.HeaderOK = sec.HeaderCRC == sec.HeaderCRCStored
	if !sec.HeaderOK {
		sec.Invalidate("address checksum mismatch")
	}

	hdrEnd := field + 64 + 24 // epilogue included

	dp, ok := t.Bits.FindPattern(appleDataProlog, 16, hdrEnd)
	if !ok {
		sec.Invalidate("data field not found")
		return sec, hdrEnd, true
	}
	mark := byte(t.Bits.ReadBits(dp+16, 8))
	if mark == 0x96 {
		// next address field, this sector has no data
		sec.Invalidate("data field not found")
		return sec, dp - 1, true
	}
	sec.Mark = mark
	sec.DataBitPos = dp

	seq := make([]byte, auxLen+256)
	bad := 0
	prev := byte(0)
	nibStart := dp + 24
	for i := range seq {
		v := apple62Dec[t.Bits.ReadBits(nibStart+8*i, 8)]
		if v < 0 {
			bad++
			v = 0
		}
		seq[i] = byte(v) ^ prev
		prev = seq[i]
	}
	if bad > 0 {
		sec.Invalidate("invalid disk byte in data field")
	}
	sec.Data = denibblize(seq)

	stored := apple62Dec[t.Bits.ReadBits(nibStart+8*(auxLen+256), 8)]
	if stored < 0 {
		bad++
		stored = 0
	}
	sec.DataCRC = uint32(prev)
	sec.DataCRCStored = uint32(stored)
	sec.DataOK = bad == 0 && mark == appleDataMark &&
		sec.DataCRC == sec.DataCRCStored
	if sec.DataCRC != sec.DataCRCStored {
		sec.Invalidate("data checksum mismatch")
	}
	sec.EndBitPos = nibStart + 8*(auxLen+257) + 24

	sec.WeakMask = extractWeakGroups(t, 256, nibStart+auxLen*8, 8)

	return sec, sec.EndBitPos, true
}
