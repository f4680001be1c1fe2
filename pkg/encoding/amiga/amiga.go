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

package amiga

import (
	"fmt"

	"github.com/sectorforge/sectorforge/pkg/crc"
	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/encoding"
	"github.com/sectorforge/sectorforge/pkg/encoding/mfm"
	"github.com/sectorforge/sectorforge/pkg/raw"
)

//
func init() {
	encoding.Register(&Codec{})
}

const (
	sectorSize = 512
	labelLen   = 16
	syncRaw    = 0x44894489 // two A1 words with clock violation
	gapFill    = 0x4E
)

// Codec is the Amiga trackdisk MFM codec: 0x4489 double sync, odd/even
// shuffled longwords, longword XOR checksums, no gaps between sectors.
type Codec struct{}

//
func (c *Codec) Tag() disk.Encoding {
	return disk.EncAmigaMFM
}

//
func (c *Codec) EmitFill(w *raw.Writer, n int) {
	mfm.NewByteWriter(w).Gap(n, gapFill)
}

//
func (c *Codec) EmitSector(w *raw.Writer, sec *disk.Sector) error {

	if sec.SizeCode != 2 {
		return fmt.Errorf(
			"amiga sectors are always 512 bytes, got size code %d", sec.SizeCode)
	}
	if len(sec.Data) != sectorSize {
		return fmt.Errorf("sector %d payload length %d, want %d",
			sec.Number, len(sec.Data), sectorSize)
	}

	bw := mfm.NewByteWriter(w)

	bw.WriteByte(0x00)
	bw.WriteByte(0x00)
	bw.Sync4489(2)

	// info longword: ff / track / sector / sectors to gap
	track := sec.Cylinder*2 + sec.Head
	toGap := 1
	if sec.Number < 11 {
		toGap = 11 - sec.Number
	}
	info := uint32(0xFF)<<24 | uint32(track)<<16 |
		uint32(sec.Number)<<8 | uint32(toGap)
	odd, even := shuffle(info)
	bw.WriteByte(byte(odd >> 8))
	bw.WriteByte(byte(odd))
	bw.WriteByte(byte(even >> 8))
	bw.WriteByte(byte(even))

	label := make([]byte, labelLen)
	for _, b := range label {
		bw.WriteByte(b)
	}

	header := make([]byte, 4+labelLen)
	putLong(header, info)
	sum, _ := crc.AmigaChecksum(header)
	sec.HeaderCRC = sum
	stored := sum
	if sec.AltHeaderCRC != nil {
		stored = *sec.AltHeaderCRC
	}
	sec.HeaderCRCStored = stored
	writeLong(bw, stored)

	sum, _ = crc.AmigaChecksum(sec.Data)
	sec.DataCRC = sum
	stored = sum
	if sec.AltDataCRC != nil {
		stored = *sec.AltDataCRC
	}
	sec.DataCRCStored = stored
	writeLong(bw, stored)

	// payload, odd bit halves first, then even
	odds := make([]uint16, sectorSize/4)
	evens := make([]uint16, sectorSize/4)
	for i := range odds {
		odds[i], evens[i] = shuffle(getLong(sec.Data[4*i:]))
	}

	dataStart := w.BitPos()
	for _, v := range odds {
		bw.WriteByte(byte(v >> 8))
		bw.WriteByte(byte(v))
	}
	for _, v := range evens {
		bw.WriteByte(byte(v >> 8))
		bw.WriteByte(byte(v))
	}
	markWeak(w, sec, dataStart)

	return nil
}

// markWeak maps payload bit positions through the odd/even shuffle onto
// the raw cells of the emitted data block.
func markWeak(w *raw.Writer, sec *disk.Sector, dataStart int) {
	if sec.WeakMask == nil {
		return
	}
	for i, mb := range sec.WeakMask {
		if mb == 0 {
			continue
		}
		for j := 0; j < 8; j++ {
			if mb&(0x80>>j) == 0 {
				continue
			}
			w.MarkWeak(dataStart+rawOffset(i*8+j), 2)
		}
	}
}

// rawOffset returns the raw cell offset within the data block of payload
// bit b (0 = MSB of the first payload byte).
func rawOffset(b int) int {
	long := b / 32
	k := b % 32
	var streamBit int
	if k%2 == 0 {
		// even index within the long = odd (first) bit stream
		streamBit = long*16 + k/2
	} else {
		streamBit = sectorSize/4*16 + long*16 + k/2
	}
	return streamBit * 2
}

//
func (c *Codec) NextSector(t *disk.Track, from int) (*disk.Sector, int, bool) {

	pos, ok := t.Bits.FindPattern(syncRaw, 32, from)
	if !ok {
		return nil, 0, false
	}
	idPos := pos
	p := pos + 32
	for t.Bits.ReadBits(p, 16) == 0x4489 {
		p += 16
	}

	oddW := word(t, p)
	evenW := word(t, p+32)
	info := merge(oddW, evenW)
	track := int(info>>16) & 0xFF

	sec, _ := disk.NewSector(track/2, track%2, int(info>>8)&0xFF, 2)
	sec.IDBitPos = idPos

	labelPos := p + 64
	label := mfm.DecodeBytes(t, labelPos, labelLen)

	header := make([]byte, 4+labelLen)
	putLong(header, info)
	copy(header[4:], label)
	sum, _ := crc.AmigaChecksum(header)
	sec.HeaderCRC = sum
	sec.HeaderCRCStored = long(t, labelPos+labelLen*16)
	sec.HeaderOK = sec.HeaderCRC == sec.HeaderCRCStored
	if !sec.HeaderOK {
		sec.Invalidate("header checksum mismatch")
	}

	dataSumPos := labelPos + (labelLen+4)*16
	sec.DataCRCStored = long(t, dataSumPos)

	dataPos := dataSumPos + 4*16
	sec.DataBitPos = dataPos
	oddBytes := mfm.DecodeBytes(t, dataPos, sectorSize/2)
	evenBytes := mfm.DecodeBytes(t, dataPos+sectorSize/2*16, sectorSize/2)

	data := make([]byte, sectorSize)
	for l := 0; l < sectorSize/4; l++ {
		o := uint16(oddBytes[2*l])<<8 | uint16(oddBytes[2*l+1])
		e := uint16(evenBytes[2*l])<<8 | uint16(evenBytes[2*l+1])
		putLong(data[4*l:], merge(o, e))
	}
	sec.Data = data

	sum, _ = crc.AmigaChecksum(data)
	sec.DataCRC = sum
	sec.DataOK = sec.DataCRC == sec.DataCRCStored
	if !sec.DataOK {
		sec.Invalidate("data checksum mismatch")
	}
	sec.EndBitPos = dataPos + sectorSize*16

	sec.WeakMask = extractWeak(t, dataPos)

	return sec, sec.EndBitPos, true
}

// extractWeak projects track weak cells back through the odd/even shuffle
// onto payload bits.
func extractWeak(t *disk.Track, dataPos int) []byte {
	if t.WeakMask == nil {
		return nil
	}
	mask := make([]byte, sectorSize)
	any := false
	for b := 0; b < sectorSize*8; b++ {
		p := dataPos + rawOffset(b)
		if t.WeakMask.Bit(p) != 0 || t.WeakMask.Bit(p+1) != 0 {
			mask[b/8] |= 0x80 >> uint(b%8)
			any = true
		}
	}
	if !any {
		return nil
	}
	return mask
}

// shuffle splits a 32 bit word into its odd and even bit streams.
func shuffle(v uint32) (odd, even uint16) {
	for i := 0; i < 16; i++ {
		odd <<= 1
		even <<= 1
		odd |= uint16((v >> 31) & 1)
		even |= uint16((v >> 30) & 1)
		v <<= 2
	}
	return odd, even
}

// merge is the inverse of shuffle.
func merge(odd, even uint16) uint32 {
	var w uint32
	for i := 15; i >= 0; i-- {
		w = w<<1 | uint32(odd>>i)&1
		w = w<<1 | uint32(even>>i)&1
	}
	return w
}

//
func word(t *disk.Track, pos int) uint16 {
	return uint16(mfm.DecodeByte(t, pos))<<8 | uint16(mfm.DecodeByte(t, pos+16))
}

//
func long(t *disk.Track, pos int) uint32 {
	return uint32(word(t, pos))<<16 | uint32(word(t, pos+32))
}

//
func writeLong(bw *mfm.ByteWriter, v uint32) {
	bw.WriteByte(byte(v >> 24))
	bw.WriteByte(byte(v >> 16))
	bw.WriteByte(byte(v >> 8))
	bw.WriteByte(byte(v))
}

//
func putLong(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

//
func getLong(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
