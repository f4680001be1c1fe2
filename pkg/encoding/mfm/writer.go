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
	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/raw"
)

/*
	All three FM-family encodings put one clock half-bit before each data
	half-bit, so a data byte occupies 16 raw bits with the data bits at the
	odd offsets. They differ only in the clock insertion rule:

	  FM    clock is always 1
	  MFM   clock is 1 between two zero data bits
	  M2FM  clock is 1 between two zero data bits, unless the previous
	        cell already carried a clock pulse

	Sync marks violate the rule of their encoding, which is what makes
	them impossible to mistake for payload.
*/

// mfmWriter emits MFM half-bits, carrying the clock state across bytes.
type mfmWriter struct {
	w    *raw.Writer
	last int
}

//
func (m *mfmWriter) bit(v int) {
	if v != 0 {
		m.w.WriteBit(0)
		m.w.WriteBit(1)
	} else {
		m.w.WriteBit(m.last ^ 1)
		m.w.WriteBit(0)
	}
	m.last = v
}

//
func (m *mfmWriter) byte(b byte) {
	for i := 7; i >= 0; i-- {
		m.bit(int(b>>i) & 1)
	}
}

//
func (m *mfmWriter) gap(n int, fill byte) {
	for i := 0; i < n; i++ {
		m.byte(fill)
	}
}

// syncA1 writes n A1 bytes with the missing clock transition between bits
// 4 and 5, each producing the raw word 0x4489.
func (m *mfmWriter) syncA1(n int) {
	for i := 0; i < n; i++ {
		m.bit(1)
		m.bit(0)
		m.bit(1)
		m.bit(0)
		m.bit(0)
		m.w.WriteBit(0) // clock violation
		m.w.WriteBit(0)
		m.bit(0)
		m.bit(1)
	}
}

// fmWriter emits FM half-bits: clock 1 before every data bit.
type fmWriter struct {
	w *raw.Writer
}

//
func (f *fmWriter) byte(b byte) {
	f.markRaw(b, 0xFF)
}

// markRaw writes one byte with an explicit clock byte, used for the FM
// address marks with their suppressed clock pulses.
func (f *fmWriter) markRaw(data, clock byte) {
	for i := 7; i >= 0; i-- {
		f.w.WriteBit(int(clock>>i) & 1)
		f.w.WriteBit(int(data>>i) & 1)
	}
}

//
func (f *fmWriter) gap(n int, fill byte) {
	for i := 0; i < n; i++ {
		f.byte(fill)
	}
}

// m2fmWriter emits M2FM half-bits: a clock pulse goes between two zero
// data bits only when the previous cell had no pulse at all.
type m2fmWriter struct {
	w         *raw.Writer
	prevData  int
	prevClock int
}

//
func (m *m2fmWriter) bit(v int) {
	clock := 0
	if m.prevData == 0 && v == 0 && m.prevClock == 0 {
		clock = 1
	}
	m.w.WriteBit(clock)
	m.w.WriteBit(v)
	m.prevData = v
	m.prevClock = clock
}

//
func (m *m2fmWriter) byte(b byte) {
	for i := 7; i >= 0; i-- {
		m.bit(int(b>>i) & 1)
	}
}

//
func (m *m2fmWriter) gap(n int, fill byte) {
	for i := 0; i < n; i++ {
		m.byte(fill)
	}
}

// sync writes the M2FM sync word. Its run of five zero half-bits cannot
// occur in a conforming M2FM stream, where at most three zero half-bits
// appear in a row.
func (m *m2fmWriter) sync() {
	m.w.WriteBits(m2fmSyncRaw, 16)
	// the word ends in clock 0, data 1
	m.prevData = 1
	m.prevClock = 0
}

//
const m2fmSyncRaw = 0x1041

// decodeByte reads the data byte whose first raw cell starts at pos: the
// data bits sit at the odd offsets for all three encodings.
func decodeByte(t *disk.Track, pos int) byte {
	var b byte
	for i := 0; i < 8; i++ {
		b = b<<1 | byte(t.Bits.Bit(pos+2*i+1))
	}
	return b
}

// clockByte reads the eight clock bits of the cell starting at pos.
func clockByte(t *disk.Track, pos int) byte {
	var b byte
	for i := 0; i < 8; i++ {
		b = b<<1 | byte(t.Bits.Bit(pos+2*i))
	}
	return b
}

// decodeBytes reads n consecutive data bytes starting at pos.
func decodeBytes(t *disk.Track, pos, n int) []byte {
	ret := make([]byte, n)
	for i := range ret {
		ret[i] = decodeByte(t, pos+16*i)
	}
	return ret
}

// ByteWriter exposes plain MFM cell writing to codecs that layer on it,
// like the Amiga codec with its shuffled longwords.
type ByteWriter struct {
	mfmWriter
}

//
func NewByteWriter(w *raw.Writer) *ByteWriter {
	return &ByteWriter{mfmWriter{w: w}}
}

//
func (b *ByteWriter) WriteByte(v byte) {
	b.byte(v)
}

//
func (b *ByteWriter) Gap(n int, fill byte) {
	b.gap(n, fill)
}

// Sync4489 writes n raw 0x4489 sync words.
func (b *ByteWriter) Sync4489(n int) {
	b.syncA1(n)
}

// DecodeByte reads the MFM data byte whose cell starts at pos.
func DecodeByte(t *disk.Track, pos int) byte {
	return decodeByte(t, pos)
}

// DecodeBytes reads n consecutive MFM data bytes starting at pos.
func DecodeBytes(t *disk.Track, pos, n int) []byte {
	return decodeBytes(t, pos, n)
}
