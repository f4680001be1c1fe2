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

package raw

import (
	"fmt"
)

// NewBuffer creates a bit buffer that can hold bitLen bits. The backing
// byte slice is rounded up to the next full byte.
func NewBuffer(bitLen int) (*Buffer, error) {
	if bitLen < 0 {
		return nil, fmt.Errorf("invalid bit length: %d", bitLen)
	}
	return &Buffer{
		data:   make([]byte, (bitLen+7)/8),
		bitLen: bitLen,
	}, nil
}

// FromBytes wraps data in a bit buffer of length len(data)*8. The slice is
// not copied, the buffer takes ownership.
func FromBytes(data []byte) *Buffer {
	return &Buffer{data: data, bitLen: len(data) * 8}
}

// Buffer is a bit-addressable byte buffer. Bit 0 is the most significant
// bit of the first byte, matching the order in which bits pass the head.
type Buffer struct {
	data   []byte
	bitLen int
}

//
func (b *Buffer) BitLen() int {
	return b.bitLen
}

//
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Bit returns the bit at pos, or 0 when pos is out of range.
func (b *Buffer) Bit(pos int) int {
	if pos < 0 || pos >= b.bitLen {
		return 0
	}
	return int(b.data[pos/8]>>(7-pos%8)) & 1
}

// SetBit sets the bit at pos to v (0 or non-zero). Out of range positions
// are ignored.
func (b *Buffer) SetBit(pos, v int) {
	if pos < 0 || pos >= b.bitLen {
		return
	}
	mask := byte(0x80 >> (pos % 8))
	if v != 0 {
		b.data[pos/8] |= mask
	} else {
		b.data[pos/8] &^= mask
	}
}

// FlipBit inverts the bit at pos.
func (b *Buffer) FlipBit(pos int) {
	if pos < 0 || pos >= b.bitLen {
		return
	}
	b.data[pos/8] ^= byte(0x80 >> (pos % 8))
}

// ReadBits reads n bits (n <= 64) starting at pos, MSB first. Reading past
// the end of the buffer yields zero bits.
func (b *Buffer) ReadBits(pos, n int) uint64 {
	var ret uint64
	for i := 0; i < n; i++ {
		ret = ret<<1 | uint64(b.Bit(pos+i))
	}
	return ret
}

// FindPattern searches for the n-bit pattern (n <= 64, given in the low n
// bits) starting at or after from. It does not wrap past the end of the
// buffer; ok is false when the pattern does not occur before the end.
func (b *Buffer) FindPattern(pattern uint64, n, from int) (int, bool) {
	if n <= 0 || n > 64 || from < 0 {
		return 0, false
	}
	mask := uint64(1)<<n - 1
	pattern &= mask

	// prime a sliding window, then shift one bit at a time
	if from+n > b.bitLen {
		return 0, false
	}
	win := b.ReadBits(from, n)
	for pos := from; ; pos++ {
		if win == pattern {
			return pos, true
		}
		if pos+n >= b.bitLen {
			return 0, false
		}
		win = (win<<1 | uint64(b.Bit(pos+n))) & mask
	}
}

// FindRun searches for a run of at least n consecutive one-bits starting at
// or after from, and returns the position of the first bit past the run,
// i.e. past all one-bits belonging to it. Used for GCR self-sync fields.
func (b *Buffer) FindRun(n, from int) (int, bool) {
	run := 0
	for pos := from; pos < b.bitLen; pos++ {
		if b.Bit(pos) != 0 {
			run++
			continue
		}
		if run >= n {
			return pos, true
		}
		run = 0
	}
	return 0, false
}

// SetRange sets all bits in [from, from+n) to v.
func (b *Buffer) SetRange(from, n, v int) {
	for i := 0; i < n; i++ {
		b.SetBit(from+i, v)
	}
}

// AnySet reports whether any bit in the buffer is set.
func (b *Buffer) AnySet() bool {
	for _, by := range b.data {
		if by != 0 {
			return true
		}
	}
	return false
}

//
func (b *Buffer) Clone() *Buffer {
	data := make([]byte, len(b.data))
	copy(data, b.data)
	return &Buffer{data: data, bitLen: b.bitLen}
}
