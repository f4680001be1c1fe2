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

// NewWriter creates a bit writer for a track of maxBits bits. Bits written
// past maxBits are silently dropped, the track simply ends there.
func NewWriter(maxBits int) *Writer {
	bits, _ := NewBuffer(maxBits)
	weak, _ := NewBuffer(maxBits)
	return &Writer{bits: bits, weak: weak}
}

// Writer appends bits to a fixed-capacity bit buffer, with a parallel
// weak-bit mask of the same capacity.
type Writer struct {
	bits    *Buffer
	weak    *Buffer
	bitPos  int
	anyWeak bool
}

//
func (w *Writer) WriteBit(v int) {
	if w.bitPos >= w.bits.BitLen() {
		return
	}
	w.bits.SetBit(w.bitPos, v)
	w.bitPos++
}

// WriteBits writes the low n bits of v, MSB first.
func (w *Writer) WriteBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.WriteBit(int(v>>i) & 1)
	}
}

//
func (w *Writer) BitPos() int {
	return w.bitPos
}

//
func (w *Writer) Full() bool {
	return w.bitPos >= w.bits.BitLen()
}

// MarkWeak flags the n bits starting at from as unstable in the weak mask.
func (w *Writer) MarkWeak(from, n int) {
	w.weak.SetRange(from, n, 1)
	w.anyWeak = true
}

// Bits returns the accumulated bit buffer. The writer retains ownership
// until the caller stops writing.
func (w *Writer) Bits() *Buffer {
	return w.bits
}

// WeakMask returns the weak-bit mask, or nil when no bit was ever marked.
func (w *Writer) WeakMask() *Buffer {
	if !w.anyWeak {
		return nil
	}
	return w.weak
}
