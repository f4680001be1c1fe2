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

// Package gcr implements the group-coded recording codecs: Commodore 1541
// 4-to-5, Victor 9000, and the Apple 6-and-2 families. GCR tracks carry
// no separate clock bits, groups are written to the track verbatim.
package gcr

import (
	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/raw"
)

// the 1541 4-bit to 5-bit code, chosen so that no group starts or ends
// with two zeros and no group contains three zeros in a row
var gcr5Enc = [16]byte{
	0x0A, 0x0B, 0x12, 0x13, 0x0E, 0x0F, 0x16, 0x17,
	0x09, 0x19, 0x1A, 0x1B, 0x0D, 0x1D, 0x1E, 0x15,
}

//
var gcr5Dec [32]int

//
func init() {
	for i := range gcr5Dec {
		gcr5Dec[i] = -1
	}
	for v, g := range gcr5Enc {
		gcr5Dec[g] = v
	}
}

// writeGCR5 emits one byte as two 5-bit groups.
func writeGCR5(w *raw.Writer, b byte) {
	w.WriteBits(uint64(gcr5Enc[b>>4]), 5)
	w.WriteBits(uint64(gcr5Enc[b&0x0F]), 5)
}

// readGCR5 decodes the byte whose first group starts at pos. ok is false
// when either group is not a valid code.
func readGCR5(t *disk.Track, pos int) (byte, bool) {
	hi := gcr5Dec[t.Bits.ReadBits(pos, 5)]
	lo := gcr5Dec[t.Bits.ReadBits(pos+5, 5)]
	if hi < 0 || lo < 0 {
		return 0, false
	}
	return byte(hi)<<4 | byte(lo), true
}

// readGCR5Bytes decodes n bytes starting at pos, returning how many
// groups failed to decode.
func readGCR5Bytes(t *disk.Track, pos, n int) ([]byte, int) {
	ret := make([]byte, n)
	bad := 0
	for i := range ret {
		b, ok := readGCR5(t, pos+10*i)
		if !ok {
			bad++
		}
		ret[i] = b
	}
	return ret, bad
}

// writeSync emits a run of n one-bits. GCR sync fields are plain runs of
// ones, which no code group can reproduce at length.
func writeSync(w *raw.Writer, n int) {
	for i := 0; i < n; i++ {
		w.WriteBit(1)
	}
}

// minimum one-bit run accepted as a sync field
const syncRunLen = 16

// markWeakGroups marks the whole 5-bit group pair of every payload byte
// that has at least one weak bit. Bit-precise mapping does not survive
// the substitution, the group is the unit of instability.
func markWeakGroups(w *raw.Writer, sec *disk.Sector, dataStart, groupBits int) {
	if sec.WeakMask == nil {
		return
	}
	for i, mb := range sec.WeakMask {
		if mb != 0 {
			w.MarkWeak(dataStart+groupBits*i, groupBits)
		}
	}
}

// extractWeakGroups projects track weak bits back onto whole payload
// bytes.
func extractWeakGroups(t *disk.Track, size, dataStart, groupBits int) []byte {
	if t.WeakMask == nil {
		return nil
	}
	mask := make([]byte, size)
	any := false
	for i := range mask {
		for k := 0; k < groupBits; k++ {
			if t.WeakMask.Bit(dataStart+groupBits*i+k) != 0 {
				mask[i] = 0xFF
				any = true
				break
			}
		}
	}
	if !any {
		return nil
	}
	return mask
}
