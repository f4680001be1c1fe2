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

package crc

import (
	"fmt"
)

// TwoBitCap is the maximum buffer length accepted by CorrectTwoBits. The
// pair search is quadratic in the bit count and becomes unusable beyond
// this.
const TwoBitCap = 256

// CorrectOneBit tries to repair a single-bit read error in data. It flips
// each bit in turn and recomputes the checksum until the result matches
// stored (masked to the kind's width). On success the matching bit is left
// flipped in data and its position is returned; otherwise data is restored
// and ok is false. Finding no match is a normal outcome, not an error.
func CorrectOneBit(kind Kind, data []byte, stored uint32) (int, bool, error) {

	mask, err := Mask(kind)
	if err != nil {
		return 0, false, err
	}
	stored &= mask

	for pos := 0; pos < len(data)*8; pos++ {
		flip(data, pos)
		if v, _ := Calc(kind, data); v&mask == stored {
			return pos, true, nil
		}
		flip(data, pos)
	}
	return 0, false, nil
}

// CorrectTwoBits tries to repair a two-bit read error in data, searching
// all bit position pairs. Both positions are left flipped in data on
// success. Buffers longer than TwoBitCap are rejected, the search is
// O((8*len)^2) checksum computations.
func CorrectTwoBits(kind Kind, data []byte, stored uint32) (int, int, bool, error) {

	if len(data) > TwoBitCap {
		return 0, 0, false, fmt.Errorf(
			"buffer too long for two-bit correction: %d > %d",
			len(data), TwoBitCap)
	}

	mask, err := Mask(kind)
	if err != nil {
		return 0, 0, false, err
	}
	stored &= mask

	for p1 := 0; p1 < len(data)*8; p1++ {
		flip(data, p1)
		for p2 := p1 + 1; p2 < len(data)*8; p2++ {
			flip(data, p2)
			if v, _ := Calc(kind, data); v&mask == stored {
				return p1, p2, true, nil
			}
			flip(data, p2)
		}
		flip(data, p1)
	}
	return 0, 0, false, nil
}

// flip inverts bit pos of data, bit 0 being the MSB of data[0].
func flip(data []byte, pos int) {
	data[pos/8] ^= byte(0x80 >> (pos % 8))
}
