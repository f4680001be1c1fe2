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

// MFMSectorCRC computes the CRC of an IBM MFM ID or data field. The three
// A1 sync bytes preceding the address mark are implied, the caller passes
// only the mark and the field contents.
func MFMSectorCRC(mark byte, data []byte) uint16 {
	s, _ := Init(CRC16MFM)
	s = UpdateByte(CRC16MFM, s, mark)
	return uint16(Final(CRC16MFM, Update(CRC16MFM, s, data)))
}

// FMSectorCRC computes the CRC of an FM field. FM has no sync prefix, the
// mark byte itself starts the CRC.
func FMSectorCRC(mark byte, data []byte) uint16 {
	s, _ := Init(CRC16CCITTFalse)
	s = UpdateByte(CRC16CCITTFalse, s, mark)
	return uint16(Final(CRC16CCITTFalse, Update(CRC16CCITTFalse, s, data)))
}

// AmigaChecksum XORs all big-endian 32 bit words of data. The length must
// be a multiple of 4.
func AmigaChecksum(data []byte) (uint32, error) {
	if len(data)%4 != 0 {
		return 0, fmt.Errorf(
			"amiga checksum needs a longword multiple, got %d bytes", len(data))
	}
	v, _ := Calc(XOR32, data)
	return v, nil
}

// C64Checksum XORs all bytes of data, as used by the 1541 GCR blocks.
func C64Checksum(data []byte) byte {
	v, _ := Calc(XOR8, data)
	return byte(v)
}

// AppleChecksum is a running rotate-left-then-XOR over all bytes of data.
func AppleChecksum(data []byte) byte {
	v, _ := Calc(RotateXOR8, data)
	return byte(v)
}
