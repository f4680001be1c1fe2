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

// Kind selects one checksum parameter set. Every encoding family routes
// its header and data checks through one of these.
type Kind int

const (
	CRC16CCITTFalse Kind = iota // ISO HDLC style, poly 0x1021, init 0xFFFF
	CRC16Kermit                 // CCITT true, reflected, init 0
	CRC16ARC                    // IBM ARC
	CRC16Modbus
	CRC16XModem
	CRC16MFM // CCITT-FALSE pre-seeded with the three A1 sync bytes
	CRC32ISO // ISO-HDLC / IEEE 802.3
	CRC32POSIX
	CRC32CCSDS // Castagnoli
	CRC32MPEG2
	CRC32BZip2
	CRC32JAMCRC
	CRC32XFER
	CRC32Autosar
	CRC8ATM
	CRC8Maxim
	XOR8        // plain byte XOR, C64 GCR blocks
	XOR32       // longword XOR, Amiga MFM blocks
	RotateXOR8  // rotate-left-then-XOR, Apple GCR data fields
	kindCount   // keep last
)

//
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("unknown checksum kind %d", int(k))
}

//
var kindNames = map[Kind]string{
	CRC16CCITTFalse: "crc16-ccitt-false",
	CRC16Kermit:     "crc16-kermit",
	CRC16ARC:        "crc16-arc",
	CRC16Modbus:     "crc16-modbus",
	CRC16XModem:     "crc16-xmodem",
	CRC16MFM:        "crc16-mfm",
	CRC32ISO:        "crc32-iso",
	CRC32POSIX:      "crc32-posix",
	CRC32CCSDS:      "crc32-ccsds",
	CRC32MPEG2:      "crc32-mpeg2",
	CRC32BZip2:      "crc32-bzip2",
	CRC32JAMCRC:     "crc32-jamcrc",
	CRC32XFER:       "crc32-xfer",
	CRC32Autosar:    "crc32-autosar",
	CRC8ATM:         "crc8-atm",
	CRC8Maxim:       "crc8-maxim",
	XOR8:            "xor8",
	XOR32:           "xor32",
	RotateXOR8:      "rotate-xor8",
}

// params describes one CRC polynomial configuration. The XOR and rotate
// checksums have no entry here, they are handled directly in the engine.
type params struct {
	width  int
	poly   uint32
	init   uint32
	xorOut uint32
	refIn  bool
	refOut bool
}

//
var paramTable = map[Kind]params{
	CRC16CCITTFalse: {16, 0x1021, 0xFFFF, 0, false, false},
	CRC16Kermit:     {16, 0x1021, 0x0000, 0, true, true},
	CRC16ARC:        {16, 0x8005, 0x0000, 0, true, true},
	CRC16Modbus:     {16, 0x8005, 0xFFFF, 0, true, true},
	CRC16XModem:     {16, 0x1021, 0x0000, 0, false, false},
	// init value is CRC16-CCITT-FALSE over A1 A1 A1, the sync bytes the
	// caller's buffer conventionally omits
	CRC16MFM:     {16, 0x1021, 0xCDB4, 0, false, false},
	CRC32ISO:     {32, 0x04C11DB7, 0xFFFFFFFF, 0xFFFFFFFF, true, true},
	CRC32POSIX:   {32, 0x04C11DB7, 0x00000000, 0xFFFFFFFF, false, false},
	CRC32CCSDS:   {32, 0x1EDC6F41, 0xFFFFFFFF, 0xFFFFFFFF, true, true},
	CRC32MPEG2:   {32, 0x04C11DB7, 0xFFFFFFFF, 0x00000000, false, false},
	CRC32BZip2:   {32, 0x04C11DB7, 0xFFFFFFFF, 0xFFFFFFFF, false, false},
	CRC32JAMCRC:  {32, 0x04C11DB7, 0xFFFFFFFF, 0x00000000, true, true},
	CRC32XFER:    {32, 0x000000AF, 0x00000000, 0x00000000, false, false},
	CRC32Autosar: {32, 0xF4ACFB13, 0xFFFFFFFF, 0xFFFFFFFF, true, true},
	CRC8ATM:      {8, 0x07, 0x00, 0, false, false},
	CRC8Maxim:    {8, 0x31, 0x00, 0, true, true},
}

// State carries an in-progress checksum between Update calls. It is a
// value, copies are independent.
type State struct {
	crc uint32
	// longword assembly for XOR32
	word  uint32
	phase int
}

// Width returns the checksum width in bits for kind.
func Width(kind Kind) (int, error) {
	if p, ok := paramTable[kind]; ok {
		return p.width, nil
	}
	switch kind {
	case XOR8, RotateXOR8:
		return 8, nil
	case XOR32:
		return 32, nil
	}
	return 0, fmt.Errorf("%v", kind)
}

// Mask returns the value mask for kind's width.
func Mask(kind Kind) (uint32, error) {
	w, err := Width(kind)
	if err != nil {
		return 0, err
	}
	if w == 32 {
		return 0xFFFFFFFF, nil
	}
	return uint32(1)<<w - 1, nil
}

// Init starts an incremental checksum of the given kind. An unknown kind
// is a configuration error and fails fast.
func Init(kind Kind) (State, error) {
	if p, ok := paramTable[kind]; ok {
		return State{crc: p.init}, nil
	}
	switch kind {
	case XOR8, XOR32, RotateXOR8:
		return State{}, nil
	}
	return State{}, fmt.Errorf("%v", kind)
}

// UpdateByte folds one byte into the checksum state.
func UpdateByte(kind Kind, s State, b byte) State {

	if p, ok := paramTable[kind]; ok {
		if p.refIn {
			b = reverse8(b)
		}
		s.crc ^= uint32(b) << (p.width - 8)
		top := uint32(1) << (p.width - 1)
		mask := uint32(1)<<(p.width-1)<<1 - 1
		if p.width == 32 {
			mask = 0xFFFFFFFF
		}
		for i := 0; i < 8; i++ {
			if s.crc&top != 0 {
				s.crc = (s.crc << 1) ^ p.poly
			} else {
				s.crc <<= 1
			}
		}
		s.crc &= mask
		return s
	}

	switch kind {
	case XOR8:
		s.crc ^= uint32(b)
	case RotateXOR8:
		v := byte(s.crc)
		v = v<<1 | v>>7
		s.crc = uint32(v ^ b)
	case XOR32:
		s.word = s.word<<8 | uint32(b)
		s.phase++
		if s.phase == 4 {
			s.crc ^= s.word
			s.word = 0
			s.phase = 0
		}
	}
	return s
}

// Update folds data into the checksum state.
func Update(kind Kind, s State, data []byte) State {
	for _, b := range data {
		s = UpdateByte(kind, s, b)
	}
	return s
}

// Final closes the checksum and returns the value, masked to the kind's
// width. For XOR32, a trailing partial longword is folded in as-is.
func Final(kind Kind, s State) uint32 {

	if p, ok := paramTable[kind]; ok {
		crc := s.crc
		if p.refOut {
			crc = reverse(crc, p.width)
		}
		crc ^= p.xorOut
		if p.width < 32 {
			crc &= uint32(1)<<p.width - 1
		}
		return crc
	}

	if kind == XOR32 && s.phase != 0 {
		s.crc ^= s.word
	}
	if kind == XOR8 || kind == RotateXOR8 {
		return s.crc & 0xFF
	}
	return s.crc
}

// Calc computes the checksum of kind over data in one go.
func Calc(kind Kind, data []byte) (uint32, error) {
	s, err := Init(kind)
	if err != nil {
		return 0, err
	}
	return Final(kind, Update(kind, s, data)), nil
}

//
func reverse8(b byte) byte {
	b = b>>4 | b<<4
	b = b>>2&0x33 | b<<2&0xCC
	return b>>1&0x55 | b<<1&0xAA
}

//
func reverse(v uint32, width int) uint32 {
	var r uint32
	for i := 0; i < width; i++ {
		r = r<<1 | v&1
		v >>= 1
	}
	return r
}
