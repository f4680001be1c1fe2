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
	"bytes"
	"testing"
)

// standard check values over "123456789"
func TestCheckValues(t *testing.T) {

	check := []byte("123456789")

	tests := []struct {
		kind Kind
		want uint32
	}{
		{CRC16CCITTFalse, 0x29B1},
		{CRC16Kermit, 0x2189},
		{CRC16ARC, 0xBB3D},
		{CRC16Modbus, 0x4B37},
		{CRC16XModem, 0x31C3},
		{CRC32ISO, 0xCBF43926},
		{CRC32POSIX, 0x765E7680},
		{CRC32CCSDS, 0xE3069283},
		{CRC32MPEG2, 0x0376E6E7},
		{CRC32BZip2, 0xFC891918},
		{CRC32JAMCRC, 0x340BC6D9},
		{CRC32XFER, 0xBD0BE338},
		{CRC32Autosar, 0x1697D06A},
		{CRC8ATM, 0xF4},
		{CRC8Maxim, 0xA1},
	}

	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			got, err := Calc(tc.kind, check)
			if err != nil {
				t.Fatalf("Calc: %v", err)
			}
			if got != tc.want {
				t.Errorf("Calc = %#x, want %#x", got, tc.want)
			}
		})
	}
}

func TestUnknownKindFailsFast(t *testing.T) {
	if _, err := Calc(Kind(999), []byte{1}); err == nil {
		t.Error("unknown kind accepted")
	}
	if _, err := Init(Kind(999)); err == nil {
		t.Error("unknown kind accepted by Init")
	}
}

func TestIncrementalMatchesCalc(t *testing.T) {

	data := []byte("incremental checksum data, split at an odd boundary")

	for kind := range kindNames {
		s, err := Init(kind)
		if err != nil {
			t.Fatalf("Init(%v): %v", kind, err)
		}
		s = Update(kind, s, data[:13])
		for _, b := range data[13:] {
			s = UpdateByte(kind, s, b)
		}
		inc := Final(kind, s)

		whole, _ := Calc(kind, data)
		if inc != whole {
			t.Errorf("%v: incremental %#x != one-shot %#x", kind, inc, whole)
		}
	}
}

func TestMFMSeed(t *testing.T) {

	// CRC16MFM over a field must equal CRC16-CCITT-FALSE over the same
	// field with the A1 A1 A1 sync prefix made explicit
	field := []byte{0xFE, 0x04, 0x01, 0x07, 0x02}

	seeded, _ := Calc(CRC16MFM, field)
	explicit, _ := Calc(CRC16CCITTFalse,
		append([]byte{0xA1, 0xA1, 0xA1}, field...))

	if seeded != explicit {
		t.Errorf("seeded %#x != explicit %#x", seeded, explicit)
	}

	if got := MFMSectorCRC(0xFE, field[1:]); got != uint16(explicit) {
		t.Errorf("MFMSectorCRC = %#x, want %#x", got, explicit)
	}
}

func TestAmigaChecksum(t *testing.T) {

	// A=0x00000001, B=0xFFFFFFFE, A^B = 0xFFFFFFFF
	data := []byte{0x00, 0x00, 0x00, 0x01, 0xFF, 0xFF, 0xFF, 0xFE}
	got, err := AmigaChecksum(data)
	if err != nil {
		t.Fatalf("AmigaChecksum: %v", err)
	}
	if got != 0xFFFFFFFF {
		t.Errorf("AmigaChecksum = %#x, want 0xFFFFFFFF", got)
	}

	if _, err := AmigaChecksum(data[:6]); err == nil {
		t.Error("ragged length accepted")
	}
}

func TestC64Checksum(t *testing.T) {
	if got := C64Checksum([]byte{0x01, 0x02, 0x04}); got != 0x07 {
		t.Errorf("C64Checksum = %#x, want 0x07", got)
	}
}

func TestAppleChecksum(t *testing.T) {
	// rotate-left-then-XOR, computed by hand:
	// 0 rot 0 ^ 0x12 = 0x12; 0x12 rot = 0x24, ^ 0x34 = 0x10;
	// 0x10 rot = 0x20, ^ 0x56 = 0x76
	if got := AppleChecksum([]byte{0x12, 0x34, 0x56}); got != 0x76 {
		t.Errorf("AppleChecksum = %#x, want 0x76", got)
	}
}

func TestCorrectOneBit(t *testing.T) {

	orig := []byte("sector payload with a single flipped bit somewhere")
	want, _ := Calc(CRC16CCITTFalse, orig)

	for _, pos := range []int{0, 7, 8, 100, len(orig)*8 - 1} {
		data := append([]byte(nil), orig...)
		flip(data, pos)

		got, ok, err := CorrectOneBit(CRC16CCITTFalse, data, want)
		if err != nil {
			t.Fatalf("CorrectOneBit: %v", err)
		}
		if !ok || got != pos {
			t.Fatalf("pos %d: got %d, ok %v", pos, got, ok)
		}
		if !bytes.Equal(data, orig) {
			t.Errorf("pos %d: buffer not restored to original", pos)
		}
	}
}

func TestCorrectOneBitNoMatchRestores(t *testing.T) {

	data := []byte("payload")

	// the 0x1021 polynomial has even weight, so a genuine two-bit error
	// can never be matched by a single flip (odd total difference)
	good, _ := Calc(CRC16CCITTFalse, data)
	flip(data, 3)
	flip(data, 33)
	damaged := append([]byte(nil), data...)

	_, ok, err := CorrectOneBit(CRC16CCITTFalse, data, good)
	if err != nil {
		t.Fatalf("CorrectOneBit: %v", err)
	}
	if ok {
		t.Error("single flip claimed to fix a two-bit error")
	}
	if !bytes.Equal(data, damaged) {
		t.Error("failed search left buffer modified")
	}

	// the two-bit search must be exhaustive and find it
	p1, p2, ok, err := CorrectTwoBits(CRC16CCITTFalse, data, good)
	if err != nil || !ok {
		t.Fatalf("CorrectTwoBits: ok %v, err %v", ok, err)
	}
	if !(p1 == 3 && p2 == 33) && !(p1 == 33 && p2 == 3) {
		t.Errorf("positions = %d, %d, want 3, 33", p1, p2)
	}
}

func TestCorrectTwoBits(t *testing.T) {

	orig := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	want, _ := Calc(CRC16CCITTFalse, orig)

	data := append([]byte(nil), orig...)
	flip(data, 5)
	flip(data, 27)

	p1, p2, ok, err := CorrectTwoBits(CRC16CCITTFalse, data, want)
	if err != nil {
		t.Fatalf("CorrectTwoBits: %v", err)
	}
	if !ok {
		t.Fatal("two-bit error not found")
	}
	if !(p1 == 5 && p2 == 27) && !(p1 == 27 && p2 == 5) {
		t.Errorf("positions = %d, %d, want 5, 27", p1, p2)
	}
	if !bytes.Equal(data, orig) {
		t.Error("buffer not restored")
	}
}

func TestCorrectTwoBitsCap(t *testing.T) {
	data := make([]byte, TwoBitCap+1)
	if _, _, _, err := CorrectTwoBits(CRC16CCITTFalse, data, 0); err == nil {
		t.Error("over-cap buffer accepted")
	}
}
