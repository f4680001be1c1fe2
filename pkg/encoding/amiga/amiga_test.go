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
	"bytes"
	"testing"

	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/encoding"
	"github.com/sectorforge/sectorforge/pkg/raw"
)

//
func payload(seed byte) []byte {
	d := make([]byte, sectorSize)
	for i := range d {
		d[i] = seed + byte(i)
	}
	return d
}

//
func TestShuffleMerge(t *testing.T) {

	for _, v := range []uint32{0, 0xFFFFFFFF, 0xDEADBEEF, 0x00FF01FE, 1} {
		odd, even := shuffle(v)
		if got := merge(odd, even); got != v {
			t.Errorf("merge(shuffle(%08X)) = %08X", v, got)
		}
	}

	// alternating bits separate cleanly
	odd, even := shuffle(0xAAAAAAAA)
	if odd != 0xFFFF || even != 0x0000 {
		t.Errorf("shuffle(AAAAAAAA) = %04X/%04X, want FFFF/0000", odd, even)
	}
}

//
func TestRoundTrip(t *testing.T) {

	c, err := encoding.Get(disk.EncAmigaMFM)
	if err != nil {
		t.Fatalf("get codec: %v", err)
	}

	w := raw.NewWriter(220000)
	c.EmitFill(w, 60)
	for n := 0; n < 11; n++ {
		s, err := disk.NewSector(40, 1, n, 2)
		if err != nil {
			t.Fatalf("new sector: %v", err)
		}
		if err := s.SetData(payload(byte(n))); err != nil {
			t.Fatalf("set data: %v", err)
		}
		if err := c.EmitSector(w, s); err != nil {
			t.Fatalf("emit sector %d: %v", n, err)
		}
	}
	c.EmitFill(w, 60)

	tr := &disk.Track{Bits: w.Bits(), Encoding: disk.EncAmigaMFM}

	pos := 0
	for n := 0; n < 11; n++ {
		sec, next, found := c.NextSector(tr, pos)
		if !found {
			t.Fatalf("sector %d not found", n)
		}
		if sec.Cylinder != 40 || sec.Head != 1 || sec.Number != n {
			t.Errorf("got %d/%d/%d, want 40/1/%d",
				sec.Cylinder, sec.Head, sec.Number, n)
		}
		if !sec.HeaderOK || !sec.DataOK {
			t.Errorf("sector %d: header ok %v, data ok %v",
				n, sec.HeaderOK, sec.DataOK)
		}
		if !bytes.Equal(sec.Data, payload(byte(n))) {
			t.Errorf("sector %d: payload mismatch", n)
		}
		pos = next
	}
	if _, _, found := c.NextSector(tr, pos); found {
		t.Error("found a twelfth sector")
	}
}

//
func TestBadChecksumSurvives(t *testing.T) {

	c, _ := encoding.Get(disk.EncAmigaMFM)

	s, _ := disk.NewSector(0, 0, 3, 2)
	s.SetData(payload(0x55))

	scratch := raw.NewWriter(20000)
	if err := c.EmitSector(scratch, s); err != nil {
		t.Fatalf("emit: %v", err)
	}
	alt := s.DataCRC ^ 0x01
	s.AltDataCRC = &alt

	w := raw.NewWriter(20000)
	if err := c.EmitSector(w, s); err != nil {
		t.Fatalf("emit: %v", err)
	}
	tr := &disk.Track{Bits: w.Bits(), Encoding: disk.EncAmigaMFM}

	sec, _, found := c.NextSector(tr, 0)
	if !found {
		t.Fatal("sector not found")
	}
	if sec.DataOK {
		t.Error("data reported good despite corrupted checksum")
	}
	if !bytes.Equal(sec.Data, payload(0x55)) {
		t.Error("payload not preserved on checksum failure")
	}
}

//
func TestWeakMaskRoundTrip(t *testing.T) {

	c, _ := encoding.Get(disk.EncAmigaMFM)

	s, _ := disk.NewSector(2, 0, 0, 2)
	s.SetData(payload(0))
	mask := make([]byte, sectorSize)
	mask[0] = 0x80
	mask[511] = 0x01
	if err := s.SetWeakMask(mask); err != nil {
		t.Fatalf("set weak mask: %v", err)
	}

	w := raw.NewWriter(20000)
	if err := c.EmitSector(w, s); err != nil {
		t.Fatalf("emit: %v", err)
	}
	tr := &disk.Track{Bits: w.Bits(), Encoding: disk.EncAmigaMFM}
	if err := tr.SetWeakMask(w.WeakMask()); err != nil {
		t.Fatalf("weak mask: %v", err)
	}

	sec, _, found := c.NextSector(tr, 0)
	if !found {
		t.Fatal("sector not found")
	}
	if !bytes.Equal(sec.WeakMask, mask) {
		t.Error("weak mask did not survive the odd/even shuffle")
	}
}

//
func TestWrongSizeRejected(t *testing.T) {

	c, _ := encoding.Get(disk.EncAmigaMFM)

	s, _ := disk.NewSector(0, 0, 0, 1)
	s.SetData(make([]byte, 256))

	w := raw.NewWriter(20000)
	if err := c.EmitSector(w, s); err == nil {
		t.Error("256 byte sector accepted")
	}
}
