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
	"bytes"
	"testing"

	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/encoding"
	"github.com/sectorforge/sectorforge/pkg/raw"
)

//
func payload(size int, seed byte) []byte {
	d := make([]byte, size)
	for i := range d {
		d[i] = seed + byte(i)
	}
	return d
}

// emitTrack writes the given sectors with leading and trailing fill and
// returns the finished track.
func emitTrack(t *testing.T, c encoding.Codec, enc disk.Encoding,
	secs ...*disk.Sector) *disk.Track {

	t.Helper()

	w := raw.NewWriter(200000)
	c.EmitFill(w, 32)
	for _, s := range secs {
		if err := c.EmitSector(w, s); err != nil {
			t.Fatalf("emit sector %d: %v", s.Number, err)
		}
	}
	c.EmitFill(w, 32)

	tr := &disk.Track{Bits: w.Bits(), Encoding: enc}
	if err := tr.SetWeakMask(w.WeakMask()); err != nil {
		t.Fatalf("weak mask: %v", err)
	}
	return tr
}

//
func TestRoundTrip(t *testing.T) {

	tests := []struct {
		name string
		enc  disk.Encoding
		size int
		code int
	}{
		{"fm", disk.EncFM, 128, 0},
		{"mfm", disk.EncMFM, 512, 2},
		{"m2fm", disk.EncM2FM, 128, 0},
		{"fm-hard", disk.EncFMHardSector, 256, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			c, err := encoding.Get(tc.enc)
			if err != nil {
				t.Fatalf("get codec: %v", err)
			}

			var secs []*disk.Sector
			for n := 1; n <= 3; n++ {
				s, err := disk.NewSector(7, 1, n, tc.code)
				if err != nil {
					t.Fatalf("new sector: %v", err)
				}
				if err := s.SetData(payload(tc.size, byte(n))); err != nil {
					t.Fatalf("set data: %v", err)
				}
				secs = append(secs, s)
			}

			tr := emitTrack(t, c, tc.enc, secs...)

			pos := 0
			for n := 1; n <= 3; n++ {
				sec, next, found := c.NextSector(tr, pos)
				if !found {
					t.Fatalf("sector %d not found", n)
				}
				if sec.Cylinder != 7 || sec.Number != n {
					t.Errorf("got sector %d/%d, want 7/%d",
						sec.Cylinder, sec.Number, n)
				}
				if tc.enc != disk.EncFMHardSector && sec.Head != 1 {
					t.Errorf("got head %d, want 1", sec.Head)
				}
				if !sec.HeaderOK || !sec.DataOK {
					t.Errorf("sector %d: header ok %v, data ok %v",
						n, sec.HeaderOK, sec.DataOK)
				}
				if !bytes.Equal(sec.Data, payload(tc.size, byte(n))) {
					t.Errorf("sector %d: payload mismatch", n)
				}
				pos = next
			}
			if _, _, found := c.NextSector(tr, pos); found {
				t.Errorf("found a fourth sector")
			}
		})
	}
}

//
func TestBadDataCRCSurvives(t *testing.T) {

	for _, enc := range []disk.Encoding{
		disk.EncFM, disk.EncMFM, disk.EncM2FM, disk.EncFMHardSector} {
		t.Run(enc.String(), func(t *testing.T) {

			c, err := encoding.Get(enc)
			if err != nil {
				t.Fatalf("get codec: %v", err)
			}

			s, _ := disk.NewSector(3, 0, 1, 1)
			s.SetData(payload(256, 0x11))

			// learn the good checksum, then store a corrupted one
			scratch := raw.NewWriter(100000)
			if err := c.EmitSector(scratch, s); err != nil {
				t.Fatalf("emit: %v", err)
			}
			alt := s.DataCRC ^ 0x01
			s.AltDataCRC = &alt

			tr := emitTrack(t, c, enc, s)

			sec, _, found := c.NextSector(tr, 0)
			if !found {
				t.Fatal("sector not found")
			}
			if sec.DataOK {
				t.Error("data reported good despite corrupted checksum")
			}
			if !bytes.Equal(sec.Data, payload(256, 0x11)) {
				t.Error("payload not preserved on checksum failure")
			}
			if sec.ValidationError() == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

//
func TestDeletedDataMark(t *testing.T) {

	for _, enc := range []disk.Encoding{disk.EncFM, disk.EncMFM, disk.EncM2FM} {
		t.Run(enc.String(), func(t *testing.T) {

			c, _ := encoding.Get(enc)

			s, _ := disk.NewSector(0, 0, 1, 1)
			s.SetData(payload(256, 0))
			s.Mark = disk.MarkDeleted

			tr := emitTrack(t, c, enc, s)

			sec, _, found := c.NextSector(tr, 0)
			if !found {
				t.Fatal("sector not found")
			}
			if !sec.Deleted() {
				t.Errorf("mark 0x%02X not recognized as deleted", sec.Mark)
			}
			if !sec.DataOK {
				t.Error("deleted sector should still verify")
			}
		})
	}
}

//
func TestMissingDataField(t *testing.T) {

	c, _ := encoding.Get(disk.EncMFM)

	s1, _ := disk.NewSector(1, 0, 1, 1)
	s1.OmitDataMark = true
	s2, _ := disk.NewSector(1, 0, 2, 1)
	s2.SetData(payload(256, 0x22))

	tr := emitTrack(t, c, disk.EncMFM, s1, s2)

	sec, next, found := c.NextSector(tr, 0)
	if !found {
		t.Fatal("first sector not found")
	}
	if sec.Number != 1 {
		t.Fatalf("got sector %d, want 1", sec.Number)
	}
	if sec.DataOK || sec.ValidationError() == nil {
		t.Error("headerless data field should invalidate the sector")
	}

	sec, _, found = c.NextSector(tr, next)
	if !found {
		t.Fatal("second sector not found")
	}
	if sec.Number != 2 || !sec.DataOK {
		t.Errorf("sector %d data ok %v, want 2/true", sec.Number, sec.DataOK)
	}
}

//
func TestWeakMaskRoundTrip(t *testing.T) {

	c, _ := encoding.Get(disk.EncMFM)

	s, _ := disk.NewSector(0, 0, 1, 1)
	s.SetData(payload(256, 0))
	mask := make([]byte, 256)
	mask[17] = 0x81
	mask[200] = 0xFF
	if err := s.SetWeakMask(mask); err != nil {
		t.Fatalf("set weak mask: %v", err)
	}

	tr := emitTrack(t, c, disk.EncMFM, s)
	if tr.WeakMask == nil {
		t.Fatal("track carries no weak mask")
	}

	sec, _, found := c.NextSector(tr, 0)
	if !found {
		t.Fatal("sector not found")
	}
	if !bytes.Equal(sec.WeakMask, mask) {
		t.Errorf("weak mask mismatch: got %x at 17, want %x",
			sec.WeakMask[17], mask[17])
	}
}

//
func TestOneBitCorrection(t *testing.T) {

	c, _ := encoding.Get(disk.EncMFM)
	corr, ok := c.(encoding.DataCorrector)
	if !ok {
		t.Fatal("mfm codec does not correct")
	}

	s, _ := disk.NewSector(0, 0, 1, 1)
	s.SetData(payload(256, 0x33))

	tr := emitTrack(t, c, disk.EncMFM, s)

	sec, _, found := c.NextSector(tr, 0)
	if !found {
		t.Fatal("sector not found")
	}

	// flip one payload bit after the fact
	sec.Data[100] ^= 0x10
	sec.DataOK = false

	if !corr.CorrectData(sec) {
		t.Fatal("single bit error not corrected")
	}
	if sec.Data[100] != payload(256, 0x33)[100] {
		t.Error("corrected payload still wrong")
	}
	if !sec.Corrected {
		t.Error("corrected flag not set")
	}
}
