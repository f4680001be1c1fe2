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

package gcr

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

//
func TestGCR5Table(t *testing.T) {

	seen := map[byte]bool{}
	for v, g := range gcr5Enc {
		if g > 0x1F {
			t.Errorf("group %d: %02X exceeds 5 bits", v, g)
		}
		if seen[g] {
			t.Errorf("group %02X assigned twice", g)
		}
		seen[g] = true
		if gcr5Dec[g] != v {
			t.Errorf("decode table: %02X -> %d, want %d", g, gcr5Dec[g], v)
		}
	}

	// round trip all byte values through a scratch writer
	w := raw.NewWriter(256 * 10)
	for v := 0; v < 256; v++ {
		writeGCR5(w, byte(v))
	}
	tr := &disk.Track{Bits: w.Bits()}
	for v := 0; v < 256; v++ {
		b, ok := readGCR5(tr, v*10)
		if !ok || b != byte(v) {
			t.Fatalf("GCR round trip of %02X: got %02X, ok %v", v, b, ok)
		}
	}
}

//
func TestApple62Table(t *testing.T) {

	seen := map[byte]bool{}
	for v, b := range apple62Enc {
		if b&0x80 == 0 {
			t.Errorf("disk byte %02X for %d lacks the high bit", b, v)
		}
		if b == 0xD5 || b == 0xAA {
			t.Errorf("reserved byte %02X in write table", b)
		}
		if seen[b] {
			t.Errorf("disk byte %02X assigned twice", b)
		}
		seen[b] = true
		if apple62Dec[b] != v {
			t.Errorf("decode table: %02X -> %d, want %d", b, apple62Dec[b], v)
		}
	}
}

//
func TestNibblize(t *testing.T) {

	for _, seed := range []byte{0, 0x5A, 0xFF} {
		data := payload(256, seed)
		seq := nibblize(data)
		if len(seq) != auxLen+256 {
			t.Fatalf("nibble count %d, want %d", len(seq), auxLen+256)
		}
		for i, v := range seq {
			if v > 0x3F {
				t.Fatalf("nibble %d: %02X exceeds 6 bits", i, v)
			}
		}
		if got := denibblize(seq); !bytes.Equal(got, data) {
			t.Fatalf("denibblize mismatch for seed %02X", seed)
		}
	}
}

//
func TestRoundTrip(t *testing.T) {

	tests := []struct {
		name string
		enc  disk.Encoding
		size int
		code int
		cyl  int
		head int
	}{
		{"c64", disk.EncGCRC64, 256, 1, 17, 0},
		{"victor", disk.EncGCRVictor, 512, 2, 30, 1},
		{"apple2", disk.EncGCRAppleII, 256, 1, 22, 0},
		{"mac", disk.EncGCRAppleMac, 512, 2, 69, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			c, err := encoding.Get(tc.enc)
			if err != nil {
				t.Fatalf("get codec: %v", err)
			}

			w := raw.NewWriter(300000)
			c.EmitFill(w, 24)
			for n := 0; n < 3; n++ {
				s, err := disk.NewSector(tc.cyl, tc.head, n, tc.code)
				if err != nil {
					t.Fatalf("new sector: %v", err)
				}
				if err := s.SetData(payload(tc.size, byte(n+1))); err != nil {
					t.Fatalf("set data: %v", err)
				}
				if err := c.EmitSector(w, s); err != nil {
					t.Fatalf("emit sector %d: %v", n, err)
				}
			}
			c.EmitFill(w, 24)

			tr := &disk.Track{Bits: w.Bits(), Encoding: tc.enc}

			pos := 0
			for n := 0; n < 3; n++ {
				sec, next, found := c.NextSector(tr, pos)
				if !found {
					t.Fatalf("sector %d not found", n)
				}
				if sec.Cylinder != tc.cyl || sec.Head != tc.head ||
					sec.Number != n {
					t.Errorf("got %d/%d/%d, want %d/%d/%d", sec.Cylinder,
						sec.Head, sec.Number, tc.cyl, tc.head, n)
				}
				if !sec.HeaderOK || !sec.DataOK {
					t.Errorf("sector %d: header ok %v, data ok %v",
						n, sec.HeaderOK, sec.DataOK)
				}
				if !bytes.Equal(sec.Data, payload(tc.size, byte(n+1))) {
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
func TestBadChecksumSurvives(t *testing.T) {

	tests := []struct {
		enc  disk.Encoding
		size int
		code int
	}{
		{disk.EncGCRC64, 256, 1},
		{disk.EncGCRVictor, 512, 2},
		{disk.EncGCRAppleII, 256, 1},
		{disk.EncGCRAppleMac, 512, 2},
	}

	for _, tc := range tests {
		t.Run(tc.enc.String(), func(t *testing.T) {

			c, _ := encoding.Get(tc.enc)

			s, _ := disk.NewSector(5, 0, 1, tc.code)
			s.SetData(payload(tc.size, 0x77))

			scratch := raw.NewWriter(100000)
			if err := c.EmitSector(scratch, s); err != nil {
				t.Fatalf("emit: %v", err)
			}
			alt := s.DataCRC ^ 0x01
			s.AltDataCRC = &alt

			w := raw.NewWriter(100000)
			c.EmitFill(w, 8)
			if err := c.EmitSector(w, s); err != nil {
				t.Fatalf("emit: %v", err)
			}
			tr := &disk.Track{Bits: w.Bits(), Encoding: tc.enc}

			sec, _, found := c.NextSector(tr, 0)
			if !found {
				t.Fatal("sector not found")
			}
			if sec.DataOK {
				t.Error("data reported good despite corrupted checksum")
			}
			if !bytes.Equal(sec.Data, payload(tc.size, 0x77)) {
				t.Error("payload not preserved on checksum failure")
			}
			if sec.ValidationError() == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

//
func TestC64MissingDataBlock(t *testing.T) {

	c, _ := encoding.Get(disk.EncGCRC64)

	s1, _ := disk.NewSector(10, 0, 0, 1)
	s1.OmitDataMark = true
	s2, _ := disk.NewSector(10, 0, 1, 1)
	s2.SetData(payload(256, 0x10))

	w := raw.NewWriter(100000)
	c.EmitFill(w, 8)
	if err := c.EmitSector(w, s1); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := c.EmitSector(w, s2); err != nil {
		t.Fatalf("emit: %v", err)
	}
	tr := &disk.Track{Bits: w.Bits(), Encoding: disk.EncGCRC64}

	sec, next, found := c.NextSector(tr, 0)
	if !found {
		t.Fatal("first sector not found")
	}
	if sec.Number != 0 || sec.DataOK || sec.ValidationError() == nil {
		t.Errorf("sector %d: data ok %v, want headerless invalidation",
			sec.Number, sec.DataOK)
	}

	sec, _, found = c.NextSector(tr, next)
	if !found {
		t.Fatal("second sector not found")
	}
	if sec.Number != 1 || !sec.DataOK {
		t.Errorf("sector %d data ok %v, want 1/true", sec.Number, sec.DataOK)
	}
}

//
func TestWeakGroupRoundTrip(t *testing.T) {

	c, _ := encoding.Get(disk.EncGCRC64)

	s, _ := disk.NewSector(0, 0, 0, 1)
	s.SetData(payload(256, 0))
	mask := make([]byte, 256)
	mask[42] = 0x01 // any weak bit taints the whole byte group
	if err := s.SetWeakMask(mask); err != nil {
		t.Fatalf("set weak mask: %v", err)
	}

	w := raw.NewWriter(100000)
	if err := c.EmitSector(w, s); err != nil {
		t.Fatalf("emit: %v", err)
	}
	tr := &disk.Track{Bits: w.Bits(), Encoding: disk.EncGCRC64}
	if err := tr.SetWeakMask(w.WeakMask()); err != nil {
		t.Fatalf("weak mask: %v", err)
	}

	sec, _, found := c.NextSector(tr, 0)
	if !found {
		t.Fatal("sector not found")
	}
	if sec.WeakMask == nil || sec.WeakMask[42] != 0xFF {
		t.Error("weak byte 42 not flagged after round trip")
	}
	for i, b := range sec.WeakMask {
		if i != 42 && b != 0 {
			t.Errorf("byte %d spuriously weak", i)
		}
	}
}
