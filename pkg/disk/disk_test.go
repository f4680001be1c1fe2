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

package disk

import (
	"bytes"
	"testing"

	"github.com/sectorforge/sectorforge/pkg/raw"
)

func TestSectorSizeCode(t *testing.T) {

	tests := []struct {
		code int
		size int
		ok   bool
	}{
		{0, 128, true},
		{1, 256, true},
		{2, 512, true},
		{3, 1024, true},
		{7, 16384, true},
		{8, 0, false},
		{-1, 0, false},
	}

	for _, tc := range tests {
		sec, err := NewSector(0, 0, 1, tc.code)
		if tc.ok != (err == nil) {
			t.Fatalf("code %d: err %v", tc.code, err)
		}
		if err != nil {
			continue
		}
		if sec.Size() != tc.size {
			t.Errorf("code %d: size %d, want %d", tc.code, sec.Size(), tc.size)
		}
		if err := sec.SetData(make([]byte, tc.size)); err != nil {
			t.Errorf("code %d: SetData: %v", tc.code, err)
		}
		if err := sec.SetData(make([]byte, tc.size-1)); err == nil {
			t.Errorf("code %d: short payload accepted", tc.code)
		}
		if err := sec.SetWeakMask(make([]byte, tc.size+1)); err == nil {
			t.Errorf("code %d: mismatched weak mask accepted", tc.code)
		}
	}
}

func TestSectorClone(t *testing.T) {

	sec, _ := NewSector(10, 1, 3, 1)
	sec.SetData(bytes.Repeat([]byte{0xE5}, 256))
	alt := uint32(0xBEEF)
	sec.AltDataCRC = &alt

	c := sec.Clone()
	c.Data[0] = 0x00
	*c.AltDataCRC = 0xDEAD

	if sec.Data[0] != 0xE5 {
		t.Error("clone shares payload")
	}
	if *sec.AltDataCRC != 0xBEEF {
		t.Error("clone shares alternate CRC")
	}
}

func TestTrackInvariants(t *testing.T) {

	trk, err := NewTrack(100000, 500000, EncMFM)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}

	short, _ := raw.NewBuffer(99999)
	if err := trk.SetWeakMask(short); err == nil {
		t.Error("short weak mask accepted")
	}
	exact, _ := raw.NewBuffer(100000)
	if err := trk.SetWeakMask(exact); err != nil {
		t.Errorf("exact weak mask rejected: %v", err)
	}
	if err := trk.SetTiming(make([]uint32, 17)); err == nil {
		t.Error("short timing array accepted")
	}
}

func TestImageClone(t *testing.T) {

	img, err := NewImage(Geometry{Tracks: 1, Heads: 1, Sectors: 9, Bitrate: 250000})
	if err != nil {
		t.Fatalf("NewImage: %v", err)
	}
	trk, _ := NewTrack(64, 250000, EncFM)
	trk.Bits.SetBit(5, 1)
	img.AddCylinder(&Cylinder{Tracks: []*Track{trk}, RPM: 300})

	c := img.Clone()
	c.Track(0, 0).Bits.SetBit(5, 0)

	if img.Track(0, 0).Bits.Bit(5) != 1 {
		t.Error("clone shares track bits")
	}
	if img.Track(0, 1) != nil || img.Track(3, 0) != nil {
		t.Error("out of range track lookup not nil")
	}
}

func TestConfidence(t *testing.T) {

	tests := []struct {
		name   string
		status SectorStatus
		want   float64
	}{
		{"absent", 0, 0},
		{"present only", StatusPresent, 0.25},
		{"header ok", StatusPresent | StatusHeaderOK, 0.5},
		{"all ok", StatusPresent | StatusHeaderOK | StatusDataOK, 1.0},
		{"weak discount", StatusPresent | StatusHeaderOK | StatusDataOK | StatusWeak, 0.75},
		{"phantom", StatusPresent | StatusHeaderOK | StatusDataOK | StatusPhantom, 0.25},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.status.Confidence(); got != tc.want {
				t.Errorf("Confidence = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFoldVersion(t *testing.T) {

	sec, _ := NewSector(0, 0, 1, 0)
	sec.HeaderOK = true
	sec.DataOK = true
	r := NewSectorRecord(sec)

	if !r.Status.Has(StatusPresent | StatusHeaderOK | StatusDataOK) {
		t.Fatal("initial flags wrong")
	}

	v1 := &Version{Data: []byte{1}, CRC: 1, Confidence: 0.5}
	r.FoldVersion(v1)
	// identical reading raises confidence, no new slot
	r.FoldVersion(&Version{Data: []byte{1}, CRC: 1, Confidence: 0.5})
	if len(r.Versions) != 1 || v1.Confidence <= 0.5 {
		t.Fatalf("dedup failed: %d versions, confidence %v",
			len(r.Versions), v1.Confidence)
	}

	for i := 2; i <= MaxVersions; i++ {
		r.FoldVersion(&Version{Data: []byte{byte(i)}, CRC: uint32(i),
			Confidence: 0.1 * float64(i)})
	}
	if len(r.Versions) != MaxVersions {
		t.Fatalf("versions = %d, want %d", len(r.Versions), MaxVersions)
	}

	// a low-confidence fifth version is dropped, a high one evicts
	if r.FoldVersion(&Version{Data: []byte{9}, CRC: 9, Confidence: 0.01}) {
		t.Error("low-confidence version kept beyond cap")
	}
	if !r.FoldVersion(&Version{Data: []byte{10}, CRC: 10, Confidence: 0.99}) {
		t.Error("high-confidence version dropped")
	}
	if best := r.Best(); best == nil || best.CRC != 10 {
		t.Error("best version wrong")
	}
	if !r.Status.Has(StatusMultiRev) {
		t.Error("multi-rev flag missing")
	}
}

func TestTrackGrade(t *testing.T) {

	tests := []struct {
		name  string
		stats TrackStats
		want  TrackGrade
	}{
		{"nothing found", TrackStats{Expected: 9}, GradeUnreadable},
		{"all good", TrackStats{Expected: 9, Found: 9, Good: 9}, GradePerfect},
		{"good but short", TrackStats{Expected: 9, Found: 8, Good: 8}, GradeGood},
		{"mixed", TrackStats{Expected: 9, Found: 9, Good: 6, Bad: 3}, GradeMarginal},
		{"mostly bad", TrackStats{Expected: 9, Found: 9, Good: 2, Bad: 7}, GradePoor},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.stats.Grade(); got != tc.want {
				t.Errorf("Grade = %v, want %v", got, tc.want)
			}
		})
	}
}
