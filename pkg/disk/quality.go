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

// SectorStatus is a bit set of read-quality flags on a unified sector
// record. Readers set flags as revolutions are folded in; records are
// never mutated from more than one goroutine.
type SectorStatus uint16

const (
	StatusPresent SectorStatus = 1 << iota
	StatusHeaderOK
	StatusDataOK
	StatusDeleted
	StatusWeak
	StatusProtected
	StatusMultiRev
	StatusPhantom
)

//
func (s SectorStatus) Has(f SectorStatus) bool {
	return s&f == f
}

// Confidence maps a flag combination to a 0.0 - 1.0 score. A sector that
// is present with both checks passing scores 1.0; weak bits and phantom
// status discount the score, they do not zero it, since forensic use
// wants the data regardless.
func (s SectorStatus) Confidence() float64 {
	if !s.Has(StatusPresent) {
		return 0
	}
	score := 0.25
	if s.Has(StatusHeaderOK) {
		score += 0.25
	}
	if s.Has(StatusDataOK) {
		score += 0.5
	}
	if s.Has(StatusWeak) {
		score *= 0.75
	}
	if s.Has(StatusPhantom) {
		score *= 0.25
	}
	return score
}

// maximum alternate data versions kept per sector record
const MaxVersions = 4

// Version is one alternate reading of a sector's payload, from one
// revolution or retry.
type Version struct {
	Data       []byte
	CRC        uint32
	Confidence float64
}

// SectorRecord layers read quality onto a sector: status flags plus up to
// MaxVersions alternate payload versions for multi-revolution
// reconciliation.
type SectorRecord struct {
	Sector   *Sector
	Status   SectorStatus
	Versions []*Version
}

// NewSectorRecord wraps an extracted sector, deriving the initial status
// flags from the descriptor.
func NewSectorRecord(sec *Sector) *SectorRecord {
	r := &SectorRecord{Sector: sec}
	if sec == nil {
		return r
	}
	r.Status = StatusPresent
	if sec.HeaderOK {
		r.Status |= StatusHeaderOK
	}
	if sec.DataOK {
		r.Status |= StatusDataOK
	}
	if sec.Deleted() {
		r.Status |= StatusDeleted
	}
	if sec.WeakMask != nil {
		r.Status |= StatusWeak
	}
	if sec.AltHeaderCRC != nil || sec.AltDataCRC != nil || sec.AltMark != nil {
		r.Status |= StatusProtected
	}
	return r
}

// FoldVersion merges another reading of the same sector into the record.
// Identical payloads raise the confidence of the existing version instead
// of occupying a slot; beyond MaxVersions, the least confident version is
// evicted. Returns whether the reading was kept.
func (r *SectorRecord) FoldVersion(v *Version) bool {

	r.Status |= StatusMultiRev

	for _, have := range r.Versions {
		if bytesEqual(have.Data, v.Data) && have.CRC == v.CRC {
			if have.Confidence < 1 {
				have.Confidence += (1 - have.Confidence) / 2
			}
			return true
		}
	}

	if len(r.Versions) < MaxVersions {
		r.Versions = append(r.Versions, v)
		return true
	}

	worst := 0
	for i, have := range r.Versions {
		if have.Confidence < r.Versions[worst].Confidence {
			worst = i
		}
	}
	if r.Versions[worst].Confidence < v.Confidence {
		r.Versions[worst] = v
		return true
	}
	return false
}

// Best returns the highest-confidence version, or nil when none were
// folded in.
func (r *SectorRecord) Best() *Version {
	var best *Version
	for _, v := range r.Versions {
		if best == nil || v.Confidence > best.Confidence {
			best = v
		}
	}
	return best
}

//
func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TrackGrade classifies a scanned track.
type TrackGrade int

const (
	GradeUnreadable TrackGrade = iota
	GradePoor
	GradeMarginal
	GradeGood
	GradePerfect
)

//
func (g TrackGrade) String() string {
	switch g {
	case GradePerfect:
		return "perfect"
	case GradeGood:
		return "good"
	case GradeMarginal:
		return "marginal"
	case GradePoor:
		return "poor"
	}
	return "unreadable"
}

// TrackStats aggregates per-track extraction counters.
type TrackStats struct {
	Expected int
	Found    int
	Good     int
	Bad      int
}

// Tally folds one extracted sector into the counters.
func (ts *TrackStats) Tally(sec *Sector) {
	ts.Found++
	if sec.HeaderOK && sec.DataOK {
		ts.Good++
	} else {
		ts.Bad++
	}
}

// Grade classifies the track from the counters: perfect means every
// expected sector was found good; unreadable means nothing was found.
func (ts *TrackStats) Grade() TrackGrade {
	switch {
	case ts.Found == 0:
		return GradeUnreadable
	case ts.Expected > 0 && ts.Good == ts.Expected && ts.Bad == 0:
		return GradePerfect
	case ts.Bad == 0:
		return GradeGood
	case ts.Good >= ts.Bad:
		return GradeMarginal
	}
	return GradePoor
}
