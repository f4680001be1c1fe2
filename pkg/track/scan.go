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

package track

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/encoding"
)

// Scanner is one extraction session over a single track and head. It
// remembers where the last scan ended and caches found sectors by their
// logical number, so repeated lookups need not rescan from offset 0.
// A scanner has a single owner, it does no locking.
type Scanner struct {
	track   *disk.Track
	head    int
	codec   encoding.Codec
	cache   map[int]*disk.Sector
	resume  int
	wrapped bool // the whole track, from offset 0, has been covered
	correct bool
}

// NewScanner creates a scanner for the track's encoding.
func NewScanner(t *disk.Track, head int) (*Scanner, error) {
	codec, err := encoding.Get(t.Encoding)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		track: t,
		head:  head,
		codec: codec,
		cache: map[int]*disk.Sector{},
	}, nil
}

// EnableCorrection turns brute-force bit correction of data checksum
// failures on or off. It only has an effect for codecs whose checksum
// supports it.
func (s *Scanner) EnableCorrection(on bool) {
	s.correct = on
}

// Scan decodes the next sector at or after bit offset from. It returns
// false when no further sync pattern exists before the end of the track.
// Found sectors enter the cache as a side effect.
func (s *Scanner) Scan(from int) (*disk.Sector, bool) {

	sec, next, found := s.codec.NextSector(s.track, from)
	if !found {
		return nil, false
	}
	if next <= from {
		next = from + 1
	}
	s.resume = next

	s.finalize(sec)

	if cached, ok := s.cache[sec.Number]; !ok || !cached.DataOK {
		s.cache[sec.Number] = sec
	}
	log.WithFields(log.Fields{
		"sector": sec.Number, "bit": sec.IDBitPos, "header": sec.HeaderOK,
		"data": sec.DataOK}).Trace("scanned sector")
	return sec, true
}

// finalize applies the optional correction pass and fills in the head for
// families whose ID fields do not carry one.
func (s *Scanner) finalize(sec *disk.Sector) {

	switch s.track.Encoding {
	case disk.EncGCRC64, disk.EncGCRAppleII, disk.EncFMHardSector:
		sec.Head = s.head
	}

	if s.correct && !sec.DataOK {
		if c, ok := s.codec.(encoding.DataCorrector); ok && c.CorrectData(sec) {
			log.Debugf("corrected sector %d", sec.Number)
		}
	}
}

// Search finds the sector with the given logical number. A cache hit
// returns immediately; a miss scans forward from where the last scan
// ended, and falls back to a restart from offset 0 only when the track
// has not been fully covered yet.
func (s *Scanner) Search(id int) (*disk.Sector, bool) {

	if sec, ok := s.cache[id]; ok {
		return sec, true
	}
	if s.wrapped {
		return nil, false
	}

	for {
		sec, ok := s.Scan(s.resume)
		if !ok {
			break
		}
		if sec.Number == id {
			return sec, true
		}
	}

	// not ahead of the resume point, start over once
	pos := 0
	for {
		sec, next, found := s.codec.NextSector(s.track, pos)
		if !found {
			break
		}
		if next <= pos {
			next = pos + 1
		}
		pos = next
		s.finalize(sec)
		if _, ok := s.cache[sec.Number]; !ok {
			s.cache[sec.Number] = sec
		}
		if sec.Number == id {
			return sec, true
		}
	}
	s.wrapped = true
	return nil, false
}

// GetAllSectors scans the whole track and returns every sector found, in
// logical number order. A first pass counts the hits so the result is
// allocated exactly once.
func (s *Scanner) GetAllSectors() []*disk.Sector {

	count := 0
	for pos := 0; ; {
		_, next, found := s.codec.NextSector(s.track, pos)
		if !found {
			break
		}
		if next <= pos {
			next = pos + 1
		}
		pos = next
		count++
	}
	if count == 0 {
		return nil
	}

	ret := make([]*disk.Sector, 0, count)
	for pos := 0; len(ret) < count; {
		sec, next, found := s.codec.NextSector(s.track, pos)
		if !found {
			break
		}
		if next <= pos {
			next = pos + 1
		}
		pos = next
		s.finalize(sec)
		if cached, ok := s.cache[sec.Number]; !ok || !cached.DataOK {
			s.cache[sec.Number] = sec
		}
		ret = append(ret, sec)
	}
	s.wrapped = true

	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].Number < ret[j].Number
	})
	return ret
}
