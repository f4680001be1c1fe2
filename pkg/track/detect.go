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

// Detect guesses the encoding of a track with an unknown bit stream, by
// letting every registered codec scan it and counting the sectors whose
// header verifies. The answer is a hint: a confident caller's explicit
// encoding always wins, and ok is false when nothing decodes at all.
func Detect(t *disk.Track) (disk.Encoding, bool) {

	tags := encoding.Tags()
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	best := disk.EncUnknown
	bestCount := 0

	for _, tag := range tags {
		codec, err := encoding.Get(tag)
		if err != nil {
			continue
		}
		count := 0
		for pos := 0; ; {
			sec, next, found := codec.NextSector(t, pos)
			if !found {
				break
			}
			if next <= pos {
				next = pos + 1
			}
			pos = next
			if sec.HeaderOK {
				count++
			}
		}
		log.Tracef("%v decodes %d good headers", tag, count)
		if count > bestCount {
			best, bestCount = tag, count
		}
	}

	if bestCount == 0 {
		return disk.EncUnknown, false
	}
	log.WithFields(log.Fields{
		"encoding": best, "sectors": bestCount}).Debug("detected encoding")
	return best, true
}
