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

package encoding

import (
	"fmt"

	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/raw"
)

// Codec is one encoding family's strategy: emit a sector's physical bits,
// and find/decode the next sector from a bit offset. Implementations own
// their sync constants and substitution tables and register themselves
// under their encoding tag.
type Codec interface {

	//
	Tag() disk.Encoding

	// EmitSector appends one complete sector to the track being built:
	// sync, ID field, gaps, data field and trailing gap. It fills in the
	// sector's calculated CRC fields as a side effect, and honors the
	// descriptor's alternate CRC/mark overrides and weak mask.
	EmitSector(w *raw.Writer, sec *disk.Sector) error

	// EmitFill appends n fill bytes in the family's gap encoding.
	EmitFill(w *raw.Writer, n int)

	// NextSector scans t for the next sector at or after bit offset from.
	// It returns the decoded sector, the offset at which to resume
	// scanning, and whether a sector was found before the end of the
	// track. Checksum failures are recorded on the sector, they do not
	// make the scan fail.
	NextSector(t *disk.Track, from int) (*disk.Sector, int, bool)
}

// DataCorrector is implemented by codecs whose data checksum supports
// brute-force bit correction. CorrectData attempts to repair sec.Data in
// place against the stored checksum, returning whether it succeeded.
type DataCorrector interface {
	CorrectData(sec *disk.Sector) bool
}

//
var registry = map[disk.Encoding]Codec{}

// Register adds a codec under its tag. Codec packages call this from
// their init.
func Register(c Codec) {
	registry[c.Tag()] = c
}

// Get resolves an encoding tag to its codec. An unregistered tag is a
// configuration error.
func Get(tag disk.Encoding) (Codec, error) {
	if c, ok := registry[tag]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("no codec registered for %v", tag)
}

// Tags returns all registered encoding tags.
func Tags() []disk.Encoding {
	var ret []disk.Encoding
	for tag := range registry {
		ret = append(ret, tag)
	}
	return ret
}
