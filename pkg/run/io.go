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

package run

import (
	"fmt"
	"os"

	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/raw"
)

// loadTrack reads a flat raw bitstream dump. The file carries no header,
// its length in bytes times eight is the track's bit length; bitrate and
// encoding come from the caller.
func loadTrack(path string, bitrate int, enc disk.Encoding) (
	*disk.Track, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read track dump '%s': %v", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("track dump '%s' is empty", path)
	}

	return &disk.Track{
		Bits:     raw.FromBytes(data),
		Bitrate:  bitrate,
		Encoding: enc,
	}, nil
}

// saveTrack writes a track as a flat raw bitstream dump, weak mask and
// timing dropped.
func saveTrack(path string, t *disk.Track) error {
	if err := os.WriteFile(path, t.Bits.Bytes(), 0644); err != nil {
		return fmt.Errorf("cannot write track dump '%s': %v", path, err)
	}
	return nil
}
