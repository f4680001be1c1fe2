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

	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/track"
)

//
func NewDetect() *Detect {

	d := &Detect{}
	d.Runner = *NewRunner(
		"detect -i|--input {file}",
		"guess the encoding of a raw track dump",
		`
Use the detect command to let every codec try a track dump and report
which encoding decodes it best. The answer is a hint, not a verdict.`,
		"", runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddSetting(&d.Input, "input", "i", "", nil, "raw track dump file", true)
	d.AddSetting(&d.Bitrate, "bitrate", "b", "", 250000,
		"nominal raw bit cells per second", false)

	return d
}

//
type Detect struct {
	Runner
	//
	Input   string
	Bitrate int
}

//
func (d *Detect) Run() error {

	d.ParseSettings()

	tr, err := loadTrack(d.Input, d.Bitrate, disk.EncUnknown)
	if err != nil {
		return err
	}

	enc, ok := track.Detect(tr)
	if !ok {
		return fmt.Errorf("no codec can make sense of '%s'", d.Input)
	}

	fmt.Printf("%v\n", enc)
	return nil
}
