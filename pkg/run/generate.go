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

	log "github.com/sirupsen/logrus"

	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/track"
)

//
func NewGenerate() *Generate {

	g := &Generate{}
	g.Runner = *NewRunner(
		"generate -o|--output {file} -e|--encoding {tag} [-s|--sectors {count}] [...]",
		"generate a formatted track dump",
		`
Use the generate command to write a freshly formatted track as a raw
bitstream dump, the way a format program would lay it out.`,
		"", runnerHelpEpilogue, g.Run)

	g.AddBaseSettings()
	g.AddSetting(&g.Output, "output", "o", "", nil, "output dump file", true)
	g.AddSetting(&g.Encoding, "encoding", "e", "", nil, "encoding tag", true)
	g.AddSetting(&g.Cylinder, "cylinder", "y", "", 0, "cylinder number", false)
	g.AddSetting(&g.Head, "head", "d", "", 0, "head number", false)
	g.AddSetting(&g.Sectors, "sectors", "s", "", 9, "sectors per track", false)
	g.AddSetting(&g.SizeCode, "size-code", "z", "", 2,
		"sector size code, 128 << code bytes", false)
	g.AddSetting(&g.First, "first", "f", "", 1, "first sector number", false)
	g.AddSetting(&g.Interleave, "interleave", "n", "", 1,
		"physical interleave factor", false)
	g.AddSetting(&g.Skew, "skew", "k", "", 0, "per-cylinder skew", false)
	g.AddSetting(&g.Bitrate, "bitrate", "b", "", 250000,
		"raw bit cells per second", false)
	g.AddSetting(&g.RPM, "rpm", "r", "", 300, "rotations per minute", false)
	g.AddSetting(&g.Fill, "fill", "", "", 0xE5, "payload fill byte", false)

	return g
}

//
type Generate struct {
	Runner
	//
	Output     string
	Encoding   string
	Cylinder   int
	Head       int
	Sectors    int
	SizeCode   int
	First      int
	Interleave int
	Skew       int
	Bitrate    int
	RPM        int
	Fill       int
}

//
func (g *Generate) Run() error {

	g.ParseSettings()

	enc, err := disk.ParseEncoding(g.Encoding)
	if err != nil {
		return err
	}

	secs := make([]*disk.Sector, g.Sectors)
	for i := range secs {
		sec, err := disk.NewSector(
			g.Cylinder, g.Head, g.First+i, g.SizeCode)
		if err != nil {
			return err
		}
		data := make([]byte, sec.Size())
		for j := range data {
			data[j] = byte(g.Fill)
		}
		if err := sec.SetData(data); err != nil {
			return err
		}
		secs[i] = sec
	}

	tr, err := track.Generate(&track.Params{
		SectorCount: g.Sectors,
		Sectors:     secs,
		Interleave:  g.Interleave,
		Skew:        g.Skew,
		Bitrate:     g.Bitrate,
		RPM:         g.RPM,
		Encoding:    enc,
	})
	if err != nil {
		return err
	}

	if err := saveTrack(g.Output, tr); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"file": g.Output, "encoding": enc, "sectors": g.Sectors,
		"bits": tr.BitLen()}).Info("track written")
	fmt.Printf("wrote %d sectors, %d bits, to %s\n",
		g.Sectors, tr.BitLen(), g.Output)
	return nil
}
