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
	"text/tabwriter"

	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/track"
)

//
func NewScan() *Scan {

	s := &Scan{}
	s.Runner = *NewRunner(
		"scan -i|--input {file} [-e|--encoding {tag}] [-d|--head {head}] [-c|--correct]",
		"scan a raw track dump for sectors",
		`
Use the scan command to list all sectors found in a raw track bitstream
dump, with their header and data checksum results.`,
		"", runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.Input, "input", "i", "", nil, "raw track dump file", true)
	s.AddSetting(&s.Encoding, "encoding", "e", "", nil,
		"encoding tag; omit to auto-detect", false)
	s.AddSetting(&s.Head, "head", "d", "", 0,
		"head number, for encodings whose ID fields do not carry one", false)
	s.AddSetting(&s.Bitrate, "bitrate", "b", "", 250000,
		"nominal raw bit cells per second", false)
	s.AddSetting(&s.Correct, "correct", "c", "", false,
		"attempt brute-force bit correction on data checksum failures", false)
	s.AddSetting(&s.Expected, "expected", "x", "", 0,
		"expected sector count, for grading; 0 = number found", false)

	return s
}

//
type Scan struct {
	Runner
	//
	Input    string
	Encoding string
	Head     int
	Bitrate  int
	Correct  bool
	Expected int
}

//
func (s *Scan) Run() error {

	s.ParseSettings()

	tr, err := s.loadResolved()
	if err != nil {
		return err
	}

	sc, err := track.NewScanner(tr, s.Head)
	if err != nil {
		return err
	}
	sc.EnableCorrection(s.Correct)

	secs := sc.GetAllSectors()

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SECTOR\tCYL\tHEAD\tSIZE\tHEADER\tDATA\tFLAGS")
	stats := &disk.TrackStats{Expected: s.Expected}
	if s.Expected == 0 {
		stats.Expected = len(secs)
	}
	for _, sec := range secs {
		stats.Tally(sec)
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\t%s\t%s\n",
			sec.Number, sec.Cylinder, sec.Head, sec.Size(),
			okStr(sec.HeaderOK), okStr(sec.DataOK), flagStr(sec))
	}
	w.Flush()

	fmt.Printf("\n%d sector(s), encoding %v, grade %v\n",
		len(secs), tr.Encoding, stats.Grade())
	return nil
}

// loadResolved loads the input dump, auto-detecting the encoding when
// none was given.
func (s *Scan) loadResolved() (*disk.Track, error) {

	enc := disk.EncUnknown
	if s.Encoding != "" {
		var err error
		if enc, err = disk.ParseEncoding(s.Encoding); err != nil {
			return nil, err
		}
	}

	tr, err := loadTrack(s.Input, s.Bitrate, enc)
	if err != nil {
		return nil, err
	}

	if tr.Encoding == disk.EncUnknown {
		detected, ok := track.Detect(tr)
		if !ok {
			return nil, fmt.Errorf(
				"cannot detect the encoding of '%s', use --encoding", s.Input)
		}
		tr.Encoding = detected
	}
	return tr, nil
}

//
func okStr(ok bool) string {
	if ok {
		return "ok"
	}
	return "BAD"
}

//
func flagStr(sec *disk.Sector) string {
	ret := ""
	if sec.Deleted() {
		ret += "D"
	}
	if sec.Corrected {
		ret += "C"
	}
	if len(sec.WeakMask) > 0 {
		ret += "W"
	}
	if ret == "" {
		ret = "-"
	}
	return ret
}
