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
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/sectorforge/sectorforge/pkg/disk"
	"github.com/sectorforge/sectorforge/pkg/track"
	"github.com/sectorforge/sectorforge/pkg/util"
)

//
func NewWatch() *Watch {

	w := &Watch{}
	w.Runner = *NewRunner(
		"watch -w|--watch {dir} [-e|--encoding {tag}]",
		"watch a directory and scan arriving track dumps",
		`
Use the watch command to keep scanning a directory tree: whenever a raw
track dump is created or modified there, it gets scanned and its grade
is logged. Useful behind an imaging station that drops one file per
track.`,
		"", runnerHelpEpilogue, w.Run)

	w.AddBaseSettings()
	w.AddSetting(&w.Dir, "watch", "w", "", nil, "directory to watch", true)
	w.AddSetting(&w.Encoding, "encoding", "e", "", nil,
		"encoding tag; omit to auto-detect per file", false)
	w.AddSetting(&w.Bitrate, "bitrate", "b", "", 250000,
		"nominal raw bit cells per second", false)
	w.AddSetting(&w.Suffix, "suffix", "s", "", ".trk",
		"only files with this suffix are scanned", false)
	w.AddSetting(&w.Correct, "correct", "c", "", false,
		"attempt bit correction on data checksum failures", false)

	return w
}

//
type Watch struct {
	Runner
	//
	Dir      string
	Encoding string
	Bitrate  int
	Suffix   string
	Correct  bool
}

//
func (w *Watch) Run() error {

	w.ParseSettings()

	enc := disk.EncUnknown
	if w.Encoding != "" {
		var err error
		if enc, err = disk.ParseEncoding(w.Encoding); err != nil {
			return err
		}
	}

	dw, err := util.NewDirWatcher(w.Dir)
	if err != nil {
		return err
	}

	if err := dw.Start(500*time.Millisecond,
		func(evt fsnotify.Event) error {
			if evt.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				return nil
			}
			if !strings.HasSuffix(evt.Name, w.Suffix) {
				return nil
			}
			w.scanFile(evt.Name, enc)
			return nil
		},
		func() error {
			log.Debug("watch queue drained")
			return nil
		}); err != nil {
		return err
	}

	log.WithField("dir", w.Dir).Info("watching for track dumps")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	dw.Stop()
	return nil
}

//
func (w *Watch) scanFile(path string, enc disk.Encoding) {

	tr, err := loadTrack(path, w.Bitrate, enc)
	if err != nil {
		log.Errorf("%v", err)
		return
	}
	if tr.Encoding == disk.EncUnknown {
		detected, ok := track.Detect(tr)
		if !ok {
			log.Warnf("cannot detect encoding of '%s', skipping", path)
			return
		}
		tr.Encoding = detected
	}

	sc, err := track.NewScanner(tr, 0)
	if err != nil {
		log.Errorf("%v", err)
		return
	}
	sc.EnableCorrection(w.Correct)

	secs := sc.GetAllSectors()
	stats := &disk.TrackStats{Expected: len(secs)}
	for _, sec := range secs {
		stats.Tally(sec)
	}

	log.WithFields(log.Fields{
		"file":     filepath.Base(path),
		"encoding": tr.Encoding,
		"sectors":  len(secs),
		"grade":    stats.Grade(),
	}).Info("scanned track dump")
}
