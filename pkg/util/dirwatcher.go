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

package util

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// NewDirWatcher creates a recursive watcher over the directory tree
// rooted in dir. Directories created later join the watch automatically.
// Nothing happens until Start is called.
func NewDirWatcher(dir string) (*DirWatcher, error) {

	dw := &DirWatcher{release: make(chan bool)}

	var err error
	if dw.watcher, err = fsnotify.NewWatcher(); err != nil {
		return nil, err
	}

	if err := filepath.Walk(dir,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return dw.addDir(path)
			}
			return nil
		}); err != nil {
		log.Errorf("error walking directory '%s': %v", dir, err)
		return nil, err
	}

	return dw, nil
}

// DirWatcher watches a directory tree for changes. Events are delivered
// to a handler function from a single goroutine; when no further event
// arrives within a backoff interval, a flush function runs from that same
// goroutine, so the client needs no locking.
type DirWatcher struct {
	watcher *fsnotify.Watcher
	release chan bool
	running bool
}

// Start begins watching. handler runs for every event, flush after each
// burst of events once backoff has passed quietly.
func (dw *DirWatcher) Start(backoff time.Duration,
	handler func(fsnotify.Event) error, flush func() error) error {

	if dw.watcher == nil {
		return fmt.Errorf("directory watcher not initialized or stopped")
	}
	if dw.running {
		return fmt.Errorf("directory watcher already started")
	}
	dw.running = true

	go func() {

		timer := time.NewTimer(time.Millisecond)
		<-timer.C

		for {
			select {

			case evt, ok := <-dw.watcher.Events:
				if !ok {
					dw.running = false
					dw.release <- true
					log.Debug("directory watcher routine exiting")
					return
				}
				timer.Stop()
				if evt.Op&fsnotify.Create != 0 {
					if info, err := os.Lstat(evt.Name); err == nil &&
						info.IsDir() {
						dw.addDir(evt.Name)
					}
				}
				if err := handler(evt); err != nil {
					log.Errorf("error in watch event handler: %v", err)
				}
				timer = time.NewTimer(backoff)

			case err, ok := <-dw.watcher.Errors:
				if ok {
					log.Errorf("directory watcher error: %v", err)
				}

			case <-timer.C:
				if err := flush(); err != nil {
					log.Errorf("error flushing: %v", err)
				}
			}
		}
	}()

	return nil
}

// Stop signals the watcher to stop and waits until it has. A stopped
// watcher cannot be restarted.
func (dw *DirWatcher) Stop() {
	if dw.watcher != nil {
		log.Info("closing directory watcher")
		if err := dw.watcher.Close(); err != nil {
			log.Errorf("could not close file watcher: %v", err)
		}
		<-dw.release
		dw.watcher = nil
	}
}

//
func (dw *DirWatcher) addDir(path string) error {
	if err := dw.watcher.Add(path); err != nil {
		log.Errorf("error adding watch for directory '%s': %v", path, err)
		return err
	}
	log.WithField("path", path).Debug("starting directory watch")
	return nil
}
