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

import (
	"fmt"
)

// DriveMode tags the drive interface a geometry is meant for.
type DriveMode int

const (
	DriveUnknown DriveMode = iota
	DriveIBM               // shugart/IBM soft sector
	DriveCommodore
	DriveApple
	DriveHardSector
)

// Geometry is the nominal layout of an image.
type Geometry struct {
	Tracks  int
	Heads   int
	Sectors int
	Bitrate int
	Mode    DriveMode
}

// NewImage creates an image with the given geometry and no cylinders yet.
func NewImage(g Geometry) (*Image, error) {
	if g.Tracks < 0 || g.Heads < 1 || g.Heads > 2 {
		return nil, fmt.Errorf(
			"invalid geometry: %d tracks, %d heads", g.Tracks, g.Heads)
	}
	return &Image{Geometry: g}, nil
}

// Image owns an ordered list of cylinders and everything beneath them.
// There are no back references; a track does not know its cylinder, a
// sector does not know its track.
type Image struct {
	Geometry  Geometry
	Cylinders []*Cylinder
}

//
func (i *Image) AddCylinder(c *Cylinder) {
	i.Cylinders = append(i.Cylinders, c)
}

//
func (i *Image) Cylinder(n int) *Cylinder {
	if n < 0 || n >= len(i.Cylinders) {
		return nil
	}
	return i.Cylinders[n]
}

//
func (i *Image) Track(cylinder, head int) *Track {
	if c := i.Cylinder(cylinder); c != nil {
		return c.Track(head)
	}
	return nil
}

// Clone deep-copies the whole tree. The clone shares nothing with the
// original.
func (i *Image) Clone() *Image {
	ret := &Image{Geometry: i.Geometry}
	for _, c := range i.Cylinders {
		if c != nil {
			ret.Cylinders = append(ret.Cylinders, c.Clone())
		} else {
			ret.Cylinders = append(ret.Cylinders, nil)
		}
	}
	return ret
}
