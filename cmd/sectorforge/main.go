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

package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sectorforge/sectorforge/pkg/run"

	_ "github.com/sectorforge/sectorforge/pkg/encoding/amiga"
	_ "github.com/sectorforge/sectorforge/pkg/encoding/gcr"
	_ "github.com/sectorforge/sectorforge/pkg/encoding/mfm"
)

//
func main() {

	root := &cobra.Command{
		Use:           "sectorforge",
		Short:         "floppy disk track & sector codec engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		run.NewScan().Command(),
		run.NewGenerate().Command(),
		run.NewDetect().Command(),
		run.NewWatch().Command(),
		run.NewVersion().Command(),
	)

	if err := root.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
