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

// Validation remembers the outcome of a validation pass, so callers can
// distinguish "not yet validated" from "validated fine".
type Validation struct {
	validated bool
	err       error
}

//
func (v *Validation) SetError(err error) {
	v.validated = true
	v.err = err
}

//
func (v *Validation) GetError() error {
	return v.err
}

//
func (v *Validation) WasValidated() bool {
	return v.validated
}

//
func (v *Validation) Reset() {
	v.validated = false
	v.err = nil
}
