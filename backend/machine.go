// This file is part of Dynarec.
//
// Dynarec is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Dynarec is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Dynarec.  If not, see <https://www.gnu.org/licenses/>.

// Package backend compiles IR basic blocks into callable host routines and
// caches them by guest location. the routine format is threaded code: each
// IR op lowers to one host step executed by a tight dispatch loop over a
// machine context, with block variables assigned to a fixed bank of host
// register slots and spilled past that.
package backend

import (
	"github.com/jetsetilly/dynarec/arm"
)

// the number of host register slots available before variables spill.
const numHostSlots = 8

// machine is the execution context threaded through every compiled step: the
// guest state and memory, the host register slot file with spill overflow,
// and the lazy flag state.
type machine struct {
	state *arm.State
	mem   arm.SharedMemory

	regs  [numHostSlots]uint32
	spill []uint32

	// lazy flags. seeded from the CPSR at routine entry, updated by
	// flag-marked ops as they execute, committed to the CPSR only by the
	// StoreFlags and SetSticky ops
	n, z, c, v, q bool
}

// seed loads the lazy flags from the guest CPSR.
func (m *machine) seed() {
	sr := m.state.Status
	m.n = sr.Negative
	m.z = sr.Zero
	m.c = sr.Carry
	m.v = sr.Overflow
	m.q = sr.Saturation
}

// nz updates the lazy negative and zero flags from a result.
func (m *machine) nz(r uint32) {
	m.n = r&0x80000000 != 0
	m.z = r == 0
}
