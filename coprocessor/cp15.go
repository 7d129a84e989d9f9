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

package coprocessor

import (
	"github.com/jetsetilly/dynarec/arm"
)

// control register bits.
const (
	ctrlProtectionEnable = 1 << 0
	ctrlDataCache        = 1 << 2
	ctrlInstrCache       = 1 << 12
	ctrlHighVectors      = 1 << 13
	ctrlDataTCM          = 1 << 16
	ctrlInstrTCM         = 1 << 18
)

// SystemControl models the CP15 system-control coprocessor of a
// protection-unit ARM core: identity, control, protection-unit and
// tightly-coupled-memory registers. writes to the control register steer the
// exception vector base of the attached guest state.
type SystemControl struct {
	state *arm.State

	id      uint32
	control uint32

	// protection unit. indexed 0 for data, 1 for instruction where the
	// register is split
	cachability [2]uint32
	writeBuffer uint32
	permissions [2]uint32
	regions     [8]uint32

	// TCM region registers, data and instruction
	tcm [2]uint32
}

// NewSystemControl is the preferred method of initialisation for the
// SystemControl type. the guest state is required so that the high-vectors
// control bit can steer the exception vector base.
func NewSystemControl(state *arm.State) *SystemControl {
	return &SystemControl{
		state: state,

		// main ID register of an ARM946E-S
		id: 0x41059461,
	}
}

// IsPresent implements the Coprocessor interface.
func (cp *SystemControl) IsPresent() bool {
	return true
}

// SupportsExtendedTransfers implements the Coprocessor interface.
func (cp *SystemControl) SupportsExtendedTransfers() bool {
	return false
}

// StoreHasSideEffects implements the Coprocessor interface. control register
// writes steer the vector base and cache operations act beyond the register
// file.
func (cp *SystemControl) StoreHasSideEffects(t Transfer) bool {
	return t.CRn == 1 || t.CRn == 7
}

// Load implements the Coprocessor interface.
func (cp *SystemControl) Load(t Transfer) uint32 {
	switch t.CRn {
	case 0:
		if t.Opcode2 == 0 {
			return cp.id
		}
		// cache type reads as zero on a TCM-only core
		return 0
	case 1:
		return cp.control
	case 2:
		return cp.cachability[t.Opcode2&1]
	case 3:
		return cp.writeBuffer
	case 5:
		return cp.permissions[t.Opcode2&1]
	case 6:
		return cp.regions[t.CRm&7]
	case 9:
		return cp.tcm[t.Opcode2&1]
	}
	return 0
}

// Store implements the Coprocessor interface.
func (cp *SystemControl) Store(t Transfer, v uint32) {
	switch t.CRn {
	case 1:
		cp.control = v
		if v&ctrlHighVectors != 0 {
			cp.state.VectorBase = 0xffff0000
		} else {
			cp.state.VectorBase = 0x00000000
		}
	case 2:
		cp.cachability[t.Opcode2&1] = v
	case 3:
		cp.writeBuffer = v
	case 5:
		cp.permissions[t.Opcode2&1] = v
	case 6:
		cp.regions[t.CRm&7] = v
	case 7:
		// cache operations. nothing to do without a cache model
	case 9:
		cp.tcm[t.Opcode2&1] = v
	}
}
