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

// Package arm contains the guest-facing definitions shared by every stage of
// the recompiler: register and processor-mode naming, the CPSR/SPSR status
// type, the banked register file, the LocationRef block-cache key, and the
// SharedMemory interface through which all guest memory access happens.
package arm

// register names.
const (
	RegSP = 13 + iota
	RegLR
	RegPC
	NumRegisters
)

// Mode is the 5-bit processor mode field of the CPSR.
type Mode uint8

// the processor modes of the ARM7TDMI. from "Table 2-2 The mode bits" in
// "ARM7TDMI Technical Reference Manual r4p1".
const (
	ModeUser       Mode = 0b10000
	ModeFIQ        Mode = 0b10001
	ModeIRQ        Mode = 0b10010
	ModeSupervisor Mode = 0b10011
	ModeAbort      Mode = 0b10111
	ModeUndefined  Mode = 0b11011
	ModeSystem     Mode = 0b11111
)

// Modes lists every valid mode encoding. useful for exhaustive testing.
var Modes = []Mode{
	ModeUser, ModeFIQ, ModeIRQ, ModeSupervisor,
	ModeAbort, ModeUndefined, ModeSystem,
}

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "USR"
	case ModeFIQ:
		return "FIQ"
	case ModeIRQ:
		return "IRQ"
	case ModeSupervisor:
		return "SVC"
	case ModeAbort:
		return "ABT"
	case ModeUndefined:
		return "UND"
	case ModeSystem:
		return "SYS"
	}
	return "???"
}

// IsValid returns true if the mode is one of the seven defined encodings.
func (m Mode) IsValid() bool {
	switch m {
	case ModeUser, ModeFIQ, ModeIRQ, ModeSupervisor, ModeAbort, ModeUndefined, ModeSystem:
		return true
	}
	return false
}

// HasSPSR returns true if the mode banks a saved program status register.
// User and System mode do not; PSR transfers targetting the SPSR in those
// modes must fail closed.
func (m Mode) HasSPSR() bool {
	switch m {
	case ModeFIQ, ModeIRQ, ModeSupervisor, ModeAbort, ModeUndefined:
		return true
	}
	return false
}
