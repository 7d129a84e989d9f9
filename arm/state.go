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

package arm

import (
	"fmt"
	"strings"
)

// State is the guest register file. the registers array always reflects the
// view for the current processor mode; the bank arrays hold the registers of
// the modes that are not active. compiled code receives a pointer to the
// State and reads/writes it directly.
type State struct {
	registers [NumRegisters]uint32

	// the current program status register
	Status Status

	// banked storage for inactive modes. the user bank doubles as the view
	// for system mode, which shares the user register file
	bankUser [7]uint32 // r8-r14
	bankFIQ  [7]uint32 // r8-r14
	bankSVC  [2]uint32 // r13-r14
	bankABT  [2]uint32
	bankIRQ  [2]uint32
	bankUND  [2]uint32

	spsrFIQ Status
	spsrSVC Status
	spsrABT Status
	spsrIRQ Status
	spsrUND Status

	// base address of the exception vector table. 0x00000000 normally or
	// 0xffff0000 when the system-control coprocessor selects high vectors
	VectorBase uint32
}

// NewState is the preferred method of initialisation for the State type.
func NewState() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset returns the state to its power-on condition: registers zeroed,
// supervisor mode, ARM instruction set, interrupts disabled.
func (s *State) Reset() {
	*s = State{}
	s.Status.Mode = ModeSupervisor
	s.Status.FIQDisable = true
	s.Status.IRQDisable = true
}

// PC returns the current program counter.
func (s *State) PC() uint32 {
	return s.registers[RegPC]
}

// SetPC updates the program counter.
func (s *State) SetPC(pc uint32) {
	s.registers[RegPC] = pc
}

// Register returns register n for the current mode. when userBank is true
// the user-mode copy of a banked register is returned regardless of the
// current mode; this is the S-bit override used by the block data transfer
// instructions.
func (s *State) Register(n int, userBank bool) uint32 {
	if !userBank || n < 8 || n == RegPC {
		return s.registers[n]
	}

	switch s.Status.Mode {
	case ModeUser, ModeSystem:
		return s.registers[n]
	case ModeFIQ:
		return s.bankUser[n-8]
	default:
		// r8-r12 are shared with the user bank in every mode except FIQ
		if n < RegSP {
			return s.registers[n]
		}
		return s.bankUser[n-8]
	}
}

// SetRegister updates register n for the current mode. userBank behaves as
// for Register().
func (s *State) SetRegister(n int, userBank bool, v uint32) {
	if !userBank || n < 8 || n == RegPC {
		s.registers[n] = v
		return
	}

	switch s.Status.Mode {
	case ModeUser, ModeSystem:
		s.registers[n] = v
	case ModeFIQ:
		s.bankUser[n-8] = v
	default:
		if n < RegSP {
			s.registers[n] = v
			return
		}
		s.bankUser[n-8] = v
	}
}

// SPSR returns the saved program status register for the current mode. the
// second return value is false if the mode has no SPSR (user and system
// mode), in which case the pointer is nil and the caller must treat the
// operation as a no-op.
func (s *State) SPSR() (*Status, bool) {
	switch s.Status.Mode {
	case ModeFIQ:
		return &s.spsrFIQ, true
	case ModeSupervisor:
		return &s.spsrSVC, true
	case ModeAbort:
		return &s.spsrABT, true
	case ModeIRQ:
		return &s.spsrIRQ, true
	case ModeUndefined:
		return &s.spsrUND, true
	}
	return nil, false
}

// SetMode switches the processor mode, swapping the banked registers so that
// the registers array reflects the new mode's view. switching to the current
// mode is a no-op.
func (s *State) SetMode(m Mode) {
	if m == s.Status.Mode || !m.IsValid() {
		return
	}
	s.saveView(s.Status.Mode)
	s.loadView(m)
	s.Status.Mode = m
}

func (s *State) saveView(m Mode) {
	switch m {
	case ModeUser, ModeSystem:
		copy(s.bankUser[:], s.registers[8:15])
	case ModeFIQ:
		copy(s.bankFIQ[:], s.registers[8:15])
	default:
		// r8-r12 belong to the user bank in these modes
		copy(s.bankUser[:5], s.registers[8:13])
		b := s.bank(m)
		b[0] = s.registers[RegSP]
		b[1] = s.registers[RegLR]
	}
}

func (s *State) loadView(m Mode) {
	switch m {
	case ModeUser, ModeSystem:
		copy(s.registers[8:15], s.bankUser[:])
	case ModeFIQ:
		copy(s.registers[8:15], s.bankFIQ[:])
	default:
		copy(s.registers[8:13], s.bankUser[:5])
		b := s.bank(m)
		s.registers[RegSP] = b[0]
		s.registers[RegLR] = b[1]
	}
}

func (s *State) bank(m Mode) *[2]uint32 {
	switch m {
	case ModeSupervisor:
		return &s.bankSVC
	case ModeAbort:
		return &s.bankABT
	case ModeIRQ:
		return &s.bankIRQ
	case ModeUndefined:
		return &s.bankUND
	}
	panic(fmt.Sprintf("no two-register bank for mode %s", m))
}

func (s *State) String() string {
	b := strings.Builder{}
	for i, r := range s.registers {
		if i > 0 {
			if i%4 == 0 {
				b.WriteString("\n")
			} else {
				b.WriteString("\t\t")
			}
		}
		b.WriteString(fmt.Sprintf("R%-2d: %08x", i, r))
	}
	b.WriteString(fmt.Sprintf("\n%s", s.Status.String()))
	return b.String()
}
