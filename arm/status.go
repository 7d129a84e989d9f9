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

import "strings"

// Status is the program status register. the same type is used for the CPSR
// and for the banked SPSRs.
type Status struct {
	// condition flags
	Negative bool
	Zero     bool
	Carry    bool
	Overflow bool

	// sticky overflow. set by the saturating arithmetic instructions and
	// never cleared except by an explicit MSR
	Saturation bool

	// interrupt disable bits
	FIQDisable bool
	IRQDisable bool

	// instruction set state
	Thumb bool

	// processor mode
	Mode Mode
}

func (sr Status) String() string {
	s := strings.Builder{}
	s.WriteString("Status: ")

	if sr.Negative {
		s.WriteRune('N')
	} else {
		s.WriteRune('n')
	}
	if sr.Zero {
		s.WriteRune('Z')
	} else {
		s.WriteRune('z')
	}
	if sr.Carry {
		s.WriteRune('C')
	} else {
		s.WriteRune('c')
	}
	if sr.Overflow {
		s.WriteRune('V')
	} else {
		s.WriteRune('v')
	}
	if sr.Saturation {
		s.WriteRune('Q')
	} else {
		s.WriteRune('q')
	}

	s.WriteString(" ")
	s.WriteString(sr.Mode.String())
	if sr.Thumb {
		s.WriteString(" (Thumb)")
	}

	return s.String()
}

// CPSR packs the status into its 32-bit register representation.
func (sr Status) CPSR() uint32 {
	var v uint32
	if sr.Negative {
		v |= 1 << 31
	}
	if sr.Zero {
		v |= 1 << 30
	}
	if sr.Carry {
		v |= 1 << 29
	}
	if sr.Overflow {
		v |= 1 << 28
	}
	if sr.Saturation {
		v |= 1 << 27
	}
	if sr.IRQDisable {
		v |= 1 << 7
	}
	if sr.FIQDisable {
		v |= 1 << 6
	}
	if sr.Thumb {
		v |= 1 << 5
	}
	v |= uint32(sr.Mode) & 0x1f
	return v
}

// SetCPSR unpacks a 32-bit register representation into the status.
func (sr *Status) SetCPSR(v uint32) {
	sr.Negative = v&(1<<31) != 0
	sr.Zero = v&(1<<30) != 0
	sr.Carry = v&(1<<29) != 0
	sr.Overflow = v&(1<<28) != 0
	sr.Saturation = v&(1<<27) != 0
	sr.IRQDisable = v&(1<<7) != 0
	sr.FIQDisable = v&(1<<6) != 0
	sr.Thumb = v&(1<<5) != 0
	sr.Mode = Mode(v & 0x1f)
}

// field masks for PSR transfer instructions. a set bit in the mask selects
// the corresponding byte of the PSR for update.
const (
	PSRControl uint8 = 0b0001
	PSRFlags   uint8 = 0b1000
)

// SetFields updates the status from a 32-bit value, restricted to the fields
// selected by the MSR field mask. in user mode only the flags field may
// change; the control field write is ignored.
func (sr *Status) SetFields(v uint32, mask uint8, privileged bool) {
	if mask&PSRFlags != 0 {
		sr.Negative = v&(1<<31) != 0
		sr.Zero = v&(1<<30) != 0
		sr.Carry = v&(1<<29) != 0
		sr.Overflow = v&(1<<28) != 0
		sr.Saturation = v&(1<<27) != 0
	}
	if mask&PSRControl != 0 && privileged {
		sr.IRQDisable = v&(1<<7) != 0
		sr.FIQDisable = v&(1<<6) != 0
		sr.Thumb = v&(1<<5) != 0
		sr.Mode = Mode(v & 0x1f)
	}
}
