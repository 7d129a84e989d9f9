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

// Condition is the 4-bit condition field carried by every ARM instruction.
type Condition uint8

const (
	CondEQ Condition = iota
	CondNE
	CondCS
	CondCC
	CondMI
	CondPL
	CondVS
	CondVC
	CondHI
	CondLS
	CondGE
	CondLT
	CondGT
	CondLE
	CondAL
	CondNV
)

// Passed evaluates the condition against the status flags. from "Table 4-2
// Condition code summary" in "ARM7TDMI Data Sheet".
func (c Condition) Passed(sr Status) bool {
	switch c {
	case CondEQ:
		return sr.Zero
	case CondNE:
		return !sr.Zero
	case CondCS:
		return sr.Carry
	case CondCC:
		return !sr.Carry
	case CondMI:
		return sr.Negative
	case CondPL:
		return !sr.Negative
	case CondVS:
		return sr.Overflow
	case CondVC:
		return !sr.Overflow
	case CondHI:
		return sr.Carry && !sr.Zero
	case CondLS:
		return !sr.Carry || sr.Zero
	case CondGE:
		return sr.Negative == sr.Overflow
	case CondLT:
		return sr.Negative != sr.Overflow
	case CondGT:
		return !sr.Zero && sr.Negative == sr.Overflow
	case CondLE:
		return sr.Zero || sr.Negative != sr.Overflow
	case CondAL:
		return true
	case CondNV:
		return false
	}
	panic("unhandled condition code")
}

func (c Condition) String() string {
	mnemonics := [...]string{
		"EQ", "NE", "CS", "CC", "MI", "PL", "VS", "VC",
		"HI", "LS", "GE", "LT", "GT", "LE", "AL", "NV",
	}
	if int(c) < len(mnemonics) {
		return mnemonics[c]
	}
	return "??"
}
