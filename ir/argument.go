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

// Package ir is the intermediate representation built by the translator,
// rewritten by the optimiser and consumed by the host backend. a basic block
// is an ordered list of ops over a flat table of single-assignment
// temporaries, with all storage owned by the arena.
package ir

import "fmt"

// Variable is an index into a block's flat table of 32-bit temporaries. a
// variable is produced by exactly one defining op and consumed by zero or
// more later ops. indices are never reused within a block and are
// invalidated when the owning block is discarded.
type Variable int

// NoVariable marks an op with no variable output.
const NoVariable Variable = -1

// ArgumentKind is the discriminant of the Argument tagged union.
type ArgumentKind int

const (
	ArgRegister ArgumentKind = iota
	ArgPSR
	ArgVariable
	ArgImmediate
)

// Argument is a tagged union over the operand forms an op can take: a guest
// register reference (optionally through the user bank), a program status
// register reference (current or saved), a variable reference, or an
// immediate constant. arguments are read-only once constructed and are
// copied freely by value.
type Argument struct {
	kind ArgumentKind

	reg      int
	userBank bool
	saved    bool
	v        Variable
	imm      uint32
}

// Reg returns a register reference argument.
func Reg(n int) Argument {
	return Argument{kind: ArgRegister, reg: n}
}

// UserReg returns a register reference argument that reads/writes the user
// bank regardless of processor mode.
func UserReg(n int) Argument {
	return Argument{kind: ArgRegister, reg: n, userBank: true}
}

// CPSR returns a current program status register reference argument.
func CPSR() Argument {
	return Argument{kind: ArgPSR}
}

// SPSR returns a saved program status register reference argument.
func SPSR() Argument {
	return Argument{kind: ArgPSR, saved: true}
}

// Var returns a variable reference argument.
func Var(v Variable) Argument {
	return Argument{kind: ArgVariable, v: v}
}

// Imm returns an immediate constant argument.
func Imm(v uint32) Argument {
	return Argument{kind: ArgImmediate, imm: v}
}

// Kind returns the argument discriminant.
func (a Argument) Kind() ArgumentKind {
	return a.kind
}

// Register returns the register number and user-bank flag of an ArgRegister
// argument.
func (a Argument) Register() (int, bool) {
	return a.reg, a.userBank
}

// IsSaved returns true if an ArgPSR argument refers to the SPSR.
func (a Argument) IsSaved() bool {
	return a.saved
}

// Variable returns the variable of an ArgVariable argument.
func (a Argument) Variable() Variable {
	return a.v
}

// Value returns the constant of an ArgImmediate argument.
func (a Argument) Value() uint32 {
	return a.imm
}

func (a Argument) String() string {
	switch a.kind {
	case ArgRegister:
		if a.userBank {
			return fmt.Sprintf("R%d_usr", a.reg)
		}
		return fmt.Sprintf("R%d", a.reg)
	case ArgPSR:
		if a.saved {
			return "SPSR"
		}
		return "CPSR"
	case ArgVariable:
		return fmt.Sprintf("v%d", a.v)
	case ArgImmediate:
		return fmt.Sprintf("#%08x", a.imm)
	}
	panic("unhandled argument kind")
}
