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

package ir

import (
	"fmt"
	"strings"
)

// Kind is the op discriminant. the set is closed: every consumer switches
// exhaustively over the kinds and panics on anything it does not recognise.
// an unhandled kind indicates a translator/backend mismatch and must never
// be silently skipped.
type Kind int

const (
	// guest register and PSR access
	KindGetRegister Kind = iota
	KindSetRegister
	KindGetCPSR
	KindSetCPSR
	KindGetSPSR
	KindSetSPSR

	// value plumbing
	KindConstant
	KindCopy

	// barrel shifter
	KindLogicalShiftLeft
	KindLogicalShiftRight
	KindArithmeticShiftRight
	KindRotateRight
	KindRotateRightExtend

	// bitwise
	KindAnd
	KindEor
	KindOrr
	KindBitClear
	KindNot

	// arithmetic with carry/overflow outcomes
	KindAdd
	KindAddWithCarry
	KindSub
	KindSubWithCarry
	KindReverseSub

	// multiply family. flag-setting forms only ever update N and Z
	KindMultiply
	KindMultiplyAccumulate
	KindMultiplyLong

	// saturating arithmetic (sticky overflow)
	KindSaturatingAdd
	KindSaturatingSub

	// flag plumbing
	KindStoreFlags
	KindLoadFlags
	KindSetSticky

	// guest memory
	KindLoadMemory
	KindStoreMemory

	// control flow
	KindBranch
	KindBranchExchange

	// coprocessor register transfer
	KindLoadCoproc
	KindStoreCoproc

	// exception vector table base
	KindFetchVectorBase

	KindSentinel
)

func (k Kind) String() string {
	names := [...]string{
		"GetRegister", "SetRegister", "GetCPSR", "SetCPSR", "GetSPSR", "SetSPSR",
		"Constant", "Copy",
		"LogicalShiftLeft", "LogicalShiftRight", "ArithmeticShiftRight",
		"RotateRight", "RotateRightExtend",
		"And", "Eor", "Orr", "BitClear", "Not",
		"Add", "AddWithCarry", "Sub", "SubWithCarry", "ReverseSub",
		"Multiply", "MultiplyAccumulate", "MultiplyLong",
		"SaturatingAdd", "SaturatingSub",
		"StoreFlags", "LoadFlags", "SetSticky",
		"LoadMemory", "StoreMemory",
		"Branch", "BranchExchange",
		"LoadCoproc", "StoreCoproc",
		"FetchVectorBase",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// flag selection masks consumed by the StoreFlags op.
const (
	FlagN uint8 = 0b1000
	FlagZ uint8 = 0b0100
	FlagC uint8 = 0b0010
	FlagV uint8 = 0b0001

	FlagsNZ   = FlagN | FlagZ
	FlagsNZC  = FlagN | FlagZ | FlagC
	FlagsNZCV = FlagN | FlagZ | FlagC | FlagV
)

// CoprocFields parameterises the generic coprocessor register transfer ops.
// resolving the transfer to a concrete coprocessor variant is the backend's
// responsibility at code-generation time.
type CoprocFields struct {
	CPNum   uint8
	Opcode1 uint8
	CRn     uint8
	CRm     uint8
	Opcode2 uint8
}

// Op is a single node in a block's op list. ops are exclusively owned by the
// arena and by the owning block's link structure; an op is never referenced
// by two blocks. the next/prev links are indices into the block's op table,
// not pointers, so that blocks can be cloned or inspected without touching
// arena internals.
type Op struct {
	Kind Kind

	// primary variable output. NoVariable if the op defines nothing
	Dest Variable

	// secondary output, used only by MultiplyLong (the high word)
	Dest2 Variable

	// operands. NumArgs gives the valid count. four arguments are only ever
	// needed by the accumulating long multiplies
	Args    [4]Argument
	NumArgs int

	// when true the op updates the lazy flag state as it executes. which
	// flags are touched depends on the kind: shifts update C (when defined),
	// bitwise ops update N and Z, arithmetic updates N/Z/C/V, multiplies
	// update N and Z only
	Flags bool

	// flag mask for StoreFlags; field mask for SetCPSR/SetSPSR
	Mask uint8

	// access width in bytes for LoadMemory/StoreMemory (1, 2 or 4)
	Width uint8

	// sign extension for LoadMemory; signedness for MultiplyLong
	Signed bool

	Coproc CoprocFields

	// intrusive links. indices into the owning block's op table, -1 for none
	next int
	prev int
}

// Arg returns operand n.
func (op *Op) Arg(n int) Argument {
	return op.Args[n]
}

func (op *Op) String() string {
	s := strings.Builder{}
	s.WriteString(op.Kind.String())
	if op.Dest != NoVariable {
		s.WriteString(fmt.Sprintf(" v%d", op.Dest))
		if op.Dest2 != NoVariable {
			s.WriteString(fmt.Sprintf(",v%d", op.Dest2))
		}
		s.WriteString(" <-")
	}
	for i := 0; i < op.NumArgs; i++ {
		s.WriteString(" ")
		s.WriteString(op.Args[i].String())
	}
	if op.Flags {
		s.WriteString(" {S}")
	}
	return s.String()
}

// hasSideEffects returns true if the op affects guest-visible state
// (register, PSR or memory), host-visible state (coprocessor), or the lazy
// flag state. ops with side effects are never candidates for dead-op
// elimination. coprocessor loads are treated as effectful because whether a
// concrete coprocessor has load side effects is not known until the backend
// resolves the transfer.
func (op *Op) hasSideEffects() bool {
	if op.Flags {
		return true
	}

	switch op.Kind {
	case KindSetRegister, KindSetCPSR, KindSetSPSR,
		KindStoreFlags, KindSetSticky,
		KindLoadMemory, KindStoreMemory,
		KindBranch, KindBranchExchange,
		KindLoadCoproc, KindStoreCoproc,
		KindSaturatingAdd, KindSaturatingSub:
		return true
	}

	return false
}
