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

package translate

import (
	"math/bits"

	"github.com/jetsetilly/dynarec/arm"
	"github.com/jetsetilly/dynarec/arm/instruction"
	"github.com/jetsetilly/dynarec/ir"
)

// opcodes whose flag-setting forms take C from the barrel shifter and never
// touch V. indexed by the instruction opcode field.
var logicalOpcode = [16]bool{
	instruction.OpAND: true,
	instruction.OpEOR: true,
	instruction.OpTST: true,
	instruction.OpTEQ: true,
	instruction.OpORR: true,
	instruction.OpMOV: true,
	instruction.OpBIC: true,
	instruction.OpMVN: true,
}

func shiftKind(s instruction.ShiftKind) ir.Kind {
	switch s {
	case instruction.ShiftLSL:
		return ir.KindLogicalShiftLeft
	case instruction.ShiftLSR:
		return ir.KindLogicalShiftRight
	case instruction.ShiftASR:
		return ir.KindArithmeticShiftRight
	case instruction.ShiftROR:
		return ir.KindRotateRight
	}
	panic("unhandled shift kind")
}

// lowerOperand2 emits the barrel shifter for a data processing operand and
// returns the argument holding the shifted value. when flags is true the
// shifter updates the lazy carry per the shift-amount rules: an amount of
// zero leaves the carry unaffected, which falls out of the lazy flag state
// being seeded from the CPSR at routine entry.
func (tr *Translator) lowerOperand2(b *ir.Block, o instruction.Operand2, flags bool, pc uint32) ir.Argument {
	if o.Immediate {
		rot := uint32(o.Rotate) * 2
		if flags && rot != 0 {
			// expressed as a rotate op so the lazy carry picks up bit 31 of
			// the rotated value
			v := b.NewVariable()
			r := op(ir.KindRotateRight, v, ir.Imm(o.Value), ir.Imm(rot))
			r.Flags = true
			b.Append(r)
			return ir.Var(v)
		}
		return ir.Imm(bits.RotateLeft32(o.Value, -int(rot)))
	}

	if o.RegisterShift {
		// the shift amount is the bottom byte of Rs. with a register
		// specified shift the PC reads four bytes further ahead
		rm := regArg(o.Rm, pc, 12)
		amt := b.NewVariable()
		b.Append(op(ir.KindAnd, amt, regArg(o.Rs, pc, 12), ir.Imm(0xff)))

		v := b.NewVariable()
		s := op(shiftKind(o.Shift), v, rm, ir.Var(amt))
		s.Flags = flags
		b.Append(s)
		return ir.Var(v)
	}

	rm := regArg(o.Rm, pc, 8)
	amount := uint32(o.Amount)

	switch {
	case o.Shift == instruction.ShiftLSL && amount == 0:
		// LSL #0: value unchanged, carry unaffected
		return rm

	case o.Shift == instruction.ShiftROR && amount == 0:
		// ROR #0 encodes RRX
		v := b.NewVariable()
		s := op(ir.KindRotateRightExtend, v, rm)
		s.Flags = flags
		b.Append(s)
		return ir.Var(v)

	case amount == 0:
		// LSR #0 and ASR #0 encode a shift by 32
		amount = 32
	}

	v := b.NewVariable()
	s := op(shiftKind(o.Shift), v, rm, ir.Imm(amount))
	s.Flags = flags
	b.Append(s)
	return ir.Var(v)
}

func (tr *Translator) lowerDataProcessing(b *ir.Block, in instruction.DataProcessing, pc uint32) disposition {
	logical := logicalOpcode[in.Opcode]
	compare := in.Opcode >= instruction.OpTST && in.Opcode <= instruction.OpCMN

	op2 := tr.lowerOperand2(b, in.Operand, in.SetFlags && logical, pc)

	adj := uint32(8)
	if !in.Operand.Immediate && in.Operand.RegisterShift {
		adj = 12
	}
	rn := regArg(in.Rn, pc, adj)

	dest := b.NewVariable()
	var o ir.Op

	switch in.Opcode {
	case instruction.OpAND, instruction.OpTST:
		o = op(ir.KindAnd, dest, rn, op2)
	case instruction.OpEOR, instruction.OpTEQ:
		o = op(ir.KindEor, dest, rn, op2)
	case instruction.OpSUB, instruction.OpCMP:
		o = op(ir.KindSub, dest, rn, op2)
	case instruction.OpRSB:
		o = op(ir.KindReverseSub, dest, rn, op2)
	case instruction.OpADD, instruction.OpCMN:
		o = op(ir.KindAdd, dest, rn, op2)
	case instruction.OpADC:
		o = op(ir.KindAddWithCarry, dest, rn, op2)
	case instruction.OpSBC:
		o = op(ir.KindSubWithCarry, dest, rn, op2)
	case instruction.OpRSC:
		// reverse subtract with carry is a subtract-with-carry with the
		// operands exchanged
		o = op(ir.KindSubWithCarry, dest, op2, rn)
	case instruction.OpORR:
		o = op(ir.KindOrr, dest, rn, op2)
	case instruction.OpMOV:
		o = op(ir.KindCopy, dest, op2)
	case instruction.OpBIC:
		o = op(ir.KindBitClear, dest, rn, op2)
	case instruction.OpMVN:
		o = op(ir.KindNot, dest, op2)
	default:
		panic("unhandled data processing opcode")
	}

	o.Flags = in.SetFlags
	b.Append(o)

	if in.SetFlags {
		mask := ir.FlagsNZCV
		if logical {
			mask = ir.FlagsNZC
		}
		f := op(ir.KindStoreFlags, ir.NoVariable)
		f.Mask = mask
		b.Append(f)
	}

	b.Cycles++
	if !in.Operand.Immediate && in.Operand.RegisterShift {
		b.Cycles++
	}

	if compare {
		return keepGoing
	}

	if in.Rd == arm.RegPC && in.SetFlags && b.Location.Mode().HasSPSR() {
		// the exception return idiom (eg. MOVS PC, LR): the CPSR is restored
		// from the SPSR of the current mode. modes without an SPSR fall
		// through to a plain PC write
		v := b.NewVariable()
		b.Append(op(ir.KindGetSPSR, v))
		oc := op(ir.KindSetCPSR, ir.NoVariable, ir.Var(v))
		oc.Mask = arm.PSRControl | arm.PSRFlags
		b.Append(oc)
		b.Append(op(ir.KindLoadFlags, ir.NoVariable))
	}

	return setRegister(b, in.Rd, ir.Var(dest), pc)
}

func (tr *Translator) lowerPSRTransfer(b *ir.Block, in instruction.PSRTransfer, pc uint32) disposition {
	mode := b.Location.Mode()
	b.Cycles++

	// PSR transfers targetting an SPSR fail closed in modes without one
	if in.Saved && !mode.HasSPSR() {
		return keepGoing
	}

	if in.FromPSR {
		v := b.NewVariable()
		kind := ir.KindGetCPSR
		if in.Saved {
			kind = ir.KindGetSPSR
		}
		b.Append(op(kind, v))
		return setRegister(b, in.Rd, ir.Var(v), pc)
	}

	var src ir.Argument
	if in.Immediate {
		src = ir.Imm(bits.RotateLeft32(in.Value, -int(uint32(in.Rotate)*2)))
	} else {
		src = regArg(in.Rm, pc, 8)
	}

	mask := in.FieldMask & (arm.PSRControl | arm.PSRFlags)
	if mode == arm.ModeUser {
		// user mode can only touch the flags field
		mask &= arm.PSRFlags
	}

	if in.Saved {
		o := op(ir.KindSetSPSR, ir.NoVariable, src)
		o.Mask = mask
		b.Append(o)
		return keepGoing
	}

	o := op(ir.KindSetCPSR, ir.NoVariable, src)
	o.Mask = mask
	b.Append(o)
	b.Append(op(ir.KindLoadFlags, ir.NoVariable))

	if mask&arm.PSRControl != 0 {
		// a control field write can change the processor mode, which is part
		// of the block cache key
		b.Terminal = ir.Terminal{Kind: ir.TerminalFallthrough, Cond: arm.CondAL, Next: pc + 4}
		return endBlock
	}
	return keepGoing
}

func (tr *Translator) lowerMultiply(b *ir.Block, in instruction.Multiply, pc uint32) disposition {
	rm := regArg(in.Rm, pc, 8)
	rs := regArg(in.Rs, pc, 8)

	dest := b.NewVariable()
	var o ir.Op
	if in.Accumulate {
		o = op(ir.KindMultiplyAccumulate, dest, rm, rs, regArg(in.Rn, pc, 8))
	} else {
		o = op(ir.KindMultiply, dest, rm, rs)
	}
	o.Flags = in.SetFlags
	b.Append(o)

	if in.SetFlags {
		// multiplies only ever update N and Z, never C or V
		f := op(ir.KindStoreFlags, ir.NoVariable)
		f.Mask = ir.FlagsNZ
		b.Append(f)
	}

	b.Cycles += 4
	return setRegister(b, in.Rd, ir.Var(dest), pc)
}

func (tr *Translator) lowerMultiplyLong(b *ir.Block, in instruction.MultiplyLong, pc uint32) disposition {
	rm := regArg(in.Rm, pc, 8)
	rs := regArg(in.Rs, pc, 8)

	lo := b.NewVariable()
	hi := b.NewVariable()

	var o ir.Op
	if in.Accumulate {
		o = op(ir.KindMultiplyLong, lo, rm, rs, ir.Reg(int(in.RdLo)), ir.Reg(int(in.RdHi)))
	} else {
		o = op(ir.KindMultiplyLong, lo, rm, rs)
	}
	o.Dest2 = hi
	o.Signed = in.Signed
	o.Flags = in.SetFlags
	b.Append(o)

	if in.SetFlags {
		f := op(ir.KindStoreFlags, ir.NoVariable)
		f.Mask = ir.FlagsNZ
		b.Append(f)
	}

	b.Append(op(ir.KindSetRegister, ir.NoVariable, ir.Reg(int(in.RdLo)), ir.Var(lo)))
	b.Append(op(ir.KindSetRegister, ir.NoVariable, ir.Reg(int(in.RdHi)), ir.Var(hi)))
	b.Cycles += 5
	return keepGoing
}

func (tr *Translator) lowerSaturatingArithmetic(b *ir.Block, in instruction.SaturatingArithmetic, pc uint32) disposition {
	rm := regArg(in.Rm, pc, 8)
	operand := regArg(in.Rn, pc, 8)

	if in.Double {
		// the doubling saturates independently of the main operation
		v := b.NewVariable()
		b.Append(op(ir.KindSaturatingAdd, v, operand, operand))
		operand = ir.Var(v)
	}

	dest := b.NewVariable()
	kind := ir.KindSaturatingAdd
	if in.Sub {
		kind = ir.KindSaturatingSub
	}
	b.Append(op(kind, dest, rm, operand))

	// commit the sticky overflow accumulated by the saturating ops
	b.Append(op(ir.KindSetSticky, ir.NoVariable))

	b.Cycles++
	return setRegister(b, in.Rd, ir.Var(dest), pc)
}
