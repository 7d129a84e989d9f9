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

// Package translate lowers decoded guest instructions into IR basic blocks.
// the translator owns control over when a block ends: at a control-flow
// transfer, at the block instruction limit, before a conditional instruction
// that cannot join the current block, or at an instruction it cannot lower
// (the unimplemented boundary).
package translate

import (
	"github.com/jetsetilly/dynarec/arm"
	"github.com/jetsetilly/dynarec/arm/instruction"
	"github.com/jetsetilly/dynarec/ir"
	"github.com/jetsetilly/dynarec/logger"
)

// result of lowering one instruction.
type disposition int

const (
	// keep decoding at the next sequential address
	keepGoing disposition = iota

	// a control-flow terminating instruction was lowered. the lowering
	// routine has set the block terminal
	endBlock

	// lowering is not available. the block ends before this instruction and
	// the instruction's address becomes a fallback boundary
	unimplemented
)

// Translator lowers guest instructions, obtained through the decoder, into
// IR basic blocks.
type Translator struct {
	dec instruction.Decoder
}

// NewTranslator is the preferred method of initialisation for the Translator
// type.
func NewTranslator(dec instruction.Decoder) *Translator {
	return &Translator{dec: dec}
}

// Translate fills the block with the lowering of the guest instructions
// starting at the block's location. at most limit guest instructions are
// consumed. the block terminal is always set on return.
func (tr *Translator) Translate(b *ir.Block, limit int) {
	pc := b.Location.PC()
	thumb := b.Location.IsThumbMode()

	width := uint32(4)
	if thumb {
		width = 2
	}

	count := 0
	for count < limit {
		d, err := tr.dec.Next(pc, thumb)
		if err != nil {
			logger.Logf("translate", "decode at %08x: %v", pc, err)
			b.Terminal = ir.Terminal{Kind: ir.TerminalUnimplemented, Cond: arm.CondAL, Next: pc}
			return
		}

		// a conditional instruction, other than a branch without link,
		// predicates the whole block. it can only do that as the block's
		// first instruction; otherwise the block ends here and the
		// instruction starts the next block
		if d.Cond != arm.CondAL && d.Cond != arm.CondNV {
			if br, ok := d.Instr.(instruction.Branch); !ok || br.Link {
				if count > 0 {
					b.Terminal = ir.Terminal{Kind: ir.TerminalFallthrough, Cond: arm.CondAL, Next: pc}
					return
				}
				b.Cond = d.Cond
			}
		}

		switch tr.lower(b, d, pc) {
		case unimplemented:
			logger.Logf("translate", "unimplemented instruction at %08x (%08x)", pc, d.Raw)
			b.Terminal = ir.Terminal{Kind: ir.TerminalUnimplemented, Cond: arm.CondAL, Next: pc}
			return
		case endBlock:
			return
		}

		pc += width
		count++

		// a predicated block holds exactly one instruction
		if b.Cond != arm.CondAL {
			b.Terminal = ir.Terminal{Kind: ir.TerminalFallthrough, Cond: arm.CondAL, Next: pc}
			return
		}
	}

	b.Terminal = ir.Terminal{Kind: ir.TerminalFallthrough, Cond: arm.CondAL, Next: pc}
}

func (tr *Translator) lower(b *ir.Block, d instruction.Decoded, pc uint32) disposition {
	switch in := d.Instr.(type) {
	case instruction.DataProcessing:
		return tr.lowerDataProcessing(b, in, pc)
	case instruction.Multiply:
		return tr.lowerMultiply(b, in, pc)
	case instruction.MultiplyLong:
		return tr.lowerMultiplyLong(b, in, pc)
	case instruction.PSRTransfer:
		return tr.lowerPSRTransfer(b, in, pc)
	case instruction.SingleDataTransfer:
		return tr.lowerSingleDataTransfer(b, in, pc)
	case instruction.HalfwordSignedTransfer:
		return tr.lowerHalfwordSignedTransfer(b, in, pc)
	case instruction.BlockDataTransfer:
		return tr.lowerBlockDataTransfer(b, in, pc)
	case instruction.Swap:
		return tr.lowerSwap(b, in, pc)
	case instruction.Branch:
		cond := d.Cond
		if b.Cond != arm.CondAL {
			// the block predicate already carries the condition
			cond = arm.CondAL
		}
		return tr.lowerBranch(b, in, cond, pc)
	case instruction.BranchExchange:
		return tr.lowerBranchExchange(b, in, pc)
	case instruction.SaturatingArithmetic:
		return tr.lowerSaturatingArithmetic(b, in, pc)
	case instruction.CoprocessorRegisterTransfer:
		return tr.lowerCoprocessorTransfer(b, in, pc)
	case instruction.SoftwareInterrupt:
		return tr.lowerSoftwareInterrupt(b, in, pc)
	case instruction.CoprocessorDataTransfer:
		return unimplemented
	case instruction.CoprocessorDataOperation:
		return unimplemented
	case instruction.Undefined:
		// the PC is left at the offending instruction for the execution
		// environment
		b.Terminal = ir.Terminal{Kind: ir.TerminalUndefined, Cond: arm.CondAL, Next: pc}
		b.Cycles++
		return endBlock
	}
	panic("unhandled instruction descriptor")
}

// op builds an Op prototype. the variadic arguments fill the fixed operand
// array and the count.
func op(kind ir.Kind, dest ir.Variable, args ...ir.Argument) ir.Op {
	o := ir.Op{Kind: kind, Dest: dest, Dest2: ir.NoVariable, NumArgs: len(args)}
	copy(o.Args[:], args)
	return o
}

// regArg returns the argument for a guest register read. the program counter
// reads as a constant: the instruction address plus the pipeline adjustment
// (8 in most positions, 12 where the ARM7TDMI adds an internal cycle first).
func regArg(n uint8, pc uint32, adj uint32) ir.Argument {
	if n == arm.RegPC {
		return ir.Imm(pc + adj)
	}
	return ir.Reg(int(n))
}

// setRegister appends the register write, ending the block with a return
// terminal when the destination is the program counter.
func setRegister(b *ir.Block, rd uint8, src ir.Argument, pc uint32) disposition {
	b.Append(op(ir.KindSetRegister, ir.NoVariable, ir.Reg(int(rd)), src))
	if rd == arm.RegPC {
		b.Terminal = ir.Terminal{Kind: ir.TerminalReturn, Cond: arm.CondAL, Next: pc + 4}
		b.Cycles += 2
		return endBlock
	}
	return keepGoing
}

func (tr *Translator) lowerBranch(b *ir.Block, in instruction.Branch, cond arm.Condition, pc uint32) disposition {
	if in.Link {
		b.Append(op(ir.KindSetRegister, ir.NoVariable, ir.Reg(arm.RegLR), ir.Imm(pc+4)))
	}
	b.Terminal = ir.Terminal{
		Kind:   ir.TerminalBranch,
		Cond:   cond,
		Target: uint32(int64(pc) + 8 + int64(in.Offset)),
		Next:   pc + 4,
	}
	b.Cycles += 3
	return endBlock
}

func (tr *Translator) lowerBranchExchange(b *ir.Block, in instruction.BranchExchange, pc uint32) disposition {
	b.Append(op(ir.KindBranchExchange, ir.NoVariable, regArg(in.Rm, pc, 8)))
	b.Terminal = ir.Terminal{Kind: ir.TerminalReturn, Cond: arm.CondAL, Next: pc + 4}
	b.Cycles += 3
	return endBlock
}

// lowerSoftwareInterrupt lowers the full exception entry sequence: the
// return address into R14_svc, the CPSR into SPSR_svc, a switch to
// supervisor mode with IRQs disabled, and a jump to the software interrupt
// vector.
func (tr *Translator) lowerSoftwareInterrupt(b *ir.Block, _ instruction.SoftwareInterrupt, pc uint32) disposition {
	vold := b.NewVariable()
	b.Append(op(ir.KindGetCPSR, vold))

	// clear mode and thumb bits, select supervisor mode and disable IRQ
	vclr := b.NewVariable()
	b.Append(op(ir.KindAnd, vclr, ir.Var(vold), ir.Imm(^uint32(0x3f))))
	vnew := b.NewVariable()
	b.Append(op(ir.KindOrr, vnew, ir.Var(vclr), ir.Imm(uint32(arm.ModeSupervisor)|1<<7)))

	oc := op(ir.KindSetCPSR, ir.NoVariable, ir.Var(vnew))
	oc.Mask = arm.PSRControl | arm.PSRFlags
	b.Append(oc)
	b.Append(op(ir.KindLoadFlags, ir.NoVariable))

	// the old CPSR and the return address land in the supervisor bank,
	// current after the mode switch
	os := op(ir.KindSetSPSR, ir.NoVariable, ir.Var(vold))
	os.Mask = arm.PSRControl | arm.PSRFlags
	b.Append(os)
	b.Append(op(ir.KindSetRegister, ir.NoVariable, ir.Reg(arm.RegLR), ir.Imm(pc+4)))

	vvec := b.NewVariable()
	b.Append(op(ir.KindFetchVectorBase, vvec))
	vtgt := b.NewVariable()
	b.Append(op(ir.KindAdd, vtgt, ir.Var(vvec), ir.Imm(0x08)))
	b.Append(op(ir.KindSetRegister, ir.NoVariable, ir.Reg(arm.RegPC), ir.Var(vtgt)))

	b.Terminal = ir.Terminal{Kind: ir.TerminalReturn, Cond: arm.CondAL, Next: pc + 4}
	b.Cycles += 3
	return endBlock
}

func (tr *Translator) lowerCoprocessorTransfer(b *ir.Block, in instruction.CoprocessorRegisterTransfer, pc uint32) disposition {
	co := ir.CoprocFields{
		CPNum:   in.CPNum,
		Opcode1: in.Opcode1,
		CRn:     in.CRn,
		CRm:     in.CRm,
		Opcode2: in.Opcode2,
	}

	if in.Load {
		v := b.NewVariable()
		o := op(ir.KindLoadCoproc, v)
		o.Coproc = co
		b.Append(o)

		if in.Rd == arm.RegPC {
			// MRC with R15 moves the top four bits of the transferred word
			// into the condition flags; the PC is not written
			oc := op(ir.KindSetCPSR, ir.NoVariable, ir.Var(v))
			oc.Mask = arm.PSRFlags
			b.Append(oc)
			b.Append(op(ir.KindLoadFlags, ir.NoVariable))
			b.Cycles += 3
			return keepGoing
		}

		b.Append(op(ir.KindSetRegister, ir.NoVariable, ir.Reg(int(in.Rd)), ir.Var(v)))
		b.Cycles += 3
		return keepGoing
	}

	o := op(ir.KindStoreCoproc, ir.NoVariable, regArg(in.Rd, pc, 8))
	o.Coproc = co
	b.Append(o)
	b.Cycles += 2
	return keepGoing
}
