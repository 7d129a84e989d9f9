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

// transferAddress computes the effective address for the single-register
// transfer forms and returns it along with a function that performs base
// writeback. writeback ordering matters: it runs after the store value has
// been read but before a load lands in its destination register, so that a
// load into the base register wins.
func transferAddress(b *ir.Block, rn uint8, off ir.Argument, up, preIndex, writeBack bool, pc uint32) (ir.Argument, func()) {
	base := regArg(rn, pc, 8)

	kind := ir.KindAdd
	if !up {
		kind = ir.KindSub
	}

	addr := base
	if preIndex {
		v := b.NewVariable()
		b.Append(op(kind, v, base, off))
		addr = ir.Var(v)
	}

	wb := func() {
		// writeback to the PC is unpredictable; drop it
		if rn == arm.RegPC {
			return
		}
		if preIndex {
			if writeBack {
				b.Append(op(ir.KindSetRegister, ir.NoVariable, ir.Reg(int(rn)), addr))
			}
			return
		}
		// post-indexing always writes back
		v := b.NewVariable()
		b.Append(op(kind, v, base, off))
		b.Append(op(ir.KindSetRegister, ir.NoVariable, ir.Reg(int(rn)), ir.Var(v)))
	}

	return addr, wb
}

func (tr *Translator) lowerSingleDataTransfer(b *ir.Block, in instruction.SingleDataTransfer, pc uint32) disposition {
	var off ir.Argument
	if in.Immediate {
		off = ir.Imm(in.Offset)
	} else {
		off = tr.lowerOperand2(b, instruction.Operand2{
			Rm:     in.Rm,
			Shift:  in.Shift,
			Amount: in.Amount,
		}, false, pc)
	}

	addr, writeback := transferAddress(b, in.Rn, off, in.Up, in.PreIndex, in.WriteBack, pc)

	width := uint8(4)
	if in.Byte {
		width = 1
	}

	if in.Load {
		v := b.NewVariable()
		o := op(ir.KindLoadMemory, v, addr)
		o.Width = width
		b.Append(o)
		writeback()
		b.Cycles += 3
		return setRegister(b, in.Rd, ir.Var(v), pc)
	}

	// a store of the PC writes the instruction address plus twelve
	o := op(ir.KindStoreMemory, ir.NoVariable, addr, regArg(in.Rd, pc, 12))
	o.Width = width
	b.Append(o)
	writeback()
	b.Cycles += 2
	return keepGoing
}

func (tr *Translator) lowerHalfwordSignedTransfer(b *ir.Block, in instruction.HalfwordSignedTransfer, pc uint32) disposition {
	var off ir.Argument
	if in.Immediate {
		off = ir.Imm(in.Offset)
	} else {
		off = regArg(in.Rm, pc, 8)
	}

	addr, writeback := transferAddress(b, in.Rn, off, in.Up, in.PreIndex, in.WriteBack, pc)

	width := uint8(1)
	if in.Halfword {
		width = 2
	}

	if in.Load {
		v := b.NewVariable()
		o := op(ir.KindLoadMemory, v, addr)
		o.Width = width
		o.Signed = in.Signed
		b.Append(o)
		writeback()
		b.Cycles += 3
		return setRegister(b, in.Rd, ir.Var(v), pc)
	}

	o := op(ir.KindStoreMemory, ir.NoVariable, addr, regArg(in.Rd, pc, 12))
	o.Width = width
	b.Append(o)
	writeback()
	b.Cycles += 2
	return keepGoing
}

func (tr *Translator) lowerSwap(b *ir.Block, in instruction.Swap, pc uint32) disposition {
	addr := regArg(in.Rn, pc, 8)

	width := uint8(4)
	if in.Byte {
		width = 1
	}

	// the read lands in a temporary first so that Rd == Rm works
	v := b.NewVariable()
	ld := op(ir.KindLoadMemory, v, addr)
	ld.Width = width
	b.Append(ld)

	st := op(ir.KindStoreMemory, ir.NoVariable, addr, regArg(in.Rm, pc, 8))
	st.Width = width
	b.Append(st)

	b.Cycles += 4
	return setRegister(b, in.Rd, ir.Var(v), pc)
}

func (tr *Translator) lowerBlockDataTransfer(b *ir.Block, in instruction.BlockDataTransfer, pc uint32) disposition {
	n := bits.OnesCount16(in.RegisterList)
	if n == 0 {
		// unpredictable; lowered as a no-op
		b.Cycles++
		return keepGoing
	}

	// the base is captured before any writeback or load clobbers it
	vbase := b.NewVariable()
	b.Append(op(ir.KindCopy, vbase, regArg(in.Rn, pc, 8)))

	// the lowest-numbered register always transfers to the lowest address.
	// start is the offset of that first transfer from the base
	var start int
	switch {
	case in.Up && in.PreIndex:
		start = 4
	case in.Up && !in.PreIndex:
		start = 0
	case !in.Up && in.PreIndex:
		start = -4 * n
	default:
		start = -4*n + 4
	}

	pcInList := in.RegisterList&0x8000 != 0

	// for stores the S bit always selects the user bank. for loads it
	// selects the user bank only when R15 is absent from the list; with R15
	// present it requests a CPSR restore instead
	userBank := in.UserBank && !(in.Load && pcInList)

	writeback := func() {
		if !in.WriteBack || in.Rn == arm.RegPC {
			return
		}
		kind := ir.KindAdd
		if !in.Up {
			kind = ir.KindSub
		}
		v := b.NewVariable()
		b.Append(op(kind, v, ir.Var(vbase), ir.Imm(uint32(4*n))))
		b.Append(op(ir.KindSetRegister, ir.NoVariable, ir.Reg(int(in.Rn)), ir.Var(v)))
	}

	// for loads, writeback happens before the transfers so that a load of
	// the base register wins. for stores the base updates after the first
	// transfer on the hardware: a store of the base writes the original
	// value only when the base is first in the list, any later position
	// stores the written-back value. the transfer addresses always come
	// from the captured base
	earlyWriteback := in.Load ||
		(in.RegisterList&(1<<in.Rn) != 0 && bits.TrailingZeros16(in.RegisterList) != int(in.Rn))

	if earlyWriteback {
		writeback()
	}

	offset := start
	for reg := 0; reg < arm.NumRegisters; reg++ {
		if in.RegisterList&(1<<reg) == 0 {
			continue
		}

		vaddr := b.NewVariable()
		b.Append(op(ir.KindAdd, vaddr, ir.Var(vbase), ir.Imm(uint32(int32(offset)))))
		offset += 4

		dst := ir.Reg(reg)
		if userBank {
			dst = ir.UserReg(reg)
		}

		if in.Load {
			v := b.NewVariable()
			ld := op(ir.KindLoadMemory, v, ir.Var(vaddr))
			ld.Width = 4
			b.Append(ld)

			if reg == arm.RegPC {
				if in.UserBank && b.Location.Mode().HasSPSR() {
					// exception return form: restore the CPSR from the SPSR
					vs := b.NewVariable()
					b.Append(op(ir.KindGetSPSR, vs))
					oc := op(ir.KindSetCPSR, ir.NoVariable, ir.Var(vs))
					oc.Mask = arm.PSRControl | arm.PSRFlags
					b.Append(oc)
					b.Append(op(ir.KindLoadFlags, ir.NoVariable))
				}
				b.Append(op(ir.KindSetRegister, ir.NoVariable, dst, ir.Var(v)))
				b.Terminal = ir.Terminal{Kind: ir.TerminalReturn, Cond: arm.CondAL, Next: pc + 4}
				b.Cycles += n + 4
				return endBlock
			}

			b.Append(op(ir.KindSetRegister, ir.NoVariable, dst, ir.Var(v)))
			continue
		}

		src := regArg(uint8(reg), pc, 12)
		if userBank && reg != arm.RegPC {
			src = ir.UserReg(reg)
		}
		st := op(ir.KindStoreMemory, ir.NoVariable, ir.Var(vaddr), src)
		st.Width = 4
		b.Append(st)
	}

	if !earlyWriteback {
		writeback()
	}

	b.Cycles += n + 2
	return keepGoing
}
