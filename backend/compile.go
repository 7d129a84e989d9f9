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

package backend

import (
	"fmt"
	"math/bits"

	"github.com/jetsetilly/dynarec/arm"
	"github.com/jetsetilly/dynarec/arm/alu"
	"github.com/jetsetilly/dynarec/coprocessor"
	"github.com/jetsetilly/dynarec/ir"
)

// step is one host operation of a compiled routine.
type step func(m *machine)

// the size estimate in host bytes of one compiled step. ops the host cannot
// express in one operation are costed as a multiple.
const stepSize = 16

// location of a block variable during execution: a host register slot or,
// when the slots are exhausted, a spill slot.
type location struct {
	spilled bool
	idx     int
}

// compilation is the per-block code generation state: the lifetime table
// guiding slot assignment and the emitted steps.
type compilation struct {
	lt     *ir.Lifetime
	caps   Capabilities
	coproc *coprocessor.Bank

	steps []step
	size  int

	vars      map[ir.Variable]location
	slots     [numHostSlots]ir.Variable
	spillUsed []bool
}

func newCompilation(b *ir.Block, caps Capabilities, coproc *coprocessor.Bank) *compilation {
	cp := &compilation{
		lt:     ir.NewLifetime(b),
		caps:   caps,
		coproc: coproc,
		vars:   make(map[ir.Variable]location, b.NumVariables()),
	}
	for i := range cp.slots {
		cp.slots[i] = ir.NoVariable
	}
	return cp
}

// assign finds a location for a newly defined variable, preferring a host
// register slot.
func (cp *compilation) assign(v ir.Variable) location {
	for i := range cp.slots {
		if cp.slots[i] == ir.NoVariable {
			cp.slots[i] = v
			loc := location{idx: i}
			cp.vars[v] = loc
			return loc
		}
	}
	for i := range cp.spillUsed {
		if !cp.spillUsed[i] {
			cp.spillUsed[i] = true
			loc := location{spilled: true, idx: i}
			cp.vars[v] = loc
			return loc
		}
	}
	cp.spillUsed = append(cp.spillUsed, true)
	loc := location{spilled: true, idx: len(cp.spillUsed) - 1}
	cp.vars[v] = loc
	return loc
}

// release frees the location held by a variable whose last use has been
// compiled.
func (cp *compilation) release(v ir.Variable) {
	loc, ok := cp.vars[v]
	if !ok {
		return
	}
	delete(cp.vars, v)
	if loc.spilled {
		cp.spillUsed[loc.idx] = false
	} else {
		cp.slots[loc.idx] = ir.NoVariable
	}
}

// read resolves an argument to a value reader.
func (cp *compilation) read(a ir.Argument) func(m *machine) uint32 {
	switch a.Kind() {
	case ir.ArgRegister:
		reg, user := a.Register()
		return func(m *machine) uint32 {
			return m.state.Register(reg, user)
		}
	case ir.ArgPSR:
		if a.IsSaved() {
			return func(m *machine) uint32 {
				spsr, ok := m.state.SPSR()
				if !ok {
					return 0
				}
				return spsr.CPSR()
			}
		}
		return func(m *machine) uint32 {
			return m.state.Status.CPSR()
		}
	case ir.ArgVariable:
		loc, ok := cp.vars[a.Variable()]
		if !ok {
			panic(fmt.Sprintf("read of unassigned variable v%d", a.Variable()))
		}
		if loc.spilled {
			idx := loc.idx
			return func(m *machine) uint32 {
				return m.spill[idx]
			}
		}
		idx := loc.idx
		return func(m *machine) uint32 {
			return m.regs[idx]
		}
	case ir.ArgImmediate:
		v := a.Value()
		return func(_ *machine) uint32 {
			return v
		}
	}
	panic("unhandled argument kind")
}

// write resolves a variable destination to a value writer, assigning a
// location for it.
func (cp *compilation) write(v ir.Variable) func(m *machine, val uint32) {
	loc := cp.assign(v)
	idx := loc.idx
	if loc.spilled {
		return func(m *machine, val uint32) {
			m.spill[idx] = val
		}
	}
	return func(m *machine, val uint32) {
		m.regs[idx] = val
	}
}

// compileBlock lowers every op of a block in order.
func (cp *compilation) compileBlock(b *ir.Block) {
	for idx := b.Head(); idx != -1; idx = b.After(idx) {
		cp.compileOp(b.Op(idx), idx)
	}
}

// compileOp lowers one op to a host step. every kind must be mapped: an
// unmapped kind is a translator/backend mismatch and panics.
func (cp *compilation) compileOp(op *ir.Op, idx int) {
	flags := op.Flags

	// readers are resolved before the dying arguments release their
	// locations and before the destination is assigned, so a destination
	// may legitimately reuse a dying argument's slot. a step reads all of
	// its arguments before it writes, which makes the reuse safe
	var rd [4]func(m *machine) uint32
	for i := 0; i < op.NumArgs; i++ {
		rd[i] = cp.read(op.Args[i])
	}
	for i := 0; i < op.NumArgs; i++ {
		if op.Args[i].Kind() == ir.ArgVariable {
			if v := op.Args[i].Variable(); cp.lt.IsEndOfLife(v, idx) {
				cp.release(v)
			}
		}
	}

	var s step

	switch op.Kind {
	case ir.KindGetRegister, ir.KindCopy:
		a := rd[0]
		w := cp.write(op.Dest)
		s = func(m *machine) {
			r := a(m)
			if flags {
				m.nz(r)
			}
			w(m, r)
		}

	case ir.KindConstant:
		v := op.Args[0].Value()
		w := cp.write(op.Dest)
		s = func(m *machine) {
			w(m, v)
		}

	case ir.KindSetRegister:
		reg, user := op.Args[0].Register()
		a := rd[1]
		s = func(m *machine) {
			m.state.SetRegister(reg, user, a(m))
		}

	case ir.KindGetCPSR:
		w := cp.write(op.Dest)
		s = func(m *machine) {
			w(m, m.state.Status.CPSR())
		}

	case ir.KindSetCPSR:
		a := rd[0]
		mask := op.Mask
		s = func(m *machine) {
			v := a(m)
			priv := m.state.Status.Mode != arm.ModeUser

			// a mode change must go through the state so the banked
			// registers swap; the remaining fields follow
			next := m.state.Status
			next.SetFields(v, mask, priv)
			if next.Mode != m.state.Status.Mode {
				m.state.SetMode(next.Mode)
			}
			m.state.Status.SetFields(v, mask, priv)
		}
		if !cp.caps.PopCount {
			cp.size += stepSize
		}

	case ir.KindGetSPSR:
		w := cp.write(op.Dest)
		s = func(m *machine) {
			spsr, ok := m.state.SPSR()
			if !ok {
				w(m, 0)
				return
			}
			w(m, spsr.CPSR())
		}

	case ir.KindSetSPSR:
		a := rd[0]
		mask := op.Mask
		s = func(m *machine) {
			spsr, ok := m.state.SPSR()
			if !ok {
				return
			}
			spsr.SetFields(a(m), mask, true)
		}

	case ir.KindLogicalShiftLeft:
		s = cp.shift(op, rd, alu.Lsl)
	case ir.KindLogicalShiftRight:
		s = cp.shift(op, rd, alu.Lsr)
	case ir.KindArithmeticShiftRight:
		s = cp.shift(op, rd, alu.Asr)
	case ir.KindRotateRight:
		s = cp.shift(op, rd, alu.Ror)

	case ir.KindRotateRightExtend:
		a := rd[0]
		w := cp.write(op.Dest)
		s = func(m *machine) {
			r, c := alu.Rrx(a(m), m.c)
			if flags {
				m.c = c == alu.CarrySet
			}
			w(m, r)
		}

	case ir.KindAnd:
		s = cp.bitwise(op, rd, func(a, b uint32) uint32 { return a & b })
	case ir.KindEor:
		s = cp.bitwise(op, rd, func(a, b uint32) uint32 { return a ^ b })
	case ir.KindOrr:
		s = cp.bitwise(op, rd, func(a, b uint32) uint32 { return a | b })
	case ir.KindBitClear:
		s = cp.bitwise(op, rd, func(a, b uint32) uint32 { return a &^ b })

	case ir.KindNot:
		a := rd[0]
		w := cp.write(op.Dest)
		s = func(m *machine) {
			r := ^a(m)
			if flags {
				m.nz(r)
			}
			w(m, r)
		}

	case ir.KindAdd:
		s = cp.arithmetic(op, rd, func(a, b uint32, _ bool) (uint32, bool, bool) {
			return alu.Add(a, b)
		})
	case ir.KindAddWithCarry:
		s = cp.arithmetic(op, rd, alu.Adc)
	case ir.KindSub:
		s = cp.arithmetic(op, rd, func(a, b uint32, _ bool) (uint32, bool, bool) {
			return alu.Sub(a, b)
		})
	case ir.KindSubWithCarry:
		s = cp.arithmetic(op, rd, alu.Sbc)
	case ir.KindReverseSub:
		s = cp.arithmetic(op, rd, func(a, b uint32, _ bool) (uint32, bool, bool) {
			return alu.Sub(b, a)
		})

	case ir.KindMultiply:
		a, b := rd[0], rd[1]
		w := cp.write(op.Dest)
		s = func(m *machine) {
			r := a(m) * b(m)
			if flags {
				m.nz(r)
			}
			w(m, r)
		}

	case ir.KindMultiplyAccumulate:
		a, b, acc := rd[0], rd[1], rd[2]
		w := cp.write(op.Dest)
		s = func(m *machine) {
			r := a(m)*b(m) + acc(m)
			if flags {
				m.nz(r)
			}
			w(m, r)
		}

	case ir.KindMultiplyLong:
		a, b := rd[0], rd[1]
		var accLo, accHi func(m *machine) uint32
		if op.NumArgs == 4 {
			accLo, accHi = rd[2], rd[3]
		}
		signed := op.Signed
		wlo := cp.write(op.Dest)
		whi := cp.write(op.Dest2)
		s = func(m *machine) {
			var p uint64
			if signed {
				p = uint64(int64(int32(a(m))) * int64(int32(b(m))))
			} else {
				p = uint64(a(m)) * uint64(b(m))
			}
			if accLo != nil {
				p += uint64(accLo(m)) | uint64(accHi(m))<<32
			}
			if flags {
				m.n = p&0x8000000000000000 != 0
				m.z = p == 0
			}
			wlo(m, uint32(p))
			whi(m, uint32(p>>32))
		}
		if !cp.caps.WideMultiply {
			cp.size += stepSize
		}

	case ir.KindSaturatingAdd:
		a, b := rd[0], rd[1]
		w := cp.write(op.Dest)
		s = func(m *machine) {
			r, sat := alu.SaturatingAdd(int32(a(m)), int32(b(m)))
			m.q = m.q || sat
			w(m, uint32(r))
		}

	case ir.KindSaturatingSub:
		a, b := rd[0], rd[1]
		w := cp.write(op.Dest)
		s = func(m *machine) {
			r, sat := alu.SaturatingSub(int32(a(m)), int32(b(m)))
			m.q = m.q || sat
			w(m, uint32(r))
		}

	case ir.KindStoreFlags:
		mask := op.Mask
		s = func(m *machine) {
			sr := &m.state.Status
			if mask&ir.FlagN != 0 {
				sr.Negative = m.n
			}
			if mask&ir.FlagZ != 0 {
				sr.Zero = m.z
			}
			if mask&ir.FlagC != 0 {
				sr.Carry = m.c
			}
			if mask&ir.FlagV != 0 {
				sr.Overflow = m.v
			}
		}
		if !cp.caps.PopCount {
			cp.size += stepSize
		}

	case ir.KindLoadFlags:
		s = func(m *machine) {
			m.seed()
		}

	case ir.KindSetSticky:
		s = func(m *machine) {
			m.state.Status.Saturation = m.q
		}

	case ir.KindLoadMemory:
		s = cp.load(op, rd)
	case ir.KindStoreMemory:
		s = cp.store(op, rd)

	case ir.KindBranch:
		a := rd[0]
		s = func(m *machine) {
			m.state.SetPC(a(m))
		}

	case ir.KindBranchExchange:
		a := rd[0]
		s = func(m *machine) {
			v := a(m)
			m.state.Status.Thumb = v&0x01 == 0x01
			m.state.SetPC(v &^ 0x01)
		}

	case ir.KindLoadCoproc:
		cop := cp.coproc.Coprocessor(op.Coproc.CPNum)
		tf := transfer(op.Coproc)
		w := cp.write(op.Dest)
		s = func(m *machine) {
			w(m, cop.Load(tf))
		}

	case ir.KindStoreCoproc:
		cop := cp.coproc.Coprocessor(op.Coproc.CPNum)
		tf := transfer(op.Coproc)
		a := rd[0]
		s = func(m *machine) {
			cop.Store(tf, a(m))
		}

	case ir.KindFetchVectorBase:
		w := cp.write(op.Dest)
		s = func(m *machine) {
			w(m, m.state.VectorBase)
		}

	default:
		panic(fmt.Sprintf("unmapped op kind %s", op.Kind))
	}

	cp.steps = append(cp.steps, s)
	cp.size += stepSize
}

func transfer(c ir.CoprocFields) coprocessor.Transfer {
	return coprocessor.Transfer{
		Opcode1: c.Opcode1,
		CRn:     c.CRn,
		CRm:     c.CRm,
		Opcode2: c.Opcode2,
	}
}

// shift builds the step for a barrel shifter op. the tri-state carry of the
// shift primitives maps onto the lazy carry: unaffected leaves it alone.
func (cp *compilation) shift(op *ir.Op, rd [4]func(m *machine) uint32, fn func(uint32, uint32) (uint32, alu.Carry)) step {
	a, b := rd[0], rd[1]
	flags := op.Flags
	w := cp.write(op.Dest)
	return func(m *machine) {
		r, c := fn(a(m), b(m))
		if flags && c != alu.CarryUnaffected {
			m.c = c == alu.CarrySet
		}
		w(m, r)
	}
}

func (cp *compilation) bitwise(op *ir.Op, rd [4]func(m *machine) uint32, fn func(a, b uint32) uint32) step {
	a, b := rd[0], rd[1]
	flags := op.Flags
	w := cp.write(op.Dest)
	return func(m *machine) {
		r := fn(a(m), b(m))
		if flags {
			m.nz(r)
		}
		w(m, r)
	}
}

func (cp *compilation) arithmetic(op *ir.Op, rd [4]func(m *machine) uint32, fn func(a, b uint32, carry bool) (uint32, bool, bool)) step {
	a, b := rd[0], rd[1]
	flags := op.Flags
	w := cp.write(op.Dest)
	return func(m *machine) {
		r, c, v := fn(a(m), b(m), m.c)
		if flags {
			m.nz(r)
			m.c = c
			m.v = v
		}
		w(m, r)
	}
}

// load builds the step for a guest memory read. word reads resolve unaligned
// addresses the way the ARM7TDMI does: the aligned word is read and rotated
// so the addressed byte lands in the low byte.
func (cp *compilation) load(op *ir.Op, rd [4]func(m *machine) uint32) step {
	a := rd[0]
	signed := op.Signed
	w := cp.write(op.Dest)

	switch op.Width {
	case 1:
		return func(m *machine) {
			v := uint32(m.mem.Read8(a(m)))
			if signed {
				v = uint32(int32(int8(v)))
			}
			w(m, v)
		}
	case 2:
		return func(m *machine) {
			v := uint32(m.mem.Read16(a(m) &^ 0x01))
			if signed {
				v = uint32(int32(int16(v)))
			}
			w(m, v)
		}
	case 4:
		return func(m *machine) {
			addr := a(m)
			v := m.mem.Read32(addr &^ 0x03)
			v = bits.RotateLeft32(v, -int((addr&0x03)*8))
			w(m, v)
		}
	}
	panic(fmt.Sprintf("unhandled load width %d", op.Width))
}

func (cp *compilation) store(op *ir.Op, rd [4]func(m *machine) uint32) step {
	a := rd[0]
	val := rd[1]

	switch op.Width {
	case 1:
		return func(m *machine) {
			m.mem.Write8(a(m), uint8(val(m)))
		}
	case 2:
		return func(m *machine) {
			m.mem.Write16(a(m)&^0x01, uint16(val(m)))
		}
	case 4:
		return func(m *machine) {
			m.mem.Write32(a(m)&^0x03, val(m))
		}
	}
	panic(fmt.Sprintf("unhandled store width %d", op.Width))
}
