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

package backend_test

import (
	"encoding/binary"
	"testing"

	"github.com/jetsetilly/dynarec/arena"
	"github.com/jetsetilly/dynarec/arm"
	"github.com/jetsetilly/dynarec/arm/instruction"
	"github.com/jetsetilly/dynarec/backend"
	"github.com/jetsetilly/dynarec/coprocessor"
	"github.com/jetsetilly/dynarec/curated"
	"github.com/jetsetilly/dynarec/ir"
	"github.com/jetsetilly/dynarec/test"
	"github.com/jetsetilly/dynarec/translate"
)

const origin = 0x1000

// translate a word sequence and compile the resulting block.
func compileWords(t *testing.T, words ...uint32) (*backend.Backend, *backend.Routine, *arm.RAM) {
	t.Helper()

	mem := arm.NewRAM(origin, len(words)*4+64)
	for i, w := range words {
		binary.LittleEndian.PutUint32(mem.Data[i*4:], w)
	}

	pool := arena.NewPool[ir.Op]()
	b := &ir.Block{}
	b.Init(pool, arm.NewLocationRef(origin, arm.ModeSupervisor, false))

	tr := translate.NewTranslator(instruction.NewARMDecoder(mem))
	tr.Translate(b, 16)

	be := backend.NewBackend(backend.Detect(), mem, coprocessor.NewBank(), 0)
	r, err := be.Compile(b)
	test.ExpectedSuccess(t, err)
	return be, r, mem
}

func TestCompileAndExecute(t *testing.T) {
	// MOV R0, #0x12
	be, r, _ := compileWords(t, 0xe3a00012)

	st := arm.NewState()
	remaining := be.Execute(st, r, 100)

	test.Equate(t, st.Register(0, false), 0x12)
	test.Equate(t, st.PC(), origin+4)
	test.ExpectedSuccess(t, remaining < 100)

	// flags untouched by a non flag-setting move
	test.ExpectedFailure(t, st.Status.Zero)
	test.ExpectedFailure(t, st.Status.Carry)
}

func TestFlagSettingAdd(t *testing.T) {
	// ADDS R0, R1, R2
	be, r, _ := compileWords(t, 0xe0910002)

	st := arm.NewState()
	st.SetRegister(1, false, 0xffffffff)
	st.SetRegister(2, false, 1)
	be.Execute(st, r, 100)

	test.Equate(t, st.Register(0, false), 0)
	test.ExpectedSuccess(t, st.Status.Zero)
	test.ExpectedSuccess(t, st.Status.Carry)
	test.ExpectedFailure(t, st.Status.Negative)
	test.ExpectedFailure(t, st.Status.Overflow)
}

func TestShifterCarryUnaffected(t *testing.T) {
	// MOVS R0, R1 (LSL #0 leaves the carry as it was)
	be, r, _ := compileWords(t, 0xe1b00001)

	st := arm.NewState()
	st.Status.Carry = true
	st.SetRegister(1, false, 5)
	be.Execute(st, r, 100)

	test.Equate(t, st.Register(0, false), 5)
	test.ExpectedSuccess(t, st.Status.Carry)
	test.ExpectedFailure(t, st.Status.Zero)
}

func TestPredicatedBlock(t *testing.T) {
	// MOVEQ R0, #1
	be, r, _ := compileWords(t, 0x03a00001)

	// predicate fails: the register write is suppressed and control falls
	// through
	st := arm.NewState()
	st.SetRegister(0, false, 99)
	remaining := be.Execute(st, r, 100)
	test.Equate(t, st.Register(0, false), 99)
	test.Equate(t, st.PC(), origin+4)
	test.Equate(t, remaining, 99)

	// predicate passes
	st = arm.NewState()
	st.Status.Zero = true
	be.Execute(st, r, 100)
	test.Equate(t, st.Register(0, false), 1)
}

func TestBranchTerminal(t *testing.T) {
	// BNE . (a conditional branch back to itself)
	be, r, _ := compileWords(t, 0x1afffffe)

	st := arm.NewState()
	be.Execute(st, r, 100)
	test.Equate(t, st.PC(), origin)

	st = arm.NewState()
	st.Status.Zero = true
	be.Execute(st, r, 100)
	test.Equate(t, st.PC(), origin+4)
}

func TestMultiplyLong(t *testing.T) {
	// UMULLS R4, R5, R6, R7
	be, r, _ := compileWords(t, 0xe0954796)

	st := arm.NewState()
	st.SetRegister(6, false, 0x80000000)
	st.SetRegister(7, false, 2)
	be.Execute(st, r, 100)

	test.Equate(t, st.Register(4, false), 0)
	test.Equate(t, st.Register(5, false), 1)
	test.ExpectedFailure(t, st.Status.Zero)
	test.ExpectedFailure(t, st.Status.Negative)
}

func TestUnalignedWordLoad(t *testing.T) {
	// LDR R1, [R0]
	be, r, mem := compileWords(t, 0xe5901000)

	data := uint32(origin + 0x20)
	binary.LittleEndian.PutUint32(mem.Data[data-origin:], 0xaabbccdd)

	st := arm.NewState()
	st.SetRegister(0, false, data+1)
	be.Execute(st, r, 100)

	// the aligned word rotated so the addressed byte is in the low byte
	test.Equate(t, st.Register(1, false), 0xddaabbcc)
}

func TestCacheReplace(t *testing.T) {
	mem := arm.NewRAM(origin, 64)
	binary.LittleEndian.PutUint32(mem.Data, 0xe3a00012)

	pool := arena.NewPool[ir.Op]()
	b := &ir.Block{}
	b.Init(pool, arm.NewLocationRef(origin, arm.ModeSupervisor, false))
	tr := translate.NewTranslator(instruction.NewARMDecoder(mem))
	tr.Translate(b, 16)

	be := backend.NewBackend(backend.Detect(), mem, coprocessor.NewBank(), 0)

	r1, err := be.Compile(b)
	test.ExpectedSuccess(t, err)
	size := be.Size()

	// recompiling the same location replaces the prior routine without
	// growing the cache
	r2, err := be.Compile(b)
	test.ExpectedSuccess(t, err)
	test.Equate(t, be.Size(), size)
	test.Equate(t, be.CompileCount(), 2)
	test.ExpectedSuccess(t, be.GetCodeForLocation(b.Location) == r2)
	test.ExpectedSuccess(t, r1 != r2)

	be.Clear()
	test.Equate(t, be.Size(), 0)
	test.ExpectedSuccess(t, be.GetCodeForLocation(b.Location) == nil)
}

func TestHostCodeCeiling(t *testing.T) {
	mem := arm.NewRAM(origin, 64)
	binary.LittleEndian.PutUint32(mem.Data, 0xe3a00012)

	pool := arena.NewPool[ir.Op]()
	b := &ir.Block{}
	b.Init(pool, arm.NewLocationRef(origin, arm.ModeSupervisor, false))
	tr := translate.NewTranslator(instruction.NewARMDecoder(mem))
	tr.Translate(b, 16)

	be := backend.NewBackend(backend.Detect(), mem, coprocessor.NewBank(), 1)
	_, err := be.Compile(b)
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, backend.HostCodeCeiling))

	// the failed install leaves the cache unchanged
	test.Equate(t, be.Size(), 0)
	test.ExpectedSuccess(t, be.GetCodeForLocation(b.Location) == nil)
}

// a hand-built block with more live temporaries than host register slots,
// forcing the compiler to spill.
func TestSpill(t *testing.T) {
	pool := arena.NewPool[ir.Op]()
	b := &ir.Block{}
	b.Init(pool, arm.NewLocationRef(origin, arm.ModeSupervisor, false))

	const numConstants = 12

	vars := make([]ir.Variable, numConstants)
	for i := range vars {
		vars[i] = b.NewVariable()
		o := ir.Op{Kind: ir.KindConstant, Dest: vars[i], Dest2: ir.NoVariable, NumArgs: 1}
		o.Args[0] = ir.Imm(uint32(i + 1))
		b.Append(o)
	}

	acc := vars[0]
	for i := 1; i < numConstants; i++ {
		sum := b.NewVariable()
		o := ir.Op{Kind: ir.KindAdd, Dest: sum, Dest2: ir.NoVariable, NumArgs: 2}
		o.Args[0] = ir.Var(acc)
		o.Args[1] = ir.Var(vars[i])
		b.Append(o)
		acc = sum
	}

	o := ir.Op{Kind: ir.KindSetRegister, Dest: ir.NoVariable, Dest2: ir.NoVariable, NumArgs: 2}
	o.Args[0] = ir.Reg(0)
	o.Args[1] = ir.Var(acc)
	b.Append(o)

	mem := arm.NewRAM(origin, 64)
	be := backend.NewBackend(backend.Detect(), mem, coprocessor.NewBank(), 0)
	r, err := be.Compile(b)
	test.ExpectedSuccess(t, err)

	st := arm.NewState()
	be.Execute(st, r, 100)
	test.Equate(t, st.Register(0, false), numConstants*(numConstants+1)/2)
}

func compileWithCaps(t *testing.T, caps backend.Capabilities, words ...uint32) *backend.Routine {
	t.Helper()

	mem := arm.NewRAM(origin, len(words)*4+64)
	for i, w := range words {
		binary.LittleEndian.PutUint32(mem.Data[i*4:], w)
	}

	pool := arena.NewPool[ir.Op]()
	b := &ir.Block{}
	b.Init(pool, arm.NewLocationRef(origin, arm.ModeSupervisor, false))
	tr := translate.NewTranslator(instruction.NewARMDecoder(mem))
	tr.Translate(b, 16)

	be := backend.NewBackend(caps, mem, coprocessor.NewBank(), 0)
	r, err := be.Compile(b)
	test.ExpectedSuccess(t, err)
	return r
}

func TestCapabilityCosting(t *testing.T) {
	full := backend.Capabilities{WideMultiply: true, PopCount: true}

	// UMULL R0, R1, R2, R3 is costed larger on a host without a wide
	// multiply
	narrow := full
	narrow.WideMultiply = false
	a := compileWithCaps(t, full, 0xe0810392)
	b := compileWithCaps(t, narrow, 0xe0810392)
	test.ExpectedSuccess(t, b.Size() > a.Size())

	// ADDS R0, R1, R2 commits flags, costed larger without the population
	// count group
	bare := full
	bare.PopCount = false
	c := compileWithCaps(t, full, 0xe0910002)
	d := compileWithCaps(t, bare, 0xe0910002)
	test.ExpectedSuccess(t, d.Size() > c.Size())
}

func TestBoundaryBilling(t *testing.T) {
	// LDC: an unimplemented boundary at the first instruction. nothing
	// executes so nothing is billed
	be, r, _ := compileWords(t, 0xed901001)

	st := arm.NewState()
	remaining := be.Execute(st, r, 100)
	test.Equate(t, remaining, 100)
	test.Equate(t, st.PC(), origin)
}
