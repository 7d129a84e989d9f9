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

package recompiler_test

import (
	"encoding/binary"
	"testing"

	"github.com/jetsetilly/dynarec/arm"
	"github.com/jetsetilly/dynarec/curated"
	"github.com/jetsetilly/dynarec/recompiler"
	"github.com/jetsetilly/dynarec/test"
)

const origin = 0x1000

func program(words ...uint32) *arm.RAM {
	mem := arm.NewRAM(origin, len(words)*4+64)
	for i, w := range words {
		binary.LittleEndian.PutUint32(mem.Data[i*4:], w)
	}
	return mem
}

func newRecompiler(t *testing.T, spec recompiler.Spec) *recompiler.Recompiler {
	t.Helper()
	r, err := recompiler.NewRecompiler(spec)
	test.ExpectedSuccess(t, err)
	r.State().SetPC(origin)
	return r
}

func TestSpecRequiresMemory(t *testing.T) {
	_, err := recompiler.NewRecompiler(recompiler.Spec{})
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, recompiler.NoMemory))
}

func TestEndToEnd(t *testing.T) {
	// MOV R0, #0x12
	r := newRecompiler(t, recompiler.Spec{Memory: program(0xe3a00012)})

	cycles := r.Run(1)
	test.ExpectedSuccess(t, cycles >= 1)

	st := r.State()
	test.Equate(t, st.Register(0, false), 0x12)

	// a non flag-setting move leaves the flags untouched
	test.ExpectedFailure(t, st.Status.Negative)
	test.ExpectedFailure(t, st.Status.Zero)
	test.ExpectedFailure(t, st.Status.Carry)
	test.ExpectedFailure(t, st.Status.Overflow)
}

func TestCacheIdempotence(t *testing.T) {
	// B . (a tight loop on a single block)
	r := newRecompiler(t, recompiler.Spec{Memory: program(0xeafffffe)})

	cycles := r.Run(100)
	test.ExpectedSuccess(t, cycles >= 100)

	// every iteration after the first hits the code cache
	test.Equate(t, r.CompileCount(), 1)

	// and the next run compiles nothing at all
	r.Run(100)
	test.Equate(t, r.CompileCount(), 1)
}

func TestUnimplementedBoundary(t *testing.T) {
	// LDC: a coprocessor data transfer the translator does not lower. the
	// run loop must stop with the PC at the boundary
	r := newRecompiler(t, recompiler.Spec{Memory: program(0xed901001)})

	// the boundary block lowered no instructions so no cycles are billed
	cycles := r.Run(100)
	test.Equate(t, cycles, 0)
	test.Equate(t, r.State().PC(), origin)
}

func TestRetainIR(t *testing.T) {
	r := newRecompiler(t, recompiler.Spec{
		Memory:   program(0xe3a00012),
		RetainIR: true,
	})
	r.Run(1)

	loc := arm.NewLocationRef(origin, arm.ModeSupervisor, false)
	b := r.IRBlock(loc)
	test.ExpectedSuccess(t, b != nil)
	test.Equate(t, b.Location == loc, true)

	// flushing discards the retained IR along with the compiled routines
	r.FlushCachedBlocks()
	test.ExpectedSuccess(t, r.IRBlock(loc) == nil)

	// execution recompiles into the empty cache
	before := r.CompileCount()
	r.State().SetPC(origin)
	r.Run(1)
	test.ExpectedSuccess(t, r.CompileCount() > before)
}

func TestArenaRelease(t *testing.T) {
	// two blocks: a branch over a word, then the move. a release interval of
	// one resets the arena between the two compilations; the second block
	// must be unaffected by the recycled storage
	r := newRecompiler(t, recompiler.Spec{
		Memory:          program(0xea000000, 0, 0xe3a00012),
		ReleaseInterval: 1,
	})

	r.Run(4)
	test.Equate(t, r.State().Register(0, false), 0x12)
	test.ExpectedSuccess(t, r.CompileCount() >= 2)
}

func TestSystemControlModel(t *testing.T) {
	// MCR p15, 0, R0, c1, c0, 0 with the high-vectors bit set
	r := newRecompiler(t, recompiler.Spec{
		Memory: program(0xee010f10),
		Model:  recompiler.ModelARM946ES,
	})
	r.State().SetRegister(0, false, 1<<13)

	r.Run(1)
	test.Equate(t, r.State().VectorBase, 0xffff0000)
}

func TestSoftwareInterrupt(t *testing.T) {
	// SWI from supervisor mode: the CPSR is saved to SPSR_svc, the return
	// address lands in LR and control transfers to the vector table
	r := newRecompiler(t, recompiler.Spec{Memory: program(0xef000011)})

	st := r.State()
	st.Status.Carry = true
	r.Run(1)

	test.Equate(t, st.PC(), 0x08)
	test.Equate(t, st.Register(arm.RegLR, false), origin+4)
	test.Equate(t, st.Status.Mode == arm.ModeSupervisor, true)
	test.ExpectedSuccess(t, st.Status.IRQDisable)

	spsr, ok := st.SPSR()
	test.ExpectedSuccess(t, ok)
	test.ExpectedSuccess(t, spsr.Carry)
}
