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

package ir_test

import (
	"testing"

	"github.com/jetsetilly/dynarec/arena"
	"github.com/jetsetilly/dynarec/arm"
	"github.com/jetsetilly/dynarec/ir"
	"github.com/jetsetilly/dynarec/test"
)

func newBlock() (*ir.Block, *arena.Pool[ir.Op]) {
	pool := arena.NewPool[ir.Op]()
	b := &ir.Block{}
	b.Init(pool, arm.NewLocationRef(0x1000, arm.ModeUser, false))
	return b, pool
}

func TestOpLinking(t *testing.T) {
	b, _ := newBlock()

	v := b.NewVariable()
	o1 := b.Append(ir.Op{Kind: ir.KindConstant, Dest: v, Dest2: ir.NoVariable, Args: [4]ir.Argument{ir.Imm(1)}, NumArgs: 1})
	o2 := b.Append(ir.Op{Kind: ir.KindSetRegister, Dest: ir.NoVariable, Dest2: ir.NoVariable, Args: [4]ir.Argument{ir.Reg(0), ir.Var(v)}, NumArgs: 2})

	test.Equate(t, b.Len(), 2)
	test.Equate(t, b.Head(), o1)
	test.Equate(t, b.After(o1), o2)
	test.Equate(t, b.After(o2), -1)

	// removal relinks around the victim
	b.Remove(o1)
	test.Equate(t, b.Len(), 1)
	test.Equate(t, b.Head(), o2)
}

func TestLifetime(t *testing.T) {
	b, _ := newBlock()

	v := b.NewVariable()
	w := b.NewVariable()
	x := b.NewVariable()

	b.Append(ir.Op{Kind: ir.KindConstant, Dest: v, Dest2: ir.NoVariable, Args: [4]ir.Argument{ir.Imm(1)}, NumArgs: 1})
	o1 := b.Append(ir.Op{Kind: ir.KindAdd, Dest: w, Dest2: ir.NoVariable, Args: [4]ir.Argument{ir.Var(v), ir.Imm(2)}, NumArgs: 2})
	b.Append(ir.Op{Kind: ir.KindConstant, Dest: x, Dest2: ir.NoVariable, Args: [4]ir.Argument{ir.Imm(3)}, NumArgs: 1})
	o3 := b.Append(ir.Op{Kind: ir.KindAdd, Dest: x, Dest2: ir.NoVariable, Args: [4]ir.Argument{ir.Var(v), ir.Var(w)}, NumArgs: 2})

	lt := ir.NewLifetime(b)

	// v is read at o1 and o3. only o3 is end of life
	test.ExpectedFailure(t, lt.IsEndOfLife(v, o1))
	test.ExpectedSuccess(t, lt.IsEndOfLife(v, o3))
	test.ExpectedSuccess(t, lt.IsEndOfLife(w, o3))

	// x is never read
	test.ExpectedFailure(t, lt.IsRead(x))
	test.ExpectedSuccess(t, lt.IsRead(v))
}

func TestDeadOpElimination(t *testing.T) {
	b, _ := newBlock()

	v := b.NewVariable()
	dead := b.NewVariable()

	b.Append(ir.Op{Kind: ir.KindConstant, Dest: v, Dest2: ir.NoVariable, Args: [4]ir.Argument{ir.Imm(0x12)}, NumArgs: 1})

	// dead computation with no side effects
	b.Append(ir.Op{Kind: ir.KindAdd, Dest: dead, Dest2: ir.NoVariable, Args: [4]ir.Argument{ir.Var(v), ir.Imm(1)}, NumArgs: 2})

	// the externally visible effect
	b.Append(ir.Op{Kind: ir.KindSetRegister, Dest: ir.NoVariable, Dest2: ir.NoVariable, Args: [4]ir.Argument{ir.Reg(0), ir.Var(v)}, NumArgs: 2})

	n := ir.Optimise(b)
	test.Equate(t, n, 1)
	test.Equate(t, b.Len(), 2)

	// idempotence: a second run changes nothing
	test.Equate(t, ir.Optimise(b), 0)
}

func TestFlagProducingOpsSurvive(t *testing.T) {
	b, _ := newBlock()

	dead := b.NewVariable()

	// the result is dead but the op updates flags so it must survive
	b.Append(ir.Op{Kind: ir.KindSub, Dest: dead, Dest2: ir.NoVariable, Args: [4]ir.Argument{ir.Reg(0), ir.Reg(1)}, NumArgs: 2, Flags: true})
	b.Append(ir.Op{Kind: ir.KindStoreFlags, Dest: ir.NoVariable, Dest2: ir.NoVariable, Mask: ir.FlagsNZCV})

	test.Equate(t, ir.Optimise(b), 0)
	test.Equate(t, b.Len(), 2)
}

func TestConstantForwarding(t *testing.T) {
	b, _ := newBlock()

	v := b.NewVariable()
	w := b.NewVariable()

	b.Append(ir.Op{Kind: ir.KindConstant, Dest: v, Dest2: ir.NoVariable, Args: [4]ir.Argument{ir.Imm(0xff)}, NumArgs: 1})
	b.Append(ir.Op{Kind: ir.KindCopy, Dest: w, Dest2: ir.NoVariable, Args: [4]ir.Argument{ir.Var(v)}, NumArgs: 1})
	setIdx := b.Append(ir.Op{Kind: ir.KindSetRegister, Dest: ir.NoVariable, Dest2: ir.NoVariable, Args: [4]ir.Argument{ir.Reg(2), ir.Var(w)}, NumArgs: 2})

	ir.Optimise(b)

	// the copy chain collapses to an immediate and the defining ops die
	test.Equate(t, b.Len(), 1)
	op := b.Op(setIdx)
	test.Equate(t, int(op.Arg(1).Kind()), int(ir.ArgImmediate))
	test.Equate(t, op.Arg(1).Value(), 0xff)
}
