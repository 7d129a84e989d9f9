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

	"github.com/jetsetilly/dynarec/arena"
	"github.com/jetsetilly/dynarec/arm"
)

// TerminalKind describes how control leaves a basic block.
type TerminalKind int

const (
	// execution continues at the next sequential instruction
	TerminalFallthrough TerminalKind = iota

	// a branch with a statically known target. the terminal condition
	// selects between the target and the fallthrough address at run time
	TerminalBranch

	// the next program counter is read from guest R15 at run time. used for
	// branch-exchange and for any instruction that writes the PC directly
	TerminalReturn

	// an undefined instruction trap. the PC is left at the offending
	// instruction for the execution environment
	TerminalUndefined

	// translation stopped before an instruction it cannot lower. the PC is
	// left at the boundary as an interpreter/fallback point
	TerminalUnimplemented
)

func (k TerminalKind) String() string {
	switch k {
	case TerminalFallthrough:
		return "fallthrough"
	case TerminalBranch:
		return "branch"
	case TerminalReturn:
		return "return"
	case TerminalUndefined:
		return "undefined"
	case TerminalUnimplemented:
		return "unimplemented"
	}
	panic("unhandled terminal kind")
}

// Terminal is the terminal condition of a basic block.
type Terminal struct {
	Kind TerminalKind

	// condition for TerminalBranch. CondAL for an unconditional branch
	Cond arm.Condition

	// branch target for TerminalBranch
	Target uint32

	// the address of the next sequential instruction. meaningful for every
	// terminal kind except TerminalReturn
	Next uint32
}

// Block is a basic block: a maximal straight-line run of lowered IR ending
// in a control-flow transfer. blocks are created by the translator, mutated
// in place by the optimiser, read by the host backend and finally reclaimed
// by the arena.
type Block struct {
	// the block-cache identity. constructed at translation start; immutable
	Location arm.LocationRef

	// the whole block is predicated on this condition. blocks holding the
	// ops of a single conditional instruction use this; everything else is
	// CondAL
	Cond arm.Condition

	Terminal Terminal

	// guest cycles consumed by one execution of the block
	Cycles int

	pool *arena.Pool[Op]

	// the op table. the intrusive next/prev links in Op index this table.
	// removed ops leave a stale (freed) entry behind; only entries reachable
	// from head are part of the block
	ops  []arena.Entry[Op]
	head int
	tail int

	variables int
}

// Init prepares a zero-valued Block freshly allocated from the arena. the
// pool argument is the arena pool from which the block's ops are allocated.
func (b *Block) Init(pool *arena.Pool[Op], loc arm.LocationRef) {
	b.Location = loc
	b.Cond = arm.CondAL
	b.Terminal = Terminal{Kind: TerminalFallthrough, Cond: arm.CondAL, Next: loc.PC()}
	b.Cycles = 0
	b.pool = pool
	b.ops = b.ops[:0]
	b.head = -1
	b.tail = -1
	b.variables = 0
}

// NewVariable extends the block's temporary table by one entry. variables
// are created monotonically and never reused within a block.
func (b *Block) NewVariable() Variable {
	v := Variable(b.variables)
	b.variables++
	return v
}

// NumVariables returns the size of the block's temporary table.
func (b *Block) NumVariables() int {
	return b.variables
}

// Append allocates an op from the arena, copies the prototype into it and
// links it at the tail of the block. the returned index is stable for the
// life of the block.
func (b *Block) Append(proto Op) int {
	e := b.pool.Allocate()
	op := e.Get()
	*op = proto
	op.next = -1
	op.prev = b.tail

	b.ops = append(b.ops, e)
	idx := len(b.ops) - 1

	if b.tail != -1 {
		b.Op(b.tail).next = idx
	} else {
		b.head = idx
	}
	b.tail = idx

	return idx
}

// Remove unlinks the op at idx and returns its storage to the arena.
func (b *Block) Remove(idx int) {
	op := b.Op(idx)

	if op.prev != -1 {
		b.Op(op.prev).next = op.next
	} else {
		b.head = op.next
	}
	if op.next != -1 {
		b.Op(op.next).prev = op.prev
	} else {
		b.tail = op.prev
	}

	b.ops[idx].Free()
}

// Op returns the op at idx. the index must be live (reachable from Head).
func (b *Block) Op(idx int) *Op {
	op := b.ops[idx].Get()
	if op == nil {
		panic("dereference of op invalidated by arena reset")
	}
	return op
}

// Head returns the index of the first op, or -1 for an empty block.
func (b *Block) Head() int {
	return b.head
}

// After returns the index of the op following idx, or -1 at the tail.
func (b *Block) After(idx int) int {
	return b.Op(idx).next
}

// Len counts the ops currently linked into the block.
func (b *Block) Len() int {
	n := 0
	for idx := b.head; idx != -1; idx = b.Op(idx).next {
		n++
	}
	return n
}

func (b *Block) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("block %s", b.Location))
	if b.Cond != arm.CondAL {
		s.WriteString(fmt.Sprintf(" (%s)", b.Cond))
	}
	s.WriteString("\n")
	for idx := b.head; idx != -1; idx = b.Op(idx).next {
		s.WriteString(fmt.Sprintf("\t%s\n", b.Op(idx).String()))
	}
	s.WriteString(fmt.Sprintf("\t-> %s", b.Terminal.Kind))
	if b.Terminal.Kind == TerminalBranch {
		s.WriteString(fmt.Sprintf(" %08x (%s)", b.Terminal.Target, b.Terminal.Cond))
	}
	return s.String()
}
