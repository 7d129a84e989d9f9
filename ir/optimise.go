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

// Optimise rewrites the block in place, preserving every externally
// observable guest effect and the control-flow terminal. two passes are
// applied until a fixed point:
//
//   - forwarding: arguments referring to a variable defined by a Constant op
//     are replaced with the constant; arguments referring to a Copy of
//     another variable are replaced with the source variable. op outputs are
//     never rewritten so flag-producing ops are unaffected
//
//   - dead-op elimination: an op whose only output is a variable with no
//     recorded last use, and which has no side effect on guest-visible or
//     host-visible state, is removed
//
// the function is idempotent: running it on its own output removes nothing
// further. the number of removed ops is returned.
func Optimise(b *Block) int {
	removed := 0

	for {
		forward(b)

		n := eliminate(b)
		removed += n
		if n == 0 {
			return removed
		}
	}
}

// forward substitutes constant and copied-variable arguments. substitution
// can orphan the defining Constant/Copy ops, which the following
// elimination pass then removes.
func forward(b *Block) {
	constants := make(map[Variable]uint32)
	copies := make(map[Variable]Variable)

	for idx := b.Head(); idx != -1; idx = b.After(idx) {
		op := b.Op(idx)

		for i := 0; i < op.NumArgs; i++ {
			if op.Args[i].Kind() != ArgVariable {
				continue
			}
			v := op.Args[i].Variable()
			if c, ok := copies[v]; ok {
				v = c
				op.Args[i] = Var(v)
			}
			if c, ok := constants[v]; ok {
				op.Args[i] = Imm(c)
			}
		}

		// record forwarding candidates after rewriting the op's own
		// arguments so that copy chains collapse in one pass
		switch op.Kind {
		case KindConstant:
			constants[op.Dest] = op.Args[0].Value()
		case KindCopy:
			if op.Args[0].Kind() == ArgVariable {
				copies[op.Dest] = op.Args[0].Variable()
			} else if op.Args[0].Kind() == ArgImmediate {
				constants[op.Dest] = op.Args[0].Value()
			}
		}
	}
}

func eliminate(b *Block) int {
	lt := NewLifetime(b)
	removed := 0

	idx := b.Head()
	for idx != -1 {
		next := b.After(idx)
		op := b.Op(idx)

		if op.Dest != NoVariable && !lt.IsRead(op.Dest) &&
			(op.Dest2 == NoVariable || !lt.IsRead(op.Dest2)) &&
			!op.hasSideEffects() {
			b.Remove(idx)
			removed++
		}

		idx = next
	}

	return removed
}
