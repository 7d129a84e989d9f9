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

// Lifetime is the result of a single forward pass over a finished block: for
// every variable, the last op that reads it. the table is the authoritative
// signal for the host backend to release a register/spill assignment and for
// the optimiser to consider a defining op removable.
type Lifetime struct {
	// indexed by variable; the index (into the block op table) of the last
	// reading op, or -1 if the variable is never read
	lastUse []int
}

// NewLifetime builds the lifetime table for a block. the pass is forward and
// monotonic so the most recent record for a variable wins.
func NewLifetime(b *Block) *Lifetime {
	lt := &Lifetime{
		lastUse: make([]int, b.NumVariables()),
	}
	for i := range lt.lastUse {
		lt.lastUse[i] = -1
	}

	for idx := b.Head(); idx != -1; idx = b.After(idx) {
		op := b.Op(idx)
		for i := 0; i < op.NumArgs; i++ {
			if op.Args[i].Kind() == ArgVariable {
				lt.lastUse[op.Args[i].Variable()] = idx
			}
		}
	}

	return lt
}

// IsEndOfLife returns true exactly when the op at idx is the recorded last
// use of the variable.
func (lt *Lifetime) IsEndOfLife(v Variable, idx int) bool {
	if int(v) >= len(lt.lastUse) {
		return false
	}
	return lt.lastUse[v] == idx
}

// IsRead returns true if the variable is read by any op. a variable with no
// recorded last use is dead on arrival.
func (lt *Lifetime) IsRead(v Variable) bool {
	if int(v) < 0 || int(v) >= len(lt.lastUse) {
		return false
	}
	return lt.lastUse[v] != -1
}
