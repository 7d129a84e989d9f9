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
	"io"

	"github.com/bradleyjkemp/memviz"
)

// mirror of the op list with exported fields and real pointers, built only
// for visualisation. memviz walks the structure by reflection
type dotOp struct {
	Op       string
	Next     *dotOp
	Terminal string `json:",omitempty"`
}

type dotBlock struct {
	Location string
	Ops      *dotOp
}

// WriteDot renders the block's op list as a graphviz dot graph. useful when
// debugging a translation: pipe the output through dot -Tsvg.
func (b *Block) WriteDot(w io.Writer) {
	d := &dotBlock{Location: b.Location.String()}

	var last *dotOp
	for idx := b.Head(); idx != -1; idx = b.After(idx) {
		n := &dotOp{Op: b.Op(idx).String()}
		if last == nil {
			d.Ops = n
		} else {
			last.Next = n
		}
		last = n
	}

	term := &dotOp{Op: "terminal", Terminal: b.Terminal.Kind.String()}
	if last == nil {
		d.Ops = term
	} else {
		last.Next = term
	}

	memviz.Map(w, d)
}
