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

package disassembly_test

import (
	"strings"
	"testing"

	"github.com/jetsetilly/dynarec/disassembly"
	"github.com/jetsetilly/dynarec/test"
)

func TestDisassemble(t *testing.T) {
	s := disassembly.Disassemble(0xe3a00012)
	test.ExpectedSuccess(t, strings.Contains(s, "mov"))
	test.ExpectedSuccess(t, strings.Contains(s, "r0"))

	s = disassembly.Disassemble(0xe12fff11)
	test.ExpectedSuccess(t, strings.Contains(s, "bx"))
}

func TestUndecodableWord(t *testing.T) {
	// the permanently undefined instruction renders as raw data
	s := disassembly.Disassemble(0xe7f000f0)
	test.ExpectedSuccess(t, strings.HasPrefix(s, ".word"))
}
