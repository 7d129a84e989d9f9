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

// Package disassembly renders guest opcodes as human-readable mnemonics for
// log entries and the driver's trace output. it has no part in translation;
// the recompiler never consults it.
package disassembly

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/arch/arm/armasm"
)

// Disassemble one ARM-mode opcode into GNU assembler syntax. words that do
// not decode are rendered as raw data.
func Disassemble(opcode uint32) string {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], opcode)

	inst, err := armasm.Decode(b[:], armasm.ModeARM)
	if err != nil {
		return fmt.Sprintf(".word 0x%08x", opcode)
	}
	return armasm.GNUSyntax(inst)
}
