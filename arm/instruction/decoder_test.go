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

package instruction_test

import (
	"encoding/binary"
	"testing"

	"github.com/jetsetilly/dynarec/arm"
	"github.com/jetsetilly/dynarec/arm/instruction"
	"github.com/jetsetilly/dynarec/test"
)

func decodeOne(t *testing.T, opcode uint32) instruction.Decoded {
	t.Helper()

	mem := arm.NewRAM(0x1000, 16)
	binary.LittleEndian.PutUint32(mem.Data, opcode)

	dec := instruction.NewARMDecoder(mem)
	d, err := dec.Next(0x1000, false)
	if err != nil {
		t.Fatalf("decode of %08x failed: %v", opcode, err)
	}
	test.Equate(t, d.Raw, opcode)

	return d
}

func TestDecodeDataProcessing(t *testing.T) {
	// MOV R0, #0x12
	d := decodeOne(t, 0xe3a00012)
	test.Equate(t, int(d.Cond), int(arm.CondAL))
	p, ok := d.Instr.(instruction.DataProcessing)
	test.ExpectedSuccess(t, ok)
	test.Equate(t, int(p.Opcode), int(instruction.OpMOV))
	test.ExpectedFailure(t, p.SetFlags)
	test.Equate(t, int(p.Rd), 0)
	test.ExpectedSuccess(t, p.Operand.Immediate)
	test.Equate(t, p.Operand.Value, 0x12)
	test.Equate(t, int(p.Operand.Rotate), 0)

	// ADDS R1, R2, R3, LSL #4
	d = decodeOne(t, 0xe0921203)
	p, ok = d.Instr.(instruction.DataProcessing)
	test.ExpectedSuccess(t, ok)
	test.Equate(t, int(p.Opcode), int(instruction.OpADD))
	test.ExpectedSuccess(t, p.SetFlags)
	test.Equate(t, int(p.Rn), 2)
	test.Equate(t, int(p.Rd), 1)
	test.ExpectedFailure(t, p.Operand.Immediate)
	test.Equate(t, int(p.Operand.Rm), 3)
	test.Equate(t, int(p.Operand.Shift), int(instruction.ShiftLSL))
	test.Equate(t, int(p.Operand.Amount), 4)
	test.ExpectedFailure(t, p.Operand.RegisterShift)

	// EORNE R4, R5, R6, LSR R7
	d = decodeOne(t, 0x10254736)
	test.Equate(t, int(d.Cond), int(arm.CondNE))
	p, ok = d.Instr.(instruction.DataProcessing)
	test.ExpectedSuccess(t, ok)
	test.Equate(t, int(p.Opcode), int(instruction.OpEOR))
	test.ExpectedSuccess(t, p.Operand.RegisterShift)
	test.Equate(t, int(p.Operand.Rs), 7)
	test.Equate(t, int(p.Operand.Shift), int(instruction.ShiftLSR))
}

func TestDecodeBranch(t *testing.T) {
	// B . (offset -8 after pipeline adjustment)
	d := decodeOne(t, 0xeafffffe)
	b, ok := d.Instr.(instruction.Branch)
	test.ExpectedSuccess(t, ok)
	test.ExpectedFailure(t, b.Link)
	test.Equate(t, int(b.Offset), -8)

	// BL +16
	d = decodeOne(t, 0xeb000004)
	b, ok = d.Instr.(instruction.Branch)
	test.ExpectedSuccess(t, ok)
	test.ExpectedSuccess(t, b.Link)
	test.Equate(t, int(b.Offset), 16)

	// BX R1
	d = decodeOne(t, 0xe12fff11)
	x, ok := d.Instr.(instruction.BranchExchange)
	test.ExpectedSuccess(t, ok)
	test.Equate(t, int(x.Rm), 1)
}

func TestDecodeTransfers(t *testing.T) {
	// LDR R1, [R0, #4]
	d := decodeOne(t, 0xe5901004)
	s, ok := d.Instr.(instruction.SingleDataTransfer)
	test.ExpectedSuccess(t, ok)
	test.ExpectedSuccess(t, s.Load)
	test.ExpectedFailure(t, s.Byte)
	test.ExpectedSuccess(t, s.Immediate)
	test.Equate(t, s.Offset, 4)
	test.ExpectedSuccess(t, s.PreIndex)
	test.ExpectedSuccess(t, s.Up)

	// STRB R2, [R3], #-1
	d = decodeOne(t, 0xe4432001)
	s, ok = d.Instr.(instruction.SingleDataTransfer)
	test.ExpectedSuccess(t, ok)
	test.ExpectedFailure(t, s.Load)
	test.ExpectedSuccess(t, s.Byte)
	test.ExpectedFailure(t, s.PreIndex)
	test.ExpectedFailure(t, s.Up)

	// LDRH R1, [R2, #4]
	d = decodeOne(t, 0xe1d210b4)
	h, ok := d.Instr.(instruction.HalfwordSignedTransfer)
	test.ExpectedSuccess(t, ok)
	test.ExpectedSuccess(t, h.Load)
	test.ExpectedSuccess(t, h.Halfword)
	test.ExpectedFailure(t, h.Signed)
	test.ExpectedSuccess(t, h.Immediate)
	test.Equate(t, h.Offset, 4)

	// STMDB SP!, {R4, LR}
	d = decodeOne(t, 0xe92d4010)
	m, ok := d.Instr.(instruction.BlockDataTransfer)
	test.ExpectedSuccess(t, ok)
	test.ExpectedFailure(t, m.Load)
	test.Equate(t, int(m.Rn), int(arm.RegSP))
	test.Equate(t, int(m.RegisterList), 0x4010)
	test.ExpectedSuccess(t, m.PreIndex)
	test.ExpectedFailure(t, m.Up)
	test.ExpectedSuccess(t, m.WriteBack)
	test.ExpectedFailure(t, m.UserBank)

	// SWP R0, R1, [R2]
	d = decodeOne(t, 0xe1020091)
	w, ok := d.Instr.(instruction.Swap)
	test.ExpectedSuccess(t, ok)
	test.ExpectedFailure(t, w.Byte)
	test.Equate(t, int(w.Rn), 2)
	test.Equate(t, int(w.Rd), 0)
	test.Equate(t, int(w.Rm), 1)
}

func TestDecodeMultiplies(t *testing.T) {
	// MUL R3, R1, R2
	d := decodeOne(t, 0xe0030291)
	m, ok := d.Instr.(instruction.Multiply)
	test.ExpectedSuccess(t, ok)
	test.ExpectedFailure(t, m.Accumulate)
	test.Equate(t, int(m.Rd), 3)
	test.Equate(t, int(m.Rs), 2)
	test.Equate(t, int(m.Rm), 1)

	// UMULLS R4, R5, R6, R7
	d = decodeOne(t, 0xe0954796)
	l, ok := d.Instr.(instruction.MultiplyLong)
	test.ExpectedSuccess(t, ok)
	test.ExpectedFailure(t, l.Signed)
	test.ExpectedSuccess(t, l.SetFlags)
	test.Equate(t, int(l.RdHi), 5)
	test.Equate(t, int(l.RdLo), 4)
	test.Equate(t, int(l.Rs), 7)
	test.Equate(t, int(l.Rm), 6)
}

func TestDecodePSRAndSaturating(t *testing.T) {
	// MRS R1, CPSR
	d := decodeOne(t, 0xe10f1000)
	p, ok := d.Instr.(instruction.PSRTransfer)
	test.ExpectedSuccess(t, ok)
	test.ExpectedSuccess(t, p.FromPSR)
	test.ExpectedFailure(t, p.Saved)
	test.Equate(t, int(p.Rd), 1)

	// MSR CPSR_fc, R1
	d = decodeOne(t, 0xe129f001)
	p, ok = d.Instr.(instruction.PSRTransfer)
	test.ExpectedSuccess(t, ok)
	test.ExpectedFailure(t, p.FromPSR)
	test.Equate(t, int(p.FieldMask), 0b1001)
	test.Equate(t, int(p.Rm), 1)

	// MSR CPSR_f, #0xf0000000
	d = decodeOne(t, 0xe328f20f)
	p, ok = d.Instr.(instruction.PSRTransfer)
	test.ExpectedSuccess(t, ok)
	test.ExpectedSuccess(t, p.Immediate)
	test.Equate(t, int(p.FieldMask), int(arm.PSRFlags))

	// QADD R0, R2, R1
	d = decodeOne(t, 0xe1010052)
	q, ok := d.Instr.(instruction.SaturatingArithmetic)
	test.ExpectedSuccess(t, ok)
	test.ExpectedFailure(t, q.Sub)
	test.ExpectedFailure(t, q.Double)
	test.Equate(t, int(q.Rn), 1)
	test.Equate(t, int(q.Rd), 0)
	test.Equate(t, int(q.Rm), 2)

	// QDSUB R3, R4, R5
	d = decodeOne(t, 0xe1653054)
	q, ok = d.Instr.(instruction.SaturatingArithmetic)
	test.ExpectedSuccess(t, ok)
	test.ExpectedSuccess(t, q.Sub)
	test.ExpectedSuccess(t, q.Double)
}

func TestDecodeCoprocessorAndTraps(t *testing.T) {
	// MRC p15, 0, R0, c0, c0, 0
	d := decodeOne(t, 0xee100f10)
	c, ok := d.Instr.(instruction.CoprocessorRegisterTransfer)
	test.ExpectedSuccess(t, ok)
	test.ExpectedSuccess(t, c.Load)
	test.Equate(t, int(c.CPNum), 15)
	test.Equate(t, int(c.CRn), 0)
	test.Equate(t, int(c.Rd), 0)

	// MCR p15, 0, R1, c1, c0, 0
	d = decodeOne(t, 0xee011f10)
	c, ok = d.Instr.(instruction.CoprocessorRegisterTransfer)
	test.ExpectedSuccess(t, ok)
	test.ExpectedFailure(t, c.Load)
	test.Equate(t, int(c.CRn), 1)

	// SWI 0x11
	d = decodeOne(t, 0xef000011)
	s, ok := d.Instr.(instruction.SoftwareInterrupt)
	test.ExpectedSuccess(t, ok)
	test.Equate(t, s.Comment, 0x11)

	// the defined undefined encoding space (register offset with bit 4 set)
	d = decodeOne(t, 0xe7f000f0)
	_, ok = d.Instr.(instruction.Undefined)
	test.ExpectedSuccess(t, ok)

	// the never condition
	d = decodeOne(t, 0xf3a00012)
	_, ok = d.Instr.(instruction.Undefined)
	test.ExpectedSuccess(t, ok)
}

func TestDecodeThumbUnsupported(t *testing.T) {
	mem := arm.NewRAM(0x1000, 16)
	dec := instruction.NewARMDecoder(mem)
	_, err := dec.Next(0x1000, true)
	test.ExpectedFailure(t, err)
}
