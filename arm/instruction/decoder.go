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

package instruction

import (
	"github.com/jetsetilly/dynarec/arm"
	"github.com/jetsetilly/dynarec/curated"
)

// NoThumbSupport is returned by the ARM-mode decoder when asked to decode a
// thumb instruction stream. a thumb front-end must be fitted externally.
const NoThumbSupport = "decoder: no thumb front-end fitted (%08x)"

// ARMDecoder is the in-tree decoder for the 32-bit ARM instruction set. the
// triage works down "Figure 4-1 ARM instruction set formats" in the
// "ARM7TDMI Data Sheet", most specific encodings first.
type ARMDecoder struct {
	mem arm.SharedMemory
}

// NewARMDecoder is the preferred method of initialisation for the
// ARMDecoder type.
func NewARMDecoder(mem arm.SharedMemory) *ARMDecoder {
	return &ARMDecoder{mem: mem}
}

// Next implements the Decoder interface.
func (dec *ARMDecoder) Next(addr uint32, thumb bool) (Decoded, error) {
	if thumb {
		return Decoded{}, curated.Errorf(NoThumbSupport, addr)
	}

	op := dec.mem.Read32(addr)
	d := Decoded{
		Cond: arm.Condition(op >> 28),
		Raw:  op,
	}

	if d.Cond == arm.CondNV {
		// the never condition space is architecturally undefined on the
		// ARM7TDMI
		d.Instr = Undefined{Opcode: op}
		return d, nil
	}

	switch {
	case op&0x0f000000 == 0x0f000000:
		d.Instr = SoftwareInterrupt{Comment: op & 0x00ffffff}

	case op&0x0e000000 == 0x0a000000:
		d.Instr = Branch{
			Link: op&0x01000000 != 0,

			// 24-bit offset, sign extended and shifted to a word offset
			Offset: int32(op<<8) >> 6,
		}

	case op&0x0e000000 == 0x08000000:
		d.Instr = BlockDataTransfer{
			Load:         op&0x00100000 != 0,
			Rn:           uint8((op >> 16) & 0x0f),
			RegisterList: uint16(op & 0xffff),
			Up:           op&0x00800000 != 0,
			PreIndex:     op&0x01000000 != 0,
			WriteBack:    op&0x00200000 != 0,
			UserBank:     op&0x00400000 != 0,
		}

	case op&0x0c000000 == 0x04000000:
		if op&0x02000000 != 0 && op&0x00000010 != 0 {
			d.Instr = Undefined{Opcode: op}
			break
		}
		t := SingleDataTransfer{
			Load:      op&0x00100000 != 0,
			Byte:      op&0x00400000 != 0,
			Rn:        uint8((op >> 16) & 0x0f),
			Rd:        uint8((op >> 12) & 0x0f),
			Up:        op&0x00800000 != 0,
			PreIndex:  op&0x01000000 != 0,
			WriteBack: op&0x00200000 != 0,
		}
		if op&0x02000000 == 0 {
			t.Immediate = true
			t.Offset = op & 0x0fff
		} else {
			t.Rm = uint8(op & 0x0f)
			t.Shift = ShiftKind((op >> 5) & 0x03)
			t.Amount = uint8((op >> 7) & 0x1f)
		}
		d.Instr = t

	case op&0x0e000000 == 0x0c000000:
		d.Instr = CoprocessorDataTransfer{
			Load:      op&0x00100000 != 0,
			CPNum:     uint8((op >> 8) & 0x0f),
			CRd:       uint8((op >> 12) & 0x0f),
			Rn:        uint8((op >> 16) & 0x0f),
			Offset:    uint8(op & 0xff),
			Up:        op&0x00800000 != 0,
			PreIndex:  op&0x01000000 != 0,
			WriteBack: op&0x00200000 != 0,
		}

	case op&0x0f000000 == 0x0e000000:
		if op&0x00000010 != 0 {
			d.Instr = CoprocessorRegisterTransfer{
				Load:    op&0x00100000 != 0,
				CPNum:   uint8((op >> 8) & 0x0f),
				Opcode1: uint8((op >> 21) & 0x07),
				CRn:     uint8((op >> 16) & 0x0f),
				Rd:      uint8((op >> 12) & 0x0f),
				CRm:     uint8(op & 0x0f),
				Opcode2: uint8((op >> 5) & 0x07),
			}
		} else {
			d.Instr = CoprocessorDataOperation{
				CPNum:   uint8((op >> 8) & 0x0f),
				Opcode1: uint8((op >> 20) & 0x0f),
				CRd:     uint8((op >> 12) & 0x0f),
				CRn:     uint8((op >> 16) & 0x0f),
				CRm:     uint8(op & 0x0f),
				Opcode2: uint8((op >> 5) & 0x07),
			}
		}

	default:
		d.Instr = dec.decodeDataProcessingSpace(op)
	}

	return d, nil
}

// the 00x instruction space: data processing plus the encodings tucked into
// its holes (multiplies, swap, branch exchange, PSR transfers, saturating
// arithmetic, halfword transfers).
func (dec *ARMDecoder) decodeDataProcessingSpace(op uint32) Instruction {
	switch {
	case op&0x0ffffff0 == 0x012fff10:
		return BranchExchange{Rm: uint8(op & 0x0f)}

	case op&0x0fc000f0 == 0x00000090:
		return Multiply{
			Accumulate: op&0x00200000 != 0,
			SetFlags:   op&0x00100000 != 0,
			Rd:         uint8((op >> 16) & 0x0f),
			Rn:         uint8((op >> 12) & 0x0f),
			Rs:         uint8((op >> 8) & 0x0f),
			Rm:         uint8(op & 0x0f),
		}

	case op&0x0f8000f0 == 0x00800090:
		return MultiplyLong{
			Signed:     op&0x00400000 != 0,
			Accumulate: op&0x00200000 != 0,
			SetFlags:   op&0x00100000 != 0,
			RdHi:       uint8((op >> 16) & 0x0f),
			RdLo:       uint8((op >> 12) & 0x0f),
			Rs:         uint8((op >> 8) & 0x0f),
			Rm:         uint8(op & 0x0f),
		}

	case op&0x0fb00ff0 == 0x01000090:
		return Swap{
			Byte: op&0x00400000 != 0,
			Rn:   uint8((op >> 16) & 0x0f),
			Rd:   uint8((op >> 12) & 0x0f),
			Rm:   uint8(op & 0x0f),
		}

	case op&0x0e000090 == 0x00000090 && op&0x00000060 != 0:
		t := HalfwordSignedTransfer{
			Load:      op&0x00100000 != 0,
			Signed:    op&0x00000040 != 0,
			Halfword:  op&0x00000020 != 0,
			Rn:        uint8((op >> 16) & 0x0f),
			Rd:        uint8((op >> 12) & 0x0f),
			Up:        op&0x00800000 != 0,
			PreIndex:  op&0x01000000 != 0,
			WriteBack: op&0x00200000 != 0,
		}
		if op&0x00400000 != 0 {
			t.Immediate = true
			t.Offset = ((op >> 4) & 0xf0) | (op & 0x0f)
		} else {
			t.Rm = uint8(op & 0x0f)
		}
		return t

	case op&0x0f900ff0 == 0x01000050:
		return SaturatingArithmetic{
			Sub:    op&0x00200000 != 0,
			Double: op&0x00400000 != 0,
			Rn:     uint8((op >> 16) & 0x0f),
			Rd:     uint8((op >> 12) & 0x0f),
			Rm:     uint8(op & 0x0f),
		}

	case op&0x0fbf0fff == 0x010f0000:
		return PSRTransfer{
			FromPSR: true,
			Saved:   op&0x00400000 != 0,
			Rd:      uint8((op >> 12) & 0x0f),
		}

	case op&0x0fb0fff0 == 0x0120f000:
		return PSRTransfer{
			Saved:     op&0x00400000 != 0,
			FieldMask: uint8((op >> 16) & 0x0f),
			Rm:        uint8(op & 0x0f),
		}

	case op&0x0fb0f000 == 0x0320f000:
		return PSRTransfer{
			Saved:     op&0x00400000 != 0,
			FieldMask: uint8((op >> 16) & 0x0f),
			Immediate: true,
			Value:     op & 0xff,
			Rotate:    uint8((op >> 8) & 0x0f),
		}
	}

	// TST/TEQ/CMP/CMN without the S bit is an undefined hole, not a
	// comparison that discards its flags
	if op&0x01900000 == 0x01000000 {
		return Undefined{Opcode: op}
	}

	p := DataProcessing{
		Opcode:   uint8((op >> 21) & 0x0f),
		SetFlags: op&0x00100000 != 0,
		Rn:       uint8((op >> 16) & 0x0f),
		Rd:       uint8((op >> 12) & 0x0f),
	}
	if op&0x02000000 != 0 {
		p.Operand.Immediate = true
		p.Operand.Value = op & 0xff
		p.Operand.Rotate = uint8((op >> 8) & 0x0f)
	} else {
		p.Operand.Rm = uint8(op & 0x0f)
		p.Operand.Shift = ShiftKind((op >> 5) & 0x03)
		if op&0x00000010 != 0 {
			p.Operand.RegisterShift = true
			p.Operand.Rs = uint8((op >> 8) & 0x0f)
		} else {
			p.Operand.Amount = uint8((op >> 7) & 0x1f)
		}
	}
	return p
}
