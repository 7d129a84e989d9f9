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

// Package instruction defines the boundary between the bit-level decoder and
// the translator: a closed set of typed instruction descriptors, one per
// lowering routine. the descriptors are instruction-set neutral; an ARM-mode
// decoder is provided in this package and a thumb front-end can be fitted
// externally through the Decoder interface.
package instruction

import "github.com/jetsetilly/dynarec/arm"

// Instruction is the sealed interface over the descriptor set.
type Instruction interface {
	instruction()
}

// Decoded is one decoder result: the descriptor, the condition field and the
// raw opcode (kept for logging and disassembly).
type Decoded struct {
	Cond  arm.Condition
	Instr Instruction
	Raw   uint32
}

// Decoder produces one typed instruction descriptor per call for the
// current guest PC and instruction-set mode. the code fetch is a half-word
// read in thumb mode and a word read in ARM mode.
type Decoder interface {
	Next(addr uint32, thumb bool) (Decoded, error)
}

// ShiftKind enumerates the barrel shifter operations as encoded in an
// instruction's shift field.
type ShiftKind uint8

const (
	ShiftLSL ShiftKind = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

// Operand2 is the shifter operand of a data processing instruction: either
// an 8-bit immediate with an even rotation, or a register shifted by an
// immediate amount or by the bottom byte of another register.
type Operand2 struct {
	Immediate bool

	// immediate form
	Value  uint32
	Rotate uint8

	// register form. when RegisterShift is true the amount is in Rs,
	// otherwise Amount is an immediate. an immediate amount of zero means
	// LSL #0 (no shift), LSR/ASR #32, or RRX for the ROR encoding
	Rm            uint8
	Shift         ShiftKind
	Amount        uint8
	Rs            uint8
	RegisterShift bool
}

// data processing opcode values, as encoded.
const (
	OpAND uint8 = iota
	OpEOR
	OpSUB
	OpRSB
	OpADD
	OpADC
	OpSBC
	OpRSC
	OpTST
	OpTEQ
	OpCMP
	OpCMN
	OpORR
	OpMOV
	OpBIC
	OpMVN
)

// DataProcessing covers the AND..MVN group, including the comparison forms.
type DataProcessing struct {
	Opcode   uint8
	SetFlags bool
	Rn       uint8
	Rd       uint8
	Operand  Operand2
}

// Multiply is MUL and MLA.
type Multiply struct {
	Accumulate bool
	SetFlags   bool
	Rd         uint8
	Rn         uint8
	Rs         uint8
	Rm         uint8
}

// MultiplyLong is UMULL/UMLAL/SMULL/SMLAL.
type MultiplyLong struct {
	Signed     bool
	Accumulate bool
	SetFlags   bool
	RdHi       uint8
	RdLo       uint8
	Rs         uint8
	Rm         uint8
}

// PSRTransfer is MRS and MSR.
type PSRTransfer struct {
	// true for MRS (PSR to register)
	FromPSR bool

	// SPSR rather than CPSR
	Saved bool

	// MRS destination
	Rd uint8

	// MSR source and field selection
	FieldMask uint8
	Immediate bool
	Value     uint32
	Rotate    uint8
	Rm        uint8
}

// SingleDataTransfer is LDR/STR and their byte forms.
type SingleDataTransfer struct {
	Load bool
	Byte bool
	Rn   uint8
	Rd   uint8

	Immediate bool
	Offset    uint32
	Rm        uint8
	Shift     ShiftKind
	Amount    uint8

	Up        bool
	PreIndex  bool
	WriteBack bool
}

// HalfwordSignedTransfer is LDRH/STRH/LDRSB/LDRSH.
type HalfwordSignedTransfer struct {
	Load     bool
	Signed   bool
	Halfword bool
	Rn       uint8
	Rd       uint8

	Immediate bool
	Offset    uint32
	Rm        uint8

	Up        bool
	PreIndex  bool
	WriteBack bool
}

// BlockDataTransfer is LDM/STM. UserBank is the S bit: the transfer reads or
// writes the user-mode register bank regardless of the current mode (or,
// for an LDM with R15 in the list, restores CPSR from SPSR).
type BlockDataTransfer struct {
	Load         bool
	Rn           uint8
	RegisterList uint16
	Up           bool
	PreIndex     bool
	WriteBack    bool
	UserBank     bool
}

// Swap is SWP and SWPB.
type Swap struct {
	Byte bool
	Rn   uint8
	Rd   uint8
	Rm   uint8
}

// Branch is B and BL. the offset is the sign-extended, word-aligned offset
// relative to the instruction address plus eight.
type Branch struct {
	Link   bool
	Offset int32
}

// BranchExchange is BX. bit 0 of the target register selects the thumb
// instruction set.
type BranchExchange struct {
	Rm uint8
}

// SaturatingArithmetic is the QADD/QSUB/QDADD/QDSUB group.
type SaturatingArithmetic struct {
	Sub    bool
	Double bool
	Rd     uint8
	Rm     uint8
	Rn     uint8
}

// CoprocessorRegisterTransfer is MRC and MCR.
type CoprocessorRegisterTransfer struct {
	Load    bool
	CPNum   uint8
	Opcode1 uint8
	CRn     uint8
	Rd      uint8
	CRm     uint8
	Opcode2 uint8
}

// CoprocessorDataTransfer is LDC and STC.
type CoprocessorDataTransfer struct {
	Load      bool
	CPNum     uint8
	CRd       uint8
	Rn        uint8
	Offset    uint8
	Up        bool
	PreIndex  bool
	WriteBack bool
}

// CoprocessorDataOperation is CDP.
type CoprocessorDataOperation struct {
	CPNum   uint8
	Opcode1 uint8
	CRd     uint8
	CRn     uint8
	CRm     uint8
	Opcode2 uint8
}

// SoftwareInterrupt is SWI.
type SoftwareInterrupt struct {
	Comment uint32
}

// Undefined is any encoding in the architecturally undefined space.
type Undefined struct {
	Opcode uint32
}

func (DataProcessing) instruction()              {}
func (Multiply) instruction()                    {}
func (MultiplyLong) instruction()                {}
func (PSRTransfer) instruction()                 {}
func (SingleDataTransfer) instruction()          {}
func (HalfwordSignedTransfer) instruction()      {}
func (BlockDataTransfer) instruction()           {}
func (Swap) instruction()                        {}
func (Branch) instruction()                      {}
func (BranchExchange) instruction()              {}
func (SaturatingArithmetic) instruction()        {}
func (CoprocessorRegisterTransfer) instruction() {}
func (CoprocessorDataTransfer) instruction()     {}
func (CoprocessorDataOperation) instruction()    {}
func (SoftwareInterrupt) instruction()           {}
func (Undefined) instruction()                   {}
