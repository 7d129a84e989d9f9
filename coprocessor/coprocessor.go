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

// Package coprocessor models the guest coprocessors reachable through the
// MRC and MCR instructions. the set of variants is closed: Absent for
// coprocessors that are not fitted, DebugStub for CP14 and SystemControl for
// CP15. the translation core only emits generic coprocessor transfer ops;
// the backend resolves them against a Bank of these variants at
// code-generation time.
package coprocessor

import (
	"github.com/jetsetilly/dynarec/logger"
)

// Transfer selects a coprocessor register: the fields of an MRC/MCR
// instruction other than the coprocessor number.
type Transfer struct {
	Opcode1 uint8
	CRn     uint8
	CRm     uint8
	Opcode2 uint8
}

// Coprocessor is the capability set shared by every coprocessor variant.
// invalid register selections are not errors: loads of registers the variant
// does not implement read as zero, matching the hardware posture for absent
// coprocessors.
type Coprocessor interface {
	IsPresent() bool
	SupportsExtendedTransfers() bool

	// true if a store to the selected register has effects beyond the
	// register itself. such stores must never be eliminated
	StoreHasSideEffects(t Transfer) bool

	Load(t Transfer) uint32
	Store(t Transfer, v uint32)
}

// Absent is a coprocessor that is not fitted. reads return zero and writes
// are ignored.
type Absent struct{}

// IsPresent implements the Coprocessor interface.
func (Absent) IsPresent() bool {
	return false
}

// SupportsExtendedTransfers implements the Coprocessor interface.
func (Absent) SupportsExtendedTransfers() bool {
	return false
}

// StoreHasSideEffects implements the Coprocessor interface.
func (Absent) StoreHasSideEffects(_ Transfer) bool {
	return false
}

// Load implements the Coprocessor interface.
func (Absent) Load(_ Transfer) uint32 {
	return 0
}

// Store implements the Coprocessor interface.
func (Absent) Store(_ Transfer, _ uint32) {
}

// DebugStub stands in for the CP14 debug coprocessor. transfers are logged
// and otherwise ignored; the communication channel register reads as empty.
type DebugStub struct{}

// IsPresent implements the Coprocessor interface.
func (DebugStub) IsPresent() bool {
	return true
}

// SupportsExtendedTransfers implements the Coprocessor interface.
func (DebugStub) SupportsExtendedTransfers() bool {
	return false
}

// StoreHasSideEffects implements the Coprocessor interface.
func (DebugStub) StoreHasSideEffects(_ Transfer) bool {
	return false
}

// Load implements the Coprocessor interface.
func (DebugStub) Load(t Transfer) uint32 {
	logger.Logf("CP14", "read c%d,c%d,%d", t.CRn, t.CRm, t.Opcode2)
	return 0
}

// Store implements the Coprocessor interface.
func (DebugStub) Store(t Transfer, v uint32) {
	logger.Logf("CP14", "write c%d,c%d,%d <- %08x", t.CRn, t.CRm, t.Opcode2, v)
}

// NumCoprocessors is the size of the coprocessor address space.
const NumCoprocessors = 16

// Bank is the set of coprocessors addressed by the instruction set. slots
// without an attached variant behave as Absent.
type Bank struct {
	cops [NumCoprocessors]Coprocessor
}

// NewBank is the preferred method of initialisation for the Bank type. every
// slot starts Absent.
func NewBank() *Bank {
	bk := &Bank{}
	for i := range bk.cops {
		bk.cops[i] = Absent{}
	}
	return bk
}

// Attach fits a coprocessor variant into a slot.
func (bk *Bank) Attach(n int, c Coprocessor) {
	bk.cops[n] = c
}

// Coprocessor returns the variant in slot n.
func (bk *Bank) Coprocessor(n uint8) Coprocessor {
	return bk.cops[n&0x0f]
}
