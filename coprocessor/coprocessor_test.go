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

package coprocessor_test

import (
	"testing"

	"github.com/jetsetilly/dynarec/arm"
	"github.com/jetsetilly/dynarec/coprocessor"
	"github.com/jetsetilly/dynarec/test"
)

func TestBankDefaultsToAbsent(t *testing.T) {
	bk := coprocessor.NewBank()

	for n := 0; n < coprocessor.NumCoprocessors; n++ {
		cp := bk.Coprocessor(uint8(n))
		test.ExpectedFailure(t, cp.IsPresent())
		test.Equate(t, cp.Load(coprocessor.Transfer{CRn: 1}), 0)
	}
}

func TestSystemControlRegisters(t *testing.T) {
	st := arm.NewState()
	cp := coprocessor.NewSystemControl(st)

	// the ID register is constant and writes to it are ignored
	id := cp.Load(coprocessor.Transfer{CRn: 0})
	test.ExpectedSuccess(t, id != 0)
	cp.Store(coprocessor.Transfer{CRn: 0}, 0xdeadbeef)
	test.Equate(t, cp.Load(coprocessor.Transfer{CRn: 0}), id)

	// protection region registers are stateful
	cp.Store(coprocessor.Transfer{CRn: 6, CRm: 3}, 0x0000211f)
	test.Equate(t, cp.Load(coprocessor.Transfer{CRn: 6, CRm: 3}), 0x0000211f)
	test.Equate(t, cp.Load(coprocessor.Transfer{CRn: 6, CRm: 4}), 0)

	// unimplemented selections read as zero
	test.Equate(t, cp.Load(coprocessor.Transfer{CRn: 13}), 0)
}

func TestSystemControlHighVectors(t *testing.T) {
	st := arm.NewState()
	cp := coprocessor.NewSystemControl(st)

	test.Equate(t, st.VectorBase, 0)

	cp.Store(coprocessor.Transfer{CRn: 1}, 1<<13)
	test.Equate(t, st.VectorBase, 0xffff0000)
	test.ExpectedSuccess(t, cp.StoreHasSideEffects(coprocessor.Transfer{CRn: 1}))

	cp.Store(coprocessor.Transfer{CRn: 1}, 0)
	test.Equate(t, st.VectorBase, 0)
}
