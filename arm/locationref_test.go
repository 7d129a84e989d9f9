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

package arm_test

import (
	"testing"

	"github.com/jetsetilly/dynarec/arm"
	"github.com/jetsetilly/dynarec/test"
)

func TestLocationRefRoundTrip(t *testing.T) {
	pcs := []uint32{0x00000000, 0x00000004, 0x08000100, 0xfffffffc}

	for _, pc := range pcs {
		for _, mode := range arm.Modes {
			for _, thumb := range []bool{false, true} {
				l := arm.NewLocationRef(pc, mode, thumb)
				test.Equate(t, l.PC(), pc)
				test.Equate(t, int(l.Mode()), int(mode))
				test.Equate(t, l.IsThumbMode(), thumb)
			}
		}
	}
}

func TestLocationRefIdentity(t *testing.T) {
	// identical contexts produce identical keys
	a := arm.NewLocationRef(0x1000, arm.ModeUser, false)
	b := arm.NewLocationRef(0x1000, arm.ModeUser, false)
	test.ExpectedSuccess(t, a == b)

	// any differing component produces a different key
	test.ExpectedFailure(t, a == arm.NewLocationRef(0x1004, arm.ModeUser, false))
	test.ExpectedFailure(t, a == arm.NewLocationRef(0x1000, arm.ModeSupervisor, false))
	test.ExpectedFailure(t, a == arm.NewLocationRef(0x1000, arm.ModeUser, true))
}
