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

func TestRegisterBanking(t *testing.T) {
	s := arm.NewState()
	s.SetMode(arm.ModeUser)

	s.SetRegister(arm.RegSP, false, 0x1000)
	s.SetRegister(8, false, 0x88)

	// supervisor mode banks r13/r14 but shares r8-r12 with the user bank
	s.SetMode(arm.ModeSupervisor)
	test.Equate(t, s.Register(8, false), 0x88)
	s.SetRegister(arm.RegSP, false, 0x2000)
	test.Equate(t, s.Register(arm.RegSP, false), 0x2000)

	// the user-bank override reads through to the user copy
	test.Equate(t, s.Register(arm.RegSP, true), 0x1000)

	// FIQ banks r8-r14
	s.SetMode(arm.ModeFIQ)
	test.Equate(t, s.Register(8, false), 0)
	test.Equate(t, s.Register(8, true), 0x88)
	s.SetRegister(8, false, 0xf1)

	// returning to user mode restores the user view
	s.SetMode(arm.ModeUser)
	test.Equate(t, s.Register(arm.RegSP, false), 0x1000)
	test.Equate(t, s.Register(8, false), 0x88)

	// and the FIQ bank is preserved
	s.SetMode(arm.ModeFIQ)
	test.Equate(t, s.Register(8, false), 0xf1)
}

func TestSPSRFailsClosed(t *testing.T) {
	s := arm.NewState()

	s.SetMode(arm.ModeUser)
	_, ok := s.SPSR()
	test.ExpectedFailure(t, ok)

	s.SetMode(arm.ModeSystem)
	_, ok = s.SPSR()
	test.ExpectedFailure(t, ok)

	s.SetMode(arm.ModeIRQ)
	spsr, ok := s.SPSR()
	test.ExpectedSuccess(t, ok)
	spsr.Carry = true

	// each mode banks its own SPSR
	s.SetMode(arm.ModeSupervisor)
	spsr, _ = s.SPSR()
	test.ExpectedFailure(t, spsr.Carry)

	s.SetMode(arm.ModeIRQ)
	spsr, _ = s.SPSR()
	test.ExpectedSuccess(t, spsr.Carry)
}

func TestCPSRRoundTrip(t *testing.T) {
	sr := arm.Status{}
	sr.Negative = true
	sr.Carry = true
	sr.Saturation = true
	sr.Thumb = true
	sr.Mode = arm.ModeAbort

	var rt arm.Status
	rt.SetCPSR(sr.CPSR())
	test.Equate(t, rt.CPSR(), sr.CPSR())
	test.ExpectedSuccess(t, rt.Negative)
	test.ExpectedFailure(t, rt.Zero)
	test.ExpectedSuccess(t, rt.Saturation)
	test.Equate(t, int(rt.Mode), int(arm.ModeAbort))
}

func TestSetFieldsUserMode(t *testing.T) {
	sr := arm.Status{Mode: arm.ModeUser}

	// control field writes are ignored when unprivileged
	sr.SetFields(0xf00000d3, arm.PSRControl|arm.PSRFlags, false)
	test.Equate(t, int(sr.Mode), int(arm.ModeUser))
	test.ExpectedSuccess(t, sr.Negative)

	// and applied when privileged
	sr.SetFields(0x000000d3, arm.PSRControl, true)
	test.Equate(t, int(sr.Mode), int(arm.ModeSupervisor))
}
