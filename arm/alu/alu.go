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

// Package alu implements the bit-exact arithmetic primitives that every IR
// lowering and every code generator must reproduce: the barrel shifter with
// its special-cased carry-out rules, flagged addition/subtraction, and the
// saturating arithmetic used by the QADD/QSUB group.
//
// the shift functions take the shift amount as a full 32-bit value because
// register-controlled shifts use the bottom byte of a register and amounts
// of 32 and above have architecturally defined results.
package alu

import "math/bits"

// Carry is the tri-state carry-out of a shift operation. ARM defines some
// shift amounts (notably zero) as leaving the carry flag unaffected.
type Carry int

const (
	CarryUnaffected Carry = iota
	CarryClear
	CarrySet
)

func carry(b bool) Carry {
	if b {
		return CarrySet
	}
	return CarryClear
}

// Lsl is logical shift left with carry-out.
//
//	amount == 0     result v, carry unaffected
//	amount < 32     carry is bit (32-amount) of v
//	amount == 32    result 0, carry is bit 0 of v
//	amount > 32     result 0, carry clear
func Lsl(v uint32, amount uint32) (uint32, Carry) {
	switch {
	case amount == 0:
		return v, CarryUnaffected
	case amount < 32:
		return v << amount, carry((v>>(32-amount))&0x01 == 0x01)
	case amount == 32:
		return 0, carry(v&0x01 == 0x01)
	}
	return 0, CarryClear
}

// Lsr is logical shift right with carry-out.
//
//	amount == 0     result v, carry unaffected
//	amount < 32     carry is bit (amount-1) of v
//	amount == 32    result 0, carry is bit 31 of v
//	amount > 32     result 0, carry clear
//
// the LSR #32 encoding of the instruction set (immediate amount of zero) is
// the translator's concern; it must call this function with an amount of 32.
func Lsr(v uint32, amount uint32) (uint32, Carry) {
	switch {
	case amount == 0:
		return v, CarryUnaffected
	case amount < 32:
		return v >> amount, carry((v>>(amount-1))&0x01 == 0x01)
	case amount == 32:
		return 0, carry(v&0x80000000 == 0x80000000)
	}
	return 0, CarryClear
}

// Asr is arithmetic shift right with carry-out.
//
//	amount == 0     result v, carry unaffected
//	amount < 32     carry is bit (amount-1) of v
//	amount >= 32    result and carry filled from bit 31 of v
func Asr(v uint32, amount uint32) (uint32, Carry) {
	switch {
	case amount == 0:
		return v, CarryUnaffected
	case amount < 32:
		return uint32(int32(v) >> amount), carry((v>>(amount-1))&0x01 == 0x01)
	}
	if v&0x80000000 == 0x80000000 {
		return 0xffffffff, CarrySet
	}
	return 0x00000000, CarryClear
}

// Ror is rotate right with carry-out.
//
//	amount == 0             result v, carry unaffected
//	amount&31 == 0 (n>0)    result v, carry is bit 31 of v
//	otherwise               rotate by amount&31, carry is bit 31 of result
func Ror(v uint32, amount uint32) (uint32, Carry) {
	if amount == 0 {
		return v, CarryUnaffected
	}
	amount &= 31
	if amount == 0 {
		return v, carry(v&0x80000000 == 0x80000000)
	}
	r := bits.RotateLeft32(v, -int(amount))
	return r, carry(r&0x80000000 == 0x80000000)
}

// Rrx is rotate right with extend: a one-bit rotate through the carry flag.
// carry-out is always defined (bit 0 of v).
func Rrx(v uint32, carryIn bool) (uint32, Carry) {
	r := v >> 1
	if carryIn {
		r |= 0x80000000
	}
	return r, carry(v&0x01 == 0x01)
}

// Add returns a+b with carry-out and signed overflow. overflow follows ARM's
// sign-mismatch rule: set when the operands have the same sign and the
// result has the other.
func Add(a, b uint32) (uint32, bool, bool) {
	return Adc(a, b, false)
}

// Adc returns a+b+carry with carry-out and signed overflow.
func Adc(a, b uint32, carryIn bool) (uint32, bool, bool) {
	var c uint64
	if carryIn {
		c = 1
	}
	sum := uint64(a) + uint64(b) + c
	r := uint32(sum)
	overflow := (a^r)&(b^r)&0x80000000 == 0x80000000
	return r, sum > 0xffffffff, overflow
}

// Sub returns a-b with carry-out and signed overflow. carry follows the
// borrow-inverse convention: set when no borrow occurred.
func Sub(a, b uint32) (uint32, bool, bool) {
	return Adc(a, ^b, true)
}

// Sbc returns a-b-(1-carry) with carry-out and signed overflow. a carry-in
// of false subtracts one extra, per the borrow-inverse convention.
func Sbc(a, b uint32, carryIn bool) (uint32, bool, bool) {
	return Adc(a, ^b, carryIn)
}

// SaturatingAdd returns a+b clamped to the signed 32-bit range. the second
// return value is true if saturation occurred, in which case the sticky
// overflow flag (Q) must be set.
func SaturatingAdd(a, b int32) (int32, bool) {
	r := int64(a) + int64(b)
	if r > 0x7fffffff {
		return 0x7fffffff, true
	}
	if r < -0x80000000 {
		return -0x80000000, true
	}
	return int32(r), false
}

// SaturatingSub returns a-b clamped to the signed 32-bit range, with the Q
// outcome as for SaturatingAdd.
func SaturatingSub(a, b int32) (int32, bool) {
	r := int64(a) - int64(b)
	if r > 0x7fffffff {
		return 0x7fffffff, true
	}
	if r < -0x80000000 {
		return -0x80000000, true
	}
	return int32(r), false
}

// SaturatingDouble returns 2*a clamped to the signed 32-bit range. used by
// the QDADD and QDSUB instructions, which double one operand before the
// saturating add/subtract proper.
func SaturatingDouble(a int32) (int32, bool) {
	return SaturatingAdd(a, a)
}
