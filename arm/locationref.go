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

package arm

import "fmt"

// LocationRef is the opaque 64-bit key that identifies a guest execution
// context: the 32-bit program counter, the 5-bit processor mode and the
// thumb/ARM instruction-set bit. two contexts with identical PC, mode and
// instruction-set always map to the same key. the key is the sole identity
// used by the block cache.
type LocationRef uint64

const (
	locationModeShift  = 32
	locationThumbShift = 37
)

// NewLocationRef packs a program counter, mode and instruction-set flag into
// a LocationRef.
func NewLocationRef(pc uint32, mode Mode, thumb bool) LocationRef {
	l := LocationRef(pc)
	l |= LocationRef(mode&0x1f) << locationModeShift
	if thumb {
		l |= 1 << locationThumbShift
	}
	return l
}

// PC returns the guest program counter encoded in the key.
func (l LocationRef) PC() uint32 {
	return uint32(l)
}

// Mode returns the processor mode encoded in the key.
func (l LocationRef) Mode() Mode {
	return Mode((l >> locationModeShift) & 0x1f)
}

// IsThumbMode returns true if the key refers to the thumb instruction set.
func (l LocationRef) IsThumbMode() bool {
	return l&(1<<locationThumbShift) != 0
}

func (l LocationRef) String() string {
	set := "ARM"
	if l.IsThumbMode() {
		set = "Thumb"
	}
	return fmt.Sprintf("%08x %s (%s)", l.PC(), l.Mode(), set)
}
