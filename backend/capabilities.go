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

package backend

import (
	"golang.org/x/sys/cpu"
)

// Capabilities records the host CPU features the code generator cares about.
// the value is constructed once at startup and passed to NewBackend, rather
// than consulted through a process-wide singleton, so capability-dependent
// paths can be tested by injecting a fake set.
type Capabilities struct {
	// the host widens a 32x32 multiply to 64 bits in one operation. without
	// it the long multiplies are costed as two host operations
	WideMultiply bool

	// native population count and the bit-manipulation group it arrived
	// with. without it the PSR pack and flag-commit steps are costed as two
	// host operations
	PopCount bool
}

// Detect queries the host CPU for the capability set. hosts outside the
// queried families report no capabilities and are costed conservatively.
func Detect() Capabilities {
	return Capabilities{
		WideMultiply: cpu.X86.HasSSE2 || cpu.ARM64.HasASIMD,
		PopCount:     cpu.X86.HasPOPCNT || cpu.ARM64.HasASIMD,
	}
}
