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

import (
	"encoding/binary"

	"github.com/jetsetilly/dynarec/logger"
)

// SharedMemory represents the memory passed between the embedding
// environment and the recompiler. it is called during translation (code
// fetch: half-word and word reads only) and during execution of compiled
// code (data access).
//
// no alignment guarantee is made by the interface. callers may request
// unaligned half-word and word access; the rotate-based resolution of
// unaligned loads is performed by the caller, not the implementation.
type SharedMemory interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, val uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, val uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, val uint32)
}

// RAM is a flat little-endian memory block implementing SharedMemory.
// suitable for testing and for the driver program. accesses outside the
// block read as zero and are logged once per run.
type RAM struct {
	Origin uint32
	Data   []byte

	reported bool
}

// NewRAM is the preferred method of initialisation for the RAM type.
func NewRAM(origin uint32, size int) *RAM {
	return &RAM{
		Origin: origin,
		Data:   make([]byte, size),
	}
}

func (r *RAM) index(addr uint32, width uint32) (int, bool) {
	if addr < r.Origin || uint64(addr)+uint64(width) > uint64(r.Origin)+uint64(len(r.Data)) {
		if !r.reported {
			logger.Logf("RAM", "access outside memory block (%08x)", addr)
			r.reported = true
		}
		return 0, false
	}
	return int(addr - r.Origin), true
}

// Read8 implements the SharedMemory interface.
func (r *RAM) Read8(addr uint32) uint8 {
	i, ok := r.index(addr, 1)
	if !ok {
		return 0
	}
	return r.Data[i]
}

// Write8 implements the SharedMemory interface.
func (r *RAM) Write8(addr uint32, val uint8) {
	i, ok := r.index(addr, 1)
	if !ok {
		return
	}
	r.Data[i] = val
}

// Read16 implements the SharedMemory interface.
func (r *RAM) Read16(addr uint32) uint16 {
	i, ok := r.index(addr, 2)
	if !ok {
		return 0
	}
	return binary.LittleEndian.Uint16(r.Data[i:])
}

// Write16 implements the SharedMemory interface.
func (r *RAM) Write16(addr uint32, val uint16) {
	i, ok := r.index(addr, 2)
	if !ok {
		return
	}
	binary.LittleEndian.PutUint16(r.Data[i:], val)
}

// Read32 implements the SharedMemory interface.
func (r *RAM) Read32(addr uint32) uint32 {
	i, ok := r.index(addr, 4)
	if !ok {
		return 0
	}
	return binary.LittleEndian.Uint32(r.Data[i:])
}

// Write32 implements the SharedMemory interface.
func (r *RAM) Write32(addr uint32, val uint32) {
	i, ok := r.index(addr, 4)
	if !ok {
		return
	}
	binary.LittleEndian.PutUint32(r.Data[i:], val)
}
