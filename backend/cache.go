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
	"github.com/jetsetilly/dynarec/arm"
	"github.com/jetsetilly/dynarec/coprocessor"
	"github.com/jetsetilly/dynarec/curated"
	"github.com/jetsetilly/dynarec/ir"
)

// HostCodeCeiling is returned by Compile when installing a routine would take
// the cache past the host code ceiling. the caller is expected to clear the
// cache and compile again.
const HostCodeCeiling = "backend: host code ceiling reached (%d bytes)"

// Routine is a compiled basic block. routines hold no references into the IR
// arena: the IR block can be reclaimed as soon as compilation returns.
type Routine struct {
	Location arm.LocationRef

	cond     arm.Condition
	terminal ir.Terminal
	steps    []step
	cycles   int

	spillSize int
	size      int
}

// Terminal returns the control-flow disposition the routine ends with.
func (r *Routine) Terminal() ir.Terminal {
	return r.terminal
}

// Size returns the estimated host byte size of the routine.
func (r *Routine) Size() int {
	return r.size
}

// Backend compiles IR blocks into host routines and caches them by guest
// location.
type Backend struct {
	caps   Capabilities
	coproc *coprocessor.Bank

	cache   map[arm.LocationRef]*Routine
	size    int
	maxSize int

	compileCount int

	m machine
}

// NewBackend is the preferred method of initialisation for the Backend type.
// maxSize is the host code ceiling in estimated bytes; zero or negative means
// no ceiling.
func NewBackend(caps Capabilities, mem arm.SharedMemory, coproc *coprocessor.Bank, maxSize int) *Backend {
	be := &Backend{
		caps:    caps,
		coproc:  coproc,
		cache:   make(map[arm.LocationRef]*Routine),
		maxSize: maxSize,
	}
	be.m.mem = mem
	return be
}

// Compile lowers a block to a host routine and installs it in the cache,
// replacing any prior routine for the same location. the error is non-nil
// only when the install would take the cache past the host code ceiling; the
// cache is unchanged in that case.
func (be *Backend) Compile(b *ir.Block) (*Routine, error) {
	cp := newCompilation(b, be.caps, be.coproc)
	cp.compileBlock(b)

	r := &Routine{
		Location:  b.Location,
		cond:      b.Cond,
		terminal:  b.Terminal,
		steps:     cp.steps,
		cycles:    b.Cycles,
		spillSize: len(cp.spillUsed),
		size:      cp.size + stepSize, // terminal dispatch
	}

	sz := be.size + r.size
	if prior, ok := be.cache[b.Location]; ok {
		sz -= prior.size
	}
	if be.maxSize > 0 && sz > be.maxSize {
		return nil, curated.Errorf(HostCodeCeiling, sz)
	}

	be.cache[b.Location] = r
	be.size = sz
	be.compileCount++
	return r, nil
}

// GetCodeForLocation returns the cached routine for a location, or nil.
func (be *Backend) GetCodeForLocation(loc arm.LocationRef) *Routine {
	return be.cache[loc]
}

// Clear discards every cached routine.
func (be *Backend) Clear() {
	clear(be.cache)
	be.size = 0
}

// Size returns the estimated host byte size of all cached routines.
func (be *Backend) Size() int {
	return be.size
}

// CompileCount returns the number of Compile calls that installed a routine.
func (be *Backend) CompileCount() int {
	return be.compileCount
}

// Execute runs a routine against the guest state and returns the cycle budget
// reduced by the cycles the routine consumed. every execution consumes at
// least one cycle even when the routine's predicate fails, guaranteeing that
// a run loop over Execute always terminates. the exception is a routine
// ending at an undefined or unimplemented boundary: it bills only the
// instructions lowered before the boundary, which can be none, and the
// embedding environment is expected to take over at that point.
func (be *Backend) Execute(st *arm.State, r *Routine, budget int) int {
	m := &be.m
	m.state = st
	m.seed()

	if r.spillSize > len(m.spill) {
		m.spill = make([]uint32, r.spillSize)
	}

	t := r.terminal

	if !r.cond.Passed(st.Status) {
		// the whole block is predicated on a failed condition. control falls
		// through to the next sequential instruction, whatever the terminal
		st.SetPC(t.Next)
		return budget - 1
	}

	for _, s := range r.steps {
		s(m)
	}

	switch t.Kind {
	case ir.TerminalFallthrough:
		st.SetPC(t.Next)
	case ir.TerminalBranch:
		if t.Cond.Passed(st.Status) {
			st.SetPC(t.Target)
		} else {
			st.SetPC(t.Next)
		}
	case ir.TerminalReturn:
		// R15 was written by the block body
	case ir.TerminalUndefined, ir.TerminalUnimplemented:
		// leave the PC at the boundary for the execution environment
		st.SetPC(t.Next)
	}

	cycles := r.cycles
	switch t.Kind {
	case ir.TerminalUndefined, ir.TerminalUnimplemented:
		// nothing may have executed; reaching the boundary costs nothing
	default:
		if cycles < 1 {
			cycles = 1
		}
	}
	return budget - cycles
}
