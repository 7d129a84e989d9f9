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

// Package recompiler ties the translation pipeline together: a two-state
// lookup/execute loop that translates guest basic blocks on cache miss and
// runs the compiled routines against a cycle budget.
package recompiler

import (
	"github.com/jetsetilly/dynarec/arena"
	"github.com/jetsetilly/dynarec/arm"
	"github.com/jetsetilly/dynarec/arm/instruction"
	"github.com/jetsetilly/dynarec/backend"
	"github.com/jetsetilly/dynarec/coprocessor"
	"github.com/jetsetilly/dynarec/curated"
	"github.com/jetsetilly/dynarec/ir"
	"github.com/jetsetilly/dynarec/logger"
	"github.com/jetsetilly/dynarec/translate"
)

// NoMemory is returned by NewRecompiler when the Spec carries no memory
// interface.
const NoMemory = "recompiler: no memory interface in specification"

// Model selects the guest processor being recompiled for. the model decides
// which coprocessors are fitted.
type Model int

const (
	// a bare ARM7TDMI. no coprocessors are fitted
	ModelARM7TDMI Model = iota

	// an ARM946E-S. the CP15 system control coprocessor and the CP14 debug
	// stub are fitted
	ModelARM946ES
)

// Spec is the configuration surface of the recompiler. the zero value is not
// usable without a Memory instance; every other field has a sensible default
// applied by SetDefaults().
type Spec struct {
	// the external memory system backing guest code fetch and data access.
	// required
	Memory arm.SharedMemory

	// the guest processor model
	Model Model

	// the instruction decoder. when nil an ARM-mode decoder over Memory is
	// fitted
	Decoder instruction.Decoder

	// ceiling on the estimated host byte size of the code cache. zero or
	// negative means no ceiling
	MaxHostCodeSize int

	// maximum number of guest instructions lowered into one block
	BlockLimit int

	// the IR arena is bulk-reset every ReleaseInterval compiled blocks.
	// ignored when RetainIR is set
	ReleaseInterval int

	// keep the IR of every compiled block alive for inspection. the arena is
	// only reset by FlushCachedBlocks()
	RetainIR bool

	// override host capability detection. nil means Detect()
	Capabilities *backend.Capabilities
}

// SetDefaults fills the zero-valued tunables.
func (sp *Spec) SetDefaults() {
	if sp.BlockLimit <= 0 {
		sp.BlockLimit = 128
	}
	if sp.ReleaseInterval <= 0 {
		sp.ReleaseInterval = 64
	}
	if sp.Capabilities == nil {
		caps := backend.Detect()
		sp.Capabilities = &caps
	}
}

// Recompiler runs guest code by translating it, basic block at a time, into
// cached host routines.
type Recompiler struct {
	spec Spec

	state  *arm.State
	coproc *coprocessor.Bank
	tr     *translate.Translator
	be     *backend.Backend

	ops    *arena.Pool[ir.Op]
	blocks *arena.Pool[ir.Block]

	// blocks compiled since the last arena reset or flush
	sinceRelease int

	// IR retained for inspection, only populated when Spec.RetainIR is set
	retained map[arm.LocationRef]arena.Entry[ir.Block]
}

// NewRecompiler is the preferred method of initialisation for the Recompiler
// type. the Spec value is copied; defaults are applied to the copy.
func NewRecompiler(spec Spec) (*Recompiler, error) {
	if spec.Memory == nil {
		return nil, curated.Errorf(NoMemory)
	}
	spec.SetDefaults()

	r := &Recompiler{
		spec:     spec,
		state:    arm.NewState(),
		coproc:   coprocessor.NewBank(),
		ops:      arena.NewPool[ir.Op](),
		blocks:   arena.NewPool[ir.Block](),
		retained: make(map[arm.LocationRef]arena.Entry[ir.Block]),
	}

	if spec.Model == ModelARM946ES {
		r.coproc.Attach(14, coprocessor.DebugStub{})
		r.coproc.Attach(15, coprocessor.NewSystemControl(r.state))
	}

	dec := spec.Decoder
	if dec == nil {
		dec = instruction.NewARMDecoder(spec.Memory)
	}
	r.tr = translate.NewTranslator(dec)
	r.be = backend.NewBackend(*spec.Capabilities, spec.Memory, r.coproc, spec.MaxHostCodeSize)

	return r, nil
}

// State exposes the guest register file for setup and inspection.
func (r *Recompiler) State() *arm.State {
	return r.state
}

// CompileCount returns the number of blocks compiled since creation.
func (r *Recompiler) CompileCount() int {
	return r.be.CompileCount()
}

// IRBlock returns the retained IR for a location, or nil. only useful when
// the recompiler was created with RetainIR.
func (r *Recompiler) IRBlock(loc arm.LocationRef) *ir.Block {
	e, ok := r.retained[loc]
	if !ok {
		return nil
	}
	return e.Get()
}

// EachRetainedBlock calls f for every block retained under RetainIR, in no
// particular order.
func (r *Recompiler) EachRetainedBlock(f func(*ir.Block)) {
	for _, e := range r.retained {
		if b := e.Get(); b != nil {
			f(b)
		}
	}
}

// FlushCachedBlocks discards every compiled routine and all retained IR, and
// resets the arena. the guest state is untouched.
func (r *Recompiler) FlushCachedBlocks() {
	r.be.Clear()
	r.ops.Reset(false)
	r.blocks.Reset(false)
	clear(r.retained)
	r.sinceRelease = 0
	logger.Log("recompiler", "code cache flushed")
}

// compile translates, optimises and compiles the block at a location,
// installing the routine in the code cache.
func (r *Recompiler) compile(loc arm.LocationRef) (*backend.Routine, error) {
	e := r.blocks.Allocate()
	b := e.Get()
	b.Init(r.ops, loc)

	r.tr.Translate(b, r.spec.BlockLimit)
	ir.Optimise(b)

	rt, err := r.be.Compile(b)
	if err != nil {
		e.Free()
		return nil, err
	}

	if r.spec.RetainIR {
		r.retained[loc] = e
		return rt, nil
	}

	// the routine holds no references into the arena so the IR generation
	// can be expired wholesale
	r.sinceRelease++
	if r.sinceRelease >= r.spec.ReleaseInterval {
		r.ops.Reset(false)
		r.blocks.Reset(false)
		r.sinceRelease = 0
	}

	return rt, nil
}

// Run executes guest code from the current state until at least minCycles
// guest cycles have been consumed, returning the cycles actually executed.
// execution only stops at a block boundary so the return value can exceed
// the request.
//
// Run returns early, with fewer cycles than requested, in two situations: a
// block ending at an undefined instruction or an unimplemented translation
// boundary (the PC is left at the boundary for the embedding environment),
// and a block too large for the host code ceiling even after a cache flush.
func (r *Recompiler) Run(minCycles int) int {
	budget := minCycles

	for budget > 0 {
		loc := arm.NewLocationRef(r.state.PC(), r.state.Status.Mode, r.state.Status.Thumb)

		rt := r.be.GetCodeForLocation(loc)
		if rt == nil {
			var err error
			rt, err = r.compile(loc)
			if err != nil {
				// the ceiling is recoverable: flush and recompile into an
				// empty cache
				logger.Logf("recompiler", "%s", err.Error())
				r.FlushCachedBlocks()

				rt, err = r.compile(loc)
				if err != nil {
					logger.Logf("recompiler", "block at %08x exceeds host code ceiling", loc.PC())
					break
				}
			}
		}

		remaining := r.be.Execute(r.state, rt, budget)
		budget = remaining

		switch rt.Terminal().Kind {
		case ir.TerminalUndefined, ir.TerminalUnimplemented:
			return minCycles - budget
		}
	}

	return minCycles - budget
}
