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

// Package arena implements the generation-tokened pool that owns every
// per-translation object in the recompiler. translations are bursty and
// short-lived so there is no per-object deallocation. instead, whole
// generations of objects are invalidated with a single Reset() which bumps
// the generation counter of each chunk, instantly expiring every outstanding
// Entry without visiting the storage.
package arena

// the number of slots in a single chunk. a chunk is never partially
// allocated; growth is always by a whole chunk.
const chunkSize = 256

type chunk[T any] struct {
	slots [chunkSize]T

	// the never-yet-used portion of the chunk starts at the cursor. slots
	// before the cursor may have been individually freed, in which case they
	// appear on the free list
	cursor int
	free   []int

	// bumped on every Reset(). an Entry is only dereferenceable while its
	// recorded generation matches this value
	generation uint64
}

func (c *chunk[T]) full() bool {
	return c.cursor >= chunkSize && len(c.free) == 0
}

// Pool is an arena of values of a single type. the zero value is not usable;
// use NewPool().
type Pool[T any] struct {
	chunks []*chunk[T]

	// indices of chunks known to have spare capacity. allocation pops from
	// the front so amortises to O(1) without scanning full chunks
	spare []int

	// the generation stamped on newly created chunks. advances on every
	// Reset() so that chunks created after a storage release never answer
	// for entries issued before it
	generation uint64
}

// NewPool is the preferred method of initialisation for the Pool type.
func NewPool[T any]() *Pool[T] {
	return &Pool[T]{}
}

// Entry is a generation-checked handle to a slot in the pool. it remains
// dereferenceable until the next Reset() of the owning pool, or until it is
// individually returned with Free().
type Entry[T any] struct {
	pool       *Pool[T]
	chunk      int
	slot       int
	generation uint64
}

// Allocate returns an Entry for a zero-initialised slot. allocation never
// fails; the pool grows by adding chunks as required.
func (p *Pool[T]) Allocate() Entry[T] {
	for len(p.spare) > 0 {
		ci := p.spare[0]
		c := p.chunks[ci]
		if c.full() {
			p.spare = p.spare[1:]
			continue
		}

		var si int
		if len(c.free) > 0 {
			si = c.free[len(c.free)-1]
			c.free = c.free[:len(c.free)-1]
		} else {
			si = c.cursor
			c.cursor++
		}

		// reissued slots must present as newly allocated. this covers the
		// free list and also the cursor rewinding over the previous
		// generation's storage after a Reset()
		var zero T
		c.slots[si] = zero

		if c.full() {
			p.spare = p.spare[1:]
		}

		return Entry[T]{pool: p, chunk: ci, slot: si, generation: c.generation}
	}

	// no chunk with spare capacity so grow the pool
	c := &chunk[T]{generation: p.generation}
	p.chunks = append(p.chunks, c)
	ci := len(p.chunks) - 1
	p.spare = append(p.spare, ci)

	si := c.cursor
	c.cursor++

	return Entry[T]{pool: p, chunk: ci, slot: si, generation: c.generation}
}

// Valid returns true if the entry was issued under the owning chunk's current
// generation. an entry that predates a Reset() is invalid even though the
// underlying slot may have been reissued.
func (e Entry[T]) Valid() bool {
	if e.pool == nil || e.chunk >= len(e.pool.chunks) {
		return false
	}
	return e.pool.chunks[e.chunk].generation == e.generation
}

// Get returns a pointer to the slot or nil if the entry is no longer valid.
func (e Entry[T]) Get() *T {
	if !e.Valid() {
		return nil
	}
	return &e.pool.chunks[e.chunk].slots[e.slot]
}

// Free returns the slot to the owning chunk for reuse. used for speculative
// allocations abandoned mid-translation. freeing a stale entry is a no-op.
func (e Entry[T]) Free() {
	if !e.Valid() {
		return
	}
	c := e.pool.chunks[e.chunk]
	wasFull := c.full()
	c.free = append(c.free, e.slot)
	if wasFull {
		e.pool.spare = append(e.pool.spare, e.chunk)
	}
}

// Reset invalidates every outstanding Entry in O(1) per chunk. when
// freeMemory is false the chunk storage is kept for reuse, avoiding
// reallocation cost on the next run of translations. when freeMemory is true
// the storage is released to the runtime.
func (p *Pool[T]) Reset(freeMemory bool) {
	p.generation++

	if freeMemory {
		p.chunks = nil
		p.spare = nil
		return
	}

	p.spare = p.spare[:0]
	for i, c := range p.chunks {
		c.generation = p.generation
		c.cursor = 0
		c.free = c.free[:0]
		p.spare = append(p.spare, i)
	}
}

// Allocated returns the number of slots currently in use across all chunks.
func (p *Pool[T]) Allocated() int {
	n := 0
	for _, c := range p.chunks {
		n += c.cursor - len(c.free)
	}
	return n
}
