// This source file is part of the gelwire project.
//
// Copyright the gelwire authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package soc

import "sync"

// MemPool is a fixed-size-slab memory pool. Read() acquires a slab,
// hands slices of it downstream tagged with a release callback, and the
// slab is returned to the pool once every slice derived from it has
// been released.
type MemPool struct {
	chunkSize int
	pool      sync.Pool
}

// NewMemPool returns a MemPool that pre-sizes its free list for
// `chunks` concurrently in-flight slabs of `chunkSize` bytes each.
// `chunks` only seeds the pool; it is not a hard cap.
func NewMemPool(chunks int, chunkSize int) *MemPool {
	m := &MemPool{chunkSize: chunkSize}
	m.pool.New = func() interface{} {
		return make([]byte, m.chunkSize)
	}

	for i := 0; i < chunks; i++ {
		m.pool.Put(make([]byte, chunkSize))
	}

	return m
}

// Acquire returns a slab of chunkSize bytes, reusing one from the pool
// if available.
func (m *MemPool) Acquire() []byte {
	return m.pool.Get().([]byte)
}

// Release returns a slab to the pool for reuse. slab must be the full,
// un-sliced array returned by Acquire (or at least share its backing
// array and length).
func (m *MemPool) Release(slab []byte) {
	if cap(slab) != m.chunkSize {
		// a short read produced a slab runt of the expected size;
		// don't let it poison the pool's size assumption.
		return
	}
	m.pool.Put(slab[:cap(slab)])
}
