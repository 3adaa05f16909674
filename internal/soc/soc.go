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

// Package soc has low level utilities for streaming bytes off a socket
// into the buff.Reader pipeline used by the parallel-thread transport
// adapter.
package soc

import (
	"errors"
	"net"
)

const minChunkSize = 5

// Data is a chunk of bytes read from a socket, or a terminal error.
// Once the bytes are no longer needed the chunk must be Released so its
// backing slab can be reused.
type Data struct {
	Buf     []byte
	Err     error
	release func()
}

// Release returns the chunk's backing memory to its pool, if any.
func (d *Data) Release() {
	if d.release != nil {
		d.release()
	}
}

// IsPermanentNetErr reports whether err is a non-temporary net.Error
// (i.e. the socket is no longer usable).
func IsPermanentNetErr(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return !netErr.Temporary() //nolint:staticcheck
	}

	return false
}

// Read streams bytes from conn into toBeDeserialized until a permanent
// error occurs. Run it in its own goroutine; it returns once the
// connection is unusable.
func Read(conn net.Conn, freeMemory *MemPool, toBeDeserialized chan *Data) {
	mkRelease := func(slab []byte) func() {
		return func() { freeMemory.Release(slab) }
	}

	for {
		slab := freeMemory.Acquire()
		buf := slab

		for len(buf) >= minChunkSize {
			n, err := conn.Read(buf)

			data := &Data{Buf: buf[:n:n]}
			buf = buf[n:]

			// releasing the last chunk of a slab releases the whole slab.
			if err != nil || len(buf) < minChunkSize {
				data.release = mkRelease(slab)
			}

			toBeDeserialized <- data

			if err != nil {
				toBeDeserialized <- &Data{Err: err}
			}

			if IsPermanentNetErr(err) {
				return
			}
		}
	}
}
