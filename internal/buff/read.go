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

package buff

import (
	"encoding/binary"
	"fmt"

	"github.com/gel-io/gelwire/internal/soc"
)

// Reader consumes bytes from an inbound socket stream (or, via
// SimpleReader, an already materialized slice) and exposes one framed
// message at a time.
type Reader struct {
	toBeDeserialized chan *soc.Data

	data    *soc.Data
	Err     error
	Buf     []byte
	MsgType uint8
}

// NewReader returns a Reader fed by a channel of socket chunks.
func NewReader(toBeDeserialized chan *soc.Data) *Reader {
	return &Reader{toBeDeserialized: toBeDeserialized}
}

// SimpleReader returns a Reader bounded to a single already-available
// slice; used for in-place decoding of length-prefixed elements and
// descriptor blobs. Calling Next on a SimpleReader panics.
func SimpleReader(buf []byte) *Reader {
	return &Reader{Buf: buf[:len(buf):len(buf)]}
}

// Next advances the reader to the next message. It returns false once
// doneReadingSignal fires and no socket data is currently owned, or
// when a read error occurs (Err is then non-nil). Callers must keep
// calling Next until it returns false.
//
// Next panics if called on a reader created with SimpleReader.
func (r *Reader) Next(doneReadingSignal chan struct{}) bool {
	if r.toBeDeserialized == nil {
		panic("called Next on a simple reader")
	}

	if len(r.Buf) > 0 {
		r.Err = fmt.Errorf(
			"cannot advance: unread data in buffer (message type: 0x%x)",
			r.MsgType,
		)
		return false
	}

	if r.data != nil && len(r.data.Buf) == 0 {
		r.data.Release()
		r.data = nil
	}

	r.MsgType = 0

	if r.data == nil {
		select {
		case <-doneReadingSignal:
			return false
		case r.data = <-r.toBeDeserialized:
			if r.data.Err != nil {
				r.Err = r.data.Err
				r.data.Release()
				r.data = nil
				return false
			}
		}
	}

	r.Err = r.feed(5)
	if r.Err != nil {
		return false
	}

	r.MsgType = r.PopUint8()
	msgLen := int(r.PopUint32()) - 4
	if msgLen < 0 {
		r.Err = fmt.Errorf("frame length %v is smaller than the header", msgLen+4)
		return false
	}

	r.Err = r.feed(msgLen)
	if r.Err != nil {
		return false
	}

	r.Buf = r.Buf[:msgLen:msgLen]
	return true
}

func minInt(x, y int) int {
	if x < y {
		return x
	}
	return y
}

func (r *Reader) feed(n int) error {
	if r.data != nil && len(r.data.Buf) == 0 {
		r.data.Release()
		r.data = nil
	}

	if n == 0 {
		return nil
	}

	if r.data == nil {
		r.data = <-r.toBeDeserialized

		if r.data.Err != nil {
			e := r.data.Err
			r.data.Release()
			r.data = nil
			return e
		}
	}

	m := minInt(n, len(r.data.Buf))
	r.Buf = r.data.Buf[:m]
	r.data.Buf = r.data.Buf[m:]

	for len(r.Buf) < n {
		previous := r.data
		r.data = <-r.toBeDeserialized

		if r.data.Err != nil {
			previous.Release()
			e := r.data.Err
			r.data.Release()
			r.data = nil
			return e
		}

		m := minInt(n-len(r.Buf), len(r.data.Buf))
		r.Buf = append(r.Buf, r.data.Buf[:m]...)
		r.data.Buf = r.data.Buf[m:]
		previous.Release()
	}

	return nil
}

// Discard skips n bytes, panicking with a descriptive message instead
// of an opaque out-of-range index if the buffer is short.
func (r *Reader) Discard(n int) {
	if n > len(r.Buf) {
		panic(ErrUnexpectedEndOfFrame)
	}
	r.Buf = r.Buf[n:]
}

// DiscardMessage discards all remaining bytes in the current message.
func (r *Reader) DiscardMessage() {
	r.Buf = nil
}

// Finished reports whether the reader has consumed every byte handed
// to it. Callers decoding a bounded element (one produced by PopSlice)
// must check this and fail with ErrTrailingData otherwise.
func (r *Reader) Finished() bool {
	return len(r.Buf) == 0
}

// PopSlice returns a SimpleReader over the next n bytes and discards
// them from r.
func (r *Reader) PopSlice(n uint32) *Reader {
	if int(n) > len(r.Buf) {
		panic(ErrUnexpectedEndOfFrame)
	}
	s := SimpleReader(r.Buf[:n])
	r.Buf = r.Buf[n:]
	return s
}

func (r *Reader) need(n int) {
	if n > len(r.Buf) {
		panic(ErrUnexpectedEndOfFrame)
	}
}

// PopUint8 returns the next byte and advances the buffer.
func (r *Reader) PopUint8() uint8 {
	r.need(1)
	val := r.Buf[0]
	r.Buf = r.Buf[1:]
	return val
}

// PopUint16 reads a big-endian uint16 and advances the buffer.
func (r *Reader) PopUint16() uint16 {
	r.need(2)
	val := binary.BigEndian.Uint16(r.Buf[:2])
	r.Buf = r.Buf[2:]
	return val
}

// PopUint32 reads a big-endian uint32 and advances the buffer.
func (r *Reader) PopUint32() uint32 {
	r.need(4)
	val := binary.BigEndian.Uint32(r.Buf[:4])
	r.Buf = r.Buf[4:]
	return val
}

// PopUint64 reads a big-endian uint64 and advances the buffer.
func (r *Reader) PopUint64() uint64 {
	r.need(8)
	val := binary.BigEndian.Uint64(r.Buf[:8])
	r.Buf = r.Buf[8:]
	return val
}

// PopFloat32 reads a big-endian IEEE-754 float32 and advances the buffer.
func (r *Reader) PopFloat32() float32 {
	return float32frombits(r.PopUint32())
}

// PopFloat64 reads a big-endian IEEE-754 float64 and advances the buffer.
func (r *Reader) PopFloat64() float64 {
	return float64frombits(r.PopUint64())
}

// PopUUID reads a 16-byte UUID and advances the buffer.
func (r *Reader) PopUUID() [16]byte {
	r.need(16)
	var id [16]byte
	copy(id[:], r.Buf[:16])
	r.Buf = r.Buf[16:]
	return id
}

// PopBytes reads a uint32-length-prefixed []byte. The returned slice
// aliases the reader's backing array.
func (r *Reader) PopBytes() []byte {
	n := int(r.PopUint32())
	r.need(n)
	val := r.Buf[:n]
	r.Buf = r.Buf[n:]
	return val
}

// PopString reads a uint32-length-prefixed UTF-8 string.
func (r *Reader) PopString() string {
	n := int(r.PopUint32())
	r.need(n)
	val := string(r.Buf[:n])
	r.Buf = r.Buf[n:]
	return val
}
