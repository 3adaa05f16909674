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

package protocol

import (
	"github.com/gel-io/gelwire/internal/buff"
	"github.com/gel-io/gelwire/internal/message"
)

// DumpBlock is one chunk of a Dump stream: either the header block
// (schema DDL plus per-type descriptors) or a data block for one
// object type (spec.md §4.H "Dump/Restore").
type DumpBlock struct {
	Header bool
	Data   []byte
}

// Dump sends a Dump request and streams back every DumpHeader/
// DumpBlock the server produces until ReadyForCommand (spec.md §4.H).
// Callers write each returned block to storage in order; gelwire does
// not interpret the block payloads itself.
func (c *Conn) Dump() ([]DumpBlock, error) {
	w := buff.NewWriter(c.writeScratch[:0])
	w.BeginMessage(uint8(message.Dump))
	if c.Version.HasAnnotationMaps() {
		annotations(w, nil)
	} else {
		legacyHeaders(w, nil)
	}
	w.EndMessage()
	writeSync(w)

	if err := c.write(w); err != nil {
		return nil, err
	}

	var blocks []DumpBlock
	var err error
	done := buff.NewSignal()

	for c.reader.Next(done.Chan) {
		switch message.Type(c.reader.MsgType) {
		case message.DumpHeader:
			blocks = append(blocks, DumpBlock{
				Header: true, Data: append([]byte(nil), c.reader.Buf...),
			})
			c.reader.DiscardMessage()
		case message.DumpBlock:
			blocks = append(blocks, DumpBlock{
				Data: append([]byte(nil), c.reader.Buf...),
			})
			c.reader.DiscardMessage()
		case message.CommandComplete:
			c.reader.DiscardMessage()
		case message.ReadyForCommand:
			ignoreHeaders(c.reader, c.Version)
			c.reader.Discard(1)
			done.Signal()
		case message.ErrorResponse:
			err = wrapAll(err, decodeErrorResponse(c.reader))
			done.Signal()
		default:
			c.reader.DiscardMessage()
		}
	}

	if e := wrapAll(err, c.reader.Err); e != nil {
		return nil, e
	}
	return blocks, nil
}

// Restore streams header and per-type data blocks produced by a prior
// Dump back to the server (spec.md §4.H). headerBlock is the single
// DumpHeader payload; dataBlocks are the DumpBlock payloads in the
// order Dump returned them.
func (c *Conn) Restore(headerBlock []byte, dataBlocks [][]byte) error {
	w := buff.NewWriter(c.writeScratch[:0])
	w.BeginMessage(uint8(message.Restore))
	if c.Version.HasAnnotationMaps() {
		annotations(w, nil)
	} else {
		legacyHeaders(w, nil)
	}
	w.PushUint16(0) // jobs hint, let the server pick concurrency
	w.PushBytes(headerBlock)
	w.EndMessage()

	if err := c.write(w); err != nil {
		return err
	}

	var restoreReady bool
	var err error
	done := buff.NewSignal()
	for !restoreReady {
		if !c.reader.Next(done.Chan) {
			break
		}
		switch message.Type(c.reader.MsgType) {
		case message.RestoreReady:
			c.reader.DiscardMessage()
			restoreReady = true
		case message.ErrorResponse:
			err = decodeErrorResponse(c.reader)
			restoreReady = true
		default:
			c.reader.DiscardMessage()
		}
	}
	if err != nil {
		return err
	}
	if c.reader.Err != nil {
		return c.reader.Err
	}

	for _, block := range dataBlocks {
		w = buff.NewWriter(c.writeScratch[:0])
		w.BeginMessage(uint8(message.RestoreBlock))
		w.PushBytes(block)
		w.EndMessage()
		if err := c.write(w); err != nil {
			return err
		}
	}

	w = buff.NewWriter(c.writeScratch[:0])
	w.BeginMessage(uint8(message.RestoreEOF))
	w.EndMessage()
	if err := c.write(w); err != nil {
		return err
	}

	done = buff.NewSignal()
	for c.reader.Next(done.Chan) {
		switch message.Type(c.reader.MsgType) {
		case message.CommandComplete:
			c.reader.DiscardMessage()
		case message.ReadyForCommand:
			ignoreHeaders(c.reader, c.Version)
			c.reader.Discard(1)
			done.Signal()
		case message.ErrorResponse:
			err = wrapAll(err, decodeErrorResponse(c.reader))
			done.Signal()
		default:
			c.reader.DiscardMessage()
		}
	}

	return wrapAll(err, c.reader.Err)
}
