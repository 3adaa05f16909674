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
	"context"
	"fmt"

	"github.com/gel-io/gelwire/gelerr"
	"github.com/gel-io/gelwire/gelval"
	"github.com/gel-io/gelwire/internal/buff"
	"github.com/gel-io/gelwire/internal/codec"
	"github.com/gel-io/gelwire/internal/descriptor"
	"github.com/gel-io/gelwire/internal/message"
	"github.com/gel-io/gelwire/internal/protover"
)

// Query describes one command to Parse and Execute (spec.md §4.H
// "Parse/Execute flow").
type Query struct {
	Command             string
	OutputFormat        message.OutputFormat
	ExpectedCardinality message.Cardinality
	InputLanguage       message.InputLanguage // defaults to LangEdgeQL
	Capabilities        uint64                // 0 means allow all
	Args                gelval.Value          // encoded through the negotiated input codec
}

// Result is what Execute hands back: the decoded rows plus the
// metadata the server attached to the command (spec.md §4.C "Record
// descriptor").
type Result struct {
	Cardinality  message.Cardinality
	Capabilities uint64
	Data         []gelval.Value
	Warnings     []string
}

// StatementCodecs is the pair of codecs negotiated for one command
// text, cached by the caller (the query package's fingerprint cache)
// across repeated executions of the same statement.
type StatementCodecs struct {
	InputID    gelval.UUID
	OutputID   gelval.UUID
	Input      codec.Codec
	Output     codec.Codec
	Cardinality message.Cardinality
}

// Parse sends a Parse message and returns the input/output codecs the
// server describes for q.Command, building them through c.Registry
// (spec.md §4.H "Parse flow", grounded on the teacher's parse2pX).
func (c *Conn) Parse(ctx context.Context, q Query) (StatementCodecs, error) {
	lang := q.InputLanguage
	if lang == 0 {
		lang = message.LangEdgeQL
	}

	w := buff.NewWriter(c.writeScratch[:0])
	w.BeginMessage(uint8(message.Parse))
	if c.Version.HasAnnotationMaps() {
		annotations(w, nil)
	} else {
		legacyHeaders(w, nil)
	}
	w.PushUint64(q.Capabilities)
	w.PushUint64(0) // compilation flags
	w.PushUint64(0) // implicit limit
	if c.Version.HasInputLanguage() {
		w.PushUint8(uint8(lang))
	}
	w.PushUint8(uint8(q.OutputFormat))
	w.PushUint8(uint8(q.ExpectedCardinality))
	w.PushString(q.Command)
	w.PushUUID([16]byte(c.stateTypeID))
	c.pushState(w)
	w.EndMessage()
	writeSync(w)

	if err := c.write(w); err != nil {
		return StatementCodecs{}, err
	}

	var codecs StatementCodecs
	var err error
	done := buff.NewSignal()

	for c.reader.Next(done.Chan) {
		switch message.Type(c.reader.MsgType) {
		case message.StateDataDescription:
			if e := c.decodeStateDataDescription(); e != nil {
				err = wrapAll(err, e)
			}
		case message.StatementDataDescription:
			cc, e := c.decodeCommandDataDescription()
			if e != nil {
				err = wrapAll(err, e)
			} else {
				codecs = cc
			}
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
		return StatementCodecs{}, e
	}
	return codecs, nil
}

func (c *Conn) decodeCommandDataDescription() (codecs StatementCodecs, err error) {
	defer buff.Recover(&err)

	ignoreHeaders(c.reader, c.Version)
	c.reader.Discard(8) // result capabilities, not surfaced yet
	cardinality := message.Cardinality(c.reader.PopUint8())

	inputID := gelval.UUID(c.reader.PopUUID())
	inputBlobLen := c.reader.PopUint32()
	inputDesc, err := descriptor.Pop(c.reader.PopSlice(inputBlobLen), c.Version)
	if err != nil {
		return StatementCodecs{}, err
	}

	outputID := gelval.UUID(c.reader.PopUUID())
	outputBlobLen := c.reader.PopUint32()
	outputDesc, err := descriptor.Pop(c.reader.PopSlice(outputBlobLen), c.Version)
	if err != nil {
		return StatementCodecs{}, err
	}

	inputCodec, err := c.Registry.Build(inputDesc)
	if err != nil {
		return StatementCodecs{}, gelerr.NewUnsupportedDescriptor(err.Error())
	}
	outputCodec, err := c.Registry.Build(outputDesc)
	if err != nil {
		return StatementCodecs{}, gelerr.NewUnsupportedDescriptor(err.Error())
	}

	return StatementCodecs{
		InputID: inputID, OutputID: outputID,
		Input: inputCodec, Output: outputCodec,
		Cardinality: cardinality,
	}, nil
}

// Execute sends an Execute message using the codecs Parse already
// negotiated and collects every Data row into a Result (spec.md
// §4.H "Execute flow", grounded on the teacher's execute2pX). A
// CommandDataDescription arriving mid-execute (the server's schema
// changed between Parse and Execute) causes the codecs to be rebuilt
// before decoding continues.
func (c *Conn) Execute(
	ctx context.Context, q Query, codecs StatementCodecs,
) (*Result, error) {
	lang := q.InputLanguage
	if lang == 0 {
		lang = message.LangEdgeQL
	}

	w := buff.NewWriter(c.writeScratch[:0])
	w.BeginMessage(uint8(message.Execute))
	if c.Version.HasAnnotationMaps() {
		annotations(w, nil)
	} else {
		legacyHeaders(w, nil)
	}
	w.PushUint64(q.Capabilities)
	w.PushUint64(0) // compilation flags
	w.PushUint64(0) // implicit limit
	if c.Version.HasInputLanguage() {
		w.PushUint8(uint8(lang))
	}
	w.PushUint8(uint8(q.OutputFormat))
	w.PushUint8(uint8(q.ExpectedCardinality))
	w.PushString(q.Command)
	w.PushUUID([16]byte(c.stateTypeID))
	c.pushState(w)
	w.PushUUID([16]byte(codecs.InputID))
	w.PushUUID([16]byte(codecs.OutputID))
	if err := codecs.Input.Encode(w, q.Args); err != nil {
		return nil, gelerr.NewQueryArgumentError(err.Error())
	}
	w.EndMessage()
	writeSync(w)

	if err := c.write(w); err != nil {
		return nil, err
	}

	result := &Result{Cardinality: q.ExpectedCardinality}
	var err error
	done := buff.NewSignal()

	for c.reader.Next(done.Chan) {
		switch message.Type(c.reader.MsgType) {
		case message.StateDataDescription:
			if e := c.decodeStateDataDescription(); e != nil {
				err = wrapAll(err, e)
			}
		case message.StatementDataDescription:
			cc, e := c.decodeCommandDataDescription()
			if e != nil {
				err = wrapAll(err, e)
			} else {
				codecs = cc
			}
		case message.Data:
			v, e := c.decodeDataMessage(codecs.Output)
			if e != nil {
				err = wrapAll(err, e)
			} else {
				result.Data = append(result.Data, v...)
			}
		case message.CommandComplete:
			cap, warnings, e := c.decodeCommandComplete()
			if e != nil {
				err = wrapAll(err, e)
			} else {
				result.Capabilities = cap
				result.Warnings = warnings
			}
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

	result.Cardinality = codecs.Cardinality
	if err := checkCardinality(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Conn) decodeDataMessage(output codec.Codec) (values []gelval.Value, err error) {
	defer buff.Recover(&err)

	n := int(c.reader.PopUint16()) // element count, always 1 for a single output codec
	values = make([]gelval.Value, 0, 1)
	for i := 0; i < n; i++ {
		elemLen := c.reader.PopUint32()
		sub := c.reader.PopSlice(elemLen)
		v, e := output.Decode(sub)
		if e != nil {
			return nil, e
		}
		values = append(values, v)
	}
	return values, nil
}

func (c *Conn) decodeCommandComplete() (capabilities uint64, warnings []string, err error) {
	defer buff.Recover(&err)

	warnings = decodeWarnings(popHeaders(c.reader, c.Version))
	capabilities = c.reader.PopUint64()
	c.reader.PopString() // status text
	if c.Version.GTE(protover.V2p0) {
		c.reader.PopUUID() // state type id
		stateLen := c.reader.PopUint32()
		c.reader.Discard(int(stateLen))
	}
	return capabilities, warnings, nil
}

// checkCardinality enforces AtMostOne/One against what the server
// actually returned (spec.md §4.C "Cardinality enforcement").
func checkCardinality(r *Result) error {
	switch r.Cardinality {
	case message.One:
		if len(r.Data) == 0 {
			return gelerr.NewNoDataError("query returned no data for a required result")
		}
		if len(r.Data) > 1 {
			return gelerr.NewResultCardinalityMismatch(fmt.Sprintf(
				"query returned %v rows for a required single result", len(r.Data)))
		}
	case message.AtMostOne:
		if len(r.Data) > 1 {
			return gelerr.NewResultCardinalityMismatch(fmt.Sprintf(
				"query returned %v rows for an at-most-one result", len(r.Data)))
		}
	}
	return nil
}

// pushState appends the encoded session state blob. An object codec's
// own Encode already produces a length-prefixed byte blob, so with a
// negotiated state codec this writes nothing beyond that; with none
// negotiated yet (the very first Parse on a fresh connection) it
// writes an empty blob instead.
func (c *Conn) pushState(w *buff.Writer) {
	if c.stateCodec != nil {
		_ = c.stateCodec.Encode(w, gelval.NewObject(nil))
		return
	}
	w.BeginBytes()
	w.EndBytes()
}
