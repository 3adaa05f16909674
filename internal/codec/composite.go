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

package codec

import (
	"fmt"

	"github.com/gel-io/gelwire/gelval"
	"github.com/gel-io/gelwire/internal/buff"
)

// arrayCodec decodes/encodes Array and Set alike: both are a flat
// element list, the distinction (named-vs-anonymous multiplicity)
// lives in the descriptor, not the wire layout (spec.md §4.E). The
// header is always a single dimension: ndims, two reserved/flags
// fields, then that dimension's upper and lower bound, mirroring the
// teacher's arrayEncoder/arrayDecoder (internal/codecs/array.go) byte
// for byte rather than collapsing it to a bare count.
type arrayCodec struct {
	id   gelval.UUID
	elem Codec
	set  bool
}

func (c *arrayCodec) DescriptorID() gelval.UUID { return c.id }

func (c *arrayCodec) wrap(elems []gelval.Value) gelval.Value {
	if c.set {
		return gelval.NewSet(elems)
	}
	return gelval.NewArray(elems)
}

func (c *arrayCodec) Decode(r *buff.Reader) (gelval.Value, error) {
	ndims := r.PopUint32()
	if ndims == 0 {
		// ndims=0 decodes to an empty collection (spec.md §8).
		r.Discard(8) // reserved, reserved
		return c.wrap(nil), nil
	}
	r.Discard(8) // reserved, reserved

	upper := int32(r.PopUint32())
	lower := int32(r.PopUint32())
	n := int(upper - lower + 1)

	elems := make([]gelval.Value, n)
	for i := range elems {
		elemLen := r.PopUint32()
		sub := r.PopSlice(elemLen)
		v, err := c.elem.Decode(sub)
		if err != nil {
			return gelval.Value{}, err
		}
		if !sub.Finished() {
			return gelval.Value{}, fmt.Errorf(
				"array element %v: trailing data after decode", i)
		}
		elems[i] = v
	}
	return c.wrap(elems), nil
}

func (c *arrayCodec) Encode(w *buff.Writer, val gelval.Value) error {
	n := len(val.Elements)

	w.BeginBytes()
	w.PushUint32(1)         // number of dimensions
	w.PushUint32(0)         // reserved
	w.PushUint32(0)         // reserved
	w.PushUint32(uint32(n)) // dimension.upper
	w.PushUint32(1)         // dimension.lower
	for _, e := range val.Elements {
		if err := c.elem.Encode(w, e); err != nil {
			return err
		}
	}
	w.EndBytes()
	return nil
}

// tupleCodec decodes/encodes Tuple and NamedTuple: a fixed-arity
// element list, each prefixed by a reserved uint32 (spec.md §4.E
// "Tuple").
type tupleCodec struct {
	id     gelval.UUID
	names  []string // empty for a plain Tuple
	fields []Codec
}

func (c *tupleCodec) DescriptorID() gelval.UUID { return c.id }

func (c *tupleCodec) Decode(r *buff.Reader) (gelval.Value, error) {
	n := int(r.PopUint32())
	if n != len(c.fields) {
		return gelval.Value{}, fmt.Errorf(
			"tuple: expected %v elements, wire has %v", len(c.fields), n)
	}

	elems := make([]gelval.Value, n)
	for i := 0; i < n; i++ {
		r.Discard(4) // reserved
		elemLen := r.PopUint32()
		sub := r.PopSlice(elemLen)
		v, err := c.fields[i].Decode(sub)
		if err != nil {
			return gelval.Value{}, err
		}
		elems[i] = v
	}

	if len(c.names) == 0 {
		return gelval.NewTuple(elems), nil
	}

	fields := make([]gelval.NamedField, n)
	for i, name := range c.names {
		fields[i] = gelval.NamedField{Name: name, Value: elems[i]}
	}
	return gelval.NewNamedTuple(fields), nil
}

func (c *tupleCodec) Encode(w *buff.Writer, val gelval.Value) error {
	elems := val.Elements
	if len(c.names) > 0 {
		elems = make([]gelval.Value, len(val.Fields))
		for i, f := range val.Fields {
			elems[i] = f.Value
		}
	}
	if len(elems) != len(c.fields) {
		return fmt.Errorf(
			"tuple: expected %v elements, got %v", len(c.fields), len(elems))
	}

	w.BeginBytes()
	w.PushUint32(uint32(len(elems)))
	for i, e := range elems {
		w.PushUint32(0) // reserved
		if err := encodeElement(w, c.fields[i], e); err != nil {
			return err
		}
	}
	w.EndBytes()
	return nil
}

// objectCodec decodes/encodes Object and SparseObject. An Object
// field list always has every field present; a SparseObject field's
// presence on the wire is itself optional (cardinality 0 means
// omitted, spec.md §4.E "Sparse input shape").
type objectCodec struct {
	id         gelval.UUID
	names      []string
	fields     []Codec
	isLink     []bool
	isLinkProp []bool
	sparse     bool
}

func (c *objectCodec) DescriptorID() gelval.UUID { return c.id }

func (c *objectCodec) Decode(r *buff.Reader) (gelval.Value, error) {
	n := int(r.PopUint32())

	fields := make([]gelval.NamedField, 0, n)
	for i := 0; i < n; i++ {
		idx := i
		if c.sparse {
			// sparse (input-shape) fields are self-describing: each
			// carries the descriptor field index it corresponds to,
			// since absent fields are simply never emitted.
			idx = int(r.PopUint32())
		} else {
			r.Discard(4) // reserved
		}

		elemLen := int32(r.PopUint32())
		if elemLen == -1 {
			// field present but value is {} (empty set) on the wire
			continue
		}
		sub := r.PopSlice(uint32(elemLen))

		v, err := c.fields[idx].Decode(sub)
		if err != nil {
			return gelval.Value{}, err
		}
		name := ""
		link := false
		linkProp := false
		if idx < len(c.names) {
			name = c.names[idx]
			link = c.isLink[idx]
			linkProp = c.isLinkProp[idx]
		}
		fields = append(fields, gelval.NamedField{
			Name: name, Value: v, IsLink: link, IsLinkProp: linkProp,
		})
	}

	if c.sparse {
		return gelval.NewSparseObject(fields), nil
	}
	return gelval.NewObject(fields), nil
}

func (c *objectCodec) Encode(w *buff.Writer, val gelval.Value) error {
	w.BeginBytes()
	w.PushUint32(uint32(len(val.Fields)))
	for _, f := range val.Fields {
		idx := -1
		for i, name := range c.names {
			if name == f.Name {
				idx = i
				break
			}
		}
		if idx == -1 {
			return fmt.Errorf("object: unknown field %q", f.Name)
		}
		if c.sparse {
			w.PushUint32(uint32(idx))
		} else {
			w.PushUint32(0) // reserved
		}
		if err := encodeElement(w, c.fields[idx], f.Value); err != nil {
			return err
		}
	}
	w.EndBytes()
	return nil
}

// nullCodec stands in for a descriptor that carries no wire payload of
// its own: ObjectShape and Compound (ids 10/11) are pure metadata the
// server sends to describe a union/object type, never a value any
// component actually decodes (spec.md §4.F "Registry/builder", §3
// "Codec" listing Null as a variant). Decode always yields the null
// value regardless of whatever bytes happen to be present; Encode
// writes a zero-length payload.
type nullCodec struct {
	id gelval.UUID
}

func (c *nullCodec) DescriptorID() gelval.UUID { return c.id }

func (c *nullCodec) Decode(r *buff.Reader) (gelval.Value, error) {
	return gelval.Null(), nil
}

func (c *nullCodec) Encode(w *buff.Writer, val gelval.Value) error {
	w.BeginBytes()
	w.EndBytes()
	return nil
}

// enumCodec decodes/encodes Enum: on the wire it is just a str, the
// label text (spec.md §4.E "Enum").
type enumCodec struct {
	id gelval.UUID
}

func (c *enumCodec) DescriptorID() gelval.UUID { return c.id }

func (c *enumCodec) Decode(r *buff.Reader) (gelval.Value, error) {
	v := gelval.NewEnum(string(r.Buf))
	r.DiscardMessage()
	return v, nil
}

func (c *enumCodec) Encode(w *buff.Writer, val gelval.Value) error {
	w.BeginBytes()
	w.PushBytes([]byte(val.Str))
	w.EndBytes()
	return nil
}

// rangeCodec decodes/encodes Range: a flags byte followed by
// optionally-present lower/upper bounds (spec.md §4.E "Range"). Empty
// ranges carry neither bound; this is Range's sole invariant.
type rangeCodec struct {
	id    gelval.UUID
	inner Codec
}

const (
	rangeFlagEmpty    = 0x01
	rangeFlagIncLower = 0x02
	rangeFlagIncUpper = 0x04
	rangeFlagNoLower  = 0x08
	rangeFlagNoUpper  = 0x10
)

func (c *rangeCodec) DescriptorID() gelval.UUID { return c.id }

func (c *rangeCodec) Decode(r *buff.Reader) (gelval.Value, error) {
	flags := r.PopUint8()
	if flags&rangeFlagEmpty != 0 {
		return gelval.NewRange(nil, nil, false, false, true), nil
	}

	var lower, upper *gelval.Value
	if flags&rangeFlagNoLower == 0 {
		elemLen := r.PopUint32()
		sub := r.PopSlice(elemLen)
		v, err := c.inner.Decode(sub)
		if err != nil {
			return gelval.Value{}, err
		}
		lower = &v
	}
	if flags&rangeFlagNoUpper == 0 {
		elemLen := r.PopUint32()
		sub := r.PopSlice(elemLen)
		v, err := c.inner.Decode(sub)
		if err != nil {
			return gelval.Value{}, err
		}
		upper = &v
	}

	return gelval.NewRange(
		lower, upper,
		flags&rangeFlagIncLower != 0,
		flags&rangeFlagIncUpper != 0,
		false,
	), nil
}

func (c *rangeCodec) Encode(w *buff.Writer, val gelval.Value) error {
	w.BeginBytes()
	if val.RangeEmpty {
		w.PushUint8(rangeFlagEmpty)
		w.EndBytes()
		return nil
	}

	var flags uint8
	if val.RangeIncLower {
		flags |= rangeFlagIncLower
	}
	if val.RangeIncUpper {
		flags |= rangeFlagIncUpper
	}
	if val.RangeLower == nil {
		flags |= rangeFlagNoLower
	}
	if val.RangeUpper == nil {
		flags |= rangeFlagNoUpper
	}
	w.PushUint8(flags)

	if val.RangeLower != nil {
		if err := encodeElement(w, c.inner, *val.RangeLower); err != nil {
			return err
		}
	}
	if val.RangeUpper != nil {
		if err := encodeElement(w, c.inner, *val.RangeUpper); err != nil {
			return err
		}
	}
	w.EndBytes()
	return nil
}

// multiRangeCodec decodes/encodes MultiRange: a count-prefixed list
// of length-prefixed Range elements (spec.md §4.E "MultiRange").
type multiRangeCodec struct {
	id    gelval.UUID
	inner *rangeCodec
}

func (c *multiRangeCodec) DescriptorID() gelval.UUID { return c.id }

func (c *multiRangeCodec) Decode(r *buff.Reader) (gelval.Value, error) {
	n := int(r.PopUint32())
	ranges := make([]gelval.Value, n)
	for i := range ranges {
		elemLen := r.PopUint32()
		sub := r.PopSlice(elemLen)
		v, err := c.inner.Decode(sub)
		if err != nil {
			return gelval.Value{}, err
		}
		ranges[i] = v
	}
	return gelval.NewMultiRange(ranges), nil
}

func (c *multiRangeCodec) Encode(w *buff.Writer, val gelval.Value) error {
	w.BeginBytes()
	w.PushUint32(uint32(len(val.Elements)))
	for _, r := range val.Elements {
		if err := encodeElement(w, c.inner, r); err != nil {
			return err
		}
	}
	w.EndBytes()
	return nil
}

// encodeElement writes a length-prefixed sub-element by calling the
// inner codec's Encode on the same writer; every codec's Encode writes
// its own length prefix, so composites nest elements this way.
func encodeElement(w *buff.Writer, inner Codec, val gelval.Value) error {
	return inner.Encode(w, val)
}
