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

package query

import (
	"fmt"

	"github.com/gel-io/gelwire/gelval"
)

// FieldKind is what a RecordDescriptor field refers to: a plain
// property, a link, or a property carried on a link itself (spec.md
// §4.C "RecordDescriptor").
type FieldKind uint8

const (
	FieldProperty FieldKind = iota
	FieldLink
	FieldLinkProperty
)

// Lookup is the tagged outcome of RecordDescriptor.Lookup.
type Lookup struct {
	Found bool
	Kind  FieldKind
	Pos   int
}

// RecordDescriptor names and orders the fields of one Object/Record
// shape: the wire order of an object's fields, not the object's
// values (spec.md §4.C). It is built once per distinct shape
// descriptor and shared by every decoded value of that shape, mirroring
// the names/isLink slices internal/codec's object codec already
// carries per descriptor.
type RecordDescriptor struct {
	names  []string
	kinds  []FieldKind
	byName map[string]int
	idpos  int
}

// NewRecordDescriptor builds a RecordDescriptor from a names tuple
// and an optional parallel kinds tuple (nil treats every field as a
// plain property). Names must be unique; kinds, if given, must be the
// same length as names.
func NewRecordDescriptor(names []string, kinds []FieldKind) (*RecordDescriptor, error) {
	if kinds != nil && len(kinds) != len(names) {
		return nil, fmt.Errorf(
			"record descriptor: %v names but %v kinds", len(names), len(kinds))
	}

	byName := make(map[string]int, len(names))
	idpos := -1
	for i, name := range names {
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("record descriptor: duplicate field name %q", name)
		}
		byName[name] = i
		if name == "id" {
			idpos = i
		}
	}

	d := &RecordDescriptor{names: names, byName: byName, idpos: idpos}
	if kinds != nil {
		d.kinds = kinds
	} else {
		d.kinds = make([]FieldKind, len(names))
	}
	return d, nil
}

// Len is the field count, equal to the dense position range [0, Len()).
func (d *RecordDescriptor) Len() int { return len(d.names) }

// Name returns the field name at pos.
func (d *RecordDescriptor) Name(pos int) string { return d.names[pos] }

// IDPos returns the position of the "id" field, if the shape has one.
func (d *RecordDescriptor) IDPos() (int, bool) {
	if d.idpos < 0 {
		return 0, false
	}
	return d.idpos, true
}

// Lookup resolves a field name to its position and kind.
func (d *RecordDescriptor) Lookup(name string) Lookup {
	pos, ok := d.byName[name]
	if !ok {
		return Lookup{}
	}
	return Lookup{Found: true, Kind: d.kinds[pos], Pos: pos}
}

// DescribeRecord builds a RecordDescriptor for one decoded Object,
// NamedTuple or SparseObject value, reading the names/link/link-
// property flags the object codec already attached to each field
// (spec.md §4.C, grounded on internal/codec's objectCodec.isLink/
// isLinkProp). Every row of the same query shares an identical shape,
// so callers should call this once per statement rather than once per
// row.
func DescribeRecord(v gelval.Value) (*RecordDescriptor, error) {
	names := make([]string, len(v.Fields))
	kinds := make([]FieldKind, len(v.Fields))
	for i, f := range v.Fields {
		names[i] = f.Name
		switch {
		case f.IsLinkProp:
			kinds[i] = FieldLinkProperty
		case f.IsLink:
			kinds[i] = FieldLink
		default:
			kinds[i] = FieldProperty
		}
	}
	return NewRecordDescriptor(names, kinds)
}
