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

// Package descriptor parses the self-describing type descriptor
// stream a StatementDataDescription/CommandDataDescription message
// carries (spec.md §3 "Type descriptor", §4.C "Record descriptor").
// Protocol generations before 2.0 send a flat, unnamed descriptor
// list; 2.0 and later length-prefix each entry and attach type names,
// ancestors and ObjectShape/Compound/SQLRecord kinds. Pop dispatches
// on the negotiated protover.Version and builds one Descriptor tree
// either way, so internal/codec never has to know which generation
// produced it.
package descriptor

import (
	"fmt"

	"github.com/gel-io/gelwire/internal/buff"
	"github.com/gel-io/gelwire/internal/protover"
	"github.com/gel-io/gelwire/gelval"
)

// Kind is a type descriptor's wire tag.
type Kind uint8

const (
	Set Kind = iota
	Object
	BaseScalar
	Scalar
	Tuple
	NamedTuple
	Array
	Enum
	InputShape
	Range
	ObjectShape
	Compound
	MultiRange
	SQLRecord
)

// Zero is the all-zero descriptor id servers use for "no descriptor"
// (e.g. a NoResult command's output descriptor).
var Zero gelval.UUID

// Shape element flag bits the wire carries on Object/InputShape
// fields (spec.md §3 "RecordDescriptor" / §4.C): IMPLICIT marks a
// field the server injected rather than one the query named (e.g. an
// injected "id"), LINKPROP marks a property of a link rather than of
// the linked object itself, LINK marks a field that is itself a link.
const (
	shapeFlagImplicit uint32 = 1 << 0
	shapeFlagLinkProp uint32 = 1 << 1
	shapeFlagLink     uint32 = 1 << 2
)

// Field is one child of a Descriptor: an element type for Set/Array/
// Range/MultiRange, a tuple/record/shape member for the rest.
type Field struct {
	Name     string
	Desc     Descriptor
	Required bool
	Union    bool

	// IsImplicit, IsLinkProperty and IsLink classify an Object/
	// InputShape field the way query.RecordDescriptor's field kinds
	// do (spec.md §4.C); zero for every other Field use (tuple
	// elements, ancestors, and so on never set these).
	IsImplicit     bool
	IsLinkProperty bool
	IsLink         bool
}

// Descriptor is a parsed type descriptor tree node.
type Descriptor struct {
	Kind          Kind
	ID            gelval.UUID
	Name          string
	SchemaDefined bool
	Ancestors     []*Field
	Fields        []*Field
}

// Pop consumes the remainder of r as a type descriptor stream and
// returns the final (outermost) descriptor, the one the preceding
// entries build up to.
func Pop(r *buff.Reader, ver protover.Version) (desc Descriptor, err error) {
	defer buff.Recover(&err)

	if ver.HasLengthPrefixedDescriptors() {
		return popModern(r)
	}
	return popLegacy(r)
}

func popLegacy(r *buff.Reader) (Descriptor, error) {
	var descriptors []Descriptor

	for !r.Finished() {
		typ := Kind(r.PopUint8())
		id := r.PopUUID()
		var desc Descriptor

		switch typ {
		case Set:
			desc = Descriptor{Kind: Set, ID: id, Fields: []*Field{
				{Desc: descriptors[r.PopUint16()]},
			}}
		case Object:
			fields, err := legacyObjectFields(r, descriptors)
			if err != nil {
				return Descriptor{}, err
			}
			desc = Descriptor{Kind: Object, ID: id, Fields: fields}
		case BaseScalar:
			desc = Descriptor{Kind: BaseScalar, ID: id}
		case Scalar:
			desc = descriptors[r.PopUint16()]
		case Tuple:
			desc = Descriptor{Kind: Tuple, ID: id,
				Fields: legacyIndexedFields(r, descriptors)}
		case NamedTuple:
			desc = Descriptor{Kind: NamedTuple, ID: id,
				Fields: legacyNamedFields(r, descriptors)}
		case Array:
			fields := []*Field{{Desc: descriptors[r.PopUint16()]}}
			if err := assertArrayDimensions(r); err != nil {
				return Descriptor{}, err
			}
			desc = Descriptor{Kind: Array, ID: id, Fields: fields}
		case Enum:
			discardEnumMemberNames(r)
			desc = Descriptor{Kind: Enum, ID: id}
		default:
			if typ >= 0x80 {
				r.PopBytes() // unknown type annotation, ignored
				descriptors = append(descriptors, Descriptor{})
				continue
			}
			return Descriptor{}, fmt.Errorf(
				"unknown descriptor type 0x%x", byte(typ))
		}

		descriptors = append(descriptors, desc)
	}

	if len(descriptors) == 0 {
		return Descriptor{Kind: Tuple, ID: Zero}, nil
	}
	return descriptors[len(descriptors)-1], nil
}

func legacyObjectFields(
	r *buff.Reader, descriptors []Descriptor,
) ([]*Field, error) {
	n := int(r.PopUint16())
	fields := make([]*Field, n)
	for i := 0; i < n; i++ {
		flags := uint32(r.PopUint8())
		fields[i] = &Field{
			Name:           r.PopString(),
			Desc:           descriptors[r.PopUint16()],
			IsImplicit:     flags&shapeFlagImplicit != 0,
			IsLinkProperty: flags&shapeFlagLinkProp != 0,
			IsLink:         flags&shapeFlagLink != 0,
		}
	}
	return fields, nil
}

func legacyIndexedFields(r *buff.Reader, descriptors []Descriptor) []*Field {
	n := int(r.PopUint16())
	fields := make([]*Field, n)
	for i := 0; i < n; i++ {
		fields[i] = &Field{
			Name: fmt.Sprint(i),
			Desc: descriptors[r.PopUint16()],
		}
	}
	return fields
}

func legacyNamedFields(r *buff.Reader, descriptors []Descriptor) []*Field {
	n := int(r.PopUint16())
	fields := make([]*Field, n)
	for i := 0; i < n; i++ {
		fields[i] = &Field{
			Name: r.PopString(),
			Desc: descriptors[r.PopUint16()],
		}
	}
	return fields
}

func assertArrayDimensions(r *buff.Reader) error {
	n := int(r.PopUint16())
	if n == 0 {
		return fmt.Errorf("too few array dimensions: expected at least 1, got 0")
	}
	r.Discard(4 * n)
	return nil
}

func discardEnumMemberNames(r *buff.Reader) {
	n := int(r.PopUint16())
	for i := 0; i < n; i++ {
		r.PopBytes()
	}
}
