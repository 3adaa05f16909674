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
	"github.com/gel-io/gelwire/internal/cache"
	"github.com/gel-io/gelwire/internal/descriptor"
)

// DefaultRegistryCapacity bounds how many distinct codecs a Registry
// keeps hot. Descriptor ids churn across schema migrations; a bounded
// LRU keeps memory flat across a long-lived connection pool
// (spec.md §4.F "Registry capacity").
const DefaultRegistryCapacity = 1000

// Registry is the two-level codec cache: an outer LRU keyed by the
// top-level descriptor id (what Parse/Execute actually hand back),
// and a build-phase map keyed by every intermediate descriptor id
// seen while walking one descriptor tree, so a tree that repeats a
// sub-descriptor (a recursive type, or simply the same scalar twice)
// only builds it once per call to Build.
type Registry struct {
	byID *cache.Cache

	// overrides lets a caller substitute a Codec for a given
	// descriptor id outright — the equivalent of the teacher's
	// per-type custom-codec registration, generalized to any id
	// rather than only user Go struct types (spec.md §4.F
	// "Per-type overrides").
	overrides map[gelval.UUID]Codec
}

// NewRegistry returns a Registry with the given LRU capacity.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		byID:      cache.New(capacity),
		overrides: make(map[gelval.UUID]Codec),
	}
}

// Override installs c as the codec for id, bypassing the builder
// entirely whenever that descriptor id is seen again.
func (reg *Registry) Override(id gelval.UUID, c Codec) {
	reg.overrides[id] = c
}

// Lookup returns the cached codec for id, if the registry has built
// one for it before.
func (reg *Registry) Lookup(id gelval.UUID) (Codec, bool) {
	if c, ok := reg.overrides[id]; ok {
		return c, true
	}
	if v, ok := reg.byID.Get(id); ok {
		return v.(Codec), true
	}
	return nil, false
}

// Build walks desc and returns its Codec, consulting and populating
// the registry's caches as it goes. A sub-descriptor already present
// in the outer LRU is reused without being rebuilt or re-walked
// (spec.md §4.F "Descriptor-skip-without-rebuild").
func (reg *Registry) Build(desc descriptor.Descriptor) (Codec, error) {
	built := make(map[gelval.UUID]Codec)
	c, err := reg.build(desc, built)
	if err != nil {
		return nil, err
	}
	reg.byID.Put(desc.ID, c)
	return c, nil
}

func (reg *Registry) build(
	desc descriptor.Descriptor, built map[gelval.UUID]Codec,
) (Codec, error) {
	if c, ok := reg.overrides[desc.ID]; ok {
		return c, nil
	}
	if c, ok := built[desc.ID]; ok {
		return c, nil
	}
	if c, ok := reg.byID.Get(desc.ID); ok {
		cc := c.(Codec)
		built[desc.ID] = cc
		return cc, nil
	}

	var (
		c   Codec
		err error
	)

	switch desc.Kind {
	case descriptor.BaseScalar:
		c = &scalarCodec{id: desc.ID}

	case descriptor.Scalar:
		// A Scalar with ancestors wraps its base under a schema-defined
		// name; the wire shape is identical to the base. A Scalar with
		// no ancestors is itself a base scalar (the form protocol >= 2.0
		// uses in place of BaseScalar) and is decoded by its own id.
		if len(desc.Ancestors) == 0 {
			c = &scalarCodec{id: desc.ID}
		} else {
			c, err = reg.build(desc.Ancestors[0].Desc, built)
		}

	case descriptor.Array:
		elem, buildErr := reg.build(desc.Fields[0].Desc, built)
		if buildErr != nil {
			return nil, buildErr
		}
		c = &arrayCodec{id: desc.ID, elem: elem}

	case descriptor.Set:
		elem, buildErr := reg.build(desc.Fields[0].Desc, built)
		if buildErr != nil {
			return nil, buildErr
		}
		c = &arrayCodec{id: desc.ID, elem: elem, set: true}

	case descriptor.Tuple:
		fields := make([]Codec, len(desc.Fields))
		for i, f := range desc.Fields {
			fc, buildErr := reg.build(f.Desc, built)
			if buildErr != nil {
				return nil, buildErr
			}
			fields[i] = fc
		}
		c = &tupleCodec{id: desc.ID, fields: fields}

	case descriptor.NamedTuple:
		fields := make([]Codec, len(desc.Fields))
		names := make([]string, len(desc.Fields))
		for i, f := range desc.Fields {
			fc, buildErr := reg.build(f.Desc, built)
			if buildErr != nil {
				return nil, buildErr
			}
			fields[i] = fc
			names[i] = f.Name
		}
		c = &tupleCodec{id: desc.ID, fields: fields, names: names}

	case descriptor.Object, descriptor.InputShape:
		fields := make([]Codec, len(desc.Fields))
		names := make([]string, len(desc.Fields))
		isLink := make([]bool, len(desc.Fields))
		isLinkProp := make([]bool, len(desc.Fields))
		for i, f := range desc.Fields {
			fc, buildErr := reg.build(f.Desc, built)
			if buildErr != nil {
				return nil, buildErr
			}
			fields[i] = fc
			names[i] = f.Name
			isLink[i] = f.IsLink
			isLinkProp[i] = f.IsLinkProperty
		}
		c = &objectCodec{
			id: desc.ID, names: names, fields: fields,
			isLink: isLink, isLinkProp: isLinkProp,
			sparse: desc.Kind == descriptor.InputShape,
		}

	case descriptor.SQLRecord:
		fields := make([]Codec, len(desc.Fields))
		names := make([]string, len(desc.Fields))
		for i, f := range desc.Fields {
			fc, buildErr := reg.build(f.Desc, built)
			if buildErr != nil {
				return nil, buildErr
			}
			fields[i] = fc
			names[i] = f.Name
		}
		c = &tupleCodec{id: desc.ID, fields: fields, names: names}

	case descriptor.Enum:
		c = &enumCodec{id: desc.ID}

	case descriptor.Range:
		inner, buildErr := reg.build(desc.Fields[0].Desc, built)
		if buildErr != nil {
			return nil, buildErr
		}
		c = &rangeCodec{id: desc.ID, inner: inner}

	case descriptor.MultiRange:
		rangeDesc := desc.Fields[0].Desc
		inner, buildErr := reg.build(rangeDesc.Fields[0].Desc, built)
		if buildErr != nil {
			return nil, buildErr
		}
		c = &multiRangeCodec{
			id: desc.ID, inner: &rangeCodec{id: rangeDesc.ID, inner: inner},
		}

	case descriptor.ObjectShape, descriptor.Compound:
		// Pure metadata: acknowledged but never decoded as a value in
		// their own right, so they produce the null codec rather than
		// failing the build (spec.md §4.F).
		c = &nullCodec{id: desc.ID}

	default:
		return nil, fmt.Errorf("unsupported descriptor kind %v", desc.Kind)
	}

	if err != nil {
		return nil, err
	}

	built[desc.ID] = c
	reg.byID.Put(desc.ID, c)
	return c, nil
}
