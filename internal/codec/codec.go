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

// Package codec turns a descriptor.Descriptor tree into a Codec that
// can Decode wire bytes into a gelval.Value and Encode a gelval.Value
// back onto the wire (spec.md §4.D "Scalar codec table", §4.E
// "Composite codec kinds", §4.F "Registry/builder").
package codec

import (
	"github.com/gel-io/gelwire/gelval"
	"github.com/gel-io/gelwire/internal/buff"
)

// Codec decodes and encodes one shape of value. Every Decode call
// consumes exactly one value's worth of framed bytes from r (a
// BeginBytes/EndBytes-delimited element, or the whole message body
// for a top-level Data value); Decode never needs to know its own
// length in advance because buff.Reader already bounds it.
type Codec interface {
	Decode(r *buff.Reader) (gelval.Value, error)
	Encode(w *buff.Writer, val gelval.Value) error

	// DescriptorID is the type descriptor id this codec was built
	// from, used as the registry's cache key (spec.md §4.F).
	DescriptorID() gelval.UUID
}
