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
	"github.com/gel-io/gelwire/internal/cache"
	"github.com/gel-io/gelwire/internal/message"
)

// capabilitiesDDL marks a command that alters schema; observing it
// invalidates every per-connection cache, since a schema change can
// change what descriptor ids mean (spec.md §4.I "Cache invalidation").
const capabilitiesDDL uint64 = 0x8

// defaultCacheCapacity bounds the fingerprint/capabilities cache the
// same way internal/codec.DefaultRegistryCapacity bounds the codec
// registry.
const defaultCacheCapacity = 1000

// fingerprint is the cache key identifying one distinct statement
// shape: command text plus the request parameters that change how the
// server would compile it (spec.md §4.I "Fingerprint").
type fingerprint struct {
	Command             string
	OutputFormat        message.OutputFormat
	ExpectedCardinality message.Cardinality
	InputLanguage       message.InputLanguage
}

// statementCache tracks, per connection, the capabilities a fingerprint
// was last observed to require — enough for the retry loop to tell a
// read-only query from a mutation without re-parsing (spec.md §4.I
// "Read-only queries are always retryable").
type statementCache struct {
	capabilities *cache.Cache
}

func newStatementCache() *statementCache {
	return &statementCache{capabilities: cache.New(defaultCacheCapacity)}
}

func (c *statementCache) getCapabilities(fp fingerprint) (uint64, bool) {
	v, ok := c.capabilities.Get(fp)
	if !ok {
		return 0, false
	}
	return v.(uint64), true
}

// observe records the capabilities a command was compiled with,
// invalidating the whole cache first if those capabilities include
// DDL (a schema change may have redefined every previously cached
// fingerprint's meaning).
func (c *statementCache) observe(fp fingerprint, capabilities uint64) {
	if capabilities&capabilitiesDDL != 0 {
		c.capabilities.Invalidate()
	}
	c.capabilities.Put(fp, capabilities)
}
