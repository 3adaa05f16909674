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
	"errors"
	"net"

	"github.com/gel-io/gelwire/gelerr"
	"github.com/gel-io/gelwire/internal/buff"
)

// decodeErrorResponse decodes an ErrorResponse message body into a
// gelerr.Error, honoring the code remapping gelerr.FromCode applies
// for pre-3.0 servers.
func decodeErrorResponse(r *buff.Reader) error {
	r.Discard(1) // severity
	code := r.PopUint32()
	msg := r.PopString()

	n := int(r.PopUint16())
	for i := 0; i < n; i++ {
		r.PopUint16() // header key
		r.PopString() // header value
	}

	return gelerr.FromCode(code, msg)
}

// wrappedManyError joins several errors observed in the same message
// loop (e.g. a StateDataDescription decode failure alongside a later
// ErrorResponse) into one, the way a single read loop that cannot
// stop early on the first error still needs to report all of them.
type wrappedManyError struct {
	msg  string
	errs []error
}

func (e *wrappedManyError) Error() string { return e.msg }

func (e *wrappedManyError) Unwrap() []error { return e.errs }

func wrapAll(errs ...error) error {
	var present []error
	for _, e := range errs {
		if e != nil {
			present = append(present, e)
		}
	}

	switch len(present) {
	case 0:
		return nil
	case 1:
		return present[0]
	}

	msg := present[0].Error()
	for _, e := range present[1:] {
		msg += "; " + e.Error()
	}
	return &wrappedManyError{msg: msg, errs: present}
}

// wrapNetError classifies a raw net.Error into the connection-failure
// taxonomy spec.md §7 describes, so callers can branch on ShouldRetry
// without type-switching on net package internals.
func wrapNetError(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return gelerr.NewTimeout(err)
	}

	return gelerr.NewClientConnectionFailedTemporarily(err)
}
