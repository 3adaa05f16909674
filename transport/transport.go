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

// Package transport provides the byte-pipe a protocol.Conn drives:
// something that can Write a framed message out and hand framed
// messages back in, regardless of whether the bytes cross a real
// socket on a reader goroutine or are fed in by an embedding event
// loop (spec.md §4.J "Transport adapters").
package transport

import (
	"context"

	"github.com/gel-io/gelwire/internal/soc"
)

// Transport is the shared surface both adapters present to
// protocol.Conn: write(buffer), wait_for_message (modeled as a
// receive on the channel Messages returns), try_recv_eagerly, abort,
// wait_for_connect, wait_for_disconnect (spec.md §4.J).
type Transport interface {
	// Write sends a fully framed outbound message.
	Write(buf []byte) error

	// Messages is the channel buff.Reader pulls inbound chunks from.
	// Receiving from it blocks until a chunk or a terminal error is
	// available — the adapter-agnostic "wait_for_message" suspension
	// point (spec.md §5).
	Messages() chan *soc.Data

	// Abort tears the transport down immediately, unblocking any
	// pending Messages receive with a terminal error. Used on
	// cancellation and on an unrecoverable write failure.
	Abort(err error)

	// WaitForConnect blocks until the transport is usable, or ctx is
	// done first.
	WaitForConnect(ctx context.Context) error

	// WaitForDisconnect returns a channel closed once the transport
	// has gone down, by Abort, Close, or a permanent read/write
	// error.
	WaitForDisconnect() <-chan struct{}

	// Close gracefully shuts the transport down.
	Close() error
}

// TryRecvEagerly is try_recv_eagerly (spec.md §4.J): a non-blocking
// check for a chunk that has already arrived, used by callers that
// want to opportunistically drain buffered data without suspending.
func TryRecvEagerly(messages chan *soc.Data) (*soc.Data, bool) {
	select {
	case d := <-messages:
		return d, true
	default:
		return nil, false
	}
}
