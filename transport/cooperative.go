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

package transport

import (
	"context"
	"sync"

	"github.com/gel-io/gelwire/internal/soc"
)

// WriteFunc sends a fully framed outbound message through whatever
// event loop owns the real byte pipe (a test harness, an embedder's
// own connection object, anything that is not a Go-native blocking
// socket).
type WriteFunc func(buf []byte) error

// CooperativeTransport is the single-threaded adapter (spec.md §4.J
// "the cooperative adapter wires the transport's data_received into
// the read buffer"): there is no dedicated reader goroutine. Instead,
// an embedding event loop calls Feed whenever bytes arrive on
// whatever connection it owns, and MarkConnected/Abort to report
// connect/disconnect — the same Messages channel ThreadTransport
// exposes, just pushed to from the caller's own goroutine instead of
// a background one.
type CooperativeTransport struct {
	write WriteFunc

	messages chan *soc.Data

	connected    chan struct{}
	connectOnce  sync.Once
	disconnected chan struct{}
	closeOnce    sync.Once
}

// NewCooperativeTransport builds a CooperativeTransport that sends
// outbound bytes through write. The caller must call MarkConnected
// once the underlying pipe is ready to carry traffic, and Feed for
// every chunk of inbound bytes it receives.
func NewCooperativeTransport(write WriteFunc) *CooperativeTransport {
	return &CooperativeTransport{
		write:        write,
		messages:     make(chan *soc.Data, 16),
		connected:    make(chan struct{}),
		disconnected: make(chan struct{}),
	}
}

func (t *CooperativeTransport) Write(buf []byte) error { return t.write(buf) }

func (t *CooperativeTransport) Messages() chan *soc.Data { return t.messages }

// Feed hands a chunk of inbound bytes to the read buffer, copying it
// first since the caller's buffer is typically reused after the
// callback returns.
func (t *CooperativeTransport) Feed(buf []byte) {
	cp := append([]byte(nil), buf...)
	t.messages <- &soc.Data{Buf: cp}
}

// MarkConnected unblocks any pending WaitForConnect. Safe to call more
// than once; only the first call has an effect.
func (t *CooperativeTransport) MarkConnected() {
	t.connectOnce.Do(func() { close(t.connected) })
}

func (t *CooperativeTransport) WaitForConnect(ctx context.Context) error {
	select {
	case <-t.connected:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *CooperativeTransport) WaitForDisconnect() <-chan struct{} {
	return t.disconnected
}

// Abort delivers a terminal error to any pending Messages receive and
// marks the transport disconnected. Mirrors the cooperative adapter's
// cancellation escalation: a cancelled wait_for_message becomes a
// connection abort rather than leaving the read buffer waiting
// forever (spec.md §5 "Cancellation").
func (t *CooperativeTransport) Abort(err error) {
	select {
	case t.messages <- &soc.Data{Err: err}:
	default:
	}
	t.signalDisconnected()
}

func (t *CooperativeTransport) Close() error {
	t.signalDisconnected()
	return nil
}

func (t *CooperativeTransport) signalDisconnected() {
	t.closeOnce.Do(func() { close(t.disconnected) })
}
