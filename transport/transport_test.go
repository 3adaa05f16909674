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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gel-io/gelwire/internal/soc"
)

func TestCooperativeTransportFeedDeliversChunk(t *testing.T) {
	tp := NewCooperativeTransport(func([]byte) error { return nil })
	tp.Feed([]byte("hello"))

	d := <-tp.Messages()
	require.NoError(t, d.Err)
	assert.Equal(t, "hello", string(d.Buf))
}

func TestCooperativeTransportFeedCopiesInput(t *testing.T) {
	tp := NewCooperativeTransport(func([]byte) error { return nil })
	buf := []byte("hello")
	tp.Feed(buf)
	buf[0] = 'H'

	d := <-tp.Messages()
	assert.Equal(t, "hello", string(d.Buf))
}

func TestCooperativeTransportWriteDelegates(t *testing.T) {
	var got []byte
	tp := NewCooperativeTransport(func(b []byte) error {
		got = append([]byte(nil), b...)
		return nil
	})
	require.NoError(t, tp.Write([]byte("ping")))
	assert.Equal(t, "ping", string(got))
}

func TestCooperativeTransportWaitForConnectBlocksUntilMarked(t *testing.T) {
	tp := NewCooperativeTransport(func([]byte) error { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tp.WaitForConnect(ctx), context.DeadlineExceeded)

	tp.MarkConnected()
	assert.NoError(t, tp.WaitForConnect(context.Background()))
}

func TestCooperativeTransportAbortDeliversErrorAndDisconnects(t *testing.T) {
	tp := NewCooperativeTransport(func([]byte) error { return nil })
	boom := errors.New("boom")
	tp.Abort(boom)

	d := <-tp.Messages()
	assert.Equal(t, boom, d.Err)

	select {
	case <-tp.WaitForDisconnect():
	default:
		t.Fatal("expected WaitForDisconnect to be closed after Abort")
	}
}

func TestCooperativeTransportCloseIsIdempotent(t *testing.T) {
	tp := NewCooperativeTransport(func([]byte) error { return nil })
	assert.NoError(t, tp.Close())
	assert.NoError(t, tp.Close())
}

func TestTryRecvEagerlyNonBlocking(t *testing.T) {
	messages := make(chan *soc.Data, 1)

	_, ok := TryRecvEagerly(messages)
	assert.False(t, ok)

	messages <- &soc.Data{Buf: []byte("x")}
	d, ok := TryRecvEagerly(messages)
	assert.True(t, ok)
	assert.Equal(t, "x", string(d.Buf))
}
