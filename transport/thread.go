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
	"net"
	"sync"

	"github.com/gel-io/gelwire/internal/soc"
)

// ThreadTransport is the parallel-thread adapter: a blocking TCP
// socket read on its own goroutine, feeding chunks to Messages()
// (spec.md §4.J "parallel-thread adapter uses a blocking socket",
// grounded on internal/soc.Read/MemPool, the teacher's own socket
// layer).
type ThreadTransport struct {
	conn net.Conn

	pool     *soc.MemPool
	messages chan *soc.Data

	disconnected chan struct{}
	closeOnce    sync.Once
}

// DialThread dials address over TCP and starts the background reader
// goroutine. chunkSize/poolSeed size the slab pool soc.Read draws
// from (spec.md §4.J, §5 "Resource lifetime").
func DialThread(
	ctx context.Context, address string, chunkSize, poolSeed int,
) (*ThreadTransport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	t := &ThreadTransport{
		conn:         conn,
		pool:         soc.NewMemPool(poolSeed, chunkSize),
		messages:     make(chan *soc.Data, poolSeed),
		disconnected: make(chan struct{}),
	}

	go func() {
		soc.Read(conn, t.pool, t.messages)
		t.closeOnce.Do(func() { close(t.disconnected) })
	}()

	return t, nil
}

func (t *ThreadTransport) Write(buf []byte) error {
	for len(buf) > 0 {
		n, err := t.conn.Write(buf)
		if err != nil {
			_ = t.conn.Close()
			return err
		}
		buf = buf[n:]
	}
	return nil
}

func (t *ThreadTransport) Messages() chan *soc.Data { return t.messages }

// Abort closes the socket; the reader goroutine's next (or
// in-flight) Read then fails permanently, which unblocks any pending
// Messages receive and signals WaitForDisconnect.
func (t *ThreadTransport) Abort(_ error) {
	_ = t.conn.Close()
}

// WaitForConnect is a no-op: DialThread only returns once the TCP
// handshake has completed, so by the time a caller holds a
// ThreadTransport it is already connected.
func (t *ThreadTransport) WaitForConnect(_ context.Context) error {
	return nil
}

func (t *ThreadTransport) WaitForDisconnect() <-chan struct{} {
	return t.disconnected
}

func (t *ThreadTransport) Close() error {
	return t.conn.Close()
}
