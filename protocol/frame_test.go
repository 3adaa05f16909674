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
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gel-io/gelwire/gelerr"
	"github.com/gel-io/gelwire/internal/buff"
	"github.com/gel-io/gelwire/internal/message"
	"github.com/gel-io/gelwire/internal/protover"
)

func splitFrame(t *testing.T, buf []byte) (msgType uint8, body []byte) {
	t.Helper()
	require.GreaterOrEqual(t, len(buf), 5)
	msgType = buf[0]
	msgLen := binary.BigEndian.Uint32(buf[1:5])
	require.Equal(t, int(msgLen), len(buf)-1)
	return msgType, buf[5:]
}

func TestClientHandshakeOrdersParamsDeterministically(t *testing.T) {
	params := map[string]string{
		"user":     "alice",
		"database": "main",
		"branch":   "",
	}

	w1 := clientHandshake(params, nil)
	w2 := clientHandshake(params, nil)

	assert.Equal(t, w1.Unwrap(), w2.Unwrap())
}

func TestClientHandshakeBody(t *testing.T) {
	w := clientHandshake(map[string]string{"user": "alice"}, nil)
	msgType, body := splitFrame(t, w.Unwrap())
	assert.Equal(t, uint8(message.ClientHandshake), msgType)

	r := buff.SimpleReader(body)
	assert.Equal(t, uint16(3), r.PopUint16()) // major
	assert.Equal(t, uint16(0), r.PopUint16()) // minor
	assert.Equal(t, uint16(1), r.PopUint16()) // param count
	assert.Equal(t, "user", r.PopString())
	assert.Equal(t, "alice", r.PopString())
	assert.Equal(t, uint16(0), r.PopUint16()) // extension count
	assert.True(t, r.Finished())
}

func TestClientHandshakeDropsEmptyParams(t *testing.T) {
	w := clientHandshake(map[string]string{
		"user": "alice", "branch": "",
	}, nil)
	_, body := splitFrame(t, w.Unwrap())
	r := buff.SimpleReader(body)
	r.PopUint16()
	r.PopUint16()
	assert.Equal(t, uint16(1), r.PopUint16())
}

func TestWriteSyncEmptyBody(t *testing.T) {
	w := buff.NewWriter(nil)
	w.BeginMessage(uint8(message.Parse))
	w.EndMessage()
	writeSync(w)

	buf := w.Unwrap()
	msgType, body := splitFrame(t, buf[:5])
	assert.Equal(t, uint8(message.Parse), msgType)
	assert.Empty(t, body)

	msgType, body = splitFrame(t, buf[5:])
	assert.Equal(t, uint8(message.Sync), msgType)
	assert.Empty(t, body)
}

func TestDecodeErrorResponseUsesCode(t *testing.T) {
	w := buff.NewWriter(nil)
	w.PushUint8(120) // severity
	w.PushUint32(0x05_03_01_01)
	w.PushString("serialization failure")
	w.PushUint16(0)

	r := buff.SimpleReader(w.Unwrap())
	err := decodeErrorResponse(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serialization failure")

	gelErr, ok := err.(gelerr.Error)
	require.True(t, ok)
	assert.True(t, gelErr.Category(gelerr.TransactionSerializationError))
}

func TestWrapNetErrorClassifiesTimeout(t *testing.T) {
	err := wrapNetError(&net.DNSError{IsTimeout: true, Err: "deadline exceeded"})
	require.Error(t, err)

	gelErr, ok := err.(gelerr.Error)
	require.True(t, ok)
	assert.True(t, gelErr.Category(gelerr.ClientConnectionTimeoutError))
	assert.True(t, gelErr.HasTag(gelerr.ShouldRetry))
}

func TestWrapNetErrorClassifiesNonTimeout(t *testing.T) {
	err := wrapNetError(&net.OpError{Op: "dial", Err: assertErr("refused")})
	require.Error(t, err)

	gelErr, ok := err.(gelerr.Error)
	require.True(t, ok)
	assert.True(t, gelErr.Category(gelerr.ClientConnectionFailedTempErr))
}

func TestWrapAllCombinesMultipleErrors(t *testing.T) {
	e := wrapAll(nil, assertErr("a"), nil, assertErr("b"))
	require.Error(t, e)
	assert.Contains(t, e.Error(), "a")
	assert.Contains(t, e.Error(), "b")
}

func TestWrapAllSingleErrorPassesThrough(t *testing.T) {
	only := assertErr("only")
	e := wrapAll(nil, only)
	assert.Equal(t, only, e)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestPopHeadersAnnotationMap(t *testing.T) {
	w := buff.NewWriter(nil)
	annotations(w, map[string]string{"warnings": `[{"code":1,"message":"x"}]`})
	r := buff.SimpleReader(w.Unwrap())

	h := popHeaders(r, protover.Max)
	assert.Equal(t, `[{"code":1,"message":"x"}]`, h["warnings"])
	assert.True(t, r.Finished())
}

func TestPopHeadersLegacyMap(t *testing.T) {
	w := buff.NewWriter(nil)
	legacyHeaders(w, map[uint16][]byte{0x1001: {1, 2, 3, 4, 5, 6, 7, 8}})
	r := buff.SimpleReader(w.Unwrap())

	h := popHeaders(r, protover.Version{Major: 0, Minor: 13})
	assert.Equal(t, string([]byte{1, 2, 3, 4, 5, 6, 7, 8}), h["4097"])
}

func TestDecodeWarningsExtractsMessages(t *testing.T) {
	headers := map[string]string{
		"warnings": `[{"code":1,"message":"deprecated"},{"code":2,"message":"slow"}]`,
	}
	assert.Equal(t, []string{"deprecated", "slow"}, decodeWarnings(headers))
}

func TestDecodeWarningsNoKeyIsNil(t *testing.T) {
	assert.Nil(t, decodeWarnings(map[string]string{}))
}

func TestDecodeWarningsMalformedJSONIsNil(t *testing.T) {
	assert.Nil(t, decodeWarnings(map[string]string{"warnings": "not json"}))
}
