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
	"context"
	"fmt"

	"github.com/xdg/scram"

	"github.com/gel-io/gelwire/gelerr"
	"github.com/gel-io/gelwire/gelval"
	"github.com/gel-io/gelwire/internal/buff"
	"github.com/gel-io/gelwire/internal/codec"
	"github.com/gel-io/gelwire/internal/descriptor"
	"github.com/gel-io/gelwire/internal/message"
	"github.com/gel-io/gelwire/internal/protover"
	"github.com/gel-io/gelwire/transport"
)

// chunkSize is the slab size soc.MemPool hands the socket reader
// goroutine, chosen the way the teacher sizes its read buffer: large
// enough to usually hold a whole Data message, small enough that a
// burst of idle connections doesn't pin much memory.
const chunkSize = 1 << 16

// poolSeed is how many slabs NewMemPool preallocates.
const poolSeed = 4

// Params carries the connection parameters the ClientHandshake
// message negotiates (spec.md §6 "Handshake").
type Params struct {
	User      string
	Password  string
	Database  string
	Branch    string
	SecretKey string
}

func (p Params) handshakeParams() map[string]string {
	return map[string]string{
		"user":       p.User,
		"database":   p.Database,
		"branch":     p.Branch,
		"secret_key": p.SecretKey,
	}
}

// Conn is one established, authenticated protocol connection: a
// socket, its framed reader/writer pair, the negotiated version, and
// the session state codec (spec.md §4.G/§4.H).
type Conn struct {
	tp     transport.Transport
	reader *buff.Reader

	writeScratch []byte

	Version protover.Version

	Registry *codec.Registry

	stateTypeID gelval.UUID
	stateCodec  codec.Codec

	serverKey []byte
}

// Dial opens a TCP connection to address, performs the protocol
// handshake and SCRAM-SHA-256 authentication, and returns a ready-to-
// use Conn (spec.md §4.H "Connection lifecycle").
func Dial(
	ctx context.Context, address string, params Params, registry *codec.Registry,
) (*Conn, error) {
	tp, err := transport.DialThread(ctx, address, chunkSize, poolSeed)
	if err != nil {
		return nil, gelerr.NewClientConnectionFailedTemporarily(err)
	}
	return newConn(tp, params, registry)
}

// NewConn builds a Conn over any transport.Transport (the cooperative
// adapter included) and runs the same handshake Dial does. Use this
// to drive the protocol engine over a transport owned by an embedding
// event loop rather than gelwire's own dialed socket (spec.md §4.J).
func NewConn(
	ctx context.Context, tp transport.Transport, params Params, registry *codec.Registry,
) (*Conn, error) {
	if err := tp.WaitForConnect(ctx); err != nil {
		return nil, err
	}
	return newConn(tp, params, registry)
}

func newConn(tp transport.Transport, params Params, registry *codec.Registry) (*Conn, error) {
	c := &Conn{tp: tp, Registry: registry}
	c.reader = buff.NewReader(tp.Messages())

	if err := c.handshake(params); err != nil {
		_ = c.tp.Close()
		return nil, err
	}

	return c, nil
}

func (c *Conn) write(w *buff.Writer) error {
	buf := w.Unwrap()
	if err := c.tp.Write(buf); err != nil {
		c.tp.Abort(err)
		return wrapNetError(err)
	}
	return nil
}

func (c *Conn) handshake(params Params) error {
	w := clientHandshake(params.handshakeParams(), c.writeScratch[:0])
	c.Version = protover.Max
	if err := c.write(w); err != nil {
		return err
	}

	var err error
	done := buff.NewSignal()

	for c.reader.Next(done.Chan) {
		switch message.Type(c.reader.MsgType) {
		case message.ServerHandshake:
			ver := protover.Version{
				Major: c.reader.PopUint16(),
				Minor: c.reader.PopUint16(),
			}
			if ver.LT(protover.Min) || ver.GT(protover.Max) {
				_ = c.tp.Close()
				return gelerr.NewUnsupportedProtocolVersion(fmt.Sprintf(
					"server requested unsupported protocol version %v", ver))
			}
			c.Version = ver

			n := int(c.reader.PopUint16())
			for i := 0; i < n; i++ {
				c.reader.PopString() // extension name
				ignoreHeaders(c.reader, ver)
			}

		case message.ServerKeyData:
			c.serverKey = append([]byte(nil), c.reader.Buf...)
			c.reader.DiscardMessage()

		case message.ParameterStatus:
			c.reader.PopString() // name
			c.reader.PopBytes()  // value

		case message.Authentication:
			status := c.reader.PopUint32()
			if status == message.AuthStatusOK {
				continue
			}
			if status != message.AuthStatusSASL {
				return gelerr.NewNoSupportedSaslMechanism(fmt.Sprintf(
					"unexpected authentication status 0x%x", status))
			}

			n := int(c.reader.PopUint32())
			found := false
			for i := 0; i < n; i++ {
				if c.reader.PopString() == "SCRAM-SHA-256" {
					found = true
				}
			}
			if !found {
				return gelerr.NewNoSupportedSaslMechanism(
					"server does not support SCRAM-SHA-256")
			}

			if e := c.authenticate(params); e != nil {
				return e
			}
			done.Signal()

		case message.StateDataDescription:
			if e := c.decodeStateDataDescription(); e != nil {
				err = wrapAll(err, e)
			}

		case message.ReadyForCommand:
			ignoreHeaders(c.reader, c.Version)
			c.reader.Discard(1) // transaction status
			done.Signal()

		case message.ErrorResponse:
			err = wrapAll(err, decodeErrorResponse(c.reader))
			done.Signal()

		default:
			c.reader.DiscardMessage()
		}
	}

	return wrapAll(err, c.reader.Err)
}

// authenticate drives the three-step SCRAM-SHA-256 exchange: initial
// client-first message, server-first response, client-final message,
// verified against the server's final signature (spec.md §6 "SCRAM
// authentication").
func (c *Conn) authenticate(params Params) error {
	client, err := scram.SHA256.NewClient(params.User, params.Password, "")
	if err != nil {
		return gelerr.NewProtocolError(err.Error())
	}

	conv := client.NewConversation()
	scramMsg, err := conv.Step("")
	if err != nil {
		return gelerr.NewProtocolError(err.Error())
	}

	w := buff.NewWriter(c.writeScratch[:0])
	w.BeginMessage(uint8(message.AuthenticationSASLInitialResponse))
	w.PushString("SCRAM-SHA-256")
	w.PushString(scramMsg)
	w.EndMessage()
	if err := c.write(w); err != nil {
		return err
	}

	done := buff.NewSignal()
	for c.reader.Next(done.Chan) {
		switch message.Type(c.reader.MsgType) {
		case message.Authentication:
			status := c.reader.PopUint32()
			if status != message.AuthStatusSASLContinue {
				return gelerr.NewProtocolError(fmt.Sprintf(
					"unexpected authentication status 0x%x", status))
			}
			scramMsg, err = conv.Step(c.reader.PopString())
			if err != nil {
				return gelerr.NewServerProofMismatch(err.Error())
			}
			done.Signal()
		case message.ErrorResponse:
			return decodeErrorResponse(c.reader)
		default:
			c.reader.DiscardMessage()
		}
	}
	if c.reader.Err != nil {
		return c.reader.Err
	}

	w = buff.NewWriter(c.writeScratch[:0])
	w.BeginMessage(uint8(message.AuthenticationSASLResponse))
	w.PushString(scramMsg)
	w.EndMessage()
	if err := c.write(w); err != nil {
		return err
	}

	var finalErr error
	done = buff.NewSignal()
	for c.reader.Next(done.Chan) {
		switch message.Type(c.reader.MsgType) {
		case message.Authentication:
			status := c.reader.PopUint32()
			switch status {
			case message.AuthStatusOK:
			case message.AuthStatusSASLFinal:
				if _, e := conv.Step(c.reader.PopString()); e != nil {
					return gelerr.NewServerProofMismatch(e.Error())
				}
			default:
				return gelerr.NewProtocolError(fmt.Sprintf(
					"unexpected authentication status 0x%x", status))
			}
		case message.ServerKeyData:
			c.serverKey = append([]byte(nil), c.reader.Buf...)
			c.reader.DiscardMessage()
		case message.StateDataDescription:
			if e := c.decodeStateDataDescription(); e != nil {
				finalErr = wrapAll(finalErr, e)
			}
		case message.ReadyForCommand:
			ignoreHeaders(c.reader, c.Version)
			c.reader.Discard(1)
			done.Signal()
		case message.ErrorResponse:
			finalErr = wrapAll(finalErr, decodeErrorResponse(c.reader))
			done.Signal()
		default:
			c.reader.DiscardMessage()
		}
	}

	return wrapAll(finalErr, c.reader.Err)
}

func (c *Conn) decodeStateDataDescription() (err error) {
	defer buff.Recover(&err)

	ignoreHeaders(c.reader, c.Version)
	typeID := gelval.UUID(c.reader.PopUUID())
	if typeID == c.stateTypeID {
		c.reader.DiscardMessage()
		return nil
	}

	blobLen := c.reader.PopUint32()
	sub := c.reader.PopSlice(blobLen)
	desc, err := descriptor.Pop(sub, c.Version)
	if err != nil {
		return err
	}

	cd, err := c.Registry.Build(desc)
	if err != nil {
		return gelerr.NewUnsupportedDescriptor(err.Error())
	}

	c.stateTypeID = typeID
	c.stateCodec = cd
	return nil
}

// Close sends Terminate and closes the underlying socket. It is safe
// to call more than once.
func (c *Conn) Close() error {
	w := buff.NewWriter(c.writeScratch[:0])
	writeTerminate(w)
	_ = c.write(w)
	return c.tp.Close()
}
