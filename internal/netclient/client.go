// Package netclient dispatches node-protocol requests over TCP or TLS and
// manages the pool of sockets doing so, plus the auto-launch of a local
// node process when a client targets "local" and none is running yet. It
// deliberately works only with the wire package's neutral string/DTO
// shapes, never with the root superq package's rich types, to stay free of
// the import cycle that would create.
package netclient

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/manesajian/superq/internal/wire"
)

// Client issues node-protocol requests against one or more remote nodes.
type Client struct {
	pool    *Pool
	tlsConf *tls.Config
}

// New builds a Client. tlsConf may be nil for plaintext connections to
// non-ssl-tagged addresses; a per-call TLS config is used automatically
// when Dispatch is asked to reach an "ssl:" addressed node.
func New(tlsConf *tls.Config) *Client {
	return &Client{pool: NewPool(8), tlsConf: tlsConf}
}

var (
	msgIDMu  sync.Mutex
	msgIDSeq int64
)

// nextMsgID mints a request identifier from a process-wide counter guarded
// by a lock, so identifiers increase monotonically across every Client in
// the process.
func (c *Client) nextMsgID() string {
	msgIDMu.Lock()
	defer msgIDMu.Unlock()
	msgIDSeq++
	return strconv.FormatInt(msgIDSeq, 10)
}

// Dispatch sends one request to addr (plain TCP unless useTLS is set) and
// returns the decoded response.
func (c *Client) Dispatch(addr string, useTLS bool, cmd wire.Command, args, body string) (wire.Response, error) {
	var tlsConf *tls.Config
	if useTLS {
		tlsConf = c.tlsConf
		if tlsConf == nil {
			tlsConf = &tls.Config{}
		}
	}

	cp := c.pool.poolFor(addr, tlsConf)
	conn, err := cp.checkout()
	if err != nil {
		return wire.Response{}, err
	}

	req := wire.Request{MsgID: c.nextMsgID(), Cmd: cmd, Args: args, Body: body}
	if err := wire.WriteFrame(conn, req.Encode()); err != nil {
		cp.checkin(conn, true)
		return wire.Response{}, fmt.Errorf("netclient: send to %s: %w", addr, err)
	}

	raw, err := wire.ReadFrame(conn)
	if err != nil {
		cp.checkin(conn, true)
		return wire.Response{}, fmt.Errorf("netclient: recv from %s: %w", addr, err)
	}
	cp.checkin(conn, false)

	resp, err := wire.DecodeResponse(raw)
	if err != nil {
		return wire.Response{}, err
	}
	return resp, nil
}

// Ping opens and immediately releases a connection to addr, used by the
// auto-launch retry loop to detect a node coming up.
func Ping(addr string, tlsConf *tls.Config) error {
	var conn net.Conn
	var err error
	if tlsConf != nil {
		conn, err = tls.Dial("tcp", addr, tlsConf)
	} else {
		conn, err = net.Dial("tcp", addr)
	}
	if err != nil {
		return err
	}
	return conn.Close()
}
