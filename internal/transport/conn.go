package transport

import (
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// client is one upgraded WebSocket connection. Outbound messages go through
// a buffered channel serviced by a single writer goroutine; senders never
// block on a slow socket.
type client struct {
	id   string
	conn net.Conn
	send chan []byte

	closeOnce sync.Once
}

// readText reads the next text frame. Control frames are handled inside
// wsutil; non-text data frames are skipped and reported as a nil payload.
func (c *client) readText() ([]byte, error) {
	data, op, err := wsutil.ReadClientData(c.conn)
	if err != nil {
		return nil, err
	}
	if op != ws.OpText {
		return nil, nil
	}
	return data, nil
}

// writeLoop drains the send channel onto the socket. It owns the socket
// close so a peer reading a half-shut connection sees a clean EOF.
func (c *client) writeLoop() {
	defer func() { _ = c.conn.Close() }()
	for msg := range c.send {
		if err := wsutil.WriteServerText(c.conn, msg); err != nil {
			return
		}
	}
}

// close releases the send channel, stopping the writer. Idempotent.
func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}
