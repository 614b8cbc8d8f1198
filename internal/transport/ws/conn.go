package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/pairline/signal-service/internal/domain"
)

const writeWait = 5 * time.Second

// wsConn serializes writes to one websocket connection; gorilla allows a
// single concurrent writer.
type wsConn struct {
	conn   *websocket.Conn
	sendMu chan struct{}
	closed chan struct{}
}

func newWSConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   c,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(ev domain.Event) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	return c.conn.WriteJSON(ev)
}

func (c *wsConn) Ping() error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()

	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}
