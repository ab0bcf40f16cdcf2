package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Connection is the transport a client pumps frames over
type Connection interface {
	// Send writes one frame, failing once deadline passes
	Send(messageType int, data []byte, deadline time.Time) error
	// Receive blocks for the next data frame
	Receive() ([]byte, error)
	// KeepAlive caps inbound frames at limit bytes and drops the peer after
	// idle without a frame or pong
	KeepAlive(limit int64, idle time.Duration)
	Close() error
	RemoteAddr() string
}

// gorillaConn adapts *websocket.Conn. Each received frame or pong pushes the
// read deadline idle into the future.
type gorillaConn struct {
	conn *websocket.Conn
	idle time.Duration
}

// WrapConn adapts an upgraded gorilla connection
func WrapConn(conn *websocket.Conn) Connection {
	return &gorillaConn{conn: conn}
}

func (g *gorillaConn) Send(messageType int, data []byte, deadline time.Time) error {
	if err := g.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return g.conn.WriteMessage(messageType, data)
}

func (g *gorillaConn) Receive() ([]byte, error) {
	_, data, err := g.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, g.extend()
}

func (g *gorillaConn) KeepAlive(limit int64, idle time.Duration) {
	g.idle = idle
	g.conn.SetReadLimit(limit)
	g.extend()
	g.conn.SetPongHandler(func(string) error { return g.extend() })
}

func (g *gorillaConn) extend() error {
	if g.idle <= 0 {
		return nil
	}
	return g.conn.SetReadDeadline(time.Now().Add(g.idle))
}

func (g *gorillaConn) Close() error {
	return g.conn.Close()
}

func (g *gorillaConn) RemoteAddr() string {
	return g.conn.RemoteAddr().String()
}
