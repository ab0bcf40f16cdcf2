package websocket

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type mockFrame struct {
	messageType int
	data        []byte
}

// mockConnection is an in-memory Connection. Receive blocks until a
// frame is queued or the connection is closed.
type mockConnection struct {
	incoming chan []byte
	written  chan mockFrame
	closed   chan struct{}
	once     sync.Once
}

func newMockConnection() *mockConnection {
	return &mockConnection{
		incoming: make(chan []byte, 8),
		written:  make(chan mockFrame, 64),
		closed:   make(chan struct{}),
	}
}

var errMockClosed = errors.New("mock connection closed")

func (m *mockConnection) Send(messageType int, data []byte, _ time.Time) error {
	select {
	case <-m.closed:
		return errMockClosed
	default:
	}
	m.written <- mockFrame{messageType: messageType, data: append([]byte(nil), data...)}
	return nil
}

func (m *mockConnection) Receive() ([]byte, error) {
	select {
	case msg := <-m.incoming:
		return msg, nil
	case <-m.closed:
		return nil, errMockClosed
	}
}

func (m *mockConnection) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

func (m *mockConnection) KeepAlive(int64, time.Duration) {}
func (m *mockConnection) RemoteAddr() string           { return "192.0.2.1:50000" }

// nextText waits for the next text frame written to the connection
func (m *mockConnection) nextText(t *testing.T) []byte {
	t.Helper()
	for {
		select {
		case f := <-m.written:
			if f.messageType == websocket.TextMessage {
				return f.data
			}
		case <-time.After(2 * time.Second):
			require.FailNow(t, "timed out waiting for a text frame")
			return nil
		}
	}
}
