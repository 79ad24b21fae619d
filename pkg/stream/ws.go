package stream

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Pushed payloads are small; a deep buffer rides out slow links.
	sendBuffer = 256
)

// WSTransport adapts a websocket connection to the Transport interface.
// A single write pump owns the connection; Push only queues.
type WSTransport struct {
	conn *websocket.Conn
	send chan string

	mu     sync.Mutex
	closed bool
}

// NewWSTransport wraps an accepted connection and starts its write pump.
func NewWSTransport(conn *websocket.Conn) *WSTransport {
	t := &WSTransport{
		conn: conn,
		send: make(chan string, sendBuffer),
	}
	go t.writePump()
	return t
}

// Push queues one payload for delivery. It fails when the peer is gone or
// too slow to drain its buffer.
func (t *WSTransport) Push(payload string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return errors.New("transport closed")
	}
	t.mu.Unlock()

	select {
	case t.send <- payload:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

func (t *WSTransport) Alive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Close marks the transport dead and closes the connection. Safe to call
// more than once.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()
	return t.conn.Close()
}

// ReadPump blocks reading the connection until the peer disappears. The
// handler calls it to keep the connection open; nothing the robot sends is
// interpreted, reads only detect disconnection and answer pings.
func (t *WSTransport) ReadPump() {
	defer t.Close()

	t.conn.SetReadDeadline(time.Now().Add(pongWait))
	t.conn.SetPongHandler(func(string) error {
		t.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := t.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only goroutine that writes to the connection.
func (t *WSTransport) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		t.Close()
	}()

	for {
		select {
		case payload, ok := <-t.send:
			t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				t.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := t.conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				return
			}
		case <-ticker.C:
			t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
