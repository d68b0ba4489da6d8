package server

import (
	"sync"

	"github.com/gorilla/websocket"
)

// wsChannel serializes writes to one websocket connection.
// gorilla/websocket permits at most one concurrent writer, and pushes
// arrive from processor goroutines the read loop knows nothing about.
type wsChannel struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSChannel(conn *websocket.Conn) *wsChannel {
	return &wsChannel{conn: conn}
}

func (c *wsChannel) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteJSON(v)
}
