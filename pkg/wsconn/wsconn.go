package wsconn

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn serialises writes to a single websocket connection. gorilla
// allows at most one concurrent writer per connection, while fanouts
// reach the same socket from many handler goroutines at once.
type Conn struct {
	*websocket.Conn
	mu sync.Mutex
}

func New(conn *websocket.Conn) *Conn {
	return &Conn{Conn: conn}
}

// WriteJSON shadows the embedded method with a locked one. All writes
// after the upgrade must go through it.
func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.Conn.WriteJSON(v)
}
