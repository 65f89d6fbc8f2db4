package wsrouter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/watchroom/server/pkg/wsconn"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *wsconn.Conn, payload json.RawMessage) error

// ErrorFunc is called for handler failures and unknown message types.
// The read loop keeps serving the connection afterwards.
type ErrorFunc func(ctx context.Context, err error)

type WSRouter struct {
	routes  map[string]HandlerFunc
	onError ErrorFunc
}

func New(onError ErrorFunc) *WSRouter {
	if onError == nil {
		onError = func(context.Context, error) {}
	}

	return &WSRouter{
		routes:  make(map[string]HandlerFunc),
		onError: onError,
	}
}

// Handle registers a handler with a typed payload. The payload is
// unmarshalled before the handler runs; undecodable payloads are
// reported to the error callback and dropped.
func Handle[T any](r *WSRouter, messageType string, handler func(ctx context.Context, conn *wsconn.Conn, input T) error) {
	r.routes[messageType] = func(ctx context.Context, conn *wsconn.Conn, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		return handler(ctx, conn, input)
	}
}

// ServeConn reads messages until the connection fails or the context is
// cancelled. The returned error is the read error that ended the loop.
func (r *WSRouter) ServeConn(ctx context.Context, conn *wsconn.Conn) error {
	defer conn.Close()

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)

		handler, exists := r.routes[msg.Type]
		if !exists {
			r.onError(msgCtx, fmt.Errorf("unknown message type %q", msg.Type))
			continue
		}

		if err := handler(msgCtx, conn, msg.Payload); err != nil {
			r.onError(msgCtx, err)
		}
	}
}
