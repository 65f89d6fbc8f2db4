package controller

import (
	"context"
	"fmt"

	"github.com/watchroom/server/pkg/wsconn"
)

func (c controller) writeToConn(ctx context.Context, conn *wsconn.Conn, output *Output) error {
	if err := conn.WriteJSON(output); err != nil {
		return fmt.Errorf("failed to write to conn: %w", err)
	}

	return nil
}

// broadcast is fire-and-forget: a conn that fails mid-fanout is
// skipped, it misses this and all future broadcasts once its own
// disconnect cleanup prunes it from the membership.
func (c controller) broadcast(ctx context.Context, conns []*wsconn.Conn, output *Output) error {
	for _, conn := range conns {
		if err := conn.WriteJSON(output); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn", "error", err)
		}
	}

	c.metrics.AddBroadcasts(len(conns))

	return nil
}
