package controller

import (
	"context"

	"github.com/watchroom/server/pkg/wsconn"
	"github.com/watchroom/server/pkg/wsrouter"
)

func (c controller) getWSMux() *wsrouter.WSRouter {
	mux := wsrouter.New(c.handleWSError)

	handle(c, mux, "ALIVE", c.handleAlive)

	// membership
	handle(c, mux, "JOIN_ROOM", c.handleJoinRoom)
	handle(c, mux, "LEAVE_ROOM", c.handleLeaveRoom)

	// playback sync
	handle(c, mux, "REQUEST_SYNC", c.handleRequestSync)
	handle(c, mux, "PLAY_VIDEO", c.handlePlayVideo)
	handle(c, mux, "PAUSE_VIDEO", c.handlePauseVideo)
	handle(c, mux, "SEEK_VIDEO", c.handleSeekVideo)
	handle(c, mux, "SYNC_STATUS", c.handleSyncStatus)

	// chat
	handle(c, mux, "CHAT_MESSAGE", c.handleChatMessage)

	return mux
}

func handle[T any](c controller, mux *wsrouter.WSRouter, messageType string, handler func(context.Context, *wsconn.Conn, T) error) {
	wsrouter.Handle(mux, messageType, func(ctx context.Context, conn *wsconn.Conn, input T) error {
		c.metrics.IncEvent(messageType)
		return handler(ctx, conn, input)
	})
}

// handleWSError is the drop path for malformed, unknown and
// unauthorized events. Nothing is surfaced to the client.
func (c controller) handleWSError(ctx context.Context, err error) {
	messageType := wsrouter.GetMessageTypeFromCtx(ctx)
	c.metrics.IncDropped(messageType)
	c.logger.DebugContext(ctx, "dropped message", "type", messageType, "error", err)
}
