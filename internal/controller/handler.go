package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/pkg/ctxlogger"
	"github.com/watchroom/server/pkg/wsconn"
)

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	// every write after the upgrade goes through the locked wrapper
	conn := wsconn.New(ws)
	connId := uuid.NewString()
	if err := c.roomService.Connect(r.Context(), &room.ConnectParams{
		Conn:   conn,
		ConnId: connId,
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to register connection", "error", err)
		conn.Close()
		return
	}

	c.metrics.ConnOpened()
	defer c.metrics.ConnClosed()
	defer c.disconnect(r.Context(), connId)

	ctx := context.WithValue(r.Context(), connIdCtxKey, connId)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("connection_id", connId))

	if err := c.writeToConn(ctx, conn, &Output{
		Type: "CONNECTED",
		Payload: map[string]any{
			"connection_id": connId,
		},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to write connected message", "error", err)
		return
	}

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(ctx, "connection closed", "error", err)
	}
}

// disconnect detaches the connection from every joined room and tells
// the remaining members.
func (c controller) disconnect(ctx context.Context, connId string) {
	disconnectResp, err := c.roomService.Disconnect(ctx, &room.DisconnectParams{ConnId: connId})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect", "connection_id", connId, "error", err)
		return
	}

	for _, leftRoom := range disconnectResp.LeftRooms {
		c.broadcast(ctx, leftRoom.Conns, &Output{
			Type: "PARTICIPANT_LEFT",
			Payload: map[string]any{
				"room_id":       leftRoom.RoomId,
				"connection_id": connId,
				"participants":  leftRoom.Participants,
			},
		})
	}
}
