package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/watchroom/server/internal/metrics"
	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/pkg/validator"
	"github.com/watchroom/server/pkg/wsrouter"
)

type iRoomService interface {
	Connect(context.Context, *room.ConnectParams) error
	Disconnect(context.Context, *room.DisconnectParams) (room.DisconnectResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) (room.LeaveRoomResponse, error)
	Play(context.Context, *room.ReportPlaybackParams) (room.SyncResponse, error)
	Pause(context.Context, *room.ReportPlaybackParams) (room.SyncResponse, error)
	Seek(context.Context, *room.ReportPlaybackParams) (room.SyncResponse, error)
	UpdateStatus(context.Context, *room.UpdateStatusParams) (room.SyncResponse, error)
	GetSyncState(ctx context.Context, roomId string) (room.PlayerState, error)
	SendChatMessage(context.Context, *room.SendChatMessageParams) (room.SendChatMessageResponse, error)
}

// HealthcheckFunc reports whether the backing store is reachable.
type HealthcheckFunc func(ctx context.Context) error

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	metrics     *metrics.Metrics
	healthcheck HealthcheckFunc
	logger      *slog.Logger
}

func NewController(roomService iRoomService, m *metrics.Metrics, healthcheck HealthcheckFunc, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		metrics:     m,
		healthcheck: healthcheck,
		logger:      logger,
	}
	c.wsmux = c.getWSMux()

	return c
}
