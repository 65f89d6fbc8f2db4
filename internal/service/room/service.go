package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/watchroom/server/internal/repository/room"
	"github.com/watchroom/server/pkg/wsconn"
)

var (
	ErrNotHost     = errors.New("sender is not the room host")
	ErrRoomFull    = errors.New("room is full")
	ErrInvalidTime = errors.New("invalid playback time")
)

type iRoomRepo interface {
	// player state
	GetPlayerState(context.Context, string) (room.PlayerState, error)
	SetPlayerState(context.Context, *room.SetPlayerStateParams) error
	// membership
	AddMember(context.Context, *room.AddMemberParams) error
	RemoveMember(context.Context, *room.RemoveMemberParams) error
	GetMemberIds(context.Context, string) ([]string, error)
	GetMembersCount(context.Context, string) (int, error)
	// host
	SetHostIfAbsent(ctx context.Context, roomId string, connId string) (bool, error)
	GetHost(ctx context.Context, roomId string) (string, error)
	RemoveHostIfEquals(ctx context.Context, roomId string, connId string) (bool, error)
}

type iConnRepo interface {
	Add(conn *wsconn.Conn, connId string) error
	RemoveByConnId(connId string) error
	GetConn(connId string) (*wsconn.Conn, error)
	JoinRoom(connId string, roomId string) error
	LeaveRoom(connId string, roomId string) error
	IsInRoom(connId string, roomId string) bool
	GetRooms(connId string) ([]string, error)
}

type Config struct {
	MembersLimit    int
	SyncToleranceMs int
}

type service struct {
	roomRepo        iRoomRepo
	connRepo        iConnRepo
	membersLimit    int
	syncToleranceMs int
	logger          *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	return &service{
		roomRepo:        roomRepo,
		connRepo:        connRepo,
		membersLimit:    cfg.MembersLimit,
		syncToleranceMs: cfg.SyncToleranceMs,
		logger:          logger,
	}
}
