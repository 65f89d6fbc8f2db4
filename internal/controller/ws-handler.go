package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/pkg/wsconn"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

var ErrValidationError = errors.New("validation error")

func (c controller) validateInput(input any) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %v", ErrValidationError, validationErrors)
	}

	return nil
}

type EmptyInput struct{}

func (c controller) handleAlive(_ context.Context, _ *wsconn.Conn, _ EmptyInput) error {
	return nil
}

type JoinRoomInput struct {
	RoomId string `json:"room_id" validate:"required"`
}

func (c controller) handleJoinRoom(ctx context.Context, conn *wsconn.Conn, input JoinRoomInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	connId := c.getConnIdFromCtx(ctx)

	joinRoomResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		ConnId: connId,
		RoomId: input.RoomId,
	})
	if errors.Is(err, room.ErrRoomFull) {
		// a full room is answered, not dropped: the joiner must learn
		// it is not in the room
		return c.writeToConn(ctx, conn, &Output{
			Type: "JOIN_REJECTED",
			Payload: map[string]any{
				"room_id": input.RoomId,
				"reason":  "room_full",
			},
		})
	}
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	if err := c.writeToConn(ctx, conn, &Output{
		Type: "JOINED_ROOM",
		Payload: map[string]any{
			"room_id":           input.RoomId,
			"is_host":           joinRoomResp.IsHost,
			"state":             joinRoomResp.State,
			"participants":      joinRoomResp.Participants,
			"sync_tolerance_ms": joinRoomResp.SyncToleranceMs,
		},
	}); err != nil {
		return fmt.Errorf("failed to write to conn: %w", err)
	}

	if !joinRoomResp.AlreadyJoined {
		if err := c.broadcast(ctx, joinRoomResp.Conns, &Output{
			Type: "PARTICIPANT_JOINED",
			Payload: map[string]any{
				"room_id":       input.RoomId,
				"connection_id": connId,
				"participants":  joinRoomResp.Participants,
			},
		}); err != nil {
			return fmt.Errorf("failed to broadcast participant joined: %w", err)
		}
	}

	return nil
}

type LeaveRoomInput struct {
	RoomId string `json:"room_id" validate:"required"`
}

func (c controller) handleLeaveRoom(ctx context.Context, conn *wsconn.Conn, input LeaveRoomInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	connId := c.getConnIdFromCtx(ctx)

	leaveRoomResp, err := c.roomService.LeaveRoom(ctx, &room.LeaveRoomParams{
		ConnId: connId,
		RoomId: input.RoomId,
	})
	if err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	if err := c.broadcast(ctx, leaveRoomResp.Conns, &Output{
		Type: "PARTICIPANT_LEFT",
		Payload: map[string]any{
			"room_id":       input.RoomId,
			"connection_id": connId,
			"participants":  leaveRoomResp.Participants,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast participant left: %w", err)
	}

	return nil
}

type RequestSyncInput struct {
	RoomId string `json:"room_id" validate:"required"`
}

// handleRequestSync replies to the requester only; it never mutates
// room state.
func (c controller) handleRequestSync(ctx context.Context, conn *wsconn.Conn, input RequestSyncInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	state, err := c.roomService.GetSyncState(ctx, input.RoomId)
	if err != nil {
		return fmt.Errorf("failed to get sync state: %w", err)
	}

	if err := c.writeToConn(ctx, conn, &Output{
		Type:    "INITIAL_SYNC",
		Payload: state,
	}); err != nil {
		return fmt.Errorf("failed to write to conn: %w", err)
	}

	return nil
}

type ReportPlaybackInput struct {
	RoomId string  `json:"room_id" validate:"required"`
	Time   float64 `json:"time"`
}

func (c controller) handlePlayVideo(ctx context.Context, conn *wsconn.Conn, input ReportPlaybackInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	syncResp, err := c.roomService.Play(ctx, &room.ReportPlaybackParams{
		CurrentTime: input.Time,
		SenderId:    c.getConnIdFromCtx(ctx),
		RoomId:      input.RoomId,
	})
	if err != nil {
		return fmt.Errorf("failed to play video: %w", err)
	}

	return c.broadcastVideoSync(ctx, syncResp)
}

func (c controller) handlePauseVideo(ctx context.Context, conn *wsconn.Conn, input ReportPlaybackInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	syncResp, err := c.roomService.Pause(ctx, &room.ReportPlaybackParams{
		CurrentTime: input.Time,
		SenderId:    c.getConnIdFromCtx(ctx),
		RoomId:      input.RoomId,
	})
	if err != nil {
		return fmt.Errorf("failed to pause video: %w", err)
	}

	return c.broadcastVideoSync(ctx, syncResp)
}

func (c controller) handleSeekVideo(ctx context.Context, conn *wsconn.Conn, input ReportPlaybackInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	syncResp, err := c.roomService.Seek(ctx, &room.ReportPlaybackParams{
		CurrentTime: input.Time,
		SenderId:    c.getConnIdFromCtx(ctx),
		RoomId:      input.RoomId,
	})
	if err != nil {
		return fmt.Errorf("failed to seek video: %w", err)
	}

	return c.broadcastVideoSync(ctx, syncResp)
}

type SyncStatusInput struct {
	RoomId    string  `json:"room_id" validate:"required"`
	Time      float64 `json:"time"`
	IsPlaying bool    `json:"is_playing"`
}

// handleSyncStatus processes the periodic host heartbeat that keeps
// follower drift bounded during uninterrupted playback.
func (c controller) handleSyncStatus(ctx context.Context, conn *wsconn.Conn, input SyncStatusInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	syncResp, err := c.roomService.UpdateStatus(ctx, &room.UpdateStatusParams{
		CurrentTime: input.Time,
		IsPlaying:   input.IsPlaying,
		SenderId:    c.getConnIdFromCtx(ctx),
		RoomId:      input.RoomId,
	})
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	return c.broadcastVideoSync(ctx, syncResp)
}

// VIDEO_SYNC goes to every room member including the sender, so all
// clients converge on the same state regardless of who originated it.
func (c controller) broadcastVideoSync(ctx context.Context, syncResp room.SyncResponse) error {
	if err := c.broadcast(ctx, syncResp.Conns, &Output{
		Type:    "VIDEO_SYNC",
		Payload: syncResp.State,
	}); err != nil {
		return fmt.Errorf("failed to broadcast video sync: %w", err)
	}

	return nil
}

type ChatMessageBody struct {
	User      string `json:"user"`
	Text      string `json:"text" validate:"required"`
	Timestamp int64  `json:"timestamp"`
}

type ChatMessageInput struct {
	RoomId  string          `json:"room_id" validate:"required"`
	Message ChatMessageBody `json:"message"`
}

func (c controller) handleChatMessage(ctx context.Context, conn *wsconn.Conn, input ChatMessageInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	sendChatResp, err := c.roomService.SendChatMessage(ctx, &room.SendChatMessageParams{
		User:     input.Message.User,
		Text:     input.Message.Text,
		SenderId: c.getConnIdFromCtx(ctx),
		RoomId:   input.RoomId,
	})
	if err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}

	if err := c.broadcast(ctx, sendChatResp.Conns, &Output{
		Type:    "CHAT_MESSAGE",
		Payload: sendChatResp.Message,
	}); err != nil {
		return fmt.Errorf("failed to broadcast chat message: %w", err)
	}

	return nil
}
