package redis

import (
	"context"
	"fmt"

	"github.com/watchroom/server/internal/repository/room"
)

func (r repo) getPlayerStateKey(roomId string) string {
	return "room:" + roomId + ":player"
}

// GetPlayerState returns the zero state for rooms that were never
// written. A read does not create the room.
func (r repo) GetPlayerState(ctx context.Context, roomId string) (room.PlayerState, error) {
	playerStateKey := r.getPlayerStateKey(roomId)
	cmd := r.rc.HGetAll(ctx, playerStateKey)
	fields, err := cmd.Result()
	if err != nil {
		return room.PlayerState{}, fmt.Errorf("failed to get player state: %w", err)
	}

	if len(fields) == 0 {
		return room.PlayerState{}, nil
	}

	var playerState room.PlayerState
	if err := cmd.Scan(&playerState); err != nil {
		return room.PlayerState{}, fmt.Errorf("failed to scan player state: %w", err)
	}

	r.rc.Expire(ctx, playerStateKey, r.expireDuration)

	return playerState, nil
}

func (r repo) SetPlayerState(ctx context.Context, params *room.SetPlayerStateParams) error {
	playerStateKey := r.getPlayerStateKey(params.RoomId)
	pipe := r.rc.TxPipeline()

	pipe.HSet(ctx, playerStateKey,
		"current_time", params.CurrentTime,
		"is_playing", params.IsPlaying,
		"updated_at", params.UpdatedAt,
	)
	pipe.Expire(ctx, playerStateKey, r.expireDuration)
	pipe.Expire(ctx, r.getHostKey(params.RoomId), r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set player state: %w", err)
	}

	return nil
}
