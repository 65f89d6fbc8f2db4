package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func (r repo) getHostKey(roomId string) string {
	return "room:" + roomId + ":host"
}

// SetHostIfAbsent atomically claims host authority for the room.
// Returns true if connId became the host, false if a host already exists.
func (r repo) SetHostIfAbsent(ctx context.Context, roomId string, connId string) (bool, error) {
	claimed, err := r.rc.SetNX(ctx, r.getHostKey(roomId), connId, r.expireDuration).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set host: %w", err)
	}

	return claimed, nil
}

// GetHost returns an empty string when the room has no host.
func (r repo) GetHost(ctx context.Context, roomId string) (string, error) {
	hostId, err := r.rc.Get(ctx, r.getHostKey(roomId)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}

		return "", fmt.Errorf("failed to get host: %w", err)
	}

	return hostId, nil
}

// RemoveHostIfEquals releases host authority only if connId still holds
// it, so a stale release never clobbers a newer host.
func (r repo) RemoveHostIfEquals(ctx context.Context, roomId string, connId string) (bool, error) {
	res, err := r.rc.EvalSha(ctx, r.delIfEqualsScript, []string{r.getHostKey(roomId)}, connId).Int()
	if err != nil {
		return false, fmt.Errorf("failed to remove host: %w", err)
	}

	return res > 0, nil
}
