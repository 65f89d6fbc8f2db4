package redis

import (
	"context"
	"fmt"

	"github.com/watchroom/server/internal/repository/room"
)

func (r repo) getMembersKey(roomId string) string {
	return "room:" + roomId + ":members"
}

func (r repo) AddMember(ctx context.Context, params *room.AddMemberParams) error {
	membersKey := r.getMembersKey(params.RoomId)
	pipe := r.rc.TxPipeline()

	pipe.SAdd(ctx, membersKey, params.ConnId)
	pipe.Expire(ctx, membersKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

func (r repo) RemoveMember(ctx context.Context, params *room.RemoveMemberParams) error {
	if err := r.rc.SRem(ctx, r.getMembersKey(params.RoomId), params.ConnId).Err(); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

func (r repo) GetMemberIds(ctx context.Context, roomId string) ([]string, error) {
	membersKey := r.getMembersKey(roomId)
	memberIds, err := r.rc.SMembers(ctx, membersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}

	if len(memberIds) > 0 {
		r.rc.Expire(ctx, membersKey, r.expireDuration)
	}

	return memberIds, nil
}

func (r repo) GetMembersCount(ctx context.Context, roomId string) (int, error) {
	count, err := r.rc.SCard(ctx, r.getMembersKey(roomId)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get members count: %w", err)
	}

	return int(count), nil
}
