package room

import (
	"context"
	"fmt"

	"github.com/watchroom/server/pkg/wsconn"
)

// getConnsByRoomId resolves the sockets of every current room member.
// Members without a live socket are skipped: broadcast targets are the
// live membership at dispatch time.
func (s service) getConnsByRoomId(ctx context.Context, roomId string) ([]*wsconn.Conn, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}

	conns := make([]*wsconn.Conn, 0, len(memberIds))
	for _, memberId := range memberIds {
		conn, err := s.connRepo.GetConn(memberId)
		if err != nil {
			s.logger.DebugContext(ctx, "member has no live connection", "connection_id", memberId)
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

func (s service) getParticipants(ctx context.Context, roomId string) ([]Participant, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}

	hostId, err := s.roomRepo.GetHost(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	participants := make([]Participant, 0, len(memberIds))
	for _, memberId := range memberIds {
		participants = append(participants, Participant{
			ConnId: memberId,
			IsHost: memberId == hostId,
		})
	}

	return participants, nil
}

// checkIfHost enforces the host-only mutation authority. A room without
// a host rejects mutations the same way: authority returns on the next
// join, not on the next event.
func (s service) checkIfHost(ctx context.Context, roomId string, senderId string) error {
	hostId, err := s.roomRepo.GetHost(ctx, roomId)
	if err != nil {
		return fmt.Errorf("failed to get host: %w", err)
	}

	if hostId == "" || hostId != senderId {
		return ErrNotHost
	}

	return nil
}
