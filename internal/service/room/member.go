package room

import (
	"context"
	"fmt"

	"github.com/watchroom/server/internal/repository/room"
	"github.com/watchroom/server/pkg/wsconn"
)

type ConnectParams struct {
	Conn   *wsconn.Conn
	ConnId string
}

func (s service) Connect(ctx context.Context, params *ConnectParams) error {
	if err := s.connRepo.Add(params.Conn, params.ConnId); err != nil {
		return fmt.Errorf("failed to add connection: %w", err)
	}

	return nil
}

type JoinRoomParams struct {
	ConnId string
	RoomId string
}

type JoinRoomResponse struct {
	IsHost          bool
	AlreadyJoined   bool
	State           PlayerState
	Participants    []Participant
	SyncToleranceMs int
	// Conns are the sockets of the other members, for the join
	// notification. Empty on an idempotent re-join.
	Conns []*wsconn.Conn
}

// JoinRoom attaches the connection to the room and runs host election.
// It is idempotent: a second join from the same connection changes
// nothing except re-running the election, which is how a room regains
// a host after the previous one disconnected.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	alreadyJoined := s.connRepo.IsInRoom(params.ConnId, params.RoomId)

	if !alreadyJoined {
		if s.membersLimit > 0 {
			count, err := s.roomRepo.GetMembersCount(ctx, params.RoomId)
			if err != nil {
				return JoinRoomResponse{}, fmt.Errorf("failed to get members count: %w", err)
			}

			if count >= s.membersLimit {
				return JoinRoomResponse{}, ErrRoomFull
			}
		}

		if err := s.roomRepo.AddMember(ctx, &room.AddMemberParams{
			ConnId: params.ConnId,
			RoomId: params.RoomId,
		}); err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to add member: %w", err)
		}

		if err := s.connRepo.JoinRoom(params.ConnId, params.RoomId); err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to join room: %w", err)
		}
	}

	if _, err := s.roomRepo.SetHostIfAbsent(ctx, params.RoomId, params.ConnId); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to run host election: %w", err)
	}

	hostId, err := s.roomRepo.GetHost(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get host: %w", err)
	}

	state, err := s.GetSyncState(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get sync state: %w", err)
	}

	participants, err := s.getParticipants(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get participants: %w", err)
	}

	var conns []*wsconn.Conn
	if !alreadyJoined {
		allConns, err := s.getConnsByRoomId(ctx, params.RoomId)
		if err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
		}

		joinedConn, err := s.connRepo.GetConn(params.ConnId)
		if err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to get conn: %w", err)
		}

		conns = make([]*wsconn.Conn, 0, len(allConns))
		for _, conn := range allConns {
			if conn != joinedConn {
				conns = append(conns, conn)
			}
		}
	}

	return JoinRoomResponse{
		IsHost:          hostId == params.ConnId,
		AlreadyJoined:   alreadyJoined,
		State:           state,
		Participants:    participants,
		SyncToleranceMs: s.syncToleranceMs,
		Conns:           conns,
	}, nil
}

type LeaveRoomParams struct {
	ConnId string
	RoomId string
}

type LeaveRoomResponse struct {
	WasHost      bool
	Participants []Participant
	Conns        []*wsconn.Conn
}

func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	return s.leaveRoom(ctx, params.ConnId, params.RoomId)
}

func (s service) leaveRoom(ctx context.Context, connId string, roomId string) (LeaveRoomResponse, error) {
	if err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		ConnId: connId,
		RoomId: roomId,
	}); err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to remove member: %w", err)
	}

	if err := s.connRepo.LeaveRoom(connId, roomId); err != nil {
		s.logger.DebugContext(ctx, "failed to remove joined room", "error", err)
	}

	// Host identity is released; the stored playback state is kept so
	// the next host picks up where the room left off.
	wasHost, err := s.roomRepo.RemoveHostIfEquals(ctx, roomId, connId)
	if err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to release host: %w", err)
	}

	participants, err := s.getParticipants(ctx, roomId)
	if err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to get participants: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return LeaveRoomResponse{
		WasHost:      wasHost,
		Participants: participants,
		Conns:        conns,
	}, nil
}

type DisconnectParams struct {
	ConnId string
}

type LeftRoom struct {
	RoomId       string
	WasHost      bool
	Participants []Participant
	Conns        []*wsconn.Conn
}

type DisconnectResponse struct {
	LeftRooms []LeftRoom
}

// Disconnect removes the connection from every room it had joined and
// releases host authority in each.
func (s service) Disconnect(ctx context.Context, params *DisconnectParams) (DisconnectResponse, error) {
	roomIds, err := s.connRepo.GetRooms(params.ConnId)
	if err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to get joined rooms: %w", err)
	}

	leftRooms := make([]LeftRoom, 0, len(roomIds))
	for _, roomId := range roomIds {
		leaveResp, err := s.leaveRoom(ctx, params.ConnId, roomId)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to leave room on disconnect",
				"room_id", roomId,
				"connection_id", params.ConnId,
				"error", err,
			)
			continue
		}

		leftRooms = append(leftRooms, LeftRoom{
			RoomId:       roomId,
			WasHost:      leaveResp.WasHost,
			Participants: leaveResp.Participants,
			Conns:        leaveResp.Conns,
		})
	}

	if err := s.connRepo.RemoveByConnId(params.ConnId); err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to remove connection: %w", err)
	}

	return DisconnectResponse{LeftRooms: leftRooms}, nil
}
