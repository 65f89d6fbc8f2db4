package room

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/watchroom/server/internal/repository/room"
	"github.com/watchroom/server/pkg/wsconn"
)

type ReportPlaybackParams struct {
	CurrentTime float64
	SenderId    string
	RoomId      string
}

type UpdateStatusParams struct {
	CurrentTime float64
	IsPlaying   bool
	SenderId    string
	RoomId      string
}

type SyncResponse struct {
	State PlayerState
	Conns []*wsconn.Conn
}

// Play records a host-initiated play at the given position and returns
// the state to fan out to every room member, sender included.
func (s service) Play(ctx context.Context, params *ReportPlaybackParams) (SyncResponse, error) {
	return s.applyPlayerState(ctx, params.RoomId, params.SenderId, params.CurrentTime, true)
}

func (s service) Pause(ctx context.Context, params *ReportPlaybackParams) (SyncResponse, error) {
	return s.applyPlayerState(ctx, params.RoomId, params.SenderId, params.CurrentTime, false)
}

// Seek moves the playhead without changing the playing flag.
func (s service) Seek(ctx context.Context, params *ReportPlaybackParams) (SyncResponse, error) {
	if err := s.checkIfHost(ctx, params.RoomId, params.SenderId); err != nil {
		return SyncResponse{}, err
	}

	state, err := s.roomRepo.GetPlayerState(ctx, params.RoomId)
	if err != nil {
		return SyncResponse{}, fmt.Errorf("failed to get player state: %w", err)
	}

	return s.applyPlayerState(ctx, params.RoomId, params.SenderId, params.CurrentTime, state.IsPlaying)
}

// UpdateStatus handles the periodic host heartbeat. It takes the same
// path as the discrete events so followers converge on every report.
func (s service) UpdateStatus(ctx context.Context, params *UpdateStatusParams) (SyncResponse, error) {
	return s.applyPlayerState(ctx, params.RoomId, params.SenderId, params.CurrentTime, params.IsPlaying)
}

func (s service) applyPlayerState(ctx context.Context, roomId string, senderId string, currentTime float64, isPlaying bool) (SyncResponse, error) {
	if err := s.checkIfHost(ctx, roomId, senderId); err != nil {
		return SyncResponse{}, err
	}

	if math.IsNaN(currentTime) || math.IsInf(currentTime, 0) {
		return SyncResponse{}, ErrInvalidTime
	}
	if currentTime < 0 {
		currentTime = 0
	}

	if err := s.roomRepo.SetPlayerState(ctx, &room.SetPlayerStateParams{
		CurrentTime: currentTime,
		IsPlaying:   isPlaying,
		UpdatedAt:   time.Now().UnixMilli(),
		RoomId:      roomId,
	}); err != nil {
		return SyncResponse{}, fmt.Errorf("failed to set player state: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		return SyncResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return SyncResponse{
		State: PlayerState{
			CurrentTime: currentTime,
			IsPlaying:   isPlaying,
		},
		Conns: conns,
	}, nil
}

// GetSyncState returns the current room state for a sync request. A
// room with no recorded state reads as paused at zero. While playing,
// the stored position is extrapolated from its last update so late
// joiners land close to the live playhead instead of one heartbeat
// behind.
func (s service) GetSyncState(ctx context.Context, roomId string) (PlayerState, error) {
	state, err := s.roomRepo.GetPlayerState(ctx, roomId)
	if err != nil {
		return PlayerState{}, fmt.Errorf("failed to get player state: %w", err)
	}

	currentTime := state.CurrentTime
	if state.IsPlaying && state.UpdatedAt > 0 {
		elapsed := time.Now().UnixMilli() - state.UpdatedAt
		if elapsed > 0 {
			currentTime += float64(elapsed) / 1000
		}
	}

	return PlayerState{
		CurrentTime: currentTime,
		IsPlaying:   state.IsPlaying,
	}, nil
}
