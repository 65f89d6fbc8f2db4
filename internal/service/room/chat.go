package room

import (
	"context"
	"fmt"
	"time"

	"github.com/watchroom/server/pkg/wsconn"
)

const defaultChatUser = "Anonymous"

type SendChatMessageParams struct {
	User     string
	Text     string
	SenderId string
	RoomId   string
}

type SendChatMessageResponse struct {
	Message ChatMessage
	Conns   []*wsconn.Conn
}

// SendChatMessage relays a chat message to every member of the room,
// sender included. The timestamp is always stamped server-side so the
// transcript order is the arrival order, not sender clocks. Messages
// are never stored.
func (s service) SendChatMessage(ctx context.Context, params *SendChatMessageParams) (SendChatMessageResponse, error) {
	user := params.User
	if user == "" {
		user = defaultChatUser
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SendChatMessageResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return SendChatMessageResponse{
		Message: ChatMessage{
			User:      user,
			Text:      params.Text,
			Timestamp: time.Now().UnixMilli(),
		},
		Conns: conns,
	}, nil
}
