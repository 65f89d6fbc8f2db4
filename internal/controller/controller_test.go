package controller

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchroom/server/internal/metrics"
	"github.com/watchroom/server/internal/repository/connection/inmemory"
	roomRedis "github.com/watchroom/server/internal/repository/room/redis"
	"github.com/watchroom/server/internal/service/room"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinedRoomPayload struct {
	RoomId          string             `json:"room_id"`
	IsHost          bool               `json:"is_host"`
	State           room.PlayerState   `json:"state"`
	Participants    []room.Participant `json:"participants"`
	SyncToleranceMs int                `json:"sync_tolerance_ms"`
}

func newTestServer(t *testing.T, cfg *room.Config) (*httptest.Server, *miniredis.Miniredis) {
	t.Helper()

	if cfg == nil {
		cfg = &room.Config{
			MembersLimit:    16,
			SyncToleranceMs: 100,
		}
	}

	mr := miniredis.RunT(t)
	rc := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { rc.Close() })

	roomRepo := roomRedis.NewRepo(rc, time.Hour)
	connRepo := inmemory.NewRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	roomService := room.NewService(roomRepo, connRepo, cfg, logger)
	c := NewController(roomService, metrics.New(), func(ctx context.Context) error {
		return rc.Ping(ctx).Err()
	}, logger)

	srv := httptest.NewServer(c.GetMux())
	t.Cleanup(srv.Close)

	return srv, mr
}

// dial opens a websocket and consumes the CONNECTED greeting.
func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	msg := readMessage(t, conn)
	require.Equal(t, "CONNECTED", msg.Type)

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func send(t *testing.T, conn *websocket.Conn, messageType string, payload any) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    messageType,
		"payload": payload,
	}))
}

func TestRoomSyncFlow(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	c1 := dial(t, srv)
	send(t, c1, "JOIN_ROOM", map[string]any{"room_id": "r1"})

	msg := readMessage(t, c1)
	require.Equal(t, "JOINED_ROOM", msg.Type)
	var joined joinedRoomPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &joined))
	assert.True(t, joined.IsHost)
	assert.Equal(t, "r1", joined.RoomId)
	assert.Equal(t, 100, joined.SyncToleranceMs)

	c2 := dial(t, srv)
	send(t, c2, "JOIN_ROOM", map[string]any{"room_id": "r1"})

	msg = readMessage(t, c2)
	require.Equal(t, "JOINED_ROOM", msg.Type)
	require.NoError(t, json.Unmarshal(msg.Payload, &joined))
	assert.False(t, joined.IsHost)
	assert.Len(t, joined.Participants, 2)

	msg = readMessage(t, c1)
	assert.Equal(t, "PARTICIPANT_JOINED", msg.Type)

	// host play reaches every member, sender included
	send(t, c1, "PLAY_VIDEO", map[string]any{"room_id": "r1", "time": 42.5})

	for _, conn := range []*websocket.Conn{c1, c2} {
		msg = readMessage(t, conn)
		require.Equal(t, "VIDEO_SYNC", msg.Type)
		var state room.PlayerState
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		assert.Equal(t, 42.5, state.CurrentTime)
		assert.True(t, state.IsPlaying)
	}

	// non-host pause is silently dropped: state stays playing
	send(t, c2, "PAUSE_VIDEO", map[string]any{"room_id": "r1", "time": 5})
	send(t, c2, "REQUEST_SYNC", map[string]any{"room_id": "r1"})

	msg = readMessage(t, c2)
	require.Equal(t, "INITIAL_SYNC", msg.Type)
	var state room.PlayerState
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.True(t, state.IsPlaying, "non-host pause must not change state")
	assert.GreaterOrEqual(t, state.CurrentTime, 42.5)

	// chat fans out to everyone with a server-side timestamp
	send(t, c2, "CHAT_MESSAGE", map[string]any{
		"room_id": "r1",
		"message": map[string]any{"text": "hi"},
	})

	for _, conn := range []*websocket.Conn{c1, c2} {
		msg = readMessage(t, conn)
		require.Equal(t, "CHAT_MESSAGE", msg.Type)
		var chatMessage room.ChatMessage
		require.NoError(t, json.Unmarshal(msg.Payload, &chatMessage))
		assert.Equal(t, "hi", chatMessage.Text)
		assert.Equal(t, "Anonymous", chatMessage.User)
		assert.Greater(t, chatMessage.Timestamp, int64(0))
	}

	// host disconnect: remaining member is notified, host is cleared,
	// and the next join re-elects
	c1.Close()

	msg = readMessage(t, c2)
	require.Equal(t, "PARTICIPANT_LEFT", msg.Type)

	send(t, c2, "JOIN_ROOM", map[string]any{"room_id": "r1"})
	msg = readMessage(t, c2)
	require.Equal(t, "JOINED_ROOM", msg.Type)
	require.NoError(t, json.Unmarshal(msg.Payload, &joined))
	assert.True(t, joined.IsHost, "surviving member takes over host on re-join")
	assert.True(t, joined.State.IsPlaying, "playback state survives host loss")
}

func TestMalformedEventsAreDropped(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	c1 := dial(t, srv)
	send(t, c1, "JOIN_ROOM", map[string]any{"room_id": "r1"})
	require.Equal(t, "JOINED_ROOM", readMessage(t, c1).Type)

	// missing room id, unknown type, garbage payload: all dropped
	// without a client-visible error
	send(t, c1, "PLAY_VIDEO", map[string]any{"time": 10})
	send(t, c1, "NO_SUCH_TYPE", map[string]any{})
	send(t, c1, "SEEK_VIDEO", map[string]any{"room_id": "r1", "time": "not-a-number"})

	// the connection is still healthy afterwards
	send(t, c1, "REQUEST_SYNC", map[string]any{"room_id": "r1"})
	msg := readMessage(t, c1)
	require.Equal(t, "INITIAL_SYNC", msg.Type)

	var state room.PlayerState
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Equal(t, room.PlayerState{}, state, "dropped events must not mutate state")
}

func TestLeaveRoomNotifiesOthers(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	c1 := dial(t, srv)
	send(t, c1, "JOIN_ROOM", map[string]any{"room_id": "r1"})
	require.Equal(t, "JOINED_ROOM", readMessage(t, c1).Type)

	c2 := dial(t, srv)
	send(t, c2, "JOIN_ROOM", map[string]any{"room_id": "r1"})
	require.Equal(t, "JOINED_ROOM", readMessage(t, c2).Type)
	require.Equal(t, "PARTICIPANT_JOINED", readMessage(t, c1).Type)

	send(t, c2, "LEAVE_ROOM", map[string]any{"room_id": "r1"})

	msg := readMessage(t, c1)
	require.Equal(t, "PARTICIPANT_LEFT", msg.Type)

	var left struct {
		RoomId       string             `json:"room_id"`
		ConnId       string             `json:"connection_id"`
		Participants []room.Participant `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &left))
	assert.Equal(t, "r1", left.RoomId)
	assert.Len(t, left.Participants, 1)
}

func TestRoomFullJoinIsRejected(t *testing.T) {
	srv, _ := newTestServer(t, &room.Config{MembersLimit: 1, SyncToleranceMs: 100})

	c1 := dial(t, srv)
	send(t, c1, "JOIN_ROOM", map[string]any{"room_id": "r1"})
	require.Equal(t, "JOINED_ROOM", readMessage(t, c1).Type)

	c2 := dial(t, srv)
	send(t, c2, "JOIN_ROOM", map[string]any{"room_id": "r1"})

	msg := readMessage(t, c2)
	require.Equal(t, "JOIN_REJECTED", msg.Type)

	var rejected struct {
		RoomId string `json:"room_id"`
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &rejected))
	assert.Equal(t, "r1", rejected.RoomId)
	assert.Equal(t, "room_full", rejected.Reason)

	// the member who got in never hears about the rejected join
	send(t, c1, "REQUEST_SYNC", map[string]any{"room_id": "r1"})
	require.Equal(t, "INITIAL_SYNC", readMessage(t, c1).Type)
}

// Two members chat at once, so fanouts to the same socket run from
// concurrent handler goroutines. Run with -race.
func TestConcurrentChatFanout(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	c1 := dial(t, srv)
	send(t, c1, "JOIN_ROOM", map[string]any{"room_id": "r1"})
	require.Equal(t, "JOINED_ROOM", readMessage(t, c1).Type)

	c2 := dial(t, srv)
	send(t, c2, "JOIN_ROOM", map[string]any{"room_id": "r1"})
	require.Equal(t, "JOINED_ROOM", readMessage(t, c2).Type)
	require.Equal(t, "PARTICIPANT_JOINED", readMessage(t, c1).Type)

	c3 := dial(t, srv)
	send(t, c3, "JOIN_ROOM", map[string]any{"room_id": "r1"})
	require.Equal(t, "JOINED_ROOM", readMessage(t, c3).Type)
	require.Equal(t, "PARTICIPANT_JOINED", readMessage(t, c1).Type)
	require.Equal(t, "PARTICIPANT_JOINED", readMessage(t, c2).Type)

	const perSender = 100

	var readers sync.WaitGroup
	for _, conn := range []*websocket.Conn{c1, c2, c3} {
		conn := conn
		readers.Add(1)
		go func() {
			defer readers.Done()

			if err := conn.SetReadDeadline(time.Now().Add(10 * time.Second)); err != nil {
				t.Errorf("set read deadline: %v", err)
				return
			}

			for i := 0; i < 2*perSender; i++ {
				var msg wsMessage
				if err := conn.ReadJSON(&msg); err != nil {
					t.Errorf("read %d: %v", i, err)
					return
				}
				if msg.Type != "CHAT_MESSAGE" {
					t.Errorf("read %d: unexpected message type %q", i, msg.Type)
					return
				}
			}
		}()
	}

	var senders sync.WaitGroup
	for _, conn := range []*websocket.Conn{c1, c2} {
		conn := conn
		senders.Add(1)
		go func() {
			defer senders.Done()

			for i := 0; i < perSender; i++ {
				if err := conn.WriteJSON(map[string]any{
					"type": "CHAT_MESSAGE",
					"payload": map[string]any{
						"room_id": "r1",
						"message": map[string]any{"text": "hi"},
					},
				}); err != nil {
					t.Errorf("write %d: %v", i, err)
					return
				}
			}
		}()
	}

	senders.Wait()
	readers.Wait()
}

func TestHealthzReflectsRedis(t *testing.T) {
	srv, mr := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	mr.Close()

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
