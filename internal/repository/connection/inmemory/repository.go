package inmemory

import (
	"sync"

	"github.com/watchroom/server/internal/repository/connection"
	"github.com/watchroom/server/pkg/wsconn"
)

// repo tracks live sockets and the rooms each connection has joined.
// It is the only process-local mutable state shared between handlers.
type repo struct {
	idList map[string]*wsconn.Conn
	rooms  map[string]map[string]struct{}
	mu     sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		idList: make(map[string]*wsconn.Conn),
		rooms:  make(map[string]map[string]struct{}),
	}
}

func (r *repo) Add(conn *wsconn.Conn, connId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.idList[connId] != nil {
		return connection.ErrAlreadyExists
	}

	r.idList[connId] = conn
	r.rooms[connId] = make(map[string]struct{})

	return nil
}

func (r *repo) RemoveByConnId(connId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.idList[connId]; !ok {
		return connection.ErrNotFound
	}

	delete(r.idList, connId)
	delete(r.rooms, connId)

	return nil
}

func (r *repo) GetConn(connId string) (*wsconn.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[connId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

// JoinRoom is idempotent: joining a room twice leaves a single entry.
func (r *repo) JoinRoom(connId string, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.rooms[connId]
	if !ok {
		return connection.ErrNotFound
	}

	rooms[roomId] = struct{}{}

	return nil
}

func (r *repo) LeaveRoom(connId string, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.rooms[connId]
	if !ok {
		return connection.ErrNotFound
	}

	delete(rooms, roomId)

	return nil
}

func (r *repo) IsInRoom(connId string, roomId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[connId][roomId]

	return ok
}

func (r *repo) GetRooms(connId string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms, ok := r.rooms[connId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	roomIds := make([]string, 0, len(rooms))
	for roomId := range rooms {
		roomIds = append(roomIds, roomId)
	}

	return roomIds, nil
}
