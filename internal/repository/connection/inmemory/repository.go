package inmemory

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sharetube/partyqueue/internal/repository/connection"
)

type subscription struct {
	roomId string
	group  connection.Group
}

type repo struct {
	groups map[string]map[connection.Group]map[connection.Conn]struct{}
	byConn map[connection.Conn]map[subscription]struct{}
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		groups: make(map[string]map[connection.Group]map[connection.Conn]struct{}),
		byConn: make(map[connection.Conn]map[subscription]struct{}),
		logger: logger,
	}
}

func (r *repo) Subscribe(roomId string, group connection.Group, conn connection.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.groups[roomId]
	if !ok {
		room = make(map[connection.Group]map[connection.Conn]struct{})
		r.groups[roomId] = room
	}

	members, ok := room[group]
	if !ok {
		members = make(map[connection.Conn]struct{})
		room[group] = members
	}
	members[conn] = struct{}{}

	subs, ok := r.byConn[conn]
	if !ok {
		subs = make(map[subscription]struct{})
		r.byConn[conn] = subs
	}
	subs[subscription{roomId: roomId, group: group}] = struct{}{}

	r.logger.Debug("subscribed", "conn_id", conn.Id(), "room_id", roomId, "group", group.String())
}

// UnsubscribeAll removes conn from every group it joined.
func (r *repo) UnsubscribeAll(conn connection.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, ok := r.byConn[conn]
	if !ok {
		return connection.ErrNotSubscribed
	}

	for sub := range subs {
		room := r.groups[sub.roomId]
		delete(room[sub.group], conn)
		if len(room[sub.group]) == 0 {
			delete(room, sub.group)
		}
		if len(room) == 0 {
			delete(r.groups, sub.roomId)
		}
	}
	delete(r.byConn, conn)

	r.logger.Debug("unsubscribed", "conn_id", conn.Id(), "subscriptions", len(subs))
	return nil
}

// DropRoom forgets every subscription to roomId.
func (r *repo) DropRoom(roomId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for group, members := range r.groups[roomId] {
		for conn := range members {
			subs := r.byConn[conn]
			delete(subs, subscription{roomId: roomId, group: group})
			if len(subs) == 0 {
				delete(r.byConn, conn)
			}
		}
	}
	delete(r.groups, roomId)
}

// Publish encodes msg once and queues it on every subscriber of the group.
// Callers publishing from inside a room's serialized step get per-room ordering.
func (r *repo) Publish(roomId string, group connection.Group, msg *connection.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", msg.Type, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for conn := range r.groups[roomId][group] {
		if !conn.Send(data) {
			r.logger.Warn("dropped message for slow subscriber",
				"conn_id", conn.Id(),
				"room_id", roomId,
				"type", msg.Type,
			)
		}
	}

	return nil
}

func (r *repo) Count(roomId string, group connection.Group) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.groups[roomId][group])
}
