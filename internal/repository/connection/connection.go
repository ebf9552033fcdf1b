package connection

import "errors"

var ErrNotSubscribed = errors.New("connection is not subscribed")

// Group is a logical audience inside a room.
type Group int

const (
	// GroupPublic is every socket that joined the room.
	GroupPublic Group = iota
	// GroupAdmin is only the sockets that joined with the player key.
	GroupAdmin
)

func (g Group) String() string {
	if g == GroupAdmin {
		return "admin"
	}
	return "public"
}

// Conn is a subscriber. Send must not block; it reports false when the
// message could not be queued.
type Conn interface {
	Id() string
	Send(data []byte) bool
}

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
