package room

import (
	"context"
	"log/slog"

	"github.com/sharetube/partyqueue/internal/credential"
	"github.com/sharetube/partyqueue/internal/domain"
	"github.com/sharetube/partyqueue/internal/repository/connection"
)

type iRoomRepo interface {
	CreateRoom() (*domain.Room, error)
	GetRoom(roomId string) (*domain.Room, error)
	ReserveControllerKey(roomId string) (string, error)
	ReleaseToken(token string)
	LookupToken(token string) (string, credential.Kind, bool)
}

type iConnRepo interface {
	Subscribe(roomId string, group connection.Group, conn connection.Conn)
	UnsubscribeAll(conn connection.Conn) error
	Publish(roomId string, group connection.Group, msg *connection.Message) error
}

type service struct {
	roomRepo iRoomRepo
	connRepo iConnRepo
	logger   *slog.Logger
}

func New(roomRepo iRoomRepo, connRepo iConnRepo, logger *slog.Logger) *service {
	return &service{
		roomRepo: roomRepo,
		connRepo: connRepo,
		logger:   logger,
	}
}

// exec runs fn as one serialized step on the room. Broadcasts issued inside fn
// reach subscribers in mutation order.
func (s service) exec(roomId string, fn func(room *domain.Room) error) error {
	room, err := s.roomRepo.GetRoom(roomId)
	if err != nil {
		return err
	}

	return room.Exec(func() error {
		return fn(room)
	})
}

func (s service) read(roomId string, fn func(room *domain.Room)) error {
	room, err := s.roomRepo.GetRoom(roomId)
	if err != nil {
		return err
	}

	return room.Read(func() {
		fn(room)
	})
}

func (s service) Disconnect(ctx context.Context, conn connection.Conn) {
	if err := s.connRepo.UnsubscribeAll(conn); err != nil {
		s.logger.DebugContext(ctx, "disconnect without subscriptions", "conn_id", conn.Id())
	}
}
