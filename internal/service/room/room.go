package room

import (
	"context"
	"fmt"

	"github.com/sharetube/partyqueue/internal/credential"
	"github.com/sharetube/partyqueue/internal/domain"
	"github.com/sharetube/partyqueue/internal/repository/connection"
)

type CreateRoomResponse struct {
	RoomId           string
	PlayerKey        string
	ControlMasterKey string
}

func (s service) CreateRoom(ctx context.Context) (CreateRoomResponse, error) {
	room, err := s.roomRepo.CreateRoom()
	if err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to create room: %w", err)
	}

	s.logger.InfoContext(ctx, "room created", "room_id", room.Id)
	return CreateRoomResponse{
		RoomId:           room.Id,
		PlayerKey:        room.PlayerKey,
		ControlMasterKey: room.ControlMasterKey,
	}, nil
}

func (s service) GetRoomState(_ context.Context, roomId string) (domain.View, error) {
	var view domain.View
	if err := s.read(roomId, func(room *domain.Room) {
		view = room.View()
	}); err != nil {
		return domain.View{}, err
	}

	return view, nil
}

type AuthorizePlayerParams struct {
	RoomId    string
	PlayerKey string
}

type AuthorizePlayerResponse struct {
	ControlMasterKey string
}

// AuthorizePlayer checks the player key and hands back what the display
// client needs to render the control link.
func (s service) AuthorizePlayer(_ context.Context, params *AuthorizePlayerParams) (AuthorizePlayerResponse, error) {
	room, err := s.roomRepo.GetRoom(params.RoomId)
	if err != nil {
		return AuthorizePlayerResponse{}, err
	}

	if !room.IsPlayerKey(params.PlayerKey) {
		return AuthorizePlayerResponse{}, domain.ErrForbidden
	}

	return AuthorizePlayerResponse{ControlMasterKey: room.ControlMasterKey}, nil
}

// AuthorizeSearch accepts a control master key or an enabled controller key
// of any live room.
func (s service) AuthorizeSearch(ctx context.Context, token string) error {
	roomId, kind, ok := s.roomRepo.LookupToken(token)
	if !ok {
		return domain.ErrInvalidCredential
	}

	switch kind {
	case credential.KindControlMaster:
		return nil
	case credential.KindController:
	default:
		return domain.ErrForbidden
	}

	var authErr error
	if err := s.read(roomId, func(room *domain.Room) {
		ctrl, err := room.Authenticate(token)
		if err != nil {
			authErr = err
			return
		}

		if !ctrl.Enabled {
			authErr = fmt.Errorf("%w: controller is disabled", domain.ErrForbidden)
		}
	}); err != nil {
		return err
	}

	if authErr != nil {
		s.logger.DebugContext(ctx, "search denied", "room_id", roomId, "error", authErr)
	}
	return authErr
}

type JoinRoomParams struct {
	RoomId string
	Conn   connection.Conn
}

// JoinRoom subscribes the connection to the public group and queues the
// current snapshot on it before any later broadcast. Watching a room does not
// count as activity.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) error {
	if err := s.read(params.RoomId, func(room *domain.Room) {
		s.connRepo.Subscribe(room.Id, connection.GroupPublic, params.Conn)
		s.sendTo(ctx, params.Conn, &connection.Message{
			Type:    EventRoomState,
			Payload: room.View(),
		})
	}); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	return nil
}

type JoinRoomAdminParams struct {
	RoomId    string
	PlayerKey string
	Conn      connection.Conn
}

func (s service) JoinRoomAdmin(ctx context.Context, params *JoinRoomAdminParams) error {
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		if !room.IsPlayerKey(params.PlayerKey) {
			return domain.ErrForbidden
		}

		s.connRepo.Subscribe(room.Id, connection.GroupPublic, params.Conn)
		s.connRepo.Subscribe(room.Id, connection.GroupAdmin, params.Conn)
		s.sendTo(ctx, params.Conn, &connection.Message{
			Type:    EventRoomStateAdmin,
			Payload: room.AdminView(),
		})
		return nil
	}); err != nil {
		return fmt.Errorf("failed to join room as admin: %w", err)
	}

	return nil
}
