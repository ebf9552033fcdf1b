package room

import (
	"context"
	"fmt"

	"github.com/sharetube/partyqueue/internal/domain"
	"github.com/sharetube/partyqueue/internal/repository/connection"
)

type RegisterControllerParams struct {
	RoomId    string
	MasterKey string
	Username  string
	Conn      connection.Conn
}

type RegisterControllerResponse struct {
	Controller domain.Controller
}

// RegisterController mints a controller for the room and subscribes the
// connection to the room's public group.
func (s service) RegisterController(ctx context.Context, params *RegisterControllerParams) (RegisterControllerResponse, error) {
	var ctrl domain.Controller
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		var err error
		ctrl, err = room.Register(params.MasterKey, params.Username, func() (string, error) {
			return s.roomRepo.ReserveControllerKey(room.Id)
		})
		if err != nil {
			return err
		}

		if params.Conn != nil {
			s.connRepo.Subscribe(room.Id, connection.GroupPublic, params.Conn)
		}
		s.publishControllersUpdated(ctx, room)
		return nil
	}); err != nil {
		return RegisterControllerResponse{}, fmt.Errorf("failed to register controller: %w", err)
	}

	s.logger.InfoContext(ctx, "controller registered",
		"room_id", params.RoomId,
		"controller_id", ctrl.Id,
		"username", ctrl.Username,
	)
	return RegisterControllerResponse{Controller: ctrl}, nil
}

type AuthControllerParams struct {
	RoomId        string
	ControllerKey string
	Conn          connection.Conn
}

type AuthControllerResponse struct {
	Controller domain.Controller
}

// AuthController resolves a controller key. Disabled controllers authenticate
// too; the response carries Enabled so clients can render read-only mode.
func (s service) AuthController(_ context.Context, params *AuthControllerParams) (AuthControllerResponse, error) {
	var ctrl domain.Controller
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		var err error
		ctrl, err = room.Authenticate(params.ControllerKey)
		if err != nil {
			return err
		}

		if params.Conn != nil {
			s.connRepo.Subscribe(room.Id, connection.GroupPublic, params.Conn)
		}
		return nil
	}); err != nil {
		return AuthControllerResponse{}, fmt.Errorf("failed to authenticate controller: %w", err)
	}

	return AuthControllerResponse{Controller: ctrl}, nil
}

type RenameControllerParams struct {
	RoomId        string
	ControllerKey string
	Username      string
}

type RenameControllerResponse struct {
	Controller domain.Controller
}

func (s service) RenameController(ctx context.Context, params *RenameControllerParams) (RenameControllerResponse, error) {
	var ctrl domain.Controller
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		var (
			changed bool
			err     error
		)
		ctrl, changed, err = room.Rename(params.ControllerKey, params.Username)
		if err != nil {
			return err
		}

		if changed {
			s.publishRoomState(ctx, room)
			s.publishControllersUpdated(ctx, room)
		}
		return nil
	}); err != nil {
		return RenameControllerResponse{}, fmt.Errorf("failed to rename controller: %w", err)
	}

	return RenameControllerResponse{Controller: ctrl}, nil
}

type UpdateControllerColorParams struct {
	RoomId        string
	ControllerKey string
	Color         int
}

type UpdateControllerColorResponse struct {
	Controller domain.Controller
}

func (s service) UpdateControllerColor(ctx context.Context, params *UpdateControllerColorParams) (UpdateControllerColorResponse, error) {
	var ctrl domain.Controller
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		var err error
		ctrl, err = room.UpdateColor(params.ControllerKey, params.Color)
		if err != nil {
			return err
		}

		s.publishRoomState(ctx, room)
		s.publishControllersUpdated(ctx, room)
		return nil
	}); err != nil {
		return UpdateControllerColorResponse{}, fmt.Errorf("failed to update controller color: %w", err)
	}

	return UpdateControllerColorResponse{Controller: ctrl}, nil
}

type ToggleControllerParams struct {
	RoomId       string
	PlayerKey    string
	ControllerId string
}

func (s service) ToggleController(ctx context.Context, params *ToggleControllerParams) error {
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		ctrl, err := room.ToggleController(params.PlayerKey, params.ControllerId)
		if err != nil {
			return err
		}

		s.logger.InfoContext(ctx, "controller toggled",
			"room_id", room.Id,
			"controller_id", ctrl.Id,
			"enabled", ctrl.Enabled,
		)
		s.publishControllersUpdated(ctx, room)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to toggle controller: %w", err)
	}

	return nil
}

type RemoveControllerParams struct {
	RoomId       string
	PlayerKey    string
	ControllerId string
}

// RemoveController revokes the controller's key immediately. Items it queued stay.
func (s service) RemoveController(ctx context.Context, params *RemoveControllerParams) error {
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		ctrl, err := room.RemoveController(params.PlayerKey, params.ControllerId)
		if err != nil {
			return err
		}

		s.roomRepo.ReleaseToken(ctrl.Key)
		s.logger.InfoContext(ctx, "controller removed", "room_id", room.Id, "controller_id", ctrl.Id)
		s.publishControllersUpdated(ctx, room)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to remove controller: %w", err)
	}

	return nil
}

type ToggleRegistrationParams struct {
	RoomId    string
	PlayerKey string
}

type ToggleRegistrationResponse struct {
	AllowNewControllers bool
}

func (s service) ToggleRegistration(ctx context.Context, params *ToggleRegistrationParams) (ToggleRegistrationResponse, error) {
	var allow bool
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		var err error
		allow, err = room.ToggleRegistration(params.PlayerKey)
		if err != nil {
			return err
		}

		s.publishRegistrationStatus(ctx, room)
		s.publishControllersUpdated(ctx, room)
		return nil
	}); err != nil {
		return ToggleRegistrationResponse{}, fmt.Errorf("failed to toggle registration: %w", err)
	}

	return ToggleRegistrationResponse{AllowNewControllers: allow}, nil
}
