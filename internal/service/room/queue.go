package room

import (
	"context"
	"fmt"

	"github.com/sharetube/partyqueue/internal/domain"
)

type AddToQueueParams struct {
	RoomId        string
	ControllerKey string
	Video         domain.Video
}

type AddToQueueResponse struct {
	Item          domain.QueueItem
	BecameCurrent bool
}

// AddToQueue starts playback right away when the room is idle; otherwise the
// item joins the queue.
func (s service) AddToQueue(ctx context.Context, params *AddToQueueParams) (AddToQueueResponse, error) {
	var resp AddToQueueResponse
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		item, becameCurrent, err := room.AddToQueue(params.ControllerKey, params.Video)
		if err != nil {
			return err
		}

		resp = AddToQueueResponse{Item: item, BecameCurrent: becameCurrent}
		if becameCurrent {
			s.publishVideoChanged(ctx, room)
		} else {
			s.publishQueueUpdated(ctx, room)
		}
		return nil
	}); err != nil {
		return AddToQueueResponse{}, fmt.Errorf("failed to add to queue: %w", err)
	}

	return resp, nil
}

type RemoveFromQueueParams struct {
	RoomId        string
	ControllerKey string
	Index         int
}

func (s service) RemoveFromQueue(ctx context.Context, params *RemoveFromQueueParams) error {
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		if _, err := room.RemoveFromQueue(params.ControllerKey, params.Index); err != nil {
			return err
		}

		s.publishQueueUpdated(ctx, room)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to remove from queue: %w", err)
	}

	return nil
}

type PlayNextParams struct {
	RoomId        string
	ControllerKey string
}

func (s service) PlayNext(ctx context.Context, params *PlayNextParams) error {
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		if err := room.PlayNext(params.ControllerKey); err != nil {
			return err
		}

		s.publishVideoChanged(ctx, room)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to play next: %w", err)
	}

	return nil
}

type PlayerPlayNextParams struct {
	RoomId    string
	PlayerKey string
}

// PlayerPlayNext is the display client's auto-advance when a video ends.
func (s service) PlayerPlayNext(ctx context.Context, params *PlayerPlayNextParams) error {
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		if err := room.PlayerPlayNext(params.PlayerKey); err != nil {
			return err
		}

		s.publishVideoChanged(ctx, room)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to advance player: %w", err)
	}

	return nil
}

type UpdateSettingsParams struct {
	RoomId        string
	ControllerKey string
	Settings      domain.Settings
}

func (s service) UpdateSettings(ctx context.Context, params *UpdateSettingsParams) error {
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		if err := room.UpdateSettings(params.ControllerKey, params.Settings); err != nil {
			return err
		}

		s.publishSettingsUpdated(ctx, room)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	return nil
}

type UpdatePlaybackStateParams struct {
	RoomId    string
	PlayerKey string
	Report    domain.PlaybackReport
}

func (s service) UpdatePlaybackState(ctx context.Context, params *UpdatePlaybackStateParams) error {
	if err := s.exec(params.RoomId, func(room *domain.Room) error {
		if _, err := room.UpdatePlayback(params.PlayerKey, params.Report); err != nil {
			return err
		}

		s.publishPlaybackUpdated(ctx, room)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to update playback state: %w", err)
	}

	return nil
}
