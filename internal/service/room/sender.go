package room

import (
	"context"
	"encoding/json"

	"github.com/sharetube/partyqueue/internal/domain"
	"github.com/sharetube/partyqueue/internal/repository/connection"
)

const (
	EventRoomState          = "room-state"
	EventRoomStateAdmin     = "room-state-admin"
	EventQueueUpdated       = "queue-updated"
	EventVideoChanged       = "video-changed"
	EventSettingsUpdated    = "settings-updated"
	EventPlaybackUpdated    = "playback-updated"
	EventControllersUpdated = "controllers-updated"
	EventRegistrationStatus = "registration-status"
)

type QueueUpdatedPayload struct {
	Queue []domain.QueueItem `json:"queue"`
}

type VideoChangedPayload struct {
	CurrentVideo *domain.QueueItem  `json:"currentVideo"`
	Queue        []domain.QueueItem `json:"queue"`
	Playback     domain.Playback    `json:"playback"`
}

type SettingsUpdatedPayload struct {
	Settings domain.Settings    `json:"settings"`
	Queue    []domain.QueueItem `json:"queue"`
}

type PlaybackUpdatedPayload struct {
	Playback domain.Playback `json:"playback"`
}

type ControllersUpdatedPayload struct {
	Controllers         []domain.ControllerView `json:"controllers"`
	AllowNewControllers bool                    `json:"allowNewControllers"`
}

type RegistrationStatusPayload struct {
	AllowNewControllers bool `json:"allowNewControllers"`
}

// publish must be called from inside the room's serialized step. A failed
// broadcast does not undo the mutation.
func (s service) publish(ctx context.Context, roomId string, group connection.Group, msg *connection.Message) {
	if err := s.connRepo.Publish(roomId, group, msg); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish", "room_id", roomId, "type", msg.Type, "error", err)
	}
}

func (s service) sendTo(ctx context.Context, conn connection.Conn, msg *connection.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to marshal message", "type", msg.Type, "error", err)
		return
	}

	if !conn.Send(data) {
		s.logger.WarnContext(ctx, "failed to queue message", "conn_id", conn.Id(), "type", msg.Type)
	}
}

func (s service) publishQueueUpdated(ctx context.Context, room *domain.Room) {
	s.publish(ctx, room.Id, connection.GroupPublic, &connection.Message{
		Type:    EventQueueUpdated,
		Payload: QueueUpdatedPayload{Queue: room.Queue()},
	})
}

func (s service) publishVideoChanged(ctx context.Context, room *domain.Room) {
	s.publish(ctx, room.Id, connection.GroupPublic, &connection.Message{
		Type: EventVideoChanged,
		Payload: VideoChangedPayload{
			CurrentVideo: room.CurrentVideo(),
			Queue:        room.Queue(),
			Playback:     room.Playback(),
		},
	})
}

func (s service) publishSettingsUpdated(ctx context.Context, room *domain.Room) {
	s.publish(ctx, room.Id, connection.GroupPublic, &connection.Message{
		Type: EventSettingsUpdated,
		Payload: SettingsUpdatedPayload{
			Settings: room.Settings(),
			Queue:    room.Queue(),
		},
	})
}

func (s service) publishPlaybackUpdated(ctx context.Context, room *domain.Room) {
	s.publish(ctx, room.Id, connection.GroupPublic, &connection.Message{
		Type:    EventPlaybackUpdated,
		Payload: PlaybackUpdatedPayload{Playback: room.Playback()},
	})
}

func (s service) publishRoomState(ctx context.Context, room *domain.Room) {
	s.publish(ctx, room.Id, connection.GroupPublic, &connection.Message{
		Type:    EventRoomState,
		Payload: room.View(),
	})
}

func (s service) publishControllersUpdated(ctx context.Context, room *domain.Room) {
	s.publish(ctx, room.Id, connection.GroupAdmin, &connection.Message{
		Type: EventControllersUpdated,
		Payload: ControllersUpdatedPayload{
			Controllers:         room.Controllers(),
			AllowNewControllers: room.AllowNewControllers(),
		},
	})
}

// Admin sockets are members of the public group too, so one publish reaches them.
func (s service) publishRegistrationStatus(ctx context.Context, room *domain.Room) {
	s.publish(ctx, room.Id, connection.GroupPublic, &connection.Message{
		Type:    EventRegistrationStatus,
		Payload: RegistrationStatusPayload{AllowNewControllers: room.AllowNewControllers()},
	})
}
