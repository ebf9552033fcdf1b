package room

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharetube/partyqueue/internal/domain"
	"github.com/sharetube/partyqueue/internal/repository/connection"
	connInmemory "github.com/sharetube/partyqueue/internal/repository/connection/inmemory"
	roomInmemory "github.com/sharetube/partyqueue/internal/repository/room/inmemory"
)

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type fakeConn struct {
	id   string
	mu   sync.Mutex
	msgs []received
}

func (c *fakeConn) Id() string { return c.id }

func (c *fakeConn) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var msg received
	if err := json.Unmarshal(data, &msg); err != nil {
		panic(err)
	}
	c.msgs = append(c.msgs, msg)
	return true
}

func (c *fakeConn) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	types := make([]string, 0, len(c.msgs))
	for _, msg := range c.msgs {
		types = append(types, msg.Type)
	}
	return types
}

func (c *fakeConn) last(t *testing.T, msgType string, v any) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.msgs) - 1; i >= 0; i-- {
		if c.msgs[i].Type == msgType {
			require.NoError(t, json.Unmarshal(c.msgs[i].Payload, v))
			return
		}
	}
	t.Fatalf("no %s message received", msgType)
}

func (c *fakeConn) messages() []received {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]received(nil), c.msgs...)
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.msgs = nil
}

func newTestService(t *testing.T) *service {
	t.Helper()

	roomRepo := roomInmemory.NewRepo(&roomInmemory.Config{
		MaxRooms:      10,
		TokenAttempts: 5,
		Limits:        domain.DefaultLimits(),
	}, slog.Default())
	connRepo := connInmemory.NewRepo(slog.Default())

	return New(roomRepo, connRepo, slog.Default())
}

func createRoom(t *testing.T, s *service) CreateRoomResponse {
	t.Helper()

	resp, err := s.CreateRoom(context.Background())
	require.NoError(t, err)
	return resp
}

func registerController(t *testing.T, s *service, room CreateRoomResponse, name string) domain.Controller {
	t.Helper()

	resp, err := s.RegisterController(context.Background(), &RegisterControllerParams{
		RoomId:    room.RoomId,
		MasterKey: room.ControlMasterKey,
		Username:  name,
	})
	require.NoError(t, err)
	return resp.Controller
}

func TestEndToEndQueueFlow(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	room := createRoom(t, s)

	viewer := &fakeConn{id: "viewer"}
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{RoomId: room.RoomId, Conn: viewer}))

	sam := registerController(t, s, room, "Sam")
	assert.Equal(t, "Sam", sam.Username)

	first, err := s.AddToQueue(ctx, &AddToQueueParams{
		RoomId:        room.RoomId,
		ControllerKey: sam.Key,
		Video:         domain.Video{Id: "abc", Title: "Song"},
	})
	require.NoError(t, err)
	assert.True(t, first.BecameCurrent)

	var changed VideoChangedPayload
	viewer.last(t, EventVideoChanged, &changed)
	require.NotNil(t, changed.CurrentVideo)
	assert.Equal(t, "abc", changed.CurrentVideo.Id)
	assert.Equal(t, "Sam", changed.CurrentVideo.AddedBy)
	assert.Empty(t, changed.Queue)

	second, err := s.AddToQueue(ctx, &AddToQueueParams{
		RoomId:        room.RoomId,
		ControllerKey: sam.Key,
		Video:         domain.Video{Id: "def", Title: "Other"},
	})
	require.NoError(t, err)
	assert.False(t, second.BecameCurrent)

	var queued QueueUpdatedPayload
	viewer.last(t, EventQueueUpdated, &queued)
	assert.Len(t, queued.Queue, 1)

	require.NoError(t, s.PlayNext(ctx, &PlayNextParams{RoomId: room.RoomId, ControllerKey: sam.Key}))
	viewer.last(t, EventVideoChanged, &changed)
	require.NotNil(t, changed.CurrentVideo)
	assert.Equal(t, "def", changed.CurrentVideo.Id)
	assert.Empty(t, changed.Queue)
	assert.Zero(t, changed.Playback.Position)

	assert.Equal(t, []string{
		EventRoomState,
		EventVideoChanged,
		EventQueueUpdated,
		EventVideoChanged,
	}, viewer.types())
}

func TestJoinRoomUnknown(t *testing.T) {
	s := newTestService(t)
	err := s.JoinRoom(context.Background(), &JoinRoomParams{RoomId: "missing", Conn: &fakeConn{id: "c"}})
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestAdminGroupReceivesRoster(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	room := createRoom(t, s)

	viewer := &fakeConn{id: "viewer"}
	admin := &fakeConn{id: "admin"}
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{RoomId: room.RoomId, Conn: viewer}))

	err := s.JoinRoomAdmin(ctx, &JoinRoomAdminParams{RoomId: room.RoomId, PlayerKey: room.ControlMasterKey, Conn: admin})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, admin.types())

	require.NoError(t, s.JoinRoomAdmin(ctx, &JoinRoomAdminParams{RoomId: room.RoomId, PlayerKey: room.PlayerKey, Conn: admin}))
	assert.Equal(t, []string{EventRoomStateAdmin}, admin.types())

	ctrl := registerController(t, s, room, "Ana")

	var roster ControllersUpdatedPayload
	admin.last(t, EventControllersUpdated, &roster)
	require.Len(t, roster.Controllers, 1)
	assert.Equal(t, ctrl.Id, roster.Controllers[0].Id)
	assert.NotContains(t, viewer.types(), EventControllersUpdated)

	require.NoError(t, s.ToggleController(ctx, &ToggleControllerParams{
		RoomId:       room.RoomId,
		PlayerKey:    room.PlayerKey,
		ControllerId: ctrl.Id,
	}))
	admin.last(t, EventControllersUpdated, &roster)
	assert.False(t, roster.Controllers[0].Enabled)

	for _, msg := range admin.msgs {
		assert.NotContains(t, string(msg.Payload), ctrl.Key, "controller keys are never broadcast")
	}
}

func TestDisabledControllerAuthenticatesButCannotMutate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	room := createRoom(t, s)
	ctrl := registerController(t, s, room, "Ana")

	require.NoError(t, s.ToggleController(ctx, &ToggleControllerParams{
		RoomId:       room.RoomId,
		PlayerKey:    room.PlayerKey,
		ControllerId: ctrl.Id,
	}))

	auth, err := s.AuthController(ctx, &AuthControllerParams{RoomId: room.RoomId, ControllerKey: ctrl.Key})
	require.NoError(t, err)
	assert.False(t, auth.Controller.Enabled)

	_, err = s.AddToQueue(ctx, &AddToQueueParams{
		RoomId:        room.RoomId,
		ControllerKey: ctrl.Key,
		Video:         domain.Video{Id: "abc", Title: "Song"},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.ErrorIs(t, s.AuthorizeSearch(ctx, ctrl.Key), domain.ErrForbidden)
}

func TestRemoveControllerRevokesKey(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	room := createRoom(t, s)
	ctrl := registerController(t, s, room, "Ana")

	require.NoError(t, s.AuthorizeSearch(ctx, ctrl.Key))

	require.NoError(t, s.RemoveController(ctx, &RemoveControllerParams{
		RoomId:       room.RoomId,
		PlayerKey:    room.PlayerKey,
		ControllerId: ctrl.Id,
	}))

	_, err := s.AuthController(ctx, &AuthControllerParams{RoomId: room.RoomId, ControllerKey: ctrl.Key})
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	assert.ErrorIs(t, s.AuthorizeSearch(ctx, ctrl.Key), domain.ErrInvalidCredential)

	err = s.RemoveController(ctx, &RemoveControllerParams{
		RoomId:       room.RoomId,
		PlayerKey:    room.PlayerKey,
		ControllerId: ctrl.Id,
	})
	assert.ErrorIs(t, err, domain.ErrControllerNotFound)
}

func TestAuthorizeSearch(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	room := createRoom(t, s)

	assert.NoError(t, s.AuthorizeSearch(ctx, room.ControlMasterKey))
	assert.ErrorIs(t, s.AuthorizeSearch(ctx, room.PlayerKey), domain.ErrForbidden)
	assert.ErrorIs(t, s.AuthorizeSearch(ctx, "nope"), domain.ErrInvalidCredential)
	assert.ErrorIs(t, s.AuthorizeSearch(ctx, ""), domain.ErrInvalidCredential)
}

func TestAuthorizePlayer(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	room := createRoom(t, s)

	resp, err := s.AuthorizePlayer(ctx, &AuthorizePlayerParams{RoomId: room.RoomId, PlayerKey: room.PlayerKey})
	require.NoError(t, err)
	assert.Equal(t, room.ControlMasterKey, resp.ControlMasterKey)

	_, err = s.AuthorizePlayer(ctx, &AuthorizePlayerParams{RoomId: room.RoomId, PlayerKey: room.ControlMasterKey})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRegistrationToggle(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	room := createRoom(t, s)
	viewer := &fakeConn{id: "viewer"}
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{RoomId: room.RoomId, Conn: viewer}))

	resp, err := s.ToggleRegistration(ctx, &ToggleRegistrationParams{RoomId: room.RoomId, PlayerKey: room.PlayerKey})
	require.NoError(t, err)
	assert.False(t, resp.AllowNewControllers)

	var status RegistrationStatusPayload
	viewer.last(t, EventRegistrationStatus, &status)
	assert.False(t, status.AllowNewControllers)

	_, err = s.RegisterController(ctx, &RegisterControllerParams{
		RoomId:    room.RoomId,
		MasterKey: room.ControlMasterKey,
		Username:  "Late",
	})
	assert.ErrorIs(t, err, domain.ErrRegistrationClosed)
}

func TestRenamePublishesRoomState(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	room := createRoom(t, s)
	ctrl := registerController(t, s, room, "Sam")

	_, err := s.AddToQueue(ctx, &AddToQueueParams{
		RoomId:        room.RoomId,
		ControllerKey: ctrl.Key,
		Video:         domain.Video{Id: "abc", Title: "Song"},
	})
	require.NoError(t, err)

	viewer := &fakeConn{id: "viewer"}
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{RoomId: room.RoomId, Conn: viewer}))
	viewer.reset()

	resp, err := s.RenameController(ctx, &RenameControllerParams{
		RoomId:        room.RoomId,
		ControllerKey: ctrl.Key,
		Username:      "Samantha",
	})
	require.NoError(t, err)
	assert.Equal(t, "Samantha", resp.Controller.Username)

	var view domain.View
	viewer.last(t, EventRoomState, &view)
	require.NotNil(t, view.CurrentVideo)
	assert.Equal(t, "Samantha", view.CurrentVideo.AddedBy)

	viewer.reset()
	_, err = s.RenameController(ctx, &RenameControllerParams{
		RoomId:        room.RoomId,
		ControllerKey: ctrl.Key,
		Username:      "Samantha",
	})
	require.NoError(t, err)
	assert.Empty(t, viewer.types(), "an unchanged name is not broadcast")
}

func TestUpdateControllerColor(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	room := createRoom(t, s)
	ctrl := registerController(t, s, room, "Sam")

	resp, err := s.UpdateControllerColor(ctx, &UpdateControllerColorParams{
		RoomId:        room.RoomId,
		ControllerKey: ctrl.Key,
		Color:         120,
	})
	require.NoError(t, err)
	assert.Equal(t, 120, resp.Controller.Color)

	_, err = s.UpdateControllerColor(ctx, &UpdateControllerColorParams{
		RoomId:        room.RoomId,
		ControllerKey: ctrl.Key,
		Color:         360,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsAndRemove(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	room := createRoom(t, s)
	a := registerController(t, s, room, "A")
	b := registerController(t, s, room, "B")

	viewer := &fakeConn{id: "viewer"}
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{RoomId: room.RoomId, Conn: viewer}))

	add := func(key, id string) {
		_, err := s.AddToQueue(ctx, &AddToQueueParams{
			RoomId:        room.RoomId,
			ControllerKey: key,
			Video:         domain.Video{Id: id, Title: id},
		})
		require.NoError(t, err)
	}
	add(a.Key, "a0")
	add(a.Key, "a1")
	add(a.Key, "a2")
	add(b.Key, "b1")

	require.NoError(t, s.UpdateSettings(ctx, &UpdateSettingsParams{
		RoomId:        room.RoomId,
		ControllerKey: b.Key,
		Settings:      domain.Settings{RoundRobinEnabled: true},
	}))

	var settings SettingsUpdatedPayload
	viewer.last(t, EventSettingsUpdated, &settings)
	assert.True(t, settings.Settings.RoundRobinEnabled)
	ids := make([]string, 0, len(settings.Queue))
	for _, item := range settings.Queue {
		ids = append(ids, item.Id)
	}
	assert.Equal(t, []string{"b1", "a1", "a2"}, ids)

	require.NoError(t, s.RemoveFromQueue(ctx, &RemoveFromQueueParams{
		RoomId:        room.RoomId,
		ControllerKey: a.Key,
		Index:         0,
	}))
	var queued QueueUpdatedPayload
	viewer.last(t, EventQueueUpdated, &queued)
	assert.Len(t, queued.Queue, 2)

	err := s.RemoveFromQueue(ctx, &RemoveFromQueueParams{
		RoomId:        room.RoomId,
		ControllerKey: a.Key,
		Index:         5,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPlaybackAndPlayerPlayNext(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	room := createRoom(t, s)
	ctrl := registerController(t, s, room, "Sam")

	viewer := &fakeConn{id: "viewer"}
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{RoomId: room.RoomId, Conn: viewer}))

	err := s.UpdatePlaybackState(ctx, &UpdatePlaybackStateParams{
		RoomId:    room.RoomId,
		PlayerKey: room.PlayerKey,
		Report:    domain.PlaybackReport{State: "playing", Position: 1, VideoId: "abc"},
	})
	assert.ErrorIs(t, err, domain.ErrStalePlayback)

	_, err = s.AddToQueue(ctx, &AddToQueueParams{
		RoomId:        room.RoomId,
		ControllerKey: ctrl.Key,
		Video:         domain.Video{Id: "abc", Title: "Song"},
	})
	require.NoError(t, err)

	require.NoError(t, s.UpdatePlaybackState(ctx, &UpdatePlaybackStateParams{
		RoomId:    room.RoomId,
		PlayerKey: room.PlayerKey,
		Report:    domain.PlaybackReport{State: "playing", Position: 12.5, VideoId: "abc"},
	}))

	var playback PlaybackUpdatedPayload
	viewer.last(t, EventPlaybackUpdated, &playback)
	assert.Equal(t, domain.PlaybackPlaying, playback.Playback.State)
	assert.Equal(t, 12.5, playback.Playback.Position)

	err = s.UpdatePlaybackState(ctx, &UpdatePlaybackStateParams{
		RoomId:    room.RoomId,
		PlayerKey: ctrl.Key,
		Report:    domain.PlaybackReport{State: "playing", Position: 13, VideoId: "abc"},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, s.PlayerPlayNext(ctx, &PlayerPlayNextParams{RoomId: room.RoomId, PlayerKey: room.PlayerKey}))
	var changed VideoChangedPayload
	viewer.last(t, EventVideoChanged, &changed)
	assert.Nil(t, changed.CurrentVideo)
	assert.Empty(t, changed.Queue)
}

func TestDisconnect(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	room := createRoom(t, s)
	ctrl := registerController(t, s, room, "Sam")

	viewer := &fakeConn{id: "viewer"}
	require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{RoomId: room.RoomId, Conn: viewer}))
	s.Disconnect(ctx, viewer)
	s.Disconnect(ctx, viewer)
	viewer.reset()

	_, err := s.AddToQueue(ctx, &AddToQueueParams{
		RoomId:        room.RoomId,
		ControllerKey: ctrl.Key,
		Video:         domain.Video{Id: "abc", Title: "Song"},
	})
	require.NoError(t, err)
	assert.Empty(t, viewer.types())
}

func TestGetRoomStateDoesNotTouch(t *testing.T) {
	s := newTestService(t)
	room := createRoom(t, s)

	r, err := s.roomRepo.GetRoom(room.RoomId)
	require.NoError(t, err)
	before := r.LastActive()

	view, err := s.GetRoomState(context.Background(), room.RoomId)
	require.NoError(t, err)
	assert.Equal(t, room.RoomId, view.RoomId)
	assert.True(t, view.AllowNewControllers)
	assert.Equal(t, before, r.LastActive())

	_, err = s.GetRoomState(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestJoinRoomDoesNotTouch(t *testing.T) {
	s := newTestService(t)
	room := createRoom(t, s)

	r, err := s.roomRepo.GetRoom(room.RoomId)
	require.NoError(t, err)
	before := r.LastActive()

	viewer := &fakeConn{id: "viewer"}
	require.NoError(t, s.JoinRoom(context.Background(), &JoinRoomParams{RoomId: room.RoomId, Conn: viewer}))
	assert.Equal(t, []string{EventRoomState}, viewer.types())
	assert.Equal(t, before, r.LastActive())
}

func TestJoinClosedRoomFails(t *testing.T) {
	s := newTestService(t)
	room := createRoom(t, s)

	r, err := s.roomRepo.GetRoom(room.RoomId)
	require.NoError(t, err)
	require.True(t, r.CloseIfIdle(time.Now().Add(time.Hour), func() {}))

	viewer := &fakeConn{id: "viewer"}
	err = s.JoinRoom(context.Background(), &JoinRoomParams{RoomId: room.RoomId, Conn: viewer})
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Empty(t, viewer.types())

	_, err = s.GetRoomState(context.Background(), room.RoomId)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestConcurrentOperationsKeepBroadcastOrder(t *testing.T) {
	const (
		writers = 4
		adds    = 20
		reads   = 50
	)

	s := newTestService(t)
	ctx := context.Background()
	room := createRoom(t, s)

	viewers := []*fakeConn{{id: "viewer-1"}, {id: "viewer-2"}}
	for _, viewer := range viewers {
		require.NoError(t, s.JoinRoom(ctx, &JoinRoomParams{RoomId: room.RoomId, Conn: viewer}))
	}

	keys := make([]string, writers)
	for i := range keys {
		keys[i] = registerController(t, s, room, fmt.Sprintf("user-%d", i)).Key
	}
	require.NoError(t, s.UpdateSettings(ctx, &UpdateSettingsParams{
		RoomId:        room.RoomId,
		ControllerKey: keys[0],
		Settings:      domain.Settings{RoundRobinEnabled: true},
	}))

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()

			for j := 0; j < adds; j++ {
				_, err := s.AddToQueue(ctx, &AddToQueueParams{
					RoomId:        room.RoomId,
					ControllerKey: key,
					Video:         domain.Video{Id: fmt.Sprintf("v-%d-%d", i, j), Title: "Song"},
				})
				assert.NoError(t, err)

				if j%5 == 4 {
					assert.NoError(t, s.PlayNext(ctx, &PlayNextParams{RoomId: room.RoomId, ControllerKey: key}))
				}
			}
		}(i, key)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		for j := 0; j < reads; j++ {
			view, err := s.GetRoomState(ctx, room.RoomId)
			assert.NoError(t, err)
			if len(view.Queue) > 0 {
				assert.NotNil(t, view.CurrentVideo, "a queued room always has a current video")
			}
		}
	}()
	wg.Wait()

	msgs := viewers[0].messages()
	assert.Equal(t, msgs, viewers[1].messages(), "every subscriber sees the same sequence")

	var highest int64
	updates := 0
	for _, msg := range msgs {
		if msg.Type != EventQueueUpdated {
			continue
		}
		updates++

		var payload QueueUpdatedPayload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))

		seen := make(map[int64]bool, len(payload.Queue))
		var top int64
		for _, item := range payload.Queue {
			assert.False(t, seen[item.QueueId], "queue id %d listed twice", item.QueueId)
			seen[item.QueueId] = true
			top = max(top, item.QueueId)
		}

		assert.Greater(t, top, highest, "each add broadcasts a newer item than the last one")
		highest = top
	}
	assert.NotZero(t, updates)
}

var _ connection.Conn = (*fakeConn)(nil)
