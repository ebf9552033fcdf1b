package domain

import (
	"crypto/subtle"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type Settings struct {
	RoundRobinEnabled bool `json:"roundRobinEnabled"`
}

// Room is one shared viewing session.
//
// Id, CreatedAt and the two room-level keys never change after NewRoom.
// Everything else is guarded by the room's lock: call the mutating methods
// only from inside Exec.
type Room struct {
	Id               string
	CreatedAt        time.Time
	PlayerKey        string
	ControlMasterKey string

	mu         sync.Mutex
	closed     bool
	lastActive atomic.Int64
	limits     Limits
	now        func() time.Time

	queue               []QueueItem
	current             *QueueItem
	settings            Settings
	playback            Playback
	controllers         controllers
	roundRobin          *RoundRobin
	allowNewControllers bool
	lastQueueId         int64
}

type NewRoomParams struct {
	Id               string
	PlayerKey        string
	ControlMasterKey string
	Limits           Limits
	Now              func() time.Time
}

func NewRoom(params *NewRoomParams) *Room {
	now := params.Now
	if now == nil {
		now = time.Now
	}

	createdAt := now()
	r := &Room{
		Id:                  params.Id,
		CreatedAt:           createdAt,
		PlayerKey:           params.PlayerKey,
		ControlMasterKey:    params.ControlMasterKey,
		limits:              params.Limits,
		now:                 now,
		queue:               []QueueItem{},
		controllers:         newControllers(),
		roundRobin:          NewRoundRobin(),
		allowNewControllers: true,
		playback: Playback{
			State:     PlaybackUnstarted,
			UpdatedAt: createdAt,
		},
	}
	r.lastActive.Store(createdAt.UnixNano())

	return r
}

// Exec runs fn as one serialized step. A successful step counts as activity.
// A closed room rejects every step with ErrRoomNotFound.
func (r *Room) Exec(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}

	if err := fn(); err != nil {
		return err
	}

	r.lastActive.Store(r.now().UnixNano())
	return nil
}

// Read runs fn under the room's lock without counting as activity.
func (r *Room) Read(fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}

	fn()
	return nil
}

// CloseIfIdle closes the room when it has seen no activity since cutoff.
// onClose runs under the room's lock, so no step can interleave with the
// teardown it performs.
func (r *Room) CloseIfIdle(cutoff time.Time, onClose func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || !r.LastActive().Before(cutoff) {
		return false
	}

	r.closed = true
	onClose()
	return true
}

func (r *Room) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

func keysEqual(a, b string) bool {
	return a != "" && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (r *Room) IsPlayerKey(key string) bool {
	return keysEqual(key, r.PlayerKey)
}

func (r *Room) IsControlMasterKey(key string) bool {
	return keysEqual(key, r.ControlMasterKey)
}

// takenNames is every name a new or renamed controller must avoid:
// present controllers plus every participant the scheduler has seen.
func (r *Room) takenNames(except string) map[string]bool {
	taken := make(map[string]bool, r.controllers.Length())
	for _, ctrl := range r.controllers.list {
		taken[ctrl.Username] = true
	}
	for _, name := range r.roundRobin.participants {
		taken[name] = true
	}
	delete(taken, except)

	return taken
}

// Register mints a controller identity. mint is called only after every
// precondition holds, so a failing mint leaves the room untouched.
func (r *Room) Register(masterKey, requestedName string, mint func() (string, error)) (Controller, error) {
	if !r.IsControlMasterKey(masterKey) {
		return Controller{}, ErrForbidden
	}

	if !r.allowNewControllers {
		return Controller{}, ErrRegistrationClosed
	}

	if r.controllers.Length() >= r.limits.MaxControllers {
		return Controller{}, ErrControllersLimitReached
	}

	name, err := r.limits.normalizeName(requestedName)
	if err != nil {
		return Controller{}, err
	}

	name, err = resolveName(name, r.takenNames(""))
	if err != nil {
		return Controller{}, err
	}

	key, err := mint()
	if err != nil {
		return Controller{}, fmt.Errorf("failed to mint controller key: %w", err)
	}

	ctrl := &Controller{
		Id:        uuid.NewString(),
		Key:       key,
		Username:  name,
		Enabled:   true,
		Color:     rand.IntN(360),
		CreatedAt: r.now(),
	}
	r.controllers.add(ctrl)
	r.roundRobin.Add(name)

	return *ctrl, nil
}

// Authenticate resolves a controller key. Disabled controllers still
// authenticate; check Enabled before allowing mutation.
func (r *Room) Authenticate(key string) (Controller, error) {
	ctrl, ok := r.controllers.getByKey(key)
	if !ok || key == "" {
		return Controller{}, ErrInvalidCredential
	}

	return *ctrl, nil
}

func (r *Room) authorize(key string) (*Controller, error) {
	ctrl, ok := r.controllers.getByKey(key)
	if !ok || key == "" {
		return nil, ErrInvalidCredential
	}

	if !ctrl.Enabled {
		return nil, fmt.Errorf("%w: controller is disabled", ErrForbidden)
	}

	return ctrl, nil
}

// Rename reports changed=false when the resolved name equals the current one.
func (r *Room) Rename(key, newName string) (ctrl Controller, changed bool, err error) {
	c, err := r.authorize(key)
	if err != nil {
		return Controller{}, false, err
	}

	name, err := r.limits.normalizeName(newName)
	if err != nil {
		return Controller{}, false, err
	}

	oldName := c.Username
	name, err = resolveName(name, r.takenNames(oldName))
	if err != nil {
		return Controller{}, false, err
	}

	if name == oldName {
		return *c, false, nil
	}

	c.Username = name
	for i := range r.queue {
		if r.queue[i].AddedBy == oldName {
			r.queue[i].AddedBy = name
		}
	}
	if r.current != nil && r.current.AddedBy == oldName {
		r.current.AddedBy = name
	}
	r.roundRobin.Rename(oldName, name)

	return *c, true, nil
}

func (r *Room) UpdateColor(key string, color int) (Controller, error) {
	c, err := r.authorize(key)
	if err != nil {
		return Controller{}, err
	}

	if color < 0 || color > 359 {
		return Controller{}, fmt.Errorf("%w: color must be a hue in [0, 359]", ErrInvalidInput)
	}

	c.Color = color
	for i := range r.queue {
		if r.queue[i].AddedBy == c.Username {
			r.queue[i].AddedByColor = color
		}
	}
	if r.current != nil && r.current.AddedBy == c.Username {
		r.current.AddedByColor = color
	}

	return *c, nil
}

// AddToQueue reports becameCurrent when the room was idle and the item went
// straight to the player.
func (r *Room) AddToQueue(key string, video Video) (item QueueItem, becameCurrent bool, err error) {
	c, err := r.authorize(key)
	if err != nil {
		return QueueItem{}, false, err
	}

	if err := r.limits.validateVideo(&video); err != nil {
		return QueueItem{}, false, err
	}

	if r.current != nil && len(r.queue) >= r.limits.MaxQueueLength {
		return QueueItem{}, false, ErrQueueFull
	}

	r.lastQueueId++
	item = QueueItem{
		Id:           video.Id,
		Title:        video.Title,
		ChannelTitle: video.ChannelTitle,
		IsPlaylist:   video.IsPlaylist,
		AddedBy:      c.Username,
		AddedByColor: c.Color,
		QueueId:      r.lastQueueId,
	}
	r.queue = append(r.queue, item)

	if r.current == nil {
		r.advance()
		return item, true, nil
	}

	r.reschedule()
	return item, false, nil
}

func (r *Room) RemoveFromQueue(key string, index int) (QueueItem, error) {
	if _, err := r.authorize(key); err != nil {
		return QueueItem{}, err
	}

	if index < 0 || index >= len(r.queue) {
		return QueueItem{}, fmt.Errorf("%w: index %d out of range", ErrInvalidInput, index)
	}

	removed := r.queue[index]
	r.queue = append(r.queue[:index:index], r.queue[index+1:]...)
	r.reschedule()

	return removed, nil
}

func (r *Room) PlayNext(key string) error {
	if _, err := r.authorize(key); err != nil {
		return err
	}

	r.advance()
	return nil
}

func (r *Room) PlayerPlayNext(playerKey string) error {
	if !r.IsPlayerKey(playerKey) {
		return ErrForbidden
	}

	r.advance()
	return nil
}

// UpdateSettings reschedules immediately when round-robin gets enabled.
// Disabling keeps the current order.
func (r *Room) UpdateSettings(key string, settings Settings) error {
	if _, err := r.authorize(key); err != nil {
		return err
	}

	r.settings = settings
	r.reschedule()
	return nil
}

func (r *Room) ToggleController(playerKey, controllerId string) (Controller, error) {
	if !r.IsPlayerKey(playerKey) {
		return Controller{}, ErrForbidden
	}

	ctrl, _, err := r.controllers.getById(controllerId)
	if err != nil {
		return Controller{}, err
	}

	ctrl.Enabled = !ctrl.Enabled
	return *ctrl, nil
}

// RemoveController invalidates the controller's key at once. Its queued items
// and its scheduler slot stay.
func (r *Room) RemoveController(playerKey, controllerId string) (Controller, error) {
	if !r.IsPlayerKey(playerKey) {
		return Controller{}, ErrForbidden
	}

	ctrl, err := r.controllers.removeById(controllerId)
	if err != nil {
		return Controller{}, err
	}

	return *ctrl, nil
}

func (r *Room) ToggleRegistration(playerKey string) (bool, error) {
	if !r.IsPlayerKey(playerKey) {
		return false, ErrForbidden
	}

	r.allowNewControllers = !r.allowNewControllers
	return r.allowNewControllers, nil
}

// UpdatePlayback stores a report from the display client. Reports about any
// video but the current one are stale and rejected.
func (r *Room) UpdatePlayback(playerKey string, report PlaybackReport) (Playback, error) {
	if !r.IsPlayerKey(playerKey) {
		return Playback{}, ErrForbidden
	}

	if r.current == nil || report.VideoId != r.current.Id {
		return Playback{}, ErrStalePlayback
	}

	if report.Position < 0 {
		return Playback{}, fmt.Errorf("%w: negative position", ErrInvalidInput)
	}

	if report.Duration != nil && *report.Duration < 0 {
		return Playback{}, fmt.Errorf("%w: negative duration", ErrInvalidInput)
	}

	r.playback = Playback{
		State:     ParsePlaybackState(report.State),
		Position:  report.Position,
		Duration:  report.Duration,
		UpdatedAt: r.now(),
		VideoId:   r.current.Id,
	}

	return r.playback, nil
}

// advance promotes the queue head, or clears the player when the queue is empty.
// The displaced current item is discarded.
func (r *Room) advance() {
	if len(r.queue) == 0 {
		r.current = nil
		r.resetPlayback("")
		return
	}

	next := r.queue[0]
	r.queue = append([]QueueItem{}, r.queue[1:]...)
	r.current = &next
	r.roundRobin.Served(next.AddedBy)
	r.resetPlayback(next.Id)
	r.reschedule()
}

func (r *Room) resetPlayback(videoId string) {
	r.playback = Playback{
		State:     PlaybackUnstarted,
		UpdatedAt: r.now(),
		VideoId:   videoId,
	}
}

func (r *Room) reschedule() {
	if r.settings.RoundRobinEnabled {
		r.queue = r.roundRobin.Schedule(r.queue)
	}
}
