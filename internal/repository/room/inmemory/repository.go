package inmemory

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/exp/maps"

	"github.com/sharetube/partyqueue/internal/credential"
	"github.com/sharetube/partyqueue/internal/domain"
)

type tokenRef struct {
	roomId string
	kind   credential.Kind
}

type Config struct {
	MaxRooms      int
	TokenAttempts int
	Limits        domain.Limits
	Now           func() time.Time
}

// repo is the process-wide room registry. tokens is a reverse index over every
// live credential, kept in step with room and controller lifecycles.
type repo struct {
	mu            sync.RWMutex
	rooms         map[string]*domain.Room
	tokens        map[string]tokenRef
	maxRooms      int
	tokenAttempts int
	limits        domain.Limits
	now           func() time.Time
	logger        *slog.Logger
}

func NewRepo(cfg *Config, logger *slog.Logger) *repo {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &repo{
		rooms:         make(map[string]*domain.Room),
		tokens:        make(map[string]tokenRef),
		maxRooms:      cfg.MaxRooms,
		tokenAttempts: cfg.TokenAttempts,
		limits:        cfg.Limits,
		now:           now,
		logger:        logger,
	}
}

func (r *repo) tokenTaken(token string) bool {
	_, ok := r.tokens[token]
	return ok
}

func (r *repo) roomTaken(id string) bool {
	_, ok := r.rooms[id]
	return ok
}

func (r *repo) mintLocked() (string, error) {
	token, err := credential.MintUniqueToken(r.tokenTaken, r.tokenAttempts)
	if err != nil {
		r.logger.Error("credential namespace exhausted", "error", err, "live_tokens", len(r.tokens))
		return "", err
	}

	return token, nil
}

func (r *repo) CreateRoom() (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.rooms) >= r.maxRooms {
		return nil, domain.ErrRoomsLimitReached
	}

	roomId, err := credential.NewRoomID(r.roomTaken, r.tokenAttempts)
	if err != nil {
		r.logger.Error("room id namespace exhausted", "error", err, "live_rooms", len(r.rooms))
		return nil, fmt.Errorf("failed to generate room id: %w", err)
	}

	playerKey, err := r.mintLocked()
	if err != nil {
		return nil, fmt.Errorf("failed to mint player key: %w", err)
	}
	r.tokens[playerKey] = tokenRef{roomId: roomId, kind: credential.KindPlayer}

	masterKey, err := r.mintLocked()
	if err != nil {
		delete(r.tokens, playerKey)
		return nil, fmt.Errorf("failed to mint control master key: %w", err)
	}
	r.tokens[masterKey] = tokenRef{roomId: roomId, kind: credential.KindControlMaster}

	room := domain.NewRoom(&domain.NewRoomParams{
		Id:               roomId,
		PlayerKey:        playerKey,
		ControlMasterKey: masterKey,
		Limits:           r.limits,
		Now:              r.now,
	})
	r.rooms[roomId] = room

	return room, nil
}

func (r *repo) GetRoom(roomId string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomId]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	return room, nil
}

// ReserveControllerKey mints a controller key for a live room and indexes it.
func (r *repo) ReserveControllerKey(roomId string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.roomTaken(roomId) {
		return "", domain.ErrRoomNotFound
	}

	token, err := r.mintLocked()
	if err != nil {
		return "", err
	}
	r.tokens[token] = tokenRef{roomId: roomId, kind: credential.KindController}

	return token, nil
}

func (r *repo) ReleaseToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
}

// LookupToken reports which room and tier a credential belongs to.
func (r *repo) LookupToken(token string) (string, credential.Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, ok := r.tokens[token]
	return ref.roomId, ref.kind, ok
}

func (r *repo) DeleteRoom(roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.roomTaken(roomId) {
		return domain.ErrRoomNotFound
	}

	delete(r.rooms, roomId)
	for token, ref := range r.tokens {
		if ref.roomId == roomId {
			delete(r.tokens, token)
		}
	}

	return nil
}

func (r *repo) Rooms() []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Values(r.rooms)
}

func (r *repo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
