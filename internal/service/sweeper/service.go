package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/sharetube/partyqueue/internal/domain"
)

type iRoomRepo interface {
	Rooms() []*domain.Room
	DeleteRoom(roomId string) error
}

type iConnRepo interface {
	DropRoom(roomId string)
}

type Config struct {
	// Retention is how long a room may stay idle before eviction.
	Retention time.Duration
	Interval  time.Duration
	Now       func() time.Time
}

type service struct {
	roomRepo  iRoomRepo
	connRepo  iConnRepo
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func New(roomRepo iRoomRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		roomRepo:  roomRepo,
		connRepo:  connRepo,
		retention: cfg.Retention,
		interval:  cfg.Interval,
		now:       now,
		logger:    logger,
	}
}

// Run sweeps on every tick until ctx is done.
func (s service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep evicts every room idle for longer than the retention window and
// returns how many were removed. Teardown happens under the room's lock, so a
// concurrent join either lands before it and is dropped, or fails.
func (s service) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.retention)
	evicted := 0
	for _, room := range s.roomRepo.Rooms() {
		if !room.CloseIfIdle(cutoff, func() {
			if err := s.roomRepo.DeleteRoom(room.Id); err != nil {
				s.logger.WarnContext(ctx, "failed to delete evicted room", "room_id", room.Id, "error", err)
			}
			s.connRepo.DropRoom(room.Id)
		}) {
			continue
		}
		evicted++

		s.logger.InfoContext(ctx, "room evicted",
			"room_id", room.Id,
			"last_active", room.LastActive(),
		)
	}

	if evicted > 0 {
		s.logger.InfoContext(ctx, "sweep finished", "evicted", evicted)
	}
	return evicted
}
