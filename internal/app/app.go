package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/sharetube/partyqueue/internal/controller"
	"github.com/sharetube/partyqueue/internal/domain"
	connInmemory "github.com/sharetube/partyqueue/internal/repository/connection/inmemory"
	rateInmemory "github.com/sharetube/partyqueue/internal/repository/ratelimit/inmemory"
	rateRedis "github.com/sharetube/partyqueue/internal/repository/ratelimit/redis"
	roomInmemory "github.com/sharetube/partyqueue/internal/repository/room/inmemory"
	"github.com/sharetube/partyqueue/internal/service/room"
	"github.com/sharetube/partyqueue/internal/service/sweeper"
	"github.com/sharetube/partyqueue/pkg/ctxlogger"
	"github.com/sharetube/partyqueue/pkg/redisclient"
	"github.com/sharetube/partyqueue/pkg/ytsearch"
)

type Config struct {
	Host                  string        `json:"host"`
	Port                  int           `json:"port"`
	LogLevel              string        `json:"log_level"`
	FrontendOrigin        string        `json:"frontend_origin"`
	MaxRooms              int           `json:"max_rooms"`
	MaxControllers        int           `json:"max_controllers"`
	MaxQueueLength        int           `json:"max_queue_length"`
	MaxUsernameLength     int           `json:"max_username_length"`
	MaxTitleLength        int           `json:"max_title_length"`
	MaxVideoIdLength      int           `json:"max_video_id_length"`
	MaxChannelTitleLength int           `json:"max_channel_title_length"`
	MaxQueryLength        int           `json:"max_query_length"`
	MaxMessageSize        int64         `json:"max_message_size"`
	RoomRetention         time.Duration `json:"room_retention"`
	SweepInterval         time.Duration `json:"sweep_interval"`
	TokenAttempts         int           `json:"token_attempts"`
	CreateRoomLimit       int           `json:"create_room_limit"`
	CreateRoomWindow      time.Duration `json:"create_room_window"`
	RedisHost             string        `json:"redis_host"`
	RedisPort             int           `json:"redis_port"`
	RedisPassword         string        `json:"-"`
	YoutubeApiKey         string        `json:"-"`
}

const (
	defaultMaxRooms              = 100
	defaultMaxControllers        = 50
	defaultMaxQueueLength        = 100
	defaultMaxUsernameLength     = 30
	defaultMaxTitleLength        = 200
	defaultMaxVideoIdLength      = 64
	defaultMaxChannelTitleLength = 200
	defaultMaxQueryLength        = 200
	defaultMaxMessageSize        = 16384
	defaultRoomRetention         = 24 * time.Hour
	defaultSweepInterval         = 10 * time.Minute
	defaultTokenAttempts         = 10
	defaultCreateRoomLimit       = 10
	defaultCreateRoomWindow      = time.Minute
)

func fallback[T int | int64 | time.Duration](logger *slog.Logger, name string, v *T, def T) {
	if *v > 0 {
		return
	}

	logger.Warn("invalid config value, using default", "key", name, "value", *v, "default", def)
	*v = def
}

var (
	portRule  = []validation.Rule{validation.Required, validation.Min(1), validation.Max(65535)}
	levelRule = []validation.Rule{validation.Required, validation.In("DEBUG", "INFO", "WARN", "ERROR")}
)

// Validate replaces missing or non-positive limits with their defaults. Values
// without a sensible default are rejected.
func (cfg *Config) Validate(logger *slog.Logger) error {
	fallback(logger, "max-rooms", &cfg.MaxRooms, defaultMaxRooms)
	fallback(logger, "max-controllers", &cfg.MaxControllers, defaultMaxControllers)
	fallback(logger, "max-queue-length", &cfg.MaxQueueLength, defaultMaxQueueLength)
	fallback(logger, "max-username-length", &cfg.MaxUsernameLength, defaultMaxUsernameLength)
	fallback(logger, "max-title-length", &cfg.MaxTitleLength, defaultMaxTitleLength)
	fallback(logger, "max-video-id-length", &cfg.MaxVideoIdLength, defaultMaxVideoIdLength)
	fallback(logger, "max-channel-title-length", &cfg.MaxChannelTitleLength, defaultMaxChannelTitleLength)
	fallback(logger, "max-query-length", &cfg.MaxQueryLength, defaultMaxQueryLength)
	fallback(logger, "max-message-size", &cfg.MaxMessageSize, defaultMaxMessageSize)
	fallback(logger, "room-retention", &cfg.RoomRetention, defaultRoomRetention)
	fallback(logger, "sweep-interval", &cfg.SweepInterval, defaultSweepInterval)
	fallback(logger, "token-attempts", &cfg.TokenAttempts, defaultTokenAttempts)
	fallback(logger, "create-room-limit", &cfg.CreateRoomLimit, defaultCreateRoomLimit)
	fallback(logger, "create-room-window", &cfg.CreateRoomWindow, defaultCreateRoomWindow)

	return validation.ValidateStruct(cfg,
		validation.Field(&cfg.Port, portRule...),
		validation.Field(&cfg.LogLevel, validation.By(func(v any) error {
			return validation.Validate(strings.ToUpper(v.(string)), levelRule...)
		})),
		validation.Field(&cfg.FrontendOrigin, validation.Required, is.URL),
		validation.Field(&cfg.RedisPort, validation.When(cfg.RedisHost != "", portRule...)),
	)
}

func (cfg *Config) limits() domain.Limits {
	return domain.Limits{
		MaxControllers:        cfg.MaxControllers,
		MaxQueueLength:        cfg.MaxQueueLength,
		MaxUsernameLength:     cfg.MaxUsernameLength,
		MaxTitleLength:        cfg.MaxTitleLength,
		MaxVideoIdLength:      cfg.MaxVideoIdLength,
		MaxChannelTitleLength: cfg.MaxChannelTitleLength,
	}
}

func newLogger(level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

type rateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

func Run(ctx context.Context, cfg *Config) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	if err := cfg.Validate(logger); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var limiter rateLimiter
	if cfg.RedisHost != "" {
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer rc.Close()

		limiter = rateRedis.NewRepo(rc, &rateRedis.Config{
			Limit:  cfg.CreateRoomLimit,
			Window: cfg.CreateRoomWindow,
		})
	} else {
		logger.Info("redis host is empty, using in-memory rate limiter")
		limiter = rateInmemory.NewRepo(&rateInmemory.Config{
			Limit:  cfg.CreateRoomLimit,
			Window: cfg.CreateRoomWindow,
		})
	}

	roomRepo := roomInmemory.NewRepo(&roomInmemory.Config{
		MaxRooms:      cfg.MaxRooms,
		TokenAttempts: cfg.TokenAttempts,
		Limits:        cfg.limits(),
	}, logger)
	connRepo := connInmemory.NewRepo(logger)
	roomService := room.New(roomRepo, connRepo, logger)

	searcher := ytsearch.New(&ytsearch.Config{ApiKey: cfg.YoutubeApiKey})
	if cfg.YoutubeApiKey == "" {
		logger.Warn("youtube api key is empty, search is disabled")
	}

	ctrl, err := controller.NewController(roomService, limiter, searcher, &controller.Config{
		FrontendOrigin: cfg.FrontendOrigin,
		MaxMessageSize: cfg.MaxMessageSize,
		MaxQueryLength: cfg.MaxQueryLength,
		Limits:         cfg.limits(),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create controller: %w", err)
	}

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: ctrl.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	go sweeper.New(roomRepo, connRepo, &sweeper.Config{
		Retention: cfg.RoomRetention,
		Interval:  cfg.SweepInterval,
	}, logger).Run(serverCtx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-serverCtx.Done()

	return nil
}
