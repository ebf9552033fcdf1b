package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/sharetube/partyqueue/internal/domain"
	"github.com/sharetube/partyqueue/internal/repository/connection"
	"github.com/sharetube/partyqueue/internal/service/room"
	"github.com/sharetube/partyqueue/pkg/validator"
	"github.com/sharetube/partyqueue/pkg/wsrouter"
	"github.com/sharetube/partyqueue/pkg/ytsearch"
)

type iRoomService interface {
	CreateRoom(context.Context) (room.CreateRoomResponse, error)
	GetRoomState(context.Context, string) (domain.View, error)
	AuthorizePlayer(context.Context, *room.AuthorizePlayerParams) (room.AuthorizePlayerResponse, error)
	AuthorizeSearch(context.Context, string) error
	JoinRoom(context.Context, *room.JoinRoomParams) error
	JoinRoomAdmin(context.Context, *room.JoinRoomAdminParams) error
	RegisterController(context.Context, *room.RegisterControllerParams) (room.RegisterControllerResponse, error)
	AuthController(context.Context, *room.AuthControllerParams) (room.AuthControllerResponse, error)
	RenameController(context.Context, *room.RenameControllerParams) (room.RenameControllerResponse, error)
	UpdateControllerColor(context.Context, *room.UpdateControllerColorParams) (room.UpdateControllerColorResponse, error)
	AddToQueue(context.Context, *room.AddToQueueParams) (room.AddToQueueResponse, error)
	RemoveFromQueue(context.Context, *room.RemoveFromQueueParams) error
	PlayNext(context.Context, *room.PlayNextParams) error
	PlayerPlayNext(context.Context, *room.PlayerPlayNextParams) error
	UpdateSettings(context.Context, *room.UpdateSettingsParams) error
	UpdatePlaybackState(context.Context, *room.UpdatePlaybackStateParams) error
	ToggleController(context.Context, *room.ToggleControllerParams) error
	RemoveController(context.Context, *room.RemoveControllerParams) error
	ToggleRegistration(context.Context, *room.ToggleRegistrationParams) (room.ToggleRegistrationResponse, error)
	Disconnect(context.Context, connection.Conn)
}

type iRateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type iSearcher interface {
	Search(ctx context.Context, query, pageToken string) (ytsearch.Page, error)
}

type Config struct {
	FrontendOrigin string
	MaxMessageSize int64
	MaxQueryLength int
	SendQueueSize  int
	Limits         domain.Limits
}

type controller struct {
	roomService    iRoomService
	rateLimiter    iRateLimiter
	searcher       iSearcher
	upgrader       websocket.Upgrader
	validate       *validator.Validator
	wsRouter       *wsrouter.WSRouter[*client]
	frontendOrigin string
	maxMessageSize int64
	sendQueueSize  int
	logger         *slog.Logger
}

func NewController(roomService iRoomService, rateLimiter iRateLimiter, searcher iSearcher, cfg *Config, logger *slog.Logger) (*controller, error) {
	validate := validator.NewValidator()
	for tag, max := range map[string]int{
		"title":        cfg.Limits.MaxTitleLength,
		"videoid":      cfg.Limits.MaxVideoIdLength,
		"channeltitle": cfg.Limits.MaxChannelTitleLength,
		"query":        cfg.MaxQueryLength,
	} {
		if err := validate.RegisterMaxLength(tag, max); err != nil {
			return nil, fmt.Errorf("failed to register validation: %w", err)
		}
	}

	sendQueueSize := cfg.SendQueueSize
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}

	c := &controller{
		roomService: roomService,
		rateLimiter: rateLimiter,
		searcher:    searcher,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate:       validate,
		frontendOrigin: cfg.FrontendOrigin,
		maxMessageSize: cfg.MaxMessageSize,
		sendQueueSize:  sendQueueSize,
		logger:         logger,
	}
	c.wsRouter = c.getWSRouter()

	return c, nil
}
