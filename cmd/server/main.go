package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/partyqueue/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

func (v configVar[T]) bind() {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

var (
	configFile = configVar[string]{
		envKey:  "PARTYQUEUE_CONFIG",
		flagKey: "config",
		usage:   "Path to a config file (json, yaml or toml)",
	}
	host = configVar[string]{
		envKey:       "PARTYQUEUE_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	port = configVar[int]{
		envKey:       "PARTYQUEUE_PORT",
		flagKey:      "port",
		defaultValue: 8080,
		usage:        "Server port",
	}
	logLevel = configVar[string]{
		envKey:       "PARTYQUEUE_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	frontendOrigin = configVar[string]{
		envKey:       "PARTYQUEUE_FRONTEND_ORIGIN",
		flagKey:      "frontend-origin",
		defaultValue: "http://localhost:3000",
		usage:        "Origin of the web client, used in control QR codes",
	}
	maxRooms = configVar[int]{
		envKey:       "PARTYQUEUE_MAX_ROOMS",
		flagKey:      "max-rooms",
		defaultValue: 100,
		usage:        "Maximum number of live rooms",
	}
	maxControllers = configVar[int]{
		envKey:       "PARTYQUEUE_MAX_CONTROLLERS",
		flagKey:      "max-controllers",
		defaultValue: 50,
		usage:        "Maximum number of controllers per room",
	}
	maxQueueLength = configVar[int]{
		envKey:       "PARTYQUEUE_MAX_QUEUE_LENGTH",
		flagKey:      "max-queue-length",
		defaultValue: 100,
		usage:        "Maximum number of queued videos per room",
	}
	maxUsernameLength = configVar[int]{
		envKey:       "PARTYQUEUE_MAX_USERNAME_LENGTH",
		flagKey:      "max-username-length",
		defaultValue: 30,
		usage:        "Maximum controller name length",
	}
	maxTitleLength = configVar[int]{
		envKey:       "PARTYQUEUE_MAX_TITLE_LENGTH",
		flagKey:      "max-title-length",
		defaultValue: 200,
		usage:        "Maximum video title length",
	}
	maxVideoIdLength = configVar[int]{
		envKey:       "PARTYQUEUE_MAX_VIDEO_ID_LENGTH",
		flagKey:      "max-video-id-length",
		defaultValue: 64,
		usage:        "Maximum video id length",
	}
	maxChannelTitleLength = configVar[int]{
		envKey:       "PARTYQUEUE_MAX_CHANNEL_TITLE_LENGTH",
		flagKey:      "max-channel-title-length",
		defaultValue: 200,
		usage:        "Maximum channel title length",
	}
	maxQueryLength = configVar[int]{
		envKey:       "PARTYQUEUE_MAX_QUERY_LENGTH",
		flagKey:      "max-query-length",
		defaultValue: 200,
		usage:        "Maximum search query length",
	}
	maxMessageSize = configVar[int64]{
		envKey:       "PARTYQUEUE_MAX_MESSAGE_SIZE",
		flagKey:      "max-message-size",
		defaultValue: 16384,
		usage:        "Maximum inbound websocket message size in bytes",
	}
	roomRetention = configVar[time.Duration]{
		envKey:       "PARTYQUEUE_ROOM_RETENTION",
		flagKey:      "room-retention",
		defaultValue: 24 * time.Hour,
		usage:        "How long an idle room is kept",
	}
	sweepInterval = configVar[time.Duration]{
		envKey:       "PARTYQUEUE_SWEEP_INTERVAL",
		flagKey:      "sweep-interval",
		defaultValue: 10 * time.Minute,
		usage:        "How often idle rooms are evicted",
	}
	tokenAttempts = configVar[int]{
		envKey:       "PARTYQUEUE_TOKEN_ATTEMPTS",
		flagKey:      "token-attempts",
		defaultValue: 10,
		usage:        "Attempts to mint a unique credential before giving up",
	}
	createRoomLimit = configVar[int]{
		envKey:       "PARTYQUEUE_CREATE_ROOM_LIMIT",
		flagKey:      "create-room-limit",
		defaultValue: 10,
		usage:        "Rooms one caller may create per window",
	}
	createRoomWindow = configVar[time.Duration]{
		envKey:       "PARTYQUEUE_CREATE_ROOM_WINDOW",
		flagKey:      "create-room-window",
		defaultValue: time.Minute,
		usage:        "Room creation rate limit window",
	}
	redisHost = configVar[string]{
		envKey:  "PARTYQUEUE_REDIS_HOST",
		flagKey: "redis-host",
		usage:   "Redis host, empty keeps rate limiting in memory",
	}
	redisPort = configVar[int]{
		envKey:       "PARTYQUEUE_REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisPassword = configVar[string]{
		envKey:  "PARTYQUEUE_REDIS_PASSWORD",
		flagKey: "redis-password",
		usage:   "Redis password",
	}
	youtubeApiKey = configVar[string]{
		envKey:  "PARTYQUEUE_YOUTUBE_API_KEY",
		flagKey: "youtube-api-key",
		usage:   "YouTube Data API key for search",
	}
)

func loadAppConfig() (*app.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	pflag.String(configFile.flagKey, configFile.defaultValue, configFile.usage)
	pflag.String(host.flagKey, host.defaultValue, host.usage)
	pflag.Int(port.flagKey, port.defaultValue, port.usage)
	pflag.String(logLevel.flagKey, logLevel.defaultValue, logLevel.usage)
	pflag.String(frontendOrigin.flagKey, frontendOrigin.defaultValue, frontendOrigin.usage)
	pflag.Int(maxRooms.flagKey, maxRooms.defaultValue, maxRooms.usage)
	pflag.Int(maxControllers.flagKey, maxControllers.defaultValue, maxControllers.usage)
	pflag.Int(maxQueueLength.flagKey, maxQueueLength.defaultValue, maxQueueLength.usage)
	pflag.Int(maxUsernameLength.flagKey, maxUsernameLength.defaultValue, maxUsernameLength.usage)
	pflag.Int(maxTitleLength.flagKey, maxTitleLength.defaultValue, maxTitleLength.usage)
	pflag.Int(maxVideoIdLength.flagKey, maxVideoIdLength.defaultValue, maxVideoIdLength.usage)
	pflag.Int(maxChannelTitleLength.flagKey, maxChannelTitleLength.defaultValue, maxChannelTitleLength.usage)
	pflag.Int(maxQueryLength.flagKey, maxQueryLength.defaultValue, maxQueryLength.usage)
	pflag.Int64(maxMessageSize.flagKey, maxMessageSize.defaultValue, maxMessageSize.usage)
	pflag.Duration(roomRetention.flagKey, roomRetention.defaultValue, roomRetention.usage)
	pflag.Duration(sweepInterval.flagKey, sweepInterval.defaultValue, sweepInterval.usage)
	pflag.Int(tokenAttempts.flagKey, tokenAttempts.defaultValue, tokenAttempts.usage)
	pflag.Int(createRoomLimit.flagKey, createRoomLimit.defaultValue, createRoomLimit.usage)
	pflag.Duration(createRoomWindow.flagKey, createRoomWindow.defaultValue, createRoomWindow.usage)
	pflag.String(redisHost.flagKey, redisHost.defaultValue, redisHost.usage)
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, redisPort.usage)
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, redisPassword.usage)
	pflag.String(youtubeApiKey.flagKey, youtubeApiKey.defaultValue, youtubeApiKey.usage)
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	configFile.bind()
	host.bind()
	port.bind()
	logLevel.bind()
	frontendOrigin.bind()
	maxRooms.bind()
	maxControllers.bind()
	maxQueueLength.bind()
	maxUsernameLength.bind()
	maxTitleLength.bind()
	maxVideoIdLength.bind()
	maxChannelTitleLength.bind()
	maxQueryLength.bind()
	maxMessageSize.bind()
	roomRetention.bind()
	sweepInterval.bind()
	tokenAttempts.bind()
	createRoomLimit.bind()
	createRoomWindow.bind()
	redisHost.bind()
	redisPort.bind()
	redisPassword.bind()
	youtubeApiKey.bind()

	if path := viper.GetString(configFile.flagKey); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &app.Config{
		Host:                  viper.GetString(host.flagKey),
		Port:                  viper.GetInt(port.flagKey),
		LogLevel:              viper.GetString(logLevel.flagKey),
		FrontendOrigin:        viper.GetString(frontendOrigin.flagKey),
		MaxRooms:              viper.GetInt(maxRooms.flagKey),
		MaxControllers:        viper.GetInt(maxControllers.flagKey),
		MaxQueueLength:        viper.GetInt(maxQueueLength.flagKey),
		MaxUsernameLength:     viper.GetInt(maxUsernameLength.flagKey),
		MaxTitleLength:        viper.GetInt(maxTitleLength.flagKey),
		MaxVideoIdLength:      viper.GetInt(maxVideoIdLength.flagKey),
		MaxChannelTitleLength: viper.GetInt(maxChannelTitleLength.flagKey),
		MaxQueryLength:        viper.GetInt(maxQueryLength.flagKey),
		MaxMessageSize:        viper.GetInt64(maxMessageSize.flagKey),
		RoomRetention:         viper.GetDuration(roomRetention.flagKey),
		SweepInterval:         viper.GetDuration(sweepInterval.flagKey),
		TokenAttempts:         viper.GetInt(tokenAttempts.flagKey),
		CreateRoomLimit:       viper.GetInt(createRoomLimit.flagKey),
		CreateRoomWindow:      viper.GetDuration(createRoomWindow.flagKey),
		RedisHost:             viper.GetString(redisHost.flagKey),
		RedisPort:             viper.GetInt(redisPort.flagKey),
		RedisPassword:         viper.GetString(redisPassword.flagKey),
		YoutubeApiKey:         viper.GetString(youtubeApiKey.flagKey),
	}

	return config, nil
}

func main() {
	ctx := context.Background()

	appConfig, err := loadAppConfig()
	if err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
