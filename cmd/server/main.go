package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/listenroom/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	secret = configVar[string]{
		envKey:  "SERVER_SECRET",
		flagKey: "secret",
		usage:   "Secret used to sign auth tokens",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
		usage:        "Server port",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 50,
		usage:        "Maximum number of members in a room, 0 for no limit",
	}
	skipRatio = configVar[float64]{
		envKey:       "SERVER_SKIP_RATIO",
		flagKey:      "skip-ratio",
		defaultValue: 0.5,
		usage:        "Share of connected members whose skip votes end a session",
	}
	nextMediaTimeout = configVar[time.Duration]{
		envKey:       "SERVER_NEXT_MEDIA_TIMEOUT",
		flagKey:      "next-media-timeout",
		defaultValue: 5 * time.Second,
		usage:        "How long a host candidate has to answer a next media request",
	}
	leaveGrace = configVar[time.Duration]{
		envKey:       "SERVER_LEAVE_GRACE",
		flagKey:      "leave-grace",
		defaultValue: 10 * time.Second,
		usage:        "How long a disconnected member keeps its place, 0 to leave at once",
	}
	wsReadTimeout = configVar[time.Duration]{
		envKey:       "SERVER_WS_READ_TIMEOUT",
		flagKey:      "ws-read-timeout",
		defaultValue: time.Minute,
		usage:        "Close websockets silent for this long, 0 to disable",
	}
	chatHistoryLimit = configVar[int]{
		envKey:       "SERVER_CHAT_HISTORY_LIMIT",
		flagKey:      "chat-history-limit",
		defaultValue: 100,
		usage:        "Chat messages kept per room",
	}
	chatTTL = configVar[time.Duration]{
		envKey:       "SERVER_CHAT_TTL",
		flagKey:      "chat-ttl",
		defaultValue: 24 * time.Hour,
		usage:        "Chat history lifetime after the last message",
	}
	profileTTL = configVar[time.Duration]{
		envKey:       "SERVER_PROFILE_TTL",
		flagKey:      "profile-ttl",
		defaultValue: 24 * 30 * time.Hour,
		usage:        "Member profile lifetime after the last update",
	}
	searchLimit = configVar[int]{
		envKey:       "SERVER_SEARCH_LIMIT",
		flagKey:      "search-limit",
		defaultValue: 15,
		usage:        "Maximum media search results",
	}
	youtubeApiKey = configVar[string]{
		envKey:  "YOUTUBE_API_KEY",
		flagKey: "youtube-api-key",
		usage:   "YouTube Data API key used by media search",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
		usage:        "Redis host",
	}
	redisPassword = configVar[string]{
		envKey:  "REDIS_PASSWORD",
		flagKey: "redis-password",
		usage:   "Redis password",
	}
)

type binder interface {
	bind()
}

func (v configVar[T]) bind() {
	switch d := any(v.defaultValue).(type) {
	case string:
		pflag.String(v.flagKey, d, v.usage)
	case int:
		pflag.Int(v.flagKey, d, v.usage)
	case float64:
		pflag.Float64(v.flagKey, d, v.usage)
	case time.Duration:
		pflag.Duration(v.flagKey, d, v.usage)
	default:
		panic(fmt.Sprintf("unsupported config type %T", d))
	}

	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	for _, v := range []binder{
		secret, port, host, logLevel, membersLimit, skipRatio, nextMediaTimeout,
		leaveGrace, wsReadTimeout, chatHistoryLimit, chatTTL, profileTTL, searchLimit,
		youtubeApiKey, redisPort, redisHost, redisPassword,
	} {
		v.bind()
	}
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	return &app.AppConfig{
		Secret:           viper.GetString(secret.flagKey),
		Host:             viper.GetString(host.flagKey),
		Port:             viper.GetInt(port.flagKey),
		LogLevel:         viper.GetString(logLevel.flagKey),
		MembersLimit:     viper.GetInt(membersLimit.flagKey),
		SkipRatio:        viper.GetFloat64(skipRatio.flagKey),
		NextMediaTimeout: viper.GetDuration(nextMediaTimeout.flagKey),
		LeaveGrace:       viper.GetDuration(leaveGrace.flagKey),
		WSReadTimeout:    viper.GetDuration(wsReadTimeout.flagKey),
		ChatHistoryLimit: viper.GetInt(chatHistoryLimit.flagKey),
		ChatTTL:          viper.GetDuration(chatTTL.flagKey),
		ProfileTTL:       viper.GetDuration(profileTTL.flagKey),
		SearchLimit:      viper.GetInt(searchLimit.flagKey),
		YoutubeApiKey:    viper.GetString(youtubeApiKey.flagKey),
		RedisPort:        viper.GetInt(redisPort.flagKey),
		RedisHost:        viper.GetString(redisHost.flagKey),
		RedisPassword:    viper.GetString(redisPassword.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
