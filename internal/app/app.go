package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/listenroom/internal/controller"
	"github.com/sharetube/listenroom/internal/notifier"
	chatRedis "github.com/sharetube/listenroom/internal/repository/chat/redis"
	"github.com/sharetube/listenroom/internal/repository/connection/inmemory"
	profileRedis "github.com/sharetube/listenroom/internal/repository/profile/redis"
	"github.com/sharetube/listenroom/internal/service/auth"
	"github.com/sharetube/listenroom/internal/service/chat"
	"github.com/sharetube/listenroom/internal/service/media"
	"github.com/sharetube/listenroom/internal/service/room"
	"github.com/sharetube/listenroom/pkg/ctxlogger"
	"github.com/sharetube/listenroom/pkg/redisclient"
	"github.com/sharetube/listenroom/pkg/ytvideodata"
)

type AppConfig struct {
	Secret           string        `json:"-"`
	Host             string        `json:"host"`
	Port             int           `json:"port"`
	LogLevel         string        `json:"log_level"`
	MembersLimit     int           `json:"members_limit"`
	SkipRatio        float64       `json:"skip_ratio"`
	NextMediaTimeout time.Duration `json:"next_media_timeout"`
	LeaveGrace       time.Duration `json:"leave_grace"`
	WSReadTimeout    time.Duration `json:"ws_read_timeout"`
	ChatHistoryLimit int           `json:"chat_history_limit"`
	ChatTTL          time.Duration `json:"chat_ttl"`
	ProfileTTL       time.Duration `json:"profile_ttl"`
	SearchLimit      int           `json:"search_limit"`
	YoutubeApiKey    string        `json:"-"`
	RedisPort        int           `json:"redis_port"`
	RedisHost        string        `json:"redis_host"`
	RedisPassword    string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return errors.New("secret must be set")
	}
	if cfg.MembersLimit < 0 {
		return errors.New("members limit must not be negative")
	}
	if cfg.SkipRatio <= 0 || cfg.SkipRatio > 1 {
		return errors.New("skip ratio must be in (0, 1]")
	}
	if cfg.NextMediaTimeout <= 0 {
		return errors.New("next media timeout must be positive")
	}
	if cfg.LeaveGrace < 0 {
		return errors.New("leave grace must not be negative")
	}
	if cfg.ChatHistoryLimit < 1 {
		return errors.New("chat history limit must be greater than 0")
	}
	if cfg.SearchLimit < 1 || cfg.SearchLimit > 50 {
		return errors.New("search limit must be between 1 and 50")
	}
	return nil
}

func (cfg *AppConfig) roomConfig() room.Config {
	return room.Config{
		MembersLimit:     cfg.MembersLimit,
		NextMediaTimeout: cfg.NextMediaTimeout,
		LeaveGrace:       cfg.LeaveGrace,
		SkipThreshold:    room.Ratio(cfg.SkipRatio),
	}
}

func newLogger(level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

type server struct {
	handler http.Handler
	rooms   *room.Registry
}

// newServer wires every component on top of an existing redis client.
func newServer(cfg *AppConfig, rc *redis.Client, videoData *ytvideodata.Client, logger *slog.Logger) *server {
	chatRepo := chatRedis.NewRepo(rc, cfg.ChatHistoryLimit, cfg.ChatTTL, logger)
	profileRepo := profileRedis.NewRepo(rc, cfg.ProfileTTL, logger)
	connectionRepo := inmemory.NewRepo(10*time.Second, logger)

	n := notifier.New(connectionRepo, logger)
	rooms := room.NewRegistry(n, cfg.roomConfig(), logger)

	c := controller.NewController(&controller.Params{
		Rooms:        rooms,
		AuthService:  auth.NewService(profileRepo, cfg.Secret, logger),
		ChatService:  chat.NewService(chatRepo, logger),
		MediaService: media.NewService(videoData, cfg.SearchLimit, logger),
		Notifier:     n,
		ConnRepo:     connectionRepo,
		Config: controller.Config{
			ReadTimeout:        cfg.WSReadTimeout,
			MediaLookupTimeout: cfg.NextMediaTimeout / 4,
		},
		Logger: logger,
	})

	return &server{
		handler: c.GetMux(),
		rooms:   rooms,
	}
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	srv := newServer(cfg, rc, ytvideodata.New(cfg.YoutubeApiKey), logger)
	defer srv.rooms.Close()

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: srv.handler,
		BaseContext: func(net.Listener) context.Context {
			return serverCtx
		},
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		select {
		case <-sig:
		case <-serverCtx.Done():
		}

		shutdownCtx, c := context.WithTimeout(context.WithoutCancel(serverCtx), 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		// websockets are hijacked, Shutdown does not wait for them
		serverStopCtx()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
