package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/listenroom/internal/domain"
	"github.com/sharetube/listenroom/internal/service/auth"
	"github.com/sharetube/listenroom/internal/service/chat"
	"github.com/sharetube/listenroom/internal/service/room"
	"github.com/sharetube/listenroom/pkg/validator"
	"github.com/sharetube/listenroom/pkg/wsrouter"
)

type iRoomRegistry interface {
	GetOrCreate(roomId string) *room.Room
	Get(roomId string) (*room.Room, error)
	List() []room.Info
}

type iAuthService interface {
	CreateSession(context.Context, *auth.CreateSessionParams) (auth.CreateSessionResponse, error)
	Authenticate(context.Context, string) (auth.Profile, error)
	SaveProfile(context.Context, auth.Profile) error
}

type iChatService interface {
	Send(context.Context, *chat.SendParams) (chat.Message, error)
	History(context.Context, string) ([]chat.Message, error)
}

type iMediaService interface {
	Search(context.Context, string) ([]domain.Media, error)
	Complete(context.Context, domain.Media) domain.Media
}

type iNotifier interface {
	NotifyMember(ctx context.Context, memberId, event string, payload any) error
	Broadcast(ctx context.Context, recipients []string, event string, payload any)
	ResolveNextMedia(ctx context.Context, memberId, requestId string, media *domain.Media) error
	CancelMember(memberId string)
}

type iConnRepo interface {
	Add(ws *websocket.Conn, memberId string) error
	Remove(memberId string, ws *websocket.Conn) bool
}

type Config struct {
	// ActionQueueSize bounds the room actions a connection may have waiting.
	ActionQueueSize int
	// ReadTimeout closes connections that send nothing, ALIVE included, for
	// this long. Zero disables it.
	ReadTimeout time.Duration
	// MediaLookupTimeout bounds the metadata lookup done while answering a
	// next media request. It must stay well under the room's next media
	// timeout.
	MediaLookupTimeout time.Duration
}

type controller struct {
	rooms        iRoomRegistry
	authService  iAuthService
	chatService  iChatService
	mediaService iMediaService
	notifier     iNotifier
	connRepo     iConnRepo
	upgrader     websocket.Upgrader
	validate     *validator.Validator
	wsmux        *wsrouter.WSRouter
	cfg          Config
	logger       *slog.Logger
}

type Params struct {
	Rooms        iRoomRegistry
	AuthService  iAuthService
	ChatService  iChatService
	MediaService iMediaService
	Notifier     iNotifier
	ConnRepo     iConnRepo
	Config       Config
	Logger       *slog.Logger
}

func NewController(params *Params) *controller {
	cfg := params.Config
	if cfg.ActionQueueSize <= 0 {
		cfg.ActionQueueSize = 16
	}
	if cfg.MediaLookupTimeout <= 0 {
		cfg.MediaLookupTimeout = time.Second
	}

	c := &controller{
		rooms:        params.Rooms,
		authService:  params.AuthService,
		chatService:  params.ChatService,
		mediaService: params.MediaService,
		notifier:     params.Notifier,
		connRepo:     params.ConnRepo,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		cfg:      cfg,
		logger:   params.Logger,
	}
	c.wsmux = c.getWSRouter()
	c.wsmux.SetReadTimeout(cfg.ReadTimeout)

	return c
}
