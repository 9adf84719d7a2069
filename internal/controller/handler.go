package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sharetube/listenroom/internal/service/auth"
	"github.com/sharetube/listenroom/internal/service/media"
	"github.com/sharetube/listenroom/internal/service/room"
	"github.com/sharetube/listenroom/pkg/ctxlogger"
)

const closeRoomFull = 4003

type createSessionInput struct {
	Username  string  `json:"username" validate:"omitempty,max=32"`
	Color     string  `json:"color" validate:"omitempty,hexcolor"`
	AvatarUrl *string `json:"avatar_url" validate:"omitempty,http_url"`
}

type createSessionResponse struct {
	AuthToken string  `json:"auth_token"`
	MemberId  string  `json:"member_id"`
	Username  string  `json:"username"`
	Color     string  `json:"color"`
	AvatarUrl *string `json:"avatar_url"`
}

func (c controller) createSession(w http.ResponseWriter, r *http.Request) {
	var input createSessionInput
	if err := c.readJSON(r, &input); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		c.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	if err := c.validateInput(input); err != nil {
		c.logger.DebugContext(r.Context(), "invalid session input", "error", err)
		c.writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := c.authService.CreateSession(r.Context(), &auth.CreateSessionParams{
		Username:  input.Username,
		Color:     input.Color,
		AvatarUrl: input.AvatarUrl,
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to create session", "error", err)
		c.writeError(w, http.StatusInternalServerError, errors.New("failed to create session"))
		return
	}

	c.writeJSON(w, http.StatusOK, Envelope{"data": createSessionResponse{
		AuthToken: resp.AuthToken,
		MemberId:  resp.Profile.MemberId,
		Username:  resp.Profile.Username,
		Color:     resp.Profile.Color,
		AvatarUrl: resp.Profile.AvatarUrl,
	}})
}

func (c controller) listRooms(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, Envelope{"data": c.rooms.List()})
}

func (c controller) roomFromRequest(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	rm, err := c.rooms.Get(chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeError(w, http.StatusNotFound, room.ErrRoomNotFound)
		return nil, false
	}

	return rm, true
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := c.roomFromRequest(w, r)
	if !ok {
		return
	}

	c.writeJSON(w, http.StatusOK, Envelope{"data": rm.State()})
}

func (c controller) getMembers(w http.ResponseWriter, r *http.Request) {
	rm, ok := c.roomFromRequest(w, r)
	if !ok {
		return
	}

	c.writeJSON(w, http.StatusOK, Envelope{"data": rm.State().Members})
}

func (c controller) getChat(w http.ResponseWriter, r *http.Request) {
	messages, err := c.chatService.History(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to get chat history", "error", err)
		c.writeError(w, http.StatusInternalServerError, errors.New("failed to get chat history"))
		return
	}

	c.writeJSON(w, http.StatusOK, Envelope{"data": messages})
}

func (c controller) searchMedia(w http.ResponseWriter, r *http.Request) {
	results, err := c.mediaService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		if errors.Is(err, media.ErrInvalidQuery) {
			c.writeError(w, http.StatusBadRequest, err)
			return
		}
		c.logger.WarnContext(r.Context(), "failed to search media", "error", err)
		c.writeError(w, http.StatusBadGateway, errors.New("media search is unavailable"))
		return
	}

	c.writeJSON(w, http.StatusOK, Envelope{"data": results})
}

type connectInput struct {
	RoomId string `json:"room_id" validate:"required,max=64,printascii"`
}

// connect upgrades to a websocket and keeps the member in the room for as
// long as the connection lives.
func (c controller) connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	input := connectInput{RoomId: chi.URLParam(r, "room-id")}
	if err := c.validateInput(input); err != nil {
		c.writeError(w, http.StatusBadRequest, err)
		return
	}

	authToken, err := c.getAuthToken(r)
	if err != nil {
		c.writeError(w, http.StatusUnauthorized, err)
		return
	}

	profile, err := c.authService.Authenticate(ctx, authToken)
	if err != nil {
		c.logger.DebugContext(ctx, "failed to authenticate", "error", err)
		if errors.Is(err, auth.ErrInvalidToken) {
			c.writeError(w, http.StatusUnauthorized, auth.ErrInvalidToken)
			return
		}
		c.writeError(w, http.StatusInternalServerError, errors.New("failed to authenticate"))
		return
	}

	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", input.RoomId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("member_id", profile.MemberId))

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	if err := c.connRepo.Add(conn, profile.MemberId); err != nil {
		c.logger.WarnContext(ctx, "failed to add connection", "error", err)
		return
	}

	rm := c.rooms.GetOrCreate(input.RoomId)
	if _, err := rm.Join(ctx, &room.JoinParams{
		MemberId:  profile.MemberId,
		Username:  profile.Username,
		Color:     profile.Color,
		AvatarUrl: profile.AvatarUrl,
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to join room", "error", err)
		c.connRepo.Remove(profile.MemberId, conn)
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(closeRoomFull, "room is full"),
			time.Now().Add(time.Second),
		)
		return
	}

	if history, err := c.chatService.History(ctx, input.RoomId); err != nil {
		c.logger.InfoContext(ctx, "failed to load chat history", "error", err)
	} else if err := c.notifier.NotifyMember(ctx, profile.MemberId, EventChatHistory, history); err != nil {
		c.logger.InfoContext(ctx, "failed to send chat history", "error", err)
	}

	connCtx, cancel := context.WithCancel(ctx)
	actions := c.startActionQueue(connCtx)
	connCtx = context.WithValue(connCtx, roomIdCtxKey, input.RoomId)
	connCtx = context.WithValue(connCtx, memberIdCtxKey, profile.MemberId)
	connCtx = context.WithValue(connCtx, actionsCtxKey, actions)

	if err := c.wsmux.ServeConn(connCtx, conn); err != nil {
		c.logger.InfoContext(ctx, "connection closed", "error", err)
	}
	cancel()

	// a newer connection of the same member keeps the member in the room
	if !c.connRepo.Remove(profile.MemberId, conn) {
		return
	}
	c.notifier.CancelMember(profile.MemberId)
	if err := rm.Disconnect(context.WithoutCancel(ctx), profile.MemberId); err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect member", "error", err)
	}
}
