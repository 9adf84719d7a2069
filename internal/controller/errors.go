package controller

import (
	"context"
	"errors"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/sharetube/listenroom/internal/domain"
	"github.com/sharetube/listenroom/internal/notifier"
	"github.com/sharetube/listenroom/internal/service/chat"
	"github.com/sharetube/listenroom/internal/service/media"
	"github.com/sharetube/listenroom/internal/service/room"
	"github.com/sharetube/listenroom/pkg/validator"
	"github.com/sharetube/listenroom/pkg/wsrouter"
)

type validationErrors []validator.ValidationError

func (e validationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ve := range e {
		msgs = append(msgs, ve.Message)
	}

	return strings.Join(msgs, "; ")
}

func (c controller) validateInput(input any) error {
	if errs, ok := c.validate.Validate(input); !ok {
		return validationErrors(errs)
	}

	return nil
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorCode(err error) string {
	var ve validationErrors
	switch {
	case errors.As(err, &ve):
		return "VALIDATION_FAILED"
	case errors.Is(err, wsrouter.ErrUnknownMessageType):
		return "UNKNOWN_MESSAGE_TYPE"
	case errors.Is(err, wsrouter.ErrInvalidPayload):
		return "INVALID_PAYLOAD"
	case errors.Is(err, room.ErrNoActiveSession):
		return "NO_ACTIVE_SESSION"
	case errors.Is(err, domain.ErrMemberNotFound):
		return "MEMBER_NOT_FOUND"
	case errors.Is(err, room.ErrRoomNotFound):
		return "ROOM_NOT_FOUND"
	case errors.Is(err, chat.ErrInvalidMessage):
		return "INVALID_MESSAGE"
	case errors.Is(err, media.ErrInvalidQuery):
		return "INVALID_QUERY"
	case errors.Is(err, notifier.ErrUnknownRequest):
		return "UNKNOWN_REQUEST"
	case errors.Is(err, ErrTooManyActions):
		return "TOO_MANY_ACTIONS"
	default:
		return "INTERNAL"
	}
}

// reportError sends err to the member that caused it. The connection stays
// open.
func (c controller) reportError(ctx context.Context, _ *websocket.Conn, err error) {
	memberId := c.getMemberIdFromCtx(ctx)
	code := errorCode(err)
	c.logger.InfoContext(ctx, "websocket handler failed", "code", code, "error", err)

	message := err.Error()
	if code == "INTERNAL" {
		message = "internal error"
	}

	if err := c.notifier.NotifyMember(ctx, memberId, EventError, ErrorPayload{
		Code:    code,
		Message: message,
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to report error", "error", err)
	}
}
