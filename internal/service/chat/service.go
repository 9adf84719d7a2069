package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/sharetube/listenroom/internal/repository/chat"
)

const (
	MaxMessageLength = 500
)

var (
	ErrInvalidMessage = errors.New("invalid chat message")
)

type iChatRepo interface {
	AddMessage(context.Context, *chat.AddMessageParams) error
	GetMessages(context.Context, string) ([]chat.Message, error)
}

type Message = chat.Message

type service struct {
	repo   iChatRepo
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo iChatRepo, logger *slog.Logger) *service {
	return &service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

type SendParams struct {
	RoomId   string
	AuthorId string
	Username string
	Content  string
}

func (p SendParams) validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.RoomId, validation.Required),
		validation.Field(&p.AuthorId, validation.Required),
		validation.Field(&p.Content, validation.Required, validation.RuneLength(1, MaxMessageLength)),
	)
}

// Send stores a message with the author's current username.
func (s service) Send(ctx context.Context, params *SendParams) (Message, error) {
	params.Content = strings.TrimSpace(params.Content)
	if err := params.validate(); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	message := Message{
		Id:             uuid.NewString(),
		Content:        params.Content,
		AuthorId:       params.AuthorId,
		UsernameAtDate: params.Username,
		Date:           s.now().UTC(),
	}

	if err := s.repo.AddMessage(ctx, &chat.AddMessageParams{
		RoomId:  params.RoomId,
		Message: message,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to add message", "error", err)
		return Message{}, fmt.Errorf("failed to send message: %w", err)
	}

	return message, nil
}

func (s service) History(ctx context.Context, roomId string) ([]Message, error) {
	messages, err := s.repo.GetMessages(ctx, roomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get messages", "error", err)
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}

	return messages, nil
}
