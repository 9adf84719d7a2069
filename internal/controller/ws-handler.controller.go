package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sharetube/listenroom/internal/domain"
	"github.com/sharetube/listenroom/internal/service/auth"
	"github.com/sharetube/listenroom/internal/service/chat"
	"github.com/sharetube/listenroom/internal/service/room"
)

const (
	EventChatMessage   = "CHAT_MESSAGE"
	EventChatHistory   = "CHAT_HISTORY"
	EventSearchResults = "SEARCH_RESULTS"
	EventError         = "ERROR"
)

type EmptyInput struct{}

func (c controller) roomFromCtx(ctx context.Context) (*room.Room, error) {
	return c.rooms.Get(c.getRoomIdFromCtx(ctx))
}

func (c controller) handleAlive(_ context.Context, _ *websocket.Conn, _ EmptyInput) error {
	return nil
}

func (c controller) handleToggleHostQueue(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	r, err := c.roomFromCtx(ctx)
	if err != nil {
		return err
	}
	memberId := c.getMemberIdFromCtx(ctx)

	return c.async(ctx, func(ctx context.Context) error {
		if err := r.ToggleHostQueue(ctx, memberId); err != nil {
			return fmt.Errorf("failed to toggle host queue: %w", err)
		}

		return nil
	})
}

type NextMediaInput struct {
	RequestId string        `json:"request_id" validate:"required"`
	Media     *domain.Media `json:"media"`
}

// handleNextMedia runs inline: the room may be waiting on this answer while
// holding its advance lock, so it must never touch the room itself.
func (c controller) handleNextMedia(ctx context.Context, _ *websocket.Conn, input NextMediaInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	media := input.Media
	if media != nil {
		completed := c.completeMedia(ctx, *media)
		media = &completed
	}

	if err := c.notifier.ResolveNextMedia(ctx, c.getMemberIdFromCtx(ctx), input.RequestId, media); err != nil {
		return err
	}

	return nil
}

// completeMedia gives the provider MediaLookupTimeout to fill in display
// fields. A slow or failing lookup yields the item as the client sent it.
func (c controller) completeMedia(ctx context.Context, m domain.Media) domain.Media {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.MediaLookupTimeout)
	defer cancel()

	done := make(chan domain.Media, 1)
	go func() {
		done <- c.mediaService.Complete(ctx, m)
	}()

	select {
	case completed := <-done:
		return completed
	case <-ctx.Done():
		c.logger.InfoContext(ctx, "media lookup timed out", "media_id", m.Id)
		return m
	}
}

func (c controller) handleToggleSkip(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	r, err := c.roomFromCtx(ctx)
	if err != nil {
		return err
	}
	memberId := c.getMemberIdFromCtx(ctx)

	return c.async(ctx, func(ctx context.Context) error {
		return r.ToggleSkip(ctx, memberId)
	})
}

func (c controller) handleToggleLike(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	r, err := c.roomFromCtx(ctx)
	if err != nil {
		return err
	}
	memberId := c.getMemberIdFromCtx(ctx)

	return c.async(ctx, func(ctx context.Context) error {
		return r.ToggleLike(ctx, memberId)
	})
}

type SendChatMessageInput struct {
	Content string `json:"content"`
}

func (c controller) handleSendChatMessage(ctx context.Context, _ *websocket.Conn, input SendChatMessageInput) error {
	r, err := c.roomFromCtx(ctx)
	if err != nil {
		return err
	}
	memberId := c.getMemberIdFromCtx(ctx)

	return c.async(ctx, func(ctx context.Context) error {
		state := r.State()

		var username string
		for _, m := range state.Members {
			if m.Id == memberId {
				username = m.Username
				break
			}
		}

		msg, err := c.chatService.Send(ctx, &chat.SendParams{
			RoomId:   state.Id,
			AuthorId: memberId,
			Username: username,
			Content:  input.Content,
		})
		if err != nil {
			return fmt.Errorf("failed to send chat message: %w", err)
		}

		c.notifier.Broadcast(ctx, state.ConnectedIds(), EventChatMessage, msg)
		return nil
	})
}

type SearchMediaInput struct {
	Query string `json:"query"`
}

type SearchResultsPayload struct {
	Query   string         `json:"query"`
	Results []domain.Media `json:"results"`
}

func (c controller) handleSearchMedia(ctx context.Context, _ *websocket.Conn, input SearchMediaInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	return c.async(ctx, func(ctx context.Context) error {
		results, err := c.mediaService.Search(ctx, input.Query)
		if err != nil {
			return fmt.Errorf("failed to search media: %w", err)
		}

		return c.notifier.NotifyMember(ctx, memberId, EventSearchResults, SearchResultsPayload{
			Query:   input.Query,
			Results: results,
		})
	})
}

type UpdateProfileInput struct {
	Username  *string `json:"username" validate:"omitempty,min=1,max=32"`
	Color     *string `json:"color" validate:"omitempty,hexcolor"`
	AvatarUrl *string `json:"avatar_url" validate:"omitempty,http_url"`
}

func (c controller) handleUpdateProfile(ctx context.Context, _ *websocket.Conn, input UpdateProfileInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	r, err := c.roomFromCtx(ctx)
	if err != nil {
		return err
	}

	member, err := r.UpdateProfile(ctx, &room.UpdateProfileParams{
		MemberId:  c.getMemberIdFromCtx(ctx),
		Username:  input.Username,
		Color:     input.Color,
		AvatarUrl: input.AvatarUrl,
	})
	if err != nil {
		return err
	}

	if err := c.authService.SaveProfile(ctx, auth.Profile{
		MemberId:  member.Id,
		Username:  member.Username,
		Color:     member.Color,
		AvatarUrl: member.AvatarUrl,
	}); err != nil {
		// the room already shows the new profile, it is only lost on reconnect
		c.logger.WarnContext(ctx, "failed to persist profile", "error", err)
	}

	return nil
}
