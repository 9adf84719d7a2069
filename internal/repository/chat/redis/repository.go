package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/listenroom/internal/repository/chat"
)

type repo struct {
	rc           *redis.Client
	historyLimit int64
	ttl          time.Duration
	logger       *slog.Logger
}

// NewRepo keeps the last historyLimit messages of a room for ttl after the
// latest one.
func NewRepo(rc *redis.Client, historyLimit int, ttl time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:           rc,
		historyLimit: int64(historyLimit),
		ttl:          ttl,
		logger:       logger,
	}
}

func (r repo) getChatKey(roomId string) string {
	return "room:" + roomId + ":chat"
}

func (r repo) AddMessage(ctx context.Context, params *chat.AddMessageParams) error {
	r.logger.DebugContext(ctx, "called", "room_id", params.RoomId, "message_id", params.Message.Id)

	data, err := json.Marshal(params.Message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := r.getChatKey(params.RoomId)
	pipe := r.rc.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -r.historyLimit, -1)
	pipe.Expire(ctx, key, r.ttl)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to add message: %w", err)
	}

	return nil
}

func (r repo) GetMessages(ctx context.Context, roomId string) ([]chat.Message, error) {
	raw, err := r.rc.LRange(ctx, r.getChatKey(roomId), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	messages := make([]chat.Message, 0, len(raw))
	for _, item := range raw {
		var message chat.Message
		if err := json.Unmarshal([]byte(item), &message); err != nil {
			r.logger.WarnContext(ctx, "skipping corrupted chat message", "room_id", roomId, "error", err)
			continue
		}
		messages = append(messages, message)
	}

	return messages, nil
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}
