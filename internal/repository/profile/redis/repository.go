package redis

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/listenroom/internal/repository/profile"
)

type repo struct {
	rc     *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRepo(rc *redis.Client, ttl time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:     rc,
		ttl:    ttl,
		logger: logger,
	}
}

func (r repo) getProfileKey(memberId string) string {
	return "member:" + memberId + ":profile"
}

// Set replaces the stored profile and refreshes its expiration.
func (r repo) Set(ctx context.Context, params *profile.SetProfileParams) error {
	r.logger.DebugContext(ctx, "called", "member_id", params.MemberId)
	key := r.getProfileKey(params.MemberId)

	pipe := r.rc.TxPipeline()
	pipe.Del(ctx, key)
	if err := r.hSetStruct(ctx, pipe, key, params.Profile); err != nil {
		return fmt.Errorf("failed to set profile: %w", err)
	}
	pipe.Expire(ctx, key, r.ttl)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to set profile: %w", err)
	}

	return nil
}

func (r repo) Get(ctx context.Context, memberId string) (profile.Profile, error) {
	fields, err := r.rc.HGetAll(ctx, r.getProfileKey(memberId)).Result()
	if err != nil {
		return profile.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	if len(fields) == 0 {
		return profile.Profile{}, profile.ErrProfileNotFound
	}

	p := profile.Profile{
		Username: fields["username"],
		Color:    fields["color"],
	}
	if avatarUrl, ok := fields["avatar_url"]; ok {
		p.AvatarUrl = &avatarUrl
	}

	return p, nil
}

// hSetStruct writes the struct fields named by their redis tags, skipping
// nil pointers.
func (r repo) hSetStruct(ctx context.Context, c redis.Pipeliner, key string, value any) error {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct, got %s", v.Kind())
	}

	fields := make(map[string]any)
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := t.Field(i).Tag.Get("redis")
		if tag == "" {
			tag = t.Field(i).Name
		}

		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				continue
			}
			field = field.Elem()
		}
		fields[tag] = field.Interface()
	}

	return c.HSet(ctx, key, fields).Err()
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
