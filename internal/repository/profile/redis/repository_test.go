package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/listenroom/internal/repository/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil))), s
}

func TestSetAndGetProfile(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()
	avatar := "https://example.com/a.png"

	require.NoError(t, r.Set(ctx, &profile.SetProfileParams{
		MemberId: "m1",
		Profile:  profile.Profile{Username: "Brave Lion", Color: "#ff8800", AvatarUrl: &avatar},
	}))

	got, err := r.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Brave Lion", got.Username)
	assert.Equal(t, "#ff8800", got.Color)
	require.NotNil(t, got.AvatarUrl)
	assert.Equal(t, avatar, *got.AvatarUrl)
	assert.Equal(t, time.Hour, s.TTL("member:m1:profile"))

	// replacing drops the avatar
	require.NoError(t, r.Set(ctx, &profile.SetProfileParams{
		MemberId: "m1",
		Profile:  profile.Profile{Username: "Quiet Otter", Color: "#00ff00"},
	}))
	got, err = r.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Quiet Otter", got.Username)
	assert.Nil(t, got.AvatarUrl)
}

func TestGetMissingProfile(t *testing.T) {
	r, _ := newTestRepo(t)

	_, err := r.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}
