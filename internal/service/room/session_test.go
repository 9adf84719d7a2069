package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleSkipTwiceCancelsVote(t *testing.T) {
	r, n := newTestRoom(t, Config{SkipThreshold: Unanimous()})
	join(t, r, "a", "b")
	n.give("a", testMedia("a1", time.Minute))
	ctx := context.Background()

	require.NoError(t, r.ToggleHostQueue(ctx, "a"))

	require.NoError(t, r.ToggleSkip(ctx, "b"))
	assert.Equal(t, 1, r.State().Session.Skips)
	assert.Equal(t, []string{"b"}, r.State().Session.SkipVoters)

	require.NoError(t, r.ToggleSkip(ctx, "b"))
	assert.Equal(t, 0, r.State().Session.Skips)
	assert.Empty(t, r.State().Session.SkipVoters)
}

func TestSkipThresholdAdvancesOnce(t *testing.T) {
	r, n := newTestRoom(t, Config{SkipThreshold: Ratio(0.5)})
	join(t, r, "a", "b", "c")
	n.give("a", testMedia("a1", time.Minute), testMedia("a2", time.Minute), testMedia("a3", time.Minute))
	ctx := context.Background()

	require.NoError(t, r.ToggleHostQueue(ctx, "a"))
	assert.Equal(t, 2, r.State().SkipThreshold)

	require.NoError(t, r.ToggleSkip(ctx, "b"))
	assert.Equal(t, "a1", r.State().Session.Media.Id)
	assert.Equal(t, uint64(1), r.sessionGen)

	require.NoError(t, r.ToggleSkip(ctx, "c"))
	assert.Equal(t, "a2", r.State().Session.Media.Id)
	assert.Equal(t, uint64(2), r.sessionGen)

	// the vote lands on the new session instead of advancing again
	require.NoError(t, r.ToggleSkip(ctx, "b"))
	assert.Equal(t, uint64(2), r.sessionGen)
	assert.Equal(t, 1, r.State().Session.Skips)
}

func TestVotesRequireSession(t *testing.T) {
	r, _ := newTestRoom(t, Config{})
	join(t, r, "a")
	ctx := context.Background()

	assert.ErrorIs(t, r.ToggleSkip(ctx, "a"), ErrNoActiveSession)
	assert.ErrorIs(t, r.ToggleLike(ctx, "a"), ErrNoActiveSession)
	assert.ErrorIs(t, r.ToggleLike(ctx, "ghost"), ErrMemberNotFound)
}

func TestToggleLike(t *testing.T) {
	r, n := newTestRoom(t, Config{})
	join(t, r, "a", "b")
	n.give("a", testMedia("a1", time.Minute))
	ctx := context.Background()

	require.NoError(t, r.ToggleHostQueue(ctx, "a"))
	require.NoError(t, r.ToggleLike(ctx, "b"))
	require.NoError(t, r.ToggleLike(ctx, "a"))

	state := r.State()
	assert.Equal(t, 2, state.Session.Likes)
	assert.Equal(t, []string{"a", "b"}, state.Session.LikeVoters)
	assert.Equal(t, uint64(1), r.sessionGen, "likes never advance")
}

func TestHostDisconnectWhileQueued(t *testing.T) {
	r, n := newTestRoom(t, Config{})
	join(t, r, "h", "b")
	n.give("h", testMedia("h1", time.Minute))
	n.give("b", testMedia("b1", time.Minute))
	ctx := context.Background()

	require.NoError(t, r.ToggleHostQueue(ctx, "h"))
	r.mu.Lock()
	r.queue.Enqueue("h")
	r.queue.Enqueue("b")
	r.mu.Unlock()

	require.NoError(t, r.Disconnect(ctx, "h"))

	state := r.State()
	require.NotNil(t, state.Session)
	assert.Equal(t, "b", state.Session.Host.Id)
	assert.Empty(t, state.HostQueue)
	assert.Equal(t, uint64(2), r.sessionGen, "exactly one advance")
	assert.Equal(t, []string{"h", "b"}, n.requestLog())
	assert.Len(t, n.eventsTo("b", EventMemberLeft), 1)
}

func TestDepartureRemovesVotes(t *testing.T) {
	r, n := newTestRoom(t, Config{SkipThreshold: Unanimous()})
	join(t, r, "a", "b", "c")
	n.give("a", testMedia("a1", time.Minute))
	ctx := context.Background()

	require.NoError(t, r.ToggleHostQueue(ctx, "a"))
	require.NoError(t, r.ToggleLike(ctx, "c"))
	require.NoError(t, r.ToggleSkip(ctx, "c"))
	require.NoError(t, r.ToggleSkip(ctx, "b"))
	require.NoError(t, r.Disconnect(ctx, "c"))

	state := r.State()
	require.NotNil(t, state.Session)
	assert.Equal(t, 0, state.Session.Likes)
	assert.Equal(t, []string{"b"}, state.Session.SkipVoters)
	assert.Equal(t, 2, state.SkipThreshold)
}

func TestDepartureCanReachSkipThreshold(t *testing.T) {
	r, n := newTestRoom(t, Config{SkipThreshold: Unanimous()})
	join(t, r, "a", "b", "c")
	n.give("a", testMedia("a1", time.Minute))
	ctx := context.Background()

	require.NoError(t, r.ToggleHostQueue(ctx, "a"))
	require.NoError(t, r.ToggleSkip(ctx, "a"))
	require.NoError(t, r.ToggleSkip(ctx, "b"))
	require.NotNil(t, r.State().Session)

	require.NoError(t, r.Disconnect(ctx, "c"))
	assert.Nil(t, r.State().Session)
}

func TestLeaveGraceKeepsQueuePlace(t *testing.T) {
	r, n := newTestRoom(t, Config{LeaveGrace: time.Hour})
	join(t, r, "a", "b")
	n.give("a", testMedia("a1", time.Minute))
	ctx := context.Background()

	require.NoError(t, r.ToggleHostQueue(ctx, "a"))
	require.NoError(t, r.ToggleHostQueue(ctx, "b"))
	require.NoError(t, r.Disconnect(ctx, "b"))

	assert.Equal(t, []string{"b"}, queueIds(r.State()))
	assert.Equal(t, 1, r.State().ConnectedCount)

	join(t, r, "b")
	assert.Equal(t, []string{"b"}, queueIds(r.State()))

	r.mu.RLock()
	assert.Empty(t, r.leaving)
	r.mu.RUnlock()
}

func TestLeaveGraceExpires(t *testing.T) {
	r, n := newTestRoom(t, Config{LeaveGrace: 30 * time.Millisecond})
	join(t, r, "a", "b")
	n.give("a", testMedia("a1", time.Minute))
	ctx := context.Background()

	require.NoError(t, r.ToggleHostQueue(ctx, "a"))
	require.NoError(t, r.ToggleHostQueue(ctx, "b"))
	require.NoError(t, r.Disconnect(ctx, "b"))

	assert.Eventually(t, func() bool {
		return len(r.State().HostQueue) == 0
	}, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return len(n.eventsTo("a", EventMemberLeft)) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestDisconnectUnknownMember(t *testing.T) {
	r, _ := newTestRoom(t, Config{})

	assert.ErrorIs(t, r.Disconnect(context.Background(), "ghost"), ErrMemberNotFound)
}

func TestSessionExpiresOnTimer(t *testing.T) {
	r, n := newTestRoom(t, Config{})
	join(t, r, "a")
	n.give("a", testMedia("a1", time.Second), testMedia("a2", time.Minute))

	require.NoError(t, r.ToggleHostQueue(context.Background(), "a"))
	first := r.State().Session
	require.NotNil(t, first)
	assert.Equal(t, first.StartedAt.Add(time.Second), first.EndsAt)

	assert.Eventually(t, func() bool {
		s := r.State().Session
		return s != nil && s.Media.Id == "a2"
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, uint64(2), r.sessionGen)
}

func TestStaleTimerIsNoop(t *testing.T) {
	r, n := newTestRoom(t, Config{})
	join(t, r, "a")
	n.give("a", testMedia("a1", time.Minute), testMedia("a2", time.Minute), testMedia("a3", time.Minute))
	ctx := context.Background()

	require.NoError(t, r.ToggleHostQueue(ctx, "a"))
	r.mu.RLock()
	old := r.session
	r.mu.RUnlock()

	r.Advance(ctx, false)
	require.Equal(t, "a2", r.State().Session.Media.Id)

	// the replaced session's timer is already stopped, stopping again is harmless
	old.stop()
	old.stop()

	r.expire(old.gen)
	assert.Equal(t, "a2", r.State().Session.Media.Id)
	assert.Equal(t, uint64(2), r.sessionGen)
}

func TestJoinNotifications(t *testing.T) {
	r, n := newTestRoom(t, Config{MembersLimit: 2})
	join(t, r, "a", "b")

	assert.Len(t, n.eventsTo("a", EventOwnMember), 1)
	assert.Len(t, n.eventsTo("a", EventMemberJoined), 1, "a is told about b")
	assert.Empty(t, n.eventsTo("b", EventMemberJoined))
	assert.Equal(t, 2, n.lastState().ConnectedCount)

	_, err := r.Join(context.Background(), &JoinParams{MemberId: "c"})
	assert.Error(t, err)
}

func TestUpdateProfile(t *testing.T) {
	r, _ := newTestRoom(t, Config{})
	join(t, r, "a")
	name := "Sleepy Panda"

	member, err := r.UpdateProfile(context.Background(), &UpdateProfileParams{MemberId: "a", Username: &name})
	require.NoError(t, err)
	assert.Equal(t, name, member.Username)

	_, err = r.UpdateProfile(context.Background(), &UpdateProfileParams{MemberId: "ghost"})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestHostDisconnectWithinGraceAdvances(t *testing.T) {
	r, n := newTestRoom(t, Config{LeaveGrace: 10 * time.Second})
	join(t, r, "h", "b")
	n.give("h", testMedia("h1", time.Minute))
	n.give("b", testMedia("b1", time.Minute))
	ctx := context.Background()

	require.NoError(t, r.ToggleHostQueue(ctx, "h"))
	require.NoError(t, r.ToggleHostQueue(ctx, "b"))
	require.NoError(t, r.Disconnect(ctx, "h"))

	state := r.State()
	require.NotNil(t, state.Session)
	assert.Equal(t, "b", state.Session.Host.Id)
	assert.Equal(t, []string{"h"}, queueIds(state), "the host in grace keeps a turn")
	assert.Equal(t, []string{"h", "b"}, n.requestLog())

	join(t, r, "h")
	assert.Equal(t, []string{"h"}, queueIds(r.State()))
}

func TestLoneHostDisconnectWithinGraceGoesIdle(t *testing.T) {
	r, n := newTestRoom(t, Config{LeaveGrace: 10 * time.Second})
	join(t, r, "h")
	n.give("h", testMedia("h1", time.Minute), testMedia("h2", time.Minute))
	ctx := context.Background()

	require.NoError(t, r.ToggleHostQueue(ctx, "h"))
	require.NoError(t, r.Disconnect(ctx, "h"))

	assert.Nil(t, r.State().Session)
	assert.Equal(t, []string{"h"}, n.requestLog(), "a disconnected host is not asked again")
}

func TestGraceDisconnectCanReachSkipThreshold(t *testing.T) {
	r, n := newTestRoom(t, Config{SkipThreshold: Unanimous(), LeaveGrace: time.Hour})
	join(t, r, "a", "b", "c")
	n.give("a", testMedia("a1", time.Minute))
	ctx := context.Background()

	require.NoError(t, r.ToggleHostQueue(ctx, "a"))
	require.NoError(t, r.ToggleSkip(ctx, "a"))
	require.NoError(t, r.ToggleSkip(ctx, "b"))
	require.NotNil(t, r.State().Session)

	require.NoError(t, r.Disconnect(ctx, "c"))
	assert.Nil(t, r.State().Session)
	assert.Equal(t, uint64(1), r.sessionGen)
}
