package notifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sharetube/listenroom/internal/domain"
	"github.com/sharetube/listenroom/internal/service/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConns struct {
	mu      sync.Mutex
	written map[string][]*Output
	fail    map[string]bool
	sent    chan *Output
}

func newFakeConns() *fakeConns {
	return &fakeConns{
		written: make(map[string][]*Output),
		fail:    make(map[string]bool),
		sent:    make(chan *Output, 16),
	}
}

func (f *fakeConns) Write(_ context.Context, memberId string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail[memberId] {
		return errors.New("broken pipe")
	}
	out := v.(*Output)
	f.written[memberId] = append(f.written[memberId], out)
	f.sent <- out
	return nil
}

func newTestNotifier() (*Notifier, *fakeConns) {
	conns := newFakeConns()
	return New(conns, slog.New(slog.NewTextHandler(io.Discard, nil))), conns
}

// answer waits for the request sent to the member and replies to it. It
// runs in its own goroutine, so it only reports failures.
func answer(t *testing.T, n *Notifier, conns *fakeConns, memberId string, media *domain.Media) {
	select {
	case out := <-conns.sent:
		payload, ok := out.Payload.(RequestNextMediaPayload)
		if !assert.True(t, ok, "unexpected %s", out.Type) {
			return
		}
		assert.NoError(t, n.ResolveNextMedia(context.Background(), memberId, payload.RequestId, media))
	case <-time.After(time.Second):
		t.Error("no request sent")
	}
}

func TestRequestNextMediaItem(t *testing.T) {
	n, conns := newTestNotifier()
	media := domain.Media{Id: "x", Url: "https://www.youtube.com/watch?v=x", Duration: time.Minute}

	go answer(t, n, conns, "m1", &media)

	res := n.RequestNextMedia(context.Background(), "m1")
	assert.Equal(t, room.NextMediaItem, res.Status)
	assert.Equal(t, "x", res.Media.Id)
}

func TestRequestNextMediaEmpty(t *testing.T) {
	n, conns := newTestNotifier()

	go answer(t, n, conns, "m1", nil)

	res := n.RequestNextMedia(context.Background(), "m1")
	assert.Equal(t, room.NextMediaEmpty, res.Status)
}

func TestRequestNextMediaTimeout(t *testing.T) {
	n, _ := newTestNotifier()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := n.RequestNextMedia(ctx, "m1")
	assert.Equal(t, room.NextMediaUnreachable, res.Status)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)

	n.mu.Lock()
	assert.Empty(t, n.pending)
	n.mu.Unlock()
}

func TestRequestNextMediaWriteFailure(t *testing.T) {
	n, conns := newTestNotifier()
	conns.fail["m1"] = true

	res := n.RequestNextMedia(context.Background(), "m1")
	assert.Equal(t, room.NextMediaUnreachable, res.Status)
	assert.Error(t, res.Err)
}

func TestAnswerFromOtherMemberIsRefused(t *testing.T) {
	n, conns := newTestNotifier()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	go func() {
		out := <-conns.sent
		payload := out.Payload.(RequestNextMediaPayload)
		err := n.ResolveNextMedia(context.Background(), "intruder", payload.RequestId, nil)
		assert.ErrorIs(t, err, ErrUnknownRequest)
	}()

	res := n.RequestNextMedia(ctx, "m1")
	assert.Equal(t, room.NextMediaUnreachable, res.Status)
}

func TestCancelMember(t *testing.T) {
	n, conns := newTestNotifier()

	go func() {
		<-conns.sent
		n.CancelMember("m1")
	}()

	res := n.RequestNextMedia(context.Background(), "m1")
	assert.Equal(t, room.NextMediaUnreachable, res.Status)
	assert.ErrorIs(t, res.Err, ErrDisconnected)
}

func TestBroadcastRoomStateSkipsDisconnected(t *testing.T) {
	n, conns := newTestNotifier()
	state := room.State{
		Id: "lounge",
		Members: []domain.Member{
			{Id: "a", Status: domain.StatusConnected},
			{Id: "b", Status: domain.StatusDisconnected},
		},
		ConnectedCount: 1,
	}

	n.BroadcastRoomState(context.Background(), state)

	conns.mu.Lock()
	defer conns.mu.Unlock()
	require.Len(t, conns.written["a"], 1)
	assert.Equal(t, room.EventRoomState, conns.written["a"][0].Type)
	assert.Empty(t, conns.written["b"])
}
