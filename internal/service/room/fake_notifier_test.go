package room

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sharetube/listenroom/internal/domain"
	"github.com/stretchr/testify/require"
)

type sentEvent struct {
	to      string
	event   string
	payload any
}

// fakeNotifier answers next media requests from per member scripts.
type fakeNotifier struct {
	mu          sync.Mutex
	queues      map[string][]domain.Media
	hang        map[string]bool
	unreachable map[string]bool
	requested   chan string
	requests    []string
	states      []State
	events      []sentEvent
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		queues:      make(map[string][]domain.Media),
		hang:        make(map[string]bool),
		unreachable: make(map[string]bool),
		requested:   make(chan string, 64),
	}
}

func (f *fakeNotifier) give(memberId string, media ...domain.Media) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queues[memberId] = append(f.queues[memberId], media...)
}

func (f *fakeNotifier) BroadcastRoomState(_ context.Context, state State) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.states = append(f.states, state)
}

func (f *fakeNotifier) Broadcast(_ context.Context, recipients []string, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, to := range recipients {
		f.events = append(f.events, sentEvent{to: to, event: event, payload: payload})
	}
}

func (f *fakeNotifier) NotifyMember(_ context.Context, memberId, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, sentEvent{to: memberId, event: event, payload: payload})
	return nil
}

func (f *fakeNotifier) RequestNextMedia(ctx context.Context, memberId string) NextMediaResult {
	f.mu.Lock()
	f.requests = append(f.requests, memberId)
	hang, unreachable := f.hang[memberId], f.unreachable[memberId]
	var next *domain.Media
	if q := f.queues[memberId]; len(q) > 0 && !hang && !unreachable {
		next = &q[0]
		f.queues[memberId] = q[1:]
	}
	f.mu.Unlock()

	select {
	case f.requested <- memberId:
	default:
	}

	switch {
	case hang:
		<-ctx.Done()
		return NextMediaResult{Status: NextMediaUnreachable, Err: ctx.Err()}
	case unreachable:
		return NextMediaResult{Status: NextMediaUnreachable, Err: errors.New("connection closed")}
	case next == nil:
		return NextMediaResult{Status: NextMediaEmpty}
	default:
		return NextMediaResult{Status: NextMediaItem, Media: *next}
	}
}

func (f *fakeNotifier) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.requests...)
}

func (f *fakeNotifier) eventsTo(memberId, event string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []sentEvent
	for _, e := range f.events {
		if e.to == memberId && e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeNotifier) lastState() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.states) == 0 {
		return State{}
	}
	return f.states[len(f.states)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMedia(id string, d time.Duration) domain.Media {
	return domain.Media{
		Id:       id,
		Url:      "https://www.youtube.com/watch?v=" + id,
		Title:    "track " + id,
		Duration: d,
	}
}

func newTestRoom(t *testing.T, cfg Config) (*Room, *fakeNotifier) {
	t.Helper()

	if cfg.NextMediaTimeout == 0 {
		cfg.NextMediaTimeout = 200 * time.Millisecond
	}
	n := newFakeNotifier()
	r := NewRoom("room", n, cfg, testLogger())
	t.Cleanup(r.Close)
	return r, n
}

func join(t *testing.T, r *Room, ids ...string) {
	t.Helper()

	for _, id := range ids {
		_, err := r.Join(context.Background(), &JoinParams{MemberId: id, Username: "user " + id})
		require.NoError(t, err)
	}
}

func queueIds(s State) []string {
	ids := make([]string, 0, len(s.HostQueue))
	for _, m := range s.HostQueue {
		ids = append(ids, m.Id)
	}
	return ids
}
