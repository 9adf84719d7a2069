package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sharetube/listenroom/internal/domain"
)

var (
	ErrMemberNotFound  = domain.ErrMemberNotFound
	ErrNoActiveSession = errors.New("no active session")
	ErrRoomNotFound    = errors.New("room not found")
)

const (
	defaultNextMediaTimeout = 5 * time.Second
)

type Config struct {
	MembersLimit     int
	NextMediaTimeout time.Duration
	// LeaveGrace is how long a disconnected member keeps its queue place
	// and votes. Zero means departure on disconnect.
	LeaveGrace    time.Duration
	SkipThreshold SkipThreshold
}

func (c Config) withDefaults() Config {
	if c.NextMediaTimeout <= 0 {
		c.NextMediaTimeout = defaultNextMediaTimeout
	}
	if c.SkipThreshold == nil {
		c.SkipThreshold = Ratio(0.5)
	}
	return c
}

type pendingLeave struct {
	timer *time.Timer
}

// Room coordinates one listening room. advanceMu serializes every state
// transition that may end in an Advance; mu guards the fields below it and
// is never held across a notifier call.
type Room struct {
	id       string
	name     string
	cfg      Config
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	advanceMu sync.Mutex

	mu         sync.RWMutex
	members    *domain.Members
	queue      *domain.HostQueue
	session    *Session
	sessionGen uint64
	leaving    map[string]*pendingLeave
	closed     bool
}

func NewRoom(id string, notifier Notifier, cfg Config, logger *slog.Logger) *Room {
	cfg = cfg.withDefaults()
	return &Room{
		id:       id,
		name:     id,
		cfg:      cfg,
		notifier: notifier,
		logger:   logger.With("room_id", id),
		now:      time.Now,
		members:  domain.NewMembers(cfg.MembersLimit),
		queue:    domain.NewHostQueue(),
		leaving:  make(map[string]*pendingLeave),
	}
}

func (r *Room) Id() string {
	return r.id
}

type State struct {
	Id             string          `json:"id"`
	Name           string          `json:"name"`
	HostQueue      []domain.Member `json:"host_queue"`
	Session        *SessionState   `json:"session"`
	Members        []domain.Member `json:"members"`
	ConnectedCount int             `json:"connected_count"`
	SkipThreshold  int             `json:"skip_threshold"`
}

// State returns a consistent snapshot of the room.
func (r *Room) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.stateLocked()
}

func (r *Room) stateLocked() State {
	queueIds := r.queue.List()
	hostQueue := make([]domain.Member, 0, len(queueIds))
	for _, id := range queueIds {
		if member, err := r.members.GetById(id); err == nil {
			hostQueue = append(hostQueue, member)
		}
	}

	var session *SessionState
	if s := r.session; s != nil {
		host, _ := r.members.GetById(s.Host)
		session = &SessionState{
			Host:       host,
			Media:      s.Media,
			StartedAt:  s.StartedAt,
			EndsAt:     s.EndsAt(),
			Skips:      s.skips.Len(),
			Likes:      s.likes.Len(),
			SkipVoters: s.skips.List(),
			LikeVoters: s.likes.List(),
		}
	}

	return State{
		Id:             r.id,
		Name:           r.name,
		HostQueue:      hostQueue,
		Session:        session,
		Members:        r.members.AsList(),
		ConnectedCount: r.members.ConnectedCount(),
		SkipThreshold:  r.skipThresholdLocked(),
	}
}

func (r *Room) skipThresholdLocked() int {
	return max(1, r.cfg.SkipThreshold(r.members.ConnectedCount()))
}

// presentLocked reports whether the member is connected or still inside its
// leave grace period.
func (r *Room) presentLocked(memberId string) bool {
	if r.members.IsConnected(memberId) {
		return true
	}
	_, ok := r.leaving[memberId]
	return ok
}

func (r *Room) broadcastState(ctx context.Context) {
	r.notifier.BroadcastRoomState(ctx, r.State())
}

// Close stops every timer owned by the room. The room must not be used
// afterwards.
func (r *Room) Close() {
	r.advanceMu.Lock()
	defer r.advanceMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.session != nil {
		r.session.stop()
		r.session = nil
	}
	for id, pending := range r.leaving {
		pending.timer.Stop()
		delete(r.leaving, id)
	}
}
