package room

import (
	"sync"
	"time"

	"github.com/sharetube/listenroom/internal/domain"
)

type sessionTimer struct {
	timer *time.Timer
	once  sync.Once
}

func startSessionTimer(d time.Duration, fn func()) *sessionTimer {
	return &sessionTimer{timer: time.AfterFunc(d, fn)}
}

// Stop is idempotent and safe to call after the timer has fired.
func (t *sessionTimer) Stop() {
	t.once.Do(func() {
		t.timer.Stop()
	})
}

type Session struct {
	gen       uint64
	Host      string
	Media     domain.Media
	StartedAt time.Time
	skips     *domain.VoteSet
	likes     *domain.VoteSet
	timer     *sessionTimer
}

func newSession(gen uint64, hostId string, media domain.Media, now time.Time) (*Session, error) {
	if err := media.Validate(); err != nil {
		return nil, err
	}

	return &Session{
		gen:       gen,
		Host:      hostId,
		Media:     media,
		StartedAt: now,
		skips:     domain.NewVoteSet(),
		likes:     domain.NewVoteSet(),
	}, nil
}

func (s *Session) EndsAt() time.Time {
	return s.StartedAt.Add(s.Media.Duration)
}

func (s *Session) start(onExpire func()) {
	s.timer = startSessionTimer(s.Media.Duration, onExpire)
}

func (s *Session) stop() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Session) removeVoter(memberId string) bool {
	skipped := s.skips.Remove(memberId)
	liked := s.likes.Remove(memberId)
	return skipped || liked
}

type SessionState struct {
	Host       domain.Member `json:"host"`
	Media      domain.Media  `json:"media"`
	StartedAt  time.Time     `json:"started_at"`
	EndsAt     time.Time     `json:"ends_at"`
	Skips      int           `json:"skips"`
	Likes      int           `json:"likes"`
	SkipVoters []string      `json:"skip_voters"`
	LikeVoters []string      `json:"like_voters"`
}
