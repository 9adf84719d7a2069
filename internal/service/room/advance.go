package room

import (
	"context"

	"github.com/sharetube/listenroom/internal/domain"
)

// Advance ends the current session, if any, and tries to start the next
// one from the host queue. With preventRequeue the outgoing host does not
// get another turn.
func (r *Room) Advance(ctx context.Context, preventRequeue bool) {
	r.advanceMu.Lock()
	defer r.advanceMu.Unlock()

	r.advance(ctx, preventRequeue)
}

// advance must be called with advanceMu held.
func (r *Room) advance(ctx context.Context, preventRequeue bool) {
	// a departing member's request context must not abort the rotation
	ctx = context.WithoutCancel(ctx)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	prevHost := ""
	if prev := r.session; prev != nil {
		prev.stop()
		prevHost = prev.Host
		r.session = nil
	}
	r.mu.Unlock()

	hostId, media, found := r.nextFromQueue(ctx)
	if !found && !preventRequeue && prevHost != "" && r.isConnected(prevHost) {
		r.logger.DebugContext(ctx, "queue exhausted, asking outgoing host again", "member_id", prevHost)
		if media, found = r.requestMedia(ctx, prevHost); found {
			hostId = prevHost
		}
	}

	var started *Session
	r.mu.Lock()
	if found && !r.closed {
		r.sessionGen++
		session, err := newSession(r.sessionGen, hostId, media, r.now())
		if err != nil {
			r.logger.WarnContext(ctx, "failed to create session", "member_id", hostId, "error", err)
		} else {
			gen := session.gen
			session.start(func() { r.expire(gen) })
			r.session = session
			started = session

			if !preventRequeue && prevHost != "" && prevHost != hostId &&
				r.presentLocked(prevHost) && !r.queue.Contains(prevHost) {
				r.queue.Enqueue(prevHost)
			}
		}
	}
	r.mu.Unlock()

	if started != nil {
		r.logger.InfoContext(ctx, "session started",
			"host_id", started.Host,
			"media_id", started.Media.Id,
			"duration", started.Media.Duration,
		)
	} else {
		r.logger.InfoContext(ctx, "room is idle")
	}

	state := r.State()
	r.notifier.BroadcastRoomState(ctx, state)
	if started != nil && state.Session != nil {
		if err := r.notifier.NotifyMember(ctx, started.Host, EventHostStarted, state.Session); err != nil {
			r.logger.InfoContext(ctx, "failed to notify new host", "member_id", started.Host, "error", err)
		}
	}
}

// nextFromQueue pops candidates until one supplies a media item. Candidates
// that are not connected are dropped without a request.
func (r *Room) nextFromQueue(ctx context.Context) (string, domain.Media, bool) {
	for {
		r.mu.Lock()
		candidate, ok := r.queue.PopEligible(r.members.IsConnected)
		r.mu.Unlock()
		if !ok {
			return "", domain.Media{}, false
		}

		if media, found := r.requestMedia(ctx, candidate); found {
			return candidate, media, true
		}
	}
}

func (r *Room) requestMedia(ctx context.Context, memberId string) (domain.Media, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.NextMediaTimeout)
	defer cancel()

	res := r.notifier.RequestNextMedia(ctx, memberId)
	switch res.Status {
	case NextMediaItem:
		if err := res.Media.Validate(); err != nil {
			r.logger.InfoContext(ctx, "candidate sent invalid media", "member_id", memberId, "error", err)
			return domain.Media{}, false
		}
		return res.Media, true
	case NextMediaEmpty:
		r.logger.DebugContext(ctx, "candidate has nothing to play", "member_id", memberId)
	default:
		r.logger.InfoContext(ctx, "candidate unreachable", "member_id", memberId, "error", res.Err)
	}

	return domain.Media{}, false
}

// expire runs on the session timer. It advances only if the session that
// scheduled it is still the current one.
func (r *Room) expire(gen uint64) {
	r.advanceMu.Lock()
	defer r.advanceMu.Unlock()

	r.mu.RLock()
	current := r.session
	r.mu.RUnlock()

	if current == nil || current.gen != gen {
		r.logger.Debug("stale session timer", "gen", gen)
		return
	}

	r.advance(context.Background(), false)
}

func (r *Room) isConnected(memberId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.members.IsConnected(memberId)
}
