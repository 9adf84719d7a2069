package room

import (
	"context"
	"fmt"
)

// ToggleHostQueue steps the current host down, takes a queued member out
// of the queue, or enqueues anyone else. An idle room advances right away.
func (r *Room) ToggleHostQueue(ctx context.Context, memberId string) error {
	r.advanceMu.Lock()
	defer r.advanceMu.Unlock()

	r.mu.Lock()
	if !r.members.IsConnected(memberId) {
		r.mu.Unlock()
		r.logger.WarnContext(ctx, "toggle host queue from unknown member", "member_id", memberId)
		return fmt.Errorf("failed to toggle host queue: %w", ErrMemberNotFound)
	}

	if r.session != nil && r.session.Host == memberId {
		r.mu.Unlock()
		r.logger.InfoContext(ctx, "host stepped down", "member_id", memberId)
		r.advance(ctx, true)
		return nil
	}

	if r.queue.Remove(memberId) {
		r.mu.Unlock()
		r.broadcastState(ctx)
		return nil
	}

	r.queue.Enqueue(memberId)
	idle := r.session == nil
	r.mu.Unlock()

	if idle {
		r.advance(ctx, false)
		return nil
	}

	r.broadcastState(ctx)
	return nil
}
