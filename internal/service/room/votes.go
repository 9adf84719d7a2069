package room

import (
	"context"
	"fmt"

	"github.com/sharetube/listenroom/internal/domain"
)

// ToggleSkip flips the member's skip vote. Reaching the skip threshold
// advances the room.
func (r *Room) ToggleSkip(ctx context.Context, memberId string) error {
	r.advanceMu.Lock()
	defer r.advanceMu.Unlock()

	r.mu.Lock()
	voted, err := r.toggleVoteLocked(memberId, func(s *Session) *domain.VoteSet { return s.skips })
	if err != nil {
		r.mu.Unlock()
		r.logger.InfoContext(ctx, "failed to toggle skip", "member_id", memberId, "error", err)
		return fmt.Errorf("failed to toggle skip: %w", err)
	}
	skips, threshold := r.session.skips.Len(), r.skipThresholdLocked()
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "skip toggled", "member_id", memberId, "voted", voted, "skips", skips, "threshold", threshold)
	if skips >= threshold {
		r.logger.InfoContext(ctx, "skip threshold reached", "skips", skips, "threshold", threshold)
		r.advance(ctx, false)
		return nil
	}

	r.broadcastState(ctx)
	return nil
}

func (r *Room) ToggleLike(ctx context.Context, memberId string) error {
	r.advanceMu.Lock()
	defer r.advanceMu.Unlock()

	r.mu.Lock()
	_, err := r.toggleVoteLocked(memberId, func(s *Session) *domain.VoteSet { return s.likes })
	r.mu.Unlock()
	if err != nil {
		r.logger.InfoContext(ctx, "failed to toggle like", "member_id", memberId, "error", err)
		return fmt.Errorf("failed to toggle like: %w", err)
	}

	r.broadcastState(ctx)
	return nil
}

func (r *Room) toggleVoteLocked(memberId string, set func(*Session) *domain.VoteSet) (bool, error) {
	if !r.members.IsConnected(memberId) {
		return false, ErrMemberNotFound
	}
	if r.session == nil {
		return false, ErrNoActiveSession
	}

	return set(r.session).Toggle(memberId), nil
}
