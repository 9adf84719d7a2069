package room

import (
	"context"
	"fmt"
	"time"

	"github.com/sharetube/listenroom/internal/domain"
)

type JoinParams struct {
	MemberId  string
	Username  string
	Color     string
	AvatarUrl *string
}

// Join connects a member, or reconnects one that is still known to the
// room. It never waits for a running Advance.
func (r *Room) Join(ctx context.Context, params *JoinParams) (domain.Member, error) {
	r.mu.Lock()
	if pending, ok := r.leaving[params.MemberId]; ok {
		pending.timer.Stop()
		delete(r.leaving, params.MemberId)
		r.logger.DebugContext(ctx, "member returned within grace", "member_id", params.MemberId)
	}

	member, err := r.members.Upsert(domain.Member{
		Id:        params.MemberId,
		Username:  params.Username,
		Color:     params.Color,
		AvatarUrl: params.AvatarUrl,
	}, r.now())
	if err != nil {
		r.mu.Unlock()
		r.logger.InfoContext(ctx, "failed to join room", "member_id", params.MemberId, "error", err)
		return domain.Member{}, fmt.Errorf("failed to join room: %w", err)
	}
	state := r.stateLocked()
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "member joined", "member_id", member.Id)

	if err := r.notifier.NotifyMember(ctx, member.Id, EventOwnMember, member); err != nil {
		r.logger.InfoContext(ctx, "failed to send own member", "member_id", member.Id, "error", err)
	}
	r.notifier.Broadcast(ctx, othersConnected(state, member.Id), EventMemberJoined, MemberJoinedPayload{
		Member:  member,
		Members: state.Members,
	})
	r.notifier.BroadcastRoomState(ctx, state)

	return member, nil
}

// Disconnect marks the member as gone. Without a leave grace the member
// departs immediately; otherwise departure is scheduled and a Join within
// the grace period cancels it.
func (r *Room) Disconnect(ctx context.Context, memberId string) error {
	r.mu.Lock()
	if _, err := r.members.SetStatus(memberId, domain.StatusDisconnected, r.now()); err != nil {
		r.mu.Unlock()
		r.logger.WarnContext(ctx, "disconnect of unknown member", "member_id", memberId)
		return fmt.Errorf("failed to disconnect member: %w", err)
	}

	if r.cfg.LeaveGrace > 0 {
		if prev, ok := r.leaving[memberId]; ok {
			prev.timer.Stop()
		}
		pending := &pendingLeave{}
		pending.timer = time.AfterFunc(r.cfg.LeaveGrace, func() {
			r.advanceMu.Lock()
			defer r.advanceMu.Unlock()

			r.depart(context.Background(), memberId, pending)
		})
		r.leaving[memberId] = pending
		r.mu.Unlock()

		r.logger.DebugContext(ctx, "member departure scheduled", "member_id", memberId, "grace", r.cfg.LeaveGrace)
		r.afterGraceDisconnect(ctx, memberId)
		return nil
	}
	r.mu.Unlock()

	r.advanceMu.Lock()
	defer r.advanceMu.Unlock()

	r.depart(ctx, memberId, nil)
	return nil
}

// afterGraceDisconnect handles what can not wait for the grace period to
// end: a host that left stops hosting, and the skip threshold may have
// dropped to the votes already cast. The member keeps its queue place.
func (r *Room) afterGraceDisconnect(ctx context.Context, memberId string) {
	r.advanceMu.Lock()
	defer r.advanceMu.Unlock()

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return
	}
	s := r.session
	isHost := s != nil && s.Host == memberId && !r.members.IsConnected(memberId)
	thresholdReached := s != nil && s.skips.Len() >= r.skipThresholdLocked()
	r.mu.RUnlock()

	switch {
	case isHost:
		r.logger.InfoContext(ctx, "host disconnected", "member_id", memberId)
		r.advance(ctx, false)
	case thresholdReached:
		r.logger.InfoContext(ctx, "skip threshold reached after disconnect")
		r.advance(ctx, false)
	default:
		r.broadcastState(ctx)
	}
}

// depart must be called with advanceMu held. pending is the scheduled
// departure being executed, nil for an immediate one.
func (r *Room) depart(ctx context.Context, memberId string, pending *pendingLeave) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if pending != nil {
		if r.leaving[memberId] != pending {
			r.mu.Unlock()
			return
		}
		delete(r.leaving, memberId)
	}
	if r.members.IsConnected(memberId) {
		r.mu.Unlock()
		return
	}
	isHost := r.session != nil && r.session.Host == memberId
	r.mu.Unlock()

	if isHost {
		r.advance(ctx, false)
	}

	r.mu.Lock()
	changed := r.queue.Remove(memberId)
	thresholdReached := false
	if s := r.session; s != nil {
		changed = s.removeVoter(memberId) || changed
		thresholdReached = s.skips.Len() >= r.skipThresholdLocked()
	}
	state := r.stateLocked()
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "member left", "member_id", memberId, "was_host", isHost)

	r.notifier.Broadcast(ctx, othersConnected(state, memberId), EventMemberLeft, MemberLeftPayload{
		MemberId: memberId,
		Members:  state.Members,
	})

	switch {
	case thresholdReached:
		r.logger.InfoContext(ctx, "skip threshold reached after departure")
		r.advance(ctx, false)
	case changed || !isHost:
		r.notifier.BroadcastRoomState(ctx, state)
	}
}

type UpdateProfileParams struct {
	MemberId  string
	Username  *string
	Color     *string
	AvatarUrl *string
}

func (r *Room) UpdateProfile(ctx context.Context, params *UpdateProfileParams) (domain.Member, error) {
	r.mu.Lock()
	member, err := r.members.Update(params.MemberId, func(m *domain.Member) {
		if params.Username != nil {
			m.Username = *params.Username
		}
		if params.Color != nil {
			m.Color = *params.Color
		}
		if params.AvatarUrl != nil {
			m.AvatarUrl = params.AvatarUrl
		}
	})
	if err != nil {
		r.mu.Unlock()
		r.logger.WarnContext(ctx, "profile update of unknown member", "member_id", params.MemberId)
		return domain.Member{}, fmt.Errorf("failed to update profile: %w", err)
	}
	state := r.stateLocked()
	r.mu.Unlock()

	r.notifier.BroadcastRoomState(ctx, state)
	return member, nil
}

func othersConnected(state State, memberId string) []string {
	ids := make([]string, 0, state.ConnectedCount)
	for _, m := range state.Members {
		if m.Id != memberId && m.IsConnected() {
			ids = append(ids, m.Id)
		}
	}
	return ids
}

// ConnectedIds returns the members that currently receive room events.
func (s State) ConnectedIds() []string {
	return othersConnected(s, "")
}
