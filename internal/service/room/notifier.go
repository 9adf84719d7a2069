package room

import (
	"context"

	"github.com/sharetube/listenroom/internal/domain"
)

const (
	EventRoomState        = "ROOM_STATE"
	EventOwnMember        = "OWN_MEMBER"
	EventMemberJoined     = "MEMBER_JOINED"
	EventMemberLeft       = "MEMBER_LEFT"
	EventHostStarted      = "HOST_STARTED"
	EventRequestNextMedia = "REQUEST_NEXT_MEDIA"
)

type NextMediaStatus int

const (
	// NextMediaUnreachable covers timeouts, closed connections and malformed answers.
	NextMediaUnreachable NextMediaStatus = iota
	NextMediaEmpty
	NextMediaItem
)

func (s NextMediaStatus) String() string {
	switch s {
	case NextMediaItem:
		return "item"
	case NextMediaEmpty:
		return "empty"
	default:
		return "unreachable"
	}
}

type NextMediaResult struct {
	Status NextMediaStatus
	Media  domain.Media
	Err    error
}

// Notifier delivers room events to connected members and asks a member
// for the next media item it wants to play. Implementations must not call
// back into the room.
type Notifier interface {
	BroadcastRoomState(ctx context.Context, state State)
	Broadcast(ctx context.Context, recipients []string, event string, payload any)
	NotifyMember(ctx context.Context, memberId, event string, payload any) error
	// RequestNextMedia blocks until the member answers or ctx is done.
	RequestNextMedia(ctx context.Context, memberId string) NextMediaResult
}

type MemberLeftPayload struct {
	MemberId string          `json:"member_id"`
	Members  []domain.Member `json:"members"`
}

type MemberJoinedPayload struct {
	Member  domain.Member   `json:"member"`
	Members []domain.Member `json:"members"`
}
