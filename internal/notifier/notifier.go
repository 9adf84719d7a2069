package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/sharetube/listenroom/internal/domain"
	"github.com/sharetube/listenroom/internal/service/room"
)

var (
	ErrUnknownRequest = errors.New("unknown next media request")
	ErrDisconnected   = errors.New("member disconnected")
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type RequestNextMediaPayload struct {
	RequestId string `json:"request_id"`
}

type iConnRepo interface {
	Write(ctx context.Context, memberId string, v any) error
}

type pendingRequest struct {
	memberId string
	result   chan room.NextMediaResult
}

// Notifier delivers room events over member websockets and tracks the
// next media requests waiting for an answer.
type Notifier struct {
	conns   iConnRepo
	logger  *slog.Logger
	mu      sync.Mutex
	pending map[string]*pendingRequest
}

func New(conns iConnRepo, logger *slog.Logger) *Notifier {
	return &Notifier{
		conns:   conns,
		logger:  logger,
		pending: make(map[string]*pendingRequest),
	}
}

func (n *Notifier) BroadcastRoomState(ctx context.Context, state room.State) {
	n.Broadcast(ctx, state.ConnectedIds(), room.EventRoomState, state)
}

func (n *Notifier) Broadcast(ctx context.Context, recipients []string, event string, payload any) {
	out := &Output{Type: event, Payload: payload}
	for _, memberId := range recipients {
		if err := n.conns.Write(ctx, memberId, out); err != nil {
			n.logger.InfoContext(ctx, "failed to broadcast", "member_id", memberId, "event", event, "error", err)
		}
	}
}

func (n *Notifier) NotifyMember(ctx context.Context, memberId, event string, payload any) error {
	if err := n.conns.Write(ctx, memberId, &Output{Type: event, Payload: payload}); err != nil {
		return fmt.Errorf("failed to notify member: %w", err)
	}

	return nil
}

func (n *Notifier) RequestNextMedia(ctx context.Context, memberId string) room.NextMediaResult {
	requestId := uuid.NewString()
	req := &pendingRequest{
		memberId: memberId,
		result:   make(chan room.NextMediaResult, 1),
	}

	n.mu.Lock()
	n.pending[requestId] = req
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		delete(n.pending, requestId)
		n.mu.Unlock()
	}()

	if err := n.conns.Write(ctx, memberId, &Output{
		Type:    room.EventRequestNextMedia,
		Payload: RequestNextMediaPayload{RequestId: requestId},
	}); err != nil {
		return room.NextMediaResult{Status: room.NextMediaUnreachable, Err: err}
	}

	n.logger.DebugContext(ctx, "next media requested", "member_id", memberId, "request_id", requestId)

	select {
	case res := <-req.result:
		return res
	case <-ctx.Done():
		return room.NextMediaResult{Status: room.NextMediaUnreachable, Err: ctx.Err()}
	}
}

// ResolveNextMedia delivers a member's answer. A nil media means the member
// has nothing to play. Answers from anyone but the asked member are refused.
func (n *Notifier) ResolveNextMedia(ctx context.Context, memberId, requestId string, media *domain.Media) error {
	n.mu.Lock()
	req, ok := n.pending[requestId]
	if ok && req.memberId == memberId {
		delete(n.pending, requestId)
	}
	n.mu.Unlock()

	if !ok || req.memberId != memberId {
		n.logger.DebugContext(ctx, "dropping next media answer", "member_id", memberId, "request_id", requestId)
		return fmt.Errorf("failed to resolve next media: %w", ErrUnknownRequest)
	}

	res := room.NextMediaResult{Status: room.NextMediaEmpty}
	if media != nil {
		res = room.NextMediaResult{Status: room.NextMediaItem, Media: *media}
	}
	req.result <- res

	return nil
}

// CancelMember fails every request waiting on the member, so a dropped
// connection does not have to wait for the timeout.
func (n *Notifier) CancelMember(memberId string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for requestId, req := range n.pending {
		if req.memberId != memberId {
			continue
		}
		delete(n.pending, requestId)
		req.result <- room.NextMediaResult{Status: room.NextMediaUnreachable, Err: ErrDisconnected}
	}
}
