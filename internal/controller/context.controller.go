package controller

import "context"

type contextKey int

const (
	roomIdCtxKey contextKey = iota
	memberIdCtxKey
	actionsCtxKey
)

func (c controller) getRoomIdFromCtx(ctx context.Context) string {
	roomId, ok := ctx.Value(roomIdCtxKey).(string)
	if !ok {
		return ""
	}

	return roomId
}

func (c controller) getMemberIdFromCtx(ctx context.Context) string {
	memberId, ok := ctx.Value(memberIdCtxKey).(string)
	if !ok {
		return ""
	}

	return memberId
}

func (c controller) getActionsFromCtx(ctx context.Context) *actionQueue {
	actions, ok := ctx.Value(actionsCtxKey).(*actionQueue)
	if !ok {
		return nil
	}

	return actions
}
