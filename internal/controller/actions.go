package controller

import (
	"context"
	"errors"
)

var ErrTooManyActions = errors.New("too many pending actions")

type action struct {
	ctx context.Context
	fn  func(context.Context) error
}

// actionQueue runs a connection's room actions one at a time, off the read
// loop. Room actions may wait for this same member to answer a next media
// request, which is only read while the read loop keeps going.
type actionQueue struct {
	ch   chan action
	done chan struct{}
}

func (c controller) startActionQueue(ctx context.Context) *actionQueue {
	q := &actionQueue{
		ch:   make(chan action, c.cfg.ActionQueueSize),
		done: make(chan struct{}),
	}

	go func() {
		defer close(q.done)
		for {
			select {
			case <-ctx.Done():
				return
			case a := <-q.ch:
				if ctx.Err() != nil {
					return
				}
				if err := a.fn(a.ctx); err != nil {
					c.reportError(a.ctx, nil, err)
				}
			}
		}
	}()

	return q
}

func (q *actionQueue) push(ctx context.Context, fn func(context.Context) error) error {
	select {
	case q.ch <- action{ctx: ctx, fn: fn}:
		return nil
	default:
		return ErrTooManyActions
	}
}

// async queues fn on the connection's action queue, or runs it inline when
// the context carries none.
func (c controller) async(ctx context.Context, fn func(context.Context) error) error {
	q := c.getActionsFromCtx(ctx)
	if q == nil {
		return fn(ctx)
	}

	return q.push(ctx, fn)
}
