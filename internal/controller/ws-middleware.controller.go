package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/listenroom/pkg/ctxlogger"
	"github.com/sharetube/listenroom/pkg/wsrouter"
)

// messages slower than this are logged at warn level
const slowMessageThreshold = 500 * time.Millisecond

func (c controller) wsRequestIdWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, payload any) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("ws_request_id", c.generateTimeBasedId()))
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			return next(ctx, conn, payload)
		}
	}
}

// loggerWSMw logs every handled message. Payloads are left out, they carry
// chat content and profile data.
func (c controller) loggerWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, payload any) error {
			start := time.Now()
			err := next(ctx, conn, payload)
			elapsed := time.Since(start)

			level := slog.LevelDebug
			if elapsed > slowMessageThreshold {
				level = slog.LevelWarn
			}
			attrs := []any{"duration_ms", elapsed.Milliseconds()}
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			c.logger.Log(ctx, level, "websocket message handled", attrs...)

			return err
		}
	}
}
