package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidPayload     = errors.New("invalid payload")
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[T any] func(ctx context.Context, conn *websocket.Conn, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

// ErrorHandler is called when a message could not be routed or its handler
// returned an error. The connection stays open.
type ErrorHandler func(ctx context.Context, conn *websocket.Conn, err error)

type route struct {
	decode func(json.RawMessage) (any, error)
	handle HandlerFunc[any]
}

type WSRouter struct {
	routes      map[string]route
	middlewares []Middleware
	onError     ErrorHandler
	readTimeout time.Duration
}

func New() *WSRouter {
	return &WSRouter{
		routes:  make(map[string]route),
		onError: func(context.Context, *websocket.Conn, error) {},
	}
}

func (r *WSRouter) Use(mws ...Middleware) {
	r.middlewares = append(r.middlewares, mws...)
}

func (r *WSRouter) OnError(h ErrorHandler) {
	r.onError = h
}

// SetReadTimeout closes connections that stay silent longer than d.
func (r *WSRouter) SetReadTimeout(d time.Duration) {
	r.readTimeout = d
}

// AddRoute registers handler for messageType. The payload is decoded into T
// before the handler runs; a missing payload leaves T zero.
func AddRoute[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.routes[messageType] = route{
		decode: func(raw json.RawMessage) (any, error) {
			var payload T
			if len(raw) == 0 || string(raw) == "null" {
				return payload, nil
			}
			if err := json.Unmarshal(raw, &payload); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
			return payload, nil
		},
		handle: func(ctx context.Context, conn *websocket.Conn, payload any) error {
			return handler(ctx, conn, payload.(T))
		},
	}
}

// Dispatch routes one raw message.
func (r *WSRouter) Dispatch(ctx context.Context, conn *websocket.Conn, data []byte) error {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	rt, ok := r.routes[msg.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}

	ctx = context.WithValue(ctx, messageTypeKey, msg.Type)

	payload, err := rt.decode(msg.Payload)
	if err != nil {
		return err
	}

	handler := rt.handle
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	return handler(ctx, conn, payload)
}

// ServeConn reads messages until the connection fails or ctx is done and
// returns the read error. The connection is closed when ctx is done.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if r.readTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(r.readTimeout)); err != nil {
				return err
			}
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		if err := r.Dispatch(ctx, conn, data); err != nil {
			r.onError(ctx, conn, err)
		}
	}
}
