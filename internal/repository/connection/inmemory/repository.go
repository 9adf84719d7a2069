package inmemory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/listenroom/internal/repository/connection"
)

type conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// repo maps members to their websocket. A member has at most one live
// connection; adding a new one replaces and closes the previous.
type repo struct {
	connList     map[*websocket.Conn]string
	idList       map[string]*conn
	mu           sync.RWMutex
	writeTimeout time.Duration
	logger       *slog.Logger
}

func NewRepo(writeTimeout time.Duration, logger *slog.Logger) *repo {
	return &repo{
		connList:     make(map[*websocket.Conn]string),
		idList:       make(map[string]*conn),
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

func (r *repo) Add(ws *websocket.Conn, memberId string) error {
	r.mu.Lock()
	if _, ok := r.connList[ws]; ok {
		r.mu.Unlock()
		r.logger.Info("failed to add connection", "member_id", memberId, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	prev := r.idList[memberId]
	if prev != nil {
		delete(r.connList, prev.ws)
	}
	r.connList[ws] = memberId
	r.idList[memberId] = &conn{ws: ws}
	r.mu.Unlock()

	if prev != nil {
		r.logger.Debug("replacing connection", "member_id", memberId)
		prev.writeMu.Lock()
		_ = prev.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by a new connection"),
			time.Now().Add(time.Second),
		)
		prev.writeMu.Unlock()
		prev.ws.Close()
	}

	return nil
}

// Remove forgets ws if it is still the member's current connection and
// reports whether it was.
func (r *repo) Remove(memberId string, ws *websocket.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.connList, ws)
	current, ok := r.idList[memberId]
	if !ok || current.ws != ws {
		return false
	}

	delete(r.idList, memberId)
	return true
}

func (r *repo) GetMemberId(ws *websocket.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memberId, ok := r.connList[ws]
	if !ok {
		return "", connection.ErrNotFound
	}

	return memberId, nil
}

func (r *repo) IsConnected(memberId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.idList[memberId]
	return ok
}

// Write sends v as JSON to the member's connection. Writes to one
// connection are serialized.
func (r *repo) Write(ctx context.Context, memberId string, v any) error {
	r.mu.RLock()
	c, ok := r.idList[memberId]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("failed to write to member %s: %w", memberId, connection.ErrNotFound)
	}

	deadline := time.Now().Add(r.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.ws.WriteJSON(v); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}

	return nil
}
