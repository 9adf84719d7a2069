package inmemory

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/listenroom/internal/repository/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pair returns the server side of a websocket and the client dialed to it.
func pair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()

	serverConns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- c
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server := <-serverConns
	t.Cleanup(func() { server.Close() })
	return server, client
}

func newTestRepo() *repo {
	return NewRepo(time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWriteReachesClient(t *testing.T) {
	r := newTestRepo()
	server, client := pair(t)

	require.NoError(t, r.Add(server, "m1"))
	assert.ErrorIs(t, r.Add(server, "m1"), connection.ErrAlreadyExists)

	memberId, err := r.GetMemberId(server)
	require.NoError(t, err)
	assert.Equal(t, "m1", memberId)

	require.NoError(t, r.Write(context.Background(), "m1", map[string]string{"type": "PING"}))

	var got map[string]string
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, "PING", got["type"])

	err = r.Write(context.Background(), "nobody", "x")
	assert.ErrorIs(t, err, connection.ErrNotFound)
}

func TestAddReplacesPreviousConnection(t *testing.T) {
	r := newTestRepo()
	oldServer, oldClient := pair(t)
	newServer, _ := pair(t)

	require.NoError(t, r.Add(oldServer, "m1"))
	require.NoError(t, r.Add(newServer, "m1"))

	_, _, err := oldClient.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	assert.False(t, r.Remove("m1", oldServer), "stale connection must not remove the member")
	assert.True(t, r.IsConnected("m1"))

	assert.True(t, r.Remove("m1", newServer))
	assert.False(t, r.IsConnected("m1"))

	_, err = r.GetMemberId(newServer)
	assert.ErrorIs(t, err, connection.ErrNotFound)
}
