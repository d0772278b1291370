package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, env *testEnv, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws"
	opts := &websocket.DialOptions{}
	if origin != "" {
		opts.HTTPHeader = http.Header{"Origin": {origin}}
	}
	return websocket.Dial(ctx, url, opts)
}

func roundTrip(t *testing.T, conn *websocket.Conn, payload []byte) Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestWebSocketCompile(t *testing.T) {
	env := newTestEnv(t, nil)
	conn, _, err := dial(t, env, testOrigin)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	payload, err := json.Marshal(Request{ID: "1", Source: "<p>{{ name }}</p>"})
	require.NoError(t, err)
	resp := roundTrip(t, conn, payload)

	assert.Equal(t, MessageResult, resp.Type)
	assert.Equal(t, "1", resp.ID)
	assert.Empty(t, resp.Error)
	assert.Empty(t, resp.Diagnostics)
	assert.Contains(t, resp.Sexp, `(escape true (dynamic "name"))`)
	assert.Equal(t, "<p><orbit-expr>{name}</orbit-expr></p>", resp.HTML)
	assert.NotEmpty(t, resp.IR)
	assert.Equal(t, 1, env.server.ClientCount())
}

func TestWebSocketInvalidRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	conn, _, err := dial(t, env, testOrigin)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	resp := roundTrip(t, conn, []byte("{not json"))
	assert.Equal(t, MessageResult, resp.Type)
	assert.True(t, strings.HasPrefix(resp.Error, "invalid request: "), resp.Error)

	// The connection stays usable after a bad request.
	payload, err := json.Marshal(Request{ID: "2", Source: "ok"})
	require.NoError(t, err)
	resp = roundTrip(t, conn, payload)
	assert.Equal(t, "2", resp.ID)
	assert.Empty(t, resp.Error)
}

func TestWebSocketOrigin(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name   string
		origin string
	}{
		{name: "missing origin", origin: ""},
		{name: "unlisted origin", origin: "http://evil.example"},
		{name: "non-http scheme", origin: "file://localhost:8080"},
		{name: "listed host with other port", origin: "http://localhost:9999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := dial(t, env, tt.origin)
			require.Error(t, err)
			if conn != nil {
				conn.Close(websocket.StatusNormalClosure, "")
			}
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}

	conn, _, err := dial(t, env, "http://127.0.0.1:8080")
	require.NoError(t, err)
	conn.Close(websocket.StatusNormalClosure, "")
}

func TestWebSocketBroadcastsBuildResults(t *testing.T) {
	env := newTestEnv(t, map[string]string{"card.orb": `<div class="card"/>`})
	conn, _, err := dial(t, env, testOrigin)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// A reply proves the hub has registered the client.
	payload, err := json.Marshal(Request{ID: "sync", Source: "x"})
	require.NoError(t, err)
	roundTrip(t, conn, payload)

	readUpdate := func() UpdateMessage {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg UpdateMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	path := filepath.Join(env.root, "card.orb")
	env.builder.Build(context.Background(), path)
	msg := readUpdate()
	assert.Equal(t, MessageBuildSuccess, msg.Type)
	assert.Equal(t, "Card", msg.Target)
	assert.Equal(t, path, msg.Path)

	writeTemplate(t, path, "<div>")
	env.builder.Build(context.Background(), path)
	msg = readUpdate()
	assert.Equal(t, MessageBuildError, msg.Type)
	require.NotEmpty(t, msg.Diagnostics)
	assert.Contains(t, msg.Diagnostics[0].Message, "ParserError")

	env.builder.Remove(path)
	msg = readUpdate()
	assert.Equal(t, MessageRemoved, msg.Type)
	assert.Equal(t, "Card", msg.Target)
}

func TestWebSocketClosedOnShutdown(t *testing.T) {
	env := newTestEnv(t, nil)
	conn, _, err := dial(t, env, testOrigin)
	require.NoError(t, err)

	payload, err := json.Marshal(Request{ID: "sync", Source: "x"})
	require.NoError(t, err)
	roundTrip(t, conn, payload)

	readErr := make(chan error, 1)
	go func() {
		_, _, err := conn.Read(context.Background())
		readErr <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, env.server.Shutdown(ctx))
	assert.Equal(t, 0, env.server.ClientCount())

	select {
	case err := <-readErr:
		assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
	case <-ctx.Done():
		t.Fatal("client was not closed")
	}
}
