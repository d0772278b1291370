package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/orbit/internal/config"
	"github.com/conneroisu/orbit/internal/registry"
	"github.com/conneroisu/orbit/internal/watcher"
)

const testOrigin = "http://localhost:8080"

type testEnv struct {
	root    string
	server  *Server
	builder *watcher.Builder
	http    *httptest.Server
}

// newTestEnv writes files into a temporary template root, scans them and
// serves the playground over httptest with its hub running.
func newTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := config.Default()
	cfg.Files.Paths = []string{root}
	reg := registry.NewComponentRegistry(cfg.Components)
	builder := watcher.NewBuilder(cfg, reg, nil)
	_, err := builder.Scan(context.Background())
	require.NoError(t, err)

	s := New(cfg, reg, builder, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go s.runWebSocketHub(ctx)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return &testEnv{root: root, server: s, builder: builder, http: ts}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(e.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNew(t *testing.T) {
	cfg := config.Default()
	s := New(cfg, registry.NewComponentRegistry(cfg.Components), nil, nil)

	assert.Equal(t, "localhost:8080", s.Addr())
	assert.Equal(t, 0, s.ClientCount())
}

func TestIsAllowedOrigin(t *testing.T) {
	cfg := config.Default()
	s := New(cfg, registry.NewComponentRegistry(cfg.Components), nil, nil)

	assert.True(t, s.isAllowedOrigin("http://localhost:8080"))
	assert.True(t, s.isAllowedOrigin("http://127.0.0.1:8080"))
	assert.False(t, s.isAllowedOrigin(""))
	assert.False(t, s.isAllowedOrigin("http://evil.example"))

	cfg.Server.AllowedOrigins = []string{"*"}
	assert.True(t, s.isAllowedOrigin("http://anything.example"))
}

func TestHandleIndex(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "<title>Orbit Playground</title>")

	resp, _ = env.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"card.orb":   `<div class="card">{{ title }}</div>`,
		"broken.orb": `<div>`,
	})

	resp, body := env.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.EqualValues(t, 2, health["components"])
	assert.EqualValues(t, 1, health["failed"])
	assert.EqualValues(t, 0, health["clients"])
	assert.NotEmpty(t, health["version"])
}

func TestHandleComponents(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"page.orb":   `<Layout><p>hi</p></Layout>`,
		"layout.orb": `<main>{{ content }}</main>`,
	})

	resp, body := env.get(t, "/api/components")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summaries []ComponentSummary
	require.NoError(t, json.Unmarshal([]byte(body), &summaries))
	require.Len(t, summaries, 2)

	assert.Equal(t, "Layout", summaries[0].Name)
	assert.Empty(t, summaries[0].Dependencies)
	assert.Equal(t, []string{"Page"}, summaries[0].Dependents)

	assert.Equal(t, "Page", summaries[1].Name)
	assert.Equal(t, []string{"Layout"}, summaries[1].Dependencies)
	assert.Equal(t, filepath.Join(env.root, "page.orb"), summaries[1].FilePath)
}

func TestHandlePreview(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"card.orb":   `<div class="card">{{ title }}</div>`,
		"broken.orb": "<p>\n<div>",
	})

	resp, body := env.get(t, "/preview/Card")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<title>Card - Orbit Preview</title>")
	assert.Contains(t, body, `<div class="card"><orbit-expr>{title}</orbit-expr></div>`)

	resp, body = env.get(t, "/preview/Broken")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ParserError")

	resp, _ = env.get(t, "/preview/Missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.get(t, "/preview/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/health", "/api/components", "/preview/Card"} {
		resp, err := http.Post(env.http.URL+path, "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, path)
	}
}

func TestCORSHeaders(t *testing.T) {
	env := newTestEnv(t, nil)

	req, err := http.NewRequest(http.MethodOptions, env.http.URL+"/api/compile", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", testOrigin)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = 0
	s := New(cfg, registry.NewComponentRegistry(cfg.Components), nil, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		s.serverMutex.RLock()
		defer s.serverMutex.RUnlock()
		return s.httpServer != nil
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
