// Package server runs the orbit playground: an HTTP server whose websocket
// endpoint compiles template sources on demand and pushes watcher build
// results to every connected browser.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/orbit/internal/config"
	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/logging"
	"github.com/conneroisu/orbit/internal/preview"
	"github.com/conneroisu/orbit/internal/registry"
	"github.com/conneroisu/orbit/internal/version"
	"github.com/conneroisu/orbit/internal/watcher"
)

// Client represents a WebSocket client
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// Server serves the playground and live build updates.
type Server struct {
	config     *config.Config
	registry   *registry.ComponentRegistry
	builder    *watcher.Builder
	logger     logging.Logger
	httpServer *http.Server
	// serverMutex protects httpServer.
	serverMutex  sync.RWMutex
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn
	done         chan struct{}
	shutdownOnce sync.Once
}

// UpdateMessage is pushed to every client when a template is rebuilt.
type UpdateMessage struct {
	Type        string              `json:"type"`
	Target      string              `json:"target,omitempty"`
	Path        string              `json:"path,omitempty"`
	Diagnostics []errors.Diagnostic `json:"diagnostics,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}

// Message types.
const (
	MessageBuildSuccess = "build_success"
	MessageBuildError   = "build_error"
	MessageRemoved      = "removed"
	MessageResult       = "result"
)

// New creates a playground server. builder may be nil, in which case no
// build updates are pushed and template previews are unavailable.
func New(cfg *config.Config, reg *registry.ComponentRegistry, builder *watcher.Builder, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		config:     cfg,
		registry:   reg,
		builder:    builder,
		logger:     logger.WithComponent("server"),
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
	if builder != nil {
		builder.OnResult(s.handleBuildResult)
	}
	return s
}

// Handler returns the HTTP routes wrapped in the CORS and logging
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/compile", s.handleCompile)
	mux.HandleFunc("/api/components", s.handleComponents)
	mux.HandleFunc("/preview/", s.handlePreview)
	mux.HandleFunc("/", s.handleIndex)
	return s.addMiddleware(mux)
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
}

// Start runs the websocket hub and serves HTTP until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	go s.runWebSocketHub(ctx)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Playground listening", "addr", "http://"+s.Addr())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown closes every client and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")
		close(s.done)

		s.clientsMutex.Lock()
		for conn, client := range s.clients {
			close(client.send)
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		s.clients = make(map[*websocket.Conn]*Client)
		s.clientsMutex.Unlock()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

func (s *Server) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Handled request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}

func (s *Server) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range s.config.Server.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

func (s *Server) broadcastMessage(msg UpdateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error(context.Background(), err, "Failed to marshal message")
		return
	}

	select {
	case s.broadcast <- data:
	case <-s.done:
	}
}

func (s *Server) handleBuildResult(result *watcher.Result) {
	msg := UpdateMessage{
		Type:        MessageBuildSuccess,
		Target:      result.Component,
		Path:        result.Path,
		Diagnostics: result.Diagnostics,
		Timestamp:   time.Now(),
	}
	switch {
	case result.Removed:
		msg.Type = MessageRemoved
	case result.Failed():
		msg.Type = MessageBuildError
	}
	s.broadcastMessage(msg)
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	failed := 0
	if s.builder != nil {
		for _, result := range s.builder.Results() {
			if result.Failed() {
				failed++
			}
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"version":    version.GetShortVersion(),
		"components": s.registry.Count(),
		"clients":    s.ClientCount(),
		"failed":     failed,
	})
}

// ComponentSummary describes a registered component.
type ComponentSummary struct {
	Name         string   `json:"name"`
	FilePath     string   `json:"file_path,omitempty"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	all := s.registry.GetAll()
	summaries := make([]ComponentSummary, 0, len(all))
	for name, info := range all {
		summary := ComponentSummary{
			Name:         name,
			FilePath:     info.FilePath,
			Dependencies: append([]string{}, info.Dependencies...),
			Dependents:   []string{},
		}
		for _, dependent := range s.registry.GetDependents(name) {
			summary.Dependents = append(summary.Dependents, dependent.Name)
		}
		sort.Strings(summary.Dependents)
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })

	s.writeJSON(w, http.StatusOK, summaries)
}

// handlePreview renders the last build of a component as a standalone page.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/preview/")
	if s.builder == nil || name == "" {
		http.NotFound(w, r)
		return
	}

	for _, result := range s.builder.Results() {
		if result.Component != name {
			continue
		}
		collector := errors.NewErrorCollector()
		for _, d := range result.Diagnostics {
			collector.Add(d)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		page := preview.New(preview.WithLogger(s.logger)).Page(name, result.IR, collector.ErrorOverlay())
		if err := page.Render(r.Context(), w); err != nil {
			s.logger.Warn(r.Context(), err, "Failed to render preview", "component", name)
		}
		return
	}
	http.NotFound(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(playgroundPage)); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to write playground page")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn(context.Background(), err, "Failed to encode JSON response")
	}
}
