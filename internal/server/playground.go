package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/conneroisu/orbit/internal/compiler"
	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/ir"
	"github.com/conneroisu/orbit/internal/lint"
	"github.com/conneroisu/orbit/internal/preview"
)

// Request asks the playground to compile a template source.
type Request struct {
	ID       string `json:"id,omitempty"`
	Source   string `json:"source"`
	File     string `json:"file,omitempty"`
	Capture  *bool  `json:"capture,omitempty"`
	Deferred bool   `json:"deferred,omitempty"`
}

// Response carries the compiled IR, its s-expression and preview forms,
// and every diagnostic found.
type Response struct {
	Type        string              `json:"type"`
	ID          string              `json:"id,omitempty"`
	IR          []any               `json:"ir,omitempty"`
	Sexp        string              `json:"sexp,omitempty"`
	HTML        string              `json:"html,omitempty"`
	Diagnostics []errors.Diagnostic `json:"diagnostics"`
	Error       string              `json:"error,omitempty"`
}

// compile runs the pipeline over req.Source. Lexer errors are reported in
// accumulate mode; lint findings are added when the source parses.
func (s *Server) compile(ctx context.Context, req Request) Response {
	resp := Response{Type: MessageResult, ID: req.ID}

	capture := s.config.Compiler.Capture
	if req.Capture != nil {
		capture = *req.Capture
	}
	opts := []compiler.Option{
		compiler.WithCapture(capture),
		compiler.WithTempPrefix(s.config.Compiler.TempPrefix),
		compiler.WithFailFast(s.config.Compiler.FailFast),
		compiler.WithFile(req.File),
		compiler.WithLogger(s.logger),
	}

	collector := errors.NewErrorCollector()
	var node ir.Node
	if req.Deferred {
		var err error
		node, err = compiler.Compile(req.Source, append(opts, compiler.WithDeferredErrors(true))...)
		if err != nil {
			collector.AddError(err)
		}
	} else {
		node = compiler.New(opts...).Check(req.Source, collector)
	}

	if root, err := compiler.New(opts...).Parse(req.Source); err == nil {
		for _, d := range lint.Lint(root, lint.WithRegistry(s.registry)) {
			d.File = req.File
			collector.Add(d)
		}
	} else if req.Deferred {
		collector.AddError(err)
	}

	resp.Diagnostics = collector.Diagnostics()
	if node == nil {
		return resp
	}

	resp.IR = ir.Tuple(node)
	resp.Sexp = ir.Format(node)

	var buf bytes.Buffer
	if err := preview.Render(node).Render(ctx, &buf); err != nil {
		resp.Error = "preview: " + err.Error()
	}
	resp.HTML = buf.String()
	return resp
}

// handleCompile is the HTTP form of the websocket compile request.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	body := http.MaxBytesReader(w, r.Body, maxMessageSize)
	if err := json.NewDecoder(body).Decode(&req); err != nil && err != io.EOF {
		s.writeJSON(w, http.StatusBadRequest, Response{Type: MessageResult, Error: "invalid request: " + err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, s.compile(r.Context(), req))
}
