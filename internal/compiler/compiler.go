// Package compiler lowers syntax trees into IR and runs the whole
// source-to-IR pipeline.
//
// Lowering is a pure transform: directive handling works on stripped copies
// of tags, so one parsed tree may be lowered any number of times, including
// concurrently by separate Compiler instances. A single Compiler is not safe
// for concurrent use because it owns the temporary-name counter.
package compiler

import (
	"context"
	"fmt"

	"github.com/conneroisu/orbit/internal/ast"
	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/ir"
	"github.com/conneroisu/orbit/internal/lexer"
	"github.com/conneroisu/orbit/internal/logging"
	"github.com/conneroisu/orbit/internal/parser"
)

// DefaultTempPrefix prefixes generated temporary identifiers.
const DefaultTempPrefix = "__orbit_tmp"

// Option configures a Compiler.
type Option func(*Compiler)

// WithCapture controls whether printing blocks render their body into a
// separate buffer. It is enabled by default.
func WithCapture(capture bool) Option {
	return func(c *Compiler) {
		c.capture = capture
	}
}

// WithTempPrefix sets the prefix of generated temporaries.
func WithTempPrefix(prefix string) Option {
	return func(c *Compiler) {
		if prefix != "" {
			c.tempPrefix = prefix
		}
	}
}

// WithDeferredErrors turns lexer and parser errors into an IR fragment that
// raises at render time on the offending line, instead of failing Compile.
func WithDeferredErrors(deferred bool) Option {
	return func(c *Compiler) {
		c.deferred = deferred
	}
}

// WithFailFast controls whether lexing stops at the first error (the
// default). With it off the lexer resynchronises and ParseAll reports every
// lexer error; Compile and Parse still return only the first.
func WithFailFast(failFast bool) Option {
	return func(c *Compiler) {
		c.failFast = failFast
	}
}

// WithStart sets the source position of the first character.
func WithStart(line, column int) Option {
	return func(c *Compiler) {
		if line > 0 {
			c.startLine = line
		}
		if column > 0 {
			c.startColumn = column
		}
	}
}

// WithFile names the template in error messages.
func WithFile(file string) Option {
	return func(c *Compiler) {
		c.file = file
	}
}

// WithLogger sets the logger passed down the pipeline.
func WithLogger(logger logging.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.baseLogger = logger
			c.logger = logger.WithComponent("compiler")
		}
	}
}

// Compiler lowers trees and compiles sources.
type Compiler struct {
	capture     bool
	tempPrefix  string
	deferred    bool
	failFast    bool
	startLine   int
	startColumn int
	file        string
	baseLogger  logging.Logger
	logger      logging.Logger

	temps int
}

// New creates a compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		capture:     true,
		tempPrefix:  DefaultTempPrefix,
		failFast:    true,
		startLine:   1,
		startColumn: 1,
		baseLogger:  logging.Nop(),
		logger:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile runs lexer, parser and lowering over src with a fresh Compiler.
func Compile(src string, opts ...Option) (ir.Node, error) {
	return New(opts...).Compile(src)
}

// Compile runs lexer, parser and lowering over src. The first error stops
// the pipeline unless deferred errors are enabled, in which case lexer and
// parser errors are returned as a raising IR fragment.
func (c *Compiler) Compile(src string) (ir.Node, error) {
	perf := logging.StartOperation(c.logger, "compile")

	root, err := c.Parse(src)
	if err != nil {
		return c.fail(perf, err)
	}

	node, err := c.Lower(root)
	if err != nil {
		perf.EndWithError(context.Background(), err)
		return nil, c.withFile(err)
	}

	perf.End(context.Background(), "nodes", len(root.Children()), "temps", c.temps)
	return node, nil
}

// Parse lexes and parses src and returns the first error. Errors carry the
// configured file name.
func (c *Compiler) Parse(src string) (*ast.Root, error) {
	root, errs := c.ParseAll(src)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return root, nil
}

// ParseAll lexes and parses src. In fail-fast mode at most one error is
// returned; otherwise every lexer error is. The parser only runs when
// lexing succeeded.
func (c *Compiler) ParseAll(src string) (*ast.Root, []error) {
	tokens, errs := lexer.Tokenize(src, c.lexerOptions(c.failFast)...)
	if len(errs) > 0 {
		out := make([]error, len(errs))
		for i, err := range errs {
			out[i] = c.withFile(err)
		}
		return nil, out
	}

	root, err := parser.Parse(tokens, parser.WithLogger(c.baseLogger))
	if err != nil {
		return nil, []error{c.withFile(err)}
	}
	return root, nil
}

// Check compiles src collecting every error instead of stopping at the
// first one. The lexer runs in accumulate mode; parsing and lowering run
// only when lexing succeeded. The IR is nil when any error was collected.
func (c *Compiler) Check(src string, collector *errors.ErrorCollector) ir.Node {
	tokens, errs := lexer.Tokenize(src, c.lexerOptions(false)...)
	if len(errs) > 0 {
		for _, err := range errs {
			collector.AddError(c.withFile(err))
		}
		return nil
	}

	root, err := parser.Parse(tokens, parser.WithLogger(c.baseLogger))
	if err != nil {
		collector.AddError(c.withFile(err))
		return nil
	}

	node, err := c.Lower(root)
	if err != nil {
		collector.AddError(c.withFile(err))
		return nil
	}
	return node
}

func (c *Compiler) lexerOptions(failFast bool) []lexer.Option {
	return []lexer.Option{
		lexer.WithStart(c.startLine, c.startColumn),
		lexer.WithFailFast(failFast),
		lexer.WithLogger(c.baseLogger),
	}
}

func (c *Compiler) fail(perf *logging.PerfLogger, err error) (ir.Node, error) {
	err = c.withFile(err)
	perf.EndWithError(context.Background(), err)
	if !c.deferred {
		return nil, err
	}

	c.logger.Warn(context.Background(), err, "deferring error to render time")
	return c.raise(err), nil
}

// raise builds the deferred-error fragment: newlines pad the output up to
// the error's line so the host reports it at the right place.
func (c *Compiler) raise(err error) ir.Node {
	kind := "Error"
	message := err.Error()
	line := c.startLine
	if te, ok := errors.AsTemplateError(err); ok {
		kind = te.Kind.String()
		message = te.Message
		if te.Line > 0 {
			line = te.Line
		}
	}

	out := &ir.Multi{}
	for i := c.startLine; i < line; i++ {
		out.Nodes = append(out.Nodes, &ir.Newline{})
	}
	out.Nodes = append(out.Nodes, &ir.Raise{Kind: kind, Message: message, Line: line})
	return out
}

func (c *Compiler) withFile(err error) error {
	if c.file == "" {
		return err
	}
	if te, ok := errors.AsTemplateError(err); ok && te.File == "" {
		cp := *te
		return cp.WithFile(c.file)
	}
	return err
}

func (c *Compiler) nextTemp() string {
	c.temps++
	return fmt.Sprintf("%s%d", c.tempPrefix, c.temps)
}

// Lower converts a tree into IR.
func (c *Compiler) Lower(node ast.Node) (ir.Node, error) {
	return c.lower(node)
}
