// Package parser builds a syntax tree from a token stream.
//
// Parsing keeps a stack of open nodes, seeded with the root. Tags, blocks
// and block expressions each nest independently: a close token must pop a
// node of its own kind, otherwise parsing fails with a parser error carrying
// the offending token's line.
package parser

import (
	"context"
	"fmt"

	"github.com/conneroisu/orbit/internal/ast"
	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/logging"
	"github.com/conneroisu/orbit/internal/token"
)

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for tracing.
func WithLogger(logger logging.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger.WithComponent("parser")
		}
	}
}

// Parser turns tokens into a tree. A Parser is single use.
type Parser struct {
	tokens []token.Token
	root   *ast.Root
	stack  []ast.Container
	logger logging.Logger
}

// New creates a parser over tokens.
func New(tokens []token.Token, opts ...Option) *Parser {
	root := &ast.Root{}
	p := &Parser{
		tokens: tokens,
		root:   root,
		stack:  []ast.Container{root},
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds the tree for tokens.
func Parse(tokens []token.Token, opts ...Option) (*ast.Root, error) {
	return New(tokens, opts...).Parse()
}

// Parse consumes every token and returns the root. The first structural
// error aborts parsing.
func (p *Parser) Parse() (*ast.Root, error) {
	perf := logging.StartOperation(p.logger, "parse")

	for _, tok := range p.tokens {
		if err := p.consume(tok); err != nil {
			perf.EndWithError(context.Background(), err)
			return nil, err
		}
	}

	if len(p.stack) > 1 {
		open := p.stack[len(p.stack)-1]
		err := errors.NewParserError(errors.ErrCodeUnclosed,
			fmt.Sprintf("unclosed %s at end of input", describe(open)),
			open.Pos().Line).WithLocation(open.Pos().Line, open.Pos().Column)
		perf.EndWithError(context.Background(), err)
		return nil, err
	}

	perf.End(context.Background(), "tokens", len(p.tokens))
	return p.root, nil
}

func (p *Parser) top() ast.Container {
	return p.stack[len(p.stack)-1]
}

func (p *Parser) push(n ast.Container) {
	p.top().AppendChild(n)
	p.stack = append(p.stack, n)
	p.logger.Debug(context.Background(), "push",
		"node", ast.TypeName(n),
		"depth", len(p.stack)-1,
	)
}

// pop removes the innermost open node. The root is never popped; nil is
// returned instead.
func (p *Parser) pop() ast.Container {
	if len(p.stack) == 1 {
		return nil
	}
	n := p.top()
	p.stack = p.stack[:len(p.stack)-1]
	p.logger.Debug(context.Background(), "pop",
		"node", ast.TypeName(n),
		"depth", len(p.stack)-1,
	)
	return n
}

func (p *Parser) consume(tok token.Token) error {
	switch tok.Kind {
	case token.Text:
		p.top().AppendChild(&ast.Text{Content: tok.Value, Position: tok.Pos})
	case token.Newline:
		p.top().AppendChild(&ast.Newline{Position: tok.Pos})
	case token.PublicComment:
		p.top().AppendChild(&ast.PublicComment{Content: tok.Value, Position: tok.Pos})
	case token.PrivateComment:
		p.top().AppendChild(&ast.PrivateComment{Content: tok.Value, Position: tok.Pos})
	case token.TagOpen:
		tag := ast.NewTag(tok)
		if tag.IsSelfClosing() {
			p.top().AppendChild(tag)
			return nil
		}
		p.push(tag)
	case token.TagClose:
		return p.closeTag(tok)
	case token.BlockOpen:
		p.push(&ast.Block{Name: tok.Value, Expression: tok.Expression, Position: tok.Pos})
	case token.BlockClose:
		return p.closeBlock(tok)
	case token.PrintingExpression:
		return p.expression(tok, &ast.PrintingExpression{Expression: tok.Value, Position: tok.Pos})
	case token.ControlExpression:
		return p.expression(tok, &ast.ControlExpression{Expression: tok.Value, Position: tok.Pos})
	default:
		return errors.NewParserError(errors.ErrCodeUnknownNode,
			fmt.Sprintf("unexpected token %s", tok.Kind), tok.Pos.Line).
			WithLocation(tok.Pos.Line, tok.Pos.Column)
	}
	return nil
}

func (p *Parser) closeTag(tok token.Token) error {
	tag, ok := p.top().(*ast.Tag)
	if !ok {
		return unmatched(tok, "closing tag </"+tok.Value+">", p.top())
	}
	if tag.Name != tok.Value {
		return errors.NewParserError(errors.ErrCodeMismatchedClose,
			fmt.Sprintf("closing tag </%s> does not match <%s> opened at %s",
				tok.Value, tag.Name, tag.Pos()),
			tok.Pos.Line).WithLocation(tok.Pos.Line, tok.Pos.Column)
	}
	p.pop()
	return nil
}

func (p *Parser) closeBlock(tok token.Token) error {
	block, ok := p.top().(*ast.Block)
	if !ok {
		return unmatched(tok, "block close {/"+tok.Value+"}", p.top())
	}
	if block.Name != tok.Value {
		return errors.NewParserError(errors.ErrCodeMismatchedClose,
			fmt.Sprintf("block close {/%s} does not match {#%s} opened at %s",
				tok.Value, block.Name, block.Pos()),
			tok.Pos.Line).WithLocation(tok.Pos.Line, tok.Pos.Column)
	}
	p.pop()
	return nil
}

// expression places a printing or control expression. Block-opening
// expressions are pushed; an end expression closes the innermost expression
// block of either kind and is itself dropped.
func (p *Parser) expression(tok token.Token, n ast.Container) error {
	switch {
	case ast.IsBlockOpening(tok.Value):
		p.push(n)
	case ast.IsBlockEnding(tok.Value):
		switch p.top().(type) {
		case *ast.PrintingExpression, *ast.ControlExpression:
			p.pop()
		default:
			return unmatched(tok, fmt.Sprintf("%q", tok.Value), p.top())
		}
	default:
		p.top().AppendChild(n)
	}
	return nil
}

func unmatched(tok token.Token, what string, open ast.Node) error {
	msg := "unmatched " + what
	if _, root := open.(*ast.Root); !root {
		msg += ", innermost open node is " + describe(open)
	}
	return errors.NewParserError(errors.ErrCodeUnmatchedClose, msg, tok.Pos.Line).
		WithLocation(tok.Pos.Line, tok.Pos.Column)
}

func describe(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Tag:
		return fmt.Sprintf("Tag <%s> opened at %s", n.Name, n.Pos())
	case *ast.Block:
		return fmt.Sprintf("Block {#%s} opened at %s", n.Name, n.Pos())
	case *ast.PrintingExpression:
		return fmt.Sprintf("PrintingExpression %q opened at %s", n.Expression, n.Pos())
	case *ast.ControlExpression:
		return fmt.Sprintf("ControlExpression %q opened at %s", n.Expression, n.Pos())
	default:
		return ast.TypeName(n)
	}
}
