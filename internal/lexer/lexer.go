// Package lexer converts template source into a flat sequence of positioned
// tokens.
//
// The lexer is a finite-state machine that extends HTML tokenization with
// the template delimiters:
//
//	<Name ...> </Name>       element and component tags
//	<Name$> ... </Name$>     verbatim tags, body kept as raw text
//	<!-- ... -->             public comment, rendered
//	{!-- ... --}             private comment, dropped
//	{{ expr }}               printing expression
//	{% expr %}               control expression
//	{#name expr} {/name}     blocks
//
// The input is consumed left to right through a single cursor; there is no
// backtracking across tokens. A Lexer holds per-invocation state and must not
// be shared between goroutines.
package lexer

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/logging"
	"github.com/conneroisu/orbit/internal/token"
)

// Option configures a Lexer.
type Option func(*Lexer)

// WithStart sets the position of the first character, for templates
// embedded in a larger host document.
func WithStart(line, column int) Option {
	return func(l *Lexer) {
		if line > 0 {
			l.line = line
		}
		if column > 0 {
			l.column = column
		}
	}
}

// WithFailFast controls whether the first error stops lexing (the default)
// or errors are accumulated while the lexer resynchronises.
func WithFailFast(failFast bool) Option {
	return func(l *Lexer) {
		l.failFast = failFast
	}
}

// WithLogger sets the logger used for tracing.
func WithLogger(logger logging.Logger) Option {
	return func(l *Lexer) {
		if logger != nil {
			l.logger = logger.WithComponent("lexer")
		}
	}
}

// Lexer tokenizes a single source string.
type Lexer struct {
	src      string
	offset   int
	line     int
	column   int
	state    state
	failFast bool
	logger   logging.Logger

	tokens []token.Token
	errs   []error

	buf      strings.Builder
	bufStart token.Position
	start    token.Position

	tagName     string
	verbatim    bool
	attrs       []token.Attribute
	attrName    string
	attrStart   token.Position
	braceDepth  int
	embedded    bool
	nameDone    bool
	blockName   string
	verbatimTag string
}

// New creates a lexer for src.
func New(src string, opts ...Option) *Lexer {
	l := &Lexer{
		src:      src,
		line:     1,
		column:   1,
		state:    stateInitial,
		failFast: true,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tokenize lexes src and returns the tokens together with every error
// encountered. In fail-fast mode (the default) at most one error is
// returned and the tokens stop where it occurred.
func Tokenize(src string, opts ...Option) ([]token.Token, []error) {
	l := New(src, opts...)
	_ = l.Run()
	return l.Tokens(), l.Errors()
}

// Tokens returns the tokens emitted so far.
func (l *Lexer) Tokens() []token.Token {
	return l.tokens
}

// Errors returns the errors recorded so far.
func (l *Lexer) Errors() []error {
	return l.errs
}

// Run consumes the whole input. It returns the first error, which in
// fail-fast mode is also the reason lexing stopped.
func (l *Lexer) Run() error {
	perf := logging.StartOperation(l.logger, "tokenize")

	for l.offset < len(l.src) {
		if err := l.step(); err != nil {
			l.errs = append(l.errs, err)
			if l.failFast {
				perf.EndWithError(context.Background(), err)
				return err
			}
		}
	}

	if err := l.finish(); err != nil {
		l.errs = append(l.errs, err)
	}

	perf.End(context.Background(), "tokens", len(l.tokens), "errors", len(l.errs))

	if len(l.errs) > 0 {
		return l.errs[0]
	}
	return nil
}

func (l *Lexer) pos() token.Position {
	return token.Position{Line: l.line, Column: l.column}
}

// peek returns the rune under the cursor, eof at end of input, or
// invalidByte when the cursor is on a byte that is not valid UTF-8.
func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

// peekAt returns the rune n bytes after the cursor.
func (l *Lexer) peekAt(n int) rune {
	if l.offset+n >= len(l.src) {
		return eof
	}
	r, size := utf8.DecodeRuneInString(l.src[l.offset+n:])
	if r == utf8.RuneError && size == 1 {
		return invalidByte
	}
	return r
}

// runeLen is the byte length of the rune under the cursor.
func (l *Lexer) runeLen() int {
	_, size := utf8.DecodeRuneInString(l.src[l.offset:])
	return size
}

func (l *Lexer) hasPrefix(prefix string) bool {
	return strings.HasPrefix(l.src[l.offset:], prefix)
}

// newlineLen returns the byte length of the newline sequence under the
// cursor, or 0.
func (l *Lexer) newlineLen() int {
	switch {
	case l.hasPrefix("\r\n"):
		return 2
	case l.hasPrefix("\n"), l.hasPrefix("\r"):
		return 1
	default:
		return 0
	}
}

// advance moves the cursor over n bytes, keeping line and column exact.
func (l *Lexer) advance(n int) {
	end := l.offset + n
	for l.offset < end && l.offset < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.offset:])
		l.offset += size
		switch {
		case r == '\n':
			l.line++
			l.column = 1
		case r == '\r' && l.peek() != '\n':
			l.line++
			l.column = 1
		case r == '\r':
		default:
			l.column++
		}
	}
}

// consume buffers the source bytes of the rune under the cursor and
// advances past it. Invalid UTF-8 is kept as is.
func (l *Lexer) consume() {
	size := l.runeLen()
	if l.buf.Len() == 0 {
		l.bufStart = l.pos()
	}
	l.buf.WriteString(l.src[l.offset : l.offset+size])
	l.advance(size)
}

// take returns and resets the buffer.
func (l *Lexer) take() string {
	s := l.buf.String()
	l.buf.Reset()
	return s
}

func (l *Lexer) emit(tok token.Token) {
	l.tokens = append(l.tokens, tok)
}

// flushText emits buffered literal text, if any.
func (l *Lexer) flushText() {
	if l.buf.Len() == 0 {
		return
	}
	start := l.bufStart
	l.emit(token.Token{Kind: token.Text, Value: l.take(), Pos: start})
}

// emitNewline emits the newline sequence under the cursor.
func (l *Lexer) emitNewline(n int) {
	l.emit(token.Token{Kind: token.Newline, Value: l.src[l.offset : l.offset+n], Pos: l.pos()})
	l.advance(n)
}

func (l *Lexer) transition(to state) {
	l.logger.Debug(context.Background(), "state transition",
		"from", l.state.String(), "to", to.String(), "line", l.line, "column", l.column)
	l.state = to
}

// begin starts a delimited construct: it flushes pending text, remembers
// the construct start, skips the opening delimiter and switches state.
func (l *Lexer) begin(delimiter int, to state) {
	l.flushText()
	l.start = l.pos()
	l.braceDepth = 0
	l.advance(delimiter)
	l.transition(to)
}

func (l *Lexer) invalidCharacter(r rune) error {
	err := errors.NewSyntaxError(errors.ErrCodeInvalidCharacter,
		fmt.Sprintf("invalid character %s in %s", describe(r), l.state), l.line, l.column)
	if !l.failFast && r != eof {
		l.advance(l.runeLen())
	}
	return err
}

func describe(r rune) string {
	switch r {
	case eof:
		return "end of input"
	case invalidByte:
		return "invalid UTF-8 byte"
	case '\n', '\r':
		return "newline"
	default:
		return fmt.Sprintf("%q", r)
	}
}

// finish handles end of input in the current state.
func (l *Lexer) finish() error {
	switch l.state {
	case stateInitial:
		l.flushText()
		return nil
	case stateVerbatim:
		l.flushText()
		return errors.NewSyntaxError(errors.ErrCodeUnclosed,
			fmt.Sprintf("unterminated verbatim tag <%s$>", l.verbatimTag), l.start.Line, l.start.Column)
	case stateAttributeValueSingle, stateAttributeValueDouble:
		return errors.NewSyntaxError(errors.ErrCodeUnterminated,
			fmt.Sprintf("unterminated quoted value for attribute %q", l.attrName), l.attrStart.Line, l.attrStart.Column)
	case stateAttributeValueExpression:
		return errors.NewSyntaxError(errors.ErrCodeUnterminated,
			fmt.Sprintf("unterminated expression for attribute %q", l.attrName), l.attrStart.Line, l.attrStart.Column)
	case statePrintingExpression, stateControlExpression, stateBlockOpenContent:
		return errors.NewSyntaxError(errors.ErrCodeUnterminated,
			"unterminated expression", l.start.Line, l.start.Column)
	case statePublicComment, statePrivateComment:
		return errors.NewSyntaxError(errors.ErrCodeUnterminated,
			"unterminated comment", l.start.Line, l.start.Column)
	default:
		return errors.NewSyntaxError(errors.ErrCodeUnexpectedEOF,
			fmt.Sprintf("unexpected end of input in %s", l.state), l.line, l.column)
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

func isTagNameStart(r rune) bool {
	return r >= 0 && unicode.IsLetter(r)
}

func isTagNameChar(r rune) bool {
	return r >= 0 && (unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == '-' || r == '_' || r == '.' || r == ':' || r == '$')
}

func isAttributeNameChar(r rune) bool {
	if r < 0 || isSpace(r) || unicode.IsControl(r) {
		return false
	}
	switch r {
	case '"', '\'', '<', '>', '=', '/', '{', '}', '`':
		return false
	}
	return true
}

func isBlockNameChar(r rune) bool {
	return r >= 0 && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}
