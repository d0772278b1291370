// Package errors defines the positioned error taxonomy shared by the lexer,
// parser and compiler, plus a race-safe collector used when errors are
// accumulated instead of aborting the pipeline.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the pipeline stage that produced an error.
type Kind string

const (
	KindSyntax   Kind = "syntax"
	KindParser   Kind = "parser"
	KindCompiler Kind = "compiler"
)

// String returns the conventional error class name for the kind.
func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindParser:
		return "ParserError"
	case KindCompiler:
		return "CompilerError"
	default:
		return "Error"
	}
}

// Common error codes.
const (
	ErrCodeUnexpectedEOF    = "ERR_UNEXPECTED_EOF"
	ErrCodeInvalidCharacter = "ERR_INVALID_CHARACTER"
	ErrCodeUnterminated     = "ERR_UNTERMINATED"
	ErrCodeUnmatchedClose   = "ERR_UNMATCHED_CLOSE"
	ErrCodeMismatchedClose  = "ERR_MISMATCHED_CLOSE"
	ErrCodeUnclosed         = "ERR_UNCLOSED"
	ErrCodeUnknownNode      = "ERR_UNKNOWN_NODE"
	ErrCodeUnknownBlock     = "ERR_UNKNOWN_BLOCK"
	ErrCodeInvalidDirective = "ERR_INVALID_DIRECTIVE"
)

// Sentinels for errors.Is comparisons by kind.
var (
	ErrSyntax   = &TemplateError{Kind: KindSyntax}
	ErrParser   = &TemplateError{Kind: KindParser}
	ErrCompiler = &TemplateError{Kind: KindCompiler}
)

// TemplateError is a positioned error raised while compiling a template.
type TemplateError struct {
	Kind    Kind
	Code    string
	Message string
	File    string
	Line    int
	Column  int
	Cause   error
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	var parts []string

	if e.File != "" || e.Line > 0 {
		location := e.File
		if e.Line > 0 {
			if location != "" {
				location += ":"
			}
			location += fmt.Sprintf("%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location+":")
	}

	parts = append(parts, e.Kind.String()+":", e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// Is matches on kind, and on code when the target carries one.
func (e *TemplateError) Is(target error) bool {
	var t *TemplateError
	if !errors.As(target, &t) {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}

	return t.Code == "" || e.Code == t.Code
}

// WithFile attaches the template path the error was found in.
func (e *TemplateError) WithFile(file string) *TemplateError {
	e.File = file

	return e
}

// WithLocation sets the line and column of the error.
func (e *TemplateError) WithLocation(line, column int) *TemplateError {
	e.Line = line
	e.Column = column

	return e
}

// NewSyntaxError creates a lexer-level error.
func NewSyntaxError(code, message string, line, column int) *TemplateError {
	return &TemplateError{
		Kind:    KindSyntax,
		Code:    code,
		Message: message,
		Line:    line,
		Column:  column,
	}
}

// NewParserError creates a structural error.
func NewParserError(code, message string, line int) *TemplateError {
	return &TemplateError{
		Kind:    KindParser,
		Code:    code,
		Message: message,
		Line:    line,
	}
}

// NewCompilerError creates a lowering error.
func NewCompilerError(code, message string, line int) *TemplateError {
	return &TemplateError{
		Kind:    KindCompiler,
		Code:    code,
		Message: message,
		Line:    line,
	}
}

// IsSyntaxError reports whether err is a lexer error.
func IsSyntaxError(err error) bool {
	return errors.Is(err, ErrSyntax)
}

// IsParserError reports whether err is a parser error.
func IsParserError(err error) bool {
	return errors.Is(err, ErrParser)
}

// IsCompilerError reports whether err is a compiler error.
func IsCompilerError(err error) bool {
	return errors.Is(err, ErrCompiler)
}

// AsTemplateError extracts the TemplateError from an error chain.
func AsTemplateError(err error) (*TemplateError, bool) {
	var te *TemplateError
	if errors.As(err, &te) {
		return te, true
	}

	return nil, false
}
