package errors

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/conneroisu/orbit/internal/escape"
)

// ErrorSeverity represents the severity of a diagnostic
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityFatal
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Diagnostic is a positioned finding about a template that does not
// necessarily stop compilation.
type Diagnostic struct {
	File     string        `json:"file,omitempty" yaml:"file,omitempty"`
	Line     int           `json:"line" yaml:"line"`
	Column   int           `json:"column,omitempty" yaml:"column,omitempty"`
	Code     string        `json:"code,omitempty" yaml:"code,omitempty"`
	Message  string        `json:"message" yaml:"message"`
	Severity ErrorSeverity `json:"severity" yaml:"severity"`
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Severity, d.Message)
}

// DiagnosticFromError converts a pipeline error into an error-severity diagnostic.
func DiagnosticFromError(err error) Diagnostic {
	if te, ok := AsTemplateError(err); ok {
		return Diagnostic{
			File:     te.File,
			Line:     te.Line,
			Column:   te.Column,
			Code:     te.Code,
			Message:  te.Kind.String() + ": " + te.Message,
			Severity: ErrorSeverityError,
		}
	}

	return Diagnostic{Message: err.Error(), Severity: ErrorSeverityError}
}

// ErrorCollector collects template errors and diagnostics
type ErrorCollector struct {
	diagnostics []Diagnostic
	errors      []error
	mutex       sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		diagnostics: make([]Diagnostic, 0),
		errors:      make([]error, 0),
	}
}

// Add adds a diagnostic to the collector
func (ec *ErrorCollector) Add(d Diagnostic) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.diagnostics = append(ec.diagnostics, d)
}

// AddError adds a pipeline error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// Errors returns the collected errors in insertion order.
func (ec *ErrorCollector) Errors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]error, len(ec.errors))
	copy(result, ec.errors)
	return result
}

// First returns the first collected error, or nil.
func (ec *ErrorCollector) First() error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	if len(ec.errors) == 0 {
		return nil
	}
	return ec.errors[0]
}

// Diagnostics returns every diagnostic, including those derived from
// collected errors, ordered by file then line.
func (ec *ErrorCollector) Diagnostics() []Diagnostic {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	result := make([]Diagnostic, 0, len(ec.diagnostics)+len(ec.errors))
	result = append(result, ec.diagnostics...)
	for _, err := range ec.errors {
		result = append(result, DiagnosticFromError(err))
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].File != result[j].File {
			return result[i].File < result[j].File
		}
		return result[i].Line < result[j].Line
	})

	return result
}

// HasErrors returns true if an error or an error-severity diagnostic was collected
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	if len(ec.errors) > 0 {
		return true
	}
	for _, d := range ec.diagnostics {
		if d.Severity >= ErrorSeverityError {
			return true
		}
	}
	return false
}

// Len returns the number of collected entries
func (ec *ErrorCollector) Len() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.diagnostics) + len(ec.errors)
}

// Clear clears all entries
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.diagnostics = ec.diagnostics[:0]
	ec.errors = ec.errors[:0]
}

// ErrorOverlay renders the collected diagnostics as an HTML fragment for
// the preview pages.
func (ec *ErrorCollector) ErrorOverlay() string {
	diagnostics := ec.Diagnostics()
	if len(diagnostics) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div id="orbit-error-overlay" style="font-family: monospace; background: #2d3748; color: #e2e8f0; padding: 16px;">`)
	b.WriteString(`<h2 style="margin: 0 0 12px 0; color: #ff6b6b;">Template Errors</h2>`)

	for _, d := range diagnostics {
		color := "#ff6b6b"
		switch d.Severity {
		case ErrorSeverityWarning:
			color = "#feca57"
		case ErrorSeverityInfo:
			color = "#48dbfb"
		}

		fmt.Fprintf(&b,
			`<div style="border-left: 4px solid %s; padding: 8px; margin-bottom: 8px;"><strong style="color: %s;">%s</strong> %s <span style="color: #a0aec0;">%s:%d</span></div>`,
			color, color, d.Severity, escape.HTML(d.Message), escape.HTML(d.File), d.Line)
	}

	b.WriteString(`</div>`)

	return b.String()
}
