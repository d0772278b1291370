package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", issue.Field, issue.Message))
			for _, suggestion := range issue.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	write("Validation errors", vr.Errors)
	write("Validation warnings", vr.Warnings)

	return builder.String()
}

// ValidateWithDetails checks a loaded configuration and reports problems
// that Load tolerates, such as missing template directories.
func ValidateWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateCompilerDetails(&config.Compiler, result)
	validateFilesDetails(&config.Files, result)
	validateServerDetails(&config.Server, result)

	result.Valid = !result.HasErrors()

	return result
}

func validateCompilerDetails(config *CompilerConfig, result *ValidationResult) {
	if config.DeferredErrors && !config.FailFast {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "compiler.deferred_errors",
			Value:   config.DeferredErrors,
			Message: "only the first lexer error is deferred when fail_fast is off",
			Suggestions: []string{
				"Use 'orbit check' to list every error",
			},
		})
	}
}

func validateFilesDetails(config *FilesConfig, result *ValidationResult) {
	existing := 0
	for _, path := range config.Paths {
		if _, err := os.Stat(path); err == nil {
			existing++
			continue
		}
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "files.paths",
			Value:   path,
			Message: fmt.Sprintf("template directory '%s' does not exist", path),
			Suggestions: []string{
				fmt.Sprintf("Create the directory: mkdir -p %s", path),
				"Remove it from files.paths",
			},
		})
	}

	if len(config.Paths) > 0 && existing == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "files.paths",
			Value:   config.Paths,
			Message: "none of the template directories exist",
			Suggestions: []string{
				"Pass template files as arguments instead",
			},
		})
	}
}

func validateServerDetails(config *ServerConfig, result *ValidationResult) {
	if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
			Suggestions: []string{
				"Consider using a port above 1024 for development",
			},
		})
	}

	if config.Host != "localhost" && net.ParseIP(config.Host) == nil {
		if _, err := net.LookupHost(config.Host); err != nil {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "server.host",
				Value:   config.Host,
				Message: fmt.Sprintf("host '%s' does not resolve", config.Host),
				Suggestions: []string{
					"Use 'localhost' for local development",
				},
			})
		}
	}

	for _, origin := range config.AllowedOrigins {
		if origin == "*" {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "server.allowed_origins",
				Value:   origin,
				Message: "wildcard origin accepts websocket connections from any site",
			})
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.allowed_origins",
				Value:   origin,
				Message: fmt.Sprintf("origin '%s' is not scheme://host[:port]", origin),
			})
		}
	}
}
