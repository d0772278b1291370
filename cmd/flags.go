package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/orbit/internal/config"
	"github.com/conneroisu/orbit/internal/ir"
)

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Compiler flags
	Capture    bool
	Deferred   bool
	FailFast   bool
	TempPrefix string
	File       string

	// Output flags
	Format string
	Output string

	// Server flags
	Port int
	Host string
}

// AddStandardFlags adds the named flag groups to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "compiler":
			addCompilerFlags(cmd, flags)
		case "output":
			addOutputFlags(cmd, flags)
		case "server":
			addServerFlags(cmd, flags)
		}
	}

	return flags
}

func addCompilerFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().BoolVar(&flags.Capture, "capture", config.Default().Compiler.Capture, "Wrap printing block bodies in a capture")
	cmd.Flags().BoolVar(&flags.Deferred, "deferred", false, "Embed lexer and parser errors in the IR instead of failing")
	cmd.Flags().BoolVar(&flags.FailFast, "fail-fast", config.Default().Compiler.FailFast, "Stop lexing a template at its first error")
	cmd.Flags().StringVar(&flags.TempPrefix, "temp-prefix", config.DefaultTempPrefix, "Prefix of generated temporary names")
	cmd.Flags().StringVar(&flags.File, "file", "", "File name reported in diagnostics for stdin input")
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Format, "format", "f", config.DefaultFormat,
		fmt.Sprintf("Output format (%s)", strings.Join(ir.Formats, "|")))
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Write output to a file instead of stdout")
	AddFlagValidation(cmd, "format", ValidateFormat)
}

func addServerFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().IntVarP(&flags.Port, "port", "p", config.DefaultPort, "Port to serve on")
	cmd.Flags().StringVar(&flags.Host, "host", config.DefaultHost, "Host to bind to")
	AddFlagValidation(cmd, "port", ValidatePort)
}

// Apply overrides cfg with every flag set explicitly on cmd.
func (f *StandardFlags) Apply(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("capture") {
		cfg.Compiler.Capture = f.Capture
	}
	if set("deferred") {
		cfg.Compiler.DeferredErrors = f.Deferred
	}
	if set("fail-fast") {
		cfg.Compiler.FailFast = f.FailFast
	}
	if set("temp-prefix") {
		cfg.Compiler.TempPrefix = f.TempPrefix
	}
	if set("format") {
		cfg.Output.Format = f.Format
	}
	if set("port") {
		cfg.Server.Port = f.Port
	}
	if set("host") {
		cfg.Server.Host = f.Host
	}
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidatePort checks a port flag value.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}

	return nil
}

// ValidateFormat checks an IR output format flag value.
func ValidateFormat(format string) error {
	for _, known := range ir.Formats {
		if format == known {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %s, must be one of: %s",
		format, strings.Join(ir.Formats, ", "))
}
