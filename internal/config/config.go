// Package config provides configuration management for orbit using Viper
// for loading from files, environment variables, and command-line flags.
//
// Values come from .orbit.yml (or the file named by ORBIT_CONFIG_FILE or
// --config), overridden by ORBIT_<SECTION>_<OPTION> environment variables
// and bound flags. Load applies defaults and validates the result.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/conneroisu/orbit/internal/ir"
)

// Config is the complete orbit configuration.
type Config struct {
	Compiler    CompilerConfig   `mapstructure:"compiler" yaml:"compiler"`
	Components  ComponentsConfig `mapstructure:"components" yaml:"components"`
	Files       FilesConfig      `mapstructure:"files" yaml:"files"`
	Server      ServerConfig     `mapstructure:"server" yaml:"server"`
	Output      OutputConfig     `mapstructure:"output" yaml:"output"`
	TargetFiles []string         `mapstructure:"-" yaml:"-"` // CLI arguments, not from config file
}

// CompilerConfig controls lowering.
type CompilerConfig struct {
	Capture        bool   `mapstructure:"capture" yaml:"capture"`
	FailFast       bool   `mapstructure:"fail_fast" yaml:"fail_fast"`
	DeferredErrors bool   `mapstructure:"deferred_errors" yaml:"deferred_errors"`
	TempPrefix     string `mapstructure:"temp_prefix" yaml:"temp_prefix"`
}

// ComponentsConfig describes how component names are resolved.
type ComponentsConfig struct {
	Namespaces   []string `mapstructure:"namespaces" yaml:"namespaces"`
	CacheClasses bool     `mapstructure:"cache_classes" yaml:"cache_classes"`
	Known        []string `mapstructure:"known" yaml:"known"`
}

// FilesConfig selects the templates the CLI works on.
type FilesConfig struct {
	Paths     []string `mapstructure:"paths" yaml:"paths"`
	Extension string   `mapstructure:"extension" yaml:"extension"`
	Exclude   []string `mapstructure:"exclude" yaml:"exclude"`
}

// ServerConfig configures the playground server.
type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// OutputConfig controls how IR and diagnostics are printed.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
}

// Defaults.
const (
	DefaultExtension  = ".orb"
	DefaultTempPrefix = "__orbit_tmp"
	DefaultHost       = "localhost"
	DefaultPort       = 8080
	DefaultFormat     = ir.FormatSexp
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Compiler: CompilerConfig{
			Capture:    true,
			FailFast:   true,
			TempPrefix: DefaultTempPrefix,
		},
		Components: ComponentsConfig{
			Namespaces:   []string{"Components"},
			CacheClasses: true,
		},
		Files: FilesConfig{
			Paths:     []string{"./views", "./components"},
			Extension: DefaultExtension,
			Exclude:   []string{"*.bak", "node_modules"},
		},
		Server: ServerConfig{
			Host:           DefaultHost,
			Port:           DefaultPort,
			AllowedOrigins: []string{"http://localhost:8080", "http://127.0.0.1:8080"},
		},
		Output: OutputConfig{Format: DefaultFormat},
	}
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults for unset
// values and validates the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	config := Default()
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}

	// Booleans default to true, so an explicit false must come from viper
	// rather than the zero value.
	if v.IsSet("compiler.capture") {
		config.Compiler.Capture = v.GetBool("compiler.capture")
	}
	if v.IsSet("compiler.fail_fast") {
		config.Compiler.FailFast = v.GetBool("compiler.fail_fast")
	}
	if v.IsSet("components.cache_classes") {
		config.Components.CacheClasses = v.GetBool("components.cache_classes")
	}

	// Slices set from the environment arrive as a single string.
	if v.IsSet("components.namespaces") {
		config.Components.Namespaces = stringSlice(v, "components.namespaces")
	}
	if v.IsSet("components.known") {
		config.Components.Known = stringSlice(v, "components.known")
	}
	if v.IsSet("files.paths") {
		config.Files.Paths = stringSlice(v, "files.paths")
	}
	if v.IsSet("files.exclude") {
		config.Files.Exclude = stringSlice(v, "files.exclude")
	}
	if v.IsSet("server.allowed_origins") {
		config.Server.AllowedOrigins = stringSlice(v, "server.allowed_origins")
	}

	if config.Compiler.TempPrefix == "" {
		config.Compiler.TempPrefix = DefaultTempPrefix
	}
	if config.Files.Extension == "" {
		config.Files.Extension = DefaultExtension
	}
	if !strings.HasPrefix(config.Files.Extension, ".") {
		config.Files.Extension = "." + config.Files.Extension
	}
	if config.Server.Host == "" {
		config.Server.Host = DefaultHost
	}
	if config.Output.Format == "" {
		config.Output.Format = DefaultFormat
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func stringSlice(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateCompilerConfig(&config.Compiler); err != nil {
		return fmt.Errorf("compiler config: %w", err)
	}

	if err := validateComponentsConfig(&config.Components); err != nil {
		return fmt.Errorf("components config: %w", err)
	}

	if err := validateFilesConfig(&config.Files); err != nil {
		return fmt.Errorf("files config: %w", err)
	}

	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateOutputConfig(&config.Output); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	return nil
}

func validateCompilerConfig(config *CompilerConfig) error {
	if !isIdentifier(config.TempPrefix) {
		return fmt.Errorf("temp_prefix %q is not a valid identifier", config.TempPrefix)
	}

	return nil
}

func validateComponentsConfig(config *ComponentsConfig) error {
	for _, ns := range config.Namespaces {
		for _, segment := range strings.Split(ns, ".") {
			if !isIdentifier(segment) {
				return fmt.Errorf("namespace %q has an invalid segment %q", ns, segment)
			}
		}
	}

	return nil
}

func validateFilesConfig(config *FilesConfig) error {
	for _, path := range config.Paths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid path '%s': %w", path, err)
		}
	}

	if strings.ContainsAny(config.Extension, `/\`) {
		return fmt.Errorf("extension %q must not contain path separators", config.Extension)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(config.Host, char) {
			return fmt.Errorf("host contains dangerous character: %s", char)
		}
	}

	return nil
}

func validateOutputConfig(config *OutputConfig) error {
	for _, format := range ir.Formats {
		if config.Format == format {
			return nil
		}
	}

	return fmt.Errorf("format %q is not one of %v", config.Format, ir.Formats)
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
