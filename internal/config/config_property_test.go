//go:build property
// +build property

package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestConfigurationProperties tests configuration validation properties
func TestConfigurationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: Valid configurations should always validate
	properties.Property("valid config validates", prop.ForAll(
		func(port int, host string, paths []string, prefix string) bool {
			cfg := Default()
			cfg.Server.Port = port
			cfg.Server.Host = host
			if len(paths) > 0 {
				cfg.Files.Paths = paths
			}
			cfg.Compiler.TempPrefix = prefix

			return validateConfig(cfg) == nil
		},
		gen.IntRange(1, 65535),
		gen.RegexMatch(`^[a-zA-Z0-9.-]+$`),
		gen.SliceOfN(5, gen.RegexMatch(`^[a-zA-Z0-9_/]+$`)).SuchThat(func(p []string) bool {
			for _, s := range p {
				if s == "" {
					return false
				}
			}
			return true
		}),
		gen.RegexMatch(`^[a-zA-Z_][a-zA-Z0-9_]*$`),
	))

	// Property: Path validation should be consistent
	properties.Property("path validation consistency", prop.ForAll(
		func(path string) bool {
			first := validatePath(path)
			second := validatePath(path)
			return (first == nil) == (second == nil)
		},
		gen.AnyString(),
	))

	// Property: Paths escaping the project are rejected
	properties.Property("traversal is rejected", prop.ForAll(
		func(segments []string) bool {
			path := filepath.Join(append([]string{".."}, segments...)...)
			if !strings.HasPrefix(filepath.Clean(path), "..") {
				return true
			}
			return validatePath(path) != nil
		},
		gen.SliceOf(gen.RegexMatch(`^[a-z]{1,6}$`)),
	))

	// Property: Out-of-range ports are rejected
	properties.Property("port range", prop.ForAll(
		func(port int) bool {
			err := validateServerConfig(&ServerConfig{Host: "localhost", Port: port})
			return (err == nil) == (port >= 0 && port <= 65535)
		},
		gen.IntRange(-100000, 100000),
	))

	properties.TestingRun(t)
}
