package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withBuild(t *testing.T, version, commit, built string) {
	t.Helper()
	oldVersion, oldCommit, oldTime := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = version, commit, built
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldVersion, oldCommit, oldTime })
}

func TestGetShortVersion(t *testing.T) {
	withBuild(t, "v1.2.0", "0123456789abcdef", "unknown")
	assert.Equal(t, "v1.2.0 (0123456)", GetShortVersion())

	withBuild(t, "v1.2.0", "abc", "unknown")
	assert.Equal(t, "v1.2.0", GetShortVersion())
}

func TestGetDetailedVersion(t *testing.T) {
	withBuild(t, "v1.2.0", "0123456789abcdef", "2026-01-02T03:04:05Z")

	got := GetDetailedVersion()
	assert.Contains(t, got, "Version: v1.2.0\n")
	assert.Contains(t, got, "Commit: 0123456789abcdef")
	assert.Contains(t, got, "Built: 2026-01-02T03:04:05Z")
	assert.Contains(t, got, "Go: go")
}

func TestParseTime(t *testing.T) {
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, want, parseTime("2026-01-02T03:04:05Z"))
	assert.Equal(t, want, parseTime("2026-01-02 03:04:05"))
	assert.True(t, parseTime("unknown").IsZero())
	assert.True(t, parseTime("yesterday").IsZero())
}
