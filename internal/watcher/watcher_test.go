package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
		gone      bool
	}{
		{EventTypeCreated, "created", false},
		{EventTypeModified, "modified", false},
		{EventTypeDeleted, "deleted", true},
		{EventTypeRenamed, "renamed", true},
		{EventType(42), "unknown", false},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
			assert.Equal(t, tc.gone, tc.eventType.Gone())
		})
	}
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestNewDebouncerDefaultDelay(t *testing.T) {
	assert.Equal(t, DefaultDebounce, NewDebouncer(0).delay)
	assert.Equal(t, time.Second, NewDebouncer(time.Second).delay)
}

func TestFileWatcherAddFilter(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(ExtensionFilter(".orb"))
	watcher.AddFilter(NoGitFilter)
	assert.Len(t, watcher.filters, 2)

	assert.True(t, watcher.accepts("views/card.orb"))
	assert.False(t, watcher.accepts("views/card.html"))
	assert.False(t, watcher.accepts(".git/card.orb"))
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	assert.NoError(t, watcher.AddPath(dir))
	assert.Error(t, watcher.AddPath(filepath.Join(dir, "missing")))
	assert.Error(t, watcher.AddPath(""))
}

func TestFileWatcherValidation(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	err = watcher.AddPath("../../../etc")
	assert.ErrorContains(t, err, "directory traversal")

	err = watcher.AddRecursive("views/../../secret")
	assert.ErrorContains(t, err, "directory traversal")
}

func TestAddRecursive(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"ui/forms", "admin", ".git/objects", ".cache"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}

	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.AddRecursive(root))
	assert.Equal(t, []string{
		root,
		filepath.Join(root, "admin"),
		filepath.Join(root, "ui"),
		filepath.Join(root, "ui", "forms"),
	}, watcher.WatchList())
}

func TestFilters(t *testing.T) {
	orb := ExtensionFilter("orb")
	assert.True(t, orb("views/card.orb"))
	assert.False(t, orb("views/card.orb.bak"))
	assert.False(t, orb("views/orb"))

	exclude := ExcludeFilter([]string{"*.bak", "node_modules"})
	assert.True(t, exclude("views/card.orb"))
	assert.False(t, exclude("views/card.orb.bak"))
	assert.False(t, exclude("web/node_modules/pkg/card.orb"))

	assert.True(t, NoGitFilter("views/.gitkeep"))
	assert.False(t, NoGitFilter(".git/HEAD"))
	assert.False(t, NoGitFilter("repo/.git/HEAD"))

	assert.True(t, NoEditorTempFilter("views/card.orb"))
	assert.False(t, NoEditorTempFilter("views/.#card.orb"))
	assert.False(t, NoEditorTempFilter("views/card.orb~"))
	assert.False(t, NoEditorTempFilter("views/.card.orb.swp"))
}

func TestDebouncer(t *testing.T) {
	debouncer := NewDebouncer(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go debouncer.start(ctx)

	debouncer.events <- ChangeEvent{Path: "b.orb", Type: EventTypeCreated}
	debouncer.events <- ChangeEvent{Path: "a.orb", Type: EventTypeModified}
	debouncer.events <- ChangeEvent{Path: "b.orb", Type: EventTypeModified}

	select {
	case events := <-debouncer.output:
		require.Len(t, events, 2)
		assert.Equal(t, "a.orb", events[0].Path)
		assert.Equal(t, "b.orb", events[1].Path)
		assert.Equal(t, EventTypeModified, events[1].Type, "the last event per path wins")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for debounced events")
	}
}

func TestFileWatcherStartStop(t *testing.T) {
	dir := t.TempDir()

	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	watcher.AddFilter(ExtensionFilter(".orb"))
	require.NoError(t, watcher.AddRecursive(dir))

	var mu sync.Mutex
	var got []ChangeEvent
	watcher.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, events...)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "card.orb"), []byte("<p/>"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	for _, event := range got {
		assert.Equal(t, filepath.Join(dir, "card.orb"), event.Path)
	}
	mu.Unlock()

	cancel()
	assert.NoError(t, watcher.Stop())
}

func TestFileWatcherWatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()

	watcher, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()
	require.NoError(t, watcher.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	sub := filepath.Join(dir, "ui")
	require.NoError(t, os.Mkdir(sub, 0o755))

	assert.Eventually(t, func() bool {
		for _, path := range watcher.WatchList() {
			if path == sub {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}
