// Package registry tracks the components a project defines and resolves
// component tag names across the configured namespaces.
package registry

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/orbit/internal/config"
)

// Resolver maps a component tag name to the qualified name of the
// component that renders it.
type Resolver interface {
	Lookup(name string) (string, bool)
}

// ComponentRegistry manages all known components. It is safe for
// concurrent use.
type ComponentRegistry struct {
	components   map[string]*ComponentInfo
	namespaces   []string
	cacheClasses bool
	cache        map[string]lookupResult
	mutex        sync.RWMutex
	watchers     []chan ComponentEvent
}

type lookupResult struct {
	name  string
	found bool
}

// ComponentInfo holds metadata about a component template
type ComponentInfo struct {
	Name         string
	FilePath     string
	Slots        []string
	LastMod      time.Time
	Dependencies []string
}

// ComponentEvent represents a change in the component registry
type ComponentEvent struct {
	Type      EventType
	Component *ComponentInfo
	Timestamp time.Time
}

// EventType represents the type of component event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

func (t EventType) String() string {
	switch t {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// title upper-cases the first letter of s. Casers are stateful, so each
// call gets its own.
func title(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// NormalizeNamespace title-cases each dotted segment: "ui.forms" becomes
// "Ui.Forms" while "UI" is kept.
func NormalizeNamespace(ns string) string {
	segments := strings.Split(ns, ".")
	for i, s := range segments {
		segments[i] = title(s)
	}
	return strings.Join(segments, ".")
}

// NameFromPath derives a component name from a template path relative to
// root: "ui/card_list.orb" becomes "Ui.CardList".
func NameFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))

	var segments []string
	for _, dir := range strings.Split(rel, "/") {
		var b strings.Builder
		for _, word := range strings.FieldsFunc(dir, isNameSeparator) {
			b.WriteString(title(word))
		}
		if b.Len() > 0 {
			segments = append(segments, b.String())
		}
	}
	return strings.Join(segments, ".")
}

func isNameSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.'
}

// NewComponentRegistry creates a registry configured by cfg. Components
// listed in cfg.Known are registered up front.
func NewComponentRegistry(cfg config.ComponentsConfig) *ComponentRegistry {
	r := &ComponentRegistry{
		components:   make(map[string]*ComponentInfo),
		cacheClasses: cfg.CacheClasses,
		cache:        make(map[string]lookupResult),
		watchers:     make([]chan ComponentEvent, 0),
	}
	for _, ns := range cfg.Namespaces {
		r.namespaces = append(r.namespaces, NormalizeNamespace(ns))
	}
	for _, name := range cfg.Known {
		r.components[name] = &ComponentInfo{Name: name}
	}
	return r
}

// Namespaces returns the normalized namespaces in search order.
func (r *ComponentRegistry) Namespaces() []string {
	return append([]string(nil), r.namespaces...)
}

// Lookup resolves a tag name such as "Card" or "Forms.Input". Each
// namespace is tried in order before the bare name.
func (r *ComponentRegistry) Lookup(name string) (string, bool) {
	if !r.cacheClasses {
		r.mutex.RLock()
		defer r.mutex.RUnlock()
		res := r.resolve(name)
		return res.name, res.found
	}

	r.mutex.RLock()
	res, ok := r.cache[name]
	r.mutex.RUnlock()
	if ok {
		return res.name, res.found
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	res = r.resolve(name)
	r.cache[name] = res
	return res.name, res.found
}

// cached reports whether a lookup for name is memoized.
func (r *ComponentRegistry) cached(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, ok := r.cache[name]
	return ok
}

func (r *ComponentRegistry) resolve(name string) lookupResult {
	for _, ns := range r.namespaces {
		qualified := ns + "." + name
		if _, ok := r.components[qualified]; ok {
			return lookupResult{name: qualified, found: true}
		}
	}
	if _, ok := r.components[name]; ok {
		return lookupResult{name: name, found: true}
	}
	return lookupResult{}
}

// Register adds or updates a component in the registry
func (r *ComponentRegistry) Register(component *ComponentInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if _, exists := r.components[component.Name]; exists {
		eventType = EventTypeUpdated
	}

	r.components[component.Name] = component
	r.invalidate()
	r.notify(ComponentEvent{
		Type:      eventType,
		Component: component,
		Timestamp: time.Now(),
	})
}

// Get retrieves a component by its qualified name
func (r *ComponentRegistry) Get(name string) (*ComponentInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	component, exists := r.components[name]
	return component, exists
}

// GetAll returns all registered components
func (r *ComponentRegistry) GetAll() map[string]*ComponentInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make(map[string]*ComponentInfo, len(r.components))
	for name, component := range r.components {
		result[name] = component
	}
	return result
}

// Remove removes a component from the registry
func (r *ComponentRegistry) Remove(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	component, exists := r.components[name]
	if !exists {
		return
	}

	delete(r.components, name)
	r.invalidate()
	r.notify(ComponentEvent{
		Type:      EventTypeRemoved,
		Component: component,
		Timestamp: time.Now(),
	})
}

// invalidate drops cached lookups. Callers hold the write lock.
func (r *ComponentRegistry) invalidate() {
	if len(r.cache) > 0 {
		r.cache = make(map[string]lookupResult)
	}
}

// notify fans an event out to watchers. Callers hold the write lock.
func (r *ComponentRegistry) notify(event ComponentEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Watch returns a channel that receives component events
func (r *ComponentRegistry) Watch() <-chan ComponentEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan ComponentEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *ComponentRegistry) UnWatch(ch <-chan ComponentEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered components
func (r *ComponentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.components)
}
