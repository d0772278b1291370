package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/conneroisu/orbit/internal/compiler"
	"github.com/conneroisu/orbit/internal/config"
	"github.com/conneroisu/orbit/internal/errors"
	"github.com/conneroisu/orbit/internal/ir"
	"github.com/conneroisu/orbit/internal/lint"
	"github.com/conneroisu/orbit/internal/logging"
	"github.com/conneroisu/orbit/internal/registry"
)

// Result is the outcome of compiling one template file.
type Result struct {
	Path         string
	Component    string
	IR           ir.Node
	Dependencies []string
	Diagnostics  []errors.Diagnostic
	Removed      bool
}

// Failed reports whether any diagnostic is an error.
func (r *Result) Failed() bool {
	for _, d := range r.Diagnostics {
		if d.Severity >= errors.ErrorSeverityError {
			return true
		}
	}
	return false
}

// Builder compiles template files and keeps the component registry in sync
// with them.
type Builder struct {
	cfg      *config.Config
	registry *registry.ComponentRegistry
	logger   logging.Logger

	mutex    sync.Mutex
	results  map[string]*Result
	handlers []func(*Result)
}

// NewBuilder returns a builder for the templates selected by cfg.
func NewBuilder(cfg *config.Config, reg *registry.ComponentRegistry, logger logging.Logger) *Builder {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Builder{
		cfg:      cfg,
		registry: reg,
		logger:   logger.WithComponent("builder"),
		results:  make(map[string]*Result),
	}
}

// OnResult registers fn to be called after every build or removal.
func (b *Builder) OnResult(fn func(*Result)) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.handlers = append(b.handlers, fn)
}

// Filters returns the file filters matching the configured templates.
func (b *Builder) Filters() []FileFilter {
	return []FileFilter{
		ExtensionFilter(b.cfg.Files.Extension),
		ExcludeFilter(b.cfg.Files.Exclude),
		NoGitFilter,
		NoEditorTempFilter,
	}
}

// Accepts reports whether path is a template the builder handles.
func (b *Builder) Accepts(path string) bool {
	for _, filter := range b.Filters() {
		if !filter(path) {
			return false
		}
	}
	return true
}

// ComponentName derives the component name of a template from the
// configured path containing it.
func (b *Builder) ComponentName(path string) string {
	for _, root := range b.cfg.Files.Paths {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return registry.NameFromPath(root, path)
	}
	return registry.NameFromPath(filepath.Dir(path), path)
}

// Scan registers every template under the configured paths, then compiles
// them. Missing paths are skipped.
func (b *Builder) Scan(ctx context.Context) ([]*Result, error) {
	perf := logging.StartOperation(b.logger, "scan")

	var files []string
	for _, root := range b.cfg.Files.Paths {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			b.logger.Debug(ctx, "Skipping missing template path", "path", root)
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && !ExcludeFilter(b.cfg.Files.Exclude)(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if b.Accepts(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			perf.EndWithError(ctx, err)
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}
	sort.Strings(files)

	for _, path := range files {
		b.register(path)
	}

	results := make([]*Result, 0, len(files))
	for _, path := range files {
		results = append(results, b.Build(ctx, path))
	}

	perf.End(ctx, "files", len(files))
	return results, nil
}

func (b *Builder) register(path string) {
	info := &registry.ComponentInfo{Name: b.ComponentName(path), FilePath: path}
	if stat, err := os.Stat(path); err == nil {
		info.LastMod = stat.ModTime()
	}
	if existing, ok := b.registry.Get(info.Name); ok {
		info.Dependencies = existing.Dependencies
	}
	b.registry.Register(info)
}

// Build compiles one template file, updates its registry entry and lints
// it against the registry.
func (b *Builder) Build(ctx context.Context, path string) *Result {
	result := &Result{Path: path, Component: b.ComponentName(path)}
	defer b.publish(result)

	src, err := os.ReadFile(path)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, errors.Diagnostic{
			File:     path,
			Message:  fmt.Sprintf("reading template: %v", err),
			Severity: errors.ErrorSeverityError,
		})
		return result
	}

	if _, ok := b.registry.Get(result.Component); !ok {
		b.register(path)
	}

	comp := compiler.New(b.compilerOptions(path)...)
	root, errs := comp.ParseAll(string(src))
	if len(errs) > 0 {
		for _, err := range errs {
			result.Diagnostics = append(result.Diagnostics, errors.DiagnosticFromError(err))
		}
		if b.cfg.Compiler.DeferredErrors {
			result.IR, _ = compiler.New(append(b.compilerOptions(path), compiler.WithDeferredErrors(true))...).
				Compile(string(src))
		}
		b.logger.Warn(ctx, errs[0], "Template failed to parse", "path", path, "errors", len(errs))
		return result
	}

	result.IR, err = comp.Lower(root)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, errors.DiagnosticFromError(err))
		b.logger.Warn(ctx, err, "Template failed to compile", "path", path)
	}

	result.Dependencies = b.registry.UpdateDependencies(result.Component, root)
	for _, d := range lint.Lint(root, lint.WithRegistry(b.registry), lint.WithLogger(b.logger)) {
		d.File = path
		result.Diagnostics = append(result.Diagnostics, d)
	}

	b.logger.Debug(ctx, "Built template", "path", path, "component", result.Component,
		"dependencies", len(result.Dependencies), "diagnostics", len(result.Diagnostics))
	return result
}

func (b *Builder) compilerOptions(path string) []compiler.Option {
	return []compiler.Option{
		compiler.WithCapture(b.cfg.Compiler.Capture),
		compiler.WithTempPrefix(b.cfg.Compiler.TempPrefix),
		compiler.WithFailFast(b.cfg.Compiler.FailFast),
		compiler.WithFile(path),
		compiler.WithLogger(b.logger),
	}
}

// Remove drops the component of a deleted template.
func (b *Builder) Remove(path string) *Result {
	result := &Result{Path: path, Component: b.ComponentName(path), Removed: true}
	b.registry.Remove(result.Component)
	b.publish(result)
	return result
}

func (b *Builder) publish(result *Result) {
	b.mutex.Lock()
	if result.Removed {
		delete(b.results, result.Path)
	} else {
		b.results[result.Path] = result
	}
	handlers := append([]func(*Result){}, b.handlers...)
	b.mutex.Unlock()

	for _, fn := range handlers {
		fn(result)
	}
}

// Results returns the latest result per template, sorted by path.
func (b *Builder) Results() []*Result {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	results := make([]*Result, 0, len(b.results))
	for _, r := range b.results {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results
}

// HandleChanges is a ChangeHandler that rebuilds changed templates and the
// templates depending on the components they define.
func (b *Builder) HandleChanges(events []ChangeEvent) error {
	ctx := context.Background()
	rebuilt := make(map[string]bool, len(events))
	var changed []string
	failed := 0
	created := false

	for _, event := range events {
		if !b.Accepts(event.Path) {
			continue
		}
		name := b.ComponentName(event.Path)
		changed = append(changed, name)
		rebuilt[event.Path] = true

		if event.Type.Gone() {
			b.Remove(event.Path)
			continue
		}
		if event.Type == EventTypeCreated {
			created = true
		}
		if b.Build(ctx, event.Path).Failed() {
			failed++
		}
	}

	var stale []string
	for _, name := range changed {
		for _, dependent := range b.registry.GetDependents(name) {
			stale = append(stale, dependent.FilePath)
		}
	}
	if created {
		stale = append(stale, b.unresolved()...)
	}
	for _, path := range stale {
		if path == "" || rebuilt[path] {
			continue
		}
		rebuilt[path] = true
		if b.Build(ctx, path).Failed() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d templates failed to compile", failed, len(rebuilt))
	}
	return nil
}

// unresolved returns templates whose last build referenced an unknown
// component; a new template may define it.
func (b *Builder) unresolved() []string {
	var paths []string
	for _, r := range b.Results() {
		for _, d := range r.Diagnostics {
			if d.Code == lint.RuleUnresolvedComponent {
				paths = append(paths, r.Path)
				break
			}
		}
	}
	return paths
}
