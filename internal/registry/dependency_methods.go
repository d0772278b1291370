package registry

import (
	"github.com/conneroisu/orbit/internal/ast"
)

// Analyzer returns a dependency analyzer over the registry.
func (r *ComponentRegistry) Analyzer() *DependencyAnalyzer {
	return NewDependencyAnalyzer(r)
}

// UpdateDependencies records the components the named component's tree
// renders.
func (r *ComponentRegistry) UpdateDependencies(name string, root ast.Node) []string {
	deps := r.Analyzer().AnalyzeTemplate(root, name)

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if existing := r.components[name]; existing != nil {
		existing.Dependencies = deps
	}
	return deps
}

// GetDependents returns components that depend on the given component
func (r *ComponentRegistry) GetDependents(componentName string) []*ComponentInfo {
	return r.Analyzer().GetDependents(componentName)
}

// GetDependencyGraph returns the full dependency graph
func (r *ComponentRegistry) GetDependencyGraph() map[string][]string {
	return r.Analyzer().GetDependencyGraph()
}
