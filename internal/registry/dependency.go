package registry

import (
	"sort"

	"github.com/conneroisu/orbit/internal/ast"
)

// Reference is a component tag found in a template.
type Reference struct {
	Name     string
	Resolved string
	Found    bool
	Tag      *ast.Tag
}

// DependencyAnalyzer analyzes component dependencies
type DependencyAnalyzer struct {
	registry *ComponentRegistry
}

// NewDependencyAnalyzer creates a new dependency analyzer
func NewDependencyAnalyzer(registry *ComponentRegistry) *DependencyAnalyzer {
	return &DependencyAnalyzer{
		registry: registry,
	}
}

// References lists every component and slot tag in the tree in source
// order, each with its resolution. Slot tags resolve through their
// component name.
func (da *DependencyAnalyzer) References(root ast.Node) []Reference {
	var refs []Reference
	ast.Walk(root, func(n ast.Node, _ int) bool {
		tag, ok := n.(*ast.Tag)
		if !ok || !(tag.ComponentTag() || tag.ComponentSlotTag()) {
			return true
		}
		name := tag.ComponentName()
		resolved, found := da.registry.Lookup(name)
		refs = append(refs, Reference{Name: name, Resolved: resolved, Found: found, Tag: tag})
		return true
	})
	return refs
}

// AnalyzeTemplate returns the sorted qualified names of the registered
// components the tree renders, excluding self.
func (da *DependencyAnalyzer) AnalyzeTemplate(root ast.Node, self string) []string {
	seen := make(map[string]bool)
	for _, ref := range da.References(root) {
		if ref.Found && ref.Resolved != self {
			seen[ref.Resolved] = true
		}
	}

	deps := make([]string, 0, len(seen))
	for dep := range seen {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}

// GetDependents returns components that depend on the given component
func (da *DependencyAnalyzer) GetDependents(componentName string) []*ComponentInfo {
	var dependents []*ComponentInfo

	da.registry.mutex.RLock()
	defer da.registry.mutex.RUnlock()

	for _, component := range da.registry.components {
		for _, dep := range component.Dependencies {
			if dep == componentName {
				dependents = append(dependents, component)
				break
			}
		}
	}

	sort.Slice(dependents, func(i, j int) bool { return dependents[i].Name < dependents[j].Name })
	return dependents
}

// GetDependencyGraph returns the full dependency graph
func (da *DependencyAnalyzer) GetDependencyGraph() map[string][]string {
	graph := make(map[string][]string)

	da.registry.mutex.RLock()
	defer da.registry.mutex.RUnlock()

	for name, component := range da.registry.components {
		graph[name] = make([]string, len(component.Dependencies))
		copy(graph[name], component.Dependencies)
	}

	return graph
}

// DetectCircularDependencies detects circular dependencies in the graph
func (da *DependencyAnalyzer) DetectCircularDependencies() [][]string {
	var cycles [][]string
	graph := da.GetDependencyGraph()

	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)

	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, component := range names {
		if !visited[component] {
			if cycle := detectCycleDFS(component, graph, visited, recStack, nil); cycle != nil {
				cycles = append(cycles, cycle)
			}
		}
	}

	return cycles
}

// detectCycleDFS performs DFS to detect cycles
func detectCycleDFS(component string, graph map[string][]string, visited, recStack map[string]bool, path []string) []string {
	visited[component] = true
	recStack[component] = true
	path = append(path, component)

	for _, dep := range graph[component] {
		if !visited[dep] {
			if cycle := detectCycleDFS(dep, graph, visited, recStack, path); cycle != nil {
				return cycle
			}
		} else if recStack[dep] {
			for i, p := range path {
				if p == dep {
					cycle := make([]string, len(path)-i+1)
					copy(cycle, path[i:])
					cycle[len(cycle)-1] = dep // Close the cycle
					return cycle
				}
			}
		}
	}

	recStack[component] = false
	return nil
}
