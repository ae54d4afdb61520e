package lint

import (
	"sort"
	"sync"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// globalRegistry is the single registry of built-in analyzers.
var globalRegistry = NewRegistry()

// Registry stores analyzers for discovery. The zero value is not usable;
// call NewRegistry.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]AnalyzerDef // keyed by folded name
}

// NewRegistry returns an empty registry. Tests use one to run a controlled
// set of analyzers.
func NewRegistry() *Registry {
	return &Registry{analyzers: make(map[string]AnalyzerDef)}
}

// Register adds a to the registry. It panics on an invalid definition or a
// duplicate name.
func (r *Registry) Register(a AnalyzerDef) {
	if msg := a.validate(); msg != "" {
		panic("lint: " + msg)
	}
	key := core.FoldName(a.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.analyzers[key]; exists {
		panic("lint: analyzer " + a.Name + " registered twice")
	}
	r.analyzers[key] = a
}

// All returns every analyzer sorted by name.
func (r *Registry) All() []AnalyzerDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]AnalyzerDef, 0, len(r.analyzers))
	for _, a := range r.analyzers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByScope returns the analyzers of one scope sorted by name.
func (r *Registry) ByScope(scope Scope) []AnalyzerDef {
	var out []AnalyzerDef
	for _, a := range r.All() {
		if a.Scope == scope {
			out = append(out, a)
		}
	}
	return out
}

// Get returns an analyzer by name, case-insensitively.
func (r *Registry) Get(name string) (AnalyzerDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyzers[core.FoldName(name)]
	return a, ok
}

// ByDiagnosticID returns the analyzer that reports id.
func (r *Registry) ByDiagnosticID(id string) (AnalyzerDef, bool) {
	for _, a := range r.All() {
		for _, d := range a.Diagnostics {
			if core.EqualFold(d.ID, id) {
				return a, true
			}
		}
	}
	return AnalyzerDef{}, false
}

// Definitions returns every diagnostic the registry's analyzers declare plus
// the reserved engine diagnostics, keyed by id.
func (r *Registry) Definitions() map[string]*core.DiagnosticDefinition {
	defs := make(map[string]*core.DiagnosticDefinition)
	for _, d := range ReservedDiagnostics() {
		defs[d.ID] = d
	}
	for _, a := range r.All() {
		for _, d := range a.Diagnostics {
			defs[d.ID] = d
		}
	}
	return defs
}

// Count returns the number of registered analyzers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.analyzers)
}

// Register adds an analyzer to the global registry.
// Call this from init() functions in analyzer packages.
func Register(a AnalyzerDef) {
	globalRegistry.Register(a)
}

// Default returns the global registry.
func Default() *Registry {
	return globalRegistry
}
