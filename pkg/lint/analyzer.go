package lint

import (
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Scope says what an analyzer runs over.
type Scope int

// Analyzer scopes.
const (
	// ScopeScript analyzers run once per error-free script.
	ScopeScript Scope = iota
	// ScopeGlobal analyzers run once over the whole catalog.
	ScopeGlobal
)

func (s Scope) String() string {
	if s == ScopeGlobal {
		return "global"
	}
	return "script"
}

// ScriptCheck analyzes one script.
type ScriptCheck func(ctx *ScriptContext)

// GlobalCheck analyzes the catalog as a whole.
type GlobalCheck func(ctx *GlobalContext)

// AnalyzerDef is a data-driven analyzer definition. Analyzers are stateless:
// everything they need arrives through the context, and every finding is
// reported through it.
type AnalyzerDef struct {
	Name        string // Unique name, e.g. "MissingPrimaryKey"
	Description string
	Scope       Scope
	// Diagnostics lists every diagnostic the analyzer can report. The
	// orchestrator skips the analyzer when all of them are disabled.
	Diagnostics []*core.DiagnosticDefinition
	ConfigKeys  []string // keys read from analyzers.<name>.options

	// Exactly one of these is set, matching Scope.
	CheckScript ScriptCheck
	CheckGlobal GlobalCheck

	// Documentation
	Rationale   string
	BadExample  string
	GoodExample string
}

// SupportedDiagnosticIDs returns the ids of the analyzer's diagnostics.
func (a AnalyzerDef) SupportedDiagnosticIDs() []string {
	ids := make([]string, len(a.Diagnostics))
	for i, d := range a.Diagnostics {
		ids[i] = d.ID
	}
	return ids
}

// validate reports why a definition cannot be registered.
func (a AnalyzerDef) validate() string {
	switch {
	case a.Name == "":
		return "analyzer without a name"
	case len(a.Diagnostics) == 0:
		return "analyzer " + a.Name + " declares no diagnostics"
	case a.Scope == ScopeScript && a.CheckScript == nil:
		return "script analyzer " + a.Name + " has no CheckScript"
	case a.Scope == ScopeGlobal && a.CheckGlobal == nil:
		return "global analyzer " + a.Name + " has no CheckGlobal"
	}
	return ""
}
