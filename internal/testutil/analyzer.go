package testutil

import (
	"testing"

	"github.com/leapstack-labs/leapcheck/pkg/catalog"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

// RunAnalyzer builds the catalog of scripts and runs a single analyzer over
// it, returning what the analyzer reported. Catalog diagnostics are dropped.
func RunAnalyzer(t testing.TB, a lint.AnalyzerDef, opts lint.Options, scripts ...*core.ScriptModel) *IssueRecorder {
	t.Helper()
	cat := catalog.Build(scripts, catalog.Options{DefaultSchema: "dbo"})
	rec := &IssueRecorder{}
	logger := NewTestLogger(t)

	switch a.Scope {
	case lint.ScopeGlobal:
		a.CheckGlobal(&lint.GlobalContext{
			Catalog:       cat,
			Scripts:       scripts,
			Options:       opts,
			DefaultSchema: "dbo",
			Logger:        logger,
			Reporter:      rec,
		})
	default:
		for _, s := range scripts {
			if s.HasErrors() {
				continue
			}
			a.CheckScript(&lint.ScriptContext{
				Catalog:       cat,
				Script:        s,
				Options:       opts,
				DefaultSchema: "dbo",
				Logger:        logger,
				Reporter:      rec,
			})
		}
	}
	return rec
}
