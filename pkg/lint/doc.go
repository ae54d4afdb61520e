// Package lint defines analyzers and the infrastructure they report through.
//
// # Analyzers
//
// An analyzer is a data-driven AnalyzerDef. Script analyzers run once per
// error-free script; global analyzers run once over the whole catalog. Every
// analyzer declares the diagnostics it can report, so an analyzer whose
// diagnostics are all disabled is never invoked.
//
// Analyzers register themselves from init() functions:
//
//	func init() {
//		lint.Register(lint.AnalyzerDef{
//			Name:        "SelectStar",
//			Scope:       lint.ScopeScript,
//			Diagnostics: []*core.DiagnosticDefinition{SelectStarUsed},
//			CheckScript: checkSelectStar,
//		})
//	}
//
// Import the rules package with a blank identifier to register the
// built-in set:
//
//	import _ "github.com/leapstack-labs/leapcheck/pkg/lint/rules"
//
// # Reporting
//
// Findings go through core.IssueReporter. Reporter is the concurrent sink
// the orchestrator shares between all analyzer invocations of a run.
//
// # Configuration
//
//	cfg := lint.NewConfig().Disable("AJ5006")
//	cfg.SetOptions("NamelessConstraint", lint.Options{"allowed_kinds": []string{"default"}})
package lint
