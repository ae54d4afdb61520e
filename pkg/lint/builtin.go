package lint

import (
	"github.com/leapstack-labs/leapcheck/pkg/catalog"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/resolve"
)

// Diagnostics reported by the engine itself rather than by an analyzer.
var (
	UnhandledAnalyzerException = core.NewDiagnosticDefinition(
		"AJ9999", core.IssueError,
		"Unhandled analyzer exception",
		"The analyzer {0} failed: {1}")

	ScriptContainsErrors = core.NewDiagnosticDefinition(
		"AJ9000", core.IssueError,
		"Script contains errors",
		"The script could not be parsed and was not analyzed. First error: {0}")
)

// ReservedDiagnostics returns the diagnostics owned by the engine, the
// catalog builder and the resolver.
func ReservedDiagnostics() []*core.DiagnosticDefinition {
	return []*core.DiagnosticDefinition{
		ScriptContainsErrors,
		catalog.DuplicateObjectDefinition,
		catalog.DatabaseNameUndeterminable,
		resolve.MissingAlias,
		UnhandledAnalyzerException,
	}
}
