package testutil

import (
	"sync"
	"testing"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/parser"
	"github.com/leapstack-labs/leapcheck/pkg/suppress"
	"github.com/stretchr/testify/require"
)

// ParseScript parses sql into a script model the way the loader does,
// keeping any parse errors on the model.
func ParseScript(t testing.TB, path, database, sql string) *core.ScriptModel {
	t.Helper()
	root, errs := parser.Parse(sql)
	return core.NewScriptModel(database, path, sql, root, errs, suppress.Extract(root))
}

// MustParseScript is ParseScript that fails the test on parse errors.
func MustParseScript(t testing.TB, path, database, sql string) *core.ScriptModel {
	t.Helper()
	m := ParseScript(t, path, database, sql)
	require.Empty(t, m.Errors, "unexpected parse errors in %s", path)
	return m
}

// IssueRecorder is a core.IssueReporter that keeps every reported issue.
type IssueRecorder struct {
	mu     sync.Mutex
	issues []*core.Issue
}

// Report implements core.IssueReporter.
func (r *IssueRecorder) Report(def *core.DiagnosticDefinition, databaseName, scriptPath, objectName string, region core.CodeRegion, insertions ...string) {
	issue := core.NewIssue(def, databaseName, scriptPath, objectName, region, insertions...)
	r.mu.Lock()
	r.issues = append(r.issues, issue)
	r.mu.Unlock()
}

// Issues returns the recorded issues in report order.
func (r *IssueRecorder) Issues() []*core.Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*core.Issue(nil), r.issues...)
}

// IDs returns the diagnostic id of every recorded issue.
func (r *IssueRecorder) IDs() []string {
	var ids []string
	for _, issue := range r.Issues() {
		ids = append(ids, issue.DiagnosticID())
	}
	return ids
}
