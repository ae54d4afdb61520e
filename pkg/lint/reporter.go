package lint

import (
	"sync"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Reporter is the shared, append-only issue sink of one analysis run. It is
// safe for concurrent use and promises no order across reporters.
type Reporter struct {
	mu     sync.Mutex
	issues []*core.Issue
}

// NewReporter returns an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Report implements core.IssueReporter. It panics when the insertion count
// does not match def.
func (r *Reporter) Report(def *core.DiagnosticDefinition, databaseName, scriptPath, objectName string, region core.CodeRegion, insertions ...string) {
	r.Add(core.NewIssue(def, databaseName, scriptPath, objectName, region, insertions...))
}

// Add appends an already constructed issue.
func (r *Reporter) Add(issue *core.Issue) {
	r.mu.Lock()
	r.issues = append(r.issues, issue)
	r.mu.Unlock()
}

// Issues returns a snapshot of the reported issues.
func (r *Reporter) Issues() []*core.Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*core.Issue, len(r.issues))
	copy(out, r.issues)
	return out
}

// Len returns the number of reported issues.
func (r *Reporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.issues)
}
