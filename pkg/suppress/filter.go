package suppress

import (
	"sort"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// event is a point where the set of disabled ids changes. active holds the
// cumulative set after the event, keyed by folded id, valued by reason.
type event struct {
	loc    core.CodeLocation
	active map[string]string
}

type entry struct {
	id     string
	reason string
}

// Index answers "is this issue suppressed" for one script.
type Index struct {
	events []event
}

// NewIndex simulates the disable/restore stack over suppressions in source order.
func NewIndex(suppressions []core.Suppression) *Index {
	sorted := make([]core.Suppression, len(suppressions))
	copy(sorted, suppressions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Location.Compare(sorted[j].Location) < 0
	})

	var stack []entry
	idx := &Index{events: make([]event, 0, len(sorted))}
	for _, s := range sorted {
		id := core.FoldName(s.DiagnosticID)
		switch s.Action {
		case core.SuppressionDisable:
			stack = append(stack, entry{id: id, reason: s.Reason})
		case core.SuppressionRestore:
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].id == id {
					stack = append(stack[:i], stack[i+1:]...)
					break
				}
			}
		}

		active := make(map[string]string, len(stack))
		for _, e := range stack {
			active[e.id] = e.reason
		}
		idx.events = append(idx.events, event{loc: s.Location, active: active})
	}
	return idx
}

// Lookup reports whether the issue is suppressed and, if so, the reason given
// by the directive that disabled its id.
func (x *Index) Lookup(issue *core.Issue) (string, bool) {
	begin := issue.Region.Begin
	// first event strictly after begin
	i := sort.Search(len(x.events), func(i int) bool {
		return x.events[i].loc.Compare(begin) > 0
	})
	if i == 0 {
		return "", false
	}
	reason, ok := x.events[i-1].active[core.FoldName(issue.DiagnosticID())]
	return reason, ok
}

// Filter partitions issues into those that pass and those muted by suppressions.
func Filter(suppressions []core.Suppression, issues []*core.Issue) ([]*core.Issue, []core.SuppressedIssue) {
	if len(suppressions) == 0 {
		return issues, nil
	}
	idx := NewIndex(suppressions)
	var kept []*core.Issue
	var muted []core.SuppressedIssue
	for _, issue := range issues {
		if reason, ok := idx.Lookup(issue); ok {
			muted = append(muted, core.SuppressedIssue{Issue: issue, Reason: reason})
			continue
		}
		kept = append(kept, issue)
	}
	return kept, muted
}
