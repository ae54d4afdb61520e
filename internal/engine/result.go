package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/catalog"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/suppress"
)

// AnalysisResult is the outcome of one Analyze call.
type AnalysisResult struct {
	// Issues that survived filtering, deduplication and suppression, ordered
	// by script path, then region.
	Issues []*core.Issue
	// SuppressedIssues were muted by a #pragma directive.
	SuppressedIssues []core.SuppressedIssue
	// IssuesByObjectName groups Issues by folded FullObjectNameOrFileName.
	IssuesByObjectName map[string]*IssueGroup
	// DisabledDiagnosticIDs lists the configured disabled ids, sorted.
	DisabledDiagnosticIDs []string
	// DiagnosticDefinitionsByID holds every known definition, reserved ones included.
	DiagnosticDefinitionsByID map[string]*core.DiagnosticDefinition
	Statistics                Statistics
	Catalog                   *catalog.Catalog
}

// IssueGroup is the issues of one object or file.
type IssueGroup struct {
	Name   string // as first reported
	Issues []*core.Issue
}

// Statistics summarizes a run.
type Statistics struct {
	CountsByType        map[core.IssueType]int
	TotalIssues         int
	SuppressedIssues    int
	TotalScripts        int
	ScriptsWithErrors   int
	AnalyzerInvocations int
	CatalogDuration     time.Duration
	AnalysisDuration    time.Duration
	AggregationDuration time.Duration
	TotalDuration       time.Duration
}

// Groups returns the issue groups sorted by name.
func (r *AnalysisResult) Groups() []*IssueGroup {
	groups := make([]*IssueGroup, 0, len(r.IssuesByObjectName))
	for _, g := range r.IssuesByObjectName {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return core.FoldName(groups[i].Name) < core.FoldName(groups[j].Name)
	})
	return groups
}

// Count returns the number of unsuppressed issues of type t.
func (r *AnalysisResult) Count(t core.IssueType) int {
	return r.Statistics.CountsByType[t]
}

// HasAtLeast reports whether any issue is of type t or more severe.
// Only Error and Warning form a ladder; other types count as Information.
func (r *AnalysisResult) HasAtLeast(t core.IssueType) bool {
	for _, issue := range r.Issues {
		if severity(issue.Type()) >= severity(t) {
			return true
		}
	}
	return false
}

func severity(t core.IssueType) int {
	switch t {
	case core.IssueError:
		return 2
	case core.IssueWarning:
		return 1
	default:
		return 0
	}
}

// aggregate applies the post-processing steps in order: drop disabled ids,
// deduplicate, suppress, group and count.
func (e *Engine) aggregate(scripts []*core.ScriptModel, reported []*core.Issue) *AnalysisResult {
	result := &AnalysisResult{
		DisabledDiagnosticIDs:     e.disabledIDs(),
		DiagnosticDefinitionsByID: e.registry.Definitions(),
	}

	var enabled []*core.Issue
	for _, issue := range reported {
		if !e.config.IsDisabled(issue.DiagnosticID()) {
			enabled = append(enabled, issue)
		}
	}

	issues, suppressed := Suppress(scripts, Deduplicate(enabled))
	SortIssues(issues)
	sort.SliceStable(suppressed, func(i, j int) bool {
		return lessIssue(suppressed[i].Issue, suppressed[j].Issue)
	})

	result.Issues = issues
	result.SuppressedIssues = suppressed
	result.IssuesByObjectName = GroupByObjectName(issues)
	result.Statistics = Statistics{
		CountsByType:     countByType(issues),
		TotalIssues:      len(issues),
		SuppressedIssues: len(suppressed),
	}
	return result
}

func (e *Engine) disabledIDs() []string {
	ids := e.config.DisabledIDs()
	for i, id := range ids {
		ids[i] = strings.ToUpper(id)
	}
	sort.Strings(ids)
	return ids
}

type issueKey struct {
	path, db, object string
	region           core.CodeRegion
	message          string
}

// Deduplicate keeps the first of every group of issues sharing path,
// database, object, region and message. Applying it twice changes nothing.
func Deduplicate(issues []*core.Issue) []*core.Issue {
	seen := make(map[issueKey]bool, len(issues))
	out := make([]*core.Issue, 0, len(issues))
	for _, issue := range issues {
		k := issueKey{issue.ScriptPath, issue.DatabaseName, issue.ObjectName, issue.Region, issue.Message}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, issue)
	}
	return out
}

// Suppress applies each script's suppressions to the issues reported in it.
// Issues whose path matches no script pass through.
func Suppress(scripts []*core.ScriptModel, issues []*core.Issue) ([]*core.Issue, []core.SuppressedIssue) {
	byPath := make(map[string][]*core.Issue)
	var order []string
	for _, issue := range issues {
		if _, ok := byPath[issue.ScriptPath]; !ok {
			order = append(order, issue.ScriptPath)
		}
		byPath[issue.ScriptPath] = append(byPath[issue.ScriptPath], issue)
	}

	suppressions := make(map[string][]core.Suppression, len(scripts))
	for _, s := range scripts {
		suppressions[s.Path] = s.Suppressions
	}

	var kept []*core.Issue
	var muted []core.SuppressedIssue
	for _, path := range order {
		k, m := suppress.Filter(suppressions[path], byPath[path])
		kept = append(kept, k...)
		muted = append(muted, m...)
	}
	return kept, muted
}

// GroupByObjectName groups issues case-insensitively by
// FullObjectNameOrFileName, each group ordered by region.
func GroupByObjectName(issues []*core.Issue) map[string]*IssueGroup {
	groups := make(map[string]*IssueGroup)
	for _, issue := range issues {
		name := issue.FullObjectNameOrFileName()
		key := core.FoldName(name)
		g, ok := groups[key]
		if !ok {
			g = &IssueGroup{Name: name}
			groups[key] = g
		}
		g.Issues = append(g.Issues, issue)
	}
	for _, g := range groups {
		sort.SliceStable(g.Issues, func(i, j int) bool {
			return g.Issues[i].Region.Compare(g.Issues[j].Region) < 0
		})
	}
	return groups
}

// SortIssues orders issues by script path, region, diagnostic id and message.
func SortIssues(issues []*core.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return lessIssue(issues[i], issues[j])
	})
}

func lessIssue(a, b *core.Issue) bool {
	if a.ScriptPath != b.ScriptPath {
		return a.ScriptPath < b.ScriptPath
	}
	if c := a.Region.Compare(b.Region); c != 0 {
		return c < 0
	}
	if a.DiagnosticID() != b.DiagnosticID() {
		return a.DiagnosticID() < b.DiagnosticID()
	}
	return a.Message < b.Message
}

func countByType(issues []*core.Issue) map[core.IssueType]int {
	counts := make(map[core.IssueType]int, len(core.AllIssueTypes))
	for _, t := range core.AllIssueTypes {
		counts[t] = 0
	}
	for _, issue := range issues {
		counts[issue.Type()]++
	}
	return counts
}
