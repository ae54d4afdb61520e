package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/leapstack-labs/leapcheck/internal/engine"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// IssueInfo is the machine-readable form of an issue.
type IssueInfo struct {
	DiagnosticID string          `json:"diagnostic_id" yaml:"diagnostic_id"`
	Type         string          `json:"type" yaml:"type"`
	Title        string          `json:"title" yaml:"title"`
	ScriptPath   string          `json:"script_path" yaml:"script_path"`
	DatabaseName string          `json:"database_name,omitempty" yaml:"database_name,omitempty"`
	ObjectName   string          `json:"object_name,omitempty" yaml:"object_name,omitempty"`
	Region       core.CodeRegion `json:"region" yaml:"region"`
	Message      string          `json:"message" yaml:"message"`
	Reason       string          `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// IssueGroupInfo holds the issues of one object or file.
type IssueGroupInfo struct {
	Name   string      `json:"name" yaml:"name"`
	Issues []IssueInfo `json:"issues" yaml:"issues"`
}

// StatisticsInfo summarizes an analysis.
type StatisticsInfo struct {
	Counts              map[string]int `json:"counts" yaml:"counts"`
	TotalIssues         int            `json:"total_issues" yaml:"total_issues"`
	SuppressedIssues    int            `json:"suppressed_issues" yaml:"suppressed_issues"`
	TotalScripts        int            `json:"total_scripts" yaml:"total_scripts"`
	ScriptsWithErrors   int            `json:"scripts_with_errors" yaml:"scripts_with_errors"`
	AnalyzerInvocations int            `json:"analyzer_invocations" yaml:"analyzer_invocations"`
	DurationMS          int64          `json:"duration_ms" yaml:"duration_ms"`
}

// AnalysisReport is the machine-readable output of analyze.
type AnalysisReport struct {
	RunID               string           `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Groups              []IssueGroupInfo `json:"groups" yaml:"groups"`
	Suppressed          []IssueInfo      `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
	DisabledDiagnostics []string         `json:"disabled_diagnostics,omitempty" yaml:"disabled_diagnostics,omitempty"`
	LoadErrors          []string         `json:"load_errors,omitempty" yaml:"load_errors,omitempty"`
	Statistics          StatisticsInfo   `json:"statistics" yaml:"statistics"`
}

func issueInfo(issue *core.Issue) IssueInfo {
	return IssueInfo{
		DiagnosticID: issue.DiagnosticID(),
		Type:         issue.Type().String(),
		Title:        issue.Definition.Title,
		ScriptPath:   issue.ScriptPath,
		DatabaseName: issue.DatabaseName,
		ObjectName:   issue.ObjectName,
		Region:       issue.Region,
		Message:      issue.Message,
	}
}

func newAnalysisReport(run *analysisRun) AnalysisReport {
	res := run.Result
	report := AnalysisReport{
		RunID:               run.RunID,
		Groups:              []IssueGroupInfo{},
		DisabledDiagnostics: res.DisabledDiagnosticIDs,
		Statistics: StatisticsInfo{
			Counts:              make(map[string]int, len(core.AllIssueTypes)),
			TotalIssues:         res.Statistics.TotalIssues,
			SuppressedIssues:    res.Statistics.SuppressedIssues,
			TotalScripts:        res.Statistics.TotalScripts,
			ScriptsWithErrors:   res.Statistics.ScriptsWithErrors,
			AnalyzerInvocations: res.Statistics.AnalyzerInvocations,
			DurationMS:          res.Statistics.TotalDuration.Milliseconds(),
		},
	}
	for _, t := range core.AllIssueTypes {
		report.Statistics.Counts[t.String()] = res.Count(t)
	}
	for _, g := range res.Groups() {
		info := IssueGroupInfo{Name: g.Name}
		for _, issue := range g.Issues {
			info.Issues = append(info.Issues, issueInfo(issue))
		}
		report.Groups = append(report.Groups, info)
	}
	for _, s := range res.SuppressedIssues {
		info := issueInfo(s.Issue)
		info.Reason = s.Reason
		report.Suppressed = append(report.Suppressed, info)
	}
	if run.Load != nil {
		for _, le := range run.Load.Errors {
			report.LoadErrors = append(report.LoadErrors, le.Error())
		}
	}
	return report
}

// renderAnalysis writes run in the renderer's effective mode.
func renderAnalysis(r *output.Renderer, run *analysisRun) error {
	switch r.EffectiveMode() {
	case output.ModeJSON, output.ModeYAML:
		return r.Structured(newAnalysisReport(run))
	case output.ModeMarkdown:
		renderAnalysisMarkdown(r, run)
	default:
		renderAnalysisText(r, run)
	}
	return nil
}

// location formats path:line:column, or only the path for unknown regions.
func location(issue *core.Issue) string {
	if issue.Region.IsUnknown() {
		return issue.ScriptPath
	}
	return fmt.Sprintf("%s:%d:%d", issue.ScriptPath, issue.Region.Begin.Line, issue.Region.Begin.Column)
}

func renderAnalysisText(r *output.Renderer, run *analysisRun) {
	styles := r.Styles()
	res := run.Result

	r.Header(1, "Analysis Results")
	r.Println()
	renderLoadErrors(r, run)

	if len(res.Issues) == 0 {
		r.Success("No issues found")
		r.Println()
	}
	for _, g := range res.Groups() {
		r.Println(styles.Header2.Render(g.Name))
		for _, issue := range g.Issues {
			label := styles.ForIssueType(issue.Type()).Render(fmt.Sprintf("%-13s", issue.Type()))
			r.Printf("  %s %s  %s\n", label, styles.Bold.Render(issue.DiagnosticID()), issue.Message)
			r.Printf("  %s\n", styles.Muted.Render("  at "+location(issue)))
		}
		r.Println()
	}

	if n := len(res.SuppressedIssues); n > 0 {
		r.Muted(fmt.Sprintf("%d issue(s) suppressed by #pragma directives", n))
		r.Println()
	}
	renderStatistics(r, run)
}

func renderAnalysisMarkdown(r *output.Renderer, run *analysisRun) {
	res := run.Result

	r.Header(1, "Analysis Results")
	renderLoadErrors(r, run)

	if len(res.Issues) == 0 {
		r.Println("No issues found.")
		r.Println()
	}
	for _, g := range res.Groups() {
		r.Header(2, g.Name)
		for _, issue := range g.Issues {
			r.Printf("- **%s** (%s) `%s`: %s\n", issue.DiagnosticID(), issue.Type(), location(issue), issue.Message)
		}
		r.Println()
	}

	if len(res.SuppressedIssues) > 0 {
		r.Header(2, "Suppressed")
		for _, s := range res.SuppressedIssues {
			reason := s.Reason
			if reason == "" {
				reason = "no reason given"
			}
			r.Printf("- **%s** `%s`: %s (%s)\n", s.Issue.DiagnosticID(), location(s.Issue), s.Issue.Message, reason)
		}
		r.Println()
	}

	r.Header(2, "Summary")
	renderStatistics(r, run)
}

func renderLoadErrors(r *output.Renderer, run *analysisRun) {
	if run.Load == nil {
		return
	}
	for _, le := range run.Load.Errors {
		r.Warning(le.Error())
	}
}

func renderStatistics(r *output.Renderer, run *analysisRun) {
	stats := run.Result.Statistics
	var rows [][]string
	for _, t := range core.AllIssueTypes {
		rows = append(rows, []string{t.String(), strconv.Itoa(run.Result.Count(t))})
	}
	rows = append(rows,
		[]string{"total", strconv.Itoa(stats.TotalIssues)},
		[]string{"suppressed", strconv.Itoa(stats.SuppressedIssues)},
		[]string{"scripts", strconv.Itoa(stats.TotalScripts)},
		[]string{"scripts with errors", strconv.Itoa(stats.ScriptsWithErrors)},
		[]string{"duration", stats.TotalDuration.Round(time.Millisecond).String()},
	)
	r.Table([]string{"Metric", "Value"}, rows)
	if run.RunID != "" {
		r.Muted("Run " + run.RunID)
	}
}

// summaryLine is the one-line outcome printed after each watch re-run.
func summaryLine(res *engine.AnalysisResult) string {
	return fmt.Sprintf("%d error(s), %d warning(s), %d other, %d suppressed",
		res.Count(core.IssueError), res.Count(core.IssueWarning),
		res.Statistics.TotalIssues-res.Count(core.IssueError)-res.Count(core.IssueWarning),
		res.Statistics.SuppressedIssues)
}
