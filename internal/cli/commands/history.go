package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/leapstack-labs/leapcheck/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit  int    // Number of runs to list
	Format string // Output format
}

// RunDetails is the machine-readable output of history <run-id>.
type RunDetails struct {
	Run    *state.Run          `json:"run" yaml:"run"`
	Issues []state.StoredIssue `json:"issues" yaml:"issues"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past analysis runs",
		Long: `List the analysis runs recorded in the state database, newest first,
or show the issues of a single run.`,
		Example: `  # List the last 20 runs
  leapcheck history

  # Show the issues of one run
  leapcheck history 1f0c6c9e-5f7a-4b1e-9f59-0a4c2f0f4f11`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRun(cmd, args[0], opts)
			}
			return listRuns(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of runs to list (0 for all)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json, yaml")

	return cmd
}

func listRuns(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := rendererFor(cmd, cmdCtx.Renderer, opts.Format)

	store, cleanup, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer cleanup()

	runs, err := store.ListRuns(opts.Limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode().IsStructured() {
		if runs == nil {
			runs = []*state.Run{}
		}
		return r.Structured(runs)
	}

	r.Header(1, "Analysis Runs")
	if len(runs) == 0 {
		r.Muted("No runs recorded yet. Run 'leapcheck analyze' first.")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			string(run.Status),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			runDuration(run),
			strconv.Itoa(run.ScriptCount),
			strconv.Itoa(run.IssueCount),
			strconv.Itoa(run.SuppressedCount),
		})
	}
	r.Table([]string{"Run", "Status", "Started", "Duration", "Scripts", "Issues", "Suppressed"}, rows)
	return nil
}

func runDuration(run *state.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}

func showRun(cmd *cobra.Command, id string, opts *HistoryOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := rendererFor(cmd, cmdCtx.Renderer, opts.Format)

	store, cleanup, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer cleanup()

	run, err := store.GetRun(id)
	if errors.Is(err, state.ErrRunNotFound) {
		return fmt.Errorf("run %q not found; use 'leapcheck history' to list runs", id)
	}
	if err != nil {
		return err
	}
	issues, err := store.GetRunIssues(id)
	if err != nil {
		return err
	}

	if r.EffectiveMode().IsStructured() {
		if issues == nil {
			issues = []state.StoredIssue{}
		}
		return r.Structured(RunDetails{Run: run, Issues: issues})
	}

	r.Header(1, "Run "+run.ID)
	if r.EffectiveMode() == output.ModeText {
		r.Println()
	}
	r.Println(output.FormatKeyValue("Status", string(run.Status)))
	r.Println(output.FormatKeyValue("Root", run.Root))
	r.Println(output.FormatKeyValue("Started", run.StartedAt.Local().Format(time.RFC3339)))
	r.Println(output.FormatKeyValue("Duration", runDuration(run)))
	r.Println(output.FormatKeyValue("Scripts", strconv.Itoa(run.ScriptCount)))
	if run.Error != "" {
		r.Println(output.FormatKeyValue("Error", run.Error))
	}
	r.Println()

	if len(issues) == 0 {
		r.Success("No issues recorded")
		return nil
	}
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		loc := issue.ScriptPath
		if !issue.Region.IsUnknown() {
			loc = fmt.Sprintf("%s:%d:%d", issue.ScriptPath, issue.Region.Begin.Line, issue.Region.Begin.Column)
		}
		note := ""
		if issue.Suppressed {
			note = "suppressed"
			if issue.SuppressionReason != "" {
				note += ": " + issue.SuppressionReason
			}
		}
		rows = append(rows, []string{issue.DiagnosticID, issue.Type, loc, issue.Message, note})
	}
	r.Table([]string{"ID", "Type", "Location", "Message", "Note"}, rows)
	return nil
}
