package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/cli/config"
	"github.com/leapstack-labs/leapcheck/internal/engine"
	"github.com/leapstack-labs/leapcheck/internal/loader"
	"github.com/leapstack-labs/leapcheck/internal/state"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// ErrFailOnReached is returned by analyze when an issue reaches the
// --fail-on threshold. main turns it into a non-zero exit code.
var ErrFailOnReached = errors.New("issues at or above the fail-on threshold")

// AnalyzeOptions holds options for the analyze command.
type AnalyzeOptions struct {
	Paths   []string // Files or directories; empty means the configured scripts_dir
	Format  string   // Output format override
	FailOn  string   // none, warning or error
	Include []string // Overrides the configured include globs
	Exclude []string // Overrides the configured exclude globs
	NoState bool     // Do not record the run
	Watch   bool     // Re-run on changes
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}
	cmd := &cobra.Command{
		Use:     "analyze [paths...]",
		Aliases: []string{"check"},
		Short:   "Analyze T-SQL scripts",
		Long: `Analyze T-SQL scripts for design, reference and convention issues.

All scripts are parsed, a catalog of the objects they create is built, and
every enabled analyzer runs over the catalog and the scripts. Issues can be
muted in place with comments:

  -- #pragma diagnostic disable AJ5001 -> legacy table
  CREATE TABLE dbo.Legacy (id int)
  -- #pragma diagnostic restore AJ5001

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON/YAML: Machine-readable format`,
		Example: `  # Analyze the configured scripts directory
  leapcheck analyze

  # Analyze specific files and directories
  leapcheck analyze db/tables db/procs/usp_orders.sql

  # Fail only on errors, output JSON
  leapcheck analyze --fail-on error --format json

  # Re-run whenever a script changes
  leapcheck analyze --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Paths = args
			return runAnalyze(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json, yaml")
	cmd.Flags().StringVar(&opts.FailOn, "fail-on", "", "Exit non-zero at this issue level: none, warning, error")
	cmd.Flags().StringSliceVar(&opts.Include, "include", nil, "Glob of scripts to include (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "Glob of scripts or directories to exclude (repeatable)")
	cmd.Flags().BoolVar(&opts.NoState, "no-state", false, "Do not record the run in the state database")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run the analysis when a script changes")

	_ = cmd.RegisterFlagCompletionFunc("fail-on", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.FailOnNone, config.FailOnWarning, config.FailOnError}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// analysisRun is one completed analysis.
type analysisRun struct {
	RunID  string
	Load   *loader.Result
	Result *engine.AnalysisResult
}

func runAnalyze(cmd *cobra.Command, opts *AnalyzeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := rendererFor(cmd, cmdCtx.Renderer, opts.Format)

	if len(opts.Paths) == 0 {
		if err := cmdCtx.Cfg.ValidateDirectories(); err != nil {
			return err
		}
	}

	if opts.Watch {
		return watchAnalyze(cmd.Context(), cmdCtx, r, opts)
	}

	run, err := runAnalysis(cmd.Context(), cmdCtx, opts)
	if err != nil {
		return err
	}
	if err := renderAnalysis(r, run); err != nil {
		return err
	}

	failOn := opts.FailOn
	if failOn == "" {
		failOn = cmdCtx.Cfg.FailOn
	}
	return checkFailOn(run.Result, failOn)
}

// runAnalysis loads, analyzes and records one run.
func runAnalysis(ctx context.Context, cmdCtx *CommandContext, opts *AnalyzeOptions) (*analysisRun, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger

	rec := newRunRecorder(cfg, logger, opts.NoState || cfg.NoState)
	defer rec.close()
	rec.start(analysisRoot(cfg, opts.Paths))

	loaded, err := loadScripts(ctx, cfg, opts, logger)
	if err != nil {
		rec.fail(err)
		return nil, err
	}

	result := cmdCtx.Engine.Analyze(loaded.Scripts)
	rec.complete(result)

	return &analysisRun{RunID: rec.runID(), Load: loaded, Result: result}, nil
}

func analysisRoot(cfg *config.Config, paths []string) string {
	if len(paths) > 0 {
		return strings.Join(paths, ", ")
	}
	return cfg.ScriptsDir
}

// loadScripts loads the scripts under scripts_dir, or the given paths.
func loadScripts(ctx context.Context, cfg *config.Config, opts *AnalyzeOptions, logger *slog.Logger) (*loader.Result, error) {
	lopts := loader.Options{
		Root:            cfg.ScriptsDir,
		Include:         cfg.Include,
		Exclude:         cfg.Exclude,
		DefaultDatabase: cfg.DefaultDatabase,
		Logger:          logger,
	}
	if len(opts.Include) > 0 {
		lopts.Include = opts.Include
	}
	if len(opts.Exclude) > 0 {
		lopts.Exclude = opts.Exclude
	}

	if len(opts.Paths) == 0 {
		return loader.Load(ctx, lopts)
	}

	files, err := collectFiles(lopts, opts.Paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", loader.ErrNoScripts, strings.Join(opts.Paths, ", "))
	}
	lopts.Root = ""
	return loader.LoadFiles(ctx, lopts, files)
}

// collectFiles expands directories through discovery. Files named
// explicitly are taken as they are, whatever their extension.
func collectFiles(lopts loader.Options, paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot analyze %s: %w", p, err)
		}
		if !info.IsDir() {
			add(filepath.ToSlash(filepath.Clean(p)))
			continue
		}
		dopts := lopts
		dopts.Root = p
		found, err := loader.Discover(dopts)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(path.Join(filepath.ToSlash(p), f))
		}
	}
	return files, nil
}

// checkFailOn returns ErrFailOnReached when result holds an issue at or
// above the threshold.
func checkFailOn(result *engine.AnalysisResult, failOn string) error {
	var threshold core.IssueType
	switch strings.ToLower(failOn) {
	case "", config.FailOnNone:
		return nil
	case config.FailOnWarning:
		threshold = core.IssueWarning
	case config.FailOnError:
		threshold = core.IssueError
	default:
		return fmt.Errorf("invalid --fail-on value %q: expected none, warning or error", failOn)
	}
	if result.HasAtLeast(threshold) {
		return fmt.Errorf("%w (%s)", ErrFailOnReached, strings.ToLower(failOn))
	}
	return nil
}

// runRecorder writes a run to the state database. Any state failure is
// logged and disables recording; it never fails the analysis.
type runRecorder struct {
	store   state.Store
	cleanup func()
	run     *state.Run
	logger  *slog.Logger
}

func newRunRecorder(cfg *config.Config, logger *slog.Logger, disabled bool) *runRecorder {
	rec := &runRecorder{logger: logger}
	if disabled {
		return rec
	}
	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		logger.Warn("run history disabled", "path", cfg.StatePath, "error", err.Error())
		return rec
	}
	rec.store, rec.cleanup = store, cleanup
	return rec
}

func (rec *runRecorder) start(root string) {
	if rec.store == nil {
		return
	}
	run, err := rec.store.CreateRun(root)
	if err != nil {
		rec.logger.Warn("failed to record run", "error", err.Error())
		return
	}
	rec.run = run
}

func (rec *runRecorder) fail(cause error) {
	if rec.run == nil {
		return
	}
	if err := rec.store.CompleteRun(rec.run.ID, state.RunStatusFailed, state.RunSummary{}, cause.Error()); err != nil {
		rec.logger.Warn("failed to record run failure", "run", rec.run.ID, "error", err.Error())
	}
}

func (rec *runRecorder) complete(result *engine.AnalysisResult) {
	if rec.run == nil {
		return
	}
	if err := rec.store.SaveIssues(rec.run.ID, result.Issues, result.SuppressedIssues); err != nil {
		rec.logger.Warn("failed to record issues", "run", rec.run.ID, "error", err.Error())
		_ = rec.store.CompleteRun(rec.run.ID, state.RunStatusFailed, state.RunSummary{}, err.Error())
		return
	}
	summary := state.RunSummary{
		ScriptCount:     result.Statistics.TotalScripts,
		IssueCount:      result.Statistics.TotalIssues,
		SuppressedCount: result.Statistics.SuppressedIssues,
	}
	if err := rec.store.CompleteRun(rec.run.ID, state.RunStatusCompleted, summary, ""); err != nil {
		rec.logger.Warn("failed to complete run", "run", rec.run.ID, "error", err.Error())
	}
}

func (rec *runRecorder) runID() string {
	if rec.run == nil {
		return ""
	}
	return rec.run.ID
}

func (rec *runRecorder) close() {
	if rec.cleanup != nil {
		rec.cleanup()
	}
}
