// Package engine runs the registered analyzers over a set of scripts and
// aggregates what they report.
package engine

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapcheck/pkg/catalog"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
	"github.com/leapstack-labs/leapcheck/pkg/parser"
)

// Engine orchestrates one or more analysis runs. It holds no per-run state
// and may be reused.
type Engine struct {
	config   *lint.Config
	registry *lint.Registry
	workers  int
	logger   *slog.Logger
}

// Options holds engine configuration.
type Options struct {
	// Config selects disabled diagnostics and analyzer options. Nil enables everything.
	Config *lint.Config
	// Registry supplies the analyzers. Nil means lint.Default().
	Registry *lint.Registry
	// MaxParallelism bounds the workers of each phase. Zero means runtime.NumCPU().
	MaxParallelism int
	// Debug runs every analyzer on a single goroutine, global phase first.
	Debug  bool
	Logger *slog.Logger
}

// New creates an engine.
func New(opts Options) *Engine {
	e := &Engine{
		config:   opts.Config,
		registry: opts.Registry,
		workers:  opts.MaxParallelism,
		logger:   opts.Logger,
	}
	if e.config == nil {
		e.config = lint.NewConfig()
	}
	if e.registry == nil {
		e.registry = lint.Default()
	}
	if e.workers <= 0 {
		e.workers = runtime.NumCPU()
	}
	if opts.Debug {
		e.workers = 1
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

// Analyze builds the catalog of scripts, runs every enabled analyzer and
// post-processes the issues. Analyzer panics never abort the run.
func (e *Engine) Analyze(scripts []*core.ScriptModel) *AnalysisResult {
	start := time.Now()
	reporter := lint.NewReporter()
	schema := e.config.Schema()

	e.logger.Debug("building catalog", "scripts", len(scripts))
	cat := catalog.Build(scripts, catalog.Options{
		DefaultSchema: schema,
		Reporter:      reporter,
		Logger:        e.logger,
	})
	catalogDone := time.Now()

	clean := e.reportParseErrors(scripts, reporter)
	invocations := e.runAnalyzers(cat, scripts, clean, reporter)
	analysisDone := time.Now()

	result := e.aggregate(scripts, reporter.Issues())
	result.Catalog = cat

	stats := &result.Statistics
	stats.TotalScripts = len(scripts)
	stats.ScriptsWithErrors = len(scripts) - len(clean)
	stats.AnalyzerInvocations = invocations
	stats.CatalogDuration = catalogDone.Sub(start)
	stats.AnalysisDuration = analysisDone.Sub(catalogDone)
	stats.AggregationDuration = time.Since(analysisDone)
	stats.TotalDuration = time.Since(start)

	e.logger.Debug("analysis completed",
		"scripts", stats.TotalScripts,
		"issues", len(result.Issues),
		"suppressed", len(result.SuppressedIssues),
		"duration_ms", stats.TotalDuration.Milliseconds())
	return result
}

// reportParseErrors reports AJ9000 for every script that failed to parse and
// returns the rest.
func (e *Engine) reportParseErrors(scripts []*core.ScriptModel, reporter core.IssueReporter) []*core.ScriptModel {
	var clean []*core.ScriptModel
	for _, s := range scripts {
		if !s.HasErrors() {
			clean = append(clean, s)
			continue
		}
		first := s.Errors[0]
		region := core.UnknownRegion
		if pos, ok := parser.Position(first); ok {
			loc := core.CodeLocation{Line: pos.Line, Column: pos.Column}
			region = core.CodeRegion{Begin: loc, End: loc}
		}
		e.logger.Debug("skipping script with parse errors", "script", s.Path, "errors", len(s.Errors))
		reporter.Report(lint.ScriptContainsErrors, s.DatabaseName, s.Path, "", region, first.Error())
	}
	return clean
}

// runAnalyzers runs the global and the script phase concurrently and returns
// the number of analyzer invocations. Each phase is bounded by e.workers.
func (e *Engine) runAnalyzers(cat *catalog.Catalog, scripts, clean []*core.ScriptModel, reporter core.IssueReporter) int {
	var globals, perScript []lint.AnalyzerDef
	for _, a := range e.registry.All() {
		if e.config.AllDisabled(a) {
			e.logger.Debug("skipping disabled analyzer", "analyzer", a.Name)
			continue
		}
		switch a.Scope {
		case lint.ScopeGlobal:
			globals = append(globals, a)
		case lint.ScopeScript:
			perScript = append(perScript, a)
		}
	}

	global := func() {
		e.logger.Debug("global phase started", "analyzers", len(globals))
		g := e.group()
		for _, a := range globals {
			g.Go(func() error {
				e.runGlobal(a, cat, scripts, reporter)
				return nil
			})
		}
		_ = g.Wait()
		e.logger.Debug("global phase finished")
	}

	script := func() {
		e.logger.Debug("script phase started", "analyzers", len(perScript), "scripts", len(clean))
		g := e.group()
		for _, s := range clean {
			for _, a := range perScript {
				g.Go(func() error {
					e.runScript(a, cat, s, reporter)
					return nil
				})
			}
		}
		_ = g.Wait()
		e.logger.Debug("script phase finished")
	}

	if e.workers == 1 {
		global()
		script()
	} else {
		var phases errgroup.Group
		phases.Go(func() error { global(); return nil })
		phases.Go(func() error { script(); return nil })
		_ = phases.Wait()
	}
	return len(globals) + len(perScript)*len(clean)
}

func (e *Engine) group() *errgroup.Group {
	g := new(errgroup.Group)
	g.SetLimit(e.workers)
	return g
}

func (e *Engine) runGlobal(a lint.AnalyzerDef, cat *catalog.Catalog, scripts []*core.ScriptModel, reporter core.IssueReporter) {
	// global analyzers have no script of their own; the first one anchors a failure
	var anchor, db string
	if len(scripts) > 0 {
		anchor, db = scripts[0].Path, scripts[0].DatabaseName
	}
	defer e.recoverAnalyzer(a.Name, anchor, db, reporter)

	a.CheckGlobal(&lint.GlobalContext{
		Catalog:       cat,
		Scripts:       scripts,
		Options:       e.config.OptionsFor(a.Name),
		DefaultSchema: e.config.Schema(),
		Logger:        e.logger.With("analyzer", a.Name),
		Reporter:      reporter,
	})
}

func (e *Engine) runScript(a lint.AnalyzerDef, cat *catalog.Catalog, s *core.ScriptModel, reporter core.IssueReporter) {
	defer e.recoverAnalyzer(a.Name, s.Path, s.DatabaseName, reporter)

	a.CheckScript(&lint.ScriptContext{
		Catalog:       cat,
		Script:        s,
		Options:       e.config.OptionsFor(a.Name),
		DefaultSchema: e.config.Schema(),
		Logger:        e.logger.With("analyzer", a.Name, "script", s.Path),
		Reporter:      reporter,
	})
}

// recoverAnalyzer turns a panic into an AJ9999 issue. Insertion count
// mismatches are programming errors and keep panicking.
func (e *Engine) recoverAnalyzer(name, scriptPath, db string, reporter core.IssueReporter) {
	r := recover()
	if r == nil {
		return
	}
	if err, ok := r.(*core.InsertionCountError); ok {
		panic(err)
	}
	e.logger.Error("analyzer failed", "analyzer", name, "script", scriptPath, "panic", r)
	reporter.Report(lint.UnhandledAnalyzerException, db, scriptPath, "", core.UnknownRegion, name, fmt.Sprint(r))
}
