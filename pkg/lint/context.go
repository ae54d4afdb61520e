package lint

import (
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapcheck/pkg/catalog"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/resolve"
)

// GlobalContext is what a global analyzer sees. The catalog and scripts are
// shared read-only snapshots.
type GlobalContext struct {
	Catalog       *catalog.Catalog
	Scripts       []*core.ScriptModel
	Options       Options
	DefaultSchema string
	Logger        *slog.Logger
	Reporter      core.IssueReporter
}

// ReportObject reports def against a catalog object, at the object's
// declaration.
func (c *GlobalContext) ReportObject(def *core.DiagnosticDefinition, obj catalog.SchemaBoundObject, insertions ...string) {
	info := obj.Info()
	c.Reporter.Report(def, info.DatabaseName, info.ScriptPath, info.ObjectName, info.Region(), insertions...)
}

// ScriptContext is what a script analyzer sees for one script.
type ScriptContext struct {
	Catalog       *catalog.Catalog
	Script        *core.ScriptModel
	Options       Options
	DefaultSchema string
	Logger        *slog.Logger
	Reporter      core.IssueReporter

	resolverOnce sync.Once
	resolver     *resolve.Resolver
}

// Resolver returns the script's reference resolver. Missing aliases it finds
// are reported to the context's reporter.
func (c *ScriptContext) Resolver() *resolve.Resolver {
	c.resolverOnce.Do(func() {
		c.resolver = resolve.New(c.Script, c.DefaultSchema, c.Reporter)
	})
	return c.resolver
}

// Report reports def at node. The database comes from the USE in effect at
// node and the object from the routine or view containing it.
func (c *ScriptContext) Report(def *core.DiagnosticDefinition, node core.Node, insertions ...string) {
	c.Reporter.Report(def,
		c.Script.DatabaseAt(node),
		c.Script.Path,
		resolve.ObjectNameAt(c.Script, node, c.DefaultSchema),
		core.RegionOf(node),
		insertions...)
}

// Log returns the context's logger, or a discarding one.
func (c *ScriptContext) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Text returns the source text of node.
func (c *ScriptContext) Text(node core.Node) string {
	return c.Script.SourceText(node)
}
