package references

import (
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func init() {
	lint.Register(UnknownTableReference)
}

// TableNotInCatalog is reported for table references the catalog lacks.
var TableNotInCatalog = core.NewDiagnosticDefinition(
	"AJ5004", core.IssueError,
	"Unknown table reference",
	"The table or view {0} is not defined by any analyzed script")

// UnknownTableReference flags row sources that name a table, view, synonym
// or function the catalog does not know. CTEs, temporary tables, table
// variables and four-part names are not checked.
var UnknownTableReference = lint.AnalyzerDef{
	Name:        "UnknownTableReference",
	Description: "Referenced tables and views should be defined.",
	Scope:       lint.ScopeScript,
	Diagnostics: []*core.DiagnosticDefinition{TableNotInCatalog},
	CheckScript: checkUnknownTableReference,
	BadExample:  "SELECT id FROM dbo.Ordrs",
}

func checkUnknownTableReference(ctx *lint.ScriptContext) {
	for _, tn := range core.Find[*core.TableName](ctx.Script.Root) {
		if tn.Name.ServerName() != "" {
			continue
		}
		res, err := ctx.Resolver().Resolve(tn)
		if err != nil {
			ctx.Log().Debug("table reference not resolved", "script", ctx.Script.Path, "table", tn.Name.String(), "error", err)
			continue
		}
		// aliases of another source, e.g. the target of UPDATE o ... FROM T o
		if res.Node != core.Node(tn) {
			continue
		}
		if !res.IsCatalogObject() || res.Database == "" {
			continue
		}
		if !ctx.Catalog.HasRowSource(res.Database, res.Schema, res.Name) {
			ctx.Report(TableNotInCatalog, tn, res.FullObjectNameHint)
		}
	}
}
