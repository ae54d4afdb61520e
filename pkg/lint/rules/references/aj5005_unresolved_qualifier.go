package references

import (
	"errors"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
	"github.com/leapstack-labs/leapcheck/pkg/resolve"
)

func init() {
	lint.Register(UnresolvedColumnQualifier)
}

// QualifierNotInScope is reported for column qualifiers that name no source.
var QualifierNotInScope = core.NewDiagnosticDefinition(
	"AJ5005", core.IssueError,
	"Unresolved column qualifier",
	"The qualifier {0} of column {1} does not match any table source in scope")

// UnresolvedColumnQualifier resolves the qualifier of every qualified column
// reference. Qualifiers that fall inside a join with an unaliased side are
// reported as missing aliases by the resolver instead.
var UnresolvedColumnQualifier = lint.AnalyzerDef{
	Name:        "UnresolvedColumnQualifier",
	Description: "Column qualifiers should name a table source of the statement.",
	Scope:       lint.ScopeScript,
	Diagnostics: []*core.DiagnosticDefinition{QualifierNotInScope, resolve.MissingAlias},
	CheckScript: checkUnresolvedColumnQualifier,
	BadExample:  "SELECT x.id FROM dbo.Orders o",
	GoodExample: "SELECT o.id FROM dbo.Orders o",
}

func checkUnresolvedColumnQualifier(ctx *lint.ScriptContext) {
	for _, col := range core.Find[*core.ColumnRef](ctx.Script.Root) {
		qualifier := col.QualifierParts()
		if len(qualifier) == 0 {
			continue
		}
		_, err := ctx.Resolver().ResolveQualifier(col)
		if errors.Is(err, resolve.ErrNotFound) {
			ctx.Report(QualifierNotInScope, col, (&core.ObjectName{Parts: qualifier}).String(), col.Column())
		}
	}
}
