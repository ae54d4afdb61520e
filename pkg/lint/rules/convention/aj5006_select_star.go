package convention

import (
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func init() {
	lint.Register(SelectStar)
}

// SelectStarUsed is reported for * in a select list.
var SelectStarUsed = core.NewDiagnosticDefinition(
	"AJ5006", core.IssueInformation,
	"SELECT *",
	"The select list uses {0}; list the columns explicitly")

// SelectStar flags * and qualifier.* in select lists, except inside EXISTS
// where the list is never read.
var SelectStar = lint.AnalyzerDef{
	Name:        "SelectStar",
	Description: "Select lists should name their columns.",
	Scope:       lint.ScopeScript,
	Diagnostics: []*core.DiagnosticDefinition{SelectStarUsed},
	CheckScript: checkSelectStar,
	Rationale:   "The result shape changes silently when the table changes.",
	BadExample:  "SELECT * FROM dbo.Orders",
	GoodExample: "SELECT id, total FROM dbo.Orders",
}

func checkSelectStar(ctx *lint.ScriptContext) {
	for _, star := range core.Find[*core.StarExpr](ctx.Script.Root) {
		if insideExists(ctx.Script, star) {
			continue
		}
		ctx.Report(SelectStarUsed, star, ctx.Text(star))
	}
}

func insideExists(m *core.ScriptModel, n core.Node) bool {
	ancestors := m.Parents.Ancestors(n)
	for i, anc := range ancestors {
		if _, ok := anc.(*core.SelectStmt); !ok {
			continue
		}
		if i+1 < len(ancestors) {
			_, ok := ancestors[i+1].(*core.ExistsExpr)
			return ok
		}
		return false
	}
	return false
}
