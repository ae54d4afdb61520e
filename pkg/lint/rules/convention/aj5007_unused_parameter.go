package convention

import (
	"regexp"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func init() {
	lint.Register(ProcedureParameterUnused)
}

// ParameterNeverUsed is reported for procedure parameters the body ignores.
var ParameterNeverUsed = core.NewDiagnosticDefinition(
	"AJ5007", core.IssueWarning,
	"Unused parameter",
	"The parameter {0} of procedure {1} is never used")

// ProcedureParameterUnused flags procedure parameters that are neither read
// nor assigned in the body. Statements kept as raw text are searched
// textually.
var ProcedureParameterUnused = lint.AnalyzerDef{
	Name:        "ProcedureParameterUnused",
	Description: "Procedure parameters should be used.",
	Scope:       lint.ScopeScript,
	Diagnostics: []*core.DiagnosticDefinition{ParameterNeverUsed},
	CheckScript: checkProcedureParameterUnused,
	BadExample:  "CREATE PROCEDURE dbo.p @id int AS SELECT 1",
}

func checkProcedureParameterUnused(ctx *lint.ScriptContext) {
	for _, proc := range core.Find[*core.CreateProcedureStmt](ctx.Script.Root) {
		used := usedVariables(proc.Body)
		for _, p := range proc.Params {
			if used.has(p.Name) {
				continue
			}
			ctx.Report(ParameterNeverUsed, p, p.Name, proc.Name.String())
		}
	}
}

var variableRe = regexp.MustCompile(`@@?[\p{L}\p{N}_#$@]+`)

type variableSet map[string]bool

func (s variableSet) has(name string) bool { return s[core.FoldName(name)] }

func (s variableSet) add(name string) { s[core.FoldName(name)] = true }

func usedVariables(body []core.Stmt) variableSet {
	used := make(variableSet)
	for _, stmt := range body {
		core.Walk(stmt, func(n core.Node) bool {
			switch v := n.(type) {
			case *core.VariableRef:
				used.add(v.Name)
			case *core.SetVarStmt:
				used.add(v.Name)
			case *core.VariableTable:
				used.add(v.Name)
			case *core.RawStmt:
				for _, name := range variableRe.FindAllString(v.Text, -1) {
					used.add(name)
				}
			}
			return true
		})
	}
	return used
}
