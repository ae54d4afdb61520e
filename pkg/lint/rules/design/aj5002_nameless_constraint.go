package design

import (
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func init() {
	lint.Register(NamelessConstraint)
}

// ConstraintWithoutName is reported for unnamed constraints.
var ConstraintWithoutName = core.NewDiagnosticDefinition(
	"AJ5002", core.IssueWarning,
	"Nameless constraint",
	"The {0} constraint on {1} has no name")

// defaultAllowedKinds may stay unnamed unless configured otherwise.
var defaultAllowedKinds = []string{"default", "unique", "check"}

// NamelessConstraint flags primary and foreign keys declared without a name.
// Which kinds may stay unnamed is configurable through allowed_kinds.
var NamelessConstraint = lint.AnalyzerDef{
	Name:        "NamelessConstraint",
	Description: "Key constraints should be named.",
	Scope:       lint.ScopeScript,
	Diagnostics: []*core.DiagnosticDefinition{ConstraintWithoutName},
	ConfigKeys:  []string{"allowed_kinds"},
	CheckScript: checkNamelessConstraint,
	Rationale:   "Generated names differ between databases, so later ALTER and DROP statements cannot name the constraint.",
	BadExample:  "CREATE TABLE dbo.T (id int PRIMARY KEY)",
	GoodExample: "CREATE TABLE dbo.T (id int CONSTRAINT PK_T PRIMARY KEY)",
}

func checkNamelessConstraint(ctx *lint.ScriptContext) {
	allowed := make(map[string]bool)
	for _, k := range lint.GetStringSliceOption(ctx.Options, "allowed_kinds", defaultAllowedKinds) {
		allowed[kindKey(k)] = true
	}
	check := func(table *core.ObjectName, node core.Node, name core.Identifier, kind core.ConstraintKind) {
		if !name.IsZero() || allowed[kindKey(kind.String())] || table.IsTemporary() {
			return
		}
		ctx.Report(ConstraintWithoutName, node, kind.String(), table.String())
	}

	core.Walk(ctx.Script.Root, func(n core.Node) bool {
		switch s := n.(type) {
		case *core.CreateTableStmt:
			for _, col := range s.Columns {
				for _, c := range col.Constraints {
					check(s.Name, c, c.Name, c.Kind)
				}
			}
			for _, c := range s.Constraints {
				check(s.Name, c, c.Name, c.Kind)
			}
		case *core.AlterTableAddStmt:
			for _, col := range s.Columns {
				for _, c := range col.Constraints {
					check(s.Table, c, c.Name, c.Kind)
				}
			}
			for _, c := range s.Constraints {
				check(s.Table, c, c.Name, c.Kind)
			}
		}
		return true
	})
}

// kindKey normalizes "PRIMARY KEY", "primary_key" and "primarykey".
func kindKey(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}
