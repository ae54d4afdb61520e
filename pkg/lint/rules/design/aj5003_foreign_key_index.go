package design

import (
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/catalog"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func init() {
	lint.Register(ForeignKeyWithoutIndex)
}

// ForeignKeyIndexMissing is reported for foreign keys no index can serve.
var ForeignKeyIndexMissing = core.NewDiagnosticDefinition(
	"AJ5003", core.IssueMissingIndex,
	"Foreign key without index",
	"The foreign key {0} on {1} ({2}) is not covered by an index")

// ForeignKeyWithoutIndex flags foreign keys whose columns are not the leading
// key columns of any index on the table.
var ForeignKeyWithoutIndex = lint.AnalyzerDef{
	Name:        "ForeignKeyWithoutIndex",
	Description: "Foreign key columns should be indexed.",
	Scope:       lint.ScopeGlobal,
	Diagnostics: []*core.DiagnosticDefinition{ForeignKeyIndexMissing},
	CheckGlobal: checkForeignKeyWithoutIndex,
	Rationale:   "Deleting a parent row scans the child table when the foreign key columns are not indexed.",
	BadExample: `CREATE TABLE dbo.Lines (id int PRIMARY KEY, order_id int)
ALTER TABLE dbo.Lines ADD CONSTRAINT FK_Lines_Orders FOREIGN KEY (order_id) REFERENCES dbo.Orders (id)`,
	GoodExample: "CREATE INDEX IX_Lines_order_id ON dbo.Lines (order_id)",
}

func checkForeignKeyWithoutIndex(ctx *lint.GlobalContext) {
	for _, t := range ctx.Catalog.Tables() {
		for _, fk := range t.ForeignKeys {
			if len(fk.ColumnNames) == 0 || coveredByIndex(fk.ColumnNames, t.Indexes) {
				continue
			}
			name := fk.ConstraintName
			if name == "" {
				name = "(unnamed)"
			}
			ctx.ReportObject(ForeignKeyIndexMissing, fk, name, t.FullName(), strings.Join(fk.ColumnNames, ", "))
		}
	}
}

// coveredByIndex reports whether some index starts with exactly the given
// columns, in any order.
func coveredByIndex(cols []string, indexes []*catalog.Index) bool {
	want := make(map[string]bool, len(cols))
	for _, c := range cols {
		want[core.FoldName(c)] = true
	}
	for _, idx := range indexes {
		if len(idx.ColumnNames) < len(want) {
			continue
		}
		matched := 0
		for _, c := range idx.ColumnNames[:len(want)] {
			if want[core.FoldName(c)] {
				matched++
			}
		}
		if matched == len(want) {
			return true
		}
	}
	return false
}
