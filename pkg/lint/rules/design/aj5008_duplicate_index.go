package design

import (
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/catalog"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func init() {
	lint.Register(DuplicateIndexColumns)
}

// IndexColumnsDuplicated is reported for the later of two indexes with the
// same key columns.
var IndexColumnsDuplicated = core.NewDiagnosticDefinition(
	"AJ5008", core.IssueWarning,
	"Duplicate index",
	"The index {0} on {1} has the same key columns as {2}")

// DuplicateIndexColumns flags indexes whose ordered key columns repeat those
// of an earlier index on the same table.
var DuplicateIndexColumns = lint.AnalyzerDef{
	Name:        "DuplicateIndexColumns",
	Description: "Indexes on a table should not share the same key columns.",
	Scope:       lint.ScopeGlobal,
	Diagnostics: []*core.DiagnosticDefinition{IndexColumnsDuplicated},
	CheckGlobal: checkDuplicateIndexColumns,
	Rationale:   "A second index with identical keys costs writes and storage without helping any query.",
	BadExample: `CREATE INDEX IX_A ON dbo.T (a, b)
CREATE INDEX IX_B ON dbo.T (a, b)`,
}

func checkDuplicateIndexColumns(ctx *lint.GlobalContext) {
	for _, t := range ctx.Catalog.Tables() {
		seen := make(map[string]*catalog.Index, len(t.Indexes))
		for _, idx := range t.Indexes {
			key := indexKey(idx.ColumnNames)
			if key == "" {
				continue
			}
			first, dup := seen[key]
			if !dup {
				seen[key] = idx
				continue
			}
			ctx.ReportObject(IndexColumnsDuplicated, idx, indexLabel(idx), t.FullName(), indexLabel(first))
		}
	}
}

func indexKey(cols []string) string {
	folded := make([]string, len(cols))
	for i, c := range cols {
		folded[i] = core.FoldName(c)
	}
	return core.JoinNameParts(folded)
}

func indexLabel(idx *catalog.Index) string {
	if idx.IndexName != "" {
		return idx.IndexName
	}
	return "(" + strings.Join(idx.ColumnNames, ", ") + ")"
}
