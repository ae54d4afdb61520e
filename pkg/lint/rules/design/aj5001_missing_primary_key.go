package design

import (
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func init() {
	lint.Register(MissingPrimaryKey)
}

// PrimaryKeyMissing is reported for tables without a primary key.
var PrimaryKeyMissing = core.NewDiagnosticDefinition(
	"AJ5001", core.IssueWarning,
	"Missing primary key",
	"The table {0} has no primary key")

// MissingPrimaryKey flags catalog tables that declare no primary key, inline
// or through ALTER TABLE.
var MissingPrimaryKey = lint.AnalyzerDef{
	Name:        "MissingPrimaryKey",
	Description: "Tables should have a primary key.",
	Scope:       lint.ScopeGlobal,
	Diagnostics: []*core.DiagnosticDefinition{PrimaryKeyMissing},
	CheckGlobal: checkMissingPrimaryKey,
	Rationale:   "Rows without a key cannot be addressed reliably, and replication and many tools require one.",
	BadExample:  "CREATE TABLE dbo.Orders (id int NOT NULL)",
	GoodExample: "CREATE TABLE dbo.Orders (id int NOT NULL CONSTRAINT PK_Orders PRIMARY KEY)",
}

func checkMissingPrimaryKey(ctx *lint.GlobalContext) {
	for _, t := range ctx.Catalog.Tables() {
		if _, ok := t.PrimaryKey(); !ok {
			ctx.ReportObject(PrimaryKeyMissing, t, t.FullName())
		}
	}
}
