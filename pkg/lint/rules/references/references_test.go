package references_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/internal/testutil"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint/rules/references"
)

const schema = `CREATE TABLE dbo.Orders (id int PRIMARY KEY, total money)
CREATE TABLE dbo.Lines (id int PRIMARY KEY, order_id int)
GO
CREATE VIEW dbo.BigOrders AS SELECT id FROM dbo.Orders WHERE total > 100
GO
CREATE SYNONYM dbo.O FOR dbo.Orders
`

func scripts(t *testing.T, sql string) []*core.ScriptModel {
	t.Helper()
	return []*core.ScriptModel{
		testutil.MustParseScript(t, "schema.sql", "Db", schema),
		testutil.MustParseScript(t, "query.sql", "Db", sql),
	}
}

// ---------- AJ5004 ----------

func TestUnknownTableReference(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{"known table", "SELECT id FROM dbo.Orders", nil},
		{"default schema", "SELECT id FROM Orders", nil},
		{"view and synonym", "SELECT 1 FROM BigOrders b JOIN dbo.O o ON o.id = b.id", nil},
		{"unknown", "SELECT id FROM dbo.Ordrs", []string{"AJ5004"}},
		{"wrong schema", "SELECT id FROM app.Orders", []string{"AJ5004"}},
		{"temp table", "SELECT id FROM #work", nil},
		{"cte", "WITH x AS (SELECT id FROM dbo.Orders) SELECT id FROM x", nil},
		{"table variable", "DECLARE @t TABLE (id int)\nSELECT id FROM @t", nil},
		{"update alias target", "UPDATE o SET o.total = 0 FROM dbo.Orders o", nil},
		{"insert target", "INSERT INTO dbo.Missing (id) SELECT id FROM dbo.Orders", []string{"AJ5004"}},
		{"four part name", "SELECT id FROM srv.Db.dbo.Remote", nil},
		{"other database", "SELECT id FROM Archive.dbo.Orders", []string{"AJ5004"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.RunAnalyzer(t, references.UnknownTableReference, nil, scripts(t, tt.sql)...)
			assert.Equal(t, tt.want, rec.IDs())
		})
	}
}

func TestUnknownTableReference_Issue(t *testing.T) {
	rec := testutil.RunAnalyzer(t, references.UnknownTableReference, nil,
		scripts(t, "USE Db\nGO\nCREATE PROCEDURE dbo.p AS\nSELECT id FROM Nope")...)
	require.Len(t, rec.Issues(), 1)

	issue := rec.Issues()[0]
	assert.Equal(t, "The table or view Db.dbo.Nope is not defined by any analyzed script", issue.Message)
	assert.Equal(t, "query.sql", issue.ScriptPath)
	assert.Equal(t, "dbo.p", issue.ObjectName)
	assert.Equal(t, core.CodeLocation{Line: 4, Column: 16}, issue.Region.Begin)
}

// ---------- AJ5005 ----------

func TestUnresolvedColumnQualifier(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{"aliases", "SELECT o.id, l.id FROM dbo.Orders o JOIN dbo.Lines l ON l.order_id = o.id", nil},
		{"table name qualifier", "SELECT Orders.id FROM dbo.Orders", nil},
		{"schema qualified", "SELECT dbo.Orders.id FROM dbo.Orders", nil},
		{"unknown alias", "SELECT x.id FROM dbo.Orders o", []string{"AJ5005"}},
		{"alias hides name", "SELECT Orders.id FROM dbo.Orders o", []string{"AJ5005"}},
		{"correlated", "SELECT id FROM dbo.Orders o WHERE EXISTS (SELECT 1 FROM dbo.Lines l WHERE l.order_id = o.id)", nil},
		{"order by", "SELECT o.id FROM dbo.Orders o ORDER BY o.total", nil},
		{"missing alias", "SELECT q.id FROM dbo.Orders o JOIN dbo.Lines ON Lines.order_id = o.id", []string{"AJ5016"}},
		{"merge", "MERGE dbo.Orders AS t USING dbo.Lines s ON t.id = s.order_id WHEN MATCHED THEN DELETE;", nil},
		{"unqualified", "SELECT id FROM dbo.Orders", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.RunAnalyzer(t, references.UnresolvedColumnQualifier, nil, scripts(t, tt.sql)...)
			var ids []string
			for _, issue := range rec.Issues() {
				if issue.ScriptPath == "query.sql" {
					ids = append(ids, issue.DiagnosticID())
				}
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestUnresolvedColumnQualifier_Message(t *testing.T) {
	rec := testutil.RunAnalyzer(t, references.UnresolvedColumnQualifier, nil,
		testutil.MustParseScript(t, "q.sql", "Db", "SELECT x.id FROM dbo.Orders o"))
	require.Len(t, rec.Issues(), 1)
	assert.Equal(t, "The qualifier x of column id does not match any table source in scope", rec.Issues()[0].Message)
}
