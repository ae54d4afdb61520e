package convention_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/internal/testutil"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
	"github.com/leapstack-labs/leapcheck/pkg/lint/rules/convention"
)

func messages(t *testing.T, a lint.AnalyzerDef, sql string) []string {
	t.Helper()
	rec := testutil.RunAnalyzer(t, a, nil, testutil.MustParseScript(t, "q.sql", "Db", sql))
	var out []string
	for _, issue := range rec.Issues() {
		out = append(out, issue.Message)
	}
	return out
}

// ---------- AJ5006 ----------

func TestSelectStar(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{"star", "SELECT * FROM dbo.T", []string{"The select list uses *; list the columns explicitly"}},
		{"qualified star", "SELECT t.* FROM dbo.T t", []string{"The select list uses t.*; list the columns explicitly"}},
		{"explicit columns", "SELECT a, b FROM dbo.T", nil},
		{"count star", "SELECT COUNT(*) FROM dbo.T", nil},
		{"exists", "IF EXISTS (SELECT * FROM dbo.T) SELECT 1", nil},
		{"derived table", "SELECT d.a FROM (SELECT * FROM dbo.T) d", []string{"The select list uses *; list the columns explicitly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messages(t, convention.SelectStar, tt.sql))
		})
	}
}

// ---------- AJ5007 ----------

func TestProcedureParameterUnused(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "all used",
			sql:  "CREATE PROCEDURE dbo.p @id int, @name nvarchar(50) AS SELECT a FROM dbo.T WHERE id = @id AND name = @name",
		},
		{
			name: "unused",
			sql:  "CREATE PROCEDURE dbo.p @id int, @unused int AS SELECT a FROM dbo.T WHERE id = @ID",
			want: []string{"The parameter @unused of procedure dbo.p is never used"},
		},
		{
			name: "assigned output",
			sql:  "CREATE PROCEDURE dbo.p @out int OUTPUT AS SET @out = 1",
		},
		{
			name: "raw statement",
			sql:  "CREATE PROCEDURE dbo.p @msg nvarchar(100) AS RAISERROR(@msg, 16, 1)",
		},
		{
			name: "exec argument",
			sql:  "CREATE PROCEDURE dbo.p @id int AS EXEC dbo.q @id",
		},
		{
			name: "no parameters",
			sql:  "CREATE PROCEDURE dbo.p AS SELECT 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messages(t, convention.ProcedureParameterUnused, tt.sql))
		})
	}
}

func TestProcedureParameterUnused_Region(t *testing.T) {
	rec := testutil.RunAnalyzer(t, convention.ProcedureParameterUnused, nil,
		testutil.MustParseScript(t, "p.sql", "Db", "CREATE PROCEDURE app.p\n    @unused int\nAS\nSELECT 1"))
	require.Len(t, rec.Issues(), 1)
	issue := rec.Issues()[0]
	assert.Equal(t, 2, issue.Region.Begin.Line)
	assert.Equal(t, 5, issue.Region.Begin.Column)
	assert.Equal(t, "app.p", issue.ObjectName)
}
