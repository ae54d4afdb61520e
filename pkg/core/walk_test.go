package core_test

import (
	"testing"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseModel(t *testing.T, db, sql string) *core.ScriptModel {
	t.Helper()
	root, errs := parser.Parse(sql)
	require.Empty(t, errs)
	return core.NewScriptModel(db, "test.sql", sql, root, errs, nil)
}

func TestFind_TableNames(t *testing.T) {
	m := parseModel(t, "db", `WITH c AS (SELECT * FROM dbo.A)
SELECT * FROM c JOIN dbo.B b ON b.id = c.id
WHERE EXISTS (SELECT 1 FROM dbo.C)`)

	var names []string
	for _, tn := range core.Find[*core.TableName](m.Root) {
		names = append(names, tn.Name.String())
	}
	assert.Equal(t, []string{"dbo.A", "c", "dbo.B", "dbo.C"}, names)
}

func TestWalk_SkipChildren(t *testing.T) {
	m := parseModel(t, "db", "SELECT (SELECT x FROM inner_t) FROM outer_t")
	var seen []string
	core.Walk(m.Root, func(n core.Node) bool {
		if tn, ok := n.(*core.TableName); ok {
			seen = append(seen, tn.BaseName())
		}
		_, sub := n.(*core.SubqueryExpr)
		return !sub
	})
	assert.Equal(t, []string{"outer_t"}, seen)
}

func TestParentMap(t *testing.T) {
	m := parseModel(t, "db", "SELECT a FROM dbo.T t WHERE t.x = 1")
	refs := core.Find[*core.TableName](m.Root)
	require.Len(t, refs, 1)

	parent, ok := m.Parent(refs[0])
	require.True(t, ok)
	_, isFrom := parent.(*core.FromClause)
	assert.True(t, isFrom)

	ancestors := m.Parents.Ancestors(refs[0])
	require.NotEmpty(t, ancestors)
	_, isScript := ancestors[len(ancestors)-1].(*core.Script)
	assert.True(t, isScript)

	_, ok = m.Parent(m.Root)
	assert.False(t, ok)
}

func TestScriptModel_DatabaseAt(t *testing.T) {
	m := parseModel(t, "Default", "SELECT 1 FROM a\nGO\nUSE Sales\nGO\nSELECT 1 FROM b")
	stmts := m.Statements()
	require.Len(t, stmts, 3)

	assert.Equal(t, "Default", m.DatabaseAt(stmts[0]))
	assert.Equal(t, "Sales", m.DatabaseAt(stmts[2]))
}

func TestScriptModel_DatabaseAtInsideBlocks(t *testing.T) {
	m := parseModel(t, "Default", `IF 1 = 1
BEGIN
	USE Sales
END
SELECT 1 FROM a
GO
CREATE PROCEDURE dbo.P AS
BEGIN
	USE Archive
	SELECT 1 FROM b
END
GO
SELECT 1 FROM c`)
	refs := core.Find[*core.TableName](m.Root)
	require.Len(t, refs, 3)

	tests := []struct {
		name string
		ref  *core.TableName
		want string
	}{
		{"after USE in IF block", refs[0], "Sales"},
		{"inside routine body", refs[1], "Sales"},
		{"after routine with USE", refs[2], "Sales"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.DatabaseAt(tt.ref))
		})
	}
}

func TestScriptModel_SourceText(t *testing.T) {
	sql := "SELECT a\nFROM dbo.T AS t"
	m := parseModel(t, "db", sql)
	refs := core.Find[*core.TableName](m.Root)
	require.Len(t, refs, 1)
	assert.Equal(t, "dbo.T AS t", m.SourceText(refs[0]))
	assert.Equal(t, sql, m.SourceText(m.Statements()[0]))
	assert.False(t, m.HasErrors())
}

func TestRegionOf(t *testing.T) {
	m := parseModel(t, "db", "SELECT a\n  FROM dbo.T")
	refs := core.Find[*core.TableName](m.Root)
	require.Len(t, refs, 1)
	region := core.RegionOf(refs[0])
	assert.Equal(t, core.CodeLocation{Line: 2, Column: 8}, region.Begin)
	assert.Equal(t, core.CodeLocation{Line: 2, Column: 13}, region.End)
}
