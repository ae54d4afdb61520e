package resolve_test

import (
	"testing"

	"github.com/leapstack-labs/leapcheck/internal/testutil"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableName(schema, name, alias string) *core.TableName {
	parts := []core.Identifier{{Value: name}}
	if schema != "" {
		parts = append([]core.Identifier{{Value: schema}}, parts...)
	}
	return &core.TableName{Name: &core.ObjectName{Parts: parts}, Alias: core.Identifier{Value: alias}}
}

func column(t *testing.T, m *core.ScriptModel, text string) *core.ColumnRef {
	t.Helper()
	for _, c := range core.Find[*core.ColumnRef](m.Root) {
		if c.String() == text {
			return c
		}
	}
	t.Fatalf("column %s not found", text)
	return nil
}

func table(t *testing.T, m *core.ScriptModel, text string) *core.TableName {
	t.Helper()
	for _, tn := range core.Find[*core.TableName](m.Root) {
		if tn.Name.String() == text {
			return tn
		}
	}
	t.Fatalf("table %s not found", text)
	return nil
}

func setup(t *testing.T, sql string) (*core.ScriptModel, *resolve.Resolver, *testutil.IssueRecorder) {
	t.Helper()
	m := testutil.MustParseScript(t, "q.sql", "Db", sql)
	rec := &testutil.IssueRecorder{}
	return m, resolve.New(m, "dbo", rec), rec
}

// ---------- IsSameTable ----------

func TestIsSameTable(t *testing.T) {
	same := tableName("", "T", "")
	tests := []struct {
		name string
		a, b *core.TableName
		want bool
	}{
		{"identity", same, same, true},
		{"both aliased equal", tableName("dbo", "A", "x"), tableName("dbo", "B", "X"), true},
		{"both aliased different", tableName("dbo", "A", "x"), tableName("dbo", "A", "y"), false},
		{"unaliased default schema", tableName("", "Orders", ""), tableName("DBO", "orders", ""), true},
		{"unaliased other schema", tableName("app", "Orders", ""), tableName("", "Orders", ""), false},
		{"alias matches bare name", tableName("dbo", "Orders", "o"), tableName("", "O", ""), true},
		{"bare name matches alias", tableName("", "o", ""), tableName("dbo", "Orders", "o"), true},
		{"alias matches qualified name", tableName("dbo", "Orders", "o"), tableName("dbo", "o", ""), true},
		{"qualified name matches alias", tableName("app", "o", ""), tableName("dbo", "Orders", "o"), true},
		{"alias against object name", tableName("dbo", "Orders", "o"), tableName("", "Orders", ""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolve.IsSameTable(tt.a, tt.b, "dbo"))
		})
	}
}

// ---------- Joins ----------

func TestResolveQualifier_AliasedJoin(t *testing.T) {
	m, r, rec := setup(t, "SELECT * FROM A a JOIN B b ON a.x = b.y WHERE b.z = 1")

	res, err := r.ResolveQualifier(column(t, m, "b.z"))
	require.NoError(t, err)
	assert.Equal(t, "B", res.Name)
	assert.Equal(t, "dbo", res.Schema)
	assert.Equal(t, "Db", res.Database)
	assert.Equal(t, resolve.SourceTableOrView, res.Kind)
	assert.Equal(t, "Db.dbo.B", res.FullObjectNameHint)
	assert.Same(t, table(t, m, "B"), res.Node)

	res, err = r.ResolveQualifier(column(t, m, "a.x"))
	require.NoError(t, err)
	assert.Equal(t, "A", res.Name)
	assert.Empty(t, rec.Issues())
}

// unknownSource is a table source kind the resolver does not know.
type unknownSource struct{ *core.TableName }

func TestResolveQualifier_UnhandledSourceKind(t *testing.T) {
	m, r, _ := setup(t, "SELECT a.x FROM A a")
	col := column(t, m, "a.x")
	spec := m.Statements()[0].(*core.SelectStmt).Query.(*core.QuerySpec)
	spec.From.Tables[0] = unknownSource{spec.From.Tables[0].(*core.TableName)}

	assert.PanicsWithValue(t, "resolve: unhandled table source resolve_test.unknownSource", func() {
		_, _ = r.ResolveQualifier(col)
	})
}

func TestResolveQualifier_MissingAlias(t *testing.T) {
	m, r, rec := setup(t, "SELECT * FROM A a JOIN B ON a.x = B.y WHERE q.z = 1")

	res, err := r.ResolveQualifier(column(t, m, "B.y"))
	require.NoError(t, err, "an unaliased side is still reachable by name")
	assert.Equal(t, "B", res.Name)

	_, err = r.ResolveQualifier(column(t, m, "q.z"))
	assert.ErrorIs(t, err, resolve.ErrMissingAlias)
	require.Equal(t, []string{"AJ5016"}, rec.IDs())
	assert.Equal(t, "q.sql", rec.Issues()[0].ScriptPath)
	assert.Contains(t, rec.Issues()[0].Message, "B")
}

func TestResolveQualifier_JoinChain(t *testing.T) {
	m, r, rec := setup(t, "SELECT * FROM A JOIN B ON A.id = B.id JOIN C c ON c.id = B.id WHERE c.v = 1")

	res, err := r.ResolveQualifier(column(t, m, "c.v"))
	require.NoError(t, err)
	assert.Equal(t, "C", res.Name)
	assert.Empty(t, rec.Issues(), "a match anywhere in the join wins over a missing alias")
}

func TestResolve_NotFound(t *testing.T) {
	m, r, rec := setup(t, "SELECT x.a FROM dbo.T")
	_, err := r.ResolveQualifier(column(t, m, "x.a"))
	assert.ErrorIs(t, err, resolve.ErrNotFound)
	assert.Empty(t, rec.Issues())

	_, err = r.ResolveQualifier(&core.ColumnRef{Parts: []core.Identifier{{Value: "a"}}})
	assert.ErrorIs(t, err, resolve.ErrNotFound)
}

func TestResolve_TableItself(t *testing.T) {
	m, r, _ := setup(t, "USE Sales\nGO\nSELECT * FROM app.T t CROSS APPLY dbo.Fn(t.id) f")

	res, err := r.Resolve(table(t, m, "app.T"))
	require.NoError(t, err)
	assert.Equal(t, "Sales", res.Database)
	assert.Equal(t, "app", res.Schema)
	assert.Equal(t, "Sales.app.T", res.FullObjectNameHint)
	assert.True(t, res.IsCatalogObject())

	res, err = r.ResolveQualifier(column(t, m, "t.id"))
	require.NoError(t, err)
	assert.Equal(t, "T", res.Name)
}

// ---------- Scopes ----------

func TestResolve_CTE(t *testing.T) {
	m, r, _ := setup(t, "WITH recent AS (SELECT id FROM dbo.Orders) SELECT r.id FROM recent r JOIN recent ON 1 = 1")

	res, err := r.ResolveQualifier(column(t, m, "r.id"))
	require.NoError(t, err)
	assert.Equal(t, resolve.SourceCTE, res.Kind)
	assert.Equal(t, "recent", res.Name)
	assert.False(t, res.IsCatalogObject())

	_, ok := res.Node.(*core.CTE)
	assert.True(t, ok)
}

func TestResolve_CorrelatedSubquery(t *testing.T) {
	m, r, _ := setup(t, `SELECT * FROM dbo.Orders o
WHERE EXISTS (SELECT 1 FROM dbo.Lines l WHERE l.order_id = o.id)`)

	res, err := r.ResolveQualifier(column(t, m, "o.id"))
	require.NoError(t, err)
	assert.Equal(t, "Orders", res.Name)

	res, err = r.ResolveQualifier(column(t, m, "l.order_id"))
	require.NoError(t, err)
	assert.Equal(t, "Lines", res.Name)
}

func TestResolve_DerivedTable(t *testing.T) {
	m, r, _ := setup(t, "SELECT d.n FROM (SELECT 1 AS n) d")
	res, err := r.ResolveQualifier(column(t, m, "d.n"))
	require.NoError(t, err)
	assert.Equal(t, resolve.SourceDerivedTable, res.Kind)
}

func TestResolve_StopsAtStatement(t *testing.T) {
	m, r, _ := setup(t, "SELECT * FROM dbo.A a\nSELECT a.id FROM dbo.B b")
	_, err := r.ResolveQualifier(column(t, m, "a.id"))
	assert.ErrorIs(t, err, resolve.ErrNotFound)
}

// ---------- DML targets ----------

func TestResolve_UpdateAliasTarget(t *testing.T) {
	m, r, _ := setup(t, "UPDATE o SET o.total = 0 FROM dbo.Orders o WHERE o.id = 1")

	target := table(t, m, "o")
	res, err := r.Resolve(target)
	require.NoError(t, err)
	assert.Equal(t, "Orders", res.Name)
	assert.Same(t, table(t, m, "dbo.Orders"), res.Node)

	res, err = r.ResolveQualifier(column(t, m, "o.total"))
	require.NoError(t, err)
	assert.Equal(t, "Orders", res.Name)
}

func TestResolve_UpdateQualifiedAliasTarget(t *testing.T) {
	m, r, rec := setup(t, "UPDATE dbo.o SET x = 1 FROM dbo.Orders o")

	res, err := r.Resolve(table(t, m, "dbo.o"))
	require.NoError(t, err)
	assert.Equal(t, "Orders", res.Name)
	assert.Same(t, table(t, m, "dbo.Orders"), res.Node)
	assert.Empty(t, rec.Issues())
}

func TestResolve_DeleteWithoutFrom(t *testing.T) {
	m, r, _ := setup(t, "DELETE FROM dbo.Orders WHERE Orders.id = 1")
	res, err := r.ResolveQualifier(column(t, m, "Orders.id"))
	require.NoError(t, err)
	assert.Equal(t, "Orders", res.Name)
}

func TestResolve_MergeAlias(t *testing.T) {
	m, r, rec := setup(t, `MERGE dbo.Target AS t
USING dbo.Source s ON t.id = s.id
WHEN MATCHED THEN UPDATE SET t.v = s.v;`)

	res, err := r.ResolveQualifier(column(t, m, "t.id"))
	require.NoError(t, err)
	assert.Equal(t, "Target", res.Name)

	res, err = r.ResolveQualifier(column(t, m, "s.v"))
	require.NoError(t, err)
	assert.Equal(t, "Source", res.Name)

	target := table(t, m, "dbo.Target")
	assert.True(t, target.Alias.IsZero(), "the tree is not modified")
	assert.Empty(t, rec.Issues())
}

func TestObjectNameAt(t *testing.T) {
	m, _, _ := setup(t, "CREATE PROCEDURE app.p AS SELECT x FROM dbo.T\nGO\nSELECT y FROM dbo.U")
	assert.Equal(t, "app.p", resolve.ObjectNameAt(m, table(t, m, "dbo.T"), "dbo"))
	assert.Empty(t, resolve.ObjectNameAt(m, table(t, m, "dbo.U"), "dbo"))
	assert.Equal(t, "app.p", resolve.ObjectNameAt(m, m.Statements()[0], "dbo"))
}

func TestResolve_OrderBy(t *testing.T) {
	m, r, _ := setup(t, "WITH c AS (SELECT x.a FROM dbo.T) SELECT x.id FROM dbo.Orders x ORDER BY x.id DESC")

	refs := core.Find[*core.ColumnRef](m.Root)
	orderBy := refs[len(refs)-1]
	res, err := r.ResolveQualifier(orderBy)
	require.NoError(t, err)
	assert.Equal(t, "Orders", res.Name)

	_, err = r.ResolveQualifier(column(t, m, "x.a"))
	assert.ErrorIs(t, err, resolve.ErrNotFound, "a CTE body does not see the outer FROM")
}
