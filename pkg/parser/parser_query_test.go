package parser_test

import (
	"testing"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func querySpec(t *testing.T, stmt *core.SelectStmt) *core.QuerySpec {
	t.Helper()
	q, ok := stmt.Query.(*core.QuerySpec)
	require.True(t, ok, "got %T", stmt.Query)
	return q
}

// ---------- SELECT ----------

func TestSelect_Items(t *testing.T) {
	sql := "SELECT DISTINCT TOP (10) a, b AS bee, c cee, total = x + y, 'lit' AS [s], t.*, *, @v = 1 FROM t"
	q := querySpec(t, single[*core.SelectStmt](t, sql))
	assert.True(t, q.Distinct)
	assert.NotNil(t, q.Top)
	require.Len(t, q.Columns, 8)

	aliases := make([]string, len(q.Columns))
	for i, c := range q.Columns {
		aliases[i] = c.Alias.Value
	}
	assert.Equal(t, []string{"", "bee", "cee", "total", "s", "", "", "@v"}, aliases)

	star, ok := q.Columns[5].Expr.(*core.StarExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"t"}, identValues(star.Qualifier))

	star, ok = q.Columns[6].Expr.(*core.StarExpr)
	require.True(t, ok)
	assert.Empty(t, star.Qualifier)
}

func TestSelect_Clauses(t *testing.T) {
	sql := `SELECT c.Region, COUNT(*) AS n
INTO #tmp
FROM dbo.Customers c WITH (NOLOCK)
WHERE c.Active = 1 AND c.Name LIKE 'A%' AND c.Id NOT IN (1, 2) AND c.Score BETWEEN 1 AND 5
GROUP BY c.Region
HAVING COUNT(*) > 1
ORDER BY n DESC
OFFSET 10 ROWS FETCH NEXT 5 ROWS ONLY
OPTION (RECOMPILE)`
	stmt := single[*core.SelectStmt](t, sql)
	q := querySpec(t, stmt)

	assert.Equal(t, "#tmp", q.Into.String())
	require.NotNil(t, q.From)
	require.Len(t, q.From.Tables, 1)
	tn, ok := q.From.Tables[0].(*core.TableName)
	require.True(t, ok)
	assert.Equal(t, "c", tn.Alias.Value)
	assert.NotNil(t, q.Where)
	assert.Len(t, q.GroupBy, 1)
	assert.NotNil(t, q.Having)
	require.Len(t, stmt.OrderBy, 1)
	assert.True(t, stmt.OrderBy[0].Desc)

	count, ok := q.Columns[1].Expr.(*core.FuncCall)
	require.True(t, ok)
	assert.True(t, count.Star)
}

func TestSelect_SetOperations(t *testing.T) {
	stmt := single[*core.SelectStmt](t, "SELECT a FROM t UNION ALL SELECT a FROM u EXCEPT (SELECT a FROM v)")
	outer, ok := stmt.Query.(*core.BinaryQuery)
	require.True(t, ok)
	assert.Equal(t, core.SetOpExcept, outer.Op)
	inner, ok := outer.Left.(*core.BinaryQuery)
	require.True(t, ok)
	assert.Equal(t, core.SetOpUnion, inner.Op)
	assert.True(t, inner.All)
}

func TestSelect_CTEs(t *testing.T) {
	sql := `WITH a (x) AS (SELECT 1), b AS (SELECT x FROM a)
SELECT * FROM b`
	stmt := single[*core.SelectStmt](t, sql)
	require.NotNil(t, stmt.With)
	require.Len(t, stmt.With.CTEs, 2)
	assert.Equal(t, []string{"x"}, identValues(stmt.With.CTEs[0].Columns))
	assert.NotNil(t, stmt.With.Lookup("B"))
	assert.Nil(t, stmt.With.Lookup("c"))
}

func TestSelect_ForXML(t *testing.T) {
	stmt := single[*core.SelectStmt](t, "SELECT (SELECT name FROM t FOR XML PATH(''), TYPE) AS x")
	q := querySpec(t, stmt)
	_, ok := q.Columns[0].Expr.(*core.SubqueryExpr)
	assert.True(t, ok)
	assert.Equal(t, "x", q.Columns[0].Alias.Value)
}

// ---------- FROM / Joins ----------

func TestFrom_Joins(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		check func(t *testing.T, ref core.TableRef)
	}{
		{
			name: "inner join",
			sql:  "SELECT * FROM a JOIN b ON a.id = b.id",
			check: func(t *testing.T, ref core.TableRef) {
				j, ok := ref.(*core.QualifiedJoin)
				require.True(t, ok)
				assert.Equal(t, core.JoinInner, j.Kind)
				assert.NotNil(t, j.On)
			},
		},
		{
			name: "left outer hash join",
			sql:  "SELECT * FROM a LEFT OUTER HASH JOIN b ON a.id = b.id",
			check: func(t *testing.T, ref core.TableRef) {
				j, ok := ref.(*core.QualifiedJoin)
				require.True(t, ok)
				assert.Equal(t, core.JoinLeft, j.Kind)
			},
		},
		{
			name: "chained joins are left deep",
			sql:  "SELECT * FROM a INNER JOIN b ON 1 = 1 FULL JOIN c ON 1 = 1",
			check: func(t *testing.T, ref core.TableRef) {
				j, ok := ref.(*core.QualifiedJoin)
				require.True(t, ok)
				assert.Equal(t, core.JoinFull, j.Kind)
				_, ok = j.Left.(*core.QualifiedJoin)
				assert.True(t, ok)
			},
		},
		{
			name: "cross apply function",
			sql:  "SELECT * FROM a CROSS APPLY dbo.fn(a.id) f",
			check: func(t *testing.T, ref core.TableRef) {
				j, ok := ref.(*core.UnqualifiedJoin)
				require.True(t, ok)
				assert.Equal(t, core.JoinCrossApply, j.Kind)
				ft, ok := j.Right.(*core.FunctionTable)
				require.True(t, ok)
				assert.Equal(t, "f", ft.Alias.Value)
			},
		},
		{
			name: "outer apply derived",
			sql:  "SELECT * FROM a OUTER APPLY (SELECT TOP 1 * FROM b WHERE b.a = a.id) x",
			check: func(t *testing.T, ref core.TableRef) {
				j, ok := ref.(*core.UnqualifiedJoin)
				require.True(t, ok)
				assert.Equal(t, core.JoinOuterApply, j.Kind)
				dt, ok := j.Right.(*core.DerivedTable)
				require.True(t, ok)
				assert.Equal(t, "x", dt.Alias.Value)
			},
		},
		{
			name: "cross join",
			sql:  "SELECT * FROM a CROSS JOIN b",
			check: func(t *testing.T, ref core.TableRef) {
				j, ok := ref.(*core.UnqualifiedJoin)
				require.True(t, ok)
				assert.Equal(t, core.JoinCross, j.Kind)
			},
		},
		{
			name: "parenthesized join",
			sql:  "SELECT * FROM (a JOIN b ON 1 = 1)",
			check: func(t *testing.T, ref core.TableRef) {
				_, ok := ref.(*core.QualifiedJoin)
				assert.True(t, ok)
			},
		},
		{
			name: "table variable",
			sql:  "SELECT * FROM @rows AS r",
			check: func(t *testing.T, ref core.TableRef) {
				v, ok := ref.(*core.VariableTable)
				require.True(t, ok)
				assert.Equal(t, "@rows", v.Name)
				assert.Equal(t, "r", v.Alias.Value)
			},
		},
		{
			name: "four part name",
			sql:  "SELECT * FROM srv.db.dbo.t",
			check: func(t *testing.T, ref core.TableRef) {
				tn, ok := ref.(*core.TableName)
				require.True(t, ok)
				assert.Equal(t, "srv", tn.Name.ServerName())
				assert.Equal(t, "db", tn.Name.DatabaseName())
				assert.False(t, tn.HasAlias())
			},
		},
		{
			name: "empty schema part",
			sql:  "SELECT * FROM db..t",
			check: func(t *testing.T, ref core.TableRef) {
				tn, ok := ref.(*core.TableName)
				require.True(t, ok)
				assert.Equal(t, "db", tn.Name.DatabaseName())
				assert.Equal(t, "", tn.SchemaName())
				assert.Equal(t, "t", tn.BaseName())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := querySpec(t, single[*core.SelectStmt](t, tt.sql))
			require.NotNil(t, q.From)
			require.Len(t, q.From.Tables, 1)
			tt.check(t, q.From.Tables[0])
		})
	}
}

func TestFrom_AliasDoesNotSwallowKeywords(t *testing.T) {
	stmts := statements(mustParse(t, "SELECT * FROM t\nPRINT 'x'\nSELECT * FROM u OPTION (MAXDOP 1)"))
	require.Len(t, stmts, 3)
	q := querySpec(t, stmts[0].(*core.SelectStmt))
	tn := q.From.Tables[0].(*core.TableName)
	assert.False(t, tn.HasAlias())
}

// ---------- Expressions ----------

func TestExpressions(t *testing.T) {
	tests := []struct {
		sql  string
		want any
	}{
		{"SELECT CASE WHEN a = 1 THEN 'x' ELSE 'y' END", &core.CaseExpr{}},
		{"SELECT CAST(a AS varchar(10))", &core.CastExpr{}},
		{"SELECT CONVERT(int, a, 1)", &core.CastExpr{}},
		{"SELECT LEFT(a, 2)", &core.FuncCall{}},
		{"SELECT ROW_NUMBER() OVER (PARTITION BY a ORDER BY b ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW)", &core.FuncCall{}},
		{"SELECT -a", &core.UnaryExpr{}},
		{"SELECT (a)", &core.ParenExpr{}},
		{"SELECT a + b * c", &core.BinaryExpr{}},
		{"SELECT @v", &core.VariableRef{}},
		{"SELECT NULL", &core.Literal{}},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			q := querySpec(t, single[*core.SelectStmt](t, tt.sql))
			require.Len(t, q.Columns, 1)
			assert.IsType(t, tt.want, q.Columns[0].Expr)
		})
	}
}

func TestExpressions_Precedence(t *testing.T) {
	q := querySpec(t, single[*core.SelectStmt](t, "SELECT * FROM t WHERE a = 1 OR b = 2 AND NOT c = 3"))
	or, ok := q.Where.(*core.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "OR", or.Op)
	and, ok := or.Right.(*core.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "AND", and.Op)
	not, ok := and.Right.(*core.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, "NOT", not.Op)
}

func TestExpressions_Predicates(t *testing.T) {
	q := querySpec(t, single[*core.SelectStmt](t,
		"SELECT * FROM t WHERE NOT EXISTS (SELECT 1) AND a IN (SELECT b FROM u) AND c IS NOT NULL"))
	conds := core.Find[core.Expr](q.Where)

	var exists *core.ExistsExpr
	var in *core.InExpr
	var isNull *core.IsNullExpr
	for _, c := range conds {
		switch e := c.(type) {
		case *core.ExistsExpr:
			exists = e
		case *core.InExpr:
			in = e
		case *core.IsNullExpr:
			isNull = e
		}
	}
	require.NotNil(t, exists)
	assert.True(t, exists.Not)
	require.NotNil(t, in)
	assert.NotNil(t, in.Query)
	require.NotNil(t, isNull)
	assert.True(t, isNull.Not)
}

// ---------- DML ----------

func TestInsert(t *testing.T) {
	t.Run("values", func(t *testing.T) {
		stmt := single[*core.InsertStmt](t, "INSERT INTO dbo.T (a, b) VALUES (1, DEFAULT), (2, 'x')")
		tn, ok := stmt.Spec.Target.(*core.TableName)
		require.True(t, ok)
		assert.Equal(t, "dbo.T", tn.Name.String())
		assert.Equal(t, []string{"a", "b"}, identValues(stmt.Spec.Columns))
		assert.Len(t, stmt.Spec.Values, 2)
	})

	t.Run("select with output", func(t *testing.T) {
		stmt := single[*core.InsertStmt](t, "INSERT dbo.T (a) OUTPUT inserted.a INTO @ids (a) SELECT a FROM u")
		assert.NotNil(t, stmt.Spec.Query)
	})

	t.Run("exec", func(t *testing.T) {
		stmt := single[*core.InsertStmt](t, "INSERT INTO #t EXEC dbo.p 1")
		require.NotNil(t, stmt.Spec.Exec)
		assert.Equal(t, "dbo.p", stmt.Spec.Exec.Procedure.String())
	})

	t.Run("cte", func(t *testing.T) {
		stmt := single[*core.InsertStmt](t, "WITH s AS (SELECT 1 AS a) INSERT INTO t (a) SELECT a FROM s")
		require.NotNil(t, stmt.With)
		assert.NotNil(t, stmt.Spec.Query)
	})
}

func TestUpdate(t *testing.T) {
	stmt := single[*core.UpdateStmt](t, "UPDATE o SET o.Total = o.Total + 1, @n = 2 FROM dbo.Orders o JOIN dbo.Customers c ON c.Id = o.CustomerId WHERE c.Active = 1")
	tn, ok := stmt.Spec.Target.(*core.TableName)
	require.True(t, ok)
	assert.Equal(t, "o", tn.BaseName())
	require.Len(t, stmt.Spec.Set, 2)
	assert.Equal(t, "o.Total", stmt.Spec.Set[0].Column.String())
	assert.Nil(t, stmt.Spec.Set[1].Column)
	require.NotNil(t, stmt.Spec.From)
	assert.NotNil(t, stmt.Spec.Where)
}

func TestDelete(t *testing.T) {
	stmt := single[*core.DeleteStmt](t, "DELETE FROM dbo.T OUTPUT deleted.* WHERE a = 1")
	tn, ok := stmt.Spec.Target.(*core.TableName)
	require.True(t, ok)
	assert.Equal(t, "T", tn.BaseName())
	assert.Nil(t, stmt.Spec.From)
	assert.NotNil(t, stmt.Spec.Where)

	stmt = single[*core.DeleteStmt](t, "DELETE t FROM dbo.T t JOIN dbo.U u ON u.id = t.id")
	assert.NotNil(t, stmt.Spec.From)
}

func TestMerge(t *testing.T) {
	sql := `MERGE INTO dbo.Target WITH (HOLDLOCK) AS tgt
USING (SELECT id, v FROM dbo.Source) AS src
ON tgt.id = src.id
WHEN MATCHED AND tgt.v <> src.v THEN UPDATE SET tgt.v = src.v
WHEN NOT MATCHED BY TARGET THEN INSERT (id, v) VALUES (src.id, src.v)
WHEN NOT MATCHED BY SOURCE THEN DELETE
OUTPUT $action, inserted.id;`
	stmt := single[*core.MergeStmt](t, sql)
	assert.Equal(t, "tgt", stmt.Spec.Alias.Value)
	_, ok := stmt.Spec.Using.(*core.DerivedTable)
	assert.True(t, ok)
	require.Len(t, stmt.Spec.Actions, 3)

	assert.True(t, stmt.Spec.Actions[0].Matched)
	assert.Equal(t, core.MergeUpdate, stmt.Spec.Actions[0].Kind)
	assert.NotNil(t, stmt.Spec.Actions[0].Condition)

	assert.False(t, stmt.Spec.Actions[1].Matched)
	assert.Equal(t, core.MergeInsert, stmt.Spec.Actions[1].Kind)
	assert.Len(t, stmt.Spec.Actions[1].Values, 2)

	assert.True(t, stmt.Spec.Actions[2].BySource)
	assert.Equal(t, core.MergeDelete, stmt.Spec.Actions[2].Kind)
}
