package parser_test

import (
	"testing"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- CREATE TABLE ----------

func TestCreateTable_Columns(t *testing.T) {
	sql := `CREATE TABLE [dbo].[Orders] (
	[Id] int IDENTITY(1,1) NOT NULL,
	CustomerId int NULL CONSTRAINT FK_Orders_Customers REFERENCES dbo.Customers (Id),
	Note nvarchar(max) COLLATE Latin1_General_CI_AS DEFAULT N'',
	Total AS (Qty * Price) PERSISTED,
	Code char(3) NOT NULL UNIQUE NONCLUSTERED
) ON [PRIMARY]`
	stmt := single[*core.CreateTableStmt](t, sql)

	assert.Equal(t, "dbo", stmt.Name.SchemaName())
	assert.Equal(t, "Orders", stmt.Name.BaseName())
	require.Len(t, stmt.Columns, 5)

	id := stmt.Columns[0]
	assert.Equal(t, "Id", id.Name.Value)
	assert.True(t, id.Identity)
	require.NotNil(t, id.Nullable)
	assert.False(t, *id.Nullable)

	cust := stmt.Columns[1]
	require.Len(t, cust.Constraints, 1)
	fk := cust.Constraints[0]
	assert.Equal(t, core.ConstraintForeignKey, fk.Kind)
	assert.Equal(t, "FK_Orders_Customers", fk.Name.Value)
	assert.Equal(t, "dbo.Customers", fk.RefTable.String())
	require.Len(t, fk.RefColumns, 1)
	assert.Equal(t, "Id", fk.RefColumns[0].Value)

	note := stmt.Columns[2]
	assert.Equal(t, "nvarchar(max)", note.DataType.String())
	require.Len(t, note.Constraints, 1)
	assert.Equal(t, core.ConstraintDefault, note.Constraints[0].Kind)
	assert.True(t, note.Constraints[0].Name.IsZero())

	total := stmt.Columns[3]
	assert.Nil(t, total.DataType)
	assert.NotNil(t, total.Computed)

	code := stmt.Columns[4]
	require.Len(t, code.Constraints, 1)
	assert.Equal(t, core.ConstraintUnique, code.Constraints[0].Kind)
	require.NotNil(t, code.Constraints[0].Clustered)
	assert.False(t, *code.Constraints[0].Clustered)
}

func TestCreateTable_TableConstraints(t *testing.T) {
	sql := `CREATE TABLE dbo.OrderLines (
	OrderId int NOT NULL,
	LineNo int NOT NULL,
	ProductId int NOT NULL,
	Qty int NOT NULL,
	CONSTRAINT PK_OrderLines PRIMARY KEY CLUSTERED (OrderId ASC, LineNo DESC) WITH (PAD_INDEX = OFF) ON [PRIMARY],
	FOREIGN KEY (ProductId) REFERENCES dbo.Products (Id) ON DELETE CASCADE ON UPDATE NO ACTION,
	CONSTRAINT CK_Qty CHECK NOT FOR REPLICATION (Qty > 0),
	INDEX IX_Product NONCLUSTERED (ProductId) INCLUDE (Qty)
)`
	stmt := single[*core.CreateTableStmt](t, sql)
	require.Len(t, stmt.Columns, 4)
	require.Len(t, stmt.Constraints, 3)
	require.Len(t, stmt.Indexes, 1)

	pk := stmt.Constraints[0]
	assert.Equal(t, core.ConstraintPrimaryKey, pk.Kind)
	assert.Equal(t, "PK_OrderLines", pk.Name.Value)
	require.NotNil(t, pk.Clustered)
	assert.True(t, *pk.Clustered)
	require.Len(t, pk.Columns, 2)
	assert.Equal(t, "OrderId", pk.Columns[0].Name.Value)
	assert.False(t, pk.Columns[0].Desc)
	assert.True(t, pk.Columns[1].Desc)

	fk := stmt.Constraints[1]
	assert.Equal(t, core.ConstraintForeignKey, fk.Kind)
	assert.True(t, fk.Name.IsZero())
	assert.Equal(t, "dbo.Products", fk.RefTable.String())

	ck := stmt.Constraints[2]
	assert.Equal(t, core.ConstraintCheck, ck.Kind)
	_, ok := ck.Expr.(*core.BinaryExpr)
	assert.True(t, ok)

	ix := stmt.Indexes[0]
	assert.Equal(t, "IX_Product", ix.Name.Value)
	require.Len(t, ix.Columns, 1)
	assert.Equal(t, []string{"Qty"}, identValues(ix.Include))
}

func TestCreateTable_InlineColumnIndex(t *testing.T) {
	stmt := single[*core.CreateTableStmt](t, "CREATE TABLE t (a int INDEX ix_a CLUSTERED, b int)")
	require.Len(t, stmt.Columns, 2)
	require.Len(t, stmt.Indexes, 1)
	assert.Equal(t, "ix_a", stmt.Indexes[0].Name.Value)
	assert.Equal(t, "a", stmt.Indexes[0].Columns[0].Name.Value)
}

func TestCreateTable_TempTable(t *testing.T) {
	stmt := single[*core.CreateTableStmt](t, "CREATE TABLE #work (id int)")
	assert.True(t, stmt.Name.IsTemporary())
}

// ---------- ALTER TABLE ----------

func TestAlterTableAdd(t *testing.T) {
	tests := []struct {
		name        string
		sql         string
		columns     int
		constraints int
	}{
		{"constraint", "ALTER TABLE dbo.T ADD CONSTRAINT PK_T PRIMARY KEY (Id)", 0, 1},
		{"with check", "ALTER TABLE dbo.T WITH CHECK ADD CONSTRAINT FK_T FOREIGN KEY (A) REFERENCES dbo.U (Id)", 0, 1},
		{"columns", "ALTER TABLE dbo.T ADD A int NULL, B int NOT NULL DEFAULT 0", 2, 0},
		{"default for", "ALTER TABLE dbo.T ADD CONSTRAINT DF_T_A DEFAULT (0) FOR A", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := single[*core.AlterTableAddStmt](t, tt.sql)
			assert.Equal(t, "dbo.T", stmt.Table.String())
			assert.Len(t, stmt.Columns, tt.columns)
			assert.Len(t, stmt.Constraints, tt.constraints)
		})
	}
}

func TestAlterTableOtherIsRaw(t *testing.T) {
	raw := single[*core.RawStmt](t, "ALTER TABLE dbo.T DROP COLUMN A")
	assert.Equal(t, "ALTER", raw.Keyword)
}

func TestAlterTableFollowedByStatement(t *testing.T) {
	stmts := statements(mustParse(t, "ALTER TABLE dbo.T ADD A int NULL\nSELECT 1"))
	require.Len(t, stmts, 2)
}

// ---------- CREATE INDEX ----------

func TestCreateIndex(t *testing.T) {
	sql := "CREATE UNIQUE NONCLUSTERED INDEX IX_T_A ON dbo.T (A, B DESC) INCLUDE (C) WHERE A IS NOT NULL WITH (ONLINE = ON) ON [PRIMARY]"
	stmt := single[*core.CreateIndexStmt](t, sql)
	assert.Equal(t, "IX_T_A", stmt.Name.Value)
	assert.True(t, stmt.Unique)
	require.NotNil(t, stmt.Clustered)
	assert.False(t, *stmt.Clustered)
	assert.Equal(t, "dbo.T", stmt.Table.String())
	require.Len(t, stmt.Columns, 2)
	assert.True(t, stmt.Columns[1].Desc)
	assert.Equal(t, []string{"C"}, identValues(stmt.Include))
	assert.NotNil(t, stmt.Where)
}

// ---------- Views, Schemas, Synonyms ----------

func TestCreateView(t *testing.T) {
	sql := "CREATE OR ALTER VIEW dbo.V (a, b) WITH SCHEMABINDING AS SELECT x, y FROM dbo.T WITH CHECK OPTION"
	stmt := single[*core.CreateViewStmt](t, sql)
	assert.True(t, stmt.OrAlter)
	assert.Equal(t, "dbo.V", stmt.Name.String())
	assert.Equal(t, []string{"a", "b"}, identValues(stmt.Columns))
	require.NotNil(t, stmt.Query)
	_, ok := stmt.Query.Query.(*core.QuerySpec)
	assert.True(t, ok)
}

func TestCreateSchema(t *testing.T) {
	stmt := single[*core.CreateSchemaStmt](t, "CREATE SCHEMA sales AUTHORIZATION dbo")
	assert.Equal(t, "sales", stmt.Name.Value)
	assert.Equal(t, "dbo", stmt.Owner.Value)
}

func TestCreateSynonym(t *testing.T) {
	stmt := single[*core.CreateSynonymStmt](t, "CREATE SYNONYM dbo.Cust FOR OtherDb.dbo.Customers")
	assert.Equal(t, "dbo.Cust", stmt.Name.String())
	assert.Equal(t, "OtherDb", stmt.Target.DatabaseName())
}

// ---------- Procedures & Functions ----------

func TestCreateProcedure(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.GetOrders
	@CustomerId int,
	@Since datetime2 = NULL,
	@Count int = 0 OUTPUT,
	@Ids dbo.IdList READONLY
WITH RECOMPILE
AS
BEGIN
	SET NOCOUNT ON;
	SELECT o.Id FROM dbo.Orders o WHERE o.CustomerId = @CustomerId;
END
GO`
	stmt := single[*core.CreateProcedureStmt](t, sql)
	assert.Equal(t, "dbo.GetOrders", stmt.Name.String())
	require.Len(t, stmt.Params, 4)
	assert.Equal(t, "@CustomerId", stmt.Params[0].Name)
	assert.NotNil(t, stmt.Params[1].Default)
	assert.True(t, stmt.Params[2].Output)
	assert.True(t, stmt.Params[3].ReadOnly)
	assert.Equal(t, "dbo.IdList", stmt.Params[3].DataType.String())
	require.Len(t, stmt.Body, 1)
	block, ok := stmt.Body[0].(*core.BlockStmt)
	require.True(t, ok)
	assert.Len(t, block.Body, 2)
}

func TestCreateProcedure_ParenthesizedParams(t *testing.T) {
	stmt := single[*core.CreateProcedureStmt](t, "CREATE PROC p (@a int, @b varchar(10)) AS SELECT @a, @b")
	assert.Len(t, stmt.Params, 2)
	assert.Len(t, stmt.Body, 1)
}

func TestCreateFunction(t *testing.T) {
	t.Run("scalar", func(t *testing.T) {
		sql := "CREATE FUNCTION dbo.Add1 (@x int) RETURNS int WITH SCHEMABINDING AS BEGIN RETURN @x + 1 END"
		stmt := single[*core.CreateFunctionStmt](t, sql)
		assert.Equal(t, "int", stmt.Returns.String())
		require.Len(t, stmt.Body, 1)
	})

	t.Run("inline table", func(t *testing.T) {
		sql := "CREATE FUNCTION dbo.ByCustomer (@id int) RETURNS TABLE AS RETURN (SELECT * FROM dbo.Orders WHERE CustomerId = @id)"
		stmt := single[*core.CreateFunctionStmt](t, sql)
		assert.Nil(t, stmt.Returns)
		require.NotNil(t, stmt.ReturnQuery)
		assert.Empty(t, stmt.Body)
	})

	t.Run("multi statement", func(t *testing.T) {
		sql := `CREATE FUNCTION dbo.Split (@s nvarchar(max)) RETURNS @r TABLE (v nvarchar(100))
AS
BEGIN
	INSERT INTO @r (v) VALUES (@s)
	RETURN
END`
		stmt := single[*core.CreateFunctionStmt](t, sql)
		assert.Equal(t, "@r", stmt.ReturnsVar)
		require.Len(t, stmt.Body, 1)
	})

	t.Run("execute as", func(t *testing.T) {
		sql := "CREATE FUNCTION f () RETURNS int WITH EXECUTE AS CALLER AS BEGIN RETURN 1 END"
		stmt := single[*core.CreateFunctionStmt](t, sql)
		assert.Empty(t, stmt.Params)
	})
}

func identValues(ids []core.Identifier) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Value
	}
	return out
}
