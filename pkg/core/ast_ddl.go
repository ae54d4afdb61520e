package core

// ---------- DDL Statements ----------

// UseStmt switches the current database: USE <db>.
type UseStmt struct {
	NodeInfo
	Database Identifier
}

func (*UseStmt) stmtNode() {}

// CreateSchemaStmt represents CREATE SCHEMA <name> [AUTHORIZATION owner].
type CreateSchemaStmt struct {
	NodeInfo
	Name  Identifier
	Owner Identifier
}

func (*CreateSchemaStmt) stmtNode() {}

// CreateTableStmt represents CREATE TABLE with inline columns, constraints and indexes.
type CreateTableStmt struct {
	NodeInfo
	Name        *ObjectName
	Columns     []*ColumnDef
	Constraints []*TableConstraint
	Indexes     []*IndexDef
}

func (*CreateTableStmt) stmtNode() {}

// ColumnDef is one column definition in CREATE TABLE or ALTER TABLE ADD.
type ColumnDef struct {
	NodeInfo
	Name     Identifier
	DataType *DataType // nil for computed columns
	Computed Expr      // AS <expr>
	Identity bool
	// Nullable is nil when neither NULL nor NOT NULL was written.
	Nullable    *bool
	Constraints []*ColumnConstraint
}

// ConstraintKind enumerates constraint flavours.
type ConstraintKind int

// Constraint kinds.
const (
	ConstraintPrimaryKey ConstraintKind = iota
	ConstraintUnique
	ConstraintForeignKey
	ConstraintCheck
	ConstraintDefault
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintPrimaryKey:
		return "PRIMARY KEY"
	case ConstraintUnique:
		return "UNIQUE"
	case ConstraintForeignKey:
		return "FOREIGN KEY"
	case ConstraintCheck:
		return "CHECK"
	case ConstraintDefault:
		return "DEFAULT"
	default:
		return "UNKNOWN"
	}
}

// ColumnConstraint is a constraint attached to a single column definition.
type ColumnConstraint struct {
	NodeInfo
	Name       Identifier
	Kind       ConstraintKind
	Clustered  *bool
	RefTable   *ObjectName
	RefColumns []Identifier
	Expr       Expr // CHECK condition or DEFAULT value
}

// TableConstraint is a table-level constraint, inline or from ALTER TABLE ADD.
type TableConstraint struct {
	NodeInfo
	Name       Identifier
	Kind       ConstraintKind
	Clustered  *bool
	Columns    []*IndexColumn
	RefTable   *ObjectName
	RefColumns []Identifier
	Expr       Expr       // CHECK condition or DEFAULT value
	DefaultFor Identifier // DEFAULT <expr> FOR <column>
}

// IndexColumn is a key column in an index or key constraint.
type IndexColumn struct {
	Name Identifier
	Desc bool
}

// IndexDef is an inline INDEX clause inside CREATE TABLE.
type IndexDef struct {
	NodeInfo
	Name      Identifier
	Unique    bool
	Clustered *bool
	Columns   []*IndexColumn
	Include   []Identifier
}

// CreateIndexStmt represents CREATE [UNIQUE] [CLUSTERED|NONCLUSTERED] INDEX.
type CreateIndexStmt struct {
	NodeInfo
	Name      Identifier
	Unique    bool
	Clustered *bool
	Table     *ObjectName
	Columns   []*IndexColumn
	Include   []Identifier
	Where     Expr
}

func (*CreateIndexStmt) stmtNode() {}

// AlterTableAddStmt represents ALTER TABLE <t> [WITH CHECK|NOCHECK] ADD ...
type AlterTableAddStmt struct {
	NodeInfo
	Table       *ObjectName
	Columns     []*ColumnDef
	Constraints []*TableConstraint
}

func (*AlterTableAddStmt) stmtNode() {}

// CreateViewStmt represents CREATE [OR ALTER] VIEW.
type CreateViewStmt struct {
	NodeInfo
	Name    *ObjectName
	OrAlter bool
	Columns []Identifier
	Query   *SelectStmt
}

func (*CreateViewStmt) stmtNode() {}

// ParameterDef is a procedure or function parameter.
type ParameterDef struct {
	NodeInfo
	Name     string // includes the leading @
	DataType *DataType
	Default  Expr
	Output   bool
	ReadOnly bool
	// Nullable is nil when no NULL / NOT NULL modifier was written.
	Nullable *bool
}

// CreateProcedureStmt represents CREATE [OR ALTER] PROC[EDURE].
type CreateProcedureStmt struct {
	NodeInfo
	Name    *ObjectName
	OrAlter bool
	Params  []*ParameterDef
	Body    []Stmt
}

func (*CreateProcedureStmt) stmtNode() {}

// CreateFunctionStmt represents CREATE [OR ALTER] FUNCTION.
// Inline table-valued functions carry their query in ReturnQuery.
type CreateFunctionStmt struct {
	NodeInfo
	Name        *ObjectName
	OrAlter     bool
	Params      []*ParameterDef
	Returns     *DataType
	ReturnsVar  string // multi-statement TVF: RETURNS @t TABLE (...)
	ReturnQuery *SelectStmt
	Body        []Stmt
}

func (*CreateFunctionStmt) stmtNode() {}

// CreateSynonymStmt represents CREATE SYNONYM <name> FOR <target>.
type CreateSynonymStmt struct {
	NodeInfo
	Name   *ObjectName
	Target *ObjectName
}

func (*CreateSynonymStmt) stmtNode() {}
