package core

// ---------- Table Reference Types ----------

// TableName is a named table reference: [db.][schema.]name [AS alias].
type TableName struct {
	NodeInfo
	Name  *ObjectName
	Alias Identifier
}

func (*TableName) tableRefNode() {}

// BaseName returns the referenced object name without qualification.
func (t *TableName) BaseName() string { return t.Name.BaseName() }

// SchemaName returns the explicit schema or "".
func (t *TableName) SchemaName() string { return t.Name.SchemaName() }

// HasAlias reports whether an alias was written.
func (t *TableName) HasAlias() bool { return !t.Alias.IsZero() }

// DerivedTable is a subquery in a FROM clause.
type DerivedTable struct {
	NodeInfo
	Query   *SelectStmt
	Alias   Identifier
	Columns []Identifier
}

func (*DerivedTable) tableRefNode() {}

// JoinKind is the kind of a qualified join.
type JoinKind string

// JoinKind constants.
const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
	JoinRight JoinKind = "RIGHT"
	JoinFull  JoinKind = "FULL"
)

// QualifiedJoin is a join with an ON condition.
type QualifiedJoin struct {
	NodeInfo
	Kind  JoinKind
	Left  TableRef
	Right TableRef
	On    Expr
}

func (*QualifiedJoin) tableRefNode() {}

// UnqualifiedJoinKind is the kind of a join without ON.
type UnqualifiedJoinKind string

// UnqualifiedJoinKind constants.
const (
	JoinCross      UnqualifiedJoinKind = "CROSS JOIN"
	JoinCrossApply UnqualifiedJoinKind = "CROSS APPLY"
	JoinOuterApply UnqualifiedJoinKind = "OUTER APPLY"
)

// UnqualifiedJoin is CROSS JOIN, CROSS APPLY or OUTER APPLY.
type UnqualifiedJoin struct {
	NodeInfo
	Kind  UnqualifiedJoinKind
	Left  TableRef
	Right TableRef
}

func (*UnqualifiedJoin) tableRefNode() {}

// FunctionTable is a table-valued function call used as a source.
type FunctionTable struct {
	NodeInfo
	Call  *FuncCall
	Alias Identifier
}

func (*FunctionTable) tableRefNode() {}

// VariableTable is a table variable used as a source: @tbl [AS alias].
type VariableTable struct {
	NodeInfo
	Name  string
	Alias Identifier
}

func (*VariableTable) tableRefNode() {}
