package core

// ---------- Query Statements ----------

// SelectStmt represents a complete SELECT statement with optional WITH clause.
type SelectStmt struct {
	NodeInfo
	With    *WithClause
	Query   QueryExpr
	OrderBy []*OrderByItem
}

func (*SelectStmt) stmtNode() {}

// WithClause represents a WITH clause with CTEs.
type WithClause struct {
	NodeInfo
	CTEs []*CTE
}

// CTE represents a Common Table Expression.
type CTE struct {
	NodeInfo
	Name    Identifier
	Columns []Identifier
	Query   *SelectStmt
}

// Lookup returns the CTE with the given name (case-insensitive) or nil.
func (w *WithClause) Lookup(name string) *CTE {
	if w == nil {
		return nil
	}
	for _, cte := range w.CTEs {
		if EqualFold(cte.Name.Value, name) {
			return cte
		}
	}
	return nil
}

// QuerySpec is a single SELECT ... FROM ... WHERE ... block.
type QuerySpec struct {
	NodeInfo
	Distinct bool
	Top      Expr
	Columns  []*SelectItem
	Into     *ObjectName
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
}

func (*QuerySpec) queryNode() {}

// SetOpType represents the type of set operation.
type SetOpType string

// SetOpType constants for set operations in queries.
const (
	SetOpUnion     SetOpType = "UNION"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// BinaryQuery combines two query bodies with a set operation.
type BinaryQuery struct {
	NodeInfo
	Op    SetOpType
	All   bool
	Left  QueryExpr
	Right QueryExpr
}

func (*BinaryQuery) queryNode() {}

// SelectItem is one entry of a select list.
type SelectItem struct {
	NodeInfo
	Expr  Expr
	Alias Identifier
}

// OrderByItem is one ORDER BY key.
type OrderByItem struct {
	Expr Expr
	Desc bool
}

// FromClause lists the table sources of a query or DML statement.
type FromClause struct {
	NodeInfo
	Tables []TableRef
}

// ---------- DML Statements ----------

// InsertStmt wraps an InsertSpec with its CTEs.
type InsertStmt struct {
	NodeInfo
	With *WithClause
	Spec *InsertSpec
}

func (*InsertStmt) stmtNode() {}

// InsertSpec is INSERT [INTO] target [(cols)] {VALUES ... | query | EXEC ...}.
type InsertSpec struct {
	NodeInfo
	Target  TableRef
	Columns []Identifier
	Values  [][]Expr
	Query   *SelectStmt
	Exec    *ExecStmt
}

// UpdateStmt wraps an UpdateSpec with its CTEs.
type UpdateStmt struct {
	NodeInfo
	With *WithClause
	Spec *UpdateSpec
}

func (*UpdateStmt) stmtNode() {}

// UpdateSpec is UPDATE target SET ... [FROM ...] [WHERE ...].
type UpdateSpec struct {
	NodeInfo
	Top    Expr
	Target TableRef
	Set    []*SetClause
	From   *FromClause
	Where  Expr
}

// SetClause is one assignment in UPDATE SET or MERGE ... UPDATE SET.
type SetClause struct {
	NodeInfo
	Column *ColumnRef
	Value  Expr
}

// DeleteStmt wraps a DeleteSpec with its CTEs.
type DeleteStmt struct {
	NodeInfo
	With *WithClause
	Spec *DeleteSpec
}

func (*DeleteStmt) stmtNode() {}

// DeleteSpec is DELETE [FROM] target [FROM ...] [WHERE ...].
type DeleteSpec struct {
	NodeInfo
	Top    Expr
	Target TableRef
	From   *FromClause
	Where  Expr
}

// MergeStmt wraps a MergeSpec with its CTEs.
type MergeStmt struct {
	NodeInfo
	With *WithClause
	Spec *MergeSpec
}

func (*MergeStmt) stmtNode() {}

// MergeSpec is MERGE [INTO] target [AS alias] USING source ON cond WHEN ...
// The target alias is stored here, not on Target.
type MergeSpec struct {
	NodeInfo
	Target  TableRef
	Alias   Identifier
	Using   TableRef
	On      Expr
	Actions []*MergeAction
}

// MergeActionKind is the action of a WHEN clause.
type MergeActionKind int

// Merge action kinds.
const (
	MergeUpdate MergeActionKind = iota
	MergeDelete
	MergeInsert
)

// MergeAction is one WHEN [NOT] MATCHED [BY SOURCE|TARGET] [AND cond] THEN ... clause.
type MergeAction struct {
	NodeInfo
	Matched   bool
	BySource  bool
	Condition Expr
	Kind      MergeActionKind
	Set       []*SetClause
	Columns   []Identifier
	Values    []Expr
}

// ---------- Procedural Statements ----------

// BlockStmt is BEGIN ... END.
type BlockStmt struct {
	NodeInfo
	Body []Stmt
}

func (*BlockStmt) stmtNode() {}

// IfStmt is IF cond stmt [ELSE stmt].
type IfStmt struct {
	NodeInfo
	Cond Expr
	Then Stmt
	Else Stmt
}

func (*IfStmt) stmtNode() {}

// WhileStmt is WHILE cond stmt.
type WhileStmt struct {
	NodeInfo
	Cond Expr
	Body Stmt
}

func (*WhileStmt) stmtNode() {}

// DeclareStmt declares one or more variables.
type DeclareStmt struct {
	NodeInfo
	Vars []*VarDecl
}

func (*DeclareStmt) stmtNode() {}

// VarDecl is one @name type [= value] entry. Table variables have a nil Value.
type VarDecl struct {
	NodeInfo
	Name     string
	DataType *DataType
	Value    Expr
}

// SetVarStmt is SET @var = expr.
type SetVarStmt struct {
	NodeInfo
	Name  string
	Value Expr
}

func (*SetVarStmt) stmtNode() {}

// ReturnStmt is RETURN [expr].
type ReturnStmt struct {
	NodeInfo
	Value Expr
}

func (*ReturnStmt) stmtNode() {}

// ExecStmt is EXEC[UTE] [@ret =] proc [args].
type ExecStmt struct {
	NodeInfo
	Procedure *ObjectName
	Args      []Expr
}

func (*ExecStmt) stmtNode() {}

// RawStmt is a statement the parser does not model. Text holds its source.
type RawStmt struct {
	NodeInfo
	Keyword string
	Text    string
}

func (*RawStmt) stmtNode() {}
