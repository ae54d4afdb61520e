package core

import "strings"

// ---------- Expressions ----------

// ColumnRef is a possibly qualified column name: [alias.]col or schema.table.col.
type ColumnRef struct {
	NodeInfo
	Parts []Identifier
}

func (*ColumnRef) exprNode() {}

// Column returns the last name part.
func (c *ColumnRef) Column() string {
	if len(c.Parts) == 0 {
		return ""
	}
	return c.Parts[len(c.Parts)-1].Value
}

// Qualifier returns the name part directly before the column, or "".
func (c *ColumnRef) Qualifier() string {
	if len(c.Parts) < 2 {
		return ""
	}
	return c.Parts[len(c.Parts)-2].Value
}

// QualifierParts returns every part except the column.
func (c *ColumnRef) QualifierParts() []Identifier {
	if len(c.Parts) < 2 {
		return nil
	}
	return c.Parts[:len(c.Parts)-1]
}

func (c *ColumnRef) String() string {
	parts := make([]string, len(c.Parts))
	for i, p := range c.Parts {
		parts[i] = p.Value
	}
	return strings.Join(parts, ".")
}

// StarExpr is * or qualifier.*.
type StarExpr struct {
	NodeInfo
	Qualifier []Identifier
}

func (*StarExpr) exprNode() {}

// LiteralKind distinguishes literal values.
type LiteralKind int

// Literal kinds.
const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralNull
	LiteralDefault // DEFAULT in VALUES lists and EXEC arguments
)

// Literal is a constant value.
type Literal struct {
	NodeInfo
	Kind  LiteralKind
	Value string
}

func (*Literal) exprNode() {}

// VariableRef is @name or @@name.
type VariableRef struct {
	NodeInfo
	Name string
}

func (*VariableRef) exprNode() {}

// BinaryExpr is left op right, including AND/OR/LIKE and comparisons.
type BinaryExpr struct {
	NodeInfo
	Op    string
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is op expr (NOT, -, +, ~).
type UnaryExpr struct {
	NodeInfo
	Op   string
	Expr Expr
}

func (*UnaryExpr) exprNode() {}

// ParenExpr is (expr).
type ParenExpr struct {
	NodeInfo
	Expr Expr
}

func (*ParenExpr) exprNode() {}

// FuncCall is name(args) [OVER (...)].
type FuncCall struct {
	NodeInfo
	Name     *ObjectName
	Args     []Expr
	Distinct bool
	Star     bool
	Over     *OverClause
}

func (*FuncCall) exprNode() {}

// OverClause is the window specification of a function call.
type OverClause struct {
	NodeInfo
	PartitionBy []Expr
	OrderBy     []*OrderByItem
}

// CastExpr is CAST(expr AS type) or CONVERT(type, expr).
type CastExpr struct {
	NodeInfo
	Expr Expr
	Type *DataType
}

func (*CastExpr) exprNode() {}

// CaseExpr is CASE [operand] WHEN ... THEN ... [ELSE ...] END.
type CaseExpr struct {
	NodeInfo
	Operand Expr
	Whens   []*WhenClause
	Else    Expr
}

func (*CaseExpr) exprNode() {}

// WhenClause is one WHEN/THEN pair.
type WhenClause struct {
	Cond   Expr
	Result Expr
}

// SubqueryExpr is a scalar subquery.
type SubqueryExpr struct {
	NodeInfo
	Query *SelectStmt
}

func (*SubqueryExpr) exprNode() {}

// ExistsExpr is [NOT] EXISTS (query).
type ExistsExpr struct {
	NodeInfo
	Not   bool
	Query *SelectStmt
}

func (*ExistsExpr) exprNode() {}

// InExpr is expr [NOT] IN (list | query).
type InExpr struct {
	NodeInfo
	Expr  Expr
	Not   bool
	List  []Expr
	Query *SelectStmt
}

func (*InExpr) exprNode() {}

// BetweenExpr is expr [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	NodeInfo
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) exprNode() {}

// IsNullExpr is expr IS [NOT] NULL.
type IsNullExpr struct {
	NodeInfo
	Expr Expr
	Not  bool
}

func (*IsNullExpr) exprNode() {}
