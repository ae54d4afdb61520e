package core

import "fmt"

// Children returns the direct child nodes of n in source order.
// It panics on node types it does not know, so a new node kind cannot be
// silently skipped by every traversal.
func Children(n Node) []Node {
	var c children
	switch n := n.(type) {
	case *Script:
		for _, b := range n.Batches {
			c.add(b)
		}
	case *Batch:
		c.stmts(n.Statements)

	// DDL
	case *UseStmt, *CreateSchemaStmt, *RawStmt, *ObjectName, *DataType, *Literal,
		*VariableRef, *ColumnRef, *StarExpr:
		// leaves
	case *CreateTableStmt:
		c.name(n.Name)
		for _, col := range n.Columns {
			c.add(col)
		}
		for _, tc := range n.Constraints {
			c.add(tc)
		}
		for _, idx := range n.Indexes {
			c.add(idx)
		}
	case *ColumnDef:
		if n.DataType != nil {
			c.add(n.DataType)
		}
		c.expr(n.Computed)
		for _, cc := range n.Constraints {
			c.add(cc)
		}
	case *ColumnConstraint:
		c.name(n.RefTable)
		c.expr(n.Expr)
	case *TableConstraint:
		c.name(n.RefTable)
		c.expr(n.Expr)
	case *IndexDef:
		// leaf: columns are plain identifiers
	case *CreateIndexStmt:
		c.name(n.Table)
		c.expr(n.Where)
	case *AlterTableAddStmt:
		c.name(n.Table)
		for _, col := range n.Columns {
			c.add(col)
		}
		for _, tc := range n.Constraints {
			c.add(tc)
		}
	case *CreateViewStmt:
		c.name(n.Name)
		c.query(n.Query)
	case *ParameterDef:
		if n.DataType != nil {
			c.add(n.DataType)
		}
		c.expr(n.Default)
	case *CreateProcedureStmt:
		c.name(n.Name)
		for _, p := range n.Params {
			c.add(p)
		}
		c.stmts(n.Body)
	case *CreateFunctionStmt:
		c.name(n.Name)
		for _, p := range n.Params {
			c.add(p)
		}
		if n.Returns != nil {
			c.add(n.Returns)
		}
		c.query(n.ReturnQuery)
		c.stmts(n.Body)
	case *CreateSynonymStmt:
		c.name(n.Name)
		c.name(n.Target)

	// Queries
	case *SelectStmt:
		if n.With != nil {
			c.add(n.With)
		}
		if n.Query != nil {
			c.add(n.Query)
		}
		c.orderBy(n.OrderBy)
	case *WithClause:
		for _, cte := range n.CTEs {
			c.add(cte)
		}
	case *CTE:
		c.query(n.Query)
	case *QuerySpec:
		c.expr(n.Top)
		for _, item := range n.Columns {
			c.add(item)
		}
		c.name(n.Into)
		if n.From != nil {
			c.add(n.From)
		}
		c.expr(n.Where)
		c.exprs(n.GroupBy)
		c.expr(n.Having)
	case *BinaryQuery:
		c.add(n.Left)
		c.add(n.Right)
	case *SelectItem:
		c.expr(n.Expr)
	case *FromClause:
		for _, t := range n.Tables {
			c.add(t)
		}

	// Table references
	case *TableName:
		c.name(n.Name)
	case *DerivedTable:
		c.query(n.Query)
	case *QualifiedJoin:
		c.add(n.Left)
		c.add(n.Right)
		c.expr(n.On)
	case *UnqualifiedJoin:
		c.add(n.Left)
		c.add(n.Right)
	case *FunctionTable:
		if n.Call != nil {
			c.add(n.Call)
		}
	case *VariableTable:
		// leaf

	// DML
	case *InsertStmt:
		if n.With != nil {
			c.add(n.With)
		}
		if n.Spec != nil {
			c.add(n.Spec)
		}
	case *InsertSpec:
		c.table(n.Target)
		for _, row := range n.Values {
			c.exprs(row)
		}
		c.query(n.Query)
		if n.Exec != nil {
			c.add(n.Exec)
		}
	case *UpdateStmt:
		if n.With != nil {
			c.add(n.With)
		}
		if n.Spec != nil {
			c.add(n.Spec)
		}
	case *UpdateSpec:
		c.expr(n.Top)
		c.table(n.Target)
		for _, s := range n.Set {
			c.add(s)
		}
		if n.From != nil {
			c.add(n.From)
		}
		c.expr(n.Where)
	case *SetClause:
		if n.Column != nil {
			c.add(n.Column)
		}
		c.expr(n.Value)
	case *DeleteStmt:
		if n.With != nil {
			c.add(n.With)
		}
		if n.Spec != nil {
			c.add(n.Spec)
		}
	case *DeleteSpec:
		c.expr(n.Top)
		c.table(n.Target)
		if n.From != nil {
			c.add(n.From)
		}
		c.expr(n.Where)
	case *MergeStmt:
		if n.With != nil {
			c.add(n.With)
		}
		if n.Spec != nil {
			c.add(n.Spec)
		}
	case *MergeSpec:
		c.table(n.Target)
		c.table(n.Using)
		c.expr(n.On)
		for _, a := range n.Actions {
			c.add(a)
		}
	case *MergeAction:
		c.expr(n.Condition)
		for _, s := range n.Set {
			c.add(s)
		}
		c.exprs(n.Values)

	// Procedural
	case *BlockStmt:
		c.stmts(n.Body)
	case *IfStmt:
		c.expr(n.Cond)
		c.stmt(n.Then)
		c.stmt(n.Else)
	case *WhileStmt:
		c.expr(n.Cond)
		c.stmt(n.Body)
	case *DeclareStmt:
		for _, v := range n.Vars {
			c.add(v)
		}
	case *VarDecl:
		if n.DataType != nil {
			c.add(n.DataType)
		}
		c.expr(n.Value)
	case *SetVarStmt:
		c.expr(n.Value)
	case *ReturnStmt:
		c.expr(n.Value)
	case *ExecStmt:
		c.name(n.Procedure)
		c.exprs(n.Args)

	// Expressions
	case *BinaryExpr:
		c.expr(n.Left)
		c.expr(n.Right)
	case *UnaryExpr:
		c.expr(n.Expr)
	case *ParenExpr:
		c.expr(n.Expr)
	case *FuncCall:
		c.exprs(n.Args)
		if n.Over != nil {
			c.add(n.Over)
		}
	case *OverClause:
		c.exprs(n.PartitionBy)
		c.orderBy(n.OrderBy)
	case *CastExpr:
		c.expr(n.Expr)
		if n.Type != nil {
			c.add(n.Type)
		}
	case *CaseExpr:
		c.expr(n.Operand)
		for _, w := range n.Whens {
			c.expr(w.Cond)
			c.expr(w.Result)
		}
		c.expr(n.Else)
	case *SubqueryExpr:
		c.query(n.Query)
	case *ExistsExpr:
		c.query(n.Query)
	case *InExpr:
		c.expr(n.Expr)
		c.exprs(n.List)
		c.query(n.Query)
	case *BetweenExpr:
		c.expr(n.Expr)
		c.expr(n.Low)
		c.expr(n.High)
	case *IsNullExpr:
		c.expr(n.Expr)

	default:
		panic(fmt.Sprintf("core: unhandled node kind %T", n))
	}
	return c.nodes
}

// children accumulates non-nil child nodes.
type children struct {
	nodes []Node
}

func (c *children) add(n Node) { c.nodes = append(c.nodes, n) }

func (c *children) name(n *ObjectName) {
	if n != nil {
		c.add(n)
	}
}

func (c *children) query(q *SelectStmt) {
	if q != nil {
		c.add(q)
	}
}

func (c *children) expr(e Expr) {
	if e != nil {
		c.add(e)
	}
}

func (c *children) exprs(es []Expr) {
	for _, e := range es {
		c.expr(e)
	}
}

func (c *children) stmt(s Stmt) {
	if s != nil {
		c.add(s)
	}
}

func (c *children) stmts(ss []Stmt) {
	for _, s := range ss {
		c.stmt(s)
	}
}

func (c *children) table(t TableRef) {
	if t != nil {
		c.add(t)
	}
}

func (c *children) orderBy(items []*OrderByItem) {
	for _, item := range items {
		c.expr(item.Expr)
	}
}

// Walk traverses an AST depth-first and calls fn for each node.
// If fn returns false, the node's children are skipped.
func Walk(node Node, fn func(Node) bool) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Walk(child, fn)
	}
}

// Find returns every node of type T below (and including) root, in source order.
func Find[T Node](root Node) []T {
	var out []T
	Walk(root, func(n Node) bool {
		if t, ok := n.(T); ok {
			out = append(out, t)
		}
		return true
	})
	return out
}

// ParentMap maps each node to its direct parent.
type ParentMap map[Node]Node

// BuildParentMap records the parent of every node reachable from root.
func BuildParentMap(root Node) ParentMap {
	pm := make(ParentMap)
	var visit func(n Node)
	visit = func(n Node) {
		for _, child := range Children(n) {
			pm[child] = n
			visit(child)
		}
	}
	if root != nil {
		visit(root)
	}
	return pm
}

// Parent returns the parent of n.
func (pm ParentMap) Parent(n Node) (Node, bool) {
	p, ok := pm[n]
	return p, ok
}

// Ancestors returns the parents of n from the nearest outward.
func (pm ParentMap) Ancestors(n Node) []Node {
	var out []Node
	for {
		p, ok := pm[n]
		if !ok {
			return out
		}
		out = append(out, p)
		n = p
	}
}
