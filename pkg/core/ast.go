package core

import (
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	// Pos returns the position of the first character of the node.
	Pos() token.Position
	// End returns the position of the character immediately after the node.
	End() token.Position
	// GetSpan returns the node's source span.
	GetSpan() token.Span
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a marker interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// TableRef is a marker interface for table sources in FROM clauses and DML targets.
// The set of implementations is closed: TableName, DerivedTable, QualifiedJoin,
// UnqualifiedJoin, FunctionTable and VariableTable.
type TableRef interface {
	Node
	tableRefNode()
}

// QueryExpr is a marker interface for query bodies (QuerySpec, BinaryQuery).
type QueryExpr interface {
	Node
	queryNode()
}

// NodeInfo carries the source span shared by every node.
type NodeInfo struct {
	Span token.Span
}

// Pos implements Node.
func (n *NodeInfo) Pos() token.Position { return n.Span.Start }

// End implements Node.
func (n *NodeInfo) End() token.Position { return n.Span.End }

// GetSpan implements Node.
func (n *NodeInfo) GetSpan() token.Span { return n.Span }

// Identifier is a single name part. Quoted is set for [bracketed] and "quoted" names.
type Identifier struct {
	Value  string
	Quoted bool
	Span   token.Span
}

// IsZero reports whether the identifier is absent.
func (i Identifier) IsZero() bool { return i.Value == "" }

func (i Identifier) String() string { return i.Value }

// ObjectName is a dotted multi-part name: [server.][database.][schema.]object.
// Empty leading parts (db..tbl) are kept as zero identifiers.
type ObjectName struct {
	NodeInfo
	Parts []Identifier
}

func (o *ObjectName) part(fromEnd int) string {
	if o == nil || len(o.Parts) < fromEnd {
		return ""
	}
	return o.Parts[len(o.Parts)-fromEnd].Value
}

// BaseName returns the object part.
func (o *ObjectName) BaseName() string { return o.part(1) }

// SchemaName returns the schema part, or "" when unqualified.
func (o *ObjectName) SchemaName() string { return o.part(2) }

// DatabaseName returns the database part, or "".
func (o *ObjectName) DatabaseName() string { return o.part(3) }

// ServerName returns the linked-server part, or "".
func (o *ObjectName) ServerName() string { return o.part(4) }

// String renders the name dot-joined, without quoting.
func (o *ObjectName) String() string {
	if o == nil {
		return ""
	}
	parts := make([]string, len(o.Parts))
	for i, p := range o.Parts {
		parts[i] = p.Value
	}
	return strings.Join(parts, ".")
}

// IsTemporary reports whether the name denotes a #temp or ##global table.
func (o *ObjectName) IsTemporary() bool {
	return strings.HasPrefix(o.BaseName(), "#")
}

// DataType is a column, parameter or return type, e.g. nvarchar(max) or decimal(10, 2).
type DataType struct {
	NodeInfo
	Name   *ObjectName
	Params []string
}

func (d *DataType) String() string {
	if d == nil {
		return ""
	}
	s := d.Name.String()
	if len(d.Params) > 0 {
		s += "(" + strings.Join(d.Params, ", ") + ")"
	}
	return s
}

// Script is the root node of one parsed file.
type Script struct {
	NodeInfo
	Batches  []*Batch
	Comments []*token.Comment
}

// Batch is the statement list between GO separators.
type Batch struct {
	NodeInfo
	Statements []Stmt
}
