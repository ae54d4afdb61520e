package catalog

import (
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// ObjectKind identifies the concrete type of a schema-bound object.
type ObjectKind int

// Object kinds.
const (
	KindSchema ObjectKind = iota
	KindTable
	KindColumn
	KindIndex
	KindForeignKey
	KindProcedure
	KindFunction
	KindView
	KindSynonym
)

func (k ObjectKind) String() string {
	switch k {
	case KindSchema:
		return "schema"
	case KindTable:
		return "table"
	case KindColumn:
		return "column"
	case KindIndex:
		return "index"
	case KindForeignKey:
		return "foreign key"
	case KindProcedure:
		return "procedure"
	case KindFunction:
		return "function"
	case KindView:
		return "view"
	case KindSynonym:
		return "synonym"
	default:
		return "unknown"
	}
}

// SchemaBoundObject is implemented by every extracted object.
type SchemaBoundObject interface {
	Kind() ObjectKind
	Info() *ObjectInfo
}

// ObjectInfo carries what every extracted object knows about its origin.
type ObjectInfo struct {
	DatabaseName string
	// ObjectName is the name without the database part, e.g. "dbo.Orders".
	ObjectName string
	// FullNameParts starts with the database, e.g. ["Sales", "dbo", "Orders"].
	FullNameParts []string
	Node          core.Node
	ScriptPath    string
}

// Info implements SchemaBoundObject.
func (o *ObjectInfo) Info() *ObjectInfo { return o }

// FullName returns the dot-joined name parts.
func (o *ObjectInfo) FullName() string {
	return strings.Join(o.FullNameParts, ".")
}

// Region returns the source region of the creating statement.
func (o *ObjectInfo) Region() core.CodeRegion {
	return core.RegionOf(o.Node)
}

func newInfo(db, path string, node core.Node, parts ...string) ObjectInfo {
	full := append([]string{db}, parts...)
	return ObjectInfo{
		DatabaseName:  db,
		ObjectName:    strings.Join(parts, "."),
		FullNameParts: full,
		Node:          node,
		ScriptPath:    path,
	}
}

// Schema is a CREATE SCHEMA declaration.
type Schema struct {
	ObjectInfo
	SchemaName string
	Owner      string
}

// Kind implements SchemaBoundObject.
func (*Schema) Kind() ObjectKind { return KindSchema }

// Table is a table with everything declared on it, inline or by ALTER TABLE.
type Table struct {
	ObjectInfo
	SchemaName  string
	TableName   string
	Columns     []*Column
	Indexes     []*Index
	ForeignKeys []*ForeignKey
}

// Kind implements SchemaBoundObject.
func (*Table) Kind() ObjectKind { return KindTable }

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if core.EqualFold(c.ColumnName, name) {
			return c, true
		}
	}
	return nil, false
}

// PrimaryKey returns the primary key index, if any.
func (t *Table) PrimaryKey() (*Index, bool) {
	for _, idx := range t.Indexes {
		if idx.Type.Has(IndexPrimaryKey) {
			return idx, true
		}
	}
	return nil, false
}

// Column is a table or view column.
type Column struct {
	ObjectInfo
	SchemaName string
	TableName  string
	ColumnName string
	DataType   string
	IsNullable bool
	IsIdentity bool
	IsComputed bool
}

// Kind implements SchemaBoundObject.
func (*Column) Kind() ObjectKind { return KindColumn }

// IndexType is a set of index flags.
type IndexType uint8

// Index flags.
const (
	IndexPrimaryKey IndexType = 1 << iota
	IndexClustered
	IndexUnique
)

// Has reports whether all flags in f are set.
func (t IndexType) Has(f IndexType) bool { return t&f == f }

func (t IndexType) String() string {
	var parts []string
	if t.Has(IndexPrimaryKey) {
		parts = append(parts, "primary key")
	}
	if t.Has(IndexUnique) {
		parts = append(parts, "unique")
	}
	if t.Has(IndexClustered) {
		parts = append(parts, "clustered")
	} else {
		parts = append(parts, "nonclustered")
	}
	return strings.Join(parts, " ")
}

// Index is an index or a key constraint backed by one.
type Index struct {
	ObjectInfo
	SchemaName string
	TableName  string
	// IndexName is empty for unnamed indexes such as column-level UNIQUE.
	IndexName           string
	Type                IndexType
	ColumnNames         []string
	IncludedColumnNames []string
}

// Kind implements SchemaBoundObject.
func (*Index) Kind() ObjectKind { return KindIndex }

// ForeignKey is a FOREIGN KEY constraint.
type ForeignKey struct {
	ObjectInfo
	SchemaName        string
	TableName         string
	ConstraintName    string
	ColumnNames       []string
	ReferencedSchema  string
	ReferencedTable   string
	ReferencedColumns []string
}

// Kind implements SchemaBoundObject.
func (*ForeignKey) Kind() ObjectKind { return KindForeignKey }

// Parameter is a procedure or function parameter.
type Parameter struct {
	Name            string
	DataType        string
	IsOutput        bool
	HasDefaultValue bool
	IsNullable      bool
}

// Procedure is a stored procedure.
type Procedure struct {
	ObjectInfo
	SchemaName    string
	ProcedureName string
	Parameters    []*Parameter
}

// Kind implements SchemaBoundObject.
func (*Procedure) Kind() ObjectKind { return KindProcedure }

// Function is a scalar or table-valued function.
type Function struct {
	ObjectInfo
	SchemaName    string
	FunctionName  string
	Parameters    []*Parameter
	ReturnType    string
	IsTableValued bool
}

// Kind implements SchemaBoundObject.
func (*Function) Kind() ObjectKind { return KindFunction }

// View is a view with its ordered output columns.
type View struct {
	ObjectInfo
	SchemaName string
	ViewName   string
	Columns    []*Column
}

// Kind implements SchemaBoundObject.
func (*View) Kind() ObjectKind { return KindView }

// Synonym is an alias for another object, possibly on another server.
type Synonym struct {
	ObjectInfo
	SchemaName     string
	SynonymName    string
	TargetServer   string
	TargetDatabase string
	TargetSchema   string
	TargetObject   string
}

// Kind implements SchemaBoundObject.
func (*Synonym) Kind() ObjectKind { return KindSynonym }
