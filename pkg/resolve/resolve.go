// Package resolve finds the row source a table reference or column qualifier
// denotes inside a statement: a catalog table or view, a CTE, a derived table,
// a table-valued function or a table variable.
//
// Resolution walks upward from the reference through its ancestors. Joins,
// FROM clauses and DML targets met on the way are searched; the walk stops
// when it leaves the enclosing statement.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// MissingAlias is reported when a reference cannot be resolved inside a join
// that has a side without an alias.
var MissingAlias = core.NewDiagnosticDefinition(
	"AJ5016", core.IssueWarning,
	"Missing alias",
	"The joined table {0} has no alias, so {1} cannot be resolved unambiguously")

// SourceKind classifies what a reference resolved to.
type SourceKind int

// Source kinds.
const (
	SourceTableOrView SourceKind = iota
	SourceCTE
	SourceDerivedTable
	SourceTableFunction
	SourceTableVariable
)

func (k SourceKind) String() string {
	switch k {
	case SourceTableOrView:
		return "table or view"
	case SourceCTE:
		return "cte"
	case SourceDerivedTable:
		return "derived table"
	case SourceTableFunction:
		return "table function"
	case SourceTableVariable:
		return "table variable"
	default:
		return "unknown"
	}
}

// TableOrViewReference is the result of a successful resolution.
type TableOrViewReference struct {
	Database string
	Schema   string
	Name     string
	Kind     SourceKind
	// Node is the matched source: a *core.TableName, *core.CTE, *core.DerivedTable,
	// *core.FunctionTable or *core.VariableTable.
	Node core.Node
	// FullObjectNameHint is database.schema.name for catalog objects, else Name.
	FullObjectNameHint string
}

// IsCatalogObject reports whether the reference names a table or view that
// should exist in the catalog.
func (r *TableOrViewReference) IsCatalogObject() bool {
	return r.Kind == SourceTableOrView && !strings.HasPrefix(r.Name, "#")
}

// Resolver resolves references within one script.
type Resolver struct {
	model         *core.ScriptModel
	defaultSchema string
	reporter      core.IssueReporter
}

// New returns a resolver for model. Missing aliases are reported to reporter,
// which may be nil.
func New(model *core.ScriptModel, defaultSchema string, reporter core.IssueReporter) *Resolver {
	if defaultSchema == "" {
		defaultSchema = "dbo"
	}
	return &Resolver{model: model, defaultSchema: defaultSchema, reporter: reporter}
}

// Resolution failures.
var (
	// ErrNotFound means no source in scope matches the reference.
	ErrNotFound = errors.New("reference does not match any source in scope")
	// ErrMissingAlias means the reference sits in a join with an unaliased
	// side. A MissingAlias issue has already been reported.
	ErrMissingAlias = errors.New("joined table has no alias")
)

// Resolve resolves a table reference that is part of the script's tree.
func (r *Resolver) Resolve(ref *core.TableName) (*TableOrViewReference, error) {
	return r.ResolveAt(ref, ref)
}

// ResolveQualifier resolves the qualifier of a column reference such as o.id.
// Unqualified columns yield ErrNotFound.
func (r *Resolver) ResolveQualifier(col *core.ColumnRef) (*TableOrViewReference, error) {
	parts := col.QualifierParts()
	if len(parts) == 0 {
		return nil, ErrNotFound
	}
	ref := &core.TableName{Name: &core.ObjectName{Parts: parts}}
	ref.Span = col.Span
	return r.ResolveAt(ref, col)
}

// ResolveAt resolves ref as if it appeared at node at. ref need not be part
// of the tree.
func (r *Resolver) ResolveAt(ref *core.TableName, at core.Node) (*TableOrViewReference, error) {
	child := at
	for _, anc := range r.model.Parents.Ancestors(at) {
		var res *TableOrViewReference
		var err error
		switch n := anc.(type) {
		case *core.SelectStmt:
			// ORDER BY sees the sources of the leading query block
			if child != core.Node(n.Query) && child != core.Node(n.With) {
				res, err = r.searchFrom(ref, leadingFrom(n.Query))
			}
		case *core.QualifiedJoin:
			res, err = r.searchJoin(ref, n)
		case *core.FromClause:
			res, err = r.searchFrom(ref, n)
		case *core.QuerySpec:
			res, err = r.searchFrom(ref, n.From)
		case *core.UpdateSpec:
			res, err = r.searchDML(ref, n.From, n.Target)
		case *core.DeleteSpec:
			res, err = r.searchDML(ref, n.From, n.Target)
		case *core.MergeSpec:
			res = r.matchSource(ref, n.Using, core.Identifier{})
			if res == nil {
				res = r.matchSource(ref, n.Target, n.Alias)
			}
		case *core.InsertSpec:
			res = r.matchSource(ref, n.Target, core.Identifier{})
		case *core.Batch, *core.Script, *core.BlockStmt, *core.IfStmt, *core.WhileStmt,
			*core.CreateProcedureStmt, *core.CreateFunctionStmt, *core.CreateViewStmt:
			// left the statement
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
		child = anc
	}
	return nil, ErrNotFound
}

func leadingFrom(q core.QueryExpr) *core.FromClause {
	switch q := q.(type) {
	case *core.QuerySpec:
		return q.From
	case *core.BinaryQuery:
		return leadingFrom(q.Left)
	}
	return nil
}

// searchFrom checks every source listed in from. CTEs are recognised when a
// matched name is classified in tableReference.
func (r *Resolver) searchFrom(ref *core.TableName, from *core.FromClause) (*TableOrViewReference, error) {
	if from == nil {
		return nil, nil
	}
	for _, src := range from.Tables {
		if res := r.searchSource(ref, src); res != nil {
			return res, nil
		}
	}
	for _, src := range from.Tables {
		if j, ok := src.(*core.QualifiedJoin); ok {
			if side := unaliasedSide(j); side != nil {
				r.reportMissingAlias(side, ref)
				return nil, ErrMissingAlias
			}
		}
	}
	return nil, nil
}

// searchDML checks the FROM clause of an UPDATE or DELETE, then its target.
func (r *Resolver) searchDML(ref *core.TableName, from *core.FromClause, target core.TableRef) (*TableOrViewReference, error) {
	res, err := r.searchFrom(ref, from)
	if res != nil || err != nil {
		return res, err
	}
	return r.matchSource(ref, target, core.Identifier{}), nil
}

// searchSource checks one FROM entry, descending into joins.
func (r *Resolver) searchSource(ref *core.TableName, src core.TableRef) *TableOrViewReference {
	switch s := src.(type) {
	case *core.QualifiedJoin:
		if res := r.searchSource(ref, s.Left); res != nil {
			return res
		}
		return r.searchSource(ref, s.Right)
	case *core.UnqualifiedJoin:
		if res := r.searchSource(ref, s.Left); res != nil {
			return res
		}
		return r.searchSource(ref, s.Right)
	default:
		return r.matchSource(ref, src, core.Identifier{})
	}
}

// searchJoin checks every source of a join. When none matches and a side is
// a table without an alias, the join cannot be disambiguated: a MissingAlias
// issue is reported and ErrMissingAlias returned.
func (r *Resolver) searchJoin(ref *core.TableName, j *core.QualifiedJoin) (*TableOrViewReference, error) {
	if res := r.searchSource(ref, j); res != nil {
		return res, nil
	}
	if side := unaliasedSide(j); side != nil {
		r.reportMissingAlias(side, ref)
		return nil, ErrMissingAlias
	}
	return nil, nil
}

// unaliasedSide returns the first table name joined without an alias.
func unaliasedSide(j *core.QualifiedJoin) *core.TableName {
	for _, side := range []core.TableRef{j.Left, j.Right} {
		switch s := side.(type) {
		case *core.TableName:
			if !s.HasAlias() {
				return s
			}
		case *core.QualifiedJoin:
			if tn := unaliasedSide(s); tn != nil {
				return tn
			}
		}
	}
	return nil
}

func (r *Resolver) reportMissingAlias(side, ref *core.TableName) {
	if r.reporter == nil {
		return
	}
	r.reporter.Report(MissingAlias, r.model.DatabaseAt(side), r.model.Path, ObjectNameAt(r.model, side, r.defaultSchema),
		core.RegionOf(ref), side.Name.String(), ref.Name.String())
}

// matchSource compares ref with a single row source. alias overrides the
// source's own alias; MERGE stores its target alias on the statement.
func (r *Resolver) matchSource(ref *core.TableName, src core.TableRef, alias core.Identifier) *TableOrViewReference {
	switch s := src.(type) {
	case *core.TableName:
		cand := s
		if !alias.IsZero() {
			copied := *s
			copied.Alias = alias
			cand = &copied
		}
		if ref != s && !IsSameTable(ref, cand, r.defaultSchema) {
			return nil
		}
		return r.tableReference(s)
	case *core.DerivedTable:
		return r.matchAliased(ref, s.Alias, s, SourceDerivedTable)
	case *core.FunctionTable:
		return r.matchAliased(ref, s.Alias, s, SourceTableFunction)
	case *core.VariableTable:
		if s.Alias.IsZero() {
			if core.EqualFold(ref.Name.String(), s.Name) {
				return &TableOrViewReference{Name: s.Name, Kind: SourceTableVariable, Node: s, FullObjectNameHint: s.Name}
			}
			return nil
		}
		return r.matchAliased(ref, s.Alias, s, SourceTableVariable)
	case *core.QualifiedJoin, *core.UnqualifiedJoin:
		return r.searchSource(ref, s)
	case nil:
		return nil
	default:
		panic(fmt.Sprintf("resolve: unhandled table source %T", src))
	}
}

// matchAliased matches sources that can only be named through their alias.
func (r *Resolver) matchAliased(ref *core.TableName, alias core.Identifier, src core.Node, kind SourceKind) *TableOrViewReference {
	if alias.IsZero() || ref.Name.SchemaName() != "" {
		return nil
	}
	name := ref.BaseName()
	if ref.HasAlias() {
		name = ref.Alias.Value
	}
	if !core.EqualFold(name, alias.Value) {
		return nil
	}
	return &TableOrViewReference{Name: alias.Value, Kind: kind, Node: src, FullObjectNameHint: alias.Value}
}

// tableReference builds the result for a matched table name, classifying it
// as a CTE when an unqualified name is defined by a WITH clause in scope.
func (r *Resolver) tableReference(tn *core.TableName) *TableOrViewReference {
	if tn.SchemaName() == "" {
		if cte := r.cteInScope(tn.BaseName(), tn); cte != nil {
			return cteReference(cte)
		}
	}
	db := tn.Name.DatabaseName()
	if db == "" {
		db = r.model.DatabaseAt(tn)
	}
	schema := tn.SchemaName()
	if schema == "" {
		schema = r.defaultSchema
	}
	name := tn.BaseName()
	hint := schema + "." + name
	if db != "" {
		hint = db + "." + hint
	}
	return &TableOrViewReference{
		Database:           db,
		Schema:             schema,
		Name:               name,
		Kind:               SourceTableOrView,
		Node:               tn,
		FullObjectNameHint: hint,
	}
}

func cteReference(cte *core.CTE) *TableOrViewReference {
	return &TableOrViewReference{
		Name:               cte.Name.Value,
		Kind:               SourceCTE,
		Node:               cte,
		FullObjectNameHint: cte.Name.Value,
	}
}

// cteInScope returns the nearest CTE called name defined by a statement
// enclosing n.
func (r *Resolver) cteInScope(name string, n core.Node) *core.CTE {
	for _, anc := range r.model.Parents.Ancestors(n) {
		var with *core.WithClause
		switch s := anc.(type) {
		case *core.SelectStmt:
			with = s.With
		case *core.InsertStmt:
			with = s.With
		case *core.UpdateStmt:
			with = s.With
		case *core.DeleteStmt:
			with = s.With
		case *core.MergeStmt:
			with = s.With
		}
		if cte := with.Lookup(name); cte != nil {
			return cte
		}
	}
	return nil
}

// IsSameTable reports whether two table references denote the same source.
//
//   - the same node always matches
//   - two aliased references match on alias
//   - two unaliased references match on schema-qualified name, with an
//     empty schema meaning defaultSchema
//   - otherwise the alias of the aliased one must equal the base name of the
//     other, whatever its schema, so "UPDATE o ... FROM dbo.Orders o" and
//     "UPDATE dbo.o ... FROM dbo.Orders o" resolve their target
func IsSameTable(a, b *core.TableName, defaultSchema string) bool {
	if a == b {
		return true
	}
	switch {
	case a.HasAlias() && b.HasAlias():
		return core.EqualFold(a.Alias.Value, b.Alias.Value)
	case !a.HasAlias() && !b.HasAlias():
		return core.EqualFold(schemaOr(a, defaultSchema), schemaOr(b, defaultSchema)) &&
			core.EqualFold(a.BaseName(), b.BaseName())
	case a.HasAlias():
		return core.EqualFold(a.Alias.Value, b.BaseName())
	default:
		return core.EqualFold(b.Alias.Value, a.BaseName())
	}
}

func schemaOr(t *core.TableName, def string) string {
	if s := t.SchemaName(); s != "" {
		return s
	}
	return def
}

// ObjectNameAt returns schema.name of the procedure, function or view that is
// or contains n, or "" for loose script statements.
func ObjectNameAt(model *core.ScriptModel, n core.Node, defaultSchema string) string {
	for _, anc := range append([]core.Node{n}, model.Parents.Ancestors(n)...) {
		var name *core.ObjectName
		switch s := anc.(type) {
		case *core.CreateProcedureStmt:
			name = s.Name
		case *core.CreateFunctionStmt:
			name = s.Name
		case *core.CreateViewStmt:
			name = s.Name
		default:
			continue
		}
		schema := name.SchemaName()
		if schema == "" {
			schema = defaultSchema
		}
		return schema + "." + name.BaseName()
	}
	return ""
}
