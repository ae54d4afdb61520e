package catalog

import (
	"fmt"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// ExtractionError is returned when an object is declared before any USE
// statement and no default database was supplied.
type ExtractionError struct {
	ScriptPath string
	ObjectName string
	Region     core.CodeRegion
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s:%d:%d: cannot determine database name for %s",
		e.ScriptPath, e.Region.Begin.Line, e.Region.Begin.Column, e.ObjectName)
}

// Extractor pulls object records out of parsed scripts. Each method covers
// one object kind and visits every script in order, tracking the database
// selected by USE.
type Extractor struct {
	DefaultSchema string

	errs []*ExtractionError
	seen map[core.Node]bool
}

// NewExtractor returns an extractor that puts unqualified names in defaultSchema.
func NewExtractor(defaultSchema string) *Extractor {
	if defaultSchema == "" {
		defaultSchema = DefaultSchemaName
	}
	return &Extractor{DefaultSchema: defaultSchema, seen: make(map[core.Node]bool)}
}

// Errors returns every extraction failure seen so far, one per statement.
func (x *Extractor) Errors() []*ExtractionError {
	return x.errs
}

// site is the traversal state for one statement.
type site struct {
	x     *Extractor
	model *core.ScriptModel
	db    string
}

type visitFunc func(s *site, stmt core.Stmt)

// visit calls fn for every statement that can declare an object. Control-flow
// blocks are entered; routine bodies are not. USE updates the database for
// everything after it in the same script, across batches.
func (x *Extractor) visit(scripts []*core.ScriptModel, fn visitFunc) {
	for _, m := range scripts {
		if m.Root == nil {
			continue
		}
		s := &site{x: x, model: m, db: m.DatabaseName}
		core.Walk(m.Root, func(n core.Node) bool {
			switch n := n.(type) {
			case *core.Script, *core.Batch, *core.BlockStmt, *core.IfStmt, *core.WhileStmt:
				return true
			case *core.UseStmt:
				s.db = n.Database.Value
			case core.Stmt:
				fn(s, n)
			}
			return false
		})
	}
}

// qualify returns the database and schema of name, or ok=false after
// recording an ExtractionError for stmt.
func (s *site) qualify(name *core.ObjectName, stmt core.Node) (db, schema string, ok bool) {
	db = name.DatabaseName()
	if db == "" {
		db = s.db
	}
	if db == "" {
		s.x.fail(s.model.Path, name.String(), stmt)
		return "", "", false
	}
	schema = name.SchemaName()
	if schema == "" {
		schema = s.x.DefaultSchema
	}
	return db, schema, true
}

func (x *Extractor) fail(path, object string, stmt core.Node) {
	if x.seen[stmt] {
		return
	}
	x.seen[stmt] = true
	x.errs = append(x.errs, &ExtractionError{
		ScriptPath: path,
		ObjectName: object,
		Region:     core.RegionOf(stmt),
	})
}

// ---------- Schemas ----------

// Schemas extracts CREATE SCHEMA statements.
func (x *Extractor) Schemas(scripts []*core.ScriptModel) []*Schema {
	var out []*Schema
	x.visit(scripts, func(s *site, stmt core.Stmt) {
		cs, ok := stmt.(*core.CreateSchemaStmt)
		if !ok {
			return
		}
		if s.db == "" {
			s.x.fail(s.model.Path, cs.Name.Value, cs)
			return
		}
		out = append(out, &Schema{
			ObjectInfo: newInfo(s.db, s.model.Path, cs, cs.Name.Value),
			SchemaName: cs.Name.Value,
			Owner:      cs.Owner.Value,
		})
	})
	return out
}

// ---------- Tables ----------

// Tables extracts CREATE TABLE statements with their inline columns, indexes
// and foreign keys. Temporary tables are skipped.
func (x *Extractor) Tables(scripts []*core.ScriptModel) []*Table {
	var out []*Table
	x.visit(scripts, func(s *site, stmt core.Stmt) {
		ct, ok := stmt.(*core.CreateTableStmt)
		if !ok || ct.Name.IsTemporary() {
			return
		}
		db, schema, ok := s.qualify(ct.Name, ct)
		if !ok {
			return
		}
		name := ct.Name.BaseName()
		t := &Table{
			ObjectInfo: newInfo(db, s.model.Path, ct, schema, name),
			SchemaName: schema,
			TableName:  name,
		}
		ts := tableSite{site: s, db: db, schema: schema, table: name}
		for _, col := range ct.Columns {
			t.Columns = append(t.Columns, ts.column(col))
			idx, fks := ts.columnConstraints(col)
			t.Indexes = append(t.Indexes, idx...)
			t.ForeignKeys = append(t.ForeignKeys, fks...)
		}
		for _, tc := range ct.Constraints {
			if idx := ts.constraintIndex(tc); idx != nil {
				t.Indexes = append(t.Indexes, idx)
			}
			if fk := ts.constraintForeignKey(tc); fk != nil {
				t.ForeignKeys = append(t.ForeignKeys, fk)
			}
		}
		for _, def := range ct.Indexes {
			t.Indexes = append(t.Indexes, ts.inlineIndex(def))
		}
		out = append(out, t)
	})
	return out
}

// Columns extracts columns added by ALTER TABLE ADD. Columns declared in
// CREATE TABLE are part of Tables.
func (x *Extractor) Columns(scripts []*core.ScriptModel) []*Column {
	var out []*Column
	x.alterTables(scripts, func(ts tableSite, at *core.AlterTableAddStmt) {
		for _, col := range at.Columns {
			out = append(out, ts.column(col))
		}
	})
	return out
}

// Indexes extracts indexes declared outside CREATE TABLE: CREATE INDEX and
// ALTER TABLE ADD with a key constraint or a keyed column.
func (x *Extractor) Indexes(scripts []*core.ScriptModel) []*Index {
	var out []*Index
	x.alterTables(scripts, func(ts tableSite, at *core.AlterTableAddStmt) {
		for _, col := range at.Columns {
			idx, _ := ts.columnConstraints(col)
			out = append(out, idx...)
		}
		for _, tc := range at.Constraints {
			if idx := ts.constraintIndex(tc); idx != nil {
				out = append(out, idx)
			}
		}
	})
	x.visit(scripts, func(s *site, stmt core.Stmt) {
		ci, ok := stmt.(*core.CreateIndexStmt)
		if !ok || ci.Table.IsTemporary() {
			return
		}
		db, schema, ok := s.qualify(ci.Table, ci)
		if !ok {
			return
		}
		ts := tableSite{site: s, db: db, schema: schema, table: ci.Table.BaseName()}
		typ := clusteredFlag(ci.Clustered, false)
		if ci.Unique {
			typ |= IndexUnique
		}
		out = append(out, ts.index(ci, ci.Name.Value, typ, ci.Columns, ci.Include))
	})
	return out
}

// ForeignKeys extracts foreign keys added by ALTER TABLE ADD.
func (x *Extractor) ForeignKeys(scripts []*core.ScriptModel) []*ForeignKey {
	var out []*ForeignKey
	x.alterTables(scripts, func(ts tableSite, at *core.AlterTableAddStmt) {
		for _, col := range at.Columns {
			_, fks := ts.columnConstraints(col)
			out = append(out, fks...)
		}
		for _, tc := range at.Constraints {
			if fk := ts.constraintForeignKey(tc); fk != nil {
				out = append(out, fk)
			}
		}
	})
	return out
}

func (x *Extractor) alterTables(scripts []*core.ScriptModel, fn func(ts tableSite, at *core.AlterTableAddStmt)) {
	x.visit(scripts, func(s *site, stmt core.Stmt) {
		at, ok := stmt.(*core.AlterTableAddStmt)
		if !ok || at.Table.IsTemporary() {
			return
		}
		db, schema, ok := s.qualify(at.Table, at)
		if !ok {
			return
		}
		fn(tableSite{site: s, db: db, schema: schema, table: at.Table.BaseName()}, at)
	})
}

// tableSite builds the parts of one table.
type tableSite struct {
	*site
	db, schema, table string
}

func (ts tableSite) column(col *core.ColumnDef) *Column {
	nullable := false
	if col.Nullable != nil {
		nullable = *col.Nullable
	}
	return &Column{
		ObjectInfo: newInfo(ts.db, ts.model.Path, col, ts.schema, ts.table, col.Name.Value),
		SchemaName: ts.schema,
		TableName:  ts.table,
		ColumnName: col.Name.Value,
		DataType:   col.DataType.String(),
		IsNullable: nullable,
		IsIdentity: col.Identity,
		IsComputed: col.Computed != nil,
	}
}

// columnConstraints turns column-level keys into indexes and REFERENCES into
// foreign keys. A column-level UNIQUE yields an unnamed index.
func (ts tableSite) columnConstraints(col *core.ColumnDef) ([]*Index, []*ForeignKey) {
	var indexes []*Index
	var fks []*ForeignKey
	key := []*core.IndexColumn{{Name: col.Name}}
	for _, cc := range col.Constraints {
		switch cc.Kind {
		case core.ConstraintPrimaryKey:
			typ := IndexPrimaryKey | clusteredFlag(cc.Clustered, true)
			indexes = append(indexes, ts.index(cc, cc.Name.Value, typ, key, nil))
		case core.ConstraintUnique:
			typ := IndexUnique | clusteredFlag(cc.Clustered, false)
			indexes = append(indexes, ts.index(cc, "", typ, key, nil))
		case core.ConstraintForeignKey:
			fks = append(fks, ts.foreignKey(cc, cc.Name.Value, []string{col.Name.Value}, cc.RefTable, cc.RefColumns))
		}
	}
	return indexes, fks
}

func (ts tableSite) constraintIndex(tc *core.TableConstraint) *Index {
	switch tc.Kind {
	case core.ConstraintPrimaryKey:
		return ts.index(tc, tc.Name.Value, IndexPrimaryKey|clusteredFlag(tc.Clustered, true), tc.Columns, nil)
	case core.ConstraintUnique:
		return ts.index(tc, tc.Name.Value, IndexUnique|clusteredFlag(tc.Clustered, false), tc.Columns, nil)
	}
	return nil
}

func (ts tableSite) constraintForeignKey(tc *core.TableConstraint) *ForeignKey {
	if tc.Kind != core.ConstraintForeignKey {
		return nil
	}
	return ts.foreignKey(tc, tc.Name.Value, indexColumnNames(tc.Columns), tc.RefTable, tc.RefColumns)
}

func (ts tableSite) inlineIndex(def *core.IndexDef) *Index {
	typ := clusteredFlag(def.Clustered, false)
	if def.Unique {
		typ |= IndexUnique
	}
	return ts.index(def, def.Name.Value, typ, def.Columns, def.Include)
}

func (ts tableSite) index(node core.Node, name string, typ IndexType, cols []*core.IndexColumn, include []core.Identifier) *Index {
	parts := []string{ts.schema, ts.table}
	if name != "" {
		parts = append(parts, name)
	}
	includeNames := make([]string, 0, len(include))
	for _, id := range include {
		includeNames = append(includeNames, id.Value)
	}
	return &Index{
		ObjectInfo:          newInfo(ts.db, ts.model.Path, node, parts...),
		SchemaName:          ts.schema,
		TableName:           ts.table,
		IndexName:           name,
		Type:                typ,
		ColumnNames:         uniqueNames(indexColumnNames(cols)),
		IncludedColumnNames: uniqueNames(includeNames),
	}
}

func (ts tableSite) foreignKey(node core.Node, name string, cols []string, ref *core.ObjectName, refCols []core.Identifier) *ForeignKey {
	parts := []string{ts.schema, ts.table}
	if name != "" {
		parts = append(parts, name)
	}
	refSchema := ref.SchemaName()
	if refSchema == "" {
		refSchema = ts.x.DefaultSchema
	}
	refNames := make([]string, 0, len(refCols))
	for _, id := range refCols {
		refNames = append(refNames, id.Value)
	}
	return &ForeignKey{
		ObjectInfo:        newInfo(ts.db, ts.model.Path, node, parts...),
		SchemaName:        ts.schema,
		TableName:         ts.table,
		ConstraintName:    name,
		ColumnNames:       cols,
		ReferencedSchema:  refSchema,
		ReferencedTable:   ref.BaseName(),
		ReferencedColumns: refNames,
	}
}

func clusteredFlag(clustered *bool, def bool) IndexType {
	if clustered != nil {
		def = *clustered
	}
	if def {
		return IndexClustered
	}
	return 0
}

func indexColumnNames(cols []*core.IndexColumn) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Name.Value)
	}
	return out
}

// uniqueNames drops case-insensitive repeats, keeping first occurrences.
func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0:0]
	for _, n := range names {
		k := core.FoldName(n)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	return out
}

// ---------- Routines ----------

// Procedures extracts CREATE PROCEDURE statements.
func (x *Extractor) Procedures(scripts []*core.ScriptModel) []*Procedure {
	var out []*Procedure
	x.visit(scripts, func(s *site, stmt core.Stmt) {
		cp, ok := stmt.(*core.CreateProcedureStmt)
		if !ok || cp.Name.IsTemporary() {
			return
		}
		db, schema, ok := s.qualify(cp.Name, cp)
		if !ok {
			return
		}
		name := cp.Name.BaseName()
		out = append(out, &Procedure{
			ObjectInfo:    newInfo(db, s.model.Path, cp, schema, name),
			SchemaName:    schema,
			ProcedureName: name,
			Parameters:    parameters(cp.Params),
		})
	})
	return out
}

// Functions extracts CREATE FUNCTION statements.
func (x *Extractor) Functions(scripts []*core.ScriptModel) []*Function {
	var out []*Function
	x.visit(scripts, func(s *site, stmt core.Stmt) {
		cf, ok := stmt.(*core.CreateFunctionStmt)
		if !ok {
			return
		}
		db, schema, ok := s.qualify(cf.Name, cf)
		if !ok {
			return
		}
		name := cf.Name.BaseName()
		out = append(out, &Function{
			ObjectInfo:    newInfo(db, s.model.Path, cf, schema, name),
			SchemaName:    schema,
			FunctionName:  name,
			Parameters:    parameters(cf.Params),
			ReturnType:    cf.Returns.String(),
			IsTableValued: cf.ReturnQuery != nil || cf.ReturnsVar != "",
		})
	})
	return out
}

func parameters(defs []*core.ParameterDef) []*Parameter {
	out := make([]*Parameter, 0, len(defs))
	for _, p := range defs {
		nullable := true
		if p.Nullable != nil {
			nullable = *p.Nullable
		}
		out = append(out, &Parameter{
			Name:            p.Name,
			DataType:        p.DataType.String(),
			IsOutput:        p.Output,
			HasDefaultValue: p.Default != nil,
			IsNullable:      nullable,
		})
	}
	return out
}

// ---------- Views and synonyms ----------

// Views extracts CREATE VIEW statements. Output columns come from the
// explicit column list, else from the first query block's select list.
func (x *Extractor) Views(scripts []*core.ScriptModel) []*View {
	var out []*View
	x.visit(scripts, func(s *site, stmt core.Stmt) {
		cv, ok := stmt.(*core.CreateViewStmt)
		if !ok {
			return
		}
		db, schema, ok := s.qualify(cv.Name, cv)
		if !ok {
			return
		}
		name := cv.Name.BaseName()
		v := &View{
			ObjectInfo: newInfo(db, s.model.Path, cv, schema, name),
			SchemaName: schema,
			ViewName:   name,
		}
		for _, colName := range viewColumnNames(cv) {
			v.Columns = append(v.Columns, &Column{
				ObjectInfo: newInfo(db, s.model.Path, cv, schema, name, colName),
				SchemaName: schema,
				TableName:  name,
				ColumnName: colName,
				IsNullable: true,
			})
		}
		out = append(out, v)
	})
	return out
}

func viewColumnNames(cv *core.CreateViewStmt) []string {
	if len(cv.Columns) > 0 {
		names := make([]string, len(cv.Columns))
		for i, c := range cv.Columns {
			names[i] = c.Value
		}
		return names
	}
	spec := firstQuerySpec(cv.Query)
	if spec == nil {
		return nil
	}
	var names []string
	for _, item := range spec.Columns {
		switch {
		case !item.Alias.IsZero():
			names = append(names, item.Alias.Value)
		default:
			if ref, ok := item.Expr.(*core.ColumnRef); ok {
				names = append(names, ref.Column())
			} else {
				// star and unnamed expressions have no stable name
				names = append(names, "")
			}
		}
	}
	return names
}

func firstQuerySpec(stmt *core.SelectStmt) *core.QuerySpec {
	if stmt == nil {
		return nil
	}
	q := stmt.Query
	for {
		switch n := q.(type) {
		case *core.QuerySpec:
			return n
		case *core.BinaryQuery:
			q = n.Left
		default:
			return nil
		}
	}
}

// Synonyms extracts CREATE SYNONYM statements.
func (x *Extractor) Synonyms(scripts []*core.ScriptModel) []*Synonym {
	var out []*Synonym
	x.visit(scripts, func(s *site, stmt core.Stmt) {
		cs, ok := stmt.(*core.CreateSynonymStmt)
		if !ok {
			return
		}
		db, schema, ok := s.qualify(cs.Name, cs)
		if !ok {
			return
		}
		name := cs.Name.BaseName()
		targetSchema := cs.Target.SchemaName()
		if targetSchema == "" {
			targetSchema = s.x.DefaultSchema
		}
		out = append(out, &Synonym{
			ObjectInfo:     newInfo(db, s.model.Path, cs, schema, name),
			SchemaName:     schema,
			SynonymName:    name,
			TargetServer:   cs.Target.ServerName(),
			TargetDatabase: cs.Target.DatabaseName(),
			TargetSchema:   targetSchema,
			TargetObject:   cs.Target.BaseName(),
		})
	})
	return out
}
