package catalog

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Diagnostics reported while building the catalog.
var (
	DuplicateObjectDefinition = core.NewDiagnosticDefinition(
		"AJ9001", core.IssueError,
		"Duplicate object creation statement",
		"The object {0} is created more than once. Script paths: {1}")

	DatabaseNameUndeterminable = core.NewDiagnosticDefinition(
		"AJ9003", core.IssueError,
		"Database name cannot be determined",
		"Cannot determine the database of {0}. Add a USE statement or configure a default database.")
)

// Options configures Build.
type Options struct {
	DefaultSchema string
	// Reporter receives duplicate and extraction diagnostics. May be nil.
	Reporter core.IssueReporter
	Logger   *slog.Logger
}

// Build extracts every object from scripts and merges them into one catalog.
//
// Indexes, foreign keys and columns declared outside CREATE TABLE are appended
// to their table. Schemas, tables, procedures and functions whose full name
// occurs more than once are reported and dropped, all of them. The same holds
// for named indexes within a table; unnamed indexes always survive. Views and
// synonyms are not checked: the first declaration wins.
func Build(scripts []*core.ScriptModel, opts Options) *Catalog {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	x := NewExtractor(opts.DefaultSchema)
	b := &builder{opts: opts, logger: logger, catalog: newCatalog(x.DefaultSchema)}

	tables := x.Tables(scripts)
	b.mergeTableParts(tables, x.Columns(scripts), x.Indexes(scripts), x.ForeignKeys(scripts))

	var objects []SchemaBoundObject
	for _, s := range x.Schemas(scripts) {
		objects = append(objects, s)
	}
	for _, t := range tables {
		objects = append(objects, t)
	}
	for _, p := range x.Procedures(scripts) {
		objects = append(objects, p)
	}
	for _, f := range x.Functions(scripts) {
		objects = append(objects, f)
	}

	for _, obj := range b.dropDuplicates(objects) {
		b.add(obj)
	}
	for _, v := range x.Views(scripts) {
		b.add(v)
	}
	for _, s := range x.Synonyms(scripts) {
		b.add(s)
	}

	for _, err := range x.Errors() {
		logger.Warn("skipping object", "script", err.ScriptPath, "object", err.ObjectName, "error", err)
		b.report(DatabaseNameUndeterminable, "", err.ScriptPath, "", err.Region, err.ObjectName)
	}

	logger.Debug("catalog built", "scripts", len(scripts), "databases", len(b.catalog.Databases))
	return b.catalog
}

type builder struct {
	opts    Options
	logger  *slog.Logger
	catalog *Catalog
}

func (b *builder) report(def *core.DiagnosticDefinition, db, path, object string, region core.CodeRegion, insertions ...string) {
	if b.opts.Reporter == nil {
		return
	}
	b.opts.Reporter.Report(def, db, path, object, region, insertions...)
}

func tableKey(db, schema, table string) string {
	return core.JoinNameParts([]string{core.FoldName(db), core.FoldName(schema), core.FoldName(table)})
}

// mergeTableParts appends separately declared parts to every table with the
// same database, schema and name. Parts without a table are dropped.
func (b *builder) mergeTableParts(tables []*Table, columns []*Column, indexes []*Index, fks []*ForeignKey) {
	byKey := make(map[string][]*Table, len(tables))
	for _, t := range tables {
		k := tableKey(t.DatabaseName, t.SchemaName, t.TableName)
		byKey[k] = append(byKey[k], t)
	}
	for _, c := range columns {
		owners := byKey[tableKey(c.DatabaseName, c.SchemaName, c.TableName)]
		for _, t := range owners {
			t.Columns = append(t.Columns, c)
		}
		b.orphan(len(owners), c)
	}
	for _, idx := range indexes {
		owners := byKey[tableKey(idx.DatabaseName, idx.SchemaName, idx.TableName)]
		for _, t := range owners {
			t.Indexes = append(t.Indexes, idx)
		}
		b.orphan(len(owners), idx)
	}
	for _, fk := range fks {
		owners := byKey[tableKey(fk.DatabaseName, fk.SchemaName, fk.TableName)]
		for _, t := range owners {
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
		b.orphan(len(owners), fk)
	}
}

func (b *builder) orphan(owners int, obj SchemaBoundObject) {
	if owners == 0 {
		b.logger.Debug("no table for "+obj.Kind().String(), "object", obj.Info().FullName(), "script", obj.Info().ScriptPath)
	}
}

// dropDuplicates groups objects by folded full name and returns only the
// objects whose group has a single member. Every larger group is reported.
func (b *builder) dropDuplicates(objects []SchemaBoundObject) []SchemaBoundObject {
	groups := make(map[string][]SchemaBoundObject, len(objects))
	var order []string
	for _, obj := range objects {
		k := foldedKey(obj.Info().FullNameParts)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], obj)
	}

	out := make([]SchemaBoundObject, 0, len(objects))
	for _, k := range order {
		group := groups[k]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		b.reportDuplicate(group)
	}
	return out
}

func (b *builder) reportDuplicate(group []SchemaBoundObject) {
	first := group[0].Info()
	paths := make([]string, 0, len(group))
	for _, obj := range group {
		paths = append(paths, obj.Info().ScriptPath)
	}
	b.logger.Warn("duplicate object definition", "object", first.FullName(), "count", len(group))
	b.report(DuplicateObjectDefinition, first.DatabaseName, first.ScriptPath, first.ObjectName,
		first.Region(), first.FullName(), strings.Join(paths, ", "))
}

func foldedKey(parts []string) string {
	folded := make([]string, len(parts))
	for i, p := range parts {
		folded[i] = core.FoldName(p)
	}
	return core.JoinNameParts(folded)
}

// add places obj in its schema record. Tables have their named indexes
// checked for duplicates first.
func (b *builder) add(obj SchemaBoundObject) {
	switch o := obj.(type) {
	case *Schema:
		s := b.catalog.schemaFor(o.DatabaseName, o.SchemaName)
		s.Schema = o
	case *Table:
		o.Indexes = b.dropDuplicateIndexes(o.Indexes)
		s := b.catalog.schemaFor(o.DatabaseName, o.SchemaName)
		s.TablesByName[core.FoldName(o.TableName)] = o
	case *Procedure:
		s := b.catalog.schemaFor(o.DatabaseName, o.SchemaName)
		s.ProceduresByName[core.FoldName(o.ProcedureName)] = o
	case *Function:
		s := b.catalog.schemaFor(o.DatabaseName, o.SchemaName)
		s.FunctionsByName[core.FoldName(o.FunctionName)] = o
	case *View:
		s := b.catalog.schemaFor(o.DatabaseName, o.SchemaName)
		k := core.FoldName(o.ViewName)
		if _, exists := s.ViewsByName[k]; !exists {
			s.ViewsByName[k] = o
		}
	case *Synonym:
		s := b.catalog.schemaFor(o.DatabaseName, o.SchemaName)
		k := core.FoldName(o.SynonymName)
		if _, exists := s.SynonymsByName[k]; !exists {
			s.SynonymsByName[k] = o
		}
	default:
		panic("catalog: unhandled object kind " + obj.Kind().String())
	}
}

func (b *builder) dropDuplicateIndexes(indexes []*Index) []*Index {
	var named []SchemaBoundObject
	for _, idx := range indexes {
		if idx.IndexName != "" {
			named = append(named, idx)
		}
	}
	if len(named) < 2 {
		return indexes
	}
	keep := make(map[*Index]bool, len(named))
	for _, obj := range b.dropDuplicates(named) {
		keep[obj.(*Index)] = true
	}
	out := indexes[:0:0]
	for _, idx := range indexes {
		if idx.IndexName == "" || keep[idx] {
			out = append(out, idx)
		}
	}
	return out
}
