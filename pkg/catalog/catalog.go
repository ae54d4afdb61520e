package catalog

import (
	"sort"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// DefaultSchemaName is used for unqualified names when no schema is configured.
const DefaultSchemaName = "dbo"

// Catalog is the merged, duplicate-free set of objects of one analysis run.
// It is read-only once Build returns and safe for concurrent use.
type Catalog struct {
	DefaultSchema string
	Databases     map[string]*DatabaseInformation
}

// DatabaseInformation holds the schemas of one database.
type DatabaseInformation struct {
	DatabaseName string
	Schemas      map[string]*SchemaInformation
}

// SchemaInformation holds the objects of one schema, keyed by folded bare name.
type SchemaInformation struct {
	SchemaName string
	// Schema is nil when the schema was never declared with CREATE SCHEMA.
	Schema           *Schema
	TablesByName     map[string]*Table
	ViewsByName      map[string]*View
	ProceduresByName map[string]*Procedure
	FunctionsByName  map[string]*Function
	SynonymsByName   map[string]*Synonym
}

func newCatalog(defaultSchema string) *Catalog {
	return &Catalog{DefaultSchema: defaultSchema, Databases: make(map[string]*DatabaseInformation)}
}

func newSchemaInformation(name string) *SchemaInformation {
	return &SchemaInformation{
		SchemaName:       name,
		TablesByName:     make(map[string]*Table),
		ViewsByName:      make(map[string]*View),
		ProceduresByName: make(map[string]*Procedure),
		FunctionsByName:  make(map[string]*Function),
		SynonymsByName:   make(map[string]*Synonym),
	}
}

// schemaFor returns the schema record, creating the database and schema on demand.
func (c *Catalog) schemaFor(db, schema string) *SchemaInformation {
	dk := core.FoldName(db)
	d, ok := c.Databases[dk]
	if !ok {
		d = &DatabaseInformation{DatabaseName: db, Schemas: make(map[string]*SchemaInformation)}
		c.Databases[dk] = d
	}
	sk := core.FoldName(schema)
	s, ok := d.Schemas[sk]
	if !ok {
		s = newSchemaInformation(schema)
		d.Schemas[sk] = s
	}
	return s
}

// Database returns the database with the given name.
func (c *Catalog) Database(name string) (*DatabaseInformation, bool) {
	d, ok := c.Databases[core.FoldName(name)]
	return d, ok
}

// Schema returns the schema with the given name, defaulting an empty name.
func (c *Catalog) Schema(db, schema string) (*SchemaInformation, bool) {
	d, ok := c.Database(db)
	if !ok {
		return nil, false
	}
	if schema == "" {
		schema = c.DefaultSchema
	}
	s, ok := d.Schemas[core.FoldName(schema)]
	return s, ok
}

// Table looks up a table.
func (c *Catalog) Table(db, schema, name string) (*Table, bool) {
	s, ok := c.Schema(db, schema)
	if !ok {
		return nil, false
	}
	t, ok := s.TablesByName[core.FoldName(name)]
	return t, ok
}

// View looks up a view.
func (c *Catalog) View(db, schema, name string) (*View, bool) {
	s, ok := c.Schema(db, schema)
	if !ok {
		return nil, false
	}
	v, ok := s.ViewsByName[core.FoldName(name)]
	return v, ok
}

// Procedure looks up a stored procedure.
func (c *Catalog) Procedure(db, schema, name string) (*Procedure, bool) {
	s, ok := c.Schema(db, schema)
	if !ok {
		return nil, false
	}
	p, ok := s.ProceduresByName[core.FoldName(name)]
	return p, ok
}

// Function looks up a function.
func (c *Catalog) Function(db, schema, name string) (*Function, bool) {
	s, ok := c.Schema(db, schema)
	if !ok {
		return nil, false
	}
	f, ok := s.FunctionsByName[core.FoldName(name)]
	return f, ok
}

// Synonym looks up a synonym.
func (c *Catalog) Synonym(db, schema, name string) (*Synonym, bool) {
	s, ok := c.Schema(db, schema)
	if !ok {
		return nil, false
	}
	syn, ok := s.SynonymsByName[core.FoldName(name)]
	return syn, ok
}

// HasRowSource reports whether a table, view, synonym or function with the
// given name exists, i.e. whether it can appear in a FROM clause.
func (c *Catalog) HasRowSource(db, schema, name string) bool {
	s, ok := c.Schema(db, schema)
	if !ok {
		return false
	}
	k := core.FoldName(name)
	if _, ok := s.TablesByName[k]; ok {
		return true
	}
	if _, ok := s.ViewsByName[k]; ok {
		return true
	}
	if _, ok := s.SynonymsByName[k]; ok {
		return true
	}
	_, ok = s.FunctionsByName[k]
	return ok
}

// Tables returns every table, ordered by database, schema and name.
func (c *Catalog) Tables() []*Table {
	var out []*Table
	for _, s := range c.allSchemas() {
		for _, t := range s.TablesByName {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return lessParts(out[i].FullNameParts, out[j].FullNameParts) })
	return out
}

// Objects returns every object in the catalog, in name order. Columns,
// indexes and foreign keys are reachable through their tables.
func (c *Catalog) Objects() []SchemaBoundObject {
	var out []SchemaBoundObject
	for _, s := range c.allSchemas() {
		if s.Schema != nil {
			out = append(out, s.Schema)
		}
		for _, t := range s.TablesByName {
			out = append(out, t)
		}
		for _, v := range s.ViewsByName {
			out = append(out, v)
		}
		for _, p := range s.ProceduresByName {
			out = append(out, p)
		}
		for _, f := range s.FunctionsByName {
			out = append(out, f)
		}
		for _, syn := range s.SynonymsByName {
			out = append(out, syn)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Info().FullNameParts, out[j].Info().FullNameParts
		if lessParts(a, b) {
			return true
		}
		if lessParts(b, a) {
			return false
		}
		return out[i].Kind() < out[j].Kind()
	})
	return out
}

func (c *Catalog) allSchemas() []*SchemaInformation {
	var out []*SchemaInformation
	for _, d := range c.Databases {
		for _, s := range d.Schemas {
			out = append(out, s)
		}
	}
	return out
}

func lessParts(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		fa, fb := core.FoldName(a[i]), core.FoldName(b[i])
		if fa != fb {
			return fa < fb
		}
	}
	return len(a) < len(b)
}
