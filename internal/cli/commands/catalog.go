package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/leapstack-labs/leapcheck/pkg/catalog"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

// CatalogOptions holds options for the catalog command.
type CatalogOptions struct {
	Kind   string // Filter by object kind
	Format string // Output format
}

// ColumnInfo describes a table column.
type ColumnInfo struct {
	Name     string `json:"name" yaml:"name"`
	DataType string `json:"data_type" yaml:"data_type"`
	Nullable bool   `json:"nullable" yaml:"nullable"`
}

// IndexInfo describes an index or key.
type IndexInfo struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Type    string   `json:"type" yaml:"type"`
	Columns []string `json:"columns" yaml:"columns"`
}

// ForeignKeyInfo describes a foreign key.
type ForeignKeyInfo struct {
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Columns    []string `json:"columns" yaml:"columns"`
	References string   `json:"references" yaml:"references"`
}

// ObjectInfo is the machine-readable form of a catalog object.
type ObjectInfo struct {
	Kind        string           `json:"kind" yaml:"kind"`
	Name        string           `json:"name" yaml:"name"`
	ScriptPath  string           `json:"script_path" yaml:"script_path"`
	Line        int              `json:"line" yaml:"line"`
	Columns     []ColumnInfo     `json:"columns,omitempty" yaml:"columns,omitempty"`
	Indexes     []IndexInfo      `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	ForeignKeys []ForeignKeyInfo `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
	Parameters  []string         `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand() *cobra.Command {
	opts := &CatalogOptions{}
	cmd := &cobra.Command{
		Use:   "catalog [paths...]",
		Short: "Show the objects the scripts create",
		Long: `Build the catalog of schemas, tables, views, procedures, functions and
synonyms created across all scripts, and print it.

Objects defined more than once are excluded from the catalog; the number of
such conflicts is reported after the listing.`,
		Example: `  # Show the catalog of the configured scripts directory
  leapcheck catalog

  # Only tables, as YAML
  leapcheck catalog --kind table --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Filter by kind: schema, table, view, procedure, function, synonym")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json, yaml")

	return cmd
}

func runCatalog(cmd *cobra.Command, paths []string, opts *CatalogOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := rendererFor(cmd, cmdCtx.Renderer, opts.Format)
	cfg := cmdCtx.Cfg

	if len(paths) == 0 {
		if err := cfg.ValidateDirectories(); err != nil {
			return err
		}
	}

	loaded, err := loadScripts(cmd.Context(), cfg, &AnalyzeOptions{Paths: paths}, cmdCtx.Logger)
	if err != nil {
		return err
	}

	reporter := lint.NewReporter()
	cat := catalog.Build(loaded.Scripts, catalog.Options{
		DefaultSchema: cfg.DefaultSchema,
		Reporter:      reporter,
		Logger:        cmdCtx.Logger,
	})

	var objects []catalog.SchemaBoundObject
	for _, obj := range cat.Objects() {
		if opts.Kind == "" || strings.EqualFold(obj.Kind().String(), opts.Kind) {
			objects = append(objects, obj)
		}
	}

	if r.EffectiveMode().IsStructured() {
		infos := make([]ObjectInfo, 0, len(objects))
		for _, obj := range objects {
			infos = append(infos, objectInfo(obj))
		}
		return r.Structured(infos)
	}

	r.Header(1, fmt.Sprintf("Catalog (%d objects)", len(objects)))
	if r.EffectiveMode() == output.ModeText {
		r.Println()
	}
	rows := make([][]string, 0, len(objects))
	for _, obj := range objects {
		info := obj.Info()
		rows = append(rows, []string{
			obj.Kind().String(),
			info.FullName(),
			info.ScriptPath + ":" + strconv.Itoa(info.Region().Begin.Line),
			objectDetails(obj),
		})
	}
	r.Table([]string{"Kind", "Name", "Defined at", "Details"}, rows)

	if n := reporter.Len(); n > 0 {
		r.Warning(fmt.Sprintf("%d catalog conflict(s); run 'leapcheck analyze' for details", n))
	}
	return nil
}

func objectDetails(obj catalog.SchemaBoundObject) string {
	switch o := obj.(type) {
	case *catalog.Table:
		return fmt.Sprintf("%d columns, %d indexes, %d foreign keys", len(o.Columns), len(o.Indexes), len(o.ForeignKeys))
	case *catalog.Procedure:
		return fmt.Sprintf("%d parameters", len(o.Parameters))
	case *catalog.Function:
		return fmt.Sprintf("%d parameters", len(o.Parameters))
	case *catalog.View:
		return fmt.Sprintf("%d columns", len(o.Columns))
	case *catalog.Synonym:
		return "for " + synonymTarget(o)
	default:
		return ""
	}
}

func objectInfo(obj catalog.SchemaBoundObject) ObjectInfo {
	info := obj.Info()
	out := ObjectInfo{
		Kind:       obj.Kind().String(),
		Name:       info.FullName(),
		ScriptPath: info.ScriptPath,
		Line:       info.Region().Begin.Line,
	}
	switch o := obj.(type) {
	case *catalog.Table:
		for _, c := range o.Columns {
			out.Columns = append(out.Columns, ColumnInfo{Name: c.ColumnName, DataType: c.DataType, Nullable: c.IsNullable})
		}
		for _, idx := range o.Indexes {
			out.Indexes = append(out.Indexes, IndexInfo{Name: idx.IndexName, Type: idx.Type.String(), Columns: idx.ColumnNames})
		}
		for _, fk := range o.ForeignKeys {
			out.ForeignKeys = append(out.ForeignKeys, ForeignKeyInfo{
				Name:       fk.ConstraintName,
				Columns:    fk.ColumnNames,
				References: fk.ReferencedSchema + "." + fk.ReferencedTable,
			})
		}
	case *catalog.View:
		for _, c := range o.Columns {
			out.Columns = append(out.Columns, ColumnInfo{Name: c.ColumnName, DataType: c.DataType, Nullable: c.IsNullable})
		}
	case *catalog.Procedure:
		out.Parameters = parameterNames(o.Parameters)
	case *catalog.Function:
		out.Parameters = parameterNames(o.Parameters)
	}
	return out
}

func synonymTarget(s *catalog.Synonym) string {
	var parts []string
	for _, p := range []string{s.TargetServer, s.TargetDatabase, s.TargetSchema, s.TargetObject} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

func parameterNames(params []*catalog.Parameter) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name + " " + p.DataType
	}
	return names
}
