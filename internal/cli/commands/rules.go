package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
	_ "github.com/leapstack-labs/leapcheck/pkg/lint/rules" // register built-in analyzers
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Scope   string // Filter by scope: script, global
	Verbose bool   // Show rationale and examples
	Format  string // Output format
}

// DiagnosticInfo describes one diagnostic definition.
type DiagnosticInfo struct {
	ID       string `json:"id" yaml:"id"`
	Type     string `json:"type" yaml:"type"`
	Title    string `json:"title" yaml:"title"`
	Template string `json:"message_template" yaml:"message_template"`
}

// AnalyzerInfo describes one registered analyzer.
type AnalyzerInfo struct {
	Name        string           `json:"name" yaml:"name"`
	Scope       string           `json:"scope" yaml:"scope"`
	Description string           `json:"description" yaml:"description"`
	Diagnostics []DiagnosticInfo `json:"diagnostics" yaml:"diagnostics"`
	ConfigKeys  []string         `json:"config_keys,omitempty" yaml:"config_keys,omitempty"`
	Rationale   string           `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	BadExample  string           `json:"bad_example,omitempty" yaml:"bad_example,omitempty"`
	GoodExample string           `json:"good_example,omitempty" yaml:"good_example,omitempty"`
}

// RulesReport is the machine-readable output of the rules command.
type RulesReport struct {
	Analyzers []AnalyzerInfo   `json:"analyzers" yaml:"analyzers"`
	Reserved  []DiagnosticInfo `json:"reserved,omitempty" yaml:"reserved,omitempty"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [analyzer-or-diagnostic-id]",
		Short: "List available analyzers and their diagnostics",
		Long: `List all registered analyzers with the diagnostics they report.

Pass an analyzer name or a diagnostic id to see its documentation.
Diagnostics reported by the engine itself (parse errors, duplicate objects,
analyzer failures) are listed as reserved.`,
		Example: `  # List all analyzers
  leapcheck rules

  # Show one analyzer by diagnostic id or by name
  leapcheck rules AJ5001
  leapcheck rules MissingPrimaryKey

  # Only catalog-wide analyzers, with rationale
  leapcheck rules --scope global -V

  # Output as JSON
  leapcheck rules --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Scope, "scope", "", "Filter by scope: script, global")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show rationale and examples")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json, yaml")

	return cmd
}

func diagnosticInfo(d *core.DiagnosticDefinition) DiagnosticInfo {
	return DiagnosticInfo{ID: d.ID, Type: d.Type.String(), Title: d.Title, Template: d.MessageTemplate}
}

func analyzerInfo(a lint.AnalyzerDef) AnalyzerInfo {
	info := AnalyzerInfo{
		Name:        a.Name,
		Scope:       a.Scope.String(),
		Description: a.Description,
		ConfigKeys:  a.ConfigKeys,
		Rationale:   a.Rationale,
		BadExample:  a.BadExample,
		GoodExample: a.GoodExample,
	}
	for _, d := range a.Diagnostics {
		info.Diagnostics = append(info.Diagnostics, diagnosticInfo(d))
	}
	return info
}

// sortedAnalyzers returns the analyzers ordered by their first diagnostic id.
func sortedAnalyzers(registry *lint.Registry, scope string) ([]lint.AnalyzerDef, error) {
	all := registry.All()
	if scope != "" {
		var s lint.Scope
		switch strings.ToLower(scope) {
		case "script":
			s = lint.ScopeScript
		case "global":
			s = lint.ScopeGlobal
		default:
			return nil, fmt.Errorf("invalid scope %q: expected script or global", scope)
		}
		all = registry.ByScope(s)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Diagnostics[0].ID < all[j].Diagnostics[0].ID
	})
	return all, nil
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := rendererFor(cmd, cmdCtx.Renderer, opts.Format)

	analyzers, err := sortedAnalyzers(lint.Default(), opts.Scope)
	if err != nil {
		return err
	}
	reserved := lint.ReservedDiagnostics()

	switch r.EffectiveMode() {
	case output.ModeJSON, output.ModeYAML:
		report := RulesReport{Analyzers: []AnalyzerInfo{}}
		for _, a := range analyzers {
			report.Analyzers = append(report.Analyzers, analyzerInfo(a))
		}
		for _, d := range reserved {
			report.Reserved = append(report.Reserved, diagnosticInfo(d))
		}
		return r.Structured(report)
	case output.ModeMarkdown:
		listRulesMarkdown(r, analyzers, reserved, opts.Verbose)
	default:
		listRulesText(r, analyzers, reserved, opts.Verbose)
	}
	return nil
}

// listRulesText outputs analyzers in styled text format.
func listRulesText(r *output.Renderer, analyzers []lint.AnalyzerDef, reserved []*core.DiagnosticDefinition, verbose bool) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Analyzers (%d)", len(analyzers))))
	r.Println("")

	for _, a := range analyzers {
		r.Printf("  %s  %s\n", styles.Bold.Render(a.Name), styles.Muted.Render("["+a.Scope.String()+"]"))
		for _, d := range a.Diagnostics {
			r.Printf("    %s  %s - %s\n",
				styles.Muted.Render(d.ID),
				d.Title,
				styles.ForIssueType(d.Type).Render(d.Type.String()),
			)
		}
		if verbose {
			r.Println(styles.Muted.Render("      " + a.Description))
			if a.Rationale != "" {
				r.Println(styles.Muted.Render("      Why: " + a.Rationale))
			}
		}
		r.Println("")
	}

	r.Println(styles.Header2.Render("Reserved diagnostics"))
	for _, d := range reserved {
		r.Printf("    %s  %s - %s\n", styles.Muted.Render(d.ID), d.Title, styles.ForIssueType(d.Type).Render(d.Type.String()))
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'leapcheck rules <id>' for detailed documentation"))
	r.Println("")
}

// listRulesMarkdown outputs analyzers in markdown format.
func listRulesMarkdown(r *output.Renderer, analyzers []lint.AnalyzerDef, reserved []*core.DiagnosticDefinition, verbose bool) {
	r.Println("# Analyzers")
	r.Println("")

	var rows [][]string
	for _, a := range analyzers {
		for _, d := range a.Diagnostics {
			rows = append(rows, []string{d.ID, a.Name, a.Scope.String(), d.Type.String(), d.Title})
		}
	}
	r.Table([]string{"ID", "Analyzer", "Scope", "Type", "Title"}, rows)

	if verbose {
		for _, a := range analyzers {
			r.Println("## " + a.Name)
			r.Println("")
			r.Println(a.Description)
			r.Println("")
			if a.Rationale != "" {
				r.Println(output.FormatKeyValue("Rationale", a.Rationale))
				r.Println("")
			}
		}
	}

	r.Println("## Reserved diagnostics")
	r.Println("")
	for _, d := range reserved {
		r.Printf("- **%s** %s (%s)\n", d.ID, d.Title, d.Type)
	}
	r.Println("")
}

func showRule(cmd *cobra.Command, id string, opts *RulesOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := rendererFor(cmd, cmdCtx.Renderer, opts.Format)
	registry := lint.Default()

	a, ok := registry.Get(id)
	if !ok {
		a, ok = registry.ByDiagnosticID(id)
	}
	if !ok {
		if d, found := reservedDiagnostic(id); found {
			return showReserved(r, d)
		}
		return fmt.Errorf("analyzer or diagnostic %q not found", id)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON, output.ModeYAML:
		return r.Structured(analyzerInfo(a))
	case output.ModeMarkdown:
		showRuleMarkdown(r, a)
	default:
		showRuleText(r, a)
	}
	return nil
}

func reservedDiagnostic(id string) (*core.DiagnosticDefinition, bool) {
	for _, d := range lint.ReservedDiagnostics() {
		if core.EqualFold(d.ID, id) {
			return d, true
		}
	}
	return nil, false
}

func showReserved(r *output.Renderer, d *core.DiagnosticDefinition) error {
	if r.EffectiveMode().IsStructured() {
		return r.Structured(diagnosticInfo(d))
	}
	r.Header(1, d.ID+" "+d.Title)
	r.Println(output.FormatKeyValue("Type", d.Type.String()))
	r.Println(output.FormatKeyValue("Message", d.MessageTemplate))
	r.Println("Reported by the engine itself; it can be disabled but has no analyzer.")
	return nil
}

func showRuleText(r *output.Renderer, a lint.AnalyzerDef) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(a.Name))
	r.Println(styles.Muted.Render("Scope: " + a.Scope.String()))
	r.Println("")
	r.Println(a.Description)
	r.Println("")

	r.Println(styles.Header2.Render("Diagnostics"))
	for _, d := range a.Diagnostics {
		r.Printf("  %s  %s - %s\n", styles.Bold.Render(d.ID), d.Title, styles.ForIssueType(d.Type).Render(d.Type.String()))
		r.Println(styles.Muted.Render("      " + d.MessageTemplate))
	}
	r.Println("")

	if a.Rationale != "" {
		r.Println(styles.Header2.Render("Rationale"))
		r.Println(a.Rationale)
		r.Println("")
	}
	if len(a.ConfigKeys) > 0 {
		r.Println(styles.Header2.Render("Options"))
		for _, k := range a.ConfigKeys {
			r.Printf("  analyzers.%s.options.%s\n", a.Name, k)
		}
		r.Println("")
	}
	if a.BadExample != "" {
		r.Println(styles.Error.Render("Bad:"))
		r.Println(styles.Code.Render(indent(a.BadExample, "  ")))
		r.Println("")
	}
	if a.GoodExample != "" {
		r.Println(styles.Success.Render("Good:"))
		r.Println(styles.Code.Render(indent(a.GoodExample, "  ")))
		r.Println("")
	}
}

func showRuleMarkdown(r *output.Renderer, a lint.AnalyzerDef) {
	r.Println(output.FormatHeader(1, a.Name))
	r.Println("")
	r.Println(output.FormatKeyValue("Scope", a.Scope.String()))
	r.Println("")
	r.Println(a.Description)
	r.Println("")

	r.Println(output.FormatHeader(2, "Diagnostics"))
	r.Println("")
	for _, d := range a.Diagnostics {
		r.Printf("- **%s** %s (%s): `%s`\n", d.ID, d.Title, d.Type, d.MessageTemplate)
	}
	r.Println("")

	if a.Rationale != "" {
		r.Println(output.FormatHeader(2, "Rationale"))
		r.Println("")
		r.Println(a.Rationale)
		r.Println("")
	}
	if len(a.ConfigKeys) > 0 {
		r.Println(output.FormatHeader(2, "Options"))
		r.Println("")
		for _, k := range a.ConfigKeys {
			r.Printf("- `analyzers.%s.options.%s`\n", a.Name, k)
		}
		r.Println("")
	}
	if a.BadExample != "" {
		r.Println(output.FormatHeader(2, "Bad"))
		r.Println("")
		r.Println(output.FormatCode("sql", a.BadExample))
		r.Println("")
	}
	if a.GoodExample != "" {
		r.Println(output.FormatHeader(2, "Good"))
		r.Println("")
		r.Println(output.FormatCode("sql", a.GoodExample))
		r.Println("")
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
