package core

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// Issue type
// =============================================================================

// IssueType classifies a diagnostic.
type IssueType int

// Issue types.
const (
	IssueInformation IssueType = iota
	IssueWarning
	IssueError
	IssueFormatting
	IssueMissingIndex
)

// AllIssueTypes lists the issue types in display order.
var AllIssueTypes = []IssueType{IssueError, IssueWarning, IssueMissingIndex, IssueFormatting, IssueInformation}

// String returns the string representation of the issue type.
func (t IssueType) String() string {
	switch t {
	case IssueInformation:
		return "information"
	case IssueWarning:
		return "warning"
	case IssueError:
		return "error"
	case IssueFormatting:
		return "formatting"
	case IssueMissingIndex:
		return "missing-index"
	default:
		return "unknown"
	}
}

// ParseIssueType converts a string to an IssueType.
func ParseIssueType(s string) (IssueType, bool) {
	for _, t := range AllIssueTypes {
		if strings.EqualFold(t.String(), s) {
			return t, true
		}
	}
	return IssueWarning, false
}

// MarshalText implements encoding.TextMarshaler.
func (t IssueType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// =============================================================================
// Locations
// =============================================================================

// CodeLocation is a 1-based line/column pair.
type CodeLocation struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// Compare orders locations by line, then column.
func (l CodeLocation) Compare(o CodeLocation) int {
	switch {
	case l.Line != o.Line:
		if l.Line < o.Line {
			return -1
		}
		return 1
	case l.Column < o.Column:
		return -1
	case l.Column > o.Column:
		return 1
	}
	return 0
}

func (l CodeLocation) String() string {
	return fmt.Sprintf("(%d,%d)", l.Line, l.Column)
}

// CodeRegion is a begin/end pair of locations.
type CodeRegion struct {
	Begin CodeLocation `json:"begin" yaml:"begin"`
	End   CodeLocation `json:"end" yaml:"end"`
}

// UnknownRegion is used when a diagnostic cannot be pinned to real source.
var UnknownRegion = CodeRegion{Begin: CodeLocation{1, 1}, End: CodeLocation{1, 1}}

// RegionOf returns the region covered by a node.
func RegionOf(n Node) CodeRegion {
	if n == nil {
		return UnknownRegion
	}
	span := n.GetSpan()
	if !span.IsValid() {
		return UnknownRegion
	}
	return CodeRegion{
		Begin: CodeLocation{Line: span.Start.Line, Column: span.Start.Column},
		End:   CodeLocation{Line: span.End.Line, Column: span.End.Column},
	}
}

// Compare orders regions by begin, then end.
func (r CodeRegion) Compare(o CodeRegion) int {
	if c := r.Begin.Compare(o.Begin); c != 0 {
		return c
	}
	return r.End.Compare(o.End)
}

// IsUnknown reports whether r is the UnknownRegion sentinel.
func (r CodeRegion) IsUnknown() bool {
	return r == UnknownRegion
}

func (r CodeRegion) String() string {
	return r.Begin.String() + "-" + r.End.String()
}

// =============================================================================
// Diagnostic definitions
// =============================================================================

var placeholderRe = regexp.MustCompile(`\{(\d+)\}`)

// DiagnosticDefinition describes one diagnostic an analyzer can emit.
type DiagnosticDefinition struct {
	ID                     string
	Type                   IssueType
	Title                  string
	MessageTemplate        string
	RequiredInsertionCount int
}

// NewDiagnosticDefinition creates a definition. The required insertion count is
// one more than the highest {N} placeholder in the template.
func NewDiagnosticDefinition(id string, typ IssueType, title, template string) *DiagnosticDefinition {
	required := 0
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		n, err := strconv.Atoi(m[1])
		if err == nil && n+1 > required {
			required = n + 1
		}
	}
	return &DiagnosticDefinition{
		ID:                     id,
		Type:                   typ,
		Title:                  title,
		MessageTemplate:        template,
		RequiredInsertionCount: required,
	}
}

// Equal compares by id, template and type.
func (d *DiagnosticDefinition) Equal(o *DiagnosticDefinition) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.ID == o.ID && d.MessageTemplate == o.MessageTemplate && d.Type == o.Type
}

// Render substitutes insertions into the template.
func (d *DiagnosticDefinition) Render(insertions []string) string {
	return placeholderRe.ReplaceAllStringFunc(d.MessageTemplate, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || n >= len(insertions) {
			return m
		}
		return insertions[n]
	})
}

// =============================================================================
// Issues
// =============================================================================

// UnknownDatabaseName stands in for a database that could not be determined.
const UnknownDatabaseName = "[Unknown]"

// Issue is one reported diagnostic occurrence. Issues are immutable.
type Issue struct {
	Definition   *DiagnosticDefinition
	DatabaseName string
	ScriptPath   string
	ObjectName   string // empty when the issue is not tied to an object
	Region       CodeRegion
	Insertions   []string
	Message      string
}

// InsertionCountError is the panic value of NewIssue when the insertions do
// not fit the definition.
type InsertionCountError struct {
	ID   string
	Want int
	Got  int
}

func (e *InsertionCountError) Error() string {
	return fmt.Sprintf("core: diagnostic %s requires %d insertions, got %d", e.ID, e.Want, e.Got)
}

// NewIssue validates the insertion count and renders the message.
// A mismatch is a programming error and panics.
func NewIssue(def *DiagnosticDefinition, databaseName, scriptPath, objectName string, region CodeRegion, insertions ...string) *Issue {
	if def == nil {
		panic("core: NewIssue called with nil definition")
	}
	if len(insertions) != def.RequiredInsertionCount {
		panic(&InsertionCountError{ID: def.ID, Want: def.RequiredInsertionCount, Got: len(insertions)})
	}
	ins := make([]string, len(insertions))
	copy(ins, insertions)
	return &Issue{
		Definition:   def,
		DatabaseName: databaseName,
		ScriptPath:   scriptPath,
		ObjectName:   objectName,
		Region:       region,
		Insertions:   ins,
		Message:      def.Render(ins),
	}
}

// DiagnosticID returns the id of the issue's definition.
func (i *Issue) DiagnosticID() string { return i.Definition.ID }

// Type returns the issue type of the issue's definition.
func (i *Issue) Type() IssueType { return i.Definition.Type }

// FullObjectNameOrFileName is the grouping key of an issue: database.object when
// an object is known, else the script's base name, else the unknown marker.
func (i *Issue) FullObjectNameOrFileName() string {
	if i.ObjectName != "" {
		db := i.DatabaseName
		if db == "" {
			db = UnknownDatabaseName
		}
		return db + "." + i.ObjectName
	}
	if i.ScriptPath != "" {
		return filepath.Base(i.ScriptPath)
	}
	return UnknownDatabaseName
}

// IssueReporter is the sink analyzers and the catalog builder report through.
type IssueReporter interface {
	Report(def *DiagnosticDefinition, databaseName, scriptPath, objectName string, region CodeRegion, insertions ...string)
}
