package core_test

import (
	"testing"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiagnosticDefinition_InsertionCount(t *testing.T) {
	tests := []struct {
		template string
		want     int
	}{
		{"no placeholders", 0},
		{"table {0} is missing a key", 1},
		{"{0} references {1}", 2},
		{"only {2} is used", 3},
		{"{1} before {0} and {1} again", 2},
	}
	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			def := core.NewDiagnosticDefinition("AJ0001", core.IssueWarning, "t", tt.template)
			assert.Equal(t, tt.want, def.RequiredInsertionCount)
		})
	}
}

func TestDiagnosticDefinition_Equal(t *testing.T) {
	a := core.NewDiagnosticDefinition("AJ0001", core.IssueWarning, "Title A", "msg {0}")
	b := core.NewDiagnosticDefinition("AJ0001", core.IssueWarning, "Title B", "msg {0}")
	c := core.NewDiagnosticDefinition("AJ0001", core.IssueError, "Title A", "msg {0}")

	assert.True(t, a.Equal(b), "title is not part of identity")
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestNewIssue(t *testing.T) {
	def := core.NewDiagnosticDefinition("AJ5001", core.IssueWarning, "Missing key", "Table {0} has no primary key ({1})")
	region := core.CodeRegion{Begin: core.CodeLocation{Line: 2, Column: 1}, End: core.CodeLocation{Line: 4, Column: 2}}
	insertions := []string{"dbo.T", "heap"}

	issue := core.NewIssue(def, "Sales", "/src/t.sql", "dbo.T", region, insertions...)
	assert.Equal(t, "Table dbo.T has no primary key (heap)", issue.Message)
	assert.Equal(t, "AJ5001", issue.DiagnosticID())
	assert.Equal(t, core.IssueWarning, issue.Type())

	insertions[0] = "changed"
	assert.Equal(t, "dbo.T", issue.Insertions[0], "insertions are copied")
}

func TestNewIssue_InsertionMismatchPanics(t *testing.T) {
	def := core.NewDiagnosticDefinition("AJ5001", core.IssueWarning, "t", "{0} and {1}")
	assert.PanicsWithError(t, "core: diagnostic AJ5001 requires 2 insertions, got 1", func() {
		core.NewIssue(def, "db", "a.sql", "", core.UnknownRegion, "only one")
	})
	assert.Panics(t, func() {
		core.NewIssue(nil, "db", "a.sql", "", core.UnknownRegion)
	})
}

func TestIssue_FullObjectNameOrFileName(t *testing.T) {
	def := core.NewDiagnosticDefinition("AJ0001", core.IssueInformation, "t", "m")
	tests := []struct {
		name   string
		db     string
		path   string
		object string
		want   string
	}{
		{"object with database", "Sales", "/x/a.sql", "dbo.T", "Sales.dbo.T"},
		{"object without database", "", "/x/a.sql", "dbo.T", "[Unknown].dbo.T"},
		{"file name", "Sales", "/x/y/a.sql", "", "a.sql"},
		{"nothing", "", "", "", "[Unknown]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := core.NewIssue(def, tt.db, tt.path, tt.object, core.UnknownRegion)
			assert.Equal(t, tt.want, issue.FullObjectNameOrFileName())
		})
	}
}

func TestCodeRegion(t *testing.T) {
	a := core.CodeRegion{Begin: core.CodeLocation{Line: 1, Column: 5}, End: core.CodeLocation{Line: 1, Column: 9}}
	b := core.CodeRegion{Begin: core.CodeLocation{Line: 1, Column: 5}, End: core.CodeLocation{Line: 2, Column: 1}}
	c := core.CodeRegion{Begin: core.CodeLocation{Line: 2, Column: 1}, End: core.CodeLocation{Line: 2, Column: 1}}

	assert.Negative(t, a.Compare(b))
	assert.Negative(t, b.Compare(c))
	assert.Positive(t, c.Compare(a))
	assert.Zero(t, a.Compare(a))

	assert.True(t, core.UnknownRegion.IsUnknown())
	assert.Equal(t, "(1,1)-(1,1)", core.UnknownRegion.String())
	assert.Equal(t, core.UnknownRegion, core.RegionOf(nil))
}

func TestIssueType(t *testing.T) {
	for _, typ := range core.AllIssueTypes {
		parsed, ok := core.ParseIssueType(typ.String())
		require.True(t, ok)
		assert.Equal(t, typ, parsed)
	}
	parsed, ok := core.ParseIssueType("Missing-Index")
	assert.True(t, ok)
	assert.Equal(t, core.IssueMissingIndex, parsed)

	_, ok = core.ParseIssueType("fatal")
	assert.False(t, ok)
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, core.FoldName("ORDERS"), core.FoldName("orders"))
	assert.True(t, core.EqualFold("Straße", "STRASSE"))
	assert.False(t, core.EqualFold("a", "b"))

	tests := []struct {
		in   string
		want string
	}{
		{"dbo.Orders_2", "dbo.orders_2"},
		{"", ""},
		{"STRASSE", "strasse"},
		{"Straße", "strasse"},
		{"\u212Aelvin", "kelvin"},
		{"ÄÖÜ", "äöü"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, core.FoldName(tt.in))
		})
	}
}
