// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
)

// ProjectScripts are the scripts written by SetupTestProject. Together they
// produce one AJ5001 (dbo.Audit has no primary key), one suppressed AJ5001
// and one AJ5006.
var ProjectScripts = map[string]string{
	"tables/customers.sql": `USE Sales
GO
CREATE TABLE dbo.Customers (
    id int NOT NULL CONSTRAINT PK_Customers PRIMARY KEY,
    name nvarchar(100) NOT NULL
)`,
	"tables/audit.sql": `USE Sales
GO
CREATE TABLE dbo.Audit (happened_at datetime2 NOT NULL)`,
	"tables/legacy.sql": `USE Sales
GO
-- #pragma diagnostic disable AJ5001 -> imported from the old system
CREATE TABLE dbo.Legacy (payload nvarchar(max) NULL)
-- #pragma diagnostic restore AJ5001`,
	"views/customer_names.sql": `USE Sales
GO
CREATE VIEW dbo.CustomerNames AS
SELECT * FROM dbo.Customers`,
}

// SetupTestProject creates a temporary project with test scripts and
// returns its root.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range ProjectScripts {
		path := filepath.Join(tmpDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the combined stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
