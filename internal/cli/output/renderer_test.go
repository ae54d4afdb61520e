package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
)

func newRenderer(mode output.OutputMode, isTTY bool) (*output.Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return output.NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

// ---------- Modes ----------

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want output.OutputMode
	}{
		{"", output.ModeAuto},
		{"auto", output.ModeAuto},
		{"TEXT", output.ModeText},
		{" markdown ", output.ModeMarkdown},
		{"json", output.ModeJSON},
		{"yaml", output.ModeYAML},
		{"xml", output.ModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, output.Mode(tt.in))
		})
	}
	assert.True(t, output.ModeYAML.IsStructured())
	assert.False(t, output.ModeText.IsStructured())
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  output.OutputMode
		isTTY bool
		want  output.OutputMode
	}{
		{"auto on terminal", output.ModeAuto, true, output.ModeText},
		{"auto piped", output.ModeAuto, false, output.ModeMarkdown},
		{"explicit text piped", output.ModeText, false, output.ModeText},
		{"explicit json on terminal", output.ModeJSON, true, output.ModeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
			assert.Equal(t, tt.isTTY, r.IsTTY())
		})
	}
}

func TestNewRenderer_BufferIsNotTerminal(t *testing.T) {
	r := output.NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, output.ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, output.ModeMarkdown, r.EffectiveMode())
}

// ---------- Messages ----------

func TestRenderer_MarkdownHasNoANSI(t *testing.T) {
	r, out, errOut := newRenderer(output.ModeMarkdown, false)
	r.Header(1, "Results")
	r.Success("done")
	r.Warning("careful")
	r.Muted("quiet")
	r.Error("failed")

	assert.Contains(t, out.String(), "# Results")
	assert.Contains(t, out.String(), "done")
	assert.NotContains(t, out.String(), "\x1b[")
	assert.Equal(t, "Error: failed\n", errOut.String())
}

func TestRenderer_TextMessages(t *testing.T) {
	r, out, errOut := newRenderer(output.ModeText, false)
	r.Success("done")
	r.Error("failed")

	assert.Contains(t, out.String(), "✓ done")
	assert.Contains(t, errOut.String(), "✗ failed")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Stats", output.FormatHeader(2, "Stats"))
	assert.Equal(t, "# X", output.FormatHeader(0, "X"))
	assert.Equal(t, "- **Scripts:** 3", output.FormatKeyValue("Scripts", "3"))
	assert.Equal(t, "```sql\nSELECT 1\n```", output.FormatCode("sql", "SELECT 1\n"))
}

// ---------- Structured ----------

func TestRenderer_Structured(t *testing.T) {
	v := map[string]any{"name": "dbo.T", "count": 2}

	r, out, _ := newRenderer(output.ModeJSON, false)
	require.NoError(t, r.Structured(v))
	assert.JSONEq(t, `{"name":"dbo.T","count":2}`, out.String())

	r, out, _ = newRenderer(output.ModeYAML, false)
	require.NoError(t, r.Structured(v))
	assert.YAMLEq(t, "name: dbo.T\ncount: 2\n", out.String())
}

func TestRenderer_Table(t *testing.T) {
	r, out, _ := newRenderer(output.ModeMarkdown, false)
	r.Table([]string{"Kind", "Name"}, [][]string{{"table", "Db.dbo.T"}})
	assert.Contains(t, out.String(), "| table | Db.dbo.T |")

	r, out, _ = newRenderer(output.ModeText, true)
	r.Table([]string{"Kind", "Name"}, [][]string{{"view", "Db.dbo.V"}})
	assert.Contains(t, out.String(), "Db.dbo.V")
	assert.True(t, strings.Contains(out.String(), "│"))
}
