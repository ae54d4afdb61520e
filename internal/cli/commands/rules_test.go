package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesCommand_List(t *testing.T) {
	setupProject(t)

	out, err := execute(t, NewRulesCommand(), "--format", "json")
	require.NoError(t, err)

	var report RulesReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	require.Len(t, report.Analyzers, 8)
	assert.Len(t, report.Reserved, 5)

	assert.Equal(t, "MissingPrimaryKey", report.Analyzers[0].Name, "ordered by diagnostic id")
	assert.Equal(t, "AJ5001", report.Analyzers[0].Diagnostics[0].ID)
	assert.Equal(t, "DuplicateIndexColumns", report.Analyzers[len(report.Analyzers)-1].Name)
}

func TestRulesCommand_Scope(t *testing.T) {
	setupProject(t)

	tests := []struct {
		scope string
		want  int
	}{
		{scope: "global", want: 3},
		{scope: "script", want: 5},
		{scope: "Script", want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.scope, func(t *testing.T) {
			out, err := execute(t, NewRulesCommand(), "--format", "json", "--scope", tt.scope)
			require.NoError(t, err)

			var report RulesReport
			require.NoError(t, json.Unmarshal([]byte(out), &report))
			assert.Len(t, report.Analyzers, tt.want)
		})
	}

	_, err := execute(t, NewRulesCommand(), "--scope", "project")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid scope "project"`)
}

func TestRulesCommand_Show(t *testing.T) {
	setupProject(t)

	tests := []struct {
		name string
		arg  string
		want string
	}{
		{name: "by diagnostic id", arg: "AJ5001", want: "MissingPrimaryKey"},
		{name: "by lowercase id", arg: "aj5006", want: "SelectStar"},
		{name: "by analyzer name", arg: "selectstar", want: "SelectStar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewRulesCommand(), "--format", "json", tt.arg)
			require.NoError(t, err)

			var info AnalyzerInfo
			require.NoError(t, json.Unmarshal([]byte(out), &info))
			assert.Equal(t, tt.want, info.Name)
			assert.NotEmpty(t, info.Diagnostics)
		})
	}

	t.Run("reserved diagnostic", func(t *testing.T) {
		out, err := execute(t, NewRulesCommand(), "--format", "json", "AJ9999")
		require.NoError(t, err)

		var info DiagnosticInfo
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Equal(t, "AJ9999", info.ID)
		assert.Equal(t, "error", info.Type)
	})

	t.Run("markdown", func(t *testing.T) {
		out, err := execute(t, NewRulesCommand(), "--format", "markdown", "AJ5001")
		require.NoError(t, err)
		assert.Contains(t, out, "MissingPrimaryKey")
		assert.Contains(t, out, "AJ5001")
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := execute(t, NewRulesCommand(), "AJ0000")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `analyzer or diagnostic "AJ0000" not found`)
	})
}
