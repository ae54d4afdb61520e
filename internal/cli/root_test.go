package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/internal/cli/config"
	"github.com/leapstack-labs/leapcheck/internal/cli/output"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "leapcheck", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"analyze", "rules", "catalog", "history", "version", "completion"} {
		assert.Contains(t, names, want)
	}

	flags := []string{"config", "scripts-dir", "default-database", "default-schema", "disable", "workers", "debug", "state", "verbose", "output"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestPersistentPreRun(t *testing.T) {
	t.Chdir(t.TempDir())
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	var (
		gotCfg      *config.Config
		gotRenderer *output.Renderer
	)
	root := NewRootCmd()
	root.AddCommand(&cobra.Command{
		Use: "inspect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gotCfg = GetConfig(cmd.Context())
			gotRenderer = GetRenderer(cmd.Context())
			return nil
		},
	})
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"inspect", "--default-schema", "app", "--output", "yaml", "--workers", "3"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	require.NotNil(t, gotCfg)
	assert.Equal(t, "app", gotCfg.DefaultSchema)
	assert.Equal(t, 3, gotCfg.MaxParallelism)
	require.NotNil(t, gotRenderer)
	assert.Equal(t, output.ModeYAML, gotRenderer.EffectiveMode())
	assert.Same(t, gotCfg, config.GetCurrentConfig())
}

func TestPersistentPreRun_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"version", "--workers=-1"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_parallelism")
}

func TestContextDefaults(t *testing.T) {
	cfg := GetConfig(context.Background())
	assert.Equal(t, config.DefaultSchema, cfg.DefaultSchema)
	assert.Equal(t, config.DefaultFailOn, cfg.FailOn)

	assert.NotNil(t, GetRenderer(context.Background()))
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			root := NewRootCmd()
			buf := new(bytes.Buffer)
			root.SetOut(buf)
			root.SetErr(buf)
			root.SetArgs([]string{"completion", shell})
			require.NoError(t, root.Execute())
			assert.Contains(t, buf.String(), "leapcheck")
		})
	}
}
