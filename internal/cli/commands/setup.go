package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/cli/config"
	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/leapstack-labs/leapcheck/internal/engine"
	"github.com/leapstack-labs/leapcheck/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	cmdCtx.Engine = createEngine(cmdCtx.Cfg, cmdCtx.Logger)
	return cmdCtx
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that only read the registry or the state database.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// rendererFor returns r, or a renderer in the given format when it is set.
func rendererFor(cmd *cobra.Command, r *output.Renderer, format string) *output.Renderer {
	if format == "" {
		return r
	}
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(format))
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	var disabled []string
	if v := os.Getenv("LEAPCHECK_DISABLED_DIAGNOSTICS"); v != "" {
		disabled = strings.Split(v, ",")
	}
	workers, _ := strconv.Atoi(os.Getenv("LEAPCHECK_MAX_PARALLELISM"))

	return &config.Config{
		ScriptsDir:          getEnvOrDefault("LEAPCHECK_SCRIPTS_DIR", config.DefaultScriptsDir),
		Include:             []string{config.DefaultIncludeGlob},
		DefaultDatabase:     os.Getenv("LEAPCHECK_DEFAULT_DATABASE"),
		DefaultSchema:       getEnvOrDefault("LEAPCHECK_DEFAULT_SCHEMA", config.DefaultSchema),
		DisabledDiagnostics: disabled,
		MaxParallelism:      workers,
		StatePath:           getEnvOrDefault("LEAPCHECK_STATE_PATH", config.DefaultStateFile),
		NoState:             os.Getenv("LEAPCHECK_NO_STATE") == "true",
		OutputFormat:        os.Getenv("LEAPCHECK_OUTPUT"),
		Verbose:             os.Getenv("LEAPCHECK_VERBOSE") == "true",
		FailOn:              getEnvOrDefault("LEAPCHECK_FAIL_ON", config.DefaultFailOn),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func createEngine(cfg *config.Config, logger *slog.Logger) *engine.Engine {
	return engine.New(engine.Options{
		Config:         cfg.LintConfig(),
		MaxParallelism: cfg.MaxParallelism,
		Debug:          cfg.Debug,
		Logger:         logger,
	})
}

// openStore opens and migrates the state database.
// Returns the store and a cleanup function that must be called (typically via defer).
func openStore(cfg *config.Config, logger *slog.Logger) (state.Store, func(), error) {
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}
