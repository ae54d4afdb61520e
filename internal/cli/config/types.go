// Package config provides configuration management for the leapcheck CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	ScriptsDir          string                    `koanf:"scripts_dir"`
	Include             []string                  `koanf:"include"`
	Exclude             []string                  `koanf:"exclude"`
	DefaultDatabase     string                    `koanf:"default_database"`
	DefaultSchema       string                    `koanf:"default_schema"`
	DisabledDiagnostics []string                  `koanf:"disabled_diagnostics"`
	MaxParallelism      int                       `koanf:"max_parallelism"`
	Debug               bool                      `koanf:"debug"`
	StatePath           string                    `koanf:"state_path"`
	NoState             bool                      `koanf:"no_state"`
	OutputFormat        string                    `koanf:"output"`
	Verbose             bool                      `koanf:"verbose"`
	FailOn              string                    `koanf:"fail_on"`
	Analyzers           map[string]AnalyzerConfig `koanf:"analyzers"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// AnalyzerConfig holds the settings of one analyzer.
type AnalyzerConfig struct {
	Options map[string]any `koanf:"options"`
}

// Default configuration values.
const (
	DefaultScriptsDir    = "."
	DefaultSchema        = "dbo"
	DefaultStateFile     = ".leapcheck/state.db"
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultFailOn        = "error"
	DefaultIncludeGlob   = "**/*.sql"
	maxUpwardSearchLevel = 10
)

// ConfigFileNames are looked up, in order, in each searched directory.
var ConfigFileNames = []string{"leapcheck.yaml", "leapcheck.yml"}

// Fail-on thresholds.
const (
	FailOnNone    = "none"
	FailOnWarning = "warning"
	FailOnError   = "error"
)
