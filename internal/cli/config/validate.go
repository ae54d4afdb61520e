package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

var (
	validOutputs = []string{"auto", "text", "markdown", "json", "yaml"}
	validFailOn  = []string{FailOnNone, FailOnWarning, FailOnError}
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DefaultSchema) == "" {
		return fmt.Errorf("default_schema is required")
	}
	if c.OutputFormat != "" && !slices.Contains(validOutputs, strings.ToLower(c.OutputFormat)) {
		return fmt.Errorf("invalid output format %q: expected one of %s", c.OutputFormat, strings.Join(validOutputs, ", "))
	}
	if c.FailOn != "" && !slices.Contains(validFailOn, strings.ToLower(c.FailOn)) {
		return fmt.Errorf("invalid fail_on %q: expected one of %s", c.FailOn, strings.Join(validFailOn, ", "))
	}
	if c.MaxParallelism < 0 {
		return fmt.Errorf("max_parallelism must not be negative, got %d", c.MaxParallelism)
	}
	return nil
}

// ValidateDirectories checks if the scripts directory exists.
func (c *Config) ValidateDirectories() error {
	info, err := os.Stat(c.ScriptsDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("scripts directory does not exist: %s\nHint: Create the directory or use --scripts-dir to specify a different path", c.ScriptsDir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat scripts directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scripts directory is not a directory: %s", c.ScriptsDir)
	}
	return nil
}
