package lint

import (
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Config controls which diagnostics are reported and how analyzers behave.
type Config struct {
	// DefaultSchema is the schema assumed for unqualified names.
	DefaultSchema string

	// disabled holds folded diagnostic ids.
	disabled map[string]bool

	// options holds per-analyzer options keyed by folded analyzer name.
	options map[string]Options
}

// NewConfig creates a configuration with every diagnostic enabled.
func NewConfig() *Config {
	return &Config{
		DefaultSchema: "dbo",
		disabled:      make(map[string]bool),
		options:       make(map[string]Options),
	}
}

// Disable disables diagnostics by id.
func (c *Config) Disable(ids ...string) *Config {
	for _, id := range ids {
		c.disabled[core.FoldName(id)] = true
	}
	return c
}

// IsDisabled reports whether the diagnostic id is disabled.
func (c *Config) IsDisabled(id string) bool {
	if c == nil {
		return false
	}
	return c.disabled[core.FoldName(id)]
}

// DisabledIDs returns the disabled ids in folded form.
func (c *Config) DisabledIDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.disabled))
	for id := range c.disabled {
		ids = append(ids, id)
	}
	return ids
}

// AllDisabled reports whether every diagnostic of a is disabled, in which
// case the analyzer need not run.
func (c *Config) AllDisabled(a AnalyzerDef) bool {
	for _, d := range a.Diagnostics {
		if !c.IsDisabled(d.ID) {
			return false
		}
	}
	return true
}

// SetOptions sets the options of the named analyzer.
func (c *Config) SetOptions(analyzer string, opts Options) *Config {
	c.options[core.FoldName(analyzer)] = opts
	return c
}

// OptionsFor returns the options of the named analyzer, or nil.
func (c *Config) OptionsFor(analyzer string) Options {
	if c == nil {
		return nil
	}
	return c.options[core.FoldName(analyzer)]
}

// Schema returns DefaultSchema, or dbo when it is unset.
func (c *Config) Schema() string {
	if c == nil || c.DefaultSchema == "" {
		return "dbo"
	}
	return c.DefaultSchema
}
