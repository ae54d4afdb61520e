// Package output renders command results as styled text, markdown, JSON or YAML.
package output

import "strings"

// OutputMode selects how results are rendered.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"     // text on a terminal, markdown otherwise
	ModeText     OutputMode = "text"     // styled for terminals
	ModeMarkdown OutputMode = "markdown" // for pipes and agents
	ModeJSON     OutputMode = "json"
	ModeYAML     OutputMode = "yaml"
)

// Mode converts a flag or config value to an OutputMode.
// Unknown and empty values become ModeAuto.
func Mode(s string) OutputMode {
	switch m := OutputMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeText, ModeMarkdown, ModeJSON, ModeYAML:
		return m
	default:
		return ModeAuto
	}
}

// IsStructured reports whether the mode emits machine-readable data.
func (m OutputMode) IsStructured() bool {
	return m == ModeJSON || m == ModeYAML
}
