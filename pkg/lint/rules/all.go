package rules

// Import all analyzer subpackages to register them with the global registry.
import (
	_ "github.com/leapstack-labs/leapcheck/pkg/lint/rules/convention"
	_ "github.com/leapstack-labs/leapcheck/pkg/lint/rules/design"
	_ "github.com/leapstack-labs/leapcheck/pkg/lint/rules/references"
)
