// Package rules registers the built-in analyzers.
//
// Analyzers are organized by category:
//   - design: table, key and index design (AJ5001-AJ5003, AJ5008)
//   - references: table and column references (AJ5004-AJ5005)
//   - convention: coding conventions (AJ5006-AJ5007)
//
// To register all analyzers with the global registry, import this package
// with a blank identifier:
//
//	import _ "github.com/leapstack-labs/leapcheck/pkg/lint/rules"
package rules
