// Package core defines the shared language of leapcheck.
//
// This package contains:
//   - The T-SQL AST (Script, Batch, statements, table references, expressions)
//   - Tree navigation (Children, Walk, Find, ParentMap)
//   - The diagnostic data model (CodeRegion, DiagnosticDefinition, Issue)
//   - Suppression directives and the per-script ScriptModel
//
// The Golden Rule: pkg/core imports ONLY pkg/token, golang.org/x/text and stdlib.
// All other packages depend on core, not the reverse.
package core
