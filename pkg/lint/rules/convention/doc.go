// Package convention provides analyzers for T-SQL coding conventions.
//
// Analyzers in this package:
//   - AJ5006 SelectStar
//   - AJ5007 ProcedureParameterUnused
package convention
