// Package references provides analyzers that check table and column
// references against the statement scope and the catalog. Both use the
// reference resolver.
//
// Analyzers in this package:
//   - AJ5004 UnknownTableReference
//   - AJ5005 UnresolvedColumnQualifier
package references
