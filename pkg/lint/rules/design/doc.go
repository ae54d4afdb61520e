// Package design provides analyzers for table and key design.
//
// Analyzers in this package:
//   - AJ5001 MissingPrimaryKey: tables without a primary key
//   - AJ5002 NamelessConstraint: key constraints declared without a name
//   - AJ5003 ForeignKeyWithoutIndex: foreign keys no index can serve
//   - AJ5008 DuplicateIndexColumns: indexes repeating another index's keys
package design
