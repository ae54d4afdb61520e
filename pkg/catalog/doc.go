// Package catalog builds the schema model of a set of T-SQL scripts.
//
// Extraction runs one pass per object kind over every script, tracking the
// database selected by the most recent USE. Build merges the results into a
// Database -> Schema -> object structure keyed case-insensitively, appending
// separately declared indexes and foreign keys to their tables and dropping
// every object that is declared more than once.
//
//	cat := catalog.Build(scripts, catalog.Options{DefaultSchema: "dbo", Reporter: r})
//	if t, ok := cat.Table("Sales", "dbo", "Orders"); ok {
//		pk, _ := t.PrimaryKey()
//		...
//	}
package catalog
