// Package catalog turns tokenized catalog export rows into a deduplicated,
// display-ready product list.
//
// The package has no I/O and no package-level mutable state. Every call to
// [Build] owns its intermediate values, so independent builds may run
// concurrently.
//
// # Pipeline
//
//  1. Header resolution: the first row is the header. [ResolveHeader] finds
//     the six required columns by trimmed, case-insensitive exact match.
//     A missing column aborts the whole build with [ErrColumnMismatch].
//  2. Row derivation: [DeriveRow] trims and coerces each data row into a
//     [Draft]. Rows without a code, without a description, or without a
//     truthy verified flag are skipped silently.
//  3. Name cleaning: [CleanName] runs the ordered [NameRules] table over the
//     description. [ExtractPresentation] pulls the size token ("750ml").
//  4. Grouping: [Group] merges drafts that share a lowercased name and image
//     into one [Product], with one [Presentation] per distinct size. When a
//     size repeats, the entry keeps the highest stock and the code of the
//     first row that reached it.
//
// # Outcomes
//
// [Build] distinguishes three outcomes:
//
//   - [ErrEmptyInput]: there was no header row at all
//   - [ErrColumnMismatch]: the header lacks required columns (see
//     [ColumnMismatchError] for the list)
//   - success: a [Catalog], which may legitimately hold zero products
//     when every row was filtered out
//
// The row counts in [Stats] are informational and never change the outcome.
package catalog
