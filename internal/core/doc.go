// Package core orchestrates catalog builds for the server and CLI.
//
// A build has one shape regardless of where the export comes from:
//
//  1. Rows arrive from the published sheet ([Service.Refresh]) or an
//     upload ([Service.Import], [Service.Preview]).
//  2. [catalog.Build] resolves the header, filters and cleans rows and
//     groups them into products.
//  3. The result is saved as an immutable [store.Snapshot] (except for
//     previews) and the build report is logged.
//
// Uploads pass through an [ImportLimiter] so only a bounded number are
// parsed at once. [Service.StartRefreshScheduler] repeats Refresh on an
// interval.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError].
// Codes are grouped by category (CAT, SRC, FILE, IMP, STO, RATE); see
// error_messages.go for the full list.
package core
