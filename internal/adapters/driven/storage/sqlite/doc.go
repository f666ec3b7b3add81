// Package sqlite stores digests and scheduler state in one SQLite file
// (~/.esgmon/data/digests.db by default) through the pure Go
// modernc.org/sqlite driver, with queries built by squirrel.
//
// Tables come from the numbered migrations in migrations/. A digest is
// written with its story and theme rows in a single transaction, so a
// rejected write leaves the stored week as it was. Trend queries read the
// theme_frequency view.
package sqlite
