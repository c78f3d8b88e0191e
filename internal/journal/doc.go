// Package journal records every processed input in SQLite so repeated batches
// can skip work and the CLI can show history.
//
// The Store owns the database connection, schema initialization and busy
// retries. Entries are keyed by input fingerprint and output directory; the
// journal is an audit trail, not a queue, and rows are never updated.
//
// Schema changes bump schemaVersion in schema.go; users delete journal.db to
// adopt the new schema.
package journal
