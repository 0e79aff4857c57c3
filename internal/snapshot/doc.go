// Package snapshot persists the last known catalog collection.
//
// Two drivers are available:
//   - "file": a single pretty-printed JSON array, replaced atomically
//     (temp file + fsync + rename)
//   - "sqlite": one row in a SQLite database file, replaced in a transaction
//
// Absence of a snapshot is reported explicitly and is not the same thing as
// an empty collection. Corrupt data is an error, never "absent".
package snapshot
