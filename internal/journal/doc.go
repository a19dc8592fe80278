// Package journal records every attempted DOI update in a local SQLite
// database.
//
// Each entry captures the DOI, the before and requested snapshots, the event
// sent to the authority, and the outcome. The journal is append-only and is
// never consulted as a source of DOI metadata; fetched records always come
// from the authority.
package journal
