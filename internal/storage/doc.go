// Package storage provides JSON-based persistence for crawl snapshots.
//
// The last successful crawl is kept in snapshot.json under the data
// directory so the next run can report what changed. The default location
// is ~/.local/share/connpass-attendance/.
package storage
