// Package roster provides the domain types for a connpass group crawl.
//
// A crawl produces the group's member roster, its event timeline in ascending
// date order and an attendance matrix holding one Status per (member, event)
// cell. The package also snapshots a finished run and diffs two snapshots so
// that consecutive runs can report what changed.
package roster
