// Package cli implements the command-line interface for connpass-attendance.
//
// The root command crawls the group's member roster, event timeline and
// participation pages, writes the attendance matrix (CSV by default) and
// keeps a snapshot so later runs can report new members, new events and
// changed statuses. The member subcommand prints one member's stored row.
package cli
