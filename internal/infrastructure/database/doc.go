// Package database provides the local SQLite store for statebridge.
//
// The bridge persists only one kind of data locally: the publish-failure
// journal (see the journal package). This package handles connection
// lifecycle, pragmas (WAL mode, busy timeout) and health checks; schema
// management lives with the repository that owns the tables.
package database
