// Package store holds the in-memory registry of parsed input files and
// implements the data-access collaborator the session engine fetches from
// and saves to.
//
// An input file is a wide grid: a Name column of series names against
// period-label columns of nullable numbers. CSV and XLSX sources parse into
// the same Grid. Nothing persists across restarts; the registry is repopulated
// from the configured data directory at startup and by uploads.
package store
