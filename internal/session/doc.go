// Package session orchestrates the display-transform and edit pipeline for
// one (series, file-set) context.
//
// Each context key owns its own session: raw store, original snapshot,
// visible window, anchor, and display mode. An edit flows lock-check →
// inverse transform → canonical raw mutation → recompute; the external save
// is fire-and-forget relative to local state, which is the immediate source
// of truth. Stale fetch results for a superseded context key are discarded.
package session
