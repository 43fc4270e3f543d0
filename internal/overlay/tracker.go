// Package overlay tracks divergence of raw series from their originally
// loaded values so edited points can be rendered against the original.
//
// A snapshot is scoped to a context key, the identity of the current
// (series name, file set) combination. Within one context the snapshot only
// ever extends to labels it has not seen; a partial re-fetch can never
// overwrite an "original" value. Changing context discards the snapshot
// wholesale.
package overlay

import (
	"sort"
	"strings"

	"chartdesk/pkg/contracts/domain"
)

// ContextKey identifies a (series name, file set) combination. File order
// does not matter.
type ContextKey string

// NewContextKey builds the key from the series name and the selected files.
func NewContextKey(seriesName string, fileIDs []domain.FileID) ContextKey {
	sorted := make([]string, len(fileIDs))
	copy(sorted, fileIDs)
	sort.Strings(sorted)
	return ContextKey(seriesName + "|" + strings.Join(sorted, ","))
}

// Tracker holds the original snapshot for the current context.
type Tracker struct {
	key       ContextKey
	snapshots map[domain.FileID]map[domain.Label]*float64
}

// NewTracker returns an empty tracker with no context.
func NewTracker() *Tracker {
	return &Tracker{
		snapshots: make(map[domain.FileID]map[domain.Label]*float64),
	}
}

// Key returns the current context key.
func (t *Tracker) Key() ContextKey {
	return t.key
}

// Observe ingests freshly fetched raw data. A new context key discards the
// old snapshot and captures the incoming values as the original; a matching
// key extends the snapshot with labels not yet present, never overwriting.
func (t *Tracker) Observe(key ContextKey, labels []domain.Label, series []domain.FileSeries) {
	if key != t.key {
		t.key = key
		t.snapshots = make(map[domain.FileID]map[domain.Label]*float64)
	}

	for _, fs := range series {
		snap := t.snapshots[fs.File]
		if snap == nil {
			snap = make(map[domain.Label]*float64, len(labels))
			t.snapshots[fs.File] = snap
		}
		for i, label := range labels {
			if i >= len(fs.Values) {
				break
			}
			if _, seen := snap[label]; seen {
				continue
			}
			snap[label] = copyValue(fs.Values[i])
		}
	}
}

// SnapshotSeries reconstructs the original value array for file over the
// given axis labels. Labels never observed are nil.
func (t *Tracker) SnapshotSeries(file domain.FileID, labels []domain.Label) []*float64 {
	out := make([]*float64, len(labels))
	snap := t.snapshots[file]
	if snap == nil {
		return out
	}
	for i, label := range labels {
		out[i] = copyValue(snap[label])
	}
	return out
}

// HasChanges reports whether any position of the current raw values differs
// from the snapshot-reconstructed series for file. Comparison happens in
// raw space; callers derive both series for display.
func (t *Tracker) HasChanges(file domain.FileID, labels []domain.Label, current []*float64) bool {
	snap := t.SnapshotSeries(file, labels)
	for i := range labels {
		var cur *float64
		if i < len(current) {
			cur = current[i]
		}
		if !valuesEqual(snap[i], cur) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
