package session

import (
	"chartdesk/pkg/contracts/domain"
)

// Render constants for lock ordering: locked files draw first (underneath)
// and dimmed, so unlocked series stay legible on top.
const (
	lockedOpacity   = 0.45
	unlockedOpacity = 1.0
	originalOpacity = 0.35
)

// LockSet tracks which files are excluded from point-editing. Membership is
// independent of selection, but deselected files are pruned.
type LockSet struct {
	members map[domain.FileID]struct{}
}

// NewLockSet returns an empty lock set.
func NewLockSet() *LockSet {
	return &LockSet{members: make(map[domain.FileID]struct{})}
}

// Toggle flips lock membership for file and returns the new state.
func (ls *LockSet) Toggle(file domain.FileID) bool {
	if _, ok := ls.members[file]; ok {
		delete(ls.members, file)
		return false
	}
	ls.members[file] = struct{}{}
	return true
}

// IsLocked reports whether file is excluded from editing.
func (ls *LockSet) IsLocked(file domain.FileID) bool {
	_, ok := ls.members[file]
	return ok
}

// Prune drops members that are no longer part of the current selection.
func (ls *LockSet) Prune(selected []domain.FileID) {
	keep := make(map[domain.FileID]struct{}, len(selected))
	for _, f := range selected {
		keep[f] = struct{}{}
	}
	for f := range ls.members {
		if _, ok := keep[f]; !ok {
			delete(ls.members, f)
		}
	}
}

// RenderOrder returns the selection reordered for drawing: locked files
// first, relative order otherwise preserved.
func (ls *LockSet) RenderOrder(selected []domain.FileID) []domain.FileID {
	out := make([]domain.FileID, 0, len(selected))
	for _, f := range selected {
		if ls.IsLocked(f) {
			out = append(out, f)
		}
	}
	for _, f := range selected {
		if !ls.IsLocked(f) {
			out = append(out, f)
		}
	}
	return out
}

// Opacity returns the render opacity for file's current point-set.
func (ls *LockSet) Opacity(file domain.FileID) float64 {
	if ls.IsLocked(file) {
		return lockedOpacity
	}
	return unlockedOpacity
}
