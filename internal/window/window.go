// Package window maintains the visible index range of the period axis.
//
// The window is anchored: resolving a new anchor label recomputes the
// default range around it, while display-mode toggles leave the range
// untouched. Drag and resize input arrives as raw float bounds and is
// rounded, swapped if inverted, and clamped to the axis.
package window

import (
	"math"
)

// Default lookback/lookahead applied when a window is (re)initialized
// around the anchor.
const (
	DefaultLookback  = 12
	DefaultLookahead = 8
)

// Window is an inclusive [Start, End] index range over the axis.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Span returns the number of visible positions.
func (w Window) Span() int {
	return w.End - w.Start + 1
}

// Contains reports whether index i is inside the window.
func (w Window) Contains(i int) bool {
	return i >= w.Start && i <= w.End
}

// Default computes the initial window for an axis of axisLen positions,
// centered on the anchor with the given lookback and lookahead, clamped to
// axis bounds.
func Default(axisLen, anchorIndex, lookback, lookahead int) Window {
	if axisLen <= 0 {
		return Window{Start: 0, End: 0}
	}
	w := Window{Start: anchorIndex - lookback, End: anchorIndex + lookahead}
	return clamp(w, axisLen)
}

// Adjust applies a drag or resize to current. The raw bounds are rounded to
// integer indices, swapped if inverted, clamped to the axis, and held to a
// minimum span of one position.
func Adjust(current Window, rawStart, rawEnd float64, axisLen int) Window {
	if axisLen <= 0 {
		return Window{Start: 0, End: 0}
	}
	if math.IsNaN(rawStart) || math.IsNaN(rawEnd) {
		return clamp(current, axisLen)
	}

	start := int(math.Round(rawStart))
	end := int(math.Round(rawEnd))
	if start > end {
		start, end = end, start
	}

	w := clamp(Window{Start: start, End: end}, axisLen)
	if w.Span() < 1 {
		w.End = w.Start
	}
	return w
}

func clamp(w Window, axisLen int) Window {
	last := axisLen - 1
	if w.Start < 0 {
		w.Start = 0
	}
	if w.Start > last {
		w.Start = last
	}
	if w.End < w.Start {
		w.End = w.Start
	}
	if w.End > last {
		w.End = last
	}
	return w
}
