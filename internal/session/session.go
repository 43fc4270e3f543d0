package session

import (
	"context"
	"log/slog"

	"chartdesk/internal/axis"
	apperrors "chartdesk/internal/errors"
	"chartdesk/internal/overlay"
	"chartdesk/internal/percentile"
	"chartdesk/internal/transform"
	"chartdesk/internal/window"
	"chartdesk/pkg/contracts/domain"
)

// Store is the external data-access collaborator. Fetches and saves are the
// only I/O the session performs; local state never waits on a save.
type Store interface {
	FetchSeries(ctx context.Context, seriesName string, fileIDs []domain.FileID) (domain.SeriesData, error)
	SaveEdit(ctx context.Context, fileID domain.FileID, seriesName string, label domain.Label, value float64) error
}

// Session owns the mutable state of one (series, file-set) context: the
// canonical raw values, their original snapshot, the visible window, anchor,
// and display mode. All methods are called under the manager's lock.
type Session struct {
	key        overlay.ContextKey
	seriesName string
	files      []domain.FileID

	axis           axis.Axis
	raw            map[domain.FileID][]*float64
	tracker        *overlay.Tracker
	periodsPerYear int

	mode        transform.Mode
	anchorLabel domain.Label
	anchorIndex int
	win         window.Window
	winInit     bool
	lookback    int
	lookahead   int

	buckets      []percentile.Bucket
	bucketsStale bool

	logger *slog.Logger
}

func newSession(key overlay.ContextKey, seriesName string, files []domain.FileID, lookback, lookahead int, logger *slog.Logger) *Session {
	return &Session{
		key:          key,
		seriesName:   seriesName,
		files:        files,
		raw:          make(map[domain.FileID][]*float64),
		tracker:      overlay.NewTracker(),
		mode:         transform.ModeRaw,
		bucketsStale: true,
		lookback:     lookback,
		lookahead:    lookahead,
		logger:       logger.With(slog.String("component", "session"), slog.String("context_key", string(key))),
	}
}

// observe applies a fetch result to the session. The snapshot tracker
// decides capture versus extension; slots carrying a pending local edit
// keep their local value, every other slot adopts the fetch.
func (s *Session) observe(data domain.SeriesData) {
	s.tracker.Observe(s.key, data.Labels, data.Series)

	hadData := len(s.axis) > 0
	sameAxis := hadData && labelsEqual(s.axis, data.Labels)

	newRaw := make(map[domain.FileID][]*float64, len(data.Series))
	for _, fs := range data.Series {
		incoming := make([]*float64, len(data.Labels))
		for i := range data.Labels {
			if i < len(fs.Values) {
				incoming[i] = fs.Values[i]
			}
		}
		if sameAxis {
			// Keep pending local edits (slots diverging from the snapshot)
			// over re-fetched values; everywhere else the fetch wins so raw
			// edits made directly against the store show up here too.
			if existing, ok := s.raw[fs.File]; ok && len(existing) == len(incoming) {
				snap := s.tracker.SnapshotSeries(fs.File, data.Labels)
				for i := range incoming {
					if !pointersEqual(existing[i], snap[i]) {
						incoming[i] = existing[i]
					}
				}
			}
		}
		newRaw[fs.File] = incoming
	}
	s.raw = newRaw
	s.axis = data.Labels
	s.periodsPerYear = axis.PeriodsPerYear(s.axis)

	s.resolveAnchor(s.anchorLabel)
	if !s.winInit || !sameAxis {
		s.initWindow()
	}
	s.bucketsStale = true
}

func (s *Session) resolveAnchor(label domain.Label) {
	idx, err := s.axis.Resolve(label, axis.FallbackFirst)
	if err != nil && label != "" {
		s.logger.Warn("anchor label unresolved, using default",
			slog.String("label", label), slog.Int("fallback_index", idx))
	}
	s.anchorLabel = label
	s.anchorIndex = idx
}

// setAnchor re-anchors the session. A changed anchor index recomputes the
// default window and invalidates percentiles.
func (s *Session) setAnchor(label domain.Label) {
	prev := s.anchorIndex
	s.resolveAnchor(label)
	if s.anchorIndex != prev || !s.winInit {
		s.initWindow()
		s.bucketsStale = true
	}
}

// setMode switches the display mode. The window is deliberately preserved;
// only the percentile cache is invalidated.
func (s *Session) setMode(mode transform.Mode) {
	if mode == s.mode {
		return
	}
	s.mode = mode
	s.bucketsStale = true
}

func (s *Session) initWindow() {
	s.win = window.Default(len(s.axis), s.anchorIndex, s.lookback, s.lookahead)
	s.winInit = true
}

func (s *Session) adjustWindow(rawStart, rawEnd float64) window.Window {
	s.win = window.Adjust(s.win, rawStart, rawEnd, len(s.axis))
	return s.win
}

// applyEdit runs the inverse transform for a displayed-value edit and
// mutates exactly one raw slot. The caller has already verified the file is
// not locked and parsed the value.
func (s *Session) applyEdit(fileID domain.FileID, labelIdx int, displayed float64) (float64, error) {
	raw, ok := s.raw[fileID]
	if !ok {
		return 0, apperrors.Condition(apperrors.ErrInsufficientHistory, "file %q has no loaded series", fileID)
	}

	rawValue, err := transform.Invert(s.mode, raw, labelIdx, displayed, s.periodsPerYear, s.anchorIndex)
	if err != nil {
		return 0, err
	}

	raw[labelIdx] = &rawValue
	s.bucketsStale = true
	return rawValue, nil
}

// percentiles returns the bucket table for the active (mode, anchor) pair,
// recomputing lazily from the pre-anchor history of the reference series
// (the first selected file, by convention).
func (s *Session) percentiles() []percentile.Bucket {
	if !s.bucketsStale {
		return s.buckets
	}
	s.buckets = nil
	if len(s.files) > 0 {
		if raw, ok := s.raw[s.files[0]]; ok {
			derived := transform.Derive(raw, s.mode, s.periodsPerYear, s.anchorIndex)
			end := s.anchorIndex
			if end > len(derived) {
				end = len(derived)
			}
			if end < 0 {
				end = 0
			}
			s.buckets = percentile.Buckets(derived[:end])
		}
	}
	s.bucketsStale = false
	return s.buckets
}

// rankOf places a value within the difference history of the given order.
func (s *Session) rankOf(order int, value float64) *float64 {
	if len(s.files) == 0 {
		return nil
	}
	raw, ok := s.raw[s.files[0]]
	if !ok {
		return nil
	}
	derived := transform.Derive(raw, s.mode, s.periodsPerYear, s.anchorIndex)
	end := s.anchorIndex
	if end > len(derived) {
		end = len(derived)
	}
	if end < 0 {
		end = 0
	}
	return percentile.Rank(percentile.Differences(derived[:end], order), value)
}

func pointersEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func labelsEqual(a axis.Axis, b []domain.Label) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
