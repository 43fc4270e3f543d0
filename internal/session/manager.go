package session

import (
	"context"
	"log/slog"
	"sync"

	apperrors "chartdesk/internal/errors"
	"chartdesk/internal/overlay"
	"chartdesk/internal/transform"
	"chartdesk/internal/window"
	"chartdesk/pkg/contracts/domain"
)

// saveQueueDepth bounds the fire-and-forget save queue. A full queue drops
// the oldest pending save in favor of the newest; the local raw store has
// already been mutated either way.
const saveQueueDepth = 64

type saveRequest struct {
	file       domain.FileID
	seriesName string
	label      domain.Label
	value      float64
}

// EditResult reports an applied displayed-value edit.
type EditResult struct {
	File     domain.FileID `json:"file"`
	Label    domain.Label  `json:"label"`
	RawValue float64       `json:"raw_value"`
	Diverged bool          `json:"diverged"`
}

// Manager owns every live session, the shared lock set, and the async save
// queue. All state transitions run under one mutex, giving the synchronous
// single-writer model the engine assumes.
type Manager struct {
	mu       sync.Mutex
	store    Store
	logger   *slog.Logger
	sessions map[overlay.ContextKey]*Session
	locks    *LockSet

	// current is the most recently requested context; fetch results for any
	// other key are stale and must not be applied.
	current overlay.ContextKey

	lookback  int
	lookahead int

	saves chan saveRequest
}

// NewManager creates a session manager backed by the given store.
func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:     store,
		logger:    logger.With(slog.String("component", "session_manager")),
		sessions:  make(map[overlay.ContextKey]*Session),
		locks:     NewLockSet(),
		lookback:  window.DefaultLookback,
		lookahead: window.DefaultLookahead,
		saves:     make(chan saveRequest, saveQueueDepth),
	}
}

// ConfigureWindow overrides the default window shape applied when a new
// context is anchored. Existing sessions keep their windows.
func (m *Manager) ConfigureWindow(lookback, lookahead int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lookback > 0 {
		m.lookback = lookback
	}
	if lookahead > 0 {
		m.lookahead = lookahead
	}
}

// Run drains the save queue until ctx is cancelled. Saves are best-effort:
// failures are logged, local state is already authoritative.
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-m.saves:
			if err := m.store.SaveEdit(ctx, req.file, req.seriesName, req.label, req.value); err != nil {
				m.logger.Error("external save failed",
					slog.String("file", req.file),
					slog.String("series", req.seriesName),
					slog.String("label", req.label),
					slog.String("error", err.Error()))
			}
		}
	}
}

// acquire resolves the context key, marks it current, prunes the lock set
// to the selection, and returns the (possibly new) session. Callers hold no
// lock; acquire takes and releases it around the fetch so a slow store
// cannot block unrelated contexts, then re-checks staleness before applying.
func (m *Manager) acquire(ctx context.Context, seriesName string, files []domain.FileID, refresh bool) (*Session, error) {
	key := overlay.NewContextKey(seriesName, files)

	m.mu.Lock()
	m.current = key
	m.locks.Prune(files)
	s, ok := m.sessions[key]
	if !ok {
		s = newSession(key, seriesName, files, m.lookback, m.lookahead, m.logger)
		m.sessions[key] = s
		refresh = true
	}
	m.mu.Unlock()

	if !refresh {
		return s, nil
	}

	data, err := m.store.FetchSeries(ctx, seriesName, files)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != key {
		// A newer context superseded this fetch while it was in flight.
		return nil, apperrors.Condition(apperrors.ErrContextMismatch, "context %q superseded by %q", key, m.current)
	}
	s.observe(data)
	return s, nil
}

// Frame fetches fresh data and returns the full plot frame for a context.
func (m *Manager) Frame(ctx context.Context, seriesName string, files []domain.FileID, modeStr, anchorLabel string) (domain.PlotFrame, error) {
	mode, err := transform.ParseMode(modeStr)
	if err != nil {
		return domain.PlotFrame{}, err
	}

	s, err := m.acquire(ctx, seriesName, files, true)
	if err != nil {
		return domain.PlotFrame{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s.setMode(mode)
	// An absent anchor label means "keep the current anchor", not a reset.
	if anchorLabel != "" && anchorLabel != s.anchorLabel {
		s.setAnchor(anchorLabel)
	}
	return s.frame(m.locks), nil
}

// ApplyEdit routes a displayed-value edit through the inverse mapper: lock
// check, value parse, inversion, canonical raw mutation, then async save.
// The mutation is visible to every dependent recompute before the save is
// even enqueued.
func (m *Manager) ApplyEdit(ctx context.Context, seriesName string, files []domain.FileID, fileID domain.FileID, modeStr, anchorLabel, label, rawValue string) (EditResult, error) {
	mode, err := transform.ParseMode(modeStr)
	if err != nil {
		return EditResult{}, err
	}
	displayed, err := transform.ParseEditValue(rawValue)
	if err != nil {
		return EditResult{}, err
	}

	s, err := m.acquire(ctx, seriesName, files, false)
	if err != nil {
		return EditResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locks.IsLocked(fileID) {
		return EditResult{}, apperrors.Condition(apperrors.ErrLockedSeries, "file %q", fileID)
	}

	s.setMode(mode)
	if anchorLabel != "" && anchorLabel != s.anchorLabel {
		s.setAnchor(anchorLabel)
	}

	labelIdx := s.axis.IndexOf(label)
	if labelIdx < 0 {
		return EditResult{}, apperrors.Condition(apperrors.ErrUnresolvedLabel, "label %q", label)
	}

	newRaw, err := s.applyEdit(fileID, labelIdx, displayed)
	if err != nil {
		return EditResult{}, err
	}

	diverged := s.tracker.HasChanges(fileID, s.axis, s.raw[fileID])

	// Best-effort external save; drop the oldest pending save if the queue
	// is full rather than blocking the edit path.
	req := saveRequest{file: fileID, seriesName: seriesName, label: label, value: newRaw}
	select {
	case m.saves <- req:
	default:
		select {
		case dropped := <-m.saves:
			m.logger.Warn("save queue full, dropping oldest pending save",
				slog.String("file", dropped.file), slog.String("label", dropped.label))
		default:
		}
		select {
		case m.saves <- req:
		default:
		}
	}

	return EditResult{File: fileID, Label: label, RawValue: newRaw, Diverged: diverged}, nil
}

// AdjustWindow applies a drag/resize to the context's visible window.
func (m *Manager) AdjustWindow(ctx context.Context, seriesName string, files []domain.FileID, rawStart, rawEnd float64) (window.Window, error) {
	s, err := m.acquire(ctx, seriesName, files, false)
	if err != nil {
		return window.Window{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return s.adjustWindow(rawStart, rawEnd), nil
}

// SetAnchor re-anchors a context and returns the resolved index plus the
// recomputed default window.
func (m *Manager) SetAnchor(ctx context.Context, seriesName string, files []domain.FileID, anchorLabel string) (int, window.Window, error) {
	s, err := m.acquire(ctx, seriesName, files, false)
	if err != nil {
		return 0, window.Window{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s.setAnchor(anchorLabel)
	return s.anchorIndex, s.win, nil
}

// ToggleLock flips edit-lock membership for a file and returns its new state.
func (m *Manager) ToggleLock(ctx context.Context, seriesName string, files []domain.FileID, fileID domain.FileID) (bool, error) {
	if _, err := m.acquire(ctx, seriesName, files, false); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks.Toggle(fileID), nil
}
