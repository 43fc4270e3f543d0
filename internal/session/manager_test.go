package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "chartdesk/internal/errors"
	"chartdesk/internal/window"
	"chartdesk/pkg/contracts/domain"
)

type fakeStore struct {
	mu        sync.Mutex
	labels    []domain.Label
	values    map[domain.FileID][]*float64
	saved     []saveRequest
	fetchHook func()
	fetchErr  error
}

func (f *fakeStore) FetchSeries(ctx context.Context, seriesName string, fileIDs []domain.FileID) (domain.SeriesData, error) {
	if f.fetchHook != nil {
		hook := f.fetchHook
		f.fetchHook = nil
		hook()
	}
	if f.fetchErr != nil {
		return domain.SeriesData{}, f.fetchErr
	}
	data := domain.SeriesData{Labels: f.labels}
	for _, id := range fileIDs {
		data.Series = append(data.Series, domain.FileSeries{File: id, Values: f.values[id]})
	}
	return data, nil
}

func (f *fakeStore) SaveEdit(ctx context.Context, fileID domain.FileID, seriesName string, label domain.Label, value float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, saveRequest{file: fileID, seriesName: seriesName, label: label, value: value})
	return nil
}

func vals(vs ...interface{}) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		switch x := v.(type) {
		case nil:
			out[i] = nil
		case int:
			out[i] = domain.Float(float64(x))
		case float64:
			out[i] = domain.Float(x)
		}
	}
	return out
}

func quarterlyStore() *fakeStore {
	return &fakeStore{
		labels: []domain.Label{"2023-Q1", "2023-Q2", "2023-Q3", "2023-Q4"},
		values: map[domain.FileID][]*float64{
			"f1": vals(10, 20, 30, 40),
			"f2": vals(1, 2, 3, 4),
		},
	}
}

func newTestManager(store Store) *Manager {
	return NewManager(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFrameRawMode(t *testing.T) {
	m := newTestManager(quarterlyStore())

	f, err := m.Frame(context.Background(), "GDP", []domain.FileID{"f1", "f2"}, "raw", "")
	require.NoError(t, err)

	assert.Equal(t, []domain.Label{"2023-Q1", "2023-Q2", "2023-Q3", "2023-Q4"}, f.Labels)
	assert.Equal(t, "raw", f.Mode)
	assert.Equal(t, 0, f.AnchorIndex)
	assert.Equal(t, 0, f.WindowStart)
	assert.Equal(t, 3, f.WindowEnd)
	require.Len(t, f.Sets, 2)
	for _, set := range f.Sets {
		assert.Equal(t, domain.PlotKindCurrent, set.Kind)
		assert.False(t, set.Diverged)
	}
	assert.NotEmpty(t, f.Percentiles)
}

func TestFrameDeltaMode(t *testing.T) {
	m := newTestManager(quarterlyStore())

	f, err := m.Frame(context.Background(), "GDP", []domain.FileID{"f1"}, "delta", "")
	require.NoError(t, err)

	require.Len(t, f.Sets, 1)
	got := f.Sets[0].Values
	require.Len(t, got, 4)
	assert.Nil(t, got[0])
	for i, want := range []float64{10, 10, 10} {
		require.NotNil(t, got[i+1])
		assert.InDelta(t, want, *got[i+1], 1e-9)
	}
}

func TestApplyEditDeltaPercent(t *testing.T) {
	store := quarterlyStore()
	m := newTestManager(store)
	ctx := context.Background()
	files := []domain.FileID{"f1"}

	_, err := m.Frame(ctx, "GDP", files, "delta_percent", "")
	require.NoError(t, err)

	// Editing index 2 to +50% with raw[1]=20 stores raw[2] = 30.
	res, err := m.ApplyEdit(ctx, "GDP", files, "f1", "delta_percent", "", "2023-Q3", "50")
	require.NoError(t, err)
	assert.InDelta(t, 30.0, res.RawValue, 1e-9)
	assert.True(t, res.Diverged)

	// The save was enqueued with the inverted raw value.
	select {
	case req := <-m.saves:
		assert.Equal(t, domain.FileID("f1"), req.file)
		assert.Equal(t, "2023-Q3", req.label)
		assert.InDelta(t, 30.0, req.value, 1e-9)
	default:
		t.Fatal("expected a pending save request")
	}
}

func TestApplyEditOverlayPair(t *testing.T) {
	store := &fakeStore{
		labels: []domain.Label{"2023-Q1", "2023-Q2", "2023-Q3"},
		values: map[domain.FileID][]*float64{"f1": vals(5, 5, 5)},
	}
	m := newTestManager(store)
	ctx := context.Background()
	files := []domain.FileID{"f1"}

	_, err := m.Frame(ctx, "GDP", files, "raw", "")
	require.NoError(t, err)

	_, err = m.ApplyEdit(ctx, "GDP", files, "f1", "raw", "", "2023-Q2", "9")
	require.NoError(t, err)

	f, err := m.Frame(ctx, "GDP", files, "raw", "")
	require.NoError(t, err)

	require.Len(t, f.Sets, 2, "diverged file renders an original and a modified set")
	original, modified := f.Sets[0], f.Sets[1]
	assert.Equal(t, domain.PlotKindOriginal, original.Kind)
	assert.Equal(t, domain.PlotKindCurrent, modified.Kind)
	assert.Less(t, original.ZOrder, modified.ZOrder)

	require.NotNil(t, original.Values[1])
	assert.Equal(t, 5.0, *original.Values[1], "original keeps the loaded value")
	require.NotNil(t, modified.Values[1])
	assert.Equal(t, 9.0, *modified.Values[1])
}

func TestApplyEditFailures(t *testing.T) {
	store := quarterlyStore()
	m := newTestManager(store)
	ctx := context.Background()
	files := []domain.FileID{"f1"}

	_, err := m.Frame(ctx, "GDP", files, "delta", "")
	require.NoError(t, err)

	t.Run("insufficient history", func(t *testing.T) {
		_, err := m.ApplyEdit(ctx, "GDP", files, "f1", "delta", "", "2023-Q1", "5")
		assert.ErrorIs(t, err, apperrors.ErrInsufficientHistory)
	})

	t.Run("non-numeric value", func(t *testing.T) {
		_, err := m.ApplyEdit(ctx, "GDP", files, "f1", "delta", "", "2023-Q2", "lots")
		assert.ErrorIs(t, err, apperrors.ErrNonNumericInput)
	})

	t.Run("unknown label", func(t *testing.T) {
		_, err := m.ApplyEdit(ctx, "GDP", files, "f1", "delta", "", "2031-Q1", "5")
		assert.ErrorIs(t, err, apperrors.ErrUnresolvedLabel)
	})

	t.Run("locked file", func(t *testing.T) {
		locked, err := m.ToggleLock(ctx, "GDP", files, "f1")
		require.NoError(t, err)
		require.True(t, locked)

		_, err = m.ApplyEdit(ctx, "GDP", files, "f1", "delta", "", "2023-Q2", "5")
		assert.ErrorIs(t, err, apperrors.ErrLockedSeries)

		locked, err = m.ToggleLock(ctx, "GDP", files, "f1")
		require.NoError(t, err)
		assert.False(t, locked)
	})

	t.Run("failed edit leaves raw untouched", func(t *testing.T) {
		f, err := m.Frame(ctx, "GDP", files, "raw", "")
		require.NoError(t, err)
		require.Len(t, f.Sets, 1)
		require.NotNil(t, f.Sets[0].Values[0])
		assert.Equal(t, 10.0, *f.Sets[0].Values[0])
	})
}

func TestLockOrderingAndOpacity(t *testing.T) {
	m := newTestManager(quarterlyStore())
	ctx := context.Background()
	files := []domain.FileID{"f1", "f2"}

	_, err := m.ToggleLock(ctx, "GDP", files, "f2")
	require.NoError(t, err)

	f, err := m.Frame(ctx, "GDP", files, "raw", "")
	require.NoError(t, err)

	require.Len(t, f.Sets, 2)
	assert.Equal(t, domain.FileID("f2"), f.Sets[0].File, "locked file draws first")
	assert.True(t, f.Sets[0].Locked)
	assert.Equal(t, lockedOpacity, f.Sets[0].Opacity)
	assert.Equal(t, domain.FileID("f1"), f.Sets[1].File)
	assert.Equal(t, unlockedOpacity, f.Sets[1].Opacity)
}

func TestLockPrunedOnDeselect(t *testing.T) {
	m := newTestManager(quarterlyStore())
	ctx := context.Background()

	_, err := m.ToggleLock(ctx, "GDP", []domain.FileID{"f1", "f2"}, "f2")
	require.NoError(t, err)

	// Reselect without f2: its lock evaporates.
	_, err = m.Frame(ctx, "GDP", []domain.FileID{"f1"}, "raw", "")
	require.NoError(t, err)

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.False(t, m.locks.IsLocked("f2"))
}

func TestAnchorMovesWindowModeDoesNot(t *testing.T) {
	store := &fakeStore{labels: make([]domain.Label, 0, 40), values: map[domain.FileID][]*float64{}}
	values := make([]*float64, 0, 40)
	for y := 2015; y < 2025; y++ {
		for q := 1; q <= 4; q++ {
			store.labels = append(store.labels, labelQ(y, q))
			values = append(values, domain.Float(float64(len(values))))
		}
	}
	store.values["f1"] = values

	m := newTestManager(store)
	ctx := context.Background()
	files := []domain.FileID{"f1"}

	f, err := m.Frame(ctx, "GDP", files, "raw", "")
	require.NoError(t, err)
	assert.Equal(t, 0, f.WindowStart)

	// Drag the window, then toggle mode: the window must not move.
	w, err := m.AdjustWindow(ctx, "GDP", files, 5, 12)
	require.NoError(t, err)
	assert.Equal(t, window.Window{Start: 5, End: 12}, w)

	f, err = m.Frame(ctx, "GDP", files, "yoy_percent", "")
	require.NoError(t, err)
	assert.Equal(t, 5, f.WindowStart)
	assert.Equal(t, 12, f.WindowEnd)

	// Re-anchoring recomputes the default window around the anchor.
	idx, w, err := m.SetAnchor(ctx, "GDP", files, labelQ(2022, 1))
	require.NoError(t, err)
	assert.Equal(t, 28, idx)
	assert.Equal(t, window.Window{Start: 28 - window.DefaultLookback, End: 28 + window.DefaultLookahead}, w)
}

func labelQ(year, q int) domain.Label {
	return domain.Label(fmt.Sprintf("%d-Q%d", year, q))
}

func TestUnresolvedAnchorSelfHeals(t *testing.T) {
	m := newTestManager(quarterlyStore())

	f, err := m.Frame(context.Background(), "GDP", []domain.FileID{"f1"}, "since_anchor", "1999-Q1")
	require.NoError(t, err, "unresolved anchor is self-healing, not fatal")
	assert.Equal(t, 0, f.AnchorIndex)
}

func TestStoreEditsReachLoadedSession(t *testing.T) {
	store := quarterlyStore()
	m := newTestManager(store)
	ctx := context.Background()
	files := []domain.FileID{"f1"}

	_, err := m.Frame(ctx, "GDP", files, "raw", "")
	require.NoError(t, err)

	// A raw edit lands in the store while the session stays loaded; the
	// next frame must pick it up.
	store.values["f1"] = vals(999, 20, 30, 40)

	f, err := m.Frame(ctx, "GDP", files, "raw", "")
	require.NoError(t, err)
	current := f.Sets[len(f.Sets)-1]
	assert.Equal(t, domain.PlotKindCurrent, current.Kind)
	require.NotNil(t, current.Values[0])
	assert.Equal(t, 999.0, *current.Values[0])

	// A pending local edit still wins over the re-fetched value in its
	// own slot; every other slot adopts the fetch.
	_, err = m.ApplyEdit(ctx, "GDP", files, "f1", "raw", "", "2023-Q2", "77")
	require.NoError(t, err)
	store.values["f1"] = vals(999, 20, 333, 40)

	f, err = m.Frame(ctx, "GDP", files, "raw", "")
	require.NoError(t, err)
	current = f.Sets[len(f.Sets)-1]
	require.Equal(t, domain.PlotKindCurrent, current.Kind)
	for i, want := range []float64{999, 77, 333, 40} {
		require.NotNil(t, current.Values[i])
		assert.Equal(t, want, *current.Values[i])
	}
}

func TestEmptyAnchorLabelKeepsAnchor(t *testing.T) {
	m := newTestManager(quarterlyStore())
	ctx := context.Background()
	files := []domain.FileID{"f1"}

	idx, _, err := m.SetAnchor(ctx, "GDP", files, "2023-Q3")
	require.NoError(t, err)
	require.Equal(t, 2, idx)

	f, err := m.Frame(ctx, "GDP", files, "since_anchor", "")
	require.NoError(t, err)
	assert.Equal(t, 2, f.AnchorIndex, "an omitted label keeps the current anchor")

	// An explicit label still re-anchors.
	f, err = m.Frame(ctx, "GDP", files, "since_anchor", "2023-Q2")
	require.NoError(t, err)
	assert.Equal(t, 1, f.AnchorIndex)
}

func TestStaleFetchDiscarded(t *testing.T) {
	store := quarterlyStore()
	m := newTestManager(store)
	ctx := context.Background()

	// While the fetch for GDP/f1 is in flight, a newer context takes over.
	store.fetchHook = func() {
		m.mu.Lock()
		m.current = "newer"
		m.mu.Unlock()
	}

	_, err := m.Frame(ctx, "GDP", []domain.FileID{"f1"}, "raw", "")
	assert.ErrorIs(t, err, apperrors.ErrContextMismatch)
}

func TestFetchErrorSurfaced(t *testing.T) {
	store := quarterlyStore()
	store.fetchErr = errors.New("store offline")
	m := newTestManager(store)

	_, err := m.Frame(context.Background(), "GDP", []domain.FileID{"f1"}, "raw", "")
	assert.ErrorContains(t, err, "store offline")
}

func TestRunDrainsSaves(t *testing.T) {
	store := quarterlyStore()
	m := newTestManager(store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Run(ctx)
	}()

	files := []domain.FileID{"f1"}
	_, err := m.Frame(ctx, "GDP", files, "raw", "")
	require.NoError(t, err)
	_, err = m.ApplyEdit(ctx, "GDP", files, "f1", "raw", "", "2023-Q1", "11")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.saved) == 1
	}, time.Second, 5*time.Millisecond)

	store.mu.Lock()
	saved := store.saved[0]
	store.mu.Unlock()
	assert.Equal(t, domain.FileID("f1"), saved.file)
	assert.Equal(t, "GDP", saved.seriesName)
	assert.InDelta(t, 11.0, saved.value, 1e-9)

	cancel()
	<-done
}

func TestPercentilesRecomputeOnAnchorChange(t *testing.T) {
	store := &fakeStore{
		labels: []domain.Label{"2023-Q1", "2023-Q2", "2023-Q3", "2023-Q4", "2024-Q1", "2024-Q2", "2024-Q3", "2024-Q4"},
		values: map[domain.FileID][]*float64{"f1": vals(0, 1, 4, 9, 16, 25, 36, 49)},
	}
	m := newTestManager(store)
	ctx := context.Background()
	files := []domain.FileID{"f1"}

	// Anchor at the start: no pre-anchor history, all buckets empty.
	f, err := m.Frame(ctx, "GDP", files, "raw", "2023-Q1")
	require.NoError(t, err)
	for _, row := range f.Percentiles {
		for _, v := range row.Levels {
			assert.Nil(t, v)
		}
	}

	// Anchor at the end: the quadratic history has constant second
	// differences of 2 across every percentile level.
	f, err = m.Frame(ctx, "GDP", files, "raw", "2024-Q4")
	require.NoError(t, err)
	require.NotEmpty(t, f.Percentiles)
	var second *domain.PercentileRow
	for i := range f.Percentiles {
		if f.Percentiles[i].Order == 2 {
			second = &f.Percentiles[i]
		}
	}
	require.NotNil(t, second)
	med := second.Levels["50"]
	require.NotNil(t, med)
	assert.InDelta(t, 2.0, *med, 1e-9)
}
