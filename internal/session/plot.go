package session

import (
	"strconv"

	"chartdesk/internal/percentile"
	"chartdesk/internal/transform"
	"chartdesk/pkg/contracts/domain"
)

// maxTicks bounds how many axis ticks a frame carries; wider windows are
// thinned evenly.
const maxTicks = 16

// frame assembles the renderable state: per-file point-sets under the
// active mode (two sets where a file has diverged from its snapshot), ticks
// for the visible window, and the percentile table.
func (s *Session) frame(locks *LockSet) domain.PlotFrame {
	f := domain.PlotFrame{
		Labels:      append([]domain.Label(nil), s.axis...),
		WindowStart: s.win.Start,
		WindowEnd:   s.win.End,
		Ticks:       s.ticks(),
		Mode:        s.mode.String(),
		AnchorIndex: s.anchorIndex,
		Percentiles: percentileRows(s.percentiles()),
	}

	z := 0
	for _, file := range locks.RenderOrder(s.files) {
		raw, ok := s.raw[file]
		if !ok {
			continue
		}
		diverged := s.tracker.HasChanges(file, s.axis, raw)

		if diverged {
			// The original draws first so the modified series sits on top.
			snap := s.tracker.SnapshotSeries(file, s.axis)
			f.Sets = append(f.Sets, domain.PlotSet{
				File:     file,
				Kind:     domain.PlotKindOriginal,
				Values:   transform.Derive(snap, s.mode, s.periodsPerYear, s.anchorIndex),
				Locked:   locks.IsLocked(file),
				ZOrder:   z,
				Opacity:  originalOpacity,
				Diverged: true,
			})
			z++
		}

		f.Sets = append(f.Sets, domain.PlotSet{
			File:     file,
			Kind:     domain.PlotKindCurrent,
			Values:   transform.Derive(raw, s.mode, s.periodsPerYear, s.anchorIndex),
			Locked:   locks.IsLocked(file),
			ZOrder:   z,
			Opacity:  locks.Opacity(file),
			Diverged: diverged,
		})
		z++
	}

	return f
}

func (s *Session) ticks() []domain.Tick {
	if len(s.axis) == 0 {
		return nil
	}
	span := s.win.Span()
	step := 1
	if span > maxTicks {
		step = (span + maxTicks - 1) / maxTicks
	}

	var out []domain.Tick
	for i := s.win.Start; i <= s.win.End && i < len(s.axis); i += step {
		out = append(out, domain.Tick{Index: i, Label: s.axis[i]})
	}
	return out
}

func percentileRows(buckets []percentile.Bucket) []domain.PercentileRow {
	rows := make([]domain.PercentileRow, 0, len(buckets))
	for _, b := range buckets {
		row := domain.PercentileRow{
			Order:  b.Order,
			Levels: make(map[string]*float64, len(b.Values)),
			Rank:   b.LatestRank,
		}
		for level, v := range b.Values {
			row.Levels[strconv.FormatFloat(level, 'f', -1, 64)] = v
		}
		rows = append(rows, row)
	}
	return rows
}
