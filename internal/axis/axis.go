package axis

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "chartdesk/internal/errors"
	"chartdesk/pkg/contracts/domain"
)

// periodPattern matches the structured year+period label forms:
// 2024-Q1, 2024Q1, 2024M03, 2024.03.
var periodPattern = regexp.MustCompile(`^(\d{4})(?:-?Q(\d{1,2})|M(\d{1,2})|\.(\d{1,2}))$`)

// dateLayouts are tried in order for the calendar-date fallback.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2006-01",
	"Jan 2006",
	"January 2006",
	"2006",
}

type period struct {
	year int
	num  int
}

func parsePeriod(label domain.Label) (period, bool) {
	m := periodPattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return period{}, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return period{}, false
	}
	for _, g := range m[2:] {
		if g == "" {
			continue
		}
		num, err := strconv.Atoi(g)
		if err != nil {
			return period{}, false
		}
		return period{year: year, num: num}, true
	}
	return period{}, false
}

func parseDate(label domain.Label) (time.Time, bool) {
	s := strings.TrimSpace(label)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Compare orders two labels: structured periods by (year, period number),
// then calendar dates, then plain string order. Returns -1, 0, or 1.
func Compare(a, b domain.Label) int {
	pa, oka := parsePeriod(a)
	pb, okb := parsePeriod(b)
	if oka && okb {
		if pa.year != pb.year {
			return sign(pa.year - pb.year)
		}
		if pa.num != pb.num {
			return sign(pa.num - pb.num)
		}
		return strings.Compare(a, b)
	}

	da, oka := parseDate(a)
	db, okb := parseDate(b)
	if oka && okb && !da.Equal(db) {
		if da.Before(db) {
			return -1
		}
		return 1
	}

	return strings.Compare(a, b)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// Axis is the ordered sequence of labels shared by all compared series.
// Order is maintained by the data source; the axis never re-sorts.
type Axis []domain.Label

// IndexOf returns the position of label, or -1 if absent.
func (a Axis) IndexOf(label domain.Label) int {
	for i, l := range a {
		if l == label {
			return i
		}
	}
	return -1
}

// Fallback selects the default position substituted for an unresolved label.
type Fallback int

const (
	// FallbackFirst substitutes index 0.
	FallbackFirst Fallback = iota
	// FallbackLast substitutes the last index.
	FallbackLast
)

// Resolve maps a label to its axis index. An empty or unknown label
// self-heals to the fallback position; the returned error still reports the
// unresolved condition so callers can log it.
func (a Axis) Resolve(label domain.Label, fb Fallback) (int, error) {
	if len(a) == 0 {
		return 0, apperrors.Condition(apperrors.ErrUnresolvedLabel, "empty axis")
	}
	if label != "" {
		if i := a.IndexOf(label); i >= 0 {
			return i, nil
		}
	}
	def := 0
	if fb == FallbackLast {
		def = len(a) - 1
	}
	if label == "" {
		return def, nil
	}
	return def, apperrors.Condition(apperrors.ErrUnresolvedLabel, "label %q", label)
}

// PeriodsPerYear infers the axis frequency from its label forms: quarters
// give 4, month forms give 12, calendar dates are judged by the gap between
// the first two parseable labels. Unrecognizable axes default to quarterly.
func PeriodsPerYear(a Axis) int {
	maxNum := 0
	structured := false
	for _, label := range a {
		p, ok := parsePeriod(label)
		if !ok {
			continue
		}
		if strings.ContainsAny(label, "Qq") {
			return 4
		}
		structured = true
		if p.num > maxNum {
			maxNum = p.num
		}
	}
	if structured {
		if maxNum > 4 {
			return 12
		}
		return 4
	}

	var dates []time.Time
	for _, label := range a {
		if t, ok := parseDate(label); ok {
			dates = append(dates, t)
			if len(dates) == 2 {
				break
			}
		}
	}
	if len(dates) == 2 {
		gap := dates[1].Sub(dates[0])
		if gap < 0 {
			gap = -gap
		}
		days := gap.Hours() / 24
		switch {
		case days >= 300:
			return 1
		case days >= 60:
			return 4
		case days >= 20:
			return 12
		}
	}
	return 4
}

// Slice returns the inclusive [startLabel, endLabel] sub-range of the axis
// as index bounds, swapping if inverted. Unknown non-empty labels are
// rejected; empty labels mean the respective end of the axis.
func (a Axis) Slice(startLabel, endLabel domain.Label) (int, int, error) {
	if len(a) == 0 {
		return 0, 0, apperrors.Condition(apperrors.ErrUnresolvedLabel, "empty axis")
	}
	start := 0
	end := len(a) - 1
	if startLabel != "" {
		i := a.IndexOf(startLabel)
		if i < 0 {
			return 0, 0, apperrors.Condition(apperrors.ErrUnresolvedLabel, "start label %q", startLabel)
		}
		start = i
	}
	if endLabel != "" {
		i := a.IndexOf(endLabel)
		if i < 0 {
			return 0, 0, apperrors.Condition(apperrors.ErrUnresolvedLabel, "end label %q", endLabel)
		}
		end = i
	}
	if start > end {
		start, end = end, start
	}
	return start, end, nil
}
