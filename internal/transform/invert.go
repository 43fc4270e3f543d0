package transform

import (
	"math"
	"strconv"
	"strings"

	apperrors "chartdesk/internal/errors"
)

// ParseEditValue parses user input for a displayed-point edit. Thousands
// separators are tolerated; anything else non-numeric is reported as a
// distinct condition.
func ParseEditValue(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return 0, apperrors.Condition(apperrors.ErrNonNumericInput, "empty value")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperrors.Condition(apperrors.ErrNonNumericInput, "value %q", s)
	}
	return v, nil
}

// Invert solves the mode formula for raw[index] given the displayed value
// the user typed, holding every other raw value fixed. It returns the raw
// value to store; it does not mutate raw. Each failure is a distinct
// condition: missing required history or a zero divisor.
func Invert(mode Mode, raw []*float64, index int, displayed float64, periodsPerYear, anchorIndex int) (float64, error) {
	if index < 0 || index >= len(raw) {
		return 0, apperrors.Condition(apperrors.ErrInsufficientHistory, "index %d out of range", index)
	}

	switch mode {
	case ModeRaw:
		return displayed, nil

	case ModeDelta, ModeYoY:
		lag := mode.Lag(periodsPerYear)
		prior, err := lagValue(raw, index, lag)
		if err != nil {
			return 0, err
		}
		return prior + displayed, nil

	case ModeDeltaPercent, ModeYoYPercent:
		lag := mode.Lag(periodsPerYear)
		prior, err := lagValue(raw, index, lag)
		if err != nil {
			return 0, err
		}
		if prior == 0 {
			return 0, apperrors.Condition(apperrors.ErrZeroDivisor, "value at lag %d is zero", lag)
		}
		return prior * (1 + displayed/100), nil

	case ModeSinceAnchor, ModeSinceAnchorPercent:
		if index < anchorIndex {
			// The derived series is null before the anchor, so there is no
			// displayed value to solve for.
			return 0, apperrors.Condition(apperrors.ErrInsufficientHistory, "index %d precedes anchor %d", index, anchorIndex)
		}
		if anchorIndex < 0 || anchorIndex >= len(raw) || raw[anchorIndex] == nil {
			return 0, apperrors.Condition(apperrors.ErrInsufficientHistory, "no anchor value at index %d", anchorIndex)
		}
		base := *raw[anchorIndex]
		if mode == ModeSinceAnchor {
			return base + displayed, nil
		}
		if base == 0 {
			return 0, apperrors.Condition(apperrors.ErrZeroDivisor, "anchor value at index %d is zero", anchorIndex)
		}
		return base * (1 + displayed/100), nil
	}

	return 0, apperrors.Condition(apperrors.ErrNonNumericInput, "unknown mode %q", mode)
}

func lagValue(raw []*float64, index, lag int) (float64, error) {
	if index < lag {
		return 0, apperrors.Condition(apperrors.ErrInsufficientHistory, "index %d has no value at lag %d", index, lag)
	}
	if raw[index-lag] == nil {
		return 0, apperrors.Condition(apperrors.ErrInsufficientHistory, "missing value at index %d", index-lag)
	}
	return *raw[index-lag], nil
}
