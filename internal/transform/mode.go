package transform

import (
	"fmt"
)

// Mode selects the analytical view derived from a raw series.
type Mode string

const (
	// ModeRaw displays stored values unchanged.
	ModeRaw Mode = "raw"
	// ModeDelta displays period-over-period change.
	ModeDelta Mode = "delta"
	// ModeDeltaPercent displays period-over-period change in percent.
	ModeDeltaPercent Mode = "delta_percent"
	// ModeYoY displays change against the same period one year earlier.
	ModeYoY Mode = "yoy"
	// ModeYoYPercent displays year-over-year change in percent.
	ModeYoYPercent Mode = "yoy_percent"
	// ModeSinceAnchor displays change since the anchored baseline period.
	ModeSinceAnchor Mode = "since_anchor"
	// ModeSinceAnchorPercent displays change since the anchor in percent.
	ModeSinceAnchorPercent Mode = "since_anchor_percent"
)

// Modes lists every display mode in presentation order.
var Modes = []Mode{
	ModeRaw,
	ModeDelta,
	ModeDeltaPercent,
	ModeYoY,
	ModeYoYPercent,
	ModeSinceAnchor,
	ModeSinceAnchorPercent,
}

// ParseMode validates a mode string from a request.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown display mode %q", s)
}

// IsPercent reports whether the mode divides by a baseline value.
func (m Mode) IsPercent() bool {
	switch m {
	case ModeDeltaPercent, ModeYoYPercent, ModeSinceAnchorPercent:
		return true
	}
	return false
}

// Lag returns the index distance to the reference value for lag-based
// modes, or 0 for raw and anchor-based modes.
func (m Mode) Lag(periodsPerYear int) int {
	switch m {
	case ModeDelta, ModeDeltaPercent:
		return 1
	case ModeYoY, ModeYoYPercent:
		return periodsPerYear
	}
	return 0
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	return string(m)
}
