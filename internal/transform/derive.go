package transform

// Derive computes the display view of raw under mode. The result has the
// same length as raw; positions whose required operands are missing are nil.
// anchorIndex is only consulted by the since-anchor modes and periodsPerYear
// only by the year-over-year modes.
func Derive(raw []*float64, mode Mode, periodsPerYear, anchorIndex int) []*float64 {
	out := make([]*float64, len(raw))

	switch mode {
	case ModeRaw:
		for i, v := range raw {
			out[i] = copyValue(v)
		}

	case ModeDelta, ModeYoY:
		lag := mode.Lag(periodsPerYear)
		for i := range raw {
			if i < lag || raw[i] == nil || raw[i-lag] == nil {
				continue
			}
			d := *raw[i] - *raw[i-lag]
			out[i] = &d
		}

	case ModeDeltaPercent, ModeYoYPercent:
		lag := mode.Lag(periodsPerYear)
		for i := range raw {
			if i < lag || raw[i] == nil || raw[i-lag] == nil || *raw[i-lag] == 0 {
				continue
			}
			p := (*raw[i] - *raw[i-lag]) / *raw[i-lag] * 100
			out[i] = &p
		}

	case ModeSinceAnchor:
		if anchorIndex < 0 || anchorIndex >= len(raw) || raw[anchorIndex] == nil {
			return out
		}
		base := *raw[anchorIndex]
		// Points strictly before the anchor are undefined, not negated.
		for i := anchorIndex; i < len(raw); i++ {
			if raw[i] == nil {
				continue
			}
			d := *raw[i] - base
			out[i] = &d
		}

	case ModeSinceAnchorPercent:
		if anchorIndex < 0 || anchorIndex >= len(raw) || raw[anchorIndex] == nil {
			return out
		}
		base := *raw[anchorIndex]
		if base == 0 {
			return out
		}
		for i := anchorIndex; i < len(raw); i++ {
			if raw[i] == nil {
				continue
			}
			p := (*raw[i] - base) / base * 100
			out[i] = &p
		}
	}

	return out
}

func copyValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
