package window

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	tests := []struct {
		name      string
		axisLen   int
		anchor    int
		lookback  int
		lookahead int
		want      Window
	}{
		{"centered fits", 100, 50, 12, 8, Window{38, 58}},
		{"clamped at start", 100, 3, 12, 8, Window{0, 11}},
		{"clamped at end", 20, 18, 12, 8, Window{6, 19}},
		{"tiny axis", 2, 0, 12, 8, Window{0, 1}},
		{"empty axis", 0, 0, 12, 8, Window{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Default(tt.axisLen, tt.anchor, tt.lookback, tt.lookahead))
		})
	}
}

func TestAdjust(t *testing.T) {
	current := Window{2, 6}

	tests := []struct {
		name       string
		start, end float64
		axisLen    int
		want       Window
	}{
		{"overshoot both ends clamps to full axis", -5, 1000, 10, Window{0, 9}},
		{"inverted bounds swap", 7.2, 1.9, 10, Window{2, 7}},
		{"rounds to nearest index", 2.4, 6.6, 10, Window{2, 7}},
		{"degenerate drag keeps span one", 4.1, 4.3, 10, Window{4, 4}},
		{"within bounds untouched", 3, 8, 10, Window{3, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Adjust(current, tt.start, tt.end, tt.axisLen))
		})
	}

	t.Run("nan input keeps current window", func(t *testing.T) {
		assert.Equal(t, current, Adjust(current, math.NaN(), 5, 10))
	})
}

func TestWindowSpanContains(t *testing.T) {
	w := Window{3, 7}
	assert.Equal(t, 5, w.Span())
	assert.True(t, w.Contains(3))
	assert.True(t, w.Contains(7))
	assert.False(t, w.Contains(8))
	assert.False(t, w.Contains(2))
}
