package percentile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chartdesk/pkg/contracts/domain"
)

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

func TestDifferences(t *testing.T) {
	tests := []struct {
		name   string
		values []*float64
		order  int
		want   []float64
	}{
		{"first order", vals(1, 3, 6, 10), 1, []float64{2, 3, 4}},
		{"second order", vals(1, 3, 6, 10), 2, []float64{1, 1}},
		{"third order", vals(1, 3, 6, 10), 3, []float64{0}},
		{"null drops the pair", vals(1, nil, 6, 10), 1, []float64{4}},
		{"null shrinks second order", vals(1, 2, nil, 7, 9), 2, []float64{1}},
		{"order exceeds length", vals(1, 2), 3, []float64{}},
		{"empty input", vals(), 2, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Differences(tt.values, tt.order))
		})
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		level  float64
		want   float64
	}{
		{"median of four interpolates", []float64{1, 2, 3, 4}, 50, 2.5},
		{"median of three exact", []float64{1, 2, 3}, 50, 2},
		{"unsorted input", []float64{4, 1, 3, 2}, 50, 2.5},
		{"zeroth percentile is min", []float64{5, 1, 9}, 0, 1},
		{"hundredth percentile is max", []float64{5, 1, 9}, 100, 9},
		{"quartile interpolation", []float64{1, 2, 3, 4}, 25, 1.75},
		{"single element", []float64{7}, 90, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.values, tt.level)
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}

	t.Run("empty input is nil", func(t *testing.T) {
		assert.Nil(t, Percentile(nil, 50))
	})
}

func TestRank(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		target float64
		want   float64
	}{
		{"tie weighted at half", []float64{1, 2, 2, 3}, 2, 50},
		{"below all", []float64{1, 2, 3}, 0, 0},
		{"above all", []float64{1, 2, 3}, 10, 100},
		{"single match", []float64{1, 2, 3, 4}, 3, 62.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rank(tt.values, tt.target)
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}

	t.Run("empty input is nil", func(t *testing.T) {
		assert.Nil(t, Rank(nil, 1))
	})
}

func TestBuckets(t *testing.T) {
	// Quadratic history: second differences are constant 2, higher orders 0.
	history := vals(0, 1, 4, 9, 16, 25, 36)

	buckets := Buckets(history)
	require.Len(t, buckets, len(Orders))

	byOrder := make(map[int]Bucket, len(buckets))
	for _, b := range buckets {
		assert.Equal(t, len(Levels), len(b.Values))
		byOrder[b.Order] = b
	}

	second := byOrder[2]
	med := second.Values[50]
	require.NotNil(t, med)
	assert.InDelta(t, 2.0, *med, 1e-9)
	require.NotNil(t, second.LatestRank)
	assert.InDelta(t, 50.0, *second.LatestRank, 1e-9)

	third := byOrder[3]
	require.NotNil(t, third.Values[50])
	assert.InDelta(t, 0.0, *third.Values[50], 1e-9)
}

func TestBucketsEmptyHistory(t *testing.T) {
	buckets := Buckets(nil)
	require.Len(t, buckets, len(Orders))
	for _, b := range buckets {
		for _, level := range Levels {
			assert.Nil(t, b.Values[level])
		}
		assert.Nil(t, b.LatestRank)
	}
}
