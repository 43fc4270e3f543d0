package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Name,2023-Q1,2023-Q2,2023-Q3,2023-Q4
GDP,100,102.5,,107
CPI,50,51,52,53
`

func TestParseCSV(t *testing.T) {
	grid, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"2023-Q1", "2023-Q2", "2023-Q3", "2023-Q4"}, grid.Columns)
	assert.Equal(t, []string{"GDP", "CPI"}, grid.Order)

	gdp, ok := grid.Values("GDP")
	require.True(t, ok)
	require.Len(t, gdp, 4)
	assert.Equal(t, 100.0, *gdp[0])
	assert.Equal(t, 102.5, *gdp[1])
	assert.Nil(t, gdp[2], "empty cell is null")
	assert.Equal(t, 107.0, *gdp[3])
}

func TestParseCSVEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"missing Name column", "Date,2023-Q1\nGDP,1\n", "Name column"},
		{"empty file", "", "empty"},
		{"header only", "Name,2023-Q1\n", "no series rows"},
		{"duplicate series", "Name,2023-Q1\nGDP,1\nGDP,2\n", "duplicate series"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseCSVTolerantCells(t *testing.T) {
	input := "Name,2023-Q1,2023-Q2\nGDP,\"1,234.5\",n/a\n"
	grid, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	gdp, _ := grid.Values("GDP")
	require.NotNil(t, gdp[0])
	assert.Equal(t, 1234.5, *gdp[0], "thousands separators are tolerated")
	assert.Nil(t, gdp[1], "non-numeric text is null")
}

func TestParseCSVShortRows(t *testing.T) {
	input := "Name,2023-Q1,2023-Q2\nGDP,7\n"
	grid, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	gdp, _ := grid.Values("GDP")
	require.Len(t, gdp, 2)
	assert.Equal(t, 7.0, *gdp[0])
	assert.Nil(t, gdp[1], "missing trailing cells are null")
}

func TestGridSet(t *testing.T) {
	grid, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.NoError(t, grid.Set("GDP", "2023-Q3", 104.25))
	gdp, _ := grid.Values("GDP")
	require.NotNil(t, gdp[2])
	assert.Equal(t, 104.25, *gdp[2])

	assert.Error(t, grid.Set("GNP", "2023-Q1", 1))
	assert.Error(t, grid.Set("GDP", "2099-Q1", 1))
}
