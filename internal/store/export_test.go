package store

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSVRoundTrip(t *testing.T) {
	r := NewRegistry(testLogger())
	_, err := r.Add("macro.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	f, ok := r.Get("macro.csv")
	require.True(t, ok)
	require.NoError(t, f.Grid.Set("GDP", "2023-Q3", 104))

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, f))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\xef\xbb\xbf"), "export carries a UTF-8 BOM")

	grid, err := ParseCSV(strings.NewReader(strings.TrimPrefix(out, "\xef\xbb\xbf")))
	require.NoError(t, err)
	assert.Equal(t, f.Grid.Columns, grid.Columns)
	assert.Equal(t, f.Grid.Order, grid.Order)

	gdp, _ := grid.Values("GDP")
	require.NotNil(t, gdp[2])
	assert.Equal(t, 104.0, *gdp[2], "edit survives export")
}

func TestExportXLSXRoundTrip(t *testing.T) {
	r := NewRegistry(testLogger())
	_, err := r.Add("macro.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	f, ok := r.Get("macro.csv")
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, f))

	grid, err := ParseXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, f.Grid.Columns, grid.Columns)
	assert.Equal(t, f.Grid.Order, grid.Order)

	gdp, _ := grid.Values("GDP")
	require.NotNil(t, gdp[0])
	assert.Equal(t, 100.0, *gdp[0])
	assert.Nil(t, gdp[2], "null cells stay null through xlsx")
}
