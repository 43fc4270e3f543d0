package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "chartdesk/internal/errors"
	"chartdesk/pkg/contracts/domain"
)

// Grid is the parsed wide form of an input file: series names (rows) by
// period labels (columns) of nullable numbers.
type Grid struct {
	Columns []domain.Label
	Order   []string
	Rows    map[string][]*float64
}

// SeriesNames returns the series names in file order.
func (g *Grid) SeriesNames() []string {
	return append([]string(nil), g.Order...)
}

// Values returns the value array for a series, aligned with Columns, or
// false if the series is not present.
func (g *Grid) Values(seriesName string) ([]*float64, bool) {
	vs, ok := g.Rows[seriesName]
	return vs, ok
}

// Set stores a value at (seriesName, label). Unknown coordinates error.
func (g *Grid) Set(seriesName string, label domain.Label, value float64) error {
	row, ok := g.Rows[seriesName]
	if !ok {
		return apperrors.Condition(apperrors.ErrUnknownSeries, "series %q", seriesName)
	}
	for i, col := range g.Columns {
		if col == label {
			row[i] = &value
			return nil
		}
	}
	return apperrors.Condition(apperrors.ErrUnresolvedLabel, "label %q", label)
}

// ParseCSV parses a wide CSV input file. The header must include a Name
// column; every other header cell becomes a period-label column. Cells that
// do not parse as numbers are null.
func ParseCSV(r io.Reader) (*Grid, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRecords(records)
}

// ParseXLSX parses the first sheet of a wide XLSX input file with the same
// layout rules as ParseCSV.
func ParseXLSX(r io.Reader) (*Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return parseRecords(rows)
}

func parseRecords(records [][]string) (*Grid, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}

	header := records[0]
	nameIdx := -1
	for i, cell := range header {
		if strings.EqualFold(strings.TrimSpace(cell), "Name") {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("input file must include a Name column")
	}

	grid := &Grid{Rows: make(map[string][]*float64)}
	var colIdx []int
	for i, cell := range header {
		if i == nameIdx {
			continue
		}
		grid.Columns = append(grid.Columns, strings.TrimSpace(cell))
		colIdx = append(colIdx, i)
	}

	for _, record := range records[1:] {
		if nameIdx >= len(record) {
			continue
		}
		name := strings.TrimSpace(record[nameIdx])
		if name == "" {
			continue
		}
		if _, dup := grid.Rows[name]; dup {
			return nil, fmt.Errorf("duplicate series name %q", name)
		}

		values := make([]*float64, len(grid.Columns))
		for j, src := range colIdx {
			if src >= len(record) {
				continue
			}
			values[j] = parseCell(record[src])
		}
		grid.Rows[name] = values
		grid.Order = append(grid.Order, name)
	}

	if len(grid.Order) == 0 {
		return nil, fmt.Errorf("input file has no series rows")
	}
	return grid, nil
}

func parseCell(s string) *float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}
