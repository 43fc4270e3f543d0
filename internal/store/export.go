package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ExportCSV writes a file's current grid, edits included, as wide CSV with
// a UTF-8 BOM for spreadsheet compatibility.
func ExportCSV(w io.Writer, f *InputFile) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	header := append([]string{"Name"}, f.Grid.Columns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, name := range f.Grid.Order {
		row, _ := f.Grid.Values(name)
		record := make([]string, 0, len(row)+1)
		record = append(record, name)
		for _, v := range row {
			record = append(record, formatCell(v))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %q: %w", name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportXLSX writes a file's current grid as a single-sheet workbook.
func ExportXLSX(w io.Writer, f *InputFile) error {
	book := excelize.NewFile()
	defer book.Close()

	sheet := book.GetSheetName(0)
	if err := book.SetCellValue(sheet, "A1", "Name"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, col := range f.Grid.Columns {
		cell, err := excelize.CoordinatesToCellName(i+2, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := book.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for r, name := range f.Grid.Order {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("row cell: %w", err)
		}
		if err := book.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("write series name: %w", err)
		}

		row, _ := f.Grid.Values(name)
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+2, r+2)
			if err != nil {
				return fmt.Errorf("value cell: %w", err)
			}
			if err := book.SetCellValue(sheet, cell, *v); err != nil {
				return fmt.Errorf("write value: %w", err)
			}
		}
	}

	if _, err := book.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
