package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const defaultSheet = "Sheet1"

// SheetName returns the worksheet title for a table, e.g. "Daily".
func SheetName(t *weather.DecodedTable) string {
	m := string(t.Mode)
	if m == "" {
		return "Weather"
	}
	return strings.ToUpper(m[:1]) + m[1:]
}

// WriteXLSX writes a decoded table as a single-sheet workbook. Column headers
// carry the unit unitFor gives them (weather.UnitFor when nil); empty values
// are left blank.
func WriteXLSX(w io.Writer, t *weather.DecodedTable, unitFor func(string) string) error {
	if unitFor == nil {
		unitFor = weather.UnitFor
	}
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(t)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, 0, len(t.Columns)+1)
	for _, col := range t.HeaderColumns() {
		if unit := unitFor(col); unit != "" {
			col = fmt.Sprintf("%s (%s)", col, unit)
		}
		header = append(header, col)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, r := range t.Rows {
		row := i + 2
		col := 1
		if t.HasDate() {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return err
			}
			// Local wall-clock time; spreadsheets have no zone.
			if err := f.SetCellValue(sheet, cell, r.Date.Format("2006-01-02 15:04")); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
			col++
		}
		for _, name := range t.Columns {
			v, ok := r.Value(name)
			if ok {
				cell, err := excelize.CoordinatesToCellName(col, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return fmt.Errorf("write %s: %w", cell, err)
				}
			}
			col++
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	return f.Write(w)
}
