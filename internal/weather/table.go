package weather

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// DateColumn is the name of the timestamp column of hourly and daily tables.
const DateColumn = "Date"

// Row is one decoded time step (or the single current snapshot).
type Row struct {
	Date   time.Time          // zero in current mode
	Values map[string]float64 // NaN marks a value the provider left empty
}

// Value returns the column value and whether it is present and not NaN.
func (r Row) Value(col string) (float64, bool) {
	v, ok := r.Values[col]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// DecodedTable is the labeled form of a provider reply.
type DecodedTable struct {
	Mode    Mode
	Columns []string // value columns in decode order, Date excluded
	Rows    []Row
}

// HasDate reports whether rows carry a Date.
func (t *DecodedTable) HasDate() bool {
	return t.Mode != ModeCurrent
}

// HasColumn reports whether the table carries a value column.
func (t *DecodedTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// HeaderColumns returns Date (when present) followed by the value columns.
func (t *DecodedTable) HeaderColumns() []string {
	if !t.HasDate() {
		return append([]string(nil), t.Columns...)
	}
	return append([]string{DateColumn}, t.Columns...)
}

type tableJSON struct {
	Mode    Mode             `json:"mode"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// MarshalJSON renders rows as objects keyed by column; empty values become null.
func (t *DecodedTable) MarshalJSON() ([]byte, error) {
	out := tableJSON{
		Mode:    t.Mode,
		Columns: t.HeaderColumns(),
		Rows:    make([]map[string]any, 0, len(t.Rows)),
	}
	for _, r := range t.Rows {
		obj := make(map[string]any, len(t.Columns)+1)
		if t.HasDate() {
			obj[DateColumn] = r.Date.Format(time.RFC3339)
		}
		for _, c := range t.Columns {
			if v, ok := r.Value(c); ok {
				obj[c] = v
			} else {
				obj[c] = nil
			}
		}
		out.Rows = append(out.Rows, obj)
	}
	return json.Marshal(out)
}

// String renders the table as aligned text with a leading row index.
// This is the form the summary model reads.
func (t *DecodedTable) String() string {
	header := append([]string{""}, t.HeaderColumns()...)
	cells := make([][]string, 0, len(t.Rows)+1)
	cells = append(cells, header)
	for i, r := range t.Rows {
		line := make([]string, 0, len(header))
		line = append(line, strconv.Itoa(i))
		if t.HasDate() {
			line = append(line, r.Date.Format("2006-01-02 15:04:05-07:00"))
		}
		for _, c := range t.Columns {
			line = append(line, formatValue(r.Values[c]))
		}
		cells = append(cells, line)
	}

	widths := make([]int, len(header))
	for _, line := range cells {
		for i, cell := range line {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for n, line := range cells {
		for i, cell := range line {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(runewidth.FillLeft(cell, widths[i]))
		}
		if n < len(cells)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
