package weather

import (
	"math"
	"time"
)

// cursor walks the positional slots of a reply in request order.
type cursor struct {
	pos       int
	remaining int
}

// take claims n consecutive slots and returns the index of the first one.
func (c *cursor) take(n int) (int, bool) {
	if n > c.remaining {
		return 0, false
	}
	start := c.pos
	c.pos += n
	c.remaining -= n
	return start, true
}

// slot binds a decoded column to a positional index of the reply.
type slot struct {
	column string
	index  int
}

// planSlots folds the requested fields over a cursor, expanding multi-parameter
// fields into consecutive slots. The plan must consume every slot of the reply.
func planSlots(m *FieldMapping, mode Mode, names []string, available int) ([]slot, error) {
	cur := cursor{remaining: available}
	plan := make([]slot, 0, available)
	seen := make(map[string]struct{}, available)

	for _, name := range names {
		cols, err := m.Columns(mode, name)
		if err != nil {
			return nil, err
		}
		first, ok := cur.take(len(cols))
		if !ok {
			return nil, decodeErrorf("field %q needs %d values at position %d, only %d left",
				name, len(cols), cur.pos, cur.remaining)
		}
		for i, col := range cols {
			if _, dup := seen[col]; dup {
				return nil, decodeErrorf("column %q requested twice", col)
			}
			seen[col] = struct{}{}
			plan = append(plan, slot{column: col, index: first + i})
		}
	}
	if cur.remaining != 0 {
		return nil, decodeErrorf("reply carries %d values, request consumed %d", available, cur.pos)
	}
	return plan, nil
}

// Decode turns a positional reply into a labeled table. names must be the same
// human field names, in the same order, that were resolved to build the request.
// On any shape mismatch no table is returned.
func Decode(m *FieldMapping, mode Mode, raw *RawResponse, names []string) (*DecodedTable, error) {
	if raw == nil {
		return nil, decodeErrorf("empty reply")
	}
	switch mode {
	case ModeCurrent:
		return decodeCurrent(m, raw, names)
	case ModeHourly, ModeDaily:
		return decodeSeries(m, mode, raw, names)
	default:
		return nil, decodeErrorf("unknown mode %q", mode)
	}
}

func decodeCurrent(m *FieldMapping, raw *RawResponse, names []string) (*DecodedTable, error) {
	if raw.Current == nil {
		return nil, decodeErrorf("reply has no current section")
	}
	plan, err := planSlots(m, ModeCurrent, names, len(raw.Current.Values))
	if err != nil {
		return nil, err
	}

	row := Row{Values: make(map[string]float64, len(plan))}
	cols := make([]string, 0, len(plan))
	for _, s := range plan {
		row.Values[s.column] = round2(raw.Current.Values[s.index])
		cols = append(cols, s.column)
	}
	return &DecodedTable{Mode: ModeCurrent, Columns: cols, Rows: []Row{row}}, nil
}

func decodeSeries(m *FieldMapping, mode Mode, raw *RawResponse, names []string) (*DecodedTable, error) {
	series := raw.Series
	if series == nil {
		return nil, decodeErrorf("reply has no %s section", mode)
	}
	if series.Interval <= 0 {
		return nil, decodeErrorf("non-positive interval %d", series.Interval)
	}
	if series.TimeEnd < series.Time {
		return nil, decodeErrorf("end %d precedes start %d", series.TimeEnd, series.Time)
	}
	if (series.TimeEnd-series.Time)%series.Interval != 0 {
		return nil, decodeErrorf("span %ds is not a whole number of %ds steps",
			series.TimeEnd-series.Time, series.Interval)
	}
	steps := series.Steps()

	plan, err := planSlots(m, mode, names, len(series.Variables))
	if err != nil {
		return nil, err
	}
	for _, s := range plan {
		if n := len(series.Variables[s.index]); n != steps {
			return nil, decodeErrorf("column %q has %d values, reply declares %d steps", s.column, n, steps)
		}
	}

	dates := dateRange(series, raw.UTCOffsetSeconds, raw.TimezoneAbbreviation)
	rows := make([]Row, steps)
	for i := range rows {
		rows[i] = Row{Date: dates[i], Values: make(map[string]float64, len(plan))}
	}
	cols := make([]string, 0, len(plan))
	for _, s := range plan {
		values := series.Variables[s.index]
		for i := range rows {
			rows[i].Values[s.column] = round2(values[i])
		}
		cols = append(cols, s.column)
	}
	return &DecodedTable{Mode: mode, Columns: cols, Rows: rows}, nil
}

// dateRange lists the step timestamps from Time, end-exclusive at TimeEnd,
// expressed in the location's zone.
func dateRange(s *Series, offsetSeconds int, abbrev string) []time.Time {
	if abbrev == "" {
		abbrev = "UTC"
		if offsetSeconds != 0 {
			abbrev = time.Unix(0, 0).In(time.FixedZone("", offsetSeconds)).Format("-07:00")
		}
	}
	zone := time.FixedZone(abbrev, offsetSeconds)
	step := time.Duration(s.Interval) * time.Second
	end := time.Unix(s.TimeEnd, 0)

	out := make([]time.Time, 0, s.Steps())
	for t := time.Unix(s.Time, 0); t.Before(end); t = t.Add(step) {
		out = append(out, t.In(zone))
	}
	return out
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*100) / 100
}
