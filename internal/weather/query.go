package weather

import (
	"fmt"
	"time"
)

const timezoneAuto = "auto"

// Build assembles a QuerySpec from resolved wire fields and user bounds.
// Bounds must be absent for current mode, a date pair for daily and a datetime
// pair for hourly. Equal start and end are allowed; end before start is not.
func Build(mode Mode, loc Location, units UnitSystem, fields []string, bounds Bounds) (QuerySpec, error) {
	if len(fields) == 0 {
		return QuerySpec{}, ErrNoFields
	}

	var want BoundsKind
	switch mode {
	case ModeCurrent:
		want = BoundsNone
	case ModeHourly:
		want = BoundsDateTime
	case ModeDaily:
		want = BoundsDate
	default:
		return QuerySpec{}, fmt.Errorf("unknown mode %q", mode)
	}
	if bounds.Kind != want {
		return QuerySpec{}, fmt.Errorf("%w: %s query needs %s bounds, got %s", ErrBoundsMismatch, mode, want, bounds.Kind)
	}
	if want != BoundsNone {
		if bounds.Start.IsZero() || bounds.End.IsZero() {
			return QuerySpec{}, fmt.Errorf("%w: %s query needs both start and end", ErrBoundsMismatch, mode)
		}
		if start, end := orderedBounds(bounds); start.After(end) {
			return QuerySpec{}, &InvalidRangeError{Start: bounds.Start, End: bounds.End}
		}
	}

	// Wind speed is pinned so decoded values never depend on provider locale defaults.
	units.WindSpeed = DefaultUnits.WindSpeed
	if units.Temperature == "" {
		units.Temperature = DefaultUnits.Temperature
	}
	if units.Precipitation == "" {
		units.Precipitation = DefaultUnits.Precipitation
	}

	return QuerySpec{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Timezone:  timezoneAuto,
		Units:     units,
		Mode:      mode,
		Fields:    append([]string(nil), fields...),
		Bounds:    bounds,
	}, nil
}

// DateLayout and DateTimeLayout are the bound formats the provider accepts.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04"
)

// Date bounds compare by calendar day only.
func orderedBounds(b Bounds) (start, end time.Time) {
	if b.Kind == BoundsDate {
		return dayOf(b.Start), dayOf(b.End)
	}
	return b.Start, b.End
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
