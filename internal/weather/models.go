package weather

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the shape of a weather query and the decode strategy for its reply.
type Mode string

const (
	ModeCurrent Mode = "current"
	ModeHourly  Mode = "hourly"
	ModeDaily   Mode = "daily"
)

// ParseMode accepts the mode names used by the dashboard ("Current", "hourly", ...).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCurrent:
		return ModeCurrent, nil
	case ModeHourly:
		return ModeHourly, nil
	case ModeDaily:
		return ModeDaily, nil
	default:
		return "", fmt.Errorf("unknown mode %q: must be current, hourly or daily", s)
	}
}

// Location represents the place a query is issued for.
// City/Country are display labels; coordinates drive the request.
type Location struct {
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Key returns a canonical string key for this location.
func (l Location) Key() string {
	return l.City + ":" + l.Country
}

// UnitSystem pins the provider units so decoded values are stable regardless of locale defaults.
type UnitSystem struct {
	Temperature   string `json:"temperature"`
	WindSpeed     string `json:"windSpeed"`
	Precipitation string `json:"precipitation"`
}

// DefaultUnits is the unit system every query is issued with.
var DefaultUnits = UnitSystem{
	Temperature:   "celsius",
	WindSpeed:     "mph",
	Precipitation: "mm",
}

// BoundsKind tells which kind of time bounds a query carries.
type BoundsKind int

const (
	BoundsNone BoundsKind = iota
	BoundsDate
	BoundsDateTime
)

func (k BoundsKind) String() string {
	switch k {
	case BoundsDate:
		return "date"
	case BoundsDateTime:
		return "datetime"
	default:
		return "none"
	}
}

// Bounds is the user-selected time range of an hourly or daily query.
type Bounds struct {
	Kind  BoundsKind
	Start time.Time
	End   time.Time
}

// DateRange builds date bounds; only the calendar day of start/end is transmitted.
func DateRange(start, end time.Time) Bounds {
	return Bounds{Kind: BoundsDate, Start: start, End: end}
}

// DateTimeRange builds hourly bounds.
func DateTimeRange(start, end time.Time) Bounds {
	return Bounds{Kind: BoundsDateTime, Start: start, End: end}
}

// QuerySpec is a fully validated request against the weather provider.
// Exactly one of current, hourly range or daily range is populated, matching Mode.
type QuerySpec struct {
	Latitude  float64
	Longitude float64
	Timezone  string
	Units     UnitSystem
	Mode      Mode
	Fields    []string // wire names, in transmit order
	Bounds    Bounds
}

// Snapshot holds the positional values of a current-mode reply.
type Snapshot struct {
	Time     int64
	Interval int64
	Values   []float64
}

// Series holds the positional value arrays of an hourly or daily reply.
type Series struct {
	Time      int64 // unix seconds, first step
	TimeEnd   int64 // unix seconds, exclusive
	Interval  int64 // seconds between steps
	Variables [][]float64
}

// Steps is the number of time steps the series declares.
func (s *Series) Steps() int {
	if s.Interval <= 0 || s.TimeEnd <= s.Time {
		return 0
	}
	return int((s.TimeEnd - s.Time) / s.Interval)
}

// RawResponse is the provider reply reduced to positional values.
// Values carry no field names; they follow the order of QuerySpec.Fields.
type RawResponse struct {
	UTCOffsetSeconds     int
	TimezoneAbbreviation string
	Current              *Snapshot
	Series               *Series
}
