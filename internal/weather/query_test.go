package weather

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var london = Location{City: "London", Country: "United Kingdom", Latitude: 51.5085, Longitude: -0.1257}

func TestBuildCurrent(t *testing.T) {
	spec, err := Build(ModeCurrent, london, UnitSystem{WindSpeed: "kmh"}, []string{"temperature_2m"}, Bounds{})
	require.NoError(t, err)
	require.Equal(t, "auto", spec.Timezone)
	require.Equal(t, "mph", spec.Units.WindSpeed)
	require.Equal(t, "celsius", spec.Units.Temperature)
	require.Equal(t, ModeCurrent, spec.Mode)
	require.Equal(t, BoundsNone, spec.Bounds.Kind)
	require.Equal(t, london.Latitude, spec.Latitude)
}

func TestBuildRejectsStartAfterEnd(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	_, err := Build(ModeHourly, london, DefaultUnits, []string{"temperature_2m"}, DateTimeRange(start, end))
	var rangeErr *InvalidRangeError
	require.True(t, errors.As(err, &rangeErr))
	require.Equal(t, start, rangeErr.Start)

	_, err = Build(ModeDaily, london, DefaultUnits, []string{"rain_sum"}, DateRange(start, start.AddDate(0, 0, -1)))
	require.True(t, errors.As(err, &rangeErr))
}

func TestBuildAcceptsEqualBounds(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := Build(ModeDaily, london, DefaultUnits, []string{"rain_sum"}, DateRange(day, day))
	require.NoError(t, err)

	_, err = Build(ModeHourly, london, DefaultUnits, []string{"temperature_2m"}, DateTimeRange(day, day))
	require.NoError(t, err)

	// Same calendar day, later clock time on start: still a valid date range.
	_, err = Build(ModeDaily, london, DefaultUnits, []string{"rain_sum"}, DateRange(day.Add(20*time.Hour), day))
	require.NoError(t, err)
}

func TestBuildBoundsMustMatchMode(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		mode   Mode
		bounds Bounds
	}{
		{ModeCurrent, DateRange(day, day)},
		{ModeHourly, DateRange(day, day)},
		{ModeDaily, DateTimeRange(day, day)},
		{ModeDaily, Bounds{}},
		{ModeHourly, Bounds{Kind: BoundsDateTime, Start: day}},
	}
	for _, tc := range cases {
		_, err := Build(tc.mode, london, DefaultUnits, []string{"x"}, tc.bounds)
		require.ErrorIs(t, err, ErrBoundsMismatch, "mode %s bounds %s", tc.mode, tc.bounds.Kind)
	}
}

func TestBuildRequiresFields(t *testing.T) {
	_, err := Build(ModeCurrent, london, DefaultUnits, nil, Bounds{})
	require.ErrorIs(t, err, ErrNoFields)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Daily ")
	require.NoError(t, err)
	require.Equal(t, ModeDaily, m)

	_, err = ParseMode("weekly")
	require.Error(t, err)
}
