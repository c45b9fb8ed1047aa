package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// refreshRequest is the dashboard selection sent on every refresh.
type refreshRequest struct {
	City    string   `json:"city" validate:"required"`
	Country string   `json:"country" validate:"required"`
	Mode    string   `json:"mode" validate:"required"`
	Fields  []string `json:"fields" validate:"unique,dive,required"`
	Start   string   `json:"start"` // 2006-01-02 for daily, 2006-01-02T15:04 for hourly
	End     string   `json:"end"`
}

func (r *refreshRequest) bind(c *fiber.Ctx) error {
	if err := c.BodyParser(r); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	r.City = strings.TrimSpace(r.City)
	r.Country = strings.TrimSpace(r.Country)
	return validate.Struct(r)
}

// summaryRequest carries the user's context for a summary.
type summaryRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

func (r *summaryRequest) bind(c *fiber.Ctx) error {
	if err := c.BodyParser(r); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	r.Text = strings.TrimSpace(r.Text)
	return validate.Struct(r)
}

// window is the range of days the dashboard lets users pick: from the first
// day of the month two months back up to fifteen days ahead.
type window struct {
	Min time.Time
	Max time.Time
}

func windowAt(now time.Time) window {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return window{
		Min: time.Date(y, m-2, 1, 0, 0, 0, 0, time.UTC),
		Max: today.AddDate(0, 0, 15),
	}
}

func (w window) contains(t time.Time) bool {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !day.Before(w.Min) && !day.After(w.Max)
}

var errOutOfWindow = errors.New("date outside the selectable range")

// parseBounds turns the request range into query bounds for the mode. A
// missing start means today (or the current hour); a missing end means the
// start day for daily queries and one hour after start for hourly ones.
// End before start is left for the query builder to reject.
func parseBounds(mode weather.Mode, start, end string, now time.Time) (weather.Bounds, error) {
	if mode == weather.ModeCurrent {
		return weather.Bounds{}, nil
	}

	layout := weather.DateTimeLayout
	if mode == weather.ModeDaily {
		layout = weather.DateLayout
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, time.UTC)

	s := today
	if start != "" {
		parsed, err := time.Parse(layout, start)
		if err != nil {
			return weather.Bounds{}, fmt.Errorf("invalid start %q: use %s", start, layout)
		}
		s = parsed
	}

	var e time.Time
	switch {
	case end != "":
		parsed, err := time.Parse(layout, end)
		if err != nil {
			return weather.Bounds{}, fmt.Errorf("invalid end %q: use %s", end, layout)
		}
		e = parsed
	case mode == weather.ModeDaily:
		e = s
	default:
		e = s.Add(time.Hour)
	}

	w := windowAt(now)
	if !w.contains(s) || !w.contains(e) {
		return weather.Bounds{}, fmt.Errorf("%w: %s to %s", errOutOfWindow,
			w.Min.Format(weather.DateLayout), w.Max.Format(weather.DateLayout))
	}

	if mode == weather.ModeDaily {
		return weather.DateRange(s, e), nil
	}
	return weather.DateTimeRange(s, e), nil
}
