package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/weather-dashboard/internal/cache"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/sony/gobreaker"
)

const defaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	cache    cache.Cache
	cacheTTL time.Duration
}

// OpenMeteoOption customizes an OpenMeteoProvider.
type OpenMeteoOption func(*OpenMeteoProvider)

// WithBaseURL points the provider at another endpoint (tests, self-hosted instances).
func WithBaseURL(u string) OpenMeteoOption {
	return func(p *OpenMeteoProvider) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// WithCache serves repeated requests from c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) OpenMeteoOption {
	return func(p *OpenMeteoProvider) {
		p.cache = c
		p.cacheTTL = ttl
	}
}

// WithBackoff overrides the retry schedule.
func WithBackoff(b BackoffConfig) OpenMeteoOption {
	return func(p *OpenMeteoProvider) {
		p.httpCfg.Backoff = b
	}
}

func NewOpenMeteoProvider(client *http.Client, opts ...OpenMeteoOption) *OpenMeteoProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	p := &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: defaultOpenMeteoURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      5,
				InitialInterval: 200 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// RequestURL renders the query string Open-Meteo is called with.
func (p *OpenMeteoProvider) RequestURL(spec weather.QuerySpec) string {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(spec.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(spec.Longitude, 'f', 4, 64))
	values.Set("timezone", spec.Timezone)
	values.Set("timeformat", "unixtime")
	values.Set("wind_speed_unit", spec.Units.WindSpeed)
	values.Set("temperature_unit", spec.Units.Temperature)
	values.Set("precipitation_unit", spec.Units.Precipitation)

	switch spec.Mode {
	case weather.ModeDaily:
		values.Set("daily", joinParams(spec.Fields))
		values.Set("start_date", spec.Bounds.Start.Format(weather.DateLayout))
		values.Set("end_date", spec.Bounds.End.Format(weather.DateLayout))
	case weather.ModeHourly:
		values.Set("hourly", joinParams(spec.Fields))
		values.Set("start_hour", spec.Bounds.Start.Format(weather.DateTimeLayout))
		values.Set("end_hour", spec.Bounds.End.Format(weather.DateTimeLayout))
	default:
		values.Set("current", joinParams(spec.Fields))
	}

	return fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, spec weather.QuerySpec) (*weather.RawResponse, error) {
	u := p.RequestURL(spec)

	if p.cache != nil {
		body, ok, err := p.cache.Get(ctx, u)
		if err != nil {
			log.Printf("openmeteo: cache read failed: %v", err)
		} else if ok {
			if raw, err := parseOpenMeteo(body, spec); err == nil {
				return raw, nil
			}
		}
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest, openMeteoReason)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openmeteo reply: %w", err)
	}

	raw, err := parseOpenMeteo(body, spec)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, u, body, p.cacheTTL); err != nil {
			log.Printf("openmeteo: cache write failed: %v", err)
		}
	}
	return raw, nil
}

func openMeteoReason(body []byte) string {
	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Reason
}

type openMeteoPayload struct {
	UTCOffsetSeconds     int                        `json:"utc_offset_seconds"`
	TimezoneAbbreviation string                     `json:"timezone_abbreviation"`
	Current              map[string]json.RawMessage `json:"current"`
	Hourly               map[string]json.RawMessage `json:"hourly"`
	Daily                map[string]json.RawMessage `json:"daily"`
}

// parseOpenMeteo reduces the keyed JSON reply to positional values following
// spec.Fields, the form the decoder consumes.
func parseOpenMeteo(body []byte, spec weather.QuerySpec) (*weather.RawResponse, error) {
	var payload openMeteoPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &weather.DecodeError{Reason: fmt.Sprintf("invalid openmeteo json: %v", err)}
	}

	raw := &weather.RawResponse{
		UTCOffsetSeconds:     payload.UTCOffsetSeconds,
		TimezoneAbbreviation: payload.TimezoneAbbreviation,
	}

	switch spec.Mode {
	case weather.ModeCurrent:
		snap, err := parseSnapshot(payload.Current, spec.Fields)
		if err != nil {
			return nil, err
		}
		raw.Current = snap
	case weather.ModeHourly:
		series, err := parseSeries(payload.Hourly, spec.Fields, 3600)
		if err != nil {
			return nil, err
		}
		raw.Series = series
	case weather.ModeDaily:
		series, err := parseSeries(payload.Daily, spec.Fields, 86400)
		if err != nil {
			return nil, err
		}
		raw.Series = series
	}
	return raw, nil
}

func parseSnapshot(section map[string]json.RawMessage, fields []string) (*weather.Snapshot, error) {
	if section == nil {
		return nil, &weather.DecodeError{Reason: "openmeteo reply has no current section"}
	}
	snap := &weather.Snapshot{Values: make([]float64, 0, len(fields))}
	if err := unmarshalField(section, "time", &snap.Time); err != nil {
		return nil, err
	}
	if err := unmarshalField(section, "interval", &snap.Interval); err != nil {
		return nil, err
	}
	for _, f := range fields {
		var v *float64
		if err := unmarshalField(section, f, &v); err != nil {
			return nil, err
		}
		snap.Values = append(snap.Values, valueOrNaN(v))
	}
	return snap, nil
}

// parseSeries reports one step per timestamp, spaced by the fixed interval of the
// mode, the same shape the provider declares for its binary format.
func parseSeries(section map[string]json.RawMessage, fields []string, interval int64) (*weather.Series, error) {
	if section == nil {
		return nil, &weather.DecodeError{Reason: "openmeteo reply has no time series section"}
	}
	var times []int64
	if err := unmarshalField(section, "time", &times); err != nil {
		return nil, err
	}

	series := &weather.Series{Interval: interval, Variables: make([][]float64, 0, len(fields))}
	if len(times) > 0 {
		series.Time = times[0]
		series.TimeEnd = times[0] + int64(len(times))*interval
	}
	for _, f := range fields {
		var values []*float64
		if err := unmarshalField(section, f, &values); err != nil {
			return nil, err
		}
		col := make([]float64, len(values))
		for i, v := range values {
			col[i] = valueOrNaN(v)
		}
		series.Variables = append(series.Variables, col)
	}
	return series, nil
}

func unmarshalField(section map[string]json.RawMessage, key string, dst any) error {
	msg, ok := section[key]
	if !ok {
		return &weather.DecodeError{Reason: fmt.Sprintf("openmeteo reply is missing %q", key)}
	}
	if err := json.Unmarshal(msg, dst); err != nil {
		return &weather.DecodeError{Reason: fmt.Sprintf("openmeteo field %q: %v", key, err)}
	}
	return nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
