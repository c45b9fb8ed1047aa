package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/places"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/summary"
	"github.com/i474232898/weather-dashboard/internal/summary/groq"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var fixedNow = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

// fakeProvider answers every query with one value per requested field.
type fakeProvider struct {
	last weather.QuerySpec
	err  error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Fetch(_ context.Context, spec weather.QuerySpec) (*weather.RawResponse, error) {
	p.last = spec
	if p.err != nil {
		return nil, p.err
	}
	if spec.Mode == weather.ModeCurrent {
		values := make([]float64, len(spec.Fields))
		for i := range values {
			values[i] = float64(i) + 0.5
		}
		return &weather.RawResponse{Current: &weather.Snapshot{Time: fixedNow.Unix(), Values: values}}, nil
	}
	vars := make([][]float64, len(spec.Fields))
	for i := range vars {
		vars[i] = []float64{1, 2}
	}
	return &weather.RawResponse{Series: &weather.Series{
		Time: 1741564800, TimeEnd: 1741564800 + 2*86400, Interval: 86400, Variables: vars,
	}}, nil
}

type echoLLM struct{}

func (echoLLM) CreateResponse(_ context.Context, req groq.ResponseRequest) (groq.Response, error) {
	return groq.Response{Output: []groq.OutputItem{{
		Type:    "message",
		Content: []groq.OutputContent{{Type: "output_text", Text: "Dry with light winds."}},
	}}}, nil
}

func newTestApp(t *testing.T, prov weather.Provider) *fiber.App {
	t.Helper()
	sel := summary.NewModelSelector("normal-model", "fallback-model", time.Minute)
	t.Cleanup(sel.Stop)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": true, "message": err.Error()})
		},
	})
	RegisterRoutes(app, Deps{
		Weather:  weather.NewService(weather.DefaultFieldMapping(), prov),
		Places:   places.NewResolver(places.Default(), ""),
		Sessions: store.NewMemoryStore(10, time.Hour, 4),
		Summary:  summary.NewService(echoLLM{}, sel),
		Chart:    weather.ChartOptions{SnowfallRatio: weather.DefaultSnowfallRatio},
		Now:      func() time.Time { return fixedNow },
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func newSession(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, body := do(t, app, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["id"].(string)
}

func TestFieldsAndPlaces(t *testing.T) {
	app := newTestApp(t, &fakeProvider{})

	resp, body := do(t, app, http.MethodGet, "/api/v1/fields?mode=daily", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body["fields"], "Precipitation Sum")

	resp, _ = do(t, app, http.MethodGet, "/api/v1/fields?mode=weekly", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, app, http.MethodGet, "/api/v1/cities?country=United%20Kingdom", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body["cities"], "London")

	resp, _ = do(t, app, http.MethodGet, "/api/v1/cities", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, app, http.MethodGet, "/api/v1/model", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "normal-model", body["model"])
}

func TestRefreshDailyAndChart(t *testing.T) {
	prov := &fakeProvider{}
	app := newTestApp(t, prov)
	id := newSession(t, app)

	resp, body := do(t, app, http.MethodPost, "/api/v1/sessions/"+id+"/refresh",
		`{"city": "London", "country": "United Kingdom", "mode": "Daily", "fields": ["Precipitation Sum"], "start": "2025-03-10", "end": "2025-03-11"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.Equal(t, []string{"rain_sum", "showers_sum", "snowfall_sum"}, prov.last.Fields)
	require.InDelta(t, 51.50853, prov.last.Latitude, 1e-9)
	require.Len(t, body["precipitationTotals"], 2)

	resp, body = do(t, app, http.MethodGet, "/api/v1/sessions/"+id+"/chart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "daily", body["mode"])
}

func TestRefreshErrors(t *testing.T) {
	app := newTestApp(t, &fakeProvider{})
	id := newSession(t, app)
	path := "/api/v1/sessions/" + id + "/refresh"

	cases := map[string]struct {
		body string
		want int
	}{
		"end before start": {`{"city": "London", "country": "United Kingdom", "mode": "daily", "start": "2025-03-10", "end": "2025-03-09"}`, http.StatusBadRequest},
		"outside window":   {`{"city": "London", "country": "United Kingdom", "mode": "daily", "start": "2024-01-01"}`, http.StatusBadRequest},
		"bad layout":       {`{"city": "London", "country": "United Kingdom", "mode": "hourly", "start": "2025-03-10"}`, http.StatusBadRequest},
		"missing city":     {`{"country": "United Kingdom", "mode": "current"}`, http.StatusBadRequest},
		"unknown city":     {`{"city": "Atlantis", "country": "United Kingdom", "mode": "current"}`, http.StatusBadRequest},
		"unknown field":    {`{"city": "London", "country": "United Kingdom", "mode": "current", "fields": ["Pollen"]}`, http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp, body := do(t, app, http.MethodPost, path, tc.body)
			require.Equal(t, tc.want, resp.StatusCode, body)
		})
	}

	resp, _ := do(t, app, http.MethodPost, "/api/v1/sessions/missing/refresh", `{}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRefreshProviderFailure(t *testing.T) {
	app := newTestApp(t, &fakeProvider{err: weather.ErrProviderUnavailable})
	id := newSession(t, app)

	resp, body := do(t, app, http.MethodPost, "/api/v1/sessions/"+id+"/refresh",
		`{"city": "London", "country": "United Kingdom", "mode": "current"}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Equal(t, "weather data unavailable", body["message"])
}

func TestSummaryFlow(t *testing.T) {
	app := newTestApp(t, &fakeProvider{})
	id := newSession(t, app)
	path := "/api/v1/sessions/" + id + "/summary"

	resp, _ := do(t, app, http.MethodPost, path, `{"text": "going for a run"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode, "summary needs a table")

	resp, _ = do(t, app, http.MethodPost, "/api/v1/sessions/"+id+"/refresh",
		`{"city": "London", "country": "United Kingdom", "mode": "current", "fields": ["Temperature", "Wind Speed"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, app, http.MethodPost, path, `{"text": "going for a run"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Dry with light winds.", body["summary"])
	require.Equal(t, "success", body["outcome"])
	require.Len(t, body["chat"], 2)

	resp, _ = do(t, app, http.MethodPost, path, `{"text": ""}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportXLSX(t *testing.T) {
	app := newTestApp(t, &fakeProvider{})
	id := newSession(t, app)

	resp, _ := do(t, app, http.MethodGet, "/api/v1/sessions/"+id+"/export.xlsx", "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/api/v1/sessions/"+id+"/refresh",
		`{"city": "London", "country": "United Kingdom", "mode": "daily"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/api/v1/sessions/"+id+"/export.xlsx", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "London-daily.xlsx")
}

func TestParseBoundsDefaults(t *testing.T) {
	b, err := parseBounds(weather.ModeDaily, "2025-03-01", "", fixedNow)
	require.NoError(t, err)
	require.Equal(t, b.Start, b.End)

	b, err = parseBounds(weather.ModeHourly, "2025-03-01T06:00", "", fixedNow)
	require.NoError(t, err)
	require.Equal(t, time.Hour, b.End.Sub(b.Start))

	b, err = parseBounds(weather.ModeCurrent, "ignored", "", fixedNow)
	require.NoError(t, err)
	require.Equal(t, weather.BoundsNone, b.Kind)

	w := windowAt(fixedNow)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), w.Min)
	require.Equal(t, time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC), w.Max)
}

func TestRefreshRejectsRepeatedField(t *testing.T) {
	prov := &fakeProvider{}
	app := newTestApp(t, prov)
	id := newSession(t, app)

	resp, body := do(t, app, http.MethodPost, "/api/v1/sessions/"+id+"/refresh",
		`{"city": "London", "country": "United Kingdom", "mode": "current", "fields": ["Temperature", "Temperature"]}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	require.Empty(t, prov.last.Fields, "provider must not be called")
}

func TestRefreshStoresResolvedFields(t *testing.T) {
	app := newTestApp(t, &fakeProvider{})
	id := newSession(t, app)

	resp, _ := do(t, app, http.MethodPost, "/api/v1/sessions/"+id+"/refresh",
		`{"city": "London", "country": "United Kingdom", "mode": "current"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, app, http.MethodGet, "/api/v1/sessions/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	want := weather.DefaultFieldMapping().Options(weather.ModeCurrent)
	got := make([]string, 0, len(want))
	for _, f := range body["fields"].([]any) {
		got = append(got, f.(string))
	}
	require.Equal(t, want, got)
}

func TestDeleteSession(t *testing.T) {
	app := newTestApp(t, &fakeProvider{})
	id := newSession(t, app)

	resp, _ := do(t, app, http.MethodDelete, "/api/v1/sessions/"+id, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/api/v1/sessions/"+id, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, "/api/v1/sessions/"+id, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
