package summary

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/summary/groq"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	normalModel   = "llama-3.3-70b-versatile"
	fallbackModel = "llama-3.1-8b-instant"
)

type scriptedClient struct {
	mu      sync.Mutex
	replies []error
	models  []string
	inputs  []string
}

func (c *scriptedClient) CreateResponse(_ context.Context, req groq.ResponseRequest) (groq.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = append(c.models, req.Model)
	c.inputs = append(c.inputs, req.Input)
	var err error
	if len(c.replies) > 0 {
		err = c.replies[0]
		c.replies = c.replies[1:]
	}
	if err != nil {
		return groq.Response{}, err
	}
	return groq.Response{Output: []groq.OutputItem{{
		Type:    "message",
		Content: []groq.OutputContent{{Type: "output_text", Text: "summary from " + req.Model}},
	}}}, nil
}

func rpm() error {
	return &groq.APIError{StatusCode: http.StatusTooManyRequests, Message: "Rate limit reached for model on requests per minute (RPM): Limit 30"}
}

func daily() error {
	return &groq.APIError{StatusCode: http.StatusTooManyRequests, Message: "Rate limit reached for model on requests per day (RPD): Limit 1000"}
}

func sampleTable() *weather.DecodedTable {
	return &weather.DecodedTable{
		Mode:    weather.ModeCurrent,
		Columns: []string{"Temperature"},
		Rows:    []weather.Row{{Values: map[string]float64{"Temperature": 21.46}}},
	}
}

func TestModelSelectorFallbackAndReset(t *testing.T) {
	sel := NewModelSelector(normalModel, fallbackModel, 20*time.Millisecond)
	defer sel.Stop()

	require.Equal(t, StateNormal, sel.State())
	require.Equal(t, normalModel, sel.Current())

	model, switched := sel.TripFallback()
	require.True(t, switched)
	require.Equal(t, fallbackModel, model)
	require.Equal(t, StateFallback, sel.State())

	_, switched = sel.TripFallback()
	require.False(t, switched, "already in fallback")

	require.Eventually(t, func() bool { return sel.State() == StateNormal }, time.Second, 5*time.Millisecond)
	require.Equal(t, normalModel, sel.Current())
}

func TestModelSelectorStopCancelsReset(t *testing.T) {
	sel := NewModelSelector(normalModel, fallbackModel, time.Hour)
	sel.TripFallback()
	sel.Stop()
	require.Equal(t, StateNormal, sel.State())
}

func TestShapeInput(t *testing.T) {
	req := Shape("  going cycling  ", "London", "United Kingdom", sampleTable())
	require.Equal(t, Instructions, req.Instructions)
	require.Contains(t, req.Input, "Country: United Kingdom, City: London\nContext: going cycling\nData:\n\n")
	require.Contains(t, req.Input, "21.46")
}

func TestSummarizeSuccess(t *testing.T) {
	client := &scriptedClient{}
	svc := NewService(client, NewModelSelector(normalModel, fallbackModel, time.Minute))

	res := svc.Summarize(context.Background(), "walk", "London", "United Kingdom", sampleTable())
	require.Equal(t, OutcomeSuccess, res.Outcome)
	require.Equal(t, "summary from "+normalModel, res.Text)
	require.Equal(t, []string{normalModel}, client.models)
}

func TestSummarizeMinuteLimitRetriesOnFallback(t *testing.T) {
	client := &scriptedClient{replies: []error{rpm()}}
	sel := NewModelSelector(normalModel, fallbackModel, time.Minute)
	defer sel.Stop()
	svc := NewService(client, sel)

	res := svc.Summarize(context.Background(), "walk", "London", "United Kingdom", sampleTable())
	require.Equal(t, OutcomeModelChanged, res.Outcome)
	require.Equal(t, fallbackModel, res.Model)
	require.Equal(t, []string{normalModel, fallbackModel}, client.models)
	require.Equal(t, client.inputs[0], client.inputs[1])
	require.Equal(t, StateFallback, sel.State())
}

func TestSummarizeMinuteLimitInFallback(t *testing.T) {
	client := &scriptedClient{replies: []error{rpm()}}
	sel := NewModelSelector(normalModel, fallbackModel, time.Minute)
	defer sel.Stop()
	sel.TripFallback()
	svc := NewService(client, sel)

	res := svc.Summarize(context.Background(), "walk", "London", "United Kingdom", sampleTable())
	require.Equal(t, OutcomeMinuteLimit, res.Outcome)
	require.Equal(t, MinuteLimitMessage, res.Text)
	require.Equal(t, []string{fallbackModel}, client.models)
}

func TestSummarizeTokenLimitAfterRetry(t *testing.T) {
	tpm := &groq.APIError{StatusCode: http.StatusTooManyRequests, Message: "tokens per minute (TPM): Limit 6000"}
	client := &scriptedClient{replies: []error{rpm(), tpm}}
	sel := NewModelSelector(normalModel, fallbackModel, time.Minute)
	defer sel.Stop()
	svc := NewService(client, sel)

	res := svc.Summarize(context.Background(), "walk", "London", "United Kingdom", sampleTable())
	require.Equal(t, OutcomeMinuteLimit, res.Outcome)
	require.Len(t, client.models, 2, "exactly one retry")
}

func TestSummarizeDailyLimit(t *testing.T) {
	client := &scriptedClient{replies: []error{daily()}}
	sel := NewModelSelector(normalModel, fallbackModel, time.Minute)
	svc := NewService(client, sel)

	res := svc.Summarize(context.Background(), "walk", "London", "United Kingdom", sampleTable())
	require.Equal(t, OutcomeDailyLimit, res.Outcome)
	require.Equal(t, DailyLimitMessage, res.Text)
	require.Equal(t, StateNormal, sel.State())
}

func TestSummarizeUnavailable(t *testing.T) {
	cases := map[string]error{
		"server error": &groq.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"},
		"transport":    errors.New("connection refused"),
	}
	for name, replyErr := range cases {
		t.Run(name, func(t *testing.T) {
			client := &scriptedClient{replies: []error{replyErr}}
			svc := NewService(client, NewModelSelector(normalModel, fallbackModel, time.Minute))

			res := svc.Summarize(context.Background(), "walk", "London", "United Kingdom", sampleTable())
			require.Equal(t, OutcomeUnavailable, res.Outcome)
			require.Equal(t, UnavailableMessage, res.Text)
		})
	}
}

func TestSummarizeWithoutClient(t *testing.T) {
	svc := NewService(nil, NewModelSelector(normalModel, fallbackModel, time.Minute))
	res := svc.Summarize(context.Background(), "walk", "London", "United Kingdom", sampleTable())
	require.Equal(t, OutcomeUnavailable, res.Outcome)
}
