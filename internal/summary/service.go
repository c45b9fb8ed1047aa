package summary

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/summary/groq"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// LLMClient is the subset of the Groq client the service needs.
type LLMClient interface {
	CreateResponse(ctx context.Context, req groq.ResponseRequest) (groq.Response, error)
}

type failure int

const (
	failureOther failure = iota
	failureMinute
	failureDaily
)

// classify maps a client error onto the rate-limit kinds. Rate-limit replies
// name their window in the message; RPM and TPM are per-minute, the rest daily.
func classify(err error) failure {
	var apiErr *groq.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
		return failureOther
	}
	if common.HasAny(apiErr.Message, "(RPM)", "(TPM)") {
		return failureMinute
	}
	return failureDaily
}

// Service produces natural-language summaries of decoded tables.
type Service struct {
	client   LLMClient
	selector *ModelSelector
}

// NewService wires a client and a model selector. A nil client makes every call unavailable.
func NewService(client LLMClient, selector *ModelSelector) *Service {
	return &Service{client: client, selector: selector}
}

// Selector exposes the model selector for status reporting.
func (s *Service) Selector() *ModelSelector {
	return s.selector
}

// Summarize never fails; errors become one of the fixed user-facing texts.
// A per-minute limit in the normal state switches to the fallback model and
// retries once.
func (s *Service) Summarize(ctx context.Context, userText, city, country string, table *weather.DecodedTable) Result {
	model := s.selector.Current()
	if s.client == nil {
		return Result{Text: UnavailableMessage, Model: model, Outcome: OutcomeUnavailable}
	}

	req := Shape(userText, city, country, table)
	text, err := s.call(ctx, model, req)
	if err == nil {
		return Result{Text: text, Model: model, Outcome: OutcomeSuccess}
	}

	switch classify(err) {
	case failureMinute:
		fallback, switched := s.selector.TripFallback()
		if !switched {
			log.Printf("INFO: minute rate limit on fallback model %s", model)
			return Result{Text: MinuteLimitMessage, Model: model, Outcome: OutcomeMinuteLimit}
		}
		log.Printf("INFO: minute rate limit on %s, switching to %s", model, fallback)
		text, err = s.call(ctx, fallback, req)
		if err == nil {
			return Result{Text: text, Model: fallback, Outcome: OutcomeModelChanged}
		}
		return s.failed(fallback, err)
	default:
		return s.failed(model, err)
	}
}

// failed maps an error that will not be retried.
func (s *Service) failed(model string, err error) Result {
	switch classify(err) {
	case failureMinute:
		log.Printf("INFO: minute rate limit on %s", model)
		return Result{Text: MinuteLimitMessage, Model: model, Outcome: OutcomeMinuteLimit}
	case failureDaily:
		log.Printf("INFO: daily rate limit on %s", model)
		return Result{Text: DailyLimitMessage, Model: model, Outcome: OutcomeDailyLimit}
	default:
		log.Printf("ERROR: summary request failed on %s: %v", model, err)
		return Result{Text: UnavailableMessage, Model: model, Outcome: OutcomeUnavailable}
	}
}

func (s *Service) call(ctx context.Context, model string, req Request) (string, error) {
	resp, err := s.client.CreateResponse(ctx, groq.ResponseRequest{
		Model:        model,
		Input:        req.Input,
		Instructions: req.Instructions,
	})
	if err != nil {
		return "", err
	}
	text, ok := resp.Text()
	if !ok {
		return "", errors.New("reply has no message output")
	}
	return text, nil
}
