package summary

// Outcome classifies how a summary call ended.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeModelChanged Outcome = "model_changed"
	OutcomeMinuteLimit  Outcome = "minute_limit"
	OutcomeDailyLimit   Outcome = "daily_limit"
	OutcomeUnavailable  Outcome = "unavailable"
)

// User-facing texts shown instead of a summary.
const (
	DailyLimitMessage  = "You have reached your daily rate limit of AI responses.\nFor more summaries, please return in 24 hours."
	MinuteLimitMessage = "You have reached your minute rate limit of AI responses.\nFor more summaries, please wait 1 minute and then refresh."
	UnavailableMessage = "Sorry! There are currently issues with the Groq API, and so a summary could not be provided."
)

// Result is what the dashboard renders for a summary request.
type Result struct {
	Text    string  `json:"summary"`
	Model   string  `json:"model"`
	Outcome Outcome `json:"outcome"`
}
