package session

import (
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultChatLimit is how many turns a chat log keeps.
const DefaultChatLimit = 4

// Role of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one message of the summary conversation.
type ChatTurn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ChatLog keeps the most recent turns, oldest first.
type ChatLog struct {
	Limit int        `json:"-"`
	Turns []ChatTurn `json:"turns"`
}

// Append adds a turn and drops the oldest ones beyond the limit.
func (c *ChatLog) Append(role Role, content string, at time.Time) {
	c.Turns = append(c.Turns, ChatTurn{Role: role, Content: content, At: at})
	limit := c.Limit
	if limit <= 0 {
		limit = DefaultChatLimit
	}
	if over := len(c.Turns) - limit; over > 0 {
		c.Turns = append([]ChatTurn(nil), c.Turns[over:]...)
	}
}

// Session is the per-user dashboard state: the selected location and mode,
// the last decoded table and the summary chat.
type Session struct {
	ID        string                `json:"id"`
	Location  weather.Location      `json:"location"`
	Mode      weather.Mode          `json:"mode"`
	Fields    []string              `json:"fields,omitempty"`
	Table     *weather.DecodedTable `json:"table,omitempty"`
	Chat      ChatLog               `json:"chat"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// New creates an empty session with a chat log of the given limit.
func New(id string, chatLimit int, now time.Time) *Session {
	return &Session{
		ID:        id,
		Mode:      weather.ModeCurrent,
		Chat:      ChatLog{Limit: chatLimit},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy safe to hand out of a store. The table is shared
// because decoded tables are never mutated once built.
func (s *Session) Clone() *Session {
	out := *s
	out.Fields = append([]string(nil), s.Fields...)
	out.Chat.Turns = append([]ChatTurn(nil), s.Chat.Turns...)
	return &out
}
