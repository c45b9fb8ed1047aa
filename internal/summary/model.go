package summary

import (
	"sync"
	"time"
)

// State is the model-selection state.
type State int

const (
	StateNormal State = iota
	StateFallback
)

func (s State) String() string {
	if s == StateFallback {
		return "fallback"
	}
	return "normal"
}

// DefaultCooldown is how long the fallback model stays selected.
const DefaultCooldown = 60 * time.Second

// ModelSelector owns the model used for summary calls. After a per-minute rate
// limit it switches to the fallback model and schedules a reset to the normal
// model after the cooldown. Switching and scheduling happen under one lock.
type ModelSelector struct {
	mu       sync.Mutex
	normal   string
	fallback string
	state    State
	cooldown time.Duration
	reset    *time.Timer
}

// NewModelSelector creates a selector in the normal state.
func NewModelSelector(normal, fallback string, cooldown time.Duration) *ModelSelector {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &ModelSelector{
		normal:   normal,
		fallback: fallback,
		cooldown: cooldown,
	}
}

// Current returns the model name to issue the next call with.
func (m *ModelSelector) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelLocked()
}

// State returns the current state.
func (m *ModelSelector) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *ModelSelector) modelLocked() string {
	if m.state == StateFallback {
		return m.fallback
	}
	return m.normal
}

// TripFallback handles a per-minute rate limit. It returns the fallback model and
// true when it moved Normal to Fallback; in Fallback it changes nothing and
// returns false.
func (m *ModelSelector) TripFallback() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateFallback {
		return m.fallback, false
	}
	m.state = StateFallback
	if m.reset != nil {
		m.reset.Stop()
	}
	m.reset = time.AfterFunc(m.cooldown, m.restore)
	return m.fallback, true
}

// restore unconditionally returns to the normal model.
func (m *ModelSelector) restore() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateNormal
	m.reset = nil
}

// Stop cancels a pending reset and returns to the normal model.
func (m *ModelSelector) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reset != nil {
		m.reset.Stop()
		m.reset = nil
	}
	m.state = StateNormal
}
