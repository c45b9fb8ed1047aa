package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Evicter drops expired entries and reports how many were removed.
type Evicter interface {
	EvictExpired() int
}

// Purger drops expired cache entries and reports how many were removed.
type Purger interface {
	Purge() int
}

// Scheduler periodically evicts idle sessions and expired cached replies.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sessions  Evicter
	cache     Purger // nil when the cache expires entries itself
	interval  time.Duration
}

// New creates a new Scheduler.
func New(sessions Evicter, cache Purger, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		sessions:  sessions,
		cache:     cache,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.sessions == nil && s.cache == nil {
		log.Println("scheduler: nothing to clean up; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 5
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce performs a single cleanup pass.
func (s *Scheduler) RunOnce() {
	var sessions, entries int
	if s.sessions != nil {
		sessions = s.sessions.EvictExpired()
	}
	if s.cache != nil {
		entries = s.cache.Purge()
	}
	if sessions > 0 || entries > 0 {
		log.Printf("scheduler: evicted %d sessions and %d cached replies", sessions, entries)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
