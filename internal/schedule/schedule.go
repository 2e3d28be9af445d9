// Package schedule fires run triggers on a cron expression. It shares the
// trigger funnel with the watcher; the daemon applies the skip-when-active
// rule, not this package.
package schedule

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"cubby/internal/logging"
	"cubby/internal/services"
)

// Trigger is invoked on every firing of the configured expression.
type Trigger func()

// Scheduler wraps a single cron entry.
type Scheduler struct {
	expression string
	trigger    Trigger
	logger     *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// New builds a scheduler for one standard five-field cron expression.
func New(expression string, trigger Trigger, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		expression: expression,
		trigger:    trigger,
		logger:     logger,
	}
}

// Start validates the expression and begins firing. Non-blocking.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.expression, s.fire); err != nil {
		return services.Wrap(services.ErrConfiguration, "schedule", "register cron entry",
			fmt.Sprintf("invalid cron expression %q", s.expression), err)
	}
	c.Start()

	s.cron = c
	s.running = true
	s.logger.Info("schedule active", logging.String("cron", s.expression))
	return nil
}

// Stop halts firing and waits for any in-flight trigger callback to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

func (s *Scheduler) fire() {
	s.logger.Info("schedule fired", logging.String("cron", s.expression))
	if s.trigger != nil {
		s.trigger()
	}
}
