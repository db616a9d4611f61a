// Package cron runs the periodic store keepalive. Managed database tiers
// drop idle connections; a scheduled ping keeps both stores warm.
package cron

import (
	"context"
	"fmt"
	"time"

	rcron "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const pingTimeout = 10 * time.Second

// Pinger is anything with a health check worth scheduling.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Service struct {
	schedule string
	pingers  map[string]Pinger
	log      *zap.Logger
	cron     *rcron.Cron
}

// NewService creates a keepalive service. schedule is a cron spec, e.g.
// "@every 5m".
func NewService(schedule string, log *zap.Logger) *Service {
	return &Service{
		schedule: schedule,
		pingers:  make(map[string]Pinger),
		log:      log,
	}
}

// Register adds a named store to the keepalive round. Must be called before
// Start.
func (s *Service) Register(name string, p Pinger) {
	s.pingers[name] = p
}

func (s *Service) Start(ctx context.Context) error {
	s.cron = rcron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.pingAll(ctx)
	}); err != nil {
		return fmt.Errorf("register keepalive %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.Info("keepalive started",
		zap.String("schedule", s.schedule), zap.Int("stores", len(s.pingers)))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Service) pingAll(ctx context.Context) {
	for name, p := range s.pingers {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		if err := p.Ping(pingCtx); err != nil {
			s.log.Warn("keepalive ping failed", zap.String("store", name), zap.Error(err))
		} else {
			s.log.Debug("keepalive ping ok", zap.String("store", name))
		}
		cancel()
	}
}

func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
