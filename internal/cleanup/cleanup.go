// Package cleanup prunes expired sessions from the database on a schedule.
package cleanup

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultInterval is the default time between cleanup sweeps.
const DefaultInterval = 1 * time.Hour

// ExpiredDeleter removes expired sessions from a backing store and reports
// how many were deleted.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Service deletes expired sessions on an interval so abandoned logins do
// not accumulate.
type Service struct {
	sessions ExpiredDeleter
	interval time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithInterval sets the time between sweeps.
func WithInterval(d time.Duration) Option {
	return func(s *Service) {
		s.interval = d
	}
}

// New creates a cleanup service over the given session store.
func New(sessions ExpiredDeleter, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOnce performs a single sweep and returns the number of sessions removed.
func (s *Service) RunOnce(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx)
}

// Run sweeps immediately, then on every interval until the context is
// cancelled. Sweep failures are logged and the loop keeps going.
func (s *Service) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	removed, err := s.RunOnce(ctx)
	if err != nil {
		log.WithError(err).Warn("session cleanup failed")
		return
	}
	if removed > 0 {
		log.WithField("sessions", removed).Info("removed expired sessions")
	}
}
