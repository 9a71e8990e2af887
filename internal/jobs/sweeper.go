// Package jobs runs the periodic maintenance tasks of the API process.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TokenClearer is implemented by repository.UserRepository
type TokenClearer interface {
	ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// LimiterCleaner is implemented by middleware.RateLimiter
type LimiterCleaner interface {
	Cleanup(maxIdle time.Duration) int
}

// Sweeper clears expired account tokens and idle rate limiters on a cron schedule
type Sweeper struct {
	cron    *cron.Cron
	users   TokenClearer
	limiter LimiterCleaner
	maxIdle time.Duration
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

func NewSweeper(users TokenClearer, limiter LimiterCleaner, log *zap.Logger) *Sweeper {
	cl := cronLogger{log: log.Sugar()}
	return &Sweeper{
		cron:    cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl)),
		users:   users,
		limiter: limiter,
		maxIdle: 30 * time.Minute,
		timeout: time.Minute,
		log:     log,
		now:     time.Now,
	}
}

// Start schedules the sweep and starts the cron runner
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("schedule token sweep %q: %w", schedule, err)
	}
	s.cron.Start()
	s.log.Info("Token sweeper started", zap.String("schedule", schedule))
	return nil
}

// Stop waits for a running sweep to finish or ctx to expire
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("Token sweeper did not stop in time")
	}
}

// Sweep runs one pass
func (s *Sweeper) Sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cleared, err := s.users.ClearExpiredTokens(ctx, s.now())
	if err != nil {
		s.log.Error("Failed to clear expired tokens", zap.Error(err))
	} else if cleared > 0 {
		prometheus.AddTokensSwept(cleared)
	}

	var limiters int
	if s.limiter != nil {
		limiters = s.limiter.Cleanup(s.maxIdle)
	}

	s.log.Info("Token sweep completed",
		zap.Int64("accounts_cleared", cleared),
		zap.Int("limiters_dropped", limiters))
}

// cronLogger routes cron's own logging through zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
