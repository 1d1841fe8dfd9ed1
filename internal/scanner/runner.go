package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner triggers one scan per day at a fixed local hour. It owns its
// goroutine; Start launches it and Stop waits for it to exit.
type Runner struct {
	scanner *Scanner
	hour    int
	clock   func() time.Time
	logger  *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type RunnerConfig struct {
	Scanner *Scanner
	Hour    int
	Clock   func() time.Time
	Logger  *zap.Logger
}

func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Scanner == nil {
		return nil, errors.New("scanner.runner.new: scanner is required")
	}
	if cfg.Hour < 0 || cfg.Hour > 23 {
		return nil, errors.New("scanner.runner.new: hour must be between 0 and 23")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Runner{
		scanner: cfg.Scanner,
		hour:    cfg.Hour,
		clock:   clock,
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start launches the daily loop. The context cancels any scan in flight.
func (r *Runner) Start(ctx context.Context) {
	go r.loop(ctx)
}

// Stop ends the loop and blocks until the goroutine has exited.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	timer := time.NewTimer(r.untilNextRun())
	defer timer.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			report, err := r.scanner.Scan(ctx)
			if err != nil {
				r.logger.Error("scheduled deadline scan failed", zap.Error(err))
			} else {
				r.logger.Info("scheduled deadline scan complete",
					zap.Int("sent", report.RemindersSent),
					zap.Int("duplicates", report.DuplicatesSkipped))
			}
			timer.Reset(r.untilNextRun())
		}
	}
}

func (r *Runner) untilNextRun() time.Duration {
	now := r.clock()
	next := time.Date(now.Year(), now.Month(), now.Day(), r.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
