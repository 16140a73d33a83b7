package app

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	backoffBase = 2 * time.Second
	maxBackoff  = 30 * time.Second
)

// Refresher fires a reload on a cron schedule. While loads keep failing it
// skips ticks until an exponential backoff has elapsed since the last one it
// let through.
type Refresher struct {
	cron     *cron.Cron
	trigger  func()
	failures func() int
	logger   *zap.Logger

	mu      sync.Mutex
	lastRun time.Time
	now     func() time.Time
}

// NewRefresher schedules trigger on spec. failures reports the current run
// of failed loads and may be nil.
func NewRefresher(spec string, trigger func(), failures func() int, logger *zap.Logger) (*Refresher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if failures == nil {
		failures = func() int { return 0 }
	}
	r := &Refresher{
		cron:     cron.New(),
		trigger:  trigger,
		failures: failures,
		logger:   logger,
		now:      time.Now,
	}
	if _, err := r.cron.AddFunc(spec, r.tick); err != nil {
		return nil, err
	}
	return r, nil
}

// Start runs the schedule in the background.
func (r *Refresher) Start() {
	r.logger.Info("starting refresher")
	r.cron.Start()
}

// Stop halts the schedule and waits for a running tick.
func (r *Refresher) Stop() {
	r.logger.Info("stopping refresher")
	<-r.cron.Stop().Done()
}

func (r *Refresher) tick() {
	r.mu.Lock()
	now := r.now()
	failures := r.failures()
	if failures > 0 && !r.lastRun.IsZero() && now.Sub(r.lastRun) < calculateBackoff(failures, backoffBase) {
		r.mu.Unlock()
		r.logger.Debug("refresh skipped during backoff", zap.Int("failures", failures))
		return
	}
	r.lastRun = now
	r.mu.Unlock()

	r.trigger()
}

// calculateBackoff doubles base per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
