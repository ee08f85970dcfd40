package staging

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor periodically sweeps files abandoned in the staging area.
type Janitor struct {
	area   *Area
	ttl    time.Duration
	cron   *cron.Cron
	logger *zap.Logger
}

func NewJanitor(area *Area, schedule string, ttl time.Duration, logger *zap.Logger) (*Janitor, error) {
	j := &Janitor{
		area:   area,
		ttl:    ttl,
		cron:   cron.New(),
		logger: logger.Named("staging"),
	}
	if _, err := j.cron.AddFunc(schedule, j.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid staging sweep schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and waits for a running sweep until ctx is done.
func (j *Janitor) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (j *Janitor) RunOnce() {
	removed, err := j.area.Sweep(j.ttl)
	if err != nil {
		j.logger.Warn("staging sweep incomplete", zap.Int("removed", removed), zap.Error(err))
		return
	}
	if removed > 0 {
		j.logger.Info("removed stale staged files", zap.Int("removed", removed))
	}
}
