// Package reconcile schedules periodic ledger replays that flag stock drift.
package reconcile

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/inventory"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Job struct {
	uc        inventory.UseCase
	logger    logger.ZapLogger
	scheduler *cron.Cron
	timeout   time.Duration
}

func NewJob(uc inventory.UseCase, log logger.ZapLogger) *Job {
	return &Job{
		uc:        uc,
		logger:    log,
		scheduler: cron.New(cron.WithSeconds()),
		timeout:   time.Minute,
	}
}

// Schedule registers the job under a six-field cron spec and starts the scheduler.
func (j *Job) Schedule(spec string) error {
	if _, err := j.scheduler.AddFunc(spec, func() { j.RunOnce(context.Background()) }); err != nil {
		return err
	}
	j.scheduler.Start()
	j.logger.Info("reconciliation scheduled", zap.String("spec", spec))
	return nil
}

// RunOnce replays the ledger once and logs the outcome. It reports the drift count.
func (j *Job) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	drifts, err := j.uc.Reconcile(ctx)
	if err != nil {
		j.logger.Error("reconciliation failed", zap.Error(err))
		return 0
	}
	if len(drifts) > 0 {
		j.logger.Warn("reconciliation found drift",
			zap.Int("products", len(drifts)),
			zap.Duration("took", time.Since(start)),
		)
	} else {
		j.logger.Info("reconciliation clean", zap.Duration("took", time.Since(start)))
	}
	return len(drifts)
}

// Stop waits for a running reconciliation to finish.
func (j *Job) Stop() {
	<-j.scheduler.Stop().Done()
}
