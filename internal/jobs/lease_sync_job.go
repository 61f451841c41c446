package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LeaseSyncJobName is the name of the lease expiry reconciliation job
const LeaseSyncJobName = "lease_sync"

// PropertyReconciler releases RENTED properties whose contracts have all lapsed.
// Implemented by service.PropertyStatusSynchronizer.
type PropertyReconciler interface {
	ReconcileExpired(ctx context.Context) (int, error)
}

// LeaseSyncJob moves properties back to AVAILABLE once their last contract ends.
// Contract writes already keep status in step; this catches leases that simply ran out.
type LeaseSyncJob struct {
	reconciler PropertyReconciler
	logger     *zap.Logger
	timeout    time.Duration
}

// NewLeaseSyncJob creates a new lease sync job
func NewLeaseSyncJob(reconciler PropertyReconciler, logger *zap.Logger, timeout time.Duration) *LeaseSyncJob {
	return &LeaseSyncJob{
		reconciler: reconciler,
		logger:     logger,
		timeout:    timeout,
	}
}

// Run executes one reconciliation pass
func (j *LeaseSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	released, err := j.reconciler.ReconcileExpired(ctx)
	if err != nil {
		j.logger.Error("lease sync failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("lease sync completed",
		zap.Int("properties_released", released),
		zap.Duration("duration", time.Since(start)))
}

// RegisterLeaseSyncJob registers the job and, if runOnStartup is set, runs one pass
// in the background so lapsed leases from downtime are caught without blocking startup.
func RegisterLeaseSyncJob(scheduler *Scheduler, reconciler PropertyReconciler, logger *zap.Logger, cronExpr string, timeout time.Duration, runOnStartup bool) error {
	job := NewLeaseSyncJob(reconciler, logger, timeout)
	if runOnStartup {
		go job.Run()
	}
	return scheduler.AddJob(LeaseSyncJobName, cronExpr, job.Run)
}
