package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AuditRetentionJobName is the name of the audit log pruning job
const AuditRetentionJobName = "audit_retention"

// AuditPurger deletes audit entries older than the retention window.
// Implemented by service.AuditLogService.
type AuditPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

// AuditRetentionJob prunes the audit trail
type AuditRetentionJob struct {
	purger    AuditPurger
	retention time.Duration
	logger    *zap.Logger
	timeout   time.Duration
}

// NewAuditRetentionJob creates a job keeping retentionDays of audit history
func NewAuditRetentionJob(purger AuditPurger, retentionDays int, logger *zap.Logger, timeout time.Duration) *AuditRetentionJob {
	return &AuditRetentionJob{
		purger:    purger,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger,
		timeout:   timeout,
	}
}

// Run executes one purge
func (j *AuditRetentionJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	deleted, err := j.purger.PurgeOlderThan(ctx, j.retention)
	if err != nil {
		j.logger.Error("audit retention failed", zap.Error(err))
		return
	}
	j.logger.Info("audit retention completed",
		zap.Int64("entries_deleted", deleted),
		zap.Duration("retention", j.retention))
}

// RegisterAuditRetentionJob registers the job. A non-positive retention keeps
// the full history and registers nothing.
func RegisterAuditRetentionJob(scheduler *Scheduler, purger AuditPurger, retentionDays int, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	if retentionDays <= 0 {
		logger.Info("audit retention disabled")
		return nil
	}
	if err := scheduler.AddJob(AuditRetentionJobName, cronExpr, NewAuditRetentionJob(purger, retentionDays, logger, timeout).Run); err != nil {
		return fmt.Errorf("register audit retention: %w", err)
	}
	return nil
}
