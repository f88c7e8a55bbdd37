package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/jmamani/cooperativa-backend/pkg/logger"
	"github.com/jmamani/cooperativa-backend/pkg/metrics"
)

const defaultAuditRetentionDays = 90

const auditRetentionJobName = "audit-retention"

// auditPurger is the slice of the audit package the retention job drives.
type auditPurger interface {
	PurgeRecords(ctx context.Context, days int) (int64, error)
	PurgeInactiveSessions(ctx context.Context, days int) (int64, error)
}

// AuditRetentionJobParams configure the audit retention job.
type AuditRetentionJobParams struct {
	Logger        *logger.Logger
	Purger        auditPurger
	RetentionDays int
	Metrics       *metrics.CronJobMetrics
}

// NewAuditRetentionJob builds the job that trims old audit records and
// retired session rows.
func NewAuditRetentionJob(params AuditRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Purger == nil {
		return nil, fmt.Errorf("audit purger required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultAuditRetentionDays
	}
	return &auditRetentionJob{
		logg:      params.Logger,
		purger:    params.Purger,
		retention: retention,
		metrics:   params.Metrics,
	}, nil
}

type auditRetentionJob struct {
	logg      *logger.Logger
	purger    auditPurger
	retention int
	metrics   *metrics.CronJobMetrics
}

func (j *auditRetentionJob) Name() string { return auditRetentionJobName }

// Run purges both tables even when one fails; the errors are combined so a
// partial failure still reports fully.
func (j *auditRetentionJob) Run(ctx context.Context) error {
	var runErr error

	records, err := j.purger.PurgeRecords(ctx, j.retention)
	if err != nil {
		runErr = multierr.Append(runErr, fmt.Errorf("purging audit records: %w", err))
	} else if j.metrics != nil {
		j.metrics.AddPurged(auditRetentionJobName, "audit_records", records)
	}

	sessions, err := j.purger.PurgeInactiveSessions(ctx, j.retention)
	if err != nil {
		runErr = multierr.Append(runErr, fmt.Errorf("purging inactive sessions: %w", err))
	} else if j.metrics != nil {
		j.metrics.AddPurged(auditRetentionJobName, "user_sessions", sessions)
	}

	if runErr != nil {
		return runErr
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"retention_days":  j.retention,
		"records_purged":  records,
		"sessions_purged": sessions,
	})
	j.logg.Info(logCtx, "audit retention cleanup complete")
	return nil
}
