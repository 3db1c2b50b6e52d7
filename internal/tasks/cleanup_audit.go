package tasks

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// DefaultAuditRetentionDays applies when a task carries no retention.
const DefaultAuditRetentionDays = 90

type AuditEventCleaner interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// CleanupAuditEventsTask removes audit events older than RetentionDays.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_audit_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func CleanupAuditEventsProcessor(cleaner AuditEventCleaner) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return errors.New("audit event cleaner not configured")
		}
		_, err := CleanupAuditEvents(ctx, cleaner, task.RetentionDays)
		return err
	}
}

// CleanupAuditEvents is shared by the queue processor and the CLI command.
func CleanupAuditEvents(ctx context.Context, cleaner AuditEventCleaner, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultAuditRetentionDays
	}
	retention := time.Duration(retentionDays) * 24 * time.Hour

	deleted, err := cleaner.DeleteOldEvents(ctx, retention)
	if err != nil {
		return 0, errors.Wrap(err, "cleanup audit events")
	}

	logger.FromContext(ctx).Info("cleaned up audit events", logger.Data{"deleted": deleted, "retention_days": retentionDays})
	return deleted, nil
}

func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner))
}
