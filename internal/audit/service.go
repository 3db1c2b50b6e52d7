package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"gorm.io/datatypes"

	"github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
	log  logger.Logger
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo, log: logger.New()}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			s.log.Err(err).Warn("failed to log audit event", logger.Data{"action": event.Action})
		}
	}()
}

// Wait blocks until every pending LogAsync write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func metadata(values map[string]any) datatypes.JSON {
	b, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func withError(event *entities.AuditEvent, err error) *entities.AuditEvent {
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	return event
}

// LogIssue records a book being issued to a student.
func (s *Service) LogIssue(issueID, bookID, studentID uint) {
	s.LogAsync(&entities.AuditEvent{
		EventType:   entities.AuditEventIssue,
		Action:      "book_issue",
		Description: fmt.Sprintf("Issued book %d to student %d", bookID, studentID),
		EntityType:  "book_issue",
		EntityID:    &issueID,
		Metadata:    metadata(map[string]any{"book_id": bookID, "student_id": studentID}),
		Status:      entities.AuditStatusSuccess,
	})
}

// LogReturn records a loan being closed.
func (s *Service) LogReturn(issueID, bookID, studentID uint) {
	s.LogAsync(&entities.AuditEvent{
		EventType:   entities.AuditEventReturn,
		Action:      "book_return",
		Description: fmt.Sprintf("Student %d returned book %d", studentID, bookID),
		EntityType:  "book_issue",
		EntityID:    &issueID,
		Metadata:    metadata(map[string]any{"book_id": bookID, "student_id": studentID}),
		Status:      entities.AuditStatusSuccess,
	})
}

// LogDelete records a deletion event.
func (s *Service) LogDelete(entityType string, entityID uint, entityName string) {
	s.LogAsync(&entities.AuditEvent{
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: "Deleted " + entityType + ": " + entityName,
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogReminder records one reminder email attempt.
func (s *Service) LogReminder(kind string, issueID uint, recipient string, err error) {
	s.LogAsync(withError(&entities.AuditEvent{
		EventType:   entities.AuditEventReminder,
		Action:      kind + "_reminder",
		Description: "Reminder sent to " + recipient,
		EntityType:  "book_issue",
		EntityID:    &issueID,
		Status:      entities.AuditStatusSuccess,
	}, err))
}

// LogAssistant records a question put to the assistant and the query it ran, if any.
func (s *Service) LogAssistant(mode, question, sqlQuery string, err error) {
	md := map[string]any{"mode": mode}
	if sqlQuery != "" {
		md["sql"] = truncate(sqlQuery, 2000)
	}
	s.LogAsync(withError(&entities.AuditEvent{
		EventType:   entities.AuditEventAssistant,
		Action:      "assistant_" + mode,
		Description: truncate(question, 500),
		Metadata:    metadata(md),
		Status:      entities.AuditStatusSuccess,
	}, err))
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, eventType, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
