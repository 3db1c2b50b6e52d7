package entities

import (
	"time"

	"gorm.io/datatypes"
)

type AuditEventType string

const (
	AuditEventIssue     AuditEventType = "issue"
	AuditEventReturn    AuditEventType = "return"
	AuditEventDelete    AuditEventType = "delete"
	AuditEventReminder  AuditEventType = "reminder"
	AuditEventAssistant AuditEventType = "assistant"
	AuditEventCleanup   AuditEventType = "cleanup"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g., "book_issue", "overdue_reminder"
	Description string         `gorm:"size:500" json:"description"` // Human-readable summary
	EntityType  string         `gorm:"size:50" json:"entity_type"`  // "book", "student", "book_issue"
	EntityID    *uint          `gorm:"index" json:"entity_id,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
