package audit

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	auditRepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	// LogAsync writes from goroutines; one connection keeps SQLite from returning SQLITE_BUSY.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := auditRepo.NewRepository(db)
	svc := NewService(repo)

	return svc, db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventDelete,
		Action:      "book_delete",
		Description: "Deleted book: Dune",
		Status:      entities.AuditStatusSuccess,
	}

	err := svc.Log(context.Background(), event)
	require.NoError(t, err)

	var saved entities.AuditEvent
	err = db.First(&saved, event.ID).Error
	require.NoError(t, err)
	assert.Equal(t, "book_delete", saved.Action)
}

func TestService_LogIssueAndReturn(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogIssue(10, 3, 7)
	svc.LogReturn(10, 3, 7)
	svc.Wait()

	var events []entities.AuditEvent
	require.NoError(t, db.Where("entity_type = ? AND entity_id = ?", "book_issue", 10).Order("id").Find(&events).Error)
	require.Len(t, events, 2)
	assert.ElementsMatch(t, []entities.AuditEventType{entities.AuditEventIssue, entities.AuditEventReturn},
		[]entities.AuditEventType{events[0].EventType, events[1].EventType})
	assert.JSONEq(t, `{"book_id":3,"student_id":7}`, string(events[0].Metadata))
}

func TestService_LogReminder(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful send", func(t *testing.T) {
		svc.LogReminder("overdue", 1, "a@college.edu", nil)
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ?", "overdue_reminder").First(&event).Error)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
	})

	t.Run("failed send", func(t *testing.T) {
		svc.LogReminder("due_soon", 2, "b@college.edu", errors.New("smtp: connection refused"))
		svc.Wait()

		var event entities.AuditEvent
		require.NoError(t, db.Where("action = ?", "due_soon_reminder").First(&event).Error)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
		assert.Contains(t, event.ErrorMsg, "connection refused")
	})
}

func TestService_LogAssistantTruncatesQuestion(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogAssistant("webhook", strings.Repeat("q", 600), "SELECT 1", nil)
	svc.Wait()

	var event entities.AuditEvent
	require.NoError(t, db.Where("action = ?", "assistant_webhook").First(&event).Error)
	assert.Len(t, event.Description, 500)
	assert.True(t, strings.HasSuffix(event.Description, "..."))
	assert.Contains(t, string(event.Metadata), "SELECT 1")
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{
		EventType: entities.AuditEventIssue, Action: "old", Status: entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-100 * 24 * time.Hour),
	}))
	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{
		EventType: entities.AuditEventIssue, Action: "fresh", Status: entities.AuditStatusSuccess,
	}))

	deleted, err := svc.DeleteOldEvents(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var count int64
	require.NoError(t, db.Model(&entities.AuditEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
