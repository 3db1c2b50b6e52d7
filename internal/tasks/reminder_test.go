package tasks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/mail"
)

type recordingSender struct {
	got chan mail.Reminder
}

func (s *recordingSender) Dispatch(_ context.Context, r mail.Reminder) error {
	s.got <- r
	return nil
}

type fakeCleaner struct {
	retention time.Duration
}

func (f *fakeCleaner) DeleteOldEvents(_ context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return 5, nil
}

func TestSendReminderTaskConfig(t *testing.T) {
	cfg := SendReminderTask{}.Config()

	assert.Equal(t, "send_reminder", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.NotNil(t, cfg.Retention)
}

func TestReminderEnqueuer_DeliversThroughQueue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "library.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	sender := &recordingSender{got: make(chan mail.Reminder, 1)}
	client.Register(NewSendReminderQueue(sender))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	due := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	err = NewReminderEnqueuer(client).Dispatch(ctx, mail.Reminder{
		Kind: mail.ReminderDueSoon, IssueID: 11, StudentEmail: "a@college.edu", DueDate: due,
	})
	require.NoError(t, err)

	select {
	case r := <-sender.got:
		assert.Equal(t, uint(11), r.IssueID)
		assert.Equal(t, mail.ReminderDueSoon, r.Kind)
		assert.True(t, r.DueDate.Equal(due))
	case <-time.After(5 * time.Second):
		t.Fatal("reminder was not processed within timeout")
	}
}

func TestCleanupAuditEvents_DefaultRetention(t *testing.T) {
	cleaner := &fakeCleaner{}

	deleted, err := CleanupAuditEvents(context.Background(), cleaner, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
	assert.Equal(t, DefaultAuditRetentionDays*24*time.Hour, cleaner.retention)

	_, err = CleanupAuditEvents(context.Background(), cleaner, 7)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cleaner.retention)
}

func TestCleanupProcessor_RequiresCleaner(t *testing.T) {
	err := CleanupAuditEventsProcessor(nil)(context.Background(), CleanupAuditEventsTask{})
	assert.Error(t, err)
}
