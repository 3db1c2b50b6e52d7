package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/issues"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/mail"
)

type recordingDispatcher struct {
	sent []mail.Reminder
	fail map[uint]bool
}

func (d *recordingDispatcher) Dispatch(_ context.Context, r mail.Reminder) error {
	if d.fail[r.IssueID] {
		return errors.New("smtp down")
	}
	d.sent = append(d.sent, r)
	return nil
}

var today = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return entities.StartOfDay(today).AddDate(0, 0, offset)
}

func seedLoans(t *testing.T) *issues.Repository {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	student := &entities.Student{Name: "Meera", RollNumber: "R1", Department: "ECE", Semester: 2, Phone: "9000000001", Email: "meera@college.edu"}
	require.NoError(t, db.DB.Create(student).Error)

	repo := issues.NewRepository(db.DB)
	// Offsets relative to today: overdue, due today, edge of window, outside window.
	for i, offset := range []int{-3, 0, 5, 6} {
		book := &entities.Book{Title: "Book", Author: "A", ISBN: "97800000000" + string(rune('0'+i)), NumCopiesTotal: 1, NumCopiesAvailable: 1}
		require.NoError(t, db.DB.Create(book).Error)
		due := day(offset)
		_, err := repo.Issue(context.Background(), issues.IssueParams{
			BookID: book.ID, StudentID: student.ID, ExpectedReturnDate: &due, Now: today.AddDate(0, 0, -10),
		})
		require.NoError(t, err)
	}
	return repo
}

func TestRunOnce_DispatchesOverdueAndDueSoon(t *testing.T) {
	repo := seedLoans(t)
	d := &recordingDispatcher{}
	job := NewReminderJob(repo, d, config.Reminders{DueSoonWindowDays: 5}).WithClock(func() time.Time { return today })

	report, err := job.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Overdue)
	assert.Equal(t, 2, report.DueSoon)
	assert.Equal(t, 3, report.Dispatched)
	assert.Zero(t, report.Failed)
	assert.NoError(t, report.Err)

	require.Len(t, d.sent, 3)
	assert.Equal(t, mail.ReminderOverdue, d.sent[0].Kind)
	assert.Equal(t, "meera@college.edu", d.sent[0].StudentEmail)
	assert.Equal(t, "Meera", d.sent[0].StudentName)
	assert.True(t, d.sent[0].DueDate.Equal(day(-3)))
	assert.Equal(t, mail.ReminderDueSoon, d.sent[1].Kind)
	assert.Equal(t, mail.ReminderDueSoon, d.sent[2].Kind)
}

func TestRunOnce_CollectsFailures(t *testing.T) {
	repo := seedLoans(t)
	overdue, err := repo.Overdue(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	d := &recordingDispatcher{fail: map[uint]bool{overdue[0].ID: true}}
	job := NewReminderJob(repo, d, config.Reminders{DueSoonWindowDays: 5}).WithClock(func() time.Time { return today })

	report, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Dispatched)
	assert.Len(t, multierr.Errors(report.Err), 1)
}

func TestRunOnce_SkipsWithoutMail(t *testing.T) {
	job := NewReminderJob(nil, nil, config.Reminders{})

	report, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
}

func TestSchedule(t *testing.T) {
	job := NewReminderJob(nil, nil, config.Reminders{Hour: 9, Minute: 30})
	assert.Equal(t, "30 9 * * *", job.Schedule())
	assert.Equal(t, DefaultDueSoonWindowDays, job.cfg.DueSoonWindowDays)
}

func TestStartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	disabled := NewReminderJob(nil, nil, config.Reminders{Enabled: false})
	require.NoError(t, disabled.Start(ctx))
	assert.False(t, disabled.IsRunning())
	assert.Nil(t, disabled.NextRun())

	job := NewReminderJob(nil, &recordingDispatcher{}, config.Reminders{Enabled: true, Hour: 9})
	require.NoError(t, job.Start(ctx))
	assert.True(t, job.IsRunning())
	next := job.NextRun()
	require.NotNil(t, next)
	assert.Equal(t, 9, next.UTC().Hour())

	job.Stop()
	assert.False(t, job.IsRunning())
}
