// Package scheduler runs the daily reminder job: it scans active loans for
// overdue and due-soon books and hands one reminder per loan to a Dispatcher.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/robinjoseph08/golib/logger"
	"go.uber.org/multierr"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/mail"
)

// DefaultDueSoonWindowDays is used when the configured window is not positive.
const DefaultDueSoonWindowDays = 5

type IssueScanner interface {
	Overdue(ctx context.Context, asOf time.Time) ([]entities.BookIssue, error)
	DueSoon(ctx context.Context, asOf time.Time, windowDays int) ([]entities.BookIssue, error)
}

// Dispatcher delivers a reminder, either inline or through the task queue.
type Dispatcher interface {
	Dispatch(ctx context.Context, r mail.Reminder) error
}

// Report summarizes one run. Err joins every dispatch failure.
type Report struct {
	Overdue    int
	DueSoon    int
	Dispatched int
	Failed     int
	Skipped    bool
	Err        error
}

type ReminderJob struct {
	issues     IssueScanner
	dispatcher Dispatcher
	cfg        config.Reminders
	log        logger.Logger
	now        func() time.Time

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	isSending bool
}

// NewReminderJob builds the job. A nil dispatcher means mail is not
// configured; runs are then skipped with a warning.
func NewReminderJob(issues IssueScanner, dispatcher Dispatcher, cfg config.Reminders) *ReminderJob {
	if cfg.DueSoonWindowDays <= 0 {
		cfg.DueSoonWindowDays = DefaultDueSoonWindowDays
	}
	return &ReminderJob{
		issues:     issues,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        logger.New(),
		now:        time.Now,
		cron:       cron.New(cron.WithLocation(time.UTC)),
	}
}

func (j *ReminderJob) WithClock(now func() time.Time) *ReminderJob {
	j.now = now
	return j
}

// Schedule is the cron expression for the daily run, in UTC.
func (j *ReminderJob) Schedule() string {
	return fmt.Sprintf("%d %d * * *", j.cfg.Minute, j.cfg.Hour)
}

// Start registers the daily run. It stops when ctx is cancelled.
func (j *ReminderJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.isRunning {
		return nil
	}
	if !j.cfg.Enabled {
		j.log.Info("reminder scheduler disabled")
		return nil
	}

	if j.entryID != 0 {
		j.cron.Remove(j.entryID)
	}
	entryID, err := j.cron.AddFunc(j.Schedule(), func() {
		if _, err := j.RunOnce(context.Background()); err != nil {
			j.log.Err(err).Error("reminder run failed")
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid reminder schedule %q", j.Schedule())
	}
	j.entryID = entryID

	j.cron.Start()
	j.isRunning = true
	j.log.Info("reminder scheduler started", logger.Data{
		"schedule": j.Schedule(),
		"next_run": j.cron.Entry(entryID).Next,
	})

	go func() {
		<-ctx.Done()
		j.Stop()
	}()
	return nil
}

// Stop waits for an in-flight run to finish.
func (j *ReminderJob) Stop() {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return
	}
	j.isRunning = false
	stopped := j.cron.Stop()
	j.mu.Unlock()

	// RunOnce takes j.mu, so wait outside the lock.
	<-stopped.Done()
	j.log.Info("reminder scheduler stopped")
}

func (j *ReminderJob) IsRunning() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.isRunning
}

// NextRun returns nil when the scheduler is not active.
func (j *ReminderJob) NextRun() *time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if !j.isRunning {
		return nil
	}
	next := j.cron.Entry(j.entryID).Next
	return &next
}

// RunOnce scans and dispatches immediately. A run that overlaps another is
// skipped. Dispatch failures are collected in Report.Err and do not stop
// the remaining reminders; only scan failures are returned as the error.
func (j *ReminderJob) RunOnce(ctx context.Context) (Report, error) {
	j.mu.Lock()
	if j.isSending {
		j.mu.Unlock()
		j.log.Warn("reminder run skipped, previous run still in progress")
		return Report{Skipped: true}, nil
	}
	j.isSending = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.isSending = false
		j.mu.Unlock()
	}()

	if j.dispatcher == nil {
		j.log.Warn("reminder run skipped, mail is not configured")
		return Report{Skipped: true}, nil
	}

	now := j.now().UTC()
	overdue, err := j.issues.Overdue(ctx, now)
	if err != nil {
		return Report{}, errors.Wrap(err, "scan overdue issues")
	}
	dueSoon, err := j.issues.DueSoon(ctx, now, j.cfg.DueSoonWindowDays)
	if err != nil {
		return Report{}, errors.Wrap(err, "scan due-soon issues")
	}

	report := Report{Overdue: len(overdue), DueSoon: len(dueSoon)}
	j.dispatchAll(ctx, &report, mail.ReminderOverdue, overdue)
	j.dispatchAll(ctx, &report, mail.ReminderDueSoon, dueSoon)

	j.log.Info("reminder run finished", logger.Data{
		"overdue":    report.Overdue,
		"due_soon":   report.DueSoon,
		"dispatched": report.Dispatched,
		"failed":     report.Failed,
	})
	return report, nil
}

func (j *ReminderJob) dispatchAll(ctx context.Context, report *Report, kind mail.ReminderKind, list []entities.BookIssue) {
	for _, issue := range list {
		if err := j.dispatcher.Dispatch(ctx, reminderFor(kind, issue)); err != nil {
			report.Failed++
			report.Err = multierr.Append(report.Err, errors.Wrapf(err, "issue %d", issue.ID))
			continue
		}
		report.Dispatched++
	}
}

func reminderFor(kind mail.ReminderKind, issue entities.BookIssue) mail.Reminder {
	r := mail.Reminder{
		Kind:    kind,
		IssueID: issue.ID,
		DueDate: issue.ExpectedReturnDate,
	}
	if issue.Student != nil {
		r.StudentName = issue.Student.Name
		r.StudentEmail = issue.Student.Email
	}
	if issue.Book != nil {
		r.BookTitle = issue.Book.Title
		r.BookISBN = issue.Book.ISBN
	}
	return r
}
