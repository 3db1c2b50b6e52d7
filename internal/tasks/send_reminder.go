package tasks

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/pkg/errors"

	"github.com/mrlokans/library/internal/mail"
)

// SendReminderTask delivers one reminder email.
type SendReminderTask struct {
	Reminder mail.Reminder `json:"reminder"`
}

func (t SendReminderTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "send_reminder",
		MaxAttempts: 3,
		Backoff:     1 * time.Minute,
		Timeout:     1 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

type ReminderSender interface {
	Dispatch(ctx context.Context, r mail.Reminder) error
}

func SendReminderProcessor(sender ReminderSender) backlite.QueueProcessor[SendReminderTask] {
	return func(ctx context.Context, task SendReminderTask) error {
		if sender == nil {
			return errors.New("reminder sender not configured")
		}
		return sender.Dispatch(ctx, task.Reminder)
	}
}

func NewSendReminderQueue(sender ReminderSender) backlite.Queue {
	return backlite.NewQueue(SendReminderProcessor(sender))
}

// ReminderEnqueuer hands reminders to the queue instead of sending inline.
type ReminderEnqueuer struct {
	client *Client
}

func NewReminderEnqueuer(client *Client) *ReminderEnqueuer {
	return &ReminderEnqueuer{client: client}
}

func (e *ReminderEnqueuer) Dispatch(ctx context.Context, r mail.Reminder) error {
	_, err := e.client.Add(SendReminderTask{Reminder: r}).Ctx(ctx).Save()
	return errors.Wrapf(err, "enqueue %s reminder for issue %d", r.Kind, r.IssueID)
}
