package mail

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// Reminder is everything needed to email one student about one loan.
type Reminder struct {
	Kind         ReminderKind `json:"kind"`
	IssueID      uint         `json:"issue_id"`
	StudentName  string       `json:"student_name"`
	StudentEmail string       `json:"student_email"`
	BookTitle    string       `json:"book_title"`
	BookISBN     string       `json:"book_isbn"`
	DueDate      time.Time    `json:"due_date"`
}

type ReminderAuditor interface {
	LogReminder(kind string, issueID uint, recipient string, err error)
}

// Notifier renders and sends reminders, recording each attempt.
type Notifier struct {
	mailer Mailer
	audit  ReminderAuditor
	log    logger.Logger
	now    func() time.Time
}

func NewNotifier(mailer Mailer, audit ReminderAuditor) *Notifier {
	return &Notifier{mailer: mailer, audit: audit, log: logger.New(), now: time.Now}
}

// WithClock overrides the clock used for the "current date" shown in emails.
func (n *Notifier) WithClock(now func() time.Time) *Notifier {
	n.now = now
	return n
}

// Dispatch sends a single reminder synchronously.
func (n *Notifier) Dispatch(ctx context.Context, r Reminder) error {
	if r.StudentEmail == "" {
		return errors.Errorf("issue %d: student has no email address", r.IssueID)
	}

	data := NewReminderData(r.StudentName, r.BookTitle, r.BookISBN, r.DueDate, n.now())
	subject, body, err := RenderReminder(r.Kind, data)
	if err == nil {
		err = n.mailer.Send(ctx, Message{
			To:      r.StudentEmail,
			ToName:  r.StudentName,
			Subject: subject,
			HTML:    body,
		})
	}

	if n.audit != nil {
		n.audit.LogReminder(string(r.Kind), r.IssueID, r.StudentEmail, err)
	}
	if err != nil {
		n.log.Err(err).Warn("reminder email failed", logger.Data{"issue_id": r.IssueID, "kind": r.Kind})
		return err
	}
	n.log.Info("reminder email sent", logger.Data{"issue_id": r.IssueID, "kind": r.Kind, "to": r.StudentEmail})
	return nil
}
