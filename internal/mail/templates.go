package mail

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type ReminderKind string

const (
	ReminderOverdue ReminderKind = "overdue"
	ReminderDueSoon ReminderKind = "due_soon"
)

// ReminderData is the template context for both reminder emails.
type ReminderData struct {
	StudentName   string
	BookTitle     string
	BookISBN      string
	DueDate       string // YYYY-MM-DD
	CurrentDate   string // YYYY-MM-DD
	DaysRemaining int
}

func NewReminderData(studentName, title, isbn string, due, today time.Time) ReminderData {
	due = due.UTC()
	today = today.UTC()
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	todayDay := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return ReminderData{
		StudentName:   studentName,
		BookTitle:     title,
		BookISBN:      isbn,
		DueDate:       dueDay.Format("2006-01-02"),
		CurrentDate:   todayDay.Format("2006-01-02"),
		DaysRemaining: int(dueDay.Sub(todayDay).Hours() / 24),
	}
}

// Subject returns the subject line for a reminder of the given kind.
func Subject(kind ReminderKind, bookTitle string) string {
	if kind == ReminderOverdue {
		return "Overdue Book Reminder: " + bookTitle
	}
	return "Book Due Soon Reminder: " + bookTitle
}

func templateName(kind ReminderKind) string {
	if kind == ReminderOverdue {
		return "overdue_reminder.html"
	}
	return "due_soon_reminder.html"
}

// RenderReminder builds the subject and HTML body for one reminder.
func RenderReminder(kind ReminderKind, data ReminderData) (string, string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, templateName(kind), data); err != nil {
		return "", "", errors.Wrapf(err, "render %s reminder", kind)
	}
	return Subject(kind, data.BookTitle), buf.String(), nil
}
