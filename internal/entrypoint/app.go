package entrypoint

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"go.uber.org/multierr"

	"github.com/mrlokans/library/internal/assistant"
	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/issues"
	"github.com/mrlokans/library/internal/database/stats"
	"github.com/mrlokans/library/internal/database/students"
	"github.com/mrlokans/library/internal/llm"
	"github.com/mrlokans/library/internal/mail"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/services"
	"github.com/mrlokans/library/internal/tasks"
)

// assistantMaxRows caps every result set the text-to-SQL path reads.
const assistantMaxRows = 100

// App holds every long-lived component. The serve command and the
// one-shot CLI commands share it.
type App struct {
	Config *config.Config
	DB     *database.Database
	Audit  *audit.Service

	Books     *services.BookService
	Students  *services.StudentService
	Issues    *services.IssueService
	Stats     *stats.Repository
	Assistant *assistant.Service

	Reminders *scheduler.ReminderJob
	Tasks     *tasks.Client // nil when the queue is disabled

	log logger.Logger
}

// NewApp opens the database and wires the services on top of it.
func NewApp(cfg *config.Config) (*App, error) {
	log := logger.New()

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	bookRepo := books.NewRepository(db.DB)
	studentRepo := students.NewRepository(db.DB)
	issueRepo := issues.NewRepository(db.DB)
	statsRepo := stats.NewRepository(db.DB)

	app := &App{
		Config:   cfg,
		DB:       db,
		Audit:    auditService,
		Books:    services.NewBookService(bookRepo, auditService),
		Students: services.NewStudentService(studentRepo, auditService),
		Issues:   services.NewIssueService(issueRepo, auditService, cfg.Loans.DefaultLoanDays),
		Stats:    statsRepo,
		log:      log,
	}

	gemini := llm.NewGeminiClient(cfg.Assistant)
	if !gemini.Configured() {
		log.Warn("GEMINI_API_KEY is not set, the assistant will answer with a configuration notice")
	}
	app.Assistant = assistant.NewService(
		gemini,
		database.NewReadOnlyQuerier(db, assistantMaxRows),
		assistant.NewToolbox(statsRepo, bookRepo, studentRepo, issueRepo),
		assistant.NewConversationStore(cfg.Assistant.MaxConversations, cfg.Assistant.ConversationTTL),
		assistant.OptionsFromConfig(cfg.Assistant),
	).WithAudit(auditService)

	var notifier *mail.Notifier
	if cfg.Mail.Configured() {
		mailer, err := mail.NewSMTPMailer(cfg.Mail)
		if err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "configure mailer")
		}
		notifier = mail.NewNotifier(mailer, auditService)
	} else {
		log.Warn("mail is not configured, reminder emails will be skipped")
	}

	if cfg.Tasks.Enabled {
		client, err := tasks.NewClient(cfg.Database.Path, tasks.FromAppConfig(cfg.Tasks))
		if err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "create task client")
		}
		client.Register(tasks.NewCleanupAuditEventsQueue(auditService))
		if notifier != nil {
			client.Register(tasks.NewSendReminderQueue(notifier))
		}
		app.Tasks = client
	}

	app.Reminders = scheduler.NewReminderJob(issueRepo, app.reminderDispatcher(notifier), cfg.Reminders)

	return app, nil
}

// reminderDispatcher picks how reminders leave the process: queued when the
// task queue is available and asked for, otherwise sent inline. A nil return
// makes the job skip sending.
func (a *App) reminderDispatcher(notifier *mail.Notifier) scheduler.Dispatcher {
	if notifier == nil {
		return nil
	}
	if a.Config.Reminders.UseQueue && a.Tasks != nil {
		return tasks.NewReminderEnqueuer(a.Tasks)
	}
	return notifier
}

// Close stops background work and releases the databases.
func (a *App) Close(ctx context.Context) error {
	var errs error
	if a.Reminders != nil {
		a.Reminders.Stop()
	}
	if a.Tasks != nil {
		if !a.Tasks.Stop(ctx) {
			a.log.Warn("task workers did not stop before the shutdown deadline")
		}
		errs = multierr.Append(errs, a.Tasks.Close())
	}
	a.Audit.Wait()
	errs = multierr.Append(errs, a.DB.Close())
	return errs
}
