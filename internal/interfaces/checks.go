package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/library/internal/assistant"
	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/issues"
	"github.com/mrlokans/library/internal/database/stats"
	"github.com/mrlokans/library/internal/database/students"
	"github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/llm"
	"github.com/mrlokans/library/internal/mail"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/services"
	"github.com/mrlokans/library/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ services.BookStore = (*books.Repository)(nil)
var _ services.StudentStore = (*students.Repository)(nil)
var _ services.IssueStore = (*issues.Repository)(nil)
var _ services.AuditLogger = (*audit.Service)(nil)

// =============================================================================
// HTTP Layer
// =============================================================================

var _ http.BookManager = (*services.BookService)(nil)
var _ http.StudentManager = (*services.StudentService)(nil)
var _ http.IssueManager = (*services.IssueService)(nil)
var _ http.StatsProvider = (*stats.Repository)(nil)
var _ http.Assistant = (*assistant.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)

// =============================================================================
// Assistant
// =============================================================================

var _ llm.Client = (*llm.GeminiClient)(nil)
var _ assistant.SQLRunner = (*database.ReadOnlyQuerier)(nil)
var _ assistant.Auditor = (*audit.Service)(nil)
var _ assistant.Analytics = (*stats.Repository)(nil)
var _ assistant.BookFinder = (*books.Repository)(nil)
var _ assistant.StudentFinder = (*students.Repository)(nil)
var _ assistant.LoanFinder = (*issues.Repository)(nil)

// =============================================================================
// Reminders and Background Tasks
// =============================================================================

var _ mail.Mailer = (*mail.SMTPMailer)(nil)
var _ mail.ReminderAuditor = (*audit.Service)(nil)
var _ scheduler.IssueScanner = (*issues.Repository)(nil)
var _ scheduler.Dispatcher = (*mail.Notifier)(nil)
var _ scheduler.Dispatcher = (*tasks.ReminderEnqueuer)(nil)
var _ tasks.ReminderSender = (*mail.Notifier)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
