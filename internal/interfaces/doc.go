// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BookStore, StudentStore, IssueStore: persistence behind the services
//     (internal/services/interfaces.go)
//   - AuditLogger: fire-and-forget audit trail (internal/services/interfaces.go)
//
// ## HTTP Interfaces
//
//   - BookManager, StudentManager, IssueManager, StatsProvider, Assistant,
//     AuditReader: what the controllers call (internal/http/stores.go)
//
// ## Assistant Interfaces
//
//   - llm.Client: one generateContent round trip (internal/llm/types.go)
//   - SQLRunner: read-only query execution (internal/assistant/service.go)
//   - Analytics, BookFinder, StudentFinder, LoanFinder: tool backends
//     (internal/assistant/tools.go)
//
// ## Reminder Interfaces
//
//   - mail.Mailer: delivers one rendered message (internal/mail/mailer.go)
//   - scheduler.IssueScanner: finds overdue and due-soon loans
//   - scheduler.Dispatcher: sends or enqueues one reminder. mail.Notifier sends
//     inline, tasks.ReminderEnqueuer hands the reminder to the queue.
//
// # Adding a New Reminder Channel
//
// To deliver reminders some other way (e.g., SMS):
//
//  1. Implement scheduler.Dispatcher
//
//     type SMSDispatcher struct {
//         client *twilio.Client
//     }
//
//     func (d *SMSDispatcher) Dispatch(ctx context.Context, r mail.Reminder) error
//
//     var _ scheduler.Dispatcher = (*SMSDispatcher)(nil)
//
//  2. Select it in entrypoint.App.reminderDispatcher
//
// # Adding a New Assistant Tool
//
//  1. Add a declaration to Toolbox.Declarations
//  2. Handle the name in Toolbox.Call, returning a JSON-friendly value
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
