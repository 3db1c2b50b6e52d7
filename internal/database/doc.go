// Package database provides the data access layer for the library.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres), migrations
//	├── readonly.go      # Read-only SELECT runner used by the assistant
//	├── books/           # Book catalogue CRUD and filtered listing
//	├── students/        # Student CRUD, uniqueness lookups
//	├── issues/          # Issue/return transactions, overdue and due-soon scans
//	├── stats/           # Collection statistics and analytic aggregates
//	└── audit/           # Audit event log
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	booksRepo := books.NewRepository(db.DB)
//	issuesRepo := issues.NewRepository(db.DB)
//
//	issue, err := issuesRepo.Issue(ctx, issues.IssueParams{BookID: 1, StudentID: 2})
//
// Repositories return gorm errors for lookups, and errcodes errors for business
// rule violations raised inside transactions.
package database
