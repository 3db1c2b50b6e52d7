package http

import (
	"github.com/mrlokans/library/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Books    BookManager
	Students StudentManager
	Issues   IssueManager
	Stats    StatsProvider
	Database *database.Database

	// Optional; routes are omitted when nil
	Assistant Assistant
	Audit     AuditReader

	// Applied to the assistant routes when set
	RateLimiter *RateLimiter

	APIPrefix      string
	AllowedOrigins []string

	// Application info
	Version string
}
