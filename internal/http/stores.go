package http

import (
	"context"

	"github.com/mrlokans/library/internal/assistant"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/stats"
	"github.com/mrlokans/library/internal/database/students"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/services"
)

// BookManager defines the book operations the HTTP layer needs.
type BookManager interface {
	Create(ctx context.Context, in services.BookCreateInput) (*entities.Book, error)
	Get(ctx context.Context, id uint) (*entities.Book, error)
	List(ctx context.Context, f books.Filter, p services.Pagination) (*services.BookList, error)
	Update(ctx context.Context, id uint, in services.BookUpdateInput) (*entities.Book, error)
	Delete(ctx context.Context, id uint) error
}

// StudentManager defines the student operations the HTTP layer needs.
type StudentManager interface {
	Create(ctx context.Context, in services.StudentCreateInput) (*entities.Student, error)
	Get(ctx context.Context, id uint) (*entities.Student, error)
	List(ctx context.Context, f students.Filter, p services.Pagination) (*services.StudentList, error)
	Update(ctx context.Context, id uint, in services.StudentUpdateInput) (*entities.Student, error)
	Delete(ctx context.Context, id uint) error
}

// IssueManager defines the loan operations the HTTP layer needs.
type IssueManager interface {
	Issue(ctx context.Context, in services.IssueCreateInput) (*services.IssueView, error)
	Return(ctx context.Context, issueID uint) (*services.IssueView, error)
	ActiveForStudent(ctx context.Context, identifier string) ([]services.IssueView, error)
}

type StatsProvider interface {
	Collection(ctx context.Context) (*stats.CollectionStats, error)
}

// Assistant answers natural-language questions, either in one shot or streamed.
type Assistant interface {
	Ask(ctx context.Context, question string) (*assistant.Answer, error)
	Stream(ctx context.Context, conversationID, question string) (string, <-chan assistant.Chunk, error)
}

type AuditReader interface {
	GetEvents(ctx context.Context, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
}
