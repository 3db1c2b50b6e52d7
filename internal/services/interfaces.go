package services

import (
	"context"
	"time"

	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/issues"
	"github.com/mrlokans/library/internal/database/students"
	"github.com/mrlokans/library/internal/entities"
)

// BookStore is the persistence the book service needs.
type BookStore interface {
	Create(ctx context.Context, book *entities.Book) error
	GetByID(ctx context.Context, id uint) (*entities.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*entities.Book, error)
	List(ctx context.Context, f books.Filter, offset, limit int) ([]entities.Book, int64, error)
	Update(ctx context.Context, book *entities.Book, columns ...string) error
	Delete(ctx context.Context, id uint) error
	CountIssues(ctx context.Context, id uint) (int64, error)
}

type StudentStore interface {
	Create(ctx context.Context, student *entities.Student) error
	GetByID(ctx context.Context, id uint) (*entities.Student, error)
	FindByUniqueFields(ctx context.Context, rollNumber, email, phone string, excludeID uint) ([]entities.Student, error)
	List(ctx context.Context, f students.Filter, offset, limit int) ([]entities.Student, int64, error)
	Update(ctx context.Context, student *entities.Student, columns ...string) error
	Delete(ctx context.Context, id uint) error
	CountIssues(ctx context.Context, id uint) (int64, error)
}

type IssueStore interface {
	Issue(ctx context.Context, p issues.IssueParams) (*entities.BookIssue, error)
	Return(ctx context.Context, issueID uint, now time.Time) (*entities.BookIssue, error)
	ActiveForStudent(ctx context.Context, identifier string) ([]entities.BookIssue, error)
}

// AuditLogger receives lifecycle events. Implemented by audit.Service.
type AuditLogger interface {
	LogIssue(issueID, bookID, studentID uint)
	LogReturn(issueID, bookID, studentID uint)
	LogDelete(entityType string, entityID uint, entityName string)
}

type noopAudit struct{}

func (noopAudit) LogIssue(uint, uint, uint)      {}
func (noopAudit) LogReturn(uint, uint, uint)     {}
func (noopAudit) LogDelete(string, uint, string) {}

func auditOrNoop(a AuditLogger) AuditLogger {
	if a == nil {
		return noopAudit{}
	}
	return a
}
