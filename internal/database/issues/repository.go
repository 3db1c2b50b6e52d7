// Package issues implements the loan lifecycle: issuing a copy to a student,
// returning it, and the overdue / due-soon scans used by reminders.
//
// Issue and Return each run inside one transaction covering the book row and
// the issue row. The copy decrement is a conditional UPDATE, so two requests
// racing for the last copy cannot both succeed.
package issues

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/errcodes"
)

// DefaultLoanDays is used when IssueParams.LoanDays is not set.
const DefaultLoanDays = 14

type IssueParams struct {
	BookID             uint
	StudentID          uint
	ExpectedReturnDate *time.Time
	LoanDays           int
	Now                time.Time
}

type Repository struct {
	db  *gorm.DB
	log logger.Logger
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, log: logger.New()}
}

// expectedReturn normalizes the caller's date, or now+loanDays, to midnight UTC.
func expectedReturn(p IssueParams) time.Time {
	if p.ExpectedReturnDate != nil {
		return entities.StartOfDay(*p.ExpectedReturnDate)
	}
	days := p.LoanDays
	if days <= 0 {
		days = DefaultLoanDays
	}
	return entities.StartOfDay(p.Now.AddDate(0, 0, days))
}

func (r *Repository) Issue(ctx context.Context, p IssueParams) (*entities.BookIssue, error) {
	if p.Now.IsZero() {
		p.Now = time.Now()
	}
	p.Now = p.Now.UTC()

	var issue entities.BookIssue
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student entities.Student
		if err := tx.First(&student, p.StudentID).Error; err != nil {
			if database.IsNotFound(err) {
				return errcodes.NotFoundf("Student with ID %d", p.StudentID)
			}
			return err
		}

		var book entities.Book
		if err := tx.First(&book, p.BookID).Error; err != nil {
			if database.IsNotFound(err) {
				return errcodes.NotFoundf("Book with ID %d", p.BookID)
			}
			return err
		}

		noCopies := errcodes.BadRequest(fmt.Sprintf("Book '%s' (ID: %d) has no available copies.", book.Title, book.ID))
		if book.NumCopiesAvailable <= 0 {
			return noCopies
		}

		var active int64
		err := tx.Model(&entities.BookIssue{}).
			Where("book_id = ? AND student_id = ? AND is_returned = ?", book.ID, student.ID, false).
			Count(&active).Error
		if err != nil {
			return err
		}
		duplicate := errcodes.Conflict(fmt.Sprintf(
			"Student (ID: %d) already has an active issue for Book '%s' (ID: %d).", student.ID, book.Title, book.ID))
		if active > 0 {
			return duplicate
		}

		res := tx.Model(&entities.Book{}).
			Where("id = ? AND num_copies_available > 0", book.ID).
			Update("num_copies_available", gorm.Expr("num_copies_available - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return noCopies
		}
		book.NumCopiesAvailable--

		issue = entities.BookIssue{
			BookID:             book.ID,
			StudentID:          student.ID,
			IssueDate:          p.Now,
			ExpectedReturnDate: expectedReturn(p),
			IsReturned:         false,
		}
		if err := tx.Create(&issue).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return duplicate
			}
			return err
		}

		issue.Book = &book
		issue.Student = &student
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &issue, nil
}

func (r *Repository) Return(ctx context.Context, issueID uint, now time.Time) (*entities.BookIssue, error) {
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	var issue entities.BookIssue
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&issue, issueID).Error; err != nil {
			if database.IsNotFound(err) {
				return errcodes.NotFoundf("Book issue with ID %d", issueID)
			}
			return err
		}
		alreadyReturned := errcodes.BadRequest(fmt.Sprintf("Book issue ID %d has already been returned.", issueID))
		if issue.IsReturned {
			return alreadyReturned
		}

		res := tx.Model(&entities.BookIssue{}).
			Where("id = ? AND is_returned = ?", issue.ID, false).
			Updates(map[string]interface{}{"is_returned": true, "actual_return_date": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return alreadyReturned
		}
		issue.IsReturned = true
		issue.ActualReturnDate = &now

		var book entities.Book
		if err := tx.First(&book, issue.BookID).Error; err != nil {
			if database.IsNotFound(err) {
				return errcodes.NotFoundf("Book with ID %d related to issue ID %d", issue.BookID, issue.ID)
			}
			return err
		}

		if book.NumCopiesAvailable+1 > book.NumCopiesTotal {
			r.log.Warn("available copies would exceed total, capping", logger.Data{
				"book_id":   book.ID,
				"available": book.NumCopiesAvailable,
				"total":     book.NumCopiesTotal,
			})
		}
		err := tx.Model(&entities.Book{}).
			Where("id = ?", book.ID).
			Update("num_copies_available", gorm.Expr(
				"CASE WHEN num_copies_available + 1 > num_copies_total THEN num_copies_total ELSE num_copies_available + 1 END")).
			Error
		if err != nil {
			return err
		}
		if err := tx.First(&book, book.ID).Error; err != nil {
			return err
		}

		var student entities.Student
		if err := tx.First(&student, issue.StudentID).Error; err == nil {
			issue.Student = &student
		}
		issue.Book = &book
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &issue, nil
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.BookIssue, error) {
	var issue entities.BookIssue
	err := r.db.WithContext(ctx).Preload("Book").Preload("Student").First(&issue, id).Error
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *Repository) activeWithRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Book").
		Preload("Student").
		Where("is_returned = ?", false)
}

// Overdue returns active issues whose due date falls on a day before asOf (UTC),
// earliest first. An expected datetime is on an earlier day exactly when it is
// before midnight of asOf.
func (r *Repository) Overdue(ctx context.Context, asOf time.Time) ([]entities.BookIssue, error) {
	var list []entities.BookIssue
	err := r.activeWithRelations(ctx).
		Where("expected_return_date < ?", entities.StartOfDay(asOf)).
		Order("expected_return_date ASC").
		Find(&list).Error
	return list, err
}

// DueSoon returns active issues due in [start of asOf, start of asOf + windowDays + 1 days).
func (r *Repository) DueSoon(ctx context.Context, asOf time.Time, windowDays int) ([]entities.BookIssue, error) {
	start := entities.StartOfDay(asOf)
	end := start.AddDate(0, 0, windowDays+1)

	var list []entities.BookIssue
	err := r.activeWithRelations(ctx).
		Where("expected_return_date >= ? AND expected_return_date < ?", start, end).
		Order("expected_return_date ASC").
		Find(&list).Error
	return list, err
}

// ResolveStudent finds a student by numeric id first, then by roll number, email or phone.
func (r *Repository) ResolveStudent(ctx context.Context, identifier string) (*entities.Student, error) {
	db := r.db.WithContext(ctx)
	var student entities.Student

	if id, err := strconv.ParseUint(identifier, 10, 64); err == nil {
		err := db.First(&student, uint(id)).Error
		if err == nil {
			return &student, nil
		}
		if !database.IsNotFound(err) {
			return nil, err
		}
	}

	err := db.Where("roll_number = ? OR email = ? OR phone = ?", identifier, identifier, identifier).
		First(&student).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errcodes.NotFound(fmt.Sprintf("Student with identifier '%s'", identifier))
		}
		return nil, err
	}
	return &student, nil
}

// ActiveForStudent lists a student's unreturned loans, most recent first.
func (r *Repository) ActiveForStudent(ctx context.Context, identifier string) ([]entities.BookIssue, error) {
	student, err := r.ResolveStudent(ctx, identifier)
	if err != nil {
		return nil, err
	}

	var list []entities.BookIssue
	err = r.activeWithRelations(ctx).
		Where("student_id = ?", student.ID).
		Order("issue_date DESC").
		Find(&list).Error
	return list, err
}
