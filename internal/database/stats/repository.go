// Package stats computes collection totals and the analytic aggregates the
// assistant exposes as tools.
package stats

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

type CollectionStats struct {
	TotalBooks      int64 `json:"total_books"`
	TotalStudents   int64 `json:"total_students"`
	CurrentlyIssued int64 `json:"currently_issued"`
}

type DepartmentBorrows struct {
	Department  string `json:"department"`
	BorrowCount int64  `json:"borrow_count"`
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Collection sums copies across titles. When every row has a zero total the
// number of book rows is reported instead.
func (r *Repository) Collection(ctx context.Context) (*CollectionStats, error) {
	db := r.db.WithContext(ctx)
	var out CollectionStats

	if err := db.Model(&entities.Book{}).Select("COALESCE(SUM(num_copies_total), 0)").Scan(&out.TotalBooks).Error; err != nil {
		return nil, err
	}
	if out.TotalBooks == 0 {
		if err := db.Model(&entities.Book{}).Count(&out.TotalBooks).Error; err != nil {
			return nil, err
		}
	}
	if err := db.Model(&entities.Student{}).Count(&out.TotalStudents).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entities.BookIssue{}).Where("is_returned = ?", false).Count(&out.CurrentlyIssued).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repository) OverdueCount(ctx context.Context, asOf time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.BookIssue{}).
		Where("is_returned = ? AND expected_return_date < ?", false, entities.StartOfDay(asOf)).
		Count(&n).Error
	return n, err
}

// LastMonth returns [first day of the previous calendar month, first day of this month).
func LastMonth(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return thisMonth.AddDate(0, -1, 0), thisMonth
}

// ThisWeek returns [Monday 00:00, next Monday 00:00) for the week containing now.
func ThisWeek(now time.Time) (time.Time, time.Time) {
	day := entities.StartOfDay(now)
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 7)
}

// TopDepartment returns the department whose students borrowed the most books
// in [from, to). With no borrows it returns "No borrows" and zero.
func (r *Repository) TopDepartment(ctx context.Context, from, to time.Time) (*DepartmentBorrows, error) {
	var rows []DepartmentBorrows
	err := r.db.WithContext(ctx).
		Table("book_issues").
		Select("students.department AS department, COUNT(book_issues.id) AS borrow_count").
		Joins("JOIN students ON students.id = book_issues.student_id").
		Where("book_issues.issue_date >= ? AND book_issues.issue_date < ?", from, to).
		Group("students.department").
		Order("borrow_count DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &DepartmentBorrows{Department: "No borrows", BorrowCount: 0}, nil
	}
	if rows[0].Department == "" {
		rows[0].Department = "Unknown/Not Specified"
	}
	return &rows[0], nil
}

func (r *Repository) BooksAddedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&n).Error
	return n, err
}
