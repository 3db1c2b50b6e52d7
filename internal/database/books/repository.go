// Package books provides database operations for the book catalogue.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID(ctx, 123)
package books

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

// Filter narrows a book listing. Zero values are ignored.
type Filter struct {
	ID       uint
	Title    string
	Author   string
	Category string
	ISBN     string

	AvailableOnly bool
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID returns gorm.ErrRecordNotFound when the book does not exist.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *Repository) GetByISBN(ctx context.Context, isbn string) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.ID != 0 {
		q = q.Where("id = ?", f.ID)
	}
	if f.Title != "" {
		q = q.Where("LOWER(title) LIKE ?", likePattern(f.Title))
	}
	if f.Author != "" {
		q = q.Where("LOWER(author) LIKE ?", likePattern(f.Author))
	}
	if f.Category != "" {
		q = q.Where("LOWER(category) LIKE ?", likePattern(f.Category))
	}
	if f.ISBN != "" {
		q = q.Where("isbn = ?", f.ISBN)
	}
	if f.AvailableOnly {
		q = q.Where("num_copies_available > 0")
	}
	return q
}

// List returns one page of books matching f plus the total number of matches.
func (r *Repository) List(ctx context.Context, f Filter, offset, limit int) ([]entities.Book, int64, error) {
	var total int64
	if err := f.apply(r.db.WithContext(ctx).Model(&entities.Book{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []entities.Book
	err := f.apply(r.db.WithContext(ctx)).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update persists the given columns of book.
func (r *Repository) Update(ctx context.Context, book *entities.Book, columns ...string) error {
	return r.db.WithContext(ctx).Model(book).Select(columns).Updates(book).Error
}

// Delete removes the book row. Returns gorm.ErrRecordNotFound if nothing was deleted.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountIssues returns how many loans, active or returned, reference the book.
func (r *Repository) CountIssues(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.BookIssue{}).Where("book_id = ?", id).Count(&n).Error
	return n, err
}
