package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/errcodes"
)

type BookCreateInput struct {
	Title              string  `json:"title" validate:"required,max=255"`
	Author             string  `json:"author" validate:"required,max=100"`
	ISBN               string  `json:"isbn" validate:"required,min=10,max=20"`
	NumCopiesTotal     int     `json:"num_copies_total" validate:"gt=0"`
	NumCopiesAvailable *int    `json:"num_copies_available" validate:"omitempty,gte=0"`
	Category           *string `json:"category" validate:"omitempty,max=50"`
}

// BookUpdateInput carries only the fields the client sent.
type BookUpdateInput struct {
	Title              *string `json:"title" validate:"omitempty,min=1,max=255"`
	Author             *string `json:"author" validate:"omitempty,min=1,max=100"`
	ISBN               *string `json:"isbn" validate:"omitempty,min=10,max=20"`
	NumCopiesTotal     *int    `json:"num_copies_total" validate:"omitempty,gt=0"`
	NumCopiesAvailable *int    `json:"num_copies_available" validate:"omitempty,gte=0"`
	Category           *string `json:"category" validate:"omitempty,max=50"`
}

func (in BookUpdateInput) empty() bool {
	return in.Title == nil && in.Author == nil && in.ISBN == nil &&
		in.NumCopiesTotal == nil && in.NumCopiesAvailable == nil && in.Category == nil
}

type BookList struct {
	Books []entities.Book `json:"books"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type BookService struct {
	store    BookStore
	audit    AuditLogger
	validate *validator.Validate
}

func NewBookService(store BookStore, audit AuditLogger) *BookService {
	return &BookService{store: store, audit: auditOrNoop(audit), validate: newValidator()}
}

func (s *BookService) Create(ctx context.Context, in BookCreateInput) (*entities.Book, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	available := in.NumCopiesTotal
	if in.NumCopiesAvailable != nil {
		available = *in.NumCopiesAvailable
	}
	if available > in.NumCopiesTotal {
		return nil, errcodes.ValidationError("num_copies_available cannot exceed num_copies_total")
	}

	if err := s.ensureISBNFree(ctx, in.ISBN); err != nil {
		return nil, err
	}

	book := &entities.Book{
		Title:              in.Title,
		Author:             in.Author,
		ISBN:               in.ISBN,
		NumCopiesTotal:     in.NumCopiesTotal,
		NumCopiesAvailable: available,
		Category:           in.Category,
	}
	if err := s.store.Create(ctx, book); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errcodes.Conflict(fmt.Sprintf("Book with ISBN %s already exists (database constraint).", in.ISBN))
		}
		return nil, errors.Wrap(err, "create book")
	}
	return book, nil
}

func (s *BookService) ensureISBNFree(ctx context.Context, isbn string) error {
	_, err := s.store.GetByISBN(ctx, isbn)
	if err == nil {
		return errcodes.Conflict(fmt.Sprintf("Book with ISBN %s already exists.", isbn))
	}
	if !database.IsNotFound(err) {
		return errors.Wrap(err, "look up isbn")
	}
	return nil
}

func (s *BookService) Get(ctx context.Context, id uint) (*entities.Book, error) {
	book, err := s.store.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errcodes.NotFoundf("Book with ID %d", id)
		}
		return nil, errors.Wrap(err, "get book")
	}
	return book, nil
}

func (s *BookService) List(ctx context.Context, f books.Filter, p Pagination) (*BookList, error) {
	list, total, err := s.store.List(ctx, f, p.Offset(), p.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "list books")
	}
	if list == nil {
		list = []entities.Book{}
	}
	return &BookList{Books: list, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

// Update applies the provided fields. A total below the current available
// count pulls available down to the new total.
func (s *BookService) Update(ctx context.Context, id uint, in BookUpdateInput) (*entities.Book, error) {
	if in.empty() {
		return nil, errcodes.EmptyUpdate()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if in.Title != nil {
		book.Title = *in.Title
		columns = append(columns, "title")
	}
	if in.Author != nil {
		book.Author = *in.Author
		columns = append(columns, "author")
	}
	if in.ISBN != nil && *in.ISBN != book.ISBN {
		if err := s.ensureISBNFree(ctx, *in.ISBN); err != nil {
			return nil, err
		}
		book.ISBN = *in.ISBN
		columns = append(columns, "isbn")
	}
	if in.Category != nil {
		book.Category = in.Category
		columns = append(columns, "category")
	}
	if in.NumCopiesTotal != nil {
		book.NumCopiesTotal = *in.NumCopiesTotal
		columns = append(columns, "num_copies_total")
	}
	if in.NumCopiesAvailable != nil {
		book.NumCopiesAvailable = *in.NumCopiesAvailable
		columns = append(columns, "num_copies_available")
	}
	if book.NumCopiesAvailable > book.NumCopiesTotal {
		book.NumCopiesAvailable = book.NumCopiesTotal
		columns = append(columns, "num_copies_available")
	}
	if len(columns) == 0 {
		return book, nil
	}

	if err := s.store.Update(ctx, book, columns...); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errcodes.Conflict(fmt.Sprintf("Book with ISBN %s already exists (database constraint).", book.ISBN))
		}
		return nil, errors.Wrap(err, "update book")
	}
	return book, nil
}

// Delete removes a book that has never been lent out.
func (s *BookService) Delete(ctx context.Context, id uint) error {
	book, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.store.CountIssues(ctx, id)
	if err != nil {
		return errors.Wrap(err, "count book issues")
	}
	if n > 0 {
		return errcodes.Conflict(fmt.Sprintf("Book with ID %d has %d issue record(s) and cannot be deleted.", id, n))
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if database.IsNotFound(err) {
			return errcodes.NotFoundf("Book with ID %d", id)
		}
		return errors.Wrap(err, "delete book")
	}
	s.audit.LogDelete("book", id, book.Title)
	return nil
}
