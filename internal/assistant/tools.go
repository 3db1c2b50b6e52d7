package assistant

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/stats"
	"github.com/mrlokans/library/internal/database/students"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/llm"
)

const toolResultLimit = 10

type Analytics interface {
	OverdueCount(ctx context.Context, asOf time.Time) (int64, error)
	TopDepartment(ctx context.Context, from, to time.Time) (*stats.DepartmentBorrows, error)
	BooksAddedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type BookFinder interface {
	List(ctx context.Context, f books.Filter, offset, limit int) ([]entities.Book, int64, error)
}

type StudentFinder interface {
	GetByID(ctx context.Context, id uint) (*entities.Student, error)
	List(ctx context.Context, f students.Filter, offset, limit int) ([]entities.Student, int64, error)
}

type LoanFinder interface {
	ActiveForStudent(ctx context.Context, identifier string) ([]entities.BookIssue, error)
}

// Toolbox executes the fixed set of functions the model may call.
type Toolbox struct {
	analytics Analytics
	books     BookFinder
	students  StudentFinder
	loans     LoanFinder
	now       func() time.Time
}

func NewToolbox(analytics Analytics, books BookFinder, students StudentFinder, loans LoanFinder) *Toolbox {
	return &Toolbox{analytics: analytics, books: books, students: students, loans: loans, now: time.Now}
}

func str(desc string) *llm.Schema  { return &llm.Schema{Type: "string", Description: desc} }
func num(desc string) *llm.Schema  { return &llm.Schema{Type: "integer", Description: desc} }
func flag(desc string) *llm.Schema { return &llm.Schema{Type: "boolean", Description: desc} }

func object(props map[string]*llm.Schema) *llm.Schema {
	return &llm.Schema{Type: "object", Properties: props}
}

// Declarations describes the toolbox to the model.
func (t *Toolbox) Declarations() []llm.Tool {
	return []llm.Tool{{FunctionDeclarations: []llm.FunctionDeclaration{
		{
			Name:        "get_overdue_books_count",
			Description: "Gets the total number of book loans that are currently overdue.",
		},
		{
			Name:        "get_department_with_most_borrows_last_month",
			Description: "Identifies the department whose students borrowed the most books in the previous calendar month.",
		},
		{
			Name:        "get_new_books_added_this_week_count",
			Description: "Gets the number of books added to the library in the current week (Monday to Sunday).",
		},
		{
			Name:        "search_books",
			Description: "Searches the catalogue by title, author, category or ISBN.",
			Parameters: object(map[string]*llm.Schema{
				"title":          str("Part of the book title"),
				"author":         str("Part of the author name"),
				"category":       str("Part of the category"),
				"isbn":           str("Exact ISBN"),
				"available_only": flag("Only return books with copies available"),
			}),
		},
		{
			Name:        "get_student_details",
			Description: "Looks up a student by id, email or name.",
			Parameters: object(map[string]*llm.Schema{
				"student_id": num("Student id"),
				"email":      str("Student email"),
				"name":       str("Part of the student name"),
			}),
		},
		{
			Name:        "get_book_availability",
			Description: "Returns total and available copies of a book identified by id, title or ISBN.",
			Parameters: object(map[string]*llm.Schema{
				"book_id": num("Book id"),
				"title":   str("Part of the book title"),
				"isbn":    str("Exact ISBN"),
			}),
		},
		{
			Name:        "get_student_issued_books",
			Description: "Lists the books a student currently has on loan.",
			Parameters: object(map[string]*llm.Schema{
				"student_id":   num("Student id"),
				"email":        str("Student email"),
				"name":         str("Part of the student name"),
				"overdue_only": flag("Only return overdue loans"),
			}),
		},
	}}}
}

// Call runs the named tool. Unknown names and bad arguments are errors.
func (t *Toolbox) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	now := t.now().UTC()
	switch name {
	case "get_overdue_books_count":
		n, err := t.analytics.OverdueCount(ctx, now)
		if err != nil {
			return nil, err
		}
		return map[string]any{"overdue_books_count": n}, nil
	case "get_department_with_most_borrows_last_month":
		from, to := stats.LastMonth(now)
		return t.analytics.TopDepartment(ctx, from, to)
	case "get_new_books_added_this_week_count":
		from, to := stats.ThisWeek(now)
		n, err := t.analytics.BooksAddedBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return map[string]any{"new_books_count": n}, nil
	case "search_books":
		return t.searchBooks(ctx, args)
	case "get_student_details":
		return t.studentDetails(ctx, args)
	case "get_book_availability":
		return t.bookAvailability(ctx, args)
	case "get_student_issued_books":
		return t.studentIssuedBooks(ctx, args, now)
	default:
		return nil, errors.Errorf("unknown tool %q", name)
	}
}

type bookSummary struct {
	ID        uint    `json:"id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	ISBN      string  `json:"isbn"`
	Category  *string `json:"category,omitempty"`
	Total     int     `json:"num_copies_total"`
	Available int     `json:"num_copies_available"`
}

func summarize(list []entities.Book) []bookSummary {
	out := make([]bookSummary, 0, len(list))
	for _, b := range list {
		out = append(out, bookSummary{
			ID: b.ID, Title: b.Title, Author: b.Author, ISBN: b.ISBN, Category: b.Category,
			Total: b.NumCopiesTotal, Available: b.NumCopiesAvailable,
		})
	}
	return out
}

func (t *Toolbox) searchBooks(ctx context.Context, args map[string]any) (any, error) {
	f := books.Filter{
		Title:         argString(args, "title"),
		Author:        argString(args, "author"),
		Category:      argString(args, "category"),
		ISBN:          argString(args, "isbn"),
		AvailableOnly: argBool(args, "available_only"),
	}
	list, total, err := t.books.List(ctx, f, 0, toolResultLimit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"books": summarize(list), "total_matches": total}, nil
}

func (t *Toolbox) bookAvailability(ctx context.Context, args map[string]any) (any, error) {
	id, err := argUint(args, "book_id")
	if err != nil {
		return nil, err
	}
	f := books.Filter{ID: id, Title: argString(args, "title"), ISBN: argString(args, "isbn")}
	if f == (books.Filter{}) {
		return nil, errors.New("one of book_id, title or isbn is required")
	}
	list, _, err := t.books.List(ctx, f, 0, toolResultLimit)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.New("no matching book found")
	}
	return map[string]any{"books": summarize(list)}, nil
}

// findStudent resolves id, then email, then the first name match.
func (t *Toolbox) findStudent(ctx context.Context, args map[string]any) (*entities.Student, error) {
	id, err := argUint(args, "student_id")
	if err != nil {
		return nil, err
	}
	if id != 0 {
		s, err := t.students.GetByID(ctx, id)
		if err != nil {
			return nil, errors.Errorf("student with ID %d not found", id)
		}
		return s, nil
	}

	var f students.Filter
	switch {
	case argString(args, "email") != "":
		f.Email = argString(args, "email")
	case argString(args, "name") != "":
		f.Name = argString(args, "name")
	default:
		return nil, errors.New("one of student_id, email or name is required")
	}
	list, _, err := t.students.List(ctx, f, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.New("no matching student found")
	}
	return &list[0], nil
}

func (t *Toolbox) studentDetails(ctx context.Context, args map[string]any) (any, error) {
	return t.findStudent(ctx, args)
}

type loanSummary struct {
	IssueID            uint   `json:"issue_id"`
	BookID             uint   `json:"book_id"`
	Title              string `json:"title"`
	Author             string `json:"author"`
	IssueDate          string `json:"issue_date"`
	ExpectedReturnDate string `json:"expected_return_date"`
	IsOverdue          bool   `json:"is_overdue"`
}

func (t *Toolbox) studentIssuedBooks(ctx context.Context, args map[string]any, now time.Time) (any, error) {
	student, err := t.findStudent(ctx, args)
	if err != nil {
		return nil, err
	}
	loans, err := t.loans.ActiveForStudent(ctx, strconv.FormatUint(uint64(student.ID), 10))
	if err != nil {
		return nil, err
	}

	overdueOnly := argBool(args, "overdue_only")
	out := make([]loanSummary, 0, len(loans))
	for _, l := range loans {
		overdue := l.IsOverdue(now)
		if overdueOnly && !overdue {
			continue
		}
		s := loanSummary{
			IssueID:            l.ID,
			BookID:             l.BookID,
			IssueDate:          l.IssueDate.Format("2006-01-02"),
			ExpectedReturnDate: l.ExpectedReturnDate.Format("2006-01-02"),
			IsOverdue:          overdue,
		}
		if l.Book != nil {
			s.Title = l.Book.Title
			s.Author = l.Book.Author
		}
		out = append(out, s)
	}
	return map[string]any{"student_id": student.ID, "student_name": student.Name, "issued_books": out}, nil
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func argBool(args map[string]any, key string) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// argUint accepts JSON numbers and numeric strings. Missing keys give 0.
func argUint(args map[string]any, key string) (uint, error) {
	switch v := args[key].(type) {
	case nil:
		return 0, nil
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be a positive integer", key)
		}
		return uint(v), nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("%s must be a positive integer", key)
		}
		return uint(v), nil
	case string:
		if v == "" {
			return 0, nil
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a positive integer", key)
		}
		return uint(n), nil
	default:
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
}
