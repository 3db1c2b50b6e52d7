package assistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/stats"
	"github.com/mrlokans/library/internal/database/students"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/llm"
)

// scriptedLLM replays responses in order and repeats the last one.
type scriptedLLM struct {
	mu         sync.Mutex
	responses  []*llm.Response
	errs       []error
	requests   []llm.Request
	notEnabled bool
}

func (f *scriptedLLM) Configured() bool { return !f.notEnabled }

func (f *scriptedLLM) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.requests)
	f.requests = append(f.requests, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func textResp(text string) *llm.Response {
	return &llm.Response{Candidates: []llm.Candidate{{Content: llm.Content{Role: llm.RoleModel, Parts: []llm.Part{{Text: text}}}}}}
}

func callResp(name string, args map[string]any) *llm.Response {
	return &llm.Response{Candidates: []llm.Candidate{{Content: llm.Content{
		Role:  llm.RoleModel,
		Parts: []llm.Part{{FunctionCall: &llm.FunctionCall{Name: name, Args: args}}},
	}}}}
}

type fakeRunner struct {
	dialect string
	rows    []map[string]any
	err     error
	queries []string
}

func (f *fakeRunner) Dialect() string { return f.dialect }

func (f *fakeRunner) Query(_ context.Context, q string) ([]map[string]any, error) {
	f.queries = append(f.queries, q)
	return f.rows, f.err
}

type fakeAnalytics struct {
	overdue  int64
	from, to time.Time
}

func (f *fakeAnalytics) OverdueCount(context.Context, time.Time) (int64, error) {
	return f.overdue, nil
}

func (f *fakeAnalytics) TopDepartment(_ context.Context, from, to time.Time) (*stats.DepartmentBorrows, error) {
	f.from, f.to = from, to
	return &stats.DepartmentBorrows{Department: "CSE", BorrowCount: 4}, nil
}

func (f *fakeAnalytics) BooksAddedBetween(context.Context, time.Time, time.Time) (int64, error) {
	return 2, nil
}

type fakeBooks struct {
	filter books.Filter
	list   []entities.Book
}

func (f *fakeBooks) List(_ context.Context, filter books.Filter, _, _ int) ([]entities.Book, int64, error) {
	f.filter = filter
	return f.list, int64(len(f.list)), nil
}

type fakeStudents struct {
	byID map[uint]*entities.Student
}

func (f *fakeStudents) GetByID(_ context.Context, id uint) (*entities.Student, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, errors.New("record not found")
}

func (f *fakeStudents) List(_ context.Context, filter students.Filter, _, _ int) ([]entities.Student, int64, error) {
	var out []entities.Student
	for _, s := range f.byID {
		if (filter.Email != "" && strings.EqualFold(s.Email, filter.Email)) ||
			(filter.Name != "" && strings.Contains(strings.ToLower(s.Name), strings.ToLower(filter.Name))) {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

type fakeLoans struct {
	loans []entities.BookIssue
}

func (f *fakeLoans) ActiveForStudent(context.Context, string) ([]entities.BookIssue, error) {
	return f.loans, nil
}

type auditRecord struct {
	mode, question, sql string
	err                 error
}

type fakeAudit struct {
	mu      sync.Mutex
	records []auditRecord
}

func (f *fakeAudit) LogAssistant(mode, question, sqlQuery string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, auditRecord{mode, question, sqlQuery, err})
}

var testNow = time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)

func testToolbox() (*Toolbox, *fakeAnalytics, *fakeBooks) {
	analytics := &fakeAnalytics{overdue: 2}
	bookFinder := &fakeBooks{list: []entities.Book{{ID: 1, Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593", NumCopiesTotal: 3, NumCopiesAvailable: 1}}}
	studentFinder := &fakeStudents{byID: map[uint]*entities.Student{
		7: {ID: 7, Name: "Meera Nair", Email: "meera@college.edu", Department: "ECE"},
	}}
	loans := &fakeLoans{loans: []entities.BookIssue{
		{ID: 1, BookID: 1, ExpectedReturnDate: testNow.AddDate(0, 0, -2), Book: &entities.Book{Title: "Dune"}},
		{ID: 2, BookID: 2, ExpectedReturnDate: testNow.AddDate(0, 0, 3), Book: &entities.Book{Title: "SICP"}},
	}}
	tb := NewToolbox(analytics, bookFinder, studentFinder, loans)
	tb.now = func() time.Time { return testNow }
	return tb, analytics, bookFinder
}
