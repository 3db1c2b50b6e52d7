package services

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/library/internal/database/issues"
	"github.com/mrlokans/library/internal/entities"
)

type IssueCreateInput struct {
	BookID             uint  `json:"book_id" validate:"required"`
	StudentID          uint  `json:"student_id" validate:"required"`
	ExpectedReturnDate *Date `json:"expected_return_date"`
}

// IssueView is the API shape of a loan.
type IssueView struct {
	entities.BookIssue
	IsOverdue bool `json:"is_overdue"`
}

type IssueService struct {
	store    IssueStore
	audit    AuditLogger
	validate *validator.Validate
	loanDays int
	now      func() time.Time
}

func NewIssueService(store IssueStore, audit AuditLogger, loanDays int) *IssueService {
	return &IssueService{
		store:    store,
		audit:    auditOrNoop(audit),
		validate: newValidator(),
		loanDays: loanDays,
		now:      time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *IssueService) WithClock(now func() time.Time) *IssueService {
	s.now = now
	return s
}

func (s *IssueService) view(issue *entities.BookIssue) *IssueView {
	return &IssueView{BookIssue: *issue, IsOverdue: issue.IsOverdue(s.now())}
}

func (s *IssueService) Issue(ctx context.Context, in IssueCreateInput) (*IssueView, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	params := issues.IssueParams{
		BookID:    in.BookID,
		StudentID: in.StudentID,
		LoanDays:  s.loanDays,
		Now:       s.now(),
	}
	if in.ExpectedReturnDate != nil && !in.ExpectedReturnDate.IsZero() {
		due := in.ExpectedReturnDate.Time
		params.ExpectedReturnDate = &due
	}

	issue, err := s.store.Issue(ctx, params)
	if err != nil {
		return nil, err
	}
	s.audit.LogIssue(issue.ID, issue.BookID, issue.StudentID)
	return s.view(issue), nil
}

func (s *IssueService) Return(ctx context.Context, issueID uint) (*IssueView, error) {
	issue, err := s.store.Return(ctx, issueID, s.now())
	if err != nil {
		return nil, err
	}
	s.audit.LogReturn(issue.ID, issue.BookID, issue.StudentID)
	return s.view(issue), nil
}

// ActiveForStudent resolves identifier as an id, roll number, email or phone.
func (s *IssueService) ActiveForStudent(ctx context.Context, identifier string) ([]IssueView, error) {
	list, err := s.store.ActiveForStudent(ctx, identifier)
	if err != nil {
		return nil, err
	}
	out := make([]IssueView, 0, len(list))
	for i := range list {
		out = append(out, *s.view(&list[i]))
	}
	return out, nil
}
