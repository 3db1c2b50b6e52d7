package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/students"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/errcodes"
)

type StudentCreateInput struct {
	Name       string `json:"name" validate:"required,max=100"`
	RollNumber string `json:"roll_number" validate:"required,max=20"`
	Department string `json:"department" validate:"required,max=50"`
	Semester   int    `json:"semester" validate:"gte=1,lte=12"`
	Phone      string `json:"phone" validate:"required,min=7,max=15"`
	Email      string `json:"email" validate:"required,email,max=100"`
}

// StudentUpdateInput limits updates to the mutable profile fields.
// Roll numbers are fixed once assigned.
type StudentUpdateInput struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=100"`
	Department *string `json:"department" validate:"omitempty,min=1,max=50"`
	Semester   *int    `json:"semester" validate:"omitempty,gte=1,lte=12"`
	Phone      *string `json:"phone" validate:"omitempty,min=7,max=15"`
	Email      *string `json:"email" validate:"omitempty,email,max=100"`
}

func (in StudentUpdateInput) empty() bool {
	return in.Name == nil && in.Department == nil && in.Semester == nil && in.Phone == nil && in.Email == nil
}

type StudentList struct {
	Students []entities.Student `json:"students"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	Limit    int                `json:"limit"`
}

type StudentService struct {
	store    StudentStore
	audit    AuditLogger
	validate *validator.Validate
}

func NewStudentService(store StudentStore, audit AuditLogger) *StudentService {
	return &StudentService{store: store, audit: auditOrNoop(audit), validate: newValidator()}
}

// conflictMessage names every field of candidate already taken by one of existing.
func conflictMessage(prefix string, existing []entities.Student, rollNumber, email, phone string) string {
	var roll, mail, tel bool
	for _, st := range existing {
		roll = roll || (rollNumber != "" && st.RollNumber == rollNumber)
		mail = mail || (email != "" && st.Email == email)
		tel = tel || (phone != "" && st.Phone == phone)
	}
	var b strings.Builder
	b.WriteString(prefix)
	if roll {
		fmt.Fprintf(&b, " Roll Number (%s)", rollNumber)
	}
	if mail {
		fmt.Fprintf(&b, " Email (%s)", email)
	}
	if tel {
		fmt.Fprintf(&b, " Phone (%s)", phone)
	}
	return b.String()
}

func (s *StudentService) Create(ctx context.Context, in StudentCreateInput) (*entities.Student, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	existing, err := s.store.FindByUniqueFields(ctx, in.RollNumber, in.Email, in.Phone, 0)
	if err != nil {
		return nil, errors.Wrap(err, "check student uniqueness")
	}
	if len(existing) > 0 {
		return nil, errcodes.Conflict(conflictMessage(
			"Student with conflicting unique field(s) already exists:", existing, in.RollNumber, in.Email, in.Phone))
	}

	student := &entities.Student{
		Name:       in.Name,
		RollNumber: in.RollNumber,
		Department: in.Department,
		Semester:   in.Semester,
		Phone:      in.Phone,
		Email:      in.Email,
	}
	if err := s.store.Create(ctx, student); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errcodes.Conflict("Student with a conflicting roll number, email or phone already exists (database constraint).")
		}
		return nil, errors.Wrap(err, "create student")
	}
	return student, nil
}

func (s *StudentService) Get(ctx context.Context, id uint) (*entities.Student, error) {
	student, err := s.store.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errcodes.NotFoundf("Student with ID %d", id)
		}
		return nil, errors.Wrap(err, "get student")
	}
	return student, nil
}

func (s *StudentService) List(ctx context.Context, f students.Filter, p Pagination) (*StudentList, error) {
	list, total, err := s.store.List(ctx, f, p.Offset(), p.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	if list == nil {
		list = []entities.Student{}
	}
	return &StudentList{Students: list, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

func (s *StudentService) Update(ctx context.Context, id uint, in StudentUpdateInput) (*entities.Student, error) {
	if in.empty() {
		return nil, errcodes.EmptyUpdate()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var checkEmail, checkPhone string
	if in.Email != nil && *in.Email != student.Email {
		checkEmail = *in.Email
	}
	if in.Phone != nil && *in.Phone != student.Phone {
		checkPhone = *in.Phone
	}
	if checkEmail != "" || checkPhone != "" {
		existing, err := s.store.FindByUniqueFields(ctx, "", checkEmail, checkPhone, student.ID)
		if err != nil {
			return nil, errors.Wrap(err, "check student uniqueness")
		}
		if len(existing) > 0 {
			return nil, errcodes.Conflict(conflictMessage(
				"Update conflicts with existing student:", existing, "", checkEmail, checkPhone))
		}
	}

	var columns []string
	if in.Name != nil {
		student.Name = *in.Name
		columns = append(columns, "name")
	}
	if in.Department != nil {
		student.Department = *in.Department
		columns = append(columns, "department")
	}
	if in.Semester != nil {
		student.Semester = *in.Semester
		columns = append(columns, "semester")
	}
	if in.Phone != nil {
		student.Phone = *in.Phone
		columns = append(columns, "phone")
	}
	if in.Email != nil {
		student.Email = *in.Email
		columns = append(columns, "email")
	}

	if err := s.store.Update(ctx, student, columns...); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errcodes.Conflict("Student with this email or phone already exists (database constraint).")
		}
		return nil, errors.Wrap(err, "update student")
	}
	return student, nil
}

// Delete removes a student without any loan history.
func (s *StudentService) Delete(ctx context.Context, id uint) error {
	student, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.store.CountIssues(ctx, id)
	if err != nil {
		return errors.Wrap(err, "count student issues")
	}
	if n > 0 {
		return errcodes.Conflict(fmt.Sprintf("Student with ID %d has %d issue record(s) and cannot be deleted.", id, n))
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if database.IsNotFound(err) {
			return errcodes.NotFoundf("Student with ID %d", id)
		}
		return errors.Wrap(err, "delete student")
	}
	s.audit.LogDelete("student", id, student.Name)
	return nil
}
