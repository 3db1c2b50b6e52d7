// Package students provides database operations for student records.
package students

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

type Filter struct {
	Department string
	Semester   int
	Name       string
	RollNumber string
	Phone      string
	Email      string // exact, case-insensitive
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, student *entities.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Student, error) {
	var student entities.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUniqueFields returns every student whose roll number, email or phone
// equals one of the given non-empty values. excludeID skips the student being updated.
func (r *Repository) FindByUniqueFields(ctx context.Context, rollNumber, email, phone string, excludeID uint) ([]entities.Student, error) {
	var conds []string
	var args []interface{}
	if rollNumber != "" {
		conds = append(conds, "roll_number = ?")
		args = append(args, rollNumber)
	}
	if email != "" {
		conds = append(conds, "email = ?")
		args = append(args, email)
	}
	if phone != "" {
		conds = append(conds, "phone = ?")
		args = append(args, phone)
	}
	if len(conds) == 0 {
		return nil, nil
	}

	q := r.db.WithContext(ctx).Where(strings.Join(conds, " OR "), args...)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var found []entities.Student
	if err := q.Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.Department != "" {
		q = q.Where("LOWER(department) = ?", strings.ToLower(f.Department))
	}
	if f.Semester != 0 {
		q = q.Where("semester = ?", f.Semester)
	}
	if f.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(f.Name))
	}
	if f.RollNumber != "" {
		q = q.Where("LOWER(roll_number) LIKE ?", likePattern(f.RollNumber))
	}
	if f.Phone != "" {
		q = q.Where("phone LIKE ?", "%"+f.Phone+"%")
	}
	if f.Email != "" {
		q = q.Where("LOWER(email) = ?", strings.ToLower(f.Email))
	}
	return q
}

func (r *Repository) List(ctx context.Context, f Filter, offset, limit int) ([]entities.Student, int64, error) {
	var total int64
	if err := f.apply(r.db.WithContext(ctx).Model(&entities.Student{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []entities.Student
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

func (r *Repository) Update(ctx context.Context, student *entities.Student, columns ...string) error {
	return r.db.WithContext(ctx).Model(student).Select(columns).Updates(student).Error
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Student{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) CountIssues(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.BookIssue{}).Where("student_id = ?", id).Count(&n).Error
	return n, err
}
