package entities

import "time"

type Book struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Title              string    `gorm:"index;size:255;not null" json:"title"`
	Author             string    `gorm:"index;size:100;not null" json:"author"`
	ISBN               string    `gorm:"column:isbn;uniqueIndex:uq_book_isbn;size:20;not null" json:"isbn"`
	NumCopiesTotal     int       `gorm:"not null;default:1" json:"num_copies_total"`
	NumCopiesAvailable int       `gorm:"not null;default:1" json:"num_copies_available"`
	Category           *string   `gorm:"index;size:50" json:"category"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

type Student struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"index;size:100;not null" json:"name"`
	RollNumber string    `gorm:"uniqueIndex:uq_student_roll_number;size:20;not null" json:"roll_number"`
	Department string    `gorm:"index;size:50;not null" json:"department"`
	Semester   int       `gorm:"not null" json:"semester"`
	Phone      string    `gorm:"uniqueIndex:uq_student_phone;size:15;not null" json:"phone"`
	Email      string    `gorm:"uniqueIndex:uq_student_email;size:100;not null" json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Student) TableName() string {
	return "students"
}

// BookIssue is a single loan. It goes Active -> Returned exactly once.
// The partial unique index allows at most one active loan per (book, student).
type BookIssue struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	BookID             uint       `gorm:"not null;index;uniqueIndex:uq_active_issue,priority:1,where:is_returned = false" json:"book_id"`
	StudentID          uint       `gorm:"not null;index;uniqueIndex:uq_active_issue,priority:2,where:is_returned = false" json:"student_id"`
	IssueDate          time.Time  `gorm:"not null" json:"issue_date"`
	ExpectedReturnDate time.Time  `gorm:"not null;index" json:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date"`
	IsReturned         bool       `gorm:"not null;default:false;index" json:"is_returned"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Book    *Book    `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT" json:"book,omitempty"`
	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:RESTRICT" json:"student,omitempty"`
}

func (BookIssue) TableName() string {
	return "book_issues"
}

// IsOverdue reports whether an active loan's due date is before the day of now (UTC).
func (i BookIssue) IsOverdue(now time.Time) bool {
	if i.IsReturned {
		return false
	}
	return i.ExpectedReturnDate.UTC().Before(StartOfDay(now))
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
