// Command seed fills a database with a demo catalogue, students and loans,
// including a few overdue and due-soon loans for trying the reminder job.
// Usage: go run ./cmd/seed [-db path/to/library.db] [-fresh]
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/robinjoseph08/golib/logger"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/issues"
	"github.com/mrlokans/library/internal/database/students"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/services"
)

func main() {
	dbPath := flag.String("db", config.DefaultDatabasePath, "path to the SQLite database file")
	fresh := flag.Bool("fresh", false, "delete the database before seeding")
	flag.Parse()

	log := logger.New()
	ctx := log.WithContext(context.Background())

	if *fresh {
		if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
			log.Err(err).Fatal("failed to remove existing database")
		}
	}

	db, err := database.NewSQLite(*dbPath)
	if err != nil {
		log.Err(err).Fatal("failed to open database")
	}
	defer db.Close()

	bookService := services.NewBookService(books.NewRepository(db.DB), nil)
	studentService := services.NewStudentService(students.NewRepository(db.DB), nil)
	issueRepo := issues.NewRepository(db.DB)

	var catalogue []*entities.Book
	for _, in := range demoBooks() {
		book, err := bookService.Create(ctx, in)
		if err != nil {
			log.Err(err).Warn("skipping book", logger.Data{"isbn": in.ISBN})
			continue
		}
		catalogue = append(catalogue, book)
	}

	var roster []*entities.Student
	for _, in := range demoStudents() {
		student, err := studentService.Create(ctx, in)
		if err != nil {
			log.Err(err).Warn("skipping student", logger.Data{"roll_number": in.RollNumber})
			continue
		}
		roster = append(roster, student)
	}

	// Loans are backdated by shifting the service clock.
	now := time.Now().UTC()
	loans := []struct {
		book, student int
		issuedDaysAgo int
	}{
		{0, 0, 20}, // overdue
		{1, 1, 16}, // overdue
		{2, 0, 11}, // due in 3 days
		{3, 2, 9},  // due in 5 days
		{4, 3, 1},
	}
	issued := 0
	for _, l := range loans {
		if l.book >= len(catalogue) || l.student >= len(roster) {
			continue
		}
		issuedAt := now.AddDate(0, 0, -l.issuedDaysAgo)
		svc := services.NewIssueService(issueRepo, nil, issues.DefaultLoanDays).
			WithClock(func() time.Time { return issuedAt })
		_, err := svc.Issue(ctx, services.IssueCreateInput{
			BookID:    catalogue[l.book].ID,
			StudentID: roster[l.student].ID,
		})
		if err != nil {
			log.Err(err).Warn("skipping loan", logger.Data{"book": catalogue[l.book].Title})
			continue
		}
		issued++
	}

	log.Info("seed complete", logger.Data{
		"db":       *dbPath,
		"books":    len(catalogue),
		"students": len(roster),
		"loans":    issued,
	})
}

func category(name string) *string { return &name }

func demoBooks() []services.BookCreateInput {
	return []services.BookCreateInput{
		{Title: "The Go Programming Language", Author: "Alan Donovan", ISBN: "9780134190440", NumCopiesTotal: 3, Category: category("Programming")},
		{Title: "Introduction to Algorithms", Author: "Thomas Cormen", ISBN: "9780262046305", NumCopiesTotal: 4, Category: category("Computer Science")},
		{Title: "Operating System Concepts", Author: "Abraham Silberschatz", ISBN: "9781119800361", NumCopiesTotal: 2, Category: category("Computer Science")},
		{Title: "Engineering Mechanics", Author: "R. C. Hibbeler", ISBN: "9780133918922", NumCopiesTotal: 2, Category: category("Mechanical")},
		{Title: "Electric Circuits", Author: "James Nilsson", ISBN: "9780134746968", NumCopiesTotal: 3, Category: category("Electrical")},
		{Title: "Pride and Prejudice", Author: "Jane Austen", ISBN: "9780141439518", NumCopiesTotal: 1, Category: category("Fiction")},
		{Title: "Clean Code", Author: "Robert Martin", ISBN: "9780132350884", NumCopiesTotal: 2, Category: category("Programming")},
	}
}

func demoStudents() []services.StudentCreateInput {
	return []services.StudentCreateInput{
		{Name: "Asha Verma", RollNumber: "CSE2021001", Department: "CSE", Semester: 5, Phone: "9876500001", Email: "asha.verma@college.edu"},
		{Name: "Rahul Mehta", RollNumber: "CSE2021002", Department: "CSE", Semester: 5, Phone: "9876500002", Email: "rahul.mehta@college.edu"},
		{Name: "Neha Iyer", RollNumber: "ME2022014", Department: "ME", Semester: 3, Phone: "9876500003", Email: "neha.iyer@college.edu"},
		{Name: "Karan Singh", RollNumber: "EE2020033", Department: "EE", Semester: 7, Phone: "9876500004", Email: "karan.singh@college.edu"},
	}
}
