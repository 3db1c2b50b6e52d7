package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

func TestCollection(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	empty, err := repo.Collection(ctx)
	require.NoError(t, err)
	assert.Equal(t, CollectionStats{}, *empty)

	b1 := &entities.Book{Title: "A", Author: "X", ISBN: "1111111111", NumCopiesTotal: 3, NumCopiesAvailable: 2}
	b2 := &entities.Book{Title: "B", Author: "Y", ISBN: "2222222222", NumCopiesTotal: 4, NumCopiesAvailable: 4}
	require.NoError(t, db.Create(b1).Error)
	require.NoError(t, db.Create(b2).Error)
	s := &entities.Student{Name: "S", RollNumber: "R1", Department: "CSE", Semester: 1, Phone: "1234567", Email: "s@x.io"}
	require.NoError(t, db.Create(s).Error)
	now := time.Now().UTC()
	require.NoError(t, db.Create(&entities.BookIssue{BookID: b1.ID, StudentID: s.ID, IssueDate: now, ExpectedReturnDate: now}).Error)

	got, err := repo.Collection(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.TotalBooks)
	assert.Equal(t, int64(1), got.TotalStudents)
	assert.Equal(t, int64(1), got.CurrentlyIssued)
}

func TestLastMonth(t *testing.T) {
	from, to := LastMonth(time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestThisWeek(t *testing.T) {
	// 2026-10-14 is a Wednesday.
	from, to := ThisWeek(time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), to)

	// Sundays belong to the week that started six days earlier.
	from, _ = ThisWeek(time.Date(2026, 10, 18, 1, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), from)
}

func TestTopDepartment(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	from, to := LastMonth(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))

	none, err := repo.TopDepartment(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, "No borrows", none.Department)
	assert.Zero(t, none.BorrowCount)

	book := &entities.Book{Title: "A", Author: "X", ISBN: "3333333333", NumCopiesTotal: 10, NumCopiesAvailable: 10}
	require.NoError(t, db.Create(book).Error)
	cse := &entities.Student{Name: "C", RollNumber: "C1", Department: "CSE", Semester: 1, Phone: "1000001", Email: "c@x.io"}
	ece := &entities.Student{Name: "E", RollNumber: "E1", Department: "ECE", Semester: 1, Phone: "1000002", Email: "e@x.io"}
	ece2 := &entities.Student{Name: "F", RollNumber: "E2", Department: "ECE", Semester: 2, Phone: "1000003", Email: "f@x.io"}
	for _, s := range []*entities.Student{cse, ece, ece2} {
		require.NoError(t, db.Create(s).Error)
	}
	feb := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	for _, row := range []struct {
		student *entities.Student
		at      time.Time
	}{{cse, feb}, {ece, feb}, {ece2, feb}, {cse, mar}, {cse, mar.Add(time.Hour)}} {
		require.NoError(t, db.Create(&entities.BookIssue{
			BookID: book.ID, StudentID: row.student.ID, IssueDate: row.at, ExpectedReturnDate: row.at, IsReturned: true,
		}).Error)
	}

	top, err := repo.TopDepartment(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, "ECE", top.Department)
	assert.Equal(t, int64(2), top.BorrowCount)
}

func TestOverdueCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	asOf := time.Date(2026, 4, 10, 13, 0, 0, 0, time.UTC)

	book := &entities.Book{Title: "A", Author: "X", ISBN: "4444444444", NumCopiesTotal: 10, NumCopiesAvailable: 10}
	require.NoError(t, db.Create(book).Error)
	for i, due := range []time.Time{asOf.AddDate(0, 0, -3), asOf.AddDate(0, 0, -1), asOf, asOf.AddDate(0, 0, 2)} {
		s := &entities.Student{
			Name: "S", RollNumber: "R" + string(rune('a'+i)), Department: "CSE", Semester: 1,
			Phone: "200000" + string(rune('0'+i)), Email: string(rune('a'+i)) + "@x.io",
		}
		require.NoError(t, db.Create(s).Error)
		require.NoError(t, db.Create(&entities.BookIssue{
			BookID: book.ID, StudentID: s.ID, IssueDate: asOf, ExpectedReturnDate: entities.StartOfDay(due),
		}).Error)
	}

	n, err := repo.OverdueCount(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
