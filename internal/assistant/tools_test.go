package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/llm"
)

func TestToolbox_Declarations(t *testing.T) {
	tb, _, _ := testToolbox()

	tools := tb.Declarations()
	require.Len(t, tools, 1)

	var names []string
	for _, d := range tools[0].FunctionDeclarations {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"get_overdue_books_count",
		"get_department_with_most_borrows_last_month",
		"get_new_books_added_this_week_count",
		"search_books",
		"get_student_details",
		"get_book_availability",
		"get_student_issued_books",
	}, names)
}

func TestToolbox_DepartmentUsesLastCalendarMonth(t *testing.T) {
	tb, analytics, _ := testToolbox()

	result, err := tb.Call(context.Background(), "get_department_with_most_borrows_last_month", nil)
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), analytics.from)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), analytics.to)
}

func TestToolbox_SearchBooksPassesFilter(t *testing.T) {
	tb, _, finder := testToolbox()

	result, err := tb.Call(context.Background(), "search_books", map[string]any{
		"title": " dune ", "category": "fiction", "available_only": true,
	})
	require.NoError(t, err)

	assert.Equal(t, "dune", finder.filter.Title)
	assert.Equal(t, "fiction", finder.filter.Category)
	assert.True(t, finder.filter.AvailableOnly)
	out := result.(map[string]any)
	assert.Equal(t, int64(1), out["total_matches"])
}

func TestToolbox_BookAvailabilityNeedsIdentifier(t *testing.T) {
	tb, _, _ := testToolbox()

	_, err := tb.Call(context.Background(), "get_book_availability", map[string]any{})
	assert.Error(t, err)

	_, err = tb.Call(context.Background(), "get_book_availability", map[string]any{"book_id": "abc"})
	assert.Error(t, err)
}

func TestToolbox_StudentLookup(t *testing.T) {
	tb, _, _ := testToolbox()

	result, err := tb.Call(context.Background(), "get_student_details", map[string]any{"email": "MEERA@college.edu"})
	require.NoError(t, err)
	assert.Equal(t, uint(7), result.(*entities.Student).ID)

	result, err = tb.Call(context.Background(), "get_student_details", map[string]any{"name": "meera"})
	require.NoError(t, err)
	assert.Equal(t, "Meera Nair", result.(*entities.Student).Name)

	_, err = tb.Call(context.Background(), "get_student_details", map[string]any{})
	assert.Error(t, err)
}

func TestToolbox_StudentIssuedBooksOverdueOnly(t *testing.T) {
	tb, _, _ := testToolbox()

	result, err := tb.Call(context.Background(), "get_student_issued_books", map[string]any{"student_id": float64(7)})
	require.NoError(t, err)
	all := result.(map[string]any)["issued_books"].([]loanSummary)
	assert.Len(t, all, 2)

	result, err = tb.Call(context.Background(), "get_student_issued_books", map[string]any{"student_id": float64(7), "overdue_only": true})
	require.NoError(t, err)
	overdue := result.(map[string]any)["issued_books"].([]loanSummary)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Dune", overdue[0].Title)
	assert.True(t, overdue[0].IsOverdue)
}

func TestToolbox_UnknownTool(t *testing.T) {
	tb, _, _ := testToolbox()

	_, err := tb.Call(context.Background(), "drop_tables", nil)
	assert.Error(t, err)
}

func TestArgUint(t *testing.T) {
	n, err := argUint(map[string]any{"id": float64(12)}, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(12), n)

	n, err = argUint(map[string]any{"id": "5"}, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(5), n)

	n, err = argUint(map[string]any{}, "id")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = argUint(map[string]any{"id": 1.5}, "id")
	assert.Error(t, err)
	_, err = argUint(map[string]any{"id": float64(-1)}, "id")
	assert.Error(t, err)
}

func TestConversationStore(t *testing.T) {
	store := NewConversationStore(2, time.Minute)

	store.Save("a", []llm.Content{llm.UserText("one")})
	store.Save("b", []llm.Content{llm.UserText("two")})
	store.Save("c", []llm.Content{llm.UserText("three")})

	assert.Equal(t, 2, store.Len())
	assert.Nil(t, store.Get("a"), "least recently used entry is evicted")
	require.Len(t, store.Get("c"), 1)

	got := store.Get("c")
	got[0] = llm.UserText("mutated")
	assert.Equal(t, "three", store.Get("c")[0].Parts[0].Text)

	store.Delete("c")
	assert.Nil(t, store.Get("c"))
}

func TestConversationStore_Expires(t *testing.T) {
	store := NewConversationStore(10, 20*time.Millisecond)
	store.Save("a", []llm.Content{llm.UserText("one")})

	assert.Eventually(t, func() bool { return store.Get("a") == nil }, time.Second, 10*time.Millisecond)
}

func TestTrimHistory(t *testing.T) {
	var history []llm.Content
	for i := 0; i < maxHistory; i++ {
		history = append(history, llm.UserText("q"), llm.Content{Role: llm.RoleModel, Parts: []llm.Part{{Text: "a"}}})
	}

	trimmed := trimHistory(history)
	assert.LessOrEqual(t, len(trimmed), maxHistory)
	assert.True(t, isUserText(trimmed[0]))
}
