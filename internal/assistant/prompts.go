package assistant

import (
	"fmt"
	"strings"
	"time"
)

const schemaDescription = `
The database has the following tables:

1. books:
   - id (integer, primary key)
   - title (text)
   - author (text)
   - isbn (text)
   - num_copies_total (integer)
   - num_copies_available (integer)
   - category (text)
   - created_at (timestamp, when the book was added to the system)
   - updated_at (timestamp)

2. students:
   - id (integer, primary key)
   - name (text)
   - roll_number (text)
   - department (text)
   - semester (integer)
   - phone (text)
   - email (text)
   - created_at (timestamp, when the student was added to the system)
   - updated_at (timestamp)

3. book_issues:
   - id (integer, primary key)
   - book_id (integer, foreign key to books.id)
   - student_id (integer, foreign key to students.id)
   - issue_date (timestamp)
   - expected_return_date (timestamp)
   - actual_return_date (timestamp, null until returned)
   - is_returned (boolean)
   - created_at (timestamp)
   - updated_at (timestamp)
`

const (
	msgNotConfigured = "Gemini API key is not configured. Please contact the administrator."
	msgOutOfScope    = "This question is outside the scope of the library database."
	msgSelectOnly    = "Sorry, I can only answer questions that can be answered with a SELECT query."
	msgNoData        = "I couldn't find any data matching your query."
	msgPhrasingError = "I found results, but encountered an error generating a natural language response."
)

func sorryMessage(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason != "" && !strings.ContainsAny(reason[len(reason)-1:], ".!?") {
		reason += "."
	}
	return fmt.Sprintf("I'm sorry, but I can't answer that question. %s I can help with questions about books, students, and borrowing records in the library database.", reason)
}

func scopePrompt(question string) string {
	return fmt.Sprintf(`
Given this question: %q
And this database schema:
%s

Determine if this question can be answered using ONLY the data in this database schema.
Respond with either:
- "ANSWERABLE: <reason>" if the question can be answered using this database
- "UNANSWERABLE: <reason>" if the question cannot be answered with this database

For example:
- "How many books are overdue?" -> "ANSWERABLE: book_issues has is_returned and expected_return_date"
- "What's the weather like today?" -> "UNANSWERABLE: The database has no weather information"
- "Who wrote Harry Potter?" -> "UNANSWERABLE: The database can't answer general knowledge questions about specific books"
`, question, schemaDescription)
}

func dialectHints(dialect string) (engine, matchOp, dateHint string) {
	if dialect == "postgres" {
		return "PostgreSQL", "ILIKE",
			"use PostgreSQL date functions like CURRENT_DATE and date_trunc('week', CURRENT_DATE)"
	}
	return "SQLite", "LIKE",
		"use SQLite date functions like date('now'), date('now', 'weekday 0', '-6 days') and strftime"
}

func sqlPrompt(question, dialect string, today time.Time) string {
	engine, op, dateHint := dialectHints(dialect)
	return fmt.Sprintf(`
Given the following database schema:
%s

IMPORTANT: The table names are exactly as shown above: "books", "students", and "book_issues" (plural).
Today's date is %s.

Generate a single SELECT SQL query to answer this question: %s

If the question CANNOT be answered using this database schema, reply with a SQL comment
starting with "-- cannot be answered:" followed by the reason.

Your query must:
1. Use the exact table names as shown in the schema
2. Include proper JOINs if needed
3. Be a valid %s query
4. Use the created_at field for questions about when books or students were added
5. Use %s with wildcards for ALL text field comparisons, e.g. books.category %s '%%biology%%'
6. NEVER use exact equality (=) for text fields like title, author, category or department

For time-based queries (e.g. "this week", "today", "last month") %s.
Return only the SQL, without explanations.
`, schemaDescription, today.Format("2006-01-02"), question, engine, op, op, dateHint)
}

func answerPrompt(question, results string) string {
	return fmt.Sprintf(`
Given the question: %q and the query results: %s, provide a natural language response.

The response should:
1. Directly answer the question
2. Include specific numbers or data from the results, but NEVER mention borrowing frequency
3. Be clear and concise
4. Use a friendly, helpful tone
5. Do NOT mention ratings, there is no rating system in this library database
6. Do NOT mention how many times a book has been borrowed, checked out or issued
7. Focus on the book's title, author and other details
`, question, results)
}

func toolSystemInstruction(today time.Time) string {
	return fmt.Sprintf(`You are the assistant of a college library.
Answer questions about books, students and book loans using the provided tools.
Call a tool whenever the answer depends on library data; never invent data.
Do not mention how many times a book has been borrowed.
If a tool returns an error, explain the problem to the user briefly.
Today's date is %s.`, today.Format("2006-01-02"))
}
