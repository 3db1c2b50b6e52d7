package assistant

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotSelect = errors.New("generated query is not a single SELECT statement")

	fenceOpen     = regexp.MustCompile("^```[a-zA-Z]*\\n?")
	fenceClose    = regexp.MustCompile("```\\s*$")
	lineComment   = regexp.MustCompile(`--[^\r\n]*`)
	commentReason = regexp.MustCompile(`--\s*(.*?)(?:\r?\n|$)`)
	whitespace    = regexp.MustCompile(`\s+`)
	likeOp        = regexp.MustCompile(`(?i)\s+LIKE\s+`)
	ilikeOp       = regexp.MustCompile(`(?i)\s+ILIKE\s+`)
	textEquality  = regexp.MustCompile(`(?i)\b(category|title|author|genre|department)\s*=\s*['"](.*?)['"](\s|$)`)
	cannotAnswer  = regexp.MustCompile(`(?i)can(?:not|'t) be answered`)
	reasonPrefix  = regexp.MustCompile(`(?i)^(?:this question\s+)?can(?:not|'t) be answered\s*[:.-]?\s*`)
)

// UnanswerableError means the model declined to write a query.
type UnanswerableError struct {
	Reason string
}

func (e *UnanswerableError) Error() string {
	return "question cannot be answered: " + e.Reason
}

// SanitizedQuery keeps the model's query for display next to the form that is executed.
type SanitizedQuery struct {
	Display string
	Exec    string
}

// SanitizeSQL turns raw model output into one executable SELECT for the given
// dialect ("sqlite" or "postgres").
func SanitizeSQL(raw, dialect string) (*SanitizedQuery, error) {
	q := strings.TrimSpace(raw)

	if cannotAnswer.MatchString(q) {
		reason := msgOutOfScope
		if m := commentReason.FindStringSubmatch(q); m != nil {
			if r := strings.TrimSpace(reasonPrefix.ReplaceAllString(strings.TrimSpace(m[1]), "")); r != "" {
				reason = r
			}
		}
		return nil, &UnanswerableError{Reason: reason}
	}

	q = fenceOpen.ReplaceAllString(q, "")
	q = strings.TrimSpace(fenceClose.ReplaceAllString(q, ""))

	exec := lineComment.ReplaceAllString(q, "")
	exec = strings.TrimSpace(whitespace.ReplaceAllString(exec, " "))
	exec = strings.TrimSpace(strings.TrimSuffix(exec, ";"))
	if !strings.HasPrefix(strings.ToUpper(exec), "SELECT") || strings.Contains(exec, ";") {
		return nil, ErrNotSelect
	}

	out := &SanitizedQuery{Display: q, Exec: exec}
	out.Display = rewrite(out.Display, dialect)
	out.Exec = rewrite(out.Exec, dialect)
	return out, nil
}

func rewrite(q, dialect string) string {
	if strings.Contains(q, "book_issue ") && !strings.Contains(q, "book_issues") {
		q = strings.ReplaceAll(q, "book_issue ", "book_issues ")
	}

	op := "LIKE"
	if dialect == "postgres" {
		op = "ILIKE"
		q = likeOp.ReplaceAllString(q, " ILIKE ")
	} else {
		// SQLite has no ILIKE; its LIKE is already case-insensitive for ASCII.
		q = ilikeOp.ReplaceAllString(q, " LIKE ")
	}

	return textEquality.ReplaceAllString(q, "${1} "+op+" '%${2}%'${3}")
}
