package assistant

import "regexp"

// Borrow counts are never shown to users, even when a query returns them.
var borrowPhrases = []*regexp.Regexp{
	regexp.MustCompile(`\. It is (?:quite |very |extremely )?popular, having been borrowed \d+ times?\.`),
	regexp.MustCompile(`\. This book is (?:quite |very |extremely )?popular and has been borrowed \d+ times?\.`),
	regexp.MustCompile(`\s+(?:It|This book|This title|The book|This [a-z]+ book|This [a-z]+ textbook) (?:has been|is currently) (?:borrowed|checked out) \d+ times?\.`),
	regexp.MustCompile(`\s+(?:and |which )?(?:has been |having been )?(?:borrowed|checked out|issued) \d+ times?\.`),
	regexp.MustCompile(`\s+with \d+ borrows?\.`),
}

var borrowSentences = []*regexp.Regexp{
	regexp.MustCompile(`[^.]*(?:borrowed|checked out) \d+ times?[^.]*\.`),
	regexp.MustCompile(`[^.]*\b\d+ borrows?\b[^.]*\.`),
	regexp.MustCompile(`(?i)[^.]*borrow count:?\s*\d+[^.]*\.`),
}

var (
	parenTimes   = regexp.MustCompile(`\s*\(\d+ times?\)`)
	doublePeriod = regexp.MustCompile(`\.\s*\.`)
	spacePeriod  = regexp.MustCompile(`\s+\.`)
	leadingSpace = regexp.MustCompile(`^\s+`)
)

// FilterBorrowingInfo removes borrow-count mentions from model output.
func FilterBorrowingInfo(text string) string {
	out := parenTimes.ReplaceAllString(text, "")
	for _, re := range borrowPhrases {
		out = re.ReplaceAllString(out, ".")
	}
	for _, re := range borrowSentences {
		out = re.ReplaceAllString(out, "")
	}
	out = doublePeriod.ReplaceAllString(out, ".")
	out = spacePeriod.ReplaceAllString(out, ".")
	return leadingSpace.ReplaceAllString(out, "")
}
