// Package answerkey implements the --answer-key comparator SPEC_FULL.md §4
// supplements: spec.md scopes the evaluation reporter itself out of the core
// ("a pure comparison utility downstream of validation") but still lists the
// CLI flag in §6, so this is kept deliberately thin.
package answerkey

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

// Entry is one question's recorded correct choice.
type Entry struct {
	Number  int
	Correct int
}

// Mismatch reports a question whose exam choices disagree with the answer
// key, or whose answer key entry could not be matched against the exam.
type Mismatch struct {
	Number   int
	Expected int
	Found    string
}

// Parse reads a simple Markdown table of `question_number | correct_choice`
// rows. Lines that are not two pipe-separated integers are ignored, so a
// table header/separator row does not need special-casing.
func Parse(body string) ([]Entry, error) {
	var entries []Entry
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "|")
		if line == "" {
			continue
		}
		cols := strings.Split(line, "|")
		if len(cols) != 2 {
			continue
		}
		number, err1 := strconv.Atoi(strings.TrimSpace(cols[0]))
		correct, err2 := strconv.Atoi(strings.TrimSpace(cols[1]))
		if err1 != nil || err2 != nil {
			continue
		}
		entries = append(entries, Entry{Number: number, Correct: correct})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("answer key contained no parseable question_number | correct_choice rows")
	}
	return entries, nil
}

// Compare cross-references entries against e's recorded questions, per
// SPEC_FULL.md's minimal downstream comparator.
func Compare(e *exam.ParsedExam, entries []Entry) []Mismatch {
	var mismatches []Mismatch
	for _, entry := range entries {
		q, ok := e.QuestionByNumber(entry.Number)
		if !ok {
			mismatches = append(mismatches, Mismatch{Number: entry.Number, Expected: entry.Correct, Found: "question not present in parsed exam"})
			continue
		}
		if q.IsFreeResponse() {
			continue
		}
		found := false
		for _, c := range q.Choices {
			if c.Number == entry.Correct {
				found = true
				break
			}
		}
		if !found {
			mismatches = append(mismatches, Mismatch{
				Number:   entry.Number,
				Expected: entry.Correct,
				Found:    fmt.Sprintf("choice %d not present among %d recorded choices", entry.Correct, len(q.Choices)),
			})
		}
	}
	return mismatches
}
