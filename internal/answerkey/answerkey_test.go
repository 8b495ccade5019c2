package answerkey

import (
	"testing"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

func TestParse(t *testing.T) {
	body := "| number | correct |\n|---|---|\n| 1 | 3 |\n| 2 | 5 |\n\nnot a row\n"
	entries, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0] != (Entry{Number: 1, Correct: 3}) {
		t.Errorf("entries[0] = %+v", entries[0])
	}
}

func TestParseRejectsEmptyTable(t *testing.T) {
	if _, err := Parse("no rows here"); err == nil {
		t.Fatal("expected an error for a table with no parseable rows")
	}
}

func TestCompareFlagsMismatch(t *testing.T) {
	e := &exam.ParsedExam{Questions: []exam.Question{
		{Number: 1, QuestionType: exam.TypeGrammar, Choices: []exam.Choice{{Number: 1, Text: "a"}, {Number: 2, Text: "b"}}},
	}}
	mismatches := Compare(e, []Entry{{Number: 1, Correct: 3}})
	if len(mismatches) != 1 {
		t.Fatalf("got %d mismatches, want 1", len(mismatches))
	}
}

func TestCompareSkipsFreeResponse(t *testing.T) {
	e := &exam.ParsedExam{Questions: []exam.Question{
		{Number: 1, QuestionType: exam.TypeFreeResponse},
	}}
	mismatches := Compare(e, []Entry{{Number: 1, Correct: 1}})
	if len(mismatches) != 0 {
		t.Errorf("expected free-response questions to be skipped, got %+v", mismatches)
	}
}

func TestCompareFlagsMissingQuestion(t *testing.T) {
	e := &exam.ParsedExam{}
	mismatches := Compare(e, []Entry{{Number: 99, Correct: 1}})
	if len(mismatches) != 1 {
		t.Fatalf("got %d mismatches, want 1", len(mismatches))
	}
}
