// Package validator implements C5: structural and semantic checks over a
// ParsedExam. Every check carries a stable code (§4.5) so tests can assert
// specific failures; checks never mutate the exam they inspect.
package validator

import (
	"fmt"
	"strings"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

// Severity distinguishes a hard error (aborts publication in strict mode)
// from a warning (always returned, never blocks).
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one structured validator message.
type Finding struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Question string   `json:"question"` // question number as string, or "global"
	Message  string   `json:"message"`
}

// Result is the output of a Validate call: an ordered list of errors and an
// ordered list of warnings (§3.1 ValidationResult).
type Result struct {
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// OK reports whether Result carries zero errors — §8's "Validator(parsed_exam).errors == [] ⇔ all §3.2 invariants hold".
func (r Result) OK() bool { return len(r.Errors) == 0 }

type collector struct{ r Result }

func (c *collector) err(code string, q int, format string, args ...any) {
	c.r.Errors = append(c.r.Errors, Finding{Code: code, Severity: SeverityError, Question: questionRef(q), Message: fmt.Sprintf(format, args...)})
}

func (c *collector) warn(code string, q int, format string, args ...any) {
	c.r.Warnings = append(c.r.Warnings, Finding{Code: code, Severity: SeverityWarning, Question: questionRef(q), Message: fmt.Sprintf(format, args...)})
}

func questionRef(n int) string {
	if n == 0 {
		return "global"
	}
	return fmt.Sprintf("%d", n)
}

// Validate runs every §4.5 check over exam and returns the accumulated
// Result. It never mutates exam.
func Validate(e *exam.ParsedExam) Result {
	c := &collector{}

	checkSchema(c, e)
	checkNumbering(c, e)
	checkChoices(c, e)
	checkListening(c, e)
	checkGroups(c, e)
	checkQuality(c, e)

	return c.r
}

func checkSchema(c *collector, e *exam.ParsedExam) {
	for _, q := range e.Questions {
		if q.Points < 1 || q.Points > 5 {
			c.err("V-SCHEMA-001", q.Number, "points %d out of [1,5]", q.Points)
		}
		if !exam.IsValidQuestionType(q.QuestionType) {
			c.err("V-SCHEMA-002", q.Number, "question_type %q is not one of the 22 recognized tags", q.QuestionType)
		}
		if q.QuestionText == "" && !q.IsListening() {
			c.err("V-SCHEMA-003", q.Number, "question_text is empty")
		}
	}
}

func checkNumbering(c *collector, e *exam.ParsedExam) {
	prev := 0
	maxNumber := 0
	seen := map[int]bool{}
	for _, q := range e.Questions {
		if q.Number <= prev {
			c.err("V-NUM-001", q.Number, "numbers are not strictly increasing in file order (previous %d)", prev)
		}
		prev = q.Number
		if q.Number > maxNumber {
			maxNumber = q.Number
		}
		seen[q.Number] = true
	}
	for n := 1; n <= maxNumber; n++ {
		if !seen[n] {
			c.warn("V-NUM-002", n, "no question numbered %d in [1,%d]", n, maxNumber)
		}
	}
	if e.Info.TotalQuestions != len(e.Questions) {
		c.err("V-NUM-003", 0, "total_questions %d != len(questions) %d", e.Info.TotalQuestions, len(e.Questions))
	}
}

func checkChoices(c *collector, e *exam.ParsedExam) {
	for _, q := range e.Questions {
		if q.RequiresFiveChoices() {
			if len(q.Choices) != 5 {
				c.err("V-CHOICE-001", q.Number, "expected 5 choices, got %d", len(q.Choices))
			}
			numbers := map[int]bool{}
			for _, ch := range q.Choices {
				numbers[ch.Number] = true
			}
			complete := true
			for n := 1; n <= 5; n++ {
				if !numbers[n] {
					complete = false
				}
			}
			if len(q.Choices) == 5 && !complete {
				c.err("V-CHOICE-002", q.Number, "choice numbers are not exactly {1,2,3,4,5}")
			}
		}
		seenText := map[string]bool{}
		for _, ch := range q.Choices {
			if strings.TrimSpace(ch.Text) == "" {
				c.err("V-CHOICE-003", q.Number, "choice %d has empty text", ch.Number)
				continue
			}
			if seenText[ch.Text] {
				c.err("V-CHOICE-004", q.Number, "duplicate choice text %q", ch.Text)
			}
			seenText[ch.Text] = true
		}
	}
}

func checkListening(c *collector, e *exam.ParsedExam) {
	for _, q := range e.Questions {
		if q.IsListening() {
			if q.Number < 1 || q.Number > exam.ListeningNumberMax {
				c.err("V-LIST-001", q.Number, "listening question numbered outside [1,%d]", exam.ListeningNumberMax)
			}
			if q.Passage != "" {
				c.err("V-LIST-003", q.Number, "listening question carries a non-empty passage")
			}
		} else if q.Number >= 1 && q.Number <= exam.ListeningNumberMax {
			c.warn("V-LIST-002", q.Number, "question numbered within [1,%d] but not tagged 듣기", exam.ListeningNumberMax)
		}
	}
}

func checkGroups(c *collector, e *exam.ParsedExam) {
	for _, q := range e.Questions {
		if q.GroupRange == nil {
			continue
		}
		gr := q.GroupRange
		for n := gr.First; n <= gr.Last; n++ {
			member, ok := e.QuestionByNumber(n)
			if !ok || member.GroupRange == nil || *member.GroupRange != *gr {
				c.err("V-GROUP-001", q.Number, "group range (%d,%d) missing or mismatched member %d", gr.First, gr.Last, n)
			}
		}
		if first, ok := e.QuestionByNumber(gr.First); ok && first.Passage == "" {
			c.err("V-GROUP-002", gr.First, "first member of group (%d,%d) has empty passage", gr.First, gr.Last)
		}
	}
}

func checkQuality(c *collector, e *exam.ParsedExam) {
	seenText := map[string][]int{}
	for _, q := range e.Questions {
		if q.QuestionText != "" {
			seenText[q.QuestionText] = append(seenText[q.QuestionText], q.Number)
		}
		passageRequiring := !q.IsListening() && q.QuestionType != exam.TypeVocabulary && q.QuestionType != exam.TypeGrammar
		if passageRequiring && q.Passage != "" && len([]rune(q.Passage)) < 20 {
			c.warn("V-QUAL-002", q.Number, "passage shorter than 20 characters for %s", q.QuestionType)
		}
		if q.HasImage && !strings.Contains(q.Passage, "[IMAGE:") && !strings.Contains(q.QuestionText, "[IMAGE:") {
			c.warn("V-QUAL-003", q.Number, "has_image is true but no [IMAGE: marker found")
		}
	}
	for text, numbers := range seenText {
		if len(numbers) > 1 {
			c.warn("V-QUAL-001", numbers[0], "question_text duplicated across questions %v: %q", numbers, text)
		}
	}
}
