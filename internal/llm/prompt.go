package llm

import (
	"fmt"
	"strings"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

// SchemaPrompt is the literal system prompt C3's Structure call sends,
// pinning the model to the §3 schema and the 22-type taxonomy. Kept as a
// static resource rather than generated at call time (§9 Design Notes:
// "Prompt as data").
var SchemaPrompt = buildSchemaPrompt()

func buildSchemaPrompt() string {
	var sb strings.Builder
	sb.WriteString("You convert a Korean high-school exam, given as Markdown, into a single JSON object.\n")
	sb.WriteString("Respond with JSON only, no commentary, no code fence.\n\n")
	sb.WriteString("Top-level shape:\n")
	sb.WriteString(`{"info": {"title": string, "year": int|null, "month": int|null, "grade": int|null, "subject": string}, "questions": [question, ...]}`)
	sb.WriteString("\n\n")
	sb.WriteString("Each question object:\n")
	sb.WriteString(`{"number": int, "question_type": string, "question_text": string, "passage": string, ` +
		`"choices": [{"number": int, "text": string}, ...], "points": int, "vocabulary_notes": [string, ...], ` +
		`"has_image": bool, "has_table": bool, "sub_questions": [question, ...], "group_range": {"first": int, "last": int}|null}`)
	sb.WriteString("\n\n")
	sb.WriteString("question_type must be exactly one of these 22 tags:\n")
	for _, t := range exam.QuestionTypes {
		sb.WriteString("- ")
		sb.WriteString(string(t))
		sb.WriteString("\n")
	}
	sb.WriteString("\nListening rules: questions tagged 듣기 are numbered 1 through ")
	fmt.Fprintf(&sb, "%d", exam.ListeningNumberMax)
	sb.WriteString(", carry an empty passage (there is no written passage, only audio), and always have exactly 5 choices.\n")
	sb.WriteString("Every non-listening, non-서술형 question has exactly 5 choices numbered 1 through 5, taken from the circled-digit markers ①②③④⑤ in the source.\n")
	sb.WriteString("서술형 (free-response) questions have no choices.\n")
	sb.WriteString("If two or more consecutive questions share one passage, set group_range on every member to {first, last}; give the passage text only to the first member and leave later members' passage empty.\n")
	sb.WriteString("points defaults to 2 when the source does not state a point value explicitly.\n")
	return sb.String()
}

// explainerPreamble introduces the batch explanation request; the body is
// appended per call with the eligible questions serialized inline (§4.6).
const explainerPreamble = "For each of the following exam questions, write a three-part Korean explanation:\n" +
	"1) 정답 근거 — the textual evidence supporting the correct answer\n" +
	"2) 핵심 문법/어휘 포인트 — the key grammar or vocabulary point tested\n" +
	"3) 오답 분석 — why each remaining choice is wrong\n\n" +
	"Respond with a single JSON object mapping each question's number (as a string key) to its explanation text, and nothing else.\n\n" +
	"Questions:\n"

// BuildExplainerPrompt renders the batch explanation request for the given
// eligible questions (§4.6): one prompt enumerating every question that
// ShouldExplain accepts. The instructions are written in English, with the
// three section headings in Korean, and ask for Korean explanations.
func BuildExplainerPrompt(questions []exam.Question) string {
	var sb strings.Builder
	sb.WriteString(explainerPreamble)
	for _, q := range questions {
		fmt.Fprintf(&sb, "\n[%d] (%s)\n", q.Number, q.QuestionType)
		if q.QuestionText != "" {
			sb.WriteString(q.QuestionText)
			sb.WriteString("\n")
		}
		if q.Passage != "" {
			sb.WriteString(q.Passage)
			sb.WriteString("\n")
		}
		for _, c := range q.Choices {
			fmt.Fprintf(&sb, "%d) %s\n", c.Number, c.Text)
		}
	}
	return sb.String()
}

// ShouldExplain reports whether q is eligible for explanation: not
// listening, and carrying either a passage or choices (§4.6).
func ShouldExplain(q exam.Question) bool {
	if q.IsListening() {
		return false
	}
	return q.Passage != "" || len(q.Choices) > 0
}
