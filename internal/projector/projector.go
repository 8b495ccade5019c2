// Package projector implements C4: it turns the raw JSON an LLM Client
// returns into a validated exam.ParsedExam, repairing tolerable defects
// (§4.4) and rejecting only irreparable ones with a SchemaError.
package projector

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

// circledDigits maps the five circled-digit choice markers to 1-indexed
// choice numbers (§4.2: "circled digits (①②③④⑤) which act as choice
// markers").
var circledDigits = []rune{'①', '②', '③', '④', '⑤'}

type rawExam struct {
	Info      rawInfo       `json:"info"`
	Questions []rawQuestion `json:"questions"`
}

type rawInfo struct {
	Title   string `json:"title"`
	Year    *int   `json:"year"`
	Month   *int   `json:"month"`
	Grade   *int   `json:"grade"`
	Subject string `json:"subject"`
}

type rawQuestion struct {
	Number          json.RawMessage `json:"number"`
	QuestionType    string          `json:"question_type"`
	QuestionText    string          `json:"question_text"`
	Passage         string          `json:"passage"`
	Choices         json.RawMessage `json:"choices"`
	Points          json.RawMessage `json:"points"`
	VocabularyNotes []string        `json:"vocabulary_notes"`
	HasImage        *bool           `json:"has_image"`
	HasTable        *bool           `json:"has_table"`
	SubQuestions    []rawQuestion   `json:"sub_questions"`
	GroupRange      *exam.GroupRange `json:"group_range"`
}

// Project parses body as the raw schema the LLM Client returns and builds a
// validated exam.ParsedExam, per §4.4: coercion, defaults, group
// normalization, choice repair, and the total count. It rejects with a SchemaError only on the
// irreparable violations §4.4 names.
func Project(body string) (*exam.ParsedExam, error) {
	var raw rawExam
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, exam.NewSchemaError("raw exam json did not match the expected shape", err)
	}

	questions := make([]exam.Question, 0, len(raw.Questions))
	seen := map[int]bool{}
	for _, rq := range raw.Questions {
		q, err := projectQuestion(rq)
		if err != nil {
			return nil, err
		}
		if q.Number <= 0 {
			return nil, exam.NewSchemaError(fmt.Sprintf("question missing a positive number: %+v", rq), nil)
		}
		if seen[q.Number] {
			return nil, exam.NewSchemaError(fmt.Sprintf("duplicate question number %d", q.Number), nil)
		}
		seen[q.Number] = true
		questions = append(questions, q)
	}

	detectGroupsFromPassages(questions)

	parsed := &exam.ParsedExam{
		Info: exam.ExamInfo{
			Title:   strings.TrimSpace(raw.Info.Title),
			Year:    raw.Info.Year,
			Month:   raw.Info.Month,
			Grade:   raw.Info.Grade,
			Subject: strings.TrimSpace(raw.Info.Subject),
		},
		Questions: questions,
	}
	parsed.Finalize()
	return parsed, nil
}

func projectQuestion(rq rawQuestion) (exam.Question, error) {
	number, err := coerceInt(rq.Number)
	if err != nil {
		return exam.Question{}, exam.NewSchemaError("question number is neither an integer nor a numeric string", err)
	}

	qType := exam.QuestionType(strings.TrimSpace(rq.QuestionType))
	questionText := strings.TrimSpace(rq.QuestionText)
	passage := strings.TrimSpace(rq.Passage)

	if questionText == "" && qType != exam.TypeListening {
		return exam.Question{}, exam.NewSchemaError(
			fmt.Sprintf("question %d: question_text is required for non-listening questions", number), nil)
	}

	choices, err := projectChoices(rq.Choices)
	if err != nil {
		return exam.Question{}, exam.NewSchemaError(fmt.Sprintf("question %d: %v", number, err), err)
	}
	requiresFive := qType != exam.TypeListening && qType != exam.TypeFreeResponse
	if requiresFive && len(choices) > 0 && len(choices) != 5 {
		return exam.Question{}, exam.NewSchemaError(
			fmt.Sprintf("question %d: %d choices remain after repair, 5 required for %s", number, len(choices), qType), nil)
	}

	points, err := coerceInt(rq.Points)
	if err != nil || points < 1 || points > 5 {
		points = 2
	}

	notes := make([]string, 0, len(rq.VocabularyNotes))
	for _, n := range rq.VocabularyNotes {
		if n = strings.TrimSpace(n); n != "" {
			notes = append(notes, n)
		}
	}

	subQuestions := make([]exam.Question, 0, len(rq.SubQuestions))
	for _, sq := range rq.SubQuestions {
		projected, err := projectQuestion(sq)
		if err != nil {
			return exam.Question{}, err
		}
		subQuestions = append(subQuestions, projected)
	}

	groupRange := rq.GroupRange
	if len(subQuestions) > 0 {
		min, max := subQuestions[0].Number, subQuestions[0].Number
		for _, sq := range subQuestions {
			if sq.Number < min {
				min = sq.Number
			}
			if sq.Number > max {
				max = sq.Number
			}
		}
		groupRange = &exam.GroupRange{First: min, Last: max}
	}

	hasImage := derivedFlag(rq.HasImage, questionText, passage, "[IMAGE:")
	hasTable := derivedFlag(rq.HasTable, questionText, passage, "[TABLE:")

	return exam.Question{
		Number:          number,
		QuestionType:    qType,
		QuestionText:    questionText,
		Passage:         passage,
		Choices:         choices,
		Points:          points,
		VocabularyNotes: notes,
		HasImage:        hasImage,
		HasTable:        hasTable,
		SubQuestions:    subQuestions,
		GroupRange:      groupRange,
	}, nil
}

// derivedFlag implements §4.4.2's has_image/has_table default: true if the
// model set the flag explicitly, otherwise true only if a Markdown marker is
// present (§9 Open Questions: "treat Markdown markers as authoritative").
func derivedFlag(explicit *bool, fields ...string) bool {
	if explicit != nil {
		return *explicit
	}
	marker := fields[len(fields)-1]
	for _, f := range fields[:len(fields)-1] {
		if strings.Contains(f, marker) {
			return true
		}
	}
	return false
}

// projectChoices repairs the two shapes the LLM may emit for choices: a
// proper array of {number, text}, or a single string containing circled-
// digit markers (§4.4.4).
func projectChoices(raw json.RawMessage) ([]exam.Choice, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var asArray []struct {
		Number json.RawMessage `json:"number"`
		Text   string          `json:"text"`
	}
	if err := json.Unmarshal(raw, &asArray); err == nil {
		choices := make([]exam.Choice, 0, len(asArray))
		for i, c := range asArray {
			n, err := coerceInt(c.Number)
			if err != nil {
				n = i + 1
			}
			choices = append(choices, exam.Choice{Number: n, Text: strings.TrimSpace(c.Text)})
		}
		return choices, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return splitCircledChoices(asString), nil
	}

	return nil, fmt.Errorf("choices field is neither an array nor a string")
}

// splitCircledChoices splits a blob of text on circled-digit markers and
// renumbers the resulting fragments 1-5.
func splitCircledChoices(blob string) []exam.Choice {
	type marker struct {
		pos int
		n   int
	}
	var markers []marker
	for i, r := range blob {
		for n, d := range circledDigits {
			if r == d {
				markers = append(markers, marker{pos: i, n: n + 1})
			}
		}
	}
	if len(markers) == 0 {
		return nil
	}
	choices := make([]exam.Choice, 0, len(markers))
	for i, m := range markers {
		start := m.pos + len(string(circledDigits[m.n-1]))
		end := len(blob)
		if i+1 < len(markers) {
			end = markers[i+1].pos
		}
		text := strings.TrimSpace(blob[start:end])
		choices = append(choices, exam.Choice{Number: m.n, Text: text})
	}
	return choices
}

// coerceInt accepts a JSON number or a numeric string (§4.4.1: "coerce
// numeric strings to integers for number and points").
func coerceInt(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing value")
	}
	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return asInt, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		asString = strings.TrimSpace(asString)
		n, err := strconv.Atoi(asString)
		if err != nil {
			return 0, fmt.Errorf("not a numeric value: %q", asString)
		}
		return n, nil
	}
	return 0, fmt.Errorf("unrecognized numeric encoding")
}

// detectGroupsFromPassages implements the fallback group-detection rule of
// §4.4.3: runs of consecutive questions sharing an identical passage of at
// least 20 characters are assigned a common group_range, for models that
// express grouping only by repeating the passage text rather than naming
// sub_questions explicitly.
func detectGroupsFromPassages(questions []exam.Question) {
	for i := 0; i < len(questions); {
		if questions[i].GroupRange != nil || len(strings.TrimSpace(questions[i].Passage)) < 20 {
			i++
			continue
		}
		j := i + 1
		for j < len(questions) && questions[j].GroupRange == nil && questions[j].Passage == questions[i].Passage {
			j++
		}
		if j-i > 1 {
			gr := &exam.GroupRange{First: questions[i].Number, Last: questions[j-1].Number}
			for k := i; k < j; k++ {
				questions[k].GroupRange = gr
				if k > i {
					questions[k].Passage = ""
				}
			}
		}
		i = j
	}
}
