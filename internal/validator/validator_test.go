package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

func findCode(r Result, code string) bool {
	for _, f := range append(append([]Finding{}, r.Errors...), r.Warnings...) {
		if f.Code == code {
			return true
		}
	}
	return false
}

func validExam() *exam.ParsedExam {
	choices := []exam.Choice{{Number: 1, Text: "a"}, {Number: 2, Text: "b"}, {Number: 3, Text: "c"}, {Number: 4, Text: "d"}, {Number: 5, Text: "e"}}
	e := &exam.ParsedExam{
		Questions: []exam.Question{
			{Number: 18, QuestionType: exam.TypePurpose, QuestionText: "q", Passage: "a passage long enough to pass quality checks here", Choices: choices, Points: 2},
		},
	}
	e.Finalize()
	return e
}

func TestValidateCleanExam(t *testing.T) {
	result := Validate(validExam())
	assert.True(t, result.OK(), "expected a clean exam to validate, got errors: %+v", result.Errors)
}

func TestCheckSchemaPointsOutOfRange(t *testing.T) {
	e := validExam()
	e.Questions[0].Points = 9
	result := Validate(e)
	assert.True(t, findCode(result, "V-SCHEMA-001"), "expected V-SCHEMA-001, got %+v", result.Errors)
}

func TestCheckSchemaInvalidQuestionType(t *testing.T) {
	e := validExam()
	e.Questions[0].QuestionType = "not-a-real-tag"
	result := Validate(e)
	assert.True(t, findCode(result, "V-SCHEMA-002"))
}

func TestCheckNumberingNotIncreasing(t *testing.T) {
	e := validExam()
	e.Questions = append(e.Questions, exam.Question{Number: 18, QuestionType: exam.TypeGrammar, QuestionText: "q", Points: 2})
	e.Finalize()
	result := Validate(e)
	assert.True(t, findCode(result, "V-NUM-001"))
}

func TestCheckNumberingGapWarns(t *testing.T) {
	e := &exam.ParsedExam{Questions: []exam.Question{
		{Number: 1, QuestionType: exam.TypeListening, Points: 2},
		{Number: 3, QuestionType: exam.TypeListening, Points: 2},
	}}
	e.Finalize()
	result := Validate(e)
	assert.True(t, findCode(result, "V-NUM-002"))
}

func TestCheckChoicesWrongCount(t *testing.T) {
	e := validExam()
	e.Questions[0].Choices = e.Questions[0].Choices[:3]
	result := Validate(e)
	assert.True(t, findCode(result, "V-CHOICE-001"))
}

func TestCheckChoicesDuplicateText(t *testing.T) {
	e := validExam()
	e.Questions[0].Choices[1].Text = e.Questions[0].Choices[0].Text
	result := Validate(e)
	assert.True(t, findCode(result, "V-CHOICE-004"))
}

func TestCheckListeningOutOfRange(t *testing.T) {
	e := &exam.ParsedExam{Questions: []exam.Question{{Number: 20, QuestionType: exam.TypeListening, Points: 2}}}
	e.Finalize()
	result := Validate(e)
	assert.True(t, findCode(result, "V-LIST-001"))
}

func TestCheckListeningNonListeningInRangeWarns(t *testing.T) {
	e := &exam.ParsedExam{Questions: []exam.Question{{Number: 5, QuestionType: exam.TypeGrammar, QuestionText: "q", Points: 2}}}
	e.Finalize()
	result := Validate(e)
	assert.True(t, findCode(result, "V-LIST-002"))
}

func TestCheckGroupsMismatchedMember(t *testing.T) {
	gr := &exam.GroupRange{First: 41, Last: 42}
	e := &exam.ParsedExam{Questions: []exam.Question{
		{Number: 41, QuestionType: exam.TypeContentMatch, QuestionText: "q", Passage: "a passage here long enough", GroupRange: gr, Points: 2},
		{Number: 42, QuestionType: exam.TypeContentMatch, QuestionText: "q", Points: 2}, // missing group_range
	}}
	e.Finalize()
	result := Validate(e)
	require.True(t, findCode(result, "V-GROUP-001"))
}

func TestCheckQualityDuplicateText(t *testing.T) {
	e := &exam.ParsedExam{Questions: []exam.Question{
		{Number: 1, QuestionType: exam.TypeListening, Points: 2},
		{Number: 2, QuestionType: exam.TypeListening, Points: 2},
	}}
	e.Questions[0].QuestionText = "same"
	e.Questions[1].QuestionText = "same"
	e.Finalize()
	result := Validate(e)
	assert.True(t, findCode(result, "V-QUAL-001"))
}
