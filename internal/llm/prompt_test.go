package llm

import (
	"strings"
	"testing"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

func TestSchemaPromptEnumeratesAllQuestionTypes(t *testing.T) {
	for _, tag := range exam.QuestionTypes {
		if !strings.Contains(SchemaPrompt, string(tag)) {
			t.Errorf("SchemaPrompt missing tag %q", tag)
		}
	}
}

func TestShouldExplain(t *testing.T) {
	cases := []struct {
		name string
		q    exam.Question
		want bool
	}{
		{"listening excluded", exam.Question{QuestionType: exam.TypeListening, Passage: "x"}, false},
		{"passage makes eligible", exam.Question{QuestionType: exam.TypePurpose, Passage: "x"}, true},
		{"choices make eligible", exam.Question{QuestionType: exam.TypeGrammar, Choices: []exam.Choice{{Number: 1, Text: "a"}}}, true},
		{"bare question is not eligible", exam.Question{QuestionType: exam.TypeFreeResponse}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldExplain(tc.q); got != tc.want {
				t.Errorf("ShouldExplain() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBuildExplainerPromptRoundTripsQuestionNumbers(t *testing.T) {
	questions := []exam.Question{
		{Number: 23, QuestionType: exam.TypeBlank, QuestionText: "빈칸에 들어갈 말로 가장 적절한 것은?", Passage: "passage text"},
	}
	prompt := BuildExplainerPrompt(questions)
	if !strings.Contains(prompt, "[23]") {
		t.Errorf("expected prompt to reference question 23, got: %s", prompt)
	}
	if !strings.Contains(prompt, "passage text") {
		t.Error("expected prompt to include the passage")
	}
}
