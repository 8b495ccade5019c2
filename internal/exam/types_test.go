package exam

import "testing"

func TestIsValidQuestionType(t *testing.T) {
	if !IsValidQuestionType(TypeGrammar) {
		t.Errorf("expected %q to be valid", TypeGrammar)
	}
	if IsValidQuestionType("invalid-tag") {
		t.Errorf("expected invalid-tag to be rejected")
	}
}

func TestQuestionRequiresFiveChoices(t *testing.T) {
	cases := []struct {
		name string
		q    Question
		want bool
	}{
		{"listening", Question{QuestionType: TypeListening}, false},
		{"free response", Question{QuestionType: TypeFreeResponse}, false},
		{"grammar", Question{QuestionType: TypeGrammar}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.q.RequiresFiveChoices(); got != tc.want {
				t.Errorf("RequiresFiveChoices() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParsedExamFinalize(t *testing.T) {
	p := &ParsedExam{Questions: []Question{{Number: 1}, {Number: 2}}}
	p.Finalize()
	if p.Info.TotalQuestions != 2 {
		t.Errorf("TotalQuestions = %d, want 2", p.Info.TotalQuestions)
	}
}

func TestQuestionByNumber(t *testing.T) {
	p := &ParsedExam{Questions: []Question{{Number: 5, QuestionText: "x"}}}
	q, ok := p.QuestionByNumber(5)
	if !ok || q.QuestionText != "x" {
		t.Fatalf("QuestionByNumber(5) = %v, %v", q, ok)
	}
	if _, ok := p.QuestionByNumber(99); ok {
		t.Errorf("expected QuestionByNumber(99) to miss")
	}
}
