package explainer

import (
	"context"
	"errors"
	"testing"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
	"github.com/jawsbaek/exam-pdf-parser/internal/llm"
)

type fakeClient struct {
	body    string
	record  llm.CallRecord
	err     error
	variant llm.Variant
}

func (f *fakeClient) Structure(ctx context.Context, markdown, schemaPrompt string) (string, llm.CallRecord, error) {
	return "", llm.CallRecord{}, errors.New("not used in these tests")
}

func (f *fakeClient) Explain(ctx context.Context, prompt string) (string, llm.CallRecord, error) {
	return f.body, f.record, f.err
}

func (f *fakeClient) Variant() llm.Variant { return f.variant }

func examWithEligibleQuestion() *exam.ParsedExam {
	return &exam.ParsedExam{Questions: []exam.Question{
		{Number: 18, QuestionType: exam.TypePurpose, QuestionText: "q", Passage: "a passage"},
		{Number: 1, QuestionType: exam.TypeListening}, // ineligible: listening
	}}
}

func TestAddExplanationsSkipsWhenNothingEligible(t *testing.T) {
	e := &exam.ParsedExam{Questions: []exam.Question{{Number: 1, QuestionType: exam.TypeListening}}}
	outcome := AddExplanations(context.Background(), &fakeClient{}, e)
	if outcome.Attempted {
		t.Error("expected Attempted=false when nothing is eligible")
	}
}

func TestAddExplanationsSuccess(t *testing.T) {
	e := examWithEligibleQuestion()
	client := &fakeClient{body: `{"18": "정답은 3번이다."}`, record: llm.CallRecord{Usage: llm.TokenUsage{InputTokens: 10, OutputTokens: 20}}}
	outcome := AddExplanations(context.Background(), client, e)
	if outcome.Degraded {
		t.Fatalf("unexpected degradation: %s", outcome.DegradeNote)
	}
	if outcome.Explained != 1 {
		t.Errorf("Explained = %d, want 1", outcome.Explained)
	}
	q, _ := e.QuestionByNumber(18)
	if q.Explanation == nil || *q.Explanation != "정답은 3번이다." {
		t.Errorf("Explanation = %v", q.Explanation)
	}
}

func TestAddExplanationsDegradesOnClientError(t *testing.T) {
	e := examWithEligibleQuestion()
	client := &fakeClient{err: errors.New("llm unavailable")}
	outcome := AddExplanations(context.Background(), client, e)
	if !outcome.Degraded {
		t.Fatal("expected degradation on client error")
	}
	q, _ := e.QuestionByNumber(18)
	if q.Explanation != nil {
		t.Error("expected exam to remain unchanged on degradation")
	}
}

func TestAddExplanationsDegradesOnUnparseableBody(t *testing.T) {
	e := examWithEligibleQuestion()
	client := &fakeClient{body: "not json"}
	outcome := AddExplanations(context.Background(), client, e)
	if !outcome.Degraded {
		t.Fatal("expected degradation on unparseable body")
	}
}

func TestAddExplanationsIgnoresUnknownNumbers(t *testing.T) {
	e := examWithEligibleQuestion()
	client := &fakeClient{body: `{"999": "no such question"}`}
	outcome := AddExplanations(context.Background(), client, e)
	if outcome.Explained != 0 {
		t.Errorf("Explained = %d, want 0", outcome.Explained)
	}
}
