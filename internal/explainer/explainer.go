// Package explainer implements C6: a single batch LLM call that attaches a
// three-part Korean explanation to each eligible question. Failures never
// propagate — the exam is returned unchanged — since explanations are
// advisory (§9 Design Notes: "Graceful degradation of the Explainer").
package explainer

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
	"github.com/jawsbaek/exam-pdf-parser/internal/llm"
)

// Outcome reports what AddExplanations did, for the caller's logs and
// per-request counters — never for ValidationResult, per §9's "Do not
// thread explainer errors into ValidationResult".
type Outcome struct {
	Attempted   bool
	Eligible    int
	Explained   int
	Usage       llm.TokenUsage
	Retries     int
	Degraded    bool
	DegradeNote string
}

// AddExplanations mutates only the Explanation field of each eligible
// question in e, in place, and is idempotent: calling it twice overwrites
// prior explanations (§4.6). On any failure it leaves e entirely unchanged.
func AddExplanations(ctx context.Context, client llm.Client, e *exam.ParsedExam) Outcome {
	eligible := make([]exam.Question, 0, len(e.Questions))
	indexByNumber := map[int]int{}
	for i, q := range e.Questions {
		if llm.ShouldExplain(q) {
			eligible = append(eligible, q)
			indexByNumber[q.Number] = i
		}
	}
	if len(eligible) == 0 {
		return Outcome{Attempted: false}
	}

	prompt := llm.BuildExplainerPrompt(eligible)
	body, record, err := client.Explain(ctx, prompt)
	if err != nil {
		return Outcome{Attempted: true, Eligible: len(eligible), Degraded: true, DegradeNote: err.Error()}
	}

	var byNumber map[string]string
	if err := json.Unmarshal([]byte(body), &byNumber); err != nil {
		return Outcome{Attempted: true, Eligible: len(eligible), Usage: record.Usage, Retries: record.Retries,
			Degraded: true, DegradeNote: "explainer reply was not the expected json map"}
	}

	explained := 0
	for numStr, text := range byNumber {
		n, err := parsePositiveInt(numStr)
		if err != nil {
			continue
		}
		idx, ok := indexByNumber[n]
		if !ok {
			continue
		}
		copyText := text
		e.Questions[idx].Explanation = &copyText
		explained++
	}

	return Outcome{
		Attempted: true,
		Eligible:  len(eligible),
		Explained: explained,
		Usage:     record.Usage,
		Retries:   record.Retries,
	}
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
