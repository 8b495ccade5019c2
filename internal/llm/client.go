// Package llm implements C3: the LLM Client layer. A Client projects
// Markdown onto the problem schema (Structure) and, separately, drafts
// batch explanations (Explain). Two variants back it — gemini-3-* via
// github.com/google/generative-ai-go/genai, and gpt-5.1 via
// github.com/sashabaranov/go-openai — selected by model_spec the way §4.3
// describes, with a single retry/backoff/rate-limit policy shared by both
// (§9 Design Notes: "Consolidate retry policy in the LLM Client only").
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

// Variant names a supported LLM backend (§4.3).
type Variant string

const (
	VariantGeminiFlash Variant = "gemini-3-flash-preview"
	VariantGeminiPro   Variant = "gemini-3-pro-preview"
	VariantGPT51       Variant = "gpt-5.1"
)

// Variants lists every supported LLM variant.
var Variants = []Variant{VariantGeminiFlash, VariantGeminiPro, VariantGPT51}

// IsValidVariant reports whether v is a known LLM variant.
func IsValidVariant(v Variant) bool {
	for _, known := range Variants {
		if known == v {
			return true
		}
	}
	return false
}

// TokenUsage records input/output token counts for one call, for the §4.7
// CostReport and §4.3 token accounting.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Add accumulates u2 into u.
func (u *TokenUsage) Add(u2 TokenUsage) {
	u.InputTokens += u2.InputTokens
	u.OutputTokens += u2.OutputTokens
}

// CallRecord is one LLM call's accounting: usage plus how many retries it
// took, for the cost report's retry visibility (§8 scenario 4).
type CallRecord struct {
	Usage   TokenUsage
	Retries int
}

// Client is the narrow capability set an LLM variant exposes (§9 Design
// Notes: "{structure, explain}" rather than a class hierarchy).
type Client interface {
	// Structure projects markdown onto the problem schema using
	// schemaPrompt, returning raw (possibly still-fenced) JSON text.
	Structure(ctx context.Context, markdown, schemaPrompt string) (string, CallRecord, error)

	// Explain runs a single batch explanation call and returns raw JSON
	// mapping question numbers to explanation text.
	Explain(ctx context.Context, prompt string) (string, CallRecord, error)

	// Variant reports which model spec backs this client.
	Variant() Variant
}

// perAttemptTimeout returns the timeout for a variant: 120s for Flash-class
// models, 300s for Pro-class and GPT models. Structure and Explain apply it
// to the whole call, so all attempts and backoff sleeps share one budget; it
// is not applied to each attempt separately.
func perAttemptTimeout(v Variant) time.Duration {
	if v == VariantGeminiFlash {
		return 120 * time.Second
	}
	return 300 * time.Second
}

// retryPolicy implements §4.3's retry contract: up to 3 retries with
// exponential backoff, base 2s, cap 30s, on HTTP 429/503 or a JSON-parse
// failure. A non-retriable quota condition surfaces immediately as
// LLMQuotaError.
type retryPolicy struct {
	limiter    *rate.Limiter
	maxRetries int
}

func newRetryPolicy(ratePerMinute int) *retryPolicy {
	if ratePerMinute <= 0 {
		ratePerMinute = 60
	}
	// rate.Limiter wants events/second; §6's RATE_LIMIT_PER_MINUTE is
	// expressed per-minute, so convert.
	limit := rate.Limit(float64(ratePerMinute) / 60.0)
	return &retryPolicy{
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: 3,
	}
}

func backoffDelay(attempt int) time.Duration {
	base := 2 * time.Second
	ceiling := 30 * time.Second
	d := base * time.Duration(1<<uint(attempt))
	if d > ceiling {
		d = ceiling
	}
	return d
}

// attempt runs fn under the rate limiter, retrying retriable errors per the
// policy above. fn must return (body, retriable, err): retriable is true
// when the failure is a transient HTTP condition or a JSON-parse failure
// that a retry might fix.
func (p *retryPolicy) attempt(ctx context.Context, fn func(ctx context.Context) (string, bool, error)) (string, int, error) {
	var lastErr error
	retries := 0
	for i := 0; i <= p.maxRetries; i++ {
		retries = i
		if err := p.limiter.Wait(ctx); err != nil {
			return "", i, exam.NewLLMTransportError("rate limiter wait canceled", err)
		}
		body, retriable, err := fn(ctx)
		if err == nil {
			return body, i, nil
		}
		lastErr = err
		if !retriable || i == p.maxRetries {
			break
		}
		select {
		case <-time.After(backoffDelay(i)):
		case <-ctx.Done():
			return "", i, exam.NewLLMTransportError("context canceled during backoff", ctx.Err())
		}
	}
	return "", retries, lastErr
}

// stripCodeFences removes a leading/trailing ```json ... ``` or ``` ... ```
// fence, matching §4.3's "Code fences are stripped before JSON parsing."
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	rest := content[3:]
	if idx := strings.Index(rest, "\n"); idx != -1 {
		rest = rest[idx+1:]
	}
	if idx := strings.LastIndex(rest, "```"); idx != -1 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}

// extractJSONObject narrows content to its outermost {...} span, a belt-
// and-suspenders step for models that add commentary around the JSON body
// (grounded on the teacher's extractJSON in internal/services/ai.go).
func extractJSONObject(content string) string {
	content = stripCodeFences(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return content
	}
	return content[start : end+1]
}

// formatError wraps a JSON-parse failure so the terminal classifiers can
// tell "the model never produced parseable JSON" apart from a transport
// failure, per §4.3's distinct LLMFormatError code.
type formatError struct{ err error }

func (e *formatError) Error() string { return "unparseable llm response: " + e.err.Error() }
func (e *formatError) Unwrap() error { return e.err }

// validateJSON confirms body is at least syntactically valid JSON, the
// check §4.3 retries on failure before finally surfacing LLMFormatError.
func validateJSON(body string) error {
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return &formatError{err: err}
	}
	return nil
}

// isFormatError reports whether err (or something it wraps) is a formatError.
func isFormatError(err error) bool {
	var fe *formatError
	return errors.As(err, &fe)
}
