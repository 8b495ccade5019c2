package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

// geminiClient backs the gemini-3-flash-preview and gemini-3-pro-preview
// model specs, grounded on other_examples/bosocmputer-account_ocr_gemini's
// use of github.com/google/generative-ai-go for Gemini vision/structuring
// calls.
type geminiClient struct {
	client  *genai.Client
	variant Variant
	retry   *retryPolicy
}

// modelName maps a Variant onto the underlying Gemini model identifier the
// SDK expects.
func modelName(v Variant) string {
	switch v {
	case VariantGeminiFlash:
		return "gemini-3-flash-preview"
	case VariantGeminiPro:
		return "gemini-3-pro-preview"
	default:
		return string(v)
	}
}

// NewGemini constructs a Client backed by the given Gemini variant.
func NewGemini(ctx context.Context, apiKey string, variant Variant, ratePerMinute int) (Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, exam.NewConfigError("construct gemini client", err)
	}
	return &geminiClient{client: client, variant: variant, retry: newRetryPolicy(ratePerMinute)}, nil
}

func (c *geminiClient) Variant() Variant { return c.variant }

func (c *geminiClient) Structure(ctx context.Context, markdown, schemaPrompt string) (string, CallRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, perAttemptTimeout(c.variant))
	defer cancel()

	model := c.client.GenerativeModel(modelName(c.variant))
	model.SetTemperature(0.1)
	model.SystemInstruction = genai.NewUserContent(genai.Text(schemaPrompt))

	return c.generateStructured(ctx, model, genai.Text(markdown))
}

func (c *geminiClient) Explain(ctx context.Context, prompt string) (string, CallRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, perAttemptTimeout(c.variant))
	defer cancel()

	model := c.client.GenerativeModel(modelName(c.variant))
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(8192)

	return c.generate(ctx, model, genai.Text(prompt))
}

// generateStructured is used by Structure: the response must be valid JSON,
// and a parse failure is itself a retriable condition per §4.3.
func (c *geminiClient) generateStructured(ctx context.Context, model *genai.GenerativeModel, parts ...genai.Part) (string, CallRecord, error) {
	var usage TokenUsage
	body, retries, err := c.retry.attempt(ctx, func(ctx context.Context) (string, bool, error) {
		resp, err := model.GenerateContent(ctx, parts...)
		if err != nil {
			return "", classifyGeminiError(err), err
		}
		if resp.UsageMetadata != nil {
			usage = TokenUsage{
				InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
				OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			}
		}
		text, ok := candidateText(resp)
		if !ok {
			return "", true, fmt.Errorf("gemini returned no candidates")
		}
		candidate := extractJSONObject(text)
		if err := validateJSON(candidate); err != nil {
			return "", true, err
		}
		return candidate, false, nil
	})

	record := CallRecord{Usage: usage, Retries: retries}
	if err != nil {
		if isFormatError(err) {
			return "", record, exam.NewLLMFormatError("gemini response never parsed as json after retries", err)
		}
		return "", record, classifyTerminalGeminiError(err)
	}
	return body, record, nil
}

// generate is used by Explain: no JSON-validity retry, since §4.6 states the
// Explainer itself never raises and simply discards an unparseable reply.
func (c *geminiClient) generate(ctx context.Context, model *genai.GenerativeModel, parts ...genai.Part) (string, CallRecord, error) {
	var usage TokenUsage
	body, retries, err := c.retry.attempt(ctx, func(ctx context.Context) (string, bool, error) {
		resp, err := model.GenerateContent(ctx, parts...)
		if err != nil {
			return "", classifyGeminiError(err), err
		}
		if resp.UsageMetadata != nil {
			usage = TokenUsage{
				InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
				OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			}
		}
		text, ok := candidateText(resp)
		if !ok {
			return "", true, fmt.Errorf("gemini returned no candidates")
		}
		return extractJSONObject(text), false, nil
	})

	record := CallRecord{Usage: usage, Retries: retries}
	if err != nil {
		return "", record, classifyTerminalGeminiError(err)
	}
	return body, record, nil
}

func candidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}

// classifyGeminiError reports whether err represents a condition §4.3 says
// to retry (429 resource-exhausted, 503 unavailable).
func classifyGeminiError(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return true
	}
	return st.Code() == codes.ResourceExhausted || st.Code() == codes.Unavailable
}

func classifyTerminalGeminiError(err error) error {
	st, ok := status.FromError(err)
	if ok && st.Code() == codes.PermissionDenied {
		return exam.NewLLMQuotaError("gemini quota/permission denied", err)
	}
	return exam.NewLLMTransportError("gemini request failed after retries", err)
}
