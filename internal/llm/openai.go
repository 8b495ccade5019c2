package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

// openAIClient backs the gpt-5.1 model spec, grounded on the teacher's
// internal/services/ai.go use of github.com/sashabaranov/go-openai.
type openAIClient struct {
	client *openai.Client
	model  string
	retry  *retryPolicy
}

// NewOpenAI constructs a gpt-5.1-backed Client.
func NewOpenAI(apiKey, model string, ratePerMinute int) Client {
	return &openAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
		retry:  newRetryPolicy(ratePerMinute),
	}
}

func (c *openAIClient) Variant() Variant { return VariantGPT51 }

func (c *openAIClient) Structure(ctx context.Context, markdown, schemaPrompt string) (string, CallRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, perAttemptTimeout(c.Variant()))
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: schemaPrompt},
			{Role: openai.ChatMessageRoleUser, Content: markdown},
		},
		Temperature: 0.1,
	}
	return c.callStructured(ctx, req)
}

func (c *openAIClient) Explain(ctx context.Context, prompt string) (string, CallRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, perAttemptTimeout(c.Variant()))
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   8192,
	}
	return c.call(ctx, req)
}

// callStructured is used by Structure: the response must be valid JSON, and
// a parse failure is itself a retriable condition per §4.3.
func (c *openAIClient) callStructured(ctx context.Context, req openai.ChatCompletionRequest) (string, CallRecord, error) {
	var usage TokenUsage
	body, retries, err := c.retry.attempt(ctx, func(ctx context.Context) (string, bool, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", classifyOpenAIError(err), err
		}
		usage = TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
		if len(resp.Choices) == 0 {
			return "", true, fmt.Errorf("openai returned no choices")
		}
		candidate := extractJSONObject(resp.Choices[0].Message.Content)
		if err := validateJSON(candidate); err != nil {
			return "", true, err
		}
		return candidate, false, nil
	})

	record := CallRecord{Usage: usage, Retries: retries}
	if err != nil {
		if isFormatError(err) {
			return "", record, exam.NewLLMFormatError("openai response never parsed as json after retries", err)
		}
		return "", record, classifyTerminalOpenAIError(err)
	}
	return body, record, nil
}

// call is used by Explain: no JSON-validity retry, since §4.6 states the
// Explainer itself never raises and simply discards an unparseable reply.
func (c *openAIClient) call(ctx context.Context, req openai.ChatCompletionRequest) (string, CallRecord, error) {
	var usage TokenUsage
	body, retries, err := c.retry.attempt(ctx, func(ctx context.Context) (string, bool, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", classifyOpenAIError(err), err
		}
		usage = TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
		if len(resp.Choices) == 0 {
			return "", true, fmt.Errorf("openai returned no choices")
		}
		return extractJSONObject(resp.Choices[0].Message.Content), false, nil
	})

	record := CallRecord{Usage: usage, Retries: retries}
	if err != nil {
		return "", record, classifyTerminalOpenAIError(err)
	}
	return body, record, nil
}

// classifyOpenAIError reports whether err represents a condition §4.3 says
// to retry (HTTP 429/503, or a transient no-choices response).
func classifyOpenAIError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == "insufficient_quota" {
			return false
		}
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode == http.StatusServiceUnavailable
	}
	return true
}

// classifyTerminalOpenAIError converts an exhausted-retry error into the
// taxonomy: a quota condition (insufficient_quota) is never retried and
// surfaces as LLMQuotaError; everything else surfaces as a transport error
// after the retries in classifyOpenAIError were exhausted.
func classifyTerminalOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == "insufficient_quota" || apiErr.HTTPStatusCode == http.StatusPaymentRequired {
			return exam.NewLLMQuotaError("openai quota exceeded", err)
		}
	}
	return exam.NewLLMTransportError("openai request failed after retries", err)
}
