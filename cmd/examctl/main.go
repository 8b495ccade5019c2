// Command examctl is the CLI entry point over the parsing pipeline (§6):
// one positional PDF path, a model spec, and flags controlling validation,
// the answer-key comparator, and the registry listings.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jawsbaek/exam-pdf-parser/internal/answerkey"
	"github.com/jawsbaek/exam-pdf-parser/internal/config"
	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
	"github.com/jawsbaek/exam-pdf-parser/internal/llm"
	"github.com/jawsbaek/exam-pdf-parser/internal/orchestrator"
	"github.com/jawsbaek/exam-pdf-parser/internal/registry"
	"github.com/jawsbaek/exam-pdf-parser/internal/validator"
)

// newLogger builds the same console-writer zerolog logger cmd/server/main.go
// constructs, writing to stderr so stdout stays reserved for -o/--output's
// JSON payload and --list-models/--list-ocr's listings.
func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// Exit codes per §6: 0 success, 2 input error, 3 LLM quota/transport error,
// 4 validation error (strict).
const (
	exitSuccess        = 0
	exitInputError     = 2
	exitLLMError       = 3
	exitValidationFail = 4
)

type flags struct {
	model       string
	output      string
	validate    bool
	answerKey   string
	listModels  bool
	listOCR     bool
	skipExplain bool
}

func main() {
	var f flags
	logger := newLogger()

	root := &cobra.Command{
		Use:   "examctl [pdf-path]",
		Short: "Structure a Korean exam PDF into a validated JSON record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, f, logger)
		},
		SilenceUsage: true,
	}

	root.Flags().StringVarP(&f.model, "model", "m", "mineru+gemini-3-pro-preview", "{parser}+{llm} model spec")
	root.Flags().StringVarP(&f.output, "output", "o", "", "JSON output path (default stdout)")
	root.Flags().BoolVar(&f.validate, "validate", false, "run Layer 3 and exit non-zero on validation errors")
	root.Flags().StringVar(&f.answerKey, "answer-key", "", "cross-reference against a Markdown answer key file")
	root.Flags().BoolVar(&f.listModels, "list-models", false, "list model specs and exit")
	root.Flags().BoolVar(&f.listOCR, "list-ocr", false, "list parser variants and exit")
	root.Flags().BoolVar(&f.skipExplain, "skip-explain", false, "omit the explainer layer")

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("examctl failed")
		os.Exit(exitCodeFor(err))
	}
}

func run(cmd *cobra.Command, args []string, f flags, logger zerolog.Logger) error {
	if f.listModels {
		return printJSON(cmd, registry.ModelSpecs())
	}
	if f.listOCR {
		return printJSON(cmd, registry.ParserVariants())
	}
	if len(args) != 1 {
		return exam.NewInputError("a PDF path is required", nil)
	}
	pdfPath := args[0]

	cfg := config.Load()
	orch := orchestrator.New(cfg.MinerU, newClientFactory(cfg))

	logger.Info().Str("pdf", pdfPath).Str("model", f.model).Msg("starting parse")
	parsedExam, validation, cost, err := orch.Parse(context.Background(), pdfPath, f.model, orchestrator.Options{Explain: !f.skipExplain})
	if err != nil {
		logger.Error().Err(err).Str("pdf", pdfPath).Msg("parse failed")
		return err
	}
	logger.Info().Int("questions", parsedExam.Info.TotalQuestions).
		Int("input_tokens", cost.InputTokens).Int("output_tokens", cost.OutputTokens).
		Msg("parse succeeded")

	if f.answerKey != "" {
		body, err := os.ReadFile(f.answerKey)
		if err != nil {
			return exam.NewInputError("read answer key", err)
		}
		entries, err := answerkey.Parse(string(body))
		if err != nil {
			return exam.NewInputError("parse answer key", err)
		}
		mismatches := answerkey.Compare(parsedExam, entries)
		for _, m := range mismatches {
			fmt.Fprintf(cmd.ErrOrStderr(), "answer-key mismatch: question %d expected %d: %s\n", m.Number, m.Expected, m.Found)
		}
	}

	out := map[string]any{"exam": parsedExam, "cost": cost}
	if f.validate {
		out["validation"] = validation
	}
	if err := writeOutput(cmd, f.output, out); err != nil {
		return err
	}

	if f.validate && !validation.OK() {
		logger.Warn().Int("errors", len(validation.Errors)).Msg("validation failed")
		return &validationFailure{result: validation}
	}
	return nil
}

// validationFailure carries a non-empty validator.Result so exitCodeFor can
// map it to exit code 4 without conflating it with an exam.TaxonomyError.
type validationFailure struct{ result validator.Result }

func (e *validationFailure) Error() string {
	return fmt.Sprintf("validation failed with %d error(s)", len(e.result.Errors))
}

func exitCodeFor(err error) int {
	var vf *validationFailure
	if errors.As(err, &vf) {
		return exitValidationFail
	}
	code, known := exam.CodeOf(err)
	if !known {
		return exitInputError
	}
	switch code {
	case exam.CodeLLMQuotaError, exam.CodeLLMTransportError, exam.CodeLLMFormatError:
		return exitLLMError
	case exam.CodeValidationError:
		return exitValidationFail
	default:
		return exitInputError
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOutput(cmd *cobra.Command, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return exam.NewSchemaError("marshal output", err)
	}
	if path == "" {
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func newClientFactory(cfg config.Config) orchestrator.ClientFactory {
	return func(v llm.Variant) (llm.Client, error) {
		switch v {
		case llm.VariantGeminiFlash, llm.VariantGeminiPro:
			return llm.NewGemini(context.Background(), cfg.GoogleAPIKey, v, cfg.RateLimitPerMinute)
		case llm.VariantGPT51:
			return llm.NewOpenAI(cfg.OpenAIAPIKey, string(v), cfg.RateLimitPerMinute), nil
		default:
			return nil, exam.NewConfigError("unknown llm variant "+string(v), nil)
		}
	}
}
