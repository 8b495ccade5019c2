// Package orchestrator implements C7: it wires the Document Parser, LLM
// Client, Schema Projector, Validator, and Explainer into one parse call
// for a single PDF (§4.7).
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jawsbaek/exam-pdf-parser/internal/config"
	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
	"github.com/jawsbaek/exam-pdf-parser/internal/explainer"
	"github.com/jawsbaek/exam-pdf-parser/internal/llm"
	"github.com/jawsbaek/exam-pdf-parser/internal/parser"
	"github.com/jawsbaek/exam-pdf-parser/internal/projector"
	"github.com/jawsbaek/exam-pdf-parser/internal/validator"
)

// Options tunes one parse call beyond the bare model_spec.
type Options struct {
	Explain bool
}

// LayerTiming records wall-clock time spent in one pipeline layer, for
// CostReport (§4.7: "wall-clock time per layer").
type LayerTiming struct {
	Parse     time.Duration
	Structure time.Duration
	Explain   time.Duration
}

// CostReport accounts for one parse call's token usage, monetary cost, and
// per-layer timing (§4.7).
type CostReport struct {
	InputTokens   int
	OutputTokens  int
	MonetaryCost  float64
	Timing        LayerTiming
	StructureRetries int
	ExplainOutcome   *explainer.Outcome
}

// ClientFactory builds an llm.Client for a given LLM variant, so the
// Orchestrator does not need direct knowledge of API keys or transport
// construction (constructed once per process in cmd/ and injected here).
type ClientFactory func(v llm.Variant) (llm.Client, error)

// Orchestrator wires C1–C6 for a single PDF.
type Orchestrator struct {
	MinerU      config.MinerUConfig
	NewClient   ClientFactory
}

// New constructs an Orchestrator.
func New(minerU config.MinerUConfig, newClient ClientFactory) *Orchestrator {
	return &Orchestrator{MinerU: minerU, NewClient: newClient}
}

// ParseModelSpec splits a "{parser}+{llm}" model_spec string (§4.7 step 1).
func ParseModelSpec(spec string) (parser.Variant, llm.Variant, error) {
	parts := strings.SplitN(spec, "+", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", exam.NewConfigError(fmt.Sprintf("model spec %q is not of the form {parser}+{llm}", spec), nil)
	}
	pv, lv := parser.Variant(parts[0]), llm.Variant(parts[1])
	if !parser.IsValidVariant(pv) {
		return "", "", exam.NewConfigError(fmt.Sprintf("unknown parser variant %q", pv), nil)
	}
	if !llm.IsValidVariant(lv) {
		return "", "", exam.NewConfigError(fmt.Sprintf("unknown llm variant %q", lv), nil)
	}
	return pv, lv, nil
}

// Parse runs the full pipeline for one PDF, in the strict layer order §5
// requires: no layer begins before the previous completes.
func (o *Orchestrator) Parse(ctx context.Context, pdfPath, modelSpec string, opts Options) (*exam.ParsedExam, validator.Result, CostReport, error) {
	var report CostReport

	pv, lv, err := ParseModelSpec(modelSpec)
	if err != nil {
		return nil, validator.Result{}, report, err
	}

	docParser, err := parser.New(pv, o.MinerU)
	if err != nil {
		return nil, validator.Result{}, report, err
	}
	docParser.SetPDFPath(pdfPath)

	parseStart := time.Now()
	result, err := docParser.ExtractFromPDF(ctx)
	report.Timing.Parse = time.Since(parseStart)
	if err != nil {
		return nil, validator.Result{}, report, err
	}

	client, err := o.NewClient(lv)
	if err != nil {
		return nil, validator.Result{}, report, err
	}

	structStart := time.Now()
	raw, callRecord, err := client.Structure(ctx, result.Markdown, llm.SchemaPrompt)
	report.Timing.Structure = time.Since(structStart)
	report.InputTokens += callRecord.Usage.InputTokens
	report.OutputTokens += callRecord.Usage.OutputTokens
	report.StructureRetries = callRecord.Retries
	if err != nil {
		return nil, validator.Result{}, report, err
	}

	parsedExam, err := projector.Project(raw)
	if err != nil {
		return nil, validator.Result{}, report, err
	}

	validation := validator.Validate(parsedExam)

	if opts.Explain {
		explainStart := time.Now()
		outcome := explainer.AddExplanations(ctx, client, parsedExam)
		report.Timing.Explain = time.Since(explainStart)
		report.InputTokens += outcome.Usage.InputTokens
		report.OutputTokens += outcome.Usage.OutputTokens
		report.ExplainOutcome = &outcome
	}

	report.MonetaryCost = llm.EstimateCost(lv, llm.TokenUsage{InputTokens: report.InputTokens, OutputTokens: report.OutputTokens})

	return parsedExam, validation, report, nil
}
