// Package parser implements C2: a pluggable document layout/OCR engine that
// turns a PDF into structured Markdown. Variants are selected by name at
// configuration time (a tagged-variant selector, per spec.md's Design
// Notes), each exposing the narrow {SetPDFPath, ExtractFromPDF} capability
// set instead of a class hierarchy.
package parser

import (
	"context"
	"fmt"
	"sync"

	"github.com/jawsbaek/exam-pdf-parser/internal/config"
	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

// Variant names the supported Document Parser engines (§4.2).
type Variant string

const (
	VariantMinerU  Variant = "mineru"
	VariantMarker  Variant = "marker"
	VariantDocling Variant = "docling"
	VariantPlain   Variant = "plain"
)

// Variants lists every supported parser variant, in preference order.
var Variants = []Variant{VariantMinerU, VariantMarker, VariantDocling, VariantPlain}

// IsValidVariant reports whether v is a known parser variant.
func IsValidVariant(v Variant) bool {
	for _, known := range Variants {
		if known == v {
			return true
		}
	}
	return false
}

// Result is the output of a Document Parser run: the Markdown and a flag
// indicating whether extraction was partial (some pages failed layout
// analysis but at least one succeeded). A partial result is returned
// without an error; orchestrator.Parse does not pass Partial or
// PartialReason on to its caller.
type Result struct {
	Markdown      string
	Partial       bool
	PartialReason string
}

// DocumentParser is the capability every variant exposes.
type DocumentParser interface {
	SetPDFPath(path string)
	ExtractFromPDF(ctx context.Context) (Result, error)
}

// New instantiates the requested variant, wiring in mineru-specific tuning
// from cfg (§4.2: "other variants accept only their subset"). It fails fast
// with a ConfigError for an unknown variant, matching C7's contract.
func New(v Variant, cfg config.MinerUConfig) (DocumentParser, error) {
	switch v {
	case VariantMinerU:
		return newMinerUParser(cfg), nil
	case VariantMarker:
		return newMarkerParser(), nil
	case VariantDocling:
		return newDoclingParser(), nil
	case VariantPlain:
		return newPlainParser(), nil
	default:
		return nil, exam.NewConfigError(fmt.Sprintf("unknown parser variant %q", v), nil)
	}
}

// weightState models "lazy global model weights" (§5, Design Notes): a
// process-wide singleton per variant, initialized once under a mutex, reused
// without locking by subsequent callers. ensureInitialized does the loading
// from inside ExtractFromPDF, which the HTTP layer reaches only off the
// handler goroutine (a jobmanager worker for async requests, a detached
// goroutine in handleParse for sync ones); the CLI calls it directly.
type weightState struct {
	mu          sync.Mutex
	once        sync.Once
	initialized bool
	initErr     error
}

func (w *weightState) ensureInitialized(load func() error) error {
	w.once.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.initErr = load()
		w.initialized = w.initErr == nil
	})
	return w.initErr
}
