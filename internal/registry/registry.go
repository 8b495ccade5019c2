// Package registry is the single source of truth GET /api/models,
// --list-models, and --list-ocr all read from (SPEC_FULL.md §4: "CLI and
// HTTP share one source of truth").
package registry

import (
	"fmt"

	"github.com/jawsbaek/exam-pdf-parser/internal/llm"
	"github.com/jawsbaek/exam-pdf-parser/internal/parser"
)

// ModelSpec is one {parser}+{llm} combination, with the llm variant's
// pricing attached.
type ModelSpec struct {
	Spec    string      `json:"spec"`
	Parser  parser.Variant `json:"parser"`
	LLM     llm.Variant `json:"llm"`
	Pricing *llm.Pricing `json:"pricing,omitempty"`
}

// ModelSpecs enumerates every valid {parser}+{llm} combination.
func ModelSpecs() []ModelSpec {
	specs := make([]ModelSpec, 0, len(parser.Variants)*len(llm.Variants))
	for _, p := range parser.Variants {
		for _, l := range llm.Variants {
			spec := ModelSpec{Spec: fmt.Sprintf("%s+%s", p, l), Parser: p, LLM: l}
			if price, ok := llm.PriceOf(l); ok {
				spec.Pricing = &price
			}
			specs = append(specs, spec)
		}
	}
	return specs
}

// ParserVariants enumerates every Document Parser variant.
func ParserVariants() []parser.Variant {
	return parser.Variants
}
