package registry

import (
	"testing"

	"github.com/jawsbaek/exam-pdf-parser/internal/llm"
	"github.com/jawsbaek/exam-pdf-parser/internal/parser"
)

func TestModelSpecsIsCrossProduct(t *testing.T) {
	specs := ModelSpecs()
	if len(specs) != len(parser.Variants)*len(llm.Variants) {
		t.Fatalf("got %d specs, want %d", len(specs), len(parser.Variants)*len(llm.Variants))
	}
	for _, s := range specs {
		if s.Pricing == nil {
			t.Errorf("spec %q missing pricing", s.Spec)
		}
	}
}

func TestParserVariants(t *testing.T) {
	if len(ParserVariants()) != len(parser.Variants) {
		t.Error("ParserVariants() should mirror parser.Variants")
	}
}
