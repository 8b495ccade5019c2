package parser

import (
	"context"
	"testing"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

func TestPlainParserRequiresPath(t *testing.T) {
	p := newPlainParser()
	if _, err := p.ExtractFromPDF(context.Background()); err == nil {
		t.Fatal("expected an error when no pdf path is set")
	}
}

func TestPlainParserRejectsMissingFile(t *testing.T) {
	p := newPlainParser()
	p.SetPDFPath("/nonexistent/path.pdf")
	_, err := p.ExtractFromPDF(context.Background())
	if err == nil {
		t.Fatal("expected an error opening a nonexistent file")
	}
	if code, ok := exam.CodeOf(err); !ok || code != exam.CodeInputError {
		t.Errorf("code = %v, want InputError", code)
	}
}

func TestRasterizeFallbackRejectsMissingFile(t *testing.T) {
	p := newPlainParser()
	p.SetPDFPath("/nonexistent/path.pdf")
	if _, err := p.rasterizeFallback(); err == nil {
		t.Fatal("expected an error rasterizing a nonexistent file")
	}
}
