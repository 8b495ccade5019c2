package parser

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
	"github.com/jawsbaek/exam-pdf-parser/internal/rasterizer"
)

// plainWeights: the plain variant has nothing to load — it walks the PDF's
// embedded text layer directly — but it still goes through the same
// ensureInitialized gate so every variant shares one lifecycle shape.
var plainWeights = &weightState{}

// plainParser is the last-resort fallback (§4.2: "plus several fallbacks"):
// no layout analysis, no OCR, just the PDF's embedded text stream in
// document order. When the whole document's embedded text layer comes back
// empty (a fully scanned PDF with no text at all), it has no transcription
// to offer, so it falls back to C1 (internal/rasterizer) to rasterize every
// page and reports each as an [IMAGE: ...] placeholder instead — the
// "engine needs rendered pages" case §4.7 names. A document with text on
// some pages and none on others returns only the extracted text; the empty
// pages are not rasterized. A document that rasterizes cleanly is reported
// via Result.Partial, since downstream layers receive no transcribed text
// for those pages, not a hard failure.
type plainParser struct {
	pdfPath string
	raster  *rasterizer.Rasterizer
}

func newPlainParser() *plainParser {
	return &plainParser{raster: rasterizer.New(rasterizer.DefaultDPI)}
}

func (p *plainParser) SetPDFPath(path string) { p.pdfPath = path }

func (p *plainParser) ExtractFromPDF(ctx context.Context) (Result, error) {
	if p.pdfPath == "" {
		return Result{}, exam.NewInputError("plain parser: no pdf path set", nil)
	}
	if err := plainWeights.ensureInitialized(func() error { return nil }); err != nil {
		return Result{}, exam.NewParserInitError("plain parser init failed", err)
	}

	f, r, err := pdf.Open(p.pdfPath)
	if err != nil {
		return Result{}, exam.NewInputError(fmt.Sprintf("open pdf %s", p.pdfPath), err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return Result{}, exam.NewParserRuntimeError("extract plain text", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, reader); err != nil {
		return Result{}, exam.NewParserRuntimeError("read plain text stream", err)
	}

	if strings.TrimSpace(sb.String()) != "" {
		return Result{Markdown: sb.String()}, nil
	}

	return p.rasterizeFallback()
}

// rasterizeFallback handles a PDF with no embedded text layer at all (a
// fully scanned document): it renders each page with C1 and reports the
// page set as [IMAGE: ...] placeholders per §4.2's contract, rather than
// returning an empty document.
func (p *plainParser) rasterizeFallback() (Result, error) {
	pages, err := p.raster.Rasterize(p.pdfPath)
	if err != nil {
		return Result{}, exam.NewParserRuntimeError("no embedded text layer; rasterize fallback failed", err)
	}

	var md strings.Builder
	for _, page := range pages {
		fmt.Fprintf(&md, "[IMAGE: page=%d, caption=scanned page, no embedded text layer]\n\n", page.Index+1)
	}

	return Result{
		Markdown:      md.String(),
		Partial:       true,
		PartialReason: fmt.Sprintf("no embedded text layer; rasterized %d page(s) as image placeholders", len(pages)),
	}, nil
}
