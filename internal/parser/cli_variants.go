package parser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

// markerWeights / doclingWeights: each CLI-backed variant loads its model
// weights into the external process's own memory on first invocation; this
// process only needs to confirm the binary is on PATH once.
var markerWeights = &weightState{}
var doclingWeights = &weightState{}

type markerParser struct {
	pdfPath string
}

func newMarkerParser() *markerParser { return &markerParser{} }

func (p *markerParser) SetPDFPath(path string) { p.pdfPath = path }

func (p *markerParser) ExtractFromPDF(ctx context.Context) (Result, error) {
	if p.pdfPath == "" {
		return Result{}, exam.NewInputError("marker parser: no pdf path set", nil)
	}
	if err := markerWeights.ensureInitialized(func() error {
		_, err := exec.LookPath("marker_single")
		return err
	}); err != nil {
		return Result{}, exam.NewParserInitError("marker binary unavailable", err)
	}
	return runCLIMarkdownTool(ctx, "marker_single", p.pdfPath, []string{"--output_format", "markdown"})
}

type doclingParser struct {
	pdfPath string
}

func newDoclingParser() *doclingParser { return &doclingParser{} }

func (p *doclingParser) SetPDFPath(path string) { p.pdfPath = path }

func (p *doclingParser) ExtractFromPDF(ctx context.Context) (Result, error) {
	if p.pdfPath == "" {
		return Result{}, exam.NewInputError("docling parser: no pdf path set", nil)
	}
	if err := doclingWeights.ensureInitialized(func() error {
		_, err := exec.LookPath("docling")
		return err
	}); err != nil {
		return Result{}, exam.NewParserInitError("docling binary unavailable", err)
	}
	return runCLIMarkdownTool(ctx, "docling", p.pdfPath, []string{"--to", "md"})
}

// runCLIMarkdownTool shells out to a layout-analysis CLI that writes a
// Markdown file into a temp --output_dir, then reads that file back. Mirrors the
// teacher's Ghostscript invocation in internal/services/pdf.go: an external
// binary, a temp output directory, explicit stderr capture.
func runCLIMarkdownTool(ctx context.Context, bin, pdfPath string, extraArgs []string) (Result, error) {
	outDir, err := os.MkdirTemp("", "exam-parse-*")
	if err != nil {
		return Result{}, fmt.Errorf("create temp output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := append([]string{pdfPath, "--output_dir", outDir}, extraArgs...)
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Result{}, exam.NewParserRuntimeError(
			fmt.Sprintf("%s failed, stderr: %s", bin, stderr.String()), err)
	}

	base := filepath.Base(pdfPath)
	ext := filepath.Ext(base)
	mdName := base[:len(base)-len(ext)] + ".md"
	mdPath := filepath.Join(outDir, mdName)

	data, err := os.ReadFile(mdPath)
	if err != nil {
		return Result{}, exam.NewParserRuntimeError(fmt.Sprintf("read %s output %s", bin, mdPath), err)
	}
	return Result{Markdown: string(data)}, nil
}
