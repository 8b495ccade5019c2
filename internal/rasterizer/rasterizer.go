// Package rasterizer implements C1: converting a PDF into a page-ordered
// sequence of PNG images. It reuses the teacher's Ghostscript-backed
// rendering strategy (internal/services/pdf.go in the source project) and
// its page-count probe via github.com/ledongthuc/pdf.
package rasterizer

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ledongthuc/pdf"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

// DefaultDPI is the rasterizer's default resolution (§4.1).
const DefaultDPI = 200

// Page is one rasterized page: its 0-based index, its PNG bytes, and the MIME
// type of the bytes (always "image/png" today, kept as a field so a future
// encoder swap doesn't ripple through callers).
type Page struct {
	Index    int
	PNG      []byte
	MimeType string
}

// Rasterizer converts a PDF file on disk into page images at a fixed DPI.
type Rasterizer struct {
	DPI int
}

// New constructs a Rasterizer at the given DPI, defaulting to DefaultDPI
// when dpi <= 0.
func New(dpi int) *Rasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Rasterizer{DPI: dpi}
}

// PageCount opens path just far enough to report how many pages it has,
// without rendering anything. It is restartable: each call reopens the file
// handle, per §4.1's "no I/O outside reading the input file, restartable"
// contract.
func (r *Rasterizer) PageCount(path string) (int, error) {
	f, doc, err := pdf.Open(path)
	if err != nil {
		return 0, exam.NewInputError(fmt.Sprintf("open pdf %s", path), err)
	}
	defer f.Close()
	return doc.NumPage(), nil
}

// Rasterize renders every page of path to PNG bytes at r.DPI and returns them
// in page order. It fails with an InputError when the file is not a valid
// PDF or has zero pages (§4.1).
func (r *Rasterizer) Rasterize(path string) ([]Page, error) {
	numPages, err := r.PageCount(path)
	if err != nil {
		return nil, err
	}
	if numPages == 0 {
		return nil, exam.NewInputError(fmt.Sprintf("pdf %s has zero pages", path), nil)
	}

	tempDir, err := os.MkdirTemp("", "exam-rasterize-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	outputPattern := filepath.Join(tempDir, "page-%03d.png")
	cmd := exec.Command("gs",
		"-dQUIET",
		"-dSAFER",
		"-dNOPAUSE",
		"-dBATCH",
		"-sDEVICE=png16m",
		fmt.Sprintf("-r%d", r.DPI),
		fmt.Sprintf("-sOutputFile=%s", outputPattern),
		path,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, exam.NewInputError(
			fmt.Sprintf("ghostscript render failed, stderr: %s", stderr.String()), err)
	}

	pages := make([]Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pagePath := filepath.Join(tempDir, fmt.Sprintf("page-%03d.png", i))
		data, err := os.ReadFile(pagePath)
		if err != nil {
			return nil, fmt.Errorf("read rendered page %d: %w", i, err)
		}
		pages = append(pages, Page{Index: i - 1, PNG: data, MimeType: "image/png"})
	}

	return pages, nil
}
