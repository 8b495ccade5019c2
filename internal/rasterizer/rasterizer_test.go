package rasterizer

import "testing"

func TestNewDefaultsDPI(t *testing.T) {
	r := New(0)
	if r.DPI != DefaultDPI {
		t.Errorf("DPI = %d, want %d", r.DPI, DefaultDPI)
	}
	r2 := New(300)
	if r2.DPI != 300 {
		t.Errorf("DPI = %d, want 300", r2.DPI)
	}
}

func TestPageCountRejectsMissingFile(t *testing.T) {
	r := New(0)
	if _, err := r.PageCount("/nonexistent/path.pdf"); err == nil {
		t.Error("expected an error opening a nonexistent file")
	}
}

func TestRasterizeRejectsMissingFile(t *testing.T) {
	r := New(0)
	if _, err := r.Rasterize("/nonexistent/path.pdf"); err == nil {
		t.Error("expected an error rasterizing a nonexistent file")
	}
}
