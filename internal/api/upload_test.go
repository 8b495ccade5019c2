package api

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteUploadToTemp(t *testing.T) {
	dir := t.TempDir()
	path, err := writeUploadToTemp(strings.NewReader("pdf bytes"), dir)
	if err != nil {
		t.Fatalf("writeUploadToTemp() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("path = %q, want dir %q", path, dir)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "pdf bytes" {
		t.Fatalf("ReadFile() = %q, %v", data, err)
	}
	removeUpload(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected removeUpload to delete the file")
	}
}

func TestWriteUploadToTempDefaultsDir(t *testing.T) {
	path, err := writeUploadToTemp(strings.NewReader("x"), "")
	if err != nil {
		t.Fatalf("writeUploadToTemp() error = %v", err)
	}
	defer removeUpload(path)
	if filepath.Dir(path) != os.TempDir() {
		t.Errorf("expected default to os.TempDir(), got %q", filepath.Dir(path))
	}
}
