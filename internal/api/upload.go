package api

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// writeUploadToTemp buffers an uploaded PDF into uploadDir (UPLOAD_DIR,
// falling back to os.TempDir() when empty), named with a UUID, the same
// naming scheme the teacher's DocumentService.Create uses for stored files.
// The directory is shared across processes, not created per process.
func writeUploadToTemp(src io.Reader, uploadDir string) (string, error) {
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure upload dir: %w", err)
	}

	path := filepath.Join(uploadDir, uuid.NewString()+".pdf")
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp upload file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write temp upload file: %w", err)
	}
	return path, nil
}

// removeUpload deletes a temp upload. handleParse calls it once its parse
// returns; uploads accepted by handleParseAsync are not removed, whether the
// job finishes or Submit rejects it. Best-effort: a failed removal is not
// surfaced to the caller.
func removeUpload(path string) {
	_ = os.Remove(path)
}
