package exam

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	err := NewLLMQuotaError("quota exhausted", nil)
	code, ok := CodeOf(err)
	if !ok || code != CodeLLMQuotaError {
		t.Fatalf("CodeOf() = %v, %v, want CodeLLMQuotaError, true", code, ok)
	}
}

func TestCodeOfWrapped(t *testing.T) {
	inner := NewParserRuntimeError("gs exited 1", errors.New("exit status 1"))
	wrapped := fmt.Errorf("pipeline failed: %w", inner)
	code, ok := CodeOf(wrapped)
	if !ok || code != CodeParserRuntimeError {
		t.Fatalf("CodeOf(wrapped) = %v, %v, want CodeParserRuntimeError, true", code, ok)
	}
}

func TestCodeOfUnknownError(t *testing.T) {
	if _, ok := CodeOf(errors.New("plain error")); ok {
		t.Errorf("expected CodeOf to miss a non-taxonomy error")
	}
}

func TestTaxonomyErrorMessage(t *testing.T) {
	cause := errors.New("boom")
	err := NewSchemaError("bad shape", cause)
	want := "SchemaError: bad shape: boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
