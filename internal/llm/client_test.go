package llm

import (
	"errors"
	"testing"
	"time"
)

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripCodeFences(in); got != want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	in := "Sure, here is the JSON:\n```json\n{\"info\":{}}\n```\nLet me know if you need anything else."
	want := `{"info":{}}`
	if got := extractJSONObject(in); got != want {
		t.Errorf("extractJSONObject() = %q, want %q", got, want)
	}
}

func TestValidateJSON(t *testing.T) {
	if err := validateJSON(`{"a":1}`); err != nil {
		t.Errorf("expected valid json to pass, got %v", err)
	}
	err := validateJSON("not json")
	if err == nil {
		t.Fatal("expected an error for invalid json")
	}
	if !isFormatError(err) {
		t.Error("expected isFormatError to recognize the wrapped error")
	}
}

func TestIsFormatErrorRejectsOtherErrors(t *testing.T) {
	if isFormatError(errors.New("some other failure")) {
		t.Error("expected isFormatError to reject a non-formatError")
	}
}

func TestBackoffDelayCapsAtCeiling(t *testing.T) {
	if d := backoffDelay(10); d != 30*time.Second {
		t.Errorf("backoffDelay(10) = %v, want capped at 30s", d)
	}
	if d := backoffDelay(0); d != 2*time.Second {
		t.Errorf("backoffDelay(0) = %v, want 2s", d)
	}
}
