package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
	"github.com/jawsbaek/exam-pdf-parser/internal/validator"
)

func TestExitCodeForTaxonomyErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{exam.NewInputError("bad input", nil), exitInputError},
		{exam.NewLLMQuotaError("quota", nil), exitLLMError},
		{exam.NewLLMTransportError("transport", nil), exitLLMError},
		{exam.NewLLMFormatError("format", nil), exitLLMError},
		{exam.NewValidationError("invalid", nil), exitValidationFail},
		{exam.NewConfigError("config", nil), exitInputError},
		{errors.New("not a taxonomy error"), exitInputError},
	}
	for _, tc := range cases {
		if got := exitCodeFor(tc.err); got != tc.want {
			t.Errorf("exitCodeFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestExitCodeForValidationFailure(t *testing.T) {
	err := &validationFailure{result: validator.Result{Errors: []validator.Finding{{Code: "V-SCHEMA-001"}}}}
	if got := exitCodeFor(err); got != exitValidationFail {
		t.Errorf("exitCodeFor(validationFailure) = %d, want %d", got, exitValidationFail)
	}
}

func TestRunListModelsDoesNotRequireAPdfPath(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	err := run(cmd, nil, flags{listModels: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if out.Len() == 0 {
		t.Error("expected --list-models to print a non-empty listing")
	}
}

func TestRunRequiresPdfPathWhenNotListing(t *testing.T) {
	cmd := &cobra.Command{}
	err := run(cmd, nil, flags{}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected an error when no pdf path and no listing flag is given")
	}
	if code, ok := exam.CodeOf(err); !ok || code != exam.CodeInputError {
		t.Errorf("code = %v, want InputError", code)
	}
}
