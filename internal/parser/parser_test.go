package parser

import (
	"errors"
	"testing"

	"github.com/jawsbaek/exam-pdf-parser/internal/config"
)

var errBoom = errors.New("boom")

func TestIsValidVariant(t *testing.T) {
	if !IsValidVariant(VariantMinerU) {
		t.Error("expected mineru to be valid")
	}
	if IsValidVariant("not-a-variant") {
		t.Error("expected an unknown variant to be rejected")
	}
}

func TestNewUnknownVariant(t *testing.T) {
	if _, err := New("not-a-variant", config.MinerUConfig{}); err == nil {
		t.Error("expected New to reject an unknown variant")
	}
}

func TestNewEachKnownVariant(t *testing.T) {
	for _, v := range Variants {
		if _, err := New(v, config.MinerUConfig{}); err != nil {
			t.Errorf("New(%v) error = %v", v, err)
		}
	}
}

func TestWeightStateRunsLoadOnce(t *testing.T) {
	w := &weightState{}
	calls := 0
	load := func() error {
		calls++
		return nil
	}
	if err := w.ensureInitialized(load); err != nil {
		t.Fatalf("ensureInitialized() error = %v", err)
	}
	if err := w.ensureInitialized(load); err != nil {
		t.Fatalf("ensureInitialized() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("load ran %d times, want 1", calls)
	}
}

func TestWeightStatePropagatesLoadError(t *testing.T) {
	w := &weightState{}
	wantErr := func() error { return errBoom }
	if err := w.ensureInitialized(wantErr); err != errBoom {
		t.Errorf("ensureInitialized() error = %v, want errBoom", err)
	}
}
