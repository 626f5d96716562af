package errors

import (
	"strings"
	"testing"
)

func TestDimensionErrorMessage(t *testing.T) {
	err := NewDimensionError("SBFitter.Fit", 2, 3, 1)

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("expected DimensionError")
	}
	msg := err.Error()
	for _, want := range []string{"SBFitter.Fit", "Expected 2", "got 3", "columns"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("h[0]", "bandwidths must be positive", -0.1)

	var valErr *ValidationError
	if !As(err, &valErr) {
		t.Fatal("expected ValidationError")
	}
	if valErr.ParamName != "h[0]" {
		t.Errorf("ParamName = %q", valErr.ParamName)
	}
	if !strings.Contains(err.Error(), "-0.1") {
		t.Errorf("message %q missing value", err.Error())
	}
}

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("SBFitter", "Predict")
	if !strings.Contains(err.Error(), "Call Fit() before using Predict()") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestWarnHandler(t *testing.T) {
	var got error
	SetWarningHandler(func(w error) { got = w })
	defer SetWarningHandler(nil)

	w := NewConvergenceWarning("SBFitter", 51, "")
	Warn(w)

	if got == nil {
		t.Fatal("warning handler not invoked")
	}
	var cw *ConvergenceWarning
	if !As(got, &cw) {
		t.Fatalf("unexpected warning type %T", got)
	}
	if cw.Iterations != 51 {
		t.Errorf("Iterations = %d, want 51", cw.Iterations)
	}
	if !strings.Contains(cw.Error(), "failed to converge after 51 iterations") {
		t.Errorf("unexpected message %q", cw.Error())
	}
}

func TestWrapPreservesType(t *testing.T) {
	base := NewValueError("density.Fit", "empty grid")
	wrapped := Wrap(base, "fitting densities")

	var valErr *ValueError
	if !As(wrapped, &valErr) {
		t.Error("wrapping lost the structured type")
	}
	if !Is(wrapped, wrapped) {
		t.Error("Is failed on identical error")
	}
}
