package errors

import (
	"math"
	"testing"
)

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("sweep", []float64{1, 2, 3}, 1); err != nil {
		t.Errorf("unexpected error for finite values: %v", err)
	}

	err := CheckNumericalStability("sweep", []float64{1, math.NaN()}, 3)
	if err == nil {
		t.Fatal("expected error for NaN")
	}
	var instErr *NumericalInstabilityError
	if !As(err, &instErr) {
		t.Fatalf("unexpected error type %T", err)
	}
	if instErr.Iteration != 3 {
		t.Errorf("Iteration = %d, want 3", instErr.Iteration)
	}

	if err := CheckScalar("projection", math.Inf(1), 0); err == nil {
		t.Error("expected error for Inf")
	}
}

func TestSafeDivide(t *testing.T) {
	if got := SafeDivide(1, 0, 1e-10); got != 0 {
		t.Errorf("SafeDivide(1, 0) = %g, want 0", got)
	}
	if got := SafeDivide(1, 1e-12, 1e-10); got != 0 {
		t.Errorf("SafeDivide near-zero denominator = %g, want 0", got)
	}
	if got := SafeDivide(6, 2, 1e-10); got != 3 {
		t.Errorf("SafeDivide(6, 2) = %g, want 3", got)
	}
}

func TestClipNonnegative(t *testing.T) {
	vs := []float64{-0.5, 0, 1.5, -1e-9}
	ClipNonnegative(vs)
	for i, v := range vs {
		if v < 0 {
			t.Errorf("vs[%d] = %g still negative", i, v)
		}
	}
	if vs[2] != 1.5 {
		t.Errorf("positive value altered: %g", vs[2])
	}
}
