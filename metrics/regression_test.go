package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMSE(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		yPred     *mat.VecDense
		want      float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "perfect prediction",
			yTrue:     mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred:     mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			want:      0,
			tolerance: 1e-12,
		},
		{
			name:      "uniform half offset",
			yTrue:     mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred:     mat.NewVecDense(4, []float64{1.5, 2.5, 3.5, 4.5}),
			want:      0.25,
			tolerance: 1e-12,
		},
		{
			name:    "length mismatch",
			yTrue:   mat.NewVecDense(3, nil),
			yPred:   mat.NewVecDense(4, nil),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MSE(tt.yTrue, tt.yPred)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("MSE failed: %v", err)
			}
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("MSE = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestRMSE(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{1.5, 2.5, 3.5, 4.5})

	got, err := RMSE(yTrue, yPred)
	if err != nil {
		t.Fatalf("RMSE failed: %v", err)
	}
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("RMSE = %g, want 0.5", got)
	}
}

func TestMaxAbsError(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{1, 2, 3})
	yPred := mat.NewVecDense(3, []float64{1.1, 1.5, 3})

	got, err := MaxAbsError(yTrue, yPred)
	if err != nil {
		t.Fatalf("MaxAbsError failed: %v", err)
	}
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("MaxAbsError = %g, want 0.5", got)
	}

	if _, err := MaxAbsError(mat.NewVecDense(2, nil), mat.NewVecDense(3, nil)); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}
