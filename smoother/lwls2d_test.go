package smoother

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/KentaYashiro/sbfit/pkg/errors"
)

// samplePlane builds a regular lattice of sample pairs with values from
// a plane.
func samplePlane(nside int, f func(x, y float64) float64) (*mat.Dense, []float64, []float64) {
	n := nside * nside
	pairs := mat.NewDense(n, 2, nil)
	values := make([]float64, n)
	for i := 0; i < nside; i++ {
		for j := 0; j < nside; j++ {
			t := i*nside + j
			x := float64(i) / float64(nside-1)
			y := float64(j) / float64(nside-1)
			pairs.Set(t, 0, x)
			pairs.Set(t, 1, y)
			values[t] = f(x, y)
		}
	}
	return pairs, values, uniformWeights(n)
}

func TestLwls2DRecoversPlane(t *testing.T) {
	plane := func(x, y float64) float64 { return 1 + 2*x - y }
	pairs, values, weights := samplePlane(11, plane)
	grid := equallySpaced(0, 1, 5)

	for _, frame := range []Frame{Standard, Rotated} {
		res, err := Lwls2D(Config2D{Frame: frame, Degree: 1}, [2]float64{0.4, 0.4}, pairs, values, weights, grid, grid)
		if err != nil {
			t.Fatalf("frame %v: Lwls2D failed: %v", frame, err)
		}
		if !res.AllFeasible() {
			t.Fatalf("frame %v: expected all grid points feasible", frame)
		}
		for i, gx := range grid {
			for j, gy := range grid {
				want := plane(gx, gy)
				if got := res.Fitted.At(i, j); math.Abs(got-want) > 1e-8 {
					t.Errorf("frame %v: fitted(%g, %g) = %g, want %g", frame, gx, gy, got, want)
				}
			}
		}
	}
}

func TestLwls2DDegreeZeroConstant(t *testing.T) {
	pairs, values, weights := samplePlane(9, func(x, y float64) float64 { return 5 })
	grid := equallySpaced(0, 1, 4)

	for _, frame := range []Frame{Standard, Rotated} {
		res, err := Lwls2D(Config2D{Frame: frame, Degree: 0}, [2]float64{0.5, 0.5}, pairs, values, weights, grid, grid)
		if err != nil {
			t.Fatalf("frame %v: Lwls2D failed: %v", frame, err)
		}
		for i := range grid {
			for j := range grid {
				if got := res.Fitted.At(i, j); math.Abs(got-5) > 1e-9 {
					t.Errorf("frame %v: fitted = %g, want 5", frame, got)
				}
			}
		}
	}
}

func TestLwls2DRotatedQuadraticDiagonal(t *testing.T) {
	// A surface that is quadratic along the diagonal u = (x-y)/√2 and
	// linear in the orthogonal direction lies in the rotated degree-2
	// basis span, so the fit is exact.
	f := func(x, y float64) float64 {
		u := (x - y) / math.Sqrt2
		v := (x + y) / math.Sqrt2
		return 2 + u + 3*u*u - 0.5*v
	}
	pairs, values, weights := samplePlane(13, f)
	grid := equallySpaced(0.2, 0.8, 4)

	res, err := Lwls2D(Config2D{Frame: Rotated, Degree: 2}, [2]float64{0.5, 0.5}, pairs, values, weights, grid, grid)
	if err != nil {
		t.Fatalf("Lwls2D failed: %v", err)
	}
	if !res.AllFeasible() {
		t.Fatal("expected all grid points feasible")
	}
	for i, gx := range grid {
		for j, gy := range grid {
			want := f(gx, gy)
			if got := res.Fitted.At(i, j); math.Abs(got-want) > 1e-7 {
				t.Errorf("fitted(%g, %g) = %g, want %g", gx, gy, got, want)
			}
		}
	}
}

func TestLwls2DFeasibility(t *testing.T) {
	// A single sample location cannot support a local linear surface.
	pairs := mat.NewDense(3, 2, []float64{
		0.5, 0.5,
		0.5, 0.5,
		0.5, 0.5,
	})
	values := []float64{1, 1, 1}
	weights := uniformWeights(3)
	grid := []float64{0.5}

	res, err := Lwls2D(Config2D{Degree: 1}, [2]float64{1, 1}, pairs, values, weights, grid, grid)
	if err != nil {
		t.Fatalf("Lwls2D failed: %v", err)
	}
	if res.Feasible[0][0] {
		t.Error("expected infeasible grid point")
	}
	if !math.IsNaN(res.Fitted.At(0, 0)) {
		t.Errorf("fitted = %g, want NaN sentinel", res.Fitted.At(0, 0))
	}

	res, err = Lwls2D(Config2D{Degree: 1, CheckBandwidth: true}, [2]float64{1, 1}, pairs, values, weights, grid, grid)
	if err != nil {
		t.Fatalf("Lwls2D failed: %v", err)
	}
	if res.Fitted != nil {
		t.Error("bandwidth-check mode should not fit values")
	}
	if res.Feasible[0][0] {
		t.Error("expected infeasible flag in bandwidth-check mode")
	}

	if _, err = Lwls2D(Config2D{Degree: 1, Strict: true}, [2]float64{1, 1}, pairs, values, weights, grid, grid); err == nil {
		t.Error("Strict mode should fail on infeasible points")
	}
}

func TestLwls2DValidation(t *testing.T) {
	pairs, values, weights := samplePlane(4, func(x, y float64) float64 { return x })
	grid := equallySpaced(0, 1, 3)

	tests := []struct {
		name string
		run  func() error
	}{
		{"non-positive bandwidth", func() error {
			_, err := Lwls2D(Config2D{}, [2]float64{0, 0.3}, pairs, values, weights, grid, grid)
			return err
		}},
		{"pairs not two columns", func() error {
			bad := mat.NewDense(4, 3, nil)
			_, err := Lwls2D(Config2D{}, [2]float64{0.3, 0.3}, bad, values[:4], weights[:4], grid, grid)
			return err
		}},
		{"values length mismatch", func() error {
			_, err := Lwls2D(Config2D{}, [2]float64{0.3, 0.3}, pairs, values[:3], weights, grid, grid)
			return err
		}},
		{"standard frame degree 2", func() error {
			_, err := Lwls2D(Config2D{Degree: 2}, [2]float64{0.3, 0.3}, pairs, values, weights, grid, grid)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	// Structural errors carry the structured types.
	_, err := Lwls2D(Config2D{}, [2]float64{0.3, 0.3}, pairs, values[:3], weights, grid, grid)
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("expected DimensionError, got %v", err)
	}
}
