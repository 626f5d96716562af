package smoother

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/KentaYashiro/sbfit/core/parallel"
	"github.com/KentaYashiro/sbfit/kernel"
	"github.com/KentaYashiro/sbfit/pkg/errors"
)

// Frame selects the coordinate frame of a bivariate fit.
type Frame int

const (
	// Standard fits the polynomial basis in the original coordinates.
	Standard Frame = iota
	// Rotated rotates samples and grid by 45° before fitting. Near the
	// corners of a rectangular support the rotated window keeps more
	// samples on both sides of the fit point, which stabilizes the
	// local solve.
	Rotated
)

// Config2D configures a bivariate local polynomial fit.
type Config2D struct {
	// Kernel is the weighting kernel. The zero value falls back to
	// Epanechnikov.
	Kernel kernel.Kernel

	// Frame is Standard or Rotated.
	Frame Frame

	// Degree is the local polynomial degree. Standard frame supports 0
	// and 1; the rotated frame supports 0, 1 and 2, taken in the
	// rotated abscissa.
	Degree int

	// CheckBandwidth requests a feasibility-only pass.
	CheckBandwidth bool

	// Strict turns infeasible grid points into an error instead of a
	// NaN sentinel.
	Strict bool
}

// Result2D holds the output of Lwls2D over the product grid
// xgrid × ygrid.
type Result2D struct {
	// Fitted has len(xgrid) rows and len(ygrid) columns. Infeasible
	// points hold NaN. Nil in bandwidth-check mode.
	Fitted *mat.Dense

	// Feasible flags feasibility per grid point, same shape as Fitted.
	Feasible [][]bool
}

// AllFeasible reports whether every grid point passed the feasibility
// check.
func (r *Result2D) AllFeasible() bool {
	for _, row := range r.Feasible {
		for _, ok := range row {
			if !ok {
				return false
			}
		}
	}
	return true
}

// invSqrt2 is the entries' magnitude of the 45° rotation matrix.
const invSqrt2 = 0.7071067811865476

// Lwls2D fits a weighted local polynomial surface at each point of the
// product grid xgrid × ygrid. pairs is an n×2 matrix of sample
// coordinates, values the n sample responses and weights the n sample
// weights. Local weights are the product kernel
// K(dx/bands[0])·K(dy/bands[1]) times the sample weight.
//
// In the Standard frame the basis is 1 (degree 0) or {1, dx, dy}
// (degree 1). In the Rotated frame both samples and fit point are
// rotated by 45° and the basis is a polynomial of the configured degree
// in the rotated abscissa plus a linear term in the rotated ordinate;
// only the intercept is reported, so the fit stays comparable across
// frames.
func Lwls2D(cfg Config2D, bands [2]float64, pairs *mat.Dense, values, weights []float64, xgrid, ygrid []float64) (*Result2D, error) {
	const op = "smoother.Lwls2D"

	if cfg.Kernel.IsZero() {
		cfg.Kernel = kernel.New(kernel.Epanechnikov)
	}
	switch cfg.Frame {
	case Standard:
		if cfg.Degree < 0 || cfg.Degree > 1 {
			return nil, errors.NewValidationError("Degree", "standard frame supports degree 0 or 1", cfg.Degree)
		}
	case Rotated:
		if cfg.Degree < 0 || cfg.Degree > 2 {
			return nil, errors.NewValidationError("Degree", "rotated frame supports degree 0, 1 or 2", cfg.Degree)
		}
	default:
		return nil, errors.NewValidationError("Frame", "unknown coordinate frame", cfg.Frame)
	}
	if bands[0] <= 0 || bands[1] <= 0 {
		return nil, errors.NewValidationError("bands", "bandwidths must be positive", bands)
	}
	n, c := pairs.Dims()
	if c != 2 {
		return nil, errors.NewDimensionError(op, 2, c, 1)
	}
	if n == 0 {
		return nil, errors.NewValueError(op, "empty sample")
	}
	if len(values) != n {
		return nil, errors.NewDimensionError(op, n, len(values), 0)
	}
	if len(weights) != n {
		return nil, errors.NewDimensionError(op, n, len(weights), 0)
	}
	if len(xgrid) == 0 || len(ygrid) == 0 {
		return nil, errors.NewValueError(op, "empty evaluation grid")
	}

	// Pre-rotate the sample coordinates once; grid points rotate per
	// solve.
	sx := make([]float64, n)
	sy := make([]float64, n)
	for i := 0; i < n; i++ {
		px, py := pairs.At(i, 0), pairs.At(i, 1)
		if cfg.Frame == Rotated {
			sx[i] = invSqrt2 * (px - py)
			sy[i] = invSqrt2 * (px + py)
		} else {
			sx[i] = px
			sy[i] = py
		}
	}

	res := &Result2D{Feasible: make([][]bool, len(xgrid))}
	for i := range res.Feasible {
		res.Feasible[i] = make([]bool, len(ygrid))
	}
	if !cfg.CheckBandwidth {
		res.Fitted = mat.NewDense(len(xgrid), len(ygrid), nil)
	}

	total := len(xgrid) * len(ygrid)
	parallel.ParallelizeWithThreshold(total, parallelThreshold, func(start, end int) {
		for t := start; t < end; t++ {
			gi, gj := t/len(ygrid), t%len(ygrid)
			fitSurfacePoint(cfg, bands, sx, sy, values, weights, xgrid[gi], ygrid[gj], gi, gj, res)
		}
	})

	if cfg.Strict {
		for gi, row := range res.Feasible {
			for gj, ok := range row {
				if !ok {
					return nil, errors.Newf(
						"sbfit: %s: not enough distinct points with positive weight around grid point (%g, %g) for bandwidths (%g, %g)",
						op, xgrid[gi], ygrid[gj], bands[0], bands[1])
				}
			}
		}
	}
	return res, nil
}

func fitSurfacePoint(cfg Config2D, bands [2]float64, sx, sy, values, weights []float64, gx, gy float64, gi, gj int, res *Result2D) {
	x0, y0 := gx, gy
	if cfg.Frame == Rotated {
		x0 = invSqrt2 * (gx - gy)
		y0 = invSqrt2 * (gx + gy)
	}

	ncol := basisSize(cfg)

	ldx := make([]float64, 0, len(sx))
	ldy := make([]float64, 0, len(sx))
	ly := make([]float64, 0, len(sx))
	lw := make([]float64, 0, len(sx))
	for i := range sx {
		if weights[i] <= 0 {
			continue
		}
		ux := (sx[i] - x0) / bands[0]
		uy := (sy[i] - y0) / bands[1]
		if cfg.Kernel.Compact() && (ux < -1 || ux > 1 || uy < -1 || uy > 1) {
			continue
		}
		w := cfg.Kernel.Weight(ux) * cfg.Kernel.Weight(uy) * weights[i]
		if w <= 0 {
			continue
		}
		ldx = append(ldx, sx[i]-x0)
		ldy = append(ldy, sy[i]-y0)
		ly = append(ly, values[i])
		lw = append(lw, w)
	}

	if countDistinctPairs(ldx, ldy) < ncol {
		if res.Fitted != nil {
			res.Fitted.Set(gi, gj, math.NaN())
		}
		return
	}
	res.Feasible[gi][gj] = true
	if cfg.CheckBandwidth {
		return
	}

	beta, ok := solveSurfaceWLS(cfg, ldx, ldy, ly, lw, ncol)
	if !ok {
		res.Feasible[gi][gj] = false
		res.Fitted.Set(gi, gj, math.NaN())
		return
	}
	res.Fitted.Set(gi, gj, beta[0])
}

func basisSize(cfg Config2D) int {
	if cfg.Frame == Rotated {
		// 1, u..u^Degree, and v for Degree >= 1.
		if cfg.Degree == 0 {
			return 1
		}
		return cfg.Degree + 2
	}
	if cfg.Degree == 0 {
		return 1
	}
	return 3 // 1, dx, dy
}

func countDistinctPairs(dx, dy []float64) int {
	type pt struct{ x, y float64 }
	seen := make(map[pt]struct{}, len(dx))
	for i := range dx {
		seen[pt{dx[i], dy[i]}] = struct{}{}
	}
	return len(seen)
}

func solveSurfaceWLS(cfg Config2D, dx, dy, y, w []float64, ncol int) ([]float64, bool) {
	ata := mat.NewDense(ncol, ncol, nil)
	atb := mat.NewVecDense(ncol, nil)

	basis := make([]float64, ncol)
	for i := range dx {
		basis[0] = 1
		if cfg.Frame == Rotated {
			v := 1.0
			for p := 1; p <= cfg.Degree; p++ {
				v *= dx[i]
				basis[p] = v
			}
			if cfg.Degree >= 1 {
				basis[ncol-1] = dy[i]
			}
		} else if cfg.Degree == 1 {
			basis[1] = dx[i]
			basis[2] = dy[i]
		}
		for r := 0; r < ncol; r++ {
			atb.SetVec(r, atb.AtVec(r)+w[i]*basis[r]*y[i])
			for c := 0; c < ncol; c++ {
				ata.Set(r, c, ata.At(r, c)+w[i]*basis[r]*basis[c])
			}
		}
	}

	var sol mat.VecDense
	if err := sol.SolveVec(ata, atb); err != nil {
		return nil, false
	}
	beta := make([]float64, ncol)
	for r := 0; r < ncol; r++ {
		beta[r] = sol.AtVec(r)
		if math.IsNaN(beta[r]) || math.IsInf(beta[r], 0) {
			return nil, false
		}
	}
	return beta, true
}
