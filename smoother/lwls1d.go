// Package smoother implements kernel-weighted local polynomial least
// squares on 1D and 2D evaluation grids, plus bilinear grid
// interpolation. These are the computational primitives behind the
// density estimators and the backfitting solver.
package smoother

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/KentaYashiro/sbfit/core/parallel"
	"github.com/KentaYashiro/sbfit/kernel"
	"github.com/KentaYashiro/sbfit/pkg/errors"
)

// Grid-point solves below this count run sequentially.
const parallelThreshold = 64

// Config1D configures a 1D local polynomial fit.
type Config1D struct {
	// Kernel is the weighting kernel. The zero value falls back to
	// Epanechnikov.
	Kernel kernel.Kernel

	// Degree is the local polynomial degree (0, 1 or 2).
	Degree int

	// Deriv is the derivative order returned. Must not exceed Degree.
	Deriv int

	// CheckBandwidth requests a feasibility-only pass: no values are
	// fitted, only per-point feasibility flags are returned.
	CheckBandwidth bool

	// Strict turns infeasible grid points into an error instead of a
	// NaN sentinel.
	Strict bool
}

// Result1D holds the output of Lwls1D.
type Result1D struct {
	// Fitted is the estimate at each output grid point. Infeasible
	// points hold NaN. Nil in bandwidth-check mode.
	Fitted []float64

	// Feasible flags whether each grid point had enough distinct local
	// support for the requested degree.
	Feasible []bool
}

// AllFeasible reports whether every grid point passed the feasibility
// check.
func (r *Result1D) AllFeasible() bool {
	for _, ok := range r.Feasible {
		if !ok {
			return false
		}
	}
	return true
}

// Lwls1D fits a weighted local polynomial of the configured degree at
// each point of xout. At a grid point x0, samples are weighted by
// K((xin-x0)/band) times their sample weight win, and a polynomial in
// (xin-x0) is fitted by weighted least squares; the fitted value is the
// Deriv-th derivative of that polynomial at x0.
//
// A grid point is feasible when the number of distinct sample locations
// with positive local weight exceeds the polynomial degree. Infeasible
// points yield NaN (or an error under Strict); a failed local solve is
// treated the same way.
func Lwls1D(cfg Config1D, band float64, xin, yin, win, xout []float64) (*Result1D, error) {
	const op = "smoother.Lwls1D"

	if cfg.Kernel.IsZero() {
		cfg.Kernel = kernel.New(kernel.Epanechnikov)
	}
	if cfg.Degree < 0 || cfg.Degree > 2 {
		return nil, errors.NewValidationError("Degree", "must be 0, 1 or 2", cfg.Degree)
	}
	if cfg.Deriv < 0 || cfg.Deriv > cfg.Degree {
		return nil, errors.NewValidationError("Deriv", "must be between 0 and Degree", cfg.Deriv)
	}
	if band <= 0 {
		return nil, errors.NewValidationError("band", "bandwidth must be positive", band)
	}
	if len(xin) == 0 {
		return nil, errors.NewValueError(op, "empty sample")
	}
	if len(yin) != len(xin) {
		return nil, errors.NewDimensionError(op, len(xin), len(yin), 0)
	}
	if len(win) != len(xin) {
		return nil, errors.NewDimensionError(op, len(xin), len(win), 0)
	}

	res := &Result1D{Feasible: make([]bool, len(xout))}
	if !cfg.CheckBandwidth {
		res.Fitted = make([]float64, len(xout))
	}

	parallel.ParallelizeWithThreshold(len(xout), parallelThreshold, func(start, end int) {
		for g := start; g < end; g++ {
			fitOnePoint(cfg, band, xin, yin, win, xout[g], g, res)
		}
	})

	if cfg.Strict {
		for g, ok := range res.Feasible {
			if !ok {
				return nil, errors.NewValueError(op, fmt.Sprintf(
					"not enough distinct points with positive weight around grid point %d (x=%g, bandwidth=%g)",
					g, xout[g], band))
			}
		}
	}
	return res, nil
}

func fitOnePoint(cfg Config1D, band float64, xin, yin, win []float64, x0 float64, g int, res *Result1D) {
	ncol := cfg.Degree + 1

	// Local weights and the distinct-support count.
	lw := make([]float64, 0, len(xin))
	lx := make([]float64, 0, len(xin))
	ly := make([]float64, 0, len(xin))
	distinct := 0
	var lastX float64
	for i := range xin {
		if win[i] <= 0 {
			continue
		}
		u := (xin[i] - x0) / band
		if cfg.Kernel.Compact() && (u < -1 || u > 1) {
			continue
		}
		w := cfg.Kernel.Weight(u) * win[i]
		if w <= 0 {
			continue
		}
		if distinct == 0 || xin[i] != lastX {
			distinct++
			lastX = xin[i]
		}
		lw = append(lw, w)
		lx = append(lx, xin[i]-x0)
		ly = append(ly, yin[i])
	}

	// Distinct locations can be miscounted on unsorted input; recount
	// only when the cheap pass is borderline.
	if distinct <= cfg.Degree && len(lx) > distinct {
		distinct = countDistinct(lx)
	}

	if distinct <= cfg.Degree {
		if res.Fitted != nil {
			res.Fitted[g] = math.NaN()
		}
		return
	}
	res.Feasible[g] = true
	if cfg.CheckBandwidth {
		return
	}

	beta, ok := solveWLS(lx, ly, lw, ncol)
	if !ok {
		res.Feasible[g] = false
		res.Fitted[g] = math.NaN()
		return
	}

	// The p-th coefficient estimates f^(p)(x0)/p!.
	v := beta[cfg.Deriv]
	for p := 2; p <= cfg.Deriv; p++ {
		v *= float64(p)
	}
	res.Fitted[g] = v
}

func countDistinct(xs []float64) int {
	seen := make(map[float64]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	return len(seen)
}

// solveWLS solves the weighted least squares system for a polynomial
// basis 1, dx, dx², ... of ncol columns via the normal equations.
func solveWLS(dx, y, w []float64, ncol int) ([]float64, bool) {
	ata := mat.NewDense(ncol, ncol, nil)
	atb := mat.NewVecDense(ncol, nil)

	basis := make([]float64, ncol)
	for i := range dx {
		basis[0] = 1
		for p := 1; p < ncol; p++ {
			basis[p] = basis[p-1] * dx[i]
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
