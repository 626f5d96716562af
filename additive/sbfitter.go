// Package additive estimates additive regression models by smooth
// backfitting: each component function is updated in turn by projecting
// out the current estimates of the others, weighted by the joint and
// marginal densities of the predictor components.
package additive

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/KentaYashiro/sbfit/core/model"
	"github.com/KentaYashiro/sbfit/density"
	"github.com/KentaYashiro/sbfit/kernel"
	"github.com/KentaYashiro/sbfit/pkg/errors"
	"github.com/KentaYashiro/sbfit/smoother"
)

// SBFitter estimates additive component functions by smooth
// backfitting. Construct with NewSBFitter, call Fit once, then Predict
// for off-grid evaluation.
type SBFitter struct {
	model.BaseEstimator

	kern        kernel.Kernel
	h           []float64
	supp        *mat.Dense
	maxIter     int
	tol         float64
	stagTol     float64
	refineJoint bool
	logger      *slog.Logger

	// Fitted state for Predict.
	gridCols [][]float64
	result   *Result
}

// Result holds the output of one backfitting fit. All grids share the
// evaluation grid passed to Fit.
type Result struct {
	// Components is the N×d matrix of fitted additive components.
	Components *mat.Dense

	// NW is the N×d Nadaraya–Watson marginal baseline the iteration
	// started from.
	NW *mat.Dense

	// MarginalDensity is the N×d marginal density grid.
	MarginalDensity *mat.Dense

	// Density gives access to the pairwise joint density grids.
	Density *density.Estimator

	// Iterations is the number of sweeps actually run.
	Iterations int

	// FinalChange is the stopping statistic (maximum per-column RMS
	// change) of the last sweep.
	FinalChange float64

	// Converged reports whether the primary or stagnation criterion was
	// met before the iteration cap.
	Converged bool
}

// NewSBFitter creates a smooth backfitting estimator. Defaults:
// Epanechnikov kernel, support [0,1] per component, rule-of-thumb
// bandwidths, tolerance 1e-5, stagnation tolerance 1e-3, 50-sweep cap.
func NewSBFitter(opts ...Option) *SBFitter {
	f := &SBFitter{
		kern:    kernel.New(kernel.Epanechnikov),
		maxIter: 50,
		tol:     1e-5,
		stagTol: 1e-3,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit estimates the additive components of E[Y|X] on the evaluation
// grid x. Y holds the n responses, X the n×d predictor samples and x
// the N×d per-component evaluation grid.
//
// Structural problems (shape mismatches, degenerate bandwidths or
// support) fail before any computation. Non-convergence does not: the
// solver always returns its best-effort estimate with the iteration
// count, and emits a ConvergenceWarning when the cap is hit.
func (f *SBFitter) Fit(Y *mat.VecDense, x, X *mat.Dense) (*Result, error) {
	const op = "SBFitter.Fit"

	nGrid, d := x.Dims()
	n, dX := X.Dims()
	if nGrid == 0 || d == 0 || n == 0 {
		return nil, errors.NewValueError(op, "empty grid or sample")
	}
	if dX != d {
		return nil, errors.NewDimensionError(op, d, dX, 1)
	}
	if Y.Len() != n {
		return nil, errors.NewDimensionError(op, n, Y.Len(), 0)
	}

	supp := f.supp
	if supp == nil {
		supp = mat.NewDense(d, 2, nil)
		for j := 0; j < d; j++ {
			supp.Set(j, 1, 1)
		}
	}

	h := f.h
	if h == nil {
		h = make([]float64, d)
		for j := 0; j < d; j++ {
			h[j] = 0.25 * math.Pow(float64(n), -0.2) * (supp.At(j, 1) - supp.At(j, 0))
		}
	}
	if len(h) != d {
		return nil, errors.NewDimensionError(op, d, len(h), 1)
	}

	// Remaining bandwidth/support validation happens in the density
	// estimator, before any smoothing.
	var opts []density.Option
	if f.refineJoint {
		opts = append(opts, density.WithJointRefinement())
	}
	est, err := density.NewEstimator(x, X, h, f.kern, supp, opts...)
	if err != nil {
		return nil, err
	}
	if err := est.Fit(); err != nil {
		return nil, err
	}

	nw := nwFromDensity(Y, est)

	comp, iters, finalChange, converged := f.backfit(nw, est, nGrid, d)

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("SBFitter", iters, ""))
	}

	f.gridCols = make([][]float64, d)
	for j := 0; j < d; j++ {
		col := make([]float64, nGrid)
		mat.Col(col, j, x)
		f.gridCols[j] = col
	}
	f.result = &Result{
		Components:      comp,
		NW:              nw,
		MarginalDensity: est.Marginal(),
		Density:         est,
		Iterations:      iters,
		FinalChange:     finalChange,
		Converged:       converged,
	}
	f.SetFitted()
	return f.result, nil
}

// backfit runs Gauss–Seidel sweeps over the component columns until the
// stopping statistic meets the tolerance, plateaus, or the sweep cap is
// exceeded.
func (f *SBFitter) backfit(nw *mat.Dense, est *density.Estimator, nGrid, d int) (comp *mat.Dense, iters int, finalChange float64, converged bool) {
	comp = mat.NewDense(nGrid, d, nil)
	prev := mat.NewDense(nGrid, d, nil)

	newCol := make([]float64, nGrid)
	prevStat := math.NaN()

	for iter := 1; ; iter++ {
		prev.Copy(comp)

		for j := 0; j < d; j++ {
			// Columns k < j were already updated this sweep; the
			// projection must see those fresh values (Gauss–Seidel, not
			// Jacobi), so comp is read in place.
			for i := 0; i < nGrid; i++ {
				proj := 0.0
				den := est.Marginal().At(i, j)
				if den >= denomFloor {
					for k := 0; k < d; k++ {
						if k == j {
							continue
						}
						quad := est.QuadWeights(k)
						integral := 0.0
						for ip := 0; ip < nGrid; ip++ {
							integral += quad[ip] * comp.At(ip, k) * est.JointAt(i, ip, j, k)
						}
						proj += integral / den
					}
				}
				newCol[i] = nw.At(i, j) - proj
			}

			// Sign consistency: a whole-column flip between iterates is
			// a numerical artifact, not a better fit. A zero inner
			// product does not flip.
			dot := 0.0
			for i := 0; i < nGrid; i++ {
				dot += newCol[i] * prev.At(i, j)
			}
			if dot < 0 {
				for i := range newCol {
					newCol[i] = -newCol[i]
				}
			}
			comp.SetCol(j, newCol)
		}

		stat := 0.0
		for j := 0; j < d; j++ {
			ss := 0.0
			for i := 0; i < nGrid; i++ {
				diff := comp.At(i, j) - prev.At(i, j)
				ss += diff * diff
			}
			if rms := math.Sqrt(ss / float64(nGrid)); rms > stat {
				stat = rms
			}
		}

		if f.logger != nil {
			f.logger.Debug("backfitting sweep",
				"iteration", iter,
				"max_rms_change", stat,
			)
		}

		iters = iter
		finalChange = stat

		if stat <= f.tol {
			converged = true
			return
		}
		if !math.IsNaN(prevStat) && math.Abs(stat-prevStat) < f.stagTol {
			// Plateaued or oscillating trajectory; further sweeps will
			// not improve the estimate.
			converged = true
			return
		}
		if iter > f.maxIter {
			return
		}
		prevStat = stat
	}
}

// Predict evaluates the fitted additive model at new predictor values:
// the sum over components of the fitted curve linearly interpolated at
// Xnew's coordinate, with clamp-to-edge outside the grid.
func (f *SBFitter) Predict(Xnew *mat.Dense) (*mat.VecDense, error) {
	const op = "SBFitter.Predict"

	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("SBFitter", "Predict")
	}
	m, dX := Xnew.Dims()
	d := len(f.gridCols)
	if dX != d {
		return nil, errors.NewDimensionError(op, d, dX, 1)
	}

	nGrid, _ := f.result.Components.Dims()
	pred := mat.NewVecDense(m, nil)
	colVals := make([]float64, nGrid)
	query := make([]float64, m)
	for j := 0; j < d; j++ {
		mat.Col(colVals, j, f.result.Components)
		mat.Col(query, j, Xnew)
		vals, err := smoother.Interp1D(f.gridCols[j], colVals, query)
		if err != nil {
			return nil, errors.Wrap(err, op)
		}
		for i := 0; i < m; i++ {
			pred.SetVec(i, pred.AtVec(i)+vals[i])
		}
	}
	return pred, nil
}

// Result returns the last fit's result, or an error when Fit has not
// completed.
func (f *SBFitter) Result() (*Result, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("SBFitter", "Result")
	}
	return f.result, nil
}
