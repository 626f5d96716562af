package additive

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/KentaYashiro/sbfit/kernel"
)

// Option configures an SBFitter.
type Option func(*SBFitter)

// WithBandwidths sets the per-component bandwidths. When unset, the
// rule-of-thumb 0.25·n^(-1/5)·(support width) is used per component.
func WithBandwidths(h []float64) Option {
	return func(f *SBFitter) {
		f.h = append([]float64(nil), h...)
	}
}

// WithKernel sets the smoothing kernel. The default is Epanechnikov.
func WithKernel(k kernel.Kernel) Option {
	return func(f *SBFitter) {
		f.kern = k
	}
}

// WithSupport sets the d×2 support bounds. The default is [0, 1] per
// component.
func WithSupport(supp *mat.Dense) Option {
	return func(f *SBFitter) {
		f.supp = supp
	}
}

// WithMaxIterations sets the backfitting sweep cap. The default is 50.
func WithMaxIterations(n int) Option {
	return func(f *SBFitter) {
		f.maxIter = n
	}
}

// WithTolerance sets the primary convergence threshold on the maximum
// per-column RMS change. The default is 1e-5.
func WithTolerance(tol float64) Option {
	return func(f *SBFitter) {
		f.tol = tol
	}
}

// WithStagnationTolerance sets the plateau threshold: when the stopping
// statistic changes by less than this between sweeps, the trajectory is
// treated as converged. The default is 1e-3.
func WithStagnationTolerance(tol float64) Option {
	return func(f *SBFitter) {
		f.stagTol = tol
	}
}

// WithJointRefinement re-smooths the joint density grids in the rotated
// frame before backfitting (see density.WithJointRefinement).
func WithJointRefinement(enabled bool) Option {
	return func(f *SBFitter) {
		f.refineJoint = enabled
	}
}

// WithLogger sets the logger used for per-sweep diagnostics. The
// default is slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(f *SBFitter) {
		f.logger = logger
	}
}
