// Package density estimates marginal and pairwise joint kernel
// densities of the predictor components on the caller's evaluation
// grids. The backfitting solver weights its component projections with
// these grids.
//
// Each sample contributes a kernel bump rescaled to unit trapezoidal
// mass over the support, so estimates keep their mass near the support
// boundary instead of leaking it outside (boundary correction). Joint
// pair densities are products of these per-component normalized
// kernels, which makes the joint grid consistent with the marginals.
package density

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/KentaYashiro/sbfit/core/parallel"
	"github.com/KentaYashiro/sbfit/kernel"
	"github.com/KentaYashiro/sbfit/pkg/errors"
	"github.com/KentaYashiro/sbfit/smoother"
)

// Estimator computes marginal and joint density grids for one sample
// set. Construct with NewEstimator and call Fit once; the grids are
// read-only afterwards.
type Estimator struct {
	x    *mat.Dense // N×d evaluation grid
	xs   *mat.Dense // n×d samples
	h    []float64
	kern kernel.Kernel
	supp *mat.Dense // d×2 support bounds

	refineJoint bool

	n, nGrid, d int

	// normKern[j] is N×n: sample s's unit-mass kernel evaluated on
	// grid column j.
	normKern []*mat.Dense

	marginal *mat.Dense            // N×d
	joint    map[[2]int]*mat.Dense // (j,k) with j<k → N×N, indexed [i_j, i_k]
	quad     [][]float64           // trapezoid weights per component grid
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithJointRefinement passes each joint pair grid through a rotated
// degree-0 local smoother after the product-kernel estimate. This
// stabilizes ragged pair grids near the support corners at the cost of
// an extra smoothing pass; it is off by default because it perturbs the
// product-form consistency between joint and marginal grids.
func WithJointRefinement() Option {
	return func(e *Estimator) {
		e.refineJoint = true
	}
}

// NewEstimator validates the inputs and prepares an estimator for the
// given evaluation grid x (N×d), samples X (n×d), bandwidths h (length
// d), kernel and support (d×2).
func NewEstimator(x, X *mat.Dense, h []float64, kern kernel.Kernel, supp *mat.Dense, opts ...Option) (*Estimator, error) {
	const op = "density.NewEstimator"

	nGrid, d := x.Dims()
	n, dX := X.Dims()
	if n == 0 || nGrid == 0 {
		return nil, errors.NewValueError(op, "empty sample or grid")
	}
	if dX != d {
		return nil, errors.NewDimensionError(op, d, dX, 1)
	}
	if len(h) != d {
		return nil, errors.NewDimensionError(op, d, len(h), 1)
	}
	for j, hj := range h {
		if hj <= 0 {
			return nil, errors.NewValidationError(fmt.Sprintf("h[%d]", j), "bandwidths must be positive", hj)
		}
	}
	sr, sc := supp.Dims()
	if sr != d || sc != 2 {
		return nil, errors.NewDimensionError(op, d, sr, 0)
	}
	for j := 0; j < d; j++ {
		if supp.At(j, 0) >= supp.At(j, 1) {
			return nil, errors.NewValidationError("support", "lower bound must be below upper bound",
				[2]float64{supp.At(j, 0), supp.At(j, 1)})
		}
	}
	for j := 0; j < d; j++ {
		for i := 1; i < nGrid; i++ {
			if x.At(i, j) <= x.At(i-1, j) {
				return nil, errors.NewValidationError(fmt.Sprintf("x[,%d]", j),
					"evaluation grid columns must be strictly increasing", x.At(i, j))
			}
		}
	}
	if kern.IsZero() {
		kern = kernel.New(kernel.Epanechnikov)
	}

	e := &Estimator{
		x: x, xs: X, h: h, kern: kern, supp: supp,
		n: n, nGrid: nGrid, d: d,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Fit computes the marginal and joint density grids.
func (e *Estimator) Fit() error {
	e.quad = make([][]float64, e.d)
	e.normKern = make([]*mat.Dense, e.d)
	e.marginal = mat.NewDense(e.nGrid, e.d, nil)

	for j := 0; j < e.d; j++ {
		grid := gridColumn(e.x, j)
		e.quad[j] = trapezoidWeights(grid)
		nk, err := NormKernelMatrix(grid, sampleColumn(e.xs, j), e.h[j], e.kern, e.quad[j])
		if err != nil {
			return err
		}
		e.normKern[j] = nk

		// Marginal: average of the unit-mass sample kernels.
		for i := 0; i < e.nGrid; i++ {
			sum := 0.0
			for s := 0; s < e.n; s++ {
				sum += nk.At(i, s)
			}
			v := sum / float64(e.n)
			if v < 0 {
				v = 0
			}
			e.marginal.Set(i, j, v)
		}
	}

	e.joint = make(map[[2]int]*mat.Dense, e.d*(e.d-1)/2)
	var mu sync.Mutex // guards the pair map across per-pair goroutines
	parallel.ForEachPair(e.d, func(j, k int) {
		g := mat.NewDense(e.nGrid, e.nGrid, nil)
		// mean_s NK_j[i,s]·NK_k[i',s] as a scaled matrix product.
		g.Mul(e.normKern[j], e.normKern[k].T())
		g.Scale(1/float64(e.n), g)
		clipMatrixNonnegative(g)

		if e.refineJoint {
			if refined, err := e.refinePair(j, k, g); err == nil {
				g = refined
			}
		}
		mu.Lock()
		e.joint[[2]int{j, k}] = g
		mu.Unlock()
	})
	return nil
}

// refinePair re-smooths a pair grid in the rotated frame. Grid nodes act
// as pseudo-samples weighted by their density mass.
func (e *Estimator) refinePair(j, k int, g *mat.Dense) (*mat.Dense, error) {
	gj := gridColumn(e.x, j)
	gk := gridColumn(e.x, k)

	npts := e.nGrid * e.nGrid
	pairs := mat.NewDense(npts, 2, nil)
	values := make([]float64, npts)
	weights := make([]float64, npts)
	for i := 0; i < e.nGrid; i++ {
		for ip := 0; ip < e.nGrid; ip++ {
			t := i*e.nGrid + ip
			pairs.Set(t, 0, gj[i])
			pairs.Set(t, 1, gk[ip])
			values[t] = g.At(i, ip)
			weights[t] = 1
		}
	}

	res, err := smoother.Lwls2D(smoother.Config2D{
		Kernel: e.kern,
		Frame:  smoother.Rotated,
		Degree: 0,
	}, [2]float64{e.h[j], e.h[k]}, pairs, values, weights, gj, gk)
	if err != nil {
		return nil, err
	}
	// Nodes the rotated window could not cover keep the raw estimate.
	patched := 0
	for i := 0; i < e.nGrid; i++ {
		for ip := 0; ip < e.nGrid; ip++ {
			if !res.Feasible[i][ip] {
				res.Fitted.Set(i, ip, g.At(i, ip))
				patched++
			}
		}
	}
	if patched > 0 {
		errors.Warn(errors.NewInfeasibleBandwidthWarning(
			fmt.Sprintf("density.refinePair(%d,%d)", j, k), e.h[j], patched))
	}
	clipMatrixNonnegative(res.Fitted)
	return res.Fitted, nil
}

// Marginal returns the N×d marginal density grid.
func (e *Estimator) Marginal() *mat.Dense {
	return e.marginal
}

// MarginalMass returns the trapezoidal integral of component j's
// marginal density over its grid. Values far from 1 indicate a grid or
// bandwidth too coarse for the support.
func (e *Estimator) MarginalMass(j int) float64 {
	mass := 0.0
	for i := 0; i < e.nGrid; i++ {
		mass += e.quad[j][i] * e.marginal.At(i, j)
	}
	return mass
}

// Joint returns the joint density grid for the component pair (j, k),
// indexed [grid point of j, grid point of k]. The (k, j) orientation is
// served by transposing the stored (j, k) grid; j == k is out of
// contract and returns nil.
func (e *Estimator) Joint(j, k int) mat.Matrix {
	if j == k {
		return nil
	}
	if j < k {
		return e.joint[[2]int{j, k}]
	}
	return e.joint[[2]int{k, j}].T()
}

// JointAt returns the joint density of pair (j, k) at grid indices
// (i, ip), preserving the 4-index indexing contract.
func (e *Estimator) JointAt(i, ip, j, k int) float64 {
	if j == k {
		return 0
	}
	if j < k {
		return e.joint[[2]int{j, k}].At(i, ip)
	}
	return e.joint[[2]int{k, j}].At(ip, i)
}

// QuadWeights returns the trapezoid quadrature weights of component j's
// grid.
func (e *Estimator) QuadWeights(j int) []float64 {
	return e.quad[j]
}

// NormKernels returns the N×n matrix of unit-mass sample kernels for
// component j. Row i holds each sample's kernel value at grid point i.
func (e *Estimator) NormKernels(j int) *mat.Dense {
	return e.normKern[j]
}

// NormKernelMatrix evaluates K((grid_i - X_s)/h)/h for every grid point
// and sample, then rescales each sample's column to unit trapezoidal
// mass over the grid. quad must be the trapezoid weights of grid.
// Samples whose kernel mass on the grid vanishes keep a zero column.
func NormKernelMatrix(grid, samples []float64, h float64, kern kernel.Kernel, quad []float64) (*mat.Dense, error) {
	const op = "density.NormKernelMatrix"

	if h <= 0 {
		return nil, errors.NewValidationError("h", "bandwidth must be positive", h)
	}
	if len(grid) != len(quad) {
		return nil, errors.NewDimensionError(op, len(grid), len(quad), 0)
	}
	if len(grid) == 0 || len(samples) == 0 {
		return nil, errors.NewValueError(op, "empty grid or sample")
	}

	nGrid, n := len(grid), len(samples)
	nk := mat.NewDense(nGrid, n, nil)
	parallel.ParallelizeWithThreshold(n, parallelSampleThreshold, func(start, end int) {
		for s := start; s < end; s++ {
			mass := 0.0
			for i := 0; i < nGrid; i++ {
				w := kern.Weight((grid[i]-samples[s])/h) / h
				nk.Set(i, s, w)
				mass += quad[i] * w
			}
			if mass <= 0 {
				for i := 0; i < nGrid; i++ {
					nk.Set(i, s, 0)
				}
				continue
			}
			for i := 0; i < nGrid; i++ {
				nk.Set(i, s, nk.At(i, s)/mass)
			}
		}
	})
	return nk, nil
}

const parallelSampleThreshold = 64

// trapezoidWeights returns the composite trapezoid quadrature weights
// for a (possibly unevenly spaced) increasing grid.
func trapezoidWeights(grid []float64) []float64 {
	w := make([]float64, len(grid))
	if len(grid) < 2 {
		if len(grid) == 1 {
			w[0] = 1
		}
		return w
	}
	for i := 1; i < len(grid); i++ {
		half := (grid[i] - grid[i-1]) / 2
		w[i-1] += half
		w[i] += half
	}
	return w
}

func gridColumn(m *mat.Dense, j int) []float64 {
	r, _ := m.Dims()
	col := make([]float64, r)
	for i := 0; i < r; i++ {
		col[i] = m.At(i, j)
	}
	return col
}

func sampleColumn(m *mat.Dense, j int) []float64 {
	return gridColumn(m, j)
}

func clipMatrixNonnegative(m *mat.Dense) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) < 0 {
				m.Set(i, j, 0)
			}
		}
	}
}

