package additive

import (
	"gonum.org/v1/gonum/mat"

	"github.com/KentaYashiro/sbfit/density"
	"github.com/KentaYashiro/sbfit/kernel"
	"github.com/KentaYashiro/sbfit/pkg/errors"
)

// Marginal densities below this value are treated as numerically zero
// when used as a normalizing denominator.
const denomFloor = 1e-10

// NWMgnReg computes the Nadaraya–Watson estimate of E[Y|X_j] for each
// component j on that component's evaluation grid: a kernel-weighted
// average of the responses, normalized by the marginal density. It
// ignores the additive structure entirely and serves as the backfitting
// iteration's starting point.
//
// Grid points whose normalizing density falls below a numerical floor
// receive the plain sample mean of Y instead of an unstable ratio.
func NWMgnReg(Y *mat.VecDense, x, X *mat.Dense, h []float64, kern kernel.Kernel, supp *mat.Dense) (*mat.Dense, error) {
	est, err := density.NewEstimator(x, X, h, kern, supp)
	if err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	if Y.Len() != n {
		return nil, errors.NewDimensionError("additive.NWMgnReg", n, Y.Len(), 0)
	}
	if err := est.Fit(); err != nil {
		return nil, err
	}
	return nwFromDensity(Y, est), nil
}

// nwFromDensity computes the NW grid from an already fitted density
// estimator, reusing its normalized kernel matrices.
func nwFromDensity(Y *mat.VecDense, est *density.Estimator) *mat.Dense {
	nGrid, d := est.Marginal().Dims()
	n := Y.Len()

	ybar := 0.0
	for s := 0; s < n; s++ {
		ybar += Y.AtVec(s)
	}
	ybar /= float64(n)

	nw := mat.NewDense(nGrid, d, nil)
	num := mat.NewVecDense(nGrid, nil)
	for j := 0; j < d; j++ {
		num.MulVec(est.NormKernels(j), Y)
		for i := 0; i < nGrid; i++ {
			den := est.Marginal().At(i, j) * float64(n)
			if den < denomFloor {
				nw.Set(i, j, ybar)
				continue
			}
			nw.Set(i, j, num.AtVec(i)/den)
		}
	}
	return nw
}
