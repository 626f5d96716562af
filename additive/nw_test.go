package additive

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/KentaYashiro/sbfit/kernel"
	"github.com/KentaYashiro/sbfit/pkg/errors"
)

func unitSupport(d int) *mat.Dense {
	supp := mat.NewDense(d, 2, nil)
	for j := 0; j < d; j++ {
		supp.Set(j, 1, 1)
	}
	return supp
}

func unitGrid(nGrid, d int) *mat.Dense {
	x := mat.NewDense(nGrid, d, nil)
	for i := 0; i < nGrid; i++ {
		for j := 0; j < d; j++ {
			x.Set(i, j, float64(i)/float64(nGrid-1))
		}
	}
	return x
}

func uniformSamples(rng *rand.Rand, n, d int) *mat.Dense {
	X := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			X.Set(i, j, rng.Float64())
		}
	}
	return X
}

func TestNWMgnRegConstantResponse(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	const (
		n     = 80
		d     = 2
		nGrid = 31
	)
	X := uniformSamples(rng, n, d)
	Y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		Y.SetVec(i, 4.2)
	}

	nw, err := NWMgnReg(Y, unitGrid(nGrid, d), X, []float64{0.15, 0.15}, kernel.New(kernel.Epanechnikov), unitSupport(d))
	require.NoError(t, err)

	// A weighted average of a constant is that constant, whether the
	// ratio or the mean fallback is taken.
	for j := 0; j < d; j++ {
		for i := 0; i < nGrid; i++ {
			assert.InDelta(t, 4.2, nw.At(i, j), 1e-9, "grid %d component %d", i, j)
		}
	}
}

func TestNWMgnRegTracksMonotoneSignal(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	const (
		n     = 400
		nGrid = 21
	)
	X := uniformSamples(rng, n, 1)
	Y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		Y.SetVec(i, 3*X.At(i, 0)+0.05*rng.NormFloat64())
	}

	nw, err := NWMgnReg(Y, unitGrid(nGrid, 1), X, []float64{0.12}, kernel.New(kernel.Epanechnikov), unitSupport(1))
	require.NoError(t, err)

	// The estimate at the upper quartile must clearly exceed the lower
	// quartile for a strongly increasing signal.
	lo := nw.At(5, 0)  // x = 0.25
	hi := nw.At(15, 0) // x = 0.75
	assert.Greater(t, hi, lo+1.0)
}

func TestNWMgnRegValidation(t *testing.T) {
	X := uniformSamples(rand.New(rand.NewSource(23)), 20, 2)
	Y := mat.NewVecDense(19, nil)

	_, err := NWMgnReg(Y, unitGrid(11, 2), X, []float64{0.1, 0.1}, kernel.New(kernel.Epanechnikov), unitSupport(2))
	require.Error(t, err)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}
