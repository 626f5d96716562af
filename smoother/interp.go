package smoother

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/KentaYashiro/sbfit/pkg/errors"
)

// Interp2D maps grid values onto arbitrary query points by bilinear
// interpolation. xin and yin are the strictly increasing row and column
// coordinates of the value grid; values has len(xin) rows and len(yin)
// columns. The result at a grid node equals the stored value exactly.
//
// Queries outside the coordinate range are clamped to the nearest edge
// cell, so extrapolation is the linear continuation of that cell.
func Interp2D(xin, yin []float64, values *mat.Dense, xq, yq []float64) ([]float64, error) {
	const op = "smoother.Interp2D"

	if len(xin) < 2 || len(yin) < 2 {
		return nil, errors.NewValueError(op, "need at least a 2x2 grid")
	}
	r, c := values.Dims()
	if r != len(xin) {
		return nil, errors.NewDimensionError(op, len(xin), r, 0)
	}
	if c != len(yin) {
		return nil, errors.NewDimensionError(op, len(yin), c, 1)
	}
	if len(xq) != len(yq) {
		return nil, errors.NewDimensionError(op, len(xq), len(yq), 0)
	}
	if !strictlyIncreasing(xin) || !strictlyIncreasing(yin) {
		return nil, errors.NewValueError(op, "grid coordinates must be strictly increasing")
	}

	out := make([]float64, len(xq))
	for q := range xq {
		i := cellIndex(xin, xq[q])
		j := cellIndex(yin, yq[q])

		tx := (xq[q] - xin[i]) / (xin[i+1] - xin[i])
		ty := (yq[q] - yin[j]) / (yin[j+1] - yin[j])

		v00 := values.At(i, j)
		v10 := values.At(i+1, j)
		v01 := values.At(i, j+1)
		v11 := values.At(i+1, j+1)

		out[q] = (1-tx)*(1-ty)*v00 + tx*(1-ty)*v10 + (1-tx)*ty*v01 + tx*ty*v11
	}
	return out, nil
}

// Interp1D linearly interpolates grid values at the query points, with
// the same clamp-to-edge policy as Interp2D.
func Interp1D(xin, vin, xq []float64) ([]float64, error) {
	const op = "smoother.Interp1D"

	if len(xin) < 2 {
		return nil, errors.NewValueError(op, "need at least 2 grid points")
	}
	if len(vin) != len(xin) {
		return nil, errors.NewDimensionError(op, len(xin), len(vin), 0)
	}
	if !strictlyIncreasing(xin) {
		return nil, errors.NewValueError(op, "grid coordinates must be strictly increasing")
	}

	out := make([]float64, len(xq))
	for q, x := range xq {
		i := cellIndex(xin, x)
		t := (x - xin[i]) / (xin[i+1] - xin[i])
		out[q] = (1-t)*vin[i] + t*vin[i+1]
	}
	return out, nil
}

// cellIndex returns the left index of the grid cell used for a query,
// clamped to [0, len(grid)-2].
func cellIndex(grid []float64, x float64) int {
	i := sort.SearchFloat64s(grid, x) - 1
	if i < 0 {
		i = 0
	}
	if i > len(grid)-2 {
		i = len(grid) - 2
	}
	return i
}

func strictlyIncreasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}
