// Package metrics provides regression evaluation helpers for fitted
// component curves and predictions.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/KentaYashiro/sbfit/pkg/errors"
)

// MSE computes the mean squared error between two vectors.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE computes the root mean squared error between two vectors.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MaxAbsError computes the maximum absolute deviation between two
// vectors.
func MaxAbsError(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MaxAbsError", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MaxAbsError", n, yPred.Len(), 0)
	}

	maxAbs := 0.0
	for i := 0; i < n; i++ {
		if d := math.Abs(yTrue.AtVec(i) - yPred.AtVec(i)); d > maxAbs {
			maxAbs = d
		}
	}
	return maxAbs, nil
}
