package regress

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ExactSolver computes the closed-form least-squares solution through
// the normal equations, falling back to an SVD pseudoinverse when X'X is
// singular. Selected only by explicit configuration (SOLVER=exact); the
// gradient solver remains the reference because its partial-convergence
// trajectory is what the fixed scoring thresholds were tuned against.
type ExactSolver struct{}

// NewExactSolver creates a closed-form least-squares solver
func NewExactSolver() *ExactSolver {
	return &ExactSolver{}
}

// Solve fits y ≈ X·beta exactly
func (s *ExactSolver) Solve(x [][]float64, y []float64) ([]float64, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("design matrix has %d rows for %d targets", n, len(y))
	}
	cols := len(x[0])
	flat := make([]float64, 0, n*cols)
	for i, row := range x {
		if len(row) != cols {
			return nil, fmt.Errorf("design matrix row %d has %d columns, expected %d", i, len(row), cols)
		}
		flat = append(flat, row...)
	}

	X := mat.NewDense(n, cols, flat)
	Y := mat.NewDense(n, 1, append([]float64(nil), y...))

	var B mat.Dense
	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err == nil {
		var xty mat.Dense
		xty.Mul(X.T(), Y)
		B.Mul(&xtxInv, &xty)
	} else {
		// X'X singular: minimum-norm least squares via SVD
		var svd mat.SVD
		if ok := svd.Factorize(X, mat.SVDFullU|mat.SVDFullV); !ok {
			return nil, fmt.Errorf("least squares failed: X'X singular and SVD factorization failed")
		}
		rank := svd.Rank(1e-12)
		svd.SolveTo(&B, Y, rank)
	}

	coef := make([]float64, cols)
	for j := 0; j < cols; j++ {
		coef[j] = B.At(j, 0)
	}
	return coef, nil
}
