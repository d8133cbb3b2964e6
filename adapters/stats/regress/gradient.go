// Package regress fits linear models. The reference solver is batch
// gradient descent with fixed hyperparameters; a closed-form solver is
// available as an explicit alternate.
package regress

import (
	"fmt"
)

// GradientSolver fits coefficients by batch gradient descent over the
// mean gradient. Coefficients start at zero and the trajectory is fully
// deterministic for a given configuration, which downstream scoring
// depends on.
type GradientSolver struct {
	LearningRate float64
	Iterations   int
}

// NewGradientSolver creates a solver with explicit hyperparameters
func NewGradientSolver(learningRate float64, iterations int) *GradientSolver {
	return &GradientSolver{LearningRate: learningRate, Iterations: iterations}
}

// NewMultivariateSolver returns the configuration used for multivariate
// regression: learning rate 0.01 over 1000 iterations.
func NewMultivariateSolver() *GradientSolver {
	return NewGradientSolver(0.01, 1000)
}

// NewResidualSolver returns the configuration used to estimate residual
// sums of squares inside Granger testing: learning rate 0.001 over 500
// iterations.
func NewResidualSolver() *GradientSolver {
	return NewGradientSolver(0.001, 500)
}

// Solve fits y ≈ X·beta and returns the coefficient vector, one entry
// per design-matrix column. Rows must be rectangular and match len(y).
func (s *GradientSolver) Solve(x [][]float64, y []float64) ([]float64, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("design matrix has %d rows for %d targets", n, len(y))
	}
	cols := len(x[0])
	for i, row := range x {
		if len(row) != cols {
			return nil, fmt.Errorf("design matrix row %d has %d columns, expected %d", i, len(row), cols)
		}
	}

	coef := make([]float64, cols)
	gradient := make([]float64, cols)
	for iter := 0; iter < s.Iterations; iter++ {
		for j := range gradient {
			gradient[j] = 0
		}
		for i := 0; i < n; i++ {
			predicted := 0.0
			for j := 0; j < cols; j++ {
				predicted += coef[j] * x[i][j]
			}
			residual := predicted - y[i]
			for j := 0; j < cols; j++ {
				gradient[j] += residual * x[i][j]
			}
		}
		step := s.LearningRate / float64(n)
		for j := 0; j < cols; j++ {
			coef[j] -= step * gradient[j]
		}
	}
	return coef, nil
}
