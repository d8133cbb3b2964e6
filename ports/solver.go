package ports

// LeastSquaresSolver fits linear coefficients minimizing squared error.
// The design matrix carries the intercept as a leading column of ones,
// so the returned slice's first element is the intercept estimate.
//
// Implementations must be pure: no retained state between calls, safe
// for concurrent use from multiple analyses.
type LeastSquaresSolver interface {
	// Solve returns one coefficient per design-matrix column
	Solve(x [][]float64, y []float64) ([]float64, error)
}
