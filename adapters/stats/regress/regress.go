package regress

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"ecocausal/adapters/stats/align"
	"ecocausal/domain/causal"
	"ecocausal/domain/series"
	"ecocausal/ports"
)

// InterceptName labels the intercept entry in a coefficient table
const InterceptName = "(intercept)"

// insufficientDataInterpretation is part of the wire contract and must
// not be reworded
const insufficientDataInterpretation = "Insufficient data for regression analysis"

// Engine regresses a target series on several predictor series
type Engine struct {
	solver ports.LeastSquaresSolver
}

// NewEngine creates a regression engine backed by the given solver
func NewEngine(solver ports.LeastSquaresSolver) *Engine {
	return &Engine{solver: solver}
}

// MultipleRegression aligns target and predictors on fully shared dates
// and fits target = b0 + b1*p1 + ... + bk*pk. Needs at least
// len(predictors)+3 aligned observations; below that it returns the
// neutral insufficient-data result with an empty coefficient table.
// Coefficients[0] is always the intercept when a model was fit.
func (e *Engine) MultipleRegression(target series.TimeSeries, predictors []series.TimeSeries) *causal.MultivariateResult {
	frame := align.Frame(target, predictors)
	n := frame.Len()
	p := len(predictors)

	if n < p+3 {
		return &causal.MultivariateResult{
			TargetName:     target.Name,
			Coefficients:   []causal.PredictorStats{},
			SampleSize:     n,
			Interpretation: insufficientDataInterpretation,
		}
	}

	x := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, p+1)
		row[0] = 1
		for j := 0; j < p; j++ {
			row[j+1] = frame.Predictors[j][i]
		}
		x[i] = row
	}

	coef, err := e.solver.Solve(x, frame.Target)
	if err != nil {
		return &causal.MultivariateResult{
			TargetName:     target.Name,
			Coefficients:   []causal.PredictorStats{},
			SampleSize:     n,
			Interpretation: insufficientDataInterpretation,
		}
	}

	rss, tss := 0.0, 0.0
	mean, _ := stats.Mean(frame.Target)
	for i := 0; i < n; i++ {
		predicted := 0.0
		for j := range coef {
			predicted += coef[j] * x[i][j]
		}
		residual := frame.Target[i] - predicted
		rss += residual * residual
		dev := frame.Target[i] - mean
		tss += dev * dev
	}

	rSquared := 0.0
	if tss > 0 {
		rSquared = 1 - rss/tss
	}
	adjRSquared := 0.0
	df := n - p - 1
	if df > 0 {
		adjRSquared = 1 - (1-rSquared)*float64(n-1)/float64(df)
	}
	rse := 0.0
	if df > 0 {
		rse = math.Sqrt(rss / float64(df))
	}

	stats := make([]causal.PredictorStats, 0, p+1)
	stats = append(stats, predictorStats(InterceptName, coef[0], rse, float64(n)))
	for j := 0; j < p; j++ {
		column := frame.Predictors[j]
		stats = append(stats, predictorStats(predictors[j].Name, coef[j+1], rse, sumSquaredDeviation(column)))
	}

	return &causal.MultivariateResult{
		TargetName:       target.Name,
		RSquared:         rSquared,
		AdjRSquared:      adjRSquared,
		Coefficients:     stats,
		ResidualStdError: rse,
		SampleSize:       n,
		Interpretation:   interpretFit(target.Name, p, rSquared, n),
	}
}

// predictorStats derives marginal standard error, t-statistic, and a
// threshold-approximated p-value for one coefficient. spread is the sum
// of squared deviations of the predictor column (n for the intercept).
func predictorStats(name string, coefficient, rse, spread float64) causal.PredictorStats {
	stdError := 0.0
	if rse > 0 && spread > 0 {
		stdError = rse / math.Sqrt(spread)
	}
	tStat := 0.0
	if stdError > 0 {
		tStat = coefficient / stdError
	}
	pValue := approximateTPValue(tStat)
	return causal.PredictorStats{
		Name:        name,
		Coefficient: coefficient,
		StdError:    stdError,
		TStat:       tStat,
		PValue:      pValue,
		Significant: pValue < 0.05,
	}
}

// approximateTPValue bands |t| the same way correlation p-values are
// banded
func approximateTPValue(t float64) float64 {
	abs := math.Abs(t)
	switch {
	case abs > 3:
		return 0.01
	case abs > 2:
		return 0.05
	default:
		return 0.1
	}
}

func sumSquaredDeviation(values []float64) float64 {
	mean, _ := stats.Mean(values)
	total := 0.0
	for _, v := range values {
		dev := v - mean
		total += dev * dev
	}
	return total
}

func interpretFit(targetName string, predictorCount int, rSquared float64, n int) string {
	quality := "explains little of the variance"
	switch {
	case rSquared >= 0.7:
		quality = "explains most of the variance"
	case rSquared >= 0.3:
		quality = "explains a moderate share of the variance"
	}
	return fmt.Sprintf("Regression of %s on %d predictors %s (R²=%.3f, n=%d)",
		targetName, predictorCount, quality, rSquared, n)
}
