// Package granger tests whether one series' history improves prediction
// of another beyond the other's own history, via a nested-model F-test.
package granger

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"ecocausal/adapters/stats/align"
	"ecocausal/adapters/stats/correlate"
	"ecocausal/domain/causal"
	"ecocausal/domain/series"
	"ecocausal/ports"
)

// Tester runs Granger causality tests. The residual sums of squares come
// from the injected solver; the reference configuration is the residual
// gradient solver, whose partial convergence the F thresholds assume.
type Tester struct {
	solver ports.LeastSquaresSolver
	corr   *correlate.Engine
	mode   correlate.PValueMode
}

// NewTester creates a Granger tester with banded F p-values
func NewTester(solver ports.LeastSquaresSolver, corr *correlate.Engine) *Tester {
	return &Tester{solver: solver, corr: corr, mode: correlate.PValueApproximate}
}

// NewTesterWithMode creates a Granger tester with the given p-value
// derivation. Unknown modes fall back to the banded approximation.
func NewTesterWithMode(solver ports.LeastSquaresSolver, corr *correlate.Engine, mode correlate.PValueMode) *Tester {
	if mode != correlate.PValueExact {
		mode = correlate.PValueApproximate
	}
	return &Tester{solver: solver, corr: corr, mode: mode}
}

// TestCausality aligns cause and effect on shared dates and compares a
// restricted autoregression of effect on its own lags 1..maxLag against
// an unrestricted model that adds the cause's lags. Needs at least
// maxLag+5 aligned observations, otherwise the neutral result is
// returned. The reported OptimalLag comes from an independent
// correlation scan over lags 1..maxLag and is not the F-test's lag
// structure.
func (t *Tester) TestCausality(cause, effect series.TimeSeries, maxLag int) *causal.GrangerCausalityResult {
	result := &causal.GrangerCausalityResult{
		CauseName:  cause.Name,
		EffectName: effect.Name,
		MaxLag:     maxLag,
		PValue:     1,
	}
	if maxLag < 1 {
		result.Interpretation = fmt.Sprintf("Granger test needs maxLag >= 1, got %d", maxLag)
		return result
	}

	pair := align.Pair(cause, effect)
	n := pair.Len()
	if n < maxLag+5 {
		result.Interpretation = fmt.Sprintf(
			"Insufficient data for Granger causality test between %s and %s (%d shared dates, need at least %d)",
			cause.Name, effect.Name, n, maxLag+5)
		return result
	}
	causeValues := pair.Values1
	effectValues := pair.Values2

	rows := n - maxLag
	restricted := make([][]float64, rows)
	unrestricted := make([][]float64, rows)
	y := make([]float64, rows)
	for i := maxLag; i < n; i++ {
		r := make([]float64, 1+maxLag)
		u := make([]float64, 1+2*maxLag)
		r[0], u[0] = 1, 1
		for lag := 1; lag <= maxLag; lag++ {
			r[lag] = effectValues[i-lag]
			u[lag] = effectValues[i-lag]
			u[maxLag+lag] = causeValues[i-lag]
		}
		restricted[i-maxLag] = r
		unrestricted[i-maxLag] = u
		y[i-maxLag] = effectValues[i]
	}

	rssRestricted, err := t.residualSumOfSquares(restricted, y)
	if err != nil {
		result.Interpretation = fmt.Sprintf("Granger model fit failed: %v", err)
		return result
	}
	rssUnrestricted, err := t.residualSumOfSquares(unrestricted, y)
	if err != nil {
		result.Interpretation = fmt.Sprintf("Granger model fit failed: %v", err)
		return result
	}

	denominator := rssUnrestricted / float64(n-2*maxLag-1)
	fStat := 0.0
	if denominator > 0 {
		fStat = ((rssRestricted - rssUnrestricted) / float64(maxLag)) / denominator
	}
	pValue := t.fPValue(fStat, n, maxLag)

	result.FStatistic = fStat
	result.PValue = pValue
	result.Significant = pValue < 0.05
	result.OptimalLag = t.scanOptimalLag(causeValues, effectValues, maxLag)
	result.Interpretation = interpret(cause.Name, effect.Name, fStat, pValue, result.Significant)
	return result
}

func (t *Tester) residualSumOfSquares(x [][]float64, y []float64) (float64, error) {
	coef, err := t.solver.Solve(x, y)
	if err != nil {
		return 0, err
	}
	rss := 0.0
	for i, row := range x {
		predicted := 0.0
		for j, c := range coef {
			predicted += c * row[j]
		}
		residual := y[i] - predicted
		rss += residual * residual
	}
	return rss, nil
}

func (t *Tester) fPValue(f float64, n, maxLag int) float64 {
	if t.mode == correlate.PValueExact {
		return exactFPValue(f, maxLag, n-2*maxLag-1)
	}
	return approximateFPValue(f)
}

// approximateFPValue bands the F-statistic into fixed p-values; only
// F > 4 counts as significant downstream.
func approximateFPValue(f float64) float64 {
	switch {
	case f > 4:
		return 0.01
	case f > 2:
		return 0.05
	default:
		return 0.1
	}
}

// exactFPValue evaluates the upper tail of the F distribution with
// (d1, d2) degrees of freedom. Non-positive statistics or degrees of
// freedom report no evidence.
func exactFPValue(f float64, d1, d2 int) float64 {
	if f <= 0 || d1 < 1 || d2 < 1 {
		return 1
	}
	dist := distuv.F{D1: float64(d1), D2: float64(d2)}
	p := 1 - dist.CDF(f)
	if p < 0 {
		return 0
	}
	return p
}

// scanOptimalLag picks the shift of cause against effect with the
// largest absolute correlation. Diagnostic only; earliest lag wins ties.
func (t *Tester) scanOptimalLag(causeValues, effectValues []float64, maxLag int) int {
	bestLag := 0
	bestAbs := -1.0
	n := len(causeValues)
	for lag := 1; lag <= maxLag; lag++ {
		if n-lag < 3 {
			break
		}
		r, _ := t.corr.Pearson(causeValues[:n-lag], effectValues[lag:])
		if abs := math.Abs(r); abs > bestAbs {
			bestAbs = abs
			bestLag = lag
		}
	}
	return bestLag
}

func interpret(causeName, effectName string, f, p float64, significant bool) string {
	if significant {
		return fmt.Sprintf("%s Granger-causes %s (F=%.2f, p=%.3f): past values of %s improve prediction of %s beyond its own history",
			causeName, effectName, f, p, causeName, effectName)
	}
	return fmt.Sprintf("No evidence that %s Granger-causes %s (F=%.2f, p=%.3f)", causeName, effectName, f, p)
}
