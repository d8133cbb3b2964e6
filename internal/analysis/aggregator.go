// Package analysis combines correlation, lag, Granger, and regression
// evidence into hypothesis verdicts and ranked causal driver reports.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"ecocausal/adapters/stats/correlate"
	"ecocausal/adapters/stats/granger"
	"ecocausal/adapters/stats/lag"
	"ecocausal/adapters/stats/regress"
	"ecocausal/domain/causal"
	"ecocausal/domain/core"
	"ecocausal/domain/series"
)

// Evidence windows used by hypothesis testing and driver screening
const (
	crossCorrelationWindow = 12
	grangerWindow          = 4
)

// Confidence contributions for hypothesis scoring
const (
	correlationPoints   = 30
	lagPoints           = 25
	lagAgreementPoints  = 15
	grangerPoints       = 30
	maxConfidence       = 100
	supportedConfidence = 50
)

// Categorical driver confidence levels
const (
	confidenceGranger     = 80
	confidenceCorrelation = 60
	confidenceBaseline    = 30
)

// pathwayThreshold is the causal strength above which a driver spawns a
// pathway entry
const pathwayThreshold = 0.3

// Aggregator owns the evidence pipeline. The mechanism table is
// read-only domain knowledge injected at construction.
type Aggregator struct {
	corr       *correlate.Engine
	lag        *lag.Engine
	granger    *granger.Tester
	regress    *regress.Engine
	mechanisms []causal.KnownMechanism
}

// NewAggregator creates an aggregator over the given engines
func NewAggregator(corr *correlate.Engine, lagEngine *lag.Engine, grangerTester *granger.Tester, regressEngine *regress.Engine, mechanisms []causal.KnownMechanism) *Aggregator {
	return &Aggregator{
		corr:       corr,
		lag:        lagEngine,
		granger:    grangerTester,
		regress:    regressEngine,
		mechanisms: mechanisms,
	}
}

// ============================================================================
// HYPOTHESIS TESTING
// ============================================================================

// TestHypothesis scores a cause-effect claim against correlation, a
// 12-lag cross-correlation, and a 4-lag Granger test. Evidence adds up:
// +30 for significant correlation in the expected direction, +25 for a
// lagged correlation above 0.3 (+15 more when the observed optimal lag
// lands within 2 steps of a declared expected lag), +30 for Granger
// significance. A claim is supported at confidence 50 of 100.
func (a *Aggregator) TestHypothesis(h causal.Hypothesis, cause, effect series.TimeSeries) *causal.HypothesisTestResult {
	correlation := a.corr.CorrelateSeries(cause, effect)
	lagSweep := a.lag.CrossCorrelate(cause, effect, crossCorrelationWindow, "")
	grangerResult := a.granger.TestCausality(cause, effect, grangerWindow)

	confidence := 0
	caveats := []string{}

	if correlation.Significant && directionMatches(correlation.PearsonR, h.ExpectedDirection) {
		confidence += correlationPoints
	} else {
		caveats = append(caveats, fmt.Sprintf(
			"Correlation does not support the claim: r=%.3f, significant=%t, expected %s",
			correlation.PearsonR, correlation.Significant, h.ExpectedDirection))
	}

	if lagSweep.MaxCorrelation > pathwayThreshold {
		confidence += lagPoints
		if h.ExpectedLag != nil {
			if absInt(lagSweep.OptimalLag-*h.ExpectedLag) <= 2 {
				confidence += lagAgreementPoints
			} else {
				caveats = append(caveats, fmt.Sprintf(
					"Observed optimal lag %d differs from expected lag %d by more than 2 steps",
					lagSweep.OptimalLag, *h.ExpectedLag))
			}
		}
	}

	if grangerResult.Significant {
		confidence += grangerPoints
	} else {
		caveats = append(caveats, fmt.Sprintf(
			"No Granger evidence that %s drives %s (F=%.2f)",
			cause.Name, effect.Name, grangerResult.FStatistic))
	}

	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return &causal.HypothesisTestResult{
		Hypothesis:  h,
		Confidence:  confidence,
		Supported:   confidence >= supportedConfidence,
		Correlation: correlation,
		LagAnalysis: lagSweep,
		Granger:     grangerResult,
		Caveats:     caveats,
		TestedAt:    core.Now(),
	}
}

func directionMatches(r float64, expected string) bool {
	switch expected {
	case causal.DirectionPositive:
		return r > 0
	case causal.DirectionNegative:
		return r < 0
	default:
		return false
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ============================================================================
// DRIVER SCREENING
// ============================================================================

// AnalyzeCausalDrivers evaluates every candidate driver against the
// target, ranks them by combined causal strength, fits a multivariate
// model over all drivers for overall explanatory power, and derives
// feature importances, pathways, and a narrative.
//
// causalStrength = 0.3|r| + 0.3|peak lag r| + 0.4 if Granger-significant.
func (a *Aggregator) AnalyzeCausalDrivers(target series.TimeSeries, drivers []series.TimeSeries) *causal.AnalysisResult {
	ranked := make([]causal.DriverResult, 0, len(drivers))
	for _, driver := range drivers {
		correlation := a.corr.CorrelateSeries(driver, target)
		lagSweep := a.lag.CrossCorrelate(driver, target, crossCorrelationWindow, "")
		grangerResult := a.granger.TestCausality(driver, target, grangerWindow)

		strength := 0.3*math.Abs(correlation.PearsonR) + 0.3*math.Abs(lagSweep.MaxCorrelation)
		if grangerResult.Significant {
			strength += 0.4
		}

		mechanism := lagSweep.Mechanism
		if known, found := causal.FindMechanism(a.mechanisms, driver.Name, target.Name); found {
			mechanism = known.Mechanism
		}

		direction := causal.DirectionPositive
		if correlation.PearsonR < 0 {
			direction = causal.DirectionNegative
		}

		confidence := confidenceBaseline
		switch {
		case grangerResult.Significant:
			confidence = confidenceGranger
		case correlation.Significant:
			confidence = confidenceCorrelation
		}

		ranked = append(ranked, causal.DriverResult{
			Name:           driver.Name,
			CausalStrength: strength,
			OptimalLag:     lagSweep.OptimalLag,
			Direction:      direction,
			Mechanism:      mechanism,
			Confidence:     confidence,
			Correlation:    correlation,
			Granger:        grangerResult,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CausalStrength > ranked[j].CausalStrength
	})

	pathways := []causal.Pathway{}
	for _, d := range ranked {
		if d.CausalStrength > pathwayThreshold {
			pathways = append(pathways, causal.Pathway{
				From:      d.Name,
				To:        target.Name,
				Mechanism: d.Mechanism,
				Lag:       d.OptimalLag,
				Strength:  d.CausalStrength,
			})
		}
	}

	model := a.regress.MultipleRegression(target, drivers)

	return &causal.AnalysisResult{
		TargetName:    target.Name,
		RankedDrivers: ranked,
		ModelFit: causal.ModelFit{
			RSquared:    model.RSquared,
			AdjRSquared: model.AdjRSquared,
			SampleSize:  model.SampleSize,
		},
		FeatureImportances: buildFeatureImportances(model.Coefficients),
		Pathways:           pathways,
		Summary:            summarize(target.Name, ranked, model.RSquared),
		Recommendations:    recommend(target.Name, ranked, model.RSquared),
		AnalyzedAt:         core.Now(),
	}
}

// buildFeatureImportances normalizes absolute non-intercept coefficients
// to a unit sum and ranks them by descending share, input order breaking
// ties. An all-zero coefficient vector yields zero importances rather
// than dividing by zero.
func buildFeatureImportances(coefficients []causal.PredictorStats) []causal.FeatureImportance {
	if len(coefficients) <= 1 {
		return []causal.FeatureImportance{}
	}
	predictors := coefficients[1:]

	total := 0.0
	for _, p := range predictors {
		total += math.Abs(p.Coefficient)
	}

	importances := make([]causal.FeatureImportance, len(predictors))
	for i, p := range predictors {
		share := 0.0
		if total > 0 {
			share = math.Abs(p.Coefficient) / total
		}
		direction := causal.DirectionPositive
		if p.Coefficient < 0 {
			direction = causal.DirectionNegative
		}
		importances[i] = causal.FeatureImportance{
			Feature:      p.Name,
			Importance:   share,
			Direction:    direction,
			Contribution: int(math.Round(share * 100)),
		}
	}

	sort.SliceStable(importances, func(i, j int) bool {
		return importances[i].Importance > importances[j].Importance
	})
	for i := range importances {
		importances[i].Rank = i + 1
	}
	return importances
}
