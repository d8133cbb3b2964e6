// Package lag sweeps time-shifted correlations between driver and
// response series and detects monthly seasonal cycles.
package lag

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"ecocausal/adapters/stats/correlate"
	"ecocausal/domain/causal"
	"ecocausal/domain/series"
)

// DefaultLagUnit is assumed when a request does not name the lag step
const DefaultLagUnit = "months"

// Seasonality detection thresholds
const (
	minSeasonalityPoints = 24
	minDistinctMonths    = 6
	seasonalityFraction  = 0.3
)

// Engine computes lagged cross-correlations and seasonality statistics
type Engine struct {
	corr *correlate.Engine
}

// NewEngine creates a lag engine backed by the given correlation engine
func NewEngine(corr *correlate.Engine) *Engine {
	return &Engine{corr: corr}
}

// ============================================================================
// CROSS-CORRELATION
// ============================================================================

// CrossCorrelate correlates driver values at time t with response values
// at time t+L for every lag L in 0..maxLag. Each series is ordered by
// its own dates and paired positionally, so the two series must share a
// sampling cadence for lags to mean anything. Lags with fewer than 5
// pairs are skipped. The optimal lag maximizes |r| over computed lags,
// earliest lag winning ties.
func (e *Engine) CrossCorrelate(driver, response series.TimeSeries, maxLag int, unit string) *causal.LagAnalysisResult {
	if unit == "" {
		unit = DefaultLagUnit
	}
	driverValues := driver.SortedValues()
	responseValues := response.SortedValues()

	result := &causal.LagAnalysisResult{
		DriverName:   driver.Name,
		ResponseName: response.Name,
		LagUnit:      unit,
		Correlations: make([]causal.LagCorrelation, 0, maxLag+1),
		Mechanism:    mechanismHint(driver.Name),
	}

	bestAbs := -1.0
	for offset := 0; offset <= maxLag; offset++ {
		pairs := len(responseValues) - offset
		if len(driverValues) < pairs {
			pairs = len(driverValues)
		}
		if pairs < 5 {
			continue
		}

		r, p := e.corr.Pearson(driverValues[:pairs], responseValues[offset:offset+pairs])
		result.Correlations = append(result.Correlations, causal.LagCorrelation{
			Lag:         offset,
			Correlation: r,
			PValue:      p,
			Significant: p < 0.05,
		})
		if math.Abs(r) > bestAbs {
			bestAbs = math.Abs(r)
			result.OptimalLag = offset
			result.MaxCorrelation = r
		}
	}
	return result
}

// MultiDriver sweeps each candidate driver against the same response and
// flags the driver whose peak absolute correlation is largest. Earlier
// drivers win ties.
func (e *Engine) MultiDriver(drivers []series.TimeSeries, response series.TimeSeries, maxLag int, unit string) *causal.MultiDriverLagResult {
	result := &causal.MultiDriverLagResult{
		ResponseName: response.Name,
		Drivers:      make([]causal.LagAnalysisResult, 0, len(drivers)),
	}
	bestAbs := -1.0
	for _, driver := range drivers {
		sweep := e.CrossCorrelate(driver, response, maxLag, unit)
		result.Drivers = append(result.Drivers, *sweep)
		if math.Abs(sweep.MaxCorrelation) > bestAbs {
			bestAbs = math.Abs(sweep.MaxCorrelation)
			result.MostInfluential = driver.Name
		}
	}
	return result
}

// mechanismHint suggests an ecological mechanism from the driver's name.
// Returns an empty string when no keyword matches.
func mechanismHint(driverName string) string {
	name := strings.ToLower(driverName)
	switch {
	case strings.Contains(name, "temperature"):
		return "Temperature shifts metabolic rates and thermal habitat suitability for downstream populations"
	case strings.Contains(name, "chlorophyll"):
		return "Chlorophyll tracks primary productivity that propagates up the food web"
	case strings.Contains(name, "salinity"):
		return "Salinity changes mark water mass shifts that stress osmoregulation"
	default:
		return ""
	}
}

// ============================================================================
// SEASONALITY
// ============================================================================

// DetectSeasonality buckets a series by calendar month and reports
// whether the monthly spread is large relative to the overall mean.
// Needs at least 24 points spanning at least 6 distinct months;
// otherwise the result is neutral with an explanatory interpretation.
func (e *Engine) DetectSeasonality(s series.TimeSeries) *causal.SeasonalityResult {
	result := &causal.SeasonalityResult{
		SeriesName: s.Name,
		SampleSize: s.Len(),
	}
	if s.Len() < minSeasonalityPoints {
		result.Interpretation = fmt.Sprintf(
			"Insufficient data for seasonality detection in %s (%d points, need at least %d)",
			s.Name, s.Len(), minSeasonalityPoints)
		return result
	}

	monthly := make(map[int][]float64)
	all := make([]float64, 0, s.Len())
	for _, p := range s.DataPoints {
		month, ok := series.MonthOf(p.Date)
		if !ok {
			continue
		}
		monthly[month] = append(monthly[month], p.Value)
		all = append(all, p.Value)
	}
	if len(monthly) < minDistinctMonths {
		result.Interpretation = fmt.Sprintf(
			"Too few distinct months represented in %s (%d, need at least %d)",
			s.Name, len(monthly), minDistinctMonths)
		return result
	}

	averages := make(map[int]float64, len(monthly))
	maxAvg, minAvg := math.Inf(-1), math.Inf(1)
	for month := 1; month <= 12; month++ {
		values, ok := monthly[month]
		if !ok {
			continue
		}
		avg, _ := stats.Mean(values)
		averages[month] = avg
		if avg > maxAvg {
			maxAvg = avg
			result.PeakMonth = month
		}
		if avg < minAvg {
			minAvg = avg
			result.TroughMonth = month
		}
	}
	overall, _ := stats.Mean(all)

	result.MonthlyAverages = averages
	result.Amplitude = maxAvg - minAvg
	result.HasSeasonality = result.Amplitude > seasonalityFraction*overall
	result.Interpretation = seasonalityNarrative(result, overall)
	return result
}

func seasonalityNarrative(r *causal.SeasonalityResult, overall float64) string {
	if !r.HasSeasonality {
		return fmt.Sprintf("No pronounced seasonal cycle in %s (monthly spread %.2f against mean %.2f)",
			r.SeriesName, r.Amplitude, overall)
	}
	return fmt.Sprintf("%s follows a seasonal cycle peaking in %s and bottoming out in %s (amplitude %.2f)",
		r.SeriesName, time.Month(r.PeakMonth), time.Month(r.TroughMonth), r.Amplitude)
}
