package granger

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"ecocausal/adapters/stats/correlate"
	"ecocausal/adapters/stats/regress"
	"ecocausal/domain/series"
)

func newTestTester() *Tester {
	return NewTester(regress.NewResidualSolver(), correlate.NewEngine())
}

func monthlyDates(n int) []string {
	dates := make([]string, n)
	year, month := 2019, 1
	for i := 0; i < n; i++ {
		dates[i] = fmt.Sprintf("%04d-%02d-01", year, month)
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return dates
}

func makeSeries(name string, dates []string, values []float64) series.TimeSeries {
	ts := series.TimeSeries{ID: name, Name: name}
	for i, date := range dates {
		ts.DataPoints = append(ts.DataPoints, series.DataPoint{Date: date, Value: values[i]})
	}
	return ts
}

// Simple pseudo-random normal distribution (Box-Muller transform)
var randState = 24680.0

func randNorm() float64 {
	randState = math.Mod(randState*1103515245+12345, 2147483648)
	u1 := randState / 2147483648.0

	randState = math.Mod(randState*1103515245+12345, 2147483648)
	u2 := randState / 2147483648.0

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// laggedPair builds cause as zero-mean noise and effect[t] = scale *
// cause[t-lag], with the first lag effect values zero.
func laggedPair(n, lag int, scale float64) ([]float64, []float64) {
	cause := make([]float64, n)
	for i := range cause {
		cause[i] = randNorm() * 2
	}
	effect := make([]float64, n)
	for i := lag; i < n; i++ {
		effect[i] = scale * cause[i-lag]
	}
	return cause, effect
}

func TestTestCausality_DetectsLaggedDriver(t *testing.T) {
	n := 20
	dates := monthlyDates(n)
	causeValues, effectValues := laggedPair(n, 1, 2)
	cause := makeSeries("Sea Surface Temperature", dates, causeValues)
	effect := makeSeries("Fish Abundance", dates, effectValues)

	result := newTestTester().TestCausality(cause, effect, 4)
	if !result.Significant {
		t.Fatalf("expected significant causality, got F=%v p=%v", result.FStatistic, result.PValue)
	}
	if result.FStatistic <= 4 {
		t.Errorf("expected F > 4, got %v", result.FStatistic)
	}
	if result.PValue != 0.01 {
		t.Errorf("expected banded p=0.01, got %v", result.PValue)
	}
	if result.OptimalLag != 1 {
		t.Errorf("correlation scan should find lag 1, got %d", result.OptimalLag)
	}
	if !strings.Contains(result.Interpretation, "Granger-causes") {
		t.Errorf("unexpected interpretation: %s", result.Interpretation)
	}
}

func TestTestCausality_OptimalLagIsIndependentDiagnostic(t *testing.T) {
	n := 30
	dates := monthlyDates(n)
	causeValues, effectValues := laggedPair(n, 3, 2)
	cause := makeSeries("Chlorophyll", dates, causeValues)
	effect := makeSeries("Zooplankton", dates, effectValues)

	result := newTestTester().TestCausality(cause, effect, 4)
	if result.OptimalLag != 3 {
		t.Errorf("expected scan to find the true lag 3, got %d", result.OptimalLag)
	}
	if result.MaxLag != 4 {
		t.Errorf("MaxLag must echo the requested window, got %d", result.MaxLag)
	}
}

func TestTestCausality_IndependentSeriesNotSignificant(t *testing.T) {
	n := 40
	dates := monthlyDates(n)
	causeValues := make([]float64, n)
	effectValues := make([]float64, n)
	for i := 0; i < n; i++ {
		causeValues[i] = randNorm() * 2
		effectValues[i] = randNorm() * 2
	}
	cause := makeSeries("Wind Speed", dates, causeValues)
	effect := makeSeries("Fish Abundance", dates, effectValues)

	result := newTestTester().TestCausality(cause, effect, 4)
	if result.Significant {
		t.Errorf("independent noise must not be significant (F=%v)", result.FStatistic)
	}
}

func TestTestCausality_InsufficientData(t *testing.T) {
	n := 8
	dates := monthlyDates(n)
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	cause := makeSeries("cause", dates, values)
	effect := makeSeries("effect", dates, values)

	result := newTestTester().TestCausality(cause, effect, 4)
	if result.Significant {
		t.Error("insufficient data must not be significant")
	}
	if result.FStatistic != 0 || result.PValue != 1 {
		t.Errorf("expected neutral statistics, got F=%v p=%v", result.FStatistic, result.PValue)
	}
	if !strings.Contains(result.Interpretation, "Insufficient data") {
		t.Errorf("unexpected interpretation: %s", result.Interpretation)
	}
}

func TestTestCausality_RejectsNonPositiveMaxLag(t *testing.T) {
	dates := monthlyDates(12)
	values := make([]float64, 12)
	s := makeSeries("s", dates, values)

	result := newTestTester().TestCausality(s, s, 0)
	if result.Significant || result.FStatistic != 0 {
		t.Errorf("expected neutral result for maxLag=0, got %+v", result)
	}
}

func TestTestCausality_ExactPValueMode(t *testing.T) {
	n := 24
	dates := monthlyDates(n)
	causeValues, effectValues := laggedPair(n, 1, 2)
	cause := makeSeries("Upwelling Index", dates, causeValues)
	effect := makeSeries("Chlorophyll", dates, effectValues)

	tester := NewTesterWithMode(regress.NewResidualSolver(), correlate.NewEngine(), correlate.PValueExact)
	result := tester.TestCausality(cause, effect, 4)
	if !result.Significant {
		t.Fatalf("expected significant causality, got F=%v p=%v", result.FStatistic, result.PValue)
	}
	if result.PValue < 0 || result.PValue >= 0.05 {
		t.Errorf("exact p-value out of range: %v", result.PValue)
	}
	banded := map[float64]bool{0.001: true, 0.01: true, 0.05: true, 0.1: true}
	if banded[result.PValue] {
		t.Errorf("expected a continuous F-tail p-value, got banded %v", result.PValue)
	}
	t.Logf("exact F tail: F=%.2f p=%.6f", result.FStatistic, result.PValue)
}
