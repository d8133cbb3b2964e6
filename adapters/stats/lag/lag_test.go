package lag

import (
	"fmt"
	"math"
	"testing"

	"ecocausal/adapters/stats/correlate"
	"ecocausal/domain/series"
)

func newTestEngine() *Engine {
	return NewEngine(correlate.NewEngine())
}

func monthlyDates(n int) []string {
	dates := make([]string, n)
	year, month := 2020, 1
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

// sinusoid returns n monthly values of a 12-month cycle shifted by phase
// steps, so shifting phase by k reproduces the series k months later.
func sinusoid(n, phase int, base, amplitude float64) []float64 {
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = base + amplitude*math.Sin(2*math.Pi*float64(i-phase)/12)
	}
	return values
}

func TestCrossCorrelate_FindsLeadLag(t *testing.T) {
	n := 36
	dates := monthlyDates(n)
	driver := makeSeries("Sea Surface Temperature", dates, sinusoid(n, 0, 15, 5))
	response := makeSeries("Fish Abundance", dates, sinusoid(n, 2, 80, 12))

	result := newTestEngine().CrossCorrelate(driver, response, 6, "months")
	if result.OptimalLag != 2 {
		t.Errorf("expected optimal lag 2, got %d", result.OptimalLag)
	}
	if result.MaxCorrelation != 1.0 {
		t.Errorf("expected max correlation 1.0 at the true lag, got %v", result.MaxCorrelation)
	}
	if result.LagUnit != "months" {
		t.Errorf("expected lag unit months, got %s", result.LagUnit)
	}
	if len(result.Correlations) != 7 {
		t.Errorf("expected 7 lag rows (0..6), got %d", len(result.Correlations))
	}
}

func TestCrossCorrelate_SkipsShortLags(t *testing.T) {
	n := 8
	dates := monthlyDates(n)
	driver := makeSeries("driver", dates, sinusoid(n, 0, 10, 3))
	response := makeSeries("response", dates, sinusoid(n, 1, 20, 4))

	result := newTestEngine().CrossCorrelate(driver, response, 6, "")
	// lag L leaves 8-L pairs; lags 4..6 fall under the 5-pair floor
	if len(result.Correlations) != 4 {
		t.Fatalf("expected lags 0..3 only, got %d rows", len(result.Correlations))
	}
	for i, row := range result.Correlations {
		if row.Lag != i {
			t.Errorf("row %d has lag %d", i, row.Lag)
		}
	}
	if result.LagUnit != DefaultLagUnit {
		t.Errorf("empty unit should default to %q, got %q", DefaultLagUnit, result.LagUnit)
	}
}

func TestCrossCorrelate_AllLagsShort(t *testing.T) {
	dates := monthlyDates(3)
	driver := makeSeries("driver", dates, []float64{1, 2, 3})
	response := makeSeries("response", dates, []float64{4, 5, 6})

	result := newTestEngine().CrossCorrelate(driver, response, 6, "months")
	if len(result.Correlations) != 0 {
		t.Errorf("expected no computable lags, got %d", len(result.Correlations))
	}
	if result.OptimalLag != 0 || result.MaxCorrelation != 0 {
		t.Errorf("expected neutral optimum, got lag=%d r=%v", result.OptimalLag, result.MaxCorrelation)
	}
}

func TestCrossCorrelate_UnsortedInputDates(t *testing.T) {
	n := 24
	dates := monthlyDates(n)
	values := sinusoid(n, 0, 15, 5)

	ordered := makeSeries("driver", dates, values)
	shuffled := series.TimeSeries{ID: "driver", Name: "driver"}
	for i := n - 1; i >= 0; i-- {
		shuffled.DataPoints = append(shuffled.DataPoints, series.DataPoint{Date: dates[i], Value: values[i]})
	}
	response := makeSeries("response", dates, sinusoid(n, 3, 40, 6))

	e := newTestEngine()
	a := e.CrossCorrelate(ordered, response, 4, "months")
	b := e.CrossCorrelate(shuffled, response, 4, "months")
	if a.OptimalLag != b.OptimalLag || a.MaxCorrelation != b.MaxCorrelation {
		t.Errorf("input order changed the sweep: (%d, %v) vs (%d, %v)",
			a.OptimalLag, a.MaxCorrelation, b.OptimalLag, b.MaxCorrelation)
	}
}

func TestMechanismHint(t *testing.T) {
	cases := []struct {
		driver string
		want   bool
	}{
		{"Sea Surface Temperature (SST)", true},
		{"Chlorophyll-a Concentration", true},
		{"Surface Salinity", true},
		{"Wind Speed", false},
	}
	for _, tc := range cases {
		hint := mechanismHint(tc.driver)
		if (hint != "") != tc.want {
			t.Errorf("mechanismHint(%q) = %q", tc.driver, hint)
		}
	}
}

func TestMultiDriver_PicksStrongestPeak(t *testing.T) {
	n := 36
	dates := monthlyDates(n)
	response := makeSeries("Fish Abundance", dates, sinusoid(n, 2, 80, 12))
	strong := makeSeries("Sea Surface Temperature", dates, sinusoid(n, 0, 15, 5))

	noise := make([]float64, n)
	state := uint64(42)
	for i := range noise {
		state = state*6364136223846793005 + 1442695040888963407
		noise[i] = float64(state>>33%1000) / 100
	}
	weak := makeSeries("Wind Speed", dates, noise)

	result := newTestEngine().MultiDriver([]series.TimeSeries{weak, strong}, response, 6, "months")
	if result.MostInfluential != "Sea Surface Temperature" {
		t.Errorf("expected the lag-2 sinusoid driver to win, got %s", result.MostInfluential)
	}
	if len(result.Drivers) != 2 {
		t.Errorf("expected one sweep per driver, got %d", len(result.Drivers))
	}
}

func TestDetectSeasonality_CyclicalSeries(t *testing.T) {
	n := 36
	dates := monthlyDates(n)
	values := make([]float64, n)
	for i := range values {
		month := i%12 + 1
		// peaks in July, bottoms out in January
		values[i] = 15 - 10*math.Cos(2*math.Pi*float64(month-1)/12)
	}
	s := makeSeries("Sea Surface Temperature", dates, values)

	result := newTestEngine().DetectSeasonality(s)
	if !result.HasSeasonality {
		t.Fatal("expected seasonality in a 12-month sinusoid")
	}
	if result.PeakMonth != 7 {
		t.Errorf("expected peak month 7, got %d", result.PeakMonth)
	}
	if result.TroughMonth != 1 {
		t.Errorf("expected trough month 1, got %d", result.TroughMonth)
	}
	if result.Amplitude <= 0 {
		t.Errorf("expected positive amplitude, got %v", result.Amplitude)
	}
	if len(result.MonthlyAverages) != 12 {
		t.Errorf("expected 12 monthly averages, got %d", len(result.MonthlyAverages))
	}
}

func TestDetectSeasonality_FlatSeries(t *testing.T) {
	n := 36
	dates := monthlyDates(n)
	values := make([]float64, n)
	for i := range values {
		values[i] = 10 + 0.01*float64(i%3)
	}
	s := makeSeries("flat", dates, values)

	result := newTestEngine().DetectSeasonality(s)
	if result.HasSeasonality {
		t.Errorf("flat series must not be seasonal (amplitude %v)", result.Amplitude)
	}
}

func TestDetectSeasonality_TooFewPoints(t *testing.T) {
	dates := monthlyDates(12)
	values := make([]float64, 12)
	for i := range values {
		values[i] = float64(i)
	}
	s := makeSeries("short", dates, values)

	result := newTestEngine().DetectSeasonality(s)
	if result.HasSeasonality {
		t.Error("12 points must not qualify for seasonality")
	}
	if result.SampleSize != 12 {
		t.Errorf("expected sampleSize 12, got %d", result.SampleSize)
	}
	if result.Interpretation == "" {
		t.Error("neutral result must carry an interpretation")
	}
}

func TestDetectSeasonality_TooFewDistinctMonths(t *testing.T) {
	s := series.TimeSeries{ID: "winter", Name: "winter"}
	for year := 2000; year < 2012; year++ {
		s.DataPoints = append(s.DataPoints,
			series.DataPoint{Date: fmt.Sprintf("%04d-01-15", year), Value: 5},
			series.DataPoint{Date: fmt.Sprintf("%04d-02-15", year), Value: 6},
		)
	}

	result := newTestEngine().DetectSeasonality(s)
	if result.HasSeasonality {
		t.Error("two distinct months must not qualify for seasonality")
	}
}
