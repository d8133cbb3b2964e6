package analysis

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"ecocausal/adapters/stats/correlate"
	"ecocausal/adapters/stats/granger"
	"ecocausal/adapters/stats/lag"
	"ecocausal/adapters/stats/regress"
	"ecocausal/domain/causal"
	"ecocausal/domain/series"
)

func newTestAggregator() *Aggregator {
	corr := correlate.NewEngine()
	return NewAggregator(
		corr,
		lag.NewEngine(corr),
		granger.NewTester(regress.NewResidualSolver(), corr),
		regress.NewEngine(regress.NewMultivariateSolver()),
		causal.MustLoadMechanisms(),
	)
}

func monthlyDates(n int) []string {
	dates := make([]string, n)
	year, month := 2015, 1
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
var randState = 13579.0

func randNorm() float64 {
	randState = math.Mod(randState*1103515245+12345, 2147483648)
	u1 := randState / 2147483648.0

	randState = math.Mod(randState*1103515245+12345, 2147483648)
	u2 := randState / 2147483648.0

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// arDrivenPair builds a slowly varying cause (AR coefficient 0.8) and an
// effect that copies the cause one step later. The autocorrelation makes
// same-date correlation strong while the true structure is lagged.
func arDrivenPair(n int) ([]float64, []float64) {
	cause := make([]float64, n)
	cause[0] = randNorm() * 3
	for i := 1; i < n; i++ {
		cause[i] = 0.8*cause[i-1] + randNorm()*3
	}
	effect := make([]float64, n)
	for i := 1; i < n; i++ {
		effect[i] = 2 * cause[i-1]
	}
	return cause, effect
}

func intPtr(v int) *int { return &v }

func TestTestHypothesis_SupportedClaim(t *testing.T) {
	n := 30
	dates := monthlyDates(n)
	causeValues, effectValues := arDrivenPair(n)
	cause := makeSeries("Sea Surface Temperature", dates, causeValues)
	effect := makeSeries("Fish Abundance", dates, effectValues)

	h := causal.Hypothesis{
		Name:              "warming drives abundance",
		CauseID:           cause.ID,
		EffectID:          effect.ID,
		ExpectedDirection: causal.DirectionPositive,
		ExpectedLag:       intPtr(1),
	}

	result := newTestAggregator().TestHypothesis(h, cause, effect)
	if !result.Supported {
		t.Fatalf("expected supported claim, confidence=%d caveats=%v", result.Confidence, result.Caveats)
	}
	if result.Confidence < 70 {
		t.Errorf("expected strong combined evidence, got confidence %d", result.Confidence)
	}
	if result.LagAnalysis == nil || result.LagAnalysis.OptimalLag != 1 {
		t.Errorf("expected optimal lag 1 in the evidence bundle, got %+v", result.LagAnalysis)
	}
	if result.Granger == nil || !result.Granger.Significant {
		t.Error("expected Granger evidence for a truly lagged driver")
	}
	if result.TestedAt.IsZero() {
		t.Error("TestedAt must be stamped")
	}
}

func TestTestHypothesis_DirectionMismatch(t *testing.T) {
	n := 30
	dates := monthlyDates(n)
	causeValues, effectValues := arDrivenPair(n)
	cause := makeSeries("Sea Surface Temperature", dates, causeValues)
	effect := makeSeries("Fish Abundance", dates, effectValues)

	h := causal.Hypothesis{
		Name:              "warming suppresses abundance",
		ExpectedDirection: causal.DirectionNegative,
	}

	result := newTestAggregator().TestHypothesis(h, cause, effect)
	if len(result.Caveats) == 0 {
		t.Fatal("direction mismatch must record a caveat")
	}
	found := false
	for _, c := range result.Caveats {
		if strings.Contains(c, "does not support") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a correlation caveat, got %v", result.Caveats)
	}
	if result.Confidence >= 100 {
		t.Errorf("mismatched direction cannot reach full confidence, got %d", result.Confidence)
	}
}

func TestTestHypothesis_LagDisagreementCaveat(t *testing.T) {
	n := 30
	dates := monthlyDates(n)
	causeValues, effectValues := arDrivenPair(n)
	cause := makeSeries("Chlorophyll", dates, causeValues)
	effect := makeSeries("Zooplankton", dates, effectValues)

	h := causal.Hypothesis{
		Name:              "bloom feeds grazers half a year later",
		ExpectedDirection: causal.DirectionPositive,
		ExpectedLag:       intPtr(6),
	}

	result := newTestAggregator().TestHypothesis(h, cause, effect)
	found := false
	for _, c := range result.Caveats {
		if strings.Contains(c, "differs from expected lag") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a lag disagreement caveat, got %v", result.Caveats)
	}
}

func TestTestHypothesis_InsufficientData(t *testing.T) {
	dates := monthlyDates(3)
	cause := makeSeries("cause", dates, []float64{1, 2, 3})
	effect := makeSeries("effect", dates, []float64{4, 5, 6})

	h := causal.Hypothesis{Name: "too thin", ExpectedDirection: causal.DirectionPositive}
	result := newTestAggregator().TestHypothesis(h, cause, effect)
	if result.Confidence != 0 {
		t.Errorf("expected zero confidence, got %d", result.Confidence)
	}
	if result.Supported {
		t.Error("thin data must not support a claim")
	}
	if len(result.Caveats) < 2 {
		t.Errorf("expected correlation and Granger caveats, got %v", result.Caveats)
	}
}

func TestAnalyzeCausalDrivers_RanksTrueDriver(t *testing.T) {
	n := 30
	dates := monthlyDates(n)
	causeValues, targetValues := arDrivenPair(n)
	trueDriver := makeSeries("Sea Surface Temperature", dates, causeValues)

	noise := make([]float64, n)
	for i := range noise {
		noise[i] = randNorm() * 2
	}
	decoy := makeSeries("Wind Speed", dates, noise)
	target := makeSeries("Coastal Fish Abundance", dates, targetValues)

	result := newTestAggregator().AnalyzeCausalDrivers(target, []series.TimeSeries{decoy, trueDriver})
	if len(result.RankedDrivers) != 2 {
		t.Fatalf("expected 2 ranked drivers, got %d", len(result.RankedDrivers))
	}
	if result.RankedDrivers[0].Name != "Sea Surface Temperature" {
		t.Fatalf("expected the lagged driver ranked first, got %s", result.RankedDrivers[0].Name)
	}
	top := result.RankedDrivers[0]
	if top.CausalStrength <= result.RankedDrivers[1].CausalStrength {
		t.Error("ranking is not descending by causal strength")
	}
	if top.Confidence != 80 {
		t.Errorf("Granger-significant driver must have confidence 80, got %d", top.Confidence)
	}
	if top.Mechanism == "" {
		t.Error("known temperature/fish pairing should resolve a mechanism")
	}

	foundPathway := false
	for _, p := range result.Pathways {
		if p.From == "Sea Surface Temperature" && p.To == "Coastal Fish Abundance" {
			foundPathway = true
			if p.Strength != top.CausalStrength {
				t.Errorf("pathway strength %v != driver strength %v", p.Strength, top.CausalStrength)
			}
		}
	}
	if !foundPathway {
		t.Error("strong driver must spawn a causal pathway")
	}

	if !strings.Contains(result.Summary, "Sea Surface Temperature") {
		t.Errorf("summary should name the dominant driver: %s", result.Summary)
	}
	if len(result.Recommendations) == 0 {
		t.Error("significant driver should produce an early warning recommendation")
	}
	if result.ModelFit.SampleSize != n {
		t.Errorf("model fit sample size = %d, want %d", result.ModelFit.SampleSize, n)
	}
}

func TestAnalyzeCausalDrivers_FeatureImportanceInvariants(t *testing.T) {
	n := 30
	dates := monthlyDates(n)
	p1v := make([]float64, n)
	p2v := make([]float64, n)
	p3v := make([]float64, n)
	yv := make([]float64, n)
	for i := 0; i < n; i++ {
		p1v[i] = randNorm() * 2
		p2v[i] = randNorm() * 2
		p3v[i] = randNorm() * 2
		yv[i] = 4 + 3*p1v[i] - 2*p2v[i] + 0.5*p3v[i]
	}
	target := makeSeries("Fish Abundance", dates, yv)
	drivers := []series.TimeSeries{
		makeSeries("Sea Surface Temperature", dates, p1v),
		makeSeries("Salinity", dates, p2v),
		makeSeries("Wind Speed", dates, p3v),
	}

	result := newTestAggregator().AnalyzeCausalDrivers(target, drivers)
	if len(result.FeatureImportances) != 3 {
		t.Fatalf("expected 3 importances, got %d", len(result.FeatureImportances))
	}

	sum := 0.0
	seen := map[int]bool{}
	for _, fi := range result.FeatureImportances {
		sum += fi.Importance
		if seen[fi.Rank] {
			t.Errorf("duplicate rank %d", fi.Rank)
		}
		seen[fi.Rank] = true
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("importances must sum to 1, got %v", sum)
	}
	for r := 1; r <= 3; r++ {
		if !seen[r] {
			t.Errorf("missing rank %d", r)
		}
	}
	if result.FeatureImportances[0].Feature != "Sea Surface Temperature" {
		t.Errorf("largest coefficient should rank first, got %s", result.FeatureImportances[0].Feature)
	}
	if result.FeatureImportances[0].Importance < result.FeatureImportances[2].Importance {
		t.Error("importances not sorted descending")
	}
}

func TestAnalyzeCausalDrivers_NoDrivers(t *testing.T) {
	dates := monthlyDates(12)
	values := make([]float64, 12)
	for i := range values {
		values[i] = float64(i)
	}
	target := makeSeries("Fish Abundance", dates, values)

	result := newTestAggregator().AnalyzeCausalDrivers(target, nil)
	if len(result.RankedDrivers) != 0 {
		t.Errorf("expected no ranked drivers, got %d", len(result.RankedDrivers))
	}
	if len(result.Pathways) != 0 {
		t.Errorf("expected no pathways, got %d", len(result.Pathways))
	}
	if !strings.Contains(result.Summary, "Fish Abundance") {
		t.Errorf("summary must still name the target: %s", result.Summary)
	}
}

func TestBuildFeatureImportances(t *testing.T) {
	coefficients := []causal.PredictorStats{
		{Name: "(intercept)", Coefficient: 5},
		{Name: "a", Coefficient: 2},
		{Name: "b", Coefficient: -6},
	}

	importances := buildFeatureImportances(coefficients)
	if len(importances) != 2 {
		t.Fatalf("expected 2 importances, got %d", len(importances))
	}
	if importances[0].Feature != "b" || importances[0].Rank != 1 {
		t.Errorf("b should rank first: %+v", importances[0])
	}
	if importances[0].Direction != causal.DirectionNegative {
		t.Errorf("b direction should be negative, got %s", importances[0].Direction)
	}
	if math.Abs(importances[0].Importance-0.75) > 1e-12 {
		t.Errorf("b importance = %v, want 0.75", importances[0].Importance)
	}
	if importances[0].Contribution != 75 || importances[1].Contribution != 25 {
		t.Errorf("contributions = %d/%d, want 75/25",
			importances[0].Contribution, importances[1].Contribution)
	}
}

func TestBuildFeatureImportances_AllZeroCoefficients(t *testing.T) {
	coefficients := []causal.PredictorStats{
		{Name: "(intercept)", Coefficient: 0},
		{Name: "a", Coefficient: 0},
		{Name: "b", Coefficient: 0},
	}

	importances := buildFeatureImportances(coefficients)
	for _, fi := range importances {
		if math.IsNaN(fi.Importance) {
			t.Fatalf("zero coefficients must not produce NaN importances: %+v", fi)
		}
		if fi.Importance != 0 {
			t.Errorf("expected zero importance, got %v", fi.Importance)
		}
	}
}
