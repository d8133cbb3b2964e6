package causal

import (
	"ecocausal/domain/core"
)

// Direction labels used for expected and observed relationships
const (
	DirectionPositive = "positive"
	DirectionNegative = "negative"
)

// Relationship classification labels produced by correlation analysis
const (
	RelationshipNone = "none"
)

// CorrelationResult is the pairwise statistic bundle for two series.
// Recomputed per request, never stored by the engines themselves.
type CorrelationResult struct {
	Series1Name    string  `json:"series1Name"`
	Series2Name    string  `json:"series2Name"`
	PearsonR       float64 `json:"pearsonR"`
	SpearmanRho    float64 `json:"spearmanRho"`
	PValue         float64 `json:"pValue"`
	SampleSize     int     `json:"sampleSize"`
	Relationship   string  `json:"relationship"`
	Significant    bool    `json:"significant"`
	Interpretation string  `json:"interpretation"`
}

// CorrelationMatrix is a symmetric pairwise correlation table over an
// ordered list of series names. Diagonal is fixed at r=1/significant.
type CorrelationMatrix struct {
	SeriesNames  []string    `json:"seriesNames"`
	Values       [][]float64 `json:"values"`
	Significance [][]bool    `json:"significance"`
}

// LagCorrelation is a single row of the lagged correlation table
type LagCorrelation struct {
	Lag         int     `json:"lag"`
	Correlation float64 `json:"correlation"`
	PValue      float64 `json:"pValue"`
	Significant bool    `json:"significant"`
}

// LagAnalysisResult captures a cross-correlation sweep of driver against
// response. OptimalLag is the lag with the largest absolute correlation
// among lags that had enough paired observations.
type LagAnalysisResult struct {
	DriverName     string           `json:"driverName"`
	ResponseName   string           `json:"responseName"`
	LagUnit        string           `json:"lagUnit"`
	Correlations   []LagCorrelation `json:"correlations"`
	OptimalLag     int              `json:"optimalLag"`
	MaxCorrelation float64          `json:"maxCorrelation"`
	Mechanism      string           `json:"mechanism,omitempty"`
}

// MultiDriverLagResult compares several candidate drivers against one
// response. MostInfluential is the driver whose sweep produced the
// largest absolute peak correlation.
type MultiDriverLagResult struct {
	ResponseName    string              `json:"responseName"`
	Drivers         []LagAnalysisResult `json:"drivers"`
	MostInfluential string              `json:"mostInfluential"`
}

// SeasonalityResult reports monthly cycling detected in a single series
type SeasonalityResult struct {
	SeriesName      string          `json:"seriesName"`
	HasSeasonality  bool            `json:"hasSeasonality"`
	PeakMonth       int             `json:"peakMonth"`
	TroughMonth     int             `json:"troughMonth"`
	Amplitude       float64         `json:"amplitude"`
	MonthlyAverages map[int]float64 `json:"monthlyAverages,omitempty"`
	SampleSize      int             `json:"sampleSize"`
	Interpretation  string          `json:"interpretation"`
}

// GrangerCausalityResult is the nested-model F-test outcome.
//
// OptimalLag is a separate correlation-scan diagnostic and is NOT the
// lag structure the F-test itself used; the regression always includes
// lags 1..MaxLag of both series. The two numbers answer different
// questions and must not be conflated.
type GrangerCausalityResult struct {
	CauseName      string  `json:"causeName"`
	EffectName     string  `json:"effectName"`
	MaxLag         int     `json:"maxLag"`
	FStatistic     float64 `json:"fStatistic"`
	PValue         float64 `json:"pValue"`
	Significant    bool    `json:"significant"`
	OptimalLag     int     `json:"optimalLag"`
	Interpretation string  `json:"interpretation"`
}

// PredictorStats carries per-predictor regression estimates
type PredictorStats struct {
	Name        string  `json:"name"`
	Coefficient float64 `json:"coefficient"`
	StdError    float64 `json:"stdError"`
	TStat       float64 `json:"tStat"`
	PValue      float64 `json:"pValue"`
	Significant bool    `json:"significant"`
}

// MultivariateResult is the outcome of regressing a target on several
// predictors. FStatistic is carried for wire compatibility but is not
// computed; it is always zero.
type MultivariateResult struct {
	TargetName       string           `json:"targetName"`
	RSquared         float64          `json:"rSquared"`
	AdjRSquared      float64          `json:"adjRSquared"`
	Coefficients     []PredictorStats `json:"coefficients"`
	FStatistic       float64          `json:"fStatistic"`
	ResidualStdError float64          `json:"residualStdError"`
	SampleSize       int              `json:"sampleSize"`
	Interpretation   string           `json:"interpretation"`
}

// FeatureImportance is a predictor's normalized share of the model's
// absolute coefficient mass. Importances across a model sum to 1 and
// ranks form a permutation of 1..N (stable descending order).
type FeatureImportance struct {
	Feature      string  `json:"feature"`
	Importance   float64 `json:"importance"`
	Direction    string  `json:"direction"`
	Rank         int     `json:"rank"`
	Contribution int     `json:"contribution"`
}

// Hypothesis is a named cause-effect claim to evaluate against evidence.
// ExpectedLag is optional: nil means the claim does not commit to a lag.
type Hypothesis struct {
	ID                core.HypothesisID `json:"id"`
	Name              string            `json:"name"`
	CauseID           string            `json:"causeId"`
	EffectID          string            `json:"effectId"`
	ExpectedDirection string            `json:"expectedDirection"`
	ExpectedLag       *int              `json:"expectedLag,omitempty"`
	Description       string            `json:"description,omitempty"`
}

// HypothesisTestResult scores a hypothesis 0-100 against correlation,
// lag, and Granger evidence. Supported means confidence reached 50.
type HypothesisTestResult struct {
	Hypothesis  Hypothesis              `json:"hypothesis"`
	Confidence  int                     `json:"confidence"`
	Supported   bool                    `json:"supported"`
	Correlation *CorrelationResult      `json:"correlation,omitempty"`
	LagAnalysis *LagAnalysisResult      `json:"lagAnalysis,omitempty"`
	Granger     *GrangerCausalityResult `json:"granger,omitempty"`
	Caveats     []string                `json:"caveats"`
	TestedAt    core.Timestamp          `json:"testedAt"`
}

// DriverResult ranks one candidate driver against the target series
type DriverResult struct {
	Name           string                  `json:"name"`
	CausalStrength float64                 `json:"causalStrength"`
	OptimalLag     int                     `json:"optimalLag"`
	Direction      string                  `json:"direction"`
	Mechanism      string                  `json:"mechanism,omitempty"`
	Confidence     int                     `json:"confidence"`
	Correlation    *CorrelationResult      `json:"correlation,omitempty"`
	Granger        *GrangerCausalityResult `json:"granger,omitempty"`
}

// Pathway is a single-step causal chain from driver to target
type Pathway struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Mechanism string  `json:"mechanism,omitempty"`
	Lag       int     `json:"lag"`
	Strength  float64 `json:"strength"`
}

// ModelFit summarizes the multivariate model behind a driver analysis
type ModelFit struct {
	RSquared    float64 `json:"rSquared"`
	AdjRSquared float64 `json:"adjRSquared"`
	SampleSize  int     `json:"sampleSize"`
}

// AnalysisResult is the full causal picture for one target series
type AnalysisResult struct {
	TargetName         string              `json:"targetName"`
	RankedDrivers      []DriverResult      `json:"rankedDrivers"`
	ModelFit           ModelFit            `json:"modelFit"`
	FeatureImportances []FeatureImportance `json:"featureImportances"`
	Pathways           []Pathway           `json:"causalPathways"`
	Summary            string              `json:"summary"`
	Recommendations    []string            `json:"recommendations"`
	AnalyzedAt         core.Timestamp      `json:"analyzedAt"`
}
