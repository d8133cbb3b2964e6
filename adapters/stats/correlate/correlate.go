// Package correlate computes pairwise association statistics between
// aligned environmental and biological series.
package correlate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"ecocausal/adapters/stats/align"
	"ecocausal/domain/causal"
	"ecocausal/domain/series"
)

// PValueMode selects how p-values are derived from correlation
// coefficients.
type PValueMode string

const (
	// PValueApproximate maps |r| bands to fixed p-values. This is the
	// default and is what downstream significance thresholds are tuned
	// against.
	PValueApproximate PValueMode = "approximate"
	// PValueExact runs a two-sided t-test on r with n-2 degrees of
	// freedom. Opt-in via configuration only.
	PValueExact PValueMode = "exact"
)

// Engine computes Pearson and Spearman correlations over value pairs
// and over date-aligned series.
type Engine struct {
	mode PValueMode
}

// NewEngine creates a correlation engine with banded p-values
func NewEngine() *Engine {
	return &Engine{mode: PValueApproximate}
}

// NewEngineWithMode creates a correlation engine with the given p-value
// derivation. Unknown modes fall back to the banded approximation.
func NewEngineWithMode(mode PValueMode) *Engine {
	if mode != PValueExact {
		mode = PValueApproximate
	}
	return &Engine{mode: mode}
}

// ============================================================================
// COEFFICIENTS
// ============================================================================

// Pearson computes the product-moment correlation between two value
// slices paired by position. Unequal lengths are truncated to the
// shorter slice. Fewer than 3 pairs, or a zero-variance input, yields
// r=0 with p=1. The returned r is rounded to 3 decimals and the p-value
// is derived from the rounded coefficient.
func (e *Engine) Pearson(x, y []float64) (float64, float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 3 {
		return 0, 1
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return 0, 1
	}

	r := math.Round(cov/denom*1000) / 1000
	return r, e.pValue(r, n)
}

// Spearman computes the rank correlation between two value slices. Ranks
// are assigned 1..n by a stable sort on value, so tied values receive
// consecutive ranks in original input order rather than averaged ranks.
func (e *Engine) Spearman(x, y []float64) (float64, float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 3 {
		return 0, 1
	}
	return e.Pearson(rankValues(x[:n]), rankValues(y[:n]))
}

// rankValues maps each value to its 1-based position in the stable
// ascending sort of the input
func rankValues(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	ranks := make([]float64, len(values))
	for position, original := range order {
		ranks[original] = float64(position + 1)
	}
	return ranks
}

func (e *Engine) pValue(r float64, n int) float64 {
	if e.mode == PValueExact {
		return exactPValue(r, n)
	}
	return approximatePValue(r)
}

// approximatePValue bands |r| into fixed p-values. The bands are
// intentionally coarse; significance downstream means p < 0.05, so only
// the two tightest bands count as significant.
func approximatePValue(r float64) float64 {
	abs := math.Abs(r)
	switch {
	case abs > 0.5:
		return 0.001
	case abs > 0.3:
		return 0.01
	case abs > 0.2:
		return 0.05
	default:
		return 0.1
	}
}

// exactPValue runs a two-sided t-test on r with n-2 degrees of freedom
func exactPValue(r float64, n int) float64 {
	if n < 3 {
		return 1
	}
	rr := r * r
	if 1-rr < 1e-12 {
		return 0
	}
	t := math.Abs(r) * math.Sqrt(float64(n-2)/(1-rr))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	p := 2 * (1 - dist.CDF(t))
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// ============================================================================
// SERIES-LEVEL ANALYSIS
// ============================================================================

// CorrelateSeries aligns two series on shared dates and reports both
// correlation coefficients plus a strength classification. Fewer than 5
// overlapping dates yields a neutral result, not an error.
func (e *Engine) CorrelateSeries(a, b series.TimeSeries) *causal.CorrelationResult {
	pair := align.Pair(a, b)
	if pair.Len() < 5 {
		return &causal.CorrelationResult{
			Series1Name:  a.Name,
			Series2Name:  b.Name,
			PValue:       1,
			SampleSize:   pair.Len(),
			Relationship: causal.RelationshipNone,
			Interpretation: fmt.Sprintf(
				"Insufficient overlapping data between %s and %s (%d shared dates, need at least 5)",
				a.Name, b.Name, pair.Len()),
		}
	}

	r, p := e.Pearson(pair.Values1, pair.Values2)
	rho, _ := e.Spearman(pair.Values1, pair.Values2)
	relationship := classifyRelationship(r)
	significant := p < 0.05

	return &causal.CorrelationResult{
		Series1Name:    a.Name,
		Series2Name:    b.Name,
		PearsonR:       r,
		SpearmanRho:    rho,
		PValue:         p,
		SampleSize:     pair.Len(),
		Relationship:   relationship,
		Significant:    significant,
		Interpretation: interpret(a.Name, b.Name, r, p, relationship, significant),
	}
}

// BuildMatrix computes the full pairwise correlation table for a list of
// series. The matrix is symmetric with a unit diagonal; each off-diagonal
// cell holds the Pearson r over that pair's shared dates.
func (e *Engine) BuildMatrix(list []series.TimeSeries) *causal.CorrelationMatrix {
	n := len(list)
	matrix := &causal.CorrelationMatrix{
		SeriesNames:  make([]string, n),
		Values:       make([][]float64, n),
		Significance: make([][]bool, n),
	}
	for i := range list {
		matrix.SeriesNames[i] = list[i].Name
		matrix.Values[i] = make([]float64, n)
		matrix.Significance[i] = make([]bool, n)
	}
	for i := 0; i < n; i++ {
		matrix.Values[i][i] = 1
		matrix.Significance[i][i] = true
		for j := i + 1; j < n; j++ {
			result := e.CorrelateSeries(list[i], list[j])
			matrix.Values[i][j] = result.PearsonR
			matrix.Values[j][i] = result.PearsonR
			matrix.Significance[i][j] = result.Significant
			matrix.Significance[j][i] = result.Significant
		}
	}
	return matrix
}

// ============================================================================
// CLASSIFICATION
// ============================================================================

// classifyRelationship buckets |r| into strong/moderate/weak with a sign
// suffix. Classification is independent of statistical significance.
func classifyRelationship(r float64) string {
	abs := math.Abs(r)
	var strength string
	switch {
	case abs >= 0.7:
		strength = "strong"
	case abs >= 0.4:
		strength = "moderate"
	case abs >= 0.2:
		strength = "weak"
	default:
		return causal.RelationshipNone
	}
	if r < 0 {
		return strength + "_negative"
	}
	return strength + "_positive"
}

func interpret(name1, name2 string, r, p float64, relationship string, significant bool) string {
	if relationship == causal.RelationshipNone {
		return fmt.Sprintf("No meaningful correlation between %s and %s (r=%.3f, p=%.3f)", name1, name2, r, p)
	}
	words := strings.SplitN(relationship, "_", 2)
	qualifier := "statistically significant"
	if !significant {
		qualifier = "not statistically significant"
	}
	return fmt.Sprintf("%s %s correlation between %s and %s (r=%.3f, p=%.3f, %s)",
		capitalize(words[0]), words[1], name1, name2, r, p, qualifier)
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
