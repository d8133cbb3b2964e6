// Package app orchestrates the statistical engines, persistence, and
// concurrency. Engines stay synchronous and pure; everything that talks
// to a clock, a store, or a goroutine lives here.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"ecocausal/adapters/stats/correlate"
	"ecocausal/adapters/stats/granger"
	"ecocausal/adapters/stats/lag"
	"ecocausal/adapters/stats/regress"
	"ecocausal/domain/causal"
	"ecocausal/domain/core"
	"ecocausal/domain/series"
	"ecocausal/internal"
	"ecocausal/internal/analysis"
	"ecocausal/internal/errors"
	"ecocausal/models"
	"ecocausal/ports"
)

// defaultGrangerLag bounds the regression window when a request does not
// pick its own. Four lags covers one seasonal quarter at monthly cadence.
const defaultGrangerLag = 4

// AnalysisService exposes every analysis operation behind one facade.
// Each call validates its series inputs, runs the engines, and records
// the result in the analysis history. Persistence is best effort: a
// failing store logs a warning but never fails the computation.
type AnalysisService struct {
	corr          *correlate.Engine
	lags          *lag.Engine
	grangerTester *granger.Tester
	regression    *regress.Engine
	aggregator    *analysis.Aggregator
	store         ports.AnalysisStore
	logger        *internal.Logger
	defaultMaxLag int
	workers       int64
}

// NewAnalysisService creates the application facade over the engines
func NewAnalysisService(
	corr *correlate.Engine,
	lags *lag.Engine,
	grangerTester *granger.Tester,
	regression *regress.Engine,
	aggregator *analysis.Aggregator,
	store ports.AnalysisStore,
	logger *internal.Logger,
	defaultMaxLag int,
	workers int64,
) *AnalysisService {
	if defaultMaxLag < 1 {
		defaultMaxLag = 12
	}
	if workers < 1 {
		workers = 1
	}
	return &AnalysisService{
		corr:          corr,
		lags:          lags,
		grangerTester: grangerTester,
		regression:    regression,
		aggregator:    aggregator,
		store:         store,
		logger:        logger.Component("AnalysisService"),
		defaultMaxLag: defaultMaxLag,
		workers:       workers,
	}
}

// Correlate computes the pairwise correlation between two series
func (s *AnalysisService) Correlate(ctx context.Context, s1, s2 series.TimeSeries) (*causal.CorrelationResult, error) {
	if err := validateSeries(s1, s2); err != nil {
		return nil, err
	}
	result := s.corr.CorrelateSeries(s1, s2)
	s.persist(ctx, models.KindCorrelation, result.Series1Name+" vs "+result.Series2Name,
		core.Fingerprint(models.KindCorrelation, seriesDigest(s1), seriesDigest(s2)), result)
	return result, nil
}

// Matrix computes the full pairwise correlation matrix
func (s *AnalysisService) Matrix(ctx context.Context, list []series.TimeSeries) (*causal.CorrelationMatrix, error) {
	if len(list) < 2 {
		return nil, errors.InvalidInput("correlation matrix needs at least 2 series")
	}
	if err := validateSeries(list...); err != nil {
		return nil, err
	}
	result := s.corr.BuildMatrix(list)

	parts := []string{models.KindMatrix}
	for _, ts := range list {
		parts = append(parts, seriesDigest(ts))
	}
	s.persist(ctx, models.KindMatrix, strings.Join(result.SeriesNames, ", "),
		core.Fingerprint(parts...), result)
	return result, nil
}

// LagSweep runs the cross-correlation sweep of driver against response.
// maxLag <= 0 falls back to the configured default.
func (s *AnalysisService) LagSweep(ctx context.Context, driver, response series.TimeSeries, maxLag int, unit string) (*causal.LagAnalysisResult, error) {
	if err := validateSeries(driver, response); err != nil {
		return nil, err
	}
	maxLag = s.lagOrDefault(maxLag)
	result := s.lags.CrossCorrelate(driver, response, maxLag, unit)
	s.persist(ctx, models.KindLag, result.ResponseName,
		core.Fingerprint(models.KindLag, seriesDigest(driver), seriesDigest(response), fmt.Sprintf("maxLag=%d", maxLag)), result)
	return result, nil
}

// MultiDriverLags sweeps several candidate drivers against one response
func (s *AnalysisService) MultiDriverLags(ctx context.Context, drivers []series.TimeSeries, response series.TimeSeries, maxLag int, unit string) (*causal.MultiDriverLagResult, error) {
	if len(drivers) == 0 {
		return nil, errors.InvalidInput("at least one driver series is required")
	}
	if err := validateSeries(drivers...); err != nil {
		return nil, err
	}
	if err := validateSeries(response); err != nil {
		return nil, err
	}
	maxLag = s.lagOrDefault(maxLag)
	result := s.lags.MultiDriver(drivers, response, maxLag, unit)

	parts := []string{models.KindMultiLag, seriesDigest(response), fmt.Sprintf("maxLag=%d", maxLag)}
	for _, ts := range drivers {
		parts = append(parts, seriesDigest(ts))
	}
	s.persist(ctx, models.KindMultiLag, result.ResponseName, core.Fingerprint(parts...), result)
	return result, nil
}

// Seasonality detects monthly cycling in a single series
func (s *AnalysisService) Seasonality(ctx context.Context, ts series.TimeSeries) (*causal.SeasonalityResult, error) {
	if err := validateSeries(ts); err != nil {
		return nil, err
	}
	result := s.lags.DetectSeasonality(ts)
	s.persist(ctx, models.KindSeasonality, result.SeriesName,
		core.Fingerprint(models.KindSeasonality, seriesDigest(ts)), result)
	return result, nil
}

// Regression fits target on the predictor set
func (s *AnalysisService) Regression(ctx context.Context, target series.TimeSeries, predictors []series.TimeSeries) (*causal.MultivariateResult, error) {
	if len(predictors) == 0 {
		return nil, errors.InvalidInput("at least one predictor series is required")
	}
	if err := validateSeries(predictors...); err != nil {
		return nil, err
	}
	if err := validateSeries(target); err != nil {
		return nil, err
	}
	result := s.regression.MultipleRegression(target, predictors)

	parts := []string{models.KindRegression, seriesDigest(target)}
	for _, ts := range predictors {
		parts = append(parts, seriesDigest(ts))
	}
	s.persist(ctx, models.KindRegression, result.TargetName, core.Fingerprint(parts...), result)
	return result, nil
}

// Granger tests whether cause Granger-causes effect
func (s *AnalysisService) Granger(ctx context.Context, cause, effect series.TimeSeries, maxLag int) (*causal.GrangerCausalityResult, error) {
	if err := validateSeries(cause, effect); err != nil {
		return nil, err
	}
	if maxLag <= 0 {
		maxLag = defaultGrangerLag
	}
	result := s.grangerTester.TestCausality(cause, effect, maxLag)
	s.persist(ctx, models.KindGranger, result.EffectName,
		core.Fingerprint(models.KindGranger, seriesDigest(cause), seriesDigest(effect), fmt.Sprintf("maxLag=%d", maxLag)), result)
	return result, nil
}

// TestHypothesis scores a causal claim against correlation, lag, and
// Granger evidence. A missing hypothesis ID is filled in.
func (s *AnalysisService) TestHypothesis(ctx context.Context, h causal.Hypothesis, cause, effect series.TimeSeries) (*causal.HypothesisTestResult, error) {
	if err := validateSeries(cause, effect); err != nil {
		return nil, err
	}
	if h.ID == "" {
		h.ID = core.NewHypothesisID()
	}
	result := s.aggregator.TestHypothesis(h, cause, effect)

	parts := []string{models.KindHypothesis, h.Name, h.ExpectedDirection, seriesDigest(cause), seriesDigest(effect)}
	if h.ExpectedLag != nil {
		parts = append(parts, fmt.Sprintf("expectedLag=%d", *h.ExpectedLag))
	}
	s.persist(ctx, models.KindHypothesis, h.Name, core.Fingerprint(parts...), result)
	return result, nil
}

// AnalyzeDrivers ranks candidate drivers of one target series
func (s *AnalysisService) AnalyzeDrivers(ctx context.Context, target series.TimeSeries, drivers []series.TimeSeries) (*causal.AnalysisResult, error) {
	if len(drivers) == 0 {
		return nil, errors.InvalidInput("at least one driver series is required")
	}
	if err := validateSeries(drivers...); err != nil {
		return nil, err
	}
	if err := validateSeries(target); err != nil {
		return nil, err
	}
	result := s.aggregator.AnalyzeCausalDrivers(target, drivers)

	parts := []string{models.KindDrivers, seriesDigest(target)}
	for _, ts := range drivers {
		parts = append(parts, seriesDigest(ts))
	}
	s.persist(ctx, models.KindDrivers, result.TargetName, core.Fingerprint(parts...), result)
	return result, nil
}

// ScreenDrivers runs a driver analysis for every target concurrently,
// bounded by the configured worker count. Results come back in target
// order.
func (s *AnalysisService) ScreenDrivers(ctx context.Context, targets []series.TimeSeries, drivers []series.TimeSeries) ([]*causal.AnalysisResult, error) {
	if len(targets) == 0 {
		return nil, errors.InvalidInput("at least one target series is required")
	}
	if len(drivers) == 0 {
		return nil, errors.InvalidInput("at least one driver series is required")
	}
	if err := validateSeries(targets...); err != nil {
		return nil, err
	}
	if err := validateSeries(drivers...); err != nil {
		return nil, err
	}

	s.logger.Info("Screening %d targets against %d drivers (%d workers)", len(targets), len(drivers), s.workers)

	sem := semaphore.NewWeighted(s.workers)
	results := make([]*causal.AnalysisResult, len(targets))
	errs := make([]error, len(targets))
	var wg sync.WaitGroup

	for i := range targets {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, errors.Wrap(err, "driver screening cancelled")
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer sem.Release(1)
			results[idx], errs[idx] = s.AnalyzeDrivers(ctx, targets[idx], drivers)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// History lists stored analyses newest-first, optionally filtered by kind
func (s *AnalysisService) History(ctx context.Context, kind string, limit int) ([]*models.AnalysisRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListAnalyses(ctx, kind, limit)
}

// GetAnalysis loads one stored analysis by ID
func (s *AnalysisService) GetAnalysis(ctx context.Context, id core.AnalysisID) (*models.AnalysisRecord, error) {
	if s.store == nil {
		return nil, errors.NotFound("analysis " + id.String())
	}
	return s.store.GetAnalysis(ctx, id)
}

// DefaultMaxLag reports the configured lag window fallback
func (s *AnalysisService) DefaultMaxLag() int {
	return s.defaultMaxLag
}

func (s *AnalysisService) lagOrDefault(maxLag int) int {
	if maxLag <= 0 {
		return s.defaultMaxLag
	}
	return maxLag
}

func (s *AnalysisService) persist(ctx context.Context, kind, targetName string, fingerprint core.Hash, payload any) {
	if s.store == nil {
		return
	}
	record, err := models.NewAnalysisRecord(kind, targetName, fingerprint, payload)
	if err != nil {
		s.logger.Warn("Failed to encode %s record: %v", kind, err)
		return
	}
	if err := s.store.SaveAnalysis(ctx, record); err != nil {
		s.logger.Warn("Failed to persist %s analysis: %v", kind, err)
		return
	}
	s.logger.Debug("Stored %s analysis %s", kind, record.ID.String())
}

func validateSeries(list ...series.TimeSeries) error {
	for _, ts := range list {
		if err := ts.Validate(); err != nil {
			return errors.WithCode(errors.CodeValidationError, err)
		}
	}
	return nil
}

// seriesDigest folds a series' identity and data into one fingerprint
// part, so history dedupe reacts to data changes, not just names.
func seriesDigest(ts series.TimeSeries) string {
	raw, _ := json.Marshal(ts.DataPoints)
	return ts.ID + ":" + core.NewHash(raw).String()
}
