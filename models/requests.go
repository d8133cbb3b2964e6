package models

import (
	"ecocausal/domain/series"
)

// CorrelateRequest asks for pairwise correlation between two series
type CorrelateRequest struct {
	Series1 series.TimeSeries `json:"series1" validate:"required"`
	Series2 series.TimeSeries `json:"series2" validate:"required"`
}

// MatrixRequest asks for the full pairwise correlation matrix
type MatrixRequest struct {
	Series []series.TimeSeries `json:"series" validate:"required,min=2"`
}

// LagRequest asks for a lagged cross-correlation sweep
type LagRequest struct {
	Driver   series.TimeSeries `json:"driver" validate:"required"`
	Response series.TimeSeries `json:"response" validate:"required"`
	MaxLag   int               `json:"maxLag" validate:"omitempty,min=1,max=60"`
	LagUnit  string            `json:"lagUnit"`
}

// MultiLagRequest compares several drivers against one response
type MultiLagRequest struct {
	Response series.TimeSeries   `json:"response" validate:"required"`
	Drivers  []series.TimeSeries `json:"drivers" validate:"required,min=1"`
	MaxLag   int                 `json:"maxLag" validate:"omitempty,min=1,max=60"`
	LagUnit  string              `json:"lagUnit"`
}

// SeasonalityRequest asks for monthly cycle detection on one series
type SeasonalityRequest struct {
	Series series.TimeSeries `json:"series" validate:"required"`
}

// RegressionRequest asks for a multivariate fit of target on predictors
type RegressionRequest struct {
	Target     series.TimeSeries   `json:"target" validate:"required"`
	Predictors []series.TimeSeries `json:"predictors" validate:"required,min=1"`
}

// GrangerRequest asks whether cause Granger-causes effect
type GrangerRequest struct {
	Cause  series.TimeSeries `json:"cause" validate:"required"`
	Effect series.TimeSeries `json:"effect" validate:"required"`
	MaxLag int               `json:"maxLag" validate:"omitempty,min=1,max=24"`
}

// HypothesisRequest scores a named causal claim against the evidence
type HypothesisRequest struct {
	Name              string            `json:"name" validate:"required"`
	ExpectedDirection string            `json:"expectedDirection" validate:"required,oneof=positive negative"`
	ExpectedLag       *int              `json:"expectedLag" validate:"omitempty,min=0,max=60"`
	Description       string            `json:"description"`
	Cause             series.TimeSeries `json:"cause" validate:"required"`
	Effect            series.TimeSeries `json:"effect" validate:"required"`
}

// DriversRequest ranks candidate drivers of a target series
type DriversRequest struct {
	Target  series.TimeSeries   `json:"target" validate:"required"`
	Drivers []series.TimeSeries `json:"drivers" validate:"required,min=1"`
}

// ScreenRequest runs driver analyses for several targets concurrently
type ScreenRequest struct {
	Targets []series.TimeSeries `json:"targets" validate:"required,min=1"`
	Drivers []series.TimeSeries `json:"drivers" validate:"required,min=1"`
}

// ReportRequest renders a driver analysis as a document
type ReportRequest struct {
	Target  series.TimeSeries   `json:"target" validate:"required"`
	Drivers []series.TimeSeries `json:"drivers" validate:"required,min=1"`
	Format  string              `json:"format" validate:"omitempty,oneof=markdown html"`
}
