package series

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"ecocausal/domain/core"
)

// DataPoint is a single dated observation. Dates are calendar-date strings
// at daily or monthly granularity ("2023-01-15" or "2023-01").
type DataPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// TimeSeries is the wire-format input for every analysis operation.
// Engines treat it as immutable: they read values out but never modify
// the point slice they were handed.
type TimeSeries struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Unit       string      `json:"unit,omitempty"`
	DataPoints []DataPoint `json:"dataPoints"`
}

// Len returns the number of data points
func (s TimeSeries) Len() int {
	return len(s.DataPoints)
}

// Validate checks structural requirements at the ingest boundary.
// Statistical sufficiency is not checked here: short or empty series are
// legal inputs that downstream engines answer with neutral results.
func (s TimeSeries) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return core.NewValidationError("id", "series ID is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return core.NewValidationError("name", "series name is required")
	}
	for i, p := range s.DataPoints {
		if strings.TrimSpace(p.Date) == "" {
			return core.NewValidationError("dataPoints", "data point "+strconv.Itoa(i)+" has an empty date")
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return core.NewValidationError("dataPoints", "data point "+strconv.Itoa(i)+" has a non-finite value")
		}
	}
	return nil
}

// ValueMap builds a date-keyed lookup. Duplicate dates keep the last
// occurrence, matching the documented last-write-wins contract.
func (s TimeSeries) ValueMap() map[string]float64 {
	lookup := make(map[string]float64, len(s.DataPoints))
	for _, p := range s.DataPoints {
		lookup[p.Date] = p.Value
	}
	return lookup
}

// SortedDates returns the distinct dates of this series in ascending order.
// ISO date strings sort chronologically as plain strings.
func (s TimeSeries) SortedDates() []string {
	lookup := s.ValueMap()
	dates := make([]string, 0, len(lookup))
	for d := range lookup {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// SortedValues returns values ordered by this series' own sorted dates.
// Lag analysis pairs these positionally, so cadence must match between
// the two series being compared.
func (s TimeSeries) SortedValues() []float64 {
	lookup := s.ValueMap()
	dates := s.SortedDates()
	values := make([]float64, len(dates))
	for i, d := range dates {
		values[i] = lookup[d]
	}
	return values
}

// MonthOf extracts the calendar month (1-12) from a date string's month
// field. Returns false for dates that do not carry a parseable month.
func MonthOf(date string) (int, bool) {
	parts := strings.Split(date, "-")
	if len(parts) < 2 {
		return 0, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, false
	}
	return month, true
}

// AlignedPair holds two series restricted to their shared dates.
// Invariant: len(Values1) == len(Values2) == len(Dates).
type AlignedPair struct {
	Dates   []string  `json:"dates"`
	Values1 []float64 `json:"values1"`
	Values2 []float64 `json:"values2"`
}

// Len returns the number of shared observations
func (p AlignedPair) Len() int {
	return len(p.Dates)
}

// AlignedFrame holds a target series aligned with several predictor
// series on dates every participant shares. Predictors is column-major:
// Predictors[j][i] is predictor j at date i.
type AlignedFrame struct {
	Dates      []string    `json:"dates"`
	Target     []float64   `json:"target"`
	Predictors [][]float64 `json:"predictors"`
}

// Len returns the number of shared observations
func (f AlignedFrame) Len() int {
	return len(f.Dates)
}
