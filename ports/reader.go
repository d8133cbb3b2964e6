package ports

import (
	"ecocausal/domain/series"
)

// SeriesReader loads time series from an external file. Implementations
// handle their own format detection; callers get back validated series
// ready for analysis.
type SeriesReader interface {
	// ReadSeries extracts every series found in the file
	ReadSeries(path string) ([]series.TimeSeries, error)
}
