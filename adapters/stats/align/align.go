// Package align intersects time series on shared observation dates so
// the statistical engines always see positionally matched samples.
package align

import (
	"sort"

	"ecocausal/domain/series"
)

// Pair aligns two series on the dates present in both, sorted
// chronologically. Duplicate dates within a series resolve to the last
// value recorded for that date. No overlap yields an empty pair, not an
// error.
func Pair(a, b series.TimeSeries) series.AlignedPair {
	valuesA := a.ValueMap()
	valuesB := b.ValueMap()

	shared := make([]string, 0, len(valuesA))
	for date := range valuesA {
		if _, ok := valuesB[date]; ok {
			shared = append(shared, date)
		}
	}
	sort.Strings(shared)

	pair := series.AlignedPair{
		Dates:   shared,
		Values1: make([]float64, len(shared)),
		Values2: make([]float64, len(shared)),
	}
	for i, date := range shared {
		pair.Values1[i] = valuesA[date]
		pair.Values2[i] = valuesB[date]
	}
	return pair
}

// Frame aligns a target series with several predictor series on the
// dates present in every one of them. Predictor values are returned
// column-major: Predictors[j][i] is predictor j at date i.
func Frame(target series.TimeSeries, predictors []series.TimeSeries) series.AlignedFrame {
	targetValues := target.ValueMap()
	predictorValues := make([]map[string]float64, len(predictors))
	for j, p := range predictors {
		predictorValues[j] = p.ValueMap()
	}

	shared := make([]string, 0, len(targetValues))
	for date := range targetValues {
		inAll := true
		for _, pv := range predictorValues {
			if _, ok := pv[date]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			shared = append(shared, date)
		}
	}
	sort.Strings(shared)

	frame := series.AlignedFrame{
		Dates:      shared,
		Target:     make([]float64, len(shared)),
		Predictors: make([][]float64, len(predictors)),
	}
	for j := range predictors {
		frame.Predictors[j] = make([]float64, len(shared))
	}
	for i, date := range shared {
		frame.Target[i] = targetValues[date]
		for j, pv := range predictorValues {
			frame.Predictors[j][i] = pv[date]
		}
	}
	return frame
}
