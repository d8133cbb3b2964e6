package analysis

import (
	"fmt"

	"ecocausal/domain/causal"
)

// Narrative thresholds
const (
	narrativeConfidence = 60
	weakModelRSquared   = 0.3
	longLagSteps        = 6
)

func summarize(targetName string, ranked []causal.DriverResult, rSquared float64) string {
	if len(ranked) == 0 {
		return fmt.Sprintf("No candidate drivers were provided for %s", targetName)
	}
	top := topConfidentDriver(ranked)
	if top == nil {
		return fmt.Sprintf(
			"No driver reached high confidence for %s; the strongest candidate was %s (causal strength %.2f)",
			targetName, ranked[0].Name, ranked[0].CausalStrength)
	}
	return fmt.Sprintf(
		"%s emerges as the dominant driver of %s (causal strength %.2f, %s relationship, optimal lag %d months); the combined model explains %.0f%% of observed variance",
		top.Name, targetName, top.CausalStrength, top.Direction, top.OptimalLag, rSquared*100)
}

func recommend(targetName string, ranked []causal.DriverResult, rSquared float64) []string {
	recommendations := []string{}
	if rSquared < weakModelRSquared {
		recommendations = append(recommendations, fmt.Sprintf(
			"The fitted model explains only %.0f%% of variance in %s; consider additional environmental variables",
			rSquared*100, targetName))
	}
	for _, d := range ranked {
		if d.OptimalLag > longLagSteps {
			recommendations = append(recommendations,
				"Lags beyond 6 months point to seasonal or interannual patterns; extend the monitoring window to capture full cycles")
			break
		}
	}
	if len(ranked) > 0 && anySignificantDriver(ranked) {
		top := ranked[0]
		recommendations = append(recommendations, fmt.Sprintf(
			"Monitor %s as an early warning indicator for %s (leads by %d months)",
			top.Name, targetName, top.OptimalLag))
	}
	return recommendations
}

// topConfidentDriver returns the highest-ranked driver whose categorical
// confidence clears the narrative bar, or nil
func topConfidentDriver(ranked []causal.DriverResult) *causal.DriverResult {
	for i := range ranked {
		if ranked[i].Confidence >= narrativeConfidence {
			return &ranked[i]
		}
	}
	return nil
}

func anySignificantDriver(ranked []causal.DriverResult) bool {
	for _, d := range ranked {
		if d.Granger != nil && d.Granger.Significant {
			return true
		}
		if d.Correlation != nil && d.Correlation.Significant {
			return true
		}
	}
	return false
}
