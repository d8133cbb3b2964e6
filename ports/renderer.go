package ports

import (
	"ecocausal/domain/causal"
)

// ReportRenderer turns a finished causal analysis into a document.
// The engines do not depend on any particular renderer; callers choose
// one at the edge.
type ReportRenderer interface {
	// RenderMarkdown produces a markdown report
	RenderMarkdown(result *causal.AnalysisResult) string

	// RenderHTML produces a standalone HTML report
	RenderHTML(result *causal.AnalysisResult) ([]byte, error)
}
