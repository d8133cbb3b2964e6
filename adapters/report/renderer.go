// Package report renders finished causal analyses as markdown and
// standalone HTML documents.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"ecocausal/domain/causal"
)

const reportCSS = `body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 880px; margin: 2rem auto; padding: 0 1rem; color: #1a2b3c; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { border: 1px solid #d0d7de; padding: 6px 10px; text-align: left; }
th { background: #f0f4f8; }
h1, h2 { border-bottom: 1px solid #d0d7de; padding-bottom: 4px; }`

// MarkdownRenderer builds driver-analysis reports. The markdown output is
// the source of truth; HTML is rendered from it.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a report renderer
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// RenderMarkdown produces the full markdown report for one analysis
func (r *MarkdownRenderer) RenderMarkdown(result *causal.AnalysisResult) string {
	var report strings.Builder

	report.WriteString(fmt.Sprintf("# Causal Driver Report: %s\n\n", result.TargetName))
	if !result.AnalyzedAt.IsZero() {
		report.WriteString(fmt.Sprintf("**Generated**: %s\n", result.AnalyzedAt.Time().Format("2006-01-02 15:04:05 UTC")))
	}
	report.WriteString(fmt.Sprintf("**Candidate Drivers**: %d\n\n", len(result.RankedDrivers)))

	report.WriteString("## Summary\n\n")
	report.WriteString(result.Summary)
	report.WriteString("\n\n")

	r.writeDrivers(&report, result)
	r.writePathways(&report, result)
	r.writeModelFit(&report, result)
	r.writeRecommendations(&report, result)

	return report.String()
}

// RenderHTML converts the markdown report into a standalone HTML page
func (r *MarkdownRenderer) RenderHTML(result *causal.AnalysisResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("nil analysis result")
	}
	source := []byte(r.RenderMarkdown(result))

	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse(source)

	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Causal Driver Report: " + result.TargetName,
		Flags: html.CommonFlags | html.CompletePage,
		Head:  []byte("<style>" + reportCSS + "</style>"),
	})
	return markdown.Render(doc, renderer), nil
}

func (r *MarkdownRenderer) writeDrivers(report *strings.Builder, result *causal.AnalysisResult) {
	report.WriteString("## Ranked Drivers\n\n")
	if len(result.RankedDrivers) == 0 {
		report.WriteString("No candidate drivers were analyzed.\n\n")
		return
	}

	report.WriteString("| Rank | Driver | Strength | Direction | Lag | Confidence | Granger |\n")
	report.WriteString("|-----:|--------|---------:|-----------|----:|-----------:|---------|\n")
	for i, driver := range result.RankedDrivers {
		granger := "not significant"
		if driver.Granger != nil && driver.Granger.Significant {
			granger = fmt.Sprintf("F=%.2f, p=%.3f", driver.Granger.FStatistic, driver.Granger.PValue)
		}
		report.WriteString(fmt.Sprintf("| %d | %s | %.3f | %s | %d | %d%% | %s |\n",
			i+1, driver.Name, driver.CausalStrength, driver.Direction, driver.OptimalLag, driver.Confidence, granger))
	}
	report.WriteString("\n")

	for _, driver := range result.RankedDrivers {
		if driver.Mechanism == "" {
			continue
		}
		report.WriteString(fmt.Sprintf("- **%s**: %s\n", driver.Name, driver.Mechanism))
	}
	report.WriteString("\n")
}

func (r *MarkdownRenderer) writePathways(report *strings.Builder, result *causal.AnalysisResult) {
	if len(result.Pathways) == 0 {
		return
	}
	report.WriteString("## Causal Pathways\n\n")
	for _, p := range result.Pathways {
		report.WriteString(fmt.Sprintf("- %s leads %s by %d steps (strength %.3f)\n",
			p.From, p.To, p.Lag, p.Strength))
	}
	report.WriteString("\n")
}

func (r *MarkdownRenderer) writeModelFit(report *strings.Builder, result *causal.AnalysisResult) {
	report.WriteString("## Model Fit\n\n")
	report.WriteString(fmt.Sprintf("- **R-squared**: %.3f\n", result.ModelFit.RSquared))
	report.WriteString(fmt.Sprintf("- **Adjusted R-squared**: %.3f\n", result.ModelFit.AdjRSquared))
	report.WriteString(fmt.Sprintf("- **Sample Size**: %d\n\n", result.ModelFit.SampleSize))

	if len(result.FeatureImportances) == 0 {
		return
	}
	report.WriteString("### Feature Importance\n\n")
	report.WriteString("| Rank | Feature | Importance | Contribution | Direction |\n")
	report.WriteString("|-----:|---------|-----------:|-------------:|-----------|\n")
	for _, fi := range result.FeatureImportances {
		report.WriteString(fmt.Sprintf("| %d | %s | %.3f | %d%% | %s |\n",
			fi.Rank, fi.Feature, fi.Importance, fi.Contribution, fi.Direction))
	}
	report.WriteString("\n")
}

func (r *MarkdownRenderer) writeRecommendations(report *strings.Builder, result *causal.AnalysisResult) {
	if len(result.Recommendations) == 0 {
		return
	}
	report.WriteString("## Recommendations\n\n")
	for _, rec := range result.Recommendations {
		report.WriteString(fmt.Sprintf("- %s\n", rec))
	}
	report.WriteString("\n")
}
