package assist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/slated-ai/slated/pkg/models"
)

// insightsParameters keeps insight answers short.
func insightsParameters() map[string]any {
	return map[string]any{
		"temperature": 0.3,
		"num_predict": 256,
	}
}

// recommendationsParameters allows longer, list-shaped output.
func recommendationsParameters() map[string]any {
	return map[string]any{
		"temperature": 0.4,
		"num_predict": 768,
	}
}

// insightsPrompt renders the fixed insight template over an analysis summary.
func insightsPrompt(s models.AnalysisSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are assisting a production coordinator on %q.\n", s.Production)
	b.WriteString("Given the document analysis below, write two or three plain sentences about the overall state of the paperwork and anything that needs attention. Do not use headings or bullet points.\n\n")
	fmt.Fprintf(&b, "Documents on file: %d\n", s.DocumentCount)

	if len(s.Categories) > 0 {
		// Stable order so identical summaries produce identical prompts and
		// therefore identical cache keys.
		names := make([]string, 0, len(s.Categories))
		for name := range s.Categories {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("Counts by category:\n")
		for _, name := range names {
			fmt.Fprintf(&b, "  %s: %d\n", name, s.Categories[name])
		}
	}
	if len(s.Flagged) > 0 {
		fmt.Fprintf(&b, "Flagged items: %s\n", strings.Join(s.Flagged, "; "))
	}
	if s.Notes != "" {
		fmt.Fprintf(&b, "Coordinator notes: %s\n", s.Notes)
	}
	return b.String()
}

// recommendationsPrompt renders the fixed recommendation template over a gap list.
func recommendationsPrompt(req models.RecommendationsRequest) string {
	var b strings.Builder
	b.WriteString("You are assisting a production coordinator")
	if req.Context.Production != "" {
		fmt.Fprintf(&b, " on %q", req.Context.Production)
	}
	if req.Context.Phase != "" {
		fmt.Fprintf(&b, " during %s", req.Context.Phase)
	}
	b.WriteString(".\n")
	b.WriteString("The document audit found the gaps below. Suggest one concrete next step per gap, one suggestion per line, plain sentences, no numbering.\n\n")

	for _, g := range req.Gaps {
		if g.Severity != "" {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", g.Severity, g.Category, g.Description)
		} else {
			fmt.Fprintf(&b, "- %s: %s\n", g.Category, g.Description)
		}
	}
	return b.String()
}
