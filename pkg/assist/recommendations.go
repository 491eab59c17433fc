package assist

import "strings"

const (
	minRecommendationChars = 15
	maxRecommendationChars = 500
	maxRecommendations     = 5
)

// parseRecommendations turns line-oriented model output into a bounded list
// of short suggestions: list markers stripped, too-short and too-long lines
// dropped, at most maxRecommendations items.
func parseRecommendations(raw string) []string {
	out := make([]string, 0, maxRecommendations)
	for _, line := range strings.Split(raw, "\n") {
		line = stripListMarker(strings.TrimSpace(line))
		if len(line) < minRecommendationChars || len(line) > maxRecommendationChars {
			continue
		}
		out = append(out, line)
		if len(out) == maxRecommendations {
			break
		}
	}
	return out
}

// stripListMarker removes a leading bullet or "1." / "2)" style enumerator.
func stripListMarker(line string) string {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):])
		}
	}

	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
