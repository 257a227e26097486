// Package analyzer turns raw findings into canonical issues: it classifies
// severity from diagnostic text, normalizes external analyzer findings, and
// deduplicates recurring cluster events.
package analyzer

import (
	"strings"

	"github.com/moolen/triage/internal/models"
)

// Keyword tiers for text classification. Critical is checked first and
// wins when both tiers match.
var (
	criticalKeywords = []string{"crash", "failed", "error", "deadline exceeded", "oomkilled"}
	warningKeywords  = []string{"warning", "pending", "unschedulable"}
)

// ClassifySeverity maps free-text diagnostics to a severity level using
// case-insensitive substring matching. It is total: any input, including
// the empty string, yields exactly one severity.
func ClassifySeverity(text string) models.Severity {
	lower := strings.ToLower(text)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return models.SeverityCritical
		}
	}
	for _, kw := range warningKeywords {
		if strings.Contains(lower, kw) {
			return models.SeverityWarning
		}
	}
	return models.SeverityInfo
}
