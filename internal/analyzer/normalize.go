package analyzer

import (
	"strings"

	"github.com/moolen/triage/internal/models"
)

// fallbackSolution is used when a diagnostic carries no doc reference.
const fallbackSolution = "Check the resource status and recent events for details"

// SplitCompositeName splits "namespace/name" on the first slash. A bare
// name without a slash belongs to a cluster-scoped resource and yields an
// empty namespace.
func SplitCompositeName(composite string) (namespace, name string) {
	if idx := strings.Index(composite, "/"); idx >= 0 {
		return composite[:idx], composite[idx+1:]
	}
	return "", composite
}

// NormalizeFinding converts one raw external finding into zero or more
// issues, one per diagnostic entry. A finding with no diagnostics produces
// no issues; it never fails the batch.
func NormalizeFinding(finding models.RawExternalFinding) []models.Issue {
	if len(finding.Diagnostics) == 0 {
		return nil
	}

	namespace, name := SplitCompositeName(finding.CompositeName)

	issues := make([]models.Issue, 0, len(finding.Diagnostics))
	for _, diag := range finding.Diagnostics {
		solution := diag.KubernetesDoc
		if solution == "" {
			solution = fallbackSolution
		}
		issues = append(issues, models.Issue{
			Kind:      finding.Kind,
			Name:      name,
			Namespace: namespace,
			Problem:   diag.Text,
			Solution:  solution,
			Severity:  ClassifySeverity(diag.Text),
		})
	}
	return issues
}

// NormalizeFindings normalizes a batch of raw findings, concatenating the
// per-finding issues in input order.
func NormalizeFindings(findings []models.RawExternalFinding) []models.Issue {
	var issues []models.Issue
	for _, f := range findings {
		issues = append(issues, NormalizeFinding(f)...)
	}
	return issues
}
