// Package models defines the canonical data types of the triage engine:
// issues, severities, analysis scopes and results.
package models

import (
	"sort"
	"time"
)

// Severity classifies how urgent an issue is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// severityRank defines the total order for sorting: critical > warning > info.
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityWarning:  1,
	SeverityInfo:     2,
}

// Rank returns the sort rank of the severity. Lower means more urgent.
// Unknown severities sort after info.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Issue is a single detected problem in the cluster.
//
// (Kind, Name, Namespace, Problem) is the practical identity within one
// analysis run. Namespace is empty for cluster-scoped resources.
type Issue struct {
	Kind      string   `json:"kind"`
	Name      string   `json:"name"`
	Namespace string   `json:"namespace,omitempty"`
	Problem   string   `json:"problem"`
	Solution  string   `json:"solution,omitempty"`
	Severity  Severity `json:"severity"`
}

// Summary holds per-severity counts over an issue list.
type Summary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

// Summarize computes the summary counts for a list of issues.
// Total always equals len(issues); unknown severities count as info.
func Summarize(issues []Issue) Summary {
	s := Summary{Total: len(issues)}
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityWarning:
			s.Warning++
		default:
			s.Info++
		}
	}
	return s
}

// AnalysisResult is the output of one aggregation run. It is constructed
// fresh per request and never mutated after return.
type AnalysisResult struct {
	Timestamp time.Time `json:"timestamp"`
	Cluster   string    `json:"cluster"`
	Issues    []Issue   `json:"issues"`
	Summary   Summary   `json:"summary"`
	// Commands records one audit string per external analyzer invocation
	// actually performed, in invocation order.
	Commands []string `json:"commands,omitempty"`
}

// SortForDisplay orders issues by severity, then kind, then name, then
// namespace. The engine stores issues in concatenation order; this is the
// recommended presentation order.
func SortForDisplay(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Namespace < b.Namespace
	})
}
