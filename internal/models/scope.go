package models

// AnalysisScope is the resolved target of one aggregation run.
//
// Exactly one of Namespaces or AllNamespaces is active at execution time:
// a non-empty explicit namespace list takes precedence over the flag, and
// an empty scope defaults to all namespaces.
type AnalysisScope struct {
	// Namespaces is the ordered list of namespaces to analyze.
	Namespaces []string `json:"namespaces,omitempty"`

	// AllNamespaces requests a single whole-cluster analysis, not itemized
	// per namespace.
	AllNamespaces bool `json:"allNamespaces,omitempty"`

	// Filters restricts analysis to the named resource kinds. Empty means
	// the full supported set.
	Filters []string `json:"filters,omitempty"`
}

// ExplicitNamespaces reports whether the scope carries an explicit,
// non-empty namespace list.
func (s AnalysisScope) ExplicitNamespaces() bool {
	return len(s.Namespaces) > 0
}

// RawDiagnostic is one diagnostic entry of a raw external finding.
type RawDiagnostic struct {
	Text            string   `json:"Text"`
	KubernetesDoc   string   `json:"KubernetesDoc"`
	SensitiveFields []string `json:"Sensitive,omitempty"`
}

// RawExternalFinding is the transient, per-invocation output of the external
// analyzer before normalization. CompositeName is "namespace/name", or a
// bare "name" for cluster-scoped resources.
type RawExternalFinding struct {
	Kind          string          `json:"kind"`
	CompositeName string          `json:"name"`
	Diagnostics   []RawDiagnostic `json:"error"`
}
