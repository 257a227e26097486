package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/moolen/triage/internal/models"
)

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_analyses_total",
		Help: "Number of analysis runs by outcome.",
	}, []string{"outcome"})

	invocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_external_invocations_total",
		Help: "Number of external analyzer invocations by outcome.",
	}, []string{"outcome"})

	issuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_issues_total",
		Help: "Number of issues reported by severity.",
	}, []string{"severity"})
)

func observeIssues(summary models.Summary) {
	issuesTotal.WithLabelValues(string(models.SeverityCritical)).Add(float64(summary.Critical))
	issuesTotal.WithLabelValues(string(models.SeverityWarning)).Add(float64(summary.Warning))
	issuesTotal.WithLabelValues(string(models.SeverityInfo)).Add(float64(summary.Info))
}
