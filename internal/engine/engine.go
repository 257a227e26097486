// Package engine is the aggregation orchestrator: it resolves the
// requested scope, fans out to the external analyzer per namespace, merges
// in direct collector output, and produces the final analysis result.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/moolen/triage/internal/collectors"
	"github.com/moolen/triage/internal/external"
	"github.com/moolen/triage/internal/logging"
	"github.com/moolen/triage/internal/models"
)

// DefaultFilters is the full supported resource-kind set, used when a
// scope requests no explicit filters.
var DefaultFilters = []string{
	"Pod",
	"Deployment",
	"StatefulSet",
	"ReplicaSet",
	"Service",
	"Ingress",
	"CronJob",
	"Node",
	"PersistentVolumeClaim",
}

// defaultMaxConcurrency bounds parallel external invocations.
const defaultMaxConcurrency = 4

// Options configures orchestration behavior.
type Options struct {
	// ContinueOnError keeps analyzing remaining namespaces when one
	// external invocation fails. Off by default: partial external coverage
	// is misleading.
	ContinueOnError bool

	// DirectChecks appends issues from the direct observation collectors
	// after the external analyzer issues.
	DirectChecks bool

	// Enhance gates the optional non-local enhancement step. The engine
	// queries the flag but ships no enhancement backend.
	Enhance bool

	// MaxConcurrency bounds parallel external invocations. Zero means the
	// default.
	MaxConcurrency int
}

// Engine runs aggregations. It holds no mutable state across requests;
// every Analyze call builds its own invocation records.
type Engine struct {
	runner      external.Runner
	collectors  []collectors.Collector
	clusterName string
	opts        Options
	logger      *logging.Logger
	tracer      trace.Tracer
}

// New creates an Engine. The collector set may be nil when direct checks
// are disabled.
func New(runner external.Runner, set []collectors.Collector, clusterName string, opts Options) *Engine {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaultMaxConcurrency
	}
	return &Engine{
		runner:      runner,
		collectors:  set,
		clusterName: clusterName,
		opts:        opts,
		logger:      logging.GetLogger("engine"),
		tracer:      otel.Tracer("triage/engine"),
	}
}

// invocation is one planned external analyzer run.
type invocation struct {
	scope  external.Scope
	result external.Result
	err    error
}

// Analyze executes one aggregation run for the scope and returns a fresh
// result. Issues and audit commands appear in deterministic request order
// regardless of concurrent execution. On failure (or cancellation) partial
// results are discarded.
func (e *Engine) Analyze(ctx context.Context, scope models.AnalysisScope) (*models.AnalysisResult, error) {
	runID := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "engine.Analyze",
		trace.WithAttributes(
			attribute.String("triage.run_id", runID),
			attribute.Bool("triage.all_namespaces", !scope.ExplicitNamespaces()),
			attribute.Int("triage.namespace_count", len(scope.Namespaces)),
		))
	defer span.End()

	logger := e.logger.WithField("run_id", runID)
	started := time.Now()

	filters := scope.Filters
	if len(filters) == 0 {
		filters = DefaultFilters
	}

	invocations := e.plan(scope, filters)
	logger.Info("starting analysis of cluster %q (%d invocations)", e.clusterName, len(invocations))

	if err := e.runExternal(ctx, invocations); err != nil {
		analysesTotal.WithLabelValues("failure").Inc()
		span.RecordError(err)
		return nil, err
	}

	var issues []models.Issue
	commands := make([]string, 0, len(invocations))
	for _, inv := range invocations {
		commands = append(commands, inv.result.Command)
		if inv.err != nil {
			// Only reachable with ContinueOnError: the command stays in the
			// audit trail, the issues are absent.
			logger.Warn("continuing after failed invocation: %v", inv.err)
			continue
		}
		issues = append(issues, inv.result.Issues...)
	}

	if e.opts.DirectChecks {
		issues = append(issues, e.runCollectors(ctx, scope)...)
	}

	if e.opts.Enhance {
		// Non-local enhancement is gated off by default and has no backend
		// wired; local-only analysis proceeds unchanged.
		logger.Debug("enhancement requested but no backend is configured, skipping")
	}

	if ctx.Err() != nil {
		analysesTotal.WithLabelValues("canceled").Inc()
		return nil, fmt.Errorf("analysis canceled: %w", ctx.Err())
	}

	summary := models.Summarize(issues)
	observeIssues(summary)
	analysesTotal.WithLabelValues("success").Inc()

	logger.InfoWithFields("analysis complete",
		logging.Field("issues", summary.Total),
		logging.Field("critical", summary.Critical),
		logging.Field("duration_ms", time.Since(started).Milliseconds()),
	)

	return &models.AnalysisResult{
		// Stamped last, after all I/O completed.
		Timestamp: time.Now(),
		Cluster:   e.clusterName,
		Issues:    issues,
		Summary:   summary,
		Commands:  commands,
	}, nil
}

// plan determines the namespace execution plan: one invocation per listed
// namespace in list order, or a single all-namespaces invocation when no
// explicit list is given.
func (e *Engine) plan(scope models.AnalysisScope, filters []string) []*invocation {
	if !scope.ExplicitNamespaces() {
		return []*invocation{{scope: external.Scope{Filters: filters}}}
	}
	invocations := make([]*invocation, 0, len(scope.Namespaces))
	for _, ns := range scope.Namespaces {
		invocations = append(invocations, &invocation{
			scope: external.Scope{Namespace: ns, Filters: filters},
		})
	}
	return invocations
}

// runExternal executes the planned invocations concurrently. Each
// invocation writes into its own slot, so output order stays the plan
// order. Without ContinueOnError the first failure aborts the whole run.
func (e *Engine) runExternal(ctx context.Context, invocations []*invocation) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.MaxConcurrency)

	for _, inv := range invocations {
		g.Go(func() error {
			ctx, span := e.tracer.Start(gctx, "engine.externalInvocation",
				trace.WithAttributes(attribute.String("triage.namespace", inv.scope.Namespace)))
			defer span.End()

			inv.result, inv.err = e.runner.Run(ctx, inv.scope)
			if inv.err != nil {
				span.RecordError(inv.err)
				invocationsTotal.WithLabelValues("failure").Inc()
				if e.opts.ContinueOnError {
					return nil
				}
				return inv.err
			}
			invocationsTotal.WithLabelValues("success").Inc()
			return nil
		})
	}
	return g.Wait()
}

// runCollectors runs the direct observation collectors, per listed
// namespace in order, or once across all namespaces.
func (e *Engine) runCollectors(ctx context.Context, scope models.AnalysisScope) []models.Issue {
	if !scope.ExplicitNamespaces() {
		return collectors.RunAll(ctx, e.collectors, "")
	}
	var issues []models.Issue
	for _, ns := range scope.Namespaces {
		issues = append(issues, collectors.RunAll(ctx, e.collectors, ns)...)
	}
	return issues
}
