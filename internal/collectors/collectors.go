// Package collectors derives issues directly from live cluster state
// without the external analyzer. Each collector polls one resource kind
// through the Kubernetes API and swallows its own fetch failures: a broken
// collector logs and returns whatever partial list it has, it never aborts
// the others.
package collectors

import (
	"context"

	"golang.org/x/sync/errgroup"
	"k8s.io/client-go/kubernetes"

	"github.com/moolen/triage/internal/logging"
	"github.com/moolen/triage/internal/models"
)

// Collector inspects one resource kind and reports issues. An empty
// namespace means all namespaces.
type Collector interface {
	Name() string
	Collect(ctx context.Context, namespace string) []models.Issue
}

// DefaultSet returns the full collector set in its fixed execution order:
// workload replica health, pod lifecycle, pod events, service exposure.
func DefaultSet(clientset kubernetes.Interface) []Collector {
	return []Collector{
		NewDeploymentCollector(clientset),
		NewPodCollector(clientset),
		NewPodEventCollector(clientset),
		NewServiceCollector(clientset),
	}
}

// RunAll executes the collectors concurrently and concatenates their
// issues in registration order, so concurrent execution never reorders
// output.
func RunAll(ctx context.Context, set []Collector, namespace string) []models.Issue {
	logger := logging.GetLogger("collectors")

	perCollector := make([][]models.Issue, len(set))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range set {
		g.Go(func() error {
			perCollector[i] = c.Collect(gctx, namespace)
			return nil
		})
	}
	// Collectors never return errors; the group is used for its bookkeeping.
	_ = g.Wait()

	var issues []models.Issue
	for i, c := range set {
		logger.Debug("collector %s reported %d issues", c.Name(), len(perCollector[i]))
		issues = append(issues, perCollector[i]...)
	}
	return issues
}
