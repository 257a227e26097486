package collectors

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/moolen/triage/internal/analyzer"
	"github.com/moolen/triage/internal/logging"
	"github.com/moolen/triage/internal/models"
)

// restartThreshold is the container restart count above which a pod is
// flagged even when currently running.
const restartThreshold = 5

// PodCollector reports pods in a broken lifecycle state.
type PodCollector struct {
	clientset kubernetes.Interface
	logger    *logging.Logger
}

// NewPodCollector creates a pod lifecycle collector.
func NewPodCollector(clientset kubernetes.Interface) *PodCollector {
	return &PodCollector{
		clientset: clientset,
		logger:    logging.GetLogger("collectors.pods"),
	}
}

func (c *PodCollector) Name() string { return "pods" }

// Collect lists pods and flags Failed/Unknown phases, unschedulable
// pending pods, and containers restarting excessively.
func (c *PodCollector) Collect(ctx context.Context, namespace string) []models.Issue {
	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		c.logger.Error("failed to list pods: %v", err)
		return nil
	}

	var issues []models.Issue
	for _, pod := range pods.Items {
		issues = append(issues, checkPodLifecycle(pod)...)
	}
	return issues
}

func checkPodLifecycle(pod corev1.Pod) []models.Issue {
	var issues []models.Issue

	switch pod.Status.Phase {
	case corev1.PodFailed, corev1.PodUnknown:
		issues = append(issues, models.Issue{
			Kind:      "Pod",
			Name:      pod.Name,
			Namespace: pod.Namespace,
			Problem:   fmt.Sprintf("pod is in %s phase", pod.Status.Phase),
			Solution:  "Inspect the pod's container statuses and recent events",
			Severity:  models.SeverityCritical,
		})
	case corev1.PodPending:
		for _, cond := range pod.Status.Conditions {
			if cond.Type == corev1.PodScheduled && cond.Status == corev1.ConditionFalse && cond.Reason == corev1.PodReasonUnschedulable {
				issues = append(issues, models.Issue{
					Kind:      "Pod",
					Name:      pod.Name,
					Namespace: pod.Namespace,
					Problem:   fmt.Sprintf("pod is pending: %s", cond.Reason),
					Solution:  "Check node capacity, taints and the pod's scheduling constraints",
					Severity:  models.SeverityWarning,
				})
				break
			}
		}
	}

	for _, status := range pod.Status.ContainerStatuses {
		if status.RestartCount > restartThreshold {
			issues = append(issues, models.Issue{
				Kind:      "Pod",
				Name:      pod.Name,
				Namespace: pod.Namespace,
				Problem:   fmt.Sprintf("container %q restarted %d times", status.Name, status.RestartCount),
				Solution:  "Check the container logs for the crash cause",
				Severity:  models.SeverityWarning,
			})
		}
	}

	return issues
}

// PodEventCollector reports deduplicated warning and error events for pods.
type PodEventCollector struct {
	clientset kubernetes.Interface
	logger    *logging.Logger
	// now is overridable for deterministic tests.
	now func() time.Time
}

// NewPodEventCollector creates a pod event feed collector.
func NewPodEventCollector(clientset kubernetes.Interface) *PodEventCollector {
	return &PodEventCollector{
		clientset: clientset,
		logger:    logging.GetLogger("collectors.events"),
		now:       time.Now,
	}
}

func (c *PodEventCollector) Name() string { return "pod-events" }

// Collect fetches events per pod and collapses recurring observations into
// one issue per distinct problem. A failed event fetch for one pod skips
// that pod only.
func (c *PodEventCollector) Collect(ctx context.Context, namespace string) []models.Issue {
	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		c.logger.Error("failed to list pods for event collection: %v", err)
		return nil
	}

	now := c.now()
	var issues []models.Issue
	for _, pod := range pods.Items {
		if pod.Namespace == "" {
			continue
		}
		events, err := c.clientset.CoreV1().Events(pod.Namespace).List(ctx, metav1.ListOptions{
			FieldSelector: fmt.Sprintf("involvedObject.name=%s,involvedObject.kind=Pod", pod.Name),
		})
		if err != nil {
			c.logger.Error("failed to list events for pod %s/%s: %v", pod.Namespace, pod.Name, err)
			continue
		}
		issues = append(issues, analyzer.DedupeEvents("Pod", pod.Name, pod.Namespace, events.Items, now)...)
	}
	return issues
}
