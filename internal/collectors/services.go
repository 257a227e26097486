package collectors

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/moolen/triage/internal/logging"
	"github.com/moolen/triage/internal/models"
)

// ServiceCollector reports externally exposed services without an assigned
// external address.
type ServiceCollector struct {
	clientset kubernetes.Interface
	logger    *logging.Logger
}

// NewServiceCollector creates a network endpoint exposure collector.
func NewServiceCollector(clientset kubernetes.Interface) *ServiceCollector {
	return &ServiceCollector{
		clientset: clientset,
		logger:    logging.GetLogger("collectors.services"),
	}
}

func (c *ServiceCollector) Name() string { return "services" }

// Collect lists services and flags LoadBalancer services whose ingress has
// not been provisioned yet.
func (c *ServiceCollector) Collect(ctx context.Context, namespace string) []models.Issue {
	services, err := c.clientset.CoreV1().Services(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		c.logger.Error("failed to list services: %v", err)
		return nil
	}

	var issues []models.Issue
	for _, svc := range services.Items {
		if svc.Spec.Type != corev1.ServiceTypeLoadBalancer {
			continue
		}
		if len(svc.Status.LoadBalancer.Ingress) > 0 {
			continue
		}
		issues = append(issues, models.Issue{
			Kind:      "Service",
			Name:      svc.Name,
			Namespace: svc.Namespace,
			Problem:   "load balancer service has no external address assigned",
			Solution:  "Check the cloud provider's load balancer provisioning and service events",
			Severity:  models.SeverityWarning,
		})
	}
	return issues
}
