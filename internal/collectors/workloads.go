package collectors

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/moolen/triage/internal/logging"
	"github.com/moolen/triage/internal/models"
)

// DeploymentCollector reports workloads running below their desired
// replica count.
type DeploymentCollector struct {
	clientset kubernetes.Interface
	logger    *logging.Logger
}

// NewDeploymentCollector creates a workload replica health collector.
func NewDeploymentCollector(clientset kubernetes.Interface) *DeploymentCollector {
	return &DeploymentCollector{
		clientset: clientset,
		logger:    logging.GetLogger("collectors.deployments"),
	}
}

func (c *DeploymentCollector) Name() string { return "deployments" }

// Collect lists deployments and emits one issue per under-replicated
// workload: critical when nothing is available, warning otherwise.
func (c *DeploymentCollector) Collect(ctx context.Context, namespace string) []models.Issue {
	deployments, err := c.clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		c.logger.Error("failed to list deployments: %v", err)
		return nil
	}

	var issues []models.Issue
	for _, deploy := range deployments.Items {
		issues = append(issues, checkReplicas(deploy)...)
	}
	return issues
}

func checkReplicas(deploy appsv1.Deployment) []models.Issue {
	desired := int32(1)
	if deploy.Spec.Replicas != nil {
		desired = *deploy.Spec.Replicas
	}
	available := deploy.Status.AvailableReplicas
	if available >= desired {
		return nil
	}

	severity := models.SeverityWarning
	if available == 0 {
		severity = models.SeverityCritical
	}
	return []models.Issue{{
		Kind:      "Deployment",
		Name:      deploy.Name,
		Namespace: deploy.Namespace,
		Problem:   fmt.Sprintf("only %d of %d desired replicas are available", available, desired),
		Solution:  "Check the deployment's replica sets and pod status for rollout failures",
		Severity:  severity,
	}}
}
