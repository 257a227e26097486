package collectors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
	"k8s.io/utils/ptr"

	"github.com/moolen/triage/internal/models"
)

func deployment(name string, desired, available int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "default"},
		Spec:       appsv1.DeploymentSpec{Replicas: ptr.To(desired)},
		Status:     appsv1.DeploymentStatus{AvailableReplicas: available},
	}
}

func TestDeploymentCollector(t *testing.T) {
	clientset := fake.NewClientset(
		deployment("down", 3, 0),
		deployment("degraded", 3, 2),
		deployment("healthy", 3, 3),
	)

	issues := NewDeploymentCollector(clientset).Collect(context.Background(), "default")
	require.Len(t, issues, 2)

	bySeverity := map[string]models.Severity{}
	for _, issue := range issues {
		assert.Equal(t, "Deployment", issue.Kind)
		bySeverity[issue.Name] = issue.Severity
	}
	assert.Equal(t, models.SeverityCritical, bySeverity["down"])
	assert.Equal(t, models.SeverityWarning, bySeverity["degraded"])
}

func TestDeploymentCollectorDefaultsDesiredToOne(t *testing.T) {
	deploy := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "no-replicas", Namespace: "default"},
	}
	clientset := fake.NewClientset(deploy)

	issues := NewDeploymentCollector(clientset).Collect(context.Background(), "default")
	require.Len(t, issues, 1)
	assert.Equal(t, models.SeverityCritical, issues[0].Severity)
}

func TestPodCollector(t *testing.T) {
	pods := []runtime.Object{
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "failed", Namespace: "default"},
			Status:     corev1.PodStatus{Phase: corev1.PodFailed},
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "unknown", Namespace: "default"},
			Status:     corev1.PodStatus{Phase: corev1.PodUnknown},
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "unschedulable", Namespace: "default"},
			Status: corev1.PodStatus{
				Phase: corev1.PodPending,
				Conditions: []corev1.PodCondition{{
					Type:   corev1.PodScheduled,
					Status: corev1.ConditionFalse,
					Reason: corev1.PodReasonUnschedulable,
				}},
			},
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "restarting", Namespace: "default"},
			Status: corev1.PodStatus{
				Phase: corev1.PodRunning,
				ContainerStatuses: []corev1.ContainerStatus{
					{Name: "app", RestartCount: 9},
				},
			},
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "healthy", Namespace: "default"},
			Status: corev1.PodStatus{
				Phase: corev1.PodRunning,
				ContainerStatuses: []corev1.ContainerStatus{
					{Name: "app", RestartCount: 2},
				},
			},
		},
	}
	clientset := fake.NewClientset(pods...)

	issues := NewPodCollector(clientset).Collect(context.Background(), "default")
	require.Len(t, issues, 4)

	byName := map[string]models.Issue{}
	for _, issue := range issues {
		byName[issue.Name] = issue
	}
	assert.Equal(t, models.SeverityCritical, byName["failed"].Severity)
	assert.Equal(t, models.SeverityCritical, byName["unknown"].Severity)
	assert.Equal(t, models.SeverityWarning, byName["unschedulable"].Severity)
	assert.Contains(t, byName["unschedulable"].Problem, "Unschedulable")
	assert.Equal(t, models.SeverityWarning, byName["restarting"].Severity)
	assert.Contains(t, byName["restarting"].Problem, `"app"`)
	assert.NotContains(t, byName, "healthy")
}

func TestServiceCollector(t *testing.T) {
	services := []runtime.Object{
		&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "no-address", Namespace: "default"},
			Spec:       corev1.ServiceSpec{Type: corev1.ServiceTypeLoadBalancer},
		},
		&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "provisioned", Namespace: "default"},
			Spec:       corev1.ServiceSpec{Type: corev1.ServiceTypeLoadBalancer},
			Status: corev1.ServiceStatus{
				LoadBalancer: corev1.LoadBalancerStatus{
					Ingress: []corev1.LoadBalancerIngress{{IP: "203.0.113.10"}},
				},
			},
		},
		&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "internal", Namespace: "default"},
			Spec:       corev1.ServiceSpec{Type: corev1.ServiceTypeClusterIP},
		},
	}
	clientset := fake.NewClientset(services...)

	issues := NewServiceCollector(clientset).Collect(context.Background(), "default")
	require.Len(t, issues, 1)
	assert.Equal(t, "no-address", issues[0].Name)
	assert.Equal(t, models.SeverityWarning, issues[0].Severity)
}

func TestPodEventCollector(t *testing.T) {
	now := time.Now()
	clientset := fake.NewClientset(
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "web-0", Namespace: "default"},
			Status:     corev1.PodStatus{Phase: corev1.PodRunning},
		},
		&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: "ev-1", Namespace: "default"},
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "web-0", Namespace: "default"},
			Type:           corev1.EventTypeWarning,
			Reason:         "BackOff",
			Message:        "restarting container",
			LastTimestamp:  metav1.NewTime(now.Add(-10 * time.Minute)),
		},
		&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: "ev-2", Namespace: "default"},
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "web-0", Namespace: "default"},
			Type:           corev1.EventTypeWarning,
			Reason:         "BackOff",
			Message:        "restarting container",
			LastTimestamp:  metav1.NewTime(now.Add(-40 * time.Minute)),
		},
	)

	collector := NewPodEventCollector(clientset)
	collector.now = func() time.Time { return now }

	issues := collector.Collect(context.Background(), "default")
	require.Len(t, issues, 1)
	assert.Equal(t, "BackOff: restarting container", issues[0].Problem)
	assert.Equal(t, models.SeverityWarning, issues[0].Severity)
}

func TestRunAllFaultIsolation(t *testing.T) {
	clientset := fake.NewClientset(
		deployment("down", 3, 0),
		&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "no-address", Namespace: "default"},
			Spec:       corev1.ServiceSpec{Type: corev1.ServiceTypeLoadBalancer},
		},
	)
	// Pod listing blows up; the other collectors must be unaffected.
	clientset.PrependReactor("list", "pods", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("api server unavailable")
	})

	issues := RunAll(context.Background(), DefaultSet(clientset), "default")
	require.Len(t, issues, 2)

	kinds := []string{issues[0].Kind, issues[1].Kind}
	assert.Equal(t, []string{"Deployment", "Service"}, kinds)
}

func TestRunAllOrderIsDeterministic(t *testing.T) {
	clientset := fake.NewClientset(
		deployment("down", 3, 0),
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "failed", Namespace: "default"},
			Status:     corev1.PodStatus{Phase: corev1.PodFailed},
		},
		&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "no-address", Namespace: "default"},
			Spec:       corev1.ServiceSpec{Type: corev1.ServiceTypeLoadBalancer},
		},
	)

	for range 5 {
		issues := RunAll(context.Background(), DefaultSet(clientset), "default")
		require.Len(t, issues, 3)
		assert.Equal(t, "Deployment", issues[0].Kind)
		assert.Equal(t, "Pod", issues[1].Kind)
		assert.Equal(t, "Service", issues[2].Kind)
	}
}

func TestEndToEndDirectCollectorsSummary(t *testing.T) {
	clientset := fake.NewClientset(
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "crashed", Namespace: "default"},
			Status:     corev1.PodStatus{Phase: corev1.PodFailed},
		},
		deployment("web", 3, 0),
	)

	issues := RunAll(context.Background(), DefaultSet(clientset), "default")
	summary := models.Summarize(issues)
	assert.Equal(t, models.Summary{Total: 2, Critical: 2, Warning: 0, Info: 0}, summary)
}
