// Package kube wires up read-only Kubernetes API access for the triage
// engine and resolves the display name of the analyzed cluster.
package kube

import (
	"fmt"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/moolen/triage/internal/logging"
)

// Client bundles the typed clientset with the resolved cluster identity.
// The connection configuration is built once at startup and treated as
// read-only for the process lifetime.
type Client struct {
	Clientset   kubernetes.Interface
	ClusterName string
}

// NewClient builds Kubernetes API access, trying in-cluster config first
// and falling back to the kubeconfig (explicit path, or the default
// loading rules honoring KUBECONFIG).
func NewClient(kubeconfigPath string) (*Client, error) {
	logger := logging.GetLogger("kube")

	restConfig, clusterName, err := buildConfig(kubeconfigPath, logger)
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	logger.Debug("connected to cluster %q", clusterName)
	return &Client{Clientset: clientset, ClusterName: clusterName}, nil
}

func buildConfig(kubeconfigPath string, logger *logging.Logger) (*rest.Config, string, error) {
	// In-cluster connections carry no kubeconfig context to name.
	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, "unknown", nil
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		rules.ExplicitPath = kubeconfigPath
	}
	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{})

	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build client config: %w", err)
	}

	clusterName := "unknown"
	if raw, err := clientConfig.RawConfig(); err == nil {
		clusterName = ClusterNameFromConfig(raw)
	} else {
		logger.Warn("failed to read kubeconfig contexts: %v", err)
	}

	return restConfig, clusterName, nil
}

// ClusterNameFromConfig resolves the display name of the active cluster
// from a kubeconfig. Fallback chain: the current context's cluster name,
// then the current context name, then "unknown".
func ClusterNameFromConfig(raw clientcmdapi.Config) string {
	if ctx, ok := raw.Contexts[raw.CurrentContext]; ok && ctx != nil && ctx.Cluster != "" {
		return ctx.Cluster
	}
	if raw.CurrentContext != "" {
		return raw.CurrentContext
	}
	return "unknown"
}
