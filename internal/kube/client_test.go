package kube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

func TestClusterNameFromConfig(t *testing.T) {
	tests := []struct {
		name string
		raw  clientcmdapi.Config
		want string
	}{
		{
			name: "cluster name preferred",
			raw: clientcmdapi.Config{
				CurrentContext: "dev",
				Contexts: map[string]*clientcmdapi.Context{
					"dev": {Cluster: "dev-cluster"},
				},
			},
			want: "dev-cluster",
		},
		{
			name: "falls back to context name",
			raw: clientcmdapi.Config{
				CurrentContext: "dev",
				Contexts: map[string]*clientcmdapi.Context{
					"dev": {},
				},
			},
			want: "dev",
		},
		{
			name: "context missing from map",
			raw: clientcmdapi.Config{
				CurrentContext: "gone",
			},
			want: "gone",
		},
		{
			name: "empty config",
			raw:  clientcmdapi.Config{},
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClusterNameFromConfig(tt.raw))
		})
	}
}
