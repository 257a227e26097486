package external

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/triage/internal/models"
)

// writeFakeAnalyzer creates an executable shell script standing in for the
// analyzer binary.
func writeFakeAnalyzer(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-analyzer")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name  string
		scope Scope
		want  []string
	}{
		{
			name:  "all namespaces no filters",
			scope: Scope{},
			want:  []string{"analyze", "--output=json"},
		},
		{
			name:  "single namespace",
			scope: Scope{Namespace: "kube-system"},
			want:  []string{"analyze", "--output=json", "--namespace=kube-system"},
		},
		{
			name:  "filters comma joined",
			scope: Scope{Namespace: "default", Filters: []string{"Pod", "Service"}},
			want:  []string{"analyze", "--output=json", "--filter=Pod,Service", "--namespace=default"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildArgs(tt.scope))
		})
	}
}

func TestRunParsesResults(t *testing.T) {
	bin := writeFakeAnalyzer(t, `cat <<'JSON'
{
  "provider": "",
  "errors": null,
  "status": "ProblemDetected",
  "problems": 1,
  "results": [
    {
      "kind": "Pod",
      "name": "default/web-0",
      "error": [
        {"Text": "Back-off restarting failed container", "KubernetesDoc": "", "Sensitive": []}
      ],
      "details": "",
      "parentObject": ""
    }
  ]
}
JSON`)

	a := NewAnalyzer(bin)
	result, err := a.Run(context.Background(), Scope{Namespace: "default"})
	require.NoError(t, err)

	assert.Equal(t, bin+" analyze --output=json --namespace=default", result.Command)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "Pod", result.Issues[0].Kind)
	assert.Equal(t, "web-0", result.Issues[0].Name)
	assert.Equal(t, "default", result.Issues[0].Namespace)
	assert.Equal(t, models.SeverityCritical, result.Issues[0].Severity)
}

func TestRunToleratesUnexpectedShape(t *testing.T) {
	bin := writeFakeAnalyzer(t, `echo '["not", "a", "report"]'`)

	result, err := NewAnalyzer(bin).Run(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Empty(t, result.Issues)
}

func TestRunInvalidJSONIsHardFailure(t *testing.T) {
	bin := writeFakeAnalyzer(t, `echo 'this is not json'`)

	result, err := NewAnalyzer(bin).Run(context.Background(), Scope{Namespace: "prod"})
	require.Error(t, err)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "prod", execErr.Namespace)
	assert.Contains(t, err.Error(), `namespace "prod"`)
	// The audit command is recorded despite the failure.
	assert.Contains(t, result.Command, "analyze --output=json")
}

func TestRunNonZeroExit(t *testing.T) {
	bin := writeFakeAnalyzer(t, `echo "something broke" >&2; exit 2`)

	_, err := NewAnalyzer(bin).Run(context.Background(), Scope{Namespace: "default"})
	require.Error(t, err)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.Reason, "something broke")
	assert.NotErrorIs(t, err, ErrToolMissing)
}

func TestRunToolMissing(t *testing.T) {
	a := NewAnalyzer("triage-test-no-such-binary")
	result, err := a.Run(context.Background(), Scope{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolMissing)
	assert.Contains(t, result.Command, "analyze --output=json")
}

func TestRunCancellation(t *testing.T) {
	bin := writeFakeAnalyzer(t, `sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAnalyzer(bin).Run(ctx, Scope{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewAnalyzerDefaultsBinary(t *testing.T) {
	a := NewAnalyzer("")
	assert.Equal(t, DefaultBinary, a.binary)
}

func TestParseReportEmptyResults(t *testing.T) {
	issues, err := parseReport([]byte(`{"status":"OK","problems":0,"results":null}`))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestParseReportKeepsWellFormedFindings(t *testing.T) {
	// A finding whose error field is not an array yields zero issues; the
	// rest of the batch survives.
	issues, err := parseReport([]byte(`{
	  "status": "ProblemDetected",
	  "problems": 2,
	  "results": [
	    {"kind": "Pod", "name": "default/web-0", "error": [{"Text": "crash detected"}]},
	    {"kind": "Service", "name": "default/web", "error": "oops-not-an-array"}
	  ]
	}`))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "Pod", issues[0].Kind)
	assert.Equal(t, "web-0", issues[0].Name)
	assert.Equal(t, models.SeverityCritical, issues[0].Severity)
}

func TestLargeOutputSupported(t *testing.T) {
	// ~12MB of padding alongside a real finding must not truncate parsing.
	bin := writeFakeAnalyzer(t, `awk 'BEGIN{
  printf "{\"status\":\"ProblemDetected\",\"problems\":1,\"padding\":\"";
  for (i = 0; i < 12000000; i++) printf "x";
  printf "\",\"results\":[{\"kind\":\"Pod\",\"name\":\"default/big\",\"error\":[{\"Text\":\"crash detected\"}]}]}";
}'`)

	result, err := NewAnalyzer(bin).Run(context.Background(), Scope{})
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "big", result.Issues[0].Name)
}
