// Package external invokes the rule-based cluster analyzer as a child
// process and normalizes its JSON output into issues.
//
// The analyzer is an independently versioned black box; its output is
// parsed defensively and a wrong-shaped but valid JSON document is treated
// as zero results rather than a failure.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/moolen/triage/internal/analyzer"
	"github.com/moolen/triage/internal/logging"
	"github.com/moolen/triage/internal/models"
)

// DefaultBinary is the external analyzer executable resolved from PATH.
const DefaultBinary = "k8sgpt"

// ErrToolMissing indicates the analyzer executable is not installed.
var ErrToolMissing = errors.New("external analyzer not found: install k8sgpt and ensure it is on your PATH")

// ExecError describes a failed analyzer invocation, attributable to its
// namespace scope.
type ExecError struct {
	// Namespace is empty for an all-namespaces invocation.
	Namespace string
	Reason    string
	Err       error
}

func (e *ExecError) Error() string {
	scope := "all namespaces"
	if e.Namespace != "" {
		scope = fmt.Sprintf("namespace %q", e.Namespace)
	}
	if e.Err != nil {
		return fmt.Sprintf("external analyzer failed for %s: %s: %v", scope, e.Reason, e.Err)
	}
	return fmt.Sprintf("external analyzer failed for %s: %s", scope, e.Reason)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Scope is the target of one analyzer invocation. An empty Namespace means
// all namespaces.
type Scope struct {
	Namespace string
	Filters   []string
}

// Result is the outcome of one invocation. Command is always populated,
// even when the invocation failed, so the audit trail reflects what was
// attempted.
type Result struct {
	Issues  []models.Issue
	Command string
}

// Runner runs one external analysis per scope.
type Runner interface {
	Run(ctx context.Context, scope Scope) (Result, error)
}

// Analyzer invokes the analyzer binary via os/exec. Arguments are passed
// as discrete tokens, never through a shell, so user-supplied namespaces
// and filters cannot inject commands.
type Analyzer struct {
	binary string
	logger *logging.Logger
}

// NewAnalyzer creates an Analyzer for the given executable. An empty
// binary falls back to DefaultBinary.
func NewAnalyzer(binary string) *Analyzer {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Analyzer{
		binary: binary,
		logger: logging.GetLogger("external"),
	}
}

// BuildArgs constructs the argument list for one invocation
// deterministically from the scope.
func BuildArgs(scope Scope) []string {
	args := []string{"analyze", "--output=json"}
	if len(scope.Filters) > 0 {
		args = append(args, "--filter="+strings.Join(scope.Filters, ","))
	}
	if scope.Namespace != "" {
		args = append(args, "--namespace="+scope.Namespace)
	}
	return args
}

// Run executes one analyzer invocation for the scope. The returned
// Result.Command is recorded before execution and is valid regardless of
// outcome. A missing executable yields ErrToolMissing; a non-zero exit or
// unparseable output yields an ExecError attributed to the scope.
func (a *Analyzer) Run(ctx context.Context, scope Scope) (Result, error) {
	args := BuildArgs(scope)
	result := Result{Command: a.binary + " " + strings.Join(args, " ")}

	a.logger.Debug("running external analyzer: %s", result.Command)

	cmd := exec.CommandContext(ctx, a.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return result, fmt.Errorf("%w", ErrToolMissing)
		}
		if ctx.Err() != nil {
			return result, &ExecError{Namespace: scope.Namespace, Reason: "invocation canceled", Err: ctx.Err()}
		}
		reason := "exited with an error"
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			reason = fmt.Sprintf("exited with an error: %s", truncate(msg, 512))
		}
		return result, &ExecError{Namespace: scope.Namespace, Reason: reason, Err: err}
	}

	issues, err := parseReport(stdout.Bytes())
	if err != nil {
		return result, &ExecError{Namespace: scope.Namespace, Reason: "unparseable output", Err: err}
	}

	result.Issues = issues
	return result, nil
}

// analyzerReport mirrors the analyzer's JSON output. Fields beyond Results
// are carried for completeness; only Results feeds the issue list.
type analyzerReport struct {
	Provider string                      `json:"provider"`
	Errors   json.RawMessage             `json:"errors"`
	Status   string                      `json:"status"`
	Problems int                         `json:"problems"`
	Results  []models.RawExternalFinding `json:"results"`
}

// parseReport decodes the analyzer output and normalizes each finding.
// Valid JSON of an unexpected shape decodes a finding to zero diagnostics
// and thus zero issues, without losing the well-formed findings around it;
// invalid JSON is a hard failure.
func parseReport(data []byte) ([]models.Issue, error) {
	var report analyzerReport
	if err := json.Unmarshal(data, &report); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, fmt.Errorf("decoding analyzer output: %w", err)
		}
		// A type error skips the offending value but keeps decoding, so
		// report.Results still carries every well-formed entry.
	}
	return analyzer.NormalizeFindings(report.Results), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
