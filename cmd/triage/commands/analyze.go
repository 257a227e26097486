package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/moolen/triage/internal/collectors"
	"github.com/moolen/triage/internal/config"
	"github.com/moolen/triage/internal/engine"
	"github.com/moolen/triage/internal/external"
	"github.com/moolen/triage/internal/kube"
	"github.com/moolen/triage/internal/logging"
	"github.com/moolen/triage/internal/models"
	"github.com/moolen/triage/internal/tracing"
)

var (
	configPath         string
	namespaces         []string
	allNamespaces      bool
	filters            []string
	localChecks        bool
	continueOnError    bool
	enhance            bool
	analyzerBinary     string
	kubeconfigPath     string
	analyzeTimeout     time.Duration
	sortIssues         bool
	tracingEnabled     bool
	tracingEndpoint    string
	tracingTLSCAPath   string
	tracingTLSInsecure bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze cluster health and print the aggregated issue list",
	Long: `Analyze runs the external rule-based analyzer per namespace scope,
optionally augments it with direct cluster observation, and prints the
aggregated, severity-ranked issue list as JSON.`,
	Run: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	analyzeCmd.Flags().StringSliceVarP(&namespaces, "namespace", "n", nil,
		"Namespace to analyze; repeatable. Empty means all namespaces")
	analyzeCmd.Flags().BoolVarP(&allNamespaces, "all-namespaces", "A", false,
		"Analyze every namespace in one whole-cluster run")
	analyzeCmd.Flags().StringSliceVarP(&filters, "filter", "f", nil,
		"Resource kinds to analyze; empty means the full supported set")
	analyzeCmd.Flags().BoolVar(&localChecks, "local-checks", false,
		"Also run the direct observation collectors against the cluster API")
	analyzeCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false,
		"Continue with remaining namespaces when one analyzer invocation fails")
	analyzeCmd.Flags().BoolVar(&enhance, "enhance", false,
		"Request the optional non-local enhancement step")
	analyzeCmd.Flags().StringVar(&analyzerBinary, "analyzer-binary", external.DefaultBinary,
		"External analyzer executable")
	analyzeCmd.Flags().StringVar(&kubeconfigPath, "kubeconfig", "", "Path to the kubeconfig file")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute,
		"Overall deadline for the analysis run")
	analyzeCmd.Flags().BoolVar(&sortIssues, "sort", false,
		"Sort issues by severity, kind and name instead of source order")
	analyzeCmd.Flags().BoolVar(&tracingEnabled, "tracing-enabled", false, "Enable OpenTelemetry tracing")
	analyzeCmd.Flags().StringVar(&tracingEndpoint, "tracing-endpoint", "", "OTLP gRPC endpoint for traces")
	analyzeCmd.Flags().StringVar(&tracingTLSCAPath, "tracing-tls-ca", "", "Path to CA certificate for TLS verification")
	analyzeCmd.Flags().BoolVar(&tracingTLSInsecure, "tracing-tls-insecure", false, "Skip TLS certificate verification")
}

// buildConfig merges defaults, the optional config file, and explicit
// flags, in that order of precedence (flags win when set).
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	cfg.LogLevel = logLevel

	if configPath != "" {
		if err := config.LoadFile(cfg, configPath); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("analyzer-binary") {
		cfg.AnalyzerBinary = analyzerBinary
	}
	if cmd.Flags().Changed("continue-on-error") {
		cfg.ContinueOnError = continueOnError
	}
	if cmd.Flags().Changed("local-checks") {
		cfg.DirectChecks = localChecks
	}
	if cmd.Flags().Changed("enhance") {
		cfg.Enhance = enhance
	}
	if cmd.Flags().Changed("kubeconfig") {
		cfg.Kubeconfig = kubeconfigPath
	}
	if cmd.Flags().Changed("tracing-enabled") {
		cfg.TracingEnabled = tracingEnabled
	}
	if cmd.Flags().Changed("tracing-endpoint") {
		cfg.TracingEndpoint = tracingEndpoint
	}
	if cmd.Flags().Changed("tracing-tls-ca") {
		cfg.TracingTLSCAPath = tracingTLSCAPath
	}
	if cmd.Flags().Changed("tracing-tls-insecure") {
		cfg.TracingTLSInsecure = tracingTLSInsecure
	}

	return cfg, cfg.Validate()
}

func runAnalyze(cmd *cobra.Command, _ []string) {
	HandleError(setupLog(logLevel), "invalid log level")
	logger := logging.GetLogger("analyze")

	cfg, err := buildConfig(cmd)
	HandleError(err, "invalid configuration")

	tracer, err := tracing.NewProvider(tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		TLSCAPath:   cfg.TracingTLSCAPath,
		TLSInsecure: cfg.TracingTLSInsecure,
	})
	HandleError(err, "failed to initialize tracing")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	clusterName := "unknown"
	var clientset kubernetes.Interface
	client, err := kube.NewClient(cfg.Kubeconfig)
	if err != nil {
		// The external analyzer holds its own cluster connection; direct
		// checks and namespace validation need ours.
		if cfg.DirectChecks {
			HandleError(err, "failed to connect to cluster")
		}
		logger.Warn("cluster connection unavailable, continuing with external analyzer only: %v", err)
	} else {
		clusterName = client.ClusterName
		clientset = client.Clientset
	}

	scope := models.AnalysisScope{
		Namespaces:    namespaces,
		AllNamespaces: allNamespaces,
		Filters:       filters,
	}

	if clientset != nil && scope.ExplicitNamespaces() {
		HandleError(validateNamespaces(ctx, clientset, scope.Namespaces), "invalid scope")
	}

	var collectorSet []collectors.Collector
	if cfg.DirectChecks {
		collectorSet = collectors.DefaultSet(clientset)
	}

	eng := engine.New(
		external.NewAnalyzer(cfg.AnalyzerBinary),
		collectorSet,
		clusterName,
		engine.Options{
			ContinueOnError: cfg.ContinueOnError,
			DirectChecks:    cfg.DirectChecks,
			Enhance:         cfg.Enhance,
			MaxConcurrency:  cfg.MaxConcurrency,
		},
	)

	result, err := eng.Analyze(ctx, scope)
	HandleError(err, "analysis failed")

	if sortIssues {
		models.SortForDisplay(result.Issues)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	HandleError(encoder.Encode(result), "failed to encode result")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to flush traces: %v", err)
	}
}

// validateNamespaces fails fast when a requested namespace does not exist,
// so a typo surfaces as a clear error instead of an empty analysis.
func validateNamespaces(ctx context.Context, clientset kubernetes.Interface, names []string) error {
	for _, ns := range names {
		if _, err := clientset.CoreV1().Namespaces().Get(ctx, ns, metav1.GetOptions{}); err != nil {
			return fmt.Errorf("namespace %q: %w", ns, err)
		}
	}
	return nil
}
