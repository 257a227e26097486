package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moolen/triage/internal/logging"
)

const Version = "0.1.0"

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Triage - Kubernetes cluster health aggregation",
	Long: `Triage collects health signals about a running cluster's workloads and
merges them into a single, deduplicated, severity-ranked issue list. It
combines an external rule-based analyzer with direct cluster observation.`,
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level (debug, info, warn, error, fatal)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLog validates the log level flag and initializes the logging system
func setupLog(level string) error {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error, fatal)", level)
	}
	logging.Initialize(level)
	return nil
}

// HandleError prints error and exits
func HandleError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}
