// Package config holds the process-wide configuration for triage. The
// configuration is built once at startup from flags and an optional YAML
// file, validated, and never mutated afterwards.
package config

// Config holds all configuration for the application
type Config struct {
	// AnalyzerBinary is the external analyzer executable, resolved from
	// PATH when not absolute.
	AnalyzerBinary string `yaml:"analyzer_binary"`

	// ContinueOnError keeps analyzing remaining namespaces when one
	// external invocation fails instead of aborting the run.
	ContinueOnError bool `yaml:"continue_on_error"`

	// DirectChecks enables the direct observation collectors in addition
	// to the external analyzer.
	DirectChecks bool `yaml:"direct_checks"`

	// Enhance gates the optional non-local enhancement step
	// (default: disabled, local-only analysis).
	Enhance bool `yaml:"enhance"`

	// MaxConcurrency bounds parallel external analyzer invocations.
	MaxConcurrency int `yaml:"max_concurrency"`

	// Kubeconfig is an explicit kubeconfig path; empty uses in-cluster
	// config or the default loading rules.
	Kubeconfig string `yaml:"kubeconfig"`

	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// TracingEnabled indicates whether OpenTelemetry tracing is enabled
	TracingEnabled bool `yaml:"tracing_enabled"`

	// TracingEndpoint is the OTLP gRPC endpoint for trace export
	TracingEndpoint string `yaml:"tracing_endpoint"`

	// TracingTLSCAPath is the path to the CA certificate for TLS verification
	TracingTLSCAPath string `yaml:"tracing_tls_ca_path"`

	// TracingTLSInsecure skips TLS certificate verification
	TracingTLSInsecure bool `yaml:"tracing_tls_insecure"`
}

// Default returns a Config with the defaults applied.
func Default() *Config {
	return &Config{
		AnalyzerBinary: "k8sgpt",
		MaxConcurrency: 4,
		LogLevel:       "info",
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.AnalyzerBinary == "" {
		return NewConfigError("AnalyzerBinary must not be empty")
	}

	if c.MaxConcurrency < 1 {
		return NewConfigError("MaxConcurrency must be at least 1")
	}

	if c.TracingEnabled && c.TracingEndpoint == "" {
		return NewConfigError("TracingEndpoint must be set when tracing is enabled")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return NewConfigError("LogLevel must be one of: debug, info, warn, error, fatal")
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
