package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// Output streams. ERROR and FATAL go to stderr, everything else to stdout.
// Overridable for testing.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// writeLog formats the message with optional fields and routes it to the
// appropriate stream. Fields are emitted in sorted key order so output is
// deterministic.
func (l *Logger) writeLog(level, msg string, fields map[string]interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s: %s", GetTimestamp(), level, l.name, msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}

	out := stdout
	if level == "ERROR" || level == "FATAL" {
		out = stderr
	}
	fmt.Fprintln(out, b.String())
}

// GetTimestamp returns an RFC3339 timestamp for log lines.
// Can be overridden via the LOG_TIMESTAMP env var for deterministic tests.
func GetTimestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
