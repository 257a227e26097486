// Package logging provides leveled, structured logging for triage.
//
// Initialize the logger once at startup:
//
//	logging.Initialize("info")
//
// Get a named logger for your component:
//
//	logger := logging.GetLogger("engine")
//	logger.Info("analysis started")
//
// Use structured fields for better searchability:
//
//	logger.InfoWithFields("analysis complete",
//	    logging.Field("run_id", runID),
//	    logging.Field("issues", total),
//	)
//
// Logger instances are immutable; WithField returns a new instance, so
// loggers are safe to share across goroutines.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// LogLevel represents the logging level
type LogLevel int

const (
	// DEBUG level for detailed debugging information
	DEBUG LogLevel = iota
	// INFO level for informational messages
	INFO
	// WARN level for warning messages
	WARN
	// ERROR level for error messages
	ERROR
	// FATAL level for fatal messages
	FATAL
)

// LogField represents a structured logging field
type LogField struct {
	Key   string
	Value interface{}
}

// Field creates a structured logging field
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// Logger provides leveled structured logging
type Logger struct {
	level  LogLevel
	name   string
	fields map[string]interface{}
}

var (
	globalLevel LogLevel = INFO
	levelMutex  sync.RWMutex
	// exitFunc is called by Fatal. Overridable for testing.
	exitFunc = os.Exit
)

// ParseLevel converts a level string to a LogLevel. Unknown strings
// default to INFO.
func ParseLevel(levelStr string) LogLevel {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// Initialize sets the process-wide default log level.
func Initialize(levelStr string) {
	levelMutex.Lock()
	defer levelMutex.Unlock()
	globalLevel = ParseLevel(levelStr)
}

// GetLogger returns a logger with the specified component name.
func GetLogger(name string) *Logger {
	levelMutex.RLock()
	defer levelMutex.RUnlock()
	return &Logger{
		level:  globalLevel,
		name:   name,
		fields: make(map[string]interface{}),
	}
}

// WithName returns a new logger with a different component name.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{level: l.level, name: name, fields: cloneFields(l.fields)}
}

// WithField returns a new logger carrying an additional persistent field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	nl := &Logger{level: l.level, name: l.name, fields: cloneFields(l.fields)}
	nl.fields[key] = value
	return nl
}

// WithFields returns a new logger carrying additional persistent fields.
func (l *Logger) WithFields(fields ...LogField) *Logger {
	nl := &Logger{level: l.level, name: l.name, fields: cloneFields(l.fields)}
	for _, f := range fields {
		nl.fields[f.Key] = f.Value
	}
	return nl
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= DEBUG {
		l.logf("DEBUG", msg, args...)
	}
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= INFO {
		l.logf("INFO", msg, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= WARN {
		l.logf("WARN", msg, args...)
	}
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.level <= ERROR {
		l.logf("ERROR", msg, args...)
	}
}

// ErrorWithErr logs an error message with an error object appended.
func (l *Logger) ErrorWithErr(msg string, err error, args ...interface{}) {
	if l.level <= ERROR {
		args = append(args, err)
		l.logf("ERROR", msg+" - %v", args...)
	}
}

// Fatal logs a fatal message and exits the program with code 1
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.logf("FATAL", msg, args...)
	exitFunc(1)
}

// DebugWithFields logs a debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields ...LogField) {
	if l.level <= DEBUG {
		l.logWithFields("DEBUG", msg, fields...)
	}
}

// InfoWithFields logs an info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields ...LogField) {
	if l.level <= INFO {
		l.logWithFields("INFO", msg, fields...)
	}
}

// WarnWithFields logs a warning message with structured fields
func (l *Logger) WarnWithFields(msg string, fields ...LogField) {
	if l.level <= WARN {
		l.logWithFields("WARN", msg, fields...)
	}
}

// ErrorWithFields logs an error message with structured fields
func (l *Logger) ErrorWithFields(msg string, fields ...LogField) {
	if l.level <= ERROR {
		l.logWithFields("ERROR", msg, fields...)
	}
}

func (l *Logger) logf(level, msg string, args ...interface{}) {
	l.writeLog(level, fmt.Sprintf(msg, args...), l.fields)
}

func (l *Logger) logWithFields(level, msg string, fields ...LogField) {
	merged := cloneFields(l.fields)
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	l.writeLog(level, msg, merged)
}

func cloneFields(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
