package mqttree

import (
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strings"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	// LogLevelDebug is the debug log level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the info log level.
	LogLevelInfo
	// LogLevelWarn is the warn log level.
	LogLevelWarn
	// LogLevelError is the error log level.
	LogLevelError
	// LogLevelNone disables all logging.
	LogLevelNone
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// LogFields represents key-value pairs for structured logging.
type LogFields map[string]any

// Logger defines the interface for logging.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, fields LogFields)

	// Info logs an info message.
	Info(msg string, fields LogFields)

	// Warn logs a warning message.
	Warn(msg string, fields LogFields)

	// Error logs an error message.
	Error(msg string, fields LogFields)

	// WithFields returns a new logger with the given fields added.
	WithFields(fields LogFields) Logger

	// Level returns the current log level.
	Level() LogLevel

	// SetLevel sets the log level.
	SetLevel(level LogLevel)
}

// NoOpLogger is a logger that does nothing.
type NoOpLogger struct {
	level LogLevel
}

// NewNoOpLogger creates a new no-op logger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{level: LogLevelNone}
}

// Debug does nothing.
func (n *NoOpLogger) Debug(_ string, _ LogFields) {}

// Info does nothing.
func (n *NoOpLogger) Info(_ string, _ LogFields) {}

// Warn does nothing.
func (n *NoOpLogger) Warn(_ string, _ LogFields) {}

// Error does nothing.
func (n *NoOpLogger) Error(_ string, _ LogFields) {}

// WithFields returns the same logger.
func (n *NoOpLogger) WithFields(_ LogFields) Logger {
	return n
}

// Level returns the log level.
func (n *NoOpLogger) Level() LogLevel {
	return n.level
}

// SetLevel sets the log level.
func (n *NoOpLogger) SetLevel(level LogLevel) {
	n.level = level
}

// StdLogger writes one line per entry through the standard log package.
// Fields are appended as sorted key=value pairs:
//
//	mqttree: 2025/01/02 15:04:05 [WARN] connect failed client=device error=refused
type StdLogger struct {
	out    *log.Logger
	level  LogLevel
	fields LogFields
}

// NewStdLogger creates a logger writing to w, or to stderr when w is nil.
func NewStdLogger(w io.Writer, level LogLevel) *StdLogger {
	if w == nil {
		w = os.Stderr
	}
	return &StdLogger{
		out:    log.New(w, "mqttree: ", log.LstdFlags),
		level:  level,
		fields: make(LogFields),
	}
}

func (s *StdLogger) Debug(msg string, fields LogFields) { s.write(LogLevelDebug, msg, fields) }
func (s *StdLogger) Info(msg string, fields LogFields)  { s.write(LogLevelInfo, msg, fields) }
func (s *StdLogger) Warn(msg string, fields LogFields)  { s.write(LogLevelWarn, msg, fields) }
func (s *StdLogger) Error(msg string, fields LogFields) { s.write(LogLevelError, msg, fields) }

// WithFields returns a child logger carrying fields on every entry.
// The parent is not modified.
func (s *StdLogger) WithFields(fields LogFields) Logger {
	return &StdLogger{
		out:    s.out,
		level:  s.level,
		fields: mergeFields(s.fields, fields),
	}
}

// Level returns the minimum level written.
func (s *StdLogger) Level() LogLevel {
	return s.level
}

// SetLevel changes the minimum level written.
func (s *StdLogger) SetLevel(level LogLevel) {
	s.level = level
}

func (s *StdLogger) write(level LogLevel, msg string, fields LogFields) {
	if level < s.level {
		return
	}

	var sb strings.Builder
	sb.WriteString("[" + level.String() + "] " + msg)

	all := mergeFields(s.fields, fields)
	for _, key := range slices.Sorted(maps.Keys(all)) {
		fmt.Fprintf(&sb, " %s=%v", key, all[key])
	}

	s.out.Print(sb.String())
}

func mergeFields(base, extra LogFields) LogFields {
	merged := make(LogFields, len(base)+len(extra))
	maps.Copy(merged, base)
	maps.Copy(merged, extra)
	return merged
}

// Standard field names for tree logging.
const (
	// LogFieldClient is the client (root group) name field.
	LogFieldClient = "client"

	// LogFieldTopic is the topic field.
	LogFieldTopic = "topic"

	// LogFieldPayload is the payload field.
	LogFieldPayload = "payload"

	// LogFieldCode is the result code field.
	LogFieldCode = "code"

	// LogFieldState is the client state field.
	LogFieldState = "state"

	// LogFieldQoS is the QoS field.
	LogFieldQoS = "qos"

	// LogFieldError is the error field.
	LogFieldError = "error"

	// LogFieldBytes is the bytes field.
	LogFieldBytes = "bytes"
)
