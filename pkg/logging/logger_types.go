package logging

import (
	"io"
	"strings"
	"sync"
	"time"
)

// Level orders log entries by severity.
type Level int

const (
	DebugLevel Level = iota // per-operation detail: trims, compaction timings
	InfoLevel               // file lifecycle: create, open, compact
	WarnLevel               // recovered problems such as a truncated torn tail
	ErrorLevel              // failed syncs and writes
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < DebugLevel || l > ErrorLevel {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a level name, in any case, to a Level. Unknown names fall
// back to InfoLevel; "warning" is accepted for WarnLevel.
func ParseLevel(s string) Level {
	name := strings.ToUpper(s)
	if name == "WARNING" {
		return WarnLevel
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i)
		}
	}
	return InfoLevel
}

// Field is one key/value pair attached to an entry.
type Field struct {
	Key   string
	Value any
}

// Logger is what engines and tools log through. With returns a child that
// adds fields to every entry, e.g. the data file path of one engine.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// JSONLogger implements Logger with JSON output. Children created by With
// share the parent's writer lock so concurrent entries never interleave.
type JSONLogger struct {
	writer io.Writer
	level  Level
	fields []Field
	mu     *sync.Mutex
}

// LogEntry is the JSON shape of one line of output.
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NopLogger discards everything. Engines built for tests and embedders that
// bring their own logging use it.
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (n NopLogger) With(fields ...Field) Logger     { return n }
func (NopLogger) SetLevel(level Level)              {}
func (NopLogger) GetLevel() Level                   { return InfoLevel }

// NewNopLogger creates a logger that discards all output
func NewNopLogger() Logger {
	return NopLogger{}
}

// TimedOperation measures one engine operation
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}
