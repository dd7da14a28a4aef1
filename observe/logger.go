package observe

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"slices"
	"sync"
	"time"
)

// LogLevel orders log severities. Entries below the logger's level are
// dropped.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

// ParseLogLevel maps a level name to its LogLevel. Unknown names fall back
// to info.
func ParseLogLevel(s string) LogLevel {
	for i, name := range levelNames {
		if s == name {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return "info"
	}
	return levelNames[l]
}

// structuredLogger writes one JSON object per line. WithOp derives child
// loggers carrying op.* attributes; the writer and its mutex are shared
// across the whole derivation tree.
type structuredLogger struct {
	minLevel LogLevel
	out      io.Writer
	mu       *sync.Mutex
	attrs    map[string]any
}

// NewLogger creates a JSON logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a JSON logger with a custom writer.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &structuredLogger{
		minLevel: ParseLogLevel(level),
		out:      w,
		mu:       &sync.Mutex{},
		attrs:    map[string]any{},
	}
}

// WithOp returns a child logger that stamps every entry with the
// operation's identity.
func (l *structuredLogger) WithOp(meta OpMeta) Logger {
	attrs := make(map[string]any, len(l.attrs)+4)
	for k, v := range l.attrs {
		attrs[k] = v
	}
	attrs["op.id"] = meta.ID()
	attrs["op.platform"] = meta.Platform
	attrs["op.operation"] = meta.Operation
	if meta.Class != "" {
		attrs["op.class"] = meta.Class
	}

	return &structuredLogger{minLevel: l.minLevel, out: l.out, mu: l.mu, attrs: attrs}
}

func (l *structuredLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelDebug, msg, fields)
}

func (l *structuredLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelInfo, msg, fields)
}

func (l *structuredLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelWarn, msg, fields)
}

func (l *structuredLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.emit(LevelError, msg, fields)
}

func (l *structuredLogger) emit(level LogLevel, msg string, fields []Field) {
	if level < l.minLevel {
		return
	}

	entry := make(map[string]any, len(l.attrs)+len(fields)+3)
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg

	for k, v := range l.attrs {
		entry[k] = v
	}
	for _, f := range fields {
		// Credential-bearing fields never reach the sink in the clear.
		if slices.Contains(RedactedFields, f.Key) {
			entry[f.Key] = "[REDACTED]"
			continue
		}
		entry[f.Key] = f.Value
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(line)
}

var _ Logger = (*structuredLogger)(nil)
