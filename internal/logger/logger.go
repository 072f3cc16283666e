// Package logger wraps charmbracelet/log with the small, stable API the
// rest of this repo depends on, so call sites never import the underlying
// logging library directly.
package logger

import (
	"io"
	"os"
	"sort"
	"strings"

	cblog "github.com/charmbracelet/log"
)

// Options configures a Logger at construction time.
type Options struct {
	Level     string
	Writer    io.Writer
	Component string
	JSON      bool
}

// Logger is a structured, leveled logger with persistent fields.
type Logger struct {
	base   *cblog.Logger
	fields []interface{}
}

// New builds a Logger from Options.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}

	level := cblog.InfoLevel
	if opts.Level != "" {
		parsed, err := cblog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	cblogOpts := cblog.Options{
		Level:           level,
		ReportTimestamp: true,
	}
	if opts.JSON {
		cblogOpts.Formatter = cblog.JSONFormatter
	}

	base := cblog.NewWithOptions(writer, cblogOpts)

	var fields []interface{}
	if opts.Component != "" {
		fields = append(fields, "component", opts.Component)
	}

	return &Logger{base: base, fields: fields}, nil
}

// With returns a derived Logger that always includes the given key/value
// pairs, in addition to any inherited from the parent.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	if l == nil {
		return nil
	}
	next := make([]interface{}, 0, len(l.fields)+len(keyvals))
	next = append(next, l.fields...)
	next = append(next, keyvals...)
	return &Logger{base: l.base, fields: next}
}

// Debug writes a debug-level log line.
func (l *Logger) Debug(msg string, keyvals ...interface{}) { l.log(cblog.DebugLevel, msg, keyvals...) }

// Info writes an info-level log line.
func (l *Logger) Info(msg string, keyvals ...interface{}) { l.log(cblog.InfoLevel, msg, keyvals...) }

// Warn writes a warning-level log line.
func (l *Logger) Warn(msg string, keyvals ...interface{}) { l.log(cblog.WarnLevel, msg, keyvals...) }

// Error writes an error-level log line, including err as a field when
// non-nil.
func (l *Logger) Error(err error, msg string, keyvals ...interface{}) {
	if err != nil {
		keyvals = append(keyvals, "error", err)
	}
	l.log(cblog.ErrorLevel, msg, keyvals...)
}

func (l *Logger) log(level cblog.Level, msg string, keyvals ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	payload := merge(l.fields, keyvals)
	switch level {
	case cblog.DebugLevel:
		l.base.Debug(msg, payload...)
	case cblog.WarnLevel:
		l.base.Warn(msg, payload...)
	case cblog.ErrorLevel:
		l.base.Error(msg, payload...)
	default:
		l.base.Info(msg, payload...)
	}
}

// merge deduplicates keys across base and additional fields, preferring the
// last value assigned for each key, and returns them sorted by key for
// deterministic JSON field ordering in tests.
func merge(base, additional []interface{}) []interface{} {
	store := make(map[string]interface{})
	order := make([]string, 0, (len(base)+len(additional))/2)

	add := func(values []interface{}) {
		for i := 0; i+1 < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			if _, exists := store[key]; !exists {
				order = append(order, key)
			}
			store[key] = values[i+1]
		}
	}
	add(base)
	add(additional)

	sort.Strings(order)
	out := make([]interface{}, 0, len(order)*2)
	for _, k := range order {
		out = append(out, k, store[k])
	}
	return out
}
