// Package logger provides process-wide logging for the factura CLI.
// Messages are routed through a single logrus logger. Debug and Info
// lines are only emitted in verbose mode; warnings and errors always are.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu      sync.RWMutex
	verbose bool
	log     = newLogrus(os.Stderr)
)

func newLogrus(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(lineFormatter{})
	l.SetLevel(logrus.WarnLevel)
	return l
}

// lineFormatter renders "[LEVEL] message key=value" lines.
type lineFormatter struct{}

func (lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(e.Level.String()), e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log.SetOutput(w)
}

// Debug logs a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	log.Debugf(format, args...)
}

// Info logs an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	log.Infof(format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	log.Warnf(format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	log.Errorf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(log.Out, "\n=== %s ===\n", name)
	}
}

// WithSite returns an entry tagged with the site name and provider key.
func WithSite(site, provider string) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"site":     site,
		"provider": provider,
	})
}

// Leveled adapts the logger to the key/value interface used by
// HTTP retry clients.
type Leveled struct{}

// Error logs msg with key/value pairs at error level.
func (Leveled) Error(msg string, keysAndValues ...any) {
	log.WithFields(pairs(keysAndValues)).Error(msg)
}

// Warn logs msg with key/value pairs at warn level.
func (Leveled) Warn(msg string, keysAndValues ...any) {
	log.WithFields(pairs(keysAndValues)).Warn(msg)
}

// Info logs msg with key/value pairs at info level.
func (Leveled) Info(msg string, keysAndValues ...any) {
	log.WithFields(pairs(keysAndValues)).Info(msg)
}

// Debug logs msg with key/value pairs at debug level.
func (Leveled) Debug(msg string, keysAndValues ...any) {
	log.WithFields(pairs(keysAndValues)).Debug(msg)
}

func pairs(kv []any) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
