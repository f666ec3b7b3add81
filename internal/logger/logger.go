// Package logger is esgmon's stderr logger. Debug, Info and Warn lines only
// appear with --verbose and trace the digest pipeline: retrieval fan-out,
// delegation attempts and repairs made to model output. Errors always print.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARN"
	levelError level = "ERROR"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr

	// now is swapped in tests of Timed.
	now = time.Now
)

// SetVerbose turns the non-error levels on or off.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether non-error levels print.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all log lines. The default is os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// logf takes the write lock so concurrent lines never interleave.
func logf(lvl level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if lvl != levelError && !verbose {
		return
	}
	fmt.Fprintf(output, "[%s] %s\n", lvl, fmt.Sprintf(format, args...))
}

// Debug logs pipeline detail.
func Debug(format string, args ...any) { logf(levelDebug, format, args...) }

// Info logs progress.
func Info(format string, args ...any) { logf(levelInfo, format, args...) }

// Warn logs a recoverable problem, such as a failed query or a repaired field.
func Warn(format string, args ...any) { logf(levelWarn, format, args...) }

// Error logs unconditionally.
func Error(format string, args ...any) { logf(levelError, format, args...) }

// Section prints a stage banner in verbose mode.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed logs the start of a stage and returns a func that logs its duration.
//
//	defer logger.Timed("retrieval")()
func Timed(stage string) func() {
	start := now()
	Debug("%s: started", stage)
	return func() {
		Debug("%s: finished in %s", stage, now().Sub(start).Round(time.Millisecond))
	}
}
