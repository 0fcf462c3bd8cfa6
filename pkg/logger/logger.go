// Package logger provides the shared log sink for the harness.
//
// The harness usually runs underneath an external test runner that owns
// stdout, so the default sink is a file; Verbose() additionally echoes to
// stderr for interactive debugging.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	globalLogger *log.Logger
	logFile      *os.File
	echo         bool
	mu           sync.Mutex
)

// Init initializes the global logger with the specified log file path.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	globalLogger = log.New(f, "", log.Ltime|log.Lmicroseconds)

	return nil
}

// Verbose enables or disables echoing log lines to stderr.
func Verbose(on bool) {
	mu.Lock()
	defer mu.Unlock()
	echo = on
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func logf(level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Printf("["+level+"] "+format, v...)
	}
	if echo {
		fmt.Fprintf(os.Stderr, "["+level+"] "+format+"\n", v...)
	}
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	logf("INFO", format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	logf("DEBUG", format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	logf("ERROR", format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	logf("WARN", format, v...)
}

// GetWriter returns the underlying writer for use by subsystems that need
// a raw sink (driver HTTP timing, hook script console output).
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}
