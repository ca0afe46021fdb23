package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Logger handles leveled logging to the console with optional file output
type Logger struct {
	Verbose bool
	mu      sync.Mutex
	console *log.Logger
	file    *log.Logger
	fileLog *os.File
	hasBar  bool
}

// New creates a new Logger writing to stderr
func New(verbose bool) *Logger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter creates a Logger writing console output to w
func NewWithWriter(w io.Writer, verbose bool) *Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return &Logger{
		Verbose: verbose,
		console: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			Prefix:          "leftasrain",
			Level:           level,
		}),
	}
}

// Configure applies a level (debug, info, warn, error) and a formatter
// (text, json, logfmt) to console output. The file log always uses logfmt.
// Empty values keep the current setting.
func (l *Logger) Configure(level, format string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level != "" && !l.Verbose {
		lvl, err := log.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		l.console.SetLevel(lvl)
	}

	f, err := formatter(format)
	if err != nil {
		return err
	}
	l.console.SetFormatter(f)
	return nil
}

func formatter(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	}
	return log.TextFormatter, fmt.Errorf("invalid log format %q, valid formats: text, json, logfmt", format)
}

// SetFileLog enables logging to a file. The file always receives debug output.
func (l *Logger) SetFileLog(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.fileLog = f
	l.file = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.DebugLevel,
		Formatter:       log.LogfmtFormatter,
	})
	return nil
}

// SetProgressBar indicates that a progress bar is active
func (l *Logger) SetProgressBar(active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hasBar = active
}

// Close closes the log file if open
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLog != nil {
		err := l.fileLog.Close()
		l.fileLog = nil
		l.file = nil
		return err
	}
	return nil
}

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(log.InfoLevel, format, args...)
}

// Debug logs detailed messages, shown on the console only in verbose mode
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(log.DebugLevel, format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(log.WarnLevel, format, args...)
}

// Error logs error messages. Errors are printed even while a progress bar is active.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(log.ErrorLevel, format, args...)
}

func (l *Logger) log(level log.Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.Verbose || !l.hasBar || level >= log.ErrorLevel {
		l.console.Log(level, msg)
	}

	if l.file != nil {
		l.file.Log(level, msg)
	}
}
