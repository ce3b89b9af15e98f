package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ANSI colour codes for console output.
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
)

// Logger echoes coloured lines to the console and plain, dated lines to the run log.
type Logger struct {
	mu      sync.Mutex
	console io.Writer
	file    io.Writer
	now     func() time.Time
}

// NewLogger builds a logger. Either writer may be nil.
func NewLogger(console, file io.Writer) *Logger {
	return &Logger{console: console, file: file, now: time.Now}
}

// Discard returns a logger that writes nowhere; handy in tests.
func Discard() *Logger {
	return NewLogger(nil, nil)
}

// OpenRunLog truncates the run log at path and returns a logger that tees to it and stdout.
func OpenRunLog(path string) (*Logger, io.Closer, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open run log: %w", err)
	}
	return NewLogger(os.Stdout, f), f, nil
}

func (l *Logger) write(colour, level, format string, a ...interface{}) {
	if l == nil {
		return
	}
	msg := fmt.Sprintf(format, a...)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.console != nil {
		fmt.Fprintf(l.console, "%s[%s] [%s] %s%s\n", colour, now.Format("15:04:05"), level, msg, reset)
	}
	if l.file != nil {
		fmt.Fprintf(l.file, "%s - %s - %s\n", now.Format("2006-01-02 15:04:05"), level, msg)
	}
}

func (l *Logger) Info(format string, a ...interface{}) {
	l.write(blue, "INFO ", format, a...)
}

func (l *Logger) Success(format string, a ...interface{}) {
	l.write(green, "OK   ", format, a...)
}

func (l *Logger) Warn(format string, a ...interface{}) {
	l.write(yellow, "WARN ", format, a...)
}

func (l *Logger) Error(format string, a ...interface{}) {
	l.write(red, "ERROR", format, a...)
}

func (l *Logger) Section(title string) {
	l.write(cyan, "INFO ", "══════════ %s ══════════", title)
}
