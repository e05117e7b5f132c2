package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Logger provides leveled logging (info/warning/error) to files and
// stdout/stderr.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	files      []*os.File
	mu         sync.Mutex
}

// New creates a Logger and ensures the log directory exists.
func New(logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{}

	infoFile, err := l.openLogFile(filepath.Join(logDir, "info.log"))
	if err != nil {
		return nil, err
	}
	warningFile, err := l.openLogFile(filepath.Join(logDir, "warning.log"))
	if err != nil {
		return nil, err
	}
	errorFile, err := l.openLogFile(filepath.Join(logDir, "error.log"))
	if err != nil {
		return nil, err
	}

	l.infoLog = log.New(io.MultiWriter(os.Stdout, infoFile), "ℹ️  INFO    ", log.Ldate|log.Ltime)
	l.warningLog = log.New(io.MultiWriter(os.Stdout, warningFile), "⚠️  WARNING ", log.Ldate|log.Ltime)
	l.errorLog = log.New(io.MultiWriter(os.Stderr, errorFile), "❌ ERROR   ", log.Ldate|log.Ltime)

	return l, nil
}

// openLogFile opens or creates a log file for appending.
func (l *Logger) openLogFile(filename string) (*os.File, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filename, err)
	}
	l.files = append(l.files, file)
	return file, nil
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Printf(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Printf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Printf(format, v...)
}

// Close closes the underlying log files.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range l.files {
		f.Close()
	}
	l.files = nil
}
