package logger

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// Package-level default logger. Until InitFromConfig runs, messages fall
// back to the standard library logger so early startup is never silent.
var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

// InitFromConfig replaces the default logger with one built from the
// application configuration.
func InitFromConfig(level, filePath string, maxSize, maxBackups int, console bool) error {
	logLevel, err := ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := DefaultConfig()
	cfg.Level = logLevel
	cfg.Console = console
	if filePath != "" {
		cfg.FilePath = filePath
	}
	if maxSize > 0 {
		cfg.MaxSize = maxSize
	}
	if maxBackups > 0 {
		cfg.MaxBackups = maxBackups
	}

	l, err := New(cfg)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	if defaultLogger != nil {
		defaultLogger.Close()
	}
	defaultLogger = l
	defaultMu.Unlock()
	return nil
}

// ParseLevel parses a log level string.
func ParseLevel(level string) (Level, error) {
	switch strings.ToUpper(level) {
	case "", "INFO":
		return INFO, nil
	case "DEBUG":
		return DEBUG, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level: %s", level)
	}
}

func current() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Debug logs at debug level on the default logger.
func Debug(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Debug(format, args...)
		return
	}
	log.Printf("[DEBUG] "+format, args...)
}

// Info logs at info level on the default logger.
func Info(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Info(format, args...)
		return
	}
	log.Printf("[INFO] "+format, args...)
}

// Warn logs at warning level on the default logger.
func Warn(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Warn(format, args...)
		return
	}
	log.Printf("[WARN] "+format, args...)
}

// Error logs at error level on the default logger.
func Error(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Error(format, args...)
		return
	}
	log.Printf("[ERROR] "+format, args...)
}

// Close closes the default logger.
func Close() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger != nil {
		err := defaultLogger.Close()
		defaultLogger = nil
		return err
	}
	return nil
}
