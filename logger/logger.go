package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Level is the log level.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var levelColors = map[Level]string{
	DEBUG: "\033[90m",
	INFO:  "\033[32m",
	WARN:  "\033[33m",
	ERROR: "\033[31m",
}

// Logger is a leveled printf-style logger writing to a size-rotated file
// and optionally to the console.
type Logger struct {
	level       Level
	console     bool
	file        *os.File
	filePath    string
	maxSize     int64
	maxBackups  int
	currentSize int64
	mu          sync.Mutex
}

// Config configures a Logger.
type Config struct {
	Level Level
	// FilePath is the active log file; rotated backups sit next to it.
	FilePath string
	// MaxSize is the rotation threshold in megabytes.
	MaxSize    int
	MaxBackups int
	Console    bool
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Level:      INFO,
		FilePath:   "./logs/bridge.log",
		MaxSize:    10,
		MaxBackups: 5,
		Console:    true,
	}
}

// New creates a logger.
func New(cfg Config) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log file: %v", err)
	}

	return &Logger{
		level:       cfg.Level,
		console:     cfg.Console,
		file:        file,
		filePath:    cfg.FilePath,
		maxSize:     int64(cfg.MaxSize) * 1024 * 1024,
		maxBackups:  cfg.MaxBackups,
		currentSize: info.Size(),
	}, nil
}

// SetLevel changes the log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, file, line, ok := runtime.Caller(3)
	if !ok {
		file, line = "unknown", 0
	}
	file = filepath.Base(file)

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)

	plain := fmt.Sprintf("%s [%s] %s:%d: %s\n", timestamp, levelNames[level], file, line, msg)
	n, err := io.WriteString(l.file, plain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write log: %v\n", err)
	}
	l.currentSize += int64(n)

	if l.console {
		fmt.Fprintf(os.Stdout, "%s [%s%s\033[0m] %s:%d: %s\n",
			timestamp, levelColors[level], levelNames[level], file, line, msg)
	}

	if l.currentSize >= l.maxSize {
		l.rotate()
	}
}

// rotate renames the active file with a timestamp suffix and starts a new
// one, pruning the oldest backups beyond maxBackups.
func (l *Logger) rotate() {
	l.file.Close()

	timestamp := time.Now().Format("20060102-150405")
	ext := filepath.Ext(l.filePath)
	base := l.filePath[:len(l.filePath)-len(ext)]
	os.Rename(l.filePath, fmt.Sprintf("%s.%s%s", base, timestamp, ext))

	l.pruneBackups(base, ext)

	file, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create new log file: %v\n", err)
		return
	}
	l.file = file
	l.currentSize = 0
}

func (l *Logger) pruneBackups(base, ext string) {
	matches, err := filepath.Glob(base + ".*" + ext)
	if err != nil || len(matches) <= l.maxBackups {
		return
	}

	type backup struct {
		path string
		mod  time.Time
	}
	backups := make([]backup, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		backups = append(backups, backup{match, info.ModTime()})
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].mod.Before(backups[j].mod) })
	for i := 0; i < len(backups)-l.maxBackups; i++ {
		os.Remove(backups[i].path)
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) { l.log(INFO, format, args...) }

// Warn logs at warning level.
func (l *Logger) Warn(format string, args ...interface{}) { l.log(WARN, format, args...) }

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
