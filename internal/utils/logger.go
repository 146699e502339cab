package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level orders log lines by severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelTags = [...]string{
	LevelDebug: "[DEBUG]",
	LevelInfo:  "[INFO]",
	LevelWarn:  "[WARN]",
	LevelError: "[ERROR]",
}

func (lv Level) String() string {
	if lv < LevelDebug || lv > LevelError {
		return fmt.Sprintf("[LEVEL%d]", int(lv))
	}
	return levelTags[lv]
}

// Logger writes leveled lines to a single writer. Debug lines are dropped
// unless verbose is on and carry a wall-clock prefix.
type Logger struct {
	mu      sync.RWMutex
	verbose bool
	out     io.Writer
}

var (
	loggerInstance *Logger
	once           sync.Once
)

// GetLogger returns the process-wide logger. It writes to stderr until
// SetOutput says otherwise.
func GetLogger() *Logger {
	once.Do(func() {
		loggerInstance = &Logger{out: os.Stderr}
	})
	return loggerInstance
}

// SetVerboseMode toggles debug lines on the process-wide logger.
func SetVerboseMode(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

// SetOutput redirects the process-wide logger. nil means stderr.
func SetOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}

func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	l.verbose = verbose
	l.mu.Unlock()
}

func (l *Logger) SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// Log writes one line at lv. msg is only treated as a format string when
// args are given, so a literal "%" survives.
func (l *Logger) Log(lv Level, msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lv == LevelDebug {
		if !l.verbose {
			return
		}
		_, _ = fmt.Fprintf(l.out, "%s %s %s\n", time.Now().Format(time.TimeOnly), lv, msg)
		return
	}
	_, _ = fmt.Fprintf(l.out, "%s %s\n", lv, msg)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.Log(LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.Log(LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.Log(LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.Log(LevelError, msg, args...) }

// Debugf logs on the process-wide logger; same for Infof, Warnf and Errorf.
func Debugf(format string, args ...interface{}) { GetLogger().Log(LevelDebug, format, args...) }

func Infof(format string, args ...interface{})  { GetLogger().Log(LevelInfo, format, args...) }
func Warnf(format string, args ...interface{})  { GetLogger().Log(LevelWarn, format, args...) }
func Errorf(format string, args ...interface{}) { GetLogger().Log(LevelError, format, args...) }
