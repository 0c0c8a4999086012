// Package logger writes prefixed console messages and, optionally, a
// timestamped copy of every message to a log file.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
)

// Level is the severity of a log line.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// String returns the console prefix for the level.
func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

var levelStyles = map[Level]lipgloss.Style{
	LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
}

// Logger is safe for concurrent use.
type Logger struct {
	mu       sync.Mutex
	console  io.Writer
	file     *log.Logger
	minLevel Level
}

// New returns a Logger that writes to console. A nil console discards output.
func New(console io.Writer) *Logger {
	if console == nil {
		console = io.Discard
	}
	return &Logger{console: console}
}

// SetMinLevel suppresses console lines below level. The log file still gets everything.
func (l *Logger) SetMinLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// AttachFile appends every subsequent line to the file at logFilePath.
// It returns the log file, which the caller is responsible for closing.
func (l *Logger) AttachFile(logFilePath string) (*os.File, error) {
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log file")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.file = log.New(logFile, "", log.Ldate|log.Ltime|log.Lmicroseconds)

	return logFile, nil
}

// Infof logs an informational message.
func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, format, args...)
}

// Warnf logs a warning.
func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, format, args...)
}

// Errorf logs an error.
func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, format, args...)
}

func (l *Logger) logf(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if level >= l.minLevel {
		fmt.Fprintf(l.console, "%s: %s\n", levelStyles[level].Render(level.String()), msg)
	}
	if l.file != nil {
		l.file.Printf("%s: %s", level, msg)
	}
}
