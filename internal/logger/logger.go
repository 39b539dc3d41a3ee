package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	levelVar   slog.LevelVar
	loggerMu   sync.RWMutex
	baseLogger *slog.Logger

	sinkMu sync.RWMutex
	sinks  []Sink
)

// Sink receives every emitted log line after formatting. Implementations
// must not block; they run on the caller's goroutine.
type Sink interface {
	Write(level, message string)
}

func init() {
	levelVar.Set(slog.LevelInfo)
	baseLogger = newLogger(os.Stdout)
}

func newLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: &levelVar})
	return slog.New(handler)
}

func SetOutput(w io.Writer) {
	loggerMu.Lock()
	baseLogger = newLogger(w)
	loggerMu.Unlock()
}

// SetFile routes log output to both stdout and a size-rotated file.
func SetFile(path string, maxSizeMB, maxBackups int) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	if maxBackups <= 0 {
		maxBackups = 5
	}
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	SetOutput(io.MultiWriter(os.Stdout, rotator))
}

func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "info":
		levelVar.Set(slog.LevelInfo)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// AddSink registers an additional consumer of log lines (e.g. the recent-log
// store serving the operator API).
func AddSink(s Sink) {
	if s == nil {
		return
	}
	sinkMu.Lock()
	sinks = append(sinks, s)
	sinkMu.Unlock()
}

func emitToSinks(level, msg string) {
	sinkMu.RLock()
	local := sinks
	sinkMu.RUnlock()
	for _, s := range local {
		s.Write(level, msg)
	}
}

func activeLogger() *slog.Logger {
	loggerMu.RLock()
	l := baseLogger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if baseLogger == nil {
		baseLogger = newLogger(os.Stdout)
	}
	return baseLogger
}

func Debugf(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	activeLogger().Debug(msg)
	emitToSinks("debug", msg)
}

func Infof(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	activeLogger().Info(msg)
	emitToSinks("info", msg)
}

func Warnf(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	activeLogger().Warn(msg)
	emitToSinks("warn", msg)
}

func Errorf(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	activeLogger().Error(msg)
	emitToSinks("error", msg)
}

func InfoBlock(block string) {
	block = strings.TrimSpace(block)
	if block == "" {
		return
	}
	for _, line := range strings.Split(block, "\n") {
		Infof("%s", line)
	}
}
