// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

func init() {
	// Debug lines are emitted at trace level; verbosity gating happens
	// in Logger, not in zerolog.
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// Logger writes levelled messages through zerolog's console writer
// with optional timestamps and level prefixes.
type Logger struct {
	level      LogLevel
	output     io.Writer
	mu         sync.Mutex
	timestamps bool // if true, prepend HH:MM:SS.mmm timestamps
	zl         zerolog.Logger
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	l := &Logger{
		level:      LogLevel(verbosity),
		output:     os.Stderr,
		timestamps: verbosity >= 3, // auto-enable timestamps in debug mode
	}
	l.rebuild()
	return l
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timestamps = on
	l.rebuild()
}

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	l.rebuild()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// Info prints when verbosity ≥ 1.  Prefixed with [INF].
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.write(zerolog.InfoLevel, format, args...)
	}
}

// Warn prints when verbosity ≥ 1.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.write(zerolog.WarnLevel, format, args...)
	}
}

// Verbose prints when verbosity ≥ 2.  Prefixed with [VRB].
func (l *Logger) Verbose(format string, args ...interface{}) {
	if l.level >= LogVerbose {
		l.write(zerolog.DebugLevel, format, args...)
	}
}

// Debug prints when verbosity ≥ 3.  Prefixed with [DBG].
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogDebug {
		l.write(zerolog.TraceLevel, format, args...)
	}
}

// Error always prints regardless of verbosity.  Prefixed with [ERR].
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(zerolog.ErrorLevel, format, args...)
}

func (l *Logger) write(level zerolog.Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zl.WithLevel(level).Msg(fmt.Sprintf(format, args...))
}

// rebuild recreates the zerolog pipeline; callers hold l.mu or own l
// exclusively.
func (l *Logger) rebuild() {
	cw := zerolog.ConsoleWriter{
		Out:         l.output,
		NoColor:     true,
		TimeFormat:  "15:04:05.000",
		FormatLevel: formatLevel,
	}
	if !l.timestamps {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	l.zl = zerolog.New(cw).With().Timestamp().Logger()
}

func formatLevel(i interface{}) string {
	s, _ := i.(string)
	switch s {
	case zerolog.LevelTraceValue:
		return "[DBG]"
	case zerolog.LevelDebugValue:
		return "[VRB]"
	case zerolog.LevelInfoValue:
		return "[INF]"
	case zerolog.LevelWarnValue:
		return "[WRN]"
	case zerolog.LevelErrorValue:
		return "[ERR]"
	default:
		return "[???]"
	}
}
