package search

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Verbosity controls how much a SearchLogger reports.
type Verbosity int

// Verbosity levels, from quietest to loudest. Each level includes the ones before it.
const (
	// VerbositySilent discards everything.
	VerbositySilent Verbosity = iota
	// VerbosityError reports failures only.
	VerbosityError
	// VerbosityWarning adds conditions that degrade a build or search.
	VerbosityWarning
	// VerbosityInfo adds table sizes and build times.
	VerbosityInfo
	// VerbosityExtra adds per-depth and per-layer progress, logged at debug level.
	VerbosityExtra
)

// ParseVerbosity parses silent, error, warning, info or extra.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(s) {
	case "silent":
		return VerbositySilent, nil
	case "error":
		return VerbosityError, nil
	case "warning", "warn":
		return VerbosityWarning, nil
	case "", "info":
		return VerbosityInfo, nil
	case "extra", "debug":
		return VerbosityExtra, nil
	}
	return VerbosityInfo, fmt.Errorf("unknown verbosity %q", s)
}

// SearchLogger is shared by the table builders and search drivers. Its output is advisory only.
type SearchLogger struct {
	logger    *zap.Logger
	verbosity Verbosity
}

// NewSearchLogger wraps logger. A nil logger discards everything.
func NewSearchLogger(logger *zap.Logger, verbosity Verbosity) *SearchLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchLogger{logger: logger, verbosity: verbosity}
}

// NopSearchLogger returns a logger that discards everything.
func NopSearchLogger() *SearchLogger {
	return NewSearchLogger(nil, VerbositySilent)
}

// Verbosity returns the configured verbosity.
func (l *SearchLogger) Verbosity() Verbosity {
	return l.verbosity
}

// Error logs at error level unless the logger is silent.
func (l *SearchLogger) Error(msg string, fields ...zap.Field) {
	if l.verbosity >= VerbosityError {
		l.logger.Error(msg, fields...)
	}
}

// Warn logs at warn level from VerbosityWarning up.
func (l *SearchLogger) Warn(msg string, fields ...zap.Field) {
	if l.verbosity >= VerbosityWarning {
		l.logger.Warn(msg, fields...)
	}
}

// Info logs at info level from VerbosityInfo up.
func (l *SearchLogger) Info(msg string, fields ...zap.Field) {
	if l.verbosity >= VerbosityInfo {
		l.logger.Info(msg, fields...)
	}
}

// Extra logs at debug level, only at VerbosityExtra.
func (l *SearchLogger) Extra(msg string, fields ...zap.Field) {
	if l.verbosity >= VerbosityExtra {
		l.logger.Debug(msg, fields...)
	}
}
