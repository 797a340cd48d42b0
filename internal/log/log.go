// Copyright 2025 Mongobox Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is the interface used throughout the project for logging.
type Logger interface {
	// DebugContext is for reporting additional information about internal
	// operations.
	DebugContext(ctx context.Context, format string, args ...interface{})
	// InfoContext is for reporting informational messages.
	InfoContext(ctx context.Context, format string, args ...interface{})
	// WarnContext is for reporting warning messages.
	WarnContext(ctx context.Context, format string, args ...interface{})
	// ErrorContext is for reporting errors.
	ErrorContext(ctx context.Context, format string, args ...interface{})
}

// SeverityToLevel converts a severity string into an slog Level.
func SeverityToLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.Level(-5), fmt.Errorf("invalid log level")
	}
}

type StdLogger struct {
	outLogger *slog.Logger
	errLogger *slog.Logger
}

// NewStdLogger creates a Logger that uses out and err for standard and error
// logs.
func NewStdLogger(outW, errW io.Writer, logLevel string) (Logger, error) {
	// set log level
	var programLevel = new(slog.LevelVar)
	slogLevel, err := SeverityToLevel(logLevel)
	if err != nil {
		return nil, err
	}
	programLevel.Set(slogLevel)

	handlerOptions := &slog.HandlerOptions{Level: programLevel}

	return &StdLogger{
		outLogger: slog.New(slog.NewTextHandler(outW, handlerOptions)),
		errLogger: slog.New(slog.NewTextHandler(errW, handlerOptions)),
	}, nil
}

// DebugContext logs debug messages.
func (sl *StdLogger) DebugContext(ctx context.Context, format string, args ...interface{}) {
	sl.outLogger.DebugContext(ctx, fmt.Sprintf(format, args...))
}

// InfoContext logs informational messages.
func (sl *StdLogger) InfoContext(ctx context.Context, format string, args ...interface{}) {
	sl.outLogger.InfoContext(ctx, fmt.Sprintf(format, args...))
}

// WarnContext logs warning messages.
func (sl *StdLogger) WarnContext(ctx context.Context, format string, args ...interface{}) {
	sl.errLogger.WarnContext(ctx, fmt.Sprintf(format, args...))
}

// ErrorContext logs error messages.
func (sl *StdLogger) ErrorContext(ctx context.Context, format string, args ...interface{}) {
	sl.errLogger.ErrorContext(ctx, fmt.Sprintf(format, args...))
}

type StructuredLogger struct {
	outLogger *slog.Logger
	errLogger *slog.Logger
}

// NewStructuredLogger creates a Logger that logs messages as JSON.
func NewStructuredLogger(outW, errW io.Writer, logLevel string) (Logger, error) {
	// set log level
	var programLevel = new(slog.LevelVar)
	slogLevel, err := SeverityToLevel(logLevel)
	if err != nil {
		return nil, err
	}
	programLevel.Set(slogLevel)

	handlerOptions := &slog.HandlerOptions{Level: programLevel, ReplaceAttr: replaceAttr}

	return &StructuredLogger{
		outLogger: slog.New(slog.NewJSONHandler(outW, handlerOptions)),
		errLogger: slog.New(slog.NewJSONHandler(errW, handlerOptions)),
	}, nil
}

// replaceAttr renames attribute keys to match Cloud Logging fields.
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) != 0 {
		return a
	}
	switch a.Key {
	case slog.LevelKey:
		a.Key = "severity"
	case slog.MessageKey:
		a.Key = "message"
	case slog.TimeKey:
		a.Key = "timestamp"
	}
	return a
}

// DebugContext logs debug messages.
func (sl *StructuredLogger) DebugContext(ctx context.Context, format string, args ...interface{}) {
	sl.outLogger.DebugContext(ctx, fmt.Sprintf(format, args...))
}

// InfoContext logs informational messages.
func (sl *StructuredLogger) InfoContext(ctx context.Context, format string, args ...interface{}) {
	sl.outLogger.InfoContext(ctx, fmt.Sprintf(format, args...))
}

// WarnContext logs warning messages.
func (sl *StructuredLogger) WarnContext(ctx context.Context, format string, args ...interface{}) {
	sl.errLogger.WarnContext(ctx, fmt.Sprintf(format, args...))
}

// ErrorContext logs error messages.
func (sl *StructuredLogger) ErrorContext(ctx context.Context, format string, args ...interface{}) {
	sl.errLogger.ErrorContext(ctx, fmt.Sprintf(format, args...))
}
