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

package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/mongobox/mongobox/internal/log"
)

func TestSeverityToLevel(t *testing.T) {
	tcs := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "Warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
	}
	for _, tc := range tcs {
		got, err := log.SeverityToLevel(tc.in)
		if err != nil {
			t.Fatalf("unexpected error for %q: %s", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("unexpected level for %q: %v", tc.in, got)
		}
	}

	if _, err := log.SeverityToLevel("verbose"); err == nil {
		t.Fatalf("expected error for invalid severity")
	}
}

func TestStdLoggerStreamSplit(t *testing.T) {
	out := new(bytes.Buffer)
	errB := new(bytes.Buffer)
	logger, err := log.NewStdLogger(out, errB, "debug")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	ctx := context.Background()

	logger.InfoContext(ctx, "started on port %d", 5000)
	logger.ErrorContext(ctx, "boom")

	if !strings.Contains(out.String(), "started on port 5000") {
		t.Fatalf("info log missing from out stream: %q", out.String())
	}
	if strings.Contains(out.String(), "boom") {
		t.Fatalf("error log must not go to out stream: %q", out.String())
	}
	if !strings.Contains(errB.String(), "boom") {
		t.Fatalf("error log missing from err stream: %q", errB.String())
	}
}

func TestStdLoggerLevelFilter(t *testing.T) {
	out := new(bytes.Buffer)
	errB := new(bytes.Buffer)
	logger, err := log.NewStdLogger(out, errB, "warn")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	logger.InfoContext(context.Background(), "quiet")
	if out.Len() != 0 {
		t.Fatalf("info log should be filtered at warn level: %q", out.String())
	}
}

func TestStructuredLoggerFields(t *testing.T) {
	out := new(bytes.Buffer)
	errB := new(bytes.Buffer)
	logger, err := log.NewStructuredLogger(out, errB, "info")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	logger.InfoContext(context.Background(), "hello %s", "world")

	var entry map[string]any
	if err := json.Unmarshal(out.Bytes(), &entry); err != nil {
		t.Fatalf("log entry is not valid json: %s", err)
	}
	if entry["severity"] != "INFO" {
		t.Fatalf("unexpected severity: %v", entry["severity"])
	}
	if entry["message"] != "hello world" {
		t.Fatalf("unexpected message: %v", entry["message"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Fatalf("expected timestamp field: %v", entry)
	}
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	if _, err := log.NewStdLogger(new(bytes.Buffer), new(bytes.Buffer), "loud"); err == nil {
		t.Fatalf("expected error for invalid level")
	}
	if _, err := log.NewStructuredLogger(new(bytes.Buffer), new(bytes.Buffer), "loud"); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}
