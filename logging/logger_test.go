package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		service string
		level   string
		format  string
	}{
		{"json logger", "scheduler", "info", "json"},
		{"text logger", "scheduler", "debug", "text"},
		{"invalid level defaults to info", "scheduler", "bogus", "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.service, tt.level, tt.format)
			if logger == nil {
				t.Fatal("New() returned nil")
			}
			if logger.service != tt.service {
				t.Errorf("service = %v, want %v", logger.service, tt.service)
			}
		})
	}
}

func TestLogger_WithContext(t *testing.T) {
	logger := New("scheduler", "info", "json")
	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-123")
	ctx = WithSender(ctx, "neo1owner")

	entry := logger.WithContext(ctx)
	if entry.Data["service"] != "scheduler" {
		t.Errorf("service field = %v, want scheduler", entry.Data["service"])
	}
	if entry.Data["trace_id"] != "trace-123" {
		t.Errorf("trace_id field = %v, want trace-123", entry.Data["trace_id"])
	}
	if entry.Data["sender"] != "neo1owner" {
		t.Errorf("sender field = %v, want neo1owner", entry.Data["sender"])
	}
}

func TestLogJobTransition(t *testing.T) {
	var buf bytes.Buffer
	logger := New("scheduler", "info", "json")
	logger.SetOutput(&buf)

	logger.LogJobTransition(context.Background(), 7, "Pending", "Executed", nil)

	var out map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if out["job_id"] != float64(7) {
		t.Errorf("job_id = %v, want 7", out["job_id"])
	}
	if out["message"] != "job transition" {
		t.Errorf("message = %v", out["message"])
	}
}

func TestLogJobTransition_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := New("scheduler", "info", "json")
	logger.SetOutput(&buf)

	logger.LogJobTransition(context.Background(), 1, "Pending", "Failed", errors.New("boom"))

	if !strings.Contains(buf.String(), "job transition failed") {
		t.Errorf("expected warn log, got %q", buf.String())
	}
}

func TestGetTraceID_Unset(t *testing.T) {
	if got := GetTraceID(context.Background()); got != "" {
		t.Errorf("GetTraceID() = %q, want empty", got)
	}
}

func TestNewTraceID_Unique(t *testing.T) {
	a := NewTraceID()
	b := NewTraceID()
	if a == b {
		t.Error("NewTraceID() returned the same id twice")
	}
}
