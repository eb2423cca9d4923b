package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel("")
	})
	return &buf
}

func TestNewUsesLogLevelEnv(t *testing.T) {
	capture(t)
	t.Setenv("LOG_LEVEL", "debug")
	if got := New().Logger.GetLevel(); got != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", got)
	}
	t.Setenv("LOG_LEVEL", "")
	if got := New().Logger.GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("expected info level by default, got %s", got)
	}
}

func TestSetLevelOverridesEnv(t *testing.T) {
	capture(t)
	t.Setenv("LOG_LEVEL", "error")
	SetLevel("debug")
	if got := New().Logger.GetLevel(); got != logrus.DebugLevel {
		t.Fatalf("SetLevel should win over LOG_LEVEL, got %s", got)
	}
}

func TestJSONFormatterOutsideLocal(t *testing.T) {
	buf := capture(t)
	t.Setenv("ENVIRONMENT", "production")
	New().WithField("component", "test").Info("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if line["component"] != "test" || line["msg"] != "hello" {
		t.Fatalf("unexpected fields: %v", line)
	}
}

func TestWithError(t *testing.T) {
	buf := capture(t)
	t.Setenv("ENVIRONMENT", "production")
	l := New()
	if l.WithError(nil) != l.Entry {
		t.Fatal("WithError(nil) should return the bare entry")
	}
	l.WithError(errors.New("boom")).Warn("failed")
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Fatalf("expected error field, got %q", buf.String())
	}
}

func TestWithRequestKeepsRequestID(t *testing.T) {
	capture(t)
	r := httptest.NewRequest("GET", "/healthz", nil)
	r.Header.Set("X-Request-ID", "abc-123")
	entry := New().WithRequest(r)
	if entry.Data["req_id"] != "abc-123" {
		t.Fatalf("expected req_id from header, got %v", entry.Data["req_id"])
	}
	if entry.Data["path"] != "/healthz" {
		t.Fatalf("expected path field, got %v", entry.Data["path"])
	}

	r.Header.Del("X-Request-ID")
	if id, _ := New().WithRequest(r).Data["req_id"].(string); id == "" {
		t.Fatal("expected a generated req_id")
	}
}
