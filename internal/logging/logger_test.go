package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLoggerWithService(t *testing.T) {
	l := NewLoggerWithService("svc-a")

	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.Info("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["service"] != "svc-a" {
		t.Fatalf("expected service field svc-a, got %v", entry["service"])
	}
	if entry["msg"] != "hello" {
		t.Fatalf("expected msg hello, got %v", entry["msg"])
	}
}

func TestNewLoggerWithService_FieldSurvivesWithField(t *testing.T) {
	l := NewLoggerWithService("svc-b")

	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.WithField("k", "v").Warn("warned")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["service"] != "svc-b" || entry["k"] != "v" {
		t.Fatalf("expected service and custom fields, got %v", entry)
	}
}
