package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Invalid log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestNewLoggerAddsService(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "info", Output: &buf})

	l.Info("hello").Send()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0]["service"] != "hashstore" {
		t.Errorf("Expected service=hashstore, got %v", lines[0]["service"])
	}
}

func TestLogStoreOperation(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "debug", Output: &buf})

	l.LogStoreOperation("hgetall", 3*time.Millisecond, nil)
	l.ObserveStoreOperation("sadd", time.Millisecond, errors.New("boom"))

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0]["level"] != "debug" || lines[0]["operation"] != "hgetall" {
		t.Errorf("Unexpected success entry: %v", lines[0])
	}
	if lines[1]["level"] != "error" || lines[1]["error"] != "boom" {
		t.Errorf("Unexpected failure entry: %v", lines[1])
	}
	if lines[1]["component"] != "store" {
		t.Errorf("Expected component=store, got %v", lines[1]["component"])
	}
}

func TestComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "info", Output: &buf})

	zl := l.Component("repository")
	zl.Info().Msg("from component")
	l.GrpcLogger("/hashstore.v1.RecordService/Save").Info("from grpc").Send()

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0]["component"] != "repository" {
		t.Errorf("Component logger: %v", lines[0])
	}
	if lines[1]["method"] != "/hashstore.v1.RecordService/Save" {
		t.Errorf("gRPC logger: %v", lines[1])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "warn", Output: &buf})
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	l.Info("dropped").Send()
	l.LogStoreOperation("ping", time.Millisecond, nil)
	l.Warn("kept").Send()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("Expected only the warning, got %d lines", len(lines))
	}
}
