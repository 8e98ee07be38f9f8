package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, level Level) (Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	log, err := NewLogger(&Config{
		Level:            level,
		Format:           JSONFormat,
		Output:           StdoutOutput,
		DisableTimestamp: true,
		Writer:           buf,
	})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	return log, buf
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		expectError bool
	}{
		{"default", DefaultConfig(), false},
		{"debug json", &Config{Level: DebugLevel, Format: JSONFormat, Output: StdoutOutput}, false},
		{"bad level", &Config{Level: "loud", Format: TextFormat, Output: StderrOutput}, true},
		{"bad format", &Config{Level: InfoLevel, Format: "xml", Output: StderrOutput}, true},
		{"bad output", &Config{Level: InfoLevel, Format: TextFormat, Output: "syslog"}, true},
		{"file without path", &Config{Level: InfoLevel, Format: TextFormat, Output: FileOutput}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWithFieldsArePreserved(t *testing.T) {
	log, buf := newBufferLogger(t, InfoLevel)

	log.WithComponent("parser").WithField("line", 3).Info("skipped line")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["component"] != "parser" {
		t.Errorf("expected component field, got %v", entry["component"])
	}
	if entry["line"] != float64(3) {
		t.Errorf("expected line field 3, got %v", entry["line"])
	}
	if entry["msg"] != "skipped line" {
		t.Errorf("expected message, got %v", entry["msg"])
	}
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(t, WarnLevel)

	log.Info("hidden")
	log.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn message should be written")
	}
}

func TestTimedOperation(t *testing.T) {
	log, buf := newBufferLogger(t, InfoLevel)

	if err := TimedOperation("aggregate", log, func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"status":"success"`) {
		t.Errorf("expected success status, got %s", buf.String())
	}

	buf.Reset()
	want := errors.New("boom")
	if err := TimedOperation("aggregate", log, func() error { return want }); err != want {
		t.Fatalf("expected error to be returned unchanged, got %v", err)
	}
	if !strings.Contains(buf.String(), `"status":"error"`) {
		t.Errorf("expected error status, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{" INFO ", InfoLevel, false},
		{"Warning", WarnLevel, false},
		{"err", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"trace", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGlobalLogger(t *testing.T) {
	previous := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(previous) })

	log, buf := newBufferLogger(t, InfoLevel)
	SetGlobalLogger(log)
	SetGlobalLogger(nil)

	WithRunID("run-42").WithComponent("pipeline").Info("run started")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}
	if entry[FieldRunID] != "run-42" || entry[FieldComponent] != "pipeline" {
		t.Errorf("expected run id and component fields, got %v", entry)
	}
}
