package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Output: &buf, Service: "thrive-api"})

	logger.Debug().Msg("hidden")
	logger.Info().Str("location_id", "abc").Msg("review created")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}

	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if event["service"] != "thrive-api" {
		t.Fatalf("service = %v, want thrive-api", event["service"])
	}
	if event["location_id"] != "abc" {
		t.Fatalf("location_id = %v, want abc", event["location_id"])
	}
	if event["message"] != "review created" {
		t.Fatalf("message = %v", event["message"])
	}
}
