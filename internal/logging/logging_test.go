package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// TestParseLevel - Level names
// ---------------------------------------------------------------------------

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" warning ", zerolog.WarnLevel},
		{"", zerolog.WarnLevel},
		{"off", zerolog.Disabled},
		{"verbose", zerolog.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	t.Parallel()

	if !ValidLevel("Debug") {
		t.Error("Debug should be valid")
	}
	if ValidLevel("verbose") {
		t.Error("verbose should be invalid")
	}
}

// ---------------------------------------------------------------------------
// TestNew - Output formats
// ---------------------------------------------------------------------------

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})
	log.Info().Str("job", "abc").Msg("rasterized")
	log.Debug().Msg("filtered out")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["job"] != "abc" || entry["message"] != "rasterized" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_Console(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})
	log.Warn().Msg("tool missing")

	if !strings.Contains(buf.String(), "tool missing") {
		t.Errorf("console output = %q", buf.String())
	}
}
