package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-listen/internal/logging"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	logging.Setup(logging.Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Debug().Str("song", "A").Msg("Song selected")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["song"] != "A" || entry["message"] != "Song selected" || entry["level"] != "debug" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logging.Setup(logging.Config{Level: tt.level, Output: &bytes.Buffer{}})
			t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

			if got := zerolog.GlobalLevel(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestSetupConsoleFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logging.Setup(logging.Config{Level: "warn", Format: "console", Output: &buf})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected console output %q", out)
	}
}
