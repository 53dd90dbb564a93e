package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "debug", "json")
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Debug().Str("region", "CL").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["region"] != "CL" || entry["message"] != "hello" {
		t.Errorf("Unexpected entry %v", entry)
	}
	if entry["service"] != "trends-dashboard" {
		t.Errorf("Expected service field, got %v", entry["service"])
	}
}

func TestSetupWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "bogus", "json")
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected debug to be filtered at info level, got %q", buf.String())
	}

	SetupWriter(&buf, "error", "console")
	log.Warn().Msg("hidden")
	log.Error().Msg("shown")
	if !bytes.Contains(buf.Bytes(), []byte("shown")) || bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Errorf("Unexpected output %q", buf.String())
	}
}
