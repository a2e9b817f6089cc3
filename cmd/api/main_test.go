package main

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestBootLogger_WritesJSONWithTimestamp(t *testing.T) {
	var buf bytes.Buffer
	boot := bootLogger(&buf)
	boot.Error().Str("env", "ENV").Msg("failed to load config")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("invalid json log line %q: %v", buf.String(), err)
	}
	if line["level"] != "error" || line["component"] != "boot" || line["message"] != "failed to load config" {
		t.Fatalf("unexpected fields: %+v", line)
	}
	if _, ok := line["time"]; !ok {
		t.Fatalf("missing timestamp: %+v", line)
	}
}
