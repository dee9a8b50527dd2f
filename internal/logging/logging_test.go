// SPDX-License-Identifier: MIT
package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONFormatEncodesOneEntryPerLine(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, FormatJSON)
	log.Info("hello", map[string]any{"count": 3})

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal entry: %v", err)
	}
	if entry.Level != "info" || entry.Message != "hello" {
		t.Fatalf("entry = %+v, want level=info message=hello", entry)
	}
	if entry.Fields["count"].(float64) != 3 {
		t.Fatalf("entry.Fields[count] = %v, want 3", entry.Fields["count"])
	}
}

func TestTextFormatIncludesLevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, FormatText)
	log.Warn("disk low", map[string]any{"pct": 91})

	line := buf.String()
	if !strings.Contains(line, "[warn]") || !strings.Contains(line, "disk low") || !strings.Contains(line, "pct=91") {
		t.Fatalf("text line = %q, missing expected substrings", line)
	}
}

func TestWithCarriesFieldsIntoChildAndLeavesParentUnaffected(t *testing.T) {
	var buf bytes.Buffer
	parent := New(&buf, FormatJSON)
	child := parent.With("request_id", "abc123")

	child.Info("handled", nil)
	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Fields["request_id"] != "abc123" {
		t.Fatalf("child entry missing request_id field: %+v", entry.Fields)
	}

	buf.Reset()
	parent.Info("unaffected", nil)
	entry = Entry{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := entry.Fields["request_id"]; ok {
		t.Fatalf("parent logger was mutated by With: %+v", entry.Fields)
	}
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{LevelDebug: "debug", LevelInfo: "info", LevelWarn: "warn", LevelError: "error"}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Fatalf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}
