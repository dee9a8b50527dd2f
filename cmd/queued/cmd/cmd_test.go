// SPDX-License-Identifier: MIT
package cmd

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

func resetGlobalFlags() {
	cfgFile, serverAddr, apiToken, outputFmt, timeout = "", "", "", "", 0
}

func TestParseGlobalFlagsConsumesKnownFlagsAndLeavesTheRest(t *testing.T) {
	resetGlobalFlags()
	t.Cleanup(resetGlobalFlags)

	remaining := parseGlobalFlags([]string{"-s", "http://host:9000", "-t", "tok123", "task-list", "--user-id", "4"})

	if serverAddr != "http://host:9000" {
		t.Fatalf("serverAddr = %q, want http://host:9000", serverAddr)
	}
	if apiToken != "tok123" {
		t.Fatalf("apiToken = %q, want tok123", apiToken)
	}
	want := []string{"task-list", "--user-id", "4"}
	if len(remaining) != len(want) {
		t.Fatalf("remaining = %v, want %v", remaining, want)
	}
	for i := range want {
		if remaining[i] != want[i] {
			t.Fatalf("remaining[%d] = %q, want %q", i, remaining[i], want[i])
		}
	}
}

func TestParseGlobalFlagsIgnoresTrailingFlagWithoutValue(t *testing.T) {
	resetGlobalFlags()
	t.Cleanup(resetGlobalFlags)

	remaining := parseGlobalFlags([]string{"--token"})
	if apiToken != "" {
		t.Fatalf("apiToken = %q, want empty (no value supplied)", apiToken)
	}
	if len(remaining) != 0 {
		t.Fatalf("remaining = %v, want empty", remaining)
	}
}

func TestParsePermissionArgs(t *testing.T) {
	userID, perm, err := parsePermissionArgs([]string{"42", "4"})
	if err != nil {
		t.Fatalf("parsePermissionArgs: %v", err)
	}
	if userID != 42 || perm != 4 {
		t.Fatalf("got (%d, %d), want (42, 4)", userID, perm)
	}

	if _, _, err := parsePermissionArgs([]string{"42"}); err == nil {
		t.Fatalf("parsePermissionArgs(too few args) succeeded, want error")
	}
	if _, _, err := parsePermissionArgs([]string{"notanumber", "4"}); err == nil {
		t.Fatalf("parsePermissionArgs(bad userID) succeeded, want error")
	}
}

func TestApplyUserFieldKnownKeys(t *testing.T) {
	body := make(map[string]any)
	for _, kv := range []string{"email=a@b.com", "permissions=5", "priority=10"} {
		if err := applyUserField(body, kv); err != nil {
			t.Fatalf("applyUserField(%q): %v", kv, err)
		}
	}
	if body["email"] != "a@b.com" {
		t.Fatalf("email = %v", body["email"])
	}
	if body["permissions"] != uint32(5) {
		t.Fatalf("permissions = %v, want uint32(5)", body["permissions"])
	}
	if body["priority"] != int64(10) {
		t.Fatalf("priority = %v, want int64(10)", body["priority"])
	}
}

func TestApplyUserFieldRejectsUnknownAndMalformed(t *testing.T) {
	body := make(map[string]any)
	if err := applyUserField(body, "nope=1"); err == nil {
		t.Fatalf("applyUserField(unknown field) succeeded, want error")
	}
	if err := applyUserField(body, "noequals"); err == nil {
		t.Fatalf("applyUserField(no '=') succeeded, want error")
	}
	if err := applyUserField(body, "permissions=notanumber"); err == nil {
		t.Fatalf("applyUserField(bad permissions) succeeded, want error")
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestPrintJSONTableModeRendersColumns(t *testing.T) {
	origFormat := cfg.Output.Format
	cfg.Output.Format = "table"
	t.Cleanup(func() { cfg.Output.Format = origFormat })

	out := captureStdout(t, func() {
		printJSON([]byte(`{"ID":1,"Command":"echo"}`))
	})
	if !strings.Contains(out, "ID") || !strings.Contains(out, "Command") {
		t.Fatalf("table output missing expected headers: %q", out)
	}
}

func TestPrintJSONJSONModeIndents(t *testing.T) {
	origFormat := cfg.Output.Format
	cfg.Output.Format = "json"
	t.Cleanup(func() { cfg.Output.Format = origFormat })

	out := captureStdout(t, func() {
		printJSON([]byte(`{"a":1}`))
	})
	if !strings.Contains(out, "\"a\": 1") {
		t.Fatalf("json output not indented: %q", out)
	}
}

func TestPrintTableEmptyRows(t *testing.T) {
	out := captureStdout(t, func() {
		printTable(nil)
	})
	if !strings.Contains(out, "no results") {
		t.Fatalf("empty table output = %q, want a no-results message", out)
	}
}
