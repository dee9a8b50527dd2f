// SPDX-License-Identifier: MIT
package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestStatusIsDeterministicForFixedFields(t *testing.T) {
	origVersion, origCommit, origBuild := Version, CommitID, BuildTime
	defer func() { Version, CommitID, BuildTime = origVersion, origCommit, origBuild }()

	Version, CommitID, BuildTime = "1.2.3", "abc123", "2026-01-01T00:00:00Z"
	a := Status()
	b := Status()
	if a.Hash != b.Hash {
		t.Fatalf("Status().Hash not deterministic: %s != %s", a.Hash, b.Hash)
	}
	if a.OS != runtime.GOOS || a.Arch != runtime.GOARCH {
		t.Fatalf("Status() OS/Arch = %s/%s, want %s/%s", a.OS, a.Arch, runtime.GOOS, runtime.GOARCH)
	}
}

func TestStatusHashChangesWithAnyField(t *testing.T) {
	origVersion, origCommit, origBuild := Version, CommitID, BuildTime
	defer func() { Version, CommitID, BuildTime = origVersion, origCommit, origBuild }()

	Version, CommitID = "1.0.0", "aaa"
	first := Status().Hash

	CommitID = "bbb"
	second := Status().Hash

	if first == second {
		t.Fatalf("Status().Hash unchanged after CommitID changed: %s", first)
	}

	Version = "1.0.1"
	third := Status().Hash
	if third == second {
		t.Fatalf("Status().Hash unchanged after Version changed: %s", second)
	}

	BuildTime = "2026-02-02T00:00:00Z"
	fourth := Status().Hash
	if fourth == third {
		t.Fatalf("Status().Hash unchanged after BuildTime changed: %s", third)
	}
}

func TestStringIncludesVersionAndShortHash(t *testing.T) {
	origVersion := Version
	defer func() { Version = origVersion }()
	Version = "9.9.9"

	info := Status()
	s := info.String()
	if len(s) == 0 {
		t.Fatalf("String() returned empty")
	}
	if !strings.Contains(s, "9.9.9") {
		t.Fatalf("String() = %q, missing version 9.9.9", s)
	}
	if !strings.Contains(s, info.Hash[:12]) {
		t.Fatalf("String() = %q, missing short hash %s", s, info.Hash[:12])
	}
}
