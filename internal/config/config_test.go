// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-file.ini"))
	if err != nil {
		t.Fatalf("Load(missing) error: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Fatalf("Load(missing) = %+v, want defaults %+v", cfg, want)
	}
}

func TestWriteThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queued.ini")
	in := Config{
		Administrator: Administrator{Username: "alice", Password: "secret", Salt: "pepper"},
		Database:      Database{Driver: "mysql", Hostname: "db.internal", Password: "dbpass", Path: "", Port: 3306, Username: "queued"},
	}
	if err := Write(path, in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out != in {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
}

func TestLoadIgnoresCommentsAndBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queued.ini")
	contents := "; a comment\n\n[Administrator]\n# another comment\nUsername = bob\n\n[Database]\nDriver = postgres\nPort = 5433\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Administrator.Username != "bob" {
		t.Fatalf("Administrator.Username = %q, want bob", cfg.Administrator.Username)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Port != 5433 {
		t.Fatalf("Database = %+v, want driver postgres port 5433", cfg.Database)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queued.ini")
	if err := Write(path, Default()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	t.Setenv("QUEUED_ADMIN_USERNAME", "fromenv")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Administrator.Username != "fromenv" {
		t.Fatalf("Administrator.Username = %q, want fromenv (env must win over file)", cfg.Administrator.Username)
	}
}
