// SPDX-License-Identifier: MIT
// Grounded on config/config.go's Config struct shape and client/cmd/
// root.go's env/flag precedence, adapted to spec.md §6's INI layout
// (no INI library exists anywhere in the example corpus, so the reader/
// writer below is hand-rolled in the teacher's own manual-parsing style —
// see DESIGN.md).
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Administrator is the `[Administrator]` INI section, per spec.md §6.
type Administrator struct {
	Username string
	Password string
	Salt     string
}

// Database is the `[Database]` INI section, per spec.md §6.
type Database struct {
	Driver   string
	Hostname string
	Password string
	Path     string
	Port     int
	Username string
}

// Config is the daemon's full configuration.
type Config struct {
	Administrator Administrator
	Database      Database
}

// Default returns the baseline configuration before file/env overrides.
func Default() Config {
	return Config{
		Administrator: Administrator{Username: "root", Salt: "queued"},
		Database:      Database{Driver: "sqlite", Path: "queued.db", Port: 5432},
	}
}

// DefaultConfigDir returns the system-standard configuration directory.
func DefaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "queued")
	}
	return "."
}

// Load reads the INI file at path (if present), then applies environment
// variable overrides, in that precedence order (file, then env).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadINI(path, &cfg); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("loading config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func loadINI(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	section := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		applyINIValue(cfg, section, key, value)
	}
	return scanner.Err()
}

func applyINIValue(cfg *Config, section, key, value string) {
	switch strings.EqualFold(section, "Administrator") {
	case true:
		switch strings.ToLower(key) {
		case "username":
			cfg.Administrator.Username = value
		case "password":
			cfg.Administrator.Password = value
		case "salt":
			cfg.Administrator.Salt = value
		}
		return
	}
	if strings.EqualFold(section, "Database") {
		switch strings.ToLower(key) {
		case "driver":
			cfg.Database.Driver = value
		case "hostname":
			cfg.Database.Hostname = value
		case "password":
			cfg.Database.Password = value
		case "path":
			cfg.Database.Path = value
		case "port":
			fmt.Sscanf(value, "%d", &cfg.Database.Port)
		case "username":
			cfg.Database.Username = value
		}
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("QUEUED_ADMIN_USERNAME"); v != "" {
		cfg.Administrator.Username = v
	}
	if v := os.Getenv("QUEUED_ADMIN_PASSWORD"); v != "" {
		cfg.Administrator.Password = v
	}
	if v := os.Getenv("QUEUED_ADMIN_SALT"); v != "" {
		cfg.Administrator.Salt = v
	}
	if v := os.Getenv("QUEUED_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("QUEUED_DB_HOSTNAME"); v != "" {
		cfg.Database.Hostname = v
	}
	if v := os.Getenv("QUEUED_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("QUEUED_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("QUEUED_DB_USERNAME"); v != "" {
		cfg.Database.Username = v
	}
}

// Write renders cfg back to INI form at path, for `config init`-style
// bootstrap flows (client/cmd's config command analogue).
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintln(&b, "[Administrator]")
	fmt.Fprintf(&b, "Username = %s\n", cfg.Administrator.Username)
	fmt.Fprintf(&b, "Password = %s\n", cfg.Administrator.Password)
	fmt.Fprintf(&b, "Salt = %s\n", cfg.Administrator.Salt)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "[Database]")
	fmt.Fprintf(&b, "Driver = %s\n", cfg.Database.Driver)
	fmt.Fprintf(&b, "Hostname = %s\n", cfg.Database.Hostname)
	fmt.Fprintf(&b, "Password = %s\n", cfg.Database.Password)
	fmt.Fprintf(&b, "Path = %s\n", cfg.Database.Path)
	fmt.Fprintf(&b, "Port = %d\n", cfg.Database.Port)
	fmt.Fprintf(&b, "Username = %s\n", cfg.Database.Username)
	return os.WriteFile(path, []byte(b.String()), 0o600)
}
