// SPDX-License-Identifier: MIT
package model

import "strings"

// Setting is the persisted typed advanced-setting row, per spec.md §3.
type Setting struct {
	ID        int64
	Key       string
	Value     string
	AdminOnly bool
}

// OnExitAction enumerates the on-exit policy, per spec.md §4.7.
type OnExitAction int

const (
	OnExitTerminate OnExitAction = 1
	OnExitKill      OnExitAction = 2
)

// Defaults describes one recognized setting's default value and
// admin-visibility flag, per spec.md §3.
type Defaults struct {
	Value     string
	AdminOnly bool
}

// DefaultSettings is the recognized-settings table of spec.md §3.
var DefaultSettings = map[string]Defaults{
	"DatabaseInterval":     {"86400000", true},
	"DatabaseVersion":      {"", true},
	"DefaultLimits":        {"0\n0\n0\n0\n0", false},
	"KeepTasks":            {"0", false},
	"KeepUsers":            {"0", false},
	"OnExitAction":         {"2", false},
	"Plugins":              {"", false},
	"ServerAddress":        {"", false},
	"ServerMaxConnections": {"30", false},
	"ServerPort":           {"8080", false},
	"ServerTimeout":        {"-1", false},
	"TokenExpiration":      {"30", false},
}

// IsPluginKey reports whether key matches the "Plugin.<name>.<rest>"
// shape; such keys are implicitly adminOnly and bypass DefaultSettings.
func IsPluginKey(key string) bool {
	return strings.HasPrefix(strings.ToLower(key), "plugin.")
}
