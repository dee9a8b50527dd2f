// SPDX-License-Identifier: MIT
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthenticateStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth" {
			t.Fatalf("path = %q, want /auth", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "data": map[string]string{"token": "abc"}})
	}))
	defer srv.Close()

	c := New(srv.URL, "", 0)
	token, err := c.Authenticate("alice", "hunter2")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if token != "abc" {
		t.Fatalf("token = %q, want abc", token)
	}
	if c.token != "abc" {
		t.Fatalf("client did not retain token after Authenticate")
	}
}

func TestDoSurfacesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "INVALID_TOKEN", "message": "expired"})
	}))
	defer srv.Close()

	c := New(srv.URL, "dead", 0)
	_, err := c.GetTask(1)
	if err == nil {
		t.Fatalf("expected an error, got nil")
	}
}
