// SPDX-License-Identifier: MIT
package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteOKEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeOK(rec, map[string]string{"k": "v"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK {
		t.Fatalf("resp.OK = false, want true")
	}
}

func TestRequireJSONRejectsWrongContentType(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/task", nil)
	req.ContentLength = 10
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	requireJSON(next).ServeHTTP(rec, req)

	if called {
		t.Fatalf("next handler was called despite wrong Content-Type")
	}
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}
}

func TestExtractTokenStripsBearerPrefix(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = tokenFromContext(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set(tokenHeader, "Bearer abc123")
	rec := httptest.NewRecorder()

	extractToken(next).ServeHTTP(rec, req)

	if got != "abc123" {
		t.Fatalf("token = %q, want %q", got, "abc123")
	}
}
