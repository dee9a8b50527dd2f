// SPDX-License-Identifier: MIT
// Grounded on server/handler's JSON response envelope convention.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/queued/queued/internal/apierrors"
)

// APIResponse is the uniform JSON envelope every endpoint returns, per
// spec.md §6.
type APIResponse struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, APIResponse{OK: true, Data: data})
}

// writeError renders err as an APIResponse, mapping apierrors.Error's
// Kind to the proper HTTP status per spec.md §7; any other error
// (programmer mistakes, unexpected nils) falls back to 500.
func writeError(w http.ResponseWriter, err error) {
	if e, ok := apierrors.As(err); ok {
		writeJSON(w, apierrors.HTTPStatus(e.Kind), APIResponse{OK: false, Error: string(e.Kind), Message: e.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, APIResponse{OK: false, Error: string(apierrors.KindError), Message: err.Error()})
}
